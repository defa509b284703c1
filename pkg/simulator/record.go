package simulator

import (
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/io"
)

// maxRecordSize limits the size of a stored asset record.
const maxRecordSize = 128 * 1024

// Record is the ledger state of a coin.
type Record struct {
	Asset           asset.Asset
	ConfirmedHeight uint32
	Spent           bool
	SpentHeight     uint32
}

// EncodeBinary implements the io.Serializable interface.
func (r *Record) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(r.ConfirmedHeight)
	w.WriteBool(r.Spent)
	w.WriteU32LE(r.SpentHeight)
	w.WriteVarBytes(asset.Encode(r.Asset))
}

// DecodeBinary implements the io.Serializable interface.
func (r *Record) DecodeBinary(br *io.BinReader) {
	r.ConfirmedHeight = br.ReadU32LE()
	r.Spent = br.ReadBool()
	r.SpentHeight = br.ReadU32LE()
	b := br.ReadVarBytes(maxRecordSize)
	if br.Err != nil {
		return
	}
	r.Asset, br.Err = asset.Decode(b)
}

func decodeRecord(b []byte) (*Record, error) {
	var (
		r  = new(Record)
		br = io.NewBinReaderFromBuf(b)
	)
	r.DecodeBinary(br)
	if br.Err != nil {
		return nil, fmt.Errorf("invalid coin record: %w", br.Err)
	}
	return r, nil
}

func encodeRecord(r *Record) []byte {
	w := io.NewBufBinWriter()
	r.EncodeBinary(w.BinWriter)
	return w.Bytes()
}
