/*
Package coin contains the ledger's value records: coins, coin spends and
spend bundles.
*/
package coin

import (
	"encoding/binary"

	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/io"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Coin is an immutable value record locked by a puzzle. A coin is identified
// by the hash of its parent id, puzzle hash and amount.
type Coin struct {
	ParentCoinInfo util.Bytes32 `json:"parent_coin_info"`
	PuzzleHash     util.Bytes32 `json:"puzzle_hash"`
	Amount         uint64       `json:"amount"`
}

// New returns a new Coin.
func New(parent, puzzleHash util.Bytes32, amount uint64) Coin {
	return Coin{ParentCoinInfo: parent, PuzzleHash: puzzleHash, Amount: amount}
}

// ID returns the coin id: sha256(parent ∥ puzzleHash ∥ AmountBytes(amount)).
func (c Coin) ID() util.Bytes32 {
	return hash.Sha256Concat(c.ParentCoinInfo[:], c.PuzzleHash[:], AmountBytes(c.Amount))
}

// Value returns the coin amount.
func (c Coin) Value() uint64 {
	return c.Amount
}

// Child returns the coin that is created by spending c with the
// CREATE_COIN(puzzleHash, amount) condition.
func (c Coin) Child(puzzleHash util.Bytes32, amount uint64) Coin {
	return New(c.ID(), puzzleHash, amount)
}

// EncodeBinary implements the io.Serializable interface.
func (c *Coin) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(c.ParentCoinInfo[:])
	w.WriteBytes(c.PuzzleHash[:])
	w.WriteU64BE(c.Amount)
}

// DecodeBinary implements the io.Serializable interface.
func (c *Coin) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(c.ParentCoinInfo[:])
	r.ReadBytes(c.PuzzleHash[:])
	c.Amount = r.ReadU64BE()
}

// AmountBytes returns the minimal signed big-endian encoding of amount. Zero
// is an empty slice and a zero byte is prepended if the top bit is set, so
// that the value is never read back as negative.
func AmountBytes(amount uint64) []byte {
	if amount == 0 {
		return []byte{}
	}
	var buf [9]byte
	binary.BigEndian.PutUint64(buf[1:], amount)
	i := 1
	for buf[i] == 0 {
		i++
	}
	if buf[i]&0x80 != 0 {
		i--
	}
	return append([]byte{}, buf[i:]...)
}
