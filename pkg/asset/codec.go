package asset

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/io"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Record kinds of the binary encoding.
const (
	kindXch byte = iota + 1
	kindCat
	kindNft
	kindDid
	kindOption
	kindUnderlying
	kindLauncher
)

// maxInfoSize limits the singleton info part of the encoded record.
const maxInfoSize = 64 * 1024

// Encode serializes the record.
func Encode(a Asset) []byte {
	w := io.NewBufBinWriter()
	cn := a.AssetCoin()
	switch v := a.(type) {
	case Xch:
		w.WriteB(kindXch)
		cn.EncodeBinary(w.BinWriter)
	case Cat:
		w.WriteB(kindCat)
		cn.EncodeBinary(w.BinWriter)
		w.WriteBytes(v.AssetID[:])
		w.WriteBytes(v.P2[:])
	case Nft:
		w.WriteB(kindNft)
		cn.EncodeBinary(w.BinWriter)
		w.WriteBytes(v.LauncherID[:])
		w.WriteVarBytes(EncodeInfo(v))
	case Did:
		w.WriteB(kindDid)
		cn.EncodeBinary(w.BinWriter)
		w.WriteBytes(v.LauncherID[:])
		w.WriteVarBytes(EncodeInfo(v))
	case Option:
		w.WriteB(kindOption)
		cn.EncodeBinary(w.BinWriter)
		w.WriteBytes(v.LauncherID[:])
		w.WriteVarBytes(EncodeInfo(v))
	case OptionUnderlying:
		w.WriteB(kindUnderlying)
		cn.EncodeBinary(w.BinWriter)
		writeArgs(w.BinWriter, v.Terms.Args())
		writeOptionalID(w.BinWriter, v.AssetID)
	case Launcher:
		w.WriteB(kindLauncher)
		cn.EncodeBinary(w.BinWriter)
		w.WriteU64LE(v.Nonce)
	default:
		panic(fmt.Sprintf("unknown asset type %T", a))
	}
	return w.Bytes()
}

// Decode restores the record serialized with Encode.
func Decode(b []byte) (Asset, error) {
	var (
		r    = io.NewBinReaderFromBuf(b)
		kind = r.ReadB()
		cn   coin.Coin
		res  Asset
		err  error
	)
	cn.DecodeBinary(r)
	switch kind {
	case kindXch:
		res = Xch{Coin: cn}
	case kindCat:
		v := Cat{Coin: cn}
		r.ReadBytes(v.AssetID[:])
		r.ReadBytes(v.P2[:])
		res = v
	case kindNft, kindDid, kindOption:
		var id util.Bytes32
		r.ReadBytes(id[:])
		info := r.ReadVarBytes(maxInfoSize)
		if r.Err != nil {
			break
		}
		if res, err = decodeInfo(info, id); err == nil {
			res = withCoin(res, cn)
		}
	case kindUnderlying:
		v := OptionUnderlying{Coin: cn}
		args := readArgs(r)
		if r.Err != nil {
			break
		}
		if v.Terms, err = puzzle.ParseOptionTerms(args); err == nil {
			v.AssetID = readOptionalID(r)
			res = v
		}
	case kindLauncher:
		res = Launcher{Coin: cn, Nonce: r.ReadU64LE()}
	default:
		err = fmt.Errorf("unknown record kind %d", kind)
	}
	if err == nil {
		err = r.Err
	}
	if err == nil && r.Len() != 0 {
		err = errors.New("trailing data")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid asset record: %w", err)
	}
	return res, nil
}
