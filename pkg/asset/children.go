package asset

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/io"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Launcher info kinds.
const (
	infoNft byte = iota + 1
	infoDid
	infoOption
)

// Child returns the CAT created by a with the given inner puzzle hash.
func (a Cat) Child(c *puzzle.Constants, p2 util.Bytes32, amount uint64) Cat {
	return Cat{
		Coin:    a.Coin.Child(puzzle.CatPuzzleHash(c, a.AssetID, p2), amount),
		AssetID: a.AssetID,
		P2:      p2,
	}
}

// Child returns the next generation of the NFT.
func (a Nft) Child(c *puzzle.Constants, p2 util.Bytes32, s puzzle.NftState) Nft {
	next := Nft{LauncherID: a.LauncherID, State: s, P2: p2}
	next.Coin = a.Coin.Child(PuzzleHash(c, next, p2), a.Coin.Amount)
	return next
}

// Child returns the next generation of the DID.
func (a Did) Child(c *puzzle.Constants, p2 util.Bytes32, s puzzle.DidState) Did {
	next := Did{LauncherID: a.LauncherID, State: s, P2: p2}
	next.Coin = a.Coin.Child(PuzzleHash(c, next, p2), a.Coin.Amount)
	return next
}

// Child returns the next generation of the option.
func (a Option) Child(c *puzzle.Constants, p2 util.Bytes32) Option {
	next := a
	next.P2 = p2
	next.Coin = a.Coin.Child(PuzzleHash(c, a, p2), a.Coin.Amount)
	return next
}

// Children returns records of the coins created by spending the parent
// record with the given inner conditions (the output of its custody
// puzzle). Coins the record type doesn't know anything about (like
// launchers created by a DID) are returned as Xch records.
func Children(c *puzzle.Constants, parent Asset, inner []puzzle.Condition) ([]Asset, error) {
	var (
		res     []Asset
		creates = createCoins(inner)
		pcoin   = parent.AssetCoin()
		plain   = func(cc puzzle.CreateCoin) Asset {
			return Xch{Coin: pcoin.Child(cc.PuzzleHash, cc.Amount)}
		}
	)
	switch p := parent.(type) {
	case Xch:
		for _, cc := range creates {
			res = append(res, plain(cc))
		}
	case Cat:
		for _, cc := range creates {
			res = append(res, p.Child(c, cc.PuzzleHash, cc.Amount))
		}
	case OptionUnderlying:
		for _, cc := range creates {
			if p.AssetID != nil {
				res = append(res, Cat{AssetID: *p.AssetID, Coin: pcoin}.Child(c, cc.PuzzleHash, cc.Amount))
			} else {
				res = append(res, plain(cc))
			}
		}
	case Launcher:
		if len(creates) != 1 || len(creates[0].Memos) == 0 {
			return nil, fmt.Errorf("%w: launcher must create exactly one singleton with info", ErrLineage)
		}
		eve, err := DecodeInfo(c, creates[0].Memos[0], pcoin, creates[0].Amount)
		if err != nil {
			return nil, err
		}
		if eve.AssetCoin().PuzzleHash != creates[0].PuzzleHash {
			return nil, fmt.Errorf("%w: launcher info doesn't match eve puzzle hash", ErrLineage)
		}
		res = append(res, eve)
	case Nft, Did, Option:
		var (
			next func(p2 util.Bytes32) Asset
			rest = inner
		)
		switch p := p.(type) {
		case Nft:
			var (
				s   puzzle.NftState
				err error
			)
			if s, rest, err = puzzle.NextNftState(p.State, inner); err != nil {
				return nil, err
			}
			next = func(p2 util.Bytes32) Asset { return p.Child(c, p2, s) }
		case Did:
			var s puzzle.DidState
			s, rest = puzzle.NextDidState(p.State, inner)
			next = func(p2 util.Bytes32) Asset { return p.Child(c, p2, s) }
		case Option:
			next = func(p2 util.Bytes32) Asset { return p.Child(c, p2) }
		}
		melted := puzzle.Melts(rest)
		for _, cc := range createCoins(rest) {
			if !melted && cc.Amount%2 == 1 {
				res = append(res, next(cc.PuzzleHash))
				melted = true // Only the first odd coin is the child.
				continue
			}
			res = append(res, plain(cc))
		}
	default:
		panic(fmt.Sprintf("unknown asset type %T", parent))
	}
	return res, nil
}

func createCoins(conds []puzzle.Condition) []puzzle.CreateCoin {
	var res []puzzle.CreateCoin
	for _, cond := range conds {
		if cc, ok := cond.(puzzle.CreateCoin); ok {
			res = append(res, cc)
		}
	}
	return res
}

// EncodeInfo serializes the description of an eve singleton, it's put into
// the launcher solution. The launcher id and the coin aren't included, they
// follow from the launcher coin.
func EncodeInfo(a Asset) []byte {
	w := io.NewBufBinWriter()
	switch v := a.(type) {
	case Nft:
		w.WriteB(infoNft)
		w.WriteBytes(v.P2[:])
		writeArgs(w.BinWriter, v.State.Args())
	case Did:
		w.WriteB(infoDid)
		w.WriteBytes(v.P2[:])
		writeArgs(w.BinWriter, v.State.Args())
	case Option:
		w.WriteB(infoOption)
		w.WriteBytes(v.P2[:])
		writeArgs(w.BinWriter, v.State.Args())
		writeArgs(w.BinWriter, v.Terms.Args())
		v.Underlying.Coin.EncodeBinary(w.BinWriter)
		writeOptionalID(w.BinWriter, v.Underlying.AssetID)
	default:
		panic(fmt.Sprintf("no launcher info for %T", a))
	}
	return w.Bytes()
}

// DecodeInfo restores the eve singleton record created by the launcher.
func DecodeInfo(c *puzzle.Constants, b []byte, launcher coin.Coin, amount uint64) (Asset, error) {
	res, err := decodeInfo(b, launcher.ID())
	if err != nil {
		return nil, err
	}
	if amount != launcher.Amount {
		return nil, fmt.Errorf("invalid launcher info: eve amount %d, launcher amount %d", amount, launcher.Amount)
	}
	return Eve(c, launcher, res), nil
}

func decodeInfo(b []byte, id util.Bytes32) (Asset, error) {
	var (
		r    = io.NewBinReaderFromBuf(b)
		kind = r.ReadB()
		p2   util.Bytes32
		res  Asset
		err  error
	)
	r.ReadBytes(p2[:])
	args := readArgs(r)
	if r.Err != nil {
		return nil, fmt.Errorf("invalid launcher info: %w", r.Err)
	}
	switch kind {
	case infoNft:
		var s puzzle.NftState
		if s, err = puzzle.ParseNftState(args); err == nil {
			res = Nft{LauncherID: id, State: s, P2: p2}
		}
	case infoDid:
		var s puzzle.DidState
		if s, err = puzzle.ParseDidState(args); err == nil {
			res = Did{LauncherID: id, State: s, P2: p2}
		}
	case infoOption:
		o := Option{LauncherID: id, P2: p2}
		if o.State, err = puzzle.ParseOptionState(args); err != nil {
			break
		}
		if o.Terms, err = puzzle.ParseOptionTerms(readArgs(r)); err != nil {
			break
		}
		o.Underlying.Terms = o.Terms
		o.Underlying.Coin.DecodeBinary(r)
		o.Underlying.AssetID = readOptionalID(r)
		res = o
	default:
		err = fmt.Errorf("unknown launcher info kind %d", kind)
	}
	if err == nil {
		err = r.Err
	}
	if err == nil && r.Len() != 0 {
		err = errors.New("trailing data")
	}
	if err != nil {
		return nil, fmt.Errorf("invalid launcher info: %w", err)
	}
	return res, nil
}

// Eve returns the record a with the coin set to the eve singleton coin
// created by the launcher.
func Eve(c *puzzle.Constants, launcher coin.Coin, a Asset) Asset {
	return withCoin(a, launcher.Child(PuzzleHash(c, a, a.P2PuzzleHash()), launcher.Amount))
}

func withCoin(a Asset, cn coin.Coin) Asset {
	switch v := a.(type) {
	case Nft:
		v.Coin = cn
		return v
	case Did:
		v.Coin = cn
		return v
	case Option:
		v.Coin = cn
		return v
	default:
		panic(fmt.Sprintf("unexpected eve type %T", a))
	}
}

func writeArgs(w *io.BinWriter, args [][]byte) {
	w.WriteVarUint(uint64(len(args)))
	for _, a := range args {
		w.WriteVarBytes(a)
	}
}

func readArgs(r *io.BinReader) [][]byte {
	n := r.ReadVarUint()
	if n > puzzle.MaxArgs {
		r.Err = fmt.Errorf("too many arguments: %d", n)
	}
	if r.Err != nil {
		return nil
	}
	args := make([][]byte, n)
	for i := range args {
		args[i] = r.ReadVarBytes(puzzle.MaxArgSize)
	}
	return args
}

func writeOptionalID(w *io.BinWriter, id *util.Bytes32) {
	w.WriteBool(id != nil)
	if id != nil {
		w.WriteBytes(id[:])
	}
}

func readOptionalID(r *io.BinReader) *util.Bytes32 {
	if !r.ReadBool() {
		return nil
	}
	var id util.Bytes32
	r.ReadBytes(id[:])
	return &id
}
