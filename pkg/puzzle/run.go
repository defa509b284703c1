package puzzle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Evaluation errors.
var (
	// ErrUnknownMod is returned for programs the evaluator can't run.
	ErrUnknownMod = errors.New("unknown puzzle module")
	// ErrNoChild is returned when a singleton spend neither recreates
	// the singleton nor melts it.
	ErrNoChild = errors.New("singleton is not recreated")
	// ErrInvalidTail is returned when a revealed tail doesn't match the
	// asset or refuses the supply change.
	ErrInvalidTail = errors.New("invalid tail")
	// ErrUnexpectedCondition is returned when a condition is emitted
	// that no layer of the puzzle accepts.
	ErrUnexpectedCondition = errors.New("unexpected condition")
)

// Run evaluates the program against the solution on behalf of the coin and
// returns the resulting conditions. Layer conditions (NFT, DID updates)
// are consumed by their layers, CREATE_COIN puzzle hashes are wrapped the
// way the outer layers require. RunTail and MeltSingleton conditions are
// kept in the result for the ledger to account for.
func Run(c *Constants, cn coin.Coin, p *Program, solution []byte) ([]Condition, error) {
	l, err := Parse(c, p)
	if err != nil {
		return nil, err
	}
	conds, err := run(c, cn, p, solution)
	if err != nil {
		return nil, err
	}
	for _, cond := range conds {
		switch v := cond.(type) {
		case UpdateNftMetadata, TransferNft, UpdateDid:
			return nil, fmt.Errorf("%w: %d outside of its layer", ErrUnexpectedCondition, v.Opcode())
		case RunTail:
			if l.AssetID == nil {
				return nil, fmt.Errorf("%w: tail outside of cat", ErrUnexpectedCondition)
			}
		case MeltSingleton:
			if l.LauncherID == nil {
				return nil, fmt.Errorf("%w: melt outside of singleton", ErrUnexpectedCondition)
			}
		}
	}
	return conds, nil
}

// RunInner evaluates the innermost (custody) program of the stack and
// returns its conditions as they are before any layer processing.
func RunInner(c *Constants, cn coin.Coin, p *Program, solution []byte) ([]Condition, error) {
	return run(c, cn, p.Innermost(), solution)
}

func run(c *Constants, cn coin.Coin, p *Program, solution []byte) ([]Condition, error) {
	switch p.Mod {
	case c.StandardModHash:
		conds, err := DecodeConditions(solution)
		if err != nil {
			return nil, err
		}
		msg := hash.Sha256(solution)
		return append([]Condition{AggSigMe{PublicKey: p.Args[0], Message: msg.BytesBE()}}, conds...), nil
	case c.LauncherModHash:
		s, err := DecodeLauncherSolution(solution)
		if err != nil {
			return nil, err
		}
		if s.Amount != cn.Amount || s.Amount%2 == 0 {
			return nil, fmt.Errorf("%w: launcher amount %d for coin of %d", ErrInvalidArgs, s.Amount, cn.Amount)
		}
		return []Condition{
			CreateCoin{PuzzleHash: s.SingletonPuzzleHash, Amount: s.Amount, Memos: [][]byte{s.Info}},
		}, nil
	case c.OptionUnderlyingModHash:
		t, err := ParseOptionTerms(p.Args)
		if err != nil {
			return nil, err
		}
		conds, err := DecodeConditions(solution)
		if err != nil {
			return nil, err
		}
		return append([]Condition{
			AssertBeforeSecondsAbsolute{Seconds: t.Expiration},
			AssertSingletonMelted{LauncherID: t.LauncherID},
			AssertPayment{PuzzleHash: t.StrikePuzzleHash(c), Amount: t.StrikeAmount},
		}, conds...), nil
	case c.CatModHash:
		assetID, err := util.Bytes32DecodeBytes(p.Args[0])
		if err != nil {
			return nil, err
		}
		conds, err := run(c, cn, p.Inner, solution)
		if err != nil {
			return nil, err
		}
		return runCat(c, cn, assetID, conds)
	case c.SingletonModHash:
		launcherID, err := util.Bytes32DecodeBytes(p.Args[0])
		if err != nil {
			return nil, err
		}
		conds, err := run(c, cn, p.Inner, solution)
		if err != nil {
			return nil, err
		}
		return wrapChild(conds, func(ph util.Bytes32) util.Bytes32 {
			return SingletonPuzzleHash(c, launcherID, ph)
		})
	case c.NftStateModHash:
		s, err := ParseNftState(p.Args)
		if err != nil {
			return nil, err
		}
		conds, err := run(c, cn, p.Inner, solution)
		if err != nil {
			return nil, err
		}
		s, rest, err := NextNftState(s, conds)
		if err != nil {
			return nil, err
		}
		return wrapChild(rest, func(ph util.Bytes32) util.Bytes32 {
			return NftPuzzleHash(c, s, ph)
		})
	case c.DidModHash:
		s, err := ParseDidState(p.Args)
		if err != nil {
			return nil, err
		}
		conds, err := run(c, cn, p.Inner, solution)
		if err != nil {
			return nil, err
		}
		s, rest := NextDidState(s, conds)
		return wrapChild(rest, func(ph util.Bytes32) util.Bytes32 {
			return DidPuzzleHash(c, s, ph)
		})
	case c.OptionModHash:
		s, err := ParseOptionState(p.Args)
		if err != nil {
			return nil, err
		}
		conds, err := run(c, cn, p.Inner, solution)
		if err != nil {
			return nil, err
		}
		return wrapChild(conds, func(ph util.Bytes32) util.Bytes32 {
			return OptionPuzzleHash(c, s, ph)
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMod, p.Mod)
	}
}

// runCat wraps every created coin into the CAT layer and runs the revealed
// tail if there is one.
func runCat(c *Constants, cn coin.Coin, assetID util.Bytes32, conds []Condition) ([]Condition, error) {
	var (
		res   = make([]Condition, 0, len(conds))
		tails int
	)
	for _, cond := range conds {
		switch v := cond.(type) {
		case CreateCoin:
			v.PuzzleHash = CatPuzzleHash(c, assetID, v.PuzzleHash)
			res = append(res, v)
		case RunTail:
			if tails++; tails > 1 {
				return nil, fmt.Errorf("%w: more than one tail revealed", ErrInvalidTail)
			}
			extra, err := runTail(c, cn, assetID, v)
			if err != nil {
				return nil, err
			}
			res = append(res, v)
			res = append(res, extra...)
		default:
			res = append(res, cond)
		}
	}
	return res, nil
}

func runTail(c *Constants, cn coin.Coin, assetID util.Bytes32, rt RunTail) ([]Condition, error) {
	if rt.Tail == nil || rt.Tail.Hash() != assetID {
		return nil, fmt.Errorf("%w: tail hash doesn't match asset %s", ErrInvalidTail, assetID)
	}
	if rt.Tail.Inner != nil {
		return nil, fmt.Errorf("%w: tail has inner program", ErrInvalidTail)
	}
	switch rt.Tail.Mod {
	case c.GenesisByCoinIDModHash:
		genesis, err := bytes32Arg(rt.Tail)
		if err != nil {
			return nil, err
		}
		if cn.ParentCoinInfo != genesis {
			return nil, fmt.Errorf("%w: coin is not a child of genesis coin %s", ErrInvalidTail, genesis)
		}
		if rt.Delta != 0 {
			return nil, fmt.Errorf("%w: supply of single issuance asset can't change", ErrInvalidTail)
		}
		return nil, nil
	case c.EverythingWithSignatureModHash:
		pub, err := singleArg(rt.Tail, 0)
		if err != nil {
			return nil, err
		}
		return []Condition{AggSigMe{PublicKey: pub, Message: TailMessage(assetID, rt.Delta)}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMod, rt.Tail.Mod)
	}
}

// NextNftState applies NFT layer conditions to the state and returns the
// state of the next generation along with the rest of conditions.
func NextNftState(s NftState, conds []Condition) (NftState, []Condition, error) {
	var (
		rest = make([]Condition, 0, len(conds))
		err  error
	)
	for _, cond := range conds {
		switch v := cond.(type) {
		case UpdateNftMetadata:
			for _, u := range v.Updates {
				if s.Metadata, err = s.Metadata.Apply(u); err != nil {
					return s, nil, err
				}
			}
		case TransferNft:
			s.Owner = v.Owner
		default:
			rest = append(rest, cond)
		}
	}
	return s, rest, nil
}

// NextDidState is the same as NextNftState for the DID layer, the last
// UpdateDid wins.
func NextDidState(s DidState, conds []Condition) (DidState, []Condition) {
	rest := make([]Condition, 0, len(conds))
	for _, cond := range conds {
		if u, ok := cond.(UpdateDid); ok {
			s = u.State
			continue
		}
		rest = append(rest, cond)
	}
	return s, rest
}

// Melts returns true if the conditions melt the singleton.
func Melts(conds []Condition) bool {
	for _, cond := range conds {
		if _, ok := cond.(MeltSingleton); ok {
			return true
		}
	}
	return false
}

// TailMessage is the message signed for a supply change of the asset.
func TailMessage(assetID util.Bytes32, delta int64) []byte {
	return append(assetID.BytesBE(), u64Bytes(uint64(delta))...)
}

// wrapChild wraps the puzzle hash of the first odd CREATE_COIN, that is the
// next generation of the singleton. Nothing is wrapped when the singleton
// melts.
func wrapChild(conds []Condition, wrap func(util.Bytes32) util.Bytes32) ([]Condition, error) {
	if Melts(conds) {
		return conds, nil
	}
	for i, cond := range conds {
		cc, ok := cond.(CreateCoin)
		if !ok || cc.Amount%2 == 0 {
			continue
		}
		cc.PuzzleHash = wrap(cc.PuzzleHash)
		res := slices.Clone(conds)
		res[i] = cc
		return res, nil
	}
	return nil, ErrNoChild
}
