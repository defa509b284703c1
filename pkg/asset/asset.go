/*
Package asset contains records of the coins the wallet can spend. A record
holds the coin and everything needed to rebuild its puzzle around an inner
(custody) puzzle and to derive records of its children.
*/
package asset

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// ErrLineage is returned when a record can't be derived for a coin, because
// its parent doesn't prove it's a legitimate asset coin.
var ErrLineage = errors.New("invalid lineage")

// Asset is a spendable coin record. The set of implementations is closed.
type Asset interface {
	// AssetCoin returns the coin itself.
	AssetCoin() coin.Coin
	// P2PuzzleHash returns the hash of the innermost (custody) puzzle.
	P2PuzzleHash() util.Bytes32
	// Value returns the coin amount.
	Value() uint64
	// Puzzle wraps the inner custody puzzle into the asset layers.
	Puzzle(c *puzzle.Constants, inner *puzzle.Program) *puzzle.Program

	isAsset()
}

type (
	// Xch is a native value coin.
	Xch struct {
		Coin coin.Coin
	}

	// Cat is a fungible token coin.
	Cat struct {
		Coin    coin.Coin
		AssetID util.Bytes32
		P2      util.Bytes32
	}

	// Nft is a non-fungible token singleton.
	Nft struct {
		Coin       coin.Coin
		LauncherID util.Bytes32
		State      puzzle.NftState
		P2         util.Bytes32
	}

	// Did is a decentralized identity singleton.
	Did struct {
		Coin       coin.Coin
		LauncherID util.Bytes32
		State      puzzle.DidState
		P2         util.Bytes32
	}

	// Option is an option contract singleton. Its holder can claim the
	// locked Underlying coin by melting the option and paying the strike
	// to the creator before expiration.
	Option struct {
		Coin       coin.Coin
		LauncherID util.Bytes32
		State      puzzle.OptionState
		Terms      puzzle.OptionTerms
		Underlying OptionUnderlying
		P2         util.Bytes32
	}

	// OptionUnderlying is the coin locked by an option. AssetID is set
	// for CAT underlying coins.
	OptionUnderlying struct {
		Coin    coin.Coin
		Terms   puzzle.OptionTerms
		AssetID *util.Bytes32
	}

	// Launcher is a singleton launcher coin.
	Launcher struct {
		Coin  coin.Coin
		Nonce uint64
	}
)

func (Xch) isAsset()              {}
func (Cat) isAsset()              {}
func (Nft) isAsset()              {}
func (Did) isAsset()              {}
func (Option) isAsset()           {}
func (OptionUnderlying) isAsset() {}
func (Launcher) isAsset()         {}

// AssetCoin implements the Asset interface.
func (a Xch) AssetCoin() coin.Coin { return a.Coin }

// AssetCoin implements the Asset interface.
func (a Cat) AssetCoin() coin.Coin { return a.Coin }

// AssetCoin implements the Asset interface.
func (a Nft) AssetCoin() coin.Coin { return a.Coin }

// AssetCoin implements the Asset interface.
func (a Did) AssetCoin() coin.Coin { return a.Coin }

// AssetCoin implements the Asset interface.
func (a Option) AssetCoin() coin.Coin { return a.Coin }

// AssetCoin implements the Asset interface.
func (a OptionUnderlying) AssetCoin() coin.Coin { return a.Coin }

// AssetCoin implements the Asset interface.
func (a Launcher) AssetCoin() coin.Coin { return a.Coin }

// P2PuzzleHash implements the Asset interface.
func (a Xch) P2PuzzleHash() util.Bytes32 { return a.Coin.PuzzleHash }

// P2PuzzleHash implements the Asset interface.
func (a Cat) P2PuzzleHash() util.Bytes32 { return a.P2 }

// P2PuzzleHash implements the Asset interface.
func (a Nft) P2PuzzleHash() util.Bytes32 { return a.P2 }

// P2PuzzleHash implements the Asset interface.
func (a Did) P2PuzzleHash() util.Bytes32 { return a.P2 }

// P2PuzzleHash implements the Asset interface.
func (a Option) P2PuzzleHash() util.Bytes32 { return a.P2 }

// P2PuzzleHash implements the Asset interface. Underlying coins have no
// custody, the hash of the locking puzzle is returned.
func (a OptionUnderlying) P2PuzzleHash() util.Bytes32 {
	return a.Coin.PuzzleHash
}

// P2PuzzleHash implements the Asset interface, launchers have no custody.
func (a Launcher) P2PuzzleHash() util.Bytes32 { return a.Coin.PuzzleHash }

// Value implements the Asset interface.
func (a Xch) Value() uint64 { return a.Coin.Amount }

// Value implements the Asset interface.
func (a Cat) Value() uint64 { return a.Coin.Amount }

// Value implements the Asset interface.
func (a Nft) Value() uint64 { return a.Coin.Amount }

// Value implements the Asset interface.
func (a Did) Value() uint64 { return a.Coin.Amount }

// Value implements the Asset interface.
func (a Option) Value() uint64 { return a.Coin.Amount }

// Value implements the Asset interface.
func (a OptionUnderlying) Value() uint64 { return a.Coin.Amount }

// Value implements the Asset interface.
func (a Launcher) Value() uint64 { return a.Coin.Amount }

// Puzzle implements the Asset interface.
func (a Xch) Puzzle(_ *puzzle.Constants, inner *puzzle.Program) *puzzle.Program {
	return inner
}

// Puzzle implements the Asset interface.
func (a Cat) Puzzle(c *puzzle.Constants, inner *puzzle.Program) *puzzle.Program {
	return puzzle.CatPuzzle(c, a.AssetID, inner)
}

// Puzzle implements the Asset interface.
func (a Nft) Puzzle(c *puzzle.Constants, inner *puzzle.Program) *puzzle.Program {
	return puzzle.SingletonPuzzle(c, a.LauncherID, puzzle.NftPuzzle(c, a.State, inner))
}

// Puzzle implements the Asset interface.
func (a Did) Puzzle(c *puzzle.Constants, inner *puzzle.Program) *puzzle.Program {
	return puzzle.SingletonPuzzle(c, a.LauncherID, puzzle.DidPuzzle(c, a.State, inner))
}

// Puzzle implements the Asset interface.
func (a Option) Puzzle(c *puzzle.Constants, inner *puzzle.Program) *puzzle.Program {
	return puzzle.SingletonPuzzle(c, a.LauncherID, puzzle.OptionPuzzle(c, a.State, inner))
}

// Puzzle implements the Asset interface, the inner puzzle is ignored.
func (a OptionUnderlying) Puzzle(c *puzzle.Constants, _ *puzzle.Program) *puzzle.Program {
	p := puzzle.OptionUnderlyingPuzzle(c, a.Terms)
	if a.AssetID != nil {
		p = puzzle.CatPuzzle(c, *a.AssetID, p)
	}
	return p
}

// Puzzle implements the Asset interface, the inner puzzle is ignored.
func (a Launcher) Puzzle(c *puzzle.Constants, _ *puzzle.Program) *puzzle.Program {
	return puzzle.LauncherPuzzle(c, a.Nonce)
}

// ID returns the asset id of the record: the tail hash for CATs and the
// launcher id for singletons. Nil is returned for other records.
func ID(a Asset) *util.Bytes32 {
	switch v := a.(type) {
	case Cat:
		return &v.AssetID
	case Nft:
		return &v.LauncherID
	case Did:
		return &v.LauncherID
	case Option:
		return &v.LauncherID
	default:
		return nil
	}
}

// IsSingleton returns true for singleton records.
func IsSingleton(a Asset) bool {
	switch a.(type) {
	case Nft, Did, Option:
		return true
	default:
		return false
	}
}

// PuzzleHash returns the full puzzle hash of the asset coin with the given
// inner puzzle hash. It's what the coin puzzle hash must be equal to.
func PuzzleHash(c *puzzle.Constants, a Asset, p2 util.Bytes32) util.Bytes32 {
	switch v := a.(type) {
	case Xch:
		return p2
	case Cat:
		return puzzle.CatPuzzleHash(c, v.AssetID, p2)
	case Nft:
		return puzzle.SingletonPuzzleHash(c, v.LauncherID, puzzle.NftPuzzleHash(c, v.State, p2))
	case Did:
		return puzzle.SingletonPuzzleHash(c, v.LauncherID, puzzle.DidPuzzleHash(c, v.State, p2))
	case Option:
		return puzzle.SingletonPuzzleHash(c, v.LauncherID, puzzle.OptionPuzzleHash(c, v.State, p2))
	case OptionUnderlying, Launcher:
		return v.Puzzle(c, nil).Hash()
	default:
		panic(fmt.Sprintf("unknown asset type %T", a))
	}
}

// FromLayers returns the record of a non-singleton coin from the layers of
// its revealed puzzle. Singleton records can't be derived this way, they're
// only created by their parents (see Children).
func FromLayers(cn coin.Coin, l *puzzle.Layers) (Asset, error) {
	switch {
	case l.LauncherID != nil:
		return nil, fmt.Errorf("%w: singleton %s without parent record", ErrLineage, l.LauncherID)
	case l.LauncherNonce != nil:
		return Launcher{Coin: cn, Nonce: *l.LauncherNonce}, nil
	case l.Underlying != nil:
		return OptionUnderlying{Coin: cn, Terms: *l.Underlying, AssetID: l.AssetID}, nil
	case l.AssetID != nil:
		return Cat{Coin: cn, AssetID: *l.AssetID, P2: l.Inner.Hash()}, nil
	default:
		return Xch{Coin: cn}, nil
	}
}
