package puzzle

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/util"
)

// ErrMisplacedLayer is returned when a layer is found where the module set
// doesn't allow it (like a CAT inside a singleton).
var ErrMisplacedLayer = errors.New("misplaced layer")

// Layers is a parsed layer stack of a puzzle, outermost first. Only the
// fields of the layers present are set.
type Layers struct {
	// AssetID is set for CAT coins.
	AssetID *util.Bytes32
	// LauncherID is set for singletons, exactly one of Nft, Did and
	// Option is set along with it.
	LauncherID *util.Bytes32
	Nft        *NftState
	Did        *DidState
	Option     *OptionState
	// Underlying is set for locked option underlying coins.
	Underlying *OptionTerms
	// LauncherNonce is set for singleton launchers.
	LauncherNonce *uint64
	// Inner is the innermost program.
	Inner *Program
}

// StandardPuzzle returns the standard single-key puzzle.
func StandardPuzzle(c *Constants, pub []byte) *Program {
	return &Program{Mod: c.StandardModHash, Args: [][]byte{pub}}
}

// StandardPuzzleHash returns the hash of StandardPuzzle.
func StandardPuzzleHash(c *Constants, pub []byte) util.Bytes32 {
	return CurryHash(c.StandardModHash, pub)
}

// CatPuzzle wraps inner into the CAT layer of the given asset.
func CatPuzzle(c *Constants, assetID util.Bytes32, inner *Program) *Program {
	return &Program{Mod: c.CatModHash, Args: [][]byte{assetID.BytesBE()}, Inner: inner}
}

// CatPuzzleHash returns the hash of the CAT layer wrapping a puzzle with the
// given hash.
func CatPuzzleHash(c *Constants, assetID, innerPH util.Bytes32) util.Bytes32 {
	return CurryHash(c.CatModHash, assetID[:], innerPH[:])
}

// SingletonPuzzle wraps inner into the singleton top layer.
func SingletonPuzzle(c *Constants, launcherID util.Bytes32, inner *Program) *Program {
	return &Program{Mod: c.SingletonModHash, Args: [][]byte{launcherID.BytesBE()}, Inner: inner}
}

// SingletonPuzzleHash returns the hash of SingletonPuzzle.
func SingletonPuzzleHash(c *Constants, launcherID, innerPH util.Bytes32) util.Bytes32 {
	return CurryHash(c.SingletonModHash, launcherID[:], innerPH[:])
}

// NftPuzzle wraps inner into the NFT state layer.
func NftPuzzle(c *Constants, s NftState, inner *Program) *Program {
	return &Program{Mod: c.NftStateModHash, Args: s.Args(), Inner: inner}
}

// NftPuzzleHash returns the hash of NftPuzzle.
func NftPuzzleHash(c *Constants, s NftState, innerPH util.Bytes32) util.Bytes32 {
	return CurryHash(c.NftStateModHash, append(s.Args(), innerPH[:])...)
}

// DidPuzzle wraps inner into the DID layer.
func DidPuzzle(c *Constants, s DidState, inner *Program) *Program {
	return &Program{Mod: c.DidModHash, Args: s.Args(), Inner: inner}
}

// DidPuzzleHash returns the hash of DidPuzzle.
func DidPuzzleHash(c *Constants, s DidState, innerPH util.Bytes32) util.Bytes32 {
	return CurryHash(c.DidModHash, append(s.Args(), innerPH[:])...)
}

// OptionPuzzle wraps inner into the option contract layer.
func OptionPuzzle(c *Constants, s OptionState, inner *Program) *Program {
	return &Program{Mod: c.OptionModHash, Args: s.Args(), Inner: inner}
}

// OptionPuzzleHash returns the hash of OptionPuzzle.
func OptionPuzzleHash(c *Constants, s OptionState, innerPH util.Bytes32) util.Bytes32 {
	return CurryHash(c.OptionModHash, append(s.Args(), innerPH[:])...)
}

// LauncherPuzzle returns the singleton launcher puzzle. Nonce makes
// launchers created by the same parent with the same amount distinct.
func LauncherPuzzle(c *Constants, nonce uint64) *Program {
	return &Program{Mod: c.LauncherModHash, Args: [][]byte{u64Bytes(nonce)}}
}

// LauncherPuzzleHash returns the hash of LauncherPuzzle.
func LauncherPuzzleHash(c *Constants, nonce uint64) util.Bytes32 {
	return CurryHash(c.LauncherModHash, u64Bytes(nonce))
}

// OptionUnderlyingPuzzle returns the puzzle locking the underlying value of
// an option.
func OptionUnderlyingPuzzle(c *Constants, t OptionTerms) *Program {
	return &Program{Mod: c.OptionUnderlyingModHash, Args: t.Args()}
}

// OptionUnderlyingPuzzleHash returns the hash of OptionUnderlyingPuzzle.
func OptionUnderlyingPuzzleHash(c *Constants, t OptionTerms) util.Bytes32 {
	return CurryHash(c.OptionUnderlyingModHash, t.Args()...)
}

// GenesisByCoinIDTail returns the single-issuance tail, it allows issuing
// only from the given coin.
func GenesisByCoinIDTail(c *Constants, genesisCoinID util.Bytes32) *Program {
	return &Program{Mod: c.GenesisByCoinIDModHash, Args: [][]byte{genesisCoinID.BytesBE()}}
}

// EverythingWithSignatureTail returns the tail allowing any supply change
// signed by the given key.
func EverythingWithSignatureTail(c *Constants, pub []byte) *Program {
	return &Program{Mod: c.EverythingWithSignatureModHash, Args: [][]byte{pub}}
}

func singleArg(p *Program, size int) ([]byte, error) {
	if len(p.Args) != 1 || (size != 0 && len(p.Args[0]) != size) {
		return nil, fmt.Errorf("%w: %s expects one %d-byte argument", ErrInvalidArgs, p.Mod, size)
	}
	return p.Args[0], nil
}

func bytes32Arg(p *Program) (util.Bytes32, error) {
	b, err := singleArg(p, 32)
	if err != nil {
		return util.Bytes32{}, err
	}
	return util.Bytes32DecodeBytes(b)
}

// Parse recognizes the layer stack of the program. The allowed stacks are:
// CAT over an inner puzzle, singleton over one of NFT, DID or option
// layers over an inner puzzle, a bare launcher and an inner puzzle alone.
// Underlying option puzzles may be wrapped into CAT.
func Parse(c *Constants, p *Program) (*Layers, error) {
	l := new(Layers)
	if p == nil {
		return nil, fmt.Errorf("%w: nil program", ErrInvalidArgs)
	}
	if p.Mod == c.CatModHash {
		id, err := bytes32Arg(p)
		if err != nil {
			return nil, err
		}
		l.AssetID = &id
		if p = p.Inner; p == nil {
			return nil, fmt.Errorf("%w: cat without inner puzzle", ErrInvalidArgs)
		}
	}
	if p.Mod == c.SingletonModHash {
		if l.AssetID != nil {
			return nil, fmt.Errorf("%w: singleton inside cat", ErrMisplacedLayer)
		}
		id, err := bytes32Arg(p)
		if err != nil {
			return nil, err
		}
		l.LauncherID = &id
		if p = p.Inner; p == nil {
			return nil, fmt.Errorf("%w: singleton without inner puzzle", ErrInvalidArgs)
		}
		switch p.Mod {
		case c.NftStateModHash:
			var s NftState
			if s, err = ParseNftState(p.Args); err == nil {
				l.Nft = &s
			}
		case c.DidModHash:
			var s DidState
			if s, err = ParseDidState(p.Args); err == nil {
				l.Did = &s
			}
		case c.OptionModHash:
			var s OptionState
			if s, err = ParseOptionState(p.Args); err == nil {
				l.Option = &s
			}
		default:
			err = fmt.Errorf("%w: %s under singleton", ErrMisplacedLayer, p.Mod)
		}
		if err != nil {
			return nil, err
		}
		if p = p.Inner; p == nil {
			return nil, fmt.Errorf("%w: singleton state layer without inner puzzle", ErrInvalidArgs)
		}
	}
	switch p.Mod {
	case c.CatModHash, c.SingletonModHash, c.NftStateModHash, c.DidModHash, c.OptionModHash,
		c.GenesisByCoinIDModHash, c.EverythingWithSignatureModHash:
		return nil, fmt.Errorf("%w: %s", ErrMisplacedLayer, p.Mod)
	case c.LauncherModHash:
		if l.AssetID != nil || l.LauncherID != nil {
			return nil, fmt.Errorf("%w: wrapped launcher", ErrMisplacedLayer)
		}
		b, err := singleArg(p, 8)
		if err != nil {
			return nil, err
		}
		nonce, _ := parseU64(b)
		l.LauncherNonce = &nonce
	case c.OptionUnderlyingModHash:
		if l.LauncherID != nil {
			return nil, fmt.Errorf("%w: underlying inside singleton", ErrMisplacedLayer)
		}
		t, err := ParseOptionTerms(p.Args)
		if err != nil {
			return nil, err
		}
		l.Underlying = &t
	case c.StandardModHash:
		if _, err := singleArg(p, 0); err != nil {
			return nil, err
		}
	}
	if p.Inner != nil {
		return nil, fmt.Errorf("%w: innermost puzzle %s has inner program", ErrMisplacedLayer, p.Mod)
	}
	l.Inner = p
	return l, nil
}
