package puzzle

import (
	"testing"

	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestCurryHash(t *testing.T) {
	mod := hash.Sha256([]byte("mod"))
	arg := []byte{1, 2, 3}

	argHash := hash.Sha256Concat([]byte{0x01}, arg)
	expected := hash.Sha256Concat([]byte{0x02}, mod[:], argHash[:])
	require.Equal(t, expected, CurryHash(mod, arg))
	require.NotEqual(t, CurryHash(mod, arg), CurryHash(mod, arg, arg))
	require.NotEqual(t, CurryHash(mod), CurryHash(mod, []byte{}))
}

func TestProgramHash(t *testing.T) {
	c := DefaultConstants()
	pub := make([]byte, 33)
	inner := StandardPuzzle(c, pub)
	assetID := hash.Sha256([]byte("asset"))

	p := CatPuzzle(c, assetID, inner)
	require.Equal(t, CatPuzzleHash(c, assetID, inner.Hash()), p.Hash())
	require.Equal(t, StandardPuzzleHash(c, pub), inner.Hash())
	require.Equal(t, inner, p.Innermost())

	s := NftState{RoyaltyBps: 300}
	launcher := hash.Sha256([]byte("launcher"))
	nft := SingletonPuzzle(c, launcher, NftPuzzle(c, s, inner))
	require.Equal(t, SingletonPuzzleHash(c, launcher, NftPuzzleHash(c, s, inner.Hash())), nft.Hash())

	require.Equal(t, LauncherPuzzleHash(c, 3), LauncherPuzzle(c, 3).Hash())
	require.NotEqual(t, LauncherPuzzleHash(c, 3), LauncherPuzzleHash(c, 4))
}

func TestProgramEncoding(t *testing.T) {
	c := DefaultConstants()
	p := SingletonPuzzle(c, util.Bytes32{1}, DidPuzzle(c, DidState{Metadata: []byte("m")}, StandardPuzzle(c, []byte{2})))

	actual, err := DecodeProgram(p.Bytes())
	require.NoError(t, err)
	require.Equal(t, p.Hash(), actual.Hash())

	_, err = DecodeProgram(append(p.Bytes(), 0))
	require.Error(t, err)
	_, err = DecodeProgram(p.Bytes()[:10])
	require.Error(t, err)

	deep := StandardPuzzle(c, []byte{1})
	for i := 0; i < MaxDepth; i++ {
		deep = &Program{Mod: c.CatModHash, Args: [][]byte{{byte(i)}}, Inner: deep}
	}
	_, err = DecodeProgram(deep.Bytes())
	require.ErrorIs(t, err, ErrTooDeep)
}

func TestConstantsMods(t *testing.T) {
	mods := DefaultConstants().Mods()
	seen := make(map[util.Bytes32]string)
	for name, h := range mods {
		prev, ok := seen[h]
		require.False(t, ok, "%s and %s share a hash", name, prev)
		seen[h] = name
	}
}
