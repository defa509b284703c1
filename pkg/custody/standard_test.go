package custody

import (
	"context"
	"testing"

	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/crypto/keys"
	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestStandardAuthorize(t *testing.T) {
	c := puzzle.DefaultConstants()
	priv, err := keys.DeriveFromSeed([]byte("custody"), 0)
	require.NoError(t, err)
	s := NewStandard(c, priv.PublicKey())
	ph := PuzzleHash(c, priv.PublicKey())

	conds := []puzzle.Condition{puzzle.CreateCoin{PuzzleHash: util.Bytes32{1}, Amount: 5}}
	cn := coin.New(util.Bytes32{2}, ph, 5)
	spend, err := s.Authorize(context.Background(), intent.PendingSpend{Coin: cn, P2PuzzleHash: ph, Conditions: conds})
	require.NoError(t, err)
	require.Equal(t, ph, spend.Puzzle.Hash())

	out, err := puzzle.Run(c, cn, spend.Puzzle, spend.Solution)
	require.NoError(t, err)
	require.Equal(t, conds[0], out[1])
	require.Equal(t, priv.PublicKey().Bytes(), out[0].(puzzle.AggSigMe).PublicKey)

	_, err = s.Authorize(context.Background(), intent.PendingSpend{Coin: cn, P2PuzzleHash: util.Bytes32{3}})
	require.ErrorIs(t, err, ErrUnknownOwner)
}
