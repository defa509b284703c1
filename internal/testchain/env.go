/*
Package testchain provides a simulated ledger with a wallet and
deterministic accounts for tests.
*/
package testchain

import (
	"context"
	"testing"

	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/custody"
	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/signer"
	"github.com/nspcc-dev/spendkit/pkg/simulator"
	"github.com/nspcc-dev/spendkit/pkg/storage"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/nspcc-dev/spendkit/pkg/wallet"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Timestamp is the initial ledger time of Env.
const Timestamp = 1000

// seed is used to derive account keys.
var seed = []byte("spendkit test accounts")

// Env is a test environment: an in-memory simulator, keys of all accounts
// created and a wallet authorizing spends with them.
type Env struct {
	t       testing.TB
	C       *puzzle.Constants
	Sim     *simulator.Simulator
	Keys    *signer.KeyRing
	Custody *custody.Standard
	Wallet  *wallet.Wallet
}

// NewEnv creates a new environment closed along with the test.
func NewEnv(t testing.TB, opts ...wallet.Option) *Env {
	c := puzzle.DefaultConstants()
	sim, err := simulator.New(c, storage.NewMemoryStore(), zaptest.NewLogger(t), simulator.Config{Timestamp: Timestamp})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, sim.Close()) })

	cust := custody.NewStandard(c)
	return &Env{
		t:       t,
		C:       c,
		Sim:     sim,
		Keys:    signer.NewKeyRing(),
		Custody: cust,
		Wallet:  wallet.New(c, sim, cust, zaptest.NewLogger(t), opts...),
	}
}

// Account returns the deterministic account with the given index, its key
// is known to the environment.
func (e *Env) Account(i uint32) *wallet.Account {
	acc, err := wallet.NewAccountFromSeed(e.C, seed, i)
	require.NoError(e.t, err)
	e.Keys.Add(acc.PrivateKey())
	e.Custody.AddKey(acc.PublicKey())
	return acc
}

// Fund mints native coins for the puzzle hash.
func (e *Env) Fund(ph util.Bytes32, amounts ...uint64) []coin.Coin {
	res := make([]coin.Coin, 0, len(amounts))
	for _, a := range amounts {
		cn, err := e.Sim.Mint(ph, a)
		require.NoError(e.t, err)
		res = append(res, cn)
	}
	return res
}

// Submit signs the spends and submits them to the simulator.
func (e *Env) Submit(spends []coin.CoinSpend) error {
	b, err := signer.SignBundle(e.C, e.Keys, spends)
	if err != nil {
		return err
	}
	return e.Sim.Submit(context.Background(), b)
}

// Transact compiles actions of the owner with the wallet and submits the
// result.
func (e *Env) Transact(owner util.Bytes32, actions ...intent.Action) (*intent.Outputs, error) {
	out, err := e.Wallet.Transact(context.Background(), owner, actions)
	if err != nil {
		return nil, err
	}
	if err := e.Submit(out.CoinSpends()); err != nil {
		return nil, err
	}
	return out, nil
}

// MustTransact is Transact failing the test on error.
func (e *Env) MustTransact(owner util.Bytes32, actions ...intent.Action) *intent.Outputs {
	out, err := e.Transact(owner, actions...)
	require.NoError(e.t, err)
	return out
}

// Coins returns unspent coins of the owner in the namespace of the asset
// (nil for native coins).
func (e *Env) Coins(owner util.Bytes32, assetID *util.Bytes32) []asset.Asset {
	res, err := e.Sim.UnspentCoins(context.Background(), wallet.Namespace{Owner: owner, AssetID: assetID})
	require.NoError(e.t, err)
	return res
}

// Balance returns the total value of the owner's unspent coins of the
// asset (nil for native coins).
func (e *Env) Balance(owner util.Bytes32, assetID *util.Bytes32) uint64 {
	var sum uint64
	for _, a := range e.Coins(owner, assetID) {
		sum += a.Value()
	}
	return sum
}
