package intent_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/crypto/keys"
	"github.com/nspcc-dev/spendkit/pkg/custody"
	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/stretchr/testify/require"
)

type testOwner struct {
	c    *puzzle.Constants
	ph   util.Bytes32
	auth *custody.Standard
}

func newTestOwner(t *testing.T) *testOwner {
	c := puzzle.DefaultConstants()
	priv, err := keys.DeriveFromSeed([]byte("intent"), 0)
	require.NoError(t, err)
	return &testOwner{
		c:    c,
		ph:   custody.PuzzleHash(c, priv.PublicKey()),
		auth: custody.NewStandard(c, priv.PublicKey()),
	}
}

func (o *testOwner) xch(amount uint64, nonce byte) asset.Xch {
	return asset.Xch{Coin: coin.New(util.Bytes32{0xee, nonce}, o.ph, amount)}
}

// spend runs every stage of the builder for the actions.
func (o *testOwner) spend(t *testing.T, coins []asset.Asset, actions []intent.Action, opts ...intent.SpendsOption) (*intent.Outputs, error) {
	s := intent.NewSpends(o.c, o.ph, opts...)
	for _, a := range coins {
		require.NoError(t, s.Add(a))
	}
	deltas, err := s.Apply(actions)
	if err != nil {
		return nil, err
	}
	f, err := s.Prepare(deltas)
	if err != nil {
		return nil, err
	}
	if err := f.Authorize(context.Background(), o.auth); err != nil {
		return nil, err
	}
	return f.Spend()
}

func u256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestDeltas(t *testing.T) {
	bob := util.Bytes32{0xb0}
	actions := []intent.Action{
		intent.Send{ID: intent.Xch, PuzzleHash: bob, Amount: 100},
		intent.Fee{Amount: 10},
		intent.IssueAsset{Amount: 50},
		intent.MintToken{Parent: intent.Xch, Amount: 1},
		intent.Send{ID: intent.New(2), PuzzleHash: bob, Amount: 20},
	}
	d := intent.FromActions(actions)
	require.Equal(t, []intent.ID{intent.Xch, intent.New(2), intent.New(3)}, d.IDs())

	xch, ok := d.Get(intent.Xch)
	require.True(t, ok)
	require.Equal(t, u256(161), xch.Required())
	require.True(t, xch.Needed)

	issued, _ := d.Get(intent.New(2))
	require.Equal(t, u256(50), &issued.Input)
	require.Equal(t, u256(20), &issued.Output)
	require.Equal(t, u256(1), issued.Required(), "a coin is needed even with a surplus")

	minted, _ := d.Get(intent.New(3))
	require.True(t, minted.Required().IsZero())

	require.Equal(t, d, intent.FromActions(actions))
	require.Equal(t, 0, intent.FromActions(nil).Len())
}

func TestDeltaRequired(t *testing.T) {
	var d intent.Delta
	require.True(t, d.Required().IsZero())

	d.Output.SetUint64(5)
	d.Input.SetUint64(7)
	require.True(t, d.Required().IsZero())

	d.Needed = true
	require.Equal(t, u256(1), d.Required())

	d.Output.SetUint64(10)
	require.Equal(t, u256(3), d.Required())
}

func TestValidateActions(t *testing.T) {
	o := newTestOwner(t)
	check := func(t *testing.T, actions ...intent.Action) error {
		s := intent.NewSpends(o.c, o.ph)
		require.NoError(t, s.Add(o.xch(1000, 0)))
		_, err := s.Apply(actions)
		require.ErrorIs(t, err, intent.ErrInvalidAction)
		return err
	}

	t.Run("unresolved new", func(t *testing.T) {
		err := check(t, intent.Send{ID: intent.New(0), Amount: 1})
		require.ErrorIs(t, err, intent.ErrUnresolvedID)
		err = check(t, intent.Fee{Amount: 1}, intent.Send{ID: intent.New(0), Amount: 1})
		require.ErrorIs(t, err, intent.ErrUnresolvedID)
		err = check(t, intent.IssueAsset{Amount: 5}, intent.Send{ID: intent.New(5), Amount: 1})
		require.ErrorIs(t, err, intent.ErrUnresolvedID)
	})
	t.Run("even singleton", func(t *testing.T) {
		check(t, intent.CreateDid{Amount: 2})
		check(t, intent.MintToken{Parent: intent.Xch, Amount: 0})
	})
	t.Run("royalty", func(t *testing.T) {
		check(t, intent.MintToken{Parent: intent.Xch, Amount: 1, RoyaltyBps: intent.MaxRoyaltyBps + 1})
	})
	t.Run("supply", func(t *testing.T) {
		check(t, intent.IssueAsset{})
		check(t, intent.ReissueAsset{ID: intent.Xch, Tail: puzzle.GenesisByCoinIDTail(o.c, util.Bytes32{}), Amount: 1})
		check(t, intent.MeltAsset{ID: intent.Existing(util.Bytes32{1}), Amount: 1})
	})
	t.Run("option", func(t *testing.T) {
		check(t, intent.MintOption{UnderlyingID: intent.Xch, UnderlyingAmount: 1, StrikeID: intent.Xch, Amount: 1})
		check(t, intent.MintOption{UnderlyingID: intent.Xch, Expiration: 10, StrikeID: intent.Xch, Amount: 1})
	})
	t.Run("update", func(t *testing.T) {
		check(t, intent.UpdateToken{ID: intent.Existing(util.Bytes32{1})})
		check(t, intent.UpdateDid{ID: intent.Xch})
	})
}

func TestStages(t *testing.T) {
	o := newTestOwner(t)

	s := intent.NewSpends(o.c, o.ph)
	require.Equal(t, intent.StateEmpty, s.State())
	_, err := s.Prepare(intent.NewDeltas())
	require.ErrorIs(t, err, intent.ErrWrongState)

	require.NoError(t, s.Add(o.xch(10, 0)))
	require.Equal(t, intent.StateBound, s.State())
	require.ErrorIs(t, s.Add(o.xch(10, 0)), intent.ErrDuplicateCoin)
	require.ErrorIs(t, s.Add(asset.Launcher{Coin: coin.New(util.Bytes32{}, util.Bytes32{}, 1)}), intent.ErrWrongAssetKind)

	deltas, err := s.Apply([]intent.Action{intent.Fee{Amount: 1}})
	require.NoError(t, err)
	require.Equal(t, intent.StateApplied, s.State())
	require.ErrorIs(t, s.Add(o.xch(10, 1)), intent.ErrWrongState)
	_, err = s.Apply(nil)
	require.ErrorIs(t, err, intent.ErrWrongState)

	f, err := s.Prepare(deltas)
	require.NoError(t, err)
	require.Equal(t, intent.StatePrepared, s.State())
	require.Equal(t, intent.StateAuthorizing, f.State())
	_, err = s.Prepare(deltas)
	require.ErrorIs(t, err, intent.ErrWrongState)

	_, err = f.Spend()
	require.ErrorIs(t, err, intent.ErrMissingAuthorization)

	require.NoError(t, f.Authorize(context.Background(), o.auth))
	_, err = f.Spend()
	require.NoError(t, err)
	require.Equal(t, intent.StateFinal, f.State())
	_, err = f.Spend()
	require.ErrorIs(t, err, intent.ErrWrongState)
	require.ErrorIs(t, f.Insert(util.Bytes32{}, puzzle.Spend{}), intent.ErrWrongState)
}

func TestInsert(t *testing.T) {
	o := newTestOwner(t)
	cn := o.xch(10, 0)

	s := intent.NewSpends(o.c, o.ph)
	require.NoError(t, s.Add(cn))
	deltas, err := s.Apply(nil)
	require.NoError(t, err)
	f, err := s.Prepare(deltas)
	require.NoError(t, err)

	pending := f.PendingSpends()
	require.Len(t, pending, 1)
	require.Equal(t, cn.Coin, pending[0].Coin)
	require.Equal(t, o.ph, pending[0].P2PuzzleHash)

	require.ErrorIs(t, f.Insert(util.Bytes32{1}, puzzle.Spend{}), intent.ErrUnknownCoin)
	require.ErrorIs(t, f.Insert(cn.Coin.ID(), puzzle.Spend{}), intent.ErrWrongPuzzle)
	other := puzzle.NewSpend(puzzle.StandardPuzzle(o.c, []byte{2}), nil)
	require.ErrorIs(t, f.Insert(cn.Coin.ID(), other), intent.ErrWrongPuzzle)

	spend, err := o.auth.Authorize(context.Background(), pending[0])
	require.NoError(t, err)
	require.NoError(t, f.Insert(cn.Coin.ID(), spend))
	out, err := f.Spend()
	require.NoError(t, err)
	require.Equal(t, []coin.Coin{cn.Coin.Child(o.ph, 10)}, out.Xch())
}

func TestTransfer(t *testing.T) {
	var (
		o   = newTestOwner(t)
		bob = util.Bytes32{0xb0}
		cn  = o.xch(1000, 0)
	)
	out, err := o.spend(t, []asset.Asset{cn}, []intent.Action{
		intent.Send{ID: intent.Xch, PuzzleHash: bob, Amount: 250, Memos: [][]byte{[]byte("hi")}},
	})
	require.NoError(t, err)
	require.Equal(t, []coin.Coin{
		cn.Coin.Child(bob, 250),
		cn.Coin.Child(o.ph, 750),
	}, out.Xch())
	require.Len(t, out.CoinSpends(), 1)

	cs := out.CoinSpends()[0]
	p, err := puzzle.DecodeProgram(cs.PuzzleReveal)
	require.NoError(t, err)
	conds, err := puzzle.Run(o.c, cn.Coin, p, cs.Solution)
	require.NoError(t, err)
	require.Equal(t, puzzle.CreateCoin{PuzzleHash: bob, Amount: 250, Memos: [][]byte{[]byte("hi")}}, conds[1])
	require.Equal(t, puzzle.CreateCoin{PuzzleHash: o.ph, Amount: 750}, conds[2])
}

func TestIntermediateCoin(t *testing.T) {
	var (
		o  = newTestOwner(t)
		cn = o.xch(1000, 0)
	)
	s := intent.NewSpends(o.c, o.ph)
	require.NoError(t, s.Add(cn))
	deltas, err := s.Apply([]intent.Action{
		intent.Send{ID: intent.Xch, PuzzleHash: o.ph, Amount: 500},
	})
	require.NoError(t, err)
	f, err := s.Prepare(deltas)
	require.NoError(t, err)

	inter := cn.Coin.Child(o.ph, 1)
	pending := f.PendingSpends()
	require.Len(t, pending, 2)
	require.Equal(t, []puzzle.Condition{
		puzzle.CreateCoin{PuzzleHash: o.ph, Amount: 500},
		puzzle.CreateCoin{PuzzleHash: o.ph, Amount: 1},
	}, pending[0].Conditions)
	require.Equal(t, inter, pending[1].Coin)
	require.Equal(t, []puzzle.Condition{
		puzzle.CreateCoin{PuzzleHash: o.ph, Amount: 500},
	}, pending[1].Conditions)

	require.NoError(t, f.Authorize(context.Background(), o.auth))
	out, err := f.Spend()
	require.NoError(t, err)
	require.Equal(t, []coin.Coin{
		cn.Coin.Child(o.ph, 500),
		inter.Child(o.ph, 500),
	}, out.Xch())
}

func TestZeroSend(t *testing.T) {
	var (
		o   = newTestOwner(t)
		bob = util.Bytes32{0xb0}
		cn  = o.xch(1000, 0)
	)
	d := intent.FromActions([]intent.Action{intent.Send{ID: intent.Xch, PuzzleHash: bob}})
	xch, _ := d.Get(intent.Xch)
	require.Equal(t, u256(1), xch.Required())

	out, err := o.spend(t, []asset.Asset{cn}, []intent.Action{intent.Send{ID: intent.Xch, PuzzleHash: bob}})
	require.NoError(t, err)
	require.Equal(t, []coin.Coin{
		cn.Coin.Child(bob, 0),
		cn.Coin.Child(o.ph, 1000),
	}, out.Xch())
}

func TestUnbalanced(t *testing.T) {
	o := newTestOwner(t)
	_, err := o.spend(t, []asset.Asset{o.xch(100, 0)}, []intent.Action{
		intent.Send{ID: intent.Xch, PuzzleHash: util.Bytes32{1}, Amount: 250},
	})
	require.ErrorIs(t, err, intent.ErrUnbalanced)

	_, err = o.spend(t, nil, []intent.Action{intent.Fee{Amount: 1}})
	require.ErrorIs(t, err, intent.ErrNoSource)
}

func TestFeeAndRelation(t *testing.T) {
	var (
		o      = newTestOwner(t)
		first  = o.xch(100, 0)
		second = o.xch(200, 1)
	)
	s := intent.NewSpends(o.c, o.ph, intent.WithRelation(intent.RelationAssertConcurrent))
	require.NoError(t, s.Add(first))
	require.NoError(t, s.Add(second))
	deltas, err := s.Apply([]intent.Action{intent.Fee{Amount: 30}})
	require.NoError(t, err)
	f, err := s.Prepare(deltas)
	require.NoError(t, err)

	pending := f.PendingSpends()
	require.Len(t, pending, 2)
	require.Equal(t, []puzzle.Condition{
		puzzle.ReserveFee{Amount: 30},
		puzzle.CreateCoin{PuzzleHash: o.ph, Amount: 270},
	}, pending[0].Conditions)
	require.Equal(t, []puzzle.Condition{
		puzzle.AssertConcurrentSpend{CoinID: first.Coin.ID()},
	}, pending[1].Conditions)
}

func TestIssueAsset(t *testing.T) {
	var (
		o   = newTestOwner(t)
		cn  = o.xch(1000, 0)
		bob = util.Bytes32{0xb0}
	)
	out, err := o.spend(t, []asset.Asset{cn}, []intent.Action{
		intent.IssueAsset{Amount: 300},
		intent.Send{ID: intent.New(0), PuzzleHash: bob, Amount: 100},
	})
	require.NoError(t, err)

	tail := puzzle.GenesisByCoinIDTail(o.c, cn.Coin.ID())
	id := intent.Existing(tail.Hash())
	require.Equal(t, id, out.Resolve(intent.New(0)))
	require.Equal(t, []intent.ID{id}, out.Cats())

	cats := out.Cat(intent.New(0))
	require.Len(t, cats, 2)
	require.Equal(t, bob, cats[0].P2)
	require.EqualValues(t, 100, cats[0].Value())
	require.Equal(t, o.ph, cats[1].P2)
	require.EqualValues(t, 200, cats[1].Value())

	require.Equal(t, []coin.Coin{cn.Coin.Child(o.ph, 700)}, out.Xch())
	require.Len(t, out.MintConditions(intent.New(0)), 1)
	require.Equal(t, out.MintConditions(intent.New(0)), out.MintConditions(id))
	// The native coin and the eve CAT coin.
	require.Len(t, out.CoinSpends(), 2)
}

func TestSupplyChangeOfWrongAsset(t *testing.T) {
	var (
		o    = newTestOwner(t)
		tail = puzzle.EverythingWithSignatureTail(o.c, []byte{1})
		cat  = asset.Cat{AssetID: util.Bytes32{0xca}, P2: o.ph}
	)
	cat.Coin = coin.New(util.Bytes32{1}, puzzle.CatPuzzleHash(o.c, cat.AssetID, o.ph), 10)
	_, err := o.spend(t, []asset.Asset{o.xch(100, 0), cat}, []intent.Action{
		intent.MeltAsset{ID: intent.Existing(cat.AssetID), Tail: tail, Amount: 5},
	})
	require.ErrorIs(t, err, intent.ErrInvalidAction)
}

func TestCreateDidAndMint(t *testing.T) {
	var (
		o  = newTestOwner(t)
		cn = o.xch(1000, 0)
	)
	out, err := o.spend(t, []asset.Asset{cn}, []intent.Action{
		intent.CreateDid{Metadata: []byte("me"), Amount: 1},
		intent.MintToken{Parent: intent.Xch, Amount: 1, RoyaltyBps: 300, Metadata: puzzle.NftMetadata{DataURIs: []string{"https://nft"}}},
	})
	require.NoError(t, err)

	did, ok := out.Did(intent.New(0))
	require.True(t, ok)
	require.Equal(t, []byte("me"), did.State.Metadata)
	require.Equal(t, o.ph, did.P2)

	nft, ok := out.Nft(intent.New(1))
	require.True(t, ok)
	require.Nil(t, nft.State.Owner)
	require.EqualValues(t, 300, nft.State.RoyaltyBps)
	require.NotEqual(t, did.LauncherID, nft.LauncherID)

	require.Equal(t, []coin.Coin{cn.Coin.Child(o.ph, 998)}, out.Xch())
	// The native coin and two launchers.
	require.Len(t, out.CoinSpends(), 3)

	_, ok = out.Did(intent.New(1))
	require.False(t, ok)
}

func TestSingletonMisuse(t *testing.T) {
	o := newTestOwner(t)
	_, err := o.spend(t, []asset.Asset{o.xch(1000, 0)}, []intent.Action{
		intent.CreateDid{Amount: 1},
		intent.UpdateToken{ID: intent.New(0), Transfer: true},
	})
	require.ErrorIs(t, err, intent.ErrWrongAssetKind)

	_, err = o.spend(t, []asset.Asset{o.xch(1000, 0)}, []intent.Action{
		intent.IssueAsset{Amount: 10},
		intent.MintToken{Parent: intent.New(0), Amount: 1},
	})
	require.ErrorIs(t, err, intent.ErrWrongAssetKind)

	_, err = o.spend(t, []asset.Asset{o.xch(1000, 0)}, []intent.Action{
		intent.UpdateDid{ID: intent.Existing(util.Bytes32{1})},
	})
	require.ErrorIs(t, err, intent.ErrUnresolvedID)
}

func TestID(t *testing.T) {
	require.Equal(t, "xch", intent.Xch.String())
	require.Equal(t, "new(3)", intent.New(3).String())
	require.Equal(t, intent.KindNew, intent.New(3).Kind())
	require.Equal(t, 3, intent.New(3).Index())

	id := util.Bytes32{1, 2}
	require.Equal(t, id.String(), intent.Existing(id).String())
	require.Equal(t, id, intent.Existing(id).AssetID())
	require.NotEqual(t, intent.Existing(id), intent.Xch)
}
