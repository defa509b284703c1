package asset

import (
	"testing"

	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/stretchr/testify/require"
)

var (
	testPub   = append([]byte{3}, make([]byte, 32)...)
	testAsset = util.Bytes32{0xaa}
)

func testRecords(c *puzzle.Constants) []Asset {
	p2 := puzzle.StandardPuzzleHash(c, testPub)
	cn := coin.New(util.Bytes32{1}, util.Bytes32{2}, 1)
	return []Asset{
		Xch{Coin: cn},
		Cat{Coin: cn, AssetID: testAsset, P2: p2},
		Nft{Coin: cn, LauncherID: util.Bytes32{3}, State: puzzle.NftState{RoyaltyBps: 10}, P2: p2},
		Did{Coin: cn, LauncherID: util.Bytes32{4}, State: puzzle.DidState{Metadata: []byte{}}, P2: p2},
		Option{Coin: cn, LauncherID: util.Bytes32{5}, P2: p2},
		OptionUnderlying{Coin: cn, AssetID: &testAsset},
		Launcher{Coin: cn, Nonce: 2},
	}
}

func TestPuzzleHash(t *testing.T) {
	c := puzzle.DefaultConstants()
	inner := puzzle.StandardPuzzle(c, testPub)
	for _, a := range testRecords(c) {
		require.Equal(t, a.Puzzle(c, inner).Hash(), PuzzleHash(c, a, inner.Hash()), "%T", a)
		require.Equal(t, uint64(1), a.Value())
	}
}

func TestID(t *testing.T) {
	c := puzzle.DefaultConstants()
	recs := testRecords(c)
	require.Nil(t, ID(recs[0]))
	require.Equal(t, testAsset, *ID(recs[1]))
	require.Equal(t, util.Bytes32{3}, *ID(recs[2]))
	require.Nil(t, ID(recs[5]))
	require.False(t, IsSingleton(recs[1]))
	require.True(t, IsSingleton(recs[4]))
}

func TestFromLayers(t *testing.T) {
	c := puzzle.DefaultConstants()
	inner := puzzle.StandardPuzzle(c, testPub)
	cn := coin.New(util.Bytes32{1}, util.Bytes32{2}, 3)

	l, err := puzzle.Parse(c, puzzle.CatPuzzle(c, testAsset, inner))
	require.NoError(t, err)
	a, err := FromLayers(cn, l)
	require.NoError(t, err)
	require.Equal(t, Cat{Coin: cn, AssetID: testAsset, P2: inner.Hash()}, a)

	l, err = puzzle.Parse(c, puzzle.LauncherPuzzle(c, 7))
	require.NoError(t, err)
	a, err = FromLayers(cn, l)
	require.NoError(t, err)
	require.Equal(t, Launcher{Coin: cn, Nonce: 7}, a)

	l, err = puzzle.Parse(c, puzzle.SingletonPuzzle(c, util.Bytes32{1}, puzzle.DidPuzzle(c, puzzle.DidState{}, inner)))
	require.NoError(t, err)
	_, err = FromLayers(cn, l)
	require.ErrorIs(t, err, ErrLineage)
}

func TestChildrenFungible(t *testing.T) {
	c := puzzle.DefaultConstants()
	parent := Cat{Coin: coin.New(util.Bytes32{1}, util.Bytes32{2}, 10), AssetID: testAsset, P2: util.Bytes32{3}}
	children, err := Children(c, parent, []puzzle.Condition{
		puzzle.ReserveFee{Amount: 1},
		puzzle.CreateCoin{PuzzleHash: util.Bytes32{4}, Amount: 6},
		puzzle.CreateCoin{PuzzleHash: util.Bytes32{5}, Amount: 4},
	})
	require.NoError(t, err)
	require.Len(t, children, 2)
	cat := children[0].(Cat)
	require.Equal(t, util.Bytes32{4}, cat.P2)
	require.Equal(t, parent.Coin.ID(), cat.Coin.ParentCoinInfo)
	require.Equal(t, puzzle.CatPuzzleHash(c, testAsset, util.Bytes32{4}), cat.Coin.PuzzleHash)

	xch := Xch{Coin: coin.New(util.Bytes32{1}, util.Bytes32{2}, 10)}
	children, err = Children(c, xch, []puzzle.Condition{puzzle.CreateCoin{PuzzleHash: util.Bytes32{4}, Amount: 10}})
	require.NoError(t, err)
	require.Equal(t, []Asset{Xch{Coin: xch.Coin.Child(util.Bytes32{4}, 10)}}, children)
}

func TestChildrenSingleton(t *testing.T) {
	c := puzzle.DefaultConstants()
	inner := puzzle.StandardPuzzle(c, testPub)
	nft := Nft{LauncherID: util.Bytes32{7}, State: puzzle.NftState{Metadata: puzzle.NftMetadata{DataURIs: []string{"a"}}}, P2: inner.Hash()}
	nft.Coin = coin.New(util.Bytes32{7}, PuzzleHash(c, nft, nft.P2), 1)
	owner := util.Bytes32{8}

	innerConds := []puzzle.Condition{
		puzzle.CreateCoin{PuzzleHash: util.Bytes32{9}, Amount: 1},
		puzzle.CreateCoin{PuzzleHash: util.Bytes32{10}, Amount: 1},
		puzzle.TransferNft{Owner: &owner},
	}
	children, err := Children(c, nft, innerConds)
	require.NoError(t, err)
	require.Len(t, children, 2)
	child := children[0].(Nft)
	require.Equal(t, &owner, child.State.Owner)
	require.Equal(t, util.Bytes32{9}, child.P2)
	require.IsType(t, Xch{}, children[1])

	// Children must match what the ledger sees after running the puzzle.
	conds, err := puzzle.Run(c, nft.Coin, nft.Puzzle(c, inner), puzzle.EncodeConditions(innerConds))
	require.NoError(t, err)
	require.Equal(t, child.Coin.PuzzleHash, conds[1].(puzzle.CreateCoin).PuzzleHash)

	did := Did{Coin: nft.Coin, LauncherID: util.Bytes32{7}, P2: inner.Hash()}
	children, err = Children(c, did, []puzzle.Condition{
		puzzle.MeltSingleton{},
		puzzle.CreateCoin{PuzzleHash: util.Bytes32{9}, Amount: 1},
	})
	require.NoError(t, err)
	require.Equal(t, []Asset{Xch{Coin: did.Coin.Child(util.Bytes32{9}, 1)}}, children)
}

func TestLauncherInfo(t *testing.T) {
	c := puzzle.DefaultConstants()
	launcher := Launcher{Coin: coin.New(util.Bytes32{1}, puzzle.LauncherPuzzleHash(c, 0), 1)}
	launcherID := launcher.Coin.ID()
	strike := util.Bytes32{2}

	for _, eve := range []Asset{
		Nft{LauncherID: launcherID, State: puzzle.NftState{RoyaltyBps: 5}, P2: util.Bytes32{3}},
		Did{LauncherID: launcherID, State: puzzle.DidState{NumVerificationsRequired: 1, Metadata: []byte{}}, P2: util.Bytes32{3}},
		Option{
			LauncherID: launcherID,
			State:      puzzle.OptionState{UnderlyingCoinID: util.Bytes32{4}},
			Terms:      puzzle.OptionTerms{LauncherID: launcherID, StrikeAssetID: &strike, StrikeAmount: 10},
			Underlying: OptionUnderlying{
				Coin:  coin.New(util.Bytes32{5}, util.Bytes32{6}, 100),
				Terms: puzzle.OptionTerms{LauncherID: launcherID, StrikeAssetID: &strike, StrikeAmount: 10},
			},
			P2: util.Bytes32{3},
		},
	} {
		ph := PuzzleHash(c, eve, eve.P2PuzzleHash())
		eve = withCoin(eve, launcher.Coin.Child(ph, 1))
		sol := puzzle.LauncherSolution{SingletonPuzzleHash: ph, Amount: 1, Info: EncodeInfo(eve)}

		conds, err := puzzle.Run(c, launcher.Coin, launcher.Puzzle(c, nil), sol.Bytes())
		require.NoError(t, err)
		children, err := Children(c, launcher, conds)
		require.NoError(t, err)
		require.Equal(t, []Asset{eve}, children)
	}

	_, err := Children(c, launcher, []puzzle.Condition{
		puzzle.CreateCoin{PuzzleHash: util.Bytes32{1}, Amount: 1, Memos: [][]byte{EncodeInfo(Did{P2: util.Bytes32{3}})}},
	})
	require.ErrorIs(t, err, ErrLineage)
}

func TestRecordCodec(t *testing.T) {
	var (
		cn     = coin.New(util.Bytes32{1}, util.Bytes32{2}, 3)
		strike = util.Bytes32{2}
		terms  = puzzle.OptionTerms{LauncherID: util.Bytes32{5}, Expiration: 100, StrikeAssetID: &strike, StrikeAmount: 10}
	)
	for _, a := range []Asset{
		Xch{Coin: cn},
		Cat{Coin: cn, AssetID: testAsset, P2: util.Bytes32{3}},
		Nft{Coin: cn, LauncherID: util.Bytes32{5}, State: puzzle.NftState{RoyaltyBps: 5}, P2: util.Bytes32{3}},
		Did{Coin: cn, LauncherID: util.Bytes32{5}, State: puzzle.DidState{NumVerificationsRequired: 1, Metadata: []byte{1}}, P2: util.Bytes32{3}},
		Option{
			Coin:       cn,
			LauncherID: util.Bytes32{5},
			State:      puzzle.OptionState{UnderlyingCoinID: util.Bytes32{4}},
			Terms:      terms,
			Underlying: OptionUnderlying{Coin: coin.New(util.Bytes32{5}, util.Bytes32{6}, 100), Terms: terms, AssetID: &testAsset},
			P2:         util.Bytes32{3},
		},
		OptionUnderlying{Coin: cn, Terms: terms},
		Launcher{Coin: cn, Nonce: 2},
	} {
		b := Encode(a)
		actual, err := Decode(b)
		require.NoError(t, err, "%T", a)
		require.Equal(t, a, actual)

		_, err = Decode(append(b, 0))
		require.Error(t, err)
	}
	_, err := Decode([]byte{0xff})
	require.Error(t, err)
}
