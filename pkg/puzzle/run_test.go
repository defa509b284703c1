package puzzle

import (
	"testing"

	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/stretchr/testify/require"
)

var testPub = append([]byte{2}, make([]byte, 32)...)

func TestRunStandard(t *testing.T) {
	c := DefaultConstants()
	p := StandardPuzzle(c, testPub)
	cn := coin.New(util.Bytes32{1}, p.Hash(), 100)
	sol := EncodeConditions([]Condition{
		CreateCoin{PuzzleHash: util.Bytes32{2}, Amount: 100},
	})

	conds, err := Run(c, cn, p, sol)
	require.NoError(t, err)
	require.Equal(t, []Condition{
		AggSigMe{PublicKey: testPub, Message: hash.Sha256(sol).BytesBE()},
		CreateCoin{PuzzleHash: util.Bytes32{2}, Amount: 100},
	}, conds)

	_, err = Run(c, cn, p, []byte{1})
	require.Error(t, err)

	_, err = Run(c, cn, &Program{Mod: util.Bytes32{0xaa}}, sol)
	require.ErrorIs(t, err, ErrUnknownMod)
}

func TestRunCat(t *testing.T) {
	var (
		c       = DefaultConstants()
		genesis = util.Bytes32{9}
		tail    = GenesisByCoinIDTail(c, genesis)
		assetID = tail.Hash()
		inner   = StandardPuzzle(c, testPub)
		p       = CatPuzzle(c, assetID, inner)
		eve     = coin.New(genesis, p.Hash(), 50)
	)
	conds, err := Run(c, eve, p, EncodeConditions([]Condition{
		CreateCoin{PuzzleHash: util.Bytes32{2}, Amount: 50},
		RunTail{Tail: tail, Solution: []byte{}},
	}))
	require.NoError(t, err)
	require.Len(t, conds, 3)
	require.Equal(t, CreateCoin{PuzzleHash: CatPuzzleHash(c, assetID, util.Bytes32{2}), Amount: 50}, conds[1])
	require.IsType(t, RunTail{}, conds[2])

	t.Run("wrong genesis", func(t *testing.T) {
		other := coin.New(util.Bytes32{8}, p.Hash(), 50)
		_, err := Run(c, other, p, EncodeConditions([]Condition{RunTail{Tail: tail, Solution: []byte{}}}))
		require.ErrorIs(t, err, ErrInvalidTail)
	})
	t.Run("supply change", func(t *testing.T) {
		_, err := Run(c, eve, p, EncodeConditions([]Condition{RunTail{Tail: tail, Solution: []byte{}, Delta: 1}}))
		require.ErrorIs(t, err, ErrInvalidTail)
	})
	t.Run("foreign tail", func(t *testing.T) {
		_, err := Run(c, eve, p, EncodeConditions([]Condition{
			RunTail{Tail: GenesisByCoinIDTail(c, util.Bytes32{8}), Solution: []byte{}},
		}))
		require.ErrorIs(t, err, ErrInvalidTail)
	})
	t.Run("tail outside cat", func(t *testing.T) {
		_, err := Run(c, eve, inner, EncodeConditions([]Condition{RunTail{Tail: tail, Solution: []byte{}}}))
		require.ErrorIs(t, err, ErrUnexpectedCondition)
	})
	t.Run("signature tail", func(t *testing.T) {
		tail := EverythingWithSignatureTail(c, testPub)
		p := CatPuzzle(c, tail.Hash(), inner)
		cn := coin.New(util.Bytes32{1}, p.Hash(), 10)
		conds, err := Run(c, cn, p, EncodeConditions([]Condition{RunTail{Tail: tail, Solution: []byte{}, Delta: -10}}))
		require.NoError(t, err)
		require.Contains(t, conds, Condition(AggSigMe{PublicKey: testPub, Message: TailMessage(tail.Hash(), -10)}))
	})
}

func TestRunNft(t *testing.T) {
	var (
		c        = DefaultConstants()
		launcher = util.Bytes32{3}
		owner    = util.Bytes32{4}
		state    = NftState{
			Metadata:   NftMetadata{DataURIs: []string{"a"}},
			RoyaltyPH:  util.Bytes32{5},
			RoyaltyBps: 100,
		}
		inner = StandardPuzzle(c, testPub)
		p     = SingletonPuzzle(c, launcher, NftPuzzle(c, state, inner))
		cn    = coin.New(launcher, p.Hash(), 1)
		dest  = util.Bytes32{6}
	)
	conds, err := Run(c, cn, p, EncodeConditions([]Condition{
		CreateCoin{PuzzleHash: dest, Amount: 1},
		UpdateNftMetadata{Updates: []MetadataUpdate{{Kind: MetadataDataURI, URI: "b"}}},
		TransferNft{Owner: &owner},
	}))
	require.NoError(t, err)
	require.Len(t, conds, 2)

	next := state
	next.Metadata.DataURIs = []string{"b", "a"}
	next.Owner = &owner
	expected := SingletonPuzzleHash(c, launcher, NftPuzzleHash(c, next, dest))
	require.Equal(t, CreateCoin{PuzzleHash: expected, Amount: 1}, conds[1])

	_, err = Run(c, cn, p, EncodeConditions([]Condition{CreateCoin{PuzzleHash: dest, Amount: 2}}))
	require.ErrorIs(t, err, ErrNoChild)

	conds, err = Run(c, cn, p, EncodeConditions([]Condition{MeltSingleton{}, CreateCoin{PuzzleHash: dest, Amount: 1}}))
	require.NoError(t, err)
	require.Equal(t, CreateCoin{PuzzleHash: dest, Amount: 1}, conds[2])

	_, err = Run(c, cn, inner, EncodeConditions([]Condition{MeltSingleton{}}))
	require.ErrorIs(t, err, ErrUnexpectedCondition)
}

func TestRunDidFirstOddIsChild(t *testing.T) {
	var (
		c        = DefaultConstants()
		launcher = util.Bytes32{3}
		state    = DidState{NumVerificationsRequired: 1, Metadata: []byte{}}
		inner    = StandardPuzzle(c, testPub)
		p        = SingletonPuzzle(c, launcher, DidPuzzle(c, state, inner))
		cn       = coin.New(launcher, p.Hash(), 1)
		self     = inner.Hash()
		nftLaunc = LauncherPuzzleHash(c, 0)
		newState = DidState{NumVerificationsRequired: 2, Metadata: []byte("x")}
	)
	conds, err := Run(c, cn, p, EncodeConditions([]Condition{
		CreateCoin{PuzzleHash: self, Amount: 1},
		CreateCoin{PuzzleHash: nftLaunc, Amount: 1},
		UpdateDid{State: newState},
	}))
	require.NoError(t, err)
	require.Equal(t, []Condition{
		AggSigMe{PublicKey: testPub, Message: conds[0].(AggSigMe).Message},
		CreateCoin{PuzzleHash: SingletonPuzzleHash(c, launcher, DidPuzzleHash(c, newState, self)), Amount: 1},
		CreateCoin{PuzzleHash: nftLaunc, Amount: 1},
	}, conds)
}

func TestRunLauncher(t *testing.T) {
	c := DefaultConstants()
	p := LauncherPuzzle(c, 0)
	cn := coin.New(util.Bytes32{1}, p.Hash(), 1)
	sol := LauncherSolution{SingletonPuzzleHash: util.Bytes32{2}, Amount: 1, Info: []byte("info")}

	conds, err := Run(c, cn, p, sol.Bytes())
	require.NoError(t, err)
	require.Equal(t, []Condition{CreateCoin{PuzzleHash: util.Bytes32{2}, Amount: 1, Memos: [][]byte{[]byte("info")}}}, conds)

	sol.Amount = 3
	_, err = Run(c, cn, p, sol.Bytes())
	require.Error(t, err)
}

func TestRunOptionUnderlying(t *testing.T) {
	var (
		c      = DefaultConstants()
		strike = util.Bytes32{7}
		terms  = OptionTerms{
			LauncherID:    util.Bytes32{1},
			CreatorPH:     util.Bytes32{2},
			Expiration:    1000,
			StrikeAssetID: &strike,
			StrikeAmount:  30,
		}
		p  = OptionUnderlyingPuzzle(c, terms)
		cn = coin.New(util.Bytes32{3}, p.Hash(), 10)
	)
	conds, err := Run(c, cn, p, EncodeConditions([]Condition{CreateCoin{PuzzleHash: util.Bytes32{4}, Amount: 10}}))
	require.NoError(t, err)
	require.Equal(t, []Condition{
		AssertBeforeSecondsAbsolute{Seconds: 1000},
		AssertSingletonMelted{LauncherID: util.Bytes32{1}},
		AssertPayment{PuzzleHash: CatPuzzleHash(c, strike, util.Bytes32{2}), Amount: 30},
		CreateCoin{PuzzleHash: util.Bytes32{4}, Amount: 10},
	}, conds)
}

func TestParse(t *testing.T) {
	var (
		c     = DefaultConstants()
		inner = StandardPuzzle(c, testPub)
		id    = util.Bytes32{1}
	)
	l, err := Parse(c, CatPuzzle(c, id, inner))
	require.NoError(t, err)
	require.Equal(t, id, *l.AssetID)
	require.Nil(t, l.LauncherID)
	require.Equal(t, inner, l.Inner)

	l, err = Parse(c, SingletonPuzzle(c, id, OptionPuzzle(c, OptionState{UnderlyingCoinID: util.Bytes32{2}}, inner)))
	require.NoError(t, err)
	require.Equal(t, id, *l.LauncherID)
	require.Equal(t, util.Bytes32{2}, l.Option.UnderlyingCoinID)
	require.Nil(t, l.Nft)

	l, err = Parse(c, LauncherPuzzle(c, 5))
	require.NoError(t, err)
	require.Equal(t, uint64(5), *l.LauncherNonce)

	l, err = Parse(c, CatPuzzle(c, id, OptionUnderlyingPuzzle(c, OptionTerms{})))
	require.NoError(t, err)
	require.NotNil(t, l.Underlying)

	for name, p := range map[string]*Program{
		"cat in singleton":   SingletonPuzzle(c, id, CatPuzzle(c, id, inner)),
		"singleton in cat":   CatPuzzle(c, id, SingletonPuzzle(c, id, NftPuzzle(c, NftState{}, inner))),
		"bare singleton":     SingletonPuzzle(c, id, inner),
		"wrapped launcher":   CatPuzzle(c, id, LauncherPuzzle(c, 0)),
		"bare nft layer":     NftPuzzle(c, NftState{}, inner),
		"cat without inner":  {Mod: c.CatModHash, Args: [][]byte{id.BytesBE()}},
		"short cat argument": {Mod: c.CatModHash, Args: [][]byte{{1}}, Inner: inner},
		"tail as puzzle":     GenesisByCoinIDTail(c, id),
		"inner with inner":   {Mod: c.StandardModHash, Args: [][]byte{testPub}, Inner: inner},
	} {
		_, err := Parse(c, p)
		require.Error(t, err, name)
	}
}

func TestNftMetadataApply(t *testing.T) {
	m := NftMetadata{MetadataURIs: []string{"x"}}
	next, err := m.Apply(MetadataUpdate{Kind: MetadataMetaURI, URI: "y"})
	require.NoError(t, err)
	require.Equal(t, []string{"y", "x"}, next.MetadataURIs)
	require.Equal(t, []string{"x"}, m.MetadataURIs)

	_, err = m.Apply(MetadataUpdate{Kind: 10, URI: "y"})
	require.Error(t, err)
	_, err = m.Apply(MetadataUpdate{Kind: MetadataLicenseURI})
	require.Error(t, err)

	h := util.Bytes32{1}
	m.LicenseHash = &h
	m.EditionTotal = 3
	actual, err := DecodeNftMetadata(m.Bytes())
	require.NoError(t, err)
	require.Equal(t, m, actual)
}
