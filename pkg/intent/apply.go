package intent

import (
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

func (a Send) apply(s *Spends, _ int) error {
	if a.ID.Kind() != KindXch {
		if it, err := s.singleton(a.ID); err == nil {
			it.dest = &puzzle.CreateCoin{PuzzleHash: a.PuzzleHash, Memos: a.Memos}
			it.touched = true
			return nil
		}
	}
	it, err := s.output(a.ID, a.PuzzleHash, a.Amount)
	if err != nil {
		return err
	}
	it.conds = append(it.conds, puzzle.CreateCoin{PuzzleHash: a.PuzzleHash, Amount: a.Amount, Memos: a.Memos})
	return nil
}

func (a Fee) apply(s *Spends, _ int) error {
	it, err := s.primary(Xch)
	if err != nil {
		return err
	}
	it.conds = append(it.conds, puzzle.ReserveFee{Amount: a.Amount})
	return nil
}

func (a IssueAsset) apply(s *Spends, index int) error {
	var src *item
	for _, it := range s.xch {
		if !it.locked && !it.issued && (!it.ephemeral || it.intermediate) {
			src = it
			break
		}
	}
	if src == nil {
		var err error
		if src, err = s.intermediate(s.xch); err != nil {
			return err
		}
	}
	tail := a.Tail
	if tail == nil {
		tail = puzzle.GenesisByCoinIDTail(s.c, src.asset.AssetCoin().ID())
	}
	var (
		assetID = tail.Hash()
		ph      = puzzle.CatPuzzleHash(s.c, assetID, s.changePH)
		eve     = asset.Cat{Coin: src.asset.AssetCoin().Child(ph, a.Amount), AssetID: assetID, P2: s.changePH}
		cc      = puzzle.CreateCoin{PuzzleHash: ph, Amount: a.Amount}
	)
	if err := s.bind(&item{asset: eve, ephemeral: true, tail: tail}); err != nil {
		return err
	}
	src.issued = true
	src.conds = append(src.conds, cc)
	s.addMint(index, Existing(assetID), cc)
	return nil
}

func changeSupply(s *Spends, id ID, tail *puzzle.Program, delta int64) error {
	it, err := s.primary(id)
	if err != nil {
		return err
	}
	cat, ok := it.asset.(asset.Cat)
	if !ok {
		return fmt.Errorf("%w: %T has no supply", ErrWrongAssetKind, it.asset)
	}
	if tail.Hash() != cat.AssetID {
		return fmt.Errorf("%w: tail doesn't match asset %s", ErrInvalidAction, cat.AssetID)
	}
	it.tail = tail
	it.tailDiff += delta
	return nil
}

func (a ReissueAsset) apply(s *Spends, _ int) error {
	return changeSupply(s, a.ID, a.Tail, int64(a.Amount))
}

func (a MeltAsset) apply(s *Spends, _ int) error {
	return changeSupply(s, a.ID, a.Tail, -int64(a.Amount))
}

func (a MintToken) apply(s *Spends, index int) error {
	var (
		parent *item
		owner  *util.Bytes32
		err    error
	)
	if a.Parent.Kind() == KindXch {
		parent, err = s.source()
	} else {
		parent, err = s.singleton(a.Parent)
	}
	if err != nil {
		return err
	}
	if a.Parent.Kind() != KindXch {
		did, ok := parent.asset.(asset.Did)
		if !ok {
			return fmt.Errorf("%w: NFT parent must be a DID, not %T", ErrWrongAssetKind, parent.asset)
		}
		owner = &did.LauncherID
		parent.touched = true
	}
	state := puzzle.NftState{
		Metadata:          a.Metadata,
		MetadataUpdaterPH: a.UpdaterPH,
		Owner:             owner,
		RoyaltyPH:         a.RoyaltyPH,
		RoyaltyBps:        a.RoyaltyBps,
	}
	id, cc, err := s.launch(parent, a.Amount, func(launcherID util.Bytes32) asset.Asset {
		return asset.Nft{LauncherID: launcherID, State: state, P2: s.changePH}
	})
	if err != nil {
		return err
	}
	s.addMint(index, id, cc)
	return nil
}

func (a UpdateToken) apply(s *Spends, _ int) error {
	it, err := s.singleton(a.ID)
	if err != nil {
		return err
	}
	if _, ok := it.asset.(asset.Nft); !ok {
		return fmt.Errorf("%w: %T is not an NFT", ErrWrongAssetKind, it.asset)
	}
	if len(a.MetadataUpdates) != 0 {
		it.conds = append(it.conds, puzzle.UpdateNftMetadata{Updates: a.MetadataUpdates})
	}
	if a.Transfer {
		it.conds = append(it.conds, puzzle.TransferNft{Owner: a.NewOwner})
	}
	it.touched = true
	return nil
}

func (a CreateDid) apply(s *Spends, index int) error {
	parent, err := s.source()
	if err != nil {
		return err
	}
	state := puzzle.DidState{
		RecoveryListHash:         a.RecoveryListHash,
		NumVerificationsRequired: a.NumVerifications,
		Metadata:                 a.Metadata,
	}
	id, cc, err := s.launch(parent, a.Amount, func(launcherID util.Bytes32) asset.Asset {
		return asset.Did{LauncherID: launcherID, State: state, P2: s.changePH}
	})
	if err != nil {
		return err
	}
	s.addMint(index, id, cc)
	return nil
}

func (a UpdateDid) apply(s *Spends, _ int) error {
	it, err := s.singleton(a.ID)
	if err != nil {
		return err
	}
	if _, ok := it.asset.(asset.Did); !ok {
		return fmt.Errorf("%w: %T is not a DID", ErrWrongAssetKind, it.asset)
	}
	it.conds = append(it.conds, puzzle.UpdateDid{State: puzzle.DidState{
		RecoveryListHash:         a.RecoveryListHash,
		NumVerificationsRequired: a.NumVerifications,
		Metadata:                 a.Metadata,
	}})
	it.touched = true
	return nil
}

// fungibleAssetID returns the CAT asset id of the fungible ID, nil for the
// native asset.
func (s *Spends) fungibleAssetID(id ID) (*util.Bytes32, error) {
	id, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	if id.Kind() == KindXch {
		return nil, nil
	}
	if _, ok := s.singletons[id]; ok {
		return nil, fmt.Errorf("%w: %s is a singleton", ErrWrongAssetKind, id)
	}
	assetID := id.AssetID()
	return &assetID, nil
}

func (a MintOption) apply(s *Spends, index int) error {
	parent, err := s.source()
	if err != nil {
		return err
	}
	strikeAssetID, err := s.fungibleAssetID(a.StrikeID)
	if err != nil {
		return fmt.Errorf("strike: %w", err)
	}
	underlyingAssetID, err := s.fungibleAssetID(a.UnderlyingID)
	if err != nil {
		return fmt.Errorf("underlying: %w", err)
	}
	funding, err := s.primary(a.UnderlyingID)
	if err != nil {
		return fmt.Errorf("underlying: %w", err)
	}
	var underCC puzzle.CreateCoin
	id, cc, err := s.launch(parent, a.Amount, func(launcherID util.Bytes32) asset.Asset {
		terms := puzzle.OptionTerms{
			LauncherID:    launcherID,
			CreatorPH:     a.CreatorPH,
			Expiration:    a.Expiration,
			StrikeAssetID: strikeAssetID,
			StrikeAmount:  a.StrikeAmount,
		}
		under := asset.OptionUnderlying{Terms: terms, AssetID: underlyingAssetID}
		underCC = puzzle.CreateCoin{PuzzleHash: puzzle.OptionUnderlyingPuzzleHash(s.c, terms), Amount: a.UnderlyingAmount}
		under.Coin = funding.asset.AssetCoin().Child(asset.PuzzleHash(s.c, under, underCC.PuzzleHash), a.UnderlyingAmount)
		return asset.Option{
			LauncherID: launcherID,
			State:      puzzle.OptionState{UnderlyingCoinID: under.Coin.ID()},
			Terms:      terms,
			Underlying: under,
			P2:         s.changePH,
		}
	})
	if err != nil {
		return err
	}
	funding.conds = append(funding.conds, underCC)
	s.addMint(index, id, cc, underCC)
	return nil
}

func (a ExerciseOption) apply(s *Spends, _ int) error {
	it, err := s.singleton(a.ID())
	if err != nil {
		return err
	}
	opt, ok := it.asset.(asset.Option)
	if !ok {
		return fmt.Errorf("%w: %T is not an option", ErrWrongAssetKind, it.asset)
	}
	if opt.Coin != a.Option.Coin {
		return fmt.Errorf("%w: option %s is bound with another coin", ErrInvalidAction, a.ID())
	}
	strike, err := s.output(a.StrikeID(), opt.Terms.CreatorPH, opt.Terms.StrikeAmount)
	if err != nil {
		return fmt.Errorf("strike: %w", err)
	}
	strike.conds = append(strike.conds, puzzle.CreateCoin{
		PuzzleHash: opt.Terms.CreatorPH,
		Amount:     opt.Terms.StrikeAmount,
	})
	if err := s.bind(&item{asset: opt.Underlying, ephemeral: true, locked: true}); err != nil {
		return err
	}
	it.melt = true
	it.touched = true
	return nil
}

func (a MeltSingleton) apply(s *Spends, _ int) error {
	it, err := s.singleton(a.ID)
	if err != nil {
		return err
	}
	switch it.asset.(type) {
	case asset.Did, asset.Option:
	default:
		return fmt.Errorf("%w: %T can't be melted", ErrWrongAssetKind, it.asset)
	}
	it.melt = true
	it.touched = true
	return nil
}
