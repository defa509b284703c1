package simulator

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/signer"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// spendResult is a validated coin spend.
type spendResult struct {
	rec      asset.Asset
	stored   *Record
	conds    []puzzle.Condition
	children []asset.Asset
}

// effects are the ledger changes made by a valid bundle.
type effects struct {
	spends    []*spendResult
	additions []asset.Asset
	ephemeral int
}

// payment is a created coin as seen by AssertPayment.
type payment struct {
	ph     util.Bytes32
	amount uint64
}

// validate checks the bundle against the ledger, the lock must be held.
func (s *Simulator) validate(b *coin.SpendBundle) (*effects, error) {
	if len(b.CoinSpends) == 0 {
		return nil, ErrEmptyBundle
	}
	var (
		removals = make(map[util.Bytes32]struct{}, len(b.CoinSpends))
		created  = make(map[util.Bytes32]asset.Asset)
		results  = make([]*spendResult, len(b.CoinSpends))
		pending  = make([]int, 0, len(b.CoinSpends))
	)
	for i, cs := range b.CoinSpends {
		id := cs.Coin.ID()
		if _, ok := removals[id]; ok {
			return nil, fmt.Errorf("%w: %s is spent twice", ErrCoinSpent, id)
		}
		removals[id] = struct{}{}
		pending = append(pending, i)
	}
	// Coins created by the bundle can be spent by it as well, so spends
	// are processed once their coins are known.
	for len(pending) != 0 {
		var next []int
		for _, i := range pending {
			cs := b.CoinSpends[i]
			id := cs.Coin.ID()
			var (
				rec    asset.Asset
				stored *Record
			)
			if a, ok := created[id]; ok {
				rec = a
			} else {
				r, err := s.record(id)
				if errors.Is(err, ErrCoinNotFound) {
					next = append(next, i)
					continue
				}
				if err != nil {
					return nil, err
				}
				if r.Spent {
					return nil, fmt.Errorf("%w: %s at height %d", ErrCoinSpent, id, r.SpentHeight)
				}
				rec, stored = r.Asset, r
			}
			res, err := s.runSpend(cs, rec)
			if err != nil {
				return nil, fmt.Errorf("coin %s: %w", id, err)
			}
			res.stored = stored
			for _, ch := range res.children {
				chID := ch.AssetCoin().ID()
				if _, ok := created[chID]; ok {
					return nil, fmt.Errorf("%w: %s", ErrDuplicateOutput, chID)
				}
				if _, err := s.record(chID); err == nil {
					return nil, fmt.Errorf("%w: %s", ErrDuplicateOutput, chID)
				} else if !errors.Is(err, ErrCoinNotFound) {
					return nil, err
				}
				created[chID] = ch
			}
			results[i] = res
		}
		if len(next) == len(pending) {
			return nil, fmt.Errorf("%w: %s", ErrCoinNotFound, b.CoinSpends[next[0]].Coin.ID())
		}
		pending = next
	}
	if err := s.checkBundle(results, removals); err != nil {
		return nil, err
	}
	if err := signer.Verify(s.c, b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSignature, err)
	}

	eff := &effects{spends: results}
	for _, res := range results {
		for _, ch := range res.children {
			if _, ok := removals[ch.AssetCoin().ID()]; ok {
				eff.ephemeral++
				continue
			}
			eff.additions = append(eff.additions, ch)
		}
	}
	return eff, nil
}

// runSpend runs the coin puzzle and derives records of its children.
func (s *Simulator) runSpend(cs coin.CoinSpend, rec asset.Asset) (*spendResult, error) {
	cn := cs.Coin
	p, err := puzzle.DecodeProgram(cs.PuzzleReveal)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpend, err)
	}
	if h := p.Hash(); h != cn.PuzzleHash {
		return nil, fmt.Errorf("%w: revealed %s", ErrPuzzleHashMismatch, h)
	}
	l, err := puzzle.Parse(s.c, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpend, err)
	}
	conds, err := puzzle.Run(s.c, cn, p, cs.Solution)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpend, err)
	}
	if rec, err = upgrade(rec, l, conds); err != nil {
		return nil, err
	}
	if asset.PuzzleHash(s.c, rec, p.Innermost().Hash()) != cn.PuzzleHash {
		return nil, fmt.Errorf("%w: puzzle doesn't match %T record", ErrLineage, rec)
	}
	inner, err := puzzle.RunInner(s.c, cn, p, cs.Solution)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpend, err)
	}
	children, err := asset.Children(s.c, rec, inner)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLineage, err)
	}
	var (
		expected = make([]coin.Coin, 0, len(children))
		actual   = make([]coin.Coin, 0, len(children))
	)
	for _, ch := range children {
		expected = append(expected, ch.AssetCoin())
	}
	for _, cond := range conds {
		if cc, ok := cond.(puzzle.CreateCoin); ok {
			actual = append(actual, cn.Child(cc.PuzzleHash, cc.Amount))
		}
	}
	if !sameCoins(expected, actual) {
		return nil, fmt.Errorf("%w: created coins don't match %T record", ErrLineage, rec)
	}
	return &spendResult{rec: rec, conds: conds, children: children}, nil
}

// sameCoins returns true if both lists hold the same coins, the order
// doesn't matter but duplicates do.
func sameCoins(expected, actual []coin.Coin) bool {
	if len(expected) != len(actual) {
		return false
	}
	count := make(map[coin.Coin]int, len(expected))
	for _, c := range expected {
		count[c]++
	}
	for _, c := range actual {
		if count[c] == 0 {
			return false
		}
		count[c]--
	}
	return true
}

// upgrade returns the record of the coin as revealed by its puzzle. Native
// records of coins created by parents unaware of the asset are replaced,
// CATs revealed this way must run their tail.
func upgrade(rec asset.Asset, l *puzzle.Layers, conds []puzzle.Condition) (asset.Asset, error) {
	cn := rec.AssetCoin()
	switch r := rec.(type) {
	case asset.Xch:
		up, err := asset.FromLayers(cn, l)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLineage, err)
		}
		if l.AssetID != nil && !runsTail(conds) {
			return nil, fmt.Errorf("%w: cat %s without parent cat or tail", ErrLineage, l.AssetID)
		}
		return up, nil
	case asset.Cat:
		if l.Underlying == nil {
			return rec, nil
		}
		if l.AssetID == nil || *l.AssetID != r.AssetID {
			return nil, fmt.Errorf("%w: underlying coin of other asset", ErrLineage)
		}
		return asset.FromLayers(cn, l)
	default:
		return rec, nil
	}
}

func runsTail(conds []puzzle.Condition) bool {
	for _, cond := range conds {
		if _, ok := cond.(puzzle.RunTail); ok {
			return true
		}
	}
	return false
}

// class returns the asset id of CAT records, nil for records carrying
// native value.
func class(a asset.Asset) *util.Bytes32 {
	switch v := a.(type) {
	case asset.Cat:
		return &v.AssetID
	case asset.OptionUnderlying:
		return v.AssetID
	default:
		return nil
	}
}

// ledger of value flows of one asset class.
type flow struct {
	in, out, issued, melted uint256.Int
}

// checkBundle checks bundle-wide rules: value conservation and assertions.
func (s *Simulator) checkBundle(results []*spendResult, removals map[util.Bytes32]struct{}) error {
	var (
		native        flow
		fees          uint256.Int
		cats          = make(map[util.Bytes32]*flow)
		announcements = make(map[util.Bytes32]struct{})
		melted        = make(map[util.Bytes32]struct{})
		payments      = make(map[payment]struct{})
		flowOf        = func(id *util.Bytes32) *flow {
			if id == nil {
				return &native
			}
			f, ok := cats[*id]
			if !ok {
				f = new(flow)
				cats[*id] = f
			}
			return f
		}
		add = func(x *uint256.Int, v uint64) {
			x.Add(x, uint256.NewInt(v))
		}
	)
	for _, res := range results {
		var (
			cn = res.rec.AssetCoin()
			id = cn.ID()
		)
		add(&flowOf(class(res.rec)).in, cn.Amount)
		for _, ch := range res.children {
			add(&flowOf(class(ch)).out, ch.Value())
		}
		for _, cond := range res.conds {
			switch v := cond.(type) {
			case puzzle.RunTail:
				f := flowOf(class(res.rec))
				if v.Delta >= 0 {
					add(&f.issued, uint64(v.Delta))
				} else {
					add(&f.melted, uint64(-v.Delta))
				}
			case puzzle.ReserveFee:
				add(&fees, v.Amount)
			case puzzle.CreateCoinAnnouncement:
				announcements[puzzle.AnnouncementID(id, v.Message)] = struct{}{}
			case puzzle.MeltSingleton:
				if lid := asset.ID(res.rec); lid != nil {
					melted[*lid] = struct{}{}
				}
			case puzzle.CreateCoin:
				payments[payment{ph: v.PuzzleHash, amount: v.Amount}] = struct{}{}
			}
		}
	}

	// Supply changes of CATs are paid from (or returned to) native value.
	var issued, meltedValue uint256.Int
	for assetID, f := range cats {
		var in, out uint256.Int
		in.Add(&f.in, &f.issued)
		out.Add(&f.out, &f.melted)
		if !in.Eq(&out) {
			return fmt.Errorf("%w: cat %s has %s in and %s out", ErrConservation, assetID, in.ToBig(), out.ToBig())
		}
		issued.Add(&issued, &f.issued)
		meltedValue.Add(&meltedValue, &f.melted)
	}
	var in, out uint256.Int
	in.Add(&native.in, &meltedValue)
	out.Add(&native.out, &issued)
	if in.Lt(&out) {
		return fmt.Errorf("%w: %s spent, %s created", ErrConservation, in.ToBig(), out.ToBig())
	}
	var fee uint256.Int
	fee.Sub(&in, &out)
	if fee.Lt(&fees) {
		return fmt.Errorf("%w: fee %s is less than reserved %s", ErrConservation, fee.ToBig(), fees.ToBig())
	}

	for _, res := range results {
		for _, cond := range res.conds {
			switch v := cond.(type) {
			case puzzle.AssertCoinAnnouncement:
				if _, ok := announcements[v.ID]; !ok {
					return fmt.Errorf("%w: no announcement %s", ErrAssertion, v.ID)
				}
			case puzzle.AssertConcurrentSpend:
				if _, ok := removals[v.CoinID]; !ok {
					return fmt.Errorf("%w: coin %s is not spent concurrently", ErrAssertion, v.CoinID)
				}
			case puzzle.AssertBeforeSecondsAbsolute:
				if s.timestamp >= v.Seconds {
					return fmt.Errorf("%w: expired at %d, now %d", ErrExercise, v.Seconds, s.timestamp)
				}
			case puzzle.AssertSingletonMelted:
				if _, ok := melted[v.LauncherID]; !ok {
					return fmt.Errorf("%w: singleton %s is not melted", ErrExercise, v.LauncherID)
				}
			case puzzle.AssertPayment:
				if _, ok := payments[payment{ph: v.PuzzleHash, amount: v.Amount}]; !ok {
					return fmt.Errorf("%w: no payment of %d to %s", ErrExercise, v.Amount, v.PuzzleHash)
				}
			}
		}
	}
	return nil
}
