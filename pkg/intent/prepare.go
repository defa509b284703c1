package intent

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
)

// Prepare balances every asset of the applied builder: it adds change,
// recreates, sends or melts singletons and returns spends pending
// authorization. The builder is consumed by Prepare whether it succeeds or
// not.
func (s *Spends) Prepare(deltas *Deltas) (*Finalized, error) {
	if s.state != StateApplied {
		return nil, fmt.Errorf("%w: can't prepare in %s state", ErrWrongState, s.state)
	}
	s.state = StatePrepared

	totals, order, err := s.resolveDeltas(deltas)
	if err != nil {
		return nil, err
	}
	var xchDelta *Delta
	for _, id := range order {
		d := totals[id]
		switch {
		case id == Xch:
			xchDelta = d
		case s.singletons[id] != nil:
			err = s.prepareSingleton(id, s.singletons[id], d)
		default:
			var change *uint256.Int
			if change, err = s.prepareFungible(id, s.cats[id], d); err == nil && change != nil {
				err = fmt.Errorf("%w: no coin of %s to create change", ErrUnbalanced, id)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if xchDelta != nil {
		if err := s.prepareXch(xchDelta); err != nil {
			return nil, err
		}
	}
	s.tieSpends()
	for _, id := range s.catOrder {
		for _, it := range s.cats[id] {
			if it.tail != nil {
				it.conds = append(it.conds, puzzle.RunTail{Tail: it.tail, Solution: []byte{}, Delta: it.tailDiff})
			}
		}
	}
	return newFinalized(s), nil
}

// resolveDeltas maps the deltas to resolved IDs adding IDs of coins bound
// but never referenced by actions.
func (s *Spends) resolveDeltas(deltas *Deltas) (map[ID]*Delta, []ID, error) {
	var (
		totals = make(map[ID]*Delta)
		order  []ID
		get    = func(id ID) *Delta {
			d, ok := totals[id]
			if !ok {
				d = new(Delta)
				totals[id] = d
				order = append(order, id)
			}
			return d
		}
	)
	for _, id := range deltas.IDs() {
		rid, err := s.resolve(id)
		if err != nil {
			return nil, nil, err
		}
		src, _ := deltas.Get(id)
		d := get(rid)
		d.Input.Add(&d.Input, &src.Input)
		d.Output.Add(&d.Output, &src.Output)
		d.Needed = d.Needed || src.Needed
	}
	if len(s.xch) != 0 {
		get(Xch)
	}
	for _, id := range s.catOrder {
		get(id)
	}
	for _, id := range s.singOrder {
		get(id)
	}
	return totals, order, nil
}

func balance(id ID, bound, input, output *uint256.Int) (*uint256.Int, error) {
	available := new(uint256.Int).Add(bound, input)
	if available.Lt(output) {
		return nil, fmt.Errorf("%w: %s needs %s, %s available", ErrUnbalanced, id, output.ToBig(), available.ToBig())
	}
	return available.Sub(available, output), nil
}

// prepareFungible adds change to the primary item of the asset. It returns
// the change it couldn't place because no coin of the asset is spent.
func (s *Spends) prepareFungible(id ID, items []*item, d *Delta) (*uint256.Int, error) {
	bound := new(uint256.Int)
	for _, it := range items {
		if !it.ephemeral {
			bound.Add(bound, uint256.NewInt(it.asset.Value()))
		}
	}
	change, err := balance(id, bound, &d.Input, &d.Output)
	if err != nil {
		return nil, err
	}
	if change.IsZero() {
		return nil, nil
	}
	if !change.IsUint64() {
		return nil, fmt.Errorf("%w: %s change %s overflows coin amount", ErrUnbalanced, id, change.ToBig())
	}
	if len(items) == 0 {
		return change, nil
	}
	it, err := s.outputOf(items, s.changePH, change.Uint64())
	if err != nil {
		return nil, err
	}
	it.conds = append(it.conds, puzzle.CreateCoin{PuzzleHash: s.changePH, Amount: change.Uint64()})
	return nil, nil
}

// prepareXch adds native change. Without native coins bound the change can
// only come from melted singletons, it's created by the first of them.
func (s *Spends) prepareXch(d *Delta) error {
	change, err := s.prepareFungible(Xch, s.xch, d)
	if err != nil || change == nil {
		return err
	}
	for _, id := range s.singOrder {
		if it := s.singletons[id]; it.melt {
			it.conds = append(it.conds, puzzle.CreateCoin{PuzzleHash: s.changePH, Amount: change.Uint64()})
			return nil
		}
	}
	return fmt.Errorf("%w: no coin to create %s native change", ErrUnbalanced, change.ToBig())
}

// prepareSingleton decides the fate of the singleton: the remaining value
// must be either its amount (it's recreated for the owner) or zero (it's
// sent or melted).
func (s *Spends) prepareSingleton(id ID, it *item, d *Delta) error {
	var (
		amount = it.asset.Value()
		bound  = new(uint256.Int)
	)
	if !it.ephemeral {
		bound.SetUint64(amount)
		it.touched = true
	}
	rest, err := balance(id, bound, &d.Input, &d.Output)
	if err != nil {
		return err
	}
	var child puzzle.Condition
	switch {
	case rest.Eq(uint256.NewInt(amount)) && it.dest == nil && !it.melt:
		child = puzzle.CreateCoin{PuzzleHash: it.asset.P2PuzzleHash(), Amount: amount}
	case rest.IsZero() && it.melt && it.dest == nil:
		child = puzzle.MeltSingleton{}
	case rest.IsZero() && it.dest != nil && !it.melt:
		child = puzzle.CreateCoin{PuzzleHash: it.dest.PuzzleHash, Amount: amount, Memos: it.dest.Memos}
	default:
		return fmt.Errorf("%w: singleton %s of %d has %s left (sent: %t, melted: %t)",
			ErrUnbalanced, id, amount, rest.ToBig(), it.dest != nil, it.melt)
	}
	it.conds = append([]puzzle.Condition{child}, it.conds...)
	return nil
}

// tieSpends adds relation conditions to secondary spends of every fungible
// asset.
func (s *Spends) tieSpends() {
	if s.relation != RelationAssertConcurrent {
		return
	}
	tie := func(items []*item) {
		for _, it := range items[min(1, len(items)):] {
			it.conds = append(it.conds, puzzle.AssertConcurrentSpend{CoinID: items[0].asset.AssetCoin().ID()})
		}
	}
	tie(s.xch)
	for _, id := range s.catOrder {
		tie(s.cats[id])
	}
}

// spent returns true if the item is spent in the bundle.
func (it *item) spent() bool {
	if asset.IsSingleton(it.asset) {
		return it.touched
	}
	return true
}
