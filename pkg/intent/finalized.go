package intent

import (
	"context"
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// PendingSpend is a coin waiting for authorization: a spend of an inner
// puzzle with P2PuzzleHash hash emitting exactly Conditions.
type PendingSpend struct {
	Coin         coin.Coin
	P2PuzzleHash util.Bytes32
	Conditions   []puzzle.Condition
	Asset        asset.Asset
}

// Authorizer produces an inner puzzle spend emitting the conditions of the
// pending spend.
type Authorizer interface {
	Authorize(ctx context.Context, p PendingSpend) (puzzle.Spend, error)
}

type pending struct {
	it    *item
	spend *puzzle.Spend
}

// Finalized is a set of prepared spends collecting authorizations.
type Finalized struct {
	c       *puzzle.Constants
	state   State
	pending []*pending
	index   map[util.Bytes32]*pending
	locked  []*item
	mints   map[int]mint
}

func newFinalized(s *Spends) *Finalized {
	f := &Finalized{
		c:     s.c,
		state: StateAuthorizing,
		index: make(map[util.Bytes32]*pending),
		mints: s.mints,
	}
	add := func(it *item) {
		if !it.spent() {
			return
		}
		if it.locked {
			f.locked = append(f.locked, it)
			return
		}
		p := &pending{it: it}
		f.pending = append(f.pending, p)
		f.index[it.asset.AssetCoin().ID()] = p
	}
	for _, it := range s.xch {
		add(it)
	}
	for _, id := range s.catOrder {
		for _, it := range s.cats[id] {
			add(it)
		}
	}
	for _, id := range s.singOrder {
		add(s.singletons[id])
	}
	for _, it := range s.launchers {
		add(it)
	}
	return f
}

// State returns the current stage.
func (f *Finalized) State() State {
	return f.state
}

// PendingSpends returns coins waiting for authorization.
func (f *Finalized) PendingSpends() []PendingSpend {
	res := make([]PendingSpend, 0, len(f.pending))
	for _, p := range f.pending {
		res = append(res, PendingSpend{
			Coin:         p.it.asset.AssetCoin(),
			P2PuzzleHash: p.it.asset.P2PuzzleHash(),
			Conditions:   append([]puzzle.Condition(nil), p.it.conds...),
			Asset:        p.it.asset,
		})
	}
	return res
}

// Insert attaches the authorized inner spend to the pending coin, an earlier
// spend of the same coin is replaced.
func (f *Finalized) Insert(coinID util.Bytes32, spend puzzle.Spend) error {
	if f.state != StateAuthorizing {
		return fmt.Errorf("%w: can't insert in %s state", ErrWrongState, f.state)
	}
	p, ok := f.index[coinID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCoin, coinID)
	}
	if spend.Puzzle == nil {
		return fmt.Errorf("%w: no puzzle", ErrWrongPuzzle)
	}
	if h, expected := spend.Puzzle.Hash(), p.it.asset.P2PuzzleHash(); h != expected {
		return fmt.Errorf("%w: %s instead of %s", ErrWrongPuzzle, h, expected)
	}
	p.spend = &spend
	return nil
}

// Authorize authorizes every pending coin with the authorizer.
func (f *Finalized) Authorize(ctx context.Context, a Authorizer) error {
	for _, p := range f.PendingSpends() {
		spend, err := a.Authorize(ctx, p)
		if err != nil {
			return fmt.Errorf("authorizing %s: %w", p.Coin.ID(), err)
		}
		if err := f.Insert(p.Coin.ID(), spend); err != nil {
			return err
		}
	}
	return nil
}

// Spend wraps authorized spends into their asset layers and returns the
// resulting coin spends along with the records of created coins.
func (f *Finalized) Spend() (*Outputs, error) {
	if f.state != StateAuthorizing {
		return nil, fmt.Errorf("%w: can't spend in %s state", ErrWrongState, f.state)
	}
	var missing int
	for _, p := range f.pending {
		if p.spend == nil {
			missing++
		}
	}
	if missing != 0 {
		return nil, fmt.Errorf("%w: %d of %d coins", ErrMissingAuthorization, missing, len(f.pending))
	}

	var (
		spends   = make([]coin.CoinSpend, 0, len(f.pending)+len(f.locked))
		children []asset.Asset
		spent    = make(map[util.Bytes32]struct{})
	)
	for _, p := range f.pending {
		var (
			a    = p.it.asset
			full = a.Puzzle(f.c, p.spend.Puzzle)
		)
		spends = append(spends, coin.NewCoinSpend(a.AssetCoin(), full.Bytes(), p.spend.Solution))
		ch, err := asset.Children(f.c, a, p.it.conds)
		if err != nil {
			return nil, err
		}
		children = append(children, ch...)
		spent[a.AssetCoin().ID()] = struct{}{}
	}
	for _, it := range f.locked {
		var (
			a     = it.asset
			cn    = a.AssetCoin()
			p     = a.Puzzle(f.c, nil)
			sol   = it.solution
			inner = it.conds
		)
		if _, ok := a.(asset.Launcher); ok {
			conds, err := puzzle.Run(f.c, cn, p, sol)
			if err != nil {
				return nil, fmt.Errorf("launcher %s: %w", cn.ID(), err)
			}
			inner = conds
		} else {
			sol = puzzle.EncodeConditions(it.conds)
		}
		spends = append(spends, coin.NewCoinSpend(cn, p.Bytes(), sol))
		ch, err := asset.Children(f.c, a, inner)
		if err != nil {
			return nil, err
		}
		children = append(children, ch...)
		spent[cn.ID()] = struct{}{}
	}
	f.state = StateFinal
	return newOutputs(f.mints, spends, children, spent), nil
}
