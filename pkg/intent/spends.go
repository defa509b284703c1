package intent

import (
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// State is the stage of the spend building.
type State byte

// Builder stages.
const (
	StateEmpty State = iota
	StateBound
	StateApplied
	StatePrepared
	StateAuthorizing
	StateFinal
	stateBroken
)

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateBound:
		return "bound"
	case StateApplied:
		return "applied"
	case StatePrepared:
		return "prepared"
	case StateAuthorizing:
		return "authorizing"
	case StateFinal:
		return "final"
	case stateBroken:
		return "broken"
	default:
		return fmt.Sprintf("state(%d)", byte(s))
	}
}

// Relation is the way spends of the same asset are tied together.
type Relation byte

const (
	// RelationNone doesn't tie spends.
	RelationNone Relation = iota
	// RelationAssertConcurrent makes secondary spends of an asset assert
	// the primary one is spent in the same bundle.
	RelationAssertConcurrent
)

// SpendsOption is an optional Spends parameter.
type SpendsOption func(*Spends)

// WithRelation sets the relation between spends of the same asset.
func WithRelation(r Relation) SpendsOption {
	return func(s *Spends) {
		s.relation = r
	}
}

// item is a coin to spend along with the conditions its inner puzzle must
// emit.
type item struct {
	asset asset.Asset
	conds []puzzle.Condition
	// ephemeral items are created in the same bundle, their value is
	// accounted for in deltas.
	ephemeral bool
	// locked items are spent by the core itself, they have no custody.
	locked bool
	// intermediate items carry outputs their parent can't create.
	intermediate bool
	// solution of locked launchers.
	solution []byte

	issued   bool
	nonce    uint64
	tail     *puzzle.Program
	tailDiff int64

	// Singleton destination.
	touched bool
	melt    bool
	dest    *puzzle.CreateCoin
}

// intermediateAmount is the amount of coins created to carry outputs their
// parent can't create.
const intermediateAmount = 1

// allows returns false if the item already creates a coin with the same
// puzzle hash and amount, the second one would have the same ID.
func (it *item) allows(ph util.Bytes32, amount uint64) bool {
	for _, cond := range it.conds {
		if cc, ok := cond.(puzzle.CreateCoin); ok && cc.PuzzleHash == ph && cc.Amount == amount {
			return false
		}
	}
	return true
}

type mint struct {
	id    ID
	conds []puzzle.Condition
}

// Spends builds spends of coins implementing an action list. Coins are
// added first (Add), then actions are applied (Apply), then the spends are
// prepared for authorization (Prepare). Spends is not thread safe.
type Spends struct {
	c        *puzzle.Constants
	changePH util.Bytes32
	relation Relation
	state    State

	coins      map[util.Bytes32]struct{}
	xch        []*item
	catOrder   []ID
	cats       map[ID][]*item
	singOrder  []ID
	singletons map[ID]*item
	launchers  []*item
	mints      map[int]mint
}

// NewSpends returns a builder sending change to changePH.
func NewSpends(c *puzzle.Constants, changePH util.Bytes32, opts ...SpendsOption) *Spends {
	s := &Spends{
		c:          c,
		changePH:   changePH,
		coins:      make(map[util.Bytes32]struct{}),
		cats:       make(map[ID][]*item),
		singletons: make(map[ID]*item),
		mints:      make(map[int]mint),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current stage of the builder.
func (s *Spends) State() State {
	return s.state
}

// Add binds the asset coin to the builder, the coin will be spent.
func (s *Spends) Add(a asset.Asset) error {
	if s.state != StateEmpty && s.state != StateBound {
		return fmt.Errorf("%w: can't add coins in %s state", ErrWrongState, s.state)
	}
	switch a.(type) {
	case asset.Xch, asset.Cat, asset.Nft, asset.Did, asset.Option:
	default:
		return fmt.Errorf("%w: %T can't be added", ErrWrongAssetKind, a)
	}
	if err := s.bind(&item{asset: a}); err != nil {
		return err
	}
	s.state = StateBound
	return nil
}

func (s *Spends) bind(it *item) error {
	id := it.asset.AssetCoin().ID()
	if _, ok := s.coins[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCoin, id)
	}
	switch a := it.asset.(type) {
	case asset.Xch:
		s.xch = append(s.xch, it)
	case asset.Cat:
		s.addCat(Existing(a.AssetID), it)
	case asset.OptionUnderlying:
		if a.AssetID == nil {
			s.xch = append(s.xch, it)
		} else {
			s.addCat(Existing(*a.AssetID), it)
		}
	case asset.Nft, asset.Did, asset.Option:
		key := Existing(*asset.ID(a))
		if _, ok := s.singletons[key]; ok {
			return fmt.Errorf("%w: singleton %s is already bound", ErrDuplicateCoin, key)
		}
		s.singOrder = append(s.singOrder, key)
		s.singletons[key] = it
	case asset.Launcher:
		s.launchers = append(s.launchers, it)
	default:
		panic(fmt.Sprintf("unknown asset type %T", a))
	}
	s.coins[id] = struct{}{}
	return nil
}

func (s *Spends) addCat(id ID, it *item) {
	if _, ok := s.cats[id]; !ok {
		s.catOrder = append(s.catOrder, id)
	}
	s.cats[id] = append(s.cats[id], it)
}

// Apply applies the actions to the bound coins and returns the deltas of
// the action list. The builder can't be used after a failure.
func (s *Spends) Apply(actions []Action) (*Deltas, error) {
	if s.state != StateEmpty && s.state != StateBound {
		return nil, fmt.Errorf("%w: can't apply actions in %s state", ErrWrongState, s.state)
	}
	if err := validateActions(actions); err != nil {
		return nil, err
	}
	for i, a := range actions {
		if err := a.apply(s, i); err != nil {
			s.state = stateBroken
			return nil, fmt.Errorf("action %d (%T): %w", i, a, err)
		}
	}
	s.state = StateApplied
	return FromActions(actions), nil
}

// resolve maps New IDs to the IDs of minted assets.
func (s *Spends) resolve(id ID) (ID, error) {
	switch id.Kind() {
	case KindXch, KindExisting:
		return id, nil
	case KindNew:
		m, ok := s.mints[id.Index()]
		if !ok {
			return id, fmt.Errorf("%w: %s", ErrUnresolvedID, id)
		}
		return m.id, nil
	default:
		panic("unknown id kind")
	}
}

// fungible returns items of the fungible asset.
func (s *Spends) fungible(id ID) ([]*item, error) {
	id, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	var items []*item
	switch id.Kind() {
	case KindXch:
		items = s.xch
	case KindExisting:
		if _, ok := s.singletons[id]; ok {
			return nil, fmt.Errorf("%w: %s is a singleton", ErrWrongAssetKind, id)
		}
		items = s.cats[id]
	}
	if len(items) == 0 {
		if id.Kind() == KindXch {
			return nil, fmt.Errorf("%w: no native coins", ErrNoSource)
		}
		return nil, fmt.Errorf("%w: no coins of %s", ErrUnresolvedID, id)
	}
	return items, nil
}

// primary returns the first item of the fungible asset.
func (s *Spends) primary(id ID) (*item, error) {
	items, err := s.fungible(id)
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// output returns the item of the fungible asset to create the coin from:
// the first one that doesn't create the same coin yet or a new
// intermediate one.
func (s *Spends) output(id ID, ph util.Bytes32, amount uint64) (*item, error) {
	items, err := s.fungible(id)
	if err != nil {
		return nil, err
	}
	return s.outputOf(items, ph, amount)
}

func (s *Spends) outputOf(items []*item, ph util.Bytes32, amount uint64) (*item, error) {
	for _, it := range items {
		if it.allows(ph, amount) {
			return it, nil
		}
	}
	return s.intermediate(items)
}

// intermediate creates a coin of intermediateAmount for the change puzzle
// hash from the first item that can create it and binds the coin as an
// ephemeral item of the same asset.
func (s *Spends) intermediate(items []*item) (*item, error) {
	for _, src := range items {
		if !src.allows(s.changePH, intermediateAmount) {
			continue
		}
		cc := puzzle.CreateCoin{PuzzleHash: s.changePH, Amount: intermediateAmount}
		children, err := asset.Children(s.c, src.asset, []puzzle.Condition{cc})
		if err != nil {
			return nil, err
		}
		it := &item{asset: children[0], ephemeral: true, intermediate: true}
		if err := s.bind(it); err != nil {
			return nil, err
		}
		src.conds = append(src.conds, cc)
		return it, nil
	}
	return nil, fmt.Errorf("%w: no coin to create an intermediate coin from", ErrNoSource)
}

// singleton returns the item of the singleton.
func (s *Spends) singleton(id ID) (*item, error) {
	id, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	it, ok := s.singletons[id]
	if !ok {
		if _, ok := s.cats[id]; ok {
			return nil, fmt.Errorf("%w: %s is not a singleton", ErrWrongAssetKind, id)
		}
		return nil, fmt.Errorf("%w: no singleton %s", ErrUnresolvedID, id)
	}
	return it, nil
}

// source returns the native item launchers and issuances are created from.
func (s *Spends) source() (*item, error) {
	for _, it := range s.xch {
		if !it.locked && !it.ephemeral {
			return it, nil
		}
	}
	return nil, fmt.Errorf("%w: no native coins", ErrNoSource)
}

func (s *Spends) addMint(index int, id ID, conds ...puzzle.Condition) {
	s.mints[index] = mint{id: id, conds: conds}
}

// launch creates a launcher coin spent by parent and binds the eve singleton
// built by eve from the launcher id. It returns the resulting ID and the
// condition creating the launcher.
func (s *Spends) launch(parent *item, amount uint64, eve func(launcherID util.Bytes32) asset.Asset) (ID, puzzle.Condition, error) {
	var (
		nonce = parent.nonce
		ph    = puzzle.LauncherPuzzleHash(s.c, nonce)
		l     = asset.Launcher{Coin: parent.asset.AssetCoin().Child(ph, amount), Nonce: nonce}
		id    = l.Coin.ID()
		e     = asset.Eve(s.c, l.Coin, eve(id))
		eveCC = e.AssetCoin()
		sol   = puzzle.LauncherSolution{SingletonPuzzleHash: eveCC.PuzzleHash, Amount: amount, Info: asset.EncodeInfo(e)}
		cc    = puzzle.CreateCoin{PuzzleHash: ph, Amount: amount}
	)
	parent.nonce++
	if err := s.bind(&item{asset: l, locked: true, ephemeral: true, solution: sol.Bytes()}); err != nil {
		return ID{}, nil, err
	}
	if err := s.bind(&item{asset: e, ephemeral: true}); err != nil {
		return ID{}, nil, err
	}
	parent.conds = append(parent.conds, cc)
	return Existing(id), cc, nil
}
