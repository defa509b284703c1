package intent

import (
	"github.com/holiman/uint256"
)

// Delta is the value flow of one asset caused by an action list. Input is
// the value actions bring in (like minted amounts), Output is the value
// they spend.
type Delta struct {
	Input  uint256.Int
	Output uint256.Int
	// Needed is set when some action requires a coin of the asset to be
	// spent even if no value is required.
	Needed bool
}

// Required returns the amount of the asset that must be provided by bound
// coins: max(Output - Input, 0), or 1 if that's zero but a coin is needed.
func (d *Delta) Required() *uint256.Int {
	res := new(uint256.Int)
	if d.Output.Gt(&d.Input) {
		res.Sub(&d.Output, &d.Input)
	}
	if res.IsZero() && d.Needed {
		res.SetOne()
	}
	return res
}

// Deltas is an insertion-ordered set of deltas per ID.
type Deltas struct {
	order []ID
	items map[ID]*Delta
}

// NewDeltas returns an empty Deltas.
func NewDeltas() *Deltas {
	return &Deltas{items: make(map[ID]*Delta)}
}

// FromActions folds the actions into deltas. Indexes of actions in the list
// are used for New IDs.
func FromActions(actions []Action) *Deltas {
	d := NewDeltas()
	for i, a := range actions {
		a.calculateDelta(d, i)
	}
	return d
}

// Update returns the delta of the ID creating it if needed.
func (d *Deltas) Update(id ID) *Delta {
	if v, ok := d.items[id]; ok {
		return v
	}
	v := new(Delta)
	d.items[id] = v
	d.order = append(d.order, id)
	return v
}

// Get returns the delta of the ID.
func (d *Deltas) Get(id ID) (*Delta, bool) {
	v, ok := d.items[id]
	return v, ok
}

// IDs returns all IDs in the order of their first appearance.
func (d *Deltas) IDs() []ID {
	return append([]ID(nil), d.order...)
}

// Len returns the number of IDs.
func (d *Deltas) Len() int {
	return len(d.order)
}

func (d *Deltas) addInput(id ID, amount uint64) {
	v := d.Update(id)
	v.Input.Add(&v.Input, uint256.NewInt(amount))
}

func (d *Deltas) addOutput(id ID, amount uint64) {
	v := d.Update(id)
	v.Output.Add(&v.Output, uint256.NewInt(amount))
}

func (d *Deltas) setNeeded(id ID) {
	d.Update(id).Needed = true
}
