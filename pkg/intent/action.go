package intent

import (
	"errors"
	"fmt"
	"math"

	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// MaxRoyaltyBps is the maximum NFT royalty in basis points.
const MaxRoyaltyBps = 10000

// Action is a high-level intent. The set of actions is closed, all of them
// are defined in this package.
type Action interface {
	// Validate checks the action parameters.
	Validate() error

	calculateDelta(d *Deltas, index int)
	refs() []ID
	apply(s *Spends, index int) error
}

type (
	// Send sends Amount of the asset to PuzzleHash. Singletons are sent
	// with their full amount.
	Send struct {
		ID         ID
		PuzzleHash util.Bytes32
		Amount     uint64
		Memos      [][]byte
	}

	// Fee reserves Amount of native value as the transaction fee.
	Fee struct {
		Amount uint64
	}

	// IssueAsset issues a new fungible asset. Nil Tail issues a
	// single-issuance asset bound to the coin it's issued from.
	IssueAsset struct {
		Tail   *puzzle.Program
		Amount uint64
	}

	// ReissueAsset issues more of the existing asset, it requires a tail
	// allowing supply changes.
	ReissueAsset struct {
		ID     ID
		Tail   *puzzle.Program
		Amount uint64
	}

	// MeltAsset destroys Amount of the asset turning it into native value.
	MeltAsset struct {
		ID     ID
		Tail   *puzzle.Program
		Amount uint64
	}

	// MintToken mints an NFT from the native asset or from a DID (Parent),
	// in the latter case the DID becomes the owner of the NFT.
	MintToken struct {
		Parent     ID
		Metadata   puzzle.NftMetadata
		UpdaterPH  util.Bytes32
		RoyaltyPH  util.Bytes32
		RoyaltyBps uint16
		Amount     uint64
	}

	// UpdateToken updates NFT metadata and optionally transfers it to a
	// new owner DID (nil NewOwner with Transfer set clears the owner).
	UpdateToken struct {
		ID              ID
		MetadataUpdates []puzzle.MetadataUpdate
		Transfer        bool
		NewOwner        *util.Bytes32
	}

	// CreateDid creates a new DID.
	CreateDid struct {
		RecoveryListHash *util.Bytes32
		NumVerifications uint64
		Metadata         []byte
		Amount           uint64
	}

	// UpdateDid replaces the DID state.
	UpdateDid struct {
		ID               ID
		RecoveryListHash *util.Bytes32
		NumVerifications uint64
		Metadata         []byte
	}

	// MintOption mints an option contract locking UnderlyingAmount of
	// UnderlyingID which its holder can claim by paying StrikeAmount of
	// StrikeID to CreatorPH before Expiration. Both IDs must be fungible:
	// the native asset or a CAT, New IDs can only point at IssueAsset.
	MintOption struct {
		CreatorPH        util.Bytes32
		Expiration       uint64
		UnderlyingID     ID
		UnderlyingAmount uint64
		StrikeID         ID
		StrikeAmount     uint64
		Amount           uint64
	}

	// ExerciseOption melts the option, pays the strike and claims the
	// underlying value.
	ExerciseOption struct {
		Option asset.Option
	}

	// MeltSingleton destroys a DID or an option turning its amount into
	// native value.
	MeltSingleton struct {
		ID     ID
		Amount uint64
	}
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidAction, fmt.Sprintf(format, args...))
}

func validateSupplyChange(id *ID, tail *puzzle.Program, amount uint64) error {
	if amount == 0 {
		return invalid("zero amount")
	}
	if amount > math.MaxInt64 {
		return invalid("amount %d is too big", amount)
	}
	if id != nil && id.Kind() == KindXch {
		return invalid("native asset has no tail")
	}
	if tail != nil && tail.Inner != nil {
		return invalid("tail can't have inner program")
	}
	return nil
}

func validateSingletonAmount(amount uint64) error {
	if amount%2 == 0 {
		return invalid("singleton amount must be odd, got %d", amount)
	}
	return nil
}

func validateNotXch(id ID) error {
	if id.Kind() == KindXch {
		return invalid("native asset isn't a singleton")
	}
	return nil
}

// Validate implements the Action interface.
func (a Send) Validate() error { return nil }

// Validate implements the Action interface.
func (a Fee) Validate() error { return nil }

// Validate implements the Action interface.
func (a IssueAsset) Validate() error {
	return validateSupplyChange(nil, a.Tail, a.Amount)
}

// Validate implements the Action interface.
func (a ReissueAsset) Validate() error {
	if a.Tail == nil {
		return invalid("no tail")
	}
	return validateSupplyChange(&a.ID, a.Tail, a.Amount)
}

// Validate implements the Action interface.
func (a MeltAsset) Validate() error {
	if a.Tail == nil {
		return invalid("no tail")
	}
	return validateSupplyChange(&a.ID, a.Tail, a.Amount)
}

// Validate implements the Action interface.
func (a MintToken) Validate() error {
	if a.RoyaltyBps > MaxRoyaltyBps {
		return invalid("royalty %d exceeds %d", a.RoyaltyBps, MaxRoyaltyBps)
	}
	return validateSingletonAmount(a.Amount)
}

// Validate implements the Action interface.
func (a UpdateToken) Validate() error {
	if len(a.MetadataUpdates) == 0 && !a.Transfer {
		return invalid("nothing to update")
	}
	for _, u := range a.MetadataUpdates {
		if _, err := (puzzle.NftMetadata{}).Apply(u); err != nil {
			return invalid("%s", err)
		}
	}
	return validateNotXch(a.ID)
}

// Validate implements the Action interface.
func (a CreateDid) Validate() error {
	return validateSingletonAmount(a.Amount)
}

// Validate implements the Action interface.
func (a UpdateDid) Validate() error {
	return validateNotXch(a.ID)
}

// Validate implements the Action interface.
func (a MintOption) Validate() error {
	if a.UnderlyingAmount == 0 {
		return invalid("zero underlying amount")
	}
	if a.Expiration == 0 {
		return invalid("no expiration")
	}
	return validateSingletonAmount(a.Amount)
}

// Validate implements the Action interface.
func (a ExerciseOption) Validate() error {
	if a.Option.Terms.LauncherID != a.Option.LauncherID {
		return invalid("option terms belong to %s", a.Option.Terms.LauncherID)
	}
	if a.Option.State.UnderlyingCoinID != a.Option.Underlying.Coin.ID() {
		return invalid("underlying coin doesn't match the option")
	}
	return validateSingletonAmount(a.Option.Coin.Amount)
}

// Validate implements the Action interface.
func (a MeltSingleton) Validate() error {
	if err := validateNotXch(a.ID); err != nil {
		return err
	}
	return validateSingletonAmount(a.Amount)
}

// ID returns the asset ID of the exercised option.
func (a ExerciseOption) ID() ID {
	return Existing(a.Option.LauncherID)
}

// StrikeID returns the ID of the asset the strike is paid in.
func (a ExerciseOption) StrikeID() ID {
	if a.Option.Terms.StrikeAssetID == nil {
		return Xch
	}
	return Existing(*a.Option.Terms.StrikeAssetID)
}

// UnderlyingID returns the ID of the underlying asset.
func (a ExerciseOption) UnderlyingID() ID {
	if a.Option.Underlying.AssetID == nil {
		return Xch
	}
	return Existing(*a.Option.Underlying.AssetID)
}

func (a Send) calculateDelta(d *Deltas, _ int) {
	d.addOutput(a.ID, a.Amount)
	d.setNeeded(a.ID)
}

func (a Fee) calculateDelta(d *Deltas, _ int) {
	d.addOutput(Xch, a.Amount)
}

func (a IssueAsset) calculateDelta(d *Deltas, index int) {
	d.addOutput(Xch, a.Amount)
	d.addInput(New(index), a.Amount)
	d.setNeeded(Xch)
}

func (a ReissueAsset) calculateDelta(d *Deltas, _ int) {
	d.addOutput(Xch, a.Amount)
	d.addInput(a.ID, a.Amount)
	d.setNeeded(a.ID)
}

func (a MeltAsset) calculateDelta(d *Deltas, _ int) {
	d.addOutput(a.ID, a.Amount)
	d.addInput(Xch, a.Amount)
	d.setNeeded(Xch)
}

func (a MintToken) calculateDelta(d *Deltas, index int) {
	d.addOutput(Xch, a.Amount)
	d.addInput(New(index), a.Amount)
	if a.Parent.Kind() == KindXch {
		d.setNeeded(Xch)
		return
	}
	d.addInput(a.Parent, 1)
	d.addOutput(a.Parent, 1)
	d.setNeeded(a.Parent)
}

func (a UpdateToken) calculateDelta(d *Deltas, _ int) {
	d.setNeeded(a.ID)
}

func (a CreateDid) calculateDelta(d *Deltas, index int) {
	d.addOutput(Xch, a.Amount)
	d.addInput(New(index), a.Amount)
	d.setNeeded(Xch)
}

func (a UpdateDid) calculateDelta(d *Deltas, _ int) {
	d.setNeeded(a.ID)
}

func (a MintOption) calculateDelta(d *Deltas, index int) {
	d.addOutput(Xch, a.Amount)
	d.addInput(New(index), a.Amount)
	d.addOutput(a.UnderlyingID, a.UnderlyingAmount)
	d.setNeeded(Xch)
	d.setNeeded(a.UnderlyingID)
}

func (a ExerciseOption) calculateDelta(d *Deltas, _ int) {
	d.addOutput(a.ID(), a.Option.Coin.Amount)
	d.addInput(Xch, a.Option.Coin.Amount)
	d.addOutput(a.StrikeID(), a.Option.Terms.StrikeAmount)
	d.addInput(a.UnderlyingID(), a.Option.Underlying.Coin.Amount)
	d.setNeeded(a.StrikeID())
}

func (a MeltSingleton) calculateDelta(d *Deltas, _ int) {
	d.addOutput(a.ID, a.Amount)
	d.addInput(Xch, a.Amount)
}

func (a Send) refs() []ID           { return []ID{a.ID} }
func (a Fee) refs() []ID            { return nil }
func (a IssueAsset) refs() []ID     { return nil }
func (a ReissueAsset) refs() []ID   { return []ID{a.ID} }
func (a MeltAsset) refs() []ID      { return []ID{a.ID} }
func (a MintToken) refs() []ID      { return []ID{a.Parent} }
func (a UpdateToken) refs() []ID    { return []ID{a.ID} }
func (a CreateDid) refs() []ID      { return nil }
func (a UpdateDid) refs() []ID      { return []ID{a.ID} }
func (a MintOption) refs() []ID     { return []ID{a.UnderlyingID, a.StrikeID} }
func (a ExerciseOption) refs() []ID { return nil }
func (a MeltSingleton) refs() []ID  { return []ID{a.ID} }

func isMint(a Action) bool {
	switch a.(type) {
	case IssueAsset, MintToken, CreateDid, MintOption:
		return true
	case Send, Fee, ReissueAsset, MeltAsset, UpdateToken, UpdateDid, ExerciseOption, MeltSingleton:
		return false
	default:
		panic(fmt.Sprintf("unknown action %T", a))
	}
}

// validateActions validates every action and checks New IDs reference
// minting actions preceding them.
func validateActions(actions []Action) error {
	for i, a := range actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("action %d (%T): %w", i, a, err)
		}
		for _, id := range a.refs() {
			if id.Kind() != KindNew {
				continue
			}
			if j := id.Index(); j < 0 || j >= i || !isMint(actions[j]) {
				return fmt.Errorf("action %d (%T): %w", i, a,
					errors.Join(ErrInvalidAction, fmt.Errorf("%w: %s", ErrUnresolvedID, id)))
			}
		}
	}
	return nil
}
