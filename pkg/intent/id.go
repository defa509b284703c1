package intent

import (
	"fmt"

	"github.com/nspcc-dev/spendkit/pkg/util"
)

// IDKind is the kind of ID.
type IDKind byte

// ID kinds.
const (
	KindXch IDKind = iota
	KindExisting
	KindNew
)

// ID identifies an asset within an action list: the native asset, an
// existing asset (CAT asset id or singleton launcher id) or an asset minted
// by the action with the given index of the same list. IDs are comparable
// and can be used as map keys.
type ID struct {
	kind  IDKind
	asset util.Bytes32
	index int
}

// Xch is the native asset ID.
var Xch = ID{kind: KindXch}

// Existing returns the ID of an existing asset.
func Existing(assetID util.Bytes32) ID {
	return ID{kind: KindExisting, asset: assetID}
}

// New returns the ID of the asset minted by the action at the given index.
func New(index int) ID {
	return ID{kind: KindNew, index: index}
}

// Kind returns the kind of ID.
func (id ID) Kind() IDKind {
	return id.kind
}

// AssetID returns the asset id of Existing ID.
func (id ID) AssetID() util.Bytes32 {
	return id.asset
}

// Index returns the action index of New ID.
func (id ID) Index() int {
	return id.index
}

// String implements the fmt.Stringer interface.
func (id ID) String() string {
	switch id.kind {
	case KindXch:
		return "xch"
	case KindExisting:
		return id.asset.String()
	case KindNew:
		return fmt.Sprintf("new(%d)", id.index)
	default:
		panic("unknown id kind")
	}
}
