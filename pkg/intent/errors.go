package intent

import (
	"errors"

	"github.com/nspcc-dev/spendkit/pkg/coinselect"
)

var (
	// ErrInsufficientFunds is returned when the coins available don't cover
	// the requirement.
	ErrInsufficientFunds = coinselect.ErrInsufficientFunds
	// ErrUnbalanced is returned when the value of some asset isn't
	// conserved by the spends.
	ErrUnbalanced = errors.New("unbalanced spends")
	// ErrMissingAuthorization is returned when some pending coin has no
	// authorized spend.
	ErrMissingAuthorization = errors.New("missing authorization")
	// ErrUnresolvedID is returned when an action references an asset
	// that is neither bound nor minted earlier in the list.
	ErrUnresolvedID = errors.New("unresolved asset id")
	// ErrWrongState is returned when a stage is called out of order.
	ErrWrongState = errors.New("wrong state")
	// ErrInvalidAction is returned by action validation.
	ErrInvalidAction = errors.New("invalid action")
	// ErrUnknownCoin is returned when an authorization is inserted for a
	// coin that is not pending.
	ErrUnknownCoin = errors.New("unknown coin")
	// ErrWrongPuzzle is returned when an authorized puzzle doesn't hash
	// to the expected inner puzzle hash.
	ErrWrongPuzzle = errors.New("inner puzzle hash mismatch")
	// ErrNoSource is returned when there is no coin to issue an asset or
	// to create a launcher from.
	ErrNoSource = errors.New("no source coin")
	// ErrWrongAssetKind is returned when an action is applied to an asset
	// of the wrong kind (like updating NFT metadata of a CAT).
	ErrWrongAssetKind = errors.New("wrong asset kind")
	// ErrDuplicateCoin is returned when the same coin is added twice.
	ErrDuplicateCoin = errors.New("duplicate coin")
)
