package simulator

import "errors"

// Bundle validation errors.
var (
	// ErrCoinNotFound is returned for spends of coins the ledger doesn't
	// have and the bundle doesn't create.
	ErrCoinNotFound = errors.New("coin not found")
	// ErrCoinSpent is returned for spends of already spent coins and for
	// coins spent twice in one bundle.
	ErrCoinSpent = errors.New("coin is already spent")
	// ErrPuzzleHashMismatch is returned when the revealed puzzle doesn't
	// hash to the coin puzzle hash.
	ErrPuzzleHashMismatch = errors.New("puzzle hash mismatch")
	// ErrBadSignature is returned when bundle signatures don't match the
	// signatures its spends require.
	ErrBadSignature = errors.New("bad signature")
	// ErrConservation is returned when the bundle creates more value than
	// it spends.
	ErrConservation = errors.New("value is not conserved")
	// ErrLineage is returned when a spent coin can't prove it's the asset
	// its puzzle claims.
	ErrLineage = errors.New("invalid lineage")
	// ErrDuplicateOutput is returned when the bundle creates a coin that
	// already exists.
	ErrDuplicateOutput = errors.New("duplicate output")
	// ErrExercise is returned when an option underlying coin is spent
	// without melting the option and paying the strike.
	ErrExercise = errors.New("invalid option exercise")
	// ErrAssertion is returned when an assertion condition fails.
	ErrAssertion = errors.New("assertion failed")
	// ErrInvalidSpend is returned for spends the puzzle refuses to run.
	ErrInvalidSpend = errors.New("invalid spend")
	// ErrEmptyBundle is returned for bundles without spends.
	ErrEmptyBundle = errors.New("empty bundle")
)
