/*
Package coinselect implements coin selection: picking a subset of candidate
coins covering the required amount.
*/
package coinselect

import (
	"errors"
	"fmt"
	"slices"

	"github.com/holiman/uint256"
)

// ErrInsufficientFunds is returned when the candidates don't cover the
// required amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Valued is anything with an amount.
type Valued interface {
	Value() uint64
}

// Sum returns the total value of the items.
func Sum[T Valued](items []T) *uint256.Int {
	total := new(uint256.Int)
	for _, it := range items {
		total.Add(total, uint256.NewInt(it.Value()))
	}
	return total
}

// Select returns the shortest prefix of candidates sorted by value
// (descending, ties keep the original order) covering the required amount.
// Candidates are not modified. Nothing is selected for zero requirement.
func Select[T Valued](candidates []T, required *uint256.Int) ([]T, error) {
	if total := Sum(candidates); total.Lt(required) {
		return nil, fmt.Errorf("%w: %s required, %s available", ErrInsufficientFunds, required.ToBig(), total.ToBig())
	}
	if required.IsZero() {
		return nil, nil
	}
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b T) int {
		switch va, vb := a.Value(), b.Value(); {
		case va > vb:
			return -1
		case va < vb:
			return 1
		default:
			return 0
		}
	})
	acc := new(uint256.Int)
	for i, c := range sorted {
		acc.Add(acc, uint256.NewInt(c.Value()))
		if !acc.Lt(required) {
			return sorted[:i+1], nil
		}
	}
	// Unreachable, the total covers the requirement.
	return nil, ErrInsufficientFunds
}
