/*
Package custody provides authorizers for pending spends.
*/
package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nspcc-dev/spendkit/pkg/crypto/keys"
	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// ErrUnknownOwner is returned when there is no key for the inner puzzle hash
// of the pending spend.
var ErrUnknownOwner = errors.New("unknown owner")

// Standard authorizes spends of coins locked by the standard single-key
// puzzle. The solution is the list of conditions, the puzzle requires a
// signature over it.
type Standard struct {
	c *puzzle.Constants

	lock sync.RWMutex
	keys map[util.Bytes32]*keys.PublicKey
}

// NewStandard returns an authorizer for the given keys.
func NewStandard(c *puzzle.Constants, pubs ...*keys.PublicKey) *Standard {
	s := &Standard{c: c, keys: make(map[util.Bytes32]*keys.PublicKey)}
	for _, p := range pubs {
		s.AddKey(p)
	}
	return s
}

// AddKey adds the key and returns the puzzle hash it controls.
func (s *Standard) AddKey(pub *keys.PublicKey) util.Bytes32 {
	ph := PuzzleHash(s.c, pub)
	s.lock.Lock()
	s.keys[ph] = pub
	s.lock.Unlock()
	return ph
}

// PuzzleHash returns the standard puzzle hash of the key.
func PuzzleHash(c *puzzle.Constants, pub *keys.PublicKey) util.Bytes32 {
	return puzzle.StandardPuzzleHash(c, pub.Bytes())
}

// Authorize implements the intent.Authorizer interface.
func (s *Standard) Authorize(_ context.Context, p intent.PendingSpend) (puzzle.Spend, error) {
	s.lock.RLock()
	pub, ok := s.keys[p.P2PuzzleHash]
	s.lock.RUnlock()
	if !ok {
		return puzzle.Spend{}, fmt.Errorf("%w: %s", ErrUnknownOwner, p.P2PuzzleHash)
	}
	return puzzle.NewSpend(puzzle.StandardPuzzle(s.c, pub.Bytes()), puzzle.EncodeConditions(p.Conditions)), nil
}
