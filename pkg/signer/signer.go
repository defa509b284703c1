/*
Package signer computes signatures required by coin spends and signs them.
*/
package signer

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/crypto/keys"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// ErrMissingKey is returned when there is no private key for a required
// signature.
var ErrMissingKey = errors.New("missing key")

// RequiredSignature is a signature of Message by PublicKey required by the
// spend of the coin.
type RequiredSignature struct {
	CoinID    util.Bytes32
	PublicKey []byte
	Message   []byte
}

// KeyStore provides private keys by their public keys.
type KeyStore interface {
	PrivateKey(pub []byte) (*keys.PrivateKey, bool)
}

// KeyRing is an in-memory KeyStore.
type KeyRing struct {
	lock sync.RWMutex
	keys map[string]*keys.PrivateKey
}

// NewKeyRing returns a KeyRing holding the keys.
func NewKeyRing(privs ...*keys.PrivateKey) *KeyRing {
	r := &KeyRing{keys: make(map[string]*keys.PrivateKey)}
	for _, p := range privs {
		r.Add(p)
	}
	return r
}

// Add adds the key to the ring.
func (r *KeyRing) Add(p *keys.PrivateKey) {
	r.lock.Lock()
	r.keys[hex.EncodeToString(p.PublicKey().Bytes())] = p
	r.lock.Unlock()
}

// PrivateKey implements the KeyStore interface.
func (r *KeyRing) PrivateKey(pub []byte) (*keys.PrivateKey, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	p, ok := r.keys[hex.EncodeToString(pub)]
	return p, ok
}

// Message returns the full message signed for AGG_SIG_ME of the coin.
func Message(c *puzzle.Constants, coinID util.Bytes32, msg []byte) []byte {
	res := make([]byte, 0, len(msg)+2*util.Bytes32Size)
	res = append(res, msg...)
	res = append(res, coinID[:]...)
	return append(res, c.AggSigMeExtraData[:]...)
}

// RequiredSignatures runs every puzzle and returns AGG_SIG_ME signatures its
// conditions require, in the order of spends.
func RequiredSignatures(c *puzzle.Constants, spends []coin.CoinSpend) ([]RequiredSignature, error) {
	var res []RequiredSignature
	for _, cs := range spends {
		id := cs.Coin.ID()
		p, err := puzzle.DecodeProgram(cs.PuzzleReveal)
		if err != nil {
			return nil, fmt.Errorf("coin %s: %w", id, err)
		}
		conds, err := puzzle.Run(c, cs.Coin, p, cs.Solution)
		if err != nil {
			return nil, fmt.Errorf("coin %s: %w", id, err)
		}
		for _, cond := range conds {
			if agg, ok := cond.(puzzle.AggSigMe); ok {
				res = append(res, RequiredSignature{
					CoinID:    id,
					PublicKey: agg.PublicKey,
					Message:   Message(c, id, agg.Message),
				})
			}
		}
	}
	return res, nil
}

// SignBundle signs the spends with keys from the store and returns the
// bundle. Signatures follow the order of RequiredSignatures.
func SignBundle(c *puzzle.Constants, ks KeyStore, spends []coin.CoinSpend) (*coin.SpendBundle, error) {
	required, err := RequiredSignatures(c, spends)
	if err != nil {
		return nil, err
	}
	b := &coin.SpendBundle{CoinSpends: spends}
	for _, r := range required {
		priv, ok := ks.PrivateKey(r.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: %x for coin %s", ErrMissingKey, r.PublicKey, r.CoinID)
		}
		b.Signatures = append(b.Signatures, priv.Sign(r.Message))
	}
	return b, nil
}

// Verify checks the bundle signatures against the signatures its spends
// require.
func Verify(c *puzzle.Constants, b *coin.SpendBundle) error {
	required, err := RequiredSignatures(c, b.CoinSpends)
	if err != nil {
		return err
	}
	if len(required) != len(b.Signatures) {
		return fmt.Errorf("%d signatures required, %d provided", len(required), len(b.Signatures))
	}
	for i, r := range required {
		pub, err := keys.NewPublicKeyFromBytes(r.PublicKey)
		if err != nil {
			return fmt.Errorf("signature %d: %w", i, err)
		}
		if !pub.Verify(b.Signatures[i], r.Message) {
			return fmt.Errorf("signature %d of coin %s is invalid", i, r.CoinID)
		}
	}
	return nil
}
