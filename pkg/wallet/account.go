package wallet

import (
	"github.com/nspcc-dev/spendkit/pkg/crypto/keys"
	"github.com/nspcc-dev/spendkit/pkg/custody"
	"github.com/nspcc-dev/spendkit/pkg/encoding/address"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Account is a single-key account. Its coins are locked by the standard
// puzzle of the key.
type Account struct {
	// Private key of the account.
	privateKey *keys.PrivateKey

	// Label is a label the user had made for this account.
	Label string `json:"label"`

	// Address is the base58 form of PuzzleHash.
	Address string `json:"address"`

	// PuzzleHash is the standard puzzle hash of the account key.
	PuzzleHash util.Bytes32 `json:"puzzle_hash"`
}

// NewAccount creates a new Account with a random generated PrivateKey.
func NewAccount(c *puzzle.Constants) (*Account, error) {
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(c, priv), nil
}

// NewAccountFromSeed creates an Account with the key derived from the seed
// and the index.
func NewAccountFromSeed(c *puzzle.Constants, seed []byte, index uint32) (*Account, error) {
	priv, err := keys.DeriveFromSeed(seed, index)
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(c, priv), nil
}

// NewAccountFromPrivateKey creates an Account for the key.
func NewAccountFromPrivateKey(c *puzzle.Constants, p *keys.PrivateKey) *Account {
	ph := custody.PuzzleHash(c, p.PublicKey())
	return &Account{
		privateKey: p,
		Address:    address.Bytes32ToString(ph),
		PuzzleHash: ph,
	}
}

// PrivateKey returns the private key of the account.
func (a *Account) PrivateKey() *keys.PrivateKey {
	return a.privateKey
}

// PublicKey returns the public key of the account.
func (a *Account) PublicKey() *keys.PublicKey {
	return a.privateKey.PublicKey()
}
