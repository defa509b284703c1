package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// PublicKeyLen is the size of a compressed public key.
const PublicKeyLen = 33

// PublicKey represents a secp256k1 public key.
type PublicKey struct {
	secp256k1.PublicKey
}

// NewPublicKeyFromString returns a public key created from the
// given hex string public key representation in compressed form.
func NewPublicKeyFromString(s string) (*PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(b)
}

// NewPublicKeyFromBytes returns a public key created from b. Both compressed
// and uncompressed encodings are accepted.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}
	return &PublicKey{*pub}, nil
}

// Bytes returns the compressed byte representation of the public key.
func (p *PublicKey) Bytes() []byte {
	return p.SerializeCompressed()
}

// Equal returns true in case public keys are equal.
func (p *PublicKey) Equal(key *PublicKey) bool {
	return p.IsEqual(&key.PublicKey)
}

// Hash returns sha256 of the compressed public key, it's used as a key
// store index.
func (p *PublicKey) Hash() util.Bytes32 {
	return hash.Sha256(p.Bytes())
}

// Verify returns true if the signature is valid for the data hashed with
// sha256 and corresponds to the public key.
func (p *PublicKey) Verify(signature []byte, data []byte) bool {
	digest := sha256.Sum256(data)
	return p.VerifyHash(signature, digest)
}

// VerifyHash returns true if the DER signature is valid for the hash and
// corresponds to the public key.
func (p *PublicKey) VerifyHash(signature []byte, digest util.Bytes32) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(digest[:], &p.PublicKey)
}

// String implements the Stringer interface.
func (p *PublicKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// MarshalJSON implements the json.Marshaler interface.
func (p PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(p.Bytes()))
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pk, err := NewPublicKeyFromString(s)
	if err != nil {
		return err
	}
	*p = *pk
	return nil
}
