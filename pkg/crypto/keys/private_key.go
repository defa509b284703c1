package keys

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"golang.org/x/crypto/hkdf"
)

// PrivateKeyLen is the size of serialized private key.
const PrivateKeyLen = 32

// derivationSalt is the HKDF salt used by DeriveFromSeed.
var derivationSalt = []byte("spendkit key derivation")

// PrivateKey represents a secp256k1 private key and provides a high level
// API around it.
type PrivateKey struct {
	secp256k1.PrivateKey
}

// NewPrivateKey creates a new random secp256k1 private key.
func NewPrivateKey() (*PrivateKey, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &PrivateKey{*priv}, nil
}

// NewPrivateKeyFromHex returns a PrivateKey created from the given hex
// string.
func NewPrivateKeyFromHex(str string) (*PrivateKey, error) {
	b, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(b)
}

// NewPrivateKeyFromBytes returns a PrivateKey from the given byte slice.
func NewPrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeyLen {
		return nil, fmt.Errorf(
			"invalid byte length: expected %d bytes got %d", PrivateKeyLen, len(b),
		)
	}
	priv := secp256k1.PrivKeyFromBytes(b)
	if priv.Key.IsZero() {
		return nil, errors.New("invalid private key: zero scalar")
	}
	return &PrivateKey{*priv}, nil
}

// DeriveFromSeed deterministically derives a private key from the seed and
// the key index using HKDF-SHA256. The same (seed, index) pair always
// produces the same key.
func DeriveFromSeed(seed []byte, index uint32) (*PrivateKey, error) {
	if len(seed) == 0 {
		return nil, errors.New("empty seed")
	}
	var info [4]byte
	binary.BigEndian.PutUint32(info[:], index)

	r := hkdf.New(sha256.New, seed, derivationSalt, info[:])
	buf := make([]byte, PrivateKeyLen)
	// Zero or overflowing scalars are extremely unlikely, but the stream
	// is infinite, so just take the next chunk then.
	for i := 0; i < 16; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("derivation: %w", err)
		}
		var s secp256k1.ModNScalar
		if overflow := s.SetByteSlice(buf); overflow || s.IsZero() {
			continue
		}
		return &PrivateKey{*secp256k1.NewPrivateKey(&s)}, nil
	}
	return nil, errors.New("derivation: no valid scalar produced")
}

// PublicKey derives the public key from the private key.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{*p.PubKey()}
}

// Sign signs arbitrary length data using the private key. It uses SHA256 to
// calculate hash and then SignHash to create a signature (so you can save on
// hash calculation if you already have it).
func (p *PrivateKey) Sign(data []byte) []byte {
	var digest = sha256.Sum256(data)

	return p.SignHash(digest)
}

// SignHash signs the particular hash with the private key. The nonce is
// derived deterministically (RFC6979), the result is DER-encoded.
func (p *PrivateKey) SignHash(digest util.Bytes32) []byte {
	return ecdsa.Sign(&p.PrivateKey, digest[:]).Serialize()
}

// String implements the stringer interface.
func (p *PrivateKey) String() string {
	return hex.EncodeToString(p.Bytes())
}

// Bytes returns the underlying bytes of the PrivateKey.
func (p *PrivateKey) Bytes() []byte {
	return p.Serialize()
}
