package util

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	json "github.com/nspcc-dev/go-ordered-json"
)

// Bytes32Size is the size of Bytes32 in bytes.
const Bytes32Size = 32

// Bytes32 is a 32 byte long value used for coin ids, puzzle hashes, asset
// ids and launcher ids. Unlike the ledger integers it's never reversed, the
// byte order is the one hashes are produced in.
type Bytes32 [Bytes32Size]uint8

// Bytes32DecodeString attempts to decode the given hex string (with or
// without 0x prefix) into a Bytes32.
func Bytes32DecodeString(s string) (u Bytes32, err error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s) != Bytes32Size*2 {
		return u, fmt.Errorf("expected string size of %d got %d", Bytes32Size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return u, err
	}
	return Bytes32DecodeBytes(b)
}

// Bytes32DecodeBytes attempts to decode the given bytes into a Bytes32.
func Bytes32DecodeBytes(b []byte) (u Bytes32, err error) {
	if len(b) != Bytes32Size {
		return u, fmt.Errorf("expected []byte of size %d got %d", Bytes32Size, len(b))
	}
	copy(u[:], b)
	return u, nil
}

// BytesBE returns a byte slice representation of u.
func (u Bytes32) BytesBE() []byte {
	b := make([]byte, Bytes32Size)
	copy(b, u[:])
	return b
}

// Equals returns true if both Bytes32 values are the same.
func (u Bytes32) Equals(other Bytes32) bool {
	return u == other
}

// IsZero returns true if all bytes of u are zero.
func (u Bytes32) IsZero() bool {
	return u == Bytes32{}
}

// Less returns true if u is lexicographically less than other.
func (u Bytes32) Less(other Bytes32) bool {
	return bytes.Compare(u[:], other[:]) < 0
}

// String implements the stringer interface.
func (u Bytes32) String() string {
	return hex.EncodeToString(u[:])
}

// UnmarshalJSON implements the json unmarshaller interface.
func (u *Bytes32) UnmarshalJSON(data []byte) (err error) {
	var js string
	if err = json.Unmarshal(data, &js); err != nil {
		return err
	}
	*u, err = Bytes32DecodeString(js)
	return err
}

// MarshalJSON implements the json marshaller interface.
func (u Bytes32) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + u.String())
}

// UnmarshalYAML implements the YAML Unmarshaler interface.
func (u *Bytes32) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	var err error
	*u, err = Bytes32DecodeString(s)
	return err
}

// MarshalYAML implements the YAML Marshaler interface.
func (u Bytes32) MarshalYAML() (any, error) {
	return "0x" + u.String(), nil
}
