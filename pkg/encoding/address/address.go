package address

import (
	"errors"

	"github.com/nspcc-dev/spendkit/pkg/encoding/base58"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

const (
	// SpendkitPrefix is the first byte of an address for puzzle hashes.
	SpendkitPrefix byte = 0x3f
)

// Prefix is the byte used to prepend to addresses when encoding them, it can
// be changed and defaults to SpendkitPrefix.
var Prefix = SpendkitPrefix

// ErrInvalidPrefix is returned for addresses with a different version byte.
var ErrInvalidPrefix = errors.New("wrong address prefix")

// Bytes32ToString returns the address string for the given puzzle hash.
func Bytes32ToString(u util.Bytes32) string {
	b := append([]byte{Prefix}, u[:]...)
	return base58.CheckEncode(b)
}

// StringToBytes32 attempts to decode the given address string into a
// puzzle hash.
func StringToBytes32(s string) (u util.Bytes32, err error) {
	b, err := base58.CheckDecode(s)
	if err != nil {
		return u, err
	}
	if len(b) == 0 || b[0] != Prefix {
		return u, ErrInvalidPrefix
	}
	return util.Bytes32DecodeBytes(b[1:])
}
