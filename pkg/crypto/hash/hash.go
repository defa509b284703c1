/*
Package hash contains sha256-based helpers used for coin ids, tree hashes
and signature messages.
*/
package hash

import (
	"crypto/sha256"

	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Sha256 hashes the incoming byte slice using the sha256 algorithm.
func Sha256(data []byte) util.Bytes32 {
	return sha256.Sum256(data)
}

// Sha256Concat hashes the concatenation of all given byte slices without
// allocating an intermediate buffer.
func Sha256Concat(parts ...[]byte) util.Bytes32 {
	var (
		h   = sha256.New()
		res util.Bytes32
	)
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	h.Sum(res[:0])
	return res
}

// Checksum returns the first 4 bytes of double sha256 of data, it's used by
// base58check address encoding.
func Checksum(data []byte) []byte {
	h1 := Sha256(data)
	h2 := Sha256(h1[:])
	return h2[:4]
}
