package address

import (
	"testing"

	"github.com/nspcc-dev/spendkit/pkg/encoding/base58"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestBytes32EncodeDecodeAddress(t *testing.T) {
	for _, u := range []util.Bytes32{{}, {1, 2, 3}, {0xff, 0xfe, 31: 0xaa}} {
		addr := Bytes32ToString(u)
		val, err := StringToBytes32(addr)
		require.NoError(t, err)
		require.Equal(t, u, val)
	}
}

func TestBytes32DecodeBadBase58(t *testing.T) {
	addr := Bytes32ToString(util.Bytes32{1})

	_, err := StringToBytes32(addr[:len(addr)-1] + "@")
	require.Error(t, err)
}

func TestBytes32DecodeWrongPrefix(t *testing.T) {
	b := append([]byte{Prefix + 1}, make([]byte, util.Bytes32Size)...)
	_, err := StringToBytes32(base58.CheckEncode(b))
	require.ErrorIs(t, err, ErrInvalidPrefix)
}

func TestBytes32DecodeWrongLength(t *testing.T) {
	b := append([]byte{Prefix}, make([]byte, util.Bytes32Size-1)...)
	_, err := StringToBytes32(base58.CheckEncode(b))
	require.Error(t, err)
}
