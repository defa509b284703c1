package util

import (
	"strings"
	"testing"

	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testBytes32 = "f037308fa0ab18155bccfc08485468c112409ea5064595699e98c545f245f32d"

func TestBytes32DecodeString(t *testing.T) {
	u, err := Bytes32DecodeString(testBytes32)
	require.NoError(t, err)
	require.Equal(t, testBytes32, u.String())
	require.Equal(t, byte(0xf0), u[0])

	u2, err := Bytes32DecodeString("0x" + testBytes32)
	require.NoError(t, err)
	require.Equal(t, u, u2)

	_, err = Bytes32DecodeString(testBytes32[2:])
	require.Error(t, err)

	_, err = Bytes32DecodeString(strings.Repeat("zz", Bytes32Size))
	require.Error(t, err)
}

func TestBytes32DecodeBytes(t *testing.T) {
	u, err := Bytes32DecodeString(testBytes32)
	require.NoError(t, err)

	b := u.BytesBE()
	u2, err := Bytes32DecodeBytes(b)
	require.NoError(t, err)
	require.True(t, u.Equals(u2))

	b[0] = 0
	require.Equal(t, byte(0xf0), u[0], "BytesBE must return a copy")

	_, err = Bytes32DecodeBytes(b[1:])
	require.Error(t, err)
}

func TestBytes32Compare(t *testing.T) {
	var zero Bytes32
	require.True(t, zero.IsZero())

	a := Bytes32{1}
	b := Bytes32{2}
	require.False(t, a.IsZero())
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
	require.False(t, a.Less(a))
}

func TestBytes32JSONYAML(t *testing.T) {
	u, err := Bytes32DecodeString(testBytes32)
	require.NoError(t, err)

	data, err := json.Marshal(u)
	require.NoError(t, err)
	require.Equal(t, `"0x`+testBytes32+`"`, string(data))

	var actual Bytes32
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, u, actual)

	data, err = yaml.Marshal(u)
	require.NoError(t, err)

	actual = Bytes32{}
	require.NoError(t, yaml.Unmarshal(data, &actual))
	require.Equal(t, u, actual)

	require.Error(t, json.Unmarshal([]byte(`"0x01"`), &actual))
	require.Error(t, json.Unmarshal([]byte(`1`), &actual))
}
