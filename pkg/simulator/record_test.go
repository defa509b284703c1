package simulator

import (
	"testing"

	"github.com/nspcc-dev/spendkit/internal/testserdes"
	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestRecordEncodeDecode(t *testing.T) {
	r := &Record{
		Asset: asset.Cat{
			Coin:    coin.New(util.Bytes32{1}, util.Bytes32{2}, 42),
			AssetID: util.Bytes32{3},
			P2:      util.Bytes32{4},
		},
		ConfirmedHeight: 7,
		Spent:           true,
		SpentHeight:     9,
	}
	testserdes.EncodeDecodeBinary(t, r, new(Record))

	_, err := decodeRecord([]byte{1, 2, 3})
	require.Error(t, err)
}
