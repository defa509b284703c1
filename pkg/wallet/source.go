package wallet

import (
	"context"

	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Namespace scopes a coin source query: native coins of the owner if
// AssetID is nil, the owner's coins of the asset (CATs of the tail hash or
// the singleton with the launcher ID) otherwise.
type Namespace struct {
	Owner   util.Bytes32
	AssetID *util.Bytes32
}

// CoinSource provides records of unspent coins.
type CoinSource interface {
	UnspentCoins(ctx context.Context, ns Namespace) ([]asset.Asset, error)
}
