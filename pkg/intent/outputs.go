package intent

import (
	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Outputs is the result of spending: coin spends and records of the coins
// they create. Minted assets are keyed by their Existing IDs, New IDs of
// the action list are accepted as well.
type Outputs struct {
	xch        []coin.Coin
	catOrder   []ID
	cats       map[ID][]asset.Cat
	nftOrder   []ID
	nfts       map[ID]asset.Nft
	didOrder   []ID
	dids       map[ID]asset.Did
	optOrder   []ID
	options    map[ID]asset.Option
	mints      map[int]mint
	coinSpends []coin.CoinSpend
}

func newOutputs(mints map[int]mint, spends []coin.CoinSpend, children []asset.Asset, spent map[util.Bytes32]struct{}) *Outputs {
	o := &Outputs{
		cats:       make(map[ID][]asset.Cat),
		nfts:       make(map[ID]asset.Nft),
		dids:       make(map[ID]asset.Did),
		options:    make(map[ID]asset.Option),
		mints:      mints,
		coinSpends: spends,
	}
	locked := make(map[util.Bytes32]struct{})
	for _, ch := range children {
		if opt, ok := ch.(asset.Option); ok {
			locked[opt.State.UnderlyingCoinID] = struct{}{}
		}
	}
	for _, ch := range children {
		id := ch.AssetCoin().ID()
		if _, ok := spent[id]; ok {
			continue
		}
		if _, ok := locked[id]; ok {
			continue
		}
		switch v := ch.(type) {
		case asset.Xch:
			o.xch = append(o.xch, v.Coin)
		case asset.Cat:
			key := Existing(v.AssetID)
			if _, ok := o.cats[key]; !ok {
				o.catOrder = append(o.catOrder, key)
			}
			o.cats[key] = append(o.cats[key], v)
		case asset.Nft:
			key := Existing(v.LauncherID)
			o.nftOrder = append(o.nftOrder, key)
			o.nfts[key] = v
		case asset.Did:
			key := Existing(v.LauncherID)
			o.didOrder = append(o.didOrder, key)
			o.dids[key] = v
		case asset.Option:
			key := Existing(v.LauncherID)
			o.optOrder = append(o.optOrder, key)
			o.options[key] = v
		}
	}
	return o
}

// Resolve returns the Existing ID of the asset minted by New ID, other IDs
// are returned as is.
func (o *Outputs) Resolve(id ID) ID {
	if id.Kind() != KindNew {
		return id
	}
	if m, ok := o.mints[id.Index()]; ok {
		return m.id
	}
	return id
}

// Xch returns created native coins.
func (o *Outputs) Xch() []coin.Coin {
	return o.xch
}

// Cats returns IDs of created CATs.
func (o *Outputs) Cats() []ID {
	return o.catOrder
}

// Cat returns created coins of the CAT.
func (o *Outputs) Cat(id ID) []asset.Cat {
	return o.cats[o.Resolve(id)]
}

// Nfts returns IDs of NFTs created.
func (o *Outputs) Nfts() []ID {
	return o.nftOrder
}

// Nft returns the NFT record.
func (o *Outputs) Nft(id ID) (asset.Nft, bool) {
	v, ok := o.nfts[o.Resolve(id)]
	return v, ok
}

// Dids returns IDs of DIDs created.
func (o *Outputs) Dids() []ID {
	return o.didOrder
}

// Did returns the DID record.
func (o *Outputs) Did(id ID) (asset.Did, bool) {
	v, ok := o.dids[o.Resolve(id)]
	return v, ok
}

// Options returns IDs of options created.
func (o *Outputs) Options() []ID {
	return o.optOrder
}

// Option returns the option record.
func (o *Outputs) Option(id ID) (asset.Option, bool) {
	v, ok := o.options[o.Resolve(id)]
	return v, ok
}

// MintConditions returns conditions contributed by the action minting the
// asset (New ID or its resolved Existing ID).
func (o *Outputs) MintConditions(id ID) []puzzle.Condition {
	if id.Kind() == KindNew {
		return o.mints[id.Index()].conds
	}
	for _, m := range o.mints {
		if m.id == id {
			return m.conds
		}
	}
	return nil
}

// CoinSpends returns the coin spends to sign and submit.
func (o *Outputs) CoinSpends() []coin.CoinSpend {
	return o.coinSpends
}
