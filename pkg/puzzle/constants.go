package puzzle

import (
	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

// Constants is a read-only set of module hashes and network parameters
// every puzzle derivation depends on. It's created once (see
// DefaultConstants or config) and passed to everything that builds or
// evaluates puzzles.
type Constants struct {
	StandardModHash                util.Bytes32
	CatModHash                     util.Bytes32
	SingletonModHash               util.Bytes32
	LauncherModHash                util.Bytes32
	NftStateModHash                util.Bytes32
	DidModHash                     util.Bytes32
	OptionModHash                  util.Bytes32
	OptionUnderlyingModHash        util.Bytes32
	GenesisByCoinIDModHash         util.Bytes32
	EverythingWithSignatureModHash util.Bytes32

	// AggSigMeExtraData is appended to every AGG_SIG_ME message along with
	// the coin id, it binds signatures to one network.
	AggSigMeExtraData util.Bytes32
}

func modHash(name string) util.Bytes32 {
	return hash.Sha256([]byte("spendkit/" + name + "/v1"))
}

// DefaultConstants returns the constants of the default (simulator)
// network.
func DefaultConstants() *Constants {
	return &Constants{
		StandardModHash:                modHash("p2_conditions"),
		CatModHash:                     modHash("cat"),
		SingletonModHash:               modHash("singleton"),
		LauncherModHash:                modHash("singleton_launcher"),
		NftStateModHash:                modHash("nft_state"),
		DidModHash:                     modHash("did"),
		OptionModHash:                  modHash("option_contract"),
		OptionUnderlyingModHash:        modHash("option_underlying"),
		GenesisByCoinIDModHash:         modHash("genesis_by_coin_id"),
		EverythingWithSignatureModHash: modHash("everything_with_signature"),
		AggSigMeExtraData:              hash.Sha256([]byte("spendkit/simnet")),
	}
}

// Mods returns all module hashes with their names, it's used to validate
// that the set doesn't contain duplicates.
func (c *Constants) Mods() map[string]util.Bytes32 {
	return map[string]util.Bytes32{
		"standard":                  c.StandardModHash,
		"cat":                       c.CatModHash,
		"singleton":                 c.SingletonModHash,
		"launcher":                  c.LauncherModHash,
		"nft_state":                 c.NftStateModHash,
		"did":                       c.DidModHash,
		"option":                    c.OptionModHash,
		"option_underlying":         c.OptionUnderlyingModHash,
		"genesis_by_coin_id":        c.GenesisByCoinIDModHash,
		"everything_with_signature": c.EverythingWithSignatureModHash,
	}
}
