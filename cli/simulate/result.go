package simulate

import (
	"fmt"
	"io"

	"github.com/nspcc-dev/spendkit/pkg/encoding/address"
	"github.com/nspcc-dev/spendkit/pkg/util"
)

type (
	// Result is the outcome of a plan.
	Result struct {
		Height    uint32           `json:"height"`
		Timestamp uint64           `json:"timestamp"`
		Sessions  []SessionResult  `json:"sessions"`
		Accounts  []AccountBalance `json:"accounts"`
	}

	// SessionResult describes an accepted session.
	SessionResult struct {
		Name   string   `json:"name"`
		Height uint32   `json:"height"`
		Spends int      `json:"spends"`
		Minted []Minted `json:"minted,omitempty"`
	}

	// Minted is the asset id of the asset minted by the session action.
	Minted struct {
		Action  int          `json:"action"`
		AssetID util.Bytes32 `json:"asset_id"`
	}

	// AccountBalance is the set of unspent coins of an account.
	AccountBalance struct {
		Name       string         `json:"name"`
		Address    string         `json:"address"`
		PuzzleHash util.Bytes32   `json:"puzzle_hash"`
		Xch        uint64         `json:"xch"`
		Assets     []AssetBalance `json:"assets,omitempty"`
	}

	// AssetBalance is the amount of an asset held. Singletons are listed
	// with their coin amount.
	AssetBalance struct {
		AssetID util.Bytes32 `json:"asset_id"`
		Kind    string       `json:"kind"`
		Amount  uint64       `json:"amount"`
	}
)

func (r *Result) print(w io.Writer) {
	fmt.Fprintf(w, "Height: %d\nTimestamp: %d\n", r.Height, r.Timestamp)
	for _, s := range r.Sessions {
		fmt.Fprintf(w, "Session %s: %d spends at height %d\n", s.Name, s.Spends, s.Height)
		for _, m := range s.Minted {
			fmt.Fprintf(w, "\t$%s.%d: %s\n", s.Name, m.Action, m.AssetID)
		}
	}
	for _, a := range r.Accounts {
		fmt.Fprintf(w, "%s (%s)\n", a.Name, address.Bytes32ToString(a.PuzzleHash))
		fmt.Fprintf(w, "\txch: %d\n", a.Xch)
		for _, b := range a.Assets {
			fmt.Fprintf(w, "\t%s %s: %d\n", b.Kind, b.AssetID, b.Amount)
		}
	}
}
