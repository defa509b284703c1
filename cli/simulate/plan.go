package simulate

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/encoding/address"
	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/nspcc-dev/spendkit/pkg/wallet"
	"gopkg.in/yaml.v3"
)

// DefaultSeed is the seed account keys are derived from if a plan doesn't
// specify one.
const DefaultSeed = "spendkit"

// Action types of a plan.
const (
	ActionSend           = "send"
	ActionFee            = "fee"
	ActionIssue          = "issue"
	ActionReissue        = "reissue"
	ActionMelt           = "melt"
	ActionMintNft        = "mint-nft"
	ActionUpdateNft      = "update-nft"
	ActionCreateDid      = "create-did"
	ActionUpdateDid      = "update-did"
	ActionMintOption     = "mint-option"
	ActionExerciseOption = "exercise-option"
	ActionMeltSingleton  = "melt-singleton"
)

// TailSignature is the tail allowing supply changes signed by the session
// sender.
const TailSignature = "signature"

var errUnknownRef = errors.New("unknown reference")

type (
	// Plan is a simulation scenario: a set of funded accounts and sessions
	// executed one after another.
	Plan struct {
		Seed     string        `yaml:"Seed"`
		Accounts []PlanAccount `yaml:"Accounts"`
		Sessions []Session     `yaml:"Sessions"`
	}

	// PlanAccount is an account with the key derived from the plan seed
	// and Index, Coins are minted for it before sessions are run.
	PlanAccount struct {
		Name  string   `yaml:"Name"`
		Index uint32   `yaml:"Index"`
		Coins []uint64 `yaml:"Coins"`
	}

	// Session is a list of actions of a single sender turned into one
	// spend bundle. PassTime moves the ledger clock forward before the
	// session.
	Session struct {
		Name     string       `yaml:"Name"`
		Sender   string       `yaml:"Sender"`
		PassTime uint64       `yaml:"PassTime"`
		Actions  []PlanAction `yaml:"Actions"`
	}

	// PlanAction is a single action. Asset references are "xch" (or
	// empty), "$N" for the asset minted by the N-th action of the same
	// session, "$session.N" for the one minted by an earlier session or a
	// hex asset id. Recipients are account names, addresses or hex puzzle
	// hashes.
	PlanAction struct {
		Type   string   `yaml:"Type"`
		Asset  string   `yaml:"Asset"`
		To     string   `yaml:"To"`
		Amount uint64   `yaml:"Amount"`
		Memos  []string `yaml:"Memos"`
		Tail   string   `yaml:"Tail"`

		// NFT.
		Parent     string             `yaml:"Parent"`
		Metadata   puzzle.NftMetadata `yaml:"Metadata"`
		Updater    string             `yaml:"Updater"`
		Royalty    string             `yaml:"Royalty"`
		RoyaltyBps uint16             `yaml:"RoyaltyBps"`
		URIs       []URIUpdate        `yaml:"URIs"`
		Transfer   bool               `yaml:"Transfer"`
		Owner      string             `yaml:"Owner"`

		// DID.
		RecoveryListHash *util.Bytes32 `yaml:"RecoveryListHash"`
		NumVerifications uint64        `yaml:"NumVerifications"`
		DidMetadata      string        `yaml:"DidMetadata"`

		// Option.
		ExpiresIn        uint64 `yaml:"ExpiresIn"`
		Underlying       string `yaml:"Underlying"`
		UnderlyingAmount uint64 `yaml:"UnderlyingAmount"`
		Strike           string `yaml:"Strike"`
		StrikeAmount     uint64 `yaml:"StrikeAmount"`
	}

	// URIUpdate prepends URI to the data, meta or license URI list of an
	// NFT.
	URIUpdate struct {
		List string `yaml:"List"`
		URI  string `yaml:"URI"`
	}
)

// LoadPlan reads the plan from the YAML file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes the plan and checks its accounts and sessions.
func ParsePlan(data []byte) (*Plan, error) {
	p := new(Plan)
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan YAML: %w", err)
	}
	if p.Seed == "" {
		p.Seed = DefaultSeed
	}
	names := make(map[string]bool, len(p.Accounts))
	for _, a := range p.Accounts {
		if a.Name == "" || names[a.Name] {
			return nil, fmt.Errorf("empty or duplicate account name %q", a.Name)
		}
		names[a.Name] = true
	}
	sessions := make(map[string]bool, len(p.Sessions))
	for i, s := range p.Sessions {
		if s.Name == "" {
			p.Sessions[i].Name = strconv.Itoa(i)
		}
		if sessions[p.Sessions[i].Name] {
			return nil, fmt.Errorf("duplicate session name %q", s.Name)
		}
		sessions[p.Sessions[i].Name] = true
		if !names[s.Sender] {
			return nil, fmt.Errorf("session %s: unknown sender %q", p.Sessions[i].Name, s.Sender)
		}
	}
	return p, nil
}

// parseURIList returns the metadata list of the URI update.
func parseURIList(s string) (puzzle.MetadataKind, error) {
	switch s {
	case "", "data":
		return puzzle.MetadataDataURI, nil
	case "meta":
		return puzzle.MetadataMetaURI, nil
	case "license":
		return puzzle.MetadataLicenseURI, nil
	default:
		return 0, fmt.Errorf("unknown URI list %q", s)
	}
}

// resolver turns references of a plan into puzzle hashes and asset IDs.
type resolver struct {
	accounts map[string]*wallet.Account
	minted   map[string]map[int]intent.ID
}

func (r *resolver) puzzleHash(s string) (util.Bytes32, error) {
	if acc, ok := r.accounts[s]; ok {
		return acc.PuzzleHash, nil
	}
	if ph, err := address.StringToBytes32(s); err == nil {
		return ph, nil
	}
	ph, err := util.Bytes32DecodeString(s)
	if err != nil {
		return ph, fmt.Errorf("%w: recipient %q", errUnknownRef, s)
	}
	return ph, nil
}

func (r *resolver) optionalPuzzleHash(s string, def util.Bytes32) (util.Bytes32, error) {
	if s == "" {
		return def, nil
	}
	return r.puzzleHash(s)
}

func (r *resolver) id(s string) (intent.ID, error) {
	if s == "" || s == "xch" {
		return intent.Xch, nil
	}
	if ref, ok := strings.CutPrefix(s, "$"); ok {
		session, idx, found := strings.Cut(ref, ".")
		if !found {
			i, err := strconv.Atoi(ref)
			if err != nil || i < 0 {
				return intent.ID{}, fmt.Errorf("%w: %s", errUnknownRef, s)
			}
			return intent.New(i), nil
		}
		i, err := strconv.Atoi(idx)
		if err != nil {
			return intent.ID{}, fmt.Errorf("%w: %s", errUnknownRef, s)
		}
		id, ok := r.minted[session][i]
		if !ok {
			return intent.ID{}, fmt.Errorf("%w: %s", errUnknownRef, s)
		}
		return id, nil
	}
	assetID, err := util.Bytes32DecodeString(s)
	if err != nil {
		return intent.ID{}, fmt.Errorf("%w: asset %q", errUnknownRef, s)
	}
	return intent.Existing(assetID), nil
}

func (r *resolver) launcherID(s string) (*util.Bytes32, error) {
	if s == "" {
		return nil, nil
	}
	id, err := r.id(s)
	if err != nil {
		return nil, err
	}
	if id.Kind() != intent.KindExisting {
		return nil, fmt.Errorf("%w: %s is not an existing singleton", errUnknownRef, s)
	}
	res := id.AssetID()
	return &res, nil
}

// chainState is the part of the ledger actions are built against.
type chainState interface {
	tail(sender *wallet.Account, kind string) (*puzzle.Program, error)
	option(sender *wallet.Account, id intent.ID) (asset.Option, error)
	timestamp() uint64
}

// action converts the plan action of the sender into an intent.Action.
func (r *resolver) action(st chainState, sender *wallet.Account, pa PlanAction) (intent.Action, error) {
	switch pa.Type {
	case ActionSend:
		id, err := r.id(pa.Asset)
		if err != nil {
			return nil, err
		}
		ph, err := r.puzzleHash(pa.To)
		if err != nil {
			return nil, err
		}
		var memos [][]byte
		for _, m := range pa.Memos {
			memos = append(memos, []byte(m))
		}
		return intent.Send{ID: id, PuzzleHash: ph, Amount: pa.Amount, Memos: memos}, nil
	case ActionFee:
		return intent.Fee{Amount: pa.Amount}, nil
	case ActionIssue:
		tail, err := st.tail(sender, pa.Tail)
		if err != nil {
			return nil, err
		}
		return intent.IssueAsset{Tail: tail, Amount: pa.Amount}, nil
	case ActionReissue, ActionMelt:
		id, err := r.id(pa.Asset)
		if err != nil {
			return nil, err
		}
		tail, err := st.tail(sender, pa.Tail)
		if err != nil {
			return nil, err
		}
		if pa.Type == ActionReissue {
			return intent.ReissueAsset{ID: id, Tail: tail, Amount: pa.Amount}, nil
		}
		return intent.MeltAsset{ID: id, Tail: tail, Amount: pa.Amount}, nil
	case ActionMintNft:
		parent, err := r.id(pa.Parent)
		if err != nil {
			return nil, err
		}
		updater, err := r.optionalPuzzleHash(pa.Updater, sender.PuzzleHash)
		if err != nil {
			return nil, err
		}
		royalty, err := r.optionalPuzzleHash(pa.Royalty, sender.PuzzleHash)
		if err != nil {
			return nil, err
		}
		return intent.MintToken{
			Parent:     parent,
			Metadata:   pa.Metadata,
			UpdaterPH:  updater,
			RoyaltyPH:  royalty,
			RoyaltyBps: pa.RoyaltyBps,
			Amount:     pa.Amount,
		}, nil
	case ActionUpdateNft:
		id, err := r.id(pa.Asset)
		if err != nil {
			return nil, err
		}
		updates := make([]puzzle.MetadataUpdate, 0, len(pa.URIs))
		for _, u := range pa.URIs {
			kind, err := parseURIList(u.List)
			if err != nil {
				return nil, err
			}
			updates = append(updates, puzzle.MetadataUpdate{Kind: kind, URI: u.URI})
		}
		owner, err := r.launcherID(pa.Owner)
		if err != nil {
			return nil, err
		}
		return intent.UpdateToken{ID: id, MetadataUpdates: updates, Transfer: pa.Transfer, NewOwner: owner}, nil
	case ActionCreateDid:
		return intent.CreateDid{
			RecoveryListHash: pa.RecoveryListHash,
			NumVerifications: pa.NumVerifications,
			Metadata:         []byte(pa.DidMetadata),
			Amount:           pa.Amount,
		}, nil
	case ActionUpdateDid:
		id, err := r.id(pa.Asset)
		if err != nil {
			return nil, err
		}
		return intent.UpdateDid{
			ID:               id,
			RecoveryListHash: pa.RecoveryListHash,
			NumVerifications: pa.NumVerifications,
			Metadata:         []byte(pa.DidMetadata),
		}, nil
	case ActionMintOption:
		underlying, err := r.id(pa.Underlying)
		if err != nil {
			return nil, err
		}
		strike, err := r.id(pa.Strike)
		if err != nil {
			return nil, err
		}
		return intent.MintOption{
			CreatorPH:        sender.PuzzleHash,
			Expiration:       st.timestamp() + pa.ExpiresIn,
			UnderlyingID:     underlying,
			UnderlyingAmount: pa.UnderlyingAmount,
			StrikeID:         strike,
			StrikeAmount:     pa.StrikeAmount,
			Amount:           pa.Amount,
		}, nil
	case ActionExerciseOption:
		id, err := r.id(pa.Asset)
		if err != nil {
			return nil, err
		}
		opt, err := st.option(sender, id)
		if err != nil {
			return nil, err
		}
		return intent.ExerciseOption{Option: opt}, nil
	case ActionMeltSingleton:
		id, err := r.id(pa.Asset)
		if err != nil {
			return nil, err
		}
		return intent.MeltSingleton{ID: id, Amount: pa.Amount}, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", pa.Type)
	}
}
