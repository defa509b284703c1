/*
Package simulate implements commands running spend sessions against the
ledger simulator.
*/
package simulate

import (
	"context"
	"fmt"
	"sort"

	"github.com/davecgh/go-spew/spew"
	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/nspcc-dev/spendkit/cli/options"
	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/config"
	"github.com/nspcc-dev/spendkit/pkg/custody"
	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/services/metrics"
	"github.com/nspcc-dev/spendkit/pkg/signer"
	"github.com/nspcc-dev/spendkit/pkg/simulator"
	"github.com/nspcc-dev/spendkit/pkg/storage"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/nspcc-dev/spendkit/pkg/wallet"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var dumper = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}

// NewCommands returns 'simulate' command.
func NewCommands() []cli.Command {
	cfgFlags := []cli.Flag{options.Config, options.ConfigFile, options.Debug}
	runFlags := append(cfgFlags,
		cli.StringFlag{
			Name:  "plan, p",
			Usage: "path to the YAML plan to run",
		},
		cli.BoolFlag{
			Name:  "dump",
			Usage: "dump outputs of every session",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "print the result as JSON",
		},
	)
	return []cli.Command{{
		Name:  "simulate",
		Usage: "Run spend sessions against the ledger simulator",
		Subcommands: []cli.Command{
			{
				Name:      "run",
				Usage:     "Run the plan and print resulting balances",
				UsageText: "spendkit simulate run --plan <file> [--config-file <file>] [--debug] [--dump] [--json]",
				Description: `Mints initial coins of plan accounts, then runs plan sessions one by one.
   Every session is compiled by the wallet into a spend bundle, signed with
   account keys and submitted to the simulator. Balances of all accounts are
   printed after the last session.
`,
				Action: runPlan,
				Flags:  runFlags,
			},
			{
				Name:      "address",
				Usage:     "Print the address of the account derived from the seed",
				UsageText: "spendkit simulate address [--seed <seed>] --index <n>",
				Action:    printAddress,
				Flags: append(cfgFlags,
					cli.StringFlag{
						Name:  "seed",
						Value: DefaultSeed,
						Usage: "seed the account key is derived from",
					},
					cli.UintFlag{
						Name:  "index, n",
						Usage: "account index",
					},
				),
			},
		},
	}}
}

func printAddress(ctx *cli.Context) error {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	c, err := cfg.Constants.ToConstants()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	acc, err := wallet.NewAccountFromSeed(c, []byte(ctx.String("seed")), uint32(ctx.Uint("index")))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "Address: %s\nPuzzleHash: %s\nPublicKey: %s\n",
		acc.Address, acc.PuzzleHash, acc.PublicKey())
	return nil
}

func runPlan(ctx *cli.Context) error {
	if ctx.NArg() != 0 {
		return cli.NewExitError("unexpected arguments", 1)
	}
	planPath := ctx.String("plan")
	if planPath == "" {
		return cli.NewExitError("no plan specified, use --plan", 1)
	}
	plan, err := LoadPlan(planPath)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.Application)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() { _ = log.Sync() }()

	prom := metrics.NewPrometheusService(cfg.Application.Prometheus, log)
	if err := prom.Start(); err != nil {
		return cli.NewExitError(fmt.Errorf("failed to start Prometheus service: %w", err), 1)
	}
	defer prom.ShutDown()

	r, err := newRunner(cfg, log)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer func() {
		if err := r.sim.Close(); err != nil {
			log.Error("failed to close the ledger", zap.Error(err))
		}
	}()

	res, err := r.run(context.Background(), plan, func(name string, out *intent.Outputs) {
		if ctx.Bool("dump") {
			fmt.Fprintf(ctx.App.Writer, "Session %s:\n%s", name, dumper.Sdump(out))
		}
	})
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if ctx.Bool("json") {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		fmt.Fprintln(ctx.App.Writer, string(b))
		return nil
	}
	res.print(ctx.App.Writer)
	return nil
}

// runner executes plans against a single ledger.
type runner struct {
	c      *puzzle.Constants
	log    *zap.Logger
	sim    *simulator.Simulator
	keys   *signer.KeyRing
	cust   *custody.Standard
	wallet *wallet.Wallet
	resolver
}

func newRunner(cfg config.Config, log *zap.Logger) (*runner, error) {
	c, err := cfg.Constants.ToConstants()
	if err != nil {
		return nil, err
	}
	relation, err := cfg.Application.GetRelation()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(cfg.Application.DBConfiguration)
	if err != nil {
		return nil, fmt.Errorf("could not initialize storage: %w", err)
	}
	sim, err := simulator.New(c, store, log, simulator.Config{
		CacheSize: cfg.Application.CacheSize,
		Timestamp: cfg.Application.Timestamp,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("could not initialize simulator: %w", err)
	}
	cust := custody.NewStandard(c)
	return &runner{
		c:      c,
		log:    log,
		sim:    sim,
		keys:   signer.NewKeyRing(),
		cust:   cust,
		wallet: wallet.New(c, sim, cust, log, wallet.WithRelation(relation)),
		resolver: resolver{
			accounts: make(map[string]*wallet.Account),
			minted:   make(map[string]map[int]intent.ID),
		},
	}, nil
}

func (r *runner) tail(sender *wallet.Account, kind string) (*puzzle.Program, error) {
	switch kind {
	case "":
		return nil, nil
	case TailSignature:
		return puzzle.EverythingWithSignatureTail(r.c, sender.PublicKey().Bytes()), nil
	default:
		return nil, fmt.Errorf("unknown tail %q", kind)
	}
}

func (r *runner) option(sender *wallet.Account, id intent.ID) (asset.Option, error) {
	if id.Kind() != intent.KindExisting {
		return asset.Option{}, fmt.Errorf("%w: option %s", errUnknownRef, id)
	}
	launcherID := id.AssetID()
	coins, err := r.sim.UnspentCoins(context.Background(), wallet.Namespace{Owner: sender.PuzzleHash, AssetID: &launcherID})
	if err != nil {
		return asset.Option{}, err
	}
	for _, a := range coins {
		if opt, ok := a.(asset.Option); ok {
			return opt, nil
		}
	}
	return asset.Option{}, fmt.Errorf("%w: no option %s held by %s", errUnknownRef, id, sender.Address)
}

func (r *runner) timestamp() uint64 {
	return r.sim.Timestamp()
}

// run mints plan accounts' coins and runs all sessions. onSession is called
// after every accepted session.
func (r *runner) run(ctx context.Context, p *Plan, onSession func(string, *intent.Outputs)) (*Result, error) {
	res := &Result{}
	for _, pa := range p.Accounts {
		acc, err := wallet.NewAccountFromSeed(r.c, []byte(p.Seed), pa.Index)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", pa.Name, err)
		}
		acc.Label = pa.Name
		r.accounts[pa.Name] = acc
		r.keys.Add(acc.PrivateKey())
		r.cust.AddKey(acc.PublicKey())
		for _, amount := range pa.Coins {
			if _, err := r.sim.Mint(acc.PuzzleHash, amount); err != nil {
				return nil, fmt.Errorf("account %s: %w", pa.Name, err)
			}
		}
	}
	for _, s := range p.Sessions {
		sr, out, err := r.session(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", s.Name, err)
		}
		res.Sessions = append(res.Sessions, *sr)
		if onSession != nil {
			onSession(s.Name, out)
		}
	}
	for _, pa := range p.Accounts {
		ab, err := r.balance(ctx, r.accounts[pa.Name])
		if err != nil {
			return nil, err
		}
		res.Accounts = append(res.Accounts, *ab)
	}
	res.Height = r.sim.Height()
	res.Timestamp = r.sim.Timestamp()
	return res, nil
}

func (r *runner) session(ctx context.Context, s Session) (*SessionResult, *intent.Outputs, error) {
	if s.PassTime != 0 {
		if err := r.sim.PassTime(s.PassTime); err != nil {
			return nil, nil, err
		}
	}
	sender := r.accounts[s.Sender]
	actions := make([]intent.Action, 0, len(s.Actions))
	for i, pa := range s.Actions {
		a, err := r.action(r, sender, pa)
		if err != nil {
			return nil, nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	out, err := r.wallet.Transact(ctx, sender.PuzzleHash, actions)
	if err != nil {
		return nil, nil, err
	}
	spends := out.CoinSpends()
	b, err := signer.SignBundle(r.c, r.keys, spends)
	if err != nil {
		return nil, nil, err
	}
	if err := r.sim.Submit(ctx, b); err != nil {
		return nil, nil, err
	}

	sr := &SessionResult{Name: s.Name, Spends: len(spends), Height: r.sim.Height()}
	minted := make(map[int]intent.ID)
	for i := range actions {
		id := out.Resolve(intent.New(i))
		if id.Kind() != intent.KindExisting {
			continue
		}
		minted[i] = id
		sr.Minted = append(sr.Minted, Minted{Action: i, AssetID: id.AssetID()})
	}
	r.minted[s.Name] = minted
	r.log.Info("session accepted",
		zap.String("session", s.Name),
		zap.String("sender", sender.Address),
		zap.Int("spends", len(spends)),
		zap.Int("minted", len(minted)))
	return sr, out, nil
}

func (r *runner) balance(ctx context.Context, acc *wallet.Account) (*AccountBalance, error) {
	all, err := r.sim.Assets(ctx, acc.PuzzleHash)
	if err != nil {
		return nil, err
	}
	var (
		ab = &AccountBalance{
			Name:       acc.Label,
			Address:    acc.Address,
			PuzzleHash: acc.PuzzleHash,
		}
		byID = make(map[util.Bytes32]*AssetBalance)
	)
	for _, a := range all {
		id := asset.ID(a)
		if id == nil {
			if _, ok := a.(asset.Xch); ok {
				ab.Xch += a.Value()
			}
			continue
		}
		bal, ok := byID[*id]
		if !ok {
			bal = &AssetBalance{AssetID: *id, Kind: kind(a)}
			byID[*id] = bal
		}
		bal.Amount += a.Value()
	}
	for _, bal := range byID {
		ab.Assets = append(ab.Assets, *bal)
	}
	sort.Slice(ab.Assets, func(i, j int) bool {
		return ab.Assets[i].AssetID.Less(ab.Assets[j].AssetID)
	})
	return ab, nil
}

func kind(a asset.Asset) string {
	switch a.(type) {
	case asset.Cat:
		return "cat"
	case asset.Nft:
		return "nft"
	case asset.Did:
		return "did"
	case asset.Option:
		return "option"
	default:
		return "unknown"
	}
}
