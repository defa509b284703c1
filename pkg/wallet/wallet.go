/*
Package wallet runs spend sessions: it binds coins from a coin source to an
action list, builds and authorizes the spends.
*/
package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nspcc-dev/spendkit/pkg/coinselect"
	"github.com/nspcc-dev/spendkit/pkg/intent"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"go.uber.org/zap"
)

// Wallet compiles action lists into coin spends.
type Wallet struct {
	c        *puzzle.Constants
	source   CoinSource
	auth     intent.Authorizer
	log      *zap.Logger
	relation intent.Relation
}

// Option is a Wallet option.
type Option func(*Wallet)

// WithRelation sets the relation between spends of the same asset.
func WithRelation(r intent.Relation) Option {
	return func(w *Wallet) {
		w.relation = r
	}
}

// New returns a wallet using the coin source and the authorizer.
func New(c *puzzle.Constants, source CoinSource, auth intent.Authorizer, log *zap.Logger, opts ...Option) *Wallet {
	if log == nil {
		log = zap.NewNop()
	}
	w := &Wallet{
		c:      c,
		source: source,
		auth:   auth,
		log:    log,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Transact runs the actions on behalf of the owner (inner puzzle hash of
// the coins spent, change goes back to it) and returns the outputs with
// authorized coin spends.
func (w *Wallet) Transact(ctx context.Context, owner util.Bytes32, actions []intent.Action) (*intent.Outputs, error) {
	sessions.Inc()
	log := w.log.With(
		zap.String("session", uuid.NewString()),
		zap.Stringer("owner", owner))
	log.Debug("session started", zap.Int("actions", len(actions)))

	out, err := w.transact(ctx, log, owner, actions)
	if err != nil {
		addFailure(err)
		log.Info("session failed", zap.Error(err))
		return nil, err
	}
	log.Info("session finished", zap.Int("spends", len(out.CoinSpends())))
	return out, nil
}

func (w *Wallet) transact(ctx context.Context, log *zap.Logger, owner util.Bytes32, actions []intent.Action) (*intent.Outputs, error) {
	var (
		deltas = intent.FromActions(actions)
		spends = intent.NewSpends(w.c, owner, intent.WithRelation(w.relation))
	)
	for _, id := range deltas.IDs() {
		d, _ := deltas.Get(id)
		required := d.Required()
		if required.IsZero() {
			continue
		}
		ns := Namespace{Owner: owner}
		switch id.Kind() {
		case intent.KindXch:
		case intent.KindExisting:
			assetID := id.AssetID()
			ns.AssetID = &assetID
		case intent.KindNew:
			continue
		default:
			panic("unknown id kind")
		}
		candidates, err := w.source.UnspentCoins(ctx, ns)
		if err != nil {
			return nil, fmt.Errorf("coin source: %w", err)
		}
		if id.Kind() == intent.KindExisting && len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no coins of %s", intent.ErrUnresolvedID, id)
		}
		selected, err := coinselect.Select(candidates, required)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		for _, a := range selected {
			if err := spends.Add(a); err != nil {
				return nil, err
			}
			log.Debug("coin selected",
				zap.Stringer("id", id),
				zap.Stringer("coin", a.AssetCoin().ID()),
				zap.Uint64("amount", a.Value()))
		}
		selectedCoins.Add(float64(len(selected)))
	}
	deltas, err := spends.Apply(actions)
	if err != nil {
		return nil, err
	}
	f, err := spends.Prepare(deltas)
	if err != nil {
		return nil, err
	}
	if err := f.Authorize(ctx, w.auth); err != nil {
		return nil, err
	}
	return f.Spend()
}
