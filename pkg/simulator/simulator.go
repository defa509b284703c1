/*
Package simulator implements an in-process ledger of puzzle-locked coins. It
mints test coins, answers coin source queries, validates spend bundles and
applies the valid ones.
*/
package simulator

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/spendkit/pkg/asset"
	"github.com/nspcc-dev/spendkit/pkg/coin"
	"github.com/nspcc-dev/spendkit/pkg/crypto/hash"
	"github.com/nspcc-dev/spendkit/pkg/puzzle"
	"github.com/nspcc-dev/spendkit/pkg/storage"
	"github.com/nspcc-dev/spendkit/pkg/util"
	"github.com/nspcc-dev/spendkit/pkg/wallet"
	"go.uber.org/zap"
)

// DefaultCacheSize is the number of coin records cached by default.
const DefaultCacheSize = 1024

// Config is the simulator configuration.
type Config struct {
	// CacheSize is the size of coin records cache.
	CacheSize int
	// Timestamp is the initial ledger time for an empty store.
	Timestamp uint64
}

// Simulator is the ledger. It's safe for concurrent use.
type Simulator struct {
	c   *puzzle.Constants
	log *zap.Logger

	lock      sync.RWMutex
	store     storage.Store
	cache     *lru.Cache
	height    uint32
	timestamp uint64
}

// New returns a simulator keeping its state in the store. The height and
// the time are restored from the store if it has them.
func New(c *puzzle.Constants, store storage.Store, log *zap.Logger, cfg Config) (*Simulator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		c:         c,
		log:       log,
		store:     store,
		cache:     cache,
		timestamp: cfg.Timestamp,
	}
	if v, err := store.Get(storage.SYSHeight.Bytes()); err == nil {
		if len(v) != 4 {
			return nil, fmt.Errorf("invalid stored height of %d bytes", len(v))
		}
		s.height = binary.LittleEndian.Uint32(v)
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to get height: %w", err)
	}
	if v, err := store.Get(storage.SYSTimestamp.Bytes()); err == nil {
		if len(v) != 8 {
			return nil, fmt.Errorf("invalid stored timestamp of %d bytes", len(v))
		}
		s.timestamp = binary.LittleEndian.Uint64(v)
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, fmt.Errorf("failed to get timestamp: %w", err)
	}
	updateLedgerHeightMetric(s.height)
	log.Info("simulator started",
		zap.Uint32("height", s.height),
		zap.Uint64("timestamp", s.timestamp))
	return s, nil
}

// Constants returns the constants used by the ledger.
func (s *Simulator) Constants() *puzzle.Constants {
	return s.c
}

// Height returns the number of state changes (mints and bundles) applied.
func (s *Simulator) Height() uint32 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.height
}

// Timestamp returns the current ledger time.
func (s *Simulator) Timestamp() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.timestamp
}

// SetTimestamp sets the ledger time.
func (s *Simulator) SetTimestamp(t uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.setTimestamp(t)
}

// PassTime moves the ledger time forward.
func (s *Simulator) PassTime(d uint64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.setTimestamp(s.timestamp + d)
}

func (s *Simulator) setTimestamp(t uint64) error {
	v := binary.LittleEndian.AppendUint64(nil, t)
	if err := s.store.PutChangeSet(map[string][]byte{string(storage.SYSTimestamp.Bytes()): v}); err != nil {
		return err
	}
	s.timestamp = t
	return nil
}

// Mint creates a native coin out of thin air.
func (s *Simulator) Mint(puzzleHash util.Bytes32, amount uint64) (coin.Coin, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	parent := hash.Sha256Concat([]byte("mint"), binary.LittleEndian.AppendUint32(nil, s.height))
	cn := coin.New(parent, puzzleHash, amount)
	puts := make(map[string][]byte)
	s.addRecord(puts, &Record{Asset: asset.Xch{Coin: cn}, ConfirmedHeight: s.height + 1})
	if err := s.commit(puts); err != nil {
		return coin.Coin{}, err
	}
	s.log.Debug("coin minted",
		zap.Stringer("coin", cn.ID()),
		zap.Stringer("puzzle_hash", puzzleHash),
		zap.Uint64("amount", amount))
	return cn, nil
}

// Coin returns the record of the coin.
func (s *Simulator) Coin(id util.Bytes32) (*Record, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.record(id)
}

// Assets returns records of unspent coins controlled by the inner puzzle
// hash in the order of coin IDs.
func (s *Simulator) Assets(ctx context.Context, owner util.Bytes32) ([]asset.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.assets(owner)
}

func (s *Simulator) assets(owner util.Bytes32) ([]asset.Asset, error) {
	var (
		prefix = storage.IXOwner.Key(owner[:])
		ids    []util.Bytes32
	)
	s.store.Seek(storage.SeekRange{Prefix: prefix}, func(k, _ []byte) bool {
		var id util.Bytes32
		copy(id[:], k[len(prefix):])
		ids = append(ids, id)
		return true
	})
	res := make([]asset.Asset, 0, len(ids))
	for _, id := range ids {
		r, err := s.record(id)
		if err != nil {
			return nil, err
		}
		res = append(res, r.Asset)
	}
	return res, nil
}

// UnspentCoins implements the wallet.CoinSource interface. Native coins
// are returned for the namespace without asset ID, CATs of the asset or
// the singleton with the launcher ID otherwise.
func (s *Simulator) UnspentCoins(ctx context.Context, ns wallet.Namespace) ([]asset.Asset, error) {
	all, err := s.Assets(ctx, ns.Owner)
	if err != nil {
		return nil, err
	}
	var res []asset.Asset
	for _, a := range all {
		id := asset.ID(a)
		switch {
		case ns.AssetID == nil:
			if _, ok := a.(asset.Xch); ok {
				res = append(res, a)
			}
		case id != nil && *id == *ns.AssetID:
			res = append(res, a)
		}
	}
	return res, nil
}

// Submit validates the bundle and applies it to the ledger.
func (s *Simulator) Submit(ctx context.Context, b *coin.SpendBundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	h := b.Hash()
	eff, err := s.validate(b)
	if err != nil {
		bundlesRejected.Inc()
		s.log.Debug("bundle rejected", zap.Stringer("bundle", h), zap.Error(err))
		return err
	}
	if err := s.apply(eff); err != nil {
		return fmt.Errorf("failed to apply bundle %s: %w", h, err)
	}
	bundlesAccepted.Inc()
	s.log.Info("bundle accepted",
		zap.Stringer("bundle", h),
		zap.Uint32("height", s.height),
		zap.Int("removals", len(eff.spends)),
		zap.Int("additions", len(eff.additions)))
	return nil
}

// Close closes the underlying store.
func (s *Simulator) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cache.Purge()
	return s.store.Close()
}

// record returns the ledger record of the coin, the lock must be held.
func (s *Simulator) record(id util.Bytes32) (*Record, error) {
	if v, ok := s.cache.Get(id); ok {
		return v.(*Record), nil
	}
	b, err := s.store.Get(storage.DataCoin.Key(id[:]))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCoinNotFound, id)
		}
		return nil, err
	}
	r, err := decodeRecord(b)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, r)
	return r, nil
}

// addRecord puts the record into the changeset along with its owner
// index entry.
func (s *Simulator) addRecord(puts map[string][]byte, r *Record) {
	var (
		id    = r.Asset.AssetCoin().ID()
		owner = r.Asset.P2PuzzleHash()
		ix    = string(storage.IXOwner.Key(owner[:], id[:]))
	)
	puts[string(storage.DataCoin.Key(id[:]))] = encodeRecord(r)
	if r.Spent {
		puts[ix] = nil
	} else {
		puts[ix] = []byte{}
	}
	s.cache.Remove(id)
}

// commit writes the changeset along with the next height.
func (s *Simulator) commit(puts map[string][]byte) error {
	puts[string(storage.SYSHeight.Bytes())] = binary.LittleEndian.AppendUint32(nil, s.height+1)
	if err := s.store.PutChangeSet(puts); err != nil {
		return err
	}
	s.height++
	updateLedgerHeightMetric(s.height)
	return nil
}

func (s *Simulator) apply(eff *effects) error {
	var (
		puts   = make(map[string][]byte)
		height = s.height + 1
	)
	for _, sp := range eff.spends {
		r := &Record{Asset: sp.rec, ConfirmedHeight: height, Spent: true, SpentHeight: height}
		if sp.stored != nil {
			r.ConfirmedHeight = sp.stored.ConfirmedHeight
			unindex(puts, sp.stored.Asset)
		}
		s.addRecord(puts, r)
	}
	for _, a := range eff.additions {
		s.addRecord(puts, &Record{Asset: a, ConfirmedHeight: height})
	}
	if err := s.commit(puts); err != nil {
		return err
	}
	coinsCreated.Add(float64(len(eff.additions) + eff.ephemeral))
	return nil
}

// unindex removes the owner index entry of the record.
func unindex(puts map[string][]byte, a asset.Asset) {
	var (
		id    = a.AssetCoin().ID()
		owner = a.P2PuzzleHash()
	)
	puts[string(storage.IXOwner.Key(owner[:], id[:]))] = nil
}
