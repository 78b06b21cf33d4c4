package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fystack/toncenter-indexer/pkg/common/constant"
	"github.com/fystack/toncenter-indexer/pkg/common/logger"
	"github.com/fystack/toncenter-indexer/pkg/common/types"
	"github.com/fystack/toncenter-indexer/pkg/events"
	"github.com/fystack/toncenter-indexer/pkg/infra"
	"github.com/fystack/toncenter-indexer/pkg/store/toncursorstore"
	"github.com/fystack/toncenter-indexer/pkg/ton"
)

type Config struct {
	Addresses    []ton.Address
	PollInterval time.Duration
	Concurrency  int
}

// Watcher polls every tracked account on an interval, publishes new
// transactions and persists each account's cursor.
type Watcher struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger

	poller  *Poller
	cursors toncursorstore.Store
	kv      infra.KVStore
	emitter events.Emitter

	configured   []ton.Address
	pollInterval time.Duration
	concurrency  int
}

func New(
	ctx context.Context,
	poller *Poller,
	cursors toncursorstore.Store,
	kv infra.KVStore,
	emitter events.Emitter,
	cfg Config,
) *Watcher {
	ctx, cancel := context.WithCancel(ctx)

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = constant.DefaultPollInterval
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Watcher{
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger.With(slog.String("worker", "toncenter-watcher")),
		poller:       poller,
		cursors:      cursors,
		kv:           kv,
		emitter:      emitter,
		configured:   cfg.Addresses,
		pollInterval: pollInterval,
		concurrency:  concurrency,
	}
}

// Start begins the polling loop.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop cancels the loop and waits for in-flight polls to finish.
func (w *Watcher) Stop() {
	w.cancel()
	w.wg.Wait()
	w.logger.Info("Watcher stopped")
}

func (w *Watcher) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("Watcher started", "poll_interval", w.pollInterval, "concurrency", w.concurrency)
	_ = w.PollOnce(w.ctx)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			_ = w.PollOnce(w.ctx)
		}
	}
}

// PollOnce runs one cycle over all tracked accounts. A failing account is
// logged and reported; the others are still polled. The returned error
// collects every account failure of the cycle.
func (w *Watcher) PollOnce(ctx context.Context) error {
	addrs, err := w.Tracked()
	if err != nil {
		w.logger.Error("Failed to load tracked accounts", "err", err)
		return err
	}
	if len(addrs) == 0 {
		w.logger.Debug("No accounts to poll")
		return nil
	}

	var (
		g    errgroup.Group
		errs types.MultiError
	)
	g.SetLimit(w.concurrency)
	for _, addr := range addrs {
		addr := addr
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := w.pollAccount(ctx, addr); err != nil && ctx.Err() == nil {
				w.logger.Error("Failed to poll account", "address", addr.Raw(), "err", err)
				w.emitError(addr, err)
				errs.Add(fmt.Errorf("%s: %w", addr.Raw(), err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs.ErrOrNil()
}

func (w *Watcher) pollAccount(ctx context.Context, addr ton.Address) error {
	log := w.logger.With("address", addr.Raw())

	cursor, err := w.cursors.Get(ctx, addr)
	if err != nil {
		return err
	}

	txs, next, err := w.poller.PollAccount(ctx, addr, cursor)
	if err != nil {
		return err
	}

	if len(txs) == 0 {
		// FromLatest bootstraps a cursor without transactions.
		if cursor == nil && next != nil {
			return w.cursors.Save(ctx, next)
		}
		return nil
	}

	log.Info("Found transactions", "count", len(txs), "from_lt", txs[0].LT, "to_lt", txs[len(txs)-1].LT)

	// The cursor only moves past transactions that were published.
	published := &toncursorstore.AccountCursor{Address: addr}
	if cursor != nil {
		*published = *cursor
	}
	var emitErr error
	for _, tx := range txs {
		if w.emitter != nil {
			if emitErr = w.emitter.EmitTransaction(tx); emitErr != nil {
				break
			}
		}
		log.Debug("Emitted transaction", "tx_hash", tx.Hash.String(), "lt", tx.LT, "success", tx.Success())
		published.LastLT = tx.LT
		published.LastHash = tx.Hash
	}
	if published.LastLT != next.LastLT {
		log.Warn("Cursor held back after emit failure", "last_lt", published.LastLT)
	}

	if published.LastLT > 0 && (cursor == nil || published.LastLT != cursor.LastLT) {
		if err := w.cursors.Save(ctx, published); err != nil {
			return err
		}
	}
	if emitErr != nil {
		return fmt.Errorf("emit transaction: %w", emitErr)
	}
	return nil
}

func (w *Watcher) emitError(addr ton.Address, err error) {
	if w.emitter == nil {
		return
	}
	if emitErr := w.emitter.EmitError(addr, err); emitErr != nil {
		w.logger.Warn("Failed to emit error event", "address", addr.Raw(), "err", emitErr)
	}
}

// Tracked returns configured and runtime-added accounts, deduplicated, in
// a stable order.
func (w *Watcher) Tracked() ([]ton.Address, error) {
	extra, err := LoadTracked(w.kv)
	if err != nil {
		return nil, err
	}
	return mergeAddresses(w.configured, extra), nil
}

func mergeAddresses(lists ...[]ton.Address) []ton.Address {
	seen := make(map[string]struct{})
	var out []ton.Address
	for _, list := range lists {
		for _, a := range list {
			if a.IsZero() {
				continue
			}
			if _, ok := seen[a.Raw()]; ok {
				continue
			}
			seen[a.Raw()] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// LoadTracked reads the runtime-tracked accounts from kv.
func LoadTracked(kv infra.KVStore) ([]ton.Address, error) {
	if kv == nil {
		return nil, nil
	}
	var raw []string
	found, err := kv.GetAny(constant.TonTrackedKey, &raw)
	if err != nil {
		return nil, fmt.Errorf("get tracked accounts: %w", err)
	}
	if !found {
		return nil, nil
	}
	addrs := make([]ton.Address, 0, len(raw))
	for _, s := range raw {
		a, err := ton.ParseAddress(s)
		if err != nil {
			logger.Warn("Skipping invalid tracked address", "address", s, "err", err)
			continue
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

func saveTracked(kv infra.KVStore, addrs []ton.Address) error {
	raw := make([]string, len(addrs))
	for i, a := range addrs {
		raw[i] = a.Raw()
	}
	return kv.SetAny(constant.TonTrackedKey, raw)
}

// AddAddress starts tracking addr. Adding a tracked address is a no-op.
func AddAddress(kv infra.KVStore, addr ton.Address) error {
	if addr.IsZero() {
		return fmt.Errorf("add: zero address")
	}
	current, err := LoadTracked(kv)
	if err != nil {
		return err
	}
	return saveTracked(kv, mergeAddresses(current, []ton.Address{addr}))
}

// RemoveAddress stops tracking addr and drops its cursor.
func RemoveAddress(ctx context.Context, kv infra.KVStore, cursors toncursorstore.Store, addr ton.Address) error {
	current, err := LoadTracked(kv)
	if err != nil {
		return err
	}
	kept := current[:0]
	for _, a := range current {
		if !a.Equal(addr) {
			kept = append(kept, a)
		}
	}
	if err := saveTracked(kv, kept); err != nil {
		return err
	}
	return cursors.Delete(ctx, addr)
}
