package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fystack/toncenter-indexer/pkg/common/constant"
	"github.com/fystack/toncenter-indexer/pkg/retry"
	"github.com/fystack/toncenter-indexer/pkg/store/toncursorstore"
	"github.com/fystack/toncenter-indexer/pkg/ton"
	"github.com/fystack/toncenter-indexer/pkg/toncenter"
)

// defaultMaxPages bounds one poll so a long backlog cannot starve other accounts.
const defaultMaxPages = 10

// TransactionSource is the part of the TonCenter client the poller needs.
type TransactionSource interface {
	Transactions(ctx context.Context, req *toncenter.TransactionsRequest) (*toncenter.TransactionsResponse, error)
}

type PollerConfig struct {
	BatchSize  int
	MaxPages   int
	FromLatest bool
	Retry      retry.ExponentialConfig
}

// Poller fetches the transactions of one account that lie past its cursor.
type Poller struct {
	source TransactionSource
	cfg    PollerConfig
	logger *slog.Logger
}

func NewPoller(source TransactionSource, cfg PollerConfig, logger *slog.Logger) *Poller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = constant.DefaultWatchBatchSize
	}
	if cfg.BatchSize > constant.MaxTransactionsPageSize {
		cfg.BatchSize = constant.MaxTransactionsPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = toncenter.IsRetryable
	}
	return &Poller{source: source, cfg: cfg, logger: logger}
}

// PollAccount returns new transactions oldest-first together with the cursor
// advanced to the newest of them. With no new transactions it returns the
// cursor unchanged. A nil cursor starts from the beginning of the history, or
// from the newest transaction when FromLatest is set.
func (p *Poller) PollAccount(ctx context.Context, addr ton.Address, cursor *toncursorstore.AccountCursor) ([]toncenter.Transaction, *toncursorstore.AccountCursor, error) {
	if addr.IsZero() {
		return nil, cursor, fmt.Errorf("poll: zero address")
	}
	if cursor == nil && p.cfg.FromLatest {
		latest, err := p.latest(ctx, addr)
		return nil, latest, err
	}

	next := &toncursorstore.AccountCursor{Address: addr}
	if cursor != nil {
		*next = *cursor
		next.Address = addr
	}

	var collected []toncenter.Transaction
	for page := 0; page < p.cfg.MaxPages; page++ {
		req := toncenter.NewTransactionsRequest().
			Address(addr).
			Sort(toncenter.SortAsc).
			Limit(p.cfg.BatchSize).
			Offset(page * p.cfg.BatchSize)
		if cursor != nil {
			req.StartLT(cursor.LastLT + 1)
		}

		resp, err := p.fetch(ctx, req)
		if err != nil {
			return nil, cursor, err
		}

		for _, tx := range resp.Transactions {
			// Guards against a service that ignores start_lt or repeats a page.
			if next.Covers(tx.LT) {
				continue
			}
			collected = append(collected, tx)
			next.LastLT = tx.LT
			next.LastHash = tx.Hash
		}

		if len(resp.Transactions) < p.cfg.BatchSize {
			break
		}
	}

	if len(collected) == 0 {
		return nil, cursor, nil
	}
	return collected, next, nil
}

func (p *Poller) latest(ctx context.Context, addr ton.Address) (*toncursorstore.AccountCursor, error) {
	req := toncenter.NewTransactionsRequest().Address(addr).Sort(toncenter.SortDesc).Limit(1)
	resp, err := p.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	cursor := &toncursorstore.AccountCursor{Address: addr}
	if len(resp.Transactions) > 0 {
		cursor.LastLT = resp.Transactions[0].LT
		cursor.LastHash = resp.Transactions[0].Hash
	}
	return cursor, nil
}

// fetch issues req, retrying transport failures with backoff.
func (p *Poller) fetch(ctx context.Context, req *toncenter.TransactionsRequest) (*toncenter.TransactionsResponse, error) {
	var resp *toncenter.TransactionsResponse
	cfg := p.cfg.Retry
	userOnRetry := cfg.OnRetry
	cfg.OnRetry = func(err error, next time.Duration) {
		p.logger.Debug("Retrying TonCenter request", "err", err, "next_retry", next)
		if userOnRetry != nil {
			userOnRetry(err, next)
		}
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}

	err := retry.ExponentialContext(ctx, func() error {
		r, err := p.source.Transactions(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
