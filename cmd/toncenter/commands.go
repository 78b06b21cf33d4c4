package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fystack/toncenter-indexer/internal/watcher"
	"github.com/fystack/toncenter-indexer/pkg/common/logger"
	"github.com/fystack/toncenter-indexer/pkg/events"
	"github.com/fystack/toncenter-indexer/pkg/infra"
	"github.com/fystack/toncenter-indexer/pkg/kvstore"
	"github.com/fystack/toncenter-indexer/pkg/retry"
	"github.com/fystack/toncenter-indexer/pkg/store/toncursorstore"
	"github.com/fystack/toncenter-indexer/pkg/ton"
	"github.com/fystack/toncenter-indexer/pkg/toncenter"
)

func (c *TransactionsCmd) Run(cli *CLI) error {
	cfg, err := cli.setup()
	if err != nil {
		return err
	}
	addr, err := ton.ParseAddress(c.Address)
	if err != nil {
		return err
	}

	req := toncenter.NewTransactionsRequest().
		Address(addr).
		Limit(c.Limit).
		Offset(c.Offset).
		Sort(toncenter.SortOrder(c.Sort))
	if c.StartLT > 0 {
		req.StartLT(c.StartLT)
	}
	if c.EndLT > 0 {
		req.EndLT(c.EndLT)
	}

	ctx, stop := signalContext()
	defer stop()

	resp, err := fetchTransactions(ctx, newClient(cfg.TonCenter), req, retryConfig(cfg.TonCenter.Retry))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, tx := range resp.Transactions {
		if c.JSON {
			if err := enc.Encode(events.NewTransactionEvent(tx)); err != nil {
				return err
			}
			continue
		}
		fmt.Println(tx.Format())
	}
	return nil
}

// fetchTransactions issues each attempt asynchronously and waits on it, so a
// cancelled ctx ends the command even while a request is in flight.
func fetchTransactions(ctx context.Context, client *toncenter.Client, req *toncenter.TransactionsRequest, cfg retry.ExponentialConfig) (*toncenter.TransactionsResponse, error) {
	var resp *toncenter.TransactionsResponse
	err := retry.ExponentialContext(ctx, func() error {
		r, err := client.TransactionsAsync(ctx, req).Wait(ctx)
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

func (c *MasterchainCmd) Run(cli *CLI) error {
	cfg, err := cli.setup()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	info, err := newClient(cfg.TonCenter).MasterchainInfo(ctx)
	if err != nil {
		return err
	}
	for _, b := range []struct {
		name  string
		block toncenter.Block
	}{{"first", info.First}, {"last", info.Last}} {
		fmt.Printf("%s seqno=%d shard=%s start_lt=%d end_lt=%d gen_utime=%d root_hash=%s\n",
			b.name, b.block.Seqno, b.block.Shard, b.block.StartLT, b.block.EndLT, b.block.GenUTime, b.block.RootHash)
	}
	return nil
}

func (c *ShardsCmd) Run(cli *CLI) error {
	cfg, err := cli.setup()
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	client := newClient(cfg.TonCenter)
	seqno := c.Seqno
	if seqno <= 0 {
		info, err := client.MasterchainInfo(ctx)
		if err != nil {
			return err
		}
		seqno = info.Last.Seqno
	}

	var resp *toncenter.BlocksResponse
	if c.State {
		resp, err = client.MasterchainBlockShardState(ctx, seqno)
	} else {
		resp, err = client.MasterchainBlockShards(ctx, seqno)
	}
	if err != nil {
		return err
	}
	for _, b := range resp.Blocks {
		fmt.Printf("workchain=%d shard=%s seqno=%d start_lt=%d end_lt=%d tx_count=%d root_hash=%s\n",
			b.Workchain, b.Shard, b.Seqno, b.StartLT, b.EndLT, b.TxCount, b.RootHash)
	}
	return nil
}

func (c *AccountCmd) Run(cli *CLI) error {
	cfg, err := cli.setup()
	if err != nil {
		return err
	}
	addrs, err := parseAddresses(c.Address)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	client := newClient(cfg.TonCenter)
	req := toncenter.AccountRequest{Addresses: addrs}

	states, err := client.AccountStates(ctx, req)
	if err != nil {
		return err
	}
	wallets, err := client.WalletStates(ctx, req)
	if err != nil {
		return err
	}
	meta, err := client.Metadata(ctx, addrs)
	if err != nil {
		return err
	}
	kinds := make(map[string]string, len(wallets.Wallets))
	for _, w := range wallets.Wallets {
		if w.IsWallet && w.WalletType != nil {
			kinds[w.Address.Raw()] = *w.WalletType
		}
	}

	for _, a := range states.Accounts {
		status := "nonexist"
		if a.Status != nil {
			status = *a.Status
		}
		line := fmt.Sprintf("address=%s status=%s balance=%s", a.Address.NonBounceable(), status, ton.CoinsOrZero(a.Balance))
		if kind, ok := kinds[a.Address.Raw()]; ok {
			line += " wallet=" + kind
		}
		if a.LastTransactionLT != nil {
			line += fmt.Sprintf(" last_lt=%d", *a.LastTransactionLT)
		}
		if m, ok := meta.Lookup(a.Address); ok {
			line += fmt.Sprintf(" indexed=%t", m.IsIndexed)
			for _, token := range m.TokenInfo {
				if token.Symbol != nil {
					line += " token=" + *token.Symbol
				}
			}
		}
		fmt.Println(line)
	}
	return nil
}

func (c *WatchCmd) Run(cli *CLI) error {
	cfg, err := cli.setup()
	if err != nil {
		return err
	}
	if c.FromLatest {
		cfg.Watcher.FromLatest = true
	}
	addrs, err := parseAddresses(cfg.Watcher.Addresses)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	kv, err := kvstore.NewFromConfig(cfg.KVStore)
	if err != nil {
		return fmt.Errorf("open kvstore: %w", err)
	}
	defer kv.Close()
	logger.Info("KV store ready", "store", kv.GetName(), "codec", cfg.KVStore.Codec)

	emitter, err := newEmitter(ctx, cfg.NATS)
	if err != nil {
		return err
	}
	if emitter != nil {
		defer emitter.Close()
	} else {
		logger.Warn("NATS is not configured, transactions are only logged")
	}

	client := newClient(cfg.TonCenter)
	poller := watcher.NewPoller(client, watcher.PollerConfig{
		BatchSize:  cfg.Watcher.BatchSize,
		FromLatest: cfg.Watcher.FromLatest,
		Retry:      retryConfig(cfg.TonCenter.Retry),
	}, logger.With("component", "poller"))

	w := watcher.New(ctx, poller, toncursorstore.New(kv), kv, emitter, watcher.Config{
		Addresses:    addrs,
		PollInterval: cfg.Watcher.PollInterval,
	})

	if c.Once {
		return w.PollOnce(ctx)
	}

	w.Start()
	logger.Info("Watcher is running... Press Ctrl+C to stop", "endpoint", client.Endpoint())
	<-ctx.Done()
	w.Stop()
	return nil
}

func (c *TrackAddCmd) Run(cli *CLI) error {
	addr, err := ton.ParseAddress(c.Address)
	if err != nil {
		return err
	}
	return withStore(cli, func(kv infra.KVStore, _ toncursorstore.Store) error {
		if err := watcher.AddAddress(kv, addr); err != nil {
			return err
		}
		logger.Info("Tracking address", "address", addr.Raw())
		return nil
	})
}

func (c *TrackRemoveCmd) Run(cli *CLI) error {
	addr, err := ton.ParseAddress(c.Address)
	if err != nil {
		return err
	}
	return withStore(cli, func(kv infra.KVStore, cursors toncursorstore.Store) error {
		if err := watcher.RemoveAddress(context.Background(), kv, cursors, addr); err != nil {
			return err
		}
		logger.Info("Stopped tracking address", "address", addr.Raw())
		return nil
	})
}

func (c *TrackListCmd) Run(cli *CLI) error {
	return withStore(cli, func(kv infra.KVStore, cursors toncursorstore.Store) error {
		tracked, err := watcher.LoadTracked(kv)
		if err != nil {
			return err
		}
		for _, addr := range tracked {
			cursor, err := cursors.Get(context.Background(), addr)
			if err != nil {
				return err
			}
			if cursor == nil {
				fmt.Printf("%s cursor=none\n", addr.NonBounceable())
				continue
			}
			fmt.Printf("%s last_lt=%d last_hash=%s updated_at=%s\n",
				addr.NonBounceable(), cursor.LastLT, cursor.LastHash, cursor.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	})
}

func (c *NATSPrinterCmd) Run(cli *CLI) error {
	cfg, err := cli.setup()
	if err != nil {
		return err
	}
	if !cfg.NATS.Enabled() {
		return errors.New("nats.url is not configured")
	}
	nc, err := infra.GetNATSConnection(cfg.NATS)
	if err != nil {
		return err
	}
	defer nc.Close()

	subject := events.SubjectWildcard(cfg.NATS.SubjectPrefix)
	_, err = nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev events.TransactionEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.Hash == "" {
			fmt.Printf("[%s] %s\n", msg.Subject, msg.Data)
			return
		}
		balance := "0"
		if ev.Balance != nil {
			balance = *ev.Balance
		}
		fmt.Printf("[%s] hash=%s lt=%d balance=%s success=%t\n", msg.Subject, ev.Hash, ev.LT, balance, ev.Success)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	logger.Info("Subscribed to", "subject", subject)

	ctx, stop := signalContext()
	defer stop()
	<-ctx.Done()
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func withStore(cli *CLI, fn func(kv infra.KVStore, cursors toncursorstore.Store) error) error {
	cfg, err := cli.setup()
	if err != nil {
		return err
	}
	kv, err := kvstore.NewFromConfig(cfg.KVStore)
	if err != nil {
		return fmt.Errorf("open kvstore: %w", err)
	}
	defer kv.Close()
	return fn(kv, toncursorstore.New(kv))
}
