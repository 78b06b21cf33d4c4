package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/fystack/toncenter-indexer/pkg/common/config"
	"github.com/fystack/toncenter-indexer/pkg/common/logger"
	"github.com/fystack/toncenter-indexer/pkg/events"
	"github.com/fystack/toncenter-indexer/pkg/infra"
	"github.com/fystack/toncenter-indexer/pkg/retry"
	"github.com/fystack/toncenter-indexer/pkg/ton"
	"github.com/fystack/toncenter-indexer/pkg/toncenter"
)

// setup loads the config, applies flag overrides and installs the logger.
func (c *CLI) setup() (*config.Config, error) {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return nil, err
	}
	if c.Endpoint != "" {
		cfg.TonCenter.Endpoint = c.Endpoint
	}
	if c.APIKey != "" {
		cfg.TonCenter.APIKey = c.APIKey
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Debug {
		level = slog.LevelDebug
	}
	logger.Init(&logger.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.Log.NoColor,
	})
	return cfg, nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		defaults := config.Defaults()
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func newClient(cfg config.TonCenterConfig) *toncenter.Client {
	return toncenter.NewClient(toncenter.ClientConfig{
		Endpoint: cfg.Endpoint,
		APIKey:   cfg.APIKey,
		AuthMode: toncenter.AuthMode(cfg.AuthMode),
		Timeout:  cfg.Timeout,
		RateLimit: toncenter.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		},
	})
}

func retryConfig(cfg config.RetryConfig) retry.ExponentialConfig {
	return retry.ExponentialConfig{
		InitialInterval: cfg.InitialInterval,
		MaxElapsedTime:  cfg.MaxElapsed,
		MaxAttempts:     cfg.MaxAttempts,
		Retryable:       toncenter.IsRetryable,
		OnRetry: func(err error, next time.Duration) {
			logger.Warn("TonCenter request failed, retrying", "err", err, "next_retry", next)
		},
	}
}

// newEmitter returns nil when NATS is not configured.
func newEmitter(ctx context.Context, cfg config.NATSConfig) (events.Emitter, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	nc, err := infra.GetNATSConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	queue, err := infra.NewJetStreamQueue(ctx, nc, infra.StreamOptions{
		Name:     cfg.Stream,
		Subjects: []string{events.SubjectWildcard(cfg.SubjectPrefix)},
	})
	if err != nil {
		nc.Close()
		return nil, err
	}
	return events.NewEmitter(queue, cfg.SubjectPrefix), nil
}

func parseAddresses(raw []string) ([]ton.Address, error) {
	addrs := make([]ton.Address, 0, len(raw))
	for _, s := range raw {
		a, err := ton.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", s, err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}
