package infra

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fystack/toncenter-indexer/pkg/common/config"
	"github.com/fystack/toncenter-indexer/pkg/common/logger"
)

// GetNATSConnection dials NATS with reconnect-forever semantics and logging
// handlers. TLS is enabled when a client certificate is configured.
func GetNATSConnection(cfg config.NATSConfig) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("toncenter-indexer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ErrorHandler(natsErrHandler),
	}

	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.TLS.ClientCert != "" {
		opts = append(opts, nats.ClientCert(cfg.TLS.ClientCert, cfg.TLS.ClientKey))
	}
	if cfg.TLS.CACert != "" {
		opts = append(opts, nats.RootCAs(cfg.TLS.CACert))
	}

	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	return nats.Connect(url, opts...)
}

func natsErrHandler(_ *nats.Conn, sub *nats.Subscription, natsErr error) {
	if errors.Is(natsErr, nats.ErrSlowConsumer) && sub != nil {
		pending, _, err := sub.Pending()
		if err == nil {
			logger.Error("Falling behind with pending messages on subject", "pending", pending, "subject", sub.Subject)
			return
		}
	}
	logger.Error("NATS error", "err", natsErr)
}
