package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/fystack/toncenter-indexer/pkg/common/logger"
)

const publishTimeout = 5 * time.Second

type MessageQueue interface {
	Enqueue(topic string, message []byte, options *EnqueueOptions) error
	Close()
}

type EnqueueOptions struct {
	// IdempotencyKey becomes Nats-Msg-Id; JetStream drops repeats inside the
	// stream's duplicate window.
	IdempotencyKey string
}

type StreamOptions struct {
	Name     string
	Subjects []string
	MaxAge   time.Duration
	// Duplicates is the dedupe window for IdempotencyKey.
	Duplicates time.Duration
}

type jetStreamQueue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewJetStreamQueue ensures the stream exists and returns a publisher for it.
// The queue owns nc and closes it on Close.
func NewJetStreamQueue(ctx context.Context, nc *nats.Conn, opts StreamOptions) (MessageQueue, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 2 * 24 * time.Hour
	}
	if opts.Duplicates <= 0 {
		opts.Duplicates = 10 * time.Minute
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        opts.Name,
		Description: "TON transactions observed through TonCenter",
		Subjects:    opts.Subjects,
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      opts.MaxAge,
		Duplicates:  opts.Duplicates,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream %s: %w", opts.Name, err)
	}
	info := stream.CachedInfo()
	logger.Info("JetStream stream ready", "name", info.Config.Name, "subjects", info.Config.Subjects, "msgs", info.State.Msgs)

	return &jetStreamQueue{nc: nc, js: js}, nil
}

func (q *jetStreamQueue) Enqueue(topic string, message []byte, options *EnqueueOptions) error {
	msg := &nats.Msg{Subject: topic, Data: message, Header: nats.Header{}}
	if options != nil && options.IdempotencyKey != "" {
		msg.Header.Set(jetstream.MsgIDHeader, options.IdempotencyKey)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	ack, err := q.js.PublishMsg(ctx, msg)
	if err != nil {
		return fmt.Errorf("error enqueueing message: %w", err)
	}
	logger.Debug("Enqueued message", "topic", topic, "size", len(message), "seq", ack.Sequence, "duplicate", ack.Duplicate)
	return nil
}

func (q *jetStreamQueue) Close() {
	if err := q.nc.Drain(); err != nil {
		q.nc.Close()
	}
}
