package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/toncenter-indexer/pkg/common/config"
	"github.com/fystack/toncenter-indexer/pkg/toncenter"
)

func testClient(t *testing.T, handler http.HandlerFunc) *toncenter.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return toncenter.NewClient(toncenter.ClientConfig{
		Endpoint:  srv.URL,
		Timeout:   5 * time.Second,
		RateLimit: toncenter.RateLimitConfig{RPS: 1000, Burst: 100},
	})
}

func TestFetchTransactions_RetriesTransportFailure(t *testing.T) {
	var hits atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"transactions": []any{}, "address_book": map[string]any{}})
	})

	cfg := retryConfig(config.RetryConfig{MaxAttempts: 3, InitialInterval: 10 * time.Millisecond})
	req := toncenter.NewTransactionsRequest().Limit(5)
	resp, err := fetchTransactions(context.Background(), client, req, cfg)
	require.NoError(t, err)
	assert.Empty(t, resp.Transactions)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchTransactions_StopsOnRejection(t *testing.T) {
	var hits atomic.Int32
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	cfg := retryConfig(config.RetryConfig{MaxAttempts: 3, InitialInterval: 10 * time.Millisecond})
	_, err := fetchTransactions(context.Background(), client, toncenter.NewTransactionsRequest(), cfg)
	assert.ErrorIs(t, err, toncenter.ErrRequestRejected)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchTransactions_CancelledWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cfg := retryConfig(config.RetryConfig{MaxAttempts: 3, InitialInterval: 10 * time.Millisecond})
	start := time.Now()
	_, err := fetchTransactions(ctx, client, toncenter.NewTransactionsRequest(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
