package toncenter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/fystack/toncenter-indexer/pkg/common/logger"
	"github.com/fystack/toncenter-indexer/pkg/ratelimiter"
	"github.com/fystack/toncenter-indexer/pkg/ton"
)

const (
	DefaultEndpoint = "https://toncenter.com"
	DefaultTimeout  = 30 * time.Second

	// Anonymous TonCenter quota.
	anonymousRPS = 1

	apiPrefix      = "/api/v3"
	maxErrorBody   = 4 << 10
	apiKeyHeader   = "X-API-Key"
	apiKeyQueryArg = "api_key"
)

type AuthMode string

const (
	AuthModeHeader AuthMode = "header"
	AuthModeQuery  AuthMode = "query"
)

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type ClientConfig struct {
	Endpoint   string
	APIKey     string
	AuthMode   AuthMode
	Timeout    time.Duration
	RateLimit  RateLimitConfig
	HTTPClient *http.Client // optional; Timeout is ignored when set
}

// Client talks to the TonCenter v3 HTTP API. Every call is a single round
// trip; retries are left to the caller.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	authMode    AuthMode
	rateLimiter *ratelimiter.RateLimiter
}

func NewClient(cfg ClientConfig) *Client {
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rps, burst := cfg.RateLimit.RPS, cfg.RateLimit.Burst
	if rps <= 0 && cfg.APIKey == "" {
		rps = anonymousRPS
	}
	var limiter *ratelimiter.RateLimiter
	if rps > 0 {
		limiter = ratelimiter.GetOrCreateRateLimiter(endpoint+"|"+cfg.APIKey, rps, burst)
	}

	authMode := cfg.AuthMode
	if authMode == "" {
		authMode = AuthModeHeader
	}

	return &Client{
		httpClient:  httpClient,
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		authMode:    authMode,
		rateLimiter: limiter,
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// Transactions fetches one page of transactions matching req.
func (c *Client) Transactions(ctx context.Context, req *TransactionsRequest) (*TransactionsResponse, error) {
	if req == nil {
		return nil, rejected("nil transactions request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp TransactionsResponse
	if err := c.get(ctx, "/transactions", req.query(), &resp); err != nil {
		return nil, err
	}

	if limit := req.MaxResults(); limit > 0 && len(resp.Transactions) > limit {
		return nil, fmt.Errorf("%w: malformed response: %d transactions for limit %d",
			ErrTransportFailure, len(resp.Transactions), limit)
	}
	return &resp, nil
}

// TransactionsAsync issues Transactions on its own goroutine.
func (c *Client) TransactionsAsync(ctx context.Context, req *TransactionsRequest) *Future[*TransactionsResponse] {
	return Go(ctx, func(ctx context.Context) (*TransactionsResponse, error) {
		return c.Transactions(ctx, req)
	})
}

func (c *Client) MasterchainInfo(ctx context.Context) (*MasterchainInfo, error) {
	var info MasterchainInfo
	if err := c.get(ctx, "/masterchainInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) AccountStates(ctx context.Context, req AccountRequest) (*AccountStatesResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var resp AccountStatesResponse
	if err := c.get(ctx, "/accountStates", req.query(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) WalletStates(ctx context.Context, req AccountRequest) (*WalletStatesResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var resp WalletStatesResponse
	if err := c.get(ctx, "/walletStates", addressQuery(req.Addresses), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AddressBook(ctx context.Context, addrs []ton.Address) (AddressBook, error) {
	if err := (AccountRequest{Addresses: addrs}).validate(); err != nil {
		return nil, err
	}
	var book AddressBook
	if err := c.get(ctx, "/addressBook", addressQuery(addrs), &book); err != nil {
		return nil, err
	}
	return book, nil
}

// Blocks fetches one page of blocks matching req.
func (c *Client) Blocks(ctx context.Context, req *BlocksRequest) (*BlocksResponse, error) {
	if req == nil {
		return nil, rejected("nil blocks request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var resp BlocksResponse
	if err := c.get(ctx, "/blocks", req.query(), &resp); err != nil {
		return nil, err
	}
	if limit := req.MaxResults(); limit > 0 && len(resp.Blocks) > limit {
		return nil, fmt.Errorf("%w: malformed response: %d blocks for limit %d",
			ErrTransportFailure, len(resp.Blocks), limit)
	}
	return &resp, nil
}

// MasterchainBlockShardState returns the shard blocks current as of the
// masterchain block seqno.
func (c *Client) MasterchainBlockShardState(ctx context.Context, seqno int32) (*BlocksResponse, error) {
	return c.shardBlocks(ctx, "/masterchainBlockShardState", seqno)
}

// MasterchainBlockShards returns the shard blocks committed in the masterchain
// block seqno, together with the masterchain block itself.
func (c *Client) MasterchainBlockShards(ctx context.Context, seqno int32) (*BlocksResponse, error) {
	return c.shardBlocks(ctx, "/masterchainBlockShards", seqno)
}

func (c *Client) shardBlocks(ctx context.Context, path string, seqno int32) (*BlocksResponse, error) {
	if seqno <= 0 {
		return nil, rejected("masterchain seqno must be positive, got %d", seqno)
	}
	q := url.Values{}
	q.Set("seqno", strconv.FormatInt(int64(seqno), 10))
	var resp BlocksResponse
	if err := c.get(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Metadata returns indexing state and token info for addrs, keyed by raw address.
func (c *Client) Metadata(ctx context.Context, addrs []ton.Address) (Metadata, error) {
	if err := (AccountRequest{Addresses: addrs}).validate(); err != nil {
		return nil, err
	}
	var meta Metadata
	if err := c.get(ctx, "/metadata", addressQuery(addrs), &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// RunGetMethod executes a get method of a contract against its latest state.
// A non-zero exit code is not an error here; check Success on the result.
func (c *Client) RunGetMethod(ctx context.Context, req RunGetMethodRequest) (*RunGetMethodResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var res RunGetMethodResult
	if err := c.post(ctx, "/runGetMethod", req.body(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SendMessage broadcasts a serialized external message. Unlike the queries a
// transport failure here does not tell whether the message left, so a retry
// may deliver it twice; wallet seqno replay protection makes that harmless.
func (c *Client) SendMessage(ctx context.Context, boc []byte) (*SendMessageResult, error) {
	if len(boc) == 0 {
		return nil, rejected("empty message boc")
	}
	if _, err := cell.FromBOC(boc); err != nil {
		return nil, rejected("message is not a valid boc: %v", err)
	}
	var res SendMessageResult
	body := sendMessageBody{BOC: base64.StdEncoding.EncodeToString(boc)}
	if err := c.post(ctx, "/message", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post sends body as JSON.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return rejected("encode request body: %v", err)
	}
	return c.do(ctx, http.MethodPost, path, nil, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, out any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return transportErr("rate limit", err)
		}
	}

	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" && c.authMode == AuthModeQuery {
		query.Set(apiKeyQueryArg, c.apiKey)
	}

	endpoint := c.endpoint + apiPrefix + path
	fullURL := endpoint
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return rejected("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" && c.authMode == AuthModeHeader {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(method+" "+endpoint, err)
	}
	defer resp.Body.Close()

	logger.Debug("TonCenter request completed", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr("read body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, endpoint, errorMessage(resp.StatusCode, data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: malformed response from %s: %w", ErrTransportFailure, endpoint, err)
	}
	return nil
}

func errorMessage(status int, data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if msg := body.message(); msg != "" {
			return msg
		}
	}
	if len(data) > maxErrorBody {
		data = data[:maxErrorBody]
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return http.StatusText(status)
	}
	return msg
}
