// Package lendingapi is the typed REST client for the lending service.
package lendingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"lending_go/internal/domain"
	"lending_go/internal/infra"
)

const (
	maxBodyBytes = 4 << 20

	// DefaultListLimit matches the server default for feed lists.
	DefaultListLimit = 20
)

// Config configures a Client.
type Config struct {
	BaseURL           string
	Token             string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// ConfigFrom builds a Config from the api section; baseURL selects live or demo.
func ConfigFrom(api infra.APIConfig, baseURL, userAgent string) Config {
	return Config{
		BaseURL:           baseURL,
		Token:             api.Token,
		UserAgent:         userAgent,
		Timeout:           api.Timeout(),
		RequestsPerSecond: api.RequestsPerSecond,
		Burst:             api.Burst,
	}
}

// Client talks to /api/lending. Reads go through a circuit breaker; mutations never retry.
type Client struct {
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *infra.CircuitBreaker
	metrics   *infra.Metrics
	logger    *slog.Logger
}

// New creates a client. metrics may be nil.
func New(cfg Config, metrics *infra.Metrics, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	logger = logger.With("component", "lending_api")

	breakerCfg := infra.DefaultCircuitBreakerConfig("lending_api_reads")
	breakerCfg.OnStateChange = metrics.BreakerStateHook()
	breakerCfg.Logger = logger

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     cfg.Token,
		userAgent: cfg.UserAgent,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: infra.NewCircuitBreaker(breakerCfg),
		metrics: metrics,
		logger:  logger,
	}
}

// BreakerState exposes the read breaker for health checks.
func (c *Client) BreakerState() infra.State {
	return c.breaker.GetState()
}

func (c *Client) Markets(ctx context.Context) ([]domain.Market, error) {
	var out []domain.Market
	if err := c.read(ctx, "/api/lending/markets", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Market(ctx context.Context, marketID string) (*domain.Market, error) {
	var out domain.Market
	if err := c.read(ctx, "/api/lending/markets/"+url.PathEscape(marketID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*domain.LendingStats, error) {
	var out domain.LendingStats
	if err := c.read(ctx, "/api/lending/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Position fetches the wallet aggregate; duplicate per-market entries are dropped.
func (c *Client) Position(ctx context.Context, address string) (*domain.LendingPosition, error) {
	var out domain.LendingPosition
	if err := c.read(ctx, "/api/lending/positions/"+url.PathEscape(address), &out); err != nil {
		return nil, err
	}
	out.Dedupe()
	return &out, nil
}

func (c *Client) PositionHealth(ctx context.Context, address string) (*domain.PositionHealth, error) {
	var out domain.PositionHealth
	if err := c.read(ctx, "/api/lending/positions/"+url.PathEscape(address)+"/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AtRiskPositions(ctx context.Context) ([]domain.LendingPosition, error) {
	var out []domain.LendingPosition
	if err := c.read(ctx, "/api/lending/positions/at-risk", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LiquidatablePositions(ctx context.Context) ([]domain.LendingPosition, error) {
	var out []domain.LendingPosition
	if err := c.read(ctx, "/api/lending/positions/liquidatable", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecentTransactions(ctx context.Context, limit int) ([]domain.LendingTransaction, error) {
	var out []domain.LendingTransaction
	if err := c.read(ctx, "/api/lending/transactions?limit="+strconv.Itoa(listLimit(limit)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecentLiquidations(ctx context.Context, limit int) ([]domain.LendingLiquidation, error) {
	var out []domain.LendingLiquidation
	if err := c.read(ctx, "/api/lending/liquidations?limit="+strconv.Itoa(listLimit(limit)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func listLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}

func (c *Client) Supply(ctx context.Context, req domain.SupplyRequest) (*domain.SupplyResult, error) {
	var out domain.SupplyResult
	if err := c.mutate(ctx, "/api/lending/supply", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Withdraw(ctx context.Context, req domain.WithdrawRequest) (*domain.WithdrawResult, error) {
	var out domain.WithdrawResult
	if err := c.mutate(ctx, "/api/lending/withdraw", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Borrow(ctx context.Context, req domain.BorrowRequest) (*domain.BorrowResult, error) {
	var out domain.BorrowResult
	if err := c.mutate(ctx, "/api/lending/borrow", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Repay(ctx context.Context, req domain.RepayRequest) (*domain.RepayResult, error) {
	var out domain.RepayResult
	if err := c.mutate(ctx, "/api/lending/repay", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Liquidate(ctx context.Context, req domain.LiquidateRequest) (*domain.LiquidateResult, error) {
	var out domain.LiquidateResult
	if err := c.mutate(ctx, "/api/lending/liquidate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) read(ctx context.Context, path string, out any) error {
	return c.breaker.Execute(func() error {
		return c.do(ctx, http.MethodGet, path, nil, out)
	}, countable)
}

func (c *Client) mutate(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	endpoint := endpointName(path)

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordAPIRequest(endpoint, "transport_error")
		c.logger.Warn("lending api transport error",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.String("request_id", requestID),
			slog.Any("error", err))
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	c.metrics.RecordAPIRequest(endpoint, strconv.Itoa(resp.StatusCode/100)+"xx")
	c.logger.Debug("lending api request",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
		slog.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(endpoint, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// endpointName strips the query and collapses ids and addresses for metric labels.
func endpointName(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		switch {
		case strings.HasPrefix(p, "0x"):
			parts[i] = ":address"
		case i > 0 && parts[i-1] == "markets":
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
