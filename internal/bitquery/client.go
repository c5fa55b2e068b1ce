// Package bitquery talks to the Bitquery streaming GraphQL API. It is the
// only network path for on-chain data: momentum stats, supply distribution,
// holder leaderboards and trade windows all come through here.
package bitquery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrQuotaExhausted marks an API-quota rejection (HTTP 429/402). Quota hits
// are surfaced as cycle warnings, never counted against the circuit breaker.
var ErrQuotaExhausted = errors.New("bitquery: api quota exhausted")

// Provider is the query surface the screener consumes. Live and stub
// implementations satisfy it.
type Provider interface {
	FastStats(ctx context.Context, mint string) (FastStats, error)
	SupplyMetrics(ctx context.Context, mint, creator string) (SupplyMetrics, error)
	TopHolders(ctx context.Context, mint string) ([]Holder, error)
	RecentTrades(ctx context.Context, mint string, lookback time.Duration) ([]TradeRow, error)
	Stats() Stats
}

// Config tunes the live client.
type Config struct {
	Endpoint        string
	APIKey          string
	RequestTimeout  time.Duration
	MaxConcurrent   int     // hard cap on in-flight queries
	RateLimitRPS    float64 // request budget per second
	RateBurst       int
	BreakerFailures uint32 // consecutive failures before the breaker opens
	BreakerCooldown time.Duration
}

// DefaultConfig returns production settings for the public endpoint.
func DefaultConfig() Config {
	return Config{
		Endpoint:        "https://streaming.bitquery.io/graphql",
		RequestTimeout:  30 * time.Second,
		MaxConcurrent:   10,
		RateLimitRPS:    10,
		RateBurst:       10,
		BreakerFailures: 10,
		BreakerCooldown: 30 * time.Second,
	}
}

// Client is the live Provider. Safe for concurrent use; the semaphore caps
// in-flight queries across every caller in the process.
type Client struct {
	config  Config
	httpc   *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	sem     chan struct{}

	requests  atomic.Uint64
	errCount  atomic.Uint64
	quotaHits atomic.Uint64
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Requests     uint64 `json:"requests"`
	Errors       uint64 `json:"errors"`
	QuotaHits    uint64 `json:"quota_hits"`
	InFlight     int    `json:"in_flight"`
	BreakerState string `json:"breaker_state"`
}

// NewClient creates a live client.
func NewClient(config Config) *Client {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.RateLimitRPS <= 0 {
		config.RateLimitRPS = 10
	}
	if config.RateBurst <= 0 {
		config.RateBurst = 1
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = 10
	}
	if config.BreakerCooldown <= 0 {
		config.BreakerCooldown = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "bitquery",
		Timeout: config.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("bitquery breaker state change")
		},
	})

	return &Client{
		config:  config,
		httpc:   &http.Client{Timeout: config.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.RateBurst),
		breaker: breaker,
		sem:     make(chan struct{}, config.MaxConcurrent),
	}
}

// Stats returns current counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests:     c.requests.Load(),
		Errors:       c.errCount.Load(),
		QuotaHits:    c.quotaHits.Load(),
		InFlight:     len(c.sem),
		BreakerState: c.breaker.State().String(),
	}
}

// graphQLRequest is the POST body envelope.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// postResult separates quota rejections from real failures so 429s never
// feed the breaker.
type postResult struct {
	data  json.RawMessage
	quota bool
}

// query runs one GraphQL operation and decodes its data into out. Single
// attempt: screening cycles omit a failed token rather than retry it.
func (c *Client) query(ctx context.Context, op, gql string, variables map[string]any, out any) error {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("bitquery: %s: %w", op, ctx.Err())
	}
	defer func() { <-c.sem }()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("bitquery: %s: %w", op, err)
	}

	c.requests.Add(1)

	res, err := c.breaker.Execute(func() (any, error) {
		return c.post(ctx, gql, variables)
	})
	if err != nil {
		c.errCount.Add(1)
		return fmt.Errorf("bitquery: %s: %w", op, err)
	}

	pr := res.(postResult)
	if pr.quota {
		c.quotaHits.Add(1)
		log.Warn().Str("op", op).Msg("bitquery quota exhausted")
		return fmt.Errorf("bitquery: %s: %w", op, ErrQuotaExhausted)
	}

	if err := json.Unmarshal(pr.data, out); err != nil {
		c.errCount.Add(1)
		return fmt.Errorf("bitquery: %s: decode: %w", op, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, gql string, variables map[string]any) (postResult, error) {
	payload, err := json.Marshal(graphQLRequest{Query: gql, Variables: variables})
	if err != nil {
		return postResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return postResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-Api-Key", c.config.APIKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return postResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusPaymentRequired {
		io.Copy(io.Discard, resp.Body)
		return postResult{quota: true}, nil
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return postResult{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	var gr graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return postResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		return postResult{}, fmt.Errorf("graphql: %s", gr.Errors[0].Message)
	}
	return postResult{data: gr.Data}, nil
}
