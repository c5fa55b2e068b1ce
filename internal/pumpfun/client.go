// Package pumpfun lists fresh tokens and metadata from the pump.fun
// frontend API. Candidate discovery only; all trading data comes from
// bitquery.
package pumpfun

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

const defaultEndpoint = "https://pump.fun/api"

// Coin is one row of the coin listing.
type Coin struct {
	Mint    string `json:"mintAddress"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Creator string `json:"creator"`
}

// Info is the full metadata page for one token.
type Info struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Website     string `json:"website"`
	Twitter     string `json:"twitter"`
	Telegram    string `json:"telegram"`
	Creator     string `json:"creator"`
}

// Catalog is the discovery surface the screener consumes.
type Catalog interface {
	NewTokens(ctx context.Context) ([]Coin, error)
	TokenInfo(ctx context.Context, mint string) (Info, error)
}

// Config tunes the live catalog client.
type Config struct {
	Endpoint       string
	ListLimit      int
	RequestTimeout time.Duration
}

// DefaultConfig returns production settings.
func DefaultConfig() Config {
	return Config{
		Endpoint:       defaultEndpoint,
		ListLimit:      50,
		RequestTimeout: 15 * time.Second,
	}
}

// Client is the live Catalog.
type Client struct {
	config Config
	httpc  *http.Client

	requests atomic.Uint64
	errCount atomic.Uint64
}

// Stats is a point-in-time counter snapshot.
type Stats struct {
	Requests uint64 `json:"requests"`
	Errors   uint64 `json:"errors"`
}

// NewClient creates a live catalog client.
func NewClient(config Config) *Client {
	if config.Endpoint == "" {
		config.Endpoint = defaultEndpoint
	}
	if config.ListLimit <= 0 {
		config.ListLimit = 50
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 15 * time.Second
	}
	return &Client{
		config: config,
		httpc:  &http.Client{Timeout: config.RequestTimeout},
	}
}

// Stats returns current counters.
func (c *Client) Stats() Stats {
	return Stats{
		Requests: c.requests.Load(),
		Errors:   c.errCount.Load(),
	}
}

type coinsResponse struct {
	Coins []Coin `json:"coins"`
}

// NewTokens lists the freshest coins, capped at ListLimit. Rows without a
// mint address are dropped.
func (c *Client) NewTokens(ctx context.Context) ([]Coin, error) {
	var resp coinsResponse
	if err := c.get(ctx, c.config.Endpoint+"/coins", &resp); err != nil {
		return nil, fmt.Errorf("pumpfun: list coins: %w", err)
	}

	coins := make([]Coin, 0, len(resp.Coins))
	for _, coin := range resp.Coins {
		if coin.Mint == "" {
			continue
		}
		coins = append(coins, coin)
		if len(coins) == c.config.ListLimit {
			break
		}
	}
	return coins, nil
}

// TokenInfo fetches metadata for one mint.
func (c *Client) TokenInfo(ctx context.Context, mint string) (Info, error) {
	var info Info
	if err := c.get(ctx, c.config.Endpoint+"/coins/"+mint, &info); err != nil {
		return Info{}, fmt.Errorf("pumpfun: token info %s: %w", mint, err)
	}
	return info, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	c.requests.Add(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.errCount.Add(1)
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.errCount.Add(1)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.errCount.Add(1)
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.errCount.Add(1)
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
