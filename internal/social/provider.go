// Package social supplies off-chain hype signals for a token keyword:
// follower growth and search-trend growth over the past hour. Zero is the
// neutral reading, so a missing or disabled provider never sinks a token.
package social

import "context"

// Signals are hourly growth deltas, zero when unknown.
type Signals struct {
	FollowerDelta float64 `json:"follower_delta"`
	TrendDelta    float64 `json:"trend_delta"`
}

// Provider resolves signals for a token. Implementations pick the keyword
// from the symbol when it is usable, otherwise the name.
type Provider interface {
	Signals(ctx context.Context, symbol, name string) (Signals, error)
}

// Keyword picks the search term: symbol wins unless it is empty or the
// catalog placeholder.
func Keyword(symbol, name string) string {
	if symbol != "" && symbol != "UNKNOWN" {
		return symbol
	}
	return name
}

// Disabled is the no-op provider: every token reads neutral.
type Disabled struct{}

// NewDisabled creates a disabled provider.
func NewDisabled() *Disabled {
	return &Disabled{}
}

// Signals returns zeros.
func (d *Disabled) Signals(_ context.Context, _, _ string) (Signals, error) {
	return Signals{}, nil
}
