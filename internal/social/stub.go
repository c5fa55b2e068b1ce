package social

import (
	"context"
	"hash/fnv"
)

// Stub serves deterministic signals derived from the keyword, for demo runs
// and tests. Follower deltas land in 0-599, trend deltas in 0-299, so some
// keywords max out their score terms and most do not.
type Stub struct{}

// NewStub creates a stub provider.
func NewStub() *Stub {
	return &Stub{}
}

// Signals returns hash-derived deltas for the token keyword.
func (s *Stub) Signals(_ context.Context, symbol, name string) (Signals, error) {
	keyword := Keyword(symbol, name)
	if keyword == "" {
		return Signals{}, nil
	}

	h := fnv.New64a()
	h.Write([]byte(keyword))
	seed := h.Sum64()

	return Signals{
		FollowerDelta: float64(seed % 600),
		TrendDelta:    float64((seed >> 16) % 300),
	}, nil
}
