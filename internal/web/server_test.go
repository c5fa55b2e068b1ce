package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pumpscope/pumpscope/internal/alert"
	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/observability"
	"github.com/pumpscope/pumpscope/internal/pumpfun"
	"github.com/pumpscope/pumpscope/internal/refresh"
	"github.com/pumpscope/pumpscope/internal/screener"
)

func newTestServer(t *testing.T) (*Server, *refresh.Engine, *httptest.Server) {
	t.Helper()

	engine := refresh.NewEngine(refresh.DefaultConfig(), func(context.Context, screener.Criteria) (*screener.CycleResult, error) {
		return &screener.CycleResult{}, nil
	})
	monitor := observability.NewMonitor(time.Minute)

	server := NewServer(DefaultConfig(), Deps{
		Engine:  engine,
		Monitor: monitor,
		ProviderStats: func() bitquery.Stats {
			return bitquery.Stats{Requests: 42, BreakerState: "closed"}
		},
		CatalogStats: func() pumpfun.Stats { return pumpfun.Stats{Requests: 7} },
		AlertStats:   func() alert.Stats { return alert.Stats{Sent: 1} },
	})
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, engine, ts
}

func makeCycle(tokens int) *screener.CycleResult {
	result := &screener.CycleResult{
		ID:            "cycle-1",
		StartedAt:     time.Now().Add(-3 * time.Second),
		FinishedAt:    time.Now(),
		Candidates:    tokens + 2,
		Screened:      tokens + 1,
		FailedLookups: 1,
		PassedPrimary: tokens,
		Warnings:      []string{"api quota exhausted, results may be partial"},
	}
	for i := 0; i < tokens; i++ {
		result.Tokens = append(result.Tokens, screener.ScoredToken{
			TokenCandidate: screener.TokenCandidate{Mint: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Name: "Bonk", Symbol: "BONK"},
			Score:          6.1,
			Band:           screener.BandMedium,
			URL:            "https://pump.fun/coin/DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
		})
	}
	result.Summary = screener.Summary{Tokens: tokens, MaxScore: 6.1, AvgScore: 6.1}
	return result
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func postJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestTokensBeforeFirstCycle(t *testing.T) {
	_, _, ts := newTestServer(t)

	var body tokensResponse
	resp := getJSON(t, ts.URL+"/api/tokens", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, body.Ready)
	assert.Nil(t, body.Cycle)
}

func TestTokensAfterPublish(t *testing.T) {
	server, _, ts := newTestServer(t)
	server.Publish(makeCycle(3))

	var body tokensResponse
	getJSON(t, ts.URL+"/api/tokens", &body)

	assert.True(t, body.Ready)
	require.NotNil(t, body.Cycle)
	assert.Equal(t, "cycle-1", body.Cycle.ID)
	assert.Len(t, body.Cycle.Tokens, 3)
	assert.Equal(t, []string{"api quota exhausted, results may be partial"}, body.Cycle.Warnings)
}

func TestRefreshQueuesAndCoalesces(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, raw := postJSON(t, ts.URL+"/api/refresh", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	var first refreshResponse
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.True(t, first.Accepted)
	assert.False(t, first.Coalesced)

	// The engine is not draining its trigger channel, so the second request
	// collapses into the already-queued one.
	_, raw = postJSON(t, ts.URL+"/api/refresh", "")
	var second refreshResponse
	require.NoError(t, json.Unmarshal(raw, &second))
	assert.True(t, second.Accepted)
	assert.True(t, second.Coalesced)
}

func TestParamsRoundTrip(t *testing.T) {
	_, engine, ts := newTestServer(t)

	var initial paramsResponse
	getJSON(t, ts.URL+"/api/params", &initial)
	assert.Equal(t, 3.0, initial.Criteria.MinScore)
	assert.Equal(t, 30, initial.IntervalSec)

	resp, raw := postJSON(t, ts.URL+"/api/params",
		`{"criteria":{"min_score":5,"min_volume_sol":"1500","max_risk_score":0.5},"interval_sec":60}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated paramsResponse
	require.NoError(t, json.Unmarshal(raw, &updated))
	assert.Equal(t, 5.0, updated.Criteria.MinScore)
	assert.True(t, updated.Criteria.MinVolumeSOL.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 0.5, updated.Criteria.MaxRiskScore)
	assert.Equal(t, 60, updated.IntervalSec)

	assert.Equal(t, 5.0, engine.Criteria().MinScore)
	assert.Equal(t, time.Minute, engine.Interval())
}

func TestParamsIntervalClamped(t *testing.T) {
	_, _, ts := newTestServer(t)

	_, raw := postJSON(t, ts.URL+"/api/params", `{"interval_sec":5}`)
	var resp paramsResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, 10, resp.IntervalSec)

	_, raw = postJSON(t, ts.URL+"/api/params", `{"interval_sec":9999}`)
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, 300, resp.IntervalSec)
}

func TestParamsCriteriaNormalized(t *testing.T) {
	_, _, ts := newTestServer(t)

	_, raw := postJSON(t, ts.URL+"/api/params",
		`{"criteria":{"min_score":-2,"min_volume_sol":"-50","max_risk_score":3}}`)
	var resp paramsResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, 0.0, resp.Criteria.MinScore)
	assert.True(t, resp.Criteria.MinVolumeSOL.IsZero())
	assert.Equal(t, 1.0, resp.Criteria.MaxRiskScore)
}

func TestParamsRejectsBadInput(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, _ := postJSON(t, ts.URL+"/api/params", `{"interval_sec":-10}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, ts.URL+"/api/params", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = postJSON(t, ts.URL+"/api/params", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)

	var status map[string]json.RawMessage
	resp := getJSON(t, ts.URL+"/api/status", &status)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var engineStats refresh.Stats
	require.NoError(t, json.Unmarshal(status["engine"], &engineStats))
	assert.Equal(t, "idle", engineStats.State)

	var providerStats bitquery.Stats
	require.NoError(t, json.Unmarshal(status["provider"], &providerStats))
	assert.Equal(t, uint64(42), providerStats.Requests)

	assert.Contains(t, status, "catalog")
	assert.Contains(t, status, "alerts")
	assert.Contains(t, status, "uptime_sec")
}

func TestHealthzReflectsMonitor(t *testing.T) {
	server, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	server.deps.Monitor.Register("stuck", func(context.Context) observability.Report {
		return observability.Report{Status: observability.StatusUnhealthy, Message: "stalled"}
	})

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	var health observability.Health
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, observability.StatusUnhealthy, health.Status)
}

func TestDashboardServed(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	page := buf.String()
	assert.Contains(t, page, "pumpscope")
	assert.Contains(t, page, "/api/tokens")
	assert.Contains(t, page, "/api/params")
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
