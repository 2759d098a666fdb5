package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/tickgate/internal/ingest"
	"github.com/sawpanic/tickgate/internal/metrics"
	"github.com/sawpanic/tickgate/internal/tick"
)

var now = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Server, *ingest.Engine) {
	t.Helper()

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	e := ingest.New(
		ingest.WithClock(func() time.Time { return now }),
		ingest.WithLogger(zerolog.Nop()),
		ingest.WithObserver(rec),
	)
	ts := now.Format(time.RFC3339)
	e.Validate(tick.Raw{tick.FieldSymbol: "AAPL", tick.FieldPrice: "150", tick.FieldTimestamp: ts})
	e.Validate(tick.Raw{tick.FieldSymbol: "MSFT", tick.FieldPrice: "310", tick.FieldTimestamp: ts})
	e.Validate(tick.Raw{tick.FieldSymbol: "AAPL", tick.FieldPrice: "invalid", tick.FieldTimestamp: ts})
	e.Validate(tick.Raw{tick.FieldSymbol: "AAPL", tick.FieldPrice: "0", tick.FieldTimestamp: ts})

	return NewServer(DefaultServerConfig("127.0.0.1:0"), e, reg), e
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	s, _ := setup(t)

	rr := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Len(t, rr.Header().Get("X-Request-ID"), 8)

	var body struct {
		Status  string   `json:"status"`
		Rules   []string `json:"rules"`
		Symbols int      `json:"symbols"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Len(t, body.Rules, 5)
	assert.Equal(t, 2, body.Symbols)
}

func TestStats(t *testing.T) {
	s, _ := setup(t)

	rr := get(t, s, "/stats")
	require.Equal(t, http.StatusOK, rr.Code)

	var stats map[string]int64
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, int64(4), stats["total_processed"])
	assert.Equal(t, int64(2), stats["verified"])
	assert.Equal(t, int64(2), stats["rejected"])
	assert.Equal(t, int64(2), stats["dead_letter_size"])
	assert.Equal(t, int64(1), stats["violations.price_bounds"])
}

func TestSymbols(t *testing.T) {
	s, _ := setup(t)

	rr := get(t, s, "/symbols")
	require.Equal(t, http.StatusOK, rr.Code)

	var states []struct {
		Symbol    string `json:"symbol"`
		LastPrice string `json:"last_price"`
		TickCount int64  `json:"tick_count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &states))
	require.Len(t, states, 2)
	assert.Equal(t, "AAPL", states[0].Symbol)
	assert.Equal(t, "150", states[0].LastPrice)
	assert.Equal(t, int64(1), states[0].TickCount)

	rr = get(t, s, "/symbols/MSFT")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"symbol":"MSFT"`)

	rr = get(t, s, "/symbols/TSLA")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown symbol")
}

func TestDeadLetters(t *testing.T) {
	s, _ := setup(t)

	rr := get(t, s, "/deadletters")
	require.Equal(t, http.StatusOK, rr.Code)

	var page struct {
		Offset  int `json:"offset"`
		Count   int `json:"count"`
		Entries []struct {
			Raw        map[string]interface{} `json:"raw"`
			Violations []struct {
				Rule string `json:"rule_violated"`
			} `json:"violations"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "schema", page.Entries[0].Violations[0].Rule)
	assert.Equal(t, "price_bounds", page.Entries[1].Violations[0].Rule)

	rr = get(t, s, "/deadletters?offset=1")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, 1, page.Count)

	rr = get(t, s, "/deadletters?offset=10")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"entries":[]`)

	rr = get(t, s, "/deadletters?offset=-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := setup(t)

	rr := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `tickgate_ticks_total{quality="REJECTED"} 2`), body)
	assert.Contains(t, body, "tickgate_dead_letter_size 2")
}

func TestNotFound(t *testing.T) {
	s, _ := setup(t)

	rr := get(t, s, "/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestReadOnly(t *testing.T) {
	s, _ := setup(t)

	req := httptest.NewRequest(http.MethodPost, "/stats", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
