package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/short-interest/internal/lookup"
	"github.com/sells-group/short-interest/internal/model"
	"github.com/sells-group/short-interest/internal/provider"
	"github.com/sells-group/short-interest/internal/resilience"
	"github.com/sells-group/short-interest/internal/store"
)

func newTestDashboard(t *testing.T) (http.Handler, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	svc := lookup.NewService(newFakeProvider(), newFakeScraper(), st, lookup.Options{})
	d := &dashboard{svc: svc, store: st, period: provider.Period3Months}
	return newRouter(d, []string{"*"}), st
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthEndpoint_ReportsSites(t *testing.T) {
	breakers := resilience.NewHostBreakers(resilience.BreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	b := breakers.For("https://finviz.com/quote.ashx?t=SPY")
	require.NoError(t, b.Allow())
	b.Record(resilience.NewHostError(errors.New("http 403"), http.StatusForbidden))

	d := &dashboard{svc: lookup.NewService(newFakeProvider(), nil, nil, lookup.Options{}), store: store.NoopStore{}, breakers: breakers}
	rec := doGet(t, newRouter(d, nil), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Sites  map[string]string `json:"sites"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "open", body.Sites["finviz.com"])
}

func TestQuoteEndpoint_SPYUsesFallback(t *testing.T) {
	h, st := newTestDashboard(t)
	rec := doGet(t, h, "/api/quote/spy")
	require.Equal(t, http.StatusOK, rec.Code)

	var res lookup.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "SPY", res.Ticker)
	assert.Equal(t, "5.20%", res.Display.ShortPercentOfFloat.Value)
	assert.Equal(t, "MarketWatch", res.Display.ShortPercentOfFloat.Source)
	assert.Equal(t, "$512.31", res.Display.Price.Value)
	assert.True(t, res.UsedFallback)
	assert.Empty(t, res.History)
	assert.Len(t, res.Links, 5)

	recs, err := st.ListLookups(context.Background(), store.LookupFilter{Ticker: "SPY"})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestQuoteEndpoint_TSLAPrimary(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/api/quote/TSLA")
	require.Equal(t, http.StatusOK, rec.Code)

	var res lookup.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "1.85", res.Display.ShortRatio.Value)
	assert.Equal(t, "Yahoo Finance", res.Display.ShortRatio.Source)
	assert.Equal(t, "91,234,567", res.Display.SharesShort.Value)
	assert.False(t, res.UsedFallback)
}

func TestQuoteEndpoint_UnknownTicker(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/api/quote/ZZZZ")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "could not fetch data for ZZZZ", body["error"])
}

func TestQuoteEndpoint_InvalidTicker(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/api/quote/bad%20ticker")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid ticker")
}

func TestHistoryEndpoint(t *testing.T) {
	h, _ := newTestDashboard(t)

	rec := doGet(t, h, "/api/history/SPY?period=1y")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Period  string             `json:"period"`
		History []model.PricePoint `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1y", body.Period)
	assert.Len(t, body.History, 3)

	rec = doGet(t, h, "/api/history/SPY")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "3mo", body.Period)
}

func TestHistoryEndpoint_BadPeriod(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/api/history/SPY?period=10y")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoint_Unavailable(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/api/history/ZZZZ")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestLinksEndpoint(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/api/links/spy")
	require.Equal(t, http.StatusOK, rec.Code)

	var links []model.Link
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	require.NotEmpty(t, links)
	assert.Equal(t, "https://fintel.io/ss/us/spy", links[0].URL)

	rec = doGet(t, h, "/api/links/%3Cscript%3E")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookupsEndpoint(t *testing.T) {
	h, _ := newTestDashboard(t)

	rec := doGet(t, h, "/api/lookups")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	doGet(t, h, "/api/quote/SPY")
	doGet(t, h, "/api/quote/TSLA")

	rec = doGet(t, h, "/api/lookups?ticker=tsla")
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []store.LookupRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "TSLA", recs[0].Ticker)

	rec = doGet(t, h, "/api/lookups?limit=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_CORS(t *testing.T) {
	h, _ := newTestDashboard(t)
	req := httptest.NewRequest(http.MethodGet, "/api/links/SPY", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestIndex_Form(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, `value="SPY"`)
	assert.Contains(t, body, `<option value="3mo" selected>`)
	assert.NotContains(t, body, "Research links")
}

func TestIndex_Lookup(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/?ticker=spy&period=1mo")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "SPDR S&amp;P 500 ETF Trust")
	assert.Contains(t, body, "5.20%")
	assert.Contains(t, body, "MarketWatch")
	assert.Contains(t, body, "$512.31")
	assert.Contains(t, body, "https://finviz.com/quote.ashx?t=SPY")
	assert.Contains(t, body, "2026-06-03")
	assert.Contains(t, body, `<option value="1mo" selected>`)
}

func TestIndex_LookupError(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/?ticker=ZZZZ")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "could not fetch data for ZZZZ")
	assert.NotContains(t, body, "Quote not found")
}

func TestIndex_EscapesInput(t *testing.T) {
	h, _ := newTestDashboard(t)
	rec := doGet(t, h, "/?ticker=%3Cscript%3E")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<script>")
}
