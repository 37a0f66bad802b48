package provider

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/sells-group/short-interest/internal/fetcher"
	"github.com/sells-group/short-interest/internal/model"
)

// YahooName is the source label for Yahoo-supplied values.
const YahooName = "Yahoo Finance"

// quoteSummaryModules are the quoteSummary modules holding price and short data.
const quoteSummaryModules = "price,summaryDetail,defaultKeyStatistics,financialData"

// YahooConfig configures the Yahoo Finance client.
type YahooConfig struct {
	// BaseURL is the API host, e.g. https://query1.finance.yahoo.com.
	BaseURL string
	// CookieURL is fetched once to obtain the session cookie the crumb is tied to.
	CookieURL string
	UserAgent string
	Timeout   time.Duration
}

// YahooProvider implements Provider against Yahoo Finance's quoteSummary and
// chart endpoints. quoteSummary requires a crumb bound to a session cookie;
// both are obtained lazily and reused until Yahoo rejects them.
type YahooProvider struct {
	cfg     YahooConfig
	fetcher fetcher.Fetcher

	mu    sync.Mutex
	crumb string
}

// NewYahoo creates a Yahoo provider with its own cookie jar.
func NewYahoo(cfg YahooConfig) (*YahooProvider, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, eris.Wrap(err, "yahoo: create cookie jar")
	}
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.UserAgent,
		Timeout:      cfg.Timeout,
		Jar:          jar,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
	return NewYahooWithFetcher(cfg, f), nil
}

// NewYahooWithFetcher creates a Yahoo provider on an existing fetcher. The
// fetcher must keep cookies for the crumb handshake to work.
func NewYahooWithFetcher(cfg YahooConfig, f fetcher.Fetcher) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.CookieURL == "" {
		cfg.CookieURL = "https://fc.yahoo.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &YahooProvider{cfg: cfg, fetcher: f}
}

func (y *YahooProvider) Name() string { return YahooName }

// Quote fetches quoteSummary and extracts price and short-interest fields.
// Price falls back from currentPrice to navPrice to previousClose.
func (y *YahooProvider) Quote(ctx context.Context, ticker string) (*model.Quote, error) {
	body, err := y.quoteSummary(ctx, ticker)
	if err != nil {
		return nil, err
	}

	res := gjson.GetBytes(body, "quoteSummary.result.0")
	if !res.Exists() {
		msg := gjson.GetBytes(body, "quoteSummary.error.description").String()
		if msg == "" {
			msg = "no result"
		}
		return nil, eris.Errorf("yahoo: quote %s: %s", ticker, msg)
	}

	q := &model.Quote{
		Ticker:    strings.ToUpper(ticker),
		Name:      firstString(res, "price.longName", "price.shortName"),
		QuoteType: res.Get("price.quoteType").String(),
		Currency:  res.Get("price.currency").String(),
	}
	q.Price = firstPositive(res,
		"financialData.currentPrice.raw",
		"summaryDetail.navPrice.raw",
		"summaryDetail.previousClose.raw",
	)
	q.ShortPercentOfFloat = optFloat(res, "defaultKeyStatistics.shortPercentOfFloat.raw")
	q.ShortRatio = optFloat(res, "defaultKeyStatistics.shortRatio.raw")
	if v := res.Get("defaultKeyStatistics.sharesShort.raw"); v.Exists() && v.Type == gjson.Number {
		q.SharesShort = model.Int64(v.Int())
	}
	return q, nil
}

// quoteSummary performs the crumb-authenticated request, refreshing the
// crumb once if Yahoo rejects it.
func (y *YahooProvider) quoteSummary(ctx context.Context, ticker string) ([]byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		crumb, err := y.getCrumb(ctx, attempt > 0)
		if err != nil {
			return nil, err
		}
		u := y.cfg.BaseURL + "/v10/finance/quoteSummary/" + url.PathEscape(ticker) +
			"?modules=" + url.QueryEscape(quoteSummaryModules) +
			"&crumb=" + url.QueryEscape(crumb)

		resp, err := y.fetcher.Get(ctx, u, jsonHeaders())
		if err != nil {
			return nil, eris.Wrapf(err, "yahoo: quote %s", ticker)
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			zap.L().Debug("yahoo: crumb rejected, refreshing", zap.String("ticker", ticker))
			continue
		}
		// A 404 still carries a JSON error body naming the problem.
		if !resp.OK() && resp.StatusCode != http.StatusNotFound {
			return nil, eris.Errorf("yahoo: quote %s: status %d", ticker, resp.StatusCode)
		}
		return resp.Body, nil
	}
	return nil, eris.Errorf("yahoo: quote %s: crumb rejected", ticker)
}

// getCrumb returns the cached crumb, fetching a new one when refresh is set
// or none is cached.
func (y *YahooProvider) getCrumb(ctx context.Context, refresh bool) (string, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.crumb != "" && !refresh {
		return y.crumb, nil
	}

	// The cookie endpoint usually answers 404; only the Set-Cookie matters.
	if _, err := y.fetcher.Get(ctx, y.cfg.CookieURL, nil); err != nil {
		return "", eris.Wrap(err, "yahoo: fetch session cookie")
	}

	resp, err := y.fetcher.Get(ctx, y.cfg.BaseURL+"/v1/test/getcrumb", nil)
	if err != nil {
		return "", eris.Wrap(err, "yahoo: fetch crumb")
	}
	crumb := strings.TrimSpace(string(resp.Body))
	if !resp.OK() || crumb == "" || strings.Contains(crumb, "<") {
		return "", eris.Errorf("yahoo: fetch crumb: status %d", resp.StatusCode)
	}
	y.crumb = crumb
	return crumb, nil
}

// History fetches daily closes from the chart endpoint, skipping null bars.
func (y *YahooProvider) History(ctx context.Context, ticker string, period Period) ([]model.PricePoint, error) {
	u := y.cfg.BaseURL + "/v8/finance/chart/" + url.PathEscape(ticker) +
		"?interval=1d&range=" + url.QueryEscape(string(period))

	resp, err := y.fetcher.Get(ctx, u, jsonHeaders())
	if err != nil {
		return nil, eris.Wrapf(err, "yahoo: history %s", ticker)
	}
	if msg := gjson.GetBytes(resp.Body, "chart.error.description"); msg.Exists() && msg.String() != "" {
		return nil, eris.Errorf("yahoo: history %s: %s", ticker, msg.String())
	}
	if !resp.OK() {
		return nil, eris.Errorf("yahoo: history %s: status %d", ticker, resp.StatusCode)
	}

	res := gjson.GetBytes(resp.Body, "chart.result.0")
	timestamps := res.Get("timestamp").Array()
	closes := res.Get("indicators.quote.0.close").Array()

	points := make([]model.PricePoint, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) || closes[i].Type != gjson.Number {
			continue // holidays and partial bars come back as null
		}
		points = append(points, model.PricePoint{
			Date:  time.Unix(ts.Int(), 0).UTC(),
			Close: closes[i].Float(),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func jsonHeaders() http.Header {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	return h
}

func optFloat(res gjson.Result, path string) *float64 {
	v := res.Get(path)
	if !v.Exists() || v.Type != gjson.Number {
		return nil
	}
	return model.Float64(v.Float())
}

func firstPositive(res gjson.Result, paths ...string) *float64 {
	for _, p := range paths {
		if v := optFloat(res, p); v != nil && *v > 0 {
			return v
		}
	}
	return nil
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := res.Get(p).String(); s != "" {
			return s
		}
	}
	return ""
}
