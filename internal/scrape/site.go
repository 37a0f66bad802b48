package scrape

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/short-interest/internal/fetcher"
	"github.com/sells-group/short-interest/internal/model"
	"github.com/sells-group/short-interest/internal/quote"
)

// URLBuilder turns a ticker into one candidate page URL.
type URLBuilder func(ticker string) string

// TableScraper fetches candidate pages of one site in order and keyword-scans
// their tables. The first page yielding a usable value wins.
type TableScraper struct {
	name       string
	fetcher    fetcher.Fetcher
	userAgent  string
	candidates []URLBuilder
	keywords   []string
}

// NewTableScraper creates a TableScraper for a site.
func NewTableScraper(name string, f fetcher.Fetcher, userAgent string, candidates ...URLBuilder) *TableScraper {
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}
	return &TableScraper{
		name:       name,
		fetcher:    f,
		userAgent:  userAgent,
		candidates: candidates,
		keywords:   model.ShortInterestKeywords(),
	}
}

func (s *TableScraper) Name() string { return s.name }

// CandidateURLs returns the URLs Scrape would try, in order.
func (s *TableScraper) CandidateURLs(ticker string) []string {
	urls := make([]string, 0, len(s.candidates))
	for _, build := range s.candidates {
		urls = append(urls, build(ticker))
	}
	return urls
}

// Scrape tries each candidate URL until one yields a usable value.
func (s *TableScraper) Scrape(ctx context.Context, ticker string) *model.ScrapeResult {
	for _, u := range s.CandidateURLs(ticker) {
		if ctx.Err() != nil {
			return nil
		}
		values, reason := s.scrapeURL(ctx, u)
		if values == nil {
			zap.L().Debug("scrape: candidate yielded nothing, trying next",
				zap.String("site", s.name),
				zap.String("url", u),
				zap.String("reason", reason),
			)
			continue
		}
		zap.L().Debug("scrape: candidate matched",
			zap.String("site", s.name),
			zap.String("url", u),
			zap.Int("values", len(values)),
		)
		return &model.ScrapeResult{Source: s.name, URL: u, Values: values}
	}
	return nil
}

// scrapeURL returns the keyword matches for one page, or nil and the reason
// the page was skipped.
func (s *TableScraper) scrapeURL(ctx context.Context, u string) (map[string]string, string) {
	resp, err := s.fetcher.Get(ctx, u, fetcher.BrowserHeaders(s.userAgent))
	if err != nil {
		return nil, err.Error()
	}
	if !resp.OK() {
		return nil, "status " + resp.Status()
	}
	if blocked, bt := DetectBlock(resp); blocked {
		return nil, "blocked (" + string(bt) + ")"
	}

	tables, err := ParseTables(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, err.Error()
	}
	values := MatchKeywords(tables, s.keywords)
	if !usable(values) {
		return nil, "no usable values"
	}
	return values, ""
}

// usable reports whether at least one value is a real figure.
func usable(values map[string]string) bool {
	for _, v := range values {
		if !quote.IsPlaceholder(v) {
			return true
		}
	}
	return false
}

// Site names accepted in configuration.
const (
	SiteMarketWatch = "marketwatch"
	SiteFinviz      = "finviz"
)

// Default site base URLs.
const (
	MarketWatchBaseURL = "https://www.marketwatch.com"
	FinvizBaseURL      = "https://finviz.com"
)

// NewMarketWatch scrapes MarketWatch, trying the fund page before the stock
// page. Paths use the lowercase ticker.
func NewMarketWatch(f fetcher.Fetcher, baseURL, userAgent string) *TableScraper {
	if baseURL == "" {
		baseURL = MarketWatchBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return NewTableScraper("MarketWatch", f, userAgent,
		func(t string) string { return baseURL + "/investing/fund/" + url.PathEscape(strings.ToLower(t)) },
		func(t string) string { return baseURL + "/investing/stock/" + url.PathEscape(strings.ToLower(t)) },
	)
}

// NewFinviz scrapes the Finviz quote snapshot table. The ticker is passed
// uppercase in the query string.
func NewFinviz(f fetcher.Fetcher, baseURL, userAgent string) *TableScraper {
	if baseURL == "" {
		baseURL = FinvizBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return NewTableScraper("Finviz", f, userAgent,
		func(t string) string { return baseURL + "/quote.ashx?t=" + url.QueryEscape(strings.ToUpper(t)) },
	)
}
