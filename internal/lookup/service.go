// Package lookup runs a ticker lookup end to end: primary quote, fallback
// scrape when short-interest fields are missing, merge, links and history.
package lookup

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/short-interest/internal/links"
	"github.com/sells-group/short-interest/internal/model"
	"github.com/sells-group/short-interest/internal/provider"
	"github.com/sells-group/short-interest/internal/quote"
	"github.com/sells-group/short-interest/internal/store"
)

// HistoryUnavailable is the warning attached when no price history could be
// shown.
const HistoryUnavailable = "Price history is unavailable for this ticker."

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]{1,15}$`)

// Scraper is the fallback source consulted when the primary quote lacks
// short-interest fields. *scrape.Chain satisfies it.
type Scraper interface {
	Scrape(ctx context.Context, ticker string) *model.ScrapeResult
}

// Options tunes a Service.
type Options struct {
	// AlwaysScrape consults the fallback even when the primary quote is complete.
	AlwaysScrape bool
}

// Result is everything shown for one lookup.
type Result struct {
	Ticker       string             `json:"ticker"`
	Name         string             `json:"name,omitempty"`
	QuoteType    string             `json:"quote_type,omitempty"`
	Display      model.Display      `json:"display"`
	Links        []model.Link       `json:"links"`
	History      []model.PricePoint `json:"history,omitempty"`
	Warning      string             `json:"warning,omitempty"`
	UsedFallback bool               `json:"used_fallback"`
	// ScrapeSource and ScrapeURL name the page fallback values came from.
	ScrapeSource string `json:"scrape_source,omitempty"`
	ScrapeURL    string `json:"scrape_url,omitempty"`
}

// Service performs lookups. It holds no per-lookup state, so one Service may
// serve concurrent lookups.
type Service struct {
	provider provider.Provider
	scraper  Scraper
	store    store.Store
	opts     Options
}

// NewService creates a Service. A nil scraper disables the fallback; a nil
// store disables history recording.
func NewService(p provider.Provider, s Scraper, st store.Store, opts Options) *Service {
	if st == nil {
		st = store.NoopStore{}
	}
	return &Service{provider: p, scraper: s, store: st, opts: opts}
}

// NormalizeTicker trims and uppercases input, then validates it.
func NormalizeTicker(input string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(input))
	if t == "" {
		return "", &InputError{Input: input, Reason: "ticker is required"}
	}
	if !tickerPattern.MatchString(t) {
		return "", &InputError{Input: input, Reason: "use 1-15 letters, digits or . - ^ ="}
	}
	return t, nil
}

// Lookup runs one lookup. An empty period skips price history. Only invalid
// input and a failed primary quote are errors; a missing fallback, missing
// history or a failed history write only degrade the result.
func (s *Service) Lookup(ctx context.Context, input string, period provider.Period) (*Result, error) {
	ticker, err := NormalizeTicker(input)
	if err != nil {
		return nil, err
	}

	q, err := s.provider.Quote(ctx, ticker)
	if err != nil {
		zap.L().Warn("lookup: primary quote failed",
			zap.String("ticker", ticker),
			zap.String("provider", s.provider.Name()),
			zap.Error(err),
		)
		return nil, &LookupError{Ticker: ticker, Err: err}
	}

	res := &Result{Ticker: ticker, Name: q.Name, QuoteType: q.QuoteType}

	var scraped *model.ScrapeResult
	if s.scraper != nil && (q.MissingShortData() || s.opts.AlwaysScrape) {
		scraped = s.scraper.Scrape(ctx, ticker)
		if !scraped.Empty() {
			res.UsedFallback = true
			res.ScrapeSource = scraped.Source
			res.ScrapeURL = scraped.URL
		}
	}

	res.Display = quote.Merge(ticker, q, s.provider.Name(), scraped)
	res.Links = links.Build(ticker)

	if period != "" {
		res.History, res.Warning = s.history(ctx, ticker, period)
	}

	s.record(ctx, res)

	zap.L().Info("lookup: complete",
		zap.String("ticker", ticker),
		zap.Bool("used_fallback", res.UsedFallback),
		zap.Int("history_points", len(res.History)),
	)
	return res, nil
}

// History returns price history for a ticker. Unlike Lookup, failures are
// returned so API callers can report them.
func (s *Service) History(ctx context.Context, input string, period provider.Period) ([]model.PricePoint, error) {
	ticker, err := NormalizeTicker(input)
	if err != nil {
		return nil, err
	}
	points, err := s.provider.History(ctx, ticker, period)
	if err != nil {
		return nil, &LookupError{Ticker: ticker, Err: err}
	}
	return points, nil
}

func (s *Service) history(ctx context.Context, ticker string, period provider.Period) ([]model.PricePoint, string) {
	points, err := s.provider.History(ctx, ticker, period)
	if err != nil {
		zap.L().Warn("lookup: history unavailable",
			zap.String("ticker", ticker),
			zap.String("period", string(period)),
			zap.Error(err),
		)
		return nil, HistoryUnavailable
	}
	if len(points) == 0 {
		return nil, HistoryUnavailable
	}
	return points, ""
}

func (s *Service) record(ctx context.Context, res *Result) {
	rec := &store.LookupRecord{
		Ticker:       res.Ticker,
		Display:      res.Display,
		UsedFallback: res.UsedFallback,
	}
	if err := s.store.RecordLookup(ctx, rec); err != nil {
		zap.L().Warn("lookup: record history failed",
			zap.String("ticker", res.Ticker),
			zap.Error(err),
		)
	}
}
