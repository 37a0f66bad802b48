package main

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/short-interest/internal/model"
	"github.com/sells-group/short-interest/internal/provider"
)

// fakeProvider serves canned quotes; unknown tickers fail like a delisted
// symbol would.
type fakeProvider struct {
	quotes  map[string]*model.Quote
	history []model.PricePoint
}

func (f *fakeProvider) Name() string { return "Yahoo Finance" }

func (f *fakeProvider) Quote(_ context.Context, ticker string) (*model.Quote, error) {
	q, ok := f.quotes[ticker]
	if !ok {
		return nil, errors.New("yahoo: quote " + ticker + ": Quote not found for symbol: " + ticker)
	}
	return q, nil
}

func (f *fakeProvider) History(_ context.Context, ticker string, _ provider.Period) ([]model.PricePoint, error) {
	if _, ok := f.quotes[ticker]; !ok {
		return nil, errors.New("no data found")
	}
	return f.history, nil
}

// fakeScraper returns one canned result for the tickers it knows.
type fakeScraper struct {
	results map[string]*model.ScrapeResult
}

func (f *fakeScraper) Scrape(_ context.Context, ticker string) *model.ScrapeResult {
	return f.results[ticker]
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		quotes: map[string]*model.Quote{
			"SPY": {Ticker: "SPY", Name: "SPDR S&P 500 ETF Trust", QuoteType: "ETF", Price: model.Float64(512.31)},
			"TSLA": {
				Ticker:              "TSLA",
				Name:                "Tesla, Inc.",
				Price:               model.Float64(248.42),
				ShortRatio:          model.Float64(1.85),
				ShortPercentOfFloat: model.Float64(0.0321),
				SharesShort:         model.Int64(91234567),
			},
		},
		history: []model.PricePoint{
			{Date: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), Close: 100},
			{Date: time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), Close: 95},
			{Date: time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC), Close: 110},
		},
	}
}

func newFakeScraper() *fakeScraper {
	return &fakeScraper{results: map[string]*model.ScrapeResult{
		"SPY": {
			Source: "MarketWatch",
			URL:    "https://www.marketwatch.com/investing/fund/spy",
			Values: map[string]string{model.KeywordShortFloat: "5.20%"},
		},
	}}
}
