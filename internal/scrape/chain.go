// Package scrape extracts short-interest figures from secondary finance sites
// when the primary provider lacks them.
package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/short-interest/internal/fetcher"
	"github.com/sells-group/short-interest/internal/model"
)

// Chain tries page scrapers in order, returning the first non-empty result.
// Scrapers run sequentially; nothing is fetched in parallel.
type Chain struct {
	scrapers []PageScraper
}

// NewChain creates a Chain. Scrapers are tried in the given order.
func NewChain(scrapers ...PageScraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// Names returns the scraper names in order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.scrapers))
	for _, s := range c.scrapers {
		names = append(names, s.Name())
	}
	return names
}

// Scrape returns the first non-empty result, or nil when every site came up
// empty. No data is an expected outcome, not an error.
func (c *Chain) Scrape(ctx context.Context, ticker string) *model.ScrapeResult {
	if c == nil {
		return nil
	}
	for _, s := range c.scrapers {
		if ctx.Err() != nil {
			return nil
		}
		result := s.Scrape(ctx, ticker)
		if !result.Empty() {
			return result
		}
		zap.L().Debug("scrape: site had no data, trying next",
			zap.String("site", s.Name()),
			zap.String("ticker", ticker),
		)
	}
	zap.L().Info("scrape: no secondary data", zap.String("ticker", ticker))
	return nil
}

// SiteOptions configures the sites built by NewSiteChain.
type SiteOptions struct {
	UserAgent string
	// BaseURLs overrides a site's base URL, keyed by site name.
	BaseURLs map[string]string
}

// NewSiteChain builds a Chain from configured site names.
func NewSiteChain(f fetcher.Fetcher, sites []string, opts SiteOptions) (*Chain, error) {
	scrapers := make([]PageScraper, 0, len(sites))
	for _, name := range sites {
		key := strings.ToLower(strings.TrimSpace(name))
		base := opts.BaseURLs[key]
		switch key {
		case SiteMarketWatch:
			scrapers = append(scrapers, NewMarketWatch(f, base, opts.UserAgent))
		case SiteFinviz:
			scrapers = append(scrapers, NewFinviz(f, base, opts.UserAgent))
		default:
			return nil, eris.Errorf("scrape: unknown site %q", name)
		}
	}
	return NewChain(scrapers...), nil
}
