package scrape

import (
	"context"

	"github.com/sells-group/short-interest/internal/model"
)

// PageScraper extracts short-interest figures for a ticker from one external
// site. A nil result means the site had nothing usable; failures are never
// returned to the caller.
type PageScraper interface {
	Name() string
	Scrape(ctx context.Context, ticker string) *model.ScrapeResult
}
