// Package provider defines the primary market-data source for quotes and
// price history.
package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/short-interest/internal/model"
)

// Provider supplies the primary quote for a ticker and its price history.
type Provider interface {
	// Name is the source label shown next to values this provider supplied.
	Name() string
	// Quote returns the ticker's quote. Any field may be absent.
	Quote(ctx context.Context, ticker string) (*model.Quote, error)
	// History returns daily closes for a trailing period, oldest first.
	History(ctx context.Context, ticker string, period Period) ([]model.PricePoint, error)
}

// Period is a trailing history window.
type Period string

const (
	Period1Month  Period = "1mo"
	Period3Months Period = "3mo"
	Period6Months Period = "6mo"
	Period1Year   Period = "1y"
)

// ParsePeriod validates a period string. An empty string yields Period3Months.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return Period3Months, nil
	case Period1Month, Period3Months, Period6Months, Period1Year:
		return Period(s), nil
	default:
		return "", eris.Errorf("provider: unsupported period %q (want 1mo, 3mo, 6mo or 1y)", s)
	}
}
