package model

import "time"

// Quote holds the primary provider's view of a ticker. Every numeric field is
// optional and independent of the others.
type Quote struct {
	Ticker              string   `json:"ticker"`
	Name                string   `json:"name,omitempty"`
	QuoteType           string   `json:"quote_type,omitempty"`
	Currency            string   `json:"currency,omitempty"`
	Price               *float64 `json:"price,omitempty"`
	ShortRatio          *float64 `json:"short_ratio,omitempty"`            // days to cover
	ShortPercentOfFloat *float64 `json:"short_percent_of_float,omitempty"` // fraction 0-1
	SharesShort         *int64   `json:"shares_short,omitempty"`
}

// MissingShortData reports whether any short-interest field is absent.
func (q *Quote) MissingShortData() bool {
	if q == nil {
		return true
	}
	return q.ShortRatio == nil || q.ShortPercentOfFloat == nil || q.SharesShort == nil
}

// ScrapeResult is the flat keyword → raw value mapping extracted from one
// secondary page.
type ScrapeResult struct {
	Source string            `json:"source"`
	URL    string            `json:"url"`
	Values map[string]string `json:"values"`
}

// Empty reports whether the result carries no values.
func (r *ScrapeResult) Empty() bool {
	return r == nil || len(r.Values) == 0
}

// PricePoint is a single daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
