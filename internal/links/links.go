// Package links builds outbound deep links to external research sites.
package links

import (
	"net/url"
	"strings"

	"github.com/sells-group/short-interest/internal/model"
)

// knownETFs are the fund symbols for which sites use a fund/ETF path rather
// than the stock path.
var knownETFs = map[string]bool{
	"SPY": true, "QQQ": true, "IWM": true, "DIA": true, "VOO": true,
	"VTI": true, "IVV": true, "ARKK": true, "XLF": true, "XLE": true,
	"XLK": true, "SMH": true, "TLT": true, "GLD": true, "SLV": true,
	"HYG": true, "EEM": true, "SOXL": true, "TQQQ": true, "SQQQ": true,
}

// IsKnownETF reports whether the ticker is on the static ETF list.
func IsKnownETF(ticker string) bool {
	return knownETFs[strings.ToUpper(strings.TrimSpace(ticker))]
}

// Build returns the deep links for a ticker in display order. Path segments
// use the lowercase ticker; query parameters use the uppercase ticker.
func Build(ticker string) []model.Link {
	t := strings.TrimSpace(ticker)
	if t == "" {
		return nil
	}
	lower := url.PathEscape(strings.ToLower(t))
	upper := url.QueryEscape(strings.ToUpper(t))

	mwKind, nasdaqKind := "stock", "stocks"
	if IsKnownETF(t) {
		mwKind, nasdaqKind = "fund", "etf"
	}

	return []model.Link{
		{Name: "Fintel", URL: "https://fintel.io/ss/us/" + lower},
		{Name: "MarketWatch", URL: "https://www.marketwatch.com/investing/" + mwKind + "/" + lower},
		{Name: "Finviz", URL: "https://finviz.com/quote.ashx?t=" + upper},
		{Name: "Nasdaq", URL: "https://www.nasdaq.com/market-activity/" + nasdaqKind + "/" + lower + "/short-interest"},
		{Name: "Yahoo Finance", URL: "https://finance.yahoo.com/quote/" + lower + "/key-statistics"},
	}
}
