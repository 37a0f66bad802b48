// Package quote merges primary provider data with scraped secondary values
// into display-ready metrics.
package quote

import (
	"go.uber.org/zap"

	"github.com/sells-group/short-interest/internal/model"
)

// Metric labels as shown to the user.
const (
	LabelPrice               = "Current Price"
	LabelShortPercentOfFloat = "Short % of Float"
	LabelShortRatio          = "Short Ratio (Days to Cover)"
	LabelSharesShort         = "Shares Short"
)

// Merge builds the display view. Scraped values win for the short-interest
// metrics when present and parseable, primary values fill the gaps, and
// anything left shows model.NoData. Price only ever comes from the primary
// quote. Either input may be nil.
func Merge(ticker string, primary *model.Quote, primarySource string, scraped *model.ScrapeResult) model.Display {
	if primary == nil {
		primary = &model.Quote{}
	}

	d := model.Display{
		Ticker:              ticker,
		Price:               noData(model.MetricPrice, LabelPrice),
		ShortPercentOfFloat: noData(model.MetricShortPercentOfFloat, LabelShortPercentOfFloat),
		ShortRatio:          noData(model.MetricShortRatio, LabelShortRatio),
		SharesShort:         noData(model.MetricSharesShort, LabelSharesShort),
	}

	if primary.Price != nil {
		d.Price = available(d.Price, FormatPrice(*primary.Price), primarySource)
	}

	// Short % of float.
	if v, ok := scrapedValue(scraped, model.MetricShortPercentOfFloat, ParsePercent); ok {
		d.ShortPercentOfFloat = available(d.ShortPercentOfFloat, FormatPercentPoints(v), scraped.Source)
	} else if primary.ShortPercentOfFloat != nil {
		d.ShortPercentOfFloat = available(d.ShortPercentOfFloat, FormatFraction(*primary.ShortPercentOfFloat), primarySource)
	}

	// Short ratio.
	if v, ok := scrapedValue(scraped, model.MetricShortRatio, ParseRatio); ok {
		d.ShortRatio = available(d.ShortRatio, FormatRatio(v), scraped.Source)
	} else if primary.ShortRatio != nil {
		d.ShortRatio = available(d.ShortRatio, FormatRatio(*primary.ShortRatio), primarySource)
	}

	// Shares short.
	if v, ok := scrapedValue(scraped, model.MetricSharesShort, ParseShares); ok {
		d.SharesShort = available(d.SharesShort, FormatShares(v), scraped.Source)
	} else if primary.SharesShort != nil {
		d.SharesShort = available(d.SharesShort, FormatShares(*primary.SharesShort), primarySource)
	}

	return d
}

// scrapedValue returns the first parseable, non-placeholder value among the
// keywords that carry the metric.
func scrapedValue[T any](scraped *model.ScrapeResult, metric model.MetricKey, parse func(string) (T, error)) (T, bool) {
	var zero T
	if scraped.Empty() {
		return zero, false
	}
	for _, kw := range model.KeywordsFor(metric) {
		raw, ok := scraped.Values[kw]
		if !ok || IsPlaceholder(raw) {
			continue
		}
		v, err := parse(raw)
		if err != nil {
			zap.L().Debug("quote: ignoring unparseable scraped value",
				zap.String("source", scraped.Source),
				zap.String("keyword", kw),
				zap.String("raw", raw),
				zap.Error(err),
			)
			continue
		}
		return v, true
	}
	return zero, false
}

func noData(key model.MetricKey, label string) model.Metric {
	return model.Metric{Key: key, Label: label, Value: model.NoData}
}

func available(m model.Metric, value, source string) model.Metric {
	m.Value = value
	m.Source = source
	m.Available = true
	return m
}
