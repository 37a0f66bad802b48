package model

// MetricKey identifies a displayed metric.
type MetricKey string

const (
	MetricPrice               MetricKey = "price"
	MetricShortPercentOfFloat MetricKey = "short_percent_of_float"
	MetricShortRatio          MetricKey = "short_ratio"
	MetricSharesShort         MetricKey = "shares_short"
)

// ShortMetrics returns the metrics that may come from a secondary source.
func ShortMetrics() []MetricKey {
	return []MetricKey{
		MetricShortPercentOfFloat,
		MetricShortRatio,
		MetricSharesShort,
	}
}

// NoData is shown for any metric no source could supply.
const NoData = "--"

// Metric is one display-ready value with the source that supplied it.
type Metric struct {
	Key       MetricKey `json:"key"`
	Label     string    `json:"label"`
	Value     string    `json:"value"`
	Source    string    `json:"source,omitempty"`
	Available bool      `json:"available"`
}

// Display is the merged, formatted view of a lookup.
type Display struct {
	Ticker              string `json:"ticker"`
	Price               Metric `json:"price"`
	ShortPercentOfFloat Metric `json:"short_percent_of_float"`
	ShortRatio          Metric `json:"short_ratio"`
	SharesShort         Metric `json:"shares_short"`
}

// Metrics returns the display metrics in presentation order.
func (d Display) Metrics() []Metric {
	return []Metric{d.Price, d.ShortPercentOfFloat, d.ShortRatio, d.SharesShort}
}

// Link is an outbound deep link to an external site.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
