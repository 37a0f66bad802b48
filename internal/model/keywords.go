package model

// Keywords matched (case-sensitively, as substrings) against table row labels
// on secondary pages.
const (
	KeywordShortFloat        = "Short Float"
	KeywordShortPctOfFloat   = "Short % of Float"
	KeywordPctOfFloatShorted = "% of Float Shorted"
	KeywordShortRatio        = "Short Ratio"
	KeywordSharesShort       = "Shares Short"
	KeywordShortInterest     = "Short Interest"
)

// ShortInterestKeywords returns the keyword set in scan order.
func ShortInterestKeywords() []string {
	return []string{
		KeywordShortFloat,
		KeywordShortPctOfFloat,
		KeywordPctOfFloatShorted,
		KeywordShortRatio,
		KeywordSharesShort,
		KeywordShortInterest,
	}
}

// KeywordsFor returns the keywords that carry a metric, most specific first.
func KeywordsFor(m MetricKey) []string {
	switch m {
	case MetricShortPercentOfFloat:
		return []string{KeywordShortFloat, KeywordShortPctOfFloat, KeywordPctOfFloatShorted}
	case MetricShortRatio:
		return []string{KeywordShortRatio}
	case MetricSharesShort:
		return []string{KeywordSharesShort, KeywordShortInterest}
	default:
		return nil
	}
}
