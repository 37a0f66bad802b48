package quote

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatPrice renders a price with a dollar prefix and two decimals.
func FormatPrice(p float64) string {
	return "$" + strconv.FormatFloat(p, 'f', 2, 64)
}

// FormatFraction renders a 0-1 fraction as a percentage with two decimals.
func FormatFraction(f float64) string {
	return FormatPercentPoints(f * 100)
}

// FormatPercentPoints renders a value already expressed in percentage points.
func FormatPercentPoints(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64) + "%"
}

// FormatRatio renders a days-to-cover ratio with two decimals.
func FormatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', 2, 64)
}

// FormatShares renders a share count with thousands separators.
func FormatShares(n int64) string {
	return printer.Sprintf("%d", n)
}

// IsPlaceholder reports whether a scraped string stands for "no value".
func IsPlaceholder(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "-", "--", "—", "N/A", "n/a", "NA":
		return true
	}
	return false
}

// ParsePercent parses a scraped percentage. Values are percentage points
// whether or not they carry a trailing "%": "5.20%" and "5.2" both yield 5.2.
func ParsePercent(s string) (float64, error) {
	s = cleanNumber(s)
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse percent %q", s)
	}
	return checkFigure("percent", s, v)
}

// ParseRatio parses a scraped days-to-cover figure.
func ParseRatio(s string) (float64, error) {
	v, err := strconv.ParseFloat(cleanNumber(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse ratio %q", s)
	}
	return checkFigure("ratio", s, v)
}

// ParseShares parses a scraped share count. Thousands separators and K/M/B
// suffixes are accepted: "45.12M" yields 45120000.
func ParseShares(s string) (int64, error) {
	s = cleanNumber(s)
	mult := 1.0
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'K', 'k':
			mult = 1e3
		case 'M', 'm':
			mult = 1e6
		case 'B', 'b':
			mult = 1e9
		}
		if mult != 1 {
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse shares %q", s)
	}
	if _, err := checkFigure("shares", s, v); err != nil {
		return 0, err
	}
	n := math.Round(v * mult)
	// float64(math.MaxInt64) rounds up to 2^63, which no int64 holds.
	if n >= math.MaxInt64 {
		return 0, eris.Errorf("parse shares: %q out of range", s)
	}
	return int64(n), nil
}

// checkFigure rejects values no site legitimately publishes for a short
// interest figure: NaN, infinities and negatives.
func checkFigure(kind, raw string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("parse %s: %q is not a finite number", kind, raw)
	}
	if v < 0 {
		return 0, eris.Errorf("parse %s: negative value %q", kind, raw)
	}
	return v, nil
}

// cleanNumber strips whitespace and thousands separators. Some sites append
// a date or change in parentheses ("45.12M (3/15/24)"); only the first field
// is kept.
func cleanNumber(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\n("); i > 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, ",", "")
}
