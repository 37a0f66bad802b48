package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/short-interest/internal/lookup"
	"github.com/sells-group/short-interest/internal/provider"
	"github.com/sells-group/short-interest/internal/quote"
)

var (
	lookupPeriod    string
	lookupJSON      bool
	lookupNoHistory bool
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <ticker>",
	Short: "Look up short-interest metrics for one ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initLookup(ctx, "lookup")
		if err != nil {
			return err
		}
		defer env.Close()

		period := env.Period
		if lookupPeriod != "" {
			if period, err = provider.ParsePeriod(lookupPeriod); err != nil {
				return err
			}
		}
		if lookupNoHistory {
			period = ""
		}

		res, err := env.Service.Lookup(ctx, args[0], period)
		if err != nil {
			return err
		}

		if lookupJSON {
			return writeResultJSON(os.Stdout, res)
		}
		writeResult(os.Stdout, res, period)
		return nil
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupPeriod, "period", "", "history period: 1mo, 3mo, 6mo or 1y (default from config)")
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "print the result as JSON")
	lookupCmd.Flags().BoolVar(&lookupNoHistory, "no-history", false, "skip price history")
	rootCmd.AddCommand(lookupCmd)
}

func writeResultJSON(out io.Writer, res *lookup.Result) error {
	return writeJSONIndent(out, res)
}

func writeJSONIndent(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResult prints metrics, links and a history summary as aligned text.
func writeResult(out io.Writer, res *lookup.Result, period provider.Period) {
	title := res.Ticker
	if res.Name != "" {
		title += " (" + res.Name + ")"
	}
	_, _ = fmt.Fprintln(out, title)
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "METRIC\tVALUE\tSOURCE")
	_, _ = fmt.Fprintln(w, "------\t-----\t------")
	for _, m := range res.Display.Metrics() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", m.Label, m.Value, m.Source)
	}
	_ = w.Flush()

	if res.UsedFallback {
		_, _ = fmt.Fprintf(out, "\nFallback data from %s (%s)\n", res.ScrapeSource, res.ScrapeURL)
	}

	if period != "" {
		_, _ = fmt.Fprintln(out)
		if res.Warning != "" {
			_, _ = fmt.Fprintln(out, "Warning: "+res.Warning)
		} else {
			_, _ = fmt.Fprintln(out, historySummary(res, period))
		}
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, l := range res.Links {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", l.Name, l.URL)
	}
	_ = w.Flush()
}

// historySummary describes a history series in one line: first and last
// close, change, and range.
func historySummary(res *lookup.Result, period provider.Period) string {
	h := res.History
	if len(h) == 0 {
		return ""
	}
	first, last := h[0], h[len(h)-1]
	lo, hi := first.Close, first.Close
	for _, p := range h {
		lo = min(lo, p.Close)
		hi = max(hi, p.Close)
	}
	change := ""
	if first.Close != 0 {
		change = fmt.Sprintf(" (%+.2f%%)", (last.Close-first.Close)/first.Close*100)
	}
	return fmt.Sprintf("History %s: %d closes, %s on %s to %s on %s%s, range %s to %s",
		period, len(h),
		quote.FormatPrice(first.Close), first.Date.Format("2006-01-02"),
		quote.FormatPrice(last.Close), last.Date.Format("2006-01-02"),
		change,
		quote.FormatPrice(lo), quote.FormatPrice(hi),
	)
}
