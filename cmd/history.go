package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/short-interest/internal/lookup"
	"github.com/sells-group/short-interest/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded lookups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("history"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		ticker, _ := cmd.Flags().GetString("ticker")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		filter := store.LookupFilter{Limit: limit}
		if ticker != "" {
			if filter.Ticker, err = lookup.NormalizeTicker(ticker); err != nil {
				return err
			}
		}

		recs, err := st.ListLookups(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if asJSON {
			return writeJSONIndent(os.Stdout, recs)
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No lookups recorded.")
			return nil
		}
		formatLookupList(os.Stdout, recs)
		return nil
	},
}

func init() {
	historyCmd.Flags().String("ticker", "", "only show lookups of this ticker")
	historyCmd.Flags().Int("limit", 20, "max number of lookups to show")
	historyCmd.Flags().Bool("json", false, "print records as JSON")
	rootCmd.AddCommand(historyCmd)
}

func formatLookupList(out io.Writer, recs []store.LookupRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTICKER\tPRICE\tSHORT % FLOAT\tSHORT RATIO\tSHARES SHORT\tFALLBACK\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t-----\t-------------\t-----------\t------------\t--------\t-------")

	for _, r := range recs {
		fallback := "no"
		if r.UsedFallback {
			fallback = "yes"
		}
		d := r.Display
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Ticker,
			d.Price.Value,
			d.ShortPercentOfFloat.Value,
			d.ShortRatio.Value,
			d.SharesShort.Value,
			fallback,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID shortens a UUID to its first 8 characters for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
