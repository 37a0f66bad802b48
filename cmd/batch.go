package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/short-interest/internal/lookup"
)

var (
	batchWatchlist string
	batchJSON      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Look up every ticker in a watchlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		tickers, err := lookup.LoadWatchlist(batchWatchlist)
		if err != nil {
			return err
		}

		env, err := initLookup(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		// Batch summaries omit history.
		results := processBatch(ctx, tickers, cfg.Batch.MaxConcurrent, func(ctx context.Context, ticker string) (*lookup.Result, error) {
			return env.Service.Lookup(ctx, ticker, "")
		})

		if batchJSON {
			return writeBatchJSON(os.Stdout, results)
		}
		writeBatch(os.Stdout, results)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchWatchlist, "watchlist", "watchlist.yaml", "YAML watchlist file")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(batchCmd)
}

// lookupFunc performs one lookup; processBatch takes it so tests can stub the
// service.
type lookupFunc func(ctx context.Context, ticker string) (*lookup.Result, error)

// batchResult is one watchlist entry's outcome. Err is the user-facing error
// text, empty on success.
type batchResult struct {
	Ticker string         `json:"ticker"`
	Result *lookup.Result `json:"result,omitempty"`
	Err    string         `json:"error,omitempty"`
}

// processBatch runs independent lookups with bounded concurrency. A failed
// lookup is recorded in its slot and never aborts the batch. Results keep
// watchlist order.
func processBatch(ctx context.Context, tickers []string, concurrency int, fn lookupFunc) []batchResult {
	if concurrency < 1 {
		concurrency = 1
	}
	zap.L().Info("processing batch",
		zap.Int("tickers", len(tickers)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]batchResult, len(tickers))
	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, ticker := range tickers {
		g.Go(func() error {
			results[i].Ticker = ticker
			res, err := fn(gctx, ticker)
			if err != nil {
				failed.Add(1)
				results[i].Err = userMessage(err)
				zap.L().Warn("batch lookup failed", zap.String("ticker", ticker), zap.Error(err))
				return nil // don't abort batch on individual failure
			}
			succeeded.Add(1)
			results[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

// userMessage maps lookup errors to the text shown to users. Unexpected
// errors are reduced to a generic message.
func userMessage(err error) string {
	var ie *lookup.InputError
	if errors.As(err, &ie) {
		return ie.Error()
	}
	var le *lookup.LookupError
	if errors.As(err, &le) {
		return le.Error()
	}
	return "lookup failed"
}

func writeBatchJSON(out io.Writer, results []batchResult) error {
	if err := writeJSONIndent(out, results); err != nil {
		return eris.Wrap(err, "batch: encode results")
	}
	return nil
}

func writeBatch(out io.Writer, results []batchResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TICKER\tPRICE\tSHORT % FLOAT\tSHORT RATIO\tSHARES SHORT\tFALLBACK")
	_, _ = fmt.Fprintln(w, "------\t-----\t-------------\t-----------\t------------\t--------")
	for _, r := range results {
		if r.Result == nil {
			_, _ = fmt.Fprintf(w, "%s\t%s\t\t\t\t\n", r.Ticker, r.Err)
			continue
		}
		d := r.Result.Display
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Ticker,
			d.Price.Value,
			d.ShortPercentOfFloat.Value,
			d.ShortRatio.Value,
			d.SharesShort.Value,
			r.Result.ScrapeSource,
		)
	}
	_ = w.Flush()
}
