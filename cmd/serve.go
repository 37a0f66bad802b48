package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/short-interest/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the short-interest dashboard and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initLookup(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		pruner, err := startPruner(ctx, env.Store, cfg.Store.PruneSchedule, cfg.Store.RetentionDays)
		if err != nil {
			return err
		}
		if pruner != nil {
			defer pruner.Stop()
		}

		d := &dashboard{svc: env.Service, store: env.Store, period: env.Period, breakers: env.Breakers}
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(d, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// startPruner schedules deletion of lookup history older than retentionDays.
// It returns nil when pruning is disabled (no persistent store, or a
// retention of zero).
func startPruner(ctx context.Context, st store.Store, schedule string, retentionDays int) (*cron.Cron, error) {
	if retentionDays <= 0 {
		return nil, nil
	}
	if _, noop := st.(store.NoopStore); noop {
		return nil, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { pruneLookups(ctx, st, retentionDays) }); err != nil {
		return nil, eris.Wrapf(err, "register prune schedule %q", schedule)
	}
	c.Start()
	zap.L().Info("lookup history pruning scheduled",
		zap.String("schedule", schedule),
		zap.Int("retention_days", retentionDays),
	)
	return c, nil
}

func pruneLookups(ctx context.Context, st store.Store, retentionDays int) {
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	n, err := st.DeleteLookupsBefore(ctx, cutoff)
	if err != nil {
		zap.L().Error("prune lookup history failed", zap.Error(err))
		return
	}
	zap.L().Info("pruned lookup history", zap.Int("deleted", n), zap.Time("cutoff", cutoff))
}
