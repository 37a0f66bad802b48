package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/short-interest/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "short-interest",
	Short: "Short-interest lookup for stocks and ETFs",
	Long:  "Looks up price, short ratio, short % of float and shares short for a ticker, filling gaps the primary provider leaves from secondary finance sites.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
