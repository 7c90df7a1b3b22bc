// Package cmd implements the snipe command line interface.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/1ts-org/snipe/internal/config"
)

var (
	cfgFile string
	homeDir string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "snipe",
	Short: "Filter and navigate merged instant-message history",
	Long: `snipe merges messages from multiple backend feeds into one
time-ordered log and lets you filter, search, and navigate it with a
small filter language.

Filter syntax:
  sender = "alice"            field comparison (= or !=)
  class ~ /lun.h/             regex match
  a and b, a or b, a xor b    combinators, plus not and parentheses
  filter(work)                look up a saved filter by name
  { body contains "zomg" }    raw expression escape hatch
  yes, no                     constants`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.LogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		if err := cfg.EnsureHomeDir(); err != nil {
			return fmt.Errorf("create home directory %s: %w", cfg.HomeDir, err)
		}
		return nil
	},
}

// Execute runs the root command with a background context.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context, enabling
// graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.snipe/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides SNIPE_HOME)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
