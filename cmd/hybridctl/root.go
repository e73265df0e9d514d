package main

import (
	"context"
	"fmt"
	"os"

	"hybridsearch/internal/app"
	"hybridsearch/internal/config"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "hybridctl",
	Short: "Hybrid semantic and structured property search",
	Long: `hybridctl runs the property search pipeline against the configured
stores. Configuration is read from the environment and an optional .env file,
the same way the HTTP server reads it.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "hybridctl %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(versionCmd)
}

// openEngine loads configuration and wires the pipeline. Logs go to stderr so
// stdout stays parseable with --json.
func openEngine(ctx context.Context) (*app.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logCfg := config.LoggingConfig{Level: "warn", Format: "text"}
	if verbose {
		logCfg.Level = "debug"
	}
	return app.New(ctx, cfg, app.NewLogger(logCfg, os.Stderr))
}
