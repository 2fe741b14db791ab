// Command clover serves the agent registry API and runs offline duplicate scans
package main

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "clover",
	Short: "Agent registry with fuzzy duplicate detection",
	Long: `Clover keeps the registry of agents and flags probable duplicates when new
agents are entered or imported from spreadsheets.

Configuration is read from the environment and from the optional .env file
named by --env-file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "Environment files loaded before the process environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds the logger every command shares
func loadConfig(cmd *cobra.Command) (*config.Config, ectologger.Logger, func(), error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")

	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, zapLogger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, func() { _ = zapLogger.Sync() }, nil
}
