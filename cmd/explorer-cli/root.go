package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"dataexplorer/internal/config"
	"dataexplorer/internal/infrastructure"
)

var (
	// Global flags
	logLevel string
	useEnv   bool
)

var rootCmd = &cobra.Command{
	Use:           "explorer-cli",
	Short:         "Explore CSV and Excel files from the command line",
	Long:          `explorer-cli runs the same cleaning, statistics, correlation, chart and PCA pipeline as the explorer dashboard and writes the results to files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&useEnv, "env", false, "read EXPLORER_* environment variables and the config file")
	rootCmd.AddCommand(newAnalyzeCmd())
}

// loadConfig returns the defaults unless --env asks for the server's
// configuration sources
func loadConfig() (*config.Config, error) {
	if !useEnv {
		return config.Default(), nil
	}
	return config.Load()
}

func newLogger() *slog.Logger {
	return infrastructure.NewLogger(os.Stderr, logLevel)
}
