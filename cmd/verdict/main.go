package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

// rootCmd is the base command for the verdict CLI.
var rootCmd = &cobra.Command{
	Use:   "verdict",
	Short: "verdict evaluates candidate trading setups",
	Long: `verdict runs the signal evaluation funnel: hard rule gates, pluggable
probabilistic scoring, regime-adaptive thresholds, tier classification and a
deterministic explanation for every candidate setup.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/verdict.yaml", "Path to configuration file")
}

func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
