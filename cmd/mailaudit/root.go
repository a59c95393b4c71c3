package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/synqronlabs/mailaudit"
	"github.com/synqronlabs/mailaudit/rules"
	"github.com/synqronlabs/mailaudit/selectors"
)

var (
	verbose   bool
	rulesPath string
	poolPath  string
	timeout   time.Duration
	rateLimit int
)

var rootCmd = &cobra.Command{
	Use:   "mailaudit",
	Short: "Email authentication auditor",
	Long: `mailaudit scans a domain's email authentication posture: MX records,
SPF, DMARC, and DKIM selectors, scoring each component against a
declarative rule set and suggesting concrete fixes.

Examples:
  mailaudit check example.com
  mailaudit check example.com --selector mail2024 --json
  mailaudit dkim example.com --quick
  mailaudit pool list`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Path to a scoring rules YAML file (default: built-in)")
	rootCmd.PersistentFlags().StringVar(&poolPath, "pool-file", "", "Path to the brute-force selector pool file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-query DNS timeout (default 5s)")
	rootCmd.PersistentFlags().IntVar(&rateLimit, "rate-limit", 0, "Max DNS queries per second (0 = unlimited)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newAuditor() (*mailaudit.Auditor, error) {
	logger := newLogger()

	opts := &mailaudit.Options{
		QueryTimeout:  timeout,
		RatePerSecond: rateLimit,
		Logger:        logger,
	}

	if rulesPath != "" {
		store, err := rules.LoadFile(rulesPath, logger)
		if err != nil {
			return nil, err
		}
		opts.Rules = store
	}
	if poolPath != "" {
		pool := selectors.NewPool(poolPath, logger)
		if err := pool.Load(); err != nil {
			return nil, err
		}
		opts.Pool = pool
	}

	return mailaudit.New(opts)
}
