// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the deckproxy CLI.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deckproxy/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds the credentials read from the secrets directory at
// startup.
var loadedSecrets secrets.Secrets

// logger is the process logger, configured from the persistent flags.
var logger = slog.Default()

// secretDefault returns fallback if set, or else the secret stored for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets.Get(key)
}

// exitError carries a process exit status without an error message.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// rootCmd is the base command for the deckproxy CLI.
var rootCmd = &cobra.Command{
	Use:   "deckproxy",
	Short: "Check deck lists and print proxy sheets",
	Long: `deckproxy reads a deck list (PDF or plain text), groups its text into
lines, parses metadata, section headers and card entries, validates them,
and writes a report. Every line of the input is accounted for: lines that
match no known structure are reported as unparsed rather than dropped.

The proxies command lays out the card images of a checked deck on printable
A4 sheets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		l, err := newLogger(os.Stderr, level, format)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./deckproxy.yaml or ~/.config/deckproxy/deckproxy.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of secret files (pdf-password)")
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
