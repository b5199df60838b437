// Package main implements ragvaultd, a thin cobra CLI over the Vault
// facade: each subcommand parses flags, calls one Vault method, and
// prints JSON. It drives internal/vault.Vault in-process rather than
// through an HTTP client; transport belongs to whatever frontend embeds
// the engine.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragvault/internal/logging"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "ragvaultd",
	Short:   "Local-first, privacy-preserving RAG ingestion and retrieval engine",
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (defaults to ~/.config/ragvault/config.yaml)")
	rootCmd.AddCommand(ingestCmd, statusCmd, searchCmd, askCmd, purgeCmd, exportCmd)
}

// newCLILogger builds the process-wide logger from internal/logging's
// default config, falling back to a console zap logger if construction
// fails so a logging bug never prevents a subcommand from running.
func newCLILogger() *zap.Logger {
	cfg := logging.NewDefaultConfig()
	cfg.Format = "console"
	l, err := logging.NewLogger(cfg, nil)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		return fallback
	}
	return l.Underlying()
}
