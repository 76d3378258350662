package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vaultmeter/vaultmeter/bootstrap"
	"github.com/vaultmeter/vaultmeter/config"
)

var (
	// Global flags
	cfgFile string
	ownerID string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vaultmeter",
	Short: "Usage metering with recurring budgets and a usage calendar",
	Long: `vaultmeter tracks how much of a recurring budget each account has used.

Accounts reset daily, weekly, monthly, yearly or never. Every logged
amount is kept as an event, so history can be edited and browsed by day.

Quick start:
  vaultmeter hash-token           # Hash an API token for the config file
  vaultmeter serve                # Start the HTTP API

Local management:
  vaultmeter accounts             # Manage accounts
  vaultmeter usage                # Log and inspect usage
  vaultmeter calendar             # Print a month of usage
  vaultmeter validate             # Validate configuration`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "vaultmeter.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "", "owner to act as (defaults to auth.default_owner)")
}

// openCore loads configuration and opens storage for a management command.
func openCore(cmd *cobra.Command) (*bootstrap.App, string, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	core, err := bootstrap.NewCore(cfg, logger)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open storage: %w", err)
	}

	owner := ownerID
	if owner == "" {
		owner = cfg.Auth.DefaultOwner
	}
	return core, owner, nil
}
