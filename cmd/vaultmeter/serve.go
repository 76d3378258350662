package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vaultmeter/vaultmeter/bootstrap"
	"github.com/vaultmeter/vaultmeter/config"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the vaultmeter HTTP API.

The server will:
  - Load configuration from vaultmeter.yaml (or --config)
  - Or load configuration from VAULTMETER_* environment variables
  - Open the database and apply migrations
  - Serve the JSON:API under /api, plus /health, /metrics and /swagger

Environment variables (for container deployments):
  VAULTMETER_DATABASE_DSN      - Database path (default: vaultmeter.db)
  VAULTMETER_SERVER_PORT       - Server port (default: 8080)
  VAULTMETER_AUTH_MODE         - Auth mode: token, trusted or none
  VAULTMETER_AUTH_TOKENS       - owner=bcrypt-hash pairs, comma separated
  VAULTMETER_CALENDAR_TIMEZONE - IANA zone used for periods and the calendar
  VAULTMETER_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  vaultmeter serve
  vaultmeter serve --config /etc/vaultmeter/config.yaml
  vaultmeter serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload logging and usage settings when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	opts := bootstrap.Options{Version: version}

	_, statErr := os.Stat(cfgFile)
	switch {
	case statErr == nil && hotReload:
		opts.ConfigPath = cfgFile
	default:
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if statErr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Running with environment variables (no config file)")
		}
		opts.Config = cfg
	}

	vm, err := bootstrap.New(opts)
	if err != nil {
		return fmt.Errorf("error initializing: %w", err)
	}

	// Run (blocks until shutdown)
	return vm.Run()
}
