package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vaultmeter/vaultmeter/adapters/sqlite"
	"github.com/vaultmeter/vaultmeter/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the vaultmeter configuration file.

Checks:
  - YAML syntax is valid
  - Field values are in range
  - The server has what it needs to start (tokens in token mode)
  - Database is writable (optional)

Examples:
  vaultmeter validate
  vaultmeter validate --config /etc/vaultmeter/config.yaml --check-database`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

var validateCheckDatabase bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check if the database can be opened and migrated")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	if err := cfg.ValidateServe(); err != nil {
		fmt.Fprintf(out, "  %s Ready to serve\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Ready to serve\n", checkMark)

	// Show config summary
	loc, _ := cfg.Calendar.Location()
	fmt.Fprintf(out, "  %s Listen: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Auth mode: %s (%d tokens)\n", checkMark, cfg.Auth.Mode, len(cfg.Auth.Tokens))
	fmt.Fprintf(out, "  %s Database: %s (%s)\n", checkMark, cfg.Database.DSN, cfg.Database.Driver)
	fmt.Fprintf(out, "  %s Timezone: %s\n", checkMark, loc)
	fmt.Fprintf(out, "  %s Usage cache: %s, concurrency %d\n", checkMark, cfg.Usage.CacheTTL, cfg.Usage.Concurrency)

	// Optional: check database
	if validateCheckDatabase && cfg.Database.Driver == config.DriverSQLite {
		if err := checkDatabaseWritable(cfg.Database.DSN); err != nil {
			fmt.Fprintf(out, "  %s Database writable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Database writable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkDatabaseWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.Migrate(ctx)
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
