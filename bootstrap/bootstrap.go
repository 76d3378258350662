// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vaultmeter/vaultmeter/adapters/clock"
	"github.com/vaultmeter/vaultmeter/adapters/hasher"
	apihttp "github.com/vaultmeter/vaultmeter/adapters/http"
	"github.com/vaultmeter/vaultmeter/adapters/idgen"
	"github.com/vaultmeter/vaultmeter/adapters/memory"
	"github.com/vaultmeter/vaultmeter/adapters/metrics"
	"github.com/vaultmeter/vaultmeter/adapters/sqlite"
	"github.com/vaultmeter/vaultmeter/app"
	"github.com/vaultmeter/vaultmeter/config"
	"github.com/vaultmeter/vaultmeter/ports"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	DB         *sqlite.DB // nil with the memory driver
	HTTPServer *http.Server
	Metrics    *metrics.Collector // nil when metrics are disabled
	Clock      ports.Clock

	// Services
	Accounts  *app.AccountService
	Usage     *app.UsageService
	Calendar  *app.CalendarService
	Snapshots *app.Snapshots

	holder *config.Holder
}

// Options controls application initialization.
type Options struct {
	// ConfigPath is a YAML file. When it exists it is watched for changes;
	// otherwise configuration comes from VAULTMETER_* variables.
	ConfigPath string

	// Config, when set, is used as is and nothing is watched.
	Config *config.Config

	// Version is reported by /version.
	Version string

	// LogOutput defaults to stdout.
	LogOutput io.Writer
}

// New creates the application with its HTTP server.
func New(opts Options) (*App, error) {
	cfg, holder, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateServe(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	out := opts.LogOutput
	if out == nil {
		out = os.Stdout
	}
	logger := SetupLogger(cfg.Logging, out)
	if holder != nil {
		holder.SetLogger(logger)
	}
	logger.Info().Msg("initializing vaultmeter")

	var collector *metrics.Collector
	var m ports.Metrics = metrics.Nop{}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.NewWithRegistry(reg, reg)
		m = collector
		logger.Info().Msg("prometheus metrics enabled")
	}

	a, err := newCore(cfg, logger, m)
	if err != nil {
		if holder != nil {
			holder.Stop()
		}
		return nil, err
	}
	a.Metrics = collector
	a.holder = holder

	if err := a.initHTTPServer(opts.Version); err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("init http server: %w", err)
	}

	if holder != nil {
		holder.OnChange(a.applyReload)
		holder.OnError(func(err error) {
			if a.Metrics != nil {
				a.Metrics.ConfigReloaded(err)
			}
		})
	}

	return a, nil
}

// NewCore opens storage and builds the services without an HTTP server.
// CLI commands use it.
func NewCore(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	return newCore(cfg, logger, metrics.Nop{})
}

func loadConfig(opts Options) (*config.Config, *config.Holder, error) {
	if opts.Config != nil {
		return opts.Config, nil, nil
	}
	if opts.ConfigPath != "" {
		if _, err := os.Stat(opts.ConfigPath); err == nil {
			holder, err := config.NewHolder(opts.ConfigPath, zerolog.Nop())
			if err != nil {
				return nil, nil, err
			}
			return holder.Get(), holder, nil
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil, nil
}

func newCore(cfg *config.Config, logger zerolog.Logger, m ports.Metrics) (*App, error) {
	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, err
	}

	a := &App{
		Logger: logger,
		Config: cfg,
		Clock:  clock.NewLocal(loc),
	}

	accounts, events, err := a.initStorage()
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a.Snapshots = app.NewSnapshots(events, a.Clock, m, cfg.Usage.CacheTTL)
	a.Usage = app.NewUsageService(app.UsageDeps{
		Accounts:  accounts,
		Events:    events,
		Snapshots: a.Snapshots,
		Clock:     a.Clock,
		IDGen:     idgen.Prefixed("evt"),
		Metrics:   m,
		Logger:    logger,
	}, app.UsageConfig{Concurrency: cfg.Usage.Concurrency})
	a.Accounts = app.NewAccountService(accounts, a.Usage, a.Snapshots, a.Clock, idgen.Prefixed("acc"), logger)
	a.Calendar = app.NewCalendarService(accounts, a.Snapshots, loc, logger)

	return a, nil
}

func (a *App) initStorage() (ports.AccountStore, ports.EventStore, error) {
	switch a.Config.Database.Driver {
	case config.DriverMemory:
		a.Logger.Warn().Msg("using in-memory storage, data is lost on exit")
		return memory.NewAccountStore(), memory.NewEventStore(), nil

	default:
		dsn := a.Config.Database.DSN
		db, err := sqlite.Open(dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		a.DB = db
		a.Logger.Info().Str("dsn", dsn).Msg("database initialized")
		return sqlite.NewAccountStore(db), sqlite.NewEventStore(db), nil
	}
}

func (a *App) initHTTPServer(version string) error {
	cfg := a.Config

	auth := apihttp.AuthConfig{
		Mode:         cfg.Auth.Mode,
		OwnerHeader:  cfg.Auth.OwnerHeader,
		DefaultOwner: cfg.Auth.DefaultOwner,
	}
	if cfg.Auth.Mode == config.AuthToken {
		grants := make([]hasher.Grant, 0, len(cfg.Auth.Tokens))
		for _, t := range cfg.Auth.Tokens {
			grants = append(grants, hasher.Grant{OwnerID: t.Owner, Hash: []byte(t.Hash)})
		}
		auth.Tokens = hasher.NewTokens(hasher.NewBcrypt(cfg.Auth.BcryptCost), grants)
	}
	if cfg.Auth.Mode == config.AuthNone {
		a.Logger.Warn().Str("owner", cfg.Auth.DefaultOwner).Msg("authentication disabled, all requests act as one owner")
	}

	var health *apihttp.HealthHandler
	if a.DB != nil {
		health = apihttp.NewHealthHandler(a.DB)
	} else {
		health = apihttp.NewHealthHandler(nil)
	}

	router := apihttp.NewRouter(apihttp.RouterConfig{
		API: apihttp.NewHandler(apihttp.HandlerDeps{
			Accounts: a.Accounts,
			Usage:    a.Usage,
			Calendar: a.Calendar,
			Clock:    a.Clock,
			Logger:   a.Logger,
		}),
		Health:  health,
		Auth:    auth,
		Metrics: a.Metrics,
		Version: version,
		Timeout: cfg.Server.RequestTimeout,
		Swagger: cfg.OpenAPI.Enabled,
	}, a.Logger)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return nil
}

// applyReload applies the reloadable settings of a new configuration.
func (a *App) applyReload(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level)); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	a.Snapshots.SetTTL(cfg.Usage.CacheTTL)
	a.Usage.UpdateConfig(app.DynamicConfig{Concurrency: cfg.Usage.Concurrency})

	if a.Metrics != nil {
		a.Metrics.ConfigReloaded(nil)
	}
	a.Logger.Info().
		Str("log_level", cfg.Logging.Level).
		Dur("cache_ttl", cfg.Usage.CacheTTL).
		Int("concurrency", cfg.Usage.Concurrency).
		Msg("runtime settings updated")
}

// Reload re-reads the config file and applies its reloadable settings.
func (a *App) Reload() error {
	if a.holder == nil {
		return errors.New("no config file to reload")
	}
	return a.holder.Reload()
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	if a.holder != nil {
		if err := a.holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch unavailable")
		}
		a.holder.WatchSignals()
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
	}

	// Shutdown HTTP server
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	// Close database
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// Close releases storage without logging. CLI commands use it.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// SetupLogger builds the process logger and sets the global level.
func SetupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
