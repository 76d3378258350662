package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDebounce coalesces the burst of events an editor save produces.
const reloadDebounce = 100 * time.Millisecond

// Holder keeps the current configuration and swaps it on reload.
// File changes and SIGHUP both funnel into one reload loop.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	onChange []func(*Config)
	onError  []func(error)

	path   string
	logger zerolog.Logger

	requests  chan string // reload reasons
	startLoop sync.Once
	stopCh    chan struct{}
	stopOnce  sync.Once
	watcher   *fsnotify.Watcher
}

// NewHolder loads path and returns a holder for it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		config:   cfg,
		path:     absPath,
		logger:   logger.With().Str("component", "config").Logger(),
		requests: make(chan string, 1),
		stopCh:   make(chan struct{}),
	}, nil
}

// SetLogger replaces the holder's logger. Call it before WatchFile,
// WatchSignals or Reload.
func (h *Holder) SetLogger(logger zerolog.Logger) {
	h.logger = logger.With().Str("component", "config").Logger()
}

// Get returns the current configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Path returns the absolute path of the config file.
func (h *Holder) Path() string {
	return h.path
}

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnError registers fn to run after every failed reload.
func (h *Holder) OnError(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

// Reload reads the file again. On failure the previous configuration stays.
func (h *Holder) Reload() error {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", h.path).Msg("config reload failed, keeping previous config")
		h.mu.RLock()
		listeners := append([]func(error){}, h.onError...)
		h.mu.RUnlock()
		for _, fn := range listeners {
			fn(err)
		}
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	prev := h.config
	h.config = next
	listeners := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.logChanges(prev, next)
	for _, fn := range listeners {
		fn(next)
	}
	h.logger.Info().Str("path", h.path).Msg("configuration reloaded")
	return nil
}

// WatchFile reloads when the file is written or replaced. The parent
// directory is watched so atomic renames are seen.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	h.watcher = watcher
	h.start()

	name := filepath.Base(h.path)
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					h.request("file " + ev.Op.String())
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				h.logger.Error().Err(err).Msg("file watcher error")
			case <-h.stopCh:
				return
			}
		}
	}()

	h.logger.Info().Str("path", h.path).Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *Holder) WatchSignals() {
	h.start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.request("SIGHUP")
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop ends watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

// request queues a reload; a pending request absorbs later ones.
func (h *Holder) request(reason string) {
	select {
	case h.requests <- reason:
	default:
	}
}

func (h *Holder) start() {
	h.startLoop.Do(func() { go h.loop() })
}

func (h *Holder) loop() {
	for {
		select {
		case reason := <-h.requests:
			// let the rest of the burst land first
			select {
			case <-time.After(reloadDebounce):
			case <-h.stopCh:
				return
			}
			select {
			case <-h.requests:
			default:
			}
			h.logger.Debug().Str("reason", reason).Msg("config reload requested")
			h.Reload()
		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(prev, next *Config) {
	if prev.Logging.Level != next.Logging.Level {
		h.logger.Info().Str("old", prev.Logging.Level).Str("new", next.Logging.Level).Msg("log level changed")
	}
	if prev.Usage.CacheTTL != next.Usage.CacheTTL {
		h.logger.Info().Dur("old", prev.Usage.CacheTTL).Dur("new", next.Usage.CacheTTL).Msg("usage cache ttl changed")
	}
	if prev.Usage.Concurrency != next.Usage.Concurrency {
		h.logger.Info().Int("old", prev.Usage.Concurrency).Int("new", next.Usage.Concurrency).Msg("recompute concurrency changed")
	}
	for _, field := range NonReloadableFields() {
		if fieldChanged(prev, next, field) {
			h.logger.Warn().Str("field", field).Msg("change requires a restart")
		}
	}
}

func fieldChanged(prev, next *Config, field string) bool {
	switch field {
	case "server.host":
		return prev.Server.Host != next.Server.Host
	case "server.port":
		return prev.Server.Port != next.Server.Port
	case "database.driver":
		return prev.Database.Driver != next.Database.Driver
	case "database.dsn":
		return prev.Database.DSN != next.Database.DSN
	case "auth.mode":
		return prev.Auth.Mode != next.Auth.Mode
	case "auth.tokens":
		if len(prev.Auth.Tokens) != len(next.Auth.Tokens) {
			return true
		}
		for i := range prev.Auth.Tokens {
			if prev.Auth.Tokens[i] != next.Auth.Tokens[i] {
				return true
			}
		}
		return false
	case "calendar.timezone":
		return prev.Calendar.Timezone != next.Calendar.Timezone
	}
	return false
}

// ReloadableFields lists the settings applied without a restart.
func ReloadableFields() []string {
	return []string{"logging.level", "usage.cache_ttl", "usage.concurrency"}
}

// NonReloadableFields lists the settings that need a restart.
func NonReloadableFields() []string {
	return []string{
		"server.host",
		"server.port",
		"database.driver",
		"database.dsn",
		"auth.mode",
		"auth.tokens",
		"calendar.timezone",
	}
}
