package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vaultmeter/vaultmeter/adapters/metrics"
	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
)

// Auth modes.
const (
	AuthToken   = "token"   // Authorization: Bearer <token>, matched against configured hashes
	AuthTrusted = "trusted" // owner taken from a header set by an authenticating proxy
	AuthNone    = "none"    // every request acts as a single fixed owner
)

// TokenResolver maps a presented token to its owner.
type TokenResolver interface {
	Resolve(token string) (ownerID string, ok bool)
}

// AuthConfig configures owner resolution.
type AuthConfig struct {
	Mode         string
	Tokens       TokenResolver
	OwnerHeader  string // trusted mode, default X-Owner-ID
	DefaultOwner string // none mode
}

type ownerKey struct{}

// WithOwner returns a context carrying the authenticated owner.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerFromContext returns the authenticated owner.
func OwnerFromContext(ctx context.Context) (string, bool) {
	owner, ok := ctx.Value(ownerKey{}).(string)
	return owner, ok && owner != ""
}

// NewAuthMiddleware resolves the request's owner or rejects it with 401.
func NewAuthMiddleware(cfg AuthConfig, m *metrics.Collector, logger zerolog.Logger) func(next http.Handler) http.Handler {
	header := cfg.OwnerHeader
	if header == "" {
		header = "X-Owner-ID"
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason, detail string) {
		if m != nil {
			m.AuthFailures.WithLabelValues(reason).Inc()
		}
		logger.Debug().
			Str("reason", reason).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request rejected")
		jsonapi.WriteError(w, jsonapi.ErrUnauthorized(detail))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var owner string

			switch cfg.Mode {
			case AuthNone:
				owner = cfg.DefaultOwner
			case AuthTrusted:
				owner = strings.TrimSpace(r.Header.Get(header))
				if owner == "" {
					reject(w, r, "missing_owner", header+" header is required")
					return
				}
			default:
				token := bearerToken(r)
				if token == "" {
					reject(w, r, "missing_token", "")
					return
				}
				if cfg.Tokens == nil {
					reject(w, r, "no_tokens", "No access tokens are configured")
					return
				}
				var ok bool
				owner, ok = cfg.Tokens.Resolve(token)
				if !ok {
					reject(w, r, "invalid_token", "The access token is invalid")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func isInternal(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics" || strings.HasPrefix(path, "/swagger")
}

// NewMetricsMiddleware records request counts and durations labelled by
// route pattern, so IDs never become label values.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isInternal(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
			m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// NewLoggingMiddleware logs each API request at debug level.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if isInternal(r.URL.Path) {
				return
			}

			ev := logger.Debug()
			if ww.Status() >= 500 {
				ev = logger.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
