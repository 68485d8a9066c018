package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ays/internal/adapters/email"
	"ays/internal/adapters/http/middleware"
	"ays/internal/adapters/http/perf"
	sessionStore "ays/internal/adapters/storage/session"
	sheetStore "ays/internal/adapters/storage/sheet"
	"ays/internal/application/orchestrators"
)

// Deps holds everything the handlers need.
type Deps struct {
	Sheet           sheetStore.Store
	Sessions        sessionStore.Store
	Identity        orchestrators.IdentityProvider
	Mailer          email.Sender // nil disables confirmation mail
	DuplicatePolicy string
	Notice          string // Markdown shown on every page; may be empty
	Collector       *perf.Collector
	SlowRequestMs   int // 0 selects middleware.DefaultSlowRequestMs

	CSRFKey        []byte
	Secure         bool // production: Secure cookies, HTTPS-only CSRF checks
	TrustedOrigins []string
}

// Global dependencies (set by NewMux)
var app *Deps

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// ErrBadCSRFKey is returned for a CSRF key that is not 64 hex characters.
var ErrBadCSRFKey = errors.New("AYS_CSRF_KEY must be 64 hex characters (32 bytes)")

// ErrCSRFKeyRequired is returned when production runs without a CSRF key.
var ErrCSRFKeyRequired = errors.New("AYS_CSRF_KEY is required in production")

// LoadCSRFKey decodes the hex CSRF secret.
// In production the key MUST be set. In development a random key is generated per startup.
func LoadCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, ErrBadCSRFKey
		}
		return key, nil
	}
	if production {
		return nil, ErrCSRFKeyRequired
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	slog.Warn("csrf_key_random", "reason", "AYS_CSRF_KEY not set; forms break across restarts")
	return key, nil
}

// NewMux wires HTTP handlers for the app.
// PRE: d.Sheet, d.Sessions, d.Identity are set; d.CSRFKey is 32 bytes
func NewMux(d Deps) http.Handler {
	app = &d

	mux := http.NewServeMux()
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> Sessions -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(d.CSRFKey, d.Secure, d.TrustedOrigins),
		middleware.Sessions(d.Sessions, d.Secure),
		middleware.RateLimit(limiter),
		middleware.Timing(d.Collector, d.SlowRequestMs),
	)
}
