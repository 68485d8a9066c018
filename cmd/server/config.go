package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"ays/internal/adapters/identity"
	"ays/internal/domain/attendance"
)

// Sheet backends.
const (
	backendGoogle = "google"
	backendSQLite = "sqlite"
)

// ErrMissingEnv is returned when a required variable is unset.
var ErrMissingEnv = errors.New("required environment variable is not set")

// config is the process configuration read from the environment.
type config struct {
	Production bool
	Addr       string
	CSRFKeyHex string
	LogLevel   slog.Level

	OAuth identity.Config

	SheetBackend       string
	SpreadsheetName    string
	SpreadsheetID      string
	ServiceAccountJSON []byte
	SQLitePath         string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	ResendKey  string
	ResendFrom string

	NoticeFile      string
	DuplicatePolicy string
	SlowRequestMs   int
	SlowStoreMs     int
}

// loadDotEnv loads .env when present. Variables already set in the process win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// loadConfig reads the configuration through getenv.
// PRE: getenv is non-nil
// POST: every required OAuth variable is set, the backend and policy are valid
func loadConfig(getenv func(string) string) (config, error) {
	envOr := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := config{
		Production:      envOr("AYS_ENV", "development") == "production",
		Addr:            envOr("AYS_ADDR", ":8080"),
		CSRFKeyHex:      getenv("AYS_CSRF_KEY"),
		SpreadsheetName: envOr("AYS_SPREADSHEET_NAME", "ays"),
		SpreadsheetID:   getenv("AYS_SPREADSHEET_ID"),
		SQLitePath:      envOr("AYS_SQLITE_PATH", "ays.db"),
		RedisAddress:    getenv("REDIS_ADDRESS"),
		RedisUsername:   getenv("REDIS_USERNAME"),
		RedisPassword:   getenv("REDIS_PASSWORD"),
		ResendKey:       getenv("AYS_RESEND_KEY"),
		ResendFrom:      envOr("AYS_RESEND_FROM", "AYS Attendance <noreply@example.com>"),
		NoticeFile:      getenv("AYS_NOTICE_FILE"),
	}

	required := map[string]*string{
		"REDIRECT_URI":                &cfg.OAuth.RedirectURL,
		"OKTA_CLIENT_ID":              &cfg.OAuth.ClientID,
		"OKTA_CLIENT_SECRET":          &cfg.OAuth.ClientSecret,
		"OKTA_AUTHORIZATION_ENDPOINT": &cfg.OAuth.AuthorizationURL,
		"OKTA_TOKEN_ENDPOINT":         &cfg.OAuth.TokenURL,
		"OKTA_USERINFO_ENDPOINT":      &cfg.OAuth.UserInfoURL,
	}
	var missing []string
	for key, dst := range required {
		*dst = strings.TrimSpace(getenv(key))
		if *dst == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return config{}, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	switch {
	case getenv("AYS_SERVICE_ACCOUNT_JSON") != "":
		cfg.ServiceAccountJSON = []byte(getenv("AYS_SERVICE_ACCOUNT_JSON"))
	case getenv("AYS_SERVICE_ACCOUNT_FILE") != "":
		b, err := os.ReadFile(getenv("AYS_SERVICE_ACCOUNT_FILE"))
		if err != nil {
			return config{}, fmt.Errorf("read service account file: %w", err)
		}
		cfg.ServiceAccountJSON = b
	}

	defaultBackend := backendSQLite
	if len(cfg.ServiceAccountJSON) > 0 {
		defaultBackend = backendGoogle
	}
	cfg.SheetBackend = strings.ToLower(envOr("AYS_SHEET_BACKEND", defaultBackend))
	switch cfg.SheetBackend {
	case backendSQLite:
	case backendGoogle:
		if len(cfg.ServiceAccountJSON) == 0 {
			return config{}, fmt.Errorf("%w: AYS_SERVICE_ACCOUNT_JSON or AYS_SERVICE_ACCOUNT_FILE", ErrMissingEnv)
		}
	default:
		return config{}, fmt.Errorf("AYS_SHEET_BACKEND must be %q or %q, got %q", backendGoogle, backendSQLite, cfg.SheetBackend)
	}

	policy, err := attendance.ParsePolicy(getenv("AYS_DUPLICATE_ATTENDANCE"))
	if err != nil {
		return config{}, fmt.Errorf("AYS_DUPLICATE_ATTENDANCE: %w", err)
	}
	cfg.DuplicatePolicy = policy

	if err := cfg.LogLevel.UnmarshalText([]byte(envOr("AYS_LOG_LEVEL", "info"))); err != nil {
		return config{}, fmt.Errorf("AYS_LOG_LEVEL: %w", err)
	}

	if cfg.SlowRequestMs, err = envInt(getenv, "AYS_SLOW_REQUEST_MS"); err != nil {
		return config{}, err
	}
	if cfg.SlowStoreMs, err = envInt(getenv, "AYS_SLOW_STORE_MS"); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// envInt parses an optional positive integer; 0 means unset.
func envInt(getenv func(string) string, key string) (int, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
