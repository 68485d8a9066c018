package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "ays/internal/adapters/email"
	web "ays/internal/adapters/http"
	"ays/internal/adapters/http/perf"
	"ays/internal/adapters/identity"
	"ays/internal/adapters/storage"
	sessionStore "ays/internal/adapters/storage/session"
	sheetStore "ays/internal/adapters/storage/sheet"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := loadDotEnv(".env"); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogger(cfg)

	ctx := context.Background()
	collector := perf.NewCollector(perf.DefaultRingSize)

	// Attendance sheet backend
	var sheet sheetStore.Store
	switch cfg.SheetBackend {
	case backendGoogle:
		gs, err := sheetStore.NewGoogleStore(ctx, sheetStore.GoogleConfig{
			CredentialsJSON: cfg.ServiceAccountJSON,
			SpreadsheetID:   cfg.SpreadsheetID,
			SpreadsheetName: cfg.SpreadsheetName,
		})
		if err != nil {
			log.Fatalf("failed to connect to Google Sheets: %v", err)
		}
		sheet = gs
	default:
		db, err := sql.Open("sqlite", storage.DSN(cfg.SQLitePath))
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Fatalf("database unreachable: %v", err)
		}
		if err := storage.InitDB(db); err != nil {
			log.Fatalf("failed to initialise database: %v", err)
		}
		sheet = sheetStore.NewSQLiteStore(db)
	}
	slog.Info("sheet_backend", "backend", cfg.SheetBackend, "spreadsheet", cfg.SpreadsheetName)

	// Browser sessions
	var sessions sessionStore.Store
	if cfg.RedisAddress != "" {
		rs, err := sessionStore.NewRedisStore(ctx, sessionStore.RedisConfig{
			Address:  cfg.RedisAddress,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Fatalf("failed to connect to Redis: %v", err)
		}
		defer rs.Close()
		sessions = rs
	} else {
		sessions = sessionStore.NewMemoryStore()
		if cfg.Production {
			slog.Warn("session_store", "store", "memory", "reason", "REDIS_ADDRESS not set; sessions are lost on restart")
		}
	}

	// Confirmation mail
	var mailer emailPkg.Sender
	if cfg.ResendKey != "" {
		mailer = emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
	} else {
		mailer = emailPkg.NewNoopSender()
		if cfg.Production {
			slog.Warn("email_disabled", "reason", "AYS_RESEND_KEY not set")
		}
	}

	notice := ""
	if cfg.NoticeFile != "" {
		b, err := os.ReadFile(cfg.NoticeFile)
		if err != nil {
			log.Fatalf("failed to read notice file: %v", err)
		}
		notice = string(b)
	}

	csrfKey, err := web.LoadCSRFKey(cfg.CSRFKeyHex, cfg.Production)
	if err != nil {
		log.Fatalf("invalid CSRF key: %v", err)
	}

	mux := web.NewMux(web.Deps{
		Sheet:           sheetStore.NewTimedStore(sheet, collector, cfg.SlowStoreMs),
		Sessions:        sessions,
		Identity:        identity.NewOAuthProvider(cfg.OAuth),
		Mailer:          mailer,
		DuplicatePolicy: cfg.DuplicatePolicy,
		Notice:          notice,
		Collector:       collector,
		SlowRequestMs:   cfg.SlowRequestMs,
		CSRFKey:         csrfKey,
		Secure:          cfg.Production,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-shutdownCtx.Done()
		c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(c); err != nil {
			slog.Error("shutdown_failed", "error", err)
		}
	}()

	slog.Info("server_start", "version", version, "addr", cfg.Addr, "production", cfg.Production)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	slog.Info("server_stopped")
}

// setupLogger installs the default slog logger: text in development, JSON in production.
func setupLogger(cfg config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Production {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
