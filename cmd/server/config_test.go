package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ays/internal/domain/attendance"
)

func baseEnv() map[string]string {
	return map[string]string{
		"REDIRECT_URI":                "http://localhost:8080/",
		"OKTA_CLIENT_ID":              "client",
		"OKTA_CLIENT_SECRET":          "secret",
		"OKTA_AUTHORIZATION_ENDPOINT": "https://idp.example.com/authorize",
		"OKTA_TOKEN_ENDPOINT":         "https://idp.example.com/token",
		"OKTA_USERINFO_ENDPOINT":      "https://idp.example.com/userinfo",
	}
}

func getenvFrom(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(getenvFrom(baseEnv()))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Production || cfg.Addr != ":8080" || cfg.SheetBackend != backendSQLite || cfg.SQLitePath != "ays.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SpreadsheetName != "ays" || cfg.DuplicatePolicy != attendance.DuplicateAllow || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.OAuth.ClientID != "client" || cfg.OAuth.RedirectURL != "http://localhost:8080/" {
		t.Errorf("oauth = %+v", cfg.OAuth)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	env := baseEnv()
	delete(env, "OKTA_CLIENT_SECRET")
	delete(env, "REDIRECT_URI")
	_, err := loadConfig(getenvFrom(env))
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("err = %v, want ErrMissingEnv", err)
	}
	if !strings.Contains(err.Error(), "OKTA_CLIENT_SECRET, REDIRECT_URI") {
		t.Errorf("err = %v, want both names", err)
	}
}

func TestLoadConfig_Backend(t *testing.T) {
	credFile := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(credFile, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		extra   map[string]string
		want    string
		wantErr bool
	}{
		{"credential json selects google", map[string]string{"AYS_SERVICE_ACCOUNT_JSON": "{}"}, backendGoogle, false},
		{"credential file selects google", map[string]string{"AYS_SERVICE_ACCOUNT_FILE": credFile}, backendGoogle, false},
		{"explicit sqlite wins", map[string]string{"AYS_SERVICE_ACCOUNT_JSON": "{}", "AYS_SHEET_BACKEND": "sqlite"}, backendSQLite, false},
		{"google without credential", map[string]string{"AYS_SHEET_BACKEND": "google"}, "", true},
		{"unknown backend", map[string]string{"AYS_SHEET_BACKEND": "excel"}, "", true},
		{"unreadable credential file", map[string]string{"AYS_SERVICE_ACCOUNT_FILE": filepath.Join(t.TempDir(), "missing.json")}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			for k, v := range tt.extra {
				env[k] = v
			}
			cfg, err := loadConfig(getenvFrom(env))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && cfg.SheetBackend != tt.want {
				t.Errorf("backend = %q, want %q", cfg.SheetBackend, tt.want)
			}
		})
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"AYS_DUPLICATE_ATTENDANCE": "sometimes",
		"AYS_LOG_LEVEL":            "loud",
		"AYS_SLOW_STORE_MS":        "-5",
		"AYS_SLOW_REQUEST_MS":      "fast",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			env := baseEnv()
			env[key] = val
			if _, err := loadConfig(getenvFrom(env)); err == nil {
				t.Errorf("%s=%q accepted", key, val)
			}
		})
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	env := baseEnv()
	env["AYS_ENV"] = "production"
	env["AYS_DUPLICATE_ATTENDANCE"] = "Reject"
	env["AYS_LOG_LEVEL"] = "debug"
	env["AYS_SLOW_STORE_MS"] = "750"
	env["AYS_SLOW_REQUEST_MS"] = "400"
	cfg, err := loadConfig(getenvFrom(env))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.Production || cfg.DuplicatePolicy != attendance.DuplicateReject || cfg.LogLevel != slog.LevelDebug || cfg.SlowStoreMs != 750 || cfg.SlowRequestMs != 400 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := loadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Errorf("missing file: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("AYS_TEST_DOTENV_A=from-file\nAYS_TEST_DOTENV_B=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AYS_TEST_DOTENV_B", "from-process")
	t.Cleanup(func() { os.Unsetenv("AYS_TEST_DOTENV_A") })

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("AYS_TEST_DOTENV_A"); got != "from-file" {
		t.Errorf("A = %q", got)
	}
	if got := os.Getenv("AYS_TEST_DOTENV_B"); got != "from-process" {
		t.Errorf("B = %q, process value should win", got)
	}
}
