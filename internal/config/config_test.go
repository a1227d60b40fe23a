package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testYAML = `server:
  host: "127.0.0.1"
  port: 3000
  mode: "release"
  csrf_secret: "test-csrf-secret-value"
  secure_cookies: true
database:
  driver: "postgres"
  sqlite:
    path: "data/test.db"
  postgres:
    host: "db.example.com"
    port: 5433
    user: "admin"
    password: "secret"
    dbname: "testdb"
    sslmode: "require"
  pool:
    max_idle_conns: 5
    max_open_conns: 50
    conn_max_lifetime: "30m"
redis:
  addr: "cache.example.com:6380"
  db: 2
log:
  level: "info"
  format: "json"
api:
  base_url: "https://api.smarttenders.example/api/v1/"
  timeout: "5s"
  retry_timeout: "20s"
  user_agent: " smarttenders-test "
session:
  secret: "Release-Grade-Session-Secret-0123456789"
  ttl: "24h"
tenders:
  filter_cache_ttl: "48h"
  store_idle_ttl: "15m"
clientstate:
  driver: "Redis"
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// validBaseYAML returns a minimal valid YAML config (sqlite, debug mode).
func validBaseYAML(extras string) string {
	return `server:
  host: "127.0.0.1"
  port: 3000
  mode: "debug"
database:
  driver: "sqlite"
  sqlite:
    path: "data/test.db"
log:
  level: "info"
  format: "json"
api:
  base_url: "http://localhost:8000/api/v1"
session:
  secret: "a-test-session-secret-of-32-chars-or-more"
` + extras
}

// withOverride replaces the line starting with prefix (after indentation)
// in base. It keeps tests from repeating the whole document per case.
func withOverride(base, prefix, line string) string {
	lines := strings.Split(base, "\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), prefix) {
			indent := l[:len(l)-len(strings.TrimLeft(l, " "))]
			lines[i] = indent + line
			return strings.Join(lines, "\n")
		}
	}
	return base
}

func TestLoad_FullYAML(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, testYAML))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 3000 || cfg.Server.Mode != "release" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if !cfg.Server.SecureCookies {
		t.Error("Server.SecureCookies = false, want true")
	}
	if cfg.Database.Postgres.Host != "db.example.com" || cfg.Database.Postgres.Port != 5433 {
		t.Errorf("Postgres = %+v", cfg.Database.Postgres)
	}
	if cfg.Database.Pool.ConnMaxLifetime != "30m" {
		t.Errorf("Pool.ConnMaxLifetime = %q, want %q", cfg.Database.Pool.ConnMaxLifetime, "30m")
	}
	if cfg.Redis.Addr != "cache.example.com:6380" || cfg.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}

	// Trailing slash trimmed, user agent trimmed.
	if cfg.API.BaseURL != "https://api.smarttenders.example/api/v1" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.UserAgent != "smarttenders-test" {
		t.Errorf("API.UserAgent = %q", cfg.API.UserAgent)
	}
	if cfg.API.Timeout != "5s" || cfg.API.RetryTimeout != "20s" {
		t.Errorf("API timeouts = %q / %q", cfg.API.Timeout, cfg.API.RetryTimeout)
	}
	if cfg.Session.TTL != "24h" {
		t.Errorf("Session.TTL = %q", cfg.Session.TTL)
	}
	if cfg.Tenders.FilterCacheTTL != "48h" || cfg.Tenders.StoreIdleTTL != "15m" {
		t.Errorf("Tenders = %+v", cfg.Tenders)
	}
	if cfg.ClientState.Driver != ClientStateRedis {
		t.Errorf("ClientState.Driver = %q, want %q", cfg.ClientState.Driver, ClientStateRedis)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeTestConfig(t, testYAML)

	t.Setenv("APP__SERVER__PORT", "9090")
	t.Setenv("APP__DATABASE__DRIVER", "sqlite")
	t.Setenv("APP__DATABASE__POOL__MAX_IDLE_CONNS", "20")
	t.Setenv("APP__API__RETRY_TIMEOUT", "45s")
	t.Setenv("APP__TENDERS__FILTER_CACHE_TTL", "1h")
	t.Setenv("APP__SESSION__SECRET", "Env-Provided-Session-Secret-9876543210")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	// Single underscores belong to the key name.
	if cfg.Database.Pool.MaxIdleConns != 20 {
		t.Errorf("Pool.MaxIdleConns = %d, want 20", cfg.Database.Pool.MaxIdleConns)
	}
	if cfg.API.RetryTimeout != "45s" {
		t.Errorf("API.RetryTimeout = %q, want 45s", cfg.API.RetryTimeout)
	}
	if cfg.Tenders.FilterCacheTTL != "1h" {
		t.Errorf("Tenders.FilterCacheTTL = %q, want 1h", cfg.Tenders.FilterCacheTTL)
	}
	if cfg.Session.Secret != "Env-Provided-Session-Secret-9876543210" {
		t.Errorf("Session.Secret = %q", cfg.Session.Secret)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want unchanged", cfg.Server.Host)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_Invalid(t *testing.T) {
	base := validBaseYAML("")

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"server mode", withOverride(base, "mode:", `mode: "invalid"`), "server.mode"},
		{"port zero", withOverride(base, "port:", `port: 0`), "server.port"},
		{"port too large", withOverride(base, "port:", `port: 70000`), "server.port"},
		{"blank host", withOverride(base, "host:", `host: "   "`), "server.host"},
		{"database driver", withOverride(base, "driver:", `driver: "mysql"`), "database.driver"},
		{"sqlite path", withOverride(base, "path:", `path: " "`), "database.sqlite.path"},
		{"log level", withOverride(base, "level:", `level: "trace"`), "log.level"},
		{"log format", withOverride(base, "format:", `format: "xml"`), "log.format"},
		{"missing base url", withOverride(base, "base_url:", `base_url: ""`), "api.base_url"},
		{"relative base url", withOverride(base, "base_url:", `base_url: "/api/v1"`), "api.base_url"},
		{"ftp base url", withOverride(base, "base_url:", `base_url: "ftp://example.com"`), "api.base_url"},
		{"missing secret", withOverride(base, "secret:", `secret: ""`), "session.secret"},
		{"short secret", withOverride(base, "secret:", `secret: "too-short"`), "session.secret"},
		{"clientstate driver", validBaseYAML("clientstate:\n  driver: \"memcached\"\n"), "clientstate.driver"},
		{"redis without addr", validBaseYAML("clientstate:\n  driver: \"redis\"\n"), "redis.addr"},
		{"redis bad addr", validBaseYAML("clientstate:\n  driver: \"redis\"\nredis:\n  addr: \"localhost\"\n"), "redis.addr"},
		{"redis negative db", validBaseYAML("clientstate:\n  driver: \"redis\"\nredis:\n  addr: \"localhost:6379\"\n  db: -1\n"), "redis.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTestConfig(t, tt.content))
			if err == nil {
				t.Fatalf("Load() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_PostgresValidation(t *testing.T) {
	pg := func(fields, mode string) string {
		return `server:
  host: "127.0.0.1"
  port: 3000
  mode: "` + mode + `"
database:
  driver: "postgres"
  postgres:
` + fields + `log:
  level: "info"
  format: "json"
api:
  base_url: "https://api.example.com"
session:
  secret: "Release-Grade-Session-Secret-0123456789"
`
	}
	full := "    host: \"db\"\n    port: 5432\n    user: \"u\"\n    dbname: \"d\"\n"

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing host", pg("    port: 5432\n    user: \"u\"\n    dbname: \"d\"\n    sslmode: \"disable\"\n", "debug"), "database.postgres.host"},
		{"bad port", pg("    host: \"db\"\n    port: 0\n    user: \"u\"\n    dbname: \"d\"\n    sslmode: \"disable\"\n", "debug"), "database.postgres.port"},
		{"missing user", pg("    host: \"db\"\n    port: 5432\n    dbname: \"d\"\n    sslmode: \"disable\"\n", "debug"), "database.postgres.user"},
		{"missing dbname", pg("    host: \"db\"\n    port: 5432\n    user: \"u\"\n    sslmode: \"disable\"\n", "debug"), "database.postgres.dbname"},
		{"unknown sslmode", pg(full+"    sslmode: \"sometimes\"\n", "debug"), "database.postgres.sslmode"},
		{"insecure sslmode in release", pg(full+"    sslmode: \"disable\"\n", "release"), "database.postgres.sslmode"},
		{"valid release", pg(full+"    sslmode: \"verify-full\"\n", "release"), ""},
		{"valid debug", pg(full+"    sslmode: \"disable\"\n", "debug"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeTestConfig(t, tt.content))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Load() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ReleaseModeRules(t *testing.T) {
	release := withOverride(validBaseYAML(""), "mode:", `mode: "release"`)

	// http base url is rejected in release mode.
	if _, err := Load(writeTestConfig(t, release)); err == nil || !strings.Contains(err.Error(), "https") {
		t.Fatalf("Load() error = %v, want https requirement", err)
	}

	https := withOverride(release, "base_url:", `base_url: "https://api.example.com"`)
	weak := withOverride(https, "secret:", `secret: "onlylowercaselettersinthissecretvalue"`)
	if _, err := Load(writeTestConfig(t, weak)); err == nil || !strings.Contains(err.Error(), "character classes") {
		t.Fatalf("Load() error = %v, want character class requirement", err)
	}

	strong := withOverride(https, "secret:", `secret: "Strong-Session-Secret-For-Release-42"`)
	if _, err := Load(writeTestConfig(t, strong)); err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
}

func TestLoad_Durations(t *testing.T) {
	tests := []struct {
		name    string
		extras  string
		wantErr string
	}{
		{"unparsable", "tenders:\n  store_idle_ttl: \"soon\"\n", "tenders.store_idle_ttl"},
		{"negative", "clientstate:\n  purge_interval: \"-1m\"\n", "clientstate.purge_interval"},
		{"zero", "tenders:\n  filter_cache_ttl: \"0s\"\n", "tenders.filter_cache_ttl"},
		{"negative refresh", "tenders:\n  taxonomy_refresh: \"-1m\"\n", "tenders.taxonomy_refresh"},
		{"whitespace means unset", "tenders:\n  filter_cache_ttl: \"   \"\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeTestConfig(t, validBaseYAML(tt.extras)))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Load() unexpected error: %v", err)
				}
				if cfg.Tenders.FilterCacheTTL != "" {
					t.Errorf("FilterCacheTTL = %q, want empty", cfg.Tenders.FilterCacheTTL)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}

	for _, key := range []string{"timeout", "retry_timeout"} {
		content := strings.Replace(validBaseYAML(""), "api:\n", "api:\n  "+key+": \"0s\"\n", 1)
		if _, err := Load(writeTestConfig(t, content)); err == nil || !strings.Contains(err.Error(), "api."+key) {
			t.Errorf("api.%s: error = %v", key, err)
		}
	}
}

func TestLoad_ClientStateDefaultsToDatabase(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, validBaseYAML("")))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ClientState.Driver != ClientStateDatabase {
		t.Errorf("ClientState.Driver = %q, want %q", cfg.ClientState.Driver, ClientStateDatabase)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.yaml")
	if err != nil {
		t.Fatalf("Load() error on project config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.ClientState.Driver != ClientStateDatabase {
		t.Errorf("ClientState.Driver = %q, want database", cfg.ClientState.Driver)
	}
	if Duration(cfg.API.Timeout, 0) != 10*time.Second {
		t.Errorf("API.Timeout = %q, want 10s", cfg.API.Timeout)
	}
	if Duration(cfg.API.RetryTimeout, 0) != 30*time.Second {
		t.Errorf("API.RetryTimeout = %q, want 30s", cfg.API.RetryTimeout)
	}
	if Duration(cfg.Tenders.StoreIdleTTL, 0) != 30*time.Minute {
		t.Errorf("Tenders.StoreIdleTTL = %q, want 30m", cfg.Tenders.StoreIdleTTL)
	}
	if Duration(cfg.Tenders.TaxonomyRefresh, 0) != 15*time.Minute {
		t.Errorf("Tenders.TaxonomyRefresh = %q, want 15m", cfg.Tenders.TaxonomyRefresh)
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Minute},
		{"90s", 90 * time.Second},
		{"bogus", time.Minute},
		{"-5s", time.Minute},
	}
	for _, tt := range tests {
		if got := Duration(tt.in, time.Minute); got != tt.want {
			t.Errorf("Duration(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestCountSecretClasses(t *testing.T) {
	tests := []struct {
		secret string
		want   int
	}{
		{"", 0},
		{"abcdef", 1},
		{"abcDEF", 2},
		{"abcDEF123", 3},
		{"abcDEF123!@#", 4},
		{"!!!", 1},
	}
	for _, tt := range tests {
		if got := CountSecretClasses(tt.secret); got != tt.want {
			t.Errorf("CountSecretClasses(%q) = %d; want %d", tt.secret, got, tt.want)
		}
	}
}
