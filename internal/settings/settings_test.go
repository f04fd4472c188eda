package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func writeSettings(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeSettings(t, "detconf.yaml", `
server:
  listen: "0.0.0.0:9000"
  api_key: "secret"
  requests_per_minute: 120

store:
  dir: /srv/experiments
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Server.Listen != "0.0.0.0:9000" {
		t.Errorf("Unexpected listen: %s", s.Server.Listen)
	}
	if s.Server.APIKey != "secret" {
		t.Errorf("Unexpected api_key: %s", s.Server.APIKey)
	}
	if s.Store.Dir != "/srv/experiments" {
		t.Errorf("Unexpected store dir: %s", s.Store.Dir)
	}
	// Untouched sections keep defaults.
	if s.Cache.NumCounters != 10_000 {
		t.Errorf("Expected default cache sizing, got %d", s.Cache.NumCounters)
	}
}

func TestLoadTOML(t *testing.T) {
	t.Parallel()

	path := writeSettings(t, "detconf.toml", `
[server]
listen = "127.0.0.1:9100"
enable_h2c = true

[logging]
level = "debug"
format = "json"
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.Server.Listen != "127.0.0.1:9100" {
		t.Errorf("Unexpected listen: %s", s.Server.Listen)
	}
	if !s.Server.EnableH2C {
		t.Error("Expected enable_h2c to be set")
	}
	if s.Logging.ParseLevel() != zerolog.DebugLevel {
		t.Errorf("Unexpected level: %s", s.Logging.Level)
	}
}

func TestLoadEnvironmentExpansion(t *testing.T) {
	t.Setenv("DETCONF_TEST_KEY", "from-env")

	path := writeSettings(t, "detconf.yaml", "server:\n  api_key: ${DETCONF_TEST_KEY}\n")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Server.APIKey != "from-env" {
		t.Errorf("Expected env expansion, got %q", s.Server.APIKey)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := writeSettings(t, "detconf.ini", "[server]\nlisten=:1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for unsupported extension")
	}
}

func TestLoadInvalidSettings(t *testing.T) {
	t.Parallel()

	path := writeSettings(t, "detconf.yaml", "logging:\n  level: loud\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Expected validation error for unknown level")
	}
}

func TestValidateDefaults(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got: %v", err)
	}
}

func TestParseLevelFallback(t *testing.T) {
	t.Parallel()

	l := LoggingSettings{Level: "weird"}
	if l.ParseLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info fallback, got %s", l.ParseLevel())
	}
}

func TestValidateCacheSizing(t *testing.T) {
	t.Parallel()

	s := Default()
	s.Cache.MaxCost = 0
	if err := s.Validate(); err == nil {
		t.Fatal("Expected error for zero max_cost")
	}
}
