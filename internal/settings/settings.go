// Package settings holds detconf's own configuration, as opposed to the
// detection experiment configs it manages. Settings files are YAML or
// TOML, detected by extension.
package settings

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Settings is the complete detconf configuration.
type Settings struct {
	Server  ServerSettings  `yaml:"server" toml:"server"`
	Logging LoggingSettings `yaml:"logging" toml:"logging"`
	Store   StoreSettings   `yaml:"store" toml:"store"`
	Cache   CacheSettings   `yaml:"cache" toml:"cache"`
}

// ServerSettings configures the resolver service.
type ServerSettings struct {
	// Listen is the bind address, e.g. "127.0.0.1:8787".
	Listen string `yaml:"listen" toml:"listen"`
	// APIKey enables x-api-key auth when non-empty.
	APIKey string `yaml:"api_key" toml:"api_key"`
	// EnableH2C enables cleartext HTTP/2.
	EnableH2C bool `yaml:"enable_h2c" toml:"enable_h2c"`
	// RequestsPerMinute rate-limits each client. Zero disables limiting.
	RequestsPerMinute int `yaml:"requests_per_minute" toml:"requests_per_minute"`
}

// LoggingSettings configures the logger.
type LoggingSettings struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" toml:"level"`
	// Format is json, pretty, or console (console auto-detects a TTY).
	Format string `yaml:"format" toml:"format"`
	// Output is stdout, stderr, or a file path.
	Output string `yaml:"output" toml:"output"`
	// Pretty forces pretty output regardless of Format.
	Pretty bool `yaml:"pretty" toml:"pretty"`
}

// StoreSettings configures the experiment store and catalogs.
type StoreSettings struct {
	// Dir is the experiment directory.
	Dir string `yaml:"dir" toml:"dir"`
	// CatalogFile optionally extends the dataset catalog.
	CatalogFile string `yaml:"catalog_file" toml:"catalog_file"`
	// DataDir is the dataset root the catalog joins paths against.
	DataDir string `yaml:"data_dir" toml:"data_dir"`
}

// CacheSettings sizes the resolved-config cache.
type CacheSettings struct {
	NumCounters int64 `yaml:"num_counters" toml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost" toml:"max_cost"`
}

// Default returns the settings used when no file is given.
func Default() *Settings {
	return &Settings{
		Server: ServerSettings{
			Listen: "127.0.0.1:8787",
		},
		Logging: LoggingSettings{
			Level:  LevelInfo,
			Format: "console",
			Output: "stderr",
		},
		Store: StoreSettings{
			Dir:     "configs",
			DataDir: "datasets",
		},
		Cache: CacheSettings{
			NumCounters: 10_000,
			MaxCost:     64 << 20,
		},
	}
}

// ParseLevel converts the configured level to a zerolog level. Unknown
// levels fall back to info.
func (l LoggingSettings) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Validate checks the settings for contradictions.
func (s *Settings) Validate() error {
	if s.Server.Listen == "" {
		return fmt.Errorf("settings: server.listen is required")
	}
	if s.Server.RequestsPerMinute < 0 {
		return fmt.Errorf("settings: server.requests_per_minute must be >= 0")
	}

	switch strings.ToLower(s.Logging.Level) {
	case "", LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("settings: unknown logging.level %q", s.Logging.Level)
	}
	switch s.Logging.Format {
	case "", "json", "pretty", "console":
	default:
		return fmt.Errorf("settings: unknown logging.format %q", s.Logging.Format)
	}

	if s.Store.Dir == "" {
		return fmt.Errorf("settings: store.dir is required")
	}
	if s.Cache.NumCounters <= 0 {
		return fmt.Errorf("settings: cache.num_counters must be positive")
	}
	if s.Cache.MaxCost <= 0 {
		return fmt.Errorf("settings: cache.max_cost must be positive")
	}
	return nil
}
