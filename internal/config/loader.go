package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for file extensions the loader cannot map
// to a supported encoding. Experiment configs are YAML, matching the
// training framework's contract.
var ErrUnknownFormat = errors.New("config: unknown config file format")

// Load reads an experiment config from path and resolves it over the
// defaults tree. Environment variables in ${VAR} form are expanded before
// decoding.
func Load(path string) (*Config, error) {
	if err := checkExtension(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	cfg, err := LoadFromReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes an experiment config from r over the defaults
// tree. Environment variables in ${VAR} form are expanded first. Unknown
// keys are rejected so that misspelled uppercase keys fail at load time
// instead of silently keeping defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(content))

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return cfg, nil
}

// checkExtension rejects paths that are not YAML experiment configs.
func checkExtension(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}
