package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a settings file, expanding ${VAR} references before parsing.
// The file overlays Default(), so partial files are fine.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: failed to read %s: %w", path, err)
	}
	expanded := []byte(os.ExpandEnv(string(data)))

	s := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(expanded, s); err != nil {
			return nil, fmt.Errorf("settings: failed to parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(expanded, s); err != nil {
			return nil, fmt.Errorf("settings: failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("settings: unsupported extension %q (want .yaml, .yml or .toml)", ext)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
