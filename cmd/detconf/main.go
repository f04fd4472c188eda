// Package main is the entry point for detconf.
package main

import (
	"context"
	"os"
	"path/filepath"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"

	"github.com/detkit/detconf/internal/settings"
)

const defaultSettingsFile = "detconf.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "detconf",
	Short: "Experiment config toolkit for detection training",
	Long: `detconf manages declarative detection experiment configs. It resolves
experiment YAML against framework defaults, applies dotted-path overrides,
validates backbone geometry and solver schedules, and serves resolved
configs over HTTP.`,
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"settings file path (default: ./"+defaultSettingsFile+" or ~/.config/detconf/"+defaultSettingsFile+")")
}

// loadSettings loads the settings file named by --config, or searches
// the default locations. Missing files fall back to built-in defaults.
func loadSettings() (*settings.Settings, error) {
	if cfgFile != "" {
		return settings.Load(cfgFile)
	}

	if path := findSettingsFile(); path != "" {
		return settings.Load(path)
	}

	return settings.Default(), nil
}

// findSettingsFile searches for the settings file in default locations.
func findSettingsFile() string {
	if _, err := os.Stat(defaultSettingsFile); err == nil {
		return defaultSettingsFile
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		p := filepath.Join(home, ".config", "detconf", defaultSettingsFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
