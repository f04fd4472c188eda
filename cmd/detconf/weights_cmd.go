package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/detkit/detconf/internal/config"
	"github.com/detkit/detconf/internal/weights"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Weight reference commands",
}

var weightsCheckCmd = &cobra.Command{
	Use:   "check <experiment.yaml|reference>...",
	Short: "Check that weight references are reachable",
	Long: `Resolve each argument to a weight reference and probe it. Arguments
naming an existing experiment file use that file's MODEL.WEIGHT;
anything else is treated as a raw reference (file path, http(s) or s3
URL, or catalog://).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWeightsCheck,
}

func init() {
	weightsCmd.AddCommand(weightsCheckCmd)
	rootCmd.AddCommand(weightsCmd)
}

func runWeightsCheck(cmd *cobra.Command, args []string) error {
	checker := weights.NewChecker(weights.WithLogger(zerolog.Nop()))

	failed := false

	for _, arg := range args {
		raw := arg
		if isExperimentFile(arg) {
			cfg, err := config.Load(arg)
			if err != nil {
				fmt.Printf("✗ %s: %s\n", arg, err)

				failed = true

				continue
			}
			raw = cfg.Model.Weight
		}

		ref, err := weights.Parse(raw)
		if err != nil {
			fmt.Printf("✗ %s: %s\n", arg, err)

			failed = true

			continue
		}

		if ref.Kind == weights.KindNone {
			fmt.Printf("- %s: no weight reference\n", arg)
			continue
		}

		if err := checker.Check(cmd.Context(), ref); err != nil {
			failed = true

			if errors.Is(err, weights.ErrCheckUnavailable) {
				fmt.Printf("✗ %s: %s (checks suspended)\n", ref, err)
			} else {
				fmt.Printf("✗ %s: %s\n", ref, err)
			}

			continue
		}

		fmt.Printf("✓ %s is reachable\n", ref)
	}

	if failed {
		return errors.New("weight check failed")
	}

	return nil
}

// isExperimentFile reports whether the argument names an experiment
// YAML on disk. Anything else (including existing weight files such as
// model_final.pkl) is treated as a raw reference.
func isExperimentFile(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml":
	default:
		return false
	}
	_, err := os.Stat(arg)
	return err == nil
}
