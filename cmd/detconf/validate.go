package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/detkit/detconf/internal/catalog"
	"github.com/detkit/detconf/internal/config"
	"github.com/detkit/detconf/internal/settings"
	"github.com/detkit/detconf/internal/weights"
)

var validateCmd = &cobra.Command{
	Use:   "validate <experiment.yaml>...",
	Short: "Validate experiment config files",
	Long: `Resolve each experiment file against the framework defaults and check
every schema invariant: backbone geometry, anchor and pooler shapes,
solver schedule ordering, and head compatibility. Unknown dataset names
and unresolvable weight references are reported as warnings.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringArray("set", nil, "override PATH=VALUE (repeatable)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	overrides, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return fmt.Errorf("failed to get set flag: %w", err)
	}

	stg, err := loadSettings()
	if err != nil {
		return err
	}
	datasets, err := buildDatasetCatalog(stg)
	if err != nil {
		return err
	}

	failed := false

	for _, path := range args {
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Printf("✗ %s: %s\n", path, err)

			failed = true

			continue
		}

		if err := cfg.MergeAssignments(overrides); err != nil {
			fmt.Printf("✗ %s: %s\n", path, err)

			failed = true

			continue
		}

		if err := cfg.Validate(); err != nil {
			failed = true

			var verr *config.ValidationError
			if errors.As(err, &verr) {
				fmt.Printf("✗ %s: %d violation(s)\n", path, len(verr.Errors))
				for _, msg := range verr.Errors {
					fmt.Printf("    %s\n", msg)
				}
			} else {
				fmt.Printf("✗ %s: %s\n", path, err)
			}

			continue
		}

		fmt.Printf("✓ %s is valid\n", path)

		for _, warning := range configWarnings(cfg, datasets) {
			fmt.Printf("    warning: %s\n", warning)
		}
	}

	if failed {
		return errors.New("validation failed")
	}

	return nil
}

// configWarnings reports non-fatal issues: dataset names absent from
// the catalog and weight references that cannot be parsed.
func configWarnings(cfg *config.Config, datasets *catalog.DatasetCatalog) []string {
	var warnings []string

	names := append([]string{}, cfg.Datasets.Train...)
	names = append(names, cfg.Datasets.Test...)

	for _, name := range datasets.Missing(names...) {
		warnings = append(warnings, fmt.Sprintf("unknown dataset %q", name))
	}

	if _, err := weights.Parse(cfg.Model.Weight); err != nil {
		warnings = append(warnings, fmt.Sprintf("weight reference: %s", err))
	}

	return warnings
}

// buildDatasetCatalog constructs the dataset catalog from settings,
// loading the optional catalog file when configured.
func buildDatasetCatalog(stg *settings.Settings) (*catalog.DatasetCatalog, error) {
	datasets := catalog.NewDatasetCatalog(catalog.WithDataDir(stg.Store.DataDir))
	if stg.Store.CatalogFile != "" {
		if err := datasets.LoadFile(stg.Store.CatalogFile); err != nil {
			return nil, fmt.Errorf("load dataset catalog: %w", err)
		}
	}

	return datasets, nil
}
