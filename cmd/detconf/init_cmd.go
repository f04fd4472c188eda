package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/detkit/detconf/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Scaffold a new experiment config",
	Long: `Create a new experiment file in the experiment store from a known-valid
baseline template. The scaffold passes validation as-is; edit it to
describe your experiment.`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringP("template", "t", "r50-c4", "scaffold template: "+templateNames())
	initCmd.Flags().StringP("dir", "d", "", "experiment directory (default: store dir from settings)")
	initCmd.Flags().Bool("force", false, "overwrite an existing experiment file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	name := args[0]

	template, err := cmd.Flags().GetString("template")
	if err != nil {
		return fmt.Errorf("failed to get template flag: %w", err)
	}
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return fmt.Errorf("failed to get dir flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	content, ok := scaffoldTemplates[template]
	if !ok {
		return fmt.Errorf("unknown template %q (available: %s)", template, templateNames())
	}

	if dir == "" {
		stg, err := loadSettings()
		if err != nil {
			return err
		}
		dir = stg.Store.Dir
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create experiment directory: %w", err)
	}

	st, err := store.New(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	if force {
		if path, err := st.Path(name); err == nil {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove existing experiment: %w", err)
			}
		}
	}

	if err := st.SaveScaffold(name, []byte(content)); err != nil {
		if errors.Is(err, store.ErrExists) {
			return fmt.Errorf("experiment %q already exists in %s (use --force to overwrite)", name, dir)
		}

		return err
	}

	path, err := st.Path(name)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Experiment created at %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the file to describe your experiment")
	fmt.Println("  2. Validate with: detconf validate " + path)
	fmt.Println("  3. Inspect the effective config: detconf show " + path)

	return nil
}

func templateNames() string {
	names := make([]string, 0, len(scaffoldTemplates))
	for name := range scaffoldTemplates {
		names = append(names, name)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}
