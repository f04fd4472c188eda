package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/detkit/detconf/internal/config"
)

var showCmd = &cobra.Command{
	Use:   "show <experiment.yaml>",
	Short: "Print the effective config for an experiment",
	Long: `Resolve an experiment file against the framework defaults, apply any
--set overrides, and print the effective config. With --get only the
value at the given dotted path is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringArray("set", nil, "override PATH=VALUE (repeatable)")
	showCmd.Flags().String("get", "", "print only the value at this dotted path")
	showCmd.Flags().String("format", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	overrides, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return fmt.Errorf("failed to get set flag: %w", err)
	}
	getPath, err := cmd.Flags().GetString("get")
	if err != nil {
		return fmt.Errorf("failed to get get flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	if err := cfg.MergeAssignments(overrides); err != nil {
		return err
	}

	if getPath != "" {
		raw, ok := cfg.Lookup(getPath)
		if !ok {
			return fmt.Errorf("unknown config path %q", getPath)
		}

		fmt.Println(raw)

		return nil
	}

	var out []byte

	switch format {
	case "yaml":
		out, err = yaml.Marshal(cfg)
	case "json":
		out, err = json.MarshalIndent(cfg, "", "  ")
	default:
		return fmt.Errorf("unsupported format %q (yaml or json)", format)
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	fmt.Print(string(out))
	if format == "json" {
		fmt.Println()
	}

	return nil
}
