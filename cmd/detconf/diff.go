package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/detkit/detconf/internal/config"
	"github.com/detkit/detconf/internal/diff"
)

var diffCmd = &cobra.Command{
	Use:   "diff <a.yaml> <b.yaml>",
	Short: "Compare two experiment configs field by field",
	Long: `Resolve both experiment files against the framework defaults and print
every dotted path whose effective value differs. Paths print in the
same notation --set accepts, so a diff line can be replayed as an
override.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(_ *cobra.Command, args []string) error {
	before, err := config.Load(args[0])
	if err != nil {
		return err
	}
	after, err := config.Load(args[1])
	if err != nil {
		return err
	}

	report, err := diff.Compare(before, after)
	if err != nil {
		return err
	}

	fmt.Print(diff.Format(report))

	return nil
}
