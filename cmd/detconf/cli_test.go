package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/detkit/detconf/internal/config"
)

const testExperiment = `
DATASETS:
  TRAIN: ("coco_2014_train",)
  TEST: ("coco_2014_minival",)

SOLVER:
  BASE_LR: 0.01
`

const testBrokenExperiment = `
MODEL:
  RPN:
    NMS_THRESH: 2.0

DATASETS:
  TRAIN: ("coco_2014_train",)
  TEST: ("coco_2014_minival",)
`

// useTempSettings points the global --config flag at a settings file
// whose store dir is a fresh temp directory.
func useTempSettings(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	storeDir := filepath.Join(dir, "experiments")
	if err := os.MkdirAll(storeDir, 0o750); err != nil {
		t.Fatal(err)
	}

	settingsYAML := "store:\n  dir: " + storeDir + "\n"
	path := filepath.Join(dir, "detconf.yaml")
	if err := os.WriteFile(path, []byte(settingsYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })

	return storeDir
}

func writeExperiment(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "exp.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "validate"}
	cmd.Flags().StringArray("set", nil, "")
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "show"}
	cmd.Flags().StringArray("set", nil, "")
	cmd.Flags().String("get", "", "")
	cmd.Flags().String("format", "yaml", "")
	return cmd
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "init"}
	cmd.Flags().StringP("template", "t", "r50-c4", "")
	cmd.Flags().StringP("dir", "d", "", "")
	cmd.Flags().Bool("force", false, "")
	return cmd
}

func TestRunValidateValid(t *testing.T) {
	useTempSettings(t)
	path := writeExperiment(t, testExperiment)

	if err := runValidate(newValidateCmd(), []string{path}); err != nil {
		t.Fatalf("runValidate failed: %v", err)
	}
}

func TestRunValidateViolations(t *testing.T) {
	useTempSettings(t)
	path := writeExperiment(t, testBrokenExperiment)

	if err := runValidate(newValidateCmd(), []string{path}); err == nil {
		t.Fatal("expected validation failure")
	}
}

func TestRunValidateWithOverride(t *testing.T) {
	useTempSettings(t)
	path := writeExperiment(t, testBrokenExperiment)

	cmd := newValidateCmd()
	if err := cmd.Flags().Set("set", "MODEL.RPN.NMS_THRESH=0.7"); err != nil {
		t.Fatal(err)
	}

	if err := runValidate(cmd, []string{path}); err != nil {
		t.Fatalf("runValidate with fixing override failed: %v", err)
	}
}

func TestRunShow(t *testing.T) {
	path := writeExperiment(t, testExperiment)

	if err := runShow(newShowCmd(), []string{path}); err != nil {
		t.Fatalf("runShow failed: %v", err)
	}
}

func TestRunShowUnknownGetPath(t *testing.T) {
	path := writeExperiment(t, testExperiment)

	cmd := newShowCmd()
	if err := cmd.Flags().Set("get", "SOLVER.NOPE"); err != nil {
		t.Fatal(err)
	}

	if err := runShow(cmd, []string{path}); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestRunShowBadFormat(t *testing.T) {
	path := writeExperiment(t, testExperiment)

	cmd := newShowCmd()
	if err := cmd.Flags().Set("format", "toml"); err != nil {
		t.Fatal(err)
	}

	if err := runShow(cmd, []string{path}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestRunDiff(t *testing.T) {
	a := writeExperiment(t, testExperiment)
	b := writeExperiment(t, testBrokenExperiment)

	if err := runDiff(nil, []string{a, b}); err != nil {
		t.Fatalf("runDiff failed: %v", err)
	}
}

// Every scaffold template must resolve and validate cleanly.
func TestScaffoldTemplatesValid(t *testing.T) {
	storeDir := useTempSettings(t)

	for name := range scaffoldTemplates {
		cmd := newInitCmd()
		if err := cmd.Flags().Set("template", name); err != nil {
			t.Fatal(err)
		}

		if err := runInit(cmd, []string{"exp-" + name}); err != nil {
			t.Fatalf("runInit(%s) failed: %v", name, err)
		}

		path := filepath.Join(storeDir, "exp-"+name+".yaml")
		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("scaffold %s does not load: %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("scaffold %s does not validate: %v", name, err)
		}
	}
}

func TestRunWeightsCheckLocalFile(t *testing.T) {
	// An existing weight file is a raw reference, not an experiment.
	weightPath := filepath.Join(t.TempDir(), "model_final.pkl")
	if err := os.WriteFile(weightPath, []byte("weights"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := runWeightsCheck(&cobra.Command{}, []string{weightPath}); err != nil {
		t.Fatalf("runWeightsCheck failed for local weight file: %v", err)
	}
}

func TestRunWeightsCheckMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "model_final.pkl")

	if err := runWeightsCheck(&cobra.Command{}, []string{missing}); err == nil {
		t.Fatal("expected error for missing weight file")
	}
}

func TestRunWeightsCheckExperimentWeight(t *testing.T) {
	dir := t.TempDir()
	weightPath := filepath.Join(dir, "pretrained.pkl")
	if err := os.WriteFile(weightPath, []byte("weights"), 0o600); err != nil {
		t.Fatal(err)
	}

	experiment := testExperiment + "\nMODEL:\n  WEIGHT: " + weightPath + "\n"
	expPath := filepath.Join(dir, "exp.yaml")
	if err := os.WriteFile(expPath, []byte(experiment), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := runWeightsCheck(&cobra.Command{}, []string{expPath}); err != nil {
		t.Fatalf("runWeightsCheck failed for experiment weight: %v", err)
	}
}

func TestRunInitRefusesOverwrite(t *testing.T) {
	useTempSettings(t)

	if err := runInit(newInitCmd(), []string{"baseline"}); err != nil {
		t.Fatalf("first runInit failed: %v", err)
	}
	if err := runInit(newInitCmd(), []string{"baseline"}); err == nil {
		t.Fatal("expected error for existing experiment")
	}

	cmd := newInitCmd()
	if err := cmd.Flags().Set("force", "true"); err != nil {
		t.Fatal(err)
	}
	if err := runInit(cmd, []string{"baseline"}); err != nil {
		t.Fatalf("runInit --force failed: %v", err)
	}
}
