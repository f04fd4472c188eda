package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fasterRCNNFPNYAML = `
MODEL:
  META_ARCHITECTURE: "GeneralizedRCNN"
  WEIGHT: "catalog://ImageNetPretrained/MSRA/R-50"
  BACKBONE:
    CONV_BODY: "R-50-FPN"
    OUT_CHANNELS: 256
  RPN:
    USE_FPN: True
    ANCHOR_STRIDE: (4, 8, 16, 32, 64)
    PRE_NMS_TOP_N_TRAIN: 2000
    PRE_NMS_TOP_N_TEST: 1000
    POST_NMS_TOP_N_TEST: 1000
    FPN_POST_NMS_TOP_N_TEST: 1000
  ROI_HEADS:
    USE_FPN: True
  ROI_BOX_HEAD:
    POOLER_RESOLUTION: 7
    POOLER_SCALES: (0.25, 0.125, 0.0625, 0.03125)
    POOLER_SAMPLING_RATIO: 2
    FEATURE_EXTRACTOR: "FPN2MLPFeatureExtractor"
    PREDICTOR: "FPNPredictor"
DATASETS:
  TRAIN: ("coco_2014_train", "coco_2014_valminusminival")
  TEST: ("coco_2014_minival",)
DATALOADER:
  SIZE_DIVISIBILITY: 32
SOLVER:
  BASE_LR: 0.02
  WEIGHT_DECAY: 0.0001
  STEPS: (60000, 80000)
  MAX_ITER: 90000
`

func TestLoadFasterRCNNFPN(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(fasterRCNNFPNYAML))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if cfg.Model.MetaArchitecture != "GeneralizedRCNN" {
		t.Errorf("Expected META_ARCHITECTURE=GeneralizedRCNN, got %s", cfg.Model.MetaArchitecture)
	}
	if cfg.Model.Weight != "catalog://ImageNetPretrained/MSRA/R-50" {
		t.Errorf("Unexpected WEIGHT: %s", cfg.Model.Weight)
	}
	if cfg.Model.Backbone.ConvBody != "R-50-FPN" {
		t.Errorf("Expected CONV_BODY=R-50-FPN, got %s", cfg.Model.Backbone.ConvBody)
	}
	if cfg.Model.Backbone.OutChannels != 256 {
		t.Errorf("Expected OUT_CHANNELS=256, got %d", cfg.Model.Backbone.OutChannels)
	}

	if !cfg.Model.RPN.UseFPN {
		t.Error("Expected RPN.USE_FPN=true")
	}
	if len(cfg.Model.RPN.AnchorStride) != 5 {
		t.Fatalf("Expected 5 anchor strides, got %d", len(cfg.Model.RPN.AnchorStride))
	}
	if cfg.Model.RPN.AnchorStride[0] != 4 || cfg.Model.RPN.AnchorStride[4] != 64 {
		t.Errorf("Unexpected ANCHOR_STRIDE: %v", cfg.Model.RPN.AnchorStride)
	}

	if len(cfg.Model.ROIBoxHead.PoolerScales) != 4 {
		t.Fatalf("Expected 4 pooler scales, got %d", len(cfg.Model.ROIBoxHead.PoolerScales))
	}
	if cfg.Model.ROIBoxHead.PoolerResolution != 7 {
		t.Errorf("Expected POOLER_RESOLUTION=7, got %d", cfg.Model.ROIBoxHead.PoolerResolution)
	}

	if len(cfg.Datasets.Train) != 2 || cfg.Datasets.Train[0] != "coco_2014_train" {
		t.Errorf("Unexpected DATASETS.TRAIN: %v", cfg.Datasets.Train)
	}
	if len(cfg.Datasets.Test) != 1 || cfg.Datasets.Test[0] != "coco_2014_minival" {
		t.Errorf("Unexpected DATASETS.TEST: %v", cfg.Datasets.Test)
	}

	if cfg.Solver.BaseLR != 0.02 {
		t.Errorf("Expected BASE_LR=0.02, got %g", cfg.Solver.BaseLR)
	}
	if len(cfg.Solver.Steps) != 2 || cfg.Solver.Steps[0] != 60000 || cfg.Solver.Steps[1] != 80000 {
		t.Errorf("Unexpected SOLVER.STEPS: %v", cfg.Solver.Steps)
	}
	if cfg.Solver.MaxIter != 90000 {
		t.Errorf("Expected MAX_ITER=90000, got %d", cfg.Solver.MaxIter)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader("SOLVER:\n  BASE_LR: 0.01\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	// Touched key.
	if cfg.Solver.BaseLR != 0.01 {
		t.Errorf("Expected BASE_LR=0.01, got %g", cfg.Solver.BaseLR)
	}

	// Untouched keys keep their defaults.
	if cfg.Solver.Momentum != 0.9 {
		t.Errorf("Expected default MOMENTUM=0.9, got %g", cfg.Solver.Momentum)
	}
	if cfg.Model.Backbone.ConvBody != "R-50-C4" {
		t.Errorf("Expected default CONV_BODY=R-50-C4, got %s", cfg.Model.Backbone.ConvBody)
	}
	if len(cfg.Input.PixelMean) != 3 || cfg.Input.PixelMean[0] != 102.9801 {
		t.Errorf("Expected default PIXEL_MEAN, got %v", cfg.Input.PixelMean)
	}
	if !cfg.Input.ToBGR255 {
		t.Error("Expected default TO_BGR255=true")
	}
}

func TestLoadEmptyFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	want := Default()
	if cfg.Model.MetaArchitecture != want.Model.MetaArchitecture {
		t.Errorf("Expected default META_ARCHITECTURE, got %s", cfg.Model.MetaArchitecture)
	}
	if cfg.Solver.MaxIter != want.Solver.MaxIter {
		t.Errorf("Expected default MAX_ITER=%d, got %d", want.Solver.MaxIter, cfg.Solver.MaxIter)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("MODEL:\n  META_ARCHTECTURE: \"GeneralizedRCNN\"\n"))
	if err == nil {
		t.Fatal("Expected error for misspelled key")
	}
}

func TestLoadEnvironmentExpansion(t *testing.T) {
	t.Setenv("DETCONF_TEST_OUTPUT", "/data/runs/exp42")

	cfg, err := LoadFromReader(strings.NewReader("OUTPUT_DIR: ${DETCONF_TEST_OUTPUT}\n"))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if cfg.OutputDir != "/data/runs/exp42" {
		t.Errorf("Expected expanded OUTPUT_DIR, got %s", cfg.OutputDir)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yaml")
	if err := os.WriteFile(path, []byte(fasterRCNNFPNYAML), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Model.Backbone.ConvBody != "R-50-FPN" {
		t.Errorf("Expected CONV_BODY=R-50-FPN, got %s", cfg.Model.Backbone.ConvBody)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	_, err := Load("experiment.json")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}
