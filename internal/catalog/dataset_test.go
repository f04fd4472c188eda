package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDatasetCatalogBuiltins(t *testing.T) {
	t.Parallel()

	c := NewDatasetCatalog()

	ds, ok := c.Get("coco_2014_train")
	if !ok {
		t.Fatal("Expected coco_2014_train to be builtin")
	}
	if ds.Factory != "COCODataset" {
		t.Errorf("Expected COCODataset factory, got %s", ds.Factory)
	}
	if ds.ImgDir != filepath.Join("datasets", "coco/train2014") {
		t.Errorf("Unexpected img dir: %s", ds.ImgDir)
	}
	if ds.AnnFile != filepath.Join("datasets", "coco/annotations/instances_train2014.json") {
		t.Errorf("Unexpected ann file: %s", ds.AnnFile)
	}
}

func TestDatasetCatalogVOCSplit(t *testing.T) {
	t.Parallel()

	c := NewDatasetCatalog()

	ds, ok := c.Get("voc_2007_test")
	if !ok {
		t.Fatal("Expected voc_2007_test to be builtin")
	}
	if ds.Factory != "PascalVOCDataset" {
		t.Errorf("Expected PascalVOCDataset factory, got %s", ds.Factory)
	}
	if ds.Split != "test" {
		t.Errorf("Expected split test, got %s", ds.Split)
	}
	if ds.AnnFile != "" {
		t.Errorf("Expected no ann file for VOC, got %s", ds.AnnFile)
	}
}

func TestDatasetCatalogWithDataDir(t *testing.T) {
	t.Parallel()

	c := NewDatasetCatalog(WithDataDir("/data"))

	ds, ok := c.Get("coco_2014_minival")
	if !ok {
		t.Fatal("Expected coco_2014_minival to be builtin")
	}
	if ds.ImgDir != filepath.Join("/data", "coco/val2014") {
		t.Errorf("Unexpected img dir: %s", ds.ImgDir)
	}
}

func TestDatasetCatalogMissing(t *testing.T) {
	t.Parallel()

	c := NewDatasetCatalog()

	missing := c.Missing("coco_2014_train", "cityscapes_train", "voc_2007_val", "lvis_v1_train")
	want := []string{"cityscapes_train", "lvis_v1_train"}
	if len(missing) != len(want) || missing[0] != want[0] || missing[1] != want[1] {
		t.Errorf("Expected missing %v, got %v", want, missing)
	}

	if got := c.Missing("coco_2014_train"); got != nil {
		t.Errorf("Expected nil for fully resolvable names, got %v", got)
	}
}

func TestDatasetCatalogNamesSorted(t *testing.T) {
	t.Parallel()

	names := NewDatasetCatalog().Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("Expected sorted names, got %v", names)
	}
	if len(names) == 0 {
		t.Error("Expected builtin entries")
	}
}

func TestDatasetCatalogLoadFile(t *testing.T) {
	t.Parallel()

	content := `
cityscapes_fine_train:
  factory: COCODataset
  img_dir: cityscapes/leftImg8bit/train
  ann_file: cityscapes/annotations/instancesonly_filtered_gtFine_train.json

coco_2014_train:
  factory: COCODataset
  img_dir: coco-custom/train2014
  ann_file: coco-custom/annotations/instances_train2014.json
`
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write catalog file: %v", err)
	}

	c := NewDatasetCatalog()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if !c.Contains("cityscapes_fine_train") {
		t.Error("Expected file entry to be added")
	}

	// File entries override builtins.
	ds, _ := c.Get("coco_2014_train")
	if ds.ImgDir != filepath.Join("datasets", "coco-custom/train2014") {
		t.Errorf("Expected override to win, got %s", ds.ImgDir)
	}
}

func TestDatasetCatalogLoadFileRejectsIncomplete(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "datasets.yaml")
	if err := os.WriteFile(path, []byte("broken_ds:\n  img_dir: somewhere\n"), 0o644); err != nil {
		t.Fatalf("Failed to write catalog file: %v", err)
	}

	c := NewDatasetCatalog()
	if err := c.LoadFile(path); err == nil {
		t.Fatal("Expected error for entry without factory")
	}
	if c.Contains("broken_ds") {
		t.Error("Expected rejected file to leave catalog unchanged")
	}
}

func TestDatasetCatalogLoadFileMissing(t *testing.T) {
	t.Parallel()

	c := NewDatasetCatalog()
	if err := c.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing catalog file")
	}
}
