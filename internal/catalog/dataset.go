// Package catalog resolves the symbolic dataset and model names used in
// experiment configs. DATASETS.TRAIN/TEST entries and catalog:// weight
// references are contracts against these catalogs, the same way component
// names are contracts against the registries.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// DatasetSpec describes how a named dataset is materialized: which dataset
// factory loads it and where its images and annotations live, relative to
// the data root.
type DatasetSpec struct {
	Factory string `yaml:"factory" json:"factory"`
	ImgDir  string `yaml:"img_dir" json:"img_dir"`
	AnnFile string `yaml:"ann_file,omitempty" json:"ann_file,omitempty"`
	Split   string `yaml:"split,omitempty" json:"split,omitempty"`
}

// ResolvedDataset is a DatasetSpec with its paths joined against the
// catalog's data root.
type ResolvedDataset struct {
	Name    string `json:"name"`
	Factory string `json:"factory"`
	ImgDir  string `json:"img_dir"`
	AnnFile string `json:"ann_file,omitempty"`
	Split   string `json:"split,omitempty"`
}

// DatasetCatalog maps dataset names to their specs. It starts with the
// builtin COCO and Pascal VOC entries and can be extended from a YAML
// catalog file; file entries may override builtins.
type DatasetCatalog struct {
	dataDir string
	mu      sync.RWMutex
	entries map[string]DatasetSpec
}

// DatasetCatalogOption configures a DatasetCatalog.
type DatasetCatalogOption func(*DatasetCatalog)

// WithDataDir sets the root that relative dataset paths are joined
// against. Default is "datasets".
func WithDataDir(dir string) DatasetCatalogOption {
	return func(c *DatasetCatalog) {
		c.dataDir = dir
	}
}

// NewDatasetCatalog returns a catalog seeded with the builtin entries.
func NewDatasetCatalog(opts ...DatasetCatalogOption) *DatasetCatalog {
	c := &DatasetCatalog{
		dataDir: "datasets",
		entries: make(map[string]DatasetSpec, len(builtinDatasets)),
	}
	for name, spec := range builtinDatasets {
		c.entries[name] = spec
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DataDir returns the data root.
func (c *DatasetCatalog) DataDir() string {
	return c.dataDir
}

// Get resolves a dataset name against the catalog.
func (c *DatasetCatalog) Get(name string) (ResolvedDataset, bool) {
	c.mu.RLock()
	spec, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return ResolvedDataset{}, false
	}

	resolved := ResolvedDataset{
		Name:    name,
		Factory: spec.Factory,
		ImgDir:  filepath.Join(c.dataDir, spec.ImgDir),
		Split:   spec.Split,
	}
	if spec.AnnFile != "" {
		resolved.AnnFile = filepath.Join(c.dataDir, spec.AnnFile)
	}
	return resolved, true
}

// Contains reports whether a dataset name is known.
func (c *DatasetCatalog) Contains(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[name]
	return ok
}

// Names returns all dataset names in sorted order.
func (c *DatasetCatalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing returns the subset of names the catalog cannot resolve,
// preserving input order.
func (c *DatasetCatalog) Missing(names ...string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	for _, name := range names {
		if _, ok := c.entries[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// LoadFile merges entries from a YAML catalog file. Entries must name a
// factory and an image dir; they may override builtins.
func (c *DatasetCatalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("catalog: failed to read %s: %w", path, err)
	}

	var entries map[string]DatasetSpec
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &entries); err != nil {
		return fmt.Errorf("catalog: failed to parse %s: %w", path, err)
	}

	for name, spec := range entries {
		if spec.Factory == "" {
			return fmt.Errorf("catalog: dataset %q in %s has no factory", name, path)
		}
		if spec.ImgDir == "" {
			return fmt.Errorf("catalog: dataset %q in %s has no img_dir", name, path)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, spec := range entries {
		c.entries[name] = spec
	}
	return nil
}

// Builtin entries, mirroring the detection framework's path catalog.
var builtinDatasets = map[string]DatasetSpec{
	"coco_2014_train": {
		Factory: "COCODataset",
		ImgDir:  "coco/train2014",
		AnnFile: "coco/annotations/instances_train2014.json",
	},
	"coco_2014_val": {
		Factory: "COCODataset",
		ImgDir:  "coco/val2014",
		AnnFile: "coco/annotations/instances_val2014.json",
	},
	"coco_2014_minival": {
		Factory: "COCODataset",
		ImgDir:  "coco/val2014",
		AnnFile: "coco/annotations/instances_minival2014.json",
	},
	"coco_2014_valminusminival": {
		Factory: "COCODataset",
		ImgDir:  "coco/val2014",
		AnnFile: "coco/annotations/instances_valminusminival2014.json",
	},
	"voc_2007_train": {
		Factory: "PascalVOCDataset",
		ImgDir:  "voc/VOC2007",
		Split:   "train",
	},
	"voc_2007_val": {
		Factory: "PascalVOCDataset",
		ImgDir:  "voc/VOC2007",
		Split:   "val",
	},
	"voc_2007_test": {
		Factory: "PascalVOCDataset",
		ImgDir:  "voc/VOC2007",
		Split:   "test",
	},
	"voc_2012_train": {
		Factory: "PascalVOCDataset",
		ImgDir:  "voc/VOC2012",
		Split:   "train",
	},
	"voc_2012_val": {
		Factory: "PascalVOCDataset",
		ImgDir:  "voc/VOC2012",
		Split:   "val",
	},
}
