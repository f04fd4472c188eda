package catalog

import (
	"fmt"
	"strings"
)

// Model catalog: maps catalog:// weight references to download URLs for
// the published Caffe2 Detectron weights.

const (
	// CatalogScheme prefixes symbolic weight references.
	CatalogScheme = "catalog://"

	detectronBaseURL = "https://dl.fbaipublicfiles.com/detectron"

	imagenetPrefix  = "ImageNetPretrained/"
	detectronPrefix = "Caffe2Detectron/COCO/"

	// Every Detectron COCO baseline shares the same output path under its
	// run directory.
	detectronSuffix = "output/train/coco_2014_train%3Acoco_2014_valminusminival/generalized_rcnn/model_final.pkl"
)

// ImageNet-pretrained backbone weights, keyed by provider/model.
var imagenetModels = map[string]string{
	"MSRA/R-50":                 "ImageNetPretrained/MSRA/R-50.pkl",
	"MSRA/R-101":                "ImageNetPretrained/MSRA/R-101.pkl",
	"MSRA/R-152":                "ImageNetPretrained/MSRA/R-152.pkl",
	"FAIR/20171220/X-101-32x8d": "ImageNetPretrained/20171220/X-101-32x8d.pkl",
}

// Detectron 12_2017 baseline signatures, keyed by run id/config name. The
// signature is part of the published artifact path.
var detectronModels = map[string]string{
	"35857197/e2e_faster_rcnn_R-50-C4_1x":         "01_33_49.iAX0mXvW",
	"35857345/e2e_faster_rcnn_R-50-FPN_1x":        "01_36_30.cUF7QR7I",
	"35857890/e2e_faster_rcnn_R-101-FPN_1x":       "01_38_50.sNxI7sX7",
	"36761737/e2e_faster_rcnn_X-101-32x8d-FPN_1x": "06_31_39.5MIHi1fZ",
	"35858791/e2e_mask_rcnn_R-50-C4_1x":           "01_45_57.ZgkA7hPB",
	"35858933/e2e_mask_rcnn_R-50-FPN_1x":          "01_48_14.DzEQe4wC",
	"35861795/e2e_mask_rcnn_R-101-FPN_1x":         "02_31_37.KqyEK4tT",
	"36761843/e2e_mask_rcnn_X-101-32x8d-FPN_1x":   "06_35_59.RZotkLKI",
}

// ResolveModel maps a catalog:// weight reference to its download URL.
// Supported families are ImageNetPretrained/* backbone weights and
// Caffe2Detectron/COCO/* baselines.
func ResolveModel(ref string) (string, error) {
	name := strings.TrimPrefix(ref, CatalogScheme)
	if name == ref {
		return "", fmt.Errorf("catalog: %q is not a catalog:// reference", ref)
	}

	switch {
	case strings.HasPrefix(name, imagenetPrefix):
		return resolveImageNet(name)
	case strings.HasPrefix(name, detectronPrefix):
		return resolveDetectron(name)
	default:
		return "", fmt.Errorf("catalog: unknown model family in %q", ref)
	}
}

func resolveImageNet(name string) (string, error) {
	key := strings.TrimPrefix(name, imagenetPrefix)
	path, ok := imagenetModels[key]
	if !ok {
		return "", fmt.Errorf("catalog: unknown pretrained backbone %q", key)
	}
	return detectronBaseURL + "/" + path, nil
}

func resolveDetectron(name string) (string, error) {
	key := strings.TrimPrefix(name, detectronPrefix)
	signature, ok := detectronModels[key]
	if !ok {
		return "", fmt.Errorf("catalog: unknown baseline %q", key)
	}

	runID, configName, ok := strings.Cut(key, "/")
	if !ok {
		return "", fmt.Errorf("catalog: malformed baseline reference %q", key)
	}

	uniqueName := configName + ".yaml." + signature
	return strings.Join([]string{
		detectronBaseURL, runID, "12_2017_baselines", uniqueName, detectronSuffix,
	}, "/"), nil
}
