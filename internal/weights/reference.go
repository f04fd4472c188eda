// Package weights resolves MODEL.WEIGHT references. A weight reference is
// one of: empty (train from scratch), a local file path, an http(s) URL,
// an s3:// object, or a catalog:// name resolved through the model
// catalog. The checker verifies reachability without downloading.
package weights

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/detkit/detconf/internal/catalog"
)

// Kind classifies a weight reference.
type Kind string

// Reference kinds.
const (
	KindNone    Kind = "none"
	KindFile    Kind = "file"
	KindHTTP    Kind = "http"
	KindS3      Kind = "s3"
	KindCatalog Kind = "catalog"
)

// Reference is a parsed MODEL.WEIGHT value.
type Reference struct {
	// Raw is the value as written in the config.
	Raw  string `json:"raw"`
	Kind Kind   `json:"kind"`

	// URL is the download URL for http and catalog references.
	URL string `json:"url,omitempty"`
	// Path is the local path for file references.
	Path string `json:"path,omitempty"`
	// Bucket and Key address s3 references.
	Bucket string `json:"bucket,omitempty"`
	Key    string `json:"key,omitempty"`
}

// Parse classifies a MODEL.WEIGHT value. catalog:// references are
// resolved to their download URL here, so an unknown catalog name fails at
// parse time rather than at fetch time.
func Parse(raw string) (Reference, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Reference{Raw: raw, Kind: KindNone}, nil
	}

	if strings.HasPrefix(trimmed, catalog.CatalogScheme) {
		resolved, err := catalog.ResolveModel(trimmed)
		if err != nil {
			return Reference{}, err
		}
		return Reference{Raw: raw, Kind: KindCatalog, URL: resolved}, nil
	}

	u, err := url.Parse(trimmed)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			if u.Host == "" {
				return Reference{}, fmt.Errorf("weights: %q has no host", raw)
			}
			return Reference{Raw: raw, Kind: KindHTTP, URL: trimmed}, nil
		case "s3":
			bucket := u.Host
			key := strings.TrimPrefix(u.Path, "/")
			if bucket == "" || key == "" {
				return Reference{}, fmt.Errorf("weights: %q must be s3://bucket/key", raw)
			}
			return Reference{Raw: raw, Kind: KindS3, Bucket: bucket, Key: key}, nil
		}
	}

	return Reference{Raw: raw, Kind: KindFile, Path: trimmed}, nil
}

func (r Reference) String() string {
	if r.Kind == KindNone {
		return "(none)"
	}
	return r.Raw
}
