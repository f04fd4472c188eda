// Package diff compares two detection configs field by field.
//
// Configs are flattened to dotted uppercase paths (the same notation
// the override layer accepts) so a diff entry can be fed straight
// back into a --set flag.
package diff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/detkit/detconf/internal/config"
)

// ChangeKind classifies a single diff entry.
type ChangeKind string

const (
	KindChanged ChangeKind = "changed"
	KindAdded   ChangeKind = "added"
	KindRemoved ChangeKind = "removed"
)

// Entry is one differing path between two configs.
type Entry struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
	Old  string     `json:"old,omitempty"`
	New  string     `json:"new,omitempty"`
}

// Report holds all differing paths, sorted by path.
type Report struct {
	Entries []Entry `json:"entries"`
}

// Empty reports whether the two configs were identical.
func (r *Report) Empty() bool {
	return len(r.Entries) == 0
}

// Compare flattens both configs and reports every path whose value
// differs. Lists and tuples compare as whole values, not element by
// element.
func Compare(before, after *config.Config) (*Report, error) {
	oldFlat, err := flatten(before)
	if err != nil {
		return nil, fmt.Errorf("flatten old config: %w", err)
	}
	newFlat, err := flatten(after)
	if err != nil {
		return nil, fmt.Errorf("flatten new config: %w", err)
	}

	report := &Report{}
	paths := lo.Uniq(append(lo.Keys(oldFlat), lo.Keys(newFlat)...))
	sort.Strings(paths)

	for _, path := range paths {
		oldVal, inOld := oldFlat[path]
		newVal, inNew := newFlat[path]

		switch {
		case inOld && inNew && oldVal != newVal:
			report.Entries = append(report.Entries, Entry{Path: path, Kind: KindChanged, Old: oldVal, New: newVal})
		case inOld && !inNew:
			report.Entries = append(report.Entries, Entry{Path: path, Kind: KindRemoved, Old: oldVal})
		case !inOld && inNew:
			report.Entries = append(report.Entries, Entry{Path: path, Kind: KindAdded, New: newVal})
		}
	}
	return report, nil
}

// flatten walks the config's JSON form and collects leaf paths.
// Arrays are leaves: a changed element reports the whole list.
func flatten(cfg *config.Config) (map[string]string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	flat := make(map[string]string)
	var walk func(prefix string, value gjson.Result)
	walk = func(prefix string, value gjson.Result) {
		if !value.IsObject() {
			flat[prefix] = value.Raw
			return
		}
		value.ForEach(func(key, child gjson.Result) bool {
			path := key.String()
			if prefix != "" {
				path = prefix + "." + path
			}
			walk(path, child)
			return true
		})
	}
	walk("", gjson.ParseBytes(raw))
	return flat, nil
}

// Format renders a report in a terse, grep-friendly layout.
func Format(report *Report) string {
	if report.Empty() {
		return "configs are identical\n"
	}

	var sb strings.Builder
	for _, entry := range report.Entries {
		switch entry.Kind {
		case KindChanged:
			fmt.Fprintf(&sb, "~ %s: %s -> %s\n", entry.Path, entry.Old, entry.New)
		case KindAdded:
			fmt.Fprintf(&sb, "+ %s: %s\n", entry.Path, entry.New)
		case KindRemoved:
			fmt.Fprintf(&sb, "- %s: %s\n", entry.Path, entry.Old)
		}
	}
	return sb.String()
}
