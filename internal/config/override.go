package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"
)

// Command-line overrides. The training framework exposes the same
// operation as cfg.merge_from_list: dotted uppercase paths applied over
// the resolved tree, e.g. MODEL.RPN.NMS_THRESH=0.7. Overrides are applied
// to the JSON form of the config so that paths address exactly the keys
// the schema exposes.

// UnknownPathError is returned when an override names a path that does not
// exist in the schema.
type UnknownPathError struct {
	Path string
}

func (e UnknownPathError) Error() string {
	return fmt.Sprintf("config: unknown config path %q", e.Path)
}

// MergeFromList applies alternating path/value overrides, mirroring the
// framework's merge_from_list: ["MODEL.DEVICE", "cpu", ...].
func (c *Config) MergeFromList(opts []string) error {
	if len(opts)%2 != 0 {
		return fmt.Errorf("config: override list must have even length, got %d", len(opts))
	}

	assignments := make([]string, 0, len(opts)/2)
	for i := 0; i < len(opts); i += 2 {
		assignments = append(assignments, opts[i]+"="+opts[i+1])
	}
	return c.MergeAssignments(assignments)
}

// MergeAssignments applies PATH=VALUE overrides in order. Values are
// parsed as YAML scalars, so numbers, booleans, quoted strings, lists and
// tuple literals all work. The whole batch is applied atomically: on any
// error the receiver is left unchanged.
func (c *Config) MergeAssignments(assignments []string) error {
	if len(assignments) == 0 {
		return nil
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: failed to encode config: %w", err)
	}

	for _, assignment := range assignments {
		path, raw, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("config: override %q is not of the form PATH=VALUE", assignment)
		}
		path = strings.TrimSpace(path)

		if !gjson.GetBytes(data, path).Exists() {
			return UnknownPathError{Path: path}
		}

		value, err := parseOverrideValue(raw)
		if err != nil {
			return fmt.Errorf("config: override %s: %w", path, err)
		}

		data, err = sjson.SetBytes(data, path, value)
		if err != nil {
			return fmt.Errorf("config: override %s: %w", path, err)
		}
	}

	var merged Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&merged); err != nil {
		return fmt.Errorf("config: override produced an invalid config: %w", err)
	}

	*c = merged
	return nil
}

// Lookup returns the JSON-encoded value at a dotted config path.
func (c *Config) Lookup(path string) (string, bool) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", false
	}
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return "", false
	}
	return result.Raw, true
}

// parseOverrideValue decodes one override value. Tuple literals are
// normalized to lists first so "(120000, 160000)" behaves the same on the
// command line as in an experiment file.
func parseOverrideValue(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		items, err := splitTupleLiteral(trimmed)
		if err != nil {
			return nil, err
		}
		values := make([]any, 0, len(items))
		for _, item := range items {
			var v any
			if err := yaml.Unmarshal([]byte(item), &v); err != nil {
				return nil, fmt.Errorf("invalid tuple element %q: %w", item, err)
			}
			values = append(values, v)
		}
		return values, nil
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("invalid value %q: %w", raw, err)
	}
	return value, nil
}
