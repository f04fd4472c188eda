package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tuple types for fixed-arity numeric and string sequences in the schema.
//
// The reference configs predate proper YAML lists and frequently spell
// tuples as Python literals inside a scalar, e.g.
//
//	STEPS: (120000, 160000)
//	TRAIN: ("coco_2014_train", "coco_2014_valminusminival")
//
// The consuming framework literal-evals these strings. To stay compatible
// with existing experiment files, each tuple type accepts both a YAML
// sequence and a tuple-literal scalar.

// IntTuple is a sequence of integers.
type IntTuple []int

// FloatTuple is a sequence of floats.
type FloatTuple []float64

// StringTuple is a sequence of strings.
type StringTuple []string

// UnmarshalYAML decodes a YAML sequence or a tuple-literal scalar.
func (t *IntTuple) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var out []int
		if err := value.Decode(&out); err != nil {
			return err
		}
		*t = out
		return nil
	}

	items, err := splitTupleLiteral(value.Value)
	if err != nil {
		return fmt.Errorf("invalid int tuple %q: %w", value.Value, err)
	}

	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			return fmt.Errorf("invalid int tuple %q: %w", value.Value, err)
		}
		out = append(out, n)
	}
	*t = out
	return nil
}

// UnmarshalYAML decodes a YAML sequence or a tuple-literal scalar.
func (t *FloatTuple) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var out []float64
		if err := value.Decode(&out); err != nil {
			return err
		}
		*t = out
		return nil
	}

	items, err := splitTupleLiteral(value.Value)
	if err != nil {
		return fmt.Errorf("invalid float tuple %q: %w", value.Value, err)
	}

	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return fmt.Errorf("invalid float tuple %q: %w", value.Value, err)
		}
		out = append(out, f)
	}
	*t = out
	return nil
}

// UnmarshalYAML decodes a YAML sequence or a tuple-literal scalar.
// Elements inside a tuple literal may carry single or double quotes.
func (t *StringTuple) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var out []string
		if err := value.Decode(&out); err != nil {
			return err
		}
		*t = out
		return nil
	}

	items, err := splitTupleLiteral(value.Value)
	if err != nil {
		return fmt.Errorf("invalid string tuple %q: %w", value.Value, err)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, unquoteTupleItem(item))
	}
	*t = out
	return nil
}

// splitTupleLiteral parses "(a, b, c)" into trimmed items.
// A trailing comma, as in "(30000,)", yields a single-element tuple.
func splitTupleLiteral(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("expected tuple literal of the form (a, b)")
	}

	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return []string{}, nil
	}

	parts := strings.Split(inner, ",")
	items := make([]string, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			// Only a trailing comma may leave an empty slot.
			if i == len(parts)-1 {
				continue
			}
			return nil, fmt.Errorf("empty tuple element at position %d", i)
		}
		items = append(items, part)
	}
	return items, nil
}

func unquoteTupleItem(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
