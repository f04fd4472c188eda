package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes an expected result either as a mapping with named
// keys or as the framework's positional form [task, metric, mean, std],
// e.g. ["bbox", "AP", 0.384, 0.003].
func (e *ExpectedResult) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		type plain ExpectedResult
		var out plain
		if err := value.Decode(&out); err != nil {
			return err
		}
		*e = ExpectedResult(out)
		return nil
	}

	if value.Kind != yaml.SequenceNode || len(value.Content) != 4 {
		return fmt.Errorf("expected result must be [task, metric, mean, std]")
	}

	if err := value.Content[0].Decode(&e.Task); err != nil {
		return fmt.Errorf("expected result task: %w", err)
	}
	if err := value.Content[1].Decode(&e.Metric); err != nil {
		return fmt.Errorf("expected result metric: %w", err)
	}
	if err := value.Content[2].Decode(&e.Mean); err != nil {
		return fmt.Errorf("expected result mean: %w", err)
	}
	if err := value.Content[3].Decode(&e.Std); err != nil {
		return fmt.Errorf("expected result std: %w", err)
	}
	return nil
}
