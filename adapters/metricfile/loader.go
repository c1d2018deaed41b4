package metricfile

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gosize/domain/core"
	"gosize/domain/metric"
)

// document is the keyed form of a registration file
type document struct {
	Metrics []metric.Descriptor `yaml:"metrics"`
}

// Load reads metric descriptors from a YAML or JSON file
func Load(path string) ([]metric.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metric file %s: %w", path, err)
	}
	descriptors, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("metric file %s: %w", path, err)
	}
	return descriptors, nil
}

// Parse decodes descriptors from either a top-level list or a document with a
// "metrics" key. Descriptor contents are validated on registration, not here.
func Parse(data []byte) ([]metric.Descriptor, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidMetric, err)
	}
	if len(root.Content) == 0 {
		return nil, core.ErrNoMetrics
	}

	var descriptors []metric.Descriptor
	switch node := root.Content[0]; node.Kind {
	case yaml.SequenceNode:
		if err := decodeStrict(node, &descriptors); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var doc document
		if err := decodeStrict(node, &doc); err != nil {
			return nil, err
		}
		descriptors = doc.Metrics
	default:
		return nil, fmt.Errorf("%w: expected a list of metrics or a metrics key, got %s at line %d",
			core.ErrInvalidMetric, kindName(node.Kind), node.Line)
	}

	if len(descriptors) == 0 {
		return nil, core.ErrNoMetrics
	}
	return descriptors, nil
}

// decodeStrict re-encodes node and decodes it with unknown fields rejected
func decodeStrict(node *yaml.Node, out interface{}) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidMetric, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidMetric, err)
	}

	dec := yaml.NewDecoder(&buf)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidMetric, err)
	}
	return nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
