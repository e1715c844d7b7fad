package codec

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/arclang/arc/internal/model"
)

// YAML implements Codec using gopkg.in/yaml.v3 (teacher go.mod's existing dependency).
type YAML struct{}

func (YAML) Encode(v model.Value) ([]byte, error) {
	out, err := yaml.Marshal(v.Native())
	if err != nil {
		return nil, fmt.Errorf("could not encode yaml: %w", err)
	}
	return out, nil
}

func (YAML) Decode(data []byte) (model.Value, error) {
	var native any
	if err := yaml.Unmarshal(data, &native); err != nil {
		return model.Null, fmt.Errorf("could not decode yaml: %w", err)
	}
	return model.FromNative(normalizeYAML(native)), nil
}

// normalizeYAML recursively converts map[string]any keys that yaml.v3
// decodes from map[string]interface{} already (v3 decodes mapping nodes to
// map[string]any, unlike v2's map[interface{}]interface{}), and walks
// nested structures so FromNative sees only the shapes it understands.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return t
	}
}
