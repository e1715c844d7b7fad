package codec

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/arclang/arc/internal/model"
)

// TOML implements Codec using github.com/pelletier/go-toml/v2.
type TOML struct{}

func (TOML) Encode(v model.Value) ([]byte, error) {
	native, ok := v.Native().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("toml can only encode a top-level table, got %T", v.Native())
	}

	out, err := toml.Marshal(native)
	if err != nil {
		return nil, fmt.Errorf("could not encode toml: %w", err)
	}
	return out, nil
}

func (TOML) Decode(data []byte) (model.Value, error) {
	var native map[string]any
	if err := toml.Unmarshal(data, &native); err != nil {
		return model.Null, fmt.Errorf("could not decode toml: %w", err)
	}
	return model.FromNative(native), nil
}
