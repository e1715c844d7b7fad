package codec

import (
	"encoding/json"
	"fmt"

	"github.com/arclang/arc/internal/model"
)

// JSON implements Codec plus the EncodePretty format.json script exposes
// (§4.B: "encode_pretty only exists for json").
type JSON struct{}

func (JSON) Encode(v model.Value) ([]byte, error) {
	out, err := json.Marshal(v.Native())
	if err != nil {
		return nil, fmt.Errorf("could not encode json: %w", err)
	}
	return out, nil
}

// EncodePretty indents the output with two spaces.
func (JSON) EncodePretty(v model.Value) ([]byte, error) {
	out, err := json.MarshalIndent(v.Native(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("could not encode json: %w", err)
	}
	return out, nil
}

func (JSON) Decode(data []byte) (model.Value, error) {
	var native any
	if err := json.Unmarshal(data, &native); err != nil {
		return model.Null, fmt.Errorf("could not decode json: %w", err)
	}
	return model.FromNative(native), nil
}
