package codec

import (
	"fmt"
	"net/url"

	"github.com/arclang/arc/internal/model"
)

// URL implements Codec for application/x-www-form-urlencoded payloads. It
// only accepts/produces a flat string-keyed table — form encoding has no
// native notion of nesting — using net/url directly, undecorated by any
// third-party wrapper (see DESIGN.md).
type URL struct{}

func (URL) Encode(v model.Value) ([]byte, error) {
	m, ok := v.Native().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("url encoding requires a flat table, got %T", v.Native())
	}

	values := make(url.Values, len(m))
	for k, val := range m {
		values.Set(k, fmt.Sprintf("%v", val))
	}
	return []byte(values.Encode()), nil
}

func (URL) Decode(data []byte) (model.Value, error) {
	values, err := url.ParseQuery(string(data))
	if err != nil {
		return model.Null, fmt.Errorf("could not decode url-encoded form: %w", err)
	}

	out := make(map[string]model.Value, len(values))
	for k, vs := range values {
		if len(vs) == 0 {
			out[k] = model.NewString("")
			continue
		}
		out[k] = model.NewString(vs[0])
	}
	return model.NewMap(out), nil
}
