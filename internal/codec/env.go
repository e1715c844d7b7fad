package codec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/arclang/arc/internal/model"
)

// Env implements Codec for dotenv-format payloads. Decode uses
// github.com/joho/godotenv, the same library the loader uses for
// project-root .env files (§4.B, §4.D); Encode writes sorted KEY="value"
// lines itself.
type Env struct{}

func (Env) Encode(v model.Value) ([]byte, error) {
	m, ok := v.Native().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("env encoding requires a flat table, got %T", v.Native())
	}

	strs := make(map[string]string, len(m))
	keys := make([]string, 0, len(m))
	for k, val := range m {
		strs[k] = fmt.Sprintf("%v", val)
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%q\n", k, strs[k])
	}
	return []byte(b.String()), nil
}

func (Env) Decode(data []byte) (model.Value, error) {
	m, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return model.Null, fmt.Errorf("could not decode dotenv payload: %w", err)
	}

	out := make(map[string]model.Value, len(m))
	for k, v := range m {
		out[k] = model.NewString(v)
	}
	return model.NewMap(out), nil
}
