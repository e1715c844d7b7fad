// Package codec bridges the script-visible format.* surface to concrete
// serialization libraries, all operating on the dynamic model.Value union
// (§4.B, §9).
package codec

import "github.com/arclang/arc/internal/model"

// Codec encodes and decodes a model.Value to and from a wire format.
type Codec interface {
	Encode(v model.Value) ([]byte, error)
	Decode(data []byte) (model.Value, error)
}
