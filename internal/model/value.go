package model

import "fmt"

// ValueKind identifies which variant of Value is populated.
type ValueKind int

// Value kinds, per the dynamic value surface scripts marshal into codecs and templates.
const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
)

// Value is a tagged union representing any value that crosses the boundary
// between the script runtime and the host: codec payloads, template
// contexts, and task results. Exactly one of the typed fields is
// meaningful, selected by Kind.
type Value struct {
	Kind ValueKind

	Bool   bool
	Int    int64
	Float  float64
	String string
	Bytes  []byte
	List   []Value
	Map    map[string]Value
}

// Null is the zero-information Value.
var Null = Value{Kind: KindNull}

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewInt wraps an integer.
func NewInt(i int64) Value { return Value{Kind: KindInt, Int: i} }

// NewFloat wraps a float.
func NewFloat(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// NewString wraps a string.
func NewString(s string) Value { return Value{Kind: KindString, String: s} }

// NewBytes wraps raw bytes (used for binary-safe file content).
func NewBytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// NewList wraps an ordered sequence of values.
func NewList(l []Value) Value { return Value{Kind: KindList, List: l} }

// NewMap wraps a string-keyed map of values.
func NewMap(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// IsNull reports whether v carries no information.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Native converts v into a plain Go value (nil, bool, int64, float64,
// string, []byte, []any or map[string]any) suitable for handing to a
// generic codec or template engine.
func (v Value) Native() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.String
	case KindBytes:
		return v.Bytes
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = item.Native()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for k, item := range v.Map {
			out[k] = item.Native()
		}
		return out
	default:
		return nil
	}
}

// FromNative builds a Value from a plain Go value produced by decoding a
// codec payload (encoding/json, yaml.v3, go-toml/v2 all decode into this
// shape of nil/bool/number/string/[]any/map[string]any).
func FromNative(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case bool:
		return NewBool(t)
	case int:
		return NewInt(int64(t))
	case int64:
		return NewInt(t)
	case float64:
		return NewFloat(t)
	case float32:
		return NewFloat(float64(t))
	case string:
		return NewString(t)
	case []byte:
		return NewBytes(t)
	case []any:
		out := make([]Value, len(t))
		for i, item := range t {
			out[i] = FromNative(item)
		}
		return NewList(out)
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, item := range t {
			out[k] = FromNative(item)
		}
		return NewMap(out)
	case map[any]any:
		out := make(map[string]Value, len(t))
		for k, item := range t {
			out[toMapKey(k)] = FromNative(item)
		}
		return NewMap(out)
	default:
		return NewString("")
	}
}

func toMapKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", k)
}
