package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/content"
	"github.com/arclang/arc/internal/transport"
)

// fileContentUserData wraps a lazy content.Content. It stays lazy until
// forced: __tostring, string concatenation, or a codec/template hand-off
// trigger a full read; assigning it onto another handle's .content streams
// instead (§4.G).
type fileContentUserData struct {
	runtime *Runtime
	content *content.Content
}

func (r *Runtime) registerContentType() {
	mt := r.l.NewTypeMetatable(typeNameContent)
	r.l.SetField(mt, "__tostring", r.l.NewFunction(r.contentToString))
	r.l.SetField(mt, "__concat", r.l.NewFunction(r.contentConcat))
}

func (r *Runtime) pushContent(t transport.Transport, path string) *lua.LUserData {
	ud := r.l.NewUserData()
	ud.Value = &fileContentUserData{runtime: r, content: content.New(t, path)}
	ud.Metatable = r.l.GetTypeMetatable(typeNameContent)
	return ud
}

// mustReadAll forces a read, converting any error into a Lua-raised error
// at the point of use — there is no other way to report failure from
// inside value conversion.
func (fc *fileContentUserData) mustReadAll() string {
	data, err := fc.content.ReadAll(fc.runtime.ctx)
	if err != nil {
		fc.runtime.l.RaiseError("%s", err.Error())
		return ""
	}
	return string(data)
}

func (r *Runtime) contentToString(L *lua.LState) int {
	ud := L.CheckUserData(1)
	fc, ok := ud.Value.(*fileContentUserData)
	if !ok {
		L.ArgError(1, "expected a file_content value")
		return 0
	}

	data, err := fc.content.ReadAll(r.ctx)
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LString(string(data)))
	return 1
}

// contentConcat implements "a" .. handle.content and handle.content .. "a"
// by forcing a read on whichever operand is a file_content handle.
func (r *Runtime) contentConcat(L *lua.LState) int {
	left := operandToString(r, L, L.Get(1))
	right := operandToString(r, L, L.Get(2))
	L.Push(lua.LString(left + right))
	return 1
}

func operandToString(r *Runtime, L *lua.LState, v lua.LValue) string {
	if ud, ok := v.(*lua.LUserData); ok {
		if fc, ok := ud.Value.(*fileContentUserData); ok {
			data, err := fc.content.ReadAll(r.ctx)
			if err != nil {
				L.RaiseError("%s", err.Error())
				return ""
			}
			return string(data)
		}
	}
	return v.String()
}
