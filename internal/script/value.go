package script

import (
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/model"
)

// ToLua converts a model.Value into the gopher-lua value that represents it
// inside the script (§4.B, §9's dynamic value surface).
func ToLua(L *lua.LState, v model.Value) lua.LValue {
	switch v.Kind {
	case model.KindBool:
		return lua.LBool(v.Bool)
	case model.KindInt:
		return lua.LNumber(v.Int)
	case model.KindFloat:
		return lua.LNumber(v.Float)
	case model.KindString:
		return lua.LString(v.String)
	case model.KindBytes:
		return lua.LString(string(v.Bytes))
	case model.KindList:
		tbl := L.NewTable()
		for i, item := range v.List {
			tbl.RawSetInt(i+1, ToLua(L, item))
		}
		return tbl
	case model.KindMap:
		tbl := L.NewTable()
		for k, item := range v.Map {
			tbl.RawSetString(k, ToLua(L, item))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// FromLua converts a gopher-lua value produced by a script into a
// model.Value, used when a handler's return value or a table passed to a
// codec/template crosses back into the host.
func FromLua(lv lua.LValue) model.Value {
	switch v := lv.(type) {
	case *lua.LNilType:
		return model.Null
	case lua.LBool:
		return model.NewBool(bool(v))
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return model.NewInt(int64(f))
		}
		return model.NewFloat(f)
	case lua.LString:
		return model.NewString(string(v))
	case *lua.LTable:
		return fromLuaTable(v)
	case *lua.LUserData:
		if fc, ok := v.Value.(*fileContentUserData); ok {
			return model.NewString(fc.mustReadAll())
		}
		return model.Null
	default:
		return model.Null
	}
}

func fromLuaTable(tbl *lua.LTable) model.Value {
	n := tbl.Len()
	isArray := n > 0

	keys := make([]string, 0)
	values := map[string]lua.LValue{}
	tbl.ForEach(func(k, v lua.LValue) {
		ks := k.String()
		keys = append(keys, ks)
		values[ks] = v
		if _, ok := k.(lua.LNumber); !ok {
			isArray = false
		}
	})

	if isArray {
		out := make([]model.Value, n)
		for i := 1; i <= n; i++ {
			out[i-1] = FromLua(tbl.RawGetInt(i))
		}
		return model.NewList(out)
	}

	sort.Strings(keys)
	out := make(map[string]model.Value, len(keys))
	for _, k := range keys {
		out[k] = FromLua(values[k])
	}
	return model.NewMap(out)
}

// luaStringList converts a []string (e.g. arc.args) into a Lua array table.
func luaStringList(L *lua.LState, args []string) *lua.LTable {
	tbl := L.NewTable()
	for i, a := range args {
		tbl.RawSetInt(i+1, lua.LString(a))
	}
	return tbl
}
