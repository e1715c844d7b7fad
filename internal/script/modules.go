package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/codec"
	"github.com/arclang/arc/internal/templating"
)

// installEnvModule binds env.get(name), reading from the map the loader
// seeded from the process environment overridden by .env files (§4.B).
func (r *Runtime) installEnvModule() {
	mod := r.l.NewTable()
	r.l.SetField(mod, "get", r.l.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		v, ok := r.env[name]
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(v))
		return 1
	}))
	r.l.SetGlobal("env", mod)
}

// installFormatModule binds format.{json,toml,yaml,url,env}.encode/decode
// (json also gets encode_pretty), each bridging to internal/codec (§4.B).
func (r *Runtime) installFormatModule() {
	format := r.l.NewTable()
	r.l.SetGlobal("format", format)

	format.RawSetString("json", r.codecTable(codec.JSON{}, true))
	format.RawSetString("toml", r.codecTable(codec.TOML{}, false))
	format.RawSetString("yaml", r.codecTable(codec.YAML{}, false))
	format.RawSetString("url", r.codecTable(codec.URL{}, false))
	format.RawSetString("env", r.codecTable(codec.Env{}, false))
}

func (r *Runtime) codecTable(c codec.Codec, pretty bool) *lua.LTable {
	tbl := r.l.NewTable()
	r.l.SetField(tbl, "encode", r.l.NewFunction(func(L *lua.LState) int {
		data, err := c.Encode(FromLua(L.Get(1)))
		if err != nil {
			return raise(L, err)
		}
		L.Push(lua.LString(string(data)))
		return 1
	}))
	r.l.SetField(tbl, "decode", r.l.NewFunction(func(L *lua.LState) int {
		v, err := c.Decode([]byte(L.CheckString(1)))
		if err != nil {
			return raise(L, err)
		}
		L.Push(ToLua(L, v))
		return 1
	}))
	if pretty {
		jc := c.(codec.JSON)
		r.l.SetField(tbl, "encode_pretty", r.l.NewFunction(func(L *lua.LState) int {
			data, err := jc.EncodePretty(FromLua(L.Get(1)))
			if err != nil {
				return raise(L, err)
			}
			L.Push(lua.LString(string(data)))
			return 1
		}))
	}
	return tbl
}

// installTemplateModule binds template.render(text, ctx) (§4.B).
func (r *Runtime) installTemplateModule() {
	mod := r.l.NewTable()
	r.l.SetField(mod, "render", r.l.NewFunction(func(L *lua.LState) int {
		text := L.CheckString(1)
		out, err := templating.Render(text, FromLua(L.Get(2)))
		if err != nil {
			return raise(L, err)
		}
		L.Push(lua.LString(out))
		return 1
	}))
	r.l.SetGlobal("template", mod)
}

// installLogModule binds log.debug/info/warning/error(msg) and the `print`
// global alias to log.info, sharing the host Logger (§4.B, AMBIENT STACK).
func (r *Runtime) installLogModule() {
	mod := r.l.NewTable()
	r.l.SetField(mod, "debug", r.l.NewFunction(r.logFn(r.logger.Debugf)))
	r.l.SetField(mod, "info", r.l.NewFunction(r.logFn(r.logger.Infof)))
	r.l.SetField(mod, "warning", r.l.NewFunction(r.logFn(r.logger.Warningf)))
	r.l.SetField(mod, "error", r.l.NewFunction(r.logFn(r.logger.Errorf)))
	r.l.SetGlobal("log", mod)

	r.l.SetGlobal("print", r.l.NewFunction(r.logFn(r.logger.Infof)))
}

func (r *Runtime) logFn(sink func(format string, args ...any)) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		msg := ""
		for i := 1; i <= n; i++ {
			if i > 1 {
				msg += " "
			}
			msg += L.Get(i).String()
		}
		sink("%s", msg)
		return 0
	}
}

// installArcModule binds arc.project_root_path, arc.home_path, and
// arc.args (§4.B, SUPPLEMENTED FEATURES).
func (r *Runtime) installArcModule() {
	mod := r.l.NewTable()
	mod.RawSetString("project_root_path", lua.LString(r.projectRoot))
	mod.RawSetString("home_path", lua.LString(r.homePath))
	mod.RawSetString("args", luaStringList(r.l, r.args))
	r.l.SetGlobal("arc", mod)
}
