package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/transport"
)

const (
	typeNameSystem    = "system"
	typeNameFile      = "file"
	typeNameDirectory = "directory"
	typeNameCommand   = "command_result"
	typeNameContent   = "file_content"
)

type systemUserData struct {
	runtime   *Runtime
	transport transport.Transport
	name      string
}

// registerTypes installs every userdata type metatable the host exposes.
func (r *Runtime) registerTypes() {
	r.registerSystemType()
	r.registerFileType()
	r.registerDirectoryType()
	r.registerCommandResultType()
	r.registerContentType()
}

func (r *Runtime) registerSystemType() {
	mt := r.l.NewTypeMetatable(typeNameSystem)
	r.l.SetField(mt, "__index", r.l.NewFunction(r.systemIndex))
}

// pushSystem wraps t as a system userdata bound to name.
func (r *Runtime) pushSystem(t transport.Transport, name string) *lua.LUserData {
	ud := r.l.NewUserData()
	ud.Value = &systemUserData{runtime: r, transport: t, name: name}
	ud.Metatable = r.l.GetTypeMetatable(typeNameSystem)
	return ud
}

func (r *Runtime) checkSystem(L *lua.LState, n int) *systemUserData {
	ud := L.CheckUserData(n)
	sys, ok := ud.Value.(*systemUserData)
	if !ok {
		L.ArgError(n, "expected a system value")
		return nil
	}
	return sys
}

// systemIndex implements system's __index: a "name" property plus
// run_command/file/directory/stat methods (§4.A, §4.B, SUPPLEMENTED FEATURES).
func (r *Runtime) systemIndex(L *lua.LState) int {
	sys := r.checkSystem(L, 1)
	key := L.CheckString(2)

	switch key {
	case "name":
		L.Push(lua.LString(sys.name))
		return 1
	case "run_command":
		L.Push(L.NewFunction(r.systemRunCommand))
		return 1
	case "file":
		L.Push(L.NewFunction(r.systemFile))
		return 1
	case "directory":
		L.Push(L.NewFunction(r.systemDirectory))
		return 1
	case "stat":
		L.Push(L.NewFunction(r.systemStat))
		return 1
	default:
		L.Push(lua.LNil)
		return 1
	}
}

func (r *Runtime) systemRunCommand(L *lua.LState) int {
	sys := r.checkSystem(L, 1)
	cmd := L.CheckString(2)

	res, err := sys.transport.Exec(r.ctx, cmd)
	if err != nil {
		return raise(L, err)
	}
	L.Push(r.pushCommandResult(res))
	return 1
}

func (r *Runtime) systemFile(L *lua.LState) int {
	sys := r.checkSystem(L, 1)
	path := L.CheckString(2)
	L.Push(r.pushFile(sys.transport, path))
	return 1
}

func (r *Runtime) systemDirectory(L *lua.LState) int {
	sys := r.checkSystem(L, 1)
	path := L.CheckString(2)
	L.Push(r.pushDirectory(sys.transport, path))
	return 1
}

func (r *Runtime) systemStat(L *lua.LState) int {
	sys := r.checkSystem(L, 1)
	path := L.CheckString(2)

	meta, err := sys.transport.Stat(r.ctx, path)
	if err != nil {
		return raise(L, err)
	}
	L.Push(metadataToLua(L, meta))
	return 1
}

func metadataToLua(L *lua.LState, meta *transport.Metadata) lua.LValue {
	if meta == nil {
		return lua.LNil
	}
	tbl := L.NewTable()
	tbl.RawSetString("path", lua.LString(meta.Path))
	tbl.RawSetString("size", lua.LNumber(meta.Size))
	tbl.RawSetString("permissions", lua.LNumber(meta.Permissions))
	tbl.RawSetString("type", lua.LString(meta.Type))
	tbl.RawSetString("uid", lua.LNumber(meta.UID))
	tbl.RawSetString("gid", lua.LNumber(meta.GID))
	tbl.RawSetString("accessed", lua.LNumber(meta.Accessed.Unix()))
	tbl.RawSetString("modified", lua.LNumber(meta.Modified.Unix()))
	return tbl
}

// installHostGlobal binds `host`, the ready-made Local system handle usable
// even without a declared local target (SUPPLEMENTED FEATURES).
func (r *Runtime) installHostGlobal() {
	r.l.SetGlobal("host", r.pushSystem(r.host, "host"))
}
