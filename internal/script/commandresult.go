package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/transport"
)

// commandResultUserData backs the CommandResult value system:run_command
// returns: .stdout/.stderr/.exit_code plus a .success() helper
// (SUPPLEMENTED FEATURES, matching the original's engine/operations.rs).
type commandResultUserData struct {
	stdout, stderr string
	exitCode       int
}

func (r *Runtime) registerCommandResultType() {
	mt := r.l.NewTypeMetatable(typeNameCommand)
	r.l.SetField(mt, "__index", r.l.NewFunction(r.commandResultIndex))
}

func (r *Runtime) pushCommandResult(res transport.ExecResult) *lua.LUserData {
	ud := r.l.NewUserData()
	ud.Value = &commandResultUserData{
		stdout:   string(res.Stdout),
		stderr:   string(res.Stderr),
		exitCode: res.ExitCode,
	}
	ud.Metatable = r.l.GetTypeMetatable(typeNameCommand)
	return ud
}

func (r *Runtime) commandResultIndex(L *lua.LState) int {
	ud := L.CheckUserData(1)
	cr, ok := ud.Value.(*commandResultUserData)
	if !ok {
		L.ArgError(1, "expected a command_result value")
		return 0
	}
	key := L.CheckString(2)

	switch key {
	case "stdout":
		L.Push(lua.LString(cr.stdout))
	case "stderr":
		L.Push(lua.LString(cr.stderr))
	case "exit_code":
		L.Push(lua.LNumber(cr.exitCode))
	case "success":
		L.Push(L.NewFunction(func(L *lua.LState) int {
			L.Push(lua.LBool(cr.exitCode == 0))
			return 1
		}))
	default:
		L.Push(lua.LNil)
	}
	return 1
}
