package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/model"
)

// installRegistryBindings wires targets.systems, targets.groups, and tasks
// as tables whose __newindex intercepts every assignment, feeding
// registry.Builder the way the Registry component is specified to work
// (§4.C). tasks additionally gets a __index so scripts can read
// tasks[name].state/.result/.error (§9, SUPPLEMENTED FEATURES).
func (r *Runtime) installRegistryBindings() {
	targets := r.l.NewTable()
	r.l.SetGlobal("targets", targets)

	systems := r.l.NewTable()
	systemsMT := r.l.NewTable()
	r.l.SetField(systemsMT, "__newindex", r.l.NewFunction(r.systemsNewIndex))
	r.l.SetMetatable(systems, systemsMT)
	targets.RawSetString("systems", systems)

	groups := r.l.NewTable()
	groupsMT := r.l.NewTable()
	r.l.SetField(groupsMT, "__newindex", r.l.NewFunction(r.groupsNewIndex))
	r.l.SetMetatable(groups, groupsMT)
	targets.RawSetString("groups", groups)

	tasks := r.l.NewTable()
	tasksMT := r.l.NewTable()
	r.l.SetField(tasksMT, "__newindex", r.l.NewFunction(r.tasksNewIndex))
	r.l.SetField(tasksMT, "__index", r.l.NewFunction(r.tasksIndex))
	r.l.SetMetatable(tasks, tasksMT)
	r.l.SetGlobal("tasks", tasks)
}

func (r *Runtime) systemsNewIndex(L *lua.LState) int {
	tbl := L.CheckTable(1)
	name := L.CheckString(2)
	def := L.CheckTable(3)

	target, err := luaTableToTarget(name, def)
	if err != nil {
		return raise(L, err)
	}
	if err := r.builder.AddSystem(target); err != nil {
		return raise(L, err)
	}
	tbl.RawSetString(name, def)
	return 0
}

func (r *Runtime) groupsNewIndex(L *lua.LState) int {
	tbl := L.CheckTable(1)
	name := L.CheckString(2)
	def := L.CheckTable(3)

	members := stringListFromTable(def)
	if err := r.builder.AddGroup(model.Group{Name: name, Members: members}); err != nil {
		return raise(L, err)
	}
	tbl.RawSetString(name, def)
	return 0
}

// tasksNewIndex does not store def in the table itself, so every later
// tasks[name] read goes through tasksIndex.
func (r *Runtime) tasksNewIndex(L *lua.LState) int {
	name := L.CheckString(2)
	def := L.CheckTable(3)

	task, err := luaTableToTask(name, def)
	if err != nil {
		return raise(L, err)
	}
	if err := r.builder.AddTask(task, r.currentAutoTags); err != nil {
		return raise(L, err)
	}
	return 0
}

// tasksIndex lets scripts read tasks[name].state/.result/.error, a live
// view of the same *model.Task the Executor mutates — no synchronization
// needed because of the engine's single-threaded model (§5).
func (r *Runtime) tasksIndex(L *lua.LState) int {
	name := L.CheckString(2)

	t, ok := r.reg.Tasks[name]
	if !ok {
		L.Push(lua.LNil)
		return 1
	}

	view := L.NewTable()
	view.RawSetString("state", lua.LString(t.State))
	view.RawSetString("result", ToLua(L, t.Result))
	if t.Err != "" {
		view.RawSetString("error", lua.LString(t.Err))
	} else {
		view.RawSetString("error", lua.LNil)
	}
	L.Push(view)
	return 1
}

func luaTableToTarget(name string, def *lua.LTable) (model.Target, error) {
	kind := lua.LVAsString(def.RawGetString("kind"))
	switch kind {
	case string(model.SystemKindRemote):
		return model.Target{
			Kind:    model.SystemKindRemote,
			Name:    name,
			Address: lua.LVAsString(def.RawGetString("address")),
			Port:    int(lua.LVAsNumber(def.RawGetString("port"))),
			User:    lua.LVAsString(def.RawGetString("user")),
		}, nil
	case string(model.SystemKindLocal), "":
		return model.Target{Kind: model.SystemKindLocal, Name: name}, nil
	default:
		return model.Target{}, fmt.Errorf("system %q: unknown kind %q: %w", name, kind, model.ErrNotValid)
	}
}

func luaTableToTask(name string, def *lua.LTable) (*model.Task, error) {
	handler := def.RawGetString("handler")
	if handler == lua.LNil {
		return nil, fmt.Errorf("task %q: handler is required: %w", name, model.ErrNotValid)
	}

	task := &model.Task{
		Name:      name,
		Handler:   handler,
		Tags:      stringSetFromTable(def.RawGetString("tags")),
		Targets:   stringListFromTable(def.RawGetString("targets")),
		Requires:  stringListFromTable(def.RawGetString("requires")),
		Important: luaTruthy(def.RawGetString("important")),
	}

	if when := def.RawGetString("when"); when != lua.LNil {
		task.When = when
	}
	if onFail := def.RawGetString("on_fail"); onFail != lua.LNil {
		task.OnFail = model.OnFail(lua.LVAsString(onFail))
	}

	return task, nil
}

func stringListFromTable(v lua.LValue) []string {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.Len(); i++ {
		out = append(out, lua.LVAsString(tbl.RawGetInt(i)))
	}
	return out
}

// luaTruthy implements Lua's truthiness: everything except nil and false
// is true, including the number 0 and the empty string.
func luaTruthy(v lua.LValue) bool {
	if v == nil || v == lua.LNil {
		return false
	}
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return true
}

func stringSetFromTable(v lua.LValue) map[string]struct{} {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil
	}
	out := map[string]struct{}{}
	for i := 1; i <= tbl.Len(); i++ {
		out[lua.LVAsString(tbl.RawGetInt(i))] = struct{}{}
	}
	return out
}
