package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/model"
)

// InvokeWhen implements executor.Invoker by calling t.When (a
// *lua.LFunction) bound to sys. The Executor only calls this when
// t.When != nil.
func (r *Runtime) InvokeWhen(ctx context.Context, t *model.Task, sys *model.Target) (bool, error) {
	fn, ok := t.When.(*lua.LFunction)
	if !ok {
		return false, fmt.Errorf("task %q: when is not a callable", t.Name)
	}

	result, err := r.call(ctx, fn, sys)
	if err != nil {
		return false, err
	}
	return luaTruthy(result), nil
}

// InvokeHandler implements executor.Invoker by calling t.Handler bound to sys.
func (r *Runtime) InvokeHandler(ctx context.Context, t *model.Task, sys *model.Target) (model.Value, error) {
	fn, ok := t.Handler.(*lua.LFunction)
	if !ok {
		return model.Null, fmt.Errorf("task %q: handler is not a callable", t.Name)
	}

	result, err := r.call(ctx, fn, sys)
	if err != nil {
		return model.Null, err
	}
	return FromLua(result), nil
}

// call invokes fn with a system value bound to sys, under ctx. The engine's
// single-threaded cooperative model (§5) means only one call is ever in
// flight, so it is safe to stash ctx on the Runtime for the bindings to
// read.
func (r *Runtime) call(ctx context.Context, fn *lua.LFunction, sys *model.Target) (lua.LValue, error) {
	t, err := r.transportFor(sys.Name)
	if err != nil {
		return lua.LNil, err
	}

	prevCtx := r.ctx
	r.ctx = ctx
	defer func() { r.ctx = prevCtx }()

	sysArg := r.pushSystem(t, sys.Name)

	if err := r.l.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, sysArg); err != nil {
		return lua.LNil, fmt.Errorf("script call failed: %w", err)
	}

	result := r.l.Get(-1)
	r.l.Pop(1)
	return result, nil
}
