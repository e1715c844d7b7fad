package executor_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclang/arc/internal/executor"
	"github.com/arclang/arc/internal/model"
)

// fakeInvoker drives handlers from plain Go closures keyed by task name,
// the way the teacher's internal/engine/fake fakes an interface instead of
// reaching for a mocking framework.
type fakeInvoker struct {
	handlers map[string]func(sys *model.Target) (model.Value, error)
	whens    map[string]func(sys *model.Target) (bool, error)
	calls    []string
}

func (f *fakeInvoker) InvokeWhen(_ context.Context, t *model.Task, sys *model.Target) (bool, error) {
	fn, ok := f.whens[t.Name]
	if !ok {
		return true, nil
	}
	return fn(sys)
}

func (f *fakeInvoker) InvokeHandler(_ context.Context, t *model.Task, sys *model.Target) (model.Value, error) {
	f.calls = append(f.calls, t.Name)
	fn, ok := f.handlers[t.Name]
	if !ok {
		return model.Null, nil
	}
	return fn(sys)
}

func newRegistryWithTasks(t *testing.T, tasks ...*model.Task) *model.Registry {
	t.Helper()
	reg := model.NewRegistry()
	reg.Systems["box"] = &model.Target{Kind: model.SystemKindLocal, Name: "box"}
	reg.SystemOrder = []string{"box"}
	for i, task := range tasks {
		task.DefinitionOrder = i
		reg.Tasks[task.Name] = task
		reg.TaskOrder = append(reg.TaskOrder, task.Name)
	}
	return reg
}

// S1. Definition order: both tasks succeed, in declared order.
func TestExecutor_DefinitionOrder(t *testing.T) {
	a := &model.Task{Name: "a", Handler: struct{}{}}
	b := &model.Task{Name: "b", Handler: struct{}{}}
	reg := newRegistryWithTasks(t, a, b)

	inv := &fakeInvoker{handlers: map[string]func(*model.Target) (model.Value, error){}}
	ex, err := executor.New(executor.Config{Registry: reg, Invoker: inv})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), []string{"box"}, map[string][]*model.Task{"box": {a, b}})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, inv.calls)
	assert.Equal(t, model.StateSuccess, a.State)
	assert.Equal(t, model.StateSuccess, b.State)
}

// S3. `when` reading a prior result.
func TestExecutor_WhenReadsPriorResult(t *testing.T) {
	probe := &model.Task{Name: "probe", Handler: struct{}{}}
	install := &model.Task{Name: "install", Handler: struct{}{}, When: struct{}{}, Requires: []string{"probe"}}
	reg := newRegistryWithTasks(t, probe, install)

	inv := &fakeInvoker{
		handlers: map[string]func(*model.Target) (model.Value, error){
			"probe": func(*model.Target) (model.Value, error) { return model.NewBool(false), nil },
		},
		whens: map[string]func(*model.Target) (bool, error){
			"install": func(*model.Target) (bool, error) {
				return probe.Result.Kind == model.KindBool && probe.Result.Bool == false, nil
			},
		},
	}
	ex, err := executor.New(executor.Config{Registry: reg, Invoker: inv})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), []string{"box"}, map[string][]*model.Task{"box": {probe, install}})
	require.NoError(t, err)

	assert.Equal(t, model.StateSuccess, install.State)
}

// S4. on_fail = skip_system, with an important task still running.
func TestExecutor_OnFailSkipSystem(t *testing.T) {
	a := &model.Task{Name: "A", Handler: struct{}{}, OnFail: model.OnFailSkipSystem}
	b := &model.Task{Name: "B", Handler: struct{}{}, OnFail: model.OnFailContinue}
	c := &model.Task{Name: "C", Handler: struct{}{}, Important: true}
	reg := newRegistryWithTasks(t, a, b, c)

	inv := &fakeInvoker{
		handlers: map[string]func(*model.Target) (model.Value, error){
			"A": func(*model.Target) (model.Value, error) { return model.Null, fmt.Errorf("boom") },
		},
	}
	ex, err := executor.New(executor.Config{Registry: reg, Invoker: inv})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), []string{"box"}, map[string][]*model.Task{"box": {a, b, c}})
	require.NoError(t, err)

	assert.Equal(t, model.StateFailed, a.State)
	assert.Equal(t, model.StateSkipped, b.State)
	assert.Equal(t, model.StateSuccess, c.State)
	assert.True(t, ex.AnyFailed())
}

// on_fail defaults to abort and halts the run; remaining systems are
// untouched (§4.F step 4, §4.I).
func TestExecutor_OnFailAbortHaltsRun(t *testing.T) {
	a := &model.Task{Name: "a", Handler: struct{}{}}
	reg := model.NewRegistry()
	reg.Systems["one"] = &model.Target{Kind: model.SystemKindLocal, Name: "one"}
	reg.Systems["two"] = &model.Target{Kind: model.SystemKindLocal, Name: "two"}
	reg.SystemOrder = []string{"one", "two"}
	reg.Tasks["a"] = a
	reg.TaskOrder = []string{"a"}

	inv := &fakeInvoker{
		handlers: map[string]func(*model.Target) (model.Value, error){
			"a": func(*model.Target) (model.Value, error) { return model.Null, fmt.Errorf("boom") },
		},
	}
	ex, err := executor.New(executor.Config{Registry: reg, Invoker: inv})
	require.NoError(t, err)

	outcome, err := ex.Run(context.Background(), []string{"one", "two"}, map[string][]*model.Task{
		"one": {a}, "two": {a},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Aborted)
	assert.Equal(t, "one", outcome.AbortedSystem)
	// The second system's run never happened.
	assert.Len(t, inv.calls, 1)
}

// S5. --dry-run skips the handler but still evaluates `when`.
func TestExecutor_DryRun(t *testing.T) {
	whenCalled := false
	task := &model.Task{Name: "rm", Handler: struct{}{}, When: struct{}{}}
	reg := newRegistryWithTasks(t, task)

	inv := &fakeInvoker{
		handlers: map[string]func(*model.Target) (model.Value, error){
			"rm": func(*model.Target) (model.Value, error) {
				t.Fatal("handler must not run under --dry-run")
				return model.Null, nil
			},
		},
		whens: map[string]func(*model.Target) (bool, error){
			"rm": func(*model.Target) (bool, error) { whenCalled = true; return true, nil },
		},
	}
	ex, err := executor.New(executor.Config{Registry: reg, Invoker: inv, DryRun: true})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), []string{"box"}, map[string][]*model.Task{"box": {task}})
	require.NoError(t, err)

	assert.True(t, whenCalled)
	assert.Equal(t, model.StateSuccess, task.State)
	assert.True(t, task.Result.IsNull())
}

func TestExecutor_ImportantSkipOnlyFromWhenFalse(t *testing.T) {
	task := &model.Task{Name: "always", Handler: struct{}{}, Important: true, When: struct{}{}}
	reg := newRegistryWithTasks(t, task)

	inv := &fakeInvoker{
		handlers: map[string]func(*model.Target) (model.Value, error){},
		whens: map[string]func(*model.Target) (bool, error){
			"always": func(*model.Target) (bool, error) { return false, nil },
		},
	}
	ex, err := executor.New(executor.Config{Registry: reg, Invoker: inv})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), []string{"box"}, map[string][]*model.Task{"box": {task}})
	require.NoError(t, err)

	assert.Equal(t, model.StateSkipped, task.State)
}
