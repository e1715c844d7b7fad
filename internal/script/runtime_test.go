package script_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclang/arc/internal/executor"
	"github.com/arclang/arc/internal/model"
	"github.com/arclang/arc/internal/registry"
	"github.com/arclang/arc/internal/script"
	"github.com/arclang/arc/internal/selector"
	"github.com/arclang/arc/internal/transport"
	"github.com/arclang/arc/internal/transport/local"
)

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRuntime(t *testing.T, b *registry.Builder) *script.Runtime {
	t.Helper()
	r, err := script.New(script.Config{
		Builder:     b,
		ProjectRoot: t.TempDir(),
		HomePath:    "/home/test",
		NewTarget: func(target *model.Target) (transport.Transport, error) {
			return local.New(local.Config{Name: target.Name})
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// S1. Definition order: two tasks declared "a" then "b", both succeed.
func TestRuntime_RegistersSystemsAndTasksInDefinitionOrder(t *testing.T) {
	dir := t.TempDir()
	b := registry.NewBuilder()
	r := newTestRuntime(t, b)

	src := `
targets.systems.box = { kind = "local" }

tasks.a = { handler = function(system) return "ok-a" end }
tasks.b = { handler = function(system) return "ok-b" end }
`
	path := writeScript(t, dir, "arc.lua", src)
	require.NoError(t, r.EvalFile(path, nil))

	reg := b.Registry()
	require.Len(t, reg.Systems, 1)
	require.Equal(t, []string{"a", "b"}, reg.TaskOrder)

	sel, err := selector.Select(reg, selector.Filters{AllTags: true, AllSystems: true})
	require.NoError(t, err)

	ex, err := executor.New(executor.Config{Registry: reg, Invoker: r})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), sel.Systems, sel.EffectiveList)
	require.NoError(t, err)

	assert.Equal(t, model.StateSuccess, reg.Tasks["a"].State)
	assert.Equal(t, model.StateSuccess, reg.Tasks["b"].State)
	assert.Equal(t, "ok-a", reg.Tasks["a"].Result.String)
	assert.Equal(t, "ok-b", reg.Tasks["b"].Result.String)
}

// Handlers can run shell commands, and a `when` guard can read
// tasks[x].state from an earlier task on the same run (§9).
func TestRuntime_HandlerRunsCommandsAndReadsPriorState(t *testing.T) {
	dir := t.TempDir()
	b := registry.NewBuilder()
	r := newTestRuntime(t, b)

	src := `
targets.systems.box = { kind = "local" }

tasks.probe = {
  handler = function(system)
    local res = system:run_command("echo hi")
    return res.stdout
  end,
}
tasks.after = {
  requires = { "probe" },
  when = function() return tasks.probe.state == "success" end,
  handler = function(system) return "ran" end,
}
`
	path := writeScript(t, dir, "arc.lua", src)
	require.NoError(t, r.EvalFile(path, nil))

	reg := b.Registry()
	sel, err := selector.Select(reg, selector.Filters{Tags: []string{"after"}, AllSystems: true})
	require.NoError(t, err)

	ex, err := executor.New(executor.Config{Registry: reg, Invoker: r})
	require.NoError(t, err)

	_, err = ex.Run(context.Background(), sel.Systems, sel.EffectiveList)
	require.NoError(t, err)

	assert.Equal(t, model.StateSuccess, reg.Tasks["after"].State)
}

// Auto-tags are unioned from a file's logical path relative to the project
// root (§3 invariant 4, §8 property 7).
func TestRuntime_AutoTagsFromRequirePath(t *testing.T) {
	dir := t.TempDir()
	b := registry.NewBuilder()
	r := newTestRuntime(t, b)

	src := `tasks.deploy = { handler = function(system) return true end }`
	path := writeScript(t, dir, "baz.lua", src)
	require.NoError(t, r.EvalFile(path, []string{"foo", "bar", "baz"}))

	task := b.Registry().Tasks["deploy"]
	require.NotNil(t, task)
	assert.True(t, task.HasTag("foo"))
	assert.True(t, task.HasTag("bar"))
	assert.True(t, task.HasTag("baz"))
	assert.True(t, task.HasTag("deploy"))
}
