package selector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclang/arc/internal/model"
	"github.com/arclang/arc/internal/registry"
	"github.com/arclang/arc/internal/selector"
)

func buildRegistry(t *testing.T) *registry.Builder {
	t.Helper()
	b := registry.NewBuilder()
	require.NoError(t, b.AddSystem(model.Target{Kind: model.SystemKindLocal, Name: "box"}))
	return b
}

func TestSelect_DefinitionOrder(t *testing.T) {
	b := buildRegistry(t)
	require.NoError(t, b.AddTask(&model.Task{Name: "a", Handler: struct{}{}}, nil))
	require.NoError(t, b.AddTask(&model.Task{Name: "b", Handler: struct{}{}}, nil))

	res, err := selector.Select(b.Registry(), selector.Filters{AllTags: true, AllSystems: true})
	require.NoError(t, err)

	list := res.EffectiveList["box"]
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
}

func TestSelect_RequiresClosure(t *testing.T) {
	b := buildRegistry(t)
	check := &model.Task{Name: "check", Handler: struct{}{}, Tags: map[string]struct{}{"c": {}}}
	install := &model.Task{Name: "install", Handler: struct{}{}, Requires: []string{"c"}}
	require.NoError(t, b.AddTask(check, nil))
	require.NoError(t, b.AddTask(install, nil))

	res, err := selector.Select(b.Registry(), selector.Filters{Tags: []string{"install"}, AllSystems: true})
	require.NoError(t, err)

	names := taskNames(res.EffectiveList["box"])
	assert.ElementsMatch(t, []string{"check", "install"}, names)
	// Execution order is still definition order: check before install.
	assert.Equal(t, []string{"check", "install"}, names)
}

func TestSelect_NoReqsDisablesClosure(t *testing.T) {
	b := buildRegistry(t)
	check := &model.Task{Name: "check", Handler: struct{}{}, Tags: map[string]struct{}{"c": {}}}
	install := &model.Task{Name: "install", Handler: struct{}{}, Requires: []string{"c"}}
	require.NoError(t, b.AddTask(check, nil))
	require.NoError(t, b.AddTask(install, nil))

	res, err := selector.Select(b.Registry(), selector.Filters{Tags: []string{"install"}, AllSystems: true, NoReqs: true})
	require.NoError(t, err)

	names := taskNames(res.EffectiveList["box"])
	assert.Equal(t, []string{"install"}, names)
}

func TestSelect_ImportantBypassesTagFilter(t *testing.T) {
	b := buildRegistry(t)
	important := &model.Task{Name: "obtain_id", Handler: struct{}{}, Important: true}
	picked := &model.Task{Name: "picked", Handler: struct{}{}}
	other := &model.Task{Name: "unrelated", Handler: struct{}{}}
	require.NoError(t, b.AddTask(important, nil))
	require.NoError(t, b.AddTask(picked, nil))
	require.NoError(t, b.AddTask(other, nil))

	res, err := selector.Select(b.Registry(), selector.Filters{Tags: []string{"picked"}, AllSystems: true})
	require.NoError(t, err)

	names := taskNames(res.EffectiveList["box"])
	assert.Contains(t, names, "obtain_id")
	assert.NotContains(t, names, "unrelated")
}

func TestSelect_PerSystemTargetsFilter(t *testing.T) {
	b := registry.NewBuilder()
	require.NoError(t, b.AddSystem(model.Target{Kind: model.SystemKindLocal, Name: "web"}))
	require.NoError(t, b.AddSystem(model.Target{Kind: model.SystemKindLocal, Name: "db"}))
	require.NoError(t, b.AddTask(&model.Task{Name: "deploy_web", Handler: struct{}{}, Targets: []string{"web"}}, nil))

	res, err := selector.Select(b.Registry(), selector.Filters{AllTags: true, AllSystems: true})
	require.NoError(t, err)

	assert.Len(t, res.EffectiveList["web"], 1)
	assert.Len(t, res.EffectiveList["db"], 0)
}

func TestSelect_UnknownTagIsFatal(t *testing.T) {
	b := buildRegistry(t)
	require.NoError(t, b.AddTask(&model.Task{Name: "a", Handler: struct{}{}}, nil))

	_, err := selector.Select(b.Registry(), selector.Filters{Tags: []string{"ghost"}, AllSystems: true})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSelect_Idempotent(t *testing.T) {
	b := buildRegistry(t)
	require.NoError(t, b.AddTask(&model.Task{Name: "a", Handler: struct{}{}}, nil))

	f := selector.Filters{AllTags: true, AllSystems: true}
	r1, err := selector.Select(b.Registry(), f)
	require.NoError(t, err)
	r2, err := selector.Select(b.Registry(), f)
	require.NoError(t, err)

	assert.Equal(t, taskNames(r1.EffectiveList["box"]), taskNames(r2.EffectiveList["box"]))
}

func taskNames(tasks []*model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name
	}
	return out
}
