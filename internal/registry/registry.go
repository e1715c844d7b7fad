// Package registry builds a model.Registry from script assignments,
// validating each one as the loader's bindings observe it (§4.C).
package registry

import (
	"fmt"

	"github.com/arclang/arc/internal/model"
)

// Builder wraps a model.Registry with the validation the Registry component
// performs at assignment time: required keys, name uniqueness, and the
// auto-tag union (§3 invariant 4).
type Builder struct {
	reg       *model.Registry
	nextOrder int
}

// NewBuilder returns a Builder over a fresh, empty model.Registry.
func NewBuilder() *Builder {
	return &Builder{reg: model.NewRegistry()}
}

// Registry returns the underlying registry being built.
func (b *Builder) Registry() *model.Registry { return b.reg }

// AddSystem validates and records a targets.systems[name] = {...} assignment.
func (b *Builder) AddSystem(t model.Target) error {
	if t.Name == "" {
		return fmt.Errorf("system name is required: %w", model.ErrNotValid)
	}
	if _, exists := b.reg.Systems[t.Name]; exists {
		return fmt.Errorf("system %q: %w", t.Name, model.ErrAlreadyExists)
	}
	if t.Kind == model.SystemKindRemote {
		if t.Address == "" {
			return fmt.Errorf("system %q: address is required for a remote target: %w", t.Name, model.ErrNotValid)
		}
		if t.Port == 0 {
			t.Port = model.DefaultSSHPort
		}
	}

	sys := t
	b.reg.Systems[t.Name] = &sys
	b.reg.SystemOrder = append(b.reg.SystemOrder, t.Name)
	return nil
}

// AddGroup validates and records a targets.groups[name] = {...} assignment.
// Members are not resolved here — §4.C: "references to other systems/groups
// need not resolve yet" — only at selection time.
func (b *Builder) AddGroup(g model.Group) error {
	if g.Name == "" {
		return fmt.Errorf("group name is required: %w", model.ErrNotValid)
	}
	if _, exists := b.reg.Groups[g.Name]; exists {
		return fmt.Errorf("group %q: %w", g.Name, model.ErrAlreadyExists)
	}

	grp := g
	b.reg.Groups[g.Name] = &grp
	return nil
}

// AddTask validates and records a tasks[name] = {...} assignment, unioning
// autoTags into the task's tag set (§3 invariant 4, §4.C). Reassigning an
// existing name overwrites the task's attributes but is itself a fresh
// "observed" assignment, so it is given a new DefinitionOrder — there is no
// canonical guidance in the source for this case, and this is the most
// literal reading of "definition order... is the order in which task
// assignments are observed" (see DESIGN.md).
func (b *Builder) AddTask(t *model.Task, autoTags []string) error {
	if t.Name == "" {
		return fmt.Errorf("task name is required: %w", model.ErrNotValid)
	}
	if t.Handler == nil {
		return fmt.Errorf("task %q: handler is required: %w", t.Name, model.ErrNotValid)
	}

	if t.Tags == nil {
		t.Tags = map[string]struct{}{}
	}
	t.Tags[t.Name] = struct{}{}
	for _, tag := range autoTags {
		t.Tags[tag] = struct{}{}
	}

	if _, exists := b.reg.Tasks[t.Name]; !exists {
		b.reg.TaskOrder = append(b.reg.TaskOrder, t.Name)
	}
	t.DefinitionOrder = b.nextOrder
	b.nextOrder++
	t.State = model.StatePending

	b.reg.Tasks[t.Name] = t
	return nil
}

// ExpandGroup resolves name (a system or group name) into the set of
// concrete, deduplicated system names it denotes (§3). Cycles are reported
// as model.ErrCyclic.
func ExpandGroup(reg *model.Registry, name string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	visiting := map[string]bool{}
	if err := expandInto(reg, name, out, visiting); err != nil {
		return nil, err
	}
	return out, nil
}

func expandInto(reg *model.Registry, name string, out map[string]struct{}, visiting map[string]bool) error {
	if _, ok := reg.Systems[name]; ok {
		out[name] = struct{}{}
		return nil
	}

	grp, ok := reg.Groups[name]
	if !ok {
		return fmt.Errorf("%q is not a declared system or group: %w", name, model.ErrNotFound)
	}
	if visiting[name] {
		return fmt.Errorf("group %q participates in a membership cycle: %w", name, model.ErrCyclic)
	}
	visiting[name] = true
	defer delete(visiting, name)

	for _, member := range grp.Members {
		if err := expandInto(reg, member, out, visiting); err != nil {
			return err
		}
	}
	return nil
}
