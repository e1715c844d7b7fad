package model

// Registry holds everything captured from a script evaluation: the declared
// targets, groups, and tasks, in the order the script assigned them (§4.C).
//
// Registry itself performs no validation beyond uniqueness; that is
// internal/registry's job. This type exists in model so that selector and
// executor can depend on a plain data structure instead of the builder that
// populates it.
type Registry struct {
	// Systems maps a target name to its declaration. SystemOrder preserves
	// the order systems were declared in, used by the Executor to pick a
	// deterministic system-processing order (§4.F).
	Systems     map[string]*Target
	SystemOrder []string

	Groups map[string]*Group

	// Tasks maps a task name to its declaration. Reassigning the same key
	// replaces the Task and gives it a new DefinitionOrder; the name keeps
	// its original position in TaskOrder.
	Tasks map[string]*Task

	// TaskOrder lists task names in definition order, the only execution
	// order the engine ever uses (§3 invariant 1).
	TaskOrder []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		Systems: map[string]*Target{},
		Groups:  map[string]*Group{},
		Tasks:   map[string]*Task{},
	}
}

// OrderedTasks returns every task in definition order.
func (r *Registry) OrderedTasks() []*Task {
	out := make([]*Task, 0, len(r.TaskOrder))
	for _, name := range r.TaskOrder {
		out = append(out, r.Tasks[name])
	}
	return out
}

// ResetAll returns every task's per-run state to pending (§4.F step 1).
func (r *Registry) ResetAll() {
	for _, t := range r.Tasks {
		t.Reset()
	}
}
