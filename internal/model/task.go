package model

// TaskState is the mutable lifecycle state of a task's execution on one system.
type TaskState string

const (
	// StatePending is the initial state of every task at the start of a run.
	StatePending TaskState = "pending"
	// StateSuccess means the handler returned without error (or --dry-run stood in for it).
	StateSuccess TaskState = "success"
	// StateFailed means the handler raised; Err is set.
	StateFailed TaskState = "failed"
	// StateSkipped means either `when` returned false or a sticky system skip applied.
	StateSkipped TaskState = "skipped"
)

// OnFail is the recovery policy applied when a task's handler fails.
type OnFail string

const (
	// OnFailAbort halts the entire run; remaining systems are not processed. Default.
	OnFailAbort OnFail = "abort"
	// OnFailContinue moves on to the next task on the same system.
	OnFailContinue OnFail = "continue"
	// OnFailSkipSystem sets a sticky flag that skips remaining non-important tasks on the system.
	OnFailSkipSystem OnFail = "skip_system"
)

// Task is a named, script-defined procedure with selection metadata and a
// handler. Handler and When are opaque script callables (gopher-lua
// *lua.LFunction values); the model package does not know how to invoke
// them — that is internal/script's job, mediated through the
// executor.Invoker interface so this package stays free of a runtime
// dependency.
type Task struct {
	Name    string
	Handler any

	// Tags always contains Name plus, for tasks defined in a file loaded via
	// require, every non-extension path component of that file's logical
	// path relative to the project root. A user-supplied Tags list is
	// unioned into this set at registration time, never replacing it.
	Tags map[string]struct{}

	// Targets restricts eligible systems/groups; empty means "every system".
	Targets []string

	// Requires lists tag names whose holders are pulled into the selection
	// by the requires closure. This is a selection predicate, not an
	// ordering predicate: execution order is always definition order.
	Requires []string

	// When is an optional opaque predicate of zero arguments, evaluated once
	// per (task, system) immediately before Handler.
	When any

	// OnFail governs recovery when Handler fails. Zero value behaves as OnFailAbort.
	OnFail OnFail

	// Important bypasses tag filtering, --no-reqs, and sticky skip_system.
	Important bool

	// DefinitionOrder is the monotonically increasing index assigned when
	// the task was captured by the registry; it is the only execution order.
	DefinitionOrder int

	// Mutable per-run state, re-read by later handlers and the final report.
	State  TaskState
	Result Value
	Err    string
}

// HasTag reports whether name is in t.Tags.
func (t *Task) HasTag(name string) bool {
	_, ok := t.Tags[name]
	return ok
}

// EffectiveOnFail returns t.OnFail, defaulting to abort when unset.
func (t *Task) EffectiveOnFail() OnFail {
	if t.OnFail == "" {
		return OnFailAbort
	}
	return t.OnFail
}

// Reset returns the task's per-run state fields to their initial values.
func (t *Task) Reset() {
	t.State = StatePending
	t.Result = Null
	t.Err = ""
}
