// Package executor implements the per-system task loop (§4.F): definition
// order iteration, `when` guards, handler invocation, state publication, and
// `on_fail` recovery.
package executor

import (
	"context"
	"fmt"

	"github.com/arclang/arc/internal/log"
	"github.com/arclang/arc/internal/model"
)

// Invoker calls into the script runtime. The Executor never touches
// gopher-lua directly — internal/script is the only implementation — so
// this package, and its tests, stay free of that dependency (§9: "keep the
// script engine at arm's length").
type Invoker interface {
	// InvokeWhen evaluates t.When bound to sys. When t.When is nil the
	// Executor never calls this — the guard is absent, not false.
	InvokeWhen(ctx context.Context, t *model.Task, sys *model.Target) (bool, error)
	// InvokeHandler calls t.Handler bound to sys.
	InvokeHandler(ctx context.Context, t *model.Task, sys *model.Target) (model.Value, error)
}

// Config is the Executor's configuration.
type Config struct {
	Registry *model.Registry
	Invoker  Invoker
	Logger   log.Logger
	// DryRun replaces handler invocation with a no-op that always succeeds,
	// while still evaluating `when` (§4.F step 5).
	DryRun bool
}

func (c *Config) defaults() error {
	if c.Registry == nil {
		return fmt.Errorf("registry is required")
	}
	if c.Invoker == nil {
		return fmt.Errorf("invoker is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// Executor runs a selector.Result's effective lists against their systems.
type Executor struct {
	reg     *model.Registry
	invoker Invoker
	logger  log.Logger
	dryRun  bool
}

// New returns an Executor.
func New(cfg Config) (*Executor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid executor config: %w", err)
	}
	return &Executor{reg: cfg.Registry, invoker: cfg.Invoker, logger: cfg.Logger, dryRun: cfg.DryRun}, nil
}

// Outcome summarizes a completed (or aborted) run for exit-code decisions (§4.I).
type Outcome struct {
	// Aborted is true when a task with on_fail=abort failed, halting the run.
	Aborted bool
	// AbortedSystem is the system being processed when the abort happened.
	AbortedSystem string
	// AbortedTask is the task that triggered the abort.
	AbortedTask string
}

// AnyFailed reports whether any task in reg ended in the failed state,
// which independently drives exit code 1 even without an abort (§4.I).
func (e *Executor) AnyFailed() bool {
	for _, t := range e.reg.Tasks {
		if t.State == model.StateFailed {
			return true
		}
	}
	return false
}

// Run executes systems in the given order, each against its effective list
// (§4.F). Task state is reset to pending exactly once, before the first
// system runs — not per system — so a later system's handlers and `when`
// predicates can observe results published while processing an earlier
// system within the same run (see DESIGN.md's resolution of the §9 open
// question).
func (e *Executor) Run(ctx context.Context, systems []string, effective map[string][]*model.Task) (Outcome, error) {
	e.reg.ResetAll()

	for _, sys := range systems {
		target, ok := e.reg.Systems[sys]
		if !ok {
			return Outcome{}, fmt.Errorf("effective list references undeclared system %q", sys)
		}

		outcome, err := e.runSystem(ctx, target, effective[sys])
		if err != nil {
			return Outcome{}, err
		}
		if outcome.Aborted {
			return outcome, nil
		}
	}
	return Outcome{}, nil
}

func (e *Executor) runSystem(ctx context.Context, sys *model.Target, tasks []*model.Task) (Outcome, error) {
	logger := e.logger.WithValues(log.Kv{"system": sys.Name})

	stickySkip := false

	for _, t := range tasks {
		if stickySkip && !t.Important {
			t.State = model.StateSkipped
			logger.Debugf("Skipping %q: system is sticky-skipped", t.Name)
			continue
		}

		if t.When != nil {
			ok, err := e.invoker.InvokeWhen(ctx, t, sys)
			if err != nil {
				return Outcome{}, fmt.Errorf("task %q: could not evaluate when on %q: %w", t.Name, sys.Name, err)
			}
			if !ok {
				t.State = model.StateSkipped
				logger.Debugf("Skipping %q: when evaluated false", t.Name)
				continue
			}
		}

		if e.dryRun {
			t.State = model.StateSuccess
			t.Result = model.Null
			logger.Infof("(dry-run) %q would run", t.Name)
			continue
		}

		logger.Infof("Running %q", t.Name)
		result, err := e.invoker.InvokeHandler(ctx, t, sys)
		if err != nil {
			t.State = model.StateFailed
			t.Err = err.Error()
			logger.Errorf("Task %q failed on %q: %s", t.Name, sys.Name, err)

			switch t.EffectiveOnFail() {
			case model.OnFailContinue:
				continue
			case model.OnFailSkipSystem:
				stickySkip = true
				continue
			default: // model.OnFailAbort
				return Outcome{Aborted: true, AbortedSystem: sys.Name, AbortedTask: t.Name}, nil
			}
		}

		t.State = model.StateSuccess
		t.Result = result
		logger.Infof("Task %q succeeded on %q", t.Name, sys.Name)
	}

	return Outcome{}, nil
}
