// Package script embeds github.com/yuin/gopher-lua and exposes the
// system/host/file/directory/env/format/template/log/arc surface documented
// in §4.B and §6. It is the only package in the tree that imports
// gopher-lua — the executor talks to it only through the
// executor.Invoker interface, keeping the engine's core testable without a
// script runtime in play (§9).
package script

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/arclang/arc/internal/log"
	"github.com/arclang/arc/internal/model"
	"github.com/arclang/arc/internal/registry"
	"github.com/arclang/arc/internal/transport"
	"github.com/arclang/arc/internal/transport/local"
)

// TransportFactory dials (or opens) the transport for a declared target. The
// Runtime calls it lazily, once per system, the first time a handler is
// bound to that system.
type TransportFactory func(*model.Target) (transport.Transport, error)

// Config configures a Runtime.
type Config struct {
	Logger      log.Logger
	Builder     *registry.Builder
	NewTarget   TransportFactory
	ProjectRoot string
	HomePath    string
	Args        []string
	// Env seeds the env.get(...) lookup table (process env merged with
	// .env file contents by the loader before the Runtime is built, §4.B).
	Env map[string]string
}

func (c *Config) defaults() error {
	if c.Builder == nil {
		return fmt.Errorf("builder is required")
	}
	if c.NewTarget == nil {
		return fmt.Errorf("transport factory is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	if c.Env == nil {
		c.Env = map[string]string{}
	}
	return nil
}

// Runtime is one gopher-lua VM plus the host bindings wired into it. It
// owns every transport it lazily dials and must be Close'd once the run
// finishes.
type Runtime struct {
	l       *lua.LState
	logger  log.Logger
	builder *registry.Builder
	reg     *model.Registry

	newTarget  TransportFactory
	transports map[string]transport.Transport
	host       transport.Transport

	projectRoot string
	homePath    string
	args        []string
	env         map[string]string

	// ctx is the context of the handler/when call currently in flight. The
	// engine's single-threaded cooperative model (§5) means exactly one
	// call is ever in flight, so a single field is enough.
	ctx context.Context

	// currentAutoTags is set by EvalFile for the duration of one file's
	// evaluation (require passes the module's path components), consumed by
	// the tasks table's __newindex (§4.C).
	currentAutoTags []string

	// required tracks module names already evaluated by require, so a
	// module required from two places only runs once (standard require
	// semantics).
	required map[string]bool
}

// New builds a Runtime: a fresh *lua.LState with the restricted standard
// library (§4.B: "only string, table, math, and the module system... I/O,
// OS, debug, and coroutine surfaces are not exposed"), plus every
// script-visible global and module.
func New(cfg Config) (*Runtime, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid script runtime config: %w", err)
	}

	hostTransport, err := local.New(local.Config{Name: "host", Logger: cfg.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not build host transport: %w", err)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenString(L)
	lua.OpenTable(L)
	lua.OpenMath(L)

	r := &Runtime{
		l:           L,
		logger:      cfg.Logger,
		builder:     cfg.Builder,
		reg:         cfg.Builder.Registry(),
		newTarget:   cfg.NewTarget,
		transports:  map[string]transport.Transport{},
		host:        hostTransport,
		projectRoot: cfg.ProjectRoot,
		homePath:    cfg.HomePath,
		args:        cfg.Args,
		env:         cfg.Env,
		ctx:         context.Background(),
	}

	r.registerTypes()
	r.installRequire()
	r.installRegistryBindings()
	r.installEnvModule()
	r.installFormatModule()
	r.installTemplateModule()
	r.installLogModule()
	r.installArcModule()
	r.installHostGlobal()

	return r, nil
}

// Close releases the Lua state and every transport the Runtime dialed.
func (r *Runtime) Close() error {
	r.l.Close()
	var firstErr error
	for _, t := range r.transports {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := r.host.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// EvalFile evaluates a Lua source file (arc.lua or a require'd module) as
// the loader drives it. autoTags is unioned into every task the file
// assigns (§4.C); pass nil for arc.lua itself.
func (r *Runtime) EvalFile(path string, autoTags []string) error {
	prev := r.currentAutoTags
	r.currentAutoTags = autoTags
	defer func() { r.currentAutoTags = prev }()

	if err := r.l.DoFile(path); err != nil {
		return fmt.Errorf("could not evaluate %q: %w", path, err)
	}
	return nil
}

// transportFor returns the cached transport for a declared system name,
// dialing it on first use.
func (r *Runtime) transportFor(name string) (transport.Transport, error) {
	if t, ok := r.transports[name]; ok {
		return t, nil
	}
	target, ok := r.reg.Systems[name]
	if !ok {
		return nil, fmt.Errorf("%q is not a declared system: %w", name, model.ErrNotFound)
	}
	t, err := r.newTarget(target)
	if err != nil {
		return nil, fmt.Errorf("could not open transport for %q: %w", name, err)
	}
	r.transports[name] = t
	return t, nil
}

// raise aborts the current Lua call with msg, the idiom gopher-lua bindings
// use to surface a Go error as a script-catchable failure.
func raise(L *lua.LState, err error) int {
	L.RaiseError("%s", err.Error())
	return 0
}
