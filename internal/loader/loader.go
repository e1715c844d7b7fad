// Package loader discovers the project root, reads .env files, and
// evaluates arc.lua (plus whatever it requires) into a registry.Builder via
// a script.Runtime (§4.D).
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/arclang/arc/internal/log"
	"github.com/arclang/arc/internal/model"
	"github.com/arclang/arc/internal/registry"
	"github.com/arclang/arc/internal/script"
	"github.com/arclang/arc/internal/utils/env"
)

// EntryFile is the script the Loader evaluates first.
const EntryFile = "arc.lua"

// Config configures a Loader.
type Config struct {
	Logger    log.Logger
	NewTarget script.TransportFactory
	HomePath  string
	Args      []string
}

func (c *Config) defaults() error {
	if c.NewTarget == nil {
		return fmt.Errorf("transport factory is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// Loader finds a project's arc.lua, merges its .env files over the process
// environment, and evaluates the script into a fresh registry.
type Loader struct {
	cfg Config
}

// New returns a Loader.
func New(cfg Config) (*Loader, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid loader config: %w", err)
	}
	return &Loader{cfg: cfg}, nil
}

// Result is what a successful Load produces: a frozen registry plus the
// Runtime (implementing executor.Invoker) that must stay alive — and get
// Close'd — for the duration of the run.
type Result struct {
	Builder *registry.Builder
	Runtime *script.Runtime
}

// Load discovers the project root starting from startDir (walking upward,
// §4.D), merges .env files over the process environment, and evaluates
// arc.lua.
func (l *Loader) Load(startDir string) (*Result, error) {
	root, err := FindProjectRoot(startDir)
	if err != nil {
		return nil, fmt.Errorf("could not find project root: %w: %w", err, model.ErrNotValid)
	}

	envMap, err := loadEnv(root)
	if err != nil {
		return nil, fmt.Errorf("could not load .env files: %w", err)
	}

	b := registry.NewBuilder()
	rt, err := script.New(script.Config{
		Logger:      l.cfg.Logger,
		Builder:     b,
		NewTarget:   l.cfg.NewTarget,
		ProjectRoot: root,
		HomePath:    l.cfg.HomePath,
		Args:        l.cfg.Args,
		Env:         envMap,
	})
	if err != nil {
		return nil, fmt.Errorf("could not build script runtime: %w", err)
	}

	entry := filepath.Join(root, EntryFile)
	if err := rt.EvalFile(entry, nil); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("could not evaluate %q: %w", entry, err)
	}

	return &Result{Builder: b, Runtime: rt}, nil
}

// FindProjectRoot walks upward from dir until it finds a directory
// containing arc.lua (§4.D).
func FindProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("could not resolve %q: %w", dir, err)
	}

	for current := abs; ; {
		if _, err := os.Stat(filepath.Join(current, EntryFile)); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no %q found above %q", EntryFile, abs)
		}
		current = parent
	}
}

// loadEnv merges every .env file directly under root over the process
// environment; files are read in sorted name order so later ones override
// earlier ones (§4.B, §4.D).
func loadEnv(root string) (map[string]string, error) {
	base := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			base[k] = v
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("could not list project root %q: %w", root, err)
	}

	var envFiles []string
	for _, e := range entries {
		if !e.IsDir() && (e.Name() == ".env" || strings.HasSuffix(e.Name(), ".env")) {
			envFiles = append(envFiles, e.Name())
		}
	}
	sort.Strings(envFiles)

	merged := base
	for _, name := range envFiles {
		fileEnv, err := godotenv.Read(filepath.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("could not parse %q: %w", name, err)
		}
		merged = env.MergeMaps(merged, fileEnv)
	}
	return merged, nil
}

