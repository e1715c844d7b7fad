// Package local implements transport.Transport over the machine Arc itself
// runs on.
package local

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"

	"github.com/arclang/arc/internal/log"
	"github.com/arclang/arc/internal/transport"
)

// Config is the configuration for a Local transport.
type Config struct {
	// Name is the declared target name (or "host" for the ambient local
	// handle — see SPEC_FULL.md "host global").
	Name   string
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// Local is a transport.Transport backed directly by the local filesystem
// and shell — no connection to lazily establish, unlike the SSH adapter.
type Local struct {
	name   string
	logger log.Logger
}

// New returns a Local transport.
func New(cfg Config) (*Local, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid local transport config: %w", err)
	}
	return &Local{name: cfg.Name, logger: cfg.Logger}, nil
}

func (l *Local) SystemName() string { return l.name }

func (l *Local) Exec(ctx context.Context, command string) (transport.ExecResult, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := transport.ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	if err == nil {
		res.ExitCode = 0
		return res, nil
	}

	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("could not run command on %q: %w", l.name, err)
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}

func (l *Local) Stat(_ context.Context, path string) (*transport.Metadata, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not stat %q on %q: %w", path, l.name, err)
	}

	typ := transport.EntryTypeFile
	if info.IsDir() {
		typ = transport.EntryTypeDirectory
	}

	return &transport.Metadata{
		Path:        path,
		Size:        info.Size(),
		Permissions: uint32(info.Mode().Perm()),
		Type:        typ,
		Modified:    info.ModTime(),
		Accessed:    info.ModTime(),
	}, nil
}

func (l *Local) ReadStream(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q on %q: %w", path, l.name, err)
	}
	return f, nil
}

func (l *Local) WriteStream(_ context.Context, path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("could not create %q on %q: %w", path, l.name, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("could not write %q on %q: %w", path, l.name, err)
	}
	return nil
}

func (l *Local) Chmod(_ context.Context, path string, mode uint32) error {
	if err := os.Chmod(path, os.FileMode(mode)); err != nil {
		return fmt.Errorf("could not chmod %q on %q: %w", path, l.name, err)
	}
	return nil
}

func (l *Local) MkdirAll(_ context.Context, path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("could not create directory %q on %q: %w", path, l.name, err)
	}
	return nil
}

func (l *Local) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("could not remove %q on %q: %w", path, l.name, err)
	}
	return nil
}

func (l *Local) RemoveAll(_ context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("could not remove %q on %q: %w", path, l.name, err)
	}
	return nil
}

func (l *Local) Rename(_ context.Context, from, to string) error {
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("could not rename %q to %q on %q: %w", from, to, l.name, err)
	}
	return nil
}

func (l *Local) List(_ context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("could not list %q on %q: %w", path, l.name, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (l *Local) Close() error { return nil }
