// Package transport declares the uniform operation set the engine needs
// from a system, whether that system is reached over SSH or is the local
// machine (§4.A). internal/transport/remote and internal/transport/local each implement
// it; the script host (internal/script) is the only caller.
package transport

import (
	"context"
	"io"
	"time"
)

// EntryType classifies a path's filesystem entry.
type EntryType string

const (
	EntryTypeFile      EntryType = "file"
	EntryTypeDirectory EntryType = "directory"
	EntryTypeUnknown   EntryType = "unknown"
)

// Metadata is the result of a Stat call. A nil *Metadata (with a nil error)
// means the path does not exist.
type Metadata struct {
	Path        string
	Size        int64
	Permissions uint32
	Type        EntryType

	// UID/GID are left at zero by the local adapter (§4.A).
	UID, GID int

	Accessed time.Time
	Modified time.Time
}

// ExecResult is the faithfully reported outcome of a shell command. A
// non-zero ExitCode is not itself a transport error (§4.A).
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Transport is the uniform contract the script host drives. Every method is
// safe to call repeatedly; implementations lazily establish any underlying
// connection (§4.A, §4.B).
type Transport interface {
	// SystemName identifies which declared target this transport serves,
	// for error messages and logging.
	SystemName() string

	// Exec runs cmd through the system shell and reports stdout, stderr,
	// and the process's real exit code.
	Exec(ctx context.Context, cmd string) (ExecResult, error)

	// Stat returns nil, nil when path does not exist.
	Stat(ctx context.Context, path string) (*Metadata, error)

	// ReadStream opens path for streaming reads. Callers must Close it.
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)

	// WriteStream streams r's bytes into path, creating or truncating it.
	WriteStream(ctx context.Context, path string, r io.Reader) error

	Chmod(ctx context.Context, path string, mode uint32) error
	MkdirAll(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	Rename(ctx context.Context, from, to string) error

	// List returns the ordered names of path's immediate directory entries.
	List(ctx context.Context, path string) ([]string, error)

	// Close releases any underlying connection (e.g. the SSH session).
	Close() error
}
