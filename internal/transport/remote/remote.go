// Package remote implements transport.Transport over SSH/SFTP for a
// declared Remote target (§4.A).
package remote

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pkg/sftp"

	"github.com/arclang/arc/internal/log"
	"github.com/arclang/arc/internal/ssh"
	"github.com/arclang/arc/internal/transport"
)

// Config is the configuration for a Remote transport.
type Config struct {
	Name    string
	Address string
	Port    int
	User    string
	Logger  log.Logger
}

func (c *Config) defaults() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.Port == 0 {
		c.Port = ssh.DefaultSSHPort
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// Remote is a transport.Transport backed by a single, lazily-dialled SSH
// client shared across every call for the lifetime of a run.
type Remote struct {
	cfg    Config
	client *ssh.Client
}

// New returns a Remote transport. It does not dial until first use.
func New(cfg Config) (*Remote, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid remote transport config: %w", err)
	}
	return &Remote{cfg: cfg}, nil
}

func (r *Remote) SystemName() string { return r.cfg.Name }

func (r *Remote) connect(ctx context.Context) (*ssh.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	client, err := ssh.NewClient(ctx, ssh.ClientConfig{
		Host:   r.cfg.Address,
		Port:   r.cfg.Port,
		User:   r.cfg.User,
		Logger: r.cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to %q (%s): %w", r.cfg.Name, r.cfg.Address, err)
	}
	r.client = client
	return client, nil
}

func (r *Remote) sftpClient(ctx context.Context) (*sftp.Client, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return nil, err
	}
	return client.SFTP()
}

func (r *Remote) Exec(ctx context.Context, cmd string) (transport.ExecResult, error) {
	client, err := r.connect(ctx)
	if err != nil {
		return transport.ExecResult{}, err
	}

	res, err := client.Exec(ctx, cmd)
	if err != nil {
		return transport.ExecResult{}, fmt.Errorf("could not run command on %q: %w", r.cfg.Name, err)
	}
	return transport.ExecResult{Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
}

func (r *Remote) Stat(ctx context.Context, path string) (*transport.Metadata, error) {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return nil, err
	}

	info, err := sc.Stat(path)
	if isSFTPNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not stat %q on %q: %w", path, r.cfg.Name, err)
	}

	typ := transport.EntryTypeFile
	if info.IsDir() {
		typ = transport.EntryTypeDirectory
	}

	meta := &transport.Metadata{
		Path:        path,
		Size:        info.Size(),
		Permissions: uint32(info.Mode().Perm()),
		Type:        typ,
		Modified:    info.ModTime(),
	}
	if st, ok := info.Sys().(*sftp.FileStat); ok {
		meta.UID = int(st.UID)
		meta.GID = int(st.GID)
		meta.Accessed = time.Unix(int64(st.Atime), 0)
	}
	return meta, nil
}

func (r *Remote) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return nil, err
	}

	f, err := sc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %q on %q: %w", path, r.cfg.Name, err)
	}
	return f, nil
}

func (r *Remote) WriteStream(ctx context.Context, path string, in io.Reader) error {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return err
	}

	f, err := sc.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %q on %q: %w", path, r.cfg.Name, err)
	}
	defer f.Close()

	if _, err := f.ReadFrom(in); err != nil {
		return fmt.Errorf("could not write %q on %q: %w", path, r.cfg.Name, err)
	}
	return nil
}

func (r *Remote) Chmod(ctx context.Context, path string, mode uint32) error {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return err
	}
	if err := sc.Chmod(path, fileMode(mode)); err != nil {
		return fmt.Errorf("could not chmod %q on %q: %w", path, r.cfg.Name, err)
	}
	return nil
}

func (r *Remote) MkdirAll(ctx context.Context, path string) error {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return err
	}
	if err := sc.MkdirAll(path); err != nil {
		return fmt.Errorf("could not create directory %q on %q: %w", path, r.cfg.Name, err)
	}
	return nil
}

func (r *Remote) Remove(ctx context.Context, path string) error {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return err
	}
	if err := sc.Remove(path); err != nil {
		return fmt.Errorf("could not remove %q on %q: %w", path, r.cfg.Name, err)
	}
	return nil
}

func (r *Remote) RemoveAll(ctx context.Context, path string) error {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return err
	}

	walker := sc.Walk(path)
	var names []string
	for walker.Step() {
		if walker.Err() != nil {
			return fmt.Errorf("could not walk %q on %q: %w", path, r.cfg.Name, walker.Err())
		}
		names = append(names, walker.Path())
	}
	// Remove children before parents.
	for i := len(names) - 1; i >= 0; i-- {
		if err := sc.Remove(names[i]); err != nil {
			return fmt.Errorf("could not remove %q on %q: %w", names[i], r.cfg.Name, err)
		}
	}
	return nil
}

func (r *Remote) Rename(ctx context.Context, from, to string) error {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return err
	}
	if err := sc.Rename(from, to); err != nil {
		return fmt.Errorf("could not rename %q to %q on %q: %w", from, to, r.cfg.Name, err)
	}
	return nil
}

func (r *Remote) List(ctx context.Context, path string) ([]string, error) {
	sc, err := r.sftpClient(ctx)
	if err != nil {
		return nil, err
	}

	entries, err := sc.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("could not list %q on %q: %w", path, r.cfg.Name, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (r *Remote) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
