// Package ssh wraps an SSH connection with the exec and SFTP primitives
// internal/transport/remote needs to satisfy transport.Transport (§4.A).
package ssh

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/arclang/arc/internal/log"
)

const (
	// DefaultConnectTimeout is the default SSH connection timeout.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultSSHPort is the default SSH port.
	DefaultSSHPort = 22
)

// ClientConfig holds the configuration for creating an SSH connection.
type ClientConfig struct {
	// Host is the IP address or hostname of the target.
	Host string
	// Port is the SSH port (default: 22).
	Port int
	// User is the SSH user (e.g. "deploy").
	User string
	// Auth overrides the default authentication methods. Tests use this to
	// inject a fixed key pair; production code leaves it nil so Dial uses
	// the caller's ssh-agent (§4.A: "no interactive prompting").
	Auth []ssh.AuthMethod
	// ConnectTimeout is the SSH connection timeout (default: 10s).
	ConnectTimeout time.Duration
	// Logger for logging (optional).
	Logger log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.Port == 0 {
		c.Port = DefaultSSHPort
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// AgentAuth returns an ssh.AuthMethod backed by the running ssh-agent,
// reached through SSH_AUTH_SOCK. This is the only authentication path Arc
// uses outside of tests (§4.A).
func AgentAuth() (ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK is not set; an ssh-agent with the target's key must be running")
	}

	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("could not connect to ssh-agent at %s: %w", sock, err)
	}

	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

// Client wraps an SSH connection plus a lazily-opened SFTP session. A
// Client is created once per target and reused for every transport call
// during a run (§4.A: "lazily opens one session per target... and re-uses
// it").
type Client struct {
	conn   *ssh.Client
	logger log.Logger

	mu   sync.Mutex
	sftp *sftp.Client
}

// NewClient dials the SSH server and returns a connected client.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid ssh client config: %w", err)
	}

	auth := cfg.Auth
	if auth == nil {
		am, err := AgentAuth()
		if err != nil {
			return nil, fmt.Errorf("could not set up ssh-agent authentication: %w", err)
		}
		auth = []ssh.AuthMethod{am}
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         cfg.ConnectTimeout,
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))

	var d net.Dialer
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, sshCfg)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("ssh handshake failed with %s: %w", addr, err)
	}

	return &Client{
		conn:   ssh.NewClient(sshConn, chans, reqs),
		logger: cfg.Logger,
	}, nil
}

// Close closes the SFTP session (if one was opened) and the SSH connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.sftp != nil {
		_ = c.sftp.Close()
		c.sftp = nil
	}
	c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SFTP returns the shared SFTP session, opening it on first use.
func (c *Client) SFTP() (*sftp.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sftp != nil {
		return c.sftp, nil
	}

	cl, err := sftp.NewClient(c.conn)
	if err != nil {
		return nil, fmt.Errorf("could not open sftp session: %w", err)
	}
	c.sftp = cl
	return cl, nil
}

// ExecOpts are options for command execution (non-TTY only).
type ExecOpts struct {
	Stdin []byte
}

// ExecResult carries a remote command's faithfully-reported outcome.
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Exec runs a command on the remote host via the system shell. This does
// NOT support TTY allocation — Arc's scripted commands never need one.
func (c *Client) Exec(ctx context.Context, command string) (ExecResult, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return ExecResult{}, fmt.Errorf("could not create ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return ExecResult{}, ctx.Err()
	case runErr := <-done:
		res := ExecResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
		if runErr == nil {
			return res, nil
		}
		if exitErr, ok := runErr.(*ssh.ExitError); ok {
			res.ExitCode = exitErr.ExitStatus()
			return res, nil
		}
		return res, fmt.Errorf("command execution failed: %w", runErr)
	}
}
