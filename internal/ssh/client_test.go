package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/arclang/arc/internal/log"
)

// testSSHServer is an in-process SSH server for testing exec and SFTP.
type testSSHServer struct {
	listener net.Listener
	config   *ssh.ServerConfig
	addr     string
	wg       sync.WaitGroup
	done     chan struct{}
}

func newTestSSHServer(t *testing.T, privKeyBytes []byte) *testSSHServer {
	t.Helper()

	config := &ssh.ServerConfig{
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			return nil, nil
		},
	}

	signer, err := ssh.ParsePrivateKey(privKeyBytes)
	require.NoError(t, err)
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &testSSHServer{
		listener: listener,
		config:   config,
		addr:     listener.Addr().String(),
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.serve(t)

	return s
}

func (s *testSSHServer) serve(t *testing.T) {
	t.Helper()
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				return
			}
		}
		go s.handleConn(t, conn)
	}
}

func (s *testSSHServer) handleConn(t *testing.T, netConn net.Conn) {
	t.Helper()

	sshConn, chans, reqs, err := ssh.NewServerConn(netConn, s.config)
	if err != nil {
		return
	}
	defer sshConn.Close()

	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		switch newChannel.ChannelType() {
		case "session":
			go s.handleSession(t, newChannel)
		default:
			_ = newChannel.Reject(ssh.UnknownChannelType, "unknown channel type")
		}
	}
}

func (s *testSSHServer) handleSession(t *testing.T, newChannel ssh.NewChannel) {
	t.Helper()

	channel, requests, err := newChannel.Accept()
	if err != nil {
		return
	}
	defer channel.Close()

	for req := range requests {
		switch req.Type {
		case "exec":
			if len(req.Payload) < 4 {
				if req.WantReply {
					_ = req.Reply(false, nil)
				}
				continue
			}
			cmdLen := int(req.Payload[0])<<24 | int(req.Payload[1])<<16 | int(req.Payload[2])<<8 | int(req.Payload[3])
			if len(req.Payload) < 4+cmdLen {
				if req.WantReply {
					_ = req.Reply(false, nil)
				}
				continue
			}
			command := string(req.Payload[4 : 4+cmdLen])

			if req.WantReply {
				_ = req.Reply(true, nil)
			}

			cmd := exec.Command("sh", "-c", command)
			cmd.Stdin = channel
			cmd.Stdout = channel
			cmd.Stderr = channel.Stderr()

			exitCode := 0
			if err := cmd.Run(); err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					exitCode = exitErr.ExitCode()
				} else {
					exitCode = 1
				}
			}

			exitPayload := []byte{0, 0, 0, 0}
			exitPayload[0] = byte(exitCode >> 24)
			exitPayload[1] = byte(exitCode >> 16)
			exitPayload[2] = byte(exitCode >> 8)
			exitPayload[3] = byte(exitCode)
			_, _ = channel.SendRequest("exit-status", false, exitPayload)
			return

		case "subsystem":
			if len(req.Payload) < 4 {
				if req.WantReply {
					_ = req.Reply(false, nil)
				}
				continue
			}
			nameLen := int(req.Payload[0])<<24 | int(req.Payload[1])<<16 | int(req.Payload[2])<<8 | int(req.Payload[3])
			subsystem := string(req.Payload[4 : 4+nameLen])

			if subsystem == "sftp" {
				if req.WantReply {
					_ = req.Reply(true, nil)
				}
				server, err := sftp.NewServer(channel)
				if err != nil {
					return
				}
				_ = server.Serve()
				return
			}

			if req.WantReply {
				_ = req.Reply(false, nil)
			}

		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}

func (s *testSSHServer) close() {
	close(s.done)
	s.listener.Close()
	s.wg.Wait()
}

func testParseHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func generateTestKeyPair(t *testing.T) []byte {
	t.Helper()

	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	pemBlock, err := ssh.MarshalPrivateKey(privKey, "test-key")
	require.NoError(t, err)

	return pem.EncodeToMemory(pemBlock)
}

func testClientConfig(t *testing.T, host string, port int, privKey []byte) ClientConfig {
	t.Helper()
	signer, err := ssh.ParsePrivateKey(privKey)
	require.NoError(t, err)

	return ClientConfig{
		Host:   host,
		Port:   port,
		User:   "arc",
		Auth:   []ssh.AuthMethod{ssh.PublicKeys(signer)},
		Logger: log.Noop,
	}
}

func TestClient_NewClient(t *testing.T) {
	privKey := generateTestKeyPair(t)
	server := newTestSSHServer(t, privKey)
	defer server.close()

	host, port := testParseHostPort(t, server.addr)

	tests := map[string]struct {
		cfg    func() ClientConfig
		expErr bool
	}{
		"Valid config should connect successfully.": {
			cfg: func() ClientConfig { return testClientConfig(t, host, port, privKey) },
		},
		"Missing host should fail.": {
			cfg: func() ClientConfig {
				c := testClientConfig(t, host, port, privKey)
				c.Host = ""
				return c
			},
			expErr: true,
		},
		"Missing user should fail.": {
			cfg: func() ClientConfig {
				c := testClientConfig(t, host, port, privKey)
				c.User = ""
				return c
			},
			expErr: true,
		},
		"Connection to an unreachable host should fail.": {
			cfg: func() ClientConfig {
				c := testClientConfig(t, host, port, privKey)
				c.Host = "192.0.2.1" // RFC 5737 TEST-NET, guaranteed unreachable.
				c.ConnectTimeout = time.Second
				return c
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			client, err := NewClient(ctx, test.cfg())
			if test.expErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, client)
			assert.NoError(t, client.Close())
		})
	}
}

func TestClient_Exec(t *testing.T) {
	privKey := generateTestKeyPair(t)
	server := newTestSSHServer(t, privKey)
	defer server.close()

	host, port := testParseHostPort(t, server.addr)

	tests := map[string]struct {
		command     string
		expExitCode int
		expStdout   string
	}{
		"Simple echo should return exit code 0 and output.": {
			command:     "echo hello world",
			expExitCode: 0,
			expStdout:   "hello world\n",
		},
		"Failed command should return its real exit code, not an error.": {
			command:     "exit 42",
			expExitCode: 42,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			client, err := NewClient(ctx, testClientConfig(t, host, port, privKey))
			require.NoError(t, err)
			defer client.Close()

			res, err := client.Exec(ctx, test.command)
			require.NoError(t, err)
			assert.Equal(t, test.expExitCode, res.ExitCode)
			if test.expStdout != "" {
				assert.Equal(t, test.expStdout, string(res.Stdout))
			}
		})
	}
}

func TestClient_Exec_ContextCancellation(t *testing.T) {
	privKey := generateTestKeyPair(t)
	server := newTestSSHServer(t, privKey)
	defer server.close()

	host, port := testParseHostPort(t, server.addr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := NewClient(ctx, testClientConfig(t, host, port, privKey))
	require.NoError(t, err)
	defer client.Close()

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	cancelFunc()

	_, err = client.Exec(cancelCtx, "sleep 60")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_SFTP_WriteStatReadRemove(t *testing.T) {
	privKey := generateTestKeyPair(t)
	server := newTestSSHServer(t, privKey)
	defer server.close()

	host, port := testParseHostPort(t, server.addr)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := NewClient(ctx, testClientConfig(t, host, port, privKey))
	require.NoError(t, err)
	defer client.Close()

	sftpClient, err := client.SFTP()
	require.NoError(t, err)

	// SFTP session is reused on a second call.
	sftpClient2, err := client.SFTP()
	require.NoError(t, err)
	assert.Same(t, sftpClient, sftpClient2)

	dir := t.TempDir()
	path := fmt.Sprintf("%s/test.txt", dir)

	f, err := sftpClient.Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	info, err := sftpClient.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	rf, err := sftpClient.Open(path)
	require.NoError(t, err)
	buf := make([]byte, 5)
	_, err = rf.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
	require.NoError(t, rf.Close())

	require.NoError(t, sftpClient.Remove(path))
	_, err = sftpClient.Stat(path)
	assert.True(t, strings.Contains(err.Error(), "not exist") || err != nil)
}
