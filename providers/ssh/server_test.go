package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

const (
	testUser     = "tester"
	testPassword = "secret"
)

// testSession is what a scripted remote command sees.
type testSession struct {
	command string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	signals chan string
}

// remoteFunc plays the remote command. It returns an exit code, or a signal name such as
// "TERM" to report termination by signal.
type remoteFunc func(s *testSession) (code uint32, signal string)

type exitStatusMsg struct {
	Status uint32
}

type exitSignalMsg struct {
	Signal     string
	CoreDumped bool
	Error      string
	Lang       string
}

// startTestServer runs an in-process SSH server that answers every "exec" request with fn
// and returns a Spawner connected to it.
func startTestServer(t *testing.T, fn remoteFunc) *Spawner {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	hostKey, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == testUser && string(pass) == testPassword {
				return &ssh.Permissions{}, nil
			}

			return nil, errors.New("access denied")
		},
	}
	cfg.AddHostKey(hostKey)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go serveConn(conn, cfg, fn)
		}
	}()

	addr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)

	spawner, err := New(
		WithHost("127.0.0.1"),
		WithPort(addr.Port),
		WithUser(testUser),
		WithPassword(testPassword),
		WithHostKeyCallback(ssh.FixedHostKey(hostKey.PublicKey())),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = spawner.Close() })

	return spawner
}

func serveConn(conn net.Conn, cfg *ssh.ServerConfig, fn remoteFunc) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		_ = conn.Close()

		return
	}

	defer func() { _ = sconn.Close() }()

	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "unsupported channel type")

			continue
		}

		ch, chReqs, err := nc.Accept()
		if err != nil {
			continue
		}

		go serveSession(ch, chReqs, fn)
	}
}

func serveSession(ch ssh.Channel, reqs <-chan *ssh.Request, fn remoteFunc) {
	sess := &testSession{
		stdin:   ch,
		stdout:  ch,
		stderr:  ch.Stderr(),
		signals: make(chan string, 4),
	}

	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)

				continue
			}

			sess.command = payload.Command
			_ = req.Reply(true, nil)

			go func() {
				code, sig := fn(sess)
				if sig != "" {
					_, _ = ch.SendRequest("exit-signal", false, ssh.Marshal(exitSignalMsg{Signal: sig}))
				} else {
					_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(exitStatusMsg{Status: code}))
				}

				_ = ch.Close()
			}()
		case "signal":
			var payload struct{ Signal string }
			if err := ssh.Unmarshal(req.Payload, &payload); err == nil {
				select {
				case sess.signals <- payload.Signal:
				default:
				}
			}

			_ = req.Reply(true, nil)
		default:
			_ = req.Reply(false, nil)
		}
	}
}
