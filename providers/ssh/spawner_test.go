package ssh

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoCommand(s *testSession) (uint32, string) {
	_, _ = io.WriteString(s.stdout, s.command)

	return 0, ""
}

func TestSpawner_Run(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, echoCommand)
	runner := childproc.NewRunner(spawner)

	tests := []struct {
		name string
		cmd  string
		args []string
		opts []childproc.Option
		want string
	}{
		{
			name: "plain words stay bare",
			cmd:  "echo",
			args: []string{"hello", "world"},
			want: "echo hello world",
		},
		{
			name: "arguments are quoted",
			cmd:  "echo",
			args: []string{"hello; whoami", "it's"},
			want: `echo 'hello; whoami' 'it'\''s'`,
		},
		{
			name: "env and dir prefixes",
			cmd:  "pwd",
			opts: []childproc.Option{childproc.WithEnv("GREETING=hi there"), childproc.WithDir("/srv/app")},
			want: "export GREETING='hi there'; cd /srv/app && pwd",
		},
		{
			name: "shell mode passes the script through",
			cmd:  "echo $HOME | tr a-z A-Z",
			opts: []childproc.Option{childproc.WithShell()},
			want: "echo $HOME | tr a-z A-Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := runner.Run(context.Background(), tt.cmd, tt.args, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *res.Stdout)
			assert.Empty(t, *res.Stderr)
		})
	}
}

func TestSpawner_ExitStatus(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, func(s *testSession) (uint32, string) {
		_, _ = io.WriteString(s.stdout, "partial")
		_, _ = io.WriteString(s.stderr, "boom")

		switch s.command {
		case "fail":
			return 3, ""
		case "term":
			return 0, "TERM"
		case "kill":
			return 0, "KILL"
		default:
			return 0, ""
		}
	})
	runner := childproc.NewRunner(spawner)

	t.Run("non-zero exit", func(t *testing.T) {
		t.Parallel()

		_, err := runner.Run(context.Background(), "fail", nil)

		var spawnErr *childproc.SpawnError
		require.ErrorAs(t, err, &spawnErr)
		assert.Equal(t, 3, spawnErr.ExitCode())
		assert.Equal(t, []string{"fail"}, spawnErr.Command)
		assert.Equal(t, "partial", *spawnErr.Stdout)
		assert.Equal(t, "boom", *spawnErr.Stderr)
	})

	t.Run("sigterm is success", func(t *testing.T) {
		t.Parallel()

		res, err := runner.Run(context.Background(), "term", nil)
		require.NoError(t, err)
		assert.Equal(t, "partial", *res.Stdout)
	})

	t.Run("other signals fail", func(t *testing.T) {
		t.Parallel()

		_, err := runner.Run(context.Background(), "kill", nil)

		var spawnErr *childproc.SpawnError
		require.ErrorAs(t, err, &spawnErr)
		assert.Nil(t, spawnErr.Code)
		assert.Equal(t, "SIGKILL", spawnErr.Signal)
	})
}

func TestSpawner_Stdio(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, func(s *testSession) (uint32, string) {
		data, _ := io.ReadAll(s.stdin)
		_, _ = fmt.Fprintf(s.stdout, "got %s", data)
		_, _ = io.WriteString(s.stderr, "\xe9")

		return 0, ""
	})
	runner := childproc.NewRunner(spawner)

	t.Run("stdin from reader", func(t *testing.T) {
		t.Parallel()

		res, err := runner.Run(context.Background(), "cat", nil,
			childproc.WithStdio(childproc.StdioSpec{Stdin: childproc.FromReader(strings.NewReader("payload"))}))
		require.NoError(t, err)
		assert.Equal(t, "got payload", *res.Stdout)
	})

	t.Run("writer with encoding", func(t *testing.T) {
		t.Parallel()

		var stderr bytes.Buffer

		res, err := runner.Run(context.Background(), "cat", nil,
			childproc.WithStdio(childproc.StdioTuple(childproc.Discard(), childproc.Discard(), childproc.ToWriter(&stderr))),
			childproc.WithStderrEncoding("latin1"))
		require.NoError(t, err)

		assert.Nil(t, res.Stdout)
		assert.Nil(t, res.Stderr)
		assert.Equal(t, "é", stderr.String())
	})

	t.Run("writer handed to the session", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer

		res, err := runner.Run(context.Background(), "cat", nil,
			childproc.WithStdio(childproc.StdioTuple(childproc.Discard(), childproc.ToWriter(&stdout), childproc.Pipe())))
		require.NoError(t, err)

		assert.Nil(t, res.Stdout)
		assert.Equal(t, "got ", stdout.String())
		assert.Equal(t, "\xe9", *res.Stderr)
	})

	t.Run("fd is not supported", func(t *testing.T) {
		t.Parallel()

		_, err := runner.Run(context.Background(), "cat", nil,
			childproc.WithStdio(childproc.StdioSpec{Stdout: childproc.Fd(3)}))
		require.ErrorIs(t, err, childproc.ErrNotSupported)
	})
}

func TestSpawner_Signal(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, func(s *testSession) (uint32, string) {
		select {
		case sig := <-s.signals:
			return 0, sig
		case <-time.After(5 * time.Second):
			return 1, ""
		}
	})

	proc, err := spawner.Spawn(context.Background(), &childproc.SpawnRequest{
		Command: "sleep",
		Args:    []string{"60"},
		Stdio:   childproc.ResolvedStdio{Stdin: childproc.Target{Kind: childproc.TargetDiscard}},
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = proc.Close() })

	require.NoError(t, proc.Signal(syscall.SIGTERM))

	status, err := proc.Wait()
	require.NoError(t, err)
	assert.Equal(t, "SIGTERM", status.Signal)
	assert.True(t, status.Success())

	require.ErrorIs(t, proc.Signal(syscall.Signal(64)), childproc.ErrNotSupported)
}

func TestSpawner_ContextCancel(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, func(s *testSession) (uint32, string) {
		select {
		case sig := <-s.signals:
			return 0, sig
		case <-time.After(5 * time.Second):
			return 0, ""
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()

	_, err := childproc.NewRunner(spawner).Run(ctx, "sleep", []string{"60"},
		childproc.WithStdio(childproc.StdioAll(childproc.Discard())))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestSpawner_LookPath(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, func(s *testSession) (uint32, string) {
		if s.command == "command -v sh" {
			_, _ = io.WriteString(s.stdout, "/bin/sh\n")

			return 0, ""
		}

		return 1, ""
	})

	path, err := spawner.LookPath(context.Background(), "sh")
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", path)

	_, err = spawner.LookPath(context.Background(), "missing")
	require.Error(t, err)
}

func TestSpawner_Unsupported(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, echoCommand)

	tests := []struct {
		name string
		req  *childproc.SpawnRequest
		want error
	}{
		{name: "empty command", req: &childproc.SpawnRequest{}, want: childproc.ErrEmptyCommand},
		{name: "argv0", req: &childproc.SpawnRequest{Command: "ls", Argv0: "list"}, want: childproc.ErrNotSupported},
		{name: "detached", req: &childproc.SpawnRequest{Command: "ls", Detached: true}, want: childproc.ErrNotSupported},
		{
			name: "inherited stdin",
			req: &childproc.SpawnRequest{
				Command: "ls",
				Stdio:   childproc.ResolvedStdio{Stdin: childproc.Target{Kind: childproc.TargetInherit}},
			},
			want: childproc.ErrNotSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := spawner.Spawn(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSpawner_ActiveProcesses(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, echoCommand)

	proc, err := spawner.Spawn(context.Background(), &childproc.SpawnRequest{Command: "ls"})
	require.NoError(t, err)
	assert.Equal(t, 1, spawner.ActiveProcesses())

	_, err = proc.Wait()
	require.NoError(t, err)
	require.NoError(t, proc.Close())
	require.NoError(t, proc.Close())
	assert.Equal(t, 0, spawner.ActiveProcesses())
	assert.Equal(t, 0, proc.Pid())
}

func TestSpawner_Closed(t *testing.T) {
	t.Parallel()

	spawner := startTestServer(t, echoCommand)
	require.NoError(t, spawner.Close())
	require.NoError(t, spawner.Close())

	_, err := spawner.Spawn(context.Background(), &childproc.SpawnRequest{Command: "ls"})
	require.ErrorIs(t, err, childproc.ErrSpawnerClosed)
}
