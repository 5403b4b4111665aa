package mock

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMockSpawner(t *testing.T) {
	t.Parallel()

	spawner := New()
	ctx := context.Background()

	proc := new(Process)
	spawner.On("Spawn", ctx, mock.AnythingOfType("*childproc.SpawnRequest")).Return(proc, nil)
	spawner.On("LookPath", ctx, "git").Return("/usr/bin/git", nil)

	got, err := spawner.Spawn(ctx, &childproc.SpawnRequest{Command: "echo"})
	require.NoError(t, err)
	assert.Equal(t, proc, got)

	path, err := spawner.LookPath(ctx, "git")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/git", path)
	assert.Equal(t, childproc.OSLinux, spawner.TargetOS())

	spawner.AssertExpectations(t)
}

func TestScriptedProcess(t *testing.T) {
	t.Parallel()

	proc := NewScriptedProcess(7)

	go func() {
		_ = proc.WriteStdout("out")
		proc.CloseOutput()
		proc.Exit(childproc.ExitStatus{Signal: "SIGTERM"})
	}()

	spawner := New()
	spawner.On("Spawn", mock.Anything, mock.Anything).Return(proc, nil)

	res, err := childproc.NewRunner(spawner).Run(context.Background(), "fake", nil)
	require.NoError(t, err)
	assert.Equal(t, "out", *res.Stdout)
	assert.Equal(t, "", *res.Stderr)
	assert.Equal(t, 7, res.Pid)
	assert.True(t, proc.Closed())
}

func TestScriptedProcess_Stdin(t *testing.T) {
	t.Parallel()

	proc := NewScriptedProcess(1)

	_, err := proc.Stdin().Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, proc.Stdin().Close())

	assert.Equal(t, "abc", proc.StdinText())
}

func TestScriptedProcess_Signals(t *testing.T) {
	t.Parallel()

	proc := NewScriptedProcess(1)
	require.NoError(t, proc.Signal(syscall.SIGTERM))
	assert.Equal(t, []os.Signal{syscall.SIGTERM}, proc.Signals())

	done := make(chan struct{})

	go func() {
		defer close(done)

		status, err := proc.Wait()
		assert.NoError(t, err)
		assert.Equal(t, 2, status.Code)
	}()

	proc.Exit(childproc.ExitStatus{Code: 2})
	proc.Exit(childproc.ExitStatus{Code: 5})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return")
	}
}
