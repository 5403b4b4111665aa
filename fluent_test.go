package childproc

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Cmd(t *testing.T) {
	t.Parallel()

	inv := Cmd("ls").
		Arg("-l").
		Arg("-a").
		Dir("/tmp").
		Env("FOO", "bar").
		Input("some input").
		Build()

	assert.Equal(t, "ls", inv.Command)
	assert.Equal(t, []string{"-l", "-a"}, inv.Args)
	assert.Equal(t, "/tmp", inv.Options.Dir)
	assert.Equal(t, []string{"FOO=bar"}, inv.Options.Env)

	require.Equal(t, kindReader, inv.Options.Stdio.Stdin.kind)

	inputBytes, err := io.ReadAll(inv.Options.Stdio.Stdin.r)
	require.NoError(t, err)
	assert.Equal(t, "some input", string(inputBytes))
}

func TestBuilder_Args(t *testing.T) {
	t.Parallel()

	inv := Cmd("echo").
		Args("hello", "world").
		Build()

	assert.Equal(t, "echo", inv.Command)
	assert.Equal(t, []string{"hello", "world"}, inv.Args)
}

func TestBuilder_Streams(t *testing.T) {
	t.Parallel()

	var stdout strings.Builder

	inv := Cmd("sh").
		Stdout(ToWriter(&stdout)).
		Stderr(Discard()).
		Encoding("latin1").
		Build()

	assert.Equal(t, kindWriter, inv.Options.Stdio.Stdout.kind)
	assert.Equal(t, kindDiscard, inv.Options.Stdio.Stderr.kind)
	assert.Equal(t, kindPipe, inv.Options.Stdio.Stdin.kind)
	assert.Equal(t, Encodings{Stdout: "latin1", Stderr: "latin1"}, inv.Options.Encoding)
}

func TestBuilder_With(t *testing.T) {
	t.Parallel()

	inv := Cmd("daemon").With(WithDetached(), WithArgv0("worker")).Build()

	assert.True(t, inv.Options.Detached)
	assert.Equal(t, "worker", inv.Options.Argv0)
}
