package childproctest

import (
	"bytes"
	"strings"

	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stdioContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryStdio,
			Name:        "discard-has-no-output-keys",
			Description: "Discarded slots never appear in the result",
			Run: func(t T, spawner childproc.Spawner) {
				result, err := shell(t, spawner, "echo hidden",
					childproc.WithStdio(childproc.StdioAll(childproc.Discard())))
				require.NoError(t, err)

				assert.Nil(t, result.Stdout)
				assert.Nil(t, result.Stderr)
			},
		},
		{
			Category:    CategoryStdio,
			Name:        "custom-writer",
			Description: "A writer on stdout receives the output and the slot is not captured",
			Run: func(t T, spawner childproc.Spawner) {
				var out bytes.Buffer

				result, err := shell(t, spawner, "echo routed", childproc.WithStdio(childproc.StdioTuple(
					childproc.Discard(), childproc.ToWriter(&out), childproc.Pipe(),
				)))
				require.NoError(t, err)

				assert.Nil(t, result.Stdout)
				assert.NotNil(t, result.Stderr)
				assert.Equal(t, "routed", strings.TrimSpace(out.String()))
			},
		},
		{
			Category:    CategoryStdio,
			Name:        "stdin-from-reader",
			Description: "A reader on stdin is fed to the child and closed when exhausted",
			Prereq:      posixOnly,
			Run: func(t T, spawner childproc.Spawner) {
				runner := childproc.NewRunner(spawner)

				result, err := runner.Run(t.Context(), "cat", nil, childproc.WithStdio(childproc.StdioTuple(
					childproc.FromReader(strings.NewReader("line one\nline two\n")),
					childproc.Pipe(),
					childproc.Discard(),
				)))
				require.NoError(t, err)
				require.NotNil(t, result.Stdout)

				assert.Equal(t, "line one\nline two\n", *result.Stdout)
				assert.Nil(t, result.Stderr)
			},
		},
	}
}
