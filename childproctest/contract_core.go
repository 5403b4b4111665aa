package childproctest

import (
	"strings"

	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryCore,
			Name:        "simple-echo",
			Description: "Default stdio pipes and captures both output streams",
			Run: func(t T, spawner childproc.Spawner) {
				result, err := shell(t, spawner, "echo hello")
				require.NoError(t, err)
				require.NotNil(t, result)
				require.NotNil(t, result.Stdout)
				require.NotNil(t, result.Stderr)

				assert.Equal(t, "hello", strings.TrimSpace(*result.Stdout))
				assert.Empty(t, *result.Stderr)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "stderr-capture",
			Description: "Output written to stderr is captured separately",
			Run: func(t T, spawner childproc.Spawner) {
				result, err := shell(t, spawner, "echo oops 1>&2")
				require.NoError(t, err)
				require.NotNil(t, result.Stderr)

				assert.Equal(t, "oops", strings.TrimSpace(*result.Stderr))
				assert.Empty(t, strings.TrimSpace(*result.Stdout))
			},
		},
	}
}
