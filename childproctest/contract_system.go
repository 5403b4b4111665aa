package childproctest

import (
	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const missingBinary = "childproc-definitely-not-installed"

func systemContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategorySystem,
			Name:        "lookpath",
			Description: "LookPath resolves the system shell to a non-empty path",
			Run: func(t T, spawner childproc.Spawner) {
				shell, _ := spawner.TargetOS().ShellCommand("")

				path, err := childproc.NewRunner(spawner).LookPath(t.Context(), shell)
				require.NoError(t, err)
				assert.NotEmpty(t, path)
			},
		},
		{
			Category:    CategorySystem,
			Name:        "lookpath-missing",
			Description: "LookPath fails for an executable that is not installed",
			Run: func(t T, spawner childproc.Spawner) {
				path, err := childproc.NewRunner(spawner).LookPath(t.Context(), missingBinary)
				require.Error(t, err)
				assert.Empty(t, path)
			},
		},
	}
}
