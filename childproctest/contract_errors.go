package childproctest

import (
	"errors"
	"strconv"

	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	runExitErrorCode    = 13
	silentExitErrorCode = 3
)

func errorContracts() []TestCase {
	return []TestCase{
		nonZeroReturnsSpawnErrorContract(),
		silentFailureHasNoOutputContract(),
		missingExecutableIsNotSpawnErrorContract(),
	}
}

func nonZeroReturnsSpawnErrorContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "nonzero-returns-spawnerror",
		Description: "Non-zero exits must return *childproc.SpawnError carrying the captured output",
		Run: func(t T, spawner childproc.Spawner) {
			script := "echo partial&& exit " + strconv.Itoa(runExitErrorCode)

			_, err := shell(t, spawner, script)
			require.Error(t, err)

			var spawnErr *childproc.SpawnError
			require.True(t, errors.As(err, &spawnErr))
			require.NotNil(t, spawnErr.Code)
			assert.Equal(t, runExitErrorCode, *spawnErr.Code)
			assert.Empty(t, spawnErr.Signal)
			assert.Equal(t, []string{script}, spawnErr.Command)
			require.NotNil(t, spawnErr.Stdout)
			assert.Contains(t, *spawnErr.Stdout, "partial")
		},
	}
}

func silentFailureHasNoOutputContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "discarded-failure-has-no-output",
		Description: "A failure with every slot discarded carries no stdout or stderr",
		Run: func(t T, spawner childproc.Spawner) {
			_, err := shell(t, spawner, "exit "+strconv.Itoa(silentExitErrorCode),
				childproc.WithStdio(childproc.StdioAll(childproc.Discard())))

			var spawnErr *childproc.SpawnError
			require.True(t, errors.As(err, &spawnErr))
			assert.Equal(t, silentExitErrorCode, spawnErr.ExitCode())
			assert.Nil(t, spawnErr.Stdout)
			assert.Nil(t, spawnErr.Stderr)
		},
	}
}

func missingExecutableIsNotSpawnErrorContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "missing-executable-unwrapped",
		Description: "Launch failures are returned as the spawner's own error, not *childproc.SpawnError",
		Run: func(t T, spawner childproc.Spawner) {
			runner := childproc.NewRunner(spawner)

			_, err := runner.Run(t.Context(), missingBinary, nil)
			require.Error(t, err)

			var spawnErr *childproc.SpawnError
			assert.False(t, errors.As(err, &spawnErr))
		},
	}
}
