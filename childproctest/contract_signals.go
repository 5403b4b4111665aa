package childproctest

import (
	"errors"

	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signalContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategorySignals,
			Name:        "sigterm-is-success",
			Description: "A child terminated by SIGTERM resolves successfully",
			Prereq:      posixOnly,
			Run: func(t T, spawner childproc.Spawner) {
				result, err := shell(t, spawner, "kill -TERM $$")
				require.NoError(t, err)
				assert.NotNil(t, result)
			},
		},
		{
			Category:    CategorySignals,
			Name:        "sigkill-is-failure",
			Description: "Any other signal is reported as *childproc.SpawnError with the signal name",
			Prereq:      posixOnly,
			Run: func(t T, spawner childproc.Spawner) {
				_, err := shell(t, spawner, "kill -KILL $$")
				require.Error(t, err)

				var spawnErr *childproc.SpawnError
				require.True(t, errors.As(err, &spawnErr))
				assert.Nil(t, spawnErr.Code)
				assert.Equal(t, "SIGKILL", spawnErr.Signal)
			},
		},
	}
}
