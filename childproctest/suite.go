package childproctest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ruffel/childproc"
)

// Standard categories for grouping tests.
const (
	CategoryCore    = "core"
	CategoryStdio   = "stdio"
	CategorySignals = "signals"
	CategorySystem  = "system"
	CategoryErrors  = "errors"
)

// T is the minimal interface required for testify/assert and require.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Skipf(format string, args ...any)
	Context() context.Context
	TempDir() string
	Name() string
}

// TestCase defines a single behavioral contract requirement.
type TestCase struct {
	Category    string
	Name        string
	Description string
	Prereq      func(t T, spawner childproc.Spawner) (ok bool, reason string)
	Run         func(t T, spawner childproc.Spawner)
}

// ID returns the stable, globally unique contract identifier.
func (tc TestCase) ID() string {
	return fmt.Sprintf("%s/%s", tc.Category, tc.Name)
}

// Option configures Verify.
type Option func(*verifyConfig)

type verifyConfig struct {
	skip map[string]string
}

// SkipContracts skips the contracts with the given IDs, recording reason. Remote spawners
// use it for behavior they cannot observe, such as a missing executable failing at launch
// rather than as a shell exit code.
func SkipContracts(reason string, ids ...string) Option {
	return func(c *verifyConfig) {
		for _, id := range ids {
			c.skip[id] = reason
		}
	}
}

// Verify is the standard Go test entry point for Spawner authors.
func Verify(t *testing.T, spawner childproc.Spawner, opts ...Option) {
	t.Helper()

	cfg := verifyConfig{skip: map[string]string{}}
	for _, o := range opts {
		o(&cfg)
	}

	for _, tc := range AllContracts() {
		t.Run(tc.ID(), func(t *testing.T) {
			if reason, ok := cfg.skip[tc.ID()]; ok {
				t.Skipf("skipped: %s", reason)
			}

			if tc.Prereq != nil {
				ok, reason := tc.Prereq(t, spawner)
				if !ok {
					t.Skipf("prereq unmet: %s", reason)
				}
			}

			tc.Run(t, spawner)
		})
	}
}

func posixOnly(_ T, spawner childproc.Spawner) (bool, string) {
	if spawner.TargetOS() == childproc.OSWindows {
		return false, "requires POSIX signals"
	}

	return true, ""
}

// shell runs script through the spawner's system shell.
func shell(t T, spawner childproc.Spawner, script string, opts ...childproc.Option) (*childproc.Result, error) {
	runner := childproc.NewRunner(spawner)

	return runner.Run(t.Context(), script, nil, append(opts, childproc.WithShell())...)
}
