// Package mock provides controllable implementations of childproc.Spawner and
// childproc.Process for testing purposes.
//
// Spawner and Process are testify mocks. ScriptedProcess is a hand-driven fake
// whose output streams, exit and timing are controlled by the test, which makes it
// suitable for exercising drain and settlement ordering deterministically.
//
// Usage:
//
//	proc := mock.NewScriptedProcess(42)
//	spawner := mock.New()
//	spawner.On("Spawn", mock.Anything, mock.Anything).Return(proc, nil)
//	go func() {
//		_ = proc.WriteStdout("hello\n")
//		proc.CloseOutput()
//		proc.Exit(childproc.ExitStatus{Code: 0})
//	}()
//	res, err := childproc.NewRunner(spawner).Run(ctx, "echo", nil)
package mock
