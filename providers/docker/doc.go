// Package docker provides a childproc.Spawner that runs commands inside an existing
// container through the Docker Engine "exec" API.
//
// Output is demultiplexed with stdcopy so stdout and stderr reach the Runner as separate
// streams. The Engine API reports only an exit code for exec instances; codes of the form
// 128+n for well-known signals are reported as termination by that signal, which keeps the
// SIGTERM-is-success policy meaningful for containers.
//
// Exec instances cannot be signalled through the API, so Process.Signal returns
// childproc.ErrNotSupported; cancel the run's context to abandon a command.
//
// Usage:
//
//	spawner, err := docker.New(docker.WithContainerID("my-container"))
//	res, err := childproc.NewRunner(spawner).Run(ctx, "cat", []string{"/etc/os-release"})
package docker
