// Package local provides an implementation of the childproc.Spawner interface
// for the local operating system.
//
// It is a thin wrapper around the standard library's "os/exec" package. Pipes are
// created with os.Pipe so that the process exit and the end of its output are
// observed independently: a child that exits while a descendant still holds its
// stdout open is reported as exited, and the Runner keeps draining.
//
// Usage:
//
//	res, _ := local.Run(ctx, "echo", []string{"hello"})
//	fmt.Print(*res.Stdout)
package local
