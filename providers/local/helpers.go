package local

import (
	"context"

	"github.com/ruffel/childproc"
)

// Run executes command locally using a new spawner and waits for it to finish.
func Run(ctx context.Context, command string, args []string, opts ...childproc.Option) (*childproc.Result, error) {
	spawner := New()

	defer func() { _ = spawner.Close() }()

	return childproc.NewRunner(spawner).Run(ctx, command, args, opts...)
}

// RunShell executes a shell command line locally using a new spawner.
func RunShell(ctx context.Context, script string, opts ...childproc.Option) (*childproc.Result, error) {
	return Run(ctx, script, nil, append(opts, childproc.WithShell())...)
}
