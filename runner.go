package childproc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruffel/childproc/internal/transcode"
	"golang.org/x/sync/errgroup"
)

// Runner launches commands through a Spawner and waits for them to complete.
// A Runner holds no per-run state and is safe for concurrent use.
type Runner struct {
	spawner Spawner
	log     *slog.Logger
}

// NewRunner creates a new Runner with the given spawner.
func NewRunner(spawner Spawner, opts ...RunnerOption) *Runner {
	r := &Runner{spawner: spawner}

	for _, o := range opts {
		o(r)
	}

	return r
}

// Run executes command with args and blocks until it has exited and all piped output has been
// drained. A nil args slice runs the command without arguments.
//
// On success the Result holds the text of every captured slot. An abnormal termination is
// returned as a *SpawnError; failures to launch are returned as the Spawner reported them.
func (r *Runner) Run(ctx context.Context, command string, args []string, opts ...Option) (*Result, error) {
	return r.RunInvocation(ctx, NewInvocation(command, args, opts...))
}

// RunInvocation executes an already normalized invocation. See Run.
func (r *Runner) RunInvocation(ctx context.Context, inv *Invocation) (*Result, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	log := r.logger()
	opts := inv.Options

	for _, name := range []string{opts.Encoding.Stdout, opts.Encoding.Stderr} {
		if name == "" {
			continue
		}

		if err := transcode.Validate(name); err != nil {
			return nil, err
		}
	}

	stdio, plumb, err := resolveStdio(ctx, opts.Stdio, opts.Encoding)
	if err != nil {
		return nil, err
	}

	log.Debug("spawning process", "command", inv.String(),
		"stdin", stdio.Stdin.Kind, "stdout", stdio.Stdout.Kind, "stderr", stdio.Stderr.Kind)

	start := time.Now()

	proc, err := r.spawner.Spawn(ctx, inv.request(stdio))
	if err != nil {
		return nil, err
	}

	defer func() { _ = proc.Close() }()

	return r.settle(ctx, proc, inv, stdio, plumb, start, log)
}

// settle joins every completion signal of a run: one per drained output slot plus the
// process exit. It returns only once all of them have fired. The stdin feed is not part of
// the join; the run context it reads under is cancelled when settle returns.
func (r *Runner) settle(
	ctx context.Context,
	proc Process,
	inv *Invocation,
	stdio ResolvedStdio,
	plumb plumbing,
	start time.Time,
	log *slog.Logger,
) (*Result, error) {
	var (
		g       errgroup.Group
		status  ExitStatus
		waitErr error
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := startMultiplexer(runCtx, &g, proc, stdio, plumb, inv.Options.Encoding, log)

	g.Go(func() error {
		status, waitErr = proc.Wait()

		return waitErr
	})

	drainErr := g.Wait()
	duration := time.Since(start)

	if waitErr != nil {
		return nil, waitErr
	}

	log.Debug("process exited", "command", inv.Command, "pid", proc.Pid(),
		"status", status.String(), "duration", duration)

	stdout, stderr := mux.stdout.captured(), mux.stderr.captured()

	if !status.Success() {
		return nil, newSpawnError(inv.Argv(), status, stdout, stderr)
	}

	if drainErr != nil {
		return nil, fmt.Errorf("command %q: %w", inv.String(), drainErr)
	}

	return &Result{
		Stdout:   stdout,
		Stderr:   stderr,
		Pid:      proc.Pid(),
		Duration: duration,
	}, nil
}

// LookPath resolves an executable path using the underlying spawner's LookPath strategy.
func (r *Runner) LookPath(ctx context.Context, file string) (string, error) {
	return r.spawner.LookPath(ctx, file)
}

// TargetOS returns the operating system of the underlying spawner.
func (r *Runner) TargetOS() TargetOS {
	return r.spawner.TargetOS()
}

func (r *Runner) logger() *slog.Logger {
	if r.log != nil {
		return r.log
	}

	return Logger()
}

func (inv *Invocation) request(stdio ResolvedStdio) *SpawnRequest {
	return &SpawnRequest{
		Command:    inv.Command,
		Args:       inv.Args,
		Stdio:      stdio,
		Env:        inv.Options.Env,
		Dir:        inv.Options.Dir,
		Argv0:      inv.Options.Argv0,
		Detached:   inv.Options.Detached,
		Shell:      inv.Options.Shell,
		HideWindow: true,
	}
}
