package docker

import (
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/ruffel/childproc"
)

// execPlan is a SpawnRequest translated for the exec API.
type execPlan struct {
	options container.ExecOptions
	stdin   childproc.Target
	stdout  childproc.Target
	stderr  childproc.Target
}

// plan validates req and builds the exec options. Nothing is sent to the daemon.
func (s *Spawner) plan(req *childproc.SpawnRequest) (execPlan, error) {
	if req.Argv0 != "" {
		return execPlan{}, fmt.Errorf("argv0 in docker exec: %w", childproc.ErrNotSupported)
	}

	if req.Detached {
		return execPlan{}, fmt.Errorf("detached docker exec: %w", childproc.ErrNotSupported)
	}

	stdio := req.Stdio

	switch stdio.Stdin.Kind {
	case childproc.TargetPipe, childproc.TargetDiscard:
	case childproc.TargetHandle:
		if stdio.Stdin.Reader == nil {
			return execPlan{}, fmt.Errorf("%w: stdin handle is not readable", childproc.ErrInvalidStdio)
		}
	default:
		return execPlan{}, fmt.Errorf("stdin %v in docker exec: %w", stdio.Stdin.Kind, childproc.ErrNotSupported)
	}

	for _, slot := range []struct {
		name string
		t    childproc.Target
	}{{"stdout", stdio.Stdout}, {"stderr", stdio.Stderr}} {
		name, t := slot.name, slot.t

		switch t.Kind {
		case childproc.TargetPipe, childproc.TargetDiscard, childproc.TargetInherit:
		case childproc.TargetHandle:
			if t.Writer == nil {
				return execPlan{}, fmt.Errorf("%w: %s handle is not writable", childproc.ErrInvalidStdio, name)
			}
		default:
			return execPlan{}, fmt.Errorf("%s %v in docker exec: %w", name, t.Kind, childproc.ErrNotSupported)
		}
	}

	return execPlan{
		options: container.ExecOptions{
			User:         s.config.User,
			Cmd:          s.argv(req),
			Env:          req.Env,
			WorkingDir:   req.Dir,
			AttachStdin:  stdio.Stdin.Kind != childproc.TargetDiscard,
			AttachStdout: true,
			AttachStderr: true,
		},
		stdin:  stdio.Stdin,
		stdout: stdio.Stdout,
		stderr: stdio.Stderr,
	}, nil
}

func (s *Spawner) argv(req *childproc.SpawnRequest) []string {
	if !req.Shell {
		return append([]string{req.Command}, req.Args...)
	}

	bin, args := s.config.OS.ShellCommand(strings.Join(append([]string{req.Command}, req.Args...), " "))

	return append([]string{bin}, args...)
}

// outputWriter returns where stdcopy sends one slot, and the pipe reader to expose for a
// piped slot.
func outputWriter(t childproc.Target, inherit io.Writer) (io.Writer, *io.PipeReader, *io.PipeWriter) {
	switch t.Kind {
	case childproc.TargetPipe:
		pr, pw := io.Pipe()

		return pw, pr, pw
	case childproc.TargetHandle:
		return t.Writer, nil, nil
	case childproc.TargetInherit:
		return inherit, nil, nil
	default:
		return io.Discard, nil, nil
	}
}

// signalCodes maps 128+n exit codes back to the signal that produced them.
var signalCodes = map[int]string{
	128 + 1:  "SIGHUP",
	128 + 2:  "SIGINT",
	128 + 3:  "SIGQUIT",
	128 + 6:  "SIGABRT",
	128 + 9:  "SIGKILL",
	128 + 13: "SIGPIPE",
	128 + 14: "SIGALRM",
	128 + 15: "SIGTERM",
}

func exitStatus(code int) childproc.ExitStatus {
	if sig, ok := signalCodes[code]; ok {
		return childproc.ExitStatus{Signal: sig}
	}

	return childproc.ExitStatus{Code: code}
}
