package childproc

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Invocation is a normalized call: what to run and how. It is built once per run.
type Invocation struct {
	Command string   // Binary name or path to executable
	Args    []string // Arguments to pass to the binary
	Options Options
}

// NewInvocation normalizes a call into an Invocation. A nil args slice means "no arguments"
// and no options means the zero Options (all three streams piped).
func NewInvocation(command string, args []string, opts ...Option) *Invocation {
	inv := &Invocation{
		Command: command,
		Args:    append([]string{}, args...),
	}

	for _, o := range opts {
		o(&inv.Options)
	}

	return inv
}

// ParseCommand parses a shell-like command line into an Invocation using shlex.
// It handles quoted arguments correctly.
func ParseCommand(line string, opts ...Option) (*Invocation, error) {
	parts, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return NewInvocation(parts[0], parts[1:], opts...), nil
}

// Validate checks that the invocation names a binary.
func (inv *Invocation) Validate() error {
	if inv == nil {
		return errors.New("invocation cannot be nil")
	}

	if strings.TrimSpace(inv.Command) == "" {
		return ErrEmptyCommand
	}

	return nil
}

// Argv returns the command followed by its arguments.
func (inv *Invocation) Argv() []string {
	return append([]string{inv.Command}, inv.Args...)
}

// String returns a simplified, shell-quoted string representation of the command.
func (inv *Invocation) String() string {
	return quoteArgv(inv.Argv())
}

func quoteArgv(argv []string) string {
	var b strings.Builder

	for i, arg := range argv {
		if i > 0 {
			b.WriteString(" ")
		}

		if strings.ContainsAny(arg, " \t\"") {
			fmt.Fprintf(&b, "%q", arg)
		} else {
			b.WriteString(arg)
		}
	}

	return b.String()
}

// SpawnRequest is what a Spawner receives: the command plus stdio already reduced to targets
// the primitive understands. Fields other than Stdio are passed through from Options.
type SpawnRequest struct {
	Command  string
	Args     []string
	Stdio    ResolvedStdio
	Env      []string // Extra "KEY=VALUE" entries added to the parent's environment
	Dir      string
	Argv0    string
	Detached bool
	Shell    bool

	// HideWindow suppresses the console window on platforms that would otherwise show one.
	// Always set by the Runner.
	HideWindow bool
}

// Result holds the outcome of a successful run.
type Result struct {
	// Stdout and Stderr are set only for slots that were captured (piped with no custom
	// writer attached). A nil pointer means the slot was not captured.
	Stdout *string
	Stderr *string

	Pid      int
	Duration time.Duration
}

// ExitStatus describes how a process terminated.
type ExitStatus struct {
	Code   int    // Exit code; meaningless when Signal is set
	Signal string // Terminating signal name (e.g. "SIGTERM"), empty if the process exited
}

// Exited reports whether the process exited on its own rather than by a signal.
func (s ExitStatus) Exited() bool {
	return s.Signal == ""
}

// Success reports whether the termination counts as success: exit code 0, or
// termination by SIGTERM, which callers use to stop long-running children.
func (s ExitStatus) Success() bool {
	if s.Exited() {
		return s.Code == 0
	}

	return s.Signal == "SIGTERM"
}

func (s ExitStatus) String() string {
	if s.Exited() {
		return fmt.Sprintf("exit code %d", s.Code)
	}

	return "signal " + s.Signal
}

// TargetOS identifies the operating system processes are spawned on.
type TargetOS int

const (
	// OSUnknown represents an unidentified operating system.
	OSUnknown TargetOS = iota
	// OSLinux represents the Linux kernel.
	OSLinux
	// OSWindows represents Microsoft Windows.
	OSWindows
	// OSDarwin represents macOS (Darwin).
	OSDarwin
)

func (os TargetOS) String() string {
	switch os {
	case OSLinux:
		return "linux"
	case OSWindows:
		return "windows"
	case OSDarwin:
		return "darwin"
	case OSUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ShellCommand returns the binary and arguments that run script inside the system shell:
// "/bin/sh -c <script>" for UNIX-likes and "cmd.exe /d /s /c <script>" for Windows.
func (os TargetOS) ShellCommand(script string) (string, []string) {
	switch os {
	case OSWindows:
		return "cmd.exe", []string{"/d", "/s", "/c", script}
	case OSLinux, OSDarwin, OSUnknown:
		fallthrough
	default:
		return "/bin/sh", []string{"-c", script}
	}
}

// ParseTargetOS converts a typical OS string (e.g., "linux", "darwin") to a TargetOS.
func ParseTargetOS(osStr string) TargetOS {
	switch strings.ToLower(strings.TrimSpace(osStr)) {
	case "linux":
		return OSLinux
	case "windows", "windows_nt":
		return OSWindows
	case "darwin", "macos":
		return OSDarwin
	default:
		return OSUnknown
	}
}

// DetectLocalOS returns the TargetOS of the current running process.
func DetectLocalOS() TargetOS {
	return ParseTargetOS(runtime.GOOS)
}
