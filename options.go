package childproc

import (
	"log/slog"
)

// Encodings selects per-slot text encodings for stdout and stderr. An empty name leaves
// the slot's bytes untouched.
type Encodings struct {
	Stdout string
	Stderr string
}

// Options configures a single run. The zero value pipes all three slots and applies no encoding.
//
// Only Stdio and Encoding are interpreted by the Runner; the remaining fields are forwarded to
// the Spawner as-is.
type Options struct {
	Stdio    StdioSpec
	Encoding Encodings

	Env      []string // Environment variables in "KEY=VALUE" format
	Dir      string   // Working directory for execution
	Argv0    string   // Overrides argv[0] seen by the child
	Detached bool     // Run the child in its own session / process group
	Shell    bool     // Run the command line through the system shell
}

// Option defines a functional option for a run.
type Option func(*Options)

// WithStdio sets the stdio configuration.
func WithStdio(spec StdioSpec) Option {
	return func(o *Options) {
		o.Stdio = spec
	}
}

// WithEncoding decodes both stdout and stderr using the named encoding.
func WithEncoding(name string) Option {
	return func(o *Options) {
		o.Encoding = Encodings{Stdout: name, Stderr: name}
	}
}

// WithStdoutEncoding decodes stdout using the named encoding.
func WithStdoutEncoding(name string) Option {
	return func(o *Options) {
		o.Encoding.Stdout = name
	}
}

// WithStderrEncoding decodes stderr using the named encoding.
func WithStderrEncoding(name string) Option {
	return func(o *Options) {
		o.Encoding.Stderr = name
	}
}

// WithEnv adds environment variables in "KEY=VALUE" format.
func WithEnv(kv ...string) Option {
	return func(o *Options) {
		o.Env = append(o.Env, kv...)
	}
}

// WithDir sets the working directory.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithArgv0 overrides the argv[0] the child sees.
func WithArgv0(argv0 string) Option {
	return func(o *Options) {
		o.Argv0 = argv0
	}
}

// WithDetached runs the child in its own session (process group on Windows).
func WithDetached() Option {
	return func(o *Options) {
		o.Detached = true
	}
}

// WithShell runs the command and its arguments, joined by spaces, through the system shell.
func WithShell() Option {
	return func(o *Options) {
		o.Shell = true
	}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger a Runner uses. A nil logger falls back to the package logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}
