package childproc

import (
	"context"
	"io"
	"strings"
)

// Builder provides a fluent API for constructing Invocations.
type Builder struct {
	inv *Invocation
}

// Cmd creates a new Builder for a command with the given name/path.
func Cmd(binary string) *Builder {
	return &Builder{
		inv: &Invocation{
			Command: binary,
		},
	}
}

// Arg adds a single argument.
func (b *Builder) Arg(arg string) *Builder {
	b.inv.Args = append(b.inv.Args, arg)
	return b
}

// Args adds multiple arguments.
func (b *Builder) Args(args ...string) *Builder {
	b.inv.Args = append(b.inv.Args, args...)
	return b
}

// Env adds an environment variable in "KEY=VALUE" format.
func (b *Builder) Env(key, value string) *Builder {
	return b.With(WithEnv(key + "=" + value))
}

// Dir sets the working directory.
func (b *Builder) Dir(dir string) *Builder {
	return b.With(WithDir(dir))
}

// Stdin feeds r into the standard input stream.
func (b *Builder) Stdin(r io.Reader) *Builder {
	b.inv.Options.Stdio.Stdin = FromReader(r)
	return b
}

// Input sets the standard input from a string.
func (b *Builder) Input(s string) *Builder {
	return b.Stdin(strings.NewReader(s))
}

// Stdout configures the standard output slot.
func (b *Builder) Stdout(s Stdio) *Builder {
	b.inv.Options.Stdio.Stdout = s
	return b
}

// Stderr configures the standard error slot.
func (b *Builder) Stderr(s Stdio) *Builder {
	b.inv.Options.Stdio.Stderr = s
	return b
}

// Encoding decodes both output streams using the named encoding.
func (b *Builder) Encoding(name string) *Builder {
	return b.With(WithEncoding(name))
}

// With applies arbitrary options.
func (b *Builder) With(opts ...Option) *Builder {
	for _, o := range opts {
		o(&b.inv.Options)
	}

	return b
}

// Build returns the constructed Invocation.
func (b *Builder) Build() *Invocation {
	return b.inv
}

// Run builds the invocation and executes it with r.
func (b *Builder) Run(ctx context.Context, r *Runner) (*Result, error) {
	return r.RunInvocation(ctx, b.inv)
}
