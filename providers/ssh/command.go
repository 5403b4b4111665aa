package ssh

import (
	"fmt"
	"strings"

	"github.com/ruffel/childproc"
)

// safeChars never need quoting in either dialect.
const safeChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_@%+=:,./-"

// quote renders arg as a single word for the remote shell: POSIX sh, or PowerShell on Windows.
func quote(arg string, isWindows bool) string {
	if arg != "" && strings.Trim(arg, safeChars) == "" {
		return arg
	}

	if isWindows {
		return "'" + strings.ReplaceAll(arg, "'", "''") + "'"
	}

	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// buildEnvPrefix exports env entries ahead of the command. OpenSSH defaults to
// PermitUserEnvironment=no, so session.Setenv cannot be relied upon.
func buildEnvPrefix(env []string, isWindows bool) string {
	var b strings.Builder

	for _, kv := range env {
		k, v, found := strings.Cut(kv, "=")
		if !found || k == "" {
			continue
		}

		if isWindows {
			fmt.Fprintf(&b, "$env:%s=%s; ", k, quote(v, true))
		} else {
			fmt.Fprintf(&b, "export %s=%s; ", k, quote(v, false))
		}
	}

	return b.String()
}

// buildDirPrefix changes into dir before running the command.
func buildDirPrefix(dir string, isWindows bool) string {
	if dir == "" {
		return ""
	}

	if isWindows {
		return "cd " + quote(dir, true) + "; "
	}

	return "cd " + quote(dir, false) + " && "
}

// buildCommandLine renders req as the single string an SSH "exec" request carries.
// In shell mode the command and its arguments are joined into a script and passed through
// verbatim, as the local spawner does.
func buildCommandLine(req *childproc.SpawnRequest, isWindows bool) string {
	var b strings.Builder

	b.WriteString(buildEnvPrefix(req.Env, isWindows))
	b.WriteString(buildDirPrefix(req.Dir, isWindows))

	if req.Shell {
		b.WriteString(strings.Join(append([]string{req.Command}, req.Args...), " "))

		return b.String()
	}

	b.WriteString(quote(req.Command, isWindows))

	for _, arg := range req.Args {
		b.WriteString(" ")
		b.WriteString(quote(arg, isWindows))
	}

	return b.String()
}
