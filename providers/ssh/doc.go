// Package ssh provides a childproc.Spawner that runs commands on a remote host over SSH.
//
// Each spawn opens a new session on a shared "golang.org/x/crypto/ssh" client. Piped slots
// map onto the session's stdin, stdout and stderr channels, so the Runner drains remote
// output exactly as it drains a local child. A remote process killed by a signal reports
// the signal name through the SSH "exit-signal" request, which keeps the SIGTERM-is-success
// policy intact across the wire.
//
// Slots that need a parent file descriptor (Fd, or Inherit on stdin) are not supported, and
// neither are Argv0 or Detached.
//
// Usage:
//
//	spawner, err := ssh.New(
//		ssh.WithHost("example.com"),
//		ssh.WithUser("deploy"),
//		ssh.WithKeyPath("/home/deploy/.ssh/id_ed25519"),
//		ssh.WithHostKeyCallback(callback),
//	)
//	res, err := childproc.NewRunner(spawner).Run(ctx, "uname", []string{"-a"})
package ssh
