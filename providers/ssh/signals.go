package ssh

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/ruffel/childproc"
	"golang.org/x/crypto/ssh"
)

// sshSignals maps local signals onto the names RFC 4254 defines for the "signal" request.
var sshSignals = map[os.Signal]ssh.Signal{
	os.Interrupt:    ssh.SIGINT,
	os.Kill:         ssh.SIGKILL,
	syscall.SIGTERM: ssh.SIGTERM,
	syscall.SIGHUP:  ssh.SIGHUP,
	syscall.SIGQUIT: ssh.SIGQUIT,
	syscall.SIGABRT: ssh.SIGABRT,
	syscall.SIGALRM: ssh.SIGALRM,
	syscall.SIGPIPE: ssh.SIGPIPE,
}

func toSSHSignal(sig os.Signal) (ssh.Signal, error) {
	s, ok := sshSignals[sig]
	if !ok {
		return "", fmt.Errorf("signal %v over ssh: %w", sig, childproc.ErrNotSupported)
	}

	return s, nil
}

// exitStatus converts the result of session.Wait. Errors that carry no exit information,
// such as a dropped connection, are returned as-is.
func exitStatus(err error) (childproc.ExitStatus, error) {
	if err == nil {
		return childproc.ExitStatus{}, nil
	}

	var exitErr *ssh.ExitError
	if !errors.As(err, &exitErr) {
		return childproc.ExitStatus{}, err
	}

	if sig := exitErr.Signal(); sig != "" {
		return childproc.ExitStatus{Signal: signalName(sig)}, nil
	}

	return childproc.ExitStatus{Code: exitErr.ExitStatus()}, nil
}

// signalName normalizes an RFC 4254 signal name ("TERM") to the conventional "SIGTERM".
func signalName(sig string) string {
	if strings.HasPrefix(sig, "SIG") {
		return sig
	}

	return "SIG" + sig
}
