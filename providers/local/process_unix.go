//go:build unix

package local

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/ruffel/childproc"
	"golang.org/x/sys/unix"
)

// configureSysProcAttr puts detached children in a new session. Consoles are never
// created on UNIX-likes, so HideWindow needs no handling here.
func configureSysProcAttr(cmd *exec.Cmd, req *childproc.SpawnRequest) {
	if req.Detached {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	}
}

// killProcessGroup kills the process group with the given PID.
func killProcessGroup(pid int) error {
	return unix.Kill(-pid, unix.SIGKILL)
}

// exitStatus decodes the wait status, naming the terminating signal if there is one.
func exitStatus(state *os.ProcessState) childproc.ExitStatus {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return childproc.ExitStatus{Code: state.ExitCode()}
	}

	name := unix.SignalName(ws.Signal())
	if name == "" {
		name = "SIG" + strconv.Itoa(int(ws.Signal()))
	}

	return childproc.ExitStatus{Code: -1, Signal: name}
}

// dupFd duplicates a parent descriptor for handing to a child.
func dupFd(fd int) (*os.File, error) {
	nfd, err := unix.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("dup fd %d: %w", fd, err)
	}

	return os.NewFile(uintptr(nfd), "fd"+strconv.Itoa(fd)), nil
}
