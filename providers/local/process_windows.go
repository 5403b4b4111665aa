//go:build windows

package local

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/ruffel/childproc"
	"golang.org/x/sys/windows"
)

// configureSysProcAttr hides the console window and detaches the child if requested.
func configureSysProcAttr(cmd *exec.Cmd, req *childproc.SpawnRequest) {
	attr := &syscall.SysProcAttr{HideWindow: req.HideWindow}

	if req.Detached {
		attr.CreationFlags |= windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS
	}

	cmd.SysProcAttr = attr
}

// killProcessGroup kills the process tree rooted at the given PID.
//
// TODO(windows): Use Job Objects so descendants are tracked without shelling out.
func killProcessGroup(pid int) error {
	return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
}

// exitStatus reports the exit code; Windows processes are not terminated by named signals.
func exitStatus(state *os.ProcessState) childproc.ExitStatus {
	return childproc.ExitStatus{Code: state.ExitCode()}
}

func dupFd(fd int) (*os.File, error) {
	return nil, fmt.Errorf("fd %d: %w", fd, childproc.ErrNotSupported)
}
