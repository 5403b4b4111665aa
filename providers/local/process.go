package local

import (
	"os"
	"os/exec"
	"sync"

	"github.com/ruffel/childproc"
)

var _ childproc.Process = (*Process)(nil)

// Process implements childproc.Process for local command execution.
// It wraps `*exec.Cmd` and owns the parent ends of any pipes created for it.
type Process struct {
	spawner *Spawner
	req     *childproc.SpawnRequest
	execCmd *exec.Cmd

	// Parent ends of piped slots; nil when the slot is not piped.
	stdin  *os.File
	stdout *os.File
	stderr *os.File

	// Result related fields
	status  childproc.ExitStatus
	waitErr error
	mu      sync.RWMutex
	done    chan struct{}
	closed  bool
}
