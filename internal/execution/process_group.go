package execution

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// placeInProcessGroup makes command the leader of a new process group so the
// whole tree it spawns can be signaled at once.
func placeInProcessGroup(command *exec.Cmd) {
	if command.SysProcAttr == nil {
		command.SysProcAttr = &syscall.SysProcAttr{}
	}
	command.SysProcAttr.Setpgid = true
}

// signalProcessGroup signals the group led by command, falling back to the
// process itself when the group is already gone.
func signalProcessGroup(command *exec.Cmd, signal syscall.Signal) error {
	if command.Process == nil {
		return os.ErrProcessDone
	}
	if groupError := syscall.Kill(-command.Process.Pid, signal); groupError == nil {
		return nil
	}
	return command.Process.Signal(signal)
}

// groupTerminator sends SIGTERM to a process group and follows it with
// SIGKILL once the grace period elapses.
type groupTerminator struct {
	command    *exec.Cmd
	grace      time.Duration
	mutex      sync.Mutex
	terminated bool
	killTimer  *time.Timer
}

func newGroupTerminator(command *exec.Cmd, grace time.Duration) *groupTerminator {
	return &groupTerminator{command: command, grace: grace}
}

// Terminate signals the group and arms the SIGKILL escalation. It fits
// exec.Cmd.Cancel.
func (terminator *groupTerminator) Terminate() error {
	terminator.mutex.Lock()
	defer terminator.mutex.Unlock()
	if !terminator.terminated {
		terminator.terminated = true
		terminator.killTimer = time.AfterFunc(terminator.grace, terminator.kill)
	}
	return signalProcessGroup(terminator.command, syscall.SIGTERM)
}

// Release runs after the leader has been reaped. Members of a terminated
// group that outlived their leader are killed.
func (terminator *groupTerminator) Release() {
	terminator.mutex.Lock()
	defer terminator.mutex.Unlock()
	if !terminator.terminated {
		return
	}
	terminator.killTimer.Stop()
	terminator.kill()
}

func (terminator *groupTerminator) kill() {
	if terminator.command.Process == nil {
		return
	}
	_ = syscall.Kill(-terminator.command.Process.Pid, syscall.SIGKILL)
}
