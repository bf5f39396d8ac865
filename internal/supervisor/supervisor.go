// Package supervisor tracks at most one externally spawned helper process
// at a time. Start, Stop and Status serialize on a single lock; stopping
// escalates from SIGTERM to SIGKILL after a bounded grace period, and the
// whole process group is signalled so helper children die with it.
package supervisor

import (
	"os/exec"
	"sync"
	"time"

	"github.com/mendocinotim/EmbyFixer/internal/log"
	"github.com/mendocinotim/EmbyFixer/internal/metrics"
)

// DefaultGrace is how long a process gets after SIGTERM before SIGKILL.
const DefaultGrace = 5 * time.Second

// Handle identifies a supervised process.
type Handle struct {
	PID int
}

// Status is the supervisor's externally visible state.
type Status struct {
	Running bool
	PID     int
}

// Supervisor owns the single process slot.
type Supervisor struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	waitCh chan error
	grace  time.Duration
}

// New returns a Supervisor with the given grace period; zero or negative
// means DefaultGrace.
func New(grace time.Duration) *Supervisor {
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &Supervisor{grace: grace}
}

// Start spawns the command in its own process group and tracks it. When a
// process is already running it returns (nil, nil): an expected no-op, not
// an error. A spawn failure is returned as an error with nothing tracked.
func (s *Supervisor) Start(name string, args ...string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := log.WithComponent("supervisor")

	s.reapLocked()
	if s.cmd != nil {
		logger.Info().Int(log.FieldPID, s.cmd.Process.Pid).Msg("process already running, start is a no-op")
		return nil, nil
	}

	cmd := exec.Command(name, args...) // #nosec G204 -- command is caller-chosen by design
	setProcGroup(cmd)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	waitCh := make(chan error, 1)
	s.cmd = cmd
	s.waitCh = waitCh
	go func() {
		waitCh <- cmd.Wait()
		s.mu.Lock()
		if s.cmd == cmd {
			s.cmd = nil
		}
		s.mu.Unlock()
	}()

	logger.Info().Int(log.FieldPID, cmd.Process.Pid).Str("command", name).Msg("process started")
	return &Handle{PID: cmd.Process.Pid}, nil
}

// Stop terminates the tracked process: SIGTERM to the group, then SIGKILL
// after the grace period. It returns true when the process was stopped or
// none was running.
func (s *Supervisor) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := log.WithComponent("supervisor")

	s.reapLocked()
	if s.cmd == nil {
		return true
	}
	cmd, waitCh := s.cmd, s.waitCh

	if err := signalGroupTerm(cmd); err != nil {
		metrics.IncProcTerminate("SIGTERM", "error")
		logger.Warn().Err(err).Int(log.FieldPID, cmd.Process.Pid).Msg("SIGTERM failed")
	} else {
		metrics.IncProcTerminate("SIGTERM", "sent")
	}

	select {
	case <-waitCh:
		// Exited within the grace period.
	case <-time.After(s.grace):
		if err := signalGroupKill(cmd); err != nil {
			metrics.IncProcTerminate("SIGKILL", "error")
			logger.Error().Err(err).Int(log.FieldPID, cmd.Process.Pid).Msg("SIGKILL failed")
			return false
		}
		metrics.IncProcTerminate("SIGKILL", "sent")
		<-waitCh
	}

	s.cmd = nil
	logger.Info().Int(log.FieldPID, cmd.Process.Pid).Msg("process stopped")
	return true
}

// Status reports whether a process is currently tracked, clearing a stale
// handle first if the child has already exited.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reapLocked()
	if s.cmd == nil {
		return Status{}
	}
	return Status{Running: true, PID: s.cmd.Process.Pid}
}

// reapLocked clears the slot if the child has exited but the reaper
// goroutine has not yet taken the lock. Callers hold s.mu.
func (s *Supervisor) reapLocked() {
	if s.cmd == nil {
		return
	}
	select {
	case <-s.waitCh:
		s.cmd = nil
	default:
	}
}
