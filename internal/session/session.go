// Package session holds the process-wide workflow state: whether the main
// workflow has been activated, and the initial-state snapshot used to roll
// an entire session back. It is an explicit object owned by the long-lived
// caller and passed down, not a global.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mendocinotim/EmbyFixer/internal/backup"
	"github.com/mendocinotim/EmbyFixer/internal/engine"
	"github.com/mendocinotim/EmbyFixer/internal/log"
	"github.com/mendocinotim/EmbyFixer/internal/supervisor"
)

// State tracks one session. A single mutex guards every field.
type State struct {
	sup *supervisor.Supervisor

	mu          sync.Mutex
	active      bool
	snapshotDir string
}

// New returns a State bound to the given supervisor.
func New(sup *supervisor.Supervisor) *State {
	return &State{sup: sup}
}

// Activate marks the workflow as started.
func (s *State) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	logger := log.WithComponent("session")
	logger.Info().Msg("session activated")
}

// Deactivate marks the workflow as stopped and stops any running helper
// process.
func (s *State) Deactivate() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()

	// The supervisor has its own lock; never hold ours across its calls.
	s.sup.Stop()
	logger := log.WithComponent("session")
	logger.Info().Msg("session deactivated")
}

// IsActive reports whether the workflow has been activated.
func (s *State) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// InitialBackupDir returns the recorded snapshot directory, clearing the
// reference first if the directory has vanished.
func (s *State) InitialBackupDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healLocked()
	return s.snapshotDir
}

// SnapshotInitial captures the whole installation tree so the session can
// be fully rolled back later. At most one snapshot is recorded per
// activation; a second call is a no-op success.
func (s *State) SnapshotInitial(ctx context.Context, root string) engine.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := log.WithComponentFromContext(ctx, "session")

	s.healLocked()
	if s.snapshotDir != "" {
		return engine.Success(fmt.Sprintf("initial state already captured at %s", s.snapshotDir))
	}

	dir, err := backup.CreateInitialSnapshot(root)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldInstallPath, root).Msg("initial snapshot failed")
		return engine.Failure(engine.KindIOError, fmt.Sprintf("failed to capture initial state: %v", err))
	}
	s.snapshotDir = dir
	return engine.Success(fmt.Sprintf("initial state captured at %s", dir))
}

// RollbackInitial restores the whole installation tree from the recorded
// snapshot, then discards the snapshot and clears the reference.
func (s *State) RollbackInitial(ctx context.Context, root string) engine.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger := log.WithComponentFromContext(ctx, "session")

	s.healLocked()
	if s.snapshotDir == "" {
		return engine.Failure(engine.KindNotFound, "No initial state backup found")
	}

	if err := backup.RestoreInitialSnapshot(s.snapshotDir, root); err != nil {
		logger.Error().Err(err).Str(log.FieldInstallPath, root).Msg("initial state rollback failed")
		return engine.Failure(engine.KindIOError, fmt.Sprintf("failed to restore initial state: %v", err))
	}
	if err := backup.DiscardInitialSnapshot(s.snapshotDir); err != nil {
		logger.Warn().Err(err).Str(log.FieldBackupDir, s.snapshotDir).Msg("could not discard snapshot after rollback")
	}
	s.snapshotDir = ""
	return engine.Success("installation restored to initial state")
}

// DiscardInitial drops the snapshot without restoring it.
func (s *State) DiscardInitial() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshotDir == "" {
		return nil
	}
	if err := backup.DiscardInitialSnapshot(s.snapshotDir); err != nil {
		return err
	}
	s.snapshotDir = ""
	return nil
}

// healLocked clears the snapshot reference when the directory no longer
// exists. Callers hold the lock.
func (s *State) healLocked() {
	if s.snapshotDir == "" {
		return
	}
	if _, err := os.Stat(s.snapshotDir); err != nil {
		logger := log.WithComponent("session")
		logger.Warn().
			Str(log.FieldBackupDir, s.snapshotDir).
			Msg("recorded snapshot has vanished, clearing reference")
		s.snapshotDir = ""
	}
}
