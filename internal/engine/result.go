package engine

import "github.com/mendocinotim/EmbyFixer/internal/arch"

// ErrorKind classifies an operation failure so callers can branch without
// parsing messages.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNotFound
	KindBinariesNotFound
	KindPermissionDenied
	KindIncomplete
	KindUndetermined
	KindUnknownArchitecture
	KindAssetMissing
	KindBackupFailed
	KindIOError
	KindAlreadyRunning
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotFound:
		return "not_found"
	case KindBinariesNotFound:
		return "binaries_not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindIncomplete:
		return "incomplete"
	case KindUndetermined:
		return "undetermined"
	case KindUnknownArchitecture:
		return "unknown_architecture"
	case KindAssetMissing:
		return "asset_missing"
	case KindBackupFailed:
		return "backup_failed"
	case KindIOError:
		return "io_error"
	case KindAlreadyRunning:
		return "already_running"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of an engine operation. Failures never
// escape as faults; callers branch on OK and Kind and render Message.
type Result struct {
	OK      bool
	Kind    ErrorKind
	Message string
}

// Success returns a successful Result with a human-readable summary.
func Success(message string) Result {
	return Result{OK: true, Kind: KindNone, Message: message}
}

// Failure returns a failed Result with its classification.
func Failure(kind ErrorKind, message string) Result {
	return Result{OK: false, Kind: kind, Message: message}
}

// CheckResult reports an installation's compatibility state.
type CheckResult struct {
	Result
	SystemArch arch.Architecture
	BinaryArch arch.Architecture
	Compatible bool
	HasBackup  bool
}
