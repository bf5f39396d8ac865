package log

// Canonical field name constants for structured logging.
const (
	FieldComponent = "component"
	FieldEvent     = "event"

	// Path fields
	FieldInstallPath = "install_path"
	FieldBinariesDir = "binaries_dir"
	FieldBackupDir   = "backup_dir"
	FieldBinary      = "binary"

	// Architecture fields
	FieldArch       = "arch"
	FieldSystemArch = "system_arch"
	FieldBinaryArch = "binary_arch"
	FieldProbe      = "probe"

	// Process fields
	FieldPID    = "pid"
	FieldSignal = "signal"
)
