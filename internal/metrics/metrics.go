// Package metrics provides Prometheus metrics for the fixer engine.
// Exposing them over a scrape endpoint is the caller's concern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts engine operations by kind and outcome.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embyfix_operations_total",
		Help: "Total engine operations, by operation and outcome (success/failure).",
	}, []string{"operation", "outcome"})

	// DetectionProbesTotal counts architecture detection probes by layer
	// and verdict (conclusive/inconclusive/error).
	DetectionProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embyfix_detection_probes_total",
		Help: "Total architecture detection probe attempts, by probe layer and verdict.",
	}, []string{"probe", "verdict"})

	// BackupFilesTotal counts files written into or restored from backups.
	BackupFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embyfix_backup_files_total",
		Help: "Total binaries copied by the backup store, by direction (backup/restore).",
	}, []string{"direction"})

	// ProcTerminateTotal counts supervisor termination attempts by signal
	// and result.
	ProcTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "embyfix_proc_terminate_total",
		Help: "Total supervised process termination attempts, by signal and result.",
	}, []string{"signal", "result"})
)

// IncOperation records one engine operation outcome.
func IncOperation(operation string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// IncProbe records one detection probe verdict.
func IncProbe(probe, verdict string) {
	DetectionProbesTotal.WithLabelValues(probe, verdict).Inc()
}

// IncBackupFile records one file moved by the backup store.
func IncBackupFile(direction string) {
	BackupFilesTotal.WithLabelValues(direction).Inc()
}

// IncProcTerminate records one termination attempt.
func IncProcTerminate(signal, result string) {
	ProcTerminateTotal.WithLabelValues(signal, result).Inc()
}
