package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func TestIncOperation(t *testing.T) {
	before := counterValue(t, OperationsTotal.WithLabelValues("fix", "success"))
	IncOperation("fix", true)
	after := counterValue(t, OperationsTotal.WithLabelValues("fix", "success"))
	if after != before+1 {
		t.Errorf("expected counter to increase by 1, got %v -> %v", before, after)
	}

	before = counterValue(t, OperationsTotal.WithLabelValues("fix", "failure"))
	IncOperation("fix", false)
	after = counterValue(t, OperationsTotal.WithLabelValues("fix", "failure"))
	if after != before+1 {
		t.Errorf("expected failure counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestIncProbe(t *testing.T) {
	before := counterValue(t, DetectionProbesTotal.WithLabelValues("file", "conclusive"))
	IncProbe("file", "conclusive")
	after := counterValue(t, DetectionProbesTotal.WithLabelValues("file", "conclusive"))
	if after != before+1 {
		t.Errorf("expected probe counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestIncProcTerminate(t *testing.T) {
	before := counterValue(t, ProcTerminateTotal.WithLabelValues("SIGTERM", "sent"))
	IncProcTerminate("SIGTERM", "sent")
	after := counterValue(t, ProcTerminateTotal.WithLabelValues("SIGTERM", "sent"))
	if after != before+1 {
		t.Errorf("expected terminate counter to increase by 1, got %v -> %v", before, after)
	}
}
