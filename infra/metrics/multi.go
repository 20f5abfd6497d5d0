package metrics

import (
	coremetrics "github.com/enerflow/orc/core/metrics"
	"github.com/enerflow/orc/core/model"
)

// MultiSink fans telemetry out to multiple recorders.
type MultiSink struct {
	Sinks []coremetrics.Recorder
}

// NewMultiSink creates a MultiSink with the provided recorders.
func NewMultiSink(sinks ...coremetrics.Recorder) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) CycleEvaluated(feasible bool, seconds float64) {
	for _, s := range m.Sinks {
		s.CycleEvaluated(feasible, seconds)
	}
}

func (m *MultiSink) OutcomeRecorded(out *model.OptimizationOutcome) {
	for _, s := range m.Sinks {
		s.OutcomeRecorded(out)
	}
}
