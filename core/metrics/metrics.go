// Package metrics defines the telemetry surface the evaluation pipeline
// reports through. Implementations live under infra/metrics.
package metrics

import "github.com/enerflow/orc/core/model"

// Recorder receives evaluation and optimization telemetry.
type Recorder interface {
	// CycleEvaluated is called once per candidate evaluation.
	CycleEvaluated(feasible bool, seconds float64)
	// OutcomeRecorded is called with the optimizer's final report.
	OutcomeRecorded(outcome *model.OptimizationOutcome)
}

// Nop discards all telemetry.
type Nop struct{}

func (Nop) CycleEvaluated(bool, float64)               {}
func (Nop) OutcomeRecorded(*model.OptimizationOutcome) {}
