package model

// SourceKind selects the heat-source modelling path.
type SourceKind string

const (
	SourceLiquid SourceKind = "liquid"
	SourceGas    SourceKind = "gas"
)

// HeatSourceSpec describes the external heat source driving the cycle.
// Input only, never mutated by the core.
type HeatSourceSpec struct {
	Kind           SourceKind
	Fluid          string             // e.g. "Water" for liquid sources
	Composition    map[string]float64 // gas sources: species mass fractions
	InletTemp      float64            // K
	VolumetricFlow float64            // m³/s (kg/s when MassFlowMode is set)
	Pressure       float64            // Pa
	PinchDelta     float64            // K
	SuperheatDelta float64            // K
	MassFlowMode   bool               // gas sources: VolumetricFlow is a mass flow
}

// OperatingPoint is the cycle design derived from a HeatSourceSpec.
type OperatingPoint struct {
	Design         DesignParams
	MassFlow       float64 // working fluid, kg/s
	SourceMassFlow float64 // heat-source fluid, kg/s
	SourceOutlet   float64 // K
	AvailableHeat  float64 // kW
}

// BoundKind reports which upper bound constrained an optimizer stage.
type BoundKind string

const (
	BoundNominal BoundKind = "nominal"
	BoundSafety  BoundKind = "safety"
)

// SafetyLimits is the per-stage maximum auxiliary power in kW derived
// from a base operating point. Valid only for that operating point.
type SafetyLimits struct {
	PreheaterKW   float64
	SuperheaterKW float64
	MassFlow      float64 // base mass flow the limits were derived from
}

// OptimizationOutcome is the optimizer's final report.
type OptimizationOutcome struct {
	ID         string // evaluation identifier
	Allocation AuxLoad
	Result     *CycleResult // nil when even the fallback failed
	Objective  float64
	Feasible   bool
	Binding    map[string]BoundKind // stage name -> constraining bound
	Evaluated  int                  // number of candidate evaluations
	Infeasible int                  // candidates rejected during the search
}
