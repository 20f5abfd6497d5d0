package model

import "math"

// DesignParams fixes the cycle operating point handed to the state solver.
type DesignParams struct {
	Fluid             string  // working fluid identifier
	CondensingTemp    float64 // K
	EvaporatingPress  float64 // Pa
	TurbineInletTemp  float64 // K
	PumpEfficiency    float64 // isentropic, (0,1]
	TurbineEfficiency float64 // isentropic, (0,1]
}

// AuxLoad is the auxiliary heat requested for the two power-addition stages.
// Values are duties in kW; zero disables a stage.
type AuxLoad struct {
	PreheaterKW   float64
	SuperheaterKW float64
}

// Total returns the combined requested auxiliary duty in kW.
func (a AuxLoad) Total() float64 { return a.PreheaterKW + a.SuperheaterKW }

// Indicator is a KPI value whose denominator may legitimately be zero.
// Undefined indicators are reported explicitly instead of propagating NaN.
type Indicator struct {
	Value   float64
	Defined bool
}

// Ratio builds an Indicator from num/den, undefined when den is zero.
func Ratio(num, den float64) Indicator {
	if den == 0 {
		return Indicator{}
	}
	return Indicator{Value: num / den, Defined: true}
}

// OrNaN returns the value, or NaN when the indicator is undefined.
// Intended for serialization surfaces only; core callers branch on Defined.
func (i Indicator) OrNaN() float64 {
	if !i.Defined {
		return math.NaN()
	}
	return i.Value
}

// ComponentBalance carries the per-component energy and exergy flows.
// Work and duty in kW, destruction in kW.
type ComponentBalance struct {
	WorkKW        float64
	DutyKW        float64
	ReversibleKW  float64
	DestructionKW float64
	ExergyEff     Indicator
	HeatExergyKW  float64
	LMTD          float64
	SurfaceTempK  float64
	ConstraintHit bool    // stage duty was capped below the request
	RequestedKW   float64 // requested stage duty before capping
}

// CycleResult is one complete scored evaluation of the cycle.
type CycleResult struct {
	Points   [4]CyclePoint
	MassFlow float64 // working fluid, kg/s

	Pump        ComponentBalance
	Evaporator  ComponentBalance
	Turbine     ComponentBalance
	Condenser   ComponentBalance
	Preheater   *ComponentBalance // nil when the stage is inactive
	Superheater *ComponentBalance // nil when the stage is inactive

	NetWorkKW  float64
	HeatInKW   float64 // evaporator + realized stage duties
	HeatOutKW  float64 // condenser duty, negative
	ThermalEff Indicator
	ExergyEff  Indicator

	// Heat-source side, populated when resolved from a HeatSourceSpec.
	SourceInletTempK  float64
	SourceOutletTempK float64
}

// TotalDestructionKW sums exergy destruction over all active components.
func (r CycleResult) TotalDestructionKW() float64 {
	total := r.Pump.DestructionKW + r.Evaporator.DestructionKW +
		r.Turbine.DestructionKW + r.Condenser.DestructionKW
	if r.Preheater != nil {
		total += r.Preheater.DestructionKW
	}
	if r.Superheater != nil {
		total += r.Superheater.DestructionKW
	}
	return total
}
