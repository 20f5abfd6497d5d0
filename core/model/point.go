package model

// Location identifies one of the four canonical cycle state points.
type Location int

const (
	PumpInlet Location = iota
	PumpOutlet
	TurbineInlet
	TurbineOutlet
)

// String returns a human-readable representation of the cycle location.
func (l Location) String() string {
	switch l {
	case PumpInlet:
		return "pump_inlet"
	case PumpOutlet:
		return "pump_outlet"
	case TurbineInlet:
		return "turbine_inlet"
	case TurbineOutlet:
		return "turbine_outlet"
	default:
		return "unknown"
	}
}

// CyclePoint is a fully resolved thermodynamic state of the working fluid.
// Temperature in K, pressure in Pa, enthalpy/entropy in J/kg and J/(kg·K),
// specific exergy in J/kg. Points are immutable once computed.
type CyclePoint struct {
	Temperature float64
	Pressure    float64
	Enthalpy    float64
	Entropy     float64
	Exergy      float64
}

// ReferenceState is the dead-state datum used for every exergy evaluation.
// Enthalpy and entropy are the working fluid's values at (T0, P0).
type ReferenceState struct {
	Temperature float64
	Pressure    float64
	Enthalpy    float64
	Entropy     float64
}

// SpecificExergy returns ψ = (h − h0) − T0·(s − s0) for the given state.
func (r ReferenceState) SpecificExergy(h, s float64) float64 {
	return (h - r.Enthalpy) - r.Temperature*(s-r.Entropy)
}
