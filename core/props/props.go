// Package props defines the thermophysical property oracle consumed by the
// cycle solver. The oracle resolves a target property from two independent
// state variables; any request outside the fluid's valid envelope fails with
// a ResolutionError. Implementations live under infra/props.
package props

// Prop identifies a thermophysical property.
type Prop int

const (
	Temperature Prop = iota // K
	Pressure                // Pa
	Hmass                   // J/kg
	Smass                   // J/(kg·K)
	Quality                 // vapor mass fraction, 0..1
	Dmass                   // kg/m³
	Cpmass                  // J/(kg·K)
)

// String returns the short property symbol.
func (p Prop) String() string {
	switch p {
	case Temperature:
		return "T"
	case Pressure:
		return "P"
	case Hmass:
		return "H"
	case Smass:
		return "S"
	case Quality:
		return "Q"
	case Dmass:
		return "D"
	case Cpmass:
		return "C"
	default:
		return "?"
	}
}

// Oracle resolves thermophysical states. Lookups are pure CPU-bound
// computations; implementations must be safe for concurrent use.
type Oracle interface {
	// Lookup returns the target property of the fluid at the state fixed by
	// the two independent inputs (in1, v1) and (in2, v2).
	Lookup(fluid string, target Prop, in1 Prop, v1 float64, in2 Prop, v2 float64) (float64, error)

	// CriticalTemperature returns the fluid's critical temperature in K.
	CriticalTemperature(fluid string) (float64, error)
}
