package props

import "math"

// fluid holds the correlation constants of one working fluid.
//
// Saturation pressure follows a three-constant Antoine form
// ln Psat = antA − antB/(T − antC), which inverts in closed form.
// The liquid is treated as incompressible with a v·ΔP enthalpy term;
// superheated vapor is referenced to the saturation line with constant cp.
// Latent heat scales with the Watson relation off hfg0 at tBoil.
type fluid struct {
	name  string
	tCrit float64 // K
	tBoil float64 // normal boiling point, K
	tMin  float64 // lower envelope bound, K
	tMax  float64 // upper envelope bound, K

	antA float64
	antB float64
	antC float64

	cpLiquid float64 // J/(kg·K)
	cpVapor  float64 // J/(kg·K)
	vLiquid  float64 // m³/kg
	hfg0     float64 // latent heat at tBoil, J/kg
	gasConst float64 // specific gas constant R/M, J/(kg·K)
}

// datum temperature for liquid enthalpy/entropy.
const tDatum = 273.15

// satPressure returns Psat(T) in Pa. Callers must pre-check the envelope.
func (f *fluid) satPressure(t float64) float64 {
	return math.Exp(f.antA - f.antB/(t-f.antC))
}

// satTemperature returns Tsat(P) in K.
func (f *fluid) satTemperature(p float64) float64 {
	return f.antB/(f.antA-math.Log(p)) + f.antC
}

// latentHeat returns hfg(T) in J/kg via the Watson relation.
func (f *fluid) latentHeat(t float64) float64 {
	return f.hfg0 * math.Pow((f.tCrit-t)/(f.tCrit-f.tBoil), 0.38)
}

// liquidEnthalpy returns h of the (possibly compressed) liquid at (T, P).
func (f *fluid) liquidEnthalpy(t, p float64) float64 {
	return f.cpLiquid*(t-tDatum) + f.vLiquid*(p-f.satPressure(t))
}

// liquidEntropy returns s of the liquid at T; pressure-independent under
// the incompressible assumption.
func (f *fluid) liquidEntropy(t float64) float64 {
	return f.cpLiquid * math.Log(t/tDatum)
}

// satVaporEnthalpy returns hg at saturation temperature T.
func (f *fluid) satVaporEnthalpy(t float64) float64 {
	return f.cpLiquid*(t-tDatum) + f.latentHeat(t)
}

// satVaporEntropy returns sg at saturation temperature T.
func (f *fluid) satVaporEntropy(t float64) float64 {
	return f.liquidEntropy(t) + f.latentHeat(t)/t
}

// vaporEnthalpy returns h of superheated vapor at (T, P) with T ≥ Tsat(P).
func (f *fluid) vaporEnthalpy(t, p float64) float64 {
	ts := f.satTemperature(p)
	return f.satVaporEnthalpy(ts) + f.cpVapor*(t-ts)
}

// vaporEntropy returns s of superheated vapor at (T, P).
func (f *fluid) vaporEntropy(t, p float64) float64 {
	ts := f.satTemperature(p)
	return f.satVaporEntropy(ts) + f.cpVapor*math.Log(t/ts)
}

// workingFluids are the correlation-fitted fluids the oracle ships with.
// Antoine constants were fitted against published saturation data; the
// saturation pressure reproduces tabulated values within a few percent
// over the stated envelope.
var workingFluids = map[string]*fluid{
	"R245fa": {
		name:     "R245fa",
		tCrit:    427.16,
		tBoil:    288.29,
		tMin:     240.0,
		tMax:     426.0,
		antA:     21.298,
		antB:     2377.5,
		antC:     45.0,
		cpLiquid: 1322.0,
		cpVapor:  980.0,
		vLiquid:  7.47e-4,
		hfg0:     196300.0,
		gasConst: 62.02,
	},
	"R134a": {
		name:     "R134a",
		tCrit:    374.21,
		tBoil:    247.08,
		tMin:     200.0,
		tMax:     373.0,
		antA:     21.586,
		antB:     2234.0,
		antC:     25.0,
		cpLiquid: 1425.0,
		cpVapor:  900.0,
		vLiquid:  7.72e-4,
		hfg0:     217000.0,
		gasConst: 81.49,
	},
}
