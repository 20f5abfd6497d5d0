// Package props implements the core property oracle with in-process
// correlations: an Antoine saturation curve, incompressible liquid with a
// v·ΔP work term, saturation-referenced superheated vapor and Watson latent
// heat scaling. The contract is self-consistency (round-trips invert
// exactly, monotone trends hold), not agreement with any external property
// library. States outside a fluid's envelope fail with ResolutionError.
package props

import (
	"math"
	"strings"

	coreprops "github.com/enerflow/orc/core/props"
)

// CorrelationOracle resolves thermophysical states from fitted correlations.
// The zero value is ready to use and safe for concurrent lookups.
type CorrelationOracle struct{}

// NewCorrelationOracle returns the built-in oracle.
func NewCorrelationOracle() *CorrelationOracle { return &CorrelationOracle{} }

// CriticalTemperature implements props.Oracle.
func (o *CorrelationOracle) CriticalTemperature(name string) (float64, error) {
	if f, ok := workingFluids[name]; ok {
		return f.tCrit, nil
	}
	if l, ok := liquidHTFs[name]; ok {
		// quadratic density fit loses validity near tMax; treat it as the
		// critical bound for guard purposes
		return l.tMax, nil
	}
	return 0, &coreprops.ResolutionError{Fluid: name, Reason: "unknown fluid"}
}

// Lookup implements props.Oracle.
func (o *CorrelationOracle) Lookup(name string, target coreprops.Prop, in1 coreprops.Prop, v1 float64, in2 coreprops.Prop, v2 float64) (float64, error) {
	fail := func(reason string) (float64, error) {
		return 0, &coreprops.ResolutionError{
			Fluid: name, Target: target,
			In1: in1, V1: v1, In2: in2, V2: v2,
			Reason: reason,
		}
	}

	if f, ok := workingFluids[name]; ok {
		v, err := o.lookupWorking(f, target, in1, v1, in2, v2)
		if err != nil {
			return fail(err.Error())
		}
		return v, nil
	}
	if l, ok := liquidHTFs[name]; ok {
		v, err := o.lookupLiquidHTF(l, target, in1, v1, in2, v2)
		if err != nil {
			return fail(err.Error())
		}
		return v, nil
	}
	if strings.Contains(name, "[") {
		mix, err := parseGasMixture(name)
		if err != nil {
			return fail(err.Error())
		}
		v, err := o.lookupGas(mix, target, in1, v1, in2, v2)
		if err != nil {
			return fail(err.Error())
		}
		return v, nil
	}
	return fail("unknown fluid")
}

// state is a resolved (T, P, h, s) tuple used internally.
type state struct {
	t, p, h, s float64
}

func (o *CorrelationOracle) lookupWorking(f *fluid, target, in1 coreprops.Prop, v1 float64, in2 coreprops.Prop, v2 float64) (float64, error) {
	// normalize input ordering so each pair is handled once
	a, av, b, bv := in1, v1, in2, v2
	if a > b {
		a, av, b, bv = b, bv, a, av
	}

	var st state
	var err error
	switch {
	case a == coreprops.Temperature && b == coreprops.Quality:
		st, err = f.stateAtTQ(av, bv)
	case a == coreprops.Pressure && b == coreprops.Quality:
		st, err = f.stateAtPQ(av, bv)
	case a == coreprops.Temperature && b == coreprops.Pressure:
		st, err = f.stateAtTP(av, bv)
	case a == coreprops.Pressure && b == coreprops.Hmass:
		st, err = f.stateAtPH(av, bv)
	case a == coreprops.Pressure && b == coreprops.Smass:
		st, err = f.stateAtPS(av, bv)
	default:
		return 0, errInvalidPair
	}
	if err != nil {
		return 0, err
	}

	switch target {
	case coreprops.Temperature:
		return st.t, nil
	case coreprops.Pressure:
		return st.p, nil
	case coreprops.Hmass:
		return st.h, nil
	case coreprops.Smass:
		return st.s, nil
	case coreprops.Dmass:
		return f.density(st)
	case coreprops.Cpmass:
		if st.t < f.satTemperature(st.p) {
			return f.cpLiquid, nil
		}
		return f.cpVapor, nil
	default:
		return 0, errInvalidTarget
	}
}

func (o *CorrelationOracle) lookupLiquidHTF(l *liquidHTF, target, in1 coreprops.Prop, v1 float64, in2 coreprops.Prop, v2 float64) (float64, error) {
	a, av, b, bv := in1, v1, in2, v2
	if a > b {
		a, av, b, bv = b, bv, a, av
	}
	if a != coreprops.Temperature || b != coreprops.Pressure {
		return 0, errInvalidPair
	}
	t, p := av, bv
	if t < l.tMin || t > l.tMax {
		return 0, errOutsideEnvelope
	}
	if !l.subcooled(t, p) {
		return 0, errOutsideEnvelope
	}
	switch target {
	case coreprops.Dmass:
		return l.density(t), nil
	case coreprops.Cpmass:
		return l.cp, nil
	case coreprops.Hmass:
		return l.cp * (t - tDatum), nil
	case coreprops.Smass:
		return l.cp * math.Log(t/tDatum), nil
	case coreprops.Temperature:
		return t, nil
	case coreprops.Pressure:
		return p, nil
	default:
		return 0, errInvalidTarget
	}
}

func (o *CorrelationOracle) lookupGas(mix *gasMixture, target, in1 coreprops.Prop, v1 float64, in2 coreprops.Prop, v2 float64) (float64, error) {
	a, av, b, bv := in1, v1, in2, v2
	if a > b {
		a, av, b, bv = b, bv, a, av
	}
	if a != coreprops.Temperature || b != coreprops.Pressure {
		return 0, errInvalidPair
	}
	t, p := av, bv
	if t <= 0 || p <= 0 {
		return 0, errOutsideEnvelope
	}
	switch target {
	case coreprops.Dmass:
		return p / (mix.gasConst * t), nil
	case coreprops.Cpmass:
		return mix.cp, nil
	case coreprops.Hmass:
		return mix.cp * (t - tDatum), nil
	case coreprops.Smass:
		return mix.cp*math.Log(t/tDatum) - mix.gasConst*math.Log(p/101325.0), nil
	default:
		return 0, errInvalidTarget
	}
}
