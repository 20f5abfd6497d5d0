package props

import (
	"errors"
	"math"
)

var (
	errInvalidPair     = errors.New("unsupported input property pair")
	errInvalidTarget   = errors.New("unsupported target property")
	errOutsideEnvelope = errors.New("state outside the fluid envelope")
	errQualityRange    = errors.New("vapor quality outside [0,1]")
)

// saturationOK reports whether T lies on the modelled saturation curve.
func (f *fluid) saturationOK(t float64) bool {
	return t >= f.tMin && t <= f.tCrit-1.0
}

// stateAtTQ resolves a saturated state from temperature and quality.
func (f *fluid) stateAtTQ(t, q float64) (state, error) {
	if q < 0 || q > 1 {
		return state{}, errQualityRange
	}
	if !f.saturationOK(t) {
		return state{}, errOutsideEnvelope
	}
	p := f.satPressure(t)
	hf := f.cpLiquid * (t - tDatum)
	hfg := f.latentHeat(t)
	return state{
		t: t,
		p: p,
		h: hf + q*hfg,
		s: f.liquidEntropy(t) + q*hfg/t,
	}, nil
}

// stateAtPQ resolves a saturated state from pressure and quality.
func (f *fluid) stateAtPQ(p, q float64) (state, error) {
	ts := f.satTemperature(p)
	return f.stateAtTQ(ts, q)
}

// stateAtTP resolves a single-phase state. The phase follows from T against
// Tsat(P): below is compressed liquid, above is superheated vapor. States
// within a tenth of a kelvin of saturation are rejected as ambiguous.
func (f *fluid) stateAtTP(t, p float64) (state, error) {
	if t < f.tMin || t > f.tMax {
		return state{}, errOutsideEnvelope
	}
	if p <= 0 || p >= f.satPressure(f.tCrit-1.0) {
		return state{}, errOutsideEnvelope
	}
	ts := f.satTemperature(p)
	switch {
	case t < ts-0.1:
		return state{t: t, p: p, h: f.liquidEnthalpy(t, p), s: f.liquidEntropy(t)}, nil
	case t > ts+0.1:
		return state{t: t, p: p, h: f.vaporEnthalpy(t, p), s: f.vaporEntropy(t, p)}, nil
	default:
		return state{}, errOutsideEnvelope
	}
}

// stateAtPH resolves temperature and entropy from pressure and enthalpy.
// This is the lookup that diverges when an auxiliary heat stage requests an
// enthalpy beyond the superheat envelope.
func (f *fluid) stateAtPH(p, h float64) (state, error) {
	if p <= 0 || p >= f.satPressure(f.tCrit-1.0) {
		return state{}, errOutsideEnvelope
	}
	ts := f.satTemperature(p)
	hfSat := f.liquidEnthalpy(ts, p) // equals cpl·(ts−tDatum) at saturation
	hfg := f.latentHeat(ts)
	hgSat := hfSat + hfg

	switch {
	case h < hfSat:
		t, err := f.liquidTempAtPH(p, h)
		if err != nil {
			return state{}, err
		}
		return state{t: t, p: p, h: h, s: f.liquidEntropy(t)}, nil
	case h <= hgSat:
		q := (h - hfSat) / hfg
		return state{t: ts, p: p, h: h, s: f.liquidEntropy(ts) + q*hfg/ts}, nil
	default:
		t := ts + (h-hgSat)/f.cpVapor
		if t > f.tMax {
			return state{}, errOutsideEnvelope
		}
		return state{t: t, p: p, h: h, s: f.satVaporEntropy(ts) + f.cpVapor*math.Log(t/ts)}, nil
	}
}

// stateAtPS resolves temperature and enthalpy from pressure and entropy.
func (f *fluid) stateAtPS(p, s float64) (state, error) {
	if p <= 0 || p >= f.satPressure(f.tCrit-1.0) {
		return state{}, errOutsideEnvelope
	}
	ts := f.satTemperature(p)
	sfSat := f.liquidEntropy(ts)
	hfg := f.latentHeat(ts)
	sgSat := sfSat + hfg/ts

	switch {
	case s < sfSat:
		t := tDatum * math.Exp(s/f.cpLiquid)
		if t < f.tMin {
			return state{}, errOutsideEnvelope
		}
		return state{t: t, p: p, h: f.liquidEnthalpy(t, p), s: s}, nil
	case s <= sgSat:
		q := (s - sfSat) / (sgSat - sfSat)
		return state{t: ts, p: p, h: f.liquidEnthalpy(ts, p) + q*hfg, s: s}, nil
	default:
		t := ts * math.Exp((s-sgSat)/f.cpVapor)
		if t > f.tMax {
			return state{}, errOutsideEnvelope
		}
		return state{t: t, p: p, h: f.satVaporEnthalpy(ts) + f.cpVapor*(t-ts), s: s}, nil
	}
}

// liquidTempAtPH inverts the compressed-liquid enthalpy for temperature.
// The v·ΔP term couples T through Psat, so a short fixed-point iteration is
// used; it converges in a handful of steps for any subcritical pressure.
func (f *fluid) liquidTempAtPH(p, h float64) (float64, error) {
	t := tDatum + h/f.cpLiquid
	for i := 0; i < 8; i++ {
		if t < f.tMin-5 || t > f.tCrit {
			return 0, errOutsideEnvelope
		}
		next := tDatum + (h-f.vLiquid*(p-f.satPressure(t)))/f.cpLiquid
		if math.Abs(next-t) < 1e-9 {
			return next, nil
		}
		t = next
	}
	if t < f.tMin || t > f.tCrit-1.0 {
		return 0, errOutsideEnvelope
	}
	return t, nil
}

// density returns the mass density for a resolved state.
func (f *fluid) density(st state) (float64, error) {
	ts := f.satTemperature(st.p)
	if st.t < ts {
		return 1.0 / f.vLiquid, nil
	}
	return st.p / (f.gasConst * st.t), nil
}
