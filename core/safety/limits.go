// Package safety derives auxiliary-power ceilings from an operating point.
// The cap is expressed as a specific-enthalpy headroom: pushing more than
// ThresholdKJKg into a kilogram of working fluid drives downstream property
// resolution toward the edge of the vapor envelope, so the absolute limit
// scales linearly with mass flow.
package safety

import "github.com/enerflow/orc/core/model"

// DefaultThresholdKJKg is the specific-enthalpy headroom applied per stage
// when no threshold is configured.
const DefaultThresholdKJKg = 80.0

// DefaultFloorKW keeps vanishing mass flows from collapsing a limit to
// zero, which would make every non-zero allocation infeasible.
const DefaultFloorKW = 1e-4

// Config tunes limit derivation. Zero values select the defaults.
type Config struct {
	ThresholdKJKg float64 // per-stage specific enthalpy cap, kJ/kg
	FloorKW       float64 // minimum derived limit, kW
	Disabled      bool    // skip safety bounding entirely
}

func (c Config) threshold() float64 {
	if c.ThresholdKJKg > 0 {
		return c.ThresholdKJKg
	}
	return DefaultThresholdKJKg
}

func (c Config) floor() float64 {
	if c.FloorKW > 0 {
		return c.FloorKW
	}
	return DefaultFloorKW
}

// Derive computes per-stage power limits for the given operating point.
// Limits are only valid at the mass flow they were derived from; the
// returned MassFlow records it for staleness checks.
func Derive(op *model.OperatingPoint, cfg Config) model.SafetyLimits {
	limit := cfg.threshold() * op.MassFlow
	if floor := cfg.floor(); limit < floor {
		limit = floor
	}
	return model.SafetyLimits{
		PreheaterKW:   limit,
		SuperheaterKW: limit,
		MassFlow:      op.MassFlow,
	}
}

// Clamp bounds an allocation stage-wise against nominal and safety limits,
// recording which bound constrained each stage. Safety wins ties so that a
// coincident bound is reported as the harder constraint.
func Clamp(alloc model.AuxLoad, nominal, limits model.SafetyLimits, cfg Config) (model.AuxLoad, map[string]model.BoundKind) {
	binding := make(map[string]model.BoundKind, 2)
	clamp := func(v, nom, safe float64, stage string) float64 {
		bound := nom
		kind := model.BoundNominal
		if !cfg.Disabled && safe <= nom {
			bound = safe
			kind = model.BoundSafety
		}
		if v >= bound {
			binding[stage] = kind
			return bound
		}
		return v
	}
	out := model.AuxLoad{
		PreheaterKW:   clamp(alloc.PreheaterKW, nominal.PreheaterKW, limits.PreheaterKW, "preheater"),
		SuperheaterKW: clamp(alloc.SuperheaterKW, nominal.SuperheaterKW, limits.SuperheaterKW, "superheater"),
	}
	return out, binding
}
