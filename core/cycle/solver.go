// Package cycle solves the four canonical state points of the closed-loop
// Rankine cycle and derives per-component energy and exergy balances.
// All state resolution goes through the property oracle; any request the
// oracle cannot resolve surfaces as a props.ResolutionError unless the
// failing lookup belongs to an optional auxiliary heat stage, which then
// degrades to its base state instead of aborting the evaluation.
package cycle

import (
	"fmt"

	"github.com/enerflow/orc/core/logger"
	"github.com/enerflow/orc/core/model"
	"github.com/enerflow/orc/core/props"
)

// superheaterCritMargin keeps the boosted turbine-inlet temperature below
// the critical point; preheaterSatMargin keeps the preheater exit subcooled.
const (
	superheaterCritMargin = 10.0 // K
	preheaterSatMargin    = 5.0  // K
)

// Solver resolves cycle state points against a property oracle.
type Solver struct {
	oracle props.Oracle
	log    logger.Logger
}

// NewSolver returns a Solver. A nil logger disables stage diagnostics.
func NewSolver(oracle props.Oracle, log logger.Logger) *Solver {
	if log == nil {
		log = nopLogger{}
	}
	return &Solver{oracle: oracle, log: log}
}

// Reference resolves the dead-state datum for the given fluid. It must be
// recomputed whenever the reference condition or the fluid changes.
func (s *Solver) Reference(fluid string, t0, p0 float64) (model.ReferenceState, error) {
	h0, err := s.oracle.Lookup(fluid, props.Hmass, props.Temperature, t0, props.Pressure, p0)
	if err != nil {
		return model.ReferenceState{}, fmt.Errorf("reference enthalpy: %w", err)
	}
	s0, err := s.oracle.Lookup(fluid, props.Smass, props.Temperature, t0, props.Pressure, p0)
	if err != nil {
		return model.ReferenceState{}, fmt.Errorf("reference entropy: %w", err)
	}
	return model.ReferenceState{Temperature: t0, Pressure: p0, Enthalpy: h0, Entropy: s0}, nil
}

// States carries the resolved cycle points plus auxiliary-stage outcomes.
// Points 2b and 3b coincide with 2 and the turbine inlet when the stages
// are inactive.
type States struct {
	Points     [4]model.CyclePoint // pump inlet/outlet, turbine inlet/outlet
	PreheatOut model.CyclePoint    // state after the preheater (2b)
	EvapOut    model.CyclePoint    // evaporator exit at the design inlet temperature

	PreheatDutyKW      float64
	SuperheatDutyKW    float64
	PreheatRequestKW   float64
	SuperheatRequestKW float64
	PreheatCapped      bool
	SuperheatCapped    bool
}

// Solve computes the four canonical points for the given design and mass
// flow. Auxiliary stage duties in aux are requests; the realized duties are
// reported in the returned States after envelope capping.
func (s *Solver) Solve(params model.DesignParams, ref model.ReferenceState, massFlow float64, aux model.AuxLoad) (*States, error) {
	fl := params.Fluid
	st := &States{PreheatRequestKW: aux.PreheaterKW, SuperheatRequestKW: aux.SuperheaterKW}

	// Point 1: saturated liquid at the condensing temperature.
	p1, err := s.oracle.Lookup(fl, props.Pressure, props.Temperature, params.CondensingTemp, props.Quality, 0)
	if err != nil {
		return nil, fmt.Errorf("point 1 pressure: %w", err)
	}
	h1, err := s.oracle.Lookup(fl, props.Hmass, props.Temperature, params.CondensingTemp, props.Quality, 0)
	if err != nil {
		return nil, fmt.Errorf("point 1 enthalpy: %w", err)
	}
	s1, err := s.oracle.Lookup(fl, props.Smass, props.Temperature, params.CondensingTemp, props.Quality, 0)
	if err != nil {
		return nil, fmt.Errorf("point 1 entropy: %w", err)
	}
	st.Points[0] = s.point(ref, params.CondensingTemp, p1, h1, s1)

	// Point 2: isentropic compression blended by pump efficiency.
	pEvap := params.EvaporatingPress
	h2s, err := s.oracle.Lookup(fl, props.Hmass, props.Pressure, pEvap, props.Smass, s1)
	if err != nil {
		return nil, fmt.Errorf("point 2 isentropic enthalpy: %w", err)
	}
	h2 := h1 + (h2s-h1)/params.PumpEfficiency
	t2, err := s.oracle.Lookup(fl, props.Temperature, props.Pressure, pEvap, props.Hmass, h2)
	if err != nil {
		return nil, fmt.Errorf("point 2 temperature: %w", err)
	}
	s2, err := s.oracle.Lookup(fl, props.Smass, props.Pressure, pEvap, props.Hmass, h2)
	if err != nil {
		return nil, fmt.Errorf("point 2 entropy: %w", err)
	}
	st.Points[1] = s.point(ref, t2, pEvap, h2, s2)

	// Optional preheater stage between the pump and the evaporator.
	if err := s.applyPreheat(fl, params, ref, st, massFlow, aux.PreheaterKW); err != nil {
		return nil, err
	}

	// Turbine inlet at the specified temperature, saturated vapor when the
	// requested superheat is below resolution.
	if err := s.resolveTurbineInlet(fl, params, ref, st, massFlow, aux); err != nil {
		return nil, err
	}
	p3 := st.Points[2]

	// Point 4: isentropic expansion blended by turbine efficiency.
	h4s, err := s.oracle.Lookup(fl, props.Hmass, props.Pressure, p1, props.Smass, p3.Entropy)
	if err != nil {
		return nil, fmt.Errorf("point 4 isentropic enthalpy: %w", err)
	}
	h4 := p3.Enthalpy - params.TurbineEfficiency*(p3.Enthalpy-h4s)
	t4, err := s.oracle.Lookup(fl, props.Temperature, props.Pressure, p1, props.Hmass, h4)
	if err != nil {
		return nil, fmt.Errorf("point 4 temperature: %w", err)
	}
	s4, err := s.oracle.Lookup(fl, props.Smass, props.Pressure, p1, props.Hmass, h4)
	if err != nil {
		return nil, fmt.Errorf("point 4 entropy: %w", err)
	}
	st.Points[3] = s.point(ref, t4, p1, h4, s4)

	return st, nil
}

func (s *Solver) point(ref model.ReferenceState, t, p, h, sEnt float64) model.CyclePoint {
	return model.CyclePoint{
		Temperature: t,
		Pressure:    p,
		Enthalpy:    h,
		Entropy:     sEnt,
		Exergy:      ref.SpecificExergy(h, sEnt),
	}
}

// applyPreheat raises the pump-exit enthalpy by the requested duty, capped
// so the stage exit stays at least preheaterSatMargin below saturation.
// Resolution failures degrade to no preheat.
func (s *Solver) applyPreheat(fl string, params model.DesignParams, ref model.ReferenceState, st *States, massFlow, requestKW float64) error {
	st.PreheatOut = st.Points[1]
	if requestKW <= 0 || massFlow <= 0 {
		return nil
	}
	pEvap := params.EvaporatingPress
	p2 := st.Points[1]

	tSat, err := s.oracle.Lookup(fl, props.Temperature, props.Pressure, pEvap, props.Quality, 1)
	if err != nil {
		return fmt.Errorf("evaporating saturation temperature: %w", err)
	}
	tCap := tSat - preheaterSatMargin

	hTarget := p2.Enthalpy + requestKW*1e3/massFlow
	tTarget, err := s.oracle.Lookup(fl, props.Temperature, props.Pressure, pEvap, props.Hmass, hTarget)
	if err != nil {
		s.log.Warnf("preheater request %0.4g kW unresolvable, stage disabled: %v", requestKW, err)
		st.PreheatCapped = true
		return nil
	}

	h2b, t2b := hTarget, tTarget
	if tTarget > tCap {
		t2b = tCap
		h2b, err = s.oracle.Lookup(fl, props.Hmass, props.Temperature, tCap, props.Pressure, pEvap)
		if err != nil {
			return fmt.Errorf("preheater cap state: %w", err)
		}
		st.PreheatCapped = true
	}
	s2b, err := s.oracle.Lookup(fl, props.Smass, props.Pressure, pEvap, props.Hmass, h2b)
	if err != nil {
		return fmt.Errorf("preheater exit entropy: %w", err)
	}
	st.PreheatOut = s.point(ref, t2b, pEvap, h2b, s2b)
	st.PreheatDutyKW = massFlow * (h2b - p2.Enthalpy) / 1e3
	return nil
}

// resolveTurbineInlet computes the evaporator exit and applies the
// superheater boost. Per the redirect policy, heat displaced from the
// evaporator by the preheater is re-applied at the turbine inlet together
// with the superheater request.
func (s *Solver) resolveTurbineInlet(fl string, params model.DesignParams, ref model.ReferenceState, st *States, massFlow float64, aux model.AuxLoad) error {
	pEvap := params.EvaporatingPress

	tSat, err := s.oracle.Lookup(fl, props.Temperature, props.Pressure, pEvap, props.Quality, 1)
	if err != nil {
		return fmt.Errorf("evaporator exit temperature: %w", err)
	}
	hg, err := s.oracle.Lookup(fl, props.Hmass, props.Pressure, pEvap, props.Quality, 1)
	if err != nil {
		return fmt.Errorf("evaporator exit enthalpy: %w", err)
	}
	sg, err := s.oracle.Lookup(fl, props.Smass, props.Pressure, pEvap, props.Quality, 1)
	if err != nil {
		return fmt.Errorf("evaporator exit entropy: %w", err)
	}
	// Base turbine-inlet state at the design temperature. The heat source
	// carries the working fluid all the way to this state, so it is also
	// the evaporator exit the energy balance accounts against.
	base := s.point(ref, tSat, pEvap, hg, sg)
	if params.TurbineInletTemp > tSat+1.0 {
		hBase, err := s.oracle.Lookup(fl, props.Hmass, props.Temperature, params.TurbineInletTemp, props.Pressure, pEvap)
		if err != nil {
			return fmt.Errorf("turbine inlet enthalpy: %w", err)
		}
		sBase, err := s.oracle.Lookup(fl, props.Smass, props.Pressure, pEvap, props.Hmass, hBase)
		if err != nil {
			return fmt.Errorf("turbine inlet entropy: %w", err)
		}
		base = s.point(ref, params.TurbineInletTemp, pEvap, hBase, sBase)
	}
	st.EvapOut = base

	boostKW := st.PreheatDutyKW + aux.SuperheaterKW
	if boostKW <= 0 || massFlow <= 0 {
		st.Points[2] = base
		return nil
	}

	tCrit, err := s.oracle.CriticalTemperature(fl)
	if err != nil {
		return fmt.Errorf("critical temperature: %w", err)
	}
	tCap := tCrit - superheaterCritMargin

	hBoosted := base.Enthalpy + boostKW*1e3/massFlow
	tBoosted, err := s.oracle.Lookup(fl, props.Temperature, props.Pressure, pEvap, props.Hmass, hBoosted)
	if err != nil {
		s.log.Warnf("superheater boost %0.4g kW unresolvable, boost disabled: %v", boostKW, err)
		st.Points[2] = base
		st.SuperheatCapped = true
		return nil
	}

	t3, h3 := tBoosted, hBoosted
	if tBoosted > tCap {
		t3 = tCap
		h3, err = s.oracle.Lookup(fl, props.Hmass, props.Temperature, tCap, props.Pressure, pEvap)
		if err != nil {
			return fmt.Errorf("superheater cap state: %w", err)
		}
		st.SuperheatCapped = true
	}
	if h3 < base.Enthalpy {
		t3, h3 = base.Temperature, base.Enthalpy
	}
	s3, err := s.oracle.Lookup(fl, props.Smass, props.Pressure, pEvap, props.Hmass, h3)
	if err != nil {
		return fmt.Errorf("turbine inlet entropy: %w", err)
	}
	st.Points[2] = s.point(ref, t3, pEvap, h3, s3)
	st.SuperheatDutyKW = massFlow * (h3 - base.Enthalpy) / 1e3
	return nil
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
