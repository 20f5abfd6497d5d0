// Package source maps external heat-source conditions onto a feasible cycle
// operating point. Mass flow is an output, not an input: the resolver first
// solves the cycle at unit flow to discover the evaporator's specific
// enthalpy rise, then sizes the working-fluid flow from the heat available
// between the source inlet and the pinch-limited outlet.
package source

import (
	"errors"
	"fmt"

	"github.com/enerflow/orc/core/cycle"
	"github.com/enerflow/orc/core/logger"
	"github.com/enerflow/orc/core/model"
	"github.com/enerflow/orc/core/props"
)

// ErrCycleInfeasible marks heat-source conditions that cannot drive the
// cycle: a saturation target too close to the condensing temperature or
// beyond the critical point, non-positive available heat, or a
// non-positive evaporator enthalpy rise.
var ErrCycleInfeasible = errors.New("cycle infeasible for heat source")

// InfeasibleError carries the reason a heat source cannot drive the cycle.
type InfeasibleError struct {
	Reason string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("source: %s", e.Reason)
}

// Unwrap ties the error to the ErrCycleInfeasible sentinel.
func (e *InfeasibleError) Unwrap() error { return ErrCycleInfeasible }

// MixtureResolver folds a gas composition into a property-oracle fluid
// identifier. Implemented by the infra props package.
type MixtureResolver func(composition map[string]float64) (string, error)

// Resolver derives cycle design parameters from heat-source conditions.
type Resolver struct {
	oracle  props.Oracle
	solver  *cycle.Solver
	mixture MixtureResolver
	log     logger.Logger
}

// NewResolver returns a Resolver sharing the given solver's oracle.
// mixture may be nil when gas sources are not used.
func NewResolver(oracle props.Oracle, solver *cycle.Solver, mixture MixtureResolver, log logger.Logger) *Resolver {
	if log == nil {
		log = nopLogger{}
	}
	return &Resolver{oracle: oracle, solver: solver, mixture: mixture, log: log}
}

// Inputs fixes the cycle-side conditions the resolver works against.
type Inputs struct {
	WorkingFluid      string
	CondensingTemp    float64 // K
	PumpEfficiency    float64
	TurbineEfficiency float64
	Reference         model.ReferenceState
}

// Resolve derives the operating point for the given heat source.
func (r *Resolver) Resolve(spec model.HeatSourceSpec, in Inputs) (*model.OperatingPoint, error) {
	srcFluid, err := r.sourceFluidID(spec)
	if err != nil {
		return nil, err
	}

	// Source properties at the inlet condition.
	rho, err := r.oracle.Lookup(srcFluid, props.Dmass, props.Temperature, spec.InletTemp, props.Pressure, spec.Pressure)
	if err != nil {
		return nil, fmt.Errorf("source density: %w", err)
	}
	cp, err := r.oracle.Lookup(srcFluid, props.Cpmass, props.Temperature, spec.InletTemp, props.Pressure, spec.Pressure)
	if err != nil {
		return nil, fmt.Errorf("source heat capacity: %w", err)
	}
	srcMassFlow := rho * spec.VolumetricFlow
	if spec.Kind == model.SourceGas && spec.MassFlowMode {
		srcMassFlow = spec.VolumetricFlow
	}

	// Saturation target below the source inlet by pinch plus superheat.
	tSatTarget := spec.InletTemp - spec.PinchDelta - spec.SuperheatDelta
	tCrit, err := r.oracle.CriticalTemperature(in.WorkingFluid)
	if err != nil {
		return nil, fmt.Errorf("critical temperature: %w", err)
	}
	if tSatTarget >= tCrit {
		return nil, &InfeasibleError{Reason: fmt.Sprintf(
			"saturation target %.2f K at or above critical temperature %.2f K", tSatTarget, tCrit)}
	}
	if tSatTarget <= in.CondensingTemp+1.0 {
		return nil, &InfeasibleError{Reason: fmt.Sprintf(
			"saturation target %.2f K not above condensing temperature %.2f K + 1 K", tSatTarget, in.CondensingTemp)}
	}

	pEvap, err := r.oracle.Lookup(in.WorkingFluid, props.Pressure, props.Temperature, tSatTarget, props.Quality, 1)
	if err != nil {
		return nil, fmt.Errorf("evaporating pressure: %w", err)
	}

	design := model.DesignParams{
		Fluid:             in.WorkingFluid,
		CondensingTemp:    in.CondensingTemp,
		EvaporatingPress:  pEvap,
		TurbineInletTemp:  tSatTarget + spec.SuperheatDelta,
		PumpEfficiency:    in.PumpEfficiency,
		TurbineEfficiency: in.TurbineEfficiency,
	}

	// Heat available down to the pinch-limited outlet temperature.
	tOut := tSatTarget + spec.PinchDelta
	heatKW := srcMassFlow * cp * (spec.InletTemp - tOut) / 1e3
	if heatKW <= 0 {
		return nil, &InfeasibleError{Reason: fmt.Sprintf("non-positive available heat %.4g kW", heatKW)}
	}

	// First pass at unit flow to size the specific enthalpy rise.
	st, err := r.solver.Solve(design, in.Reference, 1.0, model.AuxLoad{})
	if err != nil {
		return nil, fmt.Errorf("sizing pass: %w", err)
	}
	riseKJ := (st.Points[2].Enthalpy - st.Points[1].Enthalpy) / 1e3
	if riseKJ <= 0 {
		return nil, &InfeasibleError{Reason: fmt.Sprintf("non-positive evaporator enthalpy rise %.4g kJ/kg", riseKJ)}
	}

	op := &model.OperatingPoint{
		Design:         design,
		MassFlow:       heatKW / riseKJ,
		SourceMassFlow: srcMassFlow,
		SourceOutlet:   tOut,
		AvailableHeat:  heatKW,
	}
	r.log.Debugw("operating point resolved", map[string]any{
		"evaporating_pressure_pa": pEvap,
		"turbine_inlet_k":         design.TurbineInletTemp,
		"mass_flow_kg_s":          op.MassFlow,
		"available_heat_kw":       heatKW,
	})
	return op, nil
}

// Evaluate resolves the operating point and completes the second pass at the
// sized mass flow, returning the scored cycle.
func (r *Resolver) Evaluate(spec model.HeatSourceSpec, in Inputs, aux model.AuxLoad) (*model.CycleResult, *model.OperatingPoint, error) {
	op, err := r.Resolve(spec, in)
	if err != nil {
		return nil, nil, err
	}
	res, err := r.EvaluateAt(op, spec.InletTemp, in.Reference, aux)
	if err != nil {
		return nil, nil, err
	}
	return res, op, nil
}

// EvaluateAt runs the cycle at an already-resolved operating point. The
// operating point pins the mass flow, so repeated calls with different
// auxiliary loads stay comparable.
func (r *Resolver) EvaluateAt(op *model.OperatingPoint, sourceInlet float64, ref model.ReferenceState, aux model.AuxLoad) (*model.CycleResult, error) {
	st, err := r.solver.Solve(op.Design, ref, op.MassFlow, aux)
	if err != nil {
		return nil, err
	}
	return cycle.Balance(st, ref, op.MassFlow, &cycle.SourceTemps{
		Inlet:  sourceInlet,
		Outlet: op.SourceOutlet,
	})
}

func (r *Resolver) sourceFluidID(spec model.HeatSourceSpec) (string, error) {
	switch spec.Kind {
	case model.SourceGas:
		if r.mixture == nil {
			return "", &InfeasibleError{Reason: "gas source configured without a mixture resolver"}
		}
		id, err := r.mixture(spec.Composition)
		if err != nil {
			return "", fmt.Errorf("gas composition: %w", err)
		}
		return id, nil
	case model.SourceLiquid, "":
		return spec.Fluid, nil
	default:
		return "", &InfeasibleError{Reason: fmt.Sprintf("unknown heat source kind %q", spec.Kind)}
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
