package source

import (
	"errors"
	"math"
	"testing"

	"github.com/enerflow/orc/core/cycle"
	"github.com/enerflow/orc/core/model"
	infraprops "github.com/enerflow/orc/infra/props"
)

func testResolver(t *testing.T) (*Resolver, Inputs) {
	t.Helper()
	oracle := infraprops.NewCorrelationOracle()
	solver := cycle.NewSolver(oracle, nil)
	ref, err := solver.Reference("R245fa", 298.15, 101325)
	if err != nil {
		t.Fatalf("reference state: %v", err)
	}
	r := NewResolver(oracle, solver, infraprops.MixtureID, nil)
	return r, Inputs{
		WorkingFluid:      "R245fa",
		CondensingTemp:    313.15,
		PumpEfficiency:    0.75,
		TurbineEfficiency: 0.85,
		Reference:         ref,
	}
}

func waterSource() model.HeatSourceSpec {
	return model.HeatSourceSpec{
		Kind:           model.SourceLiquid,
		Fluid:          "Water",
		InletTemp:      373.15,
		VolumetricFlow: 0.01,
		Pressure:       2.0e5,
		PinchDelta:     5,
		SuperheatDelta: 5,
	}
}

func TestResolveLiquidSource(t *testing.T) {
	r, in := testResolver(t)

	op, err := r.Resolve(waterSource(), in)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// Saturation target 363.15 K, turbine inlet and source outlet 368.15 K.
	if got, want := op.Design.TurbineInletTemp, 368.15; math.Abs(got-want) > 1e-9 {
		t.Fatalf("turbine inlet = %.4f K, want %.4f", got, want)
	}
	if got, want := op.SourceOutlet, 368.15; math.Abs(got-want) > 1e-9 {
		t.Fatalf("source outlet = %.4f K, want %.4f", got, want)
	}
	if op.Design.EvaporatingPress < 0.9e6 || op.Design.EvaporatingPress > 1.1e6 {
		t.Fatalf("evaporating pressure = %.0f Pa, want ~1.0 MPa", op.Design.EvaporatingPress)
	}
	if op.SourceMassFlow < 9.0 || op.SourceMassFlow > 10.0 {
		t.Fatalf("source mass flow = %.3f kg/s, want ~9.5", op.SourceMassFlow)
	}
	if op.AvailableHeat <= 0 || op.MassFlow <= 0 {
		t.Fatalf("non-positive sizing: Q=%.3f kW, m=%.4f kg/s", op.AvailableHeat, op.MassFlow)
	}
}

func TestResolveSizesMassFlowFromAvailableHeat(t *testing.T) {
	r, in := testResolver(t)

	op, err := r.Resolve(waterSource(), in)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	st, err := r.solver.Solve(op.Design, in.Reference, op.MassFlow, model.AuxLoad{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	rise := (st.Points[2].Enthalpy - st.Points[1].Enthalpy) / 1e3
	if got := op.MassFlow * rise; math.Abs(got-op.AvailableHeat) > 1e-6*op.AvailableHeat {
		t.Fatalf("sized duty = %.6f kW, want available heat %.6f", got, op.AvailableHeat)
	}
}

func TestResolveScalesWithVolumetricFlow(t *testing.T) {
	r, in := testResolver(t)

	base, err := r.Resolve(waterSource(), in)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	double := waterSource()
	double.VolumetricFlow *= 2
	big, err := r.Resolve(double, in)
	if err != nil {
		t.Fatalf("Resolve doubled: %v", err)
	}
	if got, want := big.MassFlow, 2*base.MassFlow; math.Abs(got-want) > 1e-9*want {
		t.Fatalf("mass flow = %.6f kg/s, want linear scaling to %.6f", got, want)
	}
	if big.Design != base.Design {
		t.Fatalf("design parameters changed with flow: %+v vs %+v", big.Design, base.Design)
	}
}

func TestResolveIdempotent(t *testing.T) {
	r, in := testResolver(t)

	first, err := r.Resolve(waterSource(), in)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := r.Resolve(waterSource(), in)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if *first != *second {
		t.Fatalf("resolution not deterministic:\n%+v\n%+v", *first, *second)
	}
}

func TestResolveGasSource(t *testing.T) {
	r, in := testResolver(t)

	spec := model.HeatSourceSpec{
		Kind: model.SourceGas,
		Composition: map[string]float64{
			"CO2":      0.11,
			"Nitrogen": 0.69,
			"Water":    0.20,
		},
		InletTemp:      420,
		VolumetricFlow: 2.0,
		Pressure:       101325,
		PinchDelta:     5,
		SuperheatDelta: 5,
		MassFlowMode:   true,
	}
	op, err := r.Resolve(spec, in)
	if err != nil {
		t.Fatalf("Resolve gas: %v", err)
	}
	if got, want := op.SourceMassFlow, 2.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("mass-flow mode: source flow = %.4f kg/s, want %.4f", got, want)
	}
	if got, want := op.Design.TurbineInletTemp, 415.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("turbine inlet = %.4f K, want %.4f", got, want)
	}
	if op.MassFlow <= 0 {
		t.Fatalf("mass flow = %.4f kg/s, want positive", op.MassFlow)
	}

	// Volumetric mode sizes the source flow from the ideal-gas density.
	spec.MassFlowMode = false
	spec.VolumetricFlow = 3.0
	vol, err := r.Resolve(spec, in)
	if err != nil {
		t.Fatalf("Resolve gas volumetric: %v", err)
	}
	if vol.SourceMassFlow <= 0 || vol.SourceMassFlow >= 3.0 {
		t.Fatalf("volumetric source flow = %.4f kg/s, want within (0, 3) at %.0f K", vol.SourceMassFlow, spec.InletTemp)
	}
}

func TestResolveGasWithoutMixtureResolver(t *testing.T) {
	_, in := testResolver(t)
	oracle := infraprops.NewCorrelationOracle()
	r := NewResolver(oracle, cycle.NewSolver(oracle, nil), nil, nil)

	spec := model.HeatSourceSpec{
		Kind:           model.SourceGas,
		Composition:    map[string]float64{"Nitrogen": 1.0},
		InletTemp:      420,
		VolumetricFlow: 1.0,
		Pressure:       101325,
		PinchDelta:     5,
		SuperheatDelta: 5,
	}
	if _, err := r.Resolve(spec, in); !errors.Is(err, ErrCycleInfeasible) {
		t.Fatalf("err = %v, want ErrCycleInfeasible", err)
	}
}

func TestResolveInfeasibleTargets(t *testing.T) {
	r, in := testResolver(t)

	// Too cold: saturation target at or below condensing temperature + 1 K.
	cold := waterSource()
	cold.InletTemp = 320
	if _, err := r.Resolve(cold, in); !errors.Is(err, ErrCycleInfeasible) {
		t.Fatalf("cold source err = %v, want ErrCycleInfeasible", err)
	}

	// Too hot: saturation target at or above the critical temperature.
	hot := waterSource()
	hot.InletTemp = 439
	hot.Pressure = 1.0e6
	if _, err := r.Resolve(hot, in); !errors.Is(err, ErrCycleInfeasible) {
		t.Fatalf("hot source err = %v, want ErrCycleInfeasible", err)
	}

	var infs *InfeasibleError
	_, err := r.Resolve(hot, in)
	if !errors.As(err, &infs) || infs.Reason == "" {
		t.Fatalf("err = %v, want InfeasibleError with reason", err)
	}
}

func TestResolveUnknownKind(t *testing.T) {
	r, in := testResolver(t)

	spec := waterSource()
	spec.Kind = "plasma"
	if _, err := r.Resolve(spec, in); !errors.Is(err, ErrCycleInfeasible) {
		t.Fatalf("err = %v, want ErrCycleInfeasible", err)
	}
}

func TestEvaluateClosesEnergyBalance(t *testing.T) {
	r, in := testResolver(t)

	res, op, err := r.Evaluate(waterSource(), in, model.AuxLoad{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if math.Abs(res.HeatInKW-op.AvailableHeat) > 1e-6*op.AvailableHeat {
		t.Fatalf("heat input = %.6f kW, want available heat %.6f", res.HeatInKW, op.AvailableHeat)
	}
	if res.NetWorkKW <= 0 {
		t.Fatalf("net work = %.4f kW, want positive", res.NetWorkKW)
	}
	if res.SourceInletTempK != 373.15 || res.SourceOutletTempK != op.SourceOutlet {
		t.Fatalf("source temps %.2f/%.2f K, want 373.15/%.2f",
			res.SourceInletTempK, res.SourceOutletTempK, op.SourceOutlet)
	}
}
