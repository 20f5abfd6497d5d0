package test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/enerflow/orc/config"
	"github.com/enerflow/orc/core/cycle"
	"github.com/enerflow/orc/core/model"
	"github.com/enerflow/orc/core/optimize"
	"github.com/enerflow/orc/core/safety"
	"github.com/enerflow/orc/core/source"
	inframetrics "github.com/enerflow/orc/infra/metrics"
	infraprops "github.com/enerflow/orc/infra/props"
	"github.com/enerflow/orc/pkg/export"
)

const configYAML = `cycle:
  working_fluid: "R245fa"
  condensing_temp_k: 313.15
  pump_efficiency: 0.75
  turbine_efficiency: 0.85
source:
  kind: "liquid"
  fluid: "Water"
  inlet_temp_k: 373.15
  volumetric_flow_m3_s: 0.01
  pressure_pa: 200000
  pinch_delta_k: 5
  superheat_delta_k: 5
optimizer:
  objective: "net_work"
  nominal_preheater_kw: 5
  nominal_superheater_kw: 5
`

func loadPipeline(t *testing.T) (*config.Config, *source.Resolver, source.Inputs) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	oracle := infraprops.NewCorrelationOracle()
	solver := cycle.NewSolver(oracle, nil)
	ref, err := solver.Reference(cfg.Cycle.WorkingFluid, cfg.Cycle.ReferenceTempK, cfg.Cycle.ReferencePressPa)
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	resolver := source.NewResolver(oracle, solver, infraprops.MixtureID, nil)
	return cfg, resolver, source.Inputs{
		WorkingFluid:      cfg.Cycle.WorkingFluid,
		CondensingTemp:    cfg.Cycle.CondensingTempK,
		PumpEfficiency:    cfg.Cycle.PumpEfficiency,
		TurbineEfficiency: cfg.Cycle.TurbineEfficiency,
		Reference:         ref,
	}
}

// TestHotWaterScenario drives the full pipeline from configuration to
// exported document for a 100 °C pressurized-water source.
func TestHotWaterScenario(t *testing.T) {
	cfg, resolver, in := loadPipeline(t)

	res, op, err := resolver.Evaluate(cfg.Source.Spec(), in, model.AuxLoad{})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// Pinch-limited sizing: saturation 10 K below the inlet.
	if got, want := op.Design.TurbineInletTemp, 368.15; math.Abs(got-want) > 1e-9 {
		t.Errorf("turbine inlet = %.2f K, want %.2f", got, want)
	}
	if res.NetWorkKW <= 0 {
		t.Fatalf("net work = %.3f kW, want positive", res.NetWorkKW)
	}
	if !res.ThermalEff.Defined {
		t.Fatal("thermal efficiency undefined")
	}
	carnot := 1 - in.CondensingTemp/cfg.Source.InletTempK
	if res.ThermalEff.Value <= 0 || res.ThermalEff.Value >= carnot {
		t.Errorf("thermal efficiency %.4f outside (0, %.4f)", res.ThermalEff.Value, carnot)
	}
	if res.TotalDestructionKW() < 0 {
		t.Errorf("total exergy destruction %.4f kW negative", res.TotalDestructionKW())
	}
	// First law closure over the whole cycle.
	if resid := res.HeatInKW + res.HeatOutKW - res.NetWorkKW; math.Abs(resid) > 1e-6*res.HeatInKW {
		t.Errorf("energy balance residual %.6f kW", resid)
	}

	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, res); err != nil {
		t.Fatalf("export: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("exported document invalid: %v", err)
	}
	if doc["net_work_kw"].(float64) <= 0 {
		t.Errorf("exported net work = %v", doc["net_work_kw"])
	}
}

// TestSafetyLimitScalesWithSourceFlow checks that halving the source flow
// halves the derived stage power limits.
func TestSafetyLimitScalesWithSourceFlow(t *testing.T) {
	cfg, resolver, in := loadPipeline(t)

	full, err := resolver.Resolve(cfg.Source.Spec(), in)
	if err != nil {
		t.Fatalf("resolve full flow: %v", err)
	}
	spec := cfg.Source.Spec()
	spec.VolumetricFlow /= 2
	half, err := resolver.Resolve(spec, in)
	if err != nil {
		t.Fatalf("resolve half flow: %v", err)
	}

	limFull := safety.Derive(full, safety.Config{})
	limHalf := safety.Derive(half, safety.Config{})
	if got, want := limHalf.PreheaterKW, limFull.PreheaterKW/2; math.Abs(got-want) > 1e-9*want {
		t.Errorf("half-flow limit = %.6f kW, want %.6f", got, want)
	}
}

// TestOptimizeEndToEnd runs the optimizer with Prometheus telemetry wired in
// and verifies the outcome against an independent re-evaluation.
func TestOptimizeEndToEnd(t *testing.T) {
	cfg, resolver, in := loadPipeline(t)

	reg := prometheus.NewRegistry()
	sink, err := inframetrics.NewPromSink(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	opt := optimize.NewOptimizer(resolver, sink, nil)

	outcome, err := opt.Optimize(context.Background(), cfg.Source.Spec(), in, cfg.Optimizer.Build(cfg.Safety))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if !outcome.Feasible || outcome.Result == nil {
		t.Fatalf("outcome = %+v, want feasible with result", outcome)
	}

	// The reported allocation must reproduce the reported result.
	again, _, err := resolver.Evaluate(cfg.Source.Spec(), in, outcome.Allocation)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if math.Abs(again.NetWorkKW-outcome.Result.NetWorkKW) > 1e-9 {
		t.Errorf("re-evaluated net work %.6f kW, outcome reports %.6f", again.NetWorkKW, outcome.Result.NetWorkKW)
	}

	if got := testutil.ToFloat64(sink.NetWorkGauge()); math.Abs(got-outcome.Result.NetWorkKW) > 1e-9 {
		t.Errorf("net work gauge = %.4f, want %.4f", got, outcome.Result.NetWorkKW)
	}
}

// TestGasSourceEndToEnd exercises the flue-gas path through resolution and
// evaluation.
func TestGasSourceEndToEnd(t *testing.T) {
	_, resolver, in := loadPipeline(t)

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
	res, op, err := resolver.Evaluate(spec, in, model.AuxLoad{})
	if err != nil {
		t.Fatalf("evaluate gas source: %v", err)
	}
	if op.MassFlow <= 0 || res.NetWorkKW <= 0 {
		t.Fatalf("gas source cycle: mass flow %.4f kg/s, net work %.3f kW", op.MassFlow, res.NetWorkKW)
	}
	if res.SourceInletTempK != 420 {
		t.Errorf("source inlet %.2f K, want 420", res.SourceInletTempK)
	}
}
