package safety

import (
	"math"
	"testing"

	"github.com/enerflow/orc/core/model"
)

func TestDeriveScalesWithMassFlow(t *testing.T) {
	op := &model.OperatingPoint{MassFlow: 0.5}
	lim := Derive(op, Config{})
	if got, want := lim.PreheaterKW, DefaultThresholdKJKg*0.5; math.Abs(got-want) > 1e-12 {
		t.Fatalf("preheater limit = %.4f kW, want %.4f", got, want)
	}
	if lim.SuperheaterKW != lim.PreheaterKW {
		t.Fatalf("stage limits differ: %.4f vs %.4f", lim.PreheaterKW, lim.SuperheaterKW)
	}
	if lim.MassFlow != 0.5 {
		t.Fatalf("recorded mass flow = %.4f, want 0.5", lim.MassFlow)
	}

	double := Derive(&model.OperatingPoint{MassFlow: 1.0}, Config{})
	if got, want := double.PreheaterKW, 2*lim.PreheaterKW; math.Abs(got-want) > 1e-12 {
		t.Fatalf("limit not linear in mass flow: %.4f, want %.4f", got, want)
	}
}

func TestDeriveCustomThreshold(t *testing.T) {
	op := &model.OperatingPoint{MassFlow: 2.0}
	lim := Derive(op, Config{ThresholdKJKg: 40})
	if got, want := lim.SuperheaterKW, 80.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("superheater limit = %.4f kW, want %.4f", got, want)
	}
}

func TestDeriveFloorsVanishingFlow(t *testing.T) {
	op := &model.OperatingPoint{MassFlow: 1e-9}
	lim := Derive(op, Config{})
	if lim.PreheaterKW != DefaultFloorKW || lim.SuperheaterKW != DefaultFloorKW {
		t.Fatalf("limits = %.6g/%.6g kW, want floor %.6g", lim.PreheaterKW, lim.SuperheaterKW, DefaultFloorKW)
	}

	lim = Derive(op, Config{FloorKW: 0.5})
	if lim.PreheaterKW != 0.5 {
		t.Fatalf("custom floor not applied: %.6g kW", lim.PreheaterKW)
	}
}

func TestClampBindsTighterBound(t *testing.T) {
	nominal := model.SafetyLimits{PreheaterKW: 100, SuperheaterKW: 100}
	limits := model.SafetyLimits{PreheaterKW: 40, SuperheaterKW: 200}

	out, binding := Clamp(model.AuxLoad{PreheaterKW: 70, SuperheaterKW: 150}, nominal, limits, Config{})
	if out.PreheaterKW != 40 {
		t.Fatalf("preheater clamped to %.1f kW, want 40", out.PreheaterKW)
	}
	if binding["preheater"] != model.BoundSafety {
		t.Fatalf("preheater bound = %q, want safety", binding["preheater"])
	}
	if out.SuperheaterKW != 100 {
		t.Fatalf("superheater clamped to %.1f kW, want 100", out.SuperheaterKW)
	}
	if binding["superheater"] != model.BoundNominal {
		t.Fatalf("superheater bound = %q, want nominal", binding["superheater"])
	}
}

func TestClampLeavesInteriorAllocation(t *testing.T) {
	nominal := model.SafetyLimits{PreheaterKW: 100, SuperheaterKW: 100}
	limits := model.SafetyLimits{PreheaterKW: 40, SuperheaterKW: 40}

	out, binding := Clamp(model.AuxLoad{PreheaterKW: 10, SuperheaterKW: 20}, nominal, limits, Config{})
	if out.PreheaterKW != 10 || out.SuperheaterKW != 20 {
		t.Fatalf("interior allocation changed: %+v", out)
	}
	if len(binding) != 0 {
		t.Fatalf("unexpected bindings: %v", binding)
	}
}

func TestClampTiePrefersSafety(t *testing.T) {
	nominal := model.SafetyLimits{PreheaterKW: 50, SuperheaterKW: 50}
	limits := model.SafetyLimits{PreheaterKW: 50, SuperheaterKW: 50}

	_, binding := Clamp(model.AuxLoad{PreheaterKW: 60, SuperheaterKW: 60}, nominal, limits, Config{})
	if binding["preheater"] != model.BoundSafety || binding["superheater"] != model.BoundSafety {
		t.Fatalf("tie bindings = %v, want safety on both stages", binding)
	}
}

func TestClampDisabledIgnoresSafety(t *testing.T) {
	nominal := model.SafetyLimits{PreheaterKW: 100, SuperheaterKW: 100}
	limits := model.SafetyLimits{PreheaterKW: 1, SuperheaterKW: 1}

	out, binding := Clamp(model.AuxLoad{PreheaterKW: 70, SuperheaterKW: 150}, nominal, limits, Config{Disabled: true})
	if out.PreheaterKW != 70 {
		t.Fatalf("preheater = %.1f kW, want untouched 70", out.PreheaterKW)
	}
	if out.SuperheaterKW != 100 || binding["superheater"] != model.BoundNominal {
		t.Fatalf("superheater = %.1f kW bound %q, want nominal cap", out.SuperheaterKW, binding["superheater"])
	}
}
