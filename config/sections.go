package config

import (
	"fmt"
	"math"

	"github.com/enerflow/orc/core/model"
	"github.com/enerflow/orc/core/optimize"
	"github.com/enerflow/orc/core/safety"
	inframetrics "github.com/enerflow/orc/infra/metrics"
)

// CycleConfig fixes the working-fluid side of the evaluation.
type CycleConfig struct {
	WorkingFluid      string  `koanf:"working_fluid"`
	CondensingTempK   float64 `koanf:"condensing_temp_k"`
	PumpEfficiency    float64 `koanf:"pump_efficiency"`
	TurbineEfficiency float64 `koanf:"turbine_efficiency"`
	ReferenceTempK    float64 `koanf:"reference_temp_k"`
	ReferencePressPa  float64 `koanf:"reference_pressure_pa"`
}

// SetDefaults applies sane defaults.
func (c *CycleConfig) SetDefaults() {
	if c.WorkingFluid == "" {
		c.WorkingFluid = "R245fa"
	}
	if c.PumpEfficiency == 0 {
		c.PumpEfficiency = 0.75
	}
	if c.TurbineEfficiency == 0 {
		c.TurbineEfficiency = 0.80
	}
	if c.ReferenceTempK == 0 {
		c.ReferenceTempK = 298.15
	}
	if c.ReferencePressPa == 0 {
		c.ReferencePressPa = 101325
	}
}

// Validate checks mandatory fields.
func (c CycleConfig) Validate() error {
	if c.CondensingTempK <= 0 {
		return fmt.Errorf("condensing_temp_k is required")
	}
	if c.PumpEfficiency <= 0 || c.PumpEfficiency > 1 {
		return fmt.Errorf("pump_efficiency %v outside (0, 1]", c.PumpEfficiency)
	}
	if c.TurbineEfficiency <= 0 || c.TurbineEfficiency > 1 {
		return fmt.Errorf("turbine_efficiency %v outside (0, 1]", c.TurbineEfficiency)
	}
	return nil
}

// SourceConfig describes the heat source.
type SourceConfig struct {
	Kind            string             `koanf:"kind"` // "liquid" or "gas"
	Fluid           string             `koanf:"fluid"`
	Composition     map[string]float64 `koanf:"composition"`
	InletTempK      float64            `koanf:"inlet_temp_k"`
	VolumetricFlow  float64            `koanf:"volumetric_flow_m3_s"`
	PressurePa      float64            `koanf:"pressure_pa"`
	PinchDeltaK     float64            `koanf:"pinch_delta_k"`
	SuperheatDeltaK float64            `koanf:"superheat_delta_k"`
	MassFlowMode    bool               `koanf:"mass_flow_mode"`
}

func (c *SourceConfig) SetDefaults() {
	if c.Kind == "" {
		c.Kind = "liquid"
	}
	if c.Kind == "liquid" && c.Fluid == "" {
		c.Fluid = "Water"
	}
	if c.PressurePa == 0 {
		c.PressurePa = 202650
	}
	if c.PinchDeltaK == 0 {
		c.PinchDeltaK = 5
	}
	if c.SuperheatDeltaK == 0 {
		c.SuperheatDeltaK = 5
	}
}

func (c SourceConfig) Validate() error {
	switch c.Kind {
	case "liquid":
		if c.Fluid == "" {
			return fmt.Errorf("fluid is required for liquid sources")
		}
	case "gas":
		if len(c.Composition) == 0 {
			return fmt.Errorf("composition is required for gas sources")
		}
		var total float64
		for species, frac := range c.Composition {
			if frac <= 0 {
				return fmt.Errorf("composition fraction for %s must be positive", species)
			}
			total += frac
		}
		if math.Abs(total-1) > 0.01 {
			return fmt.Errorf("composition fractions sum to %v, want 1", total)
		}
	default:
		return fmt.Errorf("unknown kind %q", c.Kind)
	}
	if c.InletTempK <= 0 {
		return fmt.Errorf("inlet_temp_k is required")
	}
	if c.VolumetricFlow <= 0 {
		return fmt.Errorf("volumetric_flow_m3_s must be positive")
	}
	if c.PinchDeltaK < 0 || c.SuperheatDeltaK < 0 {
		return fmt.Errorf("pinch and superheat deltas must be non-negative")
	}
	return nil
}

// Spec converts the section into the core heat-source description.
func (c SourceConfig) Spec() model.HeatSourceSpec {
	return model.HeatSourceSpec{
		Kind:           model.SourceKind(c.Kind),
		Fluid:          c.Fluid,
		Composition:    c.Composition,
		InletTemp:      c.InletTempK,
		VolumetricFlow: c.VolumetricFlow,
		Pressure:       c.PressurePa,
		PinchDelta:     c.PinchDeltaK,
		SuperheatDelta: c.SuperheatDeltaK,
		MassFlowMode:   c.MassFlowMode,
	}
}

// OptimizerConfig tunes the allocation search.
type OptimizerConfig struct {
	Objective            string  `koanf:"objective"`
	NominalPreheaterKW   float64 `koanf:"nominal_preheater_kw"`
	NominalSuperheaterKW float64 `koanf:"nominal_superheater_kw"`
	GridPoints           int     `koanf:"grid_points"`
	Workers              int     `koanf:"workers"`
	SkipRefine           bool    `koanf:"skip_refine"`
}

func (c *OptimizerConfig) SetDefaults() {
	if c.Objective == "" {
		c.Objective = string(optimize.ObjectiveNetWork)
	}
}

func (c OptimizerConfig) Validate() error {
	switch optimize.Objective(c.Objective) {
	case optimize.ObjectiveNetWork, optimize.ObjectiveThermalEff, optimize.ObjectiveExergyEff:
	default:
		return fmt.Errorf("unknown objective %q", c.Objective)
	}
	if c.NominalPreheaterKW < 0 || c.NominalSuperheaterKW < 0 {
		return fmt.Errorf("nominal stage powers must be non-negative")
	}
	return nil
}

// Build converts the section into the optimizer configuration.
func (c OptimizerConfig) Build(s SafetyConfig) optimize.Config {
	return optimize.Config{
		Objective:            optimize.Objective(c.Objective),
		NominalPreheaterKW:   c.NominalPreheaterKW,
		NominalSuperheaterKW: c.NominalSuperheaterKW,
		GridPoints:           c.GridPoints,
		Workers:              c.Workers,
		SkipRefine:           c.SkipRefine,
		Safety:               s.Build(),
	}
}

// SafetyConfig tunes the stage power bounding.
type SafetyConfig struct {
	ThresholdKJKg float64 `koanf:"threshold_kj_kg"`
	FloorKW       float64 `koanf:"floor_kw"`
	Disabled      bool    `koanf:"disabled"`
}

// Build converts the section into the core safety configuration.
func (c SafetyConfig) Build() safety.Config {
	return safety.Config{ThresholdKJKg: c.ThresholdKJKg, FloorKW: c.FloorKW, Disabled: c.Disabled}
}

// MetricsConfig selects telemetry backends.
type MetricsConfig struct {
	Prometheus PrometheusConfig `koanf:"prometheus"`
	Influx     InfluxConfig     `koanf:"influx"`
}

type PrometheusConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

type InfluxConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	Token   string `koanf:"token"`
	Org     string `koanf:"org"`
	Bucket  string `koanf:"bucket"`
}

// Sink converts the section into the influx sink configuration.
func (c InfluxConfig) Sink() inframetrics.Config {
	return inframetrics.Config{URL: c.URL, Token: c.Token, Org: c.Org, Bucket: c.Bucket}
}

// LoggingConfig tunes the global log output.
type LoggingConfig struct {
	Level string `koanf:"level"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return nil
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
}
