// Package export serializes cycle results for downstream tooling. Field
// names and units are part of the public contract and must stay stable.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/enerflow/orc/core/model"
)

// PointDocument is one state point in exported form.
type PointDocument struct {
	Location     string  `json:"location"`
	TemperatureK float64 `json:"temperature_k"`
	PressurePa   float64 `json:"pressure_pa"`
	EnthalpyJKg  float64 `json:"enthalpy_j_kg"`
	EntropyJKgK  float64 `json:"entropy_j_kg_k"`
	ExergyJKg    float64 `json:"exergy_j_kg"`
}

// ComponentDocument is one component balance in exported form. Undefined
// efficiencies are omitted rather than encoded as NaN.
type ComponentDocument struct {
	WorkKW        float64  `json:"work_kw,omitempty"`
	DutyKW        float64  `json:"duty_kw,omitempty"`
	DestructionKW float64  `json:"exergy_destruction_kw"`
	ExergyEff     *float64 `json:"exergy_efficiency,omitempty"`
	LMTDK         float64  `json:"lmtd_k,omitempty"`
	ConstraintHit bool     `json:"constraint_hit,omitempty"`
	RequestedKW   float64  `json:"requested_kw,omitempty"`
}

// Document is the exported form of a CycleResult.
type Document struct {
	Points             []PointDocument              `json:"points"`
	MassFlowKgS        float64                      `json:"mass_flow_kg_s"`
	NetWorkKW          float64                      `json:"net_work_kw"`
	HeatInKW           float64                      `json:"heat_in_kw"`
	HeatOutKW          float64                      `json:"heat_out_kw"`
	ThermalEfficiency  *float64                     `json:"thermal_efficiency,omitempty"`
	ExergyEfficiency   *float64                     `json:"exergy_efficiency,omitempty"`
	TotalDestructionKW float64                      `json:"total_exergy_destruction_kw"`
	SourceInletTempK   float64                      `json:"source_inlet_temp_k,omitempty"`
	SourceOutletTempK  float64                      `json:"source_outlet_temp_k,omitempty"`
	Components         map[string]ComponentDocument `json:"components"`
}

// FromResult flattens a CycleResult into its exported form.
func FromResult(res *model.CycleResult) *Document {
	doc := &Document{
		Points:             make([]PointDocument, len(res.Points)),
		MassFlowKgS:        res.MassFlow,
		NetWorkKW:          res.NetWorkKW,
		HeatInKW:           res.HeatInKW,
		HeatOutKW:          res.HeatOutKW,
		ThermalEfficiency:  indicatorPtr(res.ThermalEff),
		ExergyEfficiency:   indicatorPtr(res.ExergyEff),
		TotalDestructionKW: res.TotalDestructionKW(),
		SourceInletTempK:   res.SourceInletTempK,
		SourceOutletTempK:  res.SourceOutletTempK,
		Components: map[string]ComponentDocument{
			"pump":       componentDoc(res.Pump),
			"evaporator": componentDoc(res.Evaporator),
			"turbine":    componentDoc(res.Turbine),
			"condenser":  componentDoc(res.Condenser),
		},
	}
	for i, p := range res.Points {
		doc.Points[i] = PointDocument{
			Location:     model.Location(i).String(),
			TemperatureK: p.Temperature,
			PressurePa:   p.Pressure,
			EnthalpyJKg:  p.Enthalpy,
			EntropyJKgK:  p.Entropy,
			ExergyJKg:    p.Exergy,
		}
	}
	if res.Preheater != nil {
		doc.Components["preheater"] = componentDoc(*res.Preheater)
	}
	if res.Superheater != nil {
		doc.Components["superheater"] = componentDoc(*res.Superheater)
	}
	return doc
}

func componentDoc(b model.ComponentBalance) ComponentDocument {
	return ComponentDocument{
		WorkKW:        b.WorkKW,
		DutyKW:        b.DutyKW,
		DestructionKW: b.DestructionKW,
		ExergyEff:     indicatorPtr(b.ExergyEff),
		LMTDK:         b.LMTD,
		ConstraintHit: b.ConstraintHit,
		RequestedKW:   b.RequestedKW,
	}
}

func indicatorPtr(i model.Indicator) *float64 {
	if !i.Defined {
		return nil
	}
	v := i.Value
	return &v
}

// WriteJSON writes the cycle result to w in JSON format.
func WriteJSON(w io.Writer, res *model.CycleResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(FromResult(res))
}

// WriteCSV writes the state points to w in CSV format.
func WriteCSV(w io.Writer, res *model.CycleResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"location", "temperature_k", "pressure_pa", "enthalpy_j_kg", "entropy_j_kg_k", "exergy_j_kg"}); err != nil {
		return err
	}
	for i, p := range res.Points {
		rec := []string{
			model.Location(i).String(),
			formatFloat(p.Temperature),
			formatFloat(p.Pressure),
			formatFloat(p.Enthalpy),
			formatFloat(p.Entropy),
			formatFloat(p.Exergy),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
