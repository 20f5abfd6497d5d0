package cycle

import (
	"fmt"
	"math"

	"github.com/enerflow/orc/core/model"
)

// ErrTemperatureCross reports an invalid counter-current temperature
// profile in the evaporator.
var ErrTemperatureCross = fmt.Errorf("temperature cross in heat exchanger")

// LMTD returns the log-mean temperature difference of a counter-current
// exchanger. The two approaches must both be positive.
func LMTD(hotIn, hotOut, coldIn, coldOut float64) (float64, error) {
	dT1 := hotIn - coldOut
	dT2 := hotOut - coldIn
	if dT1 <= 0 || dT2 <= 0 {
		return 0, fmt.Errorf("%w: dT1=%.3f K dT2=%.3f K", ErrTemperatureCross, dT1, dT2)
	}
	if math.Abs(dT1-dT2) < 1e-9 {
		return dT1, nil
	}
	return (dT1 - dT2) / math.Log(dT1/dT2), nil
}

// HeatExergy returns the exergy rate (1 − T0/Ts)·Q̇ carried by heat crossing
// a surface at Ts. Zero duty or a non-positive surface temperature yields
// zero exergy.
func HeatExergy(dutyKW, surfaceTemp, t0 float64) float64 {
	if surfaceTemp <= 0 || dutyKW == 0 {
		return 0
	}
	return (1.0 - t0/surfaceTemp) * dutyKW
}

// SourceTemps carries the heat-source temperatures bracketing the
// evaporator, when known.
type SourceTemps struct {
	Inlet  float64
	Outlet float64
}

// Balance derives the component balances and cycle KPIs from solved states.
// src may be nil when the cycle is evaluated without heat-source context;
// the evaporator supply temperature then falls back to the entropic mean of
// the cold stream, which bounds the heat exergy consistently.
func Balance(st *States, ref model.ReferenceState, massFlow float64, src *SourceTemps) (*model.CycleResult, error) {
	p1, p2, p3, p4 := st.Points[0], st.Points[1], st.Points[2], st.Points[3]
	p2b, pe := st.PreheatOut, st.EvapOut

	res := &model.CycleResult{Points: st.Points, MassFlow: massFlow}

	// Pump: actual vs reversible work.
	wPump := massFlow * (p2.Enthalpy - p1.Enthalpy) / 1e3
	wPumpRev := massFlow * (p2.Exergy - p1.Exergy) / 1e3
	res.Pump = model.ComponentBalance{
		WorkKW:        wPump,
		ReversibleKW:  wPumpRev,
		DestructionKW: wPump - wPumpRev,
		ExergyEff:     model.Ratio(wPumpRev, wPump),
	}

	// Preheater stage.
	if st.PreheatDutyKW > 0 || st.PreheatCapped {
		res.Preheater = &model.ComponentBalance{
			DutyKW:        st.PreheatDutyKW,
			RequestedKW:   st.PreheatRequestKW,
			DestructionKW: st.PreheatDutyKW - massFlow*(p2b.Exergy-p2.Exergy)/1e3,
			ConstraintHit: st.PreheatCapped,
		}
	}

	// Evaporator: duty from 2b to the evaporator exit, supply temperature
	// from the heat source when known.
	dutyEvap := massFlow * (pe.Enthalpy - p2b.Enthalpy) / 1e3
	var supplyTemp, lmtd float64
	if src != nil {
		var err error
		lmtd, err = LMTD(src.Inlet, src.Outlet, p2b.Temperature, pe.Temperature)
		if err != nil {
			return nil, err
		}
		supplyTemp = 0.5 * (src.Inlet + src.Outlet)
		res.SourceInletTempK = src.Inlet
		res.SourceOutletTempK = src.Outlet
	} else {
		supplyTemp = entropicMeanTemp(p2b, pe)
		lmtd = pe.Temperature - p2b.Temperature
	}
	heatExergyIn := HeatExergy(dutyEvap, supplyTemp, ref.Temperature)
	gained := massFlow * (pe.Exergy - p2b.Exergy) / 1e3
	res.Evaporator = model.ComponentBalance{
		DutyKW:        dutyEvap,
		HeatExergyKW:  heatExergyIn,
		DestructionKW: heatExergyIn - gained,
		ExergyEff:     model.Ratio(gained, heatExergyIn),
		LMTD:          lmtd,
		SurfaceTempK:  supplyTemp,
	}

	// Superheater stage.
	if st.SuperheatDutyKW > 0 || st.SuperheatCapped {
		res.Superheater = &model.ComponentBalance{
			DutyKW:        st.SuperheatDutyKW,
			RequestedKW:   st.SuperheatRequestKW,
			DestructionKW: st.SuperheatDutyKW - massFlow*(p3.Exergy-pe.Exergy)/1e3,
			ConstraintHit: st.SuperheatCapped,
		}
	}

	// Turbine: actual vs reversible work.
	wTurb := massFlow * (p3.Enthalpy - p4.Enthalpy) / 1e3
	wTurbRev := massFlow * (p3.Exergy - p4.Exergy) / 1e3
	res.Turbine = model.ComponentBalance{
		WorkKW:        wTurb,
		ReversibleKW:  wTurbRev,
		DestructionKW: wTurbRev - wTurb,
		ExergyEff:     model.Ratio(wTurb, wTurbRev),
	}

	// Condenser: heat rejected (negative duty). The rejection exergy is
	// evaluated at the condensing temperature, which bounds the outgoing
	// exergy so destruction stays non-negative even with a strongly
	// superheated turbine exhaust.
	dutyCond := massFlow * (p1.Enthalpy - p4.Enthalpy) / 1e3
	coldMean := 0.5 * (p4.Temperature + p1.Temperature)
	heatExergyOut := HeatExergy(dutyCond, p1.Temperature, ref.Temperature)
	res.Condenser = model.ComponentBalance{
		DutyKW:        dutyCond,
		HeatExergyKW:  heatExergyOut,
		DestructionKW: massFlow*(p4.Exergy-p1.Exergy)/1e3 + heatExergyOut,
		SurfaceTempK:  coldMean,
	}

	// Cycle KPIs.
	res.NetWorkKW = wTurb - wPump
	res.HeatInKW = dutyEvap + st.PreheatDutyKW + st.SuperheatDutyKW
	res.HeatOutKW = dutyCond
	res.ThermalEff = model.Ratio(res.NetWorkKW, res.HeatInKW)
	res.ExergyEff = model.Ratio(res.NetWorkKW, heatExergyIn)
	return res, nil
}

// entropicMeanTemp is the duty-weighted thermodynamic mean temperature
// Q/ΔS between two states, used as the supply-temperature proxy when no
// heat-source data is available. It degrades to the arithmetic mean for
// vanishing entropy change.
func entropicMeanTemp(a, b model.CyclePoint) float64 {
	dh := b.Enthalpy - a.Enthalpy
	ds := b.Entropy - a.Entropy
	if math.Abs(ds) < 1e-12 {
		return 0.5 * (a.Temperature + b.Temperature)
	}
	return dh / ds
}
