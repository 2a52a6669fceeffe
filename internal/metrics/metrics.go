/*
PURPOSE:
  Derives secondary KPIs from a solver result and the inputs that go with it.
  Everything here is a pure function; nothing is cached.

REQUIREMENTS:
  User-specified:
  - Hourly profit estimate and profitability flag.
  - Efficiency index shown next to conversion.
  - Residence time and max temperature in Celsius, as on the dashboard.

  Implementation-discovered:
  - Pipe cross-section and inlet concentration are fixed plant constants.
  - The efficiency index is an illustrative display heuristic, not a physical efficiency.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (run records), internal/output (reports), internal/cli, internal/server

ERROR HANDLING:
  - None. A nil or empty result yields zero values.
  - Overflowing figures (e.g. an absurd flow velocity under the pass policy) are
    reported as 0 so records and state frames stay encodable.

USAGE:
  snap := metrics.Economics(res, params)
  kpi := metrics.Derive(res, params)

RELATED FILES:
  - internal/model/types.go
*/

package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/daryltucker/pfr-console/internal/model"
)

const (
	// PipeArea is the tube cross-section in m2 (D ~ 0.05 m).
	PipeArea = 0.00196
	// InletConcentration is the reactant feed concentration in mol/m3.
	InletConcentration = 1000.0
	// PriceProduct is the product value per mole.
	PriceProduct = 2.5
	// PriceReactant is the reactant cost per mole.
	PriceReactant = 0.8
	// ReactorLength is the tube length in m.
	ReactorLength = 5.0

	secondsPerHour = 3600.0
	kelvinOffset   = 273.15
)

// FlowRate is the volumetric flow in m3/s.
func FlowRate(p model.SimulationParameters) float64 {
	return p.FlowVelocity * PipeArea
}

// MolarFlow is the reactant feed in mol/s.
func MolarFlow(p model.SimulationParameters) float64 {
	return FlowRate(p) * InletConcentration
}

// Economics estimates hourly profit for r run at p.
func Economics(r *model.SimulationResult, p model.SimulationParameters) model.EconomicSnapshot {
	if r == nil {
		return model.EconomicSnapshot{}
	}
	molarFlow := MolarFlow(p)
	conversion := r.FinalConversion / 100
	profit := (molarFlow*conversion*PriceProduct - molarFlow*PriceReactant) * secondsPerHour
	return model.EconomicSnapshot{
		MolarFlow:    finite(molarFlow),
		HourlyProfit: finite(profit),
		IsProfitable: profit > 0,
	}
}

// finite maps NaN and ±Inf to 0. Derived figures are sent as JSON, which has neither.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// EfficiencyIndex is a display heuristic that grows linearly with conversion.
func EfficiencyIndex(r *model.SimulationResult) float64 {
	if r == nil {
		return 0
	}
	return (r.FinalConversion/2.5)*0.1 + 0.8
}

// ResidenceTime is the time in s a fluid element spends in the tube.
// It is +Inf for a non-positive velocity.
func ResidenceTime(p model.SimulationParameters) float64 {
	if p.FlowVelocity <= 0 {
		return math.Inf(1)
	}
	return ReactorLength / p.FlowVelocity
}

// MaxTemperatureCelsius converts the result's peak temperature to degC.
func MaxTemperatureCelsius(r *model.SimulationResult) float64 {
	if r == nil {
		return 0
	}
	return r.MaxTemperature - kelvinOffset
}

// ProfileStats summarises the spatial profiles.
type ProfileStats struct {
	Steps               int     `json:"steps"`
	HotSpotPosition     float64 `json:"hot_spot_position"`
	HotSpotTemperature  float64 `json:"hot_spot_temperature"`
	OutletTemperature   float64 `json:"outlet_temperature"`
	OutletConcentration float64 `json:"outlet_concentration"`
	MinConcentration    float64 `json:"min_concentration"`
}

// Profile locates the hot spot and the outlet state of r.
func Profile(r *model.SimulationResult) ProfileStats {
	n := r.Len()
	if n == 0 || len(r.TemperatureProfile) < n || len(r.ConcentrationProfile) < n {
		return ProfileStats{}
	}
	hot := floats.MaxIdx(r.TemperatureProfile[:n])
	return ProfileStats{
		Steps:               n,
		HotSpotPosition:     r.ZAxis[hot],
		HotSpotTemperature:  r.TemperatureProfile[hot],
		OutletTemperature:   r.TemperatureProfile[n-1],
		OutletConcentration: r.ConcentrationProfile[n-1],
		MinConcentration:    floats.Min(r.ConcentrationProfile[:n]),
	}
}

// KPIs bundles every derived figure shown for a result.
type KPIs struct {
	model.EconomicSnapshot
	FinalConversion float64      `json:"final_conversion"`
	MaxTemperature  float64      `json:"max_temperature"`
	MaxTemperatureC float64      `json:"max_temperature_c"`
	EfficiencyIndex float64      `json:"efficiency_index"`
	ResidenceTime   float64      `json:"residence_time"`
	Profile         ProfileStats `json:"profile"`
}

// Derive computes all KPIs for r at p. Figures that are not finite, such as the
// residence time of a stopped flow, are reported as 0.
func Derive(r *model.SimulationResult, p model.SimulationParameters) KPIs {
	k := KPIs{
		EconomicSnapshot: Economics(r, p),
		EfficiencyIndex:  finite(EfficiencyIndex(r)),
		ResidenceTime:    finite(ResidenceTime(p)),
		MaxTemperatureC:  finite(MaxTemperatureCelsius(r)),
		Profile:          Profile(r),
	}
	if r != nil {
		k.FinalConversion = r.FinalConversion
		k.MaxTemperature = r.MaxTemperature
	}
	return k
}
