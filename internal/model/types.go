/*
PURPOSE:
  Defines the core data structures used throughout the PFR console.
  These models represent solver inputs, solver outputs and the views derived from them.

REQUIREMENTS:
  User-specified:
  - Three process inputs: inlet temperature, fluid velocity, jacket temperature.
  - Spatial profiles (temperature, concentration) along reactor length.
  - Final conversion and maximum temperature scalars.

  Implementation-discovered:
  - JSON tags must match the solver wire names (T_in, z_axis, ...).
  - Profiles are index-aligned; a ragged result is unusable downstream.

ARCHITECTURE INTEGRATION:
  - Used by: internal/params, internal/engine, internal/transform, internal/metrics, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - Validate() returns ErrMalformedResult wrapped with the offending detail.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - SimulationResult is treated as immutable once validated; copy before mutating.

USAGE:
  res := model.SimulationResult{...}
  if err := res.Validate(); err != nil { ... }

SELF-HEALING INSTRUCTIONS:
  - If the solver adds fields, add them here and to the CSV/JSON writers.

RELATED FILES:
  - internal/engine/client.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when the solver contract changes.
*/

package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedResult marks a solver result that is missing fields or has ragged profiles.
var ErrMalformedResult = errors.New("malformed simulation result")

// SimulationParameters are the operator-controlled process inputs.
type SimulationParameters struct {
	TIn          float64 `json:"T_in" yaml:"t_in"`                   // K
	FlowVelocity float64 `json:"Flow_Velocity" yaml:"flow_velocity"` // m/s
	TJacket      float64 `json:"T_jacket" yaml:"t_jacket"`           // K
}

// SimulationResult is one completed solver run.
type SimulationResult struct {
	ZAxis                []float64 `json:"z_axis"`                // m
	TemperatureProfile   []float64 `json:"temperature_profile"`   // K
	ConcentrationProfile []float64 `json:"concentration_profile"` // mol/m3
	FinalConversion      float64   `json:"final_conversion"`      // %
	MaxTemperature       float64   `json:"max_temperature"`       // K
}

// Len returns the number of spatial steps.
func (r *SimulationResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ZAxis)
}

// Validate checks the structural invariants of a result.
func (r *SimulationResult) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: empty result", ErrMalformedResult)
	}
	n := len(r.ZAxis)
	if n == 0 {
		return fmt.Errorf("%w: z_axis is empty", ErrMalformedResult)
	}
	if len(r.TemperatureProfile) != n || len(r.ConcentrationProfile) != n {
		return fmt.Errorf("%w: profile lengths differ (z_axis=%d temperature=%d concentration=%d)",
			ErrMalformedResult, n, len(r.TemperatureProfile), len(r.ConcentrationProfile))
	}
	for i := 0; i < n; i++ {
		if !finite(r.ZAxis[i]) || !finite(r.TemperatureProfile[i]) || !finite(r.ConcentrationProfile[i]) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrMalformedResult, i)
		}
		if i > 0 && r.ZAxis[i] <= r.ZAxis[i-1] {
			return fmt.Errorf("%w: z_axis not strictly increasing at index %d", ErrMalformedResult, i)
		}
	}
	if !finite(r.FinalConversion) || !finite(r.MaxTemperature) {
		return fmt.Errorf("%w: non-finite scalar", ErrMalformedResult)
	}
	return nil
}

// Clone returns a deep copy so callers cannot alias the controller's slots.
func (r *SimulationResult) Clone() *SimulationResult {
	if r == nil {
		return nil
	}
	return &SimulationResult{
		ZAxis:                append([]float64(nil), r.ZAxis...),
		TemperatureProfile:   append([]float64(nil), r.TemperatureProfile...),
		ConcentrationProfile: append([]float64(nil), r.ConcentrationProfile...),
		FinalConversion:      r.FinalConversion,
		MaxTemperature:       r.MaxTemperature,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ChartRecord is one display point; previous-run fields are nil when there is no overlay.
type ChartRecord struct {
	Position          string   `json:"position"`
	Temperature       float64  `json:"temperature"`
	Concentration     float64  `json:"concentration"`
	TemperaturePrev   *float64 `json:"temperature_prev,omitempty"`
	ConcentrationPrev *float64 `json:"concentration_prev,omitempty"`
}

// EconomicSnapshot is the profitability estimate for a result.
type EconomicSnapshot struct {
	MolarFlow    float64 `json:"molar_flow"`    // mol/s
	HourlyProfit float64 `json:"hourly_profit"` // currency units / h
	IsProfitable bool    `json:"is_profitable"`
}

// RunRecord is the outcome of a single resolved request, written to the run log.
type RunRecord struct {
	ID              string               `json:"id"`
	Seq             uint64               `json:"seq"`
	Timestamp       time.Time            `json:"timestamp"`
	Duration        time.Duration        `json:"duration"`
	Parameters      SimulationParameters `json:"parameters"`
	Outcome         string               `json:"outcome"` // "success" | "failure"
	Steps           int                  `json:"steps,omitempty"`
	FinalConversion float64              `json:"final_conversion,omitempty"`
	MaxTemperature  float64              `json:"max_temperature,omitempty"`
	HourlyProfit    float64              `json:"hourly_profit,omitempty"`
	EfficiencyIndex float64              `json:"efficiency_index,omitempty"`
	Error           string               `json:"error,omitempty"`
}
