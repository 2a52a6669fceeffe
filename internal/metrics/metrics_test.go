package metrics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daryltucker/pfr-console/internal/model"
)

var standard = model.SimulationParameters{TIn: 300, FlowVelocity: 2.0, TJacket: 280}

func sampleResult() *model.SimulationResult {
	return &model.SimulationResult{
		ZAxis:                []float64{0, 0.5, 1.0},
		TemperatureProfile:   []float64{300, 310, 305},
		ConcentrationProfile: []float64{1000, 600, 200},
		FinalConversion:      80.0,
		MaxTemperature:       310.0,
	}
}

func TestEconomics_StandardScenario(t *testing.T) {
	snap := Economics(sampleResult(), standard)

	assert.InDelta(t, 0.00392, FlowRate(standard), 1e-12)
	assert.InDelta(t, 3.92, snap.MolarFlow, 1e-9)
	assert.InDelta(t, 16934.4, snap.HourlyProfit, 1e-6)
	assert.True(t, snap.IsProfitable)
}

func TestEconomics_LowConversionLoses(t *testing.T) {
	r := sampleResult()
	r.FinalConversion = 20 // 0.2*2.5 = 0.5 < 0.8
	snap := Economics(r, standard)
	assert.Less(t, snap.HourlyProfit, 0.0)
	assert.False(t, snap.IsProfitable)

	r.FinalConversion = 32 // exact break-even
	snap = Economics(r, standard)
	assert.InDelta(t, 0, snap.HourlyProfit, 1e-9)
}

func TestEconomics_NilResult(t *testing.T) {
	assert.Equal(t, model.EconomicSnapshot{}, Economics(nil, standard))
}

func TestEfficiencyIndex_NonDecreasing(t *testing.T) {
	r := sampleResult()
	prev := math.Inf(-1)
	for c := 0.0; c <= 100; c += 0.5 {
		r.FinalConversion = c
		idx := EfficiencyIndex(r)
		assert.GreaterOrEqual(t, idx, prev, "conversion %v", c)
		prev = idx
	}

	r.FinalConversion = 80
	assert.InDelta(t, 4.0, EfficiencyIndex(r), 1e-12)
}

func TestResidenceTime(t *testing.T) {
	assert.InDelta(t, 2.5, ResidenceTime(standard), 1e-12)
	assert.True(t, math.IsInf(ResidenceTime(model.SimulationParameters{}), 1))
}

func TestProfile(t *testing.T) {
	stats := Profile(sampleResult())
	assert.Equal(t, ProfileStats{
		Steps:               3,
		HotSpotPosition:     0.5,
		HotSpotTemperature:  310,
		OutletTemperature:   305,
		OutletConcentration: 200,
		MinConcentration:    200,
	}, stats)
	assert.Equal(t, ProfileStats{}, Profile(nil))
}

func TestDerive(t *testing.T) {
	k := Derive(sampleResult(), standard)
	assert.InDelta(t, 36.85, k.MaxTemperatureC, 1e-9)
	assert.Equal(t, 80.0, k.FinalConversion)
	assert.True(t, k.IsProfitable)
	assert.Equal(t, 3, k.Profile.Steps)
}

func TestDerive_OverflowIsReportedAsZero(t *testing.T) {
	huge := model.SimulationParameters{TIn: 300, FlowVelocity: 1e306, TJacket: 280}

	snap := Economics(sampleResult(), huge)
	assert.Equal(t, 0.0, snap.HourlyProfit)
	assert.True(t, snap.IsProfitable)

	k := Derive(sampleResult(), huge)
	assert.Equal(t, 0.0, k.HourlyProfit)
	_, err := json.Marshal(k)
	assert.NoError(t, err)

	stopped := Derive(sampleResult(), model.SimulationParameters{TIn: 300, TJacket: 280})
	assert.Equal(t, 0.0, stopped.ResidenceTime)
	_, err = json.Marshal(stopped)
	assert.NoError(t, err)
}
