// Package transform turns raw solver results into display records.
package transform

import (
	"math"
	"strconv"

	"github.com/daryltucker/pfr-console/internal/model"
)

// Merge builds one ChartRecord per index of current, overlaying previous where it
// has a value at the same index. It returns nil when there is no current result.
func Merge(current, previous *model.SimulationResult) []model.ChartRecord {
	n := current.Len()
	if n == 0 {
		return nil
	}

	records := make([]model.ChartRecord, n)
	for i := 0; i < n; i++ {
		rec := model.ChartRecord{
			Position:      FormatPosition(current.ZAxis[i]),
			Temperature:   RoundTemperature(at(current.TemperatureProfile, i)),
			Concentration: RoundConcentration(at(current.ConcentrationProfile, i)),
		}
		if previous != nil {
			if i < len(previous.TemperatureProfile) {
				v := RoundTemperature(previous.TemperatureProfile[i])
				rec.TemperaturePrev = &v
			}
			if i < len(previous.ConcentrationProfile) {
				v := RoundConcentration(previous.ConcentrationProfile[i])
				rec.ConcentrationPrev = &v
			}
		}
		records[i] = rec
	}
	return records
}

// FormatPosition renders z with two decimals.
func FormatPosition(z float64) string {
	return strconv.FormatFloat(z, 'f', 2, 64)
}

// RoundTemperature rounds to the nearest whole kelvin.
func RoundTemperature(v float64) float64 {
	return math.Round(v)
}

// RoundConcentration rounds to three decimals.
func RoundConcentration(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// at tolerates a profile shorter than z_axis; validated results never hit the zero path.
func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
