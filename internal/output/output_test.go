package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/pfr-console/internal/metrics"
	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/transform"
)

func sampleResult() *model.SimulationResult {
	return &model.SimulationResult{
		ZAxis:                []float64{0, 0.123456, 1.0},
		TemperatureProfile:   []float64{300, 310.987654, 305.00004},
		ConcentrationProfile: []float64{1000, 600.55556, 199.99999},
		FinalConversion:      80.0,
		MaxTemperature:       310.987654,
	}
}

func TestToCSV_Format(t *testing.T) {
	text, err := ToCSV(sampleResult())
	require.NoError(t, err)

	want := "z [m],Temperature [K],Concentration [mol/m3]\n" +
		"0.0000,300.0000,1000.0000\n" +
		"0.1235,310.9877,600.5556\n" +
		"1.0000,305.0000,200.0000\n"
	assert.Equal(t, want, text)
}

func TestToCSV_RoundTrip(t *testing.T) {
	res := sampleResult()
	text, err := ToCSV(res)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, res.Len()+1)
	assert.Equal(t, CSVHeader, rows[0])

	cols := [][]float64{res.ZAxis, res.TemperatureProfile, res.ConcentrationProfile}
	for i, row := range rows[1:] {
		require.Len(t, row, 3)
		for c, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			require.NoError(t, err)
			assert.InDelta(t, cols[c][i], v, 0.5e-4+1e-12, "row %d col %d", i, c)
		}
	}
}

func TestToCSV_UsesRawNotRounded(t *testing.T) {
	res := sampleResult()
	records := transform.Merge(res, nil)
	text, err := ToCSV(res)
	require.NoError(t, err)

	assert.Equal(t, 311.0, records[1].Temperature)
	assert.Contains(t, text, "310.9877")
}

func TestToCSV_Errors(t *testing.T) {
	_, err := ToCSV(nil)
	assert.ErrorIs(t, err, ErrNoResult)

	ragged := sampleResult()
	ragged.TemperatureProfile = ragged.TemperatureProfile[:1]
	_, err = ToCSV(ragged)
	assert.ErrorIs(t, err, model.ErrMalformedResult)
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC)

	path, err := ExportFile(filepath.Join(dir, "exports"), sampleResult(), date)
	require.NoError(t, err)
	assert.Equal(t, "simulation_pfr_2026-10-18.csv", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "z [m],Temperature [K],Concentration [mol/m3]\n"))
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestRunLog_AppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")

	for i := 1; i <= 3; i++ {
		l, err := OpenRunLog(path)
		require.NoError(t, err)
		assert.Equal(t, path, l.Path())
		require.NoError(t, l.Append(model.RunRecord{ID: "run", Seq: uint64(i), Outcome: "success"}))
		require.NoError(t, l.Close())
	}

	all, err := ReadRunLog(path, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(1), all[0].Seq)

	last, err := ReadRunLog(path, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, uint64(2), last[0].Seq)
	assert.Equal(t, uint64(3), last[1].Seq)
}

func TestReadRunLog_Errors(t *testing.T) {
	dir := t.TempDir()

	recs, err := ReadRunLog(filepath.Join(dir, "missing.jsonl"), 5)
	require.NoError(t, err)
	assert.Empty(t, recs)

	bad := filepath.Join(dir, "bad.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte("{\"seq\":1}\n\n{oops\n"), 0644))
	_, err = ReadRunLog(bad, 0)
	assert.ErrorContains(t, err, "line 3")
}

func TestSavePlots(t *testing.T) {
	dir := t.TempDir()
	prev := sampleResult()
	prev.TemperatureProfile = []float64{299, 305, 301}

	paths, err := SavePlots(dir, "simulation_pfr_2026-10-18", sampleResult(), prev)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	_, err = SavePlots(dir, "x", nil, nil)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestRenderChart(t *testing.T) {
	cur := sampleResult()
	prev := sampleResult()
	prev.ZAxis = prev.ZAxis[:2]
	prev.TemperatureProfile = prev.TemperatureProfile[:2]
	prev.ConcentrationProfile = prev.ConcentrationProfile[:2]

	kpi := metrics.Derive(cur, model.SimulationParameters{TIn: 300, FlowVelocity: 2, TJacket: 280})
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, transform.Merge(cur, prev), &kpi))

	html := buf.String()
	assert.Contains(t, html, "Temperature Profile")
	assert.Contains(t, html, "Concentration Profile")
	assert.Contains(t, html, "Previous run")

	assert.ErrorIs(t, RenderChart(&buf, nil, nil), ErrNoResult)
}

func TestSetLevel(t *testing.T) {
	require.NoError(t, SetLevel("debug"))
	assert.Equal(t, "debug", Logger.GetLevel().String())
	assert.Error(t, SetLevel("chatty"))
	require.NoError(t, SetLevel("info"))
}
