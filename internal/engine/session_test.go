package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/pfr-console/internal/config"
	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/output"
	"github.com/daryltucker/pfr-console/internal/params"
	"github.com/daryltucker/pfr-console/internal/timeutil"
)

func newTestSession(t *testing.T, solver Solver) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.OutputDir = dir
	clock := timeutil.NewMockClock(time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC))

	s, err := NewSession(cfg, solver, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, dir
}

func TestSession_NothingBeforeFirstRun(t *testing.T) {
	s, _ := newTestSession(t, returning(resultWith(80, 3), nil))

	_, err := s.Export()
	assert.ErrorIs(t, err, output.ErrNoResult)
	_, err = s.WriteCSV(&bytes.Buffer{})
	assert.ErrorIs(t, err, output.ErrNoResult)
	_, err = s.Plot()
	assert.ErrorIs(t, err, output.ErrNoResult)
	assert.ErrorIs(t, s.WriteReport(&bytes.Buffer{}), output.ErrNoResult)

	_, ok := s.KPIs()
	assert.False(t, ok)
	assert.Empty(t, s.Records())
}

func TestSession_RunExportAndLog(t *testing.T) {
	s, dir := newTestSession(t, returning(resultWith(80, 3), nil))

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	path, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "simulation_pfr_2026-10-18.csv"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "z [m],Temperature [K],Concentration [mol/m3]\n0.0000,300.0000,1000.0000\n"))

	var buf bytes.Buffer
	name, err := s.WriteCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, "simulation_pfr_2026-10-18.csv", name)
	assert.Equal(t, string(data), buf.String())

	recs := s.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, "0.50", recs[1].Position)
	assert.Nil(t, recs[1].TemperaturePrev)
}

func TestSession_RunLogLines(t *testing.T) {
	outcomes := []error{nil, &SimulationError{Kind: KindSolver, Status: 500, Detail: "solver diverged"}}
	i := 0
	solver := solverFunc(func(context.Context, model.SimulationParameters) (*model.SimulationResult, error) {
		err := outcomes[i]
		i++
		if err != nil {
			return nil, err
		}
		return resultWith(80, 3), nil
	})
	s, dir := newTestSession(t, solver)

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	_, err = s.Run(context.Background())
	require.Error(t, err)
	recent, err := s.History(1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "failure", recent[0].Outcome)
	require.NoError(t, s.Close())

	f, err := os.Open(filepath.Join(dir, "pfr_runs.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var lines []model.RunRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec model.RunRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, sc.Err())
	require.Len(t, lines, 2)

	assert.Equal(t, "success", lines[0].Outcome)
	assert.Equal(t, standard, lines[0].Parameters)
	assert.Equal(t, 3, lines[0].Steps)
	assert.Equal(t, "failure", lines[1].Outcome)
	assert.Contains(t, lines[1].Error, "solver diverged")
	assert.NotEqual(t, lines[0].ID, lines[1].ID)
}

func TestSession_KPIsUseDisplayedParameters(t *testing.T) {
	s, _ := newTestSession(t, returning(resultWith(80, 3), nil))
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	kpi, ok := s.KPIs()
	require.True(t, ok)
	assert.InDelta(t, 16934.4, kpi.HourlyProfit, 1e-6)
	assert.True(t, kpi.IsProfitable)

	// moving a slider re-prices the shown result without a new run
	require.NoError(t, s.Set("velocity", 4.0))
	kpi, _ = s.KPIs()
	assert.InDelta(t, 33868.8, kpi.HourlyProfit, 1e-6)
	assert.InDelta(t, 1.25, kpi.ResidenceTime, 1e-12)
}

func TestSession_RunLogKeepsOverflowingRuns(t *testing.T) {
	s, _ := newTestSession(t, returning(resultWith(80, 3), nil))

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	// the pass policy forwards the velocity as typed; the profit overflows float64
	require.NoError(t, s.Set("velocity", 1e306))
	_, err = s.Run(context.Background())
	require.NoError(t, err)

	recs, err := s.History(0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "success", recs[1].Outcome)
	assert.Equal(t, 1e306, recs[1].Parameters.FlowVelocity)
	assert.Zero(t, recs[1].HourlyProfit)

	kpi, ok := s.KPIs()
	require.True(t, ok)
	assert.Zero(t, kpi.HourlyProfit)
}

func TestSession_SetAndPreset(t *testing.T) {
	s, _ := newTestSession(t, returning(resultWith(80, 3), nil))

	assert.ErrorIs(t, s.Set("pressure", 2), params.ErrUnknownField)

	p, err := s.ApplyPreset("Max Conv")
	require.NoError(t, err)
	assert.Equal(t, model.SimulationParameters{TIn: 340, FlowVelocity: 1.0, TJacket: 290}, p)
	assert.Equal(t, p, s.Store.Get())

	_, err = s.ApplyPreset("Turbo")
	assert.ErrorIs(t, err, params.ErrUnknownPreset)
	assert.Equal(t, p, s.Store.Get())
}

func TestSession_RejectPolicyFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.RunLog = ""
	cfg.BoundsPolicy = "reject"
	cfg.InitialParameters.TIn = 500

	s, err := NewSession(cfg, returning(resultWith(80, 3), nil), nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Run(context.Background())
	var se *SimulationError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindInvalidRequest, se.Kind)
}

func TestSession_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SolverURL = ""
	_, err := NewSession(cfg, nil, nil)
	assert.Error(t, err)
}
