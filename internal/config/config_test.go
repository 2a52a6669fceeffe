package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/params"
)

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pfr.yaml")
	yml := `
solver_url: http://solver:8080
request_timeout: 15s
bounds_policy: clamp
allow_any_origin: true
initial_parameters:
  t_in: 320
  flow_velocity: 1.5
  t_jacket: 270
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://solver:8080", cfg.SolverURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, params.PolicyClamp, cfg.Policy())
	assert.True(t, cfg.AllowAnyOrigin)
	assert.False(t, DefaultConfig().AllowAnyOrigin)
	assert.Equal(t, model.SimulationParameters{TIn: 320, FlowVelocity: 1.5, TJacket: 270}, cfg.InitialParameters)
	// untouched keys keep defaults
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "pfr_runs.jsonl", cfg.RunLog)
}

func TestLoad_NoDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("solver_url: [oops"), 0644))
	_, err := Load(bad)
	assert.Error(t, err)

	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("bounds_policy: ignore\n"), 0644))
	_, err = Load(policy)
	assert.ErrorContains(t, err, "bounds policy")
}
