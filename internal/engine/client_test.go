package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/pfr-console/internal/httputil"
	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/output"
)

func TestMain(m *testing.M) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	output.SetLogger(l)
	os.Exit(m.Run())
}

const okBody = `{"z_axis":[0,0.5,1.0],"temperature_profile":[300,310,305],"concentration_profile":[1000,600,200],"final_conversion":80.0,"max_temperature":310.0}`

var standard = model.SimulationParameters{TIn: 300, FlowVelocity: 2.0, TJacket: 280}

func TestClient_Simulate_Success(t *testing.T) {
	var got map[string]float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/simulate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil)
	res, err := c.Simulate(context.Background(), standard)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"T_in": 300, "Flow_Velocity": 2.0, "T_jacket": 280}, got)
	assert.Equal(t, &model.SimulationResult{
		ZAxis:                []float64{0, 0.5, 1.0},
		TemperatureProfile:   []float64{300, 310, 305},
		ConcentrationProfile: []float64{1000, 600, 200},
		FinalConversion:      80,
		MaxTemperature:       310,
	}, res)
}

func TestClient_Simulate_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		kind       Kind
		wantInText string
	}{
		{"detail string", http.StatusInternalServerError, `{"detail":"solver diverged"}`, KindSolver, "solver diverged"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","T_in"],"msg":"field required"}]}`, KindSolver, "field required"},
		{"no detail", http.StatusBadGateway, `<html>bad gateway</html>`, KindSolver, "Solver Server Error (502 Bad Gateway)"},
		{"missing field", http.StatusOK, `{"z_axis":[0],"temperature_profile":[300],"concentration_profile":[1],"final_conversion":1}`, KindMalformed, "max_temperature"},
		{"ragged", http.StatusOK, `{"z_axis":[0,1],"temperature_profile":[300],"concentration_profile":[1,2],"final_conversion":1,"max_temperature":300}`, KindMalformed, "profile lengths differ"},
		{"not json", http.StatusOK, `ok`, KindMalformed, "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := httputil.NewMockHTTPClient().AddResponse(tt.status, tt.body)
			c := NewClient("http://solver", mock)

			res, err := c.Simulate(context.Background(), standard)
			assert.Nil(t, res)

			var se *SimulationError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.kind, se.Kind)
			assert.Contains(t, err.Error(), tt.wantInText)
			assert.Contains(t, err.Error(), "simulation error: ")
			if tt.kind == KindMalformed {
				assert.ErrorIs(t, err, model.ErrMalformedResult)
			}
		})
	}
}

func TestClient_Simulate_TransportError(t *testing.T) {
	mock := httputil.NewMockHTTPClient().AddErrorResponse(errors.New("connection refused"))
	c := NewClient("http://solver", mock)

	_, err := c.Simulate(context.Background(), standard)
	var se *SimulationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindTransport, se.Kind)
	assert.Equal(t, "simulation error: Network/Connection Error: connection refused", err.Error())

	assert.JSONEq(t, `{"T_in":300,"Flow_Velocity":2,"T_jacket":280}`, string(mock.Body(0)))
	assert.Equal(t, "http://solver/simulate", mock.Requests[0].URL.String())
}

func TestClient_Simulate_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(srv.URL, nil).Simulate(ctx, standard)

	var se *SimulationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindTransport, se.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}
