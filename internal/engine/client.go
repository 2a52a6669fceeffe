/*
PURPOSE:
  Client for the external PFR solver service.
  Sends the process inputs and decodes the spatial profiles it returns.

REQUIREMENTS:
  User-specified:
  - POST /simulate with {T_in, Flow_Velocity, T_jacket}.
  - A non-2xx body may carry {detail}; surface it to the operator.

  Implementation-discovered:
  - A 2xx body can still be unusable (missing fields, ragged arrays); classify it
    as malformed rather than letting the charts fail later.
  - FastAPI-style validation errors send detail as a list, not a string.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Controller)
  - Uses: internal/httputil, internal/model, internal/output

ERROR HANDLING:
  - Every failure is a *SimulationError with a Kind.
  - No retries here. A retry is an explicit operator action.

IMPLEMENTATION RULES:
  - No timeout of its own; the transport (httputil.StandardClient) owns it.
  - Honour ctx on the outbound request.

USAGE:
  c := engine.NewClient(cfg.SolverURL, httputil.NewStandardClient(cfg.RequestTimeout))
  res, err := c.Simulate(ctx, params)

SELF-HEALING INSTRUCTIONS:
  - If the solver renames fields, update wireResult.

RELATED FILES:
  - internal/engine/errors.go
  - internal/model/types.go
*/

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/daryltucker/pfr-console/internal/httputil"
	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/output"
)

// SimulatePath is the solver endpoint.
const SimulatePath = "/simulate"

// Solver computes reactor profiles for a set of inputs.
type Solver interface {
	Simulate(ctx context.Context, p model.SimulationParameters) (*model.SimulationResult, error)
}

// Client talks to the solver over HTTP.
type Client struct {
	BaseURL string
	HTTP    httputil.HTTPClient
}

// NewClient creates a Client. A nil hc uses a StandardClient without timeout.
func NewClient(baseURL string, hc httputil.HTTPClient) *Client {
	if hc == nil {
		hc = httputil.NewStandardClient(0)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    hc,
	}
}

// wireResult uses pointers so absent fields can be told apart from zeros.
type wireResult struct {
	ZAxis                *[]float64 `json:"z_axis"`
	TemperatureProfile   *[]float64 `json:"temperature_profile"`
	ConcentrationProfile *[]float64 `json:"concentration_profile"`
	FinalConversion      *float64   `json:"final_conversion"`
	MaxTemperature       *float64   `json:"max_temperature"`
}

type wireError struct {
	Detail json.RawMessage `json:"detail"`
}

// Simulate runs one solver request.
func (c *Client) Simulate(ctx context.Context, p model.SimulationParameters) (*model.SimulationResult, error) {
	reqBody, err := json.Marshal(p)
	if err != nil {
		return nil, &SimulationError{Kind: KindInvalidRequest, Err: err}
	}

	trace := &httptrace.ClientTrace{
		GotConn: func(connInfo httptrace.GotConnInfo) {
			output.Logger.WithFields(logrus.Fields{
				"remote": connInfo.Conn.RemoteAddr(),
				"reused": connInfo.Reused,
			}).Debug("Network: Connected")
		},
		GotFirstResponseByte: func() {
			output.Logger.Debug("Network: First Byte Received")
		},
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+SimulatePath, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &SimulationError{Kind: KindInvalidRequest, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &SimulationError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SimulationError{Kind: KindTransport, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SimulationError{
			Kind:   KindSolver,
			Status: resp.StatusCode,
			Detail: detailOf(body),
		}
	}

	return decodeResult(body)
}

func decodeResult(body []byte) (*model.SimulationResult, error) {
	var w wireResult
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, &SimulationError{Kind: KindMalformed, Err: fmt.Errorf("%w: invalid JSON: %v", model.ErrMalformedResult, err)}
	}

	var missing []string
	if w.ZAxis == nil {
		missing = append(missing, "z_axis")
	}
	if w.TemperatureProfile == nil {
		missing = append(missing, "temperature_profile")
	}
	if w.ConcentrationProfile == nil {
		missing = append(missing, "concentration_profile")
	}
	if w.FinalConversion == nil {
		missing = append(missing, "final_conversion")
	}
	if w.MaxTemperature == nil {
		missing = append(missing, "max_temperature")
	}
	if len(missing) > 0 {
		return nil, &SimulationError{Kind: KindMalformed, Err: fmt.Errorf("%w: missing %s", model.ErrMalformedResult, strings.Join(missing, ", "))}
	}

	res := &model.SimulationResult{
		ZAxis:                *w.ZAxis,
		TemperatureProfile:   *w.TemperatureProfile,
		ConcentrationProfile: *w.ConcentrationProfile,
		FinalConversion:      *w.FinalConversion,
		MaxTemperature:       *w.MaxTemperature,
	}
	if err := res.Validate(); err != nil {
		return nil, &SimulationError{Kind: KindMalformed, Err: err}
	}
	return res, nil
}

// detailOf extracts the solver's detail field. A non-string detail is returned as
// compact JSON; an absent one as "".
func detailOf(body []byte) string {
	var e wireError
	if err := json.Unmarshal(body, &e); err != nil || len(e.Detail) == 0 || string(e.Detail) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, e.Detail); err != nil {
		return string(e.Detail)
	}
	return buf.String()
}
