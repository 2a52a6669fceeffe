package engine

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBusy is returned by Begin/Start while a request is outstanding.
	ErrBusy = errors.New("simulation already in progress")
	// ErrStaleResponse is returned by Resolve for a ticket that is not the latest issued.
	ErrStaleResponse = errors.New("stale simulation response discarded")
)

// Kind classifies a failed run.
type Kind int

const (
	// KindTransport: the request could not be completed.
	KindTransport Kind = iota
	// KindSolver: the solver answered with a non-2xx status.
	KindSolver
	// KindMalformed: a 2xx body that is not a usable result.
	KindMalformed
	// KindInvalidRequest: the payload was rejected before it was sent.
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindSolver:
		return "solver"
	case KindMalformed:
		return "malformed_response"
	case KindInvalidRequest:
		return "invalid_request"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// SimulationError is the failure of one run.
type SimulationError struct {
	Kind   Kind
	Status int    // HTTP status, 0 if none was received
	Detail string // solver-provided detail, if any
	Err    error
}

// Error is the operator-facing message.
func (e *SimulationError) Error() string {
	return "simulation error: " + e.Message()
}

// Message is the failure description without prefix.
func (e *SimulationError) Message() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Kind == KindSolver:
		return fmt.Sprintf("Solver Server Error (%d %s)", e.Status, http.StatusText(e.Status))
	case e.Kind == KindTransport && e.Err != nil:
		return fmt.Sprintf("Network/Connection Error: %v", e.Err)
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}

// asSimulationError wraps any error that is not already a *SimulationError as a
// transport failure.
func asSimulationError(err error) *SimulationError {
	var se *SimulationError
	if errors.As(err, &se) {
		return se
	}
	return &SimulationError{Kind: KindTransport, Err: err}
}
