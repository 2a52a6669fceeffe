/*
PURPOSE:
  Holds the operator's current simulation inputs for the session.
  The store is a pass-through container: it does not validate values.

REQUIREMENTS:
  User-specified:
  - Set one field without touching the others.
  - Apply a preset as a single update.

  Implementation-discovered:
  - Websocket handlers and the controller read concurrently, so access is locked.
  - Observers must never see a half-applied preset.

ARCHITECTURE INTEGRATION:
  - Used by: internal/engine (request payload), internal/cli, internal/server
  - Bounds checking lives in bounds.go and is applied at request-building time.

ERROR HANDLING:
  - Set returns ErrUnknownField for a field name it does not know.

IMPLEMENTATION RULES:
  - Get returns a value copy.
  - Observers run outside the data lock, so they may call Get.
  - Observers see changes in the order they were applied. They must not call Set
    or ApplyPreset.

USAGE:
  s := params.NewStore(params.Standard)
  s.Set(params.FieldTIn, 320)

RELATED FILES:
  - internal/params/presets.go
  - internal/params/bounds.go
*/

package params

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/daryltucker/pfr-console/internal/model"
)

// ErrUnknownField is returned for a parameter name outside the three inputs.
var ErrUnknownField = errors.New("unknown parameter field")

// Field names one simulation input, using the solver wire name.
type Field string

const (
	FieldTIn          Field = "T_in"
	FieldFlowVelocity Field = "Flow_Velocity"
	FieldTJacket      Field = "T_jacket"
)

// Fields lists the inputs in display order.
var Fields = []Field{FieldTIn, FieldFlowVelocity, FieldTJacket}

// ParseField accepts wire names and a few operator-friendly aliases.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t_in", "tin", "inlet":
		return FieldTIn, nil
	case "flow_velocity", "velocity", "v":
		return FieldFlowVelocity, nil
	case "t_jacket", "tjacket", "jacket":
		return FieldTJacket, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Value reads one field from p.
func (f Field) Value(p model.SimulationParameters) (float64, error) {
	switch f {
	case FieldTIn:
		return p.TIn, nil
	case FieldFlowVelocity:
		return p.FlowVelocity, nil
	case FieldTJacket:
		return p.TJacket, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
}

// Store is the session's parameter container.
type Store struct {
	// notifyMu orders change-then-notify; mu guards the fields below
	notifyMu  sync.Mutex
	mu        sync.RWMutex
	p         model.SimulationParameters
	observers []func(model.SimulationParameters)
}

// NewStore creates a Store holding initial.
func NewStore(initial model.SimulationParameters) *Store {
	return &Store{p: initial}
}

// Get returns the current parameters.
func (s *Store) Get() model.SimulationParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.p
}

// Set replaces exactly one field.
func (s *Store) Set(f Field, v float64) error {
	if _, err := f.Value(model.SimulationParameters{}); err != nil {
		return err
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	set(&s.p, f, v)
	snap, obs := s.p, s.observers
	s.mu.Unlock()

	notify(obs, snap)
	return nil
}

// ApplyPreset replaces all three fields in one step.
func (s *Store) ApplyPreset(p model.SimulationParameters) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.p = p
	obs := s.observers
	s.mu.Unlock()

	notify(obs, p)
}

// Subscribe registers fn to be called with the new parameters after every change.
func (s *Store) Subscribe(fn func(model.SimulationParameters)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func notify(obs []func(model.SimulationParameters), p model.SimulationParameters) {
	for _, fn := range obs {
		fn(p)
	}
}
