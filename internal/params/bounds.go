package params

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/daryltucker/pfr-console/internal/model"
)

// ErrOutOfDomain is returned by the reject policy for a value outside its slider range.
var ErrOutOfDomain = errors.New("parameter outside domain")

// Bounds is the nominal slider range of one input.
type Bounds struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
	Unit string  `json:"unit"`
}

// Contains reports whether v lies in [Min, Max].
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Clamp limits v to [Min, Max].
func (b Bounds) Clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

// Domain groups the bounds of all three inputs.
type Domain struct {
	TIn          Bounds `json:"T_in"`
	FlowVelocity Bounds `json:"Flow_Velocity"`
	TJacket      Bounds `json:"T_jacket"`
}

// DefaultDomain returns the operator slider ranges.
func DefaultDomain() Domain {
	return Domain{
		TIn:          Bounds{Min: 273, Max: 350, Step: 1, Unit: "K"},
		FlowVelocity: Bounds{Min: 0.5, Max: 5, Step: 0.1, Unit: "m/s"},
		TJacket:      Bounds{Min: 250, Max: 300, Step: 1, Unit: "K"},
	}
}

// For returns the bounds of f.
func (d Domain) For(f Field) (Bounds, error) {
	switch f {
	case FieldTIn:
		return d.TIn, nil
	case FieldFlowVelocity:
		return d.FlowVelocity, nil
	case FieldTJacket:
		return d.TJacket, nil
	}
	return Bounds{}, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
}

// Policy decides what happens to out-of-domain values before they reach the solver.
type Policy string

const (
	PolicyPass   Policy = "pass"
	PolicyClamp  Policy = "clamp"
	PolicyReject Policy = "reject"
)

// ParsePolicy parses a config or flag value. Empty means pass.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyPass:
		return PolicyPass, nil
	case PolicyClamp:
		return PolicyClamp, nil
	case PolicyReject:
		return PolicyReject, nil
	}
	return "", fmt.Errorf("unknown bounds policy %q (want pass, clamp or reject)", s)
}

// Enforce applies policy to p. Non-finite values are rejected under every policy
// because they cannot be encoded as JSON.
func (d Domain) Enforce(p model.SimulationParameters, policy Policy) (model.SimulationParameters, error) {
	out := p
	for _, f := range Fields {
		v, _ := f.Value(p)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return p, fmt.Errorf("%w: %s is not a finite number", ErrOutOfDomain, f)
		}
		b, _ := d.For(f)
		if b.Contains(v) {
			continue
		}
		switch policy {
		case PolicyReject:
			return p, fmt.Errorf("%w: %s=%g not in [%g, %g] %s", ErrOutOfDomain, f, v, b.Min, b.Max, b.Unit)
		case PolicyClamp:
			set(&out, f, b.Clamp(v))
		}
	}
	return out, nil
}

func set(p *model.SimulationParameters, f Field, v float64) {
	switch f {
	case FieldTIn:
		p.TIn = v
	case FieldFlowVelocity:
		p.FlowVelocity = v
	case FieldTJacket:
		p.TJacket = v
	}
}
