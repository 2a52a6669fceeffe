package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/daryltucker/pfr-console/internal/model"
)

// ErrUnknownPreset is returned when a preset name is not in the catalog.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named, fixed parameter bundle.
type Preset struct {
	Name       string                     `json:"name"`
	Alias      string                     `json:"alias,omitempty"`
	Parameters model.SimulationParameters `json:"parameters"`
}

// Standard is the session's starting point.
var Standard = model.SimulationParameters{TIn: 300, FlowVelocity: 2.0, TJacket: 280}

// Catalog is a read-only list of presets.
type Catalog struct {
	presets []Preset
}

// DefaultCatalog returns the built-in presets.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Preset{
		{Name: "Standard", Parameters: Standard},
		{Name: "Max Conversion", Alias: "Max Conv", Parameters: model.SimulationParameters{TIn: 340, FlowVelocity: 1.0, TJacket: 290}},
		{Name: "Safe Mode", Parameters: model.SimulationParameters{TIn: 280, FlowVelocity: 3.5, TJacket: 260}},
	})
}

// NewCatalog builds a catalog from presets. The slice is copied.
func NewCatalog(presets []Preset) *Catalog {
	return &Catalog{presets: append([]Preset(nil), presets...)}
}

// List returns the presets in catalog order.
func (c *Catalog) List() []Preset {
	return append([]Preset(nil), c.presets...)
}

// Lookup finds a preset by name or alias, ignoring case and separators.
func (c *Catalog) Lookup(name string) (Preset, error) {
	key := normalize(name)
	for _, p := range c.presets {
		if normalize(p.Name) == key || (p.Alias != "" && normalize(p.Alias) == key) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Apply writes the named preset into s as one atomic update and returns it.
func (c *Catalog) Apply(name string, s *Store) (model.SimulationParameters, error) {
	p, err := c.Lookup(name)
	if err != nil {
		return model.SimulationParameters{}, err
	}
	s.ApplyPreset(p.Parameters)
	return p.Parameters, nil
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
