package axis

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/soar/touchremote/backend/internal/surface"
)

// Store holds the unified axis table for one session together with the
// legacy fields it was loaded from. Mutators raise the shared dirty flag.
type Store struct {
	table  Table
	legacy Legacy
	dirty  *atomic.Bool
}

// NewStore creates a store with every axis unbound. dirty may be shared with
// the control store; nil gives the store a flag of its own.
func NewStore(dirty *atomic.Bool) *Store {
	if dirty == nil {
		dirty = atomic.NewBool(false)
	}
	return &Store{table: DefaultTable(), dirty: dirty}
}

// Load installs the table described by d. Legacy slider assignments may also
// live on the slider controls themselves; pass those as extra. It reports
// whether a migration ran along with any entries that had to be defaulted.
func (s *Store) Load(d DrivingConfig, extra []SliderAssignment) (bool, []error) {
	t, migrated, warnings := Resolve(d, extra)
	s.table = t
	s.legacy = d.Legacy()
	s.dirty.Store(true)
	return migrated, warnings
}

// LegacyAssignments collects the per-control axis fields older layouts carry
// on their sliders.
func LegacyAssignments(controls []*surface.Control) []SliderAssignment {
	var out []SliderAssignment
	for _, c := range controls {
		if !c.IsSlider() || c.Axis == "" || c.ID == "" {
			continue
		}
		out = append(out, SliderAssignment{
			ID:          c.ID,
			Axis:        c.Axis,
			Orientation: string(c.Orientation),
			AutoCenter:  c.AutoCenter,
		})
	}
	return out
}

func (s *Store) Table() Table { return s.table }

func (s *Store) Get(a Axis) Config { return s.table.Get(a) }

// Legacy returns the legacy fields as loaded.
func (s *Store) Legacy() Legacy { return s.legacy }

// BoundAxis returns the axis a slider is bound to.
func (s *Store) BoundAxis(sliderID string) (Axis, bool) {
	for i, a := range Axes {
		if id, ok := s.table[i].Source.SliderID(); ok && id == sliderID {
			return a, true
		}
	}
	return "", false
}

// Bind assigns src to axis a. A slider already bound to a different axis is
// refused.
func (s *Store) Bind(a Axis, src Source) error {
	i := a.index()
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownAxis, a)
	}
	if id, ok := src.SliderID(); ok {
		if other, bound := s.BoundAxis(id); bound && other != a {
			return fmt.Errorf("%w: %s is on %s", ErrSliderInUse, id, other)
		}
	}
	s.table[i].Source = src
	s.dirty.Store(true)
	return nil
}

// Shaping carries optional updates to an axis's shaping parameters.
type Shaping struct {
	PeakValue *float64
	Deadzone  *float64
	GyroRange *float64
	Invert    *bool
}

// Shape updates the shaping parameters that are set in sh.
func (s *Store) Shape(a Axis, sh Shaping) error {
	i := a.index()
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownAxis, a)
	}
	c := &s.table[i]
	if sh.PeakValue != nil {
		c.PeakValue = *sh.PeakValue
	}
	if sh.Deadzone != nil {
		c.Deadzone = *sh.Deadzone
	}
	if sh.GyroRange != nil && *sh.GyroRange > 0 {
		c.GyroRange = *sh.GyroRange
	}
	if sh.Invert != nil {
		c.Invert = *sh.Invert
	}
	s.dirty.Store(true)
	return nil
}

// Reset unbinds a; its shaping parameters are kept.
func (s *Store) Reset(a Axis) error { return s.Bind(a, None()) }

// UnbindSlider resets every axis bound to the given slider and returns them.
func (s *Store) UnbindSlider(id string) []Axis {
	var out []Axis
	for i, a := range Axes {
		if sid, ok := s.table[i].Source.SliderID(); ok && sid == id {
			s.table[i].Source = None()
			out = append(out, a)
		}
	}
	if len(out) > 0 {
		s.dirty.Store(true)
	}
	return out
}

// Candidate is a slider offered for binding to an axis.
type Candidate struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected,omitempty"`
	BoundTo   Axis   `json:"bound_to,omitempty"`
}

// Candidates lists the sliders selectable for axis a. A slider bound to a
// different axis is listed but unavailable. Sliders without an id yet cannot
// be bound and are unavailable too.
func (s *Store) Candidates(a Axis, sliders []*surface.Control) []Candidate {
	out := make([]Candidate, 0, len(sliders))
	for _, c := range sliders {
		if !c.IsSlider() {
			continue
		}
		cand := Candidate{ID: c.ID, Label: c.Label, Available: c.ID != ""}
		if other, bound := s.BoundAxis(c.ID); bound && c.ID != "" {
			cand.BoundTo = other
			if other == a {
				cand.Selected = true
			} else {
				cand.Available = false
			}
		}
		out = append(out, cand)
	}
	return out
}

// Validate checks the table before it is saved.
func (s *Store) Validate() error { return s.table.Validate() }

// Export builds the driving config to persist. base supplies the non-axis
// fields. With legacyCompat the legacy fields are derived from the table;
// otherwise they are cleared.
func (s *Store) Export(base DrivingConfig, legacyCompat bool, lookup SliderLookup) DrivingConfig {
	out := base
	out.AxisConfig = s.table.Records()
	out.GyroAxisMapping = nil
	out.Sliders = nil
	if legacyCompat {
		l := s.table.DeriveLegacy(lookup)
		out.GyroAxisMapping = l.GyroAxisMapping
		out.Sliders = l.Sliders
	}
	return out
}

// ControlLookup adapts a control store to SliderLookup.
func ControlLookup(store *surface.Store) SliderLookup {
	return func(id string) (string, bool, bool) {
		c, ok := store.Lookup(id)
		if !ok || !c.IsSlider() {
			return "", false, false
		}
		return string(c.Orientation), c.AutoCenter, true
	}
}
