package surface

import (
	"errors"

	"go.uber.org/atomic"
)

var (
	ErrNotFound    = errors.New("control not found")
	ErrDuplicateID = errors.New("duplicate control id")
)

// Store is the ordered list of controls. Later entries sit visually on top of
// earlier ones. Every mutator raises the dirty flag; the frame scheduler is the
// only consumer that clears it.
type Store struct {
	controls []*Control
	dirty    *atomic.Bool
}

func NewStore() *Store {
	return &Store{dirty: atomic.NewBool(false)}
}

// Load replaces the whole list. Controls are normalised and sliders start at
// their rest value. Entries repeating an id already seen are dropped.
func (s *Store) Load(controls []Control) {
	s.controls = s.controls[:0]
	seen := make(map[string]bool, len(controls))
	for i := range controls {
		c := controls[i].Clone()
		if c.ID != "" {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
		}
		c.Normalize()
		if c.IsSlider() {
			c.Recenter()
		}
		c.Active = false
		s.controls = append(s.controls, c)
	}
	s.MarkDirty()
}

// Controls returns the live list in insertion order. Callers must not modify
// the slice itself.
func (s *Store) Controls() []*Control { return s.controls }

func (s *Store) Len() int { return len(s.controls) }

// Snapshot copies the list for persistence.
func (s *Store) Snapshot() []Control {
	out := make([]Control, len(s.controls))
	for i, c := range s.controls {
		out[i] = *c.Clone()
	}
	return out
}

// Find returns the control with the given id and its index, or (nil, -1).
func (s *Store) Find(id string) (*Control, int) {
	if id == "" {
		return nil, -1
	}
	for i, c := range s.controls {
		if c.ID == id {
			return c, i
		}
	}
	return nil, -1
}

// Lookup is Find reduced to the shape axis derivation wants.
func (s *Store) Lookup(id string) (*Control, bool) {
	c, _ := s.Find(id)
	return c, c != nil
}

// Contains reports whether c is still part of the store.
func (s *Store) Contains(c *Control) bool {
	if c == nil {
		return false
	}
	for _, x := range s.controls {
		if x == c {
			return true
		}
	}
	return false
}

// Append adds c on top of every existing control.
func (s *Store) Append(c *Control) error {
	if c.ID != "" {
		if existing, _ := s.Find(c.ID); existing != nil {
			return ErrDuplicateID
		}
	}
	s.controls = append(s.controls, c)
	s.MarkDirty()
	return nil
}

// AssignID sets the id handed out by persistence for a pending control.
func (s *Store) AssignID(c *Control, id string) error {
	if existing, _ := s.Find(id); existing != nil && existing != c {
		return ErrDuplicateID
	}
	c.ID = id
	s.MarkDirty()
	return nil
}

// Remove deletes c from the store.
func (s *Store) Remove(c *Control) bool {
	for i, x := range s.controls {
		if x == c {
			copy(s.controls[i:], s.controls[i+1:])
			s.controls[len(s.controls)-1] = nil
			s.controls = s.controls[:len(s.controls)-1]
			s.MarkDirty()
			return true
		}
	}
	return false
}

// Sliders returns the slider controls in insertion order.
func (s *Store) Sliders() []*Control {
	var out []*Control
	for _, c := range s.controls {
		if c.IsSlider() {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) MarkDirty() { s.dirty.Store(true) }

func (s *Store) Dirty() bool { return s.dirty.Load() }

// TakeDirty clears the dirty flag and reports whether it was set.
func (s *Store) TakeDirty() bool { return s.dirty.Swap(false) }

// Flag exposes the dirty flag so sibling stores can share one redraw trigger.
func (s *Store) Flag() *atomic.Bool { return s.dirty }
