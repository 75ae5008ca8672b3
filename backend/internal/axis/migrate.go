package axis

import (
	"errors"
	"fmt"
)

// Table is the unified six-axis mapping, indexed in Axes order.
type Table [numAxes]Config

// DefaultTable has every axis unbound with default shaping.
func DefaultTable() Table {
	var t Table
	for i := range t {
		t[i] = DefaultConfig()
	}
	return t
}

func (t Table) Get(a Axis) Config {
	i := a.index()
	if i < 0 {
		return DefaultConfig()
	}
	return t[i]
}

// Records converts the table to its stored form.
func (t Table) Records() map[string]Record {
	out := make(map[string]Record, numAxes)
	for i, a := range Axes {
		out[string(a)] = t[i].Record()
	}
	return out
}

// Migrate builds a unified table from the legacy format. Gyro mappings are
// applied first in channel order, then slider assignments in list order, so a
// slider assignment overrides a gyro mapping on the same axis. Entries naming
// an unknown axis are skipped.
func Migrate(l Legacy) Table {
	t := DefaultTable()
	for _, ch := range Channels {
		target, ok := l.GyroAxisMapping[string(ch)]
		if !ok || target == "" {
			continue
		}
		if i := Axis(target).index(); i >= 0 {
			t[i].Source = Gyro(ch)
		}
	}
	for _, s := range l.Sliders {
		if s.ID == "" {
			continue
		}
		if i := Axis(s.Axis).index(); i >= 0 {
			t[i].Source = Slider(s.ID)
		}
	}
	return t
}

// FromRecords rebuilds a table from a stored unified table. Axes missing from
// the input keep the default entry; malformed entries are reset to the default
// and reported.
func FromRecords(records map[string]Record) (Table, []error) {
	t := DefaultTable()
	var warnings []error
	for name, r := range records {
		i := Axis(name).index()
		if i < 0 {
			warnings = append(warnings, fmt.Errorf("%w: %q", ErrUnknownAxis, name))
			continue
		}
		c, err := FromRecord(r)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("axis %s: %w", name, err))
		}
		t[i] = c
	}
	return t, warnings
}

// Resolve yields the table a driving config describes: the unified table when
// present (gaps filled with defaults), otherwise a migration of the legacy
// fields. The bool reports whether migration ran.
func Resolve(d DrivingConfig, extraSliders []SliderAssignment) (Table, bool, []error) {
	if d.HasUnified() {
		t, warnings := FromRecords(d.AxisConfig)
		return t, false, warnings
	}
	l := d.Legacy()
	if len(extraSliders) > 0 {
		l.Sliders = append(append([]SliderAssignment(nil), l.Sliders...), extraSliders...)
	}
	return Migrate(l), true, nil
}

// SliderLookup resolves a slider id to the flags the legacy format stores.
type SliderLookup func(id string) (orientation string, autoCenter bool, ok bool)

// DeriveLegacy is the inverse of Migrate. Slider bindings whose slider no
// longer resolves are dropped.
func (t Table) DeriveLegacy(lookup SliderLookup) Legacy {
	l := Legacy{GyroAxisMapping: map[string]string{}}
	for i, a := range Axes {
		src := t[i].Source
		if ch, ok := src.GyroChannel(); ok {
			l.GyroAxisMapping[string(ch)] = string(a)
			continue
		}
		if id, ok := src.SliderID(); ok {
			orientation, autoCenter, found := lookup(id)
			if !found {
				continue
			}
			l.Sliders = append(l.Sliders, SliderAssignment{
				ID:          id,
				Axis:        string(a),
				Orientation: orientation,
				AutoCenter:  autoCenter,
			})
		}
	}
	return l
}

// Validate reports every slider bound to more than one axis.
func (t Table) Validate() error {
	seen := map[string]Axis{}
	var errs []error
	for i, a := range Axes {
		id, ok := t[i].Source.SliderID()
		if !ok {
			continue
		}
		if first, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("%w: %s on %s and %s", ErrDuplicateSlider, id, first, a))
			continue
		}
		seen[id] = a
	}
	return errors.Join(errs...)
}
