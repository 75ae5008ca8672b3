// Package axis maps the six standard joystick axes onto analog sources
// (orientation sensor channels or sliders) and migrates the legacy per-axis
// mapping format to the unified table.
package axis

import (
	"errors"
	"fmt"
)

type Axis string

const (
	LeftX        Axis = "left_x"
	LeftY        Axis = "left_y"
	RightX       Axis = "right_x"
	RightY       Axis = "right_y"
	LeftTrigger  Axis = "left_trigger"
	RightTrigger Axis = "right_trigger"
)

// Axes lists every standard axis in canonical order.
var Axes = [numAxes]Axis{LeftX, LeftY, RightX, RightY, LeftTrigger, RightTrigger}

const numAxes = 6

func (a Axis) index() int {
	for i, x := range Axes {
		if x == a {
			return i
		}
	}
	return -1
}

func (a Axis) Valid() bool { return a.index() >= 0 }

func (a Axis) IsTrigger() bool { return a == LeftTrigger || a == RightTrigger }

// ParseAxis accepts the axis names used on the wire and in stored configs.
func ParseAxis(s string) (Axis, error) {
	a := Axis(s)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAxis, s)
	}
	return a, nil
}

type GyroChannel string

const (
	Alpha GyroChannel = "alpha" // rotation around z, 0..360
	Beta  GyroChannel = "beta"  // front-back tilt
	Gamma GyroChannel = "gamma" // left-right tilt
)

// Channels lists the gyro channels in a fixed order.
var Channels = []GyroChannel{Alpha, Beta, Gamma}

func ParseGyroChannel(s string) (GyroChannel, error) {
	switch GyroChannel(s) {
	case Alpha, Beta, Gamma:
		return GyroChannel(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

type SourceType string

const (
	SourceNone   SourceType = "none"
	SourceGyro   SourceType = "gyro"
	SourceSlider SourceType = "slider"
)

var (
	ErrUnknownAxis       = errors.New("unknown axis")
	ErrUnknownChannel    = errors.New("unknown gyro channel")
	ErrUnknownSourceType = errors.New("unknown source type")
	ErrMissingSourceID   = errors.New("source id required")
	ErrSliderInUse       = errors.New("slider already bound to another axis")
	ErrDuplicateSlider   = errors.New("slider bound to more than one axis")
)

// Source is a closed variant: none, a gyro channel or a slider. The id only
// exists for the latter two, so a none source can never carry one.
type Source struct {
	kind SourceType
	id   string
}

func None() Source { return Source{} }

func Gyro(ch GyroChannel) Source { return Source{kind: SourceGyro, id: string(ch)} }

// Slider binds a slider control. An empty id yields None.
func Slider(id string) Source {
	if id == "" {
		return None()
	}
	return Source{kind: SourceSlider, id: id}
}

// ParseSource builds a Source from its stored type and id.
func ParseSource(typ, id string) (Source, error) {
	switch SourceType(typ) {
	case SourceNone, "":
		return None(), nil
	case SourceGyro:
		ch, err := ParseGyroChannel(id)
		if err != nil {
			return None(), err
		}
		return Gyro(ch), nil
	case SourceSlider:
		if id == "" {
			return None(), ErrMissingSourceID
		}
		return Slider(id), nil
	}
	return None(), fmt.Errorf("%w: %q", ErrUnknownSourceType, typ)
}

func (s Source) Type() SourceType {
	if s.kind == "" {
		return SourceNone
	}
	return s.kind
}

// ID is the gyro channel name or slider id; empty for None.
func (s Source) ID() string { return s.id }

func (s Source) IsNone() bool { return s.Type() == SourceNone }

func (s Source) GyroChannel() (GyroChannel, bool) {
	if s.kind != SourceGyro {
		return "", false
	}
	return GyroChannel(s.id), true
}

func (s Source) SliderID() (string, bool) {
	if s.kind != SourceSlider {
		return "", false
	}
	return s.id, true
}

func (s Source) String() string {
	if s.IsNone() {
		return string(SourceNone)
	}
	return string(s.kind) + ":" + s.id
}

// Shaping defaults.
const (
	DefaultPeakValue = 1.0
	DefaultDeadzone  = 0.05
	DefaultGyroRange = 90.0
	// LegacyGyroRange is the full-scale angle used when only the legacy gyro
	// mapping exists.
	LegacyGyroRange = 45.0
)

// Config is one axis entry. The shaping parameters are carried for the
// consumer of axis values; nothing in this package evaluates them.
type Config struct {
	Source    Source
	PeakValue float64
	Deadzone  float64
	GyroRange float64
	Invert    bool
}

func DefaultConfig() Config {
	return Config{
		PeakValue: DefaultPeakValue,
		Deadzone:  DefaultDeadzone,
		GyroRange: DefaultGyroRange,
	}
}

// Record is the stored form of a Config.
type Record struct {
	SourceType string   `json:"source_type" yaml:"source_type" toml:"source_type"`
	SourceID   *string  `json:"source_id" yaml:"source_id" toml:"source_id,omitempty"`
	PeakValue  *float64 `json:"peak_value,omitempty" yaml:"peak_value,omitempty" toml:"peak_value,omitempty"`
	Deadzone   *float64 `json:"deadzone,omitempty" yaml:"deadzone,omitempty" toml:"deadzone,omitempty"`
	GyroRange  *float64 `json:"gyro_range,omitempty" yaml:"gyro_range,omitempty" toml:"gyro_range,omitempty"`
	Invert     bool     `json:"invert,omitempty" yaml:"invert,omitempty" toml:"invert,omitempty"`
}

// Record converts c to its stored form. source_id is null exactly when the
// source is none.
func (c Config) Record() Record {
	r := Record{
		SourceType: string(c.Source.Type()),
		PeakValue:  ptr(c.PeakValue),
		Deadzone:   ptr(c.Deadzone),
		GyroRange:  ptr(c.GyroRange),
		Invert:     c.Invert,
	}
	if !c.Source.IsNone() {
		r.SourceID = ptr(c.Source.ID())
	}
	return r
}

// FromRecord converts a stored entry. Missing shaping fields take their
// defaults. On error the returned Config is the default one.
func FromRecord(r Record) (Config, error) {
	c := DefaultConfig()
	var id string
	if r.SourceID != nil {
		id = *r.SourceID
	}
	src, err := ParseSource(r.SourceType, id)
	if err != nil {
		return c, err
	}
	c.Source = src
	if r.PeakValue != nil {
		c.PeakValue = *r.PeakValue
	}
	if r.Deadzone != nil {
		c.Deadzone = *r.Deadzone
	}
	if r.GyroRange != nil && *r.GyroRange > 0 {
		c.GyroRange = *r.GyroRange
	}
	c.Invert = r.Invert
	return c, nil
}

func ptr[T any](v T) *T { return &v }
