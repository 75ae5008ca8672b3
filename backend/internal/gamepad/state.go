// Package gamepad models the virtual pad driving mode feeds: its state, the
// shaping applied to raw axis values and the deltas broadcast to monitors.
package gamepad

import (
	"math"
	"slices"
)

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SticksState struct {
	Left  Vector `json:"left"`
	Right Vector `json:"right"`
}

type TriggersState struct {
	LT float64 `json:"lt"`
	RT float64 `json:"rt"`
}

// PadState is the virtual pad as last set. Axes holds the axes of a custom
// joystick by index; it is empty for the standard layout.
type PadState struct {
	Connected      bool          `json:"connected"`
	ControllerType string        `json:"controllerType"`
	Name           string        `json:"name"`
	Sticks         SticksState   `json:"sticks"`
	Triggers       TriggersState `json:"triggers"`
	Axes           []float64     `json:"axes,omitempty"`
}

// Clone copies the state including its custom axes.
func (s PadState) Clone() PadState {
	s.Axes = slices.Clone(s.Axes)
	return s
}

// Report is the state in the wire units of an Xbox 360 input report.
type Report struct {
	LT uint8 `json:"lt"`
	RT uint8 `json:"rt"`
	LX int16 `json:"lx"`
	LY int16 `json:"ly"`
	RX int16 `json:"rx"`
	RY int16 `json:"ry"`
}

func (s PadState) Report() Report {
	return Report{
		LT: TriggerValue(s.Triggers.LT),
		RT: TriggerValue(s.Triggers.RT),
		LX: StickValue(s.Sticks.Left.X),
		LY: StickValue(s.Sticks.Left.Y),
		RX: StickValue(s.Sticks.Right.X),
		RY: StickValue(s.Sticks.Right.Y),
	}
}

type DeltaChanges struct {
	Connected      *bool          `json:"connected,omitempty"`
	ControllerType *string        `json:"controllerType,omitempty"`
	Name           *string        `json:"name,omitempty"`
	Sticks         *SticksState   `json:"sticks,omitempty"`
	Triggers       *TriggersState `json:"triggers,omitempty"`
	Axes           []float64      `json:"axes,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Connected == nil &&
		d.ControllerType == nil &&
		d.Name == nil &&
		d.Sticks == nil &&
		d.Triggers == nil &&
		d.Axes == nil
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func ComputeDelta(old, new_ PadState) *DeltaChanges {
	d := &DeltaChanges{}

	if old.Connected != new_.Connected {
		d.Connected = &new_.Connected
	}
	if old.ControllerType != new_.ControllerType {
		d.ControllerType = &new_.ControllerType
	}
	if old.Name != new_.Name {
		d.Name = &new_.Name
	}

	if !floatEqual(old.Sticks.Left.X, new_.Sticks.Left.X) ||
		!floatEqual(old.Sticks.Left.Y, new_.Sticks.Left.Y) ||
		!floatEqual(old.Sticks.Right.X, new_.Sticks.Right.X) ||
		!floatEqual(old.Sticks.Right.Y, new_.Sticks.Right.Y) {
		d.Sticks = &new_.Sticks
	}

	if !floatEqual(old.Triggers.LT, new_.Triggers.LT) ||
		!floatEqual(old.Triggers.RT, new_.Triggers.RT) {
		d.Triggers = &new_.Triggers
	}

	if len(old.Axes) != len(new_.Axes) {
		d.Axes = slices.Clone(new_.Axes)
	} else {
		for i := range new_.Axes {
			if !floatEqual(old.Axes[i], new_.Axes[i]) {
				d.Axes = slices.Clone(new_.Axes)
				break
			}
		}
	}

	return d
}
