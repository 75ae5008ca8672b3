package surface

// KnobRatio is the knob size relative to the slider's cross-axis extent.
const KnobRatio = 0.8

// Track describes the travel of a slider knob along its orientation axis.
type Track struct {
	Start  float64 // track origin along the orientation axis
	Length float64 // full extent along the orientation axis
	Knob   float64 // knob size along the orientation axis
}

// TrackOf returns the knob travel geometry of a slider.
func TrackOf(c *Control) Track {
	if c.Orientation == Vertical {
		return Track{Start: c.Y, Length: c.Height, Knob: KnobRatio * c.Width}
	}
	return Track{Start: c.X, Length: c.Width, Knob: KnobRatio * c.Height}
}

// Position converts a coordinate along the track to the knob's travel ratio.
// The result is not clamped.
func (t Track) Position(coord float64) float64 {
	travel := t.Length - t.Knob
	if travel <= 0 {
		return 0.5
	}
	return (coord - t.Start - t.Knob/2) / travel
}

// KnobOffset is the inverse of Position: the knob's leading edge for a travel
// ratio, relative to Start.
func (t Track) KnobOffset(pos float64) float64 {
	travel := t.Length - t.Knob
	if travel < 0 {
		travel = 0
	}
	return clamp(pos, 0, 1) * travel
}

// SampleSlider computes the value a slider takes when the pointer is at
// (x, y). The result is clamped into the slider's range.
func SampleSlider(c *Control, x, y float64) float64 {
	t := TrackOf(c)
	var v float64
	if c.Orientation == Vertical {
		pos := t.Position(y)
		if c.RangeMode == Unipolar {
			v = 1 - pos
		} else {
			v = 1 - 2*pos
		}
	} else {
		pos := t.Position(x)
		if c.RangeMode == Unipolar {
			v = pos
		} else {
			v = 2*pos - 1
		}
	}
	lo, hi := c.Range()
	return clamp(v, lo, hi)
}

// ValuePosition maps a slider value back to its travel ratio; the renderer
// uses it to place the knob.
func ValuePosition(c *Control) float64 {
	v := c.Value
	if c.Orientation == Vertical {
		if c.RangeMode == Unipolar {
			return 1 - v
		}
		return (1 - v) / 2
	}
	if c.RangeMode == Unipolar {
		return v
	}
	return (v + 1) / 2
}
