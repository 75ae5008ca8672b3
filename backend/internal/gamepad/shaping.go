package gamepad

import "math"

// NormalizeGyro maps an orientation angle in degrees to -1..1, reaching full
// scale at gyroRange degrees. Alpha is a 0..360 heading and is first wrapped
// to -180..180.
func NormalizeGyro(degrees float64, alpha bool, gyroRange float64) float64 {
	if gyroRange <= 0 {
		return 0
	}
	if alpha && degrees > 180 {
		degrees -= 360
	}
	return clamp(degrees/gyroRange, -1, 1)
}

// ApplyDeadzone zeroes values whose magnitude is at most threshold and
// rescales the rest so the output still spans the full range.
func ApplyDeadzone(v, threshold float64) float64 {
	if math.Abs(v) <= threshold {
		return 0
	}
	if threshold >= 1 {
		return 0
	}
	if v > 0 {
		return (v - threshold) / (1 - threshold)
	}
	return (v + threshold) / (1 - threshold)
}

// ApplyPeak scales a value by the axis's peak output.
func ApplyPeak(v, peak float64) float64 {
	return v * peak
}

// Shaping is the per-axis processing applied before a value reaches the pad.
type Shaping struct {
	Deadzone float64
	Peak     float64
	Invert   bool
}

// Apply runs deadzone, then peak, then inversion.
func (s Shaping) Apply(v float64) float64 {
	v = ApplyPeak(ApplyDeadzone(v, s.Deadzone), s.Peak)
	if s.Invert {
		v = -v
	}
	return v
}

// StickValue converts -1..1 to a signed 16-bit stick position.
func StickValue(v float64) int16 {
	return int16(math.Round(clamp(v, -1, 1) * math.MaxInt16))
}

// TriggerValue converts 0..1 to an 8-bit trigger position.
func TriggerValue(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * math.MaxUint8))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
