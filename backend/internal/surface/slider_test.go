package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleSliderMidpoint(t *testing.T) {
	c := slider("S1", 50, 0, 200, 60, Horizontal, Unipolar)

	assert.InDelta(t, 48.0, TrackOf(&c).Knob, 1e-9)
	assert.InDelta(t, 0.5, SampleSlider(&c, 150, 30), 1e-9)
}

func TestSampleSliderMapping(t *testing.T) {
	tests := []struct {
		name string
		c    Control
		x, y float64
		want float64
	}{
		{"horizontal unipolar start", slider("h", 0, 0, 200, 50, Horizontal, Unipolar), 20, 25, 0},
		{"horizontal unipolar end", slider("h", 0, 0, 200, 50, Horizontal, Unipolar), 180, 25, 1},
		{"horizontal bipolar start", slider("h", 0, 0, 200, 50, Horizontal, Bipolar), 20, 25, -1},
		{"horizontal bipolar center", slider("h", 0, 0, 200, 50, Horizontal, Bipolar), 100, 25, 0},
		{"horizontal bipolar end", slider("h", 0, 0, 200, 50, Horizontal, Bipolar), 180, 25, 1},
		{"vertical unipolar top", slider("v", 0, 0, 50, 200, Vertical, Unipolar), 25, 20, 1},
		{"vertical unipolar bottom", slider("v", 0, 0, 50, 200, Vertical, Unipolar), 25, 180, 0},
		{"vertical bipolar top", slider("v", 0, 0, 50, 200, Vertical, Bipolar), 25, 20, 1},
		{"vertical bipolar center", slider("v", 0, 0, 50, 200, Vertical, Bipolar), 25, 100, 0},
		{"vertical bipolar bottom", slider("v", 0, 0, 50, 200, Vertical, Bipolar), 25, 180, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SampleSlider(&tt.c, tt.x, tt.y), 1e-9)
		})
	}
}

func TestSampleSliderStaysInRange(t *testing.T) {
	for _, o := range []Orientation{Horizontal, Vertical} {
		for _, m := range []RangeMode{Unipolar, Bipolar} {
			c := slider("s", 100, 100, 150, 60, o, m)
			if o == Vertical {
				c.Width, c.Height = 60, 150
			}
			lo, hi := c.Range()
			for x := -1000.0; x <= 1000; x += 7.5 {
				for y := -1000.0; y <= 1000; y += 7.5 {
					v := SampleSlider(&c, x, y)
					if v < lo || v > hi {
						t.Fatalf("%s/%s at (%v,%v): %v outside [%v,%v]", o, m, x, y, v, lo, hi)
					}
				}
			}
		}
	}
}

func TestSampleSliderDegenerateTrack(t *testing.T) {
	// knob larger than the track: no travel, value sits mid-range
	c := slider("s", 0, 0, 50, 100, Horizontal, Unipolar)
	assert.InDelta(t, 0.5, SampleSlider(&c, 10, 10), 1e-9)
}

func TestValuePositionInvertsSample(t *testing.T) {
	for _, o := range []Orientation{Horizontal, Vertical} {
		for _, m := range []RangeMode{Unipolar, Bipolar} {
			c := slider("s", 0, 0, 200, 200, o, m)
			c.Value = SampleSlider(&c, 110, 110)
			pos := TrackOf(&c).Position(110)
			assert.InDelta(t, pos, ValuePosition(&c), 1e-9, "%s/%s", o, m)
		}
	}
}
