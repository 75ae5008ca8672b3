// Package surface holds the control surface core: the ordered control store,
// hit testing, per-pointer routing, slider sampling and the render decisions
// that turn the store into a paintable frame.
package surface

import "strings"

type Kind string

const (
	KindButton Kind = "button"
	KindSlider Kind = "slider"
)

type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

type RangeMode string

const (
	Bipolar  RangeMode = "bipolar"  // [-1, 1]
	Unipolar RangeMode = "unipolar" // [0, 1]
)

// Size limits applied while resizing interactively.
const (
	MinSize = 50.0
	MaxSize = 200.0
)

// Palette is the fixed set of control colors addressed by ColorIndex.
var Palette = []string{
	"#555555",
	"#e74c3c",
	"#3498db",
	"#2ecc71",
	"#f39c12",
	"#9b59b6",
	"#1abc9c",
	"#e67e22",
}

// Control is a button or slider region on the surface. Value and Active are
// runtime state and never persisted.
type Control struct {
	ID         string   `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Type       Kind     `json:"type" yaml:"type" toml:"type"`
	X          float64  `json:"x" yaml:"x" toml:"x"`
	Y          float64  `json:"y" yaml:"y" toml:"y"`
	Width      float64  `json:"width" yaml:"width" toml:"width"`
	Height     float64  `json:"height" yaml:"height" toml:"height"`
	Label      string   `json:"label" yaml:"label" toml:"label"`
	ColorIndex int      `json:"colorIndex" yaml:"colorIndex" toml:"colorIndex"`
	Keys       []string `json:"keys" yaml:"keys,omitempty" toml:"keys,omitempty"`

	Orientation Orientation `json:"orientation" yaml:"orientation,omitempty" toml:"orientation,omitempty"`
	RangeMode   RangeMode   `json:"rangeMode" yaml:"rangeMode,omitempty" toml:"rangeMode,omitempty"`
	AutoCenter  bool        `json:"autoCenter" yaml:"autoCenter,omitempty" toml:"autoCenter,omitempty"`
	// Axis is the legacy per-slider axis assignment. It is only read during
	// migration to the unified axis table.
	Axis string `json:"axis" yaml:"axis,omitempty" toml:"axis,omitempty"`

	Value  float64 `json:"-" yaml:"-" toml:"-"`
	Active bool    `json:"-" yaml:"-" toml:"-"`
}

func (c *Control) IsSlider() bool { return c.Type == KindSlider }
func (c *Control) IsButton() bool { return c.Type == KindButton }

// Contains reports whether (x, y) lies inside the control's bounding box,
// edges included.
func (c *Control) Contains(x, y float64) bool {
	return x >= c.X && x <= c.X+c.Width &&
		y >= c.Y && y <= c.Y+c.Height
}

// Color resolves ColorIndex against Palette, wrapping out of range indices.
func (c *Control) Color() string {
	n := len(Palette)
	i := c.ColorIndex % n
	if i < 0 {
		i += n
	}
	return Palette[i]
}

// AddKey appends a key token unless it is already present.
func (c *Control) AddKey(key string) bool {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return false
	}
	for _, k := range c.Keys {
		if k == key {
			return false
		}
	}
	c.Keys = append(c.Keys, key)
	return true
}

// SetKeys replaces the key list, dropping blanks and duplicates.
func (c *Control) SetKeys(keys []string) {
	c.Keys = nil
	for _, k := range keys {
		c.AddKey(k)
	}
}

// Range returns the value bounds implied by RangeMode. Anything that is not
// unipolar is treated as bipolar.
func (c *Control) Range() (lo, hi float64) {
	if c.RangeMode == Unipolar {
		return 0, 1
	}
	return -1, 1
}

// RestValue is the midpoint of the active range.
func (c *Control) RestValue() float64 {
	lo, hi := c.Range()
	return (lo + hi) / 2
}

// SetValue stores v clamped into the active range and returns what was stored.
func (c *Control) SetValue(v float64) float64 {
	lo, hi := c.Range()
	c.Value = clamp(v, lo, hi)
	return c.Value
}

// Recenter puts a slider back at its rest value.
func (c *Control) Recenter() float64 {
	c.Value = c.RestValue()
	return c.Value
}

// Normalize fills in defaults for fields a loaded or drafted control may lack
// and pulls the current value back into range.
func (c *Control) Normalize() {
	if c.Type != KindSlider {
		c.Type = KindButton
	}
	if c.Width <= 0 {
		c.Width = 100
	}
	if c.Height <= 0 {
		c.Height = 100
	}
	if c.IsSlider() {
		if c.Orientation != Vertical {
			c.Orientation = Horizontal
		}
		if c.RangeMode != Unipolar {
			c.RangeMode = Bipolar
		}
		c.SetValue(c.Value)
		c.Keys = nil
	} else {
		c.Orientation = ""
		c.RangeMode = ""
		c.AutoCenter = false
		c.Axis = ""
		c.SetKeys(c.Keys)
	}
}

// Clone returns a deep copy.
func (c *Control) Clone() *Control {
	cp := *c
	if c.Keys != nil {
		cp.Keys = append([]string(nil), c.Keys...)
	}
	return &cp
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
