// Package layout stores control layouts and driving settings. A document
// lives in one file whose format follows its extension, and can also be
// reached through the HTTP API the server exposes.
package layout

import (
	"fmt"
	"strconv"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/surface"
)

// Modes the surface can run in.
const (
	ModeCustomKeys = "custom_keys"
	ModeDriving    = "driving"
)

// Document is the stored layout.
type Document struct {
	Buttons        []surface.Control    `json:"buttons" yaml:"buttons" toml:"buttons"`
	JoystickType   string               `json:"joystick_type,omitempty" yaml:"joystick_type,omitempty" toml:"joystick_type,omitempty"`
	JoystickName   string               `json:"joystick_name,omitempty" yaml:"joystick_name,omitempty" toml:"joystick_name,omitempty"`
	CustomJoystick *axis.CustomJoystick `json:"custom_joystick,omitempty" yaml:"custom_joystick,omitempty" toml:"custom_joystick,omitempty"`
	DrivingConfig  *axis.DrivingConfig  `json:"driving_config,omitempty" yaml:"driving_config,omitempty" toml:"driving_config,omitempty"`
}

// Config is the payload served to a surface on load: the stored document
// completed with the server-side settings.
type Config struct {
	Document
	Mode         string   `json:"mode"`
	ModifierKeys []string `json:"modifier_keys"`
	SpecialKeys  []string `json:"special_keys"`
}

// Defaults are the server-side settings a Config is completed with.
type Defaults struct {
	Mode           string
	ModifierKeys   []string
	SpecialKeys    []string
	JoystickType   string
	CustomJoystick *axis.CustomJoystick
	DrivingConfig  axis.DrivingConfig
}

// Complete builds the config served for d. Stored joystick and driving
// settings take precedence over the defaults; the driving section is only
// defaulted in driving mode.
func (d Document) Complete(def Defaults) Config {
	c := Config{
		Document:     d,
		Mode:         def.Mode,
		ModifierKeys: def.ModifierKeys,
		SpecialKeys:  def.SpecialKeys,
	}
	if c.Buttons == nil {
		c.Buttons = []surface.Control{}
	}
	if c.JoystickType == "" {
		c.JoystickType = def.JoystickType
		if c.JoystickType == "" {
			c.JoystickType = axis.JoystickXbox360
		}
	}
	if c.CustomJoystick == nil && c.JoystickType == axis.JoystickCustom {
		c.CustomJoystick = def.CustomJoystick
	}
	if c.DrivingConfig == nil && def.Mode == ModeDriving {
		dc := def.DrivingConfig
		c.DrivingConfig = &dc
	}
	return c
}

// Settings extracts the driving section.
func (d Document) Settings() axis.Settings {
	return axis.Settings{
		JoystickType:   d.JoystickType,
		CustomJoystick: d.CustomJoystick,
		DrivingConfig:  d.DrivingConfig,
	}
}

// Find returns the stored control with the given id.
func (d Document) Find(id string) (surface.Control, bool) {
	for _, c := range d.Buttons {
		if c.ID == id {
			return c, true
		}
	}
	return surface.Control{}, false
}

// NextID picks the id for a new control: btn<N> with N one past the number
// of stored controls, counting up until it is free.
func (d Document) NextID() string {
	used := make(map[string]bool, len(d.Buttons))
	for _, c := range d.Buttons {
		used[c.ID] = true
	}
	for n := len(d.Buttons) + 1; ; n++ {
		id := "btn" + strconv.Itoa(n)
		if !used[id] {
			return id
		}
	}
}

func (d *Document) add(c surface.Control) string {
	c.ID = d.NextID()
	d.Buttons = append(d.Buttons, c)
	return c.ID
}

// upsert replaces the control with c's id, or appends c when there is none.
func (d *Document) upsert(c surface.Control) error {
	if c.ID == "" {
		return fmt.Errorf("update control: %w", ErrMissingID)
	}
	for i := range d.Buttons {
		if d.Buttons[i].ID == c.ID {
			d.Buttons[i] = c
			return nil
		}
	}
	d.Buttons = append(d.Buttons, c)
	return nil
}

func (d *Document) remove(id string) bool {
	out := d.Buttons[:0]
	removed := false
	for _, c := range d.Buttons {
		if c.ID == id {
			removed = true
			continue
		}
		out = append(out, c)
	}
	d.Buttons = out
	return removed
}

// apply stores a driving update. The custom joystick is only kept when the
// update selects the custom type.
func (d *Document) apply(s axis.Settings) {
	if s.JoystickType != "" {
		d.JoystickType = s.JoystickType
		if s.JoystickType == axis.JoystickCustom && s.CustomJoystick != nil {
			d.CustomJoystick = s.CustomJoystick
		}
	}
	if s.DrivingConfig != nil {
		d.DrivingConfig = s.DrivingConfig
	}
}
