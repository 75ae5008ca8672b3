package axis

// Joystick types a driving config can target.
const (
	JoystickXbox360 = "xbox360"
	JoystickCustom  = "custom"
)

// DrivingConfig is the stored driving-mode section. AxisConfig is the unified
// table; GyroAxisMapping and Sliders are the legacy two-part format.
type DrivingConfig struct {
	AxisConfig      map[string]Record  `json:"axis_config,omitempty" yaml:"axis_config,omitempty" toml:"axis_config,omitempty"`
	GyroAxisMapping map[string]string  `json:"gyro_axis_mapping,omitempty" yaml:"gyro_axis_mapping,omitempty" toml:"gyro_axis_mapping,omitempty"`
	Sliders         []SliderAssignment `json:"sliders,omitempty" yaml:"sliders,omitempty" toml:"sliders,omitempty"`

	GyroSensitivity  float64 `json:"gyro_sensitivity,omitempty" yaml:"gyro_sensitivity,omitempty" toml:"gyro_sensitivity,omitempty"`
	GyroDeadzone     float64 `json:"gyro_deadzone,omitempty" yaml:"gyro_deadzone,omitempty" toml:"gyro_deadzone,omitempty"`
	MaxSteeringAngle float64 `json:"max_steering_angle,omitempty" yaml:"max_steering_angle,omitempty" toml:"max_steering_angle,omitempty"`
	GyroUpdateRate   int     `json:"gyro_update_rate,omitempty" yaml:"gyro_update_rate,omitempty" toml:"gyro_update_rate,omitempty"`
}

// Legacy returns the legacy half of the config.
func (d DrivingConfig) Legacy() Legacy {
	return Legacy{GyroAxisMapping: d.GyroAxisMapping, Sliders: d.Sliders}
}

// HasUnified reports whether a unified table is present and non-empty.
func (d DrivingConfig) HasUnified() bool { return len(d.AxisConfig) > 0 }

// SliderAssignment is one legacy slider-to-axis binding together with the
// slider flags the old format carried alongside it.
type SliderAssignment struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Axis        string `json:"axis" yaml:"axis" toml:"axis"`
	Orientation string `json:"orientation,omitempty" yaml:"orientation,omitempty" toml:"orientation,omitempty"`
	AutoCenter  bool   `json:"autoCenter,omitempty" yaml:"autoCenter,omitempty" toml:"autoCenter,omitempty"`
}

// Legacy is the pre-unified mapping: gyro channel to axis, plus per-slider
// axis assignments.
type Legacy struct {
	GyroAxisMapping map[string]string
	Sliders         []SliderAssignment
}

// CustomJoystick describes a user-defined joystick whose axes are addressed
// by index rather than by standard name.
type CustomJoystick struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Axes        int               `json:"axes,omitempty" yaml:"axes,omitempty" toml:"axes,omitempty"`
	Buttons     int               `json:"buttons,omitempty" yaml:"buttons,omitempty" toml:"buttons,omitempty"`
	AxisMapping map[string]Record `json:"axis_mapping,omitempty" yaml:"axis_mapping,omitempty" toml:"axis_mapping,omitempty"`
}

// Settings is the driving section of a layout document as sent to
// persistence. CustomJoystick is only stored when JoystickType is custom.
type Settings struct {
	JoystickType   string          `json:"joystick_type,omitempty"`
	CustomJoystick *CustomJoystick `json:"custom_joystick,omitempty"`
	DrivingConfig  *DrivingConfig  `json:"driving_config,omitempty"`
}
