// Package config resolves the server settings from flags, TOUCHREMOTE_*
// environment variables and an optional config file, in that order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/layout"
)

const envPrefix = "TOUCHREMOTE"

var ErrInvalid = errors.New("invalid configuration")

// Driving holds the driving-mode defaults served when a layout has none.
type Driving struct {
	GyroSensitivity  float64 `mapstructure:"gyro_sensitivity"`
	GyroDeadzone     float64 `mapstructure:"gyro_deadzone"`
	MaxSteeringAngle float64 `mapstructure:"max_steering_angle"`
	GyroUpdateRate   int     `mapstructure:"gyro_update_rate"`
}

// Joystick describes the virtual pad driving mode feeds.
type Joystick struct {
	Type    string `mapstructure:"type"`
	Name    string `mapstructure:"name"`
	Axes    int    `mapstructure:"axes"`
	Buttons int    `mapstructure:"buttons"`
}

type Config struct {
	ConfigFile   string `mapstructure:"config"`
	Addr         string `mapstructure:"addr"`
	Mode         string `mapstructure:"mode"`
	Layout       string `mapstructure:"layout"`
	API          string `mapstructure:"api"`
	LogLevel     string `mapstructure:"log-level"`
	LogFile      string `mapstructure:"log-file"`
	LogJSON      bool   `mapstructure:"log-json"`
	LegacyCompat bool   `mapstructure:"legacy-compat"`
	FrameRate    int    `mapstructure:"frame-rate"`
	Tray         bool   `mapstructure:"tray"`
	Minify       bool   `mapstructure:"minify"`
	Debug        bool   `mapstructure:"debug"`

	ModifierKeys []string `mapstructure:"modifier_keys"`
	SpecialKeys  []string `mapstructure:"special_keys"`
	Driving      Driving  `mapstructure:"driving"`
	Joystick     Joystick `mapstructure:"joystick"`
}

var (
	defaultModifierKeys = []string{"ctrl", "shift", "alt", "cmd", "win"}
	defaultSpecialKeys  = []string{
		"enter", "esc", "space", "tab", "backspace", "delete",
		"up", "down", "left", "right",
		"home", "end", "pageup", "pagedown",
		"f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10", "f11", "f12",
		"insert", "pause", "printscreen", "numlock", "scrolllock", "capslock",
	}
)

// Flags declares the command line.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("addr", ":5000", "HTTP listen address")
	fs.String("mode", layout.ModeCustomKeys, "surface mode: custom_keys or driving")
	fs.String("layout", "button_config.json", "layout file; the extension picks json, yaml or toml")
	fs.String("api", "", "remote layout API base URL; empty serves the layout file")
	fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
	fs.String("log-file", "", "also write logs to this file")
	fs.Bool("log-json", false, "log as JSON")
	fs.Bool("legacy-compat", false, "also write the legacy gyro mapping and slider list")
	fs.Int("frame-rate", 60, "maximum frames per second sent to each surface")
	fs.Bool("tray", true, "show a system tray icon where supported")
	fs.Bool("minify", true, "minify the embedded web client")
	fs.Bool("debug", false, "serve the web client from disk instead of the embedded copy")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("modifier_keys", defaultModifierKeys)
	v.SetDefault("special_keys", defaultSpecialKeys)
	v.SetDefault("driving.gyro_sensitivity", 1.0)
	v.SetDefault("driving.gyro_deadzone", 2.0)
	v.SetDefault("driving.max_steering_angle", 45.0)
	v.SetDefault("driving.gyro_update_rate", 60)
	v.SetDefault("joystick.type", axis.JoystickXbox360)
	v.SetDefault("joystick.name", "TouchRemote Virtual Joystick")
}

// Load parses args and resolves the configuration.
func Load(args []string) (*Config, error) {
	fs := Flags("touchremote")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return FromFlags(fs)
}

// FromFlags resolves the configuration for an already parsed flag set.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("touchremote")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if !slices.Contains([]string{layout.ModeCustomKeys, layout.ModeDriving}, c.Mode) {
		return fmt.Errorf("%w: mode %q", ErrInvalid, c.Mode)
	}
	if !slices.Contains([]string{axis.JoystickXbox360, axis.JoystickCustom}, c.Joystick.Type) {
		return fmt.Errorf("%w: joystick type %q", ErrInvalid, c.Joystick.Type)
	}
	if c.FrameRate <= 0 || c.FrameRate > 240 {
		return fmt.Errorf("%w: frame rate %d", ErrInvalid, c.FrameRate)
	}
	if c.Layout == "" && c.API == "" {
		return fmt.Errorf("%w: a layout file or API is required", ErrInvalid)
	}
	return nil
}

// Defaults are the server-side settings every served config is completed
// with.
func (c *Config) Defaults() layout.Defaults {
	d := layout.Defaults{
		Mode:         c.Mode,
		ModifierKeys: slices.Clone(c.ModifierKeys),
		SpecialKeys:  slices.Clone(c.SpecialKeys),
		JoystickType: c.Joystick.Type,
		DrivingConfig: axis.DrivingConfig{
			GyroSensitivity:  c.Driving.GyroSensitivity,
			GyroDeadzone:     c.Driving.GyroDeadzone,
			MaxSteeringAngle: c.Driving.MaxSteeringAngle,
			GyroUpdateRate:   c.Driving.GyroUpdateRate,
		},
	}
	if c.Joystick.Type == axis.JoystickCustom {
		d.CustomJoystick = &axis.CustomJoystick{
			Name:    c.Joystick.Name,
			Axes:    c.Joystick.Axes,
			Buttons: c.Joystick.Buttons,
		}
	}
	return d
}

// URL is the address a browser on this machine opens.
func (c *Config) URL() string {
	host, port := "localhost", c.Addr
	if i := strings.LastIndex(c.Addr, ":"); i >= 0 {
		if h := c.Addr[:i]; h != "" && h != "0.0.0.0" && h != "::" && h != "[::]" {
			host = h
		}
		port = c.Addr[i+1:]
	}
	return "http://" + host + ":" + port
}
