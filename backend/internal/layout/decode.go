package layout

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/surface"
)

var (
	ErrMalformedField = errors.New("malformed field")
	// ErrUnreadable marks a document that could not be parsed at all.
	ErrUnreadable = errors.New("layout unreadable")
)

// fields holds a decoded object one raw value per key, so each key can be
// decoded, and fail, on its own.
type fields struct {
	raw      map[string]json.RawMessage
	prefix   string
	warnings []error
}

func newFields(data []byte, prefix string) (*fields, error) {
	f := &fields{prefix: prefix}
	if err := json.Unmarshal(data, &f.raw); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *fields) get(name string) (json.RawMessage, bool) {
	raw, ok := f.raw[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (f *fields) warn(name string, err error) {
	f.warnings = append(f.warnings, fmt.Errorf("%w: %s%s: %v", ErrMalformedField, f.prefix, name, err))
}

// field decodes one key into dst. A malformed value leaves dst untouched.
func field[T any](f *fields, name string, dst *T) {
	raw, ok := f.get(name)
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		f.warn(name, err)
		return
	}
	*dst = v
}

// list decodes an array element by element, dropping malformed elements.
func list[T any](f *fields, name string) []T {
	raw, ok := f.get(name)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		f.warn(name, err)
		return nil
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			f.warn(fmt.Sprintf("%s[%d]", name, i), err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// DecodeConfig reads a config payload. Every field is decoded on its own; a
// malformed field takes its default and is reported, it never fails the
// whole load.
func DecodeConfig(data []byte) (Config, []error) {
	f, err := newFields(data, "")
	if err != nil {
		return Config{Document: Document{Buttons: []surface.Control{}}}, []error{fmt.Errorf("%w: config: %v", ErrMalformedField, err)}
	}
	c := Config{Document: decodeDocument(f)}
	field(f, "mode", &c.Mode)
	field(f, "modifier_keys", &c.ModifierKeys)
	field(f, "special_keys", &c.SpecialKeys)
	if c.Mode == "" {
		c.Mode = ModeCustomKeys
	}
	return c, f.warnings
}

// DecodeDocument reads a stored document in the given format with the same
// per-field tolerance as DecodeConfig.
func DecodeDocument(codec Codec, data []byte) (Document, []error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	var generic map[string]any
	if err := codec.Unmarshal(data, &generic); err != nil {
		return Document{}, []error{fmt.Errorf("%w: %w: %v", ErrMalformedField, ErrUnreadable, err)}
	}
	js, err := json.Marshal(stringKeys(generic))
	if err != nil {
		return Document{}, []error{fmt.Errorf("%w: %w: %v", ErrMalformedField, ErrUnreadable, err)}
	}
	f, err := newFields(js, "")
	if err != nil {
		return Document{}, []error{fmt.Errorf("%w: %w: %v", ErrMalformedField, ErrUnreadable, err)}
	}
	return decodeDocument(f), f.warnings
}

func decodeDocument(f *fields) Document {
	d := Document{Buttons: list[surface.Control](f, "buttons")}
	field(f, "joystick_type", &d.JoystickType)
	field(f, "joystick_name", &d.JoystickName)
	field(f, "custom_joystick", &d.CustomJoystick)
	if raw, ok := f.get("driving_config"); ok {
		sub, err := newFields(raw, "driving_config.")
		if err != nil {
			f.warn("driving_config", err)
		} else {
			dc := decodeDriving(sub)
			d.DrivingConfig = &dc
			f.warnings = append(f.warnings, sub.warnings...)
		}
	}
	return d
}

func decodeDriving(f *fields) axis.DrivingConfig {
	var d axis.DrivingConfig
	if raw, ok := f.get("axis_config"); ok {
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			f.warn("axis_config", err)
		} else {
			d.AxisConfig = make(map[string]axis.Record, len(entries))
			for name, entry := range entries {
				var r axis.Record
				if err := json.Unmarshal(entry, &r); err != nil {
					f.warn("axis_config."+name, err)
					continue
				}
				d.AxisConfig[name] = r
			}
		}
	}
	field(f, "gyro_axis_mapping", &d.GyroAxisMapping)
	d.Sliders = list[axis.SliderAssignment](f, "sliders")
	field(f, "gyro_sensitivity", &d.GyroSensitivity)
	field(f, "gyro_deadzone", &d.GyroDeadzone)
	field(f, "max_steering_angle", &d.MaxSteeringAngle)
	field(f, "gyro_update_rate", &d.GyroUpdateRate)
	return d
}

// stringKeys rewrites the map[any]any nodes some decoders produce so the
// tree can be marshalled as JSON.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			t[k] = stringKeys(x)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[fmt.Sprint(k)] = stringKeys(x)
		}
		return out
	case []any:
		for i, x := range t {
			t[i] = stringKeys(x)
		}
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = stringKeys(x)
		}
		return out
	}
	return v
}
