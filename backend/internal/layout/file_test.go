package layout

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/surface"
)

func TestCodecFor(t *testing.T) {
	tests := []struct {
		path string
		want string
		err  bool
	}{
		{"buttons.json", "json", false},
		{"buttons", "json", false},
		{"layout.YAML", "yaml", false},
		{"layout.yml", "yaml", false},
		{"layout.toml", "toml", false},
		{"layout.ini", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, err := CodecFor(tt.path)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
		})
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".yaml", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "config", "buttons"+ext)
			s, err := NewFileStore(path, nil)
			require.NoError(t, err)

			doc, err := s.Load()
			require.NoError(t, err, "missing file is an empty layout")
			assert.Empty(t, doc.Buttons)

			id1, err := s.AddControl(ctx, surface.Control{Type: surface.KindButton, Label: "Fire", Width: 80, Height: 80, Keys: []string{"ctrl", "f"}})
			require.NoError(t, err)
			id2, err := s.AddControl(ctx, surface.Control{Type: surface.KindSlider, Label: "Gas", Width: 200, Height: 50, Orientation: surface.Vertical, RangeMode: surface.Unipolar, AutoCenter: true})
			require.NoError(t, err)
			assert.Equal(t, "btn1", id1)
			assert.Equal(t, "btn2", id2)

			require.NoError(t, s.UpdateControl(ctx, surface.Control{ID: id1, Type: surface.KindButton, Label: "Shoot", X: 12.5, Y: 40, Width: 80, Height: 80}))
			require.NoError(t, s.DeleteControl(ctx, "missing"))

			sid := id2
			peak := 0.8
			dc := &axis.DrivingConfig{
				AxisConfig: map[string]axis.Record{
					"right_trigger": {SourceType: "slider", SourceID: &sid, PeakValue: &peak},
					"left_x":        {SourceType: "none"},
				},
				GyroUpdateRate: 60,
			}
			require.NoError(t, s.UpdateDrivingConfig(ctx, axis.Settings{JoystickType: axis.JoystickXbox360, DrivingConfig: dc}))

			doc, err = s.Load()
			require.NoError(t, err)
			require.Len(t, doc.Buttons, 2)
			assert.Equal(t, "Shoot", doc.Buttons[0].Label)
			assert.Equal(t, 12.5, doc.Buttons[0].X)
			assert.Empty(t, doc.Buttons[0].Keys)
			assert.Equal(t, surface.Vertical, doc.Buttons[1].Orientation)
			assert.Equal(t, surface.Unipolar, doc.Buttons[1].RangeMode)
			assert.True(t, doc.Buttons[1].AutoCenter)

			assert.Equal(t, axis.JoystickXbox360, doc.JoystickType)
			require.NotNil(t, doc.DrivingConfig)
			assert.Equal(t, 60, doc.DrivingConfig.GyroUpdateRate)
			rt := doc.DrivingConfig.AxisConfig["right_trigger"]
			require.NotNil(t, rt.SourceID)
			assert.Equal(t, "btn2", *rt.SourceID)
			assert.Equal(t, 0.8, *rt.PeakValue)
			assert.Nil(t, doc.DrivingConfig.AxisConfig["left_x"].SourceID)

			c, ok := s.Control(id2)
			require.True(t, ok)
			assert.Equal(t, "Gas", c.Label)

			require.NoError(t, s.DeleteControl(ctx, id1))
			require.NoError(t, s.SaveLayout(ctx, []surface.Control{{ID: "btn9", Type: surface.KindButton, Label: "Only", Width: 60, Height: 60}}))
			doc, err = s.Load()
			require.NoError(t, err)
			require.Len(t, doc.Buttons, 1)
			assert.Equal(t, "btn9", doc.Buttons[0].ID)
			assert.NotNil(t, doc.DrivingConfig, "saving the layout keeps the driving section")
		})
	}
}

func TestFileStoreToleratesMalformedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buttons.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"buttons": [{"id": "btn1", "type": "button", "label": "ok", "width": 80, "height": 80}, 42], "joystick_type": {}}`), 0o644))

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	doc, err := s.Load()
	require.NoError(t, err)
	require.Len(t, doc.Buttons, 1)
	assert.Empty(t, doc.JoystickType)
}

func TestFileStoreKeepsUnreadableFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "layout.json")
	broken := []byte(`{"buttons": [
		{"id": "btn1", "type": "button", "label": "A", "width": 80, "height": 80},
		{"id": "btn2", "type": "button", "label": "B", "width": 80, "height": 80},
	]}`)
	require.NoError(t, os.WriteFile(path, broken, 0o644))

	changed := 0
	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	s.OnChange = func() { changed++ }

	doc, err := s.Load()
	require.NoError(t, err, "reads fall back to an empty layout")
	assert.Empty(t, doc.Buttons)
	_, ok := s.Control("btn1")
	assert.False(t, ok)

	writes := []struct {
		name string
		fn   func() error
	}{
		{"add", func() error {
			_, err := s.AddControl(ctx, surface.Control{Type: surface.KindButton, Label: "C"})
			return err
		}},
		{"update", func() error { return s.UpdateControl(ctx, surface.Control{ID: "btn1", Type: surface.KindButton}) }},
		{"delete", func() error { return s.DeleteControl(ctx, "btn2") }},
		{"driving", func() error { return s.UpdateDrivingConfig(ctx, axis.Settings{JoystickType: axis.JoystickXbox360}) }},
		{"save layout", func() error { return s.SaveLayout(ctx, nil) }},
	}
	for _, w := range writes {
		t.Run(w.name, func(t *testing.T) {
			assert.ErrorIs(t, w.fn(), ErrUnreadable)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, string(broken), string(data))
		})
	}
	assert.Zero(t, changed)
}

func TestFileStoreReadsLegacyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yml")
	legacy := `
buttons:
  - id: btn1
    type: slider
    label: Steer
    width: 200
    height: 50
    axis: left_x
driving_config:
  gyro_axis_mapping:
    gamma: left_x
  sliders:
    - id: btn1
      axis: right_trigger
`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := NewFileStore(path, nil)
	require.NoError(t, err)
	doc, err := s.Load()
	require.NoError(t, err)

	require.Len(t, doc.Buttons, 1)
	assert.Equal(t, "left_x", doc.Buttons[0].Axis)
	require.NotNil(t, doc.DrivingConfig)
	assert.False(t, doc.DrivingConfig.HasUnified())
	assert.Equal(t, []axis.SliderAssignment{{ID: "btn1", Axis: "right_trigger"}}, doc.DrivingConfig.Sliders)
}
