// Package wire defines the named messages exchanged over the control channel
// and the envelopes they travel in.
package wire

import (
	"encoding/json"
	"time"
)

// Messages sent by a control surface towards the host.
const (
	EventButtonDown    = "button_down"
	EventButtonUp      = "button_up"
	EventSliderValue   = "slider_value"
	EventSaveLayout    = "save_layout"
	EventGyroData      = "gyro_data"
	EventSetMainDevice = "set_main_device"
	EventHideOverlay   = "hide_overlay"
)

// Messages sent by the host back to a surface.
const (
	EventLayoutSaved       = "layout_saved"
	EventAskMainDevice     = "ask_main_device"
	EventMainStatusChanged = "main_status_changed"
)

// Messages from the browser client to its panel.
const (
	EventResize            = "resize"
	EventPointer           = "pointer"
	EventDoubleTap         = "double_tap"
	EventSetEditMode       = "set_edit_mode"
	EventAddControl        = "add_control"
	EventEditControl       = "edit_control"
	EventDeleteControl     = "delete_control"
	EventMoveControl       = "move_control"
	EventResizeControl     = "resize_control"
	EventBindAxis          = "bind_axis"
	EventAxisCandidates    = "axis_candidates"
	EventSaveDrivingConfig = "save_driving_config"
	EventGyroPermission    = "gyro_permission"
)

// Messages from a panel to its browser client.
const (
	EventConfig     = "config"
	EventFrame      = "frame"
	EventOpenEditor = "open_editor"
	EventAxisConfig = "axis_config"
	EventError      = "error"
	EventOverlay    = "overlay"
	EventPad        = "pad"
)

// Pointer phases carried by EventPointer.
const (
	PhaseDown   = "down"
	PhaseMove   = "move"
	PhaseUp     = "up"
	PhaseCancel = "cancel"
	PhaseLeave  = "leave"
)

// Emitter is the send side of the channel. Emit is fire-and-forget: it never
// blocks the caller and never reports delivery failures.
type Emitter interface {
	Emit(event string, payload any)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(event string, payload any)

func (f EmitterFunc) Emit(event string, payload any) { f(event, payload) }

// Discard drops everything.
var Discard Emitter = EmitterFunc(func(string, any) {})

type ButtonDown struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ButtonUp struct {
	ID string `json:"id"`
}

type SliderValue struct {
	ID    string  `json:"id"`
	Value float64 `json:"value"`
}

type GyroData struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

type SetMainDevice struct {
	IsMain bool `json:"is_main"`
}

type AskMainDevice struct {
	CurrentMain bool `json:"current_main"`
}

type MainStatusChanged struct {
	IsMain bool `json:"is_main"`
}

type LayoutSaved struct {
	Status string `json:"status"`
}

type Pointer struct {
	Phase string  `json:"phase"`
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type Resize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type DoubleTap struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SetEditMode struct {
	Enabled bool `json:"enabled"`
}

type DeleteControl struct {
	ID string `json:"id"`
}

type MoveControl struct {
	ID string  `json:"id,omitempty"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type ResizeControl struct {
	ID     string  `json:"id,omitempty"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BindAxis assigns a source to one of the six standard axes. Shaping fields
// left nil keep their current values.
type BindAxis struct {
	Axis       string   `json:"axis"`
	SourceType string   `json:"source_type"`
	SourceID   string   `json:"source_id,omitempty"`
	PeakValue  *float64 `json:"peak_value,omitempty"`
	Deadzone   *float64 `json:"deadzone,omitempty"`
	GyroRange  *float64 `json:"gyro_range,omitempty"`
	Invert     *bool    `json:"invert,omitempty"`
}

type AxisCandidatesRequest struct {
	Axis string `json:"axis"`
}

type GyroPermission struct {
	Granted bool `json:"granted"`
}

type Error struct {
	Message string `json:"message"`
}

type Overlay struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text,omitempty"`
}

// Message is the server to client envelope.
type Message struct {
	Type      string `json:"type"`
	Seq       int64  `json:"seq,omitempty"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds
	Data      any    `json:"data,omitempty"`
}

// NewMessage wraps a payload in an envelope stamped with the current time.
func NewMessage(event string, data any) *Message {
	return &Message{
		Type:      event,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// Encode marshals an event into its envelope bytes.
func Encode(event string, data any) ([]byte, error) {
	return json.Marshal(NewMessage(event, data))
}

// ClientMessage is the client to server envelope. Data is decoded lazily once
// the type is known.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the payload into v. An absent payload leaves v untouched.
func (m ClientMessage) Decode(v any) error {
	if len(m.Data) == 0 || string(m.Data) == "null" {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}
