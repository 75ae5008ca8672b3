package hub

import (
	"github.com/soar/touchremote/backend/internal/gamepad"
	"github.com/soar/touchremote/backend/internal/wire"
)

// Pad message kinds.
const (
	KindFull  = "full"
	KindDelta = "delta"
)

// PadMessage is the payload of a pad event. Full messages carry the state
// and its report; deltas carry only what changed.
type PadMessage struct {
	Kind    string                `json:"kind"`
	State   *gamepad.PadState     `json:"state,omitempty"`
	Report  *gamepad.Report       `json:"report,omitempty"`
	Changes *gamepad.DeltaChanges `json:"changes,omitempty"`
}

func NewFullMessage(seq int64, state *gamepad.PadState) *wire.Message {
	report := state.Report()
	msg := wire.NewMessage(wire.EventPad, &PadMessage{
		Kind:   KindFull,
		State:  state,
		Report: &report,
	})
	msg.Seq = seq
	return msg
}

func NewDeltaMessage(seq int64, delta *gamepad.DeltaChanges) *wire.Message {
	msg := wire.NewMessage(wire.EventPad, &PadMessage{
		Kind:    KindDelta,
		Changes: delta,
	})
	msg.Seq = seq
	return msg
}
