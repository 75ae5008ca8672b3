package gamepad

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/soar/touchremote/backend/internal/axis"
)

var ErrAxisIndex = errors.New("axis index out of range")

// Pad is the virtual pad driving mode writes to. Every change is offered on
// the Changes channel; a full channel drops the update rather than block the
// writer.
type Pad struct {
	state   PadState
	changes chan PadState
	closed  bool
	log     *slog.Logger
	mu      sync.RWMutex
}

// NewPad creates a connected pad. customAxes > 0 gives it that many
// index-addressed axes in addition to the standard layout.
func NewPad(controllerType, name string, customAxes int, logger *slog.Logger) *Pad {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pad{
		changes: make(chan PadState, 64),
		log:     logger,
	}
	p.state = PadState{
		Connected:      true,
		ControllerType: controllerType,
		Name:           name,
	}
	if customAxes > 0 {
		p.state.Axes = make([]float64, customAxes)
	}
	return p
}

// Changes returns the channel on which state changes are sent.
func (p *Pad) Changes() <-chan PadState {
	return p.changes
}

// CurrentState returns a snapshot of the current pad state.
func (p *Pad) CurrentState() PadState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Clone()
}

// SetAxis sets one of the six standard axes. Sticks clamp to -1..1,
// triggers to 0..1.
func (p *Pad) SetAxis(a axis.Axis, v float64) error {
	p.mu.Lock()
	s := &p.state
	switch a {
	case axis.LeftX:
		s.Sticks.Left.X = clamp(v, -1, 1)
	case axis.LeftY:
		s.Sticks.Left.Y = clamp(v, -1, 1)
	case axis.RightX:
		s.Sticks.Right.X = clamp(v, -1, 1)
	case axis.RightY:
		s.Sticks.Right.Y = clamp(v, -1, 1)
	case axis.LeftTrigger:
		s.Triggers.LT = clamp(v, 0, 1)
	case axis.RightTrigger:
		s.Triggers.RT = clamp(v, 0, 1)
	default:
		p.mu.Unlock()
		return fmt.Errorf("%w: %q", axis.ErrUnknownAxis, a)
	}
	p.mu.Unlock()
	p.emitState()
	return nil
}

// SetAxisIndex sets a custom joystick axis, clamped to -1..1.
func (p *Pad) SetAxisIndex(i int, v float64) error {
	p.mu.Lock()
	if i < 0 || i >= len(p.state.Axes) {
		n := len(p.state.Axes)
		p.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrAxisIndex, i, n)
	}
	p.state.Axes[i] = clamp(v, -1, 1)
	p.mu.Unlock()
	p.emitState()
	return nil
}

// Reset centres every axis.
func (p *Pad) Reset() {
	p.mu.Lock()
	p.state.Sticks = SticksState{}
	p.state.Triggers = TriggersState{}
	clear(p.state.Axes)
	p.mu.Unlock()
	p.log.Debug("virtual pad reset")
	p.emitState()
}

// Close disconnects the pad and closes Changes. Later writes still update
// the state but are no longer published.
func (p *Pad) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.state.Connected = false
	p.offer()
	p.closed = true
	close(p.changes)
}

func (p *Pad) emitState() {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.closed {
		p.offer()
	}
}

func (p *Pad) offer() {
	select {
	case p.changes <- p.state.Clone():
	default:
		// Drop if channel is full to avoid blocking the input path
	}
}
