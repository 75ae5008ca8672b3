package host

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/soar/touchremote/backend/internal/wire"
)

// Overlay is the status line shown on the host while a control is held.
type Overlay interface {
	Show(text string)
	Hide()
}

// StatusOverlay tracks the overlay text and publishes each change. Repeated
// hides are collapsed.
type StatusOverlay struct {
	publish func(wire.Overlay)
	log     *slog.Logger

	mu      sync.Mutex
	current wire.Overlay
}

func NewStatusOverlay(publish func(wire.Overlay), logger *slog.Logger) *StatusOverlay {
	if publish == nil {
		publish = func(wire.Overlay) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusOverlay{publish: publish, log: logger}
}

func (o *StatusOverlay) Show(text string) {
	o.set(wire.Overlay{Visible: true, Text: text})
}

func (o *StatusOverlay) Hide() {
	o.set(wire.Overlay{})
}

// Current returns the overlay as last shown.
func (o *StatusOverlay) Current() wire.Overlay {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

func (o *StatusOverlay) set(next wire.Overlay) {
	o.mu.Lock()
	if next == o.current {
		o.mu.Unlock()
		return
	}
	o.current = next
	o.mu.Unlock()
	if next.Visible {
		o.log.Debug("overlay shown", "text", next.Text)
	} else {
		o.log.Debug("overlay hidden")
	}
	o.publish(next)
}

// Stroke is one key transition of an executed combination.
type Stroke struct {
	Key  string
	Down bool
}

// Strokes expands a key combination: every key is pressed in order, then
// released in the same order.
func Strokes(keys []string) []Stroke {
	out := make([]Stroke, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, Stroke{Key: strings.ToLower(k), Down: true})
	}
	for _, k := range keys {
		out = append(out, Stroke{Key: strings.ToLower(k)})
	}
	return out
}

// KeyInjector performs a button's key combination on the host.
type KeyInjector interface {
	Execute(keys []string) error
}

// LogInjector records combinations in the log instead of injecting them.
type LogInjector struct {
	Logger *slog.Logger
}

func (l LogInjector) Execute(keys []string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(keys) == 0 {
		return nil
	}
	for _, s := range Strokes(keys) {
		logger.Debug("key stroke", "key", s.Key, "down", s.Down)
	}
	logger.Info("executing keys", "keys", keys)
	return nil
}
