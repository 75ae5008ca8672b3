// Package host is the receiving end of the control channel: it shows the
// overlay, runs key combinations, elects the main driving device and feeds
// slider and gyro input through the axis configuration into the virtual pad.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/gamepad"
	"github.com/soar/touchremote/backend/internal/layout"
	"github.com/soar/touchremote/backend/internal/surface"
	"github.com/soar/touchremote/backend/internal/wire"
)

// Layouts is where the host reads the stored layout from.
type Layouts interface {
	Document(ctx context.Context) (layout.Document, error)
	SaveLayout(ctx context.Context, controls []surface.Control) error
}

const (
	documentTTL    = time.Second
	requestTimeout = 5 * time.Second
	restEpsilon    = 1e-3
)

// Options configure a Host.
type Options struct {
	Mode     string
	Defaults layout.Defaults
	Overlay  Overlay
	Keys     KeyInjector
	// Pad receives driving input; nil outside driving mode.
	Pad    *gamepad.Pad
	Logger *slog.Logger
}

type device struct {
	out    wire.Emitter
	isMain bool
}

type reply struct {
	to      wire.Emitter
	event   string
	payload any
}

// Host serves every connected surface. It is safe for concurrent use.
type Host struct {
	mode     string
	defaults layout.Defaults
	layouts  Layouts
	overlay  Overlay
	keys     KeyInjector
	pad      *gamepad.Pad
	log      *slog.Logger

	// stale is set by writers outside the host lock
	stale atomic.Bool

	mu       sync.Mutex
	devices  map[string]*device
	mainID   string
	sliders  map[string]float64
	doc      layout.Document
	loadedAt time.Time
}

func New(layouts Layouts, opts Options) *Host {
	h := &Host{
		mode:     opts.Mode,
		defaults: opts.Defaults,
		layouts:  layouts,
		overlay:  opts.Overlay,
		keys:     opts.Keys,
		pad:      opts.Pad,
		log:      opts.Logger,
		devices:  make(map[string]*device),
		sliders:  make(map[string]float64),
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.overlay == nil {
		h.overlay = NewStatusOverlay(nil, h.log)
	}
	if h.keys == nil {
		h.keys = LogInjector{Logger: h.log}
	}
	return h
}

// Invalidate drops the cached layout so the next event reads it afresh. It
// never blocks, so it may be called from within a layout write.
func (h *Host) Invalidate() {
	h.stale.Store(true)
}

// document returns the cached layout, reloading it when stale. Callers hold
// h.mu.
func (h *Host) document() layout.Document {
	stale := h.stale.Swap(false)
	if !stale && !h.loadedAt.IsZero() && time.Since(h.loadedAt) < documentTTL {
		return h.doc
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	doc, err := h.layouts.Document(ctx)
	if err != nil {
		h.log.Warn("layout unavailable, using last known", "error", err)
		return h.doc
	}
	h.doc = doc
	h.loadedAt = time.Now()
	return doc
}

// Connect registers a surface. In driving mode it is asked whether it should
// become the main device.
func (h *Host) Connect(id string, out wire.Emitter) {
	h.mu.Lock()
	h.devices[id] = &device{out: out}
	hasMain := h.mainID != ""
	total := len(h.devices)
	h.mu.Unlock()

	h.log.Info("device connected", "id", id, "total", total)
	if h.mode == layout.ModeDriving {
		out.Emit(wire.EventAskMainDevice, wire.AskMainDevice{CurrentMain: hasMain})
	}
}

// Disconnect forgets a surface. A departing main device leaves the main slot
// empty.
func (h *Host) Disconnect(id string) {
	h.mu.Lock()
	if d, ok := h.devices[id]; ok {
		if d.isMain {
			h.mainID = ""
		}
		delete(h.devices, id)
	}
	total := len(h.devices)
	h.mu.Unlock()
	h.log.Info("device disconnected", "id", id, "total", total)
}

// MainDevice returns the id of the current main device.
func (h *Host) MainDevice() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mainID, h.mainID != ""
}

// Device returns the emitter a surface uses to talk to the host.
func (h *Host) Device(id string) wire.Emitter {
	return wire.EmitterFunc(func(event string, payload any) {
		h.Handle(id, event, payload)
	})
}

// Handle processes one message from surface id. Replies are sent after the
// host's own state is updated and unlocked.
func (h *Host) Handle(id, event string, payload any) {
	var replies []reply
	h.mu.Lock()
	switch event {
	case wire.EventButtonDown:
		if p, ok := payload.(wire.ButtonDown); ok {
			h.overlay.Show("Holding: " + p.Label)
		}
	case wire.EventButtonUp:
		if p, ok := payload.(wire.ButtonUp); ok {
			h.overlay.Hide()
			h.execute(p.ID)
		}
	case wire.EventHideOverlay:
		h.overlay.Hide()
	case wire.EventSliderValue:
		if p, ok := payload.(wire.SliderValue); ok {
			h.slider(p.ID, p.Value)
		}
	case wire.EventGyroData:
		if p, ok := payload.(wire.GyroData); ok && id == h.mainID {
			h.gyro(p)
		}
	case wire.EventSetMainDevice:
		if p, ok := payload.(wire.SetMainDevice); ok {
			replies = h.setMain(id, p.IsMain)
		}
	case wire.EventSaveLayout:
		if p, ok := payload.([]surface.Control); ok {
			replies = h.saveLayout(id, p)
		}
	default:
		h.log.Debug("unhandled event", "device", id, "event", event)
	}
	h.mu.Unlock()

	for _, r := range replies {
		r.to.Emit(r.event, r.payload)
	}
}

func (h *Host) execute(id string) {
	c, ok := h.document().Find(id)
	if !ok {
		h.log.Debug("released control not in layout", "id", id)
		return
	}
	if err := h.keys.Execute(c.Keys); err != nil {
		h.log.Warn("key execution failed", "id", id, "keys", c.Keys, "error", err)
	}
}

func (h *Host) setMain(id string, isMain bool) []reply {
	d, ok := h.devices[id]
	if !ok {
		return nil
	}
	var out []reply
	if isMain {
		if prev, ok := h.devices[h.mainID]; ok && h.mainID != id {
			prev.isMain = false
			out = append(out, reply{prev.out, wire.EventMainStatusChanged, wire.MainStatusChanged{IsMain: false}})
		}
		h.mainID = id
		d.isMain = true
		h.log.Info("main device elected", "id", id)
	} else {
		if h.mainID == id {
			h.mainID = ""
		}
		d.isMain = false
	}
	return append(out, reply{d.out, wire.EventMainStatusChanged, wire.MainStatusChanged{IsMain: isMain}})
}

func (h *Host) saveLayout(id string, controls []surface.Control) []reply {
	d, ok := h.devices[id]
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	status := layout.StatusSuccess
	if err := h.layouts.SaveLayout(ctx, controls); err != nil {
		h.log.Warn("save layout failed", "device", id, "error", err)
		status = layout.StatusError
	} else {
		h.log.Info("layout saved", "device", id, "controls", len(controls))
		h.Invalidate()
	}
	return []reply{{d.out, wire.EventLayoutSaved, wire.LayoutSaved{Status: status}}}
}

// SliderValue returns the last value received for a slider.
func (h *Host) SliderValue(id string) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.sliders[id]
	return v, ok
}

func (h *Host) slider(id string, value float64) {
	h.sliders[id] = value
	if h.pad == nil {
		return
	}
	doc := h.document()
	c, found := doc.Find(id)
	label := id
	if found && c.Label != "" {
		label = c.Label
	}
	h.overlay.Show(fmt.Sprintf("%s: %.2f", label, value))

	if h.joystickType(doc) == axis.JoystickCustom {
		h.sliderCustom(doc, id, value)
	} else {
		h.sliderStandard(doc, id, c, found, value)
	}

	if found && c.AutoCenter && math.Abs(value-c.RestValue()) < restEpsilon {
		h.overlay.Hide()
	}
}

func (h *Host) sliderStandard(doc layout.Document, id string, c surface.Control, found bool, value float64) {
	d := h.driving(doc)
	if !d.HasUnified() {
		a, ok := legacySliderAxis(d, id, c, found)
		if !ok {
			h.log.Debug("slider has no axis", "id", id)
			return
		}
		h.setAxis(a, value)
		return
	}
	table, _ := axis.FromRecords(d.AxisConfig)
	for _, a := range axis.Axes {
		cfg := table.Get(a)
		if sid, ok := cfg.Source.SliderID(); ok && sid == id {
			h.setAxis(a, shaping(cfg, false).Apply(value))
			return
		}
	}
}

// legacySliderAxis finds a slider's axis in the pre-unified format: on the
// control itself, else in the driving config's slider list.
func legacySliderAxis(d axis.DrivingConfig, id string, c surface.Control, found bool) (axis.Axis, bool) {
	if found && c.Axis != "" {
		a := axis.Axis(c.Axis)
		return a, a.Valid()
	}
	for _, s := range d.Sliders {
		if s.ID == id {
			a := axis.Axis(s.Axis)
			return a, a.Valid()
		}
	}
	return "", false
}

func (h *Host) sliderCustom(doc layout.Document, id string, value float64) {
	for i, cfg := range h.customAxes(doc) {
		if sid, ok := cfg.Source.SliderID(); ok && sid == id {
			h.setAxisIndex(i, shaping(cfg, true).Apply(value))
			return
		}
	}
}

func (h *Host) gyro(g wire.GyroData) {
	if h.pad == nil {
		return
	}
	doc := h.document()
	if h.joystickType(doc) == axis.JoystickCustom {
		for i, cfg := range h.customAxes(doc) {
			if ch, ok := cfg.Source.GyroChannel(); ok {
				h.setAxisIndex(i, shaping(cfg, true).Apply(normalize(g, ch, cfg.GyroRange)))
			}
		}
		return
	}

	d := h.driving(doc)
	if !d.HasUnified() {
		mapping := d.GyroAxisMapping
		if len(mapping) == 0 {
			mapping = h.defaults.DrivingConfig.GyroAxisMapping
		}
		for _, ch := range axis.Channels {
			target := axis.Axis(mapping[string(ch)])
			if target.Valid() {
				h.setAxis(target, normalize(g, ch, axis.LegacyGyroRange))
			}
		}
		return
	}

	table, _ := axis.FromRecords(d.AxisConfig)
	for _, a := range axis.Axes {
		cfg := table.Get(a)
		if ch, ok := cfg.Source.GyroChannel(); ok {
			h.setAxis(a, shaping(cfg, false).Apply(normalize(g, ch, cfg.GyroRange)))
		} else if cfg.Source.IsNone() {
			h.setAxis(a, 0)
		}
	}
}

func (h *Host) joystickType(doc layout.Document) string {
	if doc.JoystickType != "" {
		return doc.JoystickType
	}
	if h.defaults.JoystickType != "" {
		return h.defaults.JoystickType
	}
	return axis.JoystickXbox360
}

func (h *Host) driving(doc layout.Document) axis.DrivingConfig {
	if doc.DrivingConfig != nil {
		return *doc.DrivingConfig
	}
	return h.defaults.DrivingConfig
}

// customAxes resolves the custom joystick's index-keyed mapping. Keys that
// are not indexes and malformed entries are skipped.
func (h *Host) customAxes(doc layout.Document) map[int]axis.Config {
	cj := doc.CustomJoystick
	if cj == nil {
		cj = h.defaults.CustomJoystick
	}
	if cj == nil {
		return nil
	}
	out := make(map[int]axis.Config, len(cj.AxisMapping))
	for key, rec := range cj.AxisMapping {
		i, err := strconv.Atoi(key)
		if err != nil {
			h.log.Debug("custom axis key is not an index", "key", key)
			continue
		}
		cfg, err := axis.FromRecord(rec)
		if err != nil {
			h.log.Debug("custom axis entry skipped", "index", i, "error", err)
			continue
		}
		out[i] = cfg
	}
	return out
}

func (h *Host) setAxis(a axis.Axis, v float64) {
	if err := h.pad.SetAxis(a, v); err != nil {
		h.log.Debug("set axis failed", "axis", a, "error", err)
	}
}

func (h *Host) setAxisIndex(i int, v float64) {
	if err := h.pad.SetAxisIndex(i, v); err != nil {
		h.log.Debug("set axis failed", "index", i, "error", err)
	}
}

// shaping builds the processing for an axis. Inversion only applies to
// custom joysticks.
func shaping(cfg axis.Config, custom bool) gamepad.Shaping {
	return gamepad.Shaping{
		Deadzone: cfg.Deadzone,
		Peak:     cfg.PeakValue,
		Invert:   custom && cfg.Invert,
	}
}

func normalize(g wire.GyroData, ch axis.GyroChannel, gyroRange float64) float64 {
	var v float64
	switch ch {
	case axis.Alpha:
		v = g.Alpha
	case axis.Beta:
		v = g.Beta
	case axis.Gamma:
		v = g.Gamma
	}
	return gamepad.NormalizeGyro(v, ch == axis.Alpha, gyroRange)
}
