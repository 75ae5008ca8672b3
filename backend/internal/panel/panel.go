// Package panel runs one connected control surface. It owns the surface
// state, turns client messages into router and editor calls, forwards
// control events to the host and paints frames when the state changes.
package panel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/edit"
	"github.com/soar/touchremote/backend/internal/layout"
	"github.com/soar/touchremote/backend/internal/surface"
	"github.com/soar/touchremote/backend/internal/wire"
)

const (
	mailboxSize    = 32
	requestTimeout = 5 * time.Second
)

// Host is the receiving end of the control channel.
type Host interface {
	Connect(id string, out wire.Emitter)
	Disconnect(id string)
	Device(id string) wire.Emitter
}

// Translator renders a message id in the client's language.
type Translator interface {
	T(id string, data map[string]any) string
}

type identity struct{}

func (identity) T(id string, _ map[string]any) string { return id }

// Options configure a Panel.
type Options struct {
	// Config is the layout the surface starts with.
	Config       layout.Config
	Persist      edit.Persistence
	Host         Host
	Translator   Translator
	FrameRate    int
	LegacyCompat bool
	Logger       *slog.Logger
}

type hostMessage struct {
	event   string
	payload any
}

// Panel is one connected surface. Client messages and host replies are
// handled one at a time under mu; frames are painted from a ticker that only
// takes the lock when the dirty flag was set.
type Panel struct {
	id     string
	client wire.Emitter
	host   Host
	device wire.Emitter
	tr     Translator
	log    *slog.Logger
	mode   string

	mailbox chan hostMessage
	cancel  context.CancelFunc
	ctx     context.Context
	done    sync.WaitGroup

	mu          sync.Mutex
	store       *surface.Store
	router      *surface.Router
	renderer    *surface.Renderer
	axes        *axis.Store
	editor      *edit.Session
	scheduler   *surface.Scheduler
	gyroAllowed bool
	isMain      bool
	closed      bool
}

// New builds the panel for client id. Nothing runs until Start.
func New(id string, client wire.Emitter, opts Options) *Panel {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &Panel{
		id:      id,
		client:  client,
		host:    opts.Host,
		tr:      opts.Translator,
		log:     logger.With("panel", id),
		mode:    opts.Config.Mode,
		mailbox: make(chan hostMessage, mailboxSize),
	}
	if p.client == nil {
		p.client = wire.Discard
	}
	if p.tr == nil {
		p.tr = identity{}
	}
	p.device = wire.Discard
	if p.host != nil {
		p.device = p.host.Device(id)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.store = surface.NewStore()
	p.store.Load(opts.Config.Buttons)
	p.router = surface.NewRouter(p.store, wire.EmitterFunc(p.emit))
	p.renderer = surface.NewRenderer(p.store, p.router)
	p.renderer.Caption = p.caption

	p.axes = axis.NewStore(p.store.Flag())
	driving := axis.DrivingConfig{}
	if opts.Config.DrivingConfig != nil {
		driving = *opts.Config.DrivingConfig
	}
	migrated, warnings := p.axes.Load(driving, axis.LegacyAssignments(p.store.Controls()))
	for _, w := range warnings {
		p.log.Warn("axis config entry defaulted", "error", w)
	}
	if migrated {
		p.log.Info("legacy axis mapping migrated")
	}

	p.editor = edit.NewSession(p.store, p.router, p.axes, opts.Persist, wire.EmitterFunc(p.emit), edit.Options{
		LegacyCompat: opts.LegacyCompat,
		Settings:     opts.Config.Settings(),
		Logger:       p.log,
	})
	p.scheduler = surface.NewScheduler(opts.FrameRate, p.store.TakeDirty, p.paint)

	p.client.Emit(wire.EventConfig, opts.Config)
	if p.mode == layout.ModeDriving {
		p.sendAxisConfig()
	}
	return p
}

func (p *Panel) ID() string { return p.id }

// Start connects the panel to the host and starts its frame ticker and
// mailbox.
func (p *Panel) Start() {
	p.done.Add(2)
	go func() {
		defer p.done.Done()
		p.scheduler.Run(p.ctx)
	}()
	go func() {
		defer p.done.Done()
		p.drain()
	}()
	if p.host != nil {
		p.host.Connect(p.id, wire.EmitterFunc(p.Deliver))
	}
}

// Close disconnects the panel and stops its goroutines.
func (p *Panel) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.host != nil {
		p.host.Disconnect(p.id)
	}
	p.cancel()
	p.done.Wait()
	p.log.Debug("panel closed")
}

// Deliver queues a host reply. It never blocks and never takes the panel
// lock, so the host may call it while this panel is mid-event.
func (p *Panel) Deliver(event string, payload any) {
	select {
	case p.mailbox <- hostMessage{event: event, payload: payload}:
	default:
		p.log.Warn("host reply dropped", "event", event)
	}
}

func (p *Panel) drain() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case m := <-p.mailbox:
			p.mu.Lock()
			p.handleHost(m.event, m.payload)
			p.mu.Unlock()
		}
	}
}

// emit routes events raised by the router and editor: control events go to
// the host, everything else back to the client.
func (p *Panel) emit(event string, payload any) {
	switch event {
	case wire.EventButtonDown, wire.EventButtonUp, wire.EventSliderValue,
		wire.EventSaveLayout, wire.EventGyroData, wire.EventSetMainDevice,
		wire.EventHideOverlay:
		p.device.Emit(event, payload)
	default:
		p.client.Emit(event, payload)
	}
}

// paint sends one frame. Called by the scheduler after it cleared the
// dirty flag.
func (p *Panel) paint() {
	p.mu.Lock()
	frame := p.renderer.Frame()
	p.mu.Unlock()
	p.client.Emit(wire.EventFrame, frame)
}

// caption shows which axis a slider drives in edit mode.
func (p *Panel) caption(c *surface.Control) string {
	if !c.IsSlider() || c.ID == "" || p.mode != layout.ModeDriving {
		return ""
	}
	if a, ok := p.axes.BoundAxis(c.ID); ok {
		return string(a)
	}
	return ""
}

// requestContext bounds a persistence call.
func (p *Panel) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(p.ctx, requestTimeout)
}
