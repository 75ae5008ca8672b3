// Package edit implements in-place authoring of a control surface: adding,
// reconfiguring, deleting and placing controls, and saving the layout and
// driving configuration through a persistence backend.
package edit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/soar/touchremote/backend/internal/axis"
	"github.com/soar/touchremote/backend/internal/surface"
	"github.com/soar/touchremote/backend/internal/wire"
)

var (
	ErrEditModeRequired = errors.New("edit mode required")
	ErrNoControl        = errors.New("no control selected")
	ErrPersist          = errors.New("persistence request failed")
	ErrInvalidAxes      = errors.New("axis configuration invalid")
)

// Persistence is the request/response API that owns the stored layout.
type Persistence interface {
	// AddControl stores a new control and returns the id assigned to it.
	AddControl(ctx context.Context, c surface.Control) (string, error)
	// UpdateControl merges c into the stored control with the same id,
	// appending it when no such control exists.
	UpdateControl(ctx context.Context, c surface.Control) error
	DeleteControl(ctx context.Context, id string) error
	UpdateDrivingConfig(ctx context.Context, s axis.Settings) error
}

// Options configure a Session.
type Options struct {
	// LegacyCompat also writes the legacy gyro mapping and slider list when
	// the driving config is saved.
	LegacyCompat bool
	// Settings is the driving section as loaded; its non-axis fields are
	// carried through every save.
	Settings axis.Settings
	Logger   *slog.Logger
}

// Session owns the authoring operations of one surface. It is not safe for
// concurrent use; the caller serialises access.
type Session struct {
	store   *surface.Store
	router  *surface.Router
	axes    *axis.Store
	persist Persistence
	out     wire.Emitter
	log     *slog.Logger

	legacyCompat bool
	settings     axis.Settings

	// control currently open in the editor
	selected *surface.Control
}

func NewSession(store *surface.Store, router *surface.Router, axes *axis.Store, persist Persistence, out wire.Emitter, opts Options) *Session {
	if out == nil {
		out = wire.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		store:        store,
		router:       router,
		axes:         axes,
		persist:      persist,
		out:          out,
		log:          logger,
		legacyCompat: opts.LegacyCompat,
		settings:     opts.Settings,
	}
	router.OnOpenEditor = s.Open
	return s
}

func (s *Session) EditMode() bool { return s.router.EditMode() }

// SetEditMode switches authoring on or off. Leaving edit mode closes the
// editor.
func (s *Session) SetEditMode(on bool) {
	s.router.SetEditMode(on)
	if !on {
		s.selected = nil
	}
}

// Selected returns the control open in the editor, if any.
func (s *Session) Selected() *surface.Control {
	if s.selected != nil && !s.store.Contains(s.selected) {
		s.selected = nil
	}
	return s.selected
}

// Open selects c for editing and tells the client to show its editor.
func (s *Session) Open(c *surface.Control) {
	s.selected = c
	view := EditorView{Control: *c.Clone()}
	if c.IsSlider() {
		view.BoundAxis, _ = s.axes.BoundAxis(c.ID)
	}
	s.out.Emit(wire.EventOpenEditor, view)
}

// EditorView is what the client needs to populate its editor dialog.
type EditorView struct {
	Control surface.Control `json:"control"`
	// BoundAxis is the axis a slider currently drives, if any.
	BoundAxis axis.Axis `json:"bound_axis,omitempty"`
}

// Add appends a new control on top of the surface, selects it and stores it.
// The control stays on the surface with a pending id when persistence fails.
func (s *Session) Add(ctx context.Context, draft surface.Control) (*surface.Control, error) {
	if !s.EditMode() {
		return nil, ErrEditModeRequired
	}
	c := draft.Clone()
	c.ID = ""
	c.Active = false
	c.Normalize()
	if c.IsSlider() {
		c.Recenter()
	}
	if c.Label == "" {
		c.Label = defaultLabel(c.Type)
	}
	s.place(c, draft.X == 0 && draft.Y == 0)
	if err := s.store.Append(c); err != nil {
		return nil, err
	}
	s.selected = c
	return c, s.create(ctx, c)
}

// create asks persistence for an id for a pending control.
func (s *Session) create(ctx context.Context, c *surface.Control) error {
	id, err := s.persist.AddControl(ctx, *c.Clone())
	if err != nil {
		s.log.Warn("add control failed", "label", c.Label, "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.store.AssignID(c, id); err != nil {
		return fmt.Errorf("assign id %s: %w", id, err)
	}
	s.log.Debug("control added", "id", id, "type", c.Type)
	return nil
}

// Patch is a partial update of a control. Nil fields are left unchanged.
type Patch struct {
	ID          string               `json:"id,omitempty"`
	Type        *surface.Kind        `json:"type,omitempty"`
	Label       *string              `json:"label,omitempty"`
	ColorIndex  *int                 `json:"colorIndex,omitempty"`
	Keys        *[]string            `json:"keys,omitempty"`
	Orientation *surface.Orientation `json:"orientation,omitempty"`
	RangeMode   *surface.RangeMode   `json:"rangeMode,omitempty"`
	AutoCenter  *bool                `json:"autoCenter,omitempty"`
	Width       *float64             `json:"width,omitempty"`
	Height      *float64             `json:"height,omitempty"`
}

func (p Patch) apply(c *surface.Control) {
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Label != nil {
		c.Label = *p.Label
	}
	if p.ColorIndex != nil {
		c.ColorIndex = *p.ColorIndex
	}
	if p.Keys != nil {
		c.SetKeys(*p.Keys)
	}
	if p.Orientation != nil {
		c.Orientation = *p.Orientation
	}
	if p.RangeMode != nil {
		c.RangeMode = *p.RangeMode
	}
	if p.AutoCenter != nil {
		c.AutoCenter = *p.AutoCenter
	}
	if p.Width != nil {
		c.Width = clampSize(*p.Width)
	}
	if p.Height != nil {
		c.Height = clampSize(*p.Height)
	}
}

// target resolves the control a request names: by id when given, otherwise
// the control open in the editor.
func (s *Session) target(id string) (*surface.Control, error) {
	if id != "" {
		c, _ := s.store.Find(id)
		if c == nil {
			return nil, fmt.Errorf("%w: %s", surface.ErrNotFound, id)
		}
		return c, nil
	}
	if c := s.Selected(); c != nil {
		return c, nil
	}
	return nil, ErrNoControl
}

// Edit applies p to a control and stores it. A control whose earlier add
// never got an id is added again instead.
func (s *Session) Edit(ctx context.Context, p Patch) (*surface.Control, error) {
	if !s.EditMode() {
		return nil, ErrEditModeRequired
	}
	c, err := s.target(p.ID)
	if err != nil {
		return nil, err
	}
	wasSlider := c.IsSlider()
	p.apply(c)
	c.Normalize()
	if c.IsSlider() && (!wasSlider || p.RangeMode != nil) {
		c.Recenter()
	}
	if wasSlider && !c.IsSlider() && c.ID != "" {
		s.axes.UnbindSlider(c.ID)
	}
	s.store.MarkDirty()

	if c.ID == "" {
		return c, s.create(ctx, c)
	}
	if err := s.persist.UpdateControl(ctx, *c.Clone()); err != nil {
		s.log.Warn("update control failed", "id", c.ID, "error", err)
		return c, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return c, nil
}

// Delete removes a control from the surface and from every axis bound to it.
// The in-memory removal stands even when persistence fails.
func (s *Session) Delete(ctx context.Context, id string) error {
	if !s.EditMode() {
		return ErrEditModeRequired
	}
	c, err := s.target(id)
	if err != nil {
		return err
	}
	s.router.Forget(c)
	s.store.Remove(c)
	if s.selected == c {
		s.selected = nil
	}
	if c.ID == "" {
		return nil
	}
	if unbound := s.axes.UnbindSlider(c.ID); len(unbound) > 0 {
		s.log.Info("axes unbound from deleted slider", "id", c.ID, "axes", unbound)
	}
	if err := s.persist.DeleteControl(ctx, c.ID); err != nil {
		s.log.Warn("delete control failed", "id", c.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// Move sets a control's origin, kept inside the surface.
func (s *Session) Move(id string, x, y float64) error {
	if !s.EditMode() {
		return ErrEditModeRequired
	}
	c, err := s.target(id)
	if err != nil {
		return err
	}
	w, h := s.router.SurfaceSize()
	c.X = surface.ClampOrigin(x, c.Width, w)
	c.Y = surface.ClampOrigin(y, c.Height, h)
	s.store.MarkDirty()
	return nil
}

// Resize sets a control's size within the interactive limits.
func (s *Session) Resize(id string, width, height float64) error {
	if !s.EditMode() {
		return ErrEditModeRequired
	}
	c, err := s.target(id)
	if err != nil {
		return err
	}
	c.Width = clampSize(width)
	c.Height = clampSize(height)
	s.store.MarkDirty()
	return nil
}

// SaveLayout sends the whole control list to the host.
func (s *Session) SaveLayout() []surface.Control {
	snapshot := s.store.Snapshot()
	s.out.Emit(wire.EventSaveLayout, snapshot)
	return snapshot
}

// LayoutSaved is the host's acknowledgement of SaveLayout. Authoring ends.
func (s *Session) LayoutSaved() {
	s.SetEditMode(false)
}

// BindAxis assigns a source and shaping to one axis.
func (s *Session) BindAxis(req wire.BindAxis) error {
	a, err := axis.ParseAxis(req.Axis)
	if err != nil {
		return err
	}
	src, err := axis.ParseSource(req.SourceType, req.SourceID)
	if err != nil {
		return err
	}
	if id, ok := src.SliderID(); ok {
		c, found := s.store.Lookup(id)
		if !found || !c.IsSlider() {
			return fmt.Errorf("%w: slider %s", surface.ErrNotFound, id)
		}
	}
	if err := s.axes.Bind(a, src); err != nil {
		return err
	}
	return s.axes.Shape(a, axis.Shaping{
		PeakValue: req.PeakValue,
		Deadzone:  req.Deadzone,
		GyroRange: req.GyroRange,
		Invert:    req.Invert,
	})
}

// Candidates lists the sliders selectable for an axis.
func (s *Session) Candidates(name string) ([]axis.Candidate, error) {
	a, err := axis.ParseAxis(name)
	if err != nil {
		return nil, err
	}
	return s.axes.Candidates(a, s.store.Sliders()), nil
}

// DrivingSettings is the driving section the next save would write.
func (s *Session) DrivingSettings() axis.Settings {
	out := s.settings
	base := axis.DrivingConfig{}
	if s.settings.DrivingConfig != nil {
		base = *s.settings.DrivingConfig
	}
	d := s.axes.Export(base, s.legacyCompat, axis.ControlLookup(s.store))
	out.DrivingConfig = &d
	if out.JoystickType == "" {
		out.JoystickType = axis.JoystickXbox360
	}
	if out.JoystickType != axis.JoystickCustom {
		out.CustomJoystick = nil
	}
	return out
}

// SaveDrivingConfig validates the axis table and stores the driving section.
// A table binding one slider to two axes is rejected before anything is
// sent.
func (s *Session) SaveDrivingConfig(ctx context.Context) error {
	if err := s.axes.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAxes, err)
	}
	settings := s.DrivingSettings()
	if err := s.persist.UpdateDrivingConfig(ctx, settings); err != nil {
		s.log.Warn("update driving config failed", "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.settings = settings
	return nil
}

// place positions a new control: centred on the surface when no origin was
// given, and always kept on screen.
func (s *Session) place(c *surface.Control, centre bool) {
	w, h := s.router.SurfaceSize()
	if centre {
		c.X = (w - c.Width) / 2
		c.Y = (h - c.Height) / 2
	}
	c.X = surface.ClampOrigin(c.X, c.Width, w)
	c.Y = surface.ClampOrigin(c.Y, c.Height, h)
}

func defaultLabel(k surface.Kind) string {
	if k == surface.KindSlider {
		return "Slider"
	}
	return "Button"
}

func clampSize(v float64) float64 {
	return min(max(v, surface.MinSize), surface.MaxSize)
}
