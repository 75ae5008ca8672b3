package surface

import "github.com/soar/touchremote/backend/internal/wire"

// Mode is what a live pointer is doing with the control it owns.
type Mode int

const (
	ModePress Mode = iota
	ModeSlide
	ModeDragMove
	ModeDragResize
)

func (m Mode) String() string {
	switch m {
	case ModePress:
		return "press"
	case ModeSlide:
		return "slide"
	case ModeDragMove:
		return "drag-move"
	case ModeDragResize:
		return "drag-resize"
	}
	return "unknown"
}

// route ties one pointer to the control it currently owns. control is nil for
// a normal-mode pointer that went down on empty space.
type route struct {
	control *Control
	mode    Mode

	// drag-move: pointer offset from the control origin
	offsetX, offsetY float64
	// drag-resize: pointer and size at press time
	startX, startY float64
	startW, startH float64
}

// Router turns raw pointer events into press, release, slide, move and resize
// actions. Routes live exactly from a pointer's down to its up, cancel or
// leave.
type Router struct {
	store *Store
	out   wire.Emitter

	editMode      bool
	width, height float64

	routes  map[int]*route
	touched map[int]bool

	// OnOpenEditor is called when a control is double-tapped in edit mode.
	OnOpenEditor func(*Control)
}

func NewRouter(store *Store, out wire.Emitter) *Router {
	if out == nil {
		out = wire.Discard
	}
	return &Router{
		store:   store,
		out:     out,
		routes:  make(map[int]*route),
		touched: make(map[int]bool),
	}
}

// SetSurfaceSize records the drawing surface extent used to keep dragged
// controls on screen. A zero extent disables the upper bound.
func (r *Router) SetSurfaceSize(width, height float64) {
	r.width, r.height = width, height
	r.store.MarkDirty()
}

func (r *Router) SurfaceSize() (width, height float64) { return r.width, r.height }

func (r *Router) EditMode() bool { return r.editMode }

// SetEditMode switches between authoring and normal interaction. Every live
// route is dropped without emitting anything.
func (r *Router) SetEditMode(on bool) {
	if r.editMode == on {
		return
	}
	for id, rt := range r.routes {
		if rt.control != nil {
			rt.control.Active = false
		}
		delete(r.routes, id)
	}
	for id := range r.touched {
		delete(r.touched, id)
	}
	r.editMode = on
	r.store.MarkDirty()
}

// Routes reports how many pointers are currently tracked.
func (r *Router) Routes() int { return len(r.routes) }

// Route returns the id of the control a pointer owns and its mode.
func (r *Router) Route(pointerID int) (controlID string, mode Mode, ok bool) {
	rt, ok := r.routes[pointerID]
	if !ok {
		return "", 0, false
	}
	if rt.control != nil {
		controlID = rt.control.ID
	}
	return controlID, rt.mode, true
}

// Touched reports whether a live pointer has overlapped a control yet.
func (r *Router) Touched(pointerID int) bool { return r.touched[pointerID] }

// Down starts a pointer sequence.
func (r *Router) Down(pointerID int, x, y float64) {
	if _, exists := r.routes[pointerID]; exists {
		// the previous sequence never saw its terminal event
		r.end(pointerID)
	}

	hit, ok := HitTest(r.store, x, y)

	if r.editMode {
		if !ok {
			return
		}
		c := hit.Control
		if OnResizeHandle(c, x, y) {
			r.routes[pointerID] = &route{
				control: c,
				mode:    ModeDragResize,
				startX:  x,
				startY:  y,
				startW:  c.Width,
				startH:  c.Height,
			}
		} else {
			r.routes[pointerID] = &route{
				control: c,
				mode:    ModeDragMove,
				offsetX: x - c.X,
				offsetY: y - c.Y,
			}
		}
		return
	}

	rt := &route{mode: ModePress}
	r.routes[pointerID] = rt
	r.touched[pointerID] = ok
	if ok {
		rt.control = hit.Control
		if hit.Control.IsSlider() {
			rt.mode = ModeSlide
		}
		r.acquire(hit.Control, x, y)
	}
}

// Move advances a pointer sequence. Moves for unknown pointers are ignored.
func (r *Router) Move(pointerID int, x, y float64) {
	rt, ok := r.routes[pointerID]
	if !ok {
		return
	}

	if r.editMode {
		c := rt.control
		if c == nil || !r.store.Contains(c) {
			return
		}
		switch rt.mode {
		case ModeDragMove:
			c.X = ClampOrigin(x-rt.offsetX, c.Width, r.width)
			c.Y = ClampOrigin(y-rt.offsetY, c.Height, r.height)
		case ModeDragResize:
			c.Width = clamp(rt.startW+(x-rt.startX), MinSize, MaxSize)
			c.Height = clamp(rt.startH+(y-rt.startY), MinSize, MaxSize)
		}
		r.store.MarkDirty()
		return
	}

	current := rt.control
	if current != nil && !r.store.Contains(current) {
		current = nil
		rt.control = nil
	}

	var target *Control
	if hit, ok := HitTest(r.store, x, y); ok {
		target = hit.Control
	}

	if target == current {
		if current != nil && current.IsSlider() {
			r.sample(current, x, y)
		}
		return
	}

	if current != nil {
		r.visualRelease(pointerID, current)
	}
	rt.control = target
	rt.mode = ModePress
	if target != nil {
		if target.IsSlider() {
			rt.mode = ModeSlide
		}
		r.acquire(target, x, y)
		r.touched[pointerID] = true
	}
}

// Up ends a pointer sequence normally.
func (r *Router) Up(pointerID int) { r.end(pointerID) }

// Cancel ends a pointer sequence the platform aborted.
func (r *Router) Cancel(pointerID int) { r.end(pointerID) }

// Leave ends a pointer sequence that left the surface.
func (r *Router) Leave(pointerID int) { r.end(pointerID) }

// DoubleTap opens the control under (x, y) for editing when edit mode is on.
func (r *Router) DoubleTap(x, y float64) bool {
	if !r.editMode {
		return false
	}
	hit, ok := HitTest(r.store, x, y)
	if !ok {
		return false
	}
	if r.OnOpenEditor != nil {
		r.OnOpenEditor(hit.Control)
	}
	return true
}

// Forget detaches a control that is about to leave the store from every route
// that owns it, so no release is ever executed for it.
func (r *Router) Forget(c *Control) {
	for _, rt := range r.routes {
		if rt.control == c {
			rt.control = nil
		}
	}
}

func (r *Router) end(pointerID int) {
	rt, ok := r.routes[pointerID]
	if !ok {
		delete(r.touched, pointerID)
		return
	}
	delete(r.routes, pointerID)

	if r.editMode {
		return
	}

	if c := rt.control; c != nil && r.store.Contains(c) {
		r.execute(c)
		if !r.owned(c) {
			c.Active = false
		}
		r.store.MarkDirty()
	}
	if !r.touched[pointerID] {
		r.out.Emit(wire.EventHideOverlay, struct{}{})
	}
	delete(r.touched, pointerID)
}

// acquire is the press side: a button goes down, a slider jumps to the
// pointer.
func (r *Router) acquire(c *Control, x, y float64) {
	c.Active = true
	r.store.MarkDirty()
	if c.IsSlider() {
		r.sample(c, x, y)
		return
	}
	r.out.Emit(wire.EventButtonDown, wire.ButtonDown{ID: c.ID, Label: c.Label})
}

// visualRelease drops the pressed look of a control a pointer slid away from.
// Nothing is emitted: only the control owning the pointer when it lifts gets
// committed.
func (r *Router) visualRelease(pointerID int, c *Control) {
	rt := r.routes[pointerID]
	rt.control = nil
	if !r.owned(c) {
		c.Active = false
	}
	r.store.MarkDirty()
}

// execute commits the control a terminating pointer owned.
func (r *Router) execute(c *Control) {
	if c.IsSlider() {
		if c.AutoCenter {
			v := c.Recenter()
			r.out.Emit(wire.EventSliderValue, wire.SliderValue{ID: c.ID, Value: v})
		}
		return
	}
	r.out.Emit(wire.EventButtonUp, wire.ButtonUp{ID: c.ID})
}

func (r *Router) sample(c *Control, x, y float64) {
	v := c.SetValue(SampleSlider(c, x, y))
	r.store.MarkDirty()
	r.out.Emit(wire.EventSliderValue, wire.SliderValue{ID: c.ID, Value: v})
}

// owned reports whether any live route still owns c.
func (r *Router) owned(c *Control) bool {
	for _, rt := range r.routes {
		if rt.control == c {
			return true
		}
	}
	return false
}

// ClampOrigin keeps a control inside [0, extent-size]. The lower bound wins
// for a control larger than the surface; a zero extent has no upper bound.
func ClampOrigin(v, size, extent float64) float64 {
	if extent > 0 {
		v = min(v, extent-size)
	}
	return max(v, 0)
}
