package surface

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Rect is an axis-aligned rectangle in surface pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Item is one paintable control. The client draws items in order.
type Item struct {
	ID        string  `json:"id,omitempty"`
	Kind      Kind    `json:"kind"`
	Rect      Rect    `json:"rect"`
	Fill      string  `json:"fill"`
	Border    string  `json:"border"`
	Dashed    bool    `json:"dashed,omitempty"`
	Label     string  `json:"label"`
	FontSize  float64 `json:"fontSize"`
	Active    bool    `json:"active,omitempty"`
	Pending   bool    `json:"pending,omitempty"`
	Track     *Rect   `json:"track,omitempty"`
	Knob      *Rect   `json:"knob,omitempty"`
	ValueText string  `json:"valueText,omitempty"`
	Caption   string  `json:"caption,omitempty"`
	Handle    *Rect   `json:"handle,omitempty"`
}

// Frame is a complete display list for one repaint.
type Frame struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	EditMode bool    `json:"editMode"`
	Items    []Item  `json:"items"`
}

const (
	minFont = 10.0
	maxFont = 24.0

	activeLighten = 0.35
	borderNormal  = "#222222"
	borderEdit    = "#ffffff"
	borderActive  = "#ffd54f"
	knobFill      = "#eeeeee"
	trackFill     = "#333333"
)

// Renderer turns the store plus transient router state into frames. It owns
// no state of its own.
type Renderer struct {
	store  *Store
	router *Router

	// Caption, when set, supplies a secondary line under a control's label.
	Caption func(*Control) string
}

func NewRenderer(store *Store, router *Router) *Renderer {
	return &Renderer{store: store, router: router}
}

// Frame builds the display list for the current state.
func (r *Renderer) Frame() Frame {
	w, h := r.router.SurfaceSize()
	edit := r.router.EditMode()
	f := Frame{
		Width:    w,
		Height:   h,
		EditMode: edit,
		Items:    make([]Item, 0, r.store.Len()),
	}
	for _, c := range r.store.Controls() {
		f.Items = append(f.Items, r.item(c, edit))
	}
	return f
}

func (r *Renderer) item(c *Control, edit bool) Item {
	it := Item{
		ID:       c.ID,
		Kind:     c.Type,
		Rect:     Rect{X: c.X, Y: c.Y, W: c.Width, H: c.Height},
		Fill:     c.Color(),
		Border:   borderNormal,
		FontSize: fontSize(c),
		Active:   c.Active,
		Pending:  c.ID == "",
	}
	it.Label = fitLabel(c.Label, c.Width, it.FontSize)

	if c.Active && !edit {
		it.Fill = lighten(it.Fill, activeLighten)
		it.Border = borderActive
	}
	if edit {
		it.Border = borderEdit
		it.Dashed = true
		hx, hy := ResizeHandleOrigin(c)
		it.Handle = &Rect{X: hx, Y: hy, W: ResizeHandleSize, H: ResizeHandleSize}
	}

	if c.IsSlider() {
		track, knob := sliderGeometry(c)
		it.Track = &track
		it.Knob = &knob
		it.ValueText = strconv.FormatFloat(c.Value, 'f', 2, 64)
	}
	if r.Caption != nil {
		it.Caption = r.Caption(c)
	}
	return it
}

// sliderGeometry places the track groove and the knob for the current value.
func sliderGeometry(c *Control) (track, knob Rect) {
	t := TrackOf(c)
	off := t.KnobOffset(ValuePosition(c))
	if c.Orientation == Vertical {
		track = Rect{X: c.X + c.Width*0.4, Y: c.Y, W: c.Width * 0.2, H: c.Height}
		knob = Rect{X: c.X + (c.Width-t.Knob)/2, Y: c.Y + off, W: t.Knob, H: t.Knob}
		return track, knob
	}
	track = Rect{X: c.X, Y: c.Y + c.Height*0.4, W: c.Width, H: c.Height * 0.2}
	knob = Rect{X: c.X + off, Y: c.Y + (c.Height-t.Knob)/2, W: t.Knob, H: t.Knob}
	return track, knob
}

func fontSize(c *Control) float64 {
	return clamp(math.Min(c.Width, c.Height)*0.3, minFont, maxFont)
}

// fitLabel shortens a label that would overflow the control width, assuming
// an average glyph width of 0.6 em.
func fitLabel(label string, width, font float64) string {
	runes := []rune(label)
	limit := int(width / (font * 0.6))
	if limit < 1 {
		limit = 1
	}
	if len(runes) <= limit {
		return label
	}
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}

// lighten mixes a #rrggbb color towards white by amount in [0, 1]. Colors that
// do not parse are returned unchanged.
func lighten(hex string, amount float64) string {
	if len(hex) != 7 || hex[0] != '#' {
		return hex
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return hex
	}
	mix := func(c uint64) uint64 {
		return uint64(math.Round(float64(c) + (255-float64(c))*amount))
	}
	r, g, b := mix(v>>16&0xff), mix(v>>8&0xff), mix(v&0xff)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// Scheduler samples a dirty flag once per tick and repaints only when it was
// set, coalescing any number of mutations into one frame.
type Scheduler struct {
	interval time.Duration
	take     func() bool
	paint    func()
}

// NewScheduler builds a scheduler ticking fps times per second. take must
// clear the flag it reports.
func NewScheduler(fps int, take func() bool, paint func()) *Scheduler {
	if fps <= 0 {
		fps = 60
	}
	return &Scheduler{
		interval: time.Second / time.Duration(fps),
		take:     take,
		paint:    paint,
	}
}

// Tick runs one scheduling step and reports whether a frame was painted.
func (s *Scheduler) Tick() bool {
	if !s.take() {
		return false
	}
	s.paint()
	return true
}

// Run ticks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}
