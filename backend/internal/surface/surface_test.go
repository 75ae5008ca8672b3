package surface

import (
	"github.com/soar/touchremote/backend/internal/wire"
)

type emitted struct {
	event   string
	payload any
}

type recorder struct {
	events []emitted
}

func (r *recorder) Emit(event string, payload any) {
	r.events = append(r.events, emitted{event, payload})
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e.event == event {
			n++
		}
	}
	return n
}

func (r *recorder) of(event string) []any {
	var out []any
	for _, e := range r.events {
		if e.event == event {
			out = append(out, e.payload)
		}
	}
	return out
}

func (r *recorder) reset() { r.events = nil }

func button(id string, x, y float64) Control {
	return Control{ID: id, Type: KindButton, X: x, Y: y, Width: 100, Height: 100, Label: id}
}

func slider(id string, x, y, w, h float64, o Orientation, m RangeMode) Control {
	return Control{ID: id, Type: KindSlider, X: x, Y: y, Width: w, Height: h, Label: id, Orientation: o, RangeMode: m}
}

func newRouter(controls ...Control) (*Store, *Router, *recorder) {
	s := NewStore()
	s.Load(controls)
	rec := &recorder{}
	r := NewRouter(s, rec)
	r.SetSurfaceSize(800, 600)
	return s, r, rec
}

var _ wire.Emitter = (*recorder)(nil)
