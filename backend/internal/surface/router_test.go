package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/touchremote/backend/internal/wire"
)

func TestRouterSlideAcrossButtons(t *testing.T) {
	b1 := Control{ID: "B1", Type: KindButton, X: 0, Y: 0, Width: 60, Height: 60, Label: "one"}
	b2 := Control{ID: "B2", Type: KindButton, X: 62, Y: 0, Width: 60, Height: 60, Label: "two"}
	s, r, rec := newRouter(b1, b2)

	r.Down(1, 30, 30)
	r.Move(1, 70, 30)
	r.Up(1)

	assert.Equal(t, []any{
		wire.ButtonDown{ID: "B1", Label: "one"},
		wire.ButtonDown{ID: "B2", Label: "two"},
	}, rec.of(wire.EventButtonDown))
	assert.Equal(t, []any{wire.ButtonUp{ID: "B2"}}, rec.of(wire.EventButtonUp))
	assert.Zero(t, rec.count(wire.EventHideOverlay))
	assert.Zero(t, r.Routes())

	for _, c := range s.Controls() {
		assert.False(t, c.Active, c.ID)
	}
}

func TestRouterVisualReleaseClearsActiveOnly(t *testing.T) {
	b1 := Control{ID: "B1", Type: KindButton, X: 0, Y: 0, Width: 60, Height: 60}
	b2 := Control{ID: "B2", Type: KindButton, X: 100, Y: 0, Width: 60, Height: 60}
	s, r, rec := newRouter(b1, b2)

	r.Down(1, 30, 30)
	first, _ := s.Find("B1")
	assert.True(t, first.Active)

	r.Move(1, 80, 30) // gap between the buttons
	assert.False(t, first.Active)
	id, mode, ok := r.Route(1)
	require.True(t, ok)
	assert.Empty(t, id)
	assert.Equal(t, ModePress, mode)
	assert.Zero(t, rec.count(wire.EventButtonUp))

	r.Up(1)
	assert.Zero(t, rec.count(wire.EventButtonUp))
	// the sequence did touch a control, so the overlay is left alone
	assert.Zero(t, rec.count(wire.EventHideOverlay))
}

func TestRouterDownUpCounts(t *testing.T) {
	controls := []Control{button("a", 0, 0), button("b", 200, 0), button("c", 400, 0)}
	_, r, rec := newRouter(controls...)

	// three pointers on three disjoint controls, interleaved
	r.Down(1, 50, 50)
	r.Down(2, 250, 50)
	r.Move(1, 55, 55)
	r.Down(3, 450, 50)
	r.Up(2)
	r.Cancel(1)
	r.Leave(3)

	assert.Equal(t, 3, rec.count(wire.EventButtonDown))
	assert.Equal(t, 3, rec.count(wire.EventButtonUp))
	assert.Zero(t, r.Routes())
}

func TestRouterTerminalEventsAreEquivalent(t *testing.T) {
	for name, end := range map[string]func(*Router, int){
		"up":     (*Router).Up,
		"cancel": (*Router).Cancel,
		"leave":  (*Router).Leave,
	} {
		t.Run(name, func(t *testing.T) {
			s, r, rec := newRouter(button("a", 0, 0))
			r.Down(7, 50, 50)
			end(r, 7)

			assert.Equal(t, []any{wire.ButtonUp{ID: "a"}}, rec.of(wire.EventButtonUp))
			assert.Zero(t, r.Routes())
			assert.False(t, r.Touched(7))
			c, _ := s.Find("a")
			assert.False(t, c.Active)
		})
	}
}

func TestRouterHideOverlayWhenNothingTouched(t *testing.T) {
	_, r, rec := newRouter(button("a", 0, 0))

	r.Down(1, 500, 500)
	_, _, ok := r.Route(1)
	assert.True(t, ok, "normal mode creates a route even on a miss")
	r.Move(1, 510, 510)
	r.Up(1)

	assert.Equal(t, 1, rec.count(wire.EventHideOverlay))
	assert.Zero(t, rec.count(wire.EventButtonDown))
}

func TestRouterSlideInFromEmptySpace(t *testing.T) {
	_, r, rec := newRouter(button("a", 0, 0))

	r.Down(1, 300, 50)
	assert.False(t, r.Touched(1))
	r.Move(1, 50, 50)
	assert.True(t, r.Touched(1))
	r.Up(1)

	assert.Equal(t, 1, rec.count(wire.EventButtonDown))
	assert.Equal(t, []any{wire.ButtonUp{ID: "a"}}, rec.of(wire.EventButtonUp))
	assert.Zero(t, rec.count(wire.EventHideOverlay))
}

func TestRouterSharedButtonStaysActive(t *testing.T) {
	s, r, rec := newRouter(button("a", 0, 0), button("b", 200, 0))

	r.Down(1, 20, 20)
	r.Down(2, 80, 80)
	assert.Equal(t, 2, rec.count(wire.EventButtonDown))

	r.Move(1, 250, 50)
	a, _ := s.Find("a")
	assert.True(t, a.Active, "pointer 2 still owns a")

	r.Up(2)
	assert.False(t, a.Active)
	r.Up(1)
	assert.Equal(t, []any{wire.ButtonUp{ID: "a"}, wire.ButtonUp{ID: "b"}}, rec.of(wire.EventButtonUp))
}

func TestRouterSliderSampling(t *testing.T) {
	s, r, rec := newRouter(slider("S1", 50, 0, 200, 60, Horizontal, Unipolar))

	r.Down(1, 150, 30)
	r.Move(1, 200, 30)
	r.Move(1, 240, 30)
	r.Up(1)

	values := rec.of(wire.EventSliderValue)
	require.Len(t, values, 3, "one message per sample, none on release without auto-center")
	assert.InDelta(t, 0.5, values[0].(wire.SliderValue).Value, 1e-9)
	assert.Equal(t, 1.0, values[2].(wire.SliderValue).Value)

	c, _ := s.Find("S1")
	assert.Equal(t, 1.0, c.Value)
	assert.Zero(t, rec.count(wire.EventButtonDown))
	assert.Zero(t, rec.count(wire.EventButtonUp))
}

func TestRouterSliderAutoCenter(t *testing.T) {
	tests := []struct {
		mode RangeMode
		rest float64
	}{
		{Bipolar, 0},
		{Unipolar, 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			sl := slider("S", 0, 0, 200, 50, Horizontal, tt.mode)
			sl.AutoCenter = true
			s, r, rec := newRouter(sl)

			r.Down(1, 180, 25)
			r.Up(1)

			values := rec.of(wire.EventSliderValue)
			require.Len(t, values, 2)
			assert.Equal(t, wire.SliderValue{ID: "S", Value: tt.rest}, values[1])
			c, _ := s.Find("S")
			assert.Equal(t, tt.rest, c.Value)
			assert.False(t, c.Active)
		})
	}
}

func TestRouterEditDragMoveClamps(t *testing.T) {
	s, r, rec := newRouter(button("a", 100, 100))
	r.SetEditMode(true)

	r.Down(1, 120, 130)
	_, mode, ok := r.Route(1)
	require.True(t, ok)
	assert.Equal(t, ModeDragMove, mode)

	r.Move(1, 220, 230)
	c, _ := s.Find("a")
	assert.Equal(t, 200.0, c.X)
	assert.Equal(t, 200.0, c.Y)

	r.Move(1, -500, 5000)
	assert.Equal(t, 0.0, c.X)
	assert.Equal(t, 500.0, c.Y) // 600 - 100

	r.Move(1, 5000, -500)
	assert.Equal(t, 700.0, c.X) // 800 - 100
	assert.Equal(t, 0.0, c.Y)

	r.Up(1)
	assert.Zero(t, r.Routes())
	assert.Empty(t, rec.events, "editing emits nothing")
}

func TestRouterEditResizeClamps(t *testing.T) {
	deltas := []float64{-10000, -60, -1, 0, 1, 37, 150, 10000}
	for _, dx := range deltas {
		for _, dy := range deltas {
			s, r, _ := newRouter(button("a", 100, 100))
			r.SetEditMode(true)

			r.Down(1, 195, 195)
			_, mode, _ := r.Route(1)
			require.Equal(t, ModeDragResize, mode)
			r.Move(1, 195+dx, 195+dy)

			c, _ := s.Find("a")
			assert.GreaterOrEqual(t, c.Width, MinSize)
			assert.LessOrEqual(t, c.Width, MaxSize)
			assert.GreaterOrEqual(t, c.Height, MinSize)
			assert.LessOrEqual(t, c.Height, MaxSize)
		}
	}
}

func TestRouterEditMissCreatesNoRoute(t *testing.T) {
	_, r, rec := newRouter(button("a", 0, 0))
	r.SetEditMode(true)

	r.Down(1, 500, 500)
	assert.Zero(t, r.Routes())
	r.Up(1)
	assert.Empty(t, rec.events)
}

func TestRouterSetEditModeDropsRoutes(t *testing.T) {
	s, r, rec := newRouter(button("a", 0, 0))

	r.Down(1, 50, 50)
	r.SetEditMode(true)
	assert.Zero(t, r.Routes())
	c, _ := s.Find("a")
	assert.False(t, c.Active)

	r.Up(1)
	assert.Zero(t, rec.count(wire.EventButtonUp))
}

func TestRouterDoubleTap(t *testing.T) {
	_, r, _ := newRouter(button("a", 0, 0))
	var opened []string
	r.OnOpenEditor = func(c *Control) { opened = append(opened, c.ID) }

	assert.False(t, r.DoubleTap(50, 50), "ignored outside edit mode")
	r.SetEditMode(true)
	assert.False(t, r.DoubleTap(500, 500))
	assert.True(t, r.DoubleTap(50, 50))
	assert.Equal(t, []string{"a"}, opened)
}

func TestRouterForgetDeletedControl(t *testing.T) {
	s, r, rec := newRouter(button("a", 0, 0))

	r.Down(1, 50, 50)
	c, _ := s.Find("a")
	r.Forget(c)
	s.Remove(c)
	r.Up(1)

	assert.Zero(t, rec.count(wire.EventButtonUp))
	assert.Zero(t, r.Routes())
}

func TestRouterRepeatedDownEndsPreviousSequence(t *testing.T) {
	_, r, rec := newRouter(button("a", 0, 0), button("b", 200, 0))

	r.Down(1, 50, 50)
	r.Down(1, 250, 50)
	r.Up(1)

	assert.Equal(t, []any{wire.ButtonUp{ID: "a"}, wire.ButtonUp{ID: "b"}}, rec.of(wire.EventButtonUp))
	assert.Zero(t, r.Routes())
}

func TestClampOrigin(t *testing.T) {
	tests := []struct {
		name            string
		v, size, extent float64
		want            float64
	}{
		{"inside", 30, 50, 200, 30},
		{"negative", -10, 50, 200, 0},
		{"past far edge", 180, 50, 200, 150},
		{"larger than surface", 20, 300, 200, 0},
		{"no extent", 500, 50, 0, 500},
		{"no extent negative", -5, 50, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampOrigin(tt.v, tt.size, tt.extent))
		})
	}
}
