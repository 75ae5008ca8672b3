package surface

// ResizeHandleSize is the side of the square resize handle anchored at a
// control's bottom-right corner.
const ResizeHandleSize = 20.0

// Hit is the result of a successful hit test.
type Hit struct {
	Control *Control
	Index   int
}

// HitTest returns the topmost control containing (x, y). Controls are scanned
// in reverse insertion order, so the last inserted wins on overlap.
func HitTest(s *Store, x, y float64) (Hit, bool) {
	for i := len(s.controls) - 1; i >= 0; i-- {
		c := s.controls[i]
		if c.Contains(x, y) {
			return Hit{Control: c, Index: i}, true
		}
	}
	return Hit{Index: -1}, false
}

// OnResizeHandle reports whether (x, y) lies inside c's resize handle.
func OnResizeHandle(c *Control, x, y float64) bool {
	hx, hy := ResizeHandleOrigin(c)
	return x >= hx && x <= c.X+c.Width &&
		y >= hy && y <= c.Y+c.Height
}

// ResizeHandleOrigin returns the top-left corner of c's resize handle.
func ResizeHandleOrigin(c *Control) (x, y float64) {
	return c.X + c.Width - ResizeHandleSize, c.Y + c.Height - ResizeHandleSize
}
