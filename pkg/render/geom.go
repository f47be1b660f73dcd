package render

import (
	"math"

	"github.com/markviz/markviz/pkg/layout"
)

// boundaryPoint returns the point where a ray from the center of r at the
// given angle crosses the box border.
func boundaryPoint(r layout.Rect, angle float64) layout.Point {
	cx, cy := r.CenterX(), r.CenterY()
	dx, dy := math.Cos(angle), math.Sin(angle)
	halfW, halfH := r.W/2, r.H/2

	tx := math.Inf(1)
	if math.Abs(dx) > 1e-5 {
		tx = halfW / math.Abs(dx)
	}
	ty := math.Inf(1)
	if math.Abs(dy) > 1e-5 {
		ty = halfH / math.Abs(dy)
	}
	t := math.Min(tx, ty)

	return layout.Point{X: cx + dx*t, Y: cy + dy*t}
}

// vsegHitsRect reports whether the vertical segment at x from y1 to y2
// crosses the box.
func vsegHitsRect(x, y1, y2 float64, r layout.Rect) bool {
	ya, yb := math.Min(y1, y2), math.Max(y1, y2)
	return x >= r.X && x <= r.Right() && yb >= r.Y && ya <= r.Bottom()
}

// hsegHitsRect reports whether the horizontal segment at y from x1 to x2
// crosses the box.
func hsegHitsRect(y, x1, x2 float64, r layout.Rect) bool {
	xa, xb := math.Min(x1, x2), math.Max(x1, x2)
	return y >= r.Y && y <= r.Bottom() && xb >= r.X && xa <= r.Right()
}

// lineIntersectsRect clips the segment against the box using
// Cohen-Sutherland outcodes and reports whether any part survives.
func lineIntersectsRect(x1, y1, x2, y2 float64, r layout.Rect) bool {
	left, right := r.X, r.Right()
	top, bottom := r.Y, r.Bottom()

	code := func(x, y float64) uint8 {
		var c uint8
		if x < left {
			c |= 1
		}
		if x > right {
			c |= 2
		}
		if y < top {
			c |= 4
		}
		if y > bottom {
			c |= 8
		}
		return c
	}

	c1, c2 := code(x1, y1), code(x2, y2)
	ax, ay, bx, by := x1, y1, x2, y2

	for range 20 {
		if c1 == 0 || c2 == 0 {
			return true
		}
		if c1&c2 != 0 {
			return false
		}
		c := c1
		if c == 0 {
			c = c2
		}
		var nx, ny float64
		switch {
		case c&8 != 0:
			nx, ny = ax+(bx-ax)*(bottom-ay)/(by-ay), bottom
		case c&4 != 0:
			nx, ny = ax+(bx-ax)*(top-ay)/(by-ay), top
		case c&2 != 0:
			nx, ny = right, ay+(by-ay)*(right-ax)/(bx-ax)
		default:
			nx, ny = left, ay+(by-ay)*(left-ax)/(bx-ax)
		}
		if c == c1 {
			ax, ay = nx, ny
			c1 = code(ax, ay)
		} else {
			bx, by = nx, ny
			c2 = code(bx, by)
		}
	}
	return false
}
