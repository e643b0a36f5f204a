package layout

import "github.com/matzehuels/schemaflow/pkg/core/schema"

// Box is an axis-aligned rectangle in diagram coordinates. X and Y are the
// top-left corner; y grows downward, as in SVG.
type Box struct {
	X, Y float64
	W, H float64
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 { return b.X + b.W/2 }

// CenterY returns the vertical center of the box.
func (b Box) CenterY() float64 { return b.Y + b.H/2 }

// Intersects reports whether the two boxes come closer than gap on both
// axes. Boxes separated by exactly gap do not intersect.
func (b Box) Intersects(o Box, gap float64) bool {
	return b.X < o.Right()+gap && o.X < b.Right()+gap &&
		b.Y < o.Bottom()+gap && o.Y < b.Bottom()+gap
}

// Union returns the smallest box covering both boxes.
func (b Box) Union(o Box) Box {
	x := b.X
	if o.X < x {
		x = o.X
	}
	y := b.Y
	if o.Y < y {
		y = o.Y
	}
	right := b.Right()
	if o.Right() > right {
		right = o.Right()
	}
	bottom := b.Bottom()
	if o.Bottom() > bottom {
		bottom = o.Bottom()
	}
	return Box{X: x, Y: y, W: right - x, H: bottom - y}
}

// Footprint computes a table's rendered size from parsed content alone.
// Width follows the longest label, clamped into the configured range, and
// height follows the column count. No font metrics are involved, so the
// result is identical on every machine.
func Footprint(t *schema.Table, cfg Config) (w, h float64) {
	maxLabel := len(t.Name)
	for _, c := range t.Columns {
		if n := len(c.Name) + 1 + len(c.Type); n > maxLabel {
			maxLabel = n
		}
	}
	w = cfg.CharWidth*float64(maxLabel) + cfg.PadX
	if w < cfg.MinWidth {
		w = cfg.MinWidth
	}
	if w > cfg.MaxWidth {
		w = cfg.MaxWidth
	}
	h = cfg.HeaderHeight + cfg.RowHeight*float64(len(t.Columns))
	return w, h
}
