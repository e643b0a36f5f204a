package layout

import (
	"math"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
)

// goldenAngle is the spiral's angular step. Its irrational ratio to the
// full circle keeps successive candidates from lining up periodically.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// spiral places connected tables around a shared origin. The candidate
// step only advances, so radii grow monotonically across the whole schema
// and the search never revisits a slot.
type spiral struct {
	cfg       Config
	originX   float64
	originY   float64
	step      int
	placed    []Box
	fallbacks int
}

func newSpiral(originX, originY float64, cfg Config) *spiral {
	return &spiral{cfg: cfg, originX: originX, originY: originY}
}

// next returns the next candidate center. The very first candidate is the
// origin itself.
func (s *spiral) next() (x, y float64) {
	if s.step == 0 {
		s.step++
		return s.originX, s.originY
	}
	k := float64(s.step - 1)
	r := s.cfg.StartRadius + s.cfg.RadiusGrowth*k
	a := k * goldenAngle
	s.step++
	return s.originX + r*math.Cos(a), s.originY + r*math.Sin(a)
}

// place searches the spiral for a slot where the table's footprint clears
// every placed box by the configured gap. It reports false once the
// attempt budget is exhausted; the node is then stacked beneath the
// occupied region instead.
func (s *spiral) place(t *schema.Table, w, h float64) (*Node, bool) {
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		x, y := s.next()
		box := Box{X: x - w/2, Y: y - h/2, W: w, H: h}
		if s.collides(box) {
			continue
		}
		s.placed = append(s.placed, box)
		return &Node{Table: t, Box: box}, true
	}
	box := s.fallbackBox(w, h)
	s.placed = append(s.placed, box)
	return &Node{Table: t, Box: box, Fallback: true}, false
}

func (s *spiral) collides(box Box) bool {
	for _, p := range s.placed {
		if box.Intersects(p, s.cfg.Gap) {
			return true
		}
	}
	return false
}

// fallbackBox stacks below everything placed so far. Each successive
// fallback shifts right by the configured offset so a pile of them stays
// visibly distinct, and each sits a full gap below the previous bottom, so
// the non-overlap guarantee holds for fallback nodes too.
func (s *spiral) fallbackBox(w, h float64) Box {
	bottom := s.originY
	for _, p := range s.placed {
		if p.Bottom() > bottom {
			bottom = p.Bottom()
		}
	}
	x := s.originX - w/2 + float64(s.fallbacks)*s.cfg.FallbackOffset
	s.fallbacks++
	return Box{X: x, Y: bottom + s.cfg.Gap, W: w, H: h}
}

// envelope returns the bounding box of everything placed on the spiral, or
// a zero-size box at the origin when nothing was.
func (s *spiral) envelope() Box {
	if len(s.placed) == 0 {
		return Box{X: s.originX, Y: s.originY}
	}
	env := s.placed[0]
	for _, p := range s.placed[1:] {
		env = env.Union(p)
	}
	return env
}
