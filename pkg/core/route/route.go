// Package route computes anchors and orthogonal paths for diagram edges.
//
// The router is pure geometry: it consumes positioned boxes and edge
// requests and produces anchored polylines. Edges leaving the same column
// share one anchor and fan out; distinct columns on a shared face are
// offset in parallel so lines never stack on top of each other. All
// ordering is derived from stable identifiers, never from insertion order.
package route

import (
	"math"
	"sort"

	"github.com/matzehuels/schemaflow/pkg/core/layout"
)

const (
	// arrowSpacing separates parallel anchors on one face.
	arrowSpacing = 16.0

	// clearance is how far a path exits a face before turning.
	clearance = 40.0
)

// Kind distinguishes foreign-key edges from lineage edges.
type Kind int

const (
	KindForeignKey Kind = iota
	KindLineage
)

// String returns the kind name used in serialized output.
func (k Kind) String() string {
	if k == KindLineage {
		return "lineage"
	}
	return "foreign-key"
}

// Face is the side of a box an edge attaches to.
type Face int

const (
	FaceTop Face = iota
	FaceRight
	FaceBottom
	FaceLeft
)

// String returns the face name used in serialized output.
func (f Face) String() string {
	switch f {
	case FaceTop:
		return "top"
	case FaceRight:
		return "right"
	case FaceBottom:
		return "bottom"
	default:
		return "left"
	}
}

// Endpoint names one side of an edge: a stable table identifier plus the
// column within it.
type Endpoint struct {
	Table  string
	Column string
}

// ID returns the endpoint's stable column identifier.
func (e Endpoint) ID() string {
	return e.Table + "." + e.Column
}

// Request describes one edge to route. Transform, Condition, and Notes are
// only meaningful for lineage edges.
type Request struct {
	Kind      Kind
	From      Endpoint
	To        Endpoint
	Transform string
	Condition string
	Notes     string
}

// Anchor is the attachment point of an edge on a table box.
type Anchor struct {
	Table string
	Face  Face
	X, Y  float64
}

// Point is one waypoint of an edge path.
type Point struct {
	X, Y float64
}

// Tooltip is the hover payload carried by an edge.
type Tooltip struct {
	From      string
	To        string
	Transform string
	Condition string
	Notes     string
}

// Edge is one routed edge: anchors, an orthogonal polyline between them,
// and the tooltip payload.
type Edge struct {
	Kind    Kind
	From    Anchor
	To      Anchor
	Points  []Point
	Tooltip Tooltip
}

// Route computes anchors and paths for all requests over the given boxes,
// keyed by stable table identifier. Requests whose endpoints have no box
// are skipped; the resolver has already reported those tables. Output
// order follows request order.
func Route(requests []Request, boxes map[string]layout.Box) []Edge {
	kept := make([]Request, 0, len(requests))
	for _, r := range requests {
		if _, ok := boxes[r.From.Table]; !ok {
			continue
		}
		if _, ok := boxes[r.To.Table]; !ok {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil
	}

	srcFace := make([]Face, len(kept))
	dstFace := make([]Face, len(kept))
	for i, r := range kept {
		srcFace[i], dstFace[i] = facesFor(boxes[r.From.Table], boxes[r.To.Table])
	}

	srcOffset := assignOffsets(kept, srcFace, true)
	dstOffset := assignOffsets(kept, dstFace, false)

	edges := make([]Edge, 0, len(kept))
	for i, r := range kept {
		fx, fy := anchorPoint(boxes[r.From.Table], srcFace[i], srcOffset[i])
		tx, ty := anchorPoint(boxes[r.To.Table], dstFace[i], dstOffset[i])
		from := Anchor{Table: r.From.Table, Face: srcFace[i], X: fx, Y: fy}
		to := Anchor{Table: r.To.Table, Face: dstFace[i], X: tx, Y: ty}
		edges = append(edges, Edge{
			Kind:    r.Kind,
			From:    from,
			To:      to,
			Points:  path(from, to),
			Tooltip: tooltipFor(r),
		})
	}
	return edges
}

// facesFor picks the face on each box whose outward normal points toward
// the other box's center. Horizontal wins ties so side-by-side tables
// connect side to side.
func facesFor(from, to layout.Box) (Face, Face) {
	dx := to.CenterX() - from.CenterX()
	dy := to.CenterY() - from.CenterY()
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			return FaceRight, FaceLeft
		}
		return FaceLeft, FaceRight
	}
	if dy >= 0 {
		return FaceBottom, FaceTop
	}
	return FaceTop, FaceBottom
}

// assignOffsets distributes anchor slots along each (table, face) group.
// Edges sharing a column on that side share one slot, so multiple targets
// of one column fan out from a single anchor. Slots are centered on the
// face, spaced arrowSpacing apart, and ordered by the smallest other-
// endpoint identifier, then kind, then column name.
func assignOffsets(requests []Request, faces []Face, source bool) []float64 {
	type groupKey struct {
		table string
		face  Face
	}
	type anchorInfo struct {
		column   string
		minOther string
		minKind  Kind
		edges    []int
	}
	groups := make(map[groupKey]map[string]*anchorInfo)
	for i, r := range requests {
		this, other := r.From, r.To
		if !source {
			this, other = r.To, r.From
		}
		key := groupKey{this.Table, faces[i]}
		anchors := groups[key]
		if anchors == nil {
			anchors = make(map[string]*anchorInfo)
			groups[key] = anchors
		}
		a := anchors[this.Column]
		if a == nil {
			a = &anchorInfo{column: this.Column, minOther: other.Table, minKind: r.Kind}
			anchors[this.Column] = a
		}
		if other.Table < a.minOther {
			a.minOther = other.Table
		}
		if r.Kind < a.minKind {
			a.minKind = r.Kind
		}
		a.edges = append(a.edges, i)
	}

	offsets := make([]float64, len(requests))
	for _, anchors := range groups {
		sorted := make([]*anchorInfo, 0, len(anchors))
		for _, a := range anchors {
			sorted = append(sorted, a)
		}
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].minOther != sorted[j].minOther {
				return sorted[i].minOther < sorted[j].minOther
			}
			if sorted[i].minKind != sorted[j].minKind {
				return sorted[i].minKind < sorted[j].minKind
			}
			return sorted[i].column < sorted[j].column
		})
		for slot, a := range sorted {
			off := (float64(slot) - float64(len(sorted)-1)/2) * arrowSpacing
			for _, i := range a.edges {
				offsets[i] = off
			}
		}
	}
	return offsets
}

// anchorPoint returns the anchor coordinates on a face. The offset shifts
// along the face: horizontally for top/bottom, vertically for left/right.
func anchorPoint(b layout.Box, face Face, offset float64) (x, y float64) {
	switch face {
	case FaceTop:
		return b.CenterX() + offset, b.Y
	case FaceBottom:
		return b.CenterX() + offset, b.Bottom()
	case FaceLeft:
		return b.X, b.CenterY() + offset
	default:
		return b.Right(), b.CenterY() + offset
	}
}

func outward(face Face) (dx, dy float64) {
	switch face {
	case FaceTop:
		return 0, -1
	case FaceBottom:
		return 0, 1
	case FaceLeft:
		return -1, 0
	default:
		return 1, 0
	}
}

// path builds the 4-point orthogonal polyline: anchor, clearance exit from
// the source face, an approach point aligned with the target anchor, and
// the target anchor itself.
func path(from, to Anchor) []Point {
	nx, ny := outward(from.Face)
	exit := Point{from.X + nx*clearance, from.Y + ny*clearance}
	var approach Point
	if nx != 0 {
		approach = Point{to.X, exit.Y}
	} else {
		approach = Point{exit.X, to.Y}
	}
	return []Point{{from.X, from.Y}, exit, approach, {to.X, to.Y}}
}

func tooltipFor(r Request) Tooltip {
	t := Tooltip{From: r.From.ID(), To: r.To.ID()}
	if r.Kind == KindLineage {
		t.Transform = r.Transform
		t.Condition = r.Condition
		t.Notes = r.Notes
	}
	return t
}
