package diagram

import (
	"fmt"
	"sort"

	"github.com/matzehuels/schemaflow/pkg/core/layout"
	"github.com/matzehuels/schemaflow/pkg/core/lineage"
	"github.com/matzehuels/schemaflow/pkg/core/route"
	"github.com/matzehuels/schemaflow/pkg/core/schema"
	"github.com/matzehuels/schemaflow/pkg/sqlparse"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Edge kinds.
const (
	EdgeForeignKey = "foreign-key"
	EdgeLineage    = "lineage"
)

// Issue stages, in pipeline order.
const (
	StageParse   = "parse"
	StageResolve = "resolve"
	StageLayout  = "layout"
)

// Issue kinds for the parse and layout stages. Resolve-stage kinds are the
// lineage issue kind names ("unmapped", "conflict", ...).
const (
	IssueStatement = "statement"
	IssueCollision = "collision"
)

// canvasMargin is the padding around the assembled diagram.
const canvasMargin = 40.0

// =============================================================================
// Model - Diagram Serialization Format
// =============================================================================

// Model is the canonical serialization format for an assembled diagram.
// It is the terminal output of the pipeline: positioned tables per schema,
// routed edges, and every issue collected along the way.
//
// The format is designed for external collaborators: every table and
// column carries a stable identifier derived from names alone, so saved
// positions, rendered artifacts, and discussion links survive re-layout.
type Model struct {
	Schemas []SchemaLayout `json:"schemas"`
	Edges   []Edge         `json:"edges,omitempty"`
	Issues  []Issue        `json:"issues,omitempty"`
	Width   float64        `json:"width"`
	Height  float64        `json:"height"`
}

// SchemaLayout is the positioned table set of one schema.
type SchemaLayout struct {
	ID       string      `json:"id"`
	Index    int         `json:"index"`
	Tables   []TableNode `json:"tables"`
	Envelope Rect        `json:"envelope"`
}

// Rect is a serialized rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TableNode is one positioned table.
type TableNode struct {
	ID         string       `json:"id"`
	Schema     string       `json:"schema"`
	Name       string       `json:"name"`
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Category   string       `json:"category,omitempty"`
	Deprecated bool         `json:"deprecated,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Fallback   bool         `json:"fallback,omitempty"`
	Columns    []ColumnNode `json:"columns"`
}

// ColumnNode is one column of a positioned table. Targets holds the stable
// column identifiers this column migrates to, in manifest order.
type ColumnNode struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type,omitempty"`
	Nullable   bool     `json:"nullable,omitempty"`
	HasDefault bool     `json:"has_default,omitempty"`
	PrimaryKey bool     `json:"primary_key,omitempty"`
	Unique     bool     `json:"unique,omitempty"`
	Deprecated bool     `json:"deprecated,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Note       string   `json:"note,omitempty"`
	Targets    []string `json:"targets,omitempty"`
}

// Edge is one routed edge.
type Edge struct {
	Kind    string  `json:"kind"`
	From    Anchor  `json:"from"`
	To      Anchor  `json:"to"`
	Points  []Point `json:"points"`
	Tooltip Tooltip `json:"tooltip"`
}

// Anchor is the serialized attachment point of an edge.
type Anchor struct {
	Table string  `json:"table"`
	Face  string  `json:"face"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Point is one waypoint of an edge path.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Tooltip is the hover payload of an edge.
type Tooltip struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Transform string `json:"transform,omitempty"`
	Condition string `json:"condition,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Issue is one collected problem, tagged with the pipeline stage that
// found it.
type Issue struct {
	Stage   string `json:"stage"`
	Kind    string `json:"kind"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// =============================================================================
// Core → Model Conversion
// =============================================================================

// BuildSchema converts one schema's positioned nodes into its serialized
// layout, attaching categories, lineage targets, and deprecation markers
// from the resolved graph. Tables are sorted by identifier.
func BuildSchema(id string, index int, nodes []*layout.Node, g *lineage.Graph) SchemaLayout {
	mappings := make(map[string]lineage.Mapping, len(g.Mappings))
	for _, m := range g.Mappings {
		mappings[m.Source.ID()] = m
	}

	out := SchemaLayout{ID: id, Index: index}
	var envelope layout.Box
	for i, n := range nodes {
		if i == 0 {
			envelope = n.Box
		} else {
			envelope = envelope.Union(n.Box)
		}
		out.Tables = append(out.Tables, buildTable(n, g, mappings))
	}
	sort.Slice(out.Tables, func(i, j int) bool { return out.Tables[i].ID < out.Tables[j].ID })
	out.Envelope = Rect{X: envelope.X, Y: envelope.Y, Width: envelope.W, Height: envelope.H}
	return out
}

func buildTable(n *layout.Node, g *lineage.Graph, mappings map[string]lineage.Mapping) TableNode {
	t := n.Table
	node := TableNode{
		ID:       t.ID(),
		Schema:   t.Schema,
		Name:     t.Name,
		X:        n.Box.X,
		Y:        n.Box.Y,
		Width:    n.Box.W,
		Height:   n.Box.H,
		Category: t.Category,
		Fallback: n.Fallback,
	}
	if reason, ok := g.DeprecatedTables[t.ID()]; ok {
		node.Deprecated = true
		node.Reason = reason
	}
	for _, c := range t.Columns {
		node.Columns = append(node.Columns, buildColumn(t, c, g, mappings))
	}
	return node
}

func buildColumn(t *schema.Table, c *schema.Column, g *lineage.Graph, mappings map[string]lineage.Mapping) ColumnNode {
	id := t.ColumnID(c.Name)
	col := ColumnNode{
		ID:         id,
		Name:       c.Name,
		Type:       c.Type,
		Nullable:   c.Nullable,
		HasDefault: c.HasDefault,
		PrimaryKey: t.IsPrimaryKey(c.Name),
		Unique:     c.Unique,
	}
	if reason, ok := g.DeprecatedColumns[id]; ok {
		col.Deprecated = true
		col.Reason = reason
	}
	if m, ok := mappings[id]; ok {
		for _, target := range m.Targets {
			col.Targets = append(col.Targets, target.To.ID())
		}
		col.Note = m.Notes
	} else if c.Annotation.Kind == schema.AnnotationUnknown {
		col.Note = c.Comment
	}
	return col
}

// FromRouted converts routed edges into their serialized form.
func FromRouted(edges []route.Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		points := make([]Point, len(e.Points))
		for i, p := range e.Points {
			points[i] = Point{X: p.X, Y: p.Y}
		}
		out = append(out, Edge{
			Kind:   e.Kind.String(),
			From:   Anchor{Table: e.From.Table, Face: e.From.Face.String(), X: e.From.X, Y: e.From.Y},
			To:     Anchor{Table: e.To.Table, Face: e.To.Face.String(), X: e.To.X, Y: e.To.Y},
			Points: points,
			Tooltip: Tooltip{
				From:      e.Tooltip.From,
				To:        e.Tooltip.To,
				Transform: e.Tooltip.Transform,
				Condition: e.Tooltip.Condition,
				Notes:     e.Tooltip.Notes,
			},
		})
	}
	return out
}

// FromParseIssues converts one schema's parse issues.
func FromParseIssues(schemaID string, issues []sqlparse.Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		msg := is.Message
		if is.Statement != "" {
			msg = fmt.Sprintf("%s: %q", is.Message, is.Statement)
		}
		out = append(out, Issue{
			Stage:   StageParse,
			Kind:    IssueStatement,
			Subject: fmt.Sprintf("%s:%d", schemaID, is.Line),
			Message: msg,
		})
	}
	return out
}

// FromResolveIssues converts lineage validation issues.
func FromResolveIssues(issues []lineage.Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, Issue{
			Stage:   StageResolve,
			Kind:    is.Kind.String(),
			Subject: is.Subject,
			Message: is.Message,
		})
	}
	return out
}

// FromLayoutIssues converts layout issues.
func FromLayoutIssues(issues []layout.Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, is := range issues {
		out = append(out, Issue{
			Stage:   StageLayout,
			Kind:    IssueCollision,
			Subject: is.Table,
			Message: is.Message,
		})
	}
	return out
}

// =============================================================================
// Assembly
// =============================================================================

// Assemble builds the final model: coordinates are translated so content
// starts at the canvas margin, the canvas size is computed, and everything
// is normalized into its deterministic order.
func Assemble(schemas []SchemaLayout, edges []Edge, issues []Issue) *Model {
	m := &Model{Schemas: schemas, Edges: edges, Issues: issues}

	minX, minY, maxX, maxY, any := bounds(m)
	if any {
		dx, dy := canvasMargin-minX, canvasMargin-minY
		translate(m, dx, dy)
		m.Width = maxX + dx + canvasMargin
		m.Height = maxY + dy + canvasMargin
	}

	m.Normalize()
	return m
}

// Normalize sorts the model into its canonical order: schemas by index,
// tables by identifier, edges by kind and endpoints, issues by stage,
// kind, subject, and message. Serializing a normalized model is
// byte-stable across runs.
func (m *Model) Normalize() {
	sort.Slice(m.Schemas, func(i, j int) bool { return m.Schemas[i].Index < m.Schemas[j].Index })
	for i := range m.Schemas {
		tables := m.Schemas[i].Tables
		sort.Slice(tables, func(a, b int) bool { return tables[a].ID < tables[b].ID })
	}
	sort.Slice(m.Edges, func(i, j int) bool {
		a, b := m.Edges[i], m.Edges[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Tooltip.From != b.Tooltip.From {
			return a.Tooltip.From < b.Tooltip.From
		}
		return a.Tooltip.To < b.Tooltip.To
	})
	sort.Slice(m.Issues, func(i, j int) bool {
		a, b := m.Issues[i], m.Issues[j]
		if a.Stage != b.Stage {
			return stageRank(a.Stage) < stageRank(b.Stage)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Message < b.Message
	})
}

func stageRank(stage string) int {
	switch stage {
	case StageParse:
		return 0
	case StageResolve:
		return 1
	case StageLayout:
		return 2
	default:
		return 3
	}
}

func bounds(m *Model) (minX, minY, maxX, maxY float64, any bool) {
	visit := func(x, y float64) {
		if !any {
			minX, minY, maxX, maxY = x, y, x, y
			any = true
			return
		}
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}
	for _, s := range m.Schemas {
		for _, t := range s.Tables {
			visit(t.X, t.Y)
			visit(t.X+t.Width, t.Y+t.Height)
		}
	}
	for _, e := range m.Edges {
		for _, p := range e.Points {
			visit(p.X, p.Y)
		}
	}
	return minX, minY, maxX, maxY, any
}

func translate(m *Model, dx, dy float64) {
	for i := range m.Schemas {
		s := &m.Schemas[i]
		s.Envelope.X += dx
		s.Envelope.Y += dy
		for j := range s.Tables {
			s.Tables[j].X += dx
			s.Tables[j].Y += dy
		}
	}
	for i := range m.Edges {
		e := &m.Edges[i]
		e.From.X += dx
		e.From.Y += dy
		e.To.X += dx
		e.To.Y += dy
		for j := range e.Points {
			e.Points[j].X += dx
			e.Points[j].Y += dy
		}
	}
}
