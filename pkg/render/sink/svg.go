package sink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/schemaflow/pkg/core/layout"
	"github.com/matzehuels/schemaflow/pkg/diagram"
)

const (
	tableNameSize  = 12.0
	columnTextSize = 10.0
	columnInsetX   = 8.0
	legendHeight   = 36.0
	issueRowHeight = 14.0
	panelPadding   = 10.0
	maxPanelIssues = 8
)

const interactionCSS = `
    .edge-line { transition: stroke-width 0.2s ease, stroke-opacity 0.2s ease; }
    .edge.highlight .edge-line { stroke-width: 2.5; stroke-opacity: 1; }
    .table-box { transition: stroke-width 0.15s ease; }
    .table:hover .table-box { stroke-width: 2.5; }`

const interactionJS = `
    function highlight(table) {
      document.querySelectorAll('.edge').forEach(e =>
        e.classList.toggle('highlight', e.dataset.from === table || e.dataset.to === table));
    }
    function clearHighlight() {
      document.querySelectorAll('.edge').forEach(e => e.classList.remove('highlight'));
    }
    document.querySelectorAll('.table').forEach(el => {
      el.addEventListener('mouseenter', () => highlight(el.id.replace('table-', '')));
      el.addEventListener('mouseleave', clearHighlight);
    });`

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	theme        Theme
	headerHeight float64
	rowHeight    float64
	legend       bool
	issues       bool
}

// WithTheme selects the color palette. Defaults to [Light].
func WithTheme(t Theme) SVGOption { return func(r *svgRenderer) { r.theme = t } }

// WithMetrics overrides the header and row heights used to place column
// text. Pass the values the layout was computed with; the defaults match
// [layout.DefaultConfig].
func WithMetrics(headerHeight, rowHeight float64) SVGOption {
	return func(r *svgRenderer) { r.headerHeight = headerHeight; r.rowHeight = rowHeight }
}

// WithLegend appends a legend panel below the diagram.
func WithLegend() SVGOption { return func(r *svgRenderer) { r.legend = true } }

// WithIssues appends a panel listing collected issues below the diagram.
// Models without issues render no panel.
func WithIssues() SVGOption { return func(r *svgRenderer) { r.issues = true } }

// RenderSVG renders the model as a standalone SVG document with hover
// highlighting of each table's edges and native tooltips for lineage
// details and deprecation reasons.
func RenderSVG(m *diagram.Model, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)
	totalHeight := m.Height + r.panelHeight(m)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		m.Width, totalHeight, m.Width, totalHeight)

	r.renderDefs(&buf)
	fmt.Fprintf(&buf, `  <rect width="%.1f" height="%.1f" fill="%s"/>`+"\n", m.Width, totalHeight, r.theme.Background)

	for _, s := range m.Schemas {
		r.renderEnvelope(&buf, s)
	}
	for i, e := range m.Edges {
		r.renderEdge(&buf, i, e)
	}
	for _, s := range m.Schemas {
		for _, t := range s.Tables {
			r.renderTable(&buf, t)
		}
	}

	y := m.Height
	if r.legend {
		r.renderLegend(&buf, m.Width, y)
		y += legendHeight
	}
	if r.issues && len(m.Issues) > 0 {
		r.renderIssues(&buf, m, y)
	}

	renderInteraction(&buf)
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	cfg := layout.DefaultConfig()
	r := svgRenderer{
		theme:        Light,
		headerHeight: cfg.HeaderHeight,
		rowHeight:    cfg.RowHeight,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r *svgRenderer) renderDefs(buf *bytes.Buffer) {
	buf.WriteString("  <defs>\n")
	fmt.Fprintf(buf, `    <marker id="arrow-fk" markerWidth="8" markerHeight="6" refX="7" refY="3" orient="auto"><polygon points="0 0, 8 3, 0 6" fill="%s"/></marker>`+"\n", r.theme.ForeignKey)
	fmt.Fprintf(buf, `    <marker id="arrow-lineage" markerWidth="8" markerHeight="6" refX="7" refY="3" orient="auto"><polygon points="0 0, 8 3, 0 6" fill="%s"/></marker>`+"\n", r.theme.Lineage)
	buf.WriteString("  </defs>\n")
}

// renderEnvelope draws a dashed outline and label around one schema region.
func (r *svgRenderer) renderEnvelope(buf *bytes.Buffer, s diagram.SchemaLayout) {
	e := s.Envelope
	fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="8" fill="none" stroke="%s" stroke-dasharray="6 4" stroke-opacity="0.5"/>`+"\n",
		e.X-12, e.Y-12, e.Width+24, e.Height+24, r.theme.Border)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" font-size="11" font-weight="600" fill="%s">%s</text>`+"\n",
		e.X-12, e.Y-20, r.theme.Dim, escape(s.ID))
}

func (r *svgRenderer) renderEdge(buf *bytes.Buffer, i int, e diagram.Edge) {
	color, marker, dash := r.theme.ForeignKey, "arrow-fk", ""
	if e.Kind == diagram.EdgeLineage {
		color, marker, dash = r.theme.Lineage, "arrow-lineage", ` stroke-dasharray="6 3"`
	}

	coords := make([]string, len(e.Points))
	for j, p := range e.Points {
		coords[j] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	points := strings.Join(coords, " ")

	fmt.Fprintf(buf, `  <g class="edge edge-%s" id="edge-%d" data-from="%s" data-to="%s">`+"\n",
		e.Kind, i, escape(e.From.Table), escape(e.To.Table))
	fmt.Fprintf(buf, `    <title>%s</title>`+"\n", escape(tooltipText(e)))
	// Invisible wide stroke so the tooltip triggers near the line.
	fmt.Fprintf(buf, `    <polyline points="%s" fill="none" stroke="transparent" stroke-width="12"/>`+"\n", points)
	fmt.Fprintf(buf, `    <polyline class="edge-line" points="%s" fill="none" stroke="%s" stroke-width="1.5" stroke-opacity="0.6"%s marker-end="url(#%s)"/>`+"\n",
		points, color, dash, marker)
	buf.WriteString("  </g>\n")
}

func tooltipText(e diagram.Edge) string {
	s := e.Tooltip.From + " → " + e.Tooltip.To
	if e.Tooltip.Transform != "" {
		s += "\ntransform: " + e.Tooltip.Transform
	}
	if e.Tooltip.Condition != "" {
		s += "\ncondition: " + e.Tooltip.Condition
	}
	if e.Tooltip.Notes != "" {
		s += "\n" + e.Tooltip.Notes
	}
	return s
}

func (r *svgRenderer) renderTable(buf *bytes.Buffer, t diagram.TableNode) {
	fmt.Fprintf(buf, `  <g class="table" id="table-%s" transform="translate(%.1f,%.1f)">`+"\n", escape(t.ID), t.X, t.Y)
	if t.Deprecated && t.Reason != "" {
		fmt.Fprintf(buf, `    <title>deprecated: %s</title>`+"\n", escape(t.Reason))
	}

	dash := ""
	if t.Deprecated {
		dash = ` stroke-dasharray="4 3"`
	}
	fmt.Fprintf(buf, `    <rect class="table-box" width="%.1f" height="%.1f" rx="6" fill="%s" stroke="%s" stroke-width="1.5"%s/>`+"\n",
		t.Width, t.Height, r.theme.Card, r.theme.Border, dash)
	fmt.Fprintf(buf, `    <rect width="%.1f" height="%.1f" rx="6" fill="%s"/>`+"\n", t.Width, r.headerHeight, r.theme.Header)
	if t.Category != "" {
		fmt.Fprintf(buf, `    <rect width="3" height="%.1f" fill="%s"/>`+"\n", t.Height, r.theme.CategoryColor(t.Category))
	}

	decoration := ""
	nameFill := r.theme.Text
	if t.Deprecated {
		decoration = ` text-decoration="line-through"`
		nameFill = r.theme.Dim
	}
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="%.0f" font-weight="600" fill="%s" text-anchor="middle" dominant-baseline="central"%s>%s</text>`+"\n",
		t.Width/2, r.headerHeight/2, tableNameSize, nameFill, decoration, escape(t.Name))

	for i, c := range t.Columns {
		r.renderColumn(buf, c, float64(i))
	}
	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) renderColumn(buf *bytes.Buffer, c diagram.ColumnNode, row float64) {
	y := r.headerHeight + row*r.rowHeight + r.rowHeight/2

	nameFill := r.theme.Text
	weight := ""
	if c.PrimaryKey {
		nameFill = r.theme.Accent
		weight = ` font-weight="600"`
	}
	decoration := ""
	if c.Deprecated {
		nameFill = r.theme.Dim
		decoration = ` text-decoration="line-through"`
	}

	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="%.0f" font-family="monospace" dominant-baseline="central"%s%s>`,
		columnInsetX, y, columnTextSize, weight, decoration)
	if tip := columnTooltip(c); tip != "" {
		fmt.Fprintf(buf, "<title>%s</title>", escape(tip))
	}
	fmt.Fprintf(buf, `<tspan fill="%s">%s</tspan> <tspan fill="%s">%s</tspan></text>`+"\n",
		nameFill, escape(c.Name), r.theme.Dim, escape(c.Type))
}

// columnTooltip collects the lineage details shown on column hover.
func columnTooltip(c diagram.ColumnNode) string {
	var parts []string
	if c.Deprecated {
		if c.Reason != "" {
			parts = append(parts, "deprecated: "+c.Reason)
		} else {
			parts = append(parts, "deprecated")
		}
	}
	for _, target := range c.Targets {
		parts = append(parts, "→ "+target)
	}
	if c.Note != "" {
		parts = append(parts, c.Note)
	}
	return strings.Join(parts, "\n")
}

func (r *svgRenderer) renderLegend(buf *bytes.Buffer, width, y float64) {
	fmt.Fprintf(buf, `  <g class="legend" transform="translate(0,%.1f)">`+"\n", y)
	fmt.Fprintf(buf, `    <rect width="%.1f" height="%.1f" fill="%s"/>`+"\n", width, legendHeight, r.theme.Card)

	x := panelPadding
	x = r.legendLine(buf, x, r.theme.ForeignKey, "", "foreign key")
	x = r.legendLine(buf, x, r.theme.Lineage, "6 3", "lineage")
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="10" fill="%s" text-decoration="line-through" dominant-baseline="central">deprecated</text>`+"\n",
		x, legendHeight/2, r.theme.Dim)
	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) legendLine(buf *bytes.Buffer, x float64, color, dash, label string) float64 {
	d := ""
	if dash != "" {
		d = fmt.Sprintf(` stroke-dasharray=%q`, dash)
	}
	fmt.Fprintf(buf, `    <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5"%s/>`+"\n",
		x, legendHeight/2, x+24, legendHeight/2, color, d)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="10" fill="%s" dominant-baseline="central">%s</text>`+"\n",
		x+30, legendHeight/2, r.theme.Text, label)
	return x + 30 + float64(len(label))*6 + 18
}

func (r *svgRenderer) renderIssues(buf *bytes.Buffer, m *diagram.Model, y float64) {
	shown := m.Issues
	if len(shown) > maxPanelIssues {
		shown = shown[:maxPanelIssues]
	}

	fmt.Fprintf(buf, `  <g class="issues" transform="translate(0,%.1f)">`+"\n", y)
	fmt.Fprintf(buf, `    <rect width="%.1f" height="%.1f" fill="%s"/>`+"\n", m.Width, r.issuesHeight(m), r.theme.Card)

	label := fmt.Sprintf("%d issues", len(m.Issues))
	if len(m.Issues) == 1 {
		label = "1 issue"
	}
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="11" font-weight="600" fill="%s">%s</text>`+"\n",
		panelPadding, panelPadding+8, r.theme.Deprecated, label)

	rowY := panelPadding + 8 + issueRowHeight
	for _, is := range shown {
		line := is.Stage + "/" + is.Kind
		if is.Subject != "" {
			line += " " + is.Subject
		}
		line += ": " + is.Message
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="10" font-family="monospace" fill="%s">%s</text>`+"\n",
			panelPadding, rowY, r.theme.Text, escape(line))
		rowY += issueRowHeight
	}
	if rest := len(m.Issues) - len(shown); rest > 0 {
		fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-size="10" fill="%s">and %d more</text>`+"\n",
			panelPadding, rowY, r.theme.Dim, rest)
	}
	buf.WriteString("  </g>\n")
}

func (r *svgRenderer) panelHeight(m *diagram.Model) float64 {
	var h float64
	if r.legend {
		h += legendHeight
	}
	if r.issues && len(m.Issues) > 0 {
		h += r.issuesHeight(m)
	}
	return h
}

func (r *svgRenderer) issuesHeight(m *diagram.Model) float64 {
	rows := len(m.Issues)
	if rows > maxPanelIssues {
		rows = maxPanelIssues + 1 // trailing "and N more" line
	}
	return panelPadding*2 + 12 + float64(rows)*issueRowHeight
}

func renderInteraction(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", interactionCSS)
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
}
