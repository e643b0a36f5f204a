package flow

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/render"
)

// Edge colors, shared with the SVG sink palette.
const (
	foreignKeyColor = "#a371f7"
	lineageColor    = "#3fb950"
)

// Options configures flow graph rendering.
type Options struct {
	// Columns includes column names in node labels.
	// When false, only the table name and a column count are shown.
	Columns bool
}

// ToDOT converts the model to Graphviz DOT format for flow visualization.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF],
// or [RenderPNG].
//
// Tables are clustered by schema. Foreign keys are drawn as solid edges,
// lineage mappings as dashed ones; deprecated tables get dashed outlines
// and grey fill.
func ToDOT(m *diagram.Model, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph schemaflow {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.35;\n")

	for i, s := range m.Schemas {
		fmt.Fprintf(&buf, "\n  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", s.ID)
		buf.WriteString("    style=dashed;\n")
		buf.WriteString("    color=grey;\n")
		for _, t := range s.Tables {
			label := fmtLabel(t, opts.Columns)
			attrs := fmtAttrs(t, label)
			fmt.Fprintf(&buf, "    %q [%s];\n", t.ID, strings.Join(attrs, ", "))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, e := range m.Edges {
		attrs := []string{fmt.Sprintf("tooltip=%q", e.Tooltip.From+" -> "+e.Tooltip.To)}
		if e.Kind == diagram.EdgeLineage {
			attrs = append(attrs, "style=dashed", fmt.Sprintf("color=%q", lineageColor))
		} else {
			attrs = append(attrs, fmt.Sprintf("color=%q", foreignKeyColor))
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From.Table, e.To.Table, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(t diagram.TableNode, columns bool) string {
	if !columns {
		if n := len(t.Columns); n == 1 {
			return t.Name + "\n1 column"
		}
		return fmt.Sprintf("%s\n%d columns", t.Name, len(t.Columns))
	}

	parts := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		parts = append(parts, c.Name)
	}
	return t.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(t diagram.TableNode, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if t.Deprecated {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=grey25")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render flow graph")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg element so the drawing starts
// at the origin and the pixel size matches the viewBox.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
