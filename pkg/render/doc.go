// Package render provides output rendering for migration diagrams.
//
// # Overview
//
// This package contains the rendering layer that turns assembled diagram
// models into deliverable artifacts. It provides:
//
//   - Generic format conversion (SVG to PDF/PNG)
//   - Annotated schema diagrams (in [sink] subpackage)
//   - Condensed lineage flow graphs (in [flow] subpackage)
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). They are used for both
// diagram and flow outputs.
//
//	svg := sink.RenderSVG(model, sink.WithTheme(sink.Dark))
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Schema Diagrams
//
// The [sink] subpackage renders the diagram model as an SVG: one box per
// table with its column rows, foreign keys and lineage mappings drawn as
// orthogonal edges, deprecations struck through, and optional legend and
// issue panels below the canvas.
//
// # Lineage Flow Graphs
//
// The [flow] subpackage renders a table-level view using Graphviz. Tables
// appear as boxes clustered by schema, connected by foreign-key and
// lineage arrows.
//
//	dot := flow.ToDOT(model, flow.Options{})
//	svg, err := flow.RenderSVG(dot)
//
// [sink]: github.com/matzehuels/schemaflow/pkg/render/sink
// [flow]: github.com/matzehuels/schemaflow/pkg/render/flow
package render
