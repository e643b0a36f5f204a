// Package sink provides output format renderers for migration diagrams.
//
// # Overview
//
// A "sink" transforms an assembled [diagram.Model] into a final output
// format. This package provides renderers for:
//
//   - SVG: Scalable vector graphics with interactivity
//   - PDF: Print-ready output (requires rsvg-convert)
//   - PNG: Raster image output (requires rsvg-convert)
//
// JSON output needs no renderer; the model serializes itself through
// [diagram.WriteModelFile].
//
// # SVG Output
//
// [RenderSVG] produces an interactive SVG with:
//
//   - One box per table showing its column rows
//   - Foreign keys and lineage mappings as orthogonal edges
//   - Hover highlighting of a table's edges
//   - Native tooltips carrying lineage transforms and deprecation reasons
//   - Optional legend and issue panels below the canvas
//
// Basic usage:
//
//	svg := sink.RenderSVG(model,
//	    sink.WithTheme(sink.Dark),
//	    sink.WithLegend(),
//	    sink.WithIssues(),
//	)
//
// # PDF and PNG Output
//
// [RenderPDF] and [RenderPNG] render the model as PDF/PNG by first
// generating SVG, then converting via [render.ToPDF] and [render.ToPNG].
// These require librsvg to be installed:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [diagram.Model]: github.com/matzehuels/schemaflow/pkg/diagram.Model
// [diagram.WriteModelFile]: github.com/matzehuels/schemaflow/pkg/diagram.WriteModelFile
// [render.ToPDF]: github.com/matzehuels/schemaflow/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/schemaflow/pkg/render.ToPNG
package sink
