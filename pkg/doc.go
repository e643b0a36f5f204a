// Package pkg provides the core libraries for Schemaflow migration diagrams.
//
// # Overview
//
// Schemaflow turns the schemas of a database migration into annotated
// entity-relationship diagrams: the legacy source schema, the target schemas
// it is being split into, and the field-level lineage connecting them. The
// pkg directory is organized into four main areas:
//
//  1. [core] - Domain logic (schema model, lineage resolution, layout, routing)
//  2. [sqlparse] - Dialect-aware DDL parsing (MySQL, Postgres)
//  3. [render] - Output generation (SVG, PDF, PNG, DOT)
//  4. [pipeline] - Orchestration (parse → resolve → build → render)
//
// # Architecture
//
// The typical data flow through Schemaflow:
//
//	CREATE TABLE scripts + field-mapping manifest
//	         ↓
//	    [sqlparse] package (DDL → schema tables)
//	         ↓
//	    [core/lineage] package (manifest + hints → lineage graph)
//	         ↓
//	    [core/layout] and [core/route] packages (positions + edge paths)
//	         ↓
//	    [render] package (SVG/PDF/PNG/DOT output)
//
// Problems found along the way are collected as issues on the model, never
// returned as errors. The one fatal condition is a source schema that yields
// no tables at all.
//
// # Quick Start
//
// Run the whole pipeline through a [pipeline.Runner]:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/schemaflow/pkg/cache"
//	    "github.com/matzehuels/schemaflow/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	defer runner.Close()
//
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Source:       pipeline.SchemaInput{ID: "legacy", Path: "schemas/legacy.sql"},
//	    Targets:      []pipeline.SchemaInput{{ID: "tenant", Path: "schemas/tenant.sql"}},
//	    ManifestPath: "field-mappings.json",
//	    Formats:      []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/schema] - The parsed schema model: tables, columns, foreign keys,
// comment annotations ('Source: table.column', 'Category: name'), and the
// keyword heuristics that sort tables into categories.
//
// [core/lineage] - Lineage resolution. Merges the field-mapping manifest
// with annotation hints and deprecation lists into a column-level lineage
// graph, collecting unmapped, conflict, orphan-foreign-key, and
// unknown-target issues along the way.
//
// [core/layout] - Deterministic table placement. Foreign-key components
// spiral around each schema origin; isolated tables pack into rows below.
// Identical input produces identical output.
//
// [core/route] - Orthogonal edge routing between placed tables for
// foreign-key and lineage edges.
//
// ## Parsing
//
// [sqlparse] - Hand-rolled lexer and recursive-descent parser for CREATE
// TABLE scripts. Dialect quirks (quoting, comment syntax) are isolated in a
// small dialect table; everything it cannot understand becomes a parse
// issue, not an error.
//
// ## Data Formats
//
// [manifest] - The field-mapping manifest (JSON): per-column targets with
// optional SQL transforms, deprecation lists, and project metadata. Reads
// both current and legacy wire forms, writes canonical sorted output.
//
// [diagram] - The assembled diagram model shared by every renderer, plus
// TOML position overrides and the issue taxonomy.
//
// ## Rendering
//
// [render/sink] - Native SVG renderer with light and dark themes, an
// optional edge legend, and an optional issue panel.
//
// [render/flow] - Graphviz-based DOT output for table-level flow diagrams,
// rasterized to SVG through the embedded Graphviz engine.
//
// [render] - Top-level conversion helpers (SVG to PDF/PNG).
//
// ## Infrastructure
//
// [pipeline] - Complete diagram pipeline (parse → resolve → build → render)
// used by the CLI and the local diagram server. Ensures consistent behavior
// across all entry points.
//
// [cache] - Content-addressed file cache for models and rendered artifacts,
// with pluggable key derivation.
//
// [errors] - Coded errors with user-facing messages.
//
// [observability] - No-op instrumentation hooks the embedding application
// can replace.
//
// # Common Workflows
//
// Parse a schema without the pipeline:
//
//	tables, issues := sqlparse.Parse("legacy", ddl)
//
// Resolve lineage from parsed tables:
//
//	m, _ := manifest.ReadFile("field-mappings.json")
//	g, issues := lineage.Resolve(source, targets, m)
//
// Render a model with a custom theme:
//
//	svg := sink.RenderSVG(model, sink.WithTheme(sink.Dark), sink.WithLegend())
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/core/lineage/...    # Specific package
//	go test -run Example              # Examples only
//
// [core]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/core
// [core/schema]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/core/schema
// [core/lineage]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/core/lineage
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/core/layout
// [core/route]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/core/route
// [sqlparse]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/sqlparse
// [manifest]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/manifest
// [diagram]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/diagram
// [render]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/render
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/render/sink
// [render/flow]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/render/flow
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/schemaflow/pkg/observability
package pkg
