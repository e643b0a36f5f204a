// Package pipeline provides the core diagram pipeline for Schemaflow.
//
// This package implements the complete parse → resolve → build → render
// pipeline used by the CLI and the local diagram server. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Parse: Read the source and target schema definitions into tables
//  2. Resolve: Merge the manifest and annotation hints into the lineage graph
//  3. Build: Position tables, apply overrides, route edges, assemble the model
//  4. Render: Generate output in various formats (SVG, PNG, PDF, DOT, JSON)
//
// Problems found along the way (unsupported statements, unmapped columns,
// placement collisions) are collected into the model's issue list, never
// returned as errors. The one fatal parse condition is a source schema that
// yields no tables at all.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:       pipeline.SchemaInput{ID: "legacy", Path: "schemas/legacy.sql"},
//	    Targets:      []pipeline.SchemaInput{{ID: "tenant", Path: "schemas/tenant.sql"}},
//	    ManifestPath: "field-mappings.json",
//	    Formats:      []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Parse and resolve only (what `schemaflow validate` does)
//	parsed, err := pipeline.ParseSchemas(ctx, opts)
//	g, issues, err := pipeline.ResolveLineage(ctx, parsed, opts)
//
//	// Assemble the model with an existing lineage graph
//	model, err := pipeline.BuildModel(ctx, parsed, g, issues, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemaflow/pkg/cache"
	"github.com/matzehuels/schemaflow/pkg/core/layout"
	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/sqlparse"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
)

const (
	// DefaultStyle is the default visual style.
	DefaultStyle = "light"

	// DefaultScale is the default PNG export scale factor.
	DefaultScale = 2.0
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
}

// ValidStyles is the set of supported visual styles.
var ValidStyles = map[string]bool{
	"light": true,
	"dark":  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// SchemaInput identifies one schema definition to parse. Exactly one of
// Path and Text should be set; Text wins when both are.
type SchemaInput struct {
	// ID is the schema identifier ("legacy", "tenant"). It prefixes every
	// stable table and column identifier derived from this schema.
	ID string `json:"id"`

	// Path is the schema definition file to read.
	Path string `json:"path,omitempty"`

	// Text is the inline schema definition.
	Text string `json:"text,omitempty"`

	// Dialect forces a parser dialect ("mysql", "postgres"). Empty means
	// detect from the text.
	Dialect string `json:"dialect,omitempty"`
}

// Options contains all configuration for the diagram pipeline.
// This struct supports JSON serialization for the local server.
type Options struct {
	// Parse options
	Source  SchemaInput   `json:"source"`
	Targets []SchemaInput `json:"targets,omitempty"`

	// Manifest is inline field-mapping JSON; ManifestPath reads it from a
	// file instead. Inline content wins when both are set. With neither,
	// resolution runs on annotation hints alone.
	Manifest     string `json:"manifest,omitempty"`
	ManifestPath string `json:"manifest_path,omitempty"`

	// OverridesPath points at the TOML position overrides, applied between
	// layout and routing.
	OverridesPath string `json:"overrides_path,omitempty"`

	// Layout tunes table placement. The zero value means layout.DefaultConfig.
	Layout layout.Config `json:"layout,omitempty"`

	// Refresh bypasses cache reads. Results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Style   string   `json:"style,omitempty"`
	Scale   float64  `json:"scale,omitempty"`   // PNG export scale
	Legend  bool     `json:"legend,omitempty"`  // edge-kind legend panel in the SVG
	Issues  bool     `json:"issues,omitempty"`  // issue panel in the SVG
	Columns bool     `json:"columns,omitempty"` // column lists in DOT output

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Model is the assembled diagram model.
	Model *diagram.Model

	// ModelHash is the content hash of the serialized model.
	ModelHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	TableCount int
	EdgeCount  int
	IssueCount int
	ModelTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each cached pipeline stage.
type CacheInfo struct {
	ModelHit  bool // Whether the assembled model came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, svg, png, pdf, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !ValidStyles[style] {
		return errors.New(errors.ErrCodeInvalidStyle,
			"invalid style: %q (must be one of: light, dark)", style)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// Inputs returns all schema inputs, source first, in declaration order.
// An input's position here is its schema index during layout.
func (o *Options) Inputs() []SchemaInput {
	inputs := make([]SchemaInput, 0, 1+len(o.Targets))
	inputs = append(inputs, o.Source)
	inputs = append(inputs, o.Targets...)
	return inputs
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for parsing.
func (o *Options) ValidateForParse() error {
	if o.Source.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source schema id is required")
	}
	seen := map[string]bool{o.Source.ID: true}
	for _, t := range o.Targets {
		if t.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "target schema id is required")
		}
		if seen[t.ID] {
			return errors.New(errors.ErrCodeInvalidSchema, "duplicate schema id %q", t.ID)
		}
		seen[t.ID] = true
	}
	for _, in := range o.Inputs() {
		if in.Path == "" && in.Text == "" {
			return errors.New(errors.ErrCodeInvalidInput, "schema %q needs a path or inline text", in.ID)
		}
		if in.Dialect != "" {
			if _, err := sqlparse.LookupDialect(in.Dialect); err != nil {
				return err
			}
		}
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// SetLayoutDefaults fills in the standard placement configuration when none
// was provided.
func (o *Options) SetLayoutDefaults() {
	if o.Layout == (layout.Config{}) {
		o.Layout = layout.DefaultConfig()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// ModelKeyOpts returns cache key options for the assembled model.
func (o *Options) ModelKeyOpts() cache.ModelKeyOpts {
	return cache.ModelKeyOpts{
		Dialect: o.Source.Dialect,
		Layout:  cache.HashJSON(o.Layout),
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:  format,
		Style:   o.Style,
		Scale:   o.Scale,
		Legend:  o.Legend,
		Issues:  o.Issues,
		Columns: o.Columns,
	}
}
