package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/observability"
	"github.com/matzehuels/schemaflow/pkg/render/flow"
	"github.com/matzehuels/schemaflow/pkg/render/sink"
)

// Render generates output artifacts for a model in the requested formats.
func Render(ctx context.Context, m *diagram.Model, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := renderFormats(m, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)

	return artifacts, err
}

// renderFormats produces one artifact per requested format.
func renderFormats(m *diagram.Model, opts Options) (map[string][]byte, error) {
	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = diagram.MarshalModel(m)
		case FormatSVG:
			data = sink.RenderSVG(m, svgOpts...)
		case FormatPNG:
			data, err = sink.RenderPNG(m, opts.Scale, svgOpts...)
		case FormatPDF:
			data, err = sink.RenderPDF(m, svgOpts...)
		case FormatDOT:
			data = []byte(flow.ToDOT(m, flow.Options{Columns: opts.Columns}))
		default:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// buildSVGOptions builds SVG rendering options from pipeline options.
func buildSVGOptions(opts Options) []sink.SVGOption {
	// Style is validated before rendering starts, so the lookup cannot miss.
	theme, _ := sink.ThemeByName(opts.Style)

	svgOpts := []sink.SVGOption{
		sink.WithTheme(theme),
		sink.WithMetrics(opts.Layout.HeaderHeight, opts.Layout.RowHeight),
	}
	if opts.Legend {
		svgOpts = append(svgOpts, sink.WithLegend())
	}
	if opts.Issues {
		svgOpts = append(svgOpts, sink.WithIssues())
	}
	return svgOpts
}
