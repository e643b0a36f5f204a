package sink

import (
	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/render"
)

// RenderPNG renders the model as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(m *diagram.Model, scale float64, opts ...SVGOption) ([]byte, error) {
	return render.ToPNG(RenderSVG(m, opts...), scale)
}
