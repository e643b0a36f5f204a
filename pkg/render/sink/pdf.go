package sink

import (
	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/render"
)

// RenderPDF renders the model as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(m *diagram.Model, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(RenderSVG(m, opts...))
}
