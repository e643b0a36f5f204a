package sink

import (
	"github.com/matzehuels/schemaflow/pkg/errors"
)

// Theme holds the color palette for SVG rendering. Both themes share the
// same geometry; only colors differ.
type Theme struct {
	Name       string
	Background string
	Card       string // table body fill
	Header     string // table header fill
	Border     string
	Text       string
	Dim        string // column types, schema labels
	Accent     string // table names, primary key columns
	ForeignKey string // foreign-key edges
	Lineage    string // lineage edges
	Deprecated string // deprecation strikethrough and issue panel
}

// Light is the default theme.
var Light = Theme{
	Name:       "light",
	Background: "#ffffff",
	Card:       "#f6f8fa",
	Header:     "#eaeef2",
	Border:     "#d0d7de",
	Text:       "#1f2328",
	Dim:        "#656d76",
	Accent:     "#0969da",
	ForeignKey: "#8250df",
	Lineage:    "#1a7f37",
	Deprecated: "#cf222e",
}

// Dark is a terminal-friendly palette for dark backgrounds.
var Dark = Theme{
	Name:       "dark",
	Background: "#0d1117",
	Card:       "#161b22",
	Header:     "#21262d",
	Border:     "#30363d",
	Text:       "#e6edf3",
	Dim:        "#8b949e",
	Accent:     "#58a6ff",
	ForeignKey: "#a371f7",
	Lineage:    "#3fb950",
	Deprecated: "#f85149",
}

// ThemeByName resolves a theme from its CLI name. An empty name selects
// the light theme.
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", "light":
		return Light, nil
	case "dark":
		return Dark, nil
	}
	return Theme{}, errors.New(errors.ErrCodeInvalidStyle, "unknown style %q (valid: light, dark)", name)
}

// categoryColors assigns a fixed stripe color per table category so the
// same category reads identically in both themes.
var categoryColors = map[string]string{
	"core":    "#58a6ff",
	"logging": "#db6d28",
	"metrics": "#39c5cf",
	"auth":    "#db61a2",
	"config":  "#f85149",
	"jobs":    "#a371f7",
	"lookup":  "#d29922",
}

// CategoryColor returns the stripe color for a table category.
// Unknown categories fall back to the theme border color.
func (t Theme) CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return t.Border
}
