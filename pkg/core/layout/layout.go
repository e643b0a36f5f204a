// Package layout assigns deterministic, non-overlapping positions to the
// tables of one schema.
//
// Tables connected by foreign keys form components placed along a
// golden-angle spiral around the schema origin; isolated tables are packed
// into rows below the spiral envelope. Identical input produces identical
// output: ordering is fixed by table names, the spiral step is monotonic,
// and footprints derive from parsed content alone, never from font
// metrics.
package layout

import (
	"fmt"
	"sort"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
)

// Config holds the layout tuning knobs. The zero value is unusable; start
// from [DefaultConfig].
type Config struct {
	// OriginX and OriginY anchor the first schema's spiral.
	OriginX float64
	OriginY float64

	// SchemaSpacing is the vertical offset between consecutive schema
	// regions.
	SchemaSpacing float64

	// StartRadius and RadiusGrowth shape the spiral: candidate k sits at
	// radius StartRadius + k*RadiusGrowth from the origin.
	StartRadius  float64
	RadiusGrowth float64

	// MaxAttempts bounds the collision search per node.
	MaxAttempts int

	// Gap is the minimum clearance between any two boxes in a schema.
	Gap float64

	// RowWidth caps the width of one row of isolated tables.
	RowWidth float64

	// RegionGap separates the spiral envelope from the row region.
	RegionGap float64

	// FallbackOffset is the cumulative horizontal shift applied to nodes
	// placed by the fallback strategy.
	FallbackOffset float64

	// CharWidth, PadX, MinWidth, and MaxWidth size a table box from its
	// longest label.
	CharWidth float64
	PadX      float64
	MinWidth  float64
	MaxWidth  float64

	// HeaderHeight and RowHeight size a table box from its column count.
	HeaderHeight float64
	RowHeight    float64
}

// DefaultConfig returns the standard layout configuration.
func DefaultConfig() Config {
	return Config{
		OriginX:        800,
		OriginY:        350,
		SchemaSpacing:  1000,
		StartRadius:    150,
		RadiusGrowth:   6,
		MaxAttempts:    100,
		Gap:            35,
		RowWidth:       1200,
		RegionGap:      80,
		FallbackOffset: 25,
		CharWidth:      7,
		PadX:           24,
		MinWidth:       95,
		MaxWidth:       240,
		HeaderHeight:   28,
		RowHeight:      16,
	}
}

// Node is one positioned table.
type Node struct {
	Table *schema.Table
	Box   Box

	// Fallback marks a node placed by the overflow strategy after the
	// spiral search ran out of attempts.
	Fallback bool
}

// Issue records a layout problem for one node. Issues are collected, never
// returned as errors; the affected node is still placed.
type Issue struct {
	Table   string
	Message string
}

// Layout positions all tables of one schema. The schema index shifts the
// origin vertically so schemas never collide with each other. Returned
// nodes are ordered by table name.
func Layout(tables []*schema.Table, fks []*schema.ForeignKey, schemaIndex int, cfg Config) ([]*Node, []Issue) {
	if len(tables) == 0 {
		return nil, nil
	}
	originY := cfg.OriginY + float64(schemaIndex)*cfg.SchemaSpacing
	sp := newSpiral(cfg.OriginX, originY, cfg)
	adj := adjacency(tables, fks)

	var nodes []*Node
	var issues []Issue
	var isolated []*schema.Table

	for _, comp := range components(tables, fks) {
		if len(comp) == 1 {
			isolated = append(isolated, comp[0])
			continue
		}
		for _, t := range placementOrder(comp, adj) {
			w, h := Footprint(t, cfg)
			node, ok := sp.place(t, w, h)
			if !ok {
				issues = append(issues, Issue{
					Table:   t.ID(),
					Message: fmt.Sprintf("no free slot within %d spiral attempts, stacked below the layout", cfg.MaxAttempts),
				})
			}
			nodes = append(nodes, node)
		}
	}

	nodes = append(nodes, packRows(isolated, sp.envelope(), cfg)...)

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Table.Name < nodes[j].Table.Name })
	return nodes, issues
}
