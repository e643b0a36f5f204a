package layout

import (
	"sort"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
)

// packRows places isolated tables in left-to-right rows below the spiral
// envelope, wrapping when the next box would cross the configured row
// width. The row region starts a full region gap below the envelope, so
// connected and isolated tables never interleave.
func packRows(tables []*schema.Table, envelope Box, cfg Config) []*Node {
	if len(tables) == 0 {
		return nil
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	left := envelope.X
	x := left
	y := envelope.Bottom() + cfg.RegionGap
	rowHeight := 0.0

	nodes := make([]*Node, 0, len(tables))
	for _, t := range tables {
		w, h := Footprint(t, cfg)
		if x > left && x+w > left+cfg.RowWidth {
			x = left
			y += rowHeight + cfg.Gap
			rowHeight = 0
		}
		nodes = append(nodes, &Node{Table: t, Box: Box{X: x, Y: y, W: w, H: h}})
		x += w + cfg.Gap
		if h > rowHeight {
			rowHeight = h
		}
	}
	return nodes
}
