package diagram

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/schemaflow/pkg/core/layout"
	"github.com/matzehuels/schemaflow/pkg/errors"
)

// =============================================================================
// Position Overrides
// =============================================================================

// Overrides are user-pinned table positions, keyed by stable table
// identifier so they survive re-layout:
//
//	[tables."tenant.accounts"]
//	x = 420.5
//	y = 96
//
// The pipeline applies overrides between layout and routing, so edge
// anchors always match the final positions.
type Overrides struct {
	Tables map[string]Position `toml:"tables"`
}

// Position is an overridden top-left corner.
type Position struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
}

// ReadOverridesFile reads position overrides from a TOML file.
func ReadOverridesFile(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read overrides %s", path)
	}
	var o Overrides
	if err := toml.Unmarshal(data, &o); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOverrides, err, "parse overrides %s", path)
	}
	return &o, nil
}

// Apply moves matching nodes to their overridden positions and returns the
// override identifiers that matched no node, sorted, so the caller can
// log them.
func (o *Overrides) Apply(nodes []*layout.Node) []string {
	if o == nil || len(o.Tables) == 0 {
		return nil
	}
	byID := make(map[string]*layout.Node, len(nodes))
	for _, n := range nodes {
		byID[n.Table.ID()] = n
	}
	var unknown []string
	for id, pos := range o.Tables {
		n, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		n.Box.X = pos.X
		n.Box.Y = pos.Y
	}
	sort.Strings(unknown)
	return unknown
}
