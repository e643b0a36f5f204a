package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/schemaflow/pkg/core/layout"
	"github.com/matzehuels/schemaflow/pkg/core/lineage"
	"github.com/matzehuels/schemaflow/pkg/core/route"
	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/manifest"
	"github.com/matzehuels/schemaflow/pkg/observability"
)

// ResolveLineage merges the manifest and annotation hints over the parsed
// tables into a lineage graph. Unmapped columns, conflicts, and orphaned
// references come back as issues alongside the graph.
func ResolveLineage(ctx context.Context, parsed *ParseResult, opts Options) (*lineage.Graph, []diagram.Issue, error) {
	m, err := readManifest(opts)
	if err != nil {
		return nil, nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnResolveStart(ctx, len(parsed.Source))
	start := time.Now()

	g, issues := lineage.Resolve(parsed.Source, parsed.Targets, m)
	hooks.OnResolveComplete(ctx, len(g.Mappings), len(issues), time.Since(start))

	return g, diagram.FromResolveIssues(issues), nil
}

// readManifest loads the field-mapping manifest. Inline content wins over a
// path; with neither, resolution runs on annotation hints alone.
func readManifest(opts Options) (*manifest.Manifest, error) {
	if opts.Manifest != "" {
		return manifest.Unmarshal([]byte(opts.Manifest))
	}
	if opts.ManifestPath != "" {
		return manifest.ReadFile(opts.ManifestPath)
	}
	return manifest.New(), nil
}

// BuildModel positions every schema's tables, applies position overrides,
// routes edges against the final boxes, and assembles the diagram model.
// The issues argument carries parse and resolve issues forward; layout adds
// its own placement issues per schema.
func BuildModel(ctx context.Context, parsed *ParseResult, g *lineage.Graph, issues []diagram.Issue, opts Options) (*diagram.Model, error) {
	opts.SetLayoutDefaults()

	var overrides *diagram.Overrides
	if opts.OverridesPath != "" {
		var err error
		overrides, err = diagram.ReadOverridesFile(opts.OverridesPath)
		if err != nil {
			return nil, err
		}
	}

	hooks := observability.Pipeline()
	nodesBySchema := make([][]*layout.Node, len(parsed.Order))
	issuesBySchema := make([][]layout.Issue, len(parsed.Order))

	eg, egctx := errgroup.WithContext(ctx)
	for i, schemaID := range parsed.Order {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			tables := parsed.Tables(schemaID)
			hooks.OnLayoutStart(egctx, schemaID, len(tables))
			start := time.Now()

			nodes, layoutIssues := layout.Layout(tables, g.ForeignKeys[schemaID], i, opts.Layout)
			hooks.OnLayoutComplete(egctx, schemaID, countFallbacks(nodes), time.Since(start))

			nodesBySchema[i] = nodes
			issuesBySchema[i] = layoutIssues
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Overrides move tables after layout and before routing, so edge
	// anchors always land on the final positions.
	var all []*layout.Node
	for _, nodes := range nodesBySchema {
		all = append(all, nodes...)
	}
	if unknown := overrides.Apply(all); len(unknown) > 0 {
		opts.Logger.Warn("overrides for unknown tables ignored", "tables", unknown)
	}

	schemas := make([]diagram.SchemaLayout, 0, len(parsed.Order))
	boxes := make(map[string]layout.Box, len(all))
	for i, schemaID := range parsed.Order {
		schemas = append(schemas, diagram.BuildSchema(schemaID, i, nodesBySchema[i], g))
		for _, n := range nodesBySchema[i] {
			boxes[n.Table.ID()] = n.Box
		}
		issues = append(issues, diagram.FromLayoutIssues(issuesBySchema[i])...)
	}

	edges := diagram.FromRouted(route.Route(edgeRequests(g, parsed.Order), boxes))

	return diagram.Assemble(schemas, edges, issues), nil
}

// edgeRequests builds routing requests for every foreign key and lineage
// mapping in the graph. Foreign keys come first, schema by schema in input
// order, then lineage mappings in resolution order.
func edgeRequests(g *lineage.Graph, order []string) []route.Request {
	var reqs []route.Request
	for _, schemaID := range order {
		for _, fk := range g.ForeignKeys[schemaID] {
			reqs = append(reqs, route.Request{
				Kind: route.KindForeignKey,
				From: route.Endpoint{
					Table:  schemaID + "." + fk.FromTable,
					Column: fk.FromColumn,
				},
				To: route.Endpoint{
					Table:  schemaID + "." + fk.ToTable,
					Column: fk.ToColumn,
				},
			})
		}
	}
	for _, m := range g.Mappings {
		for _, t := range m.Targets {
			reqs = append(reqs, route.Request{
				Kind:      route.KindLineage,
				From:      route.Endpoint{Table: m.Source.TableID(), Column: m.Source.Column},
				To:        route.Endpoint{Table: t.To.TableID(), Column: t.To.Column},
				Transform: t.Transform,
				Condition: t.Condition,
				Notes:     lineageNotes(m, t),
			})
		}
	}
	return reqs
}

// lineageNotes picks the tooltip note for one mapping edge. A note on the
// specific target wins over the mapping-level note.
func lineageNotes(m lineage.Mapping, t lineage.Target) string {
	if t.Notes != "" {
		return t.Notes
	}
	return m.Notes
}

func countFallbacks(nodes []*layout.Node) int {
	n := 0
	for _, node := range nodes {
		if node.Fallback {
			n++
		}
	}
	return n
}
