// Package flow renders table-level lineage graphs using Graphviz.
//
// The flow view condenses the diagram model: one node per table instead of
// full column rows, clustered by schema. It is useful for large migrations
// where the spatial diagram becomes hard to scan.
//
// [ToDOT] emits Graphviz DOT; [RenderSVG] rasterizes it through the
// embedded Graphviz library. PDF and PNG conversion additionally requires
// librsvg (rsvg-convert).
package flow
