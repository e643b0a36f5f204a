// Package lineage resolves column-level migration lineage across schemas.
//
// The resolver merges three inputs: the parsed source schema, the parsed
// target schemas, and the field-mapping manifest. Manifest-declared targets
// always win; columns without a manifest entry fall back to Source:
// annotations found on target-schema columns; everything else is reported
// as an issue. Resolution never fails: the graph and the issue list are
// both always returned, and the caller decides what to do with a noisy
// result.
package lineage

import "github.com/matzehuels/schemaflow/pkg/core/schema"

// ColumnRef identifies a column in a specific schema.
type ColumnRef struct {
	Schema string
	Table  string
	Column string
}

// ID returns the stable column identifier: "<schema>.<table>.<column>".
func (r ColumnRef) ID() string {
	return r.Schema + "." + r.Table + "." + r.Column
}

// TableID returns the stable table identifier: "<schema>.<table>".
func (r ColumnRef) TableID() string {
	return r.Schema + "." + r.Table
}

// Origin says where a mapping's targets were declared.
type Origin int

const (
	// OriginManifest marks targets declared in the mapping manifest.
	OriginManifest Origin = iota

	// OriginHint marks targets derived from Source: annotations on
	// target-schema columns, used only when the manifest is silent.
	OriginHint
)

// String returns the origin name for tooltips and logs.
func (o Origin) String() string {
	if o == OriginHint {
		return "annotation"
	}
	return "manifest"
}

// Mapping is the resolved lineage of one source column.
type Mapping struct {
	// Source is the source column.
	Source ColumnRef

	// Targets is the ordered, validated list of destinations. Always
	// non-empty; columns that resolve to nothing are reported as issues
	// instead of appearing here.
	Targets []Target

	// Origin says whether the targets came from the manifest or from
	// annotation hints.
	Origin Origin

	// Notes carries manifest notes plus any advisory notes attached
	// during resolution (disagreeing hints and the like).
	Notes string
}

// Target is one resolved migration destination.
type Target struct {
	To        ColumnRef
	Transform string
	Condition string
	Notes     string
}

// Graph is the resolved lineage for a full schema set.
type Graph struct {
	// Mappings holds one entry per source column with at least one valid
	// target, in source declaration order.
	Mappings []Mapping

	// ForeignKeys holds the validated foreign keys per schema identifier.
	// Keys whose endpoints did not resolve are dropped with an issue.
	ForeignKeys map[string][]*schema.ForeignKey

	// DeprecatedTables maps stable table identifiers to deprecation
	// reasons, possibly empty.
	DeprecatedTables map[string]string

	// DeprecatedColumns maps stable column identifiers to deprecation
	// reasons, possibly empty.
	DeprecatedColumns map[string]string
}

// MappingFor returns the mapping for a source column identifier.
func (g *Graph) MappingFor(sourceID string) (Mapping, bool) {
	for _, m := range g.Mappings {
		if m.Source.ID() == sourceID {
			return m, true
		}
	}
	return Mapping{}, false
}

// IssueKind classifies validation issues.
type IssueKind int

const (
	// IssueUnmapped flags a non-deprecated source column with no resolved
	// target.
	IssueUnmapped IssueKind = iota

	// IssueConflict flags contradictory declarations: several source
	// columns claiming one target, a hint disagreeing with the manifest,
	// or a deprecated column that still declares targets.
	IssueConflict

	// IssueOrphanForeignKey flags a foreign key whose endpoint does not
	// exist in its schema.
	IssueOrphanForeignKey

	// IssueUnknownTarget flags a manifest target whose schema, table, or
	// column does not exist.
	IssueUnknownTarget
)

// String returns the kind name used in reports and serialized output.
func (k IssueKind) String() string {
	switch k {
	case IssueUnmapped:
		return "unmapped"
	case IssueConflict:
		return "conflict"
	case IssueOrphanForeignKey:
		return "orphan-foreign-key"
	case IssueUnknownTarget:
		return "unknown-target"
	default:
		return "unknown"
	}
}

// Issue is one validation finding. Issues are collected, never returned as
// errors; a resolve call always produces a usable graph.
type Issue struct {
	// Kind classifies the finding.
	Kind IssueKind

	// Subject is the stable identifier of the offending entity, usually a
	// source column.
	Subject string

	// Message describes the finding.
	Message string
}
