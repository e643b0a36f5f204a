package lineage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
	"github.com/matzehuels/schemaflow/pkg/manifest"
)

// Resolve merges the source schema, the target schemas, and the mapping
// manifest into a lineage graph. Targets are keyed by schema identifier.
// A nil manifest is treated as empty.
//
// Manifest declarations take precedence over annotation hints. A hint that
// disagrees with the manifest is kept as an advisory note on the mapping
// and reported as a conflict, never silently dropped. Deprecated tables and
// columns are excluded from coverage checks, with their reasons carried
// through to the graph.
func Resolve(source []*schema.Table, targets map[string][]*schema.Table, m *manifest.Manifest) (*Graph, []Issue) {
	if m == nil {
		m = manifest.New()
	}
	r := &resolver{
		source:  source,
		targets: targets,
		m:       m,
		graph: &Graph{
			ForeignKeys:       make(map[string][]*schema.ForeignKey),
			DeprecatedTables:  make(map[string]string),
			DeprecatedColumns: make(map[string]string),
		},
	}
	r.buildIndexes()
	for _, tbl := range source {
		r.resolveTable(tbl)
	}
	r.detectConflicts()
	r.validateForeignKeys()
	return r.graph, r.issues
}

type resolver struct {
	source  []*schema.Table
	targets map[string][]*schema.Table
	m       *manifest.Manifest

	// schemaIDs is the sorted list of target schema identifiers.
	schemaIDs []string

	// index resolves schema ID and table name to the parsed table.
	index map[string]map[string]*schema.Table

	// hints maps "<table>.<column>" of a claimed source column to the
	// target columns whose annotations claim it.
	hints map[string][]ColumnRef

	graph  *Graph
	issues []Issue
}

func (r *resolver) addIssue(kind IssueKind, subject, message string) {
	r.issues = append(r.issues, Issue{Kind: kind, Subject: subject, Message: message})
}

// buildIndexes walks the target schemas once, building the table index and
// the reverse hint index. Schema identifiers are sorted so hint ordering is
// deterministic regardless of map iteration order.
func (r *resolver) buildIndexes() {
	r.index = make(map[string]map[string]*schema.Table)
	r.hints = make(map[string][]ColumnRef)
	for id := range r.targets {
		r.schemaIDs = append(r.schemaIDs, id)
	}
	sort.Strings(r.schemaIDs)

	for _, id := range r.schemaIDs {
		byName := make(map[string]*schema.Table)
		for _, tbl := range r.targets[id] {
			byName[tbl.Name] = tbl
			for _, col := range tbl.Columns {
				a := col.Annotation
				if a.Kind != schema.AnnotationSourceHint {
					continue
				}
				key := a.Table + "." + a.Column
				r.hints[key] = append(r.hints[key], ColumnRef{
					Schema: id,
					Table:  tbl.Name,
					Column: col.Name,
				})
			}
		}
		r.index[id] = byName
	}
}

func (r *resolver) resolveTable(tbl *schema.Table) {
	if reason, ok := r.m.TableDeprecation(tbl.Name); ok {
		r.graph.DeprecatedTables[tbl.ID()] = reason
		r.flagDeprecatedMappings(tbl)
		return
	}
	for _, col := range tbl.Columns {
		r.resolveColumn(tbl, col)
	}
}

// flagDeprecatedMappings reports manifest entries that still declare
// targets for a table retired via the deprecation list.
func (r *resolver) flagDeprecatedMappings(tbl *schema.Table) {
	cols := r.m.Tables[tbl.Name]
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if len(cols[name].Targets) == 0 {
			continue
		}
		r.addIssue(IssueConflict, tbl.ColumnID(name),
			fmt.Sprintf("table %s is deprecated but %s still declares migration targets", tbl.Name, name))
	}
}

func (r *resolver) resolveColumn(tbl *schema.Table, col *schema.Column) {
	id := tbl.ColumnID(col.Name)
	key := tbl.Name + "." + col.Name

	if reason, ok := r.m.ColumnDeprecation(tbl.Name, col.Name); ok {
		r.graph.DeprecatedColumns[id] = reason
		if mp, declared := r.m.MappingFor(tbl.Name, col.Name); declared && len(mp.Targets) > 0 {
			r.addIssue(IssueConflict, id,
				fmt.Sprintf("column %s is deprecated but declares %d migration targets", key, len(mp.Targets)))
		}
		return
	}

	mp, declared := r.m.MappingFor(tbl.Name, col.Name)
	if declared && len(mp.Targets) > 0 {
		resolved := r.validateTargets(id, mp.Targets)
		notes := mp.Notes
		for _, hint := range r.hints[key] {
			if targetDeclared(mp.Targets, hint) {
				continue
			}
			r.addIssue(IssueConflict, id,
				fmt.Sprintf("annotation on %s claims lineage from %s, which the manifest maps elsewhere", hint.ID(), key))
			notes = appendNote(notes, "disagreeing hint: "+hint.ID())
		}
		if len(resolved) == 0 {
			r.addIssue(IssueUnmapped, id,
				fmt.Sprintf("column %s has no valid migration target", key))
			return
		}
		r.graph.Mappings = append(r.graph.Mappings, Mapping{
			Source:  ColumnRef{Schema: tbl.Schema, Table: tbl.Name, Column: col.Name},
			Targets: resolved,
			Origin:  OriginManifest,
			Notes:   notes,
		})
		return
	}

	if hints := r.hints[key]; len(hints) > 0 {
		targets := make([]Target, len(hints))
		for i, hint := range hints {
			targets[i] = Target{To: hint}
		}
		r.graph.Mappings = append(r.graph.Mappings, Mapping{
			Source:  ColumnRef{Schema: tbl.Schema, Table: tbl.Name, Column: col.Name},
			Targets: targets,
			Origin:  OriginHint,
			Notes:   mp.Notes,
		})
		return
	}

	r.addIssue(IssueUnmapped, id,
		fmt.Sprintf("column %s is not mapped, deprecated, or claimed by any annotation", key))
}

// validateTargets checks each declared target against the parsed target
// schemas. Invalid targets are dropped individually with an issue; the
// remaining targets are unaffected.
func (r *resolver) validateTargets(sourceID string, declared []manifest.Target) []Target {
	var out []Target
	for _, t := range declared {
		schemaID := t.Schema
		if schemaID == "" {
			// Legacy single-target entries omit the schema. That is only
			// unambiguous when exactly one target schema is configured.
			if len(r.schemaIDs) != 1 {
				r.addIssue(IssueUnknownTarget, sourceID,
					fmt.Sprintf("target %s.%s names no schema and %d target schemas are configured", t.Table, t.Column, len(r.schemaIDs)))
				continue
			}
			schemaID = r.schemaIDs[0]
		}
		byName, ok := r.index[schemaID]
		if !ok {
			r.addIssue(IssueUnknownTarget, sourceID,
				fmt.Sprintf("unknown target schema %q for %s.%s", schemaID, t.Table, t.Column))
			continue
		}
		tbl, ok := byName[t.Table]
		if !ok {
			r.addIssue(IssueUnknownTarget, sourceID,
				fmt.Sprintf("unknown table %s in target schema %s", t.Table, schemaID))
			continue
		}
		if tbl.Column(t.Column) == nil {
			r.addIssue(IssueUnknownTarget, sourceID,
				fmt.Sprintf("unknown column %s.%s in target schema %s", t.Table, t.Column, schemaID))
			continue
		}
		out = append(out, Target{
			To:        ColumnRef{Schema: schemaID, Table: t.Table, Column: t.Column},
			Transform: t.Transform,
			Condition: t.Condition,
			Notes:     t.Notes,
		})
	}
	return out
}

// detectConflicts reports every target column claimed by more than one
// source column. All claimants are flagged and all targets are kept, so
// the diagram shows the collision instead of hiding it.
func (r *resolver) detectConflicts() {
	claims := make(map[string][]string)
	for _, mp := range r.graph.Mappings {
		src := mp.Source.ID()
		for _, t := range mp.Targets {
			id := t.To.ID()
			if !containsString(claims[id], src) {
				claims[id] = append(claims[id], src)
			}
		}
	}
	ids := make([]string, 0, len(claims))
	for id := range claims {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		sources := claims[id]
		if len(sources) < 2 {
			continue
		}
		for _, src := range sources {
			r.addIssue(IssueConflict, src,
				fmt.Sprintf("target %s is claimed by %s", id, strings.Join(sources, ", ")))
		}
	}
}

// validateForeignKeys checks every schema's foreign keys against its own
// tables. Valid keys go into the graph; dangling ones are dropped with an
// issue so later stages never chase a missing endpoint.
func (r *resolver) validateForeignKeys() {
	if len(r.source) > 0 {
		r.validateSchemaKeys(r.source[0].Schema, r.source)
	}
	for _, id := range r.schemaIDs {
		r.validateSchemaKeys(id, r.targets[id])
	}
}

func (r *resolver) validateSchemaKeys(schemaID string, tables []*schema.Table) {
	byName := make(map[string]*schema.Table, len(tables))
	for _, tbl := range tables {
		byName[tbl.Name] = tbl
	}
	for _, tbl := range tables {
		for _, fk := range tbl.ForeignKeys {
			subject := tbl.ColumnID(fk.FromColumn)
			if tbl.Column(fk.FromColumn) == nil {
				r.addIssue(IssueOrphanForeignKey, subject,
					fmt.Sprintf("foreign key %s references undeclared column %s.%s", fkName(fk), tbl.Name, fk.FromColumn))
				continue
			}
			target, ok := byName[fk.ToTable]
			if !ok {
				r.addIssue(IssueOrphanForeignKey, subject,
					fmt.Sprintf("foreign key %s points at unknown table %s", fkName(fk), fk.ToTable))
				continue
			}
			if target.Column(fk.ToColumn) == nil {
				r.addIssue(IssueOrphanForeignKey, subject,
					fmt.Sprintf("foreign key %s points at unknown column %s.%s", fkName(fk), fk.ToTable, fk.ToColumn))
				continue
			}
			r.graph.ForeignKeys[schemaID] = append(r.graph.ForeignKeys[schemaID], fk)
		}
	}
}

func fkName(fk *schema.ForeignKey) string {
	if fk.Name != "" {
		return fk.Name
	}
	return "on " + fk.FromTable + "." + fk.FromColumn
}

func targetDeclared(targets []manifest.Target, ref ColumnRef) bool {
	for _, t := range targets {
		if t.Table == ref.Table && t.Column == ref.Column && (t.Schema == "" || t.Schema == ref.Schema) {
			return true
		}
	}
	return false
}

func appendNote(notes, note string) string {
	if notes == "" {
		return note
	}
	return notes + "; " + note
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
