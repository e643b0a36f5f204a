// Package manifest reads and writes field-mapping manifests.
//
// A manifest is a single JSON document describing how source-schema columns
// migrate into target schemas. Top-level keys starting with an underscore
// are reserved sections; every other key is a source table name:
//
//	{
//	  "_meta": {"version": "2.0.0", "description": "...", "source": "...", "targets": ["..."]},
//	  "_deprecated_tables": {"old_table": "replaced by events"},
//	  "_deprecated_columns": {"users": ["legacy_flag"]},
//	  "users": {
//	    "email": {"targets": [{"db": "tenant", "table": "accounts", "column": "email", "sql": "LOWER(email)"}]},
//	    "legacy_flag": {"deprecated": true, "reason": "unused since v2"}
//	  }
//	}
//
// Two historical variants are accepted on read and normalized on write:
// "_deprecated_tables" may be a bare name list (read as empty reasons), and
// a column mapping may use the single-target form {"target": "table.column",
// "sql": "..."} (read as a one-element target list with no schema; consumers
// default the schema).
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/schemaflow/pkg/errors"
)

// Manifest is a parsed field-mapping manifest.
type Manifest struct {
	// Meta is the manifest header. Source and Targets are display strings
	// for humans; the operative schema identifiers live on each Target.
	Meta Meta

	// DeprecatedTables maps deprecated source table names to a reason,
	// possibly empty.
	DeprecatedTables map[string]string

	// DeprecatedColumns maps source table names to deprecated column names.
	DeprecatedColumns map[string][]string

	// Tables maps source table name to column name to mapping.
	Tables map[string]map[string]Mapping
}

// Meta is the "_meta" header section.
type Meta struct {
	Version     string   `json:"version"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source,omitempty"`
	Targets     []string `json:"targets,omitempty"`

	// ProjectID identifies the project across manifest regenerations.
	// Stamped once at init time.
	ProjectID string `json:"project_id,omitempty"`
}

// Mapping declares where one source column migrates to.
type Mapping struct {
	// Targets is the ordered list of destinations. Empty for deprecated
	// columns; more than one entry fans the column out to several targets.
	Targets []Target `json:"targets,omitempty"`

	// Deprecated marks the column as intentionally unmapped.
	Deprecated bool `json:"deprecated,omitempty"`

	// Reason explains the deprecation.
	Reason string `json:"reason,omitempty"`

	// Notes is free text shown in edge tooltips.
	Notes string `json:"notes,omitempty"`
}

// Target is a single migration destination.
type Target struct {
	// Schema is the target schema identifier. Empty in the legacy
	// single-target form; consumers default it.
	Schema string `json:"db,omitempty"`

	// Table and Column identify the destination column.
	Table  string `json:"table"`
	Column string `json:"column"`

	// Transform is the migration expression, if any.
	Transform string `json:"sql,omitempty"`

	// Condition restricts when the migration applies.
	Condition string `json:"condition,omitempty"`

	// Notes is free text shown in edge tooltips.
	Notes string `json:"notes,omitempty"`
}

// Version is the manifest format version written by this package.
const Version = "2.0.0"

// New creates an empty manifest with initialized sections.
func New() *Manifest {
	return &Manifest{
		Meta:              Meta{Version: Version},
		DeprecatedTables:  make(map[string]string),
		DeprecatedColumns: make(map[string][]string),
		Tables:            make(map[string]map[string]Mapping),
	}
}

// MappingFor returns the mapping for a source column, if declared.
func (m *Manifest) MappingFor(table, column string) (Mapping, bool) {
	cols, ok := m.Tables[table]
	if !ok {
		return Mapping{}, false
	}
	mp, ok := cols[column]
	return mp, ok
}

// TableDeprecation returns the deprecation reason for a source table.
// A deprecated table may carry an empty reason.
func (m *Manifest) TableDeprecation(table string) (string, bool) {
	reason, ok := m.DeprecatedTables[table]
	return reason, ok
}

// ColumnDeprecation reports whether a column is deprecated and why. Both
// the per-mapping deprecated flag and the "_deprecated_columns" section
// count; the mapping's reason wins when both are present.
func (m *Manifest) ColumnDeprecation(table, column string) (string, bool) {
	if mp, ok := m.MappingFor(table, column); ok && mp.Deprecated {
		return mp.Reason, true
	}
	for _, c := range m.DeprecatedColumns[table] {
		if c == column {
			return "", true
		}
	}
	return "", false
}

// Validate checks the manifest's structural invariants: table keys must be
// plain identifiers outside the reserved underscore namespace, and every
// target must name a table and column.
func (m *Manifest) Validate() error {
	for table, cols := range m.Tables {
		if strings.HasPrefix(table, "_") {
			return errors.New(errors.ErrCodeInvalidManifest,
				"table name %q collides with the reserved underscore namespace", table)
		}
		if err := errors.ValidateIdent(table); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid table name %q", table)
		}
		for column, mp := range cols {
			if err := errors.ValidateIdent(column); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid column name %q in table %s", column, table)
			}
			for i, tgt := range mp.Targets {
				if tgt.Table == "" || tgt.Column == "" {
					return errors.New(errors.ErrCodeInvalidManifest,
						"target %d of %s.%s must name a table and column", i, table, column)
				}
			}
		}
	}
	return nil
}

// =============================================================================
// Serialization API
// =============================================================================

// Reserved top-level keys.
const (
	metaKey              = "_meta"
	deprecatedTablesKey  = "_deprecated_tables"
	deprecatedColumnsKey = "_deprecated_columns"
)

// Marshal converts a manifest to indented JSON bytes.
// Keys are emitted in sorted order for deterministic output.
func Marshal(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses JSON bytes into a manifest.
func Unmarshal(data []byte) (*Manifest, error) {
	return readFrom(bytes.NewReader(data))
}

// WriteFile writes a manifest to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(m *Manifest, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return writeTo(m, f)
}

// ReadFile reads and validates a manifest from a JSON file.
func ReadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open manifest %s", path)
	}
	defer f.Close()
	return readFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeTo(m *Manifest, w io.Writer) error {
	doc := make(map[string]any, len(m.Tables)+3)
	doc[metaKey] = m.Meta
	if len(m.DeprecatedTables) > 0 {
		doc[deprecatedTablesKey] = m.DeprecatedTables
	}
	if len(m.DeprecatedColumns) > 0 {
		doc[deprecatedColumnsKey] = m.DeprecatedColumns
	}
	for name, cols := range m.Tables {
		doc[name] = cols
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode manifest")
	}
	return nil
}

func readFrom(r io.Reader) (*Manifest, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode manifest")
	}

	m := New()
	for key, val := range raw {
		switch key {
		case metaKey:
			if err := json.Unmarshal(val, &m.Meta); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode %s", metaKey)
			}
		case deprecatedTablesKey:
			tables, err := unmarshalDeprecatedTables(val)
			if err != nil {
				return nil, err
			}
			m.DeprecatedTables = tables
		case deprecatedColumnsKey:
			if err := json.Unmarshal(val, &m.DeprecatedColumns); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode %s", deprecatedColumnsKey)
			}
		default:
			if strings.HasPrefix(key, "_") {
				continue // unknown reserved section, tolerated for forward compatibility
			}
			var cols map[string]Mapping
			if err := json.Unmarshal(val, &cols); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode table %s", key)
			}
			m.Tables[key] = cols
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// unmarshalDeprecatedTables accepts both the reason-map and the bare list
// form of "_deprecated_tables".
func unmarshalDeprecatedTables(data []byte) (map[string]string, error) {
	var withReasons map[string]string
	if err := json.Unmarshal(data, &withReasons); err == nil {
		return withReasons, nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidManifest,
			"%s must be a name list or a name-to-reason map", deprecatedTablesKey)
	}
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = ""
	}
	return out, nil
}

// mappingJSON is the wire form of a Mapping, including the legacy
// single-target fields.
type mappingJSON struct {
	Targets    []Target `json:"targets"`
	Target     string   `json:"target"`
	SQL        string   `json:"sql"`
	Deprecated bool     `json:"deprecated"`
	Reason     string   `json:"reason"`
	Notes      string   `json:"notes"`
}

// UnmarshalJSON accepts both mapping forms and normalizes the legacy
// single-target form into a one-element target list.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var raw mappingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Targets = raw.Targets
	m.Deprecated = raw.Deprecated
	m.Reason = raw.Reason
	m.Notes = raw.Notes

	if len(m.Targets) == 0 && raw.Target != "" {
		table, column, ok := strings.Cut(raw.Target, ".")
		if !ok {
			return fmt.Errorf("legacy target %q must be table.column", raw.Target)
		}
		m.Targets = []Target{{Table: table, Column: column, Transform: raw.SQL}}
	}

	return nil
}
