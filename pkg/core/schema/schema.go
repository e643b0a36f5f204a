// Package schema defines the table model produced by schema parsing.
//
// A parsed schema is a flat list of [Table] values, each owning an ordered
// list of [Column] values and the foreign keys declared on it. Tables and
// columns are created by the parser and treated as immutable afterwards;
// later pipeline stages attach lineage, categories, and positions to their
// own structures keyed by the stable identifiers returned from [Table.ID]
// and [Table.ColumnID].
//
// Identifiers are stable across runs: they depend only on schema id, table
// name, and column name, never on parse order or layout results. External
// consumers (position overrides, rendered diagrams, issue reports) key off
// these identifiers so that regenerating a diagram does not invalidate them.
package schema

// Table is a single table declaration from one schema.
type Table struct {
	// Schema is the schema identifier this table belongs to ("legacy",
	// "tenant", ...). Assigned by the parser from its input, not from the
	// DDL text.
	Schema string

	// Name is the declared table name, unquoted.
	Name string

	// Columns holds the column declarations in declaration order.
	Columns []*Column

	// ForeignKeys holds all single-column foreign keys declared on this
	// table, both inline (REFERENCES) and table-level (CONSTRAINT ... FOREIGN KEY).
	ForeignKeys []*ForeignKey

	// PrimaryKey lists the primary-key column names in declaration order.
	// Populated from an inline PRIMARY KEY or a table-level PRIMARY KEY (...).
	PrimaryKey []string

	// Category is the table's category tag ("core", "logging", ...).
	// Set from an explicit Category: annotation in the table comment, or by
	// the name heuristic in Categorize when no annotation is present.
	Category string

	// Comment is the raw table comment, if any.
	Comment string
}

// Column is a single column declaration.
type Column struct {
	// Name is the declared column name, unquoted.
	Name string

	// Type is the normalized (lowercased) column type, including any
	// parenthesised size and an unsigned marker ("int(11) unsigned").
	Type string

	// Nullable reports whether the column accepts NULL. Defaults to true
	// unless NOT NULL or an inline PRIMARY KEY is declared.
	Nullable bool

	// HasDefault reports whether the column declares a DEFAULT clause.
	HasDefault bool

	// Unique reports whether the column is declared UNIQUE inline or is
	// covered by a single-column table-level UNIQUE KEY.
	Unique bool

	// AutoIncrement reports whether the column auto-increments
	// (AUTO_INCREMENT, or a SERIAL type under the postgres dialect).
	AutoIncrement bool

	// Comment is the raw column comment, if any.
	Comment string

	// Annotation is the parsed form of the comment. Its kind is
	// AnnotationUnknown when the comment carries no recognized marker.
	Annotation Annotation
}

// ForeignKey is a single-column foreign-key constraint.
type ForeignKey struct {
	// Name is the constraint name, empty for inline REFERENCES clauses.
	Name string

	// FromTable and FromColumn identify the referencing side.
	FromTable  string
	FromColumn string

	// ToTable and ToColumn identify the referenced side. ToTable is a bare
	// table name in the same schema; cross-schema references are expressed
	// through lineage manifests, not foreign keys.
	ToTable  string
	ToColumn string
}

// ID returns the stable table identifier: "<schema>.<name>".
func (t *Table) ID() string {
	return t.Schema + "." + t.Name
}

// ColumnID returns the stable column identifier: "<schema>.<table>.<column>".
func (t *Table) ColumnID(column string) string {
	return t.Schema + "." + t.Name + "." + column
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// IsPrimaryKey reports whether the named column is part of the primary key.
func (t *Table) IsPrimaryKey(column string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}

// ForeignKeyFor returns the foreign key declared on the named column, or nil.
func (t *Table) ForeignKeyFor(column string) *ForeignKey {
	for _, fk := range t.ForeignKeys {
		if fk.FromColumn == column {
			return fk
		}
	}
	return nil
}

// FindTable returns the table with the given bare name from a parsed schema,
// or nil if no table matches.
func FindTable(tables []*Table, name string) *Table {
	for _, t := range tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}
