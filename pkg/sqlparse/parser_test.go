package sqlparse

import (
	"testing"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
)

const usersDDL = `
CREATE TABLE users (
  id INT(11) UNSIGNED NOT NULL AUTO_INCREMENT,
  email VARCHAR(255) NOT NULL UNIQUE COMMENT 'primary contact address',
  name VARCHAR(120) DEFAULT NULL,
  status ENUM('active','inactive') NOT NULL DEFAULT 'active',
  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

func TestParseBasicTable(t *testing.T) {
	tables, issues := Parse("legacy", usersDDL)

	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}

	tbl := tables[0]
	if tbl.Schema != "legacy" || tbl.Name != "users" {
		t.Errorf("table = %s.%s, want legacy.users", tbl.Schema, tbl.Name)
	}
	if got := tbl.ID(); got != "legacy.users" {
		t.Errorf("ID() = %v, want legacy.users", got)
	}
	if len(tbl.Columns) != 5 {
		t.Fatalf("columns = %d, want 5", len(tbl.Columns))
	}

	id := tbl.Columns[0]
	if id.Name != "id" || id.Type != "int(11) unsigned" {
		t.Errorf("id column = %s %s, want id int(11) unsigned", id.Name, id.Type)
	}
	if id.Nullable || !id.AutoIncrement {
		t.Errorf("id Nullable=%v AutoIncrement=%v, want false true", id.Nullable, id.AutoIncrement)
	}
	if !tbl.IsPrimaryKey("id") {
		t.Error("IsPrimaryKey(id) = false, want true")
	}

	email := tbl.Columns[1]
	if !email.Unique {
		t.Error("email.Unique = false, want true")
	}
	if email.Comment != "primary contact address" {
		t.Errorf("email.Comment = %q, want %q", email.Comment, "primary contact address")
	}

	name := tbl.Columns[2]
	if !name.Nullable || !name.HasDefault {
		t.Errorf("name Nullable=%v HasDefault=%v, want true true", name.Nullable, name.HasDefault)
	}

	status := tbl.Columns[3]
	if status.Type != "enum('active','inactive')" {
		t.Errorf("status.Type = %q, want enum('active','inactive')", status.Type)
	}

	created := tbl.Columns[4]
	if !created.HasDefault || created.Nullable {
		t.Errorf("created_at HasDefault=%v Nullable=%v, want true false", created.HasDefault, created.Nullable)
	}
}

func TestParseForeignKeys(t *testing.T) {
	ddl := `
CREATE TABLE orders (
  id INT NOT NULL AUTO_INCREMENT,
  user_id INT NOT NULL,
  coupon_id INT REFERENCES coupons (id),
  PRIMARY KEY (id),
  CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
  KEY idx_user (user_id)
);
`
	tables, issues := Parse("legacy", ddl)

	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}

	tbl := tables[0]
	if len(tbl.ForeignKeys) != 2 {
		t.Fatalf("foreign keys = %d, want 2", len(tbl.ForeignKeys))
	}

	inline := tbl.ForeignKeyFor("coupon_id")
	if inline == nil {
		t.Fatal("ForeignKeyFor(coupon_id) = nil, want inline foreign key")
	}
	if inline.ToTable != "coupons" || inline.ToColumn != "id" {
		t.Errorf("inline FK references %s.%s, want coupons.id", inline.ToTable, inline.ToColumn)
	}
	if inline.Name != "" {
		t.Errorf("inline FK name = %q, want empty", inline.Name)
	}

	named := tbl.ForeignKeyFor("user_id")
	if named == nil {
		t.Fatal("ForeignKeyFor(user_id) = nil, want constraint foreign key")
	}
	if named.Name != "fk_orders_user" {
		t.Errorf("FK name = %q, want fk_orders_user", named.Name)
	}
	if named.ToTable != "users" || named.ToColumn != "id" {
		t.Errorf("FK references %s.%s, want users.id", named.ToTable, named.ToColumn)
	}
}

func TestParseAnnotations(t *testing.T) {
	ddl := `
CREATE TABLE accounts (
  id SERIAL PRIMARY KEY,
  email VARCHAR(255) COMMENT 'Source: users.email',
  note TEXT COMMENT 'free text'
) COMMENT='Category: auth';
`
	tables, issues := Parse("tenant", ddl)

	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	tbl := tables[0]

	if tbl.Category != "auth" {
		t.Errorf("Category = %q, want auth", tbl.Category)
	}

	email := tbl.Column("email")
	if email.Annotation.Kind != schema.AnnotationSourceHint {
		t.Fatalf("email annotation kind = %v, want source hint", email.Annotation.Kind)
	}
	if email.Annotation.Table != "users" || email.Annotation.Column != "email" {
		t.Errorf("email hint = %s.%s, want users.email", email.Annotation.Table, email.Annotation.Column)
	}

	note := tbl.Column("note")
	if note.Annotation.Kind != schema.AnnotationUnknown {
		t.Errorf("note annotation kind = %v, want unknown", note.Annotation.Kind)
	}
	if note.Comment != "free text" {
		t.Errorf("note.Comment = %q, want free text", note.Comment)
	}
}

func TestParseCategoryHeuristic(t *testing.T) {
	ddl := `
CREATE TABLE audit_log (id INT PRIMARY KEY);
CREATE TABLE users (id INT PRIMARY KEY);
`
	tables, _ := Parse("legacy", ddl)
	if len(tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(tables))
	}
	if tables[0].Category != "logging" {
		t.Errorf("audit_log category = %q, want logging", tables[0].Category)
	}
	if tables[1].Category != "core" {
		t.Errorf("users category = %q, want core", tables[1].Category)
	}
}

func TestParseUnsupportedStatements(t *testing.T) {
	ddl := `
CREATE TABLE users (id INT PRIMARY KEY);
CREATE INDEX idx_users ON users (id);
ALTER TABLE users ADD COLUMN email VARCHAR(255);
DROP TABLE old_users;
`
	tables, issues := Parse("legacy", ddl)

	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	if len(issues) != 3 {
		t.Fatalf("issues = %d, want 3: %v", len(issues), issues)
	}

	wantMessages := []string{
		"unsupported statement: CREATE INDEX",
		"unsupported statement: ALTER TABLE",
		"unsupported statement: DROP TABLE",
	}
	for i, want := range wantMessages {
		if issues[i].Message != want {
			t.Errorf("issue %d message = %q, want %q", i, issues[i].Message, want)
		}
		if issues[i].Statement == "" {
			t.Errorf("issue %d has empty statement excerpt", i)
		}
	}

	if issues[0].Line != 3 {
		t.Errorf("issue 0 line = %d, want 3", issues[0].Line)
	}
}

func TestParseMalformedTableFailsAlone(t *testing.T) {
	ddl := `
CREATE TABLE broken (
  id INT,
  name VARCHAR(50
;
CREATE TABLE survivor (id INT PRIMARY KEY);
`
	tables, issues := Parse("legacy", ddl)

	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1 (survivor)", len(tables))
	}
	if tables[0].Name != "survivor" {
		t.Errorf("surviving table = %q, want survivor", tables[0].Name)
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1: %v", len(issues), issues)
	}
	if issues[0].Line != 2 {
		t.Errorf("issue line = %d, want 2", issues[0].Line)
	}
}

func TestParseEmptyColumnList(t *testing.T) {
	tables, issues := Parse("legacy", "CREATE TABLE empty ();")

	if len(tables) != 0 {
		t.Errorf("tables = %d, want 0", len(tables))
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
}

func TestParseMultiColumnForeignKey(t *testing.T) {
	ddl := `
CREATE TABLE line_items (
  order_id INT,
  line_no INT,
  sku VARCHAR(32),
  CONSTRAINT fk_composite FOREIGN KEY (order_id, line_no) REFERENCES order_lines (order_id, line_no)
);
`
	tables, issues := Parse("legacy", ddl)

	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	if len(tables[0].ForeignKeys) != 0 {
		t.Errorf("foreign keys = %d, want 0", len(tables[0].ForeignKeys))
	}
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if issues[0].Message == "" {
		t.Error("issue message is empty")
	}
}

func TestParsePostgres(t *testing.T) {
	ddl := `
CREATE TABLE "accounts" (
  "id" SERIAL PRIMARY KEY,
  "tenant" VARCHAR(64) NOT NULL
);
`
	tables, issues := ParseWithDialect("tenant", ddl, Postgres)

	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	tbl := tables[0]
	id := tbl.Column("id")
	if id == nil {
		t.Fatal("column id missing")
	}
	if !id.AutoIncrement {
		t.Error("SERIAL column AutoIncrement = false, want true")
	}
	if id.Nullable {
		t.Error("SERIAL column Nullable = true, want false")
	}
}

func TestParseQuotedSemicolonInComment(t *testing.T) {
	ddl := `CREATE TABLE t1 (c VARCHAR(10) COMMENT 'a;b');
CREATE TABLE t2 (c INT);`

	tables, issues := Parse("legacy", ddl)
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	if len(tables) != 2 {
		t.Fatalf("tables = %d, want 2", len(tables))
	}
	if got := tables[0].Column("c").Comment; got != "a;b" {
		t.Errorf("comment = %q, want a;b", got)
	}
}

func TestParseDeterministic(t *testing.T) {
	first, _ := Parse("legacy", usersDDL)
	second, _ := Parse("legacy", usersDDL)

	if len(first) != len(second) {
		t.Fatalf("table counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID() != second[i].ID() {
			t.Errorf("table %d ID differs: %s vs %s", i, first[i].ID(), second[i].ID())
		}
		if len(first[i].Columns) != len(second[i].Columns) {
			t.Errorf("table %d column counts differ", i)
		}
	}
}
