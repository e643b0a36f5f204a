package diagram

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/schemaflow/pkg/core/layout"
	"github.com/matzehuels/schemaflow/pkg/core/lineage"
	"github.com/matzehuels/schemaflow/pkg/core/schema"
	"github.com/matzehuels/schemaflow/pkg/errors"
)

func testGraph() *lineage.Graph {
	return &lineage.Graph{
		Mappings: []lineage.Mapping{{
			Source: lineage.ColumnRef{Schema: "legacy", Table: "users", Column: "email"},
			Targets: []lineage.Target{
				{To: lineage.ColumnRef{Schema: "tenant", Table: "accounts", Column: "email"}},
				{To: lineage.ColumnRef{Schema: "central", Table: "contacts", Column: "email"}, Transform: "LOWER(email)"},
			},
			Notes: "copied on cutover",
		}},
		ForeignKeys:       map[string][]*schema.ForeignKey{},
		DeprecatedTables:  map[string]string{"legacy.old_sessions": "kept for audit"},
		DeprecatedColumns: map[string]string{"legacy.users.ssn": "no longer stored"},
	}
}

func TestBuildSchema(t *testing.T) {
	users := &schema.Table{
		Schema: "legacy",
		Name:   "users",
		Columns: []*schema.Column{
			{Name: "id", Type: "int(11)"},
			{Name: "email", Type: "varchar(255)", Unique: true},
			{Name: "ssn", Type: "char(11)", Nullable: true},
		},
		PrimaryKey: []string{"id"},
		Category:   "core",
	}
	oldSessions := &schema.Table{
		Schema:  "legacy",
		Name:    "old_sessions",
		Columns: []*schema.Column{{Name: "token", Type: "varchar(64)"}},
	}
	nodes := []*layout.Node{
		{Table: users, Box: layout.Box{X: 10, Y: 20, W: 100, H: 76}},
		{Table: oldSessions, Box: layout.Box{X: 200, Y: 20, W: 95, H: 44}, Fallback: true},
	}

	sl := BuildSchema("legacy", 0, nodes, testGraph())
	if len(sl.Tables) != 2 {
		t.Fatalf("len(Tables) = %d, want 2", len(sl.Tables))
	}
	if sl.Tables[0].ID != "legacy.old_sessions" || sl.Tables[1].ID != "legacy.users" {
		t.Errorf("table order = %s, %s, want sorted by id", sl.Tables[0].ID, sl.Tables[1].ID)
	}

	old := sl.Tables[0]
	if !old.Deprecated || old.Reason != "kept for audit" {
		t.Errorf("old_sessions deprecation = %v %q, want marker with reason", old.Deprecated, old.Reason)
	}
	if !old.Fallback {
		t.Error("old_sessions Fallback = false, want marker carried")
	}

	u := sl.Tables[1]
	if u.Category != "core" {
		t.Errorf("Category = %q, want %q", u.Category, "core")
	}
	if !u.Columns[0].PrimaryKey {
		t.Error("id PrimaryKey = false, want true")
	}
	email := u.Columns[1]
	wantTargets := []string{"tenant.accounts.email", "central.contacts.email"}
	if !reflect.DeepEqual(email.Targets, wantTargets) {
		t.Errorf("email Targets = %v, want %v", email.Targets, wantTargets)
	}
	if email.Note != "copied on cutover" {
		t.Errorf("email Note = %q, want mapping notes", email.Note)
	}
	ssn := u.Columns[2]
	if !ssn.Deprecated || ssn.Reason != "no longer stored" {
		t.Errorf("ssn deprecation = %v %q, want marker with reason", ssn.Deprecated, ssn.Reason)
	}

	wantEnvelope := Rect{X: 10, Y: 20, Width: 285, Height: 76}
	if sl.Envelope != wantEnvelope {
		t.Errorf("Envelope = %+v, want %+v", sl.Envelope, wantEnvelope)
	}
}

func TestAssembleTranslation(t *testing.T) {
	schemas := []SchemaLayout{{
		ID:    "legacy",
		Index: 0,
		Tables: []TableNode{
			{ID: "legacy.users", X: -70, Y: 100, Width: 100, Height: 50},
		},
		Envelope: Rect{X: -70, Y: 100, Width: 100, Height: 50},
	}}
	edges := []Edge{{
		Kind:   EdgeForeignKey,
		From:   Anchor{Table: "legacy.users", Face: "right", X: 30, Y: 125},
		To:     Anchor{Table: "legacy.users", Face: "left", X: 200, Y: 150},
		Points: []Point{{30, 125}, {70, 125}, {200, 125}, {200, 150}},
	}}

	m := Assemble(schemas, edges, nil)
	tbl := m.Schemas[0].Tables[0]
	if tbl.X != canvasMargin || tbl.Y != canvasMargin {
		t.Errorf("table at (%v, %v), want content at the canvas margin", tbl.X, tbl.Y)
	}
	if m.Schemas[0].Envelope.X != canvasMargin {
		t.Errorf("Envelope.X = %v, want %v", m.Schemas[0].Envelope.X, canvasMargin)
	}
	// dx = 110, dy = -60; the widest content is the edge point at x=200.
	if m.Width != 350 {
		t.Errorf("Width = %v, want 350", m.Width)
	}
	if m.Height != 130 {
		t.Errorf("Height = %v, want 130", m.Height)
	}
	if got := m.Edges[0].Points[0]; got != (Point{140, 65}) {
		t.Errorf("Points[0] = %v, want translated with the tables", got)
	}
}

func TestNormalizeOrdering(t *testing.T) {
	m := &Model{
		Edges: []Edge{
			{Kind: EdgeLineage, Tooltip: Tooltip{From: "a", To: "b"}},
			{Kind: EdgeForeignKey, Tooltip: Tooltip{From: "z", To: "z"}},
			{Kind: EdgeForeignKey, Tooltip: Tooltip{From: "a", To: "c"}},
			{Kind: EdgeForeignKey, Tooltip: Tooltip{From: "a", To: "b"}},
		},
		Issues: []Issue{
			{Stage: StageLayout, Kind: IssueCollision, Subject: "x"},
			{Stage: StageParse, Kind: IssueStatement, Subject: "legacy:3"},
			{Stage: StageResolve, Kind: "unmapped", Subject: "a"},
			{Stage: StageResolve, Kind: "conflict", Subject: "a"},
		},
	}
	m.Normalize()

	gotEdges := make([]string, len(m.Edges))
	for i, e := range m.Edges {
		gotEdges[i] = e.Kind + " " + e.Tooltip.From + ">" + e.Tooltip.To
	}
	wantEdges := []string{
		"foreign-key a>b",
		"foreign-key a>c",
		"foreign-key z>z",
		"lineage a>b",
	}
	if !reflect.DeepEqual(gotEdges, wantEdges) {
		t.Errorf("edges = %v, want %v", gotEdges, wantEdges)
	}

	gotStages := make([]string, len(m.Issues))
	for i, is := range m.Issues {
		gotStages[i] = is.Stage + "/" + is.Kind
	}
	wantStages := []string{"parse/statement", "resolve/conflict", "resolve/unmapped", "layout/collision"}
	if !reflect.DeepEqual(gotStages, wantStages) {
		t.Errorf("issues = %v, want pipeline-stage order", gotStages)
	}
}

func TestModelRoundTrip(t *testing.T) {
	users := &schema.Table{Schema: "legacy", Name: "users", Columns: []*schema.Column{{Name: "email", Type: "varchar(255)"}}}
	nodes := []*layout.Node{{Table: users, Box: layout.Box{X: 10, Y: 20, W: 100, H: 44}}}
	m := Assemble(
		[]SchemaLayout{BuildSchema("legacy", 0, nodes, testGraph())},
		nil,
		[]Issue{{Stage: StageResolve, Kind: "unmapped", Subject: "legacy.users.name", Message: "column users.name is not mapped"}},
	)

	data, err := MarshalModel(m)
	if err != nil {
		t.Fatalf("MarshalModel() error = %v", err)
	}
	back, err := UnmarshalModel(data)
	if err != nil {
		t.Fatalf("UnmarshalModel() error = %v", err)
	}
	if !reflect.DeepEqual(m, back) {
		t.Error("round trip changed the model")
	}

	again, err := MarshalModel(back)
	if err != nil {
		t.Fatalf("MarshalModel() error = %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("repeated marshal not byte-identical")
	}
}

func TestReadModelErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{"},
		{name: "schema without id", data: `{"schemas":[{"id":"","index":0}]}`},
		{name: "duplicate schema id", data: `{"schemas":[{"id":"legacy","index":0},{"id":"legacy","index":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalModel([]byte(tt.data))
			if err == nil {
				t.Fatal("UnmarshalModel() error = nil, want error")
			}
			if code := errors.GetCode(err); code != errors.ErrCodeInvalidFormat {
				t.Errorf("code = %v, want %v", code, errors.ErrCodeInvalidFormat)
			}
		})
	}
}

func TestOverridesApply(t *testing.T) {
	users := &schema.Table{Schema: "legacy", Name: "users"}
	orders := &schema.Table{Schema: "legacy", Name: "orders"}
	nodes := []*layout.Node{
		{Table: users, Box: layout.Box{X: 10, Y: 20, W: 100, H: 50}},
		{Table: orders, Box: layout.Box{X: 300, Y: 20, W: 100, H: 50}},
	}
	o := &Overrides{Tables: map[string]Position{
		"legacy.users": {X: 500, Y: 600},
		"legacy.ghost": {X: 1, Y: 2},
	}}

	unknown := o.Apply(nodes)
	if nodes[0].Box.X != 500 || nodes[0].Box.Y != 600 {
		t.Errorf("users box = (%v, %v), want overridden position", nodes[0].Box.X, nodes[0].Box.Y)
	}
	if nodes[0].Box.W != 100 {
		t.Errorf("users width = %v, want footprint untouched", nodes[0].Box.W)
	}
	if nodes[1].Box.X != 300 {
		t.Errorf("orders box moved to %v, want untouched", nodes[1].Box.X)
	}
	if !reflect.DeepEqual(unknown, []string{"legacy.ghost"}) {
		t.Errorf("unknown = %v, want the unmatched id reported", unknown)
	}

	var nilOverrides *Overrides
	if got := nilOverrides.Apply(nodes); got != nil {
		t.Errorf("nil overrides Apply = %v, want nil", got)
	}
}

func TestReadOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.toml")
	content := `
[tables."tenant.accounts"]
x = 420.5
y = 96

[tables."legacy.users"]
x = 10
y = 20
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := ReadOverridesFile(path)
	if err != nil {
		t.Fatalf("ReadOverridesFile() error = %v", err)
	}
	if got := o.Tables["tenant.accounts"]; got != (Position{X: 420.5, Y: 96}) {
		t.Errorf("tenant.accounts = %+v, want parsed position", got)
	}
	if len(o.Tables) != 2 {
		t.Errorf("len(Tables) = %d, want 2", len(o.Tables))
	}

	if _, err := ReadOverridesFile(filepath.Join(dir, "missing.toml")); errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("missing file code = %v, want %v", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}
