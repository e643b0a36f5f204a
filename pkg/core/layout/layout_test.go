package layout

import (
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
)

func mkTable(name string, cols ...string) *schema.Table {
	t := &schema.Table{Schema: "legacy", Name: name}
	for _, c := range cols {
		t.Columns = append(t.Columns, &schema.Column{Name: c, Type: "int"})
	}
	return t
}

func fk(from, fromCol, to, toCol string) *schema.ForeignKey {
	return &schema.ForeignKey{FromTable: from, FromColumn: fromCol, ToTable: to, ToColumn: toCol}
}

// chained builds the users ← orders ← payments fixture.
func chained() ([]*schema.Table, []*schema.ForeignKey) {
	tables := []*schema.Table{
		mkTable("users", "id", "email"),
		mkTable("orders", "id", "user_id"),
		mkTable("payments", "id", "order_id"),
	}
	fks := []*schema.ForeignKey{
		fk("orders", "user_id", "users", "id"),
		fk("payments", "order_id", "orders", "id"),
	}
	return tables, fks
}

func nodeFor(t *testing.T, nodes []*Node, name string) *Node {
	t.Helper()
	for _, n := range nodes {
		if n.Table.Name == name {
			return n
		}
	}
	t.Fatalf("no node for table %q", name)
	return nil
}

func TestFootprint(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name  string
		table *schema.Table
		wantW float64
		wantH float64
	}{
		{
			name:  "short labels clamp to min width",
			table: mkTable("t", "a"),
			wantW: cfg.MinWidth,
			wantH: cfg.HeaderHeight + cfg.RowHeight,
		},
		{
			name: "width follows longest label",
			table: &schema.Table{Name: "users", Columns: []*schema.Column{
				{Name: "email", Type: "varchar(255)"},
			}},
			// "email varchar(255)" is 18 characters.
			wantW: 18*cfg.CharWidth + cfg.PadX,
			wantH: cfg.HeaderHeight + cfg.RowHeight,
		},
		{
			name: "long labels clamp to max width",
			table: &schema.Table{Name: "t", Columns: []*schema.Column{
				{Name: strings.Repeat("x", 40), Type: "varchar(255)"},
			}},
			wantW: cfg.MaxWidth,
			wantH: cfg.HeaderHeight + cfg.RowHeight,
		},
		{
			name:  "height follows column count",
			table: mkTable("orders", "a", "b", "c", "d"),
			wantW: cfg.MinWidth,
			wantH: cfg.HeaderHeight + 4*cfg.RowHeight,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Footprint(tt.table, cfg)
			if w != tt.wantW {
				t.Errorf("w = %v, want %v", w, tt.wantW)
			}
			if h != tt.wantH {
				t.Errorf("h = %v, want %v", h, tt.wantH)
			}
		})
	}
}

func TestComponents(t *testing.T) {
	tables, fks := chained()
	tables = append(tables, mkTable("events", "id"), mkTable("audit_log", "id"))

	comps := components(tables, fks)
	if len(comps) != 3 {
		t.Fatalf("len(comps) = %d, want 3", len(comps))
	}
	got := make([][]string, len(comps))
	for i, comp := range comps {
		for _, tbl := range comp {
			got[i] = append(got[i], tbl.Name)
		}
	}
	want := [][]string{
		{"orders", "payments", "users"},
		{"audit_log"},
		{"events"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("components = %v, want %v", got, want)
	}
}

func TestPlacementOrder(t *testing.T) {
	tests := []struct {
		name string
		fks  []*schema.ForeignKey
		want []string
	}{
		{
			name: "chain from root",
			fks: []*schema.ForeignKey{
				fk("orders", "user_id", "users", "id"),
				fk("payments", "order_id", "orders", "id"),
			},
			want: []string{"orders", "payments", "users"},
		},
		{
			name: "neighbors visited in name order",
			fks: []*schema.ForeignKey{
				fk("orders", "u", "users", "id"),
				fk("orders", "p", "payments", "id"),
			},
			want: []string{"orders", "payments", "users"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := []*schema.Table{mkTable("users", "id"), mkTable("orders", "id"), mkTable("payments", "id")}
			comps := components(tables, tt.fks)
			if len(comps) != 1 {
				t.Fatalf("len(comps) = %d, want 1", len(comps))
			}
			order := placementOrder(comps[0], adjacency(tables, tt.fks))
			got := make([]string, len(order))
			for i, tbl := range order {
				got[i] = tbl.Name
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLayoutConnectedComponent(t *testing.T) {
	tables, fks := chained()
	cfg := DefaultConfig()

	nodes, issues := Layout(tables, fks, 0, cfg)
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	if len(nodes) != 3 {
		t.Fatalf("len(nodes) = %d, want 3", len(nodes))
	}
	for _, n := range nodes {
		if n.Fallback {
			t.Errorf("%s placed by fallback, want spiral", n.Table.Name)
		}
	}
	// The component root lands on the schema origin.
	root := nodeFor(t, nodes, "orders")
	if root.Box.CenterX() != cfg.OriginX || root.Box.CenterY() != cfg.OriginY {
		t.Errorf("root center = (%v, %v), want (%v, %v)",
			root.Box.CenterX(), root.Box.CenterY(), cfg.OriginX, cfg.OriginY)
	}
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[i].Box.Intersects(nodes[j].Box, cfg.Gap) {
				t.Errorf("%s and %s closer than gap", nodes[i].Table.Name, nodes[j].Table.Name)
			}
		}
	}
}

func TestLayoutIsolatedBelowSpiral(t *testing.T) {
	tables := []*schema.Table{
		mkTable("users", "id"),
		mkTable("orders", "id", "user_id"),
		mkTable("audit_log", "id", "action", "created_at"),
	}
	fks := []*schema.ForeignKey{fk("orders", "user_id", "users", "id")}
	cfg := DefaultConfig()

	nodes, issues := Layout(tables, fks, 0, cfg)
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	users := nodeFor(t, nodes, "users")
	orders := nodeFor(t, nodes, "orders")
	audit := nodeFor(t, nodes, "audit_log")

	spiralBottom := users.Box.Bottom()
	if orders.Box.Bottom() > spiralBottom {
		spiralBottom = orders.Box.Bottom()
	}
	if audit.Box.Y < spiralBottom+cfg.RegionGap-1e-9 {
		t.Errorf("audit_log.Y = %v, want at least %v below the spiral envelope",
			audit.Box.Y, spiralBottom+cfg.RegionGap)
	}
	envLeft := users.Box.X
	if orders.Box.X < envLeft {
		envLeft = orders.Box.X
	}
	if audit.Box.X != envLeft {
		t.Errorf("audit_log.X = %v, want aligned with envelope left %v", audit.Box.X, envLeft)
	}
}

func TestLayoutRowWrapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RowWidth = 300
	tables := []*schema.Table{
		mkTable("alfa", "id"),
		mkTable("bravo", "id"),
		mkTable("charlie", "id"),
		mkTable("delta", "id"),
	}

	nodes, issues := Layout(tables, nil, 0, cfg)
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	rows := make(map[float64][]string)
	left := nodes[0].Box.X
	for _, n := range nodes {
		rows[n.Box.Y] = append(rows[n.Box.Y], n.Table.Name)
		if n.Box.X < left {
			left = n.Box.X
		}
		if n.Box.Right() > left+cfg.RowWidth {
			t.Errorf("%s right edge %v exceeds row width", n.Table.Name, n.Box.Right())
		}
	}
	if len(rows) < 2 {
		t.Errorf("rows = %v, want wrapping into at least 2 rows", rows)
	}
}

func TestLayoutNonOverlap(t *testing.T) {
	tables, fks := chained()
	tables = append(tables,
		mkTable("sessions", "id", "user_id", "token"),
		mkTable("coupons", "id", "code"),
		mkTable("audit_log", "id", "action"),
		mkTable("metrics_daily", "id", "day", "value"),
		mkTable("settings", "id", "key", "value"),
	)
	fks = append(fks, fk("sessions", "user_id", "users", "id"))
	cfg := DefaultConfig()

	nodes, issues := Layout(tables, fks, 0, cfg)
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	if len(nodes) != len(tables) {
		t.Fatalf("len(nodes) = %d, want %d", len(nodes), len(tables))
	}
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[i].Box.Intersects(nodes[j].Box, cfg.Gap) {
				t.Errorf("%s and %s closer than gap", nodes[i].Table.Name, nodes[j].Table.Name)
			}
		}
	}
}

func TestLayoutDeterministic(t *testing.T) {
	build := func() ([]*Node, []Issue) {
		tables, fks := chained()
		tables = append(tables, mkTable("audit_log", "id"), mkTable("events", "id"))
		return Layout(tables, fks, 0, DefaultConfig())
	}
	n1, i1 := build()
	n2, i2 := build()
	if !reflect.DeepEqual(n1, n2) {
		t.Error("nodes differ between runs")
	}
	if !reflect.DeepEqual(i1, i2) {
		t.Error("issues differ between runs")
	}
}

func TestLayoutFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartRadius = 1
	cfg.RadiusGrowth = 0.1
	cfg.MaxAttempts = 3
	tables, fks := chained()

	nodes, issues := Layout(tables, fks, 0, cfg)
	if len(issues) != 2 {
		t.Fatalf("issues = %v, want 2 exhausted nodes", issues)
	}
	for _, is := range issues {
		if !strings.Contains(is.Message, "3") {
			t.Errorf("Message = %q, want the attempt budget named", is.Message)
		}
	}
	root := nodeFor(t, nodes, "orders")
	fallbacks := 0
	for _, n := range nodes {
		if !n.Fallback {
			continue
		}
		fallbacks++
		if n.Box.Y <= root.Box.Bottom() {
			t.Errorf("%s fallback at %v, want below the occupied region", n.Table.Name, n.Box.Y)
		}
	}
	if fallbacks != 2 {
		t.Errorf("fallbacks = %d, want 2", fallbacks)
	}
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if nodes[i].Box.Intersects(nodes[j].Box, cfg.Gap) {
				t.Errorf("%s and %s closer than gap", nodes[i].Table.Name, nodes[j].Table.Name)
			}
		}
	}
}

func TestLayoutSchemaOffset(t *testing.T) {
	tables, fks := chained()
	cfg := DefaultConfig()

	nodes, _ := Layout(tables, fks, 2, cfg)
	root := nodeFor(t, nodes, "orders")
	wantY := cfg.OriginY + 2*cfg.SchemaSpacing
	if root.Box.CenterY() != wantY {
		t.Errorf("root center y = %v, want %v", root.Box.CenterY(), wantY)
	}
	if root.Box.CenterX() != cfg.OriginX {
		t.Errorf("root center x = %v, want %v", root.Box.CenterX(), cfg.OriginX)
	}
}

func TestLayoutSelfReference(t *testing.T) {
	employees := mkTable("employees", "id", "manager_id")
	fks := []*schema.ForeignKey{fk("employees", "manager_id", "employees", "id")}
	cfg := DefaultConfig()

	nodes, issues := Layout([]*schema.Table{employees}, fks, 0, cfg)
	if len(issues) != 0 {
		t.Fatalf("issues = %v, want none", issues)
	}
	if len(nodes) != 1 {
		t.Fatalf("len(nodes) = %d, want 1", len(nodes))
	}
	// A single self-referencing table is still a size-1 component and goes
	// to the row region.
	n := nodes[0]
	if n.Box.X != cfg.OriginX || n.Box.Y != cfg.OriginY+cfg.RegionGap {
		t.Errorf("box = (%v, %v), want row region at (%v, %v)",
			n.Box.X, n.Box.Y, cfg.OriginX, cfg.OriginY+cfg.RegionGap)
	}
}

func TestLayoutEmpty(t *testing.T) {
	nodes, issues := Layout(nil, nil, 0, DefaultConfig())
	if nodes != nil || issues != nil {
		t.Errorf("Layout(nil) = %v, %v, want nil, nil", nodes, issues)
	}
}
