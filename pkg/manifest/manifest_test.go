package manifest

import (
	"reflect"
	"testing"

	"github.com/matzehuels/schemaflow/pkg/errors"
)

const sampleManifest = `{
  "_meta": {
    "version": "2.0.0",
    "description": "test mappings",
    "source": "Legacy database",
    "targets": ["Tenant databases"]
  },
  "_deprecated_tables": {
    "old_sessions": "replaced by token auth"
  },
  "_deprecated_columns": {
    "users": ["legacy_flag"]
  },
  "users": {
    "email": {
      "targets": [
        {"db": "tenant", "table": "accounts", "column": "email", "sql": "LOWER(email)"},
        {"db": "central", "table": "contacts", "column": "email"}
      ],
      "notes": "verified addresses only"
    },
    "ssn": {
      "deprecated": true,
      "reason": "no longer stored"
    }
  }
}`

func TestUnmarshal(t *testing.T) {
	m, err := Unmarshal([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if m.Meta.Version != "2.0.0" {
		t.Errorf("Version = %v, want 2.0.0", m.Meta.Version)
	}
	if m.Meta.Description != "test mappings" {
		t.Errorf("Description = %v, want test mappings", m.Meta.Description)
	}

	if reason, ok := m.TableDeprecation("old_sessions"); !ok || reason != "replaced by token auth" {
		t.Errorf("TableDeprecation(old_sessions) = %q, %v", reason, ok)
	}

	mp, ok := m.MappingFor("users", "email")
	if !ok {
		t.Fatal("MappingFor(users, email) not found")
	}
	if len(mp.Targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(mp.Targets))
	}
	first := mp.Targets[0]
	if first.Schema != "tenant" || first.Table != "accounts" || first.Column != "email" {
		t.Errorf("first target = %s.%s.%s, want tenant.accounts.email", first.Schema, first.Table, first.Column)
	}
	if first.Transform != "LOWER(email)" {
		t.Errorf("Transform = %q, want LOWER(email)", first.Transform)
	}
	if mp.Notes != "verified addresses only" {
		t.Errorf("Notes = %q", mp.Notes)
	}

	if reason, ok := m.ColumnDeprecation("users", "ssn"); !ok || reason != "no longer stored" {
		t.Errorf("ColumnDeprecation(users, ssn) = %q, %v", reason, ok)
	}
	if _, ok := m.ColumnDeprecation("users", "legacy_flag"); !ok {
		t.Error("ColumnDeprecation(users, legacy_flag) = false, want true via _deprecated_columns")
	}
	if _, ok := m.ColumnDeprecation("users", "email"); ok {
		t.Error("ColumnDeprecation(users, email) = true, want false")
	}
}

func TestUnmarshalDeprecatedTablesList(t *testing.T) {
	data := `{
  "_meta": {"version": "2.0.0"},
  "_deprecated_tables": ["old_a", "old_b"]
}`

	m, err := Unmarshal([]byte(data))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := map[string]string{"old_a": "", "old_b": ""}
	if !reflect.DeepEqual(m.DeprecatedTables, want) {
		t.Errorf("DeprecatedTables = %v, want %v", m.DeprecatedTables, want)
	}
}

func TestUnmarshalLegacySingleTarget(t *testing.T) {
	data := `{
  "_meta": {"version": "1.0"},
  "users": {
    "email": {"target": "accounts.email", "sql": "LOWER(email)"}
  }
}`

	m, err := Unmarshal([]byte(data))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	mp, ok := m.MappingFor("users", "email")
	if !ok {
		t.Fatal("MappingFor(users, email) not found")
	}
	if len(mp.Targets) != 1 {
		t.Fatalf("targets = %d, want 1", len(mp.Targets))
	}
	tgt := mp.Targets[0]
	if tgt.Schema != "" {
		t.Errorf("Schema = %q, want empty (defaulted by consumers)", tgt.Schema)
	}
	if tgt.Table != "accounts" || tgt.Column != "email" {
		t.Errorf("target = %s.%s, want accounts.email", tgt.Table, tgt.Column)
	}
	if tgt.Transform != "LOWER(email)" {
		t.Errorf("Transform = %q, want LOWER(email)", tgt.Transform)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"not json", "not json at all", true},
		{"bad deprecated tables", `{"_deprecated_tables": 42}`, true},
		{"bad table name", `{"bad table": {"c": {"targets": []}}}`, true},
		{"target missing column", `{"users": {"email": {"targets": [{"db": "t", "table": "accounts"}]}}}`, true},

		// Unknown underscore sections are tolerated, not errors.
		{"unknown reserved section", `{"_future": {}, "_meta": {"version": "1"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidManifest) {
				t.Errorf("error code = %v, want INVALID_MANIFEST", errors.GetCode(err))
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	first, err := Unmarshal([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	data, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	second, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal(Marshal()) error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip changed manifest:\nfirst:  %+v\nsecond: %+v", first, second)
	}

	// A second marshal of the same content is byte-identical.
	again, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != string(again) {
		t.Error("repeated Marshal() output differs")
	}
}

func TestValidate(t *testing.T) {
	m := New()
	m.Tables["users"] = map[string]Mapping{
		"email": {Targets: []Target{{Schema: "tenant", Table: "accounts", Column: "email"}}},
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	m.Tables["_users"] = map[string]Mapping{}
	if err := m.Validate(); err == nil {
		t.Error("Validate() with underscore table = nil, want error")
	}
}
