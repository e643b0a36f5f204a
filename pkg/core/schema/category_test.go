package schema

import "testing"

func TestCategorize(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		comment string
		want    string
	}{
		{"audit table", "audit_log", "", CategoryLogging},
		{"devlog table", "devlog_entries", "", CategoryLogging},
		{"metrics table", "usage_metrics", "", CategoryMetrics},
		{"activity table", "user_activity", "", CategoryMetrics},
		{"session table", "user_sessions", "", CategoryAuth},
		{"license table", "license_keys", "", CategoryAuth},
		{"config table", "system_config", "", CategoryConfig},
		{"settings table", "site_settings", "", CategoryConfig},
		{"jobs table", "background_jobs", "", CategoryJobs},
		{"task table", "task_runs", "", CategoryJobs},
		{"status table", "order_status", "", CategoryLookup},
		{"mapping table", "country_mapping", "", CategoryLookup},
		{"plain table", "users", "", CategoryCore},
		{"plain table orders", "orders", "", CategoryCore},

		// Explicit annotations win over name heuristics.
		{"annotated core", "audit_log", "Category: core", CategoryCore},
		{"annotated lookup", "users", "Category: lookup", CategoryLookup},

		// Malformed annotations fall back to the heuristic.
		{"malformed annotation", "audit_log", "Category: two words", CategoryLogging},

		// First keyword group wins when several match.
		{"log beats metric", "metric_log", "", CategoryLogging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &Table{Schema: "legacy", Name: tt.table, Comment: tt.comment}
			if got := Categorize(tbl); got != tt.want {
				t.Errorf("Categorize(%s) = %v, want %v", tt.table, got, tt.want)
			}
		})
	}
}

func TestCategoriesIncludeCore(t *testing.T) {
	cats := Categories()
	if len(cats) == 0 {
		t.Fatal("Categories() is empty")
	}
	if cats[0] != CategoryCore {
		t.Errorf("Categories()[0] = %v, want %v", cats[0], CategoryCore)
	}
}
