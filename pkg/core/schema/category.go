package schema

import "strings"

// Table categories. Categories drive diagram coloring and the grouping of
// isolated tables; they carry no semantics beyond presentation.
const (
	CategoryCore    = "core"
	CategoryLogging = "logging"
	CategoryMetrics = "metrics"
	CategoryAuth    = "auth"
	CategoryConfig  = "config"
	CategoryJobs    = "jobs"
	CategoryLookup  = "lookup"
)

// categoryKeywords maps name fragments to categories, checked in order so
// that the assignment is deterministic when a name matches several.
var categoryKeywords = []struct {
	keywords []string
	category string
}{
	{[]string{"audit", "log"}, CategoryLogging},
	{[]string{"metric", "activity", "trend"}, CategoryMetrics},
	{[]string{"session", "token", "license", "auth"}, CategoryAuth},
	{[]string{"config", "setting", "option"}, CategoryConfig},
	{[]string{"job", "task", "queue", "upload"}, CategoryJobs},
	{[]string{"status", "mapping", "lookup", "dictionary"}, CategoryLookup},
}

// Categorize assigns a category to a table by name heuristics.
//
// An explicit Category: annotation in the table comment always wins; the
// heuristic only runs for unannotated tables. Matching is case-insensitive
// on substrings of the table name, first match in keyword order wins, and
// tables matching nothing are "core".
func Categorize(t *Table) string {
	if a := ParseAnnotation(t.Comment); a.Kind == AnnotationCategory {
		return a.Category
	}

	name := strings.ToLower(t.Name)
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(name, kw) {
				return group.category
			}
		}
	}
	return CategoryCore
}

// Categories returns all known category names in display order.
func Categories() []string {
	return []string{
		CategoryCore,
		CategoryLogging,
		CategoryMetrics,
		CategoryAuth,
		CategoryConfig,
		CategoryJobs,
		CategoryLookup,
	}
}
