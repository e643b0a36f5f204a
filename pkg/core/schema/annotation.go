package schema

import (
	"strings"

	"github.com/matzehuels/schemaflow/pkg/errors"
)

// AnnotationKind discriminates the parsed forms of a comment annotation.
type AnnotationKind int

const (
	// AnnotationUnknown marks a comment with no recognized annotation, or a
	// recognized marker with a malformed payload. The raw text is kept.
	AnnotationUnknown AnnotationKind = iota

	// AnnotationSourceHint marks a "Source: <table>.<column>" column comment,
	// a provisional lineage hint pointing at a source-schema column.
	AnnotationSourceHint

	// AnnotationCategory marks a "Category: <name>" table comment.
	AnnotationCategory
)

// String returns the kind name for logging.
func (k AnnotationKind) String() string {
	switch k {
	case AnnotationSourceHint:
		return "source-hint"
	case AnnotationCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Annotation is the parsed form of a free-text table or column comment.
//
// Comments are loosely structured by convention: a column comment may carry
// "Source: accounts.id" to hint where its data comes from, and a table
// comment may carry "Category: logging" to classify the table. Everything
// else is an unknown annotation and kept verbatim. Parsing is strict: a
// recognized marker with a payload that does not match the grammar yields
// AnnotationUnknown rather than a guessed hint.
type Annotation struct {
	// Kind discriminates which of the remaining fields are meaningful.
	Kind AnnotationKind

	// Table and Column are set for AnnotationSourceHint.
	Table  string
	Column string

	// Category is set for AnnotationCategory, normalized to lower case.
	Category string

	// Raw is the original comment text, kept for all kinds.
	Raw string
}

// ParseAnnotation parses a comment into an Annotation.
//
// Recognized forms (marker match is case-insensitive, payload is trimmed):
//
//	Source: <table>.<column>
//	Category: <name>
//
// The source payload must be exactly two valid identifiers joined by a dot,
// and the category name must be a single valid identifier. Any other text,
// including a recognized marker with a malformed payload, parses to
// AnnotationUnknown with the raw text preserved.
func ParseAnnotation(comment string) Annotation {
	raw := comment
	trimmed := strings.TrimSpace(comment)

	if payload, ok := cutMarker(trimmed, "Source:"); ok {
		table, column, found := strings.Cut(payload, ".")
		if found &&
			errors.ValidateIdent(table) == nil &&
			errors.ValidateIdent(column) == nil {
			return Annotation{
				Kind:   AnnotationSourceHint,
				Table:  table,
				Column: column,
				Raw:    raw,
			}
		}
		return Annotation{Kind: AnnotationUnknown, Raw: raw}
	}

	if payload, ok := cutMarker(trimmed, "Category:"); ok {
		if errors.ValidateIdent(payload) == nil {
			return Annotation{
				Kind:     AnnotationCategory,
				Category: strings.ToLower(payload),
				Raw:      raw,
			}
		}
		return Annotation{Kind: AnnotationUnknown, Raw: raw}
	}

	return Annotation{Kind: AnnotationUnknown, Raw: raw}
}

// cutMarker strips a case-insensitive marker prefix and returns the trimmed
// remainder. The marker must start the comment; markers embedded mid-text do
// not count as annotations.
func cutMarker(s, marker string) (string, bool) {
	if len(s) < len(marker) {
		return "", false
	}
	if !strings.EqualFold(s[:len(marker)], marker) {
		return "", false
	}
	return strings.TrimSpace(s[len(marker):]), true
}
