package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// identRegex matches bare SQL identifiers as accepted by the schema parser:
// a letter or underscore followed by letters, digits, or underscores.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateSchemaID validates a schema identifier ("legacy", "tenant", ...).
// Schema IDs become part of stable table/column identifiers and file names,
// so the rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - Letters, digits, underscores, and hyphens only
//   - Maximum length of 64 characters
func ValidateSchemaID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidSchema, "schema id cannot be empty")
	}

	if len(id) > 64 {
		return New(ErrCodeInvalidSchema, "schema id too long (max 64 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSchema, "schema id contains control characters")
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
			return New(ErrCodeInvalidSchema, "schema id contains invalid character %q", r)
		}
	}

	return nil
}

// ValidateIdent validates a bare SQL identifier (table or column name).
// Quoted identifiers are unwrapped by the lexer before reaching this check.
func ValidateIdent(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "identifier cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "identifier too long (max 128 characters)")
	}

	if !identRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid identifier: %q", name)
	}

	return nil
}

// ValidateTableRef validates a "table.column" reference as used in lineage
// hints and manifest targets.
func ValidateTableRef(ref string) error {
	parts := strings.Split(ref, ".")
	if len(parts) != 2 {
		return New(ErrCodeInvalidInput, "reference must be table.column: %q", ref)
	}
	for _, p := range parts {
		if err := ValidateIdent(p); err != nil {
			return Wrap(ErrCodeInvalidInput, err, "invalid reference %q", ref)
		}
	}
	return nil
}

// ValidatePath validates a user-supplied file path (schema files, manifest,
// overrides) for safety. It prevents path traversal out of the project and
// ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
