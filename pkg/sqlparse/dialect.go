package sqlparse

import (
	"regexp"
	"strings"

	"github.com/matzehuels/schemaflow/pkg/errors"
)

// Dialect describes a definition-language variant.
//
// The lexer accepts both quoting styles regardless of dialect; the dialect
// only influences semantics the text cannot express uniformly, currently
// the column types that imply auto-increment.
type Dialect struct {
	// Name is the dialect identifier ("mysql", "postgres").
	Name string

	// Aliases maps alternative names to this dialect ("postgresql", "pg").
	Aliases []string

	// AutoIncrementTypes are lowercased column types that imply
	// auto-increment without an explicit attribute (the SERIAL family).
	AutoIncrementTypes map[string]bool
}

// Built-in dialects.
var (
	MySQL = &Dialect{
		Name: "mysql",
	}

	Postgres = &Dialect{
		Name:    "postgres",
		Aliases: []string{"postgresql", "pg"},
		AutoIncrementTypes: map[string]bool{
			"serial":      true,
			"bigserial":   true,
			"smallserial": true,
		},
	}
)

// Dialects returns all built-in dialects. MySQL comes first and is the
// default for both lookup fallbacks and detection ties.
func Dialects() []*Dialect {
	return []*Dialect{MySQL, Postgres}
}

// DialectNames returns the canonical dialect names for help texts.
func DialectNames() []string {
	ds := Dialects()
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = d.Name
	}
	return names
}

// LookupDialect returns the dialect with the given name or alias.
func LookupDialect(name string) (*Dialect, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, d := range Dialects() {
		if d.Name == lower {
			return d, nil
		}
		for _, alias := range d.Aliases {
			if alias == lower {
				return d, nil
			}
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidDialect,
		"unknown dialect %q (available: %s)", name, strings.Join(DialectNames(), ", "))
}

var serialTypeRegex = regexp.MustCompile(`(?i)\b(?:big|small)?serial\b`)

// DetectDialect guesses the dialect from schema text.
//
// Backticks and MySQL-only table options identify mysql; the SERIAL type
// family identifies postgres. Ambiguous input defaults to mysql, matching
// the dominant input format.
func DetectDialect(text string) *Dialect {
	if strings.Contains(text, "`") {
		return MySQL
	}
	upper := strings.ToUpper(text)
	if strings.Contains(upper, "AUTO_INCREMENT") || strings.Contains(upper, "ENGINE=") || strings.Contains(upper, "ENGINE =") {
		return MySQL
	}
	if serialTypeRegex.MatchString(text) {
		return Postgres
	}
	return MySQL
}
