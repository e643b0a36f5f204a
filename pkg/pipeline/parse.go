package pipeline

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/observability"
	"github.com/matzehuels/schemaflow/pkg/sqlparse"
)

// ParseResult holds the tables parsed from every schema input.
type ParseResult struct {
	// Source holds the source schema's tables.
	Source []*schema.Table

	// Targets holds each target schema's tables, keyed by schema ID.
	Targets map[string][]*schema.Table

	// Order lists schema IDs in input order, source first. A schema's
	// position here is its index for layout placement.
	Order []string

	// Issues collects per-statement parse problems across all schemas.
	Issues []diagram.Issue
}

// Tables returns the tables parsed for a schema ID, or nil when unknown.
func (p *ParseResult) Tables(schemaID string) []*schema.Table {
	if len(p.Order) > 0 && schemaID == p.Order[0] {
		return p.Source
	}
	return p.Targets[schemaID]
}

// TableCount returns the total number of tables across all schemas.
func (p *ParseResult) TableCount() int {
	n := len(p.Source)
	for _, tables := range p.Targets {
		n += len(tables)
	}
	return n
}

// ParseSchemas parses the source and all target schema definitions
// concurrently. Statements the parser cannot handle become issues, not
// errors; the call fails only when an input cannot be read, a forced
// dialect is unknown, or the source schema yields no tables at all.
func ParseSchemas(ctx context.Context, opts Options) (*ParseResult, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}

	inputs := opts.Inputs()

	type parsed struct {
		tables []*schema.Table
		issues []diagram.Issue
	}
	slots := make([]parsed, len(inputs))

	eg, egctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		eg.Go(func() error {
			tables, issues, err := parseOne(egctx, in)
			if err != nil {
				return err
			}
			slots[i] = parsed{tables: tables, issues: issues}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &ParseResult{
		Source:  slots[0].tables,
		Targets: make(map[string][]*schema.Table, len(opts.Targets)),
		Order:   make([]string, 0, len(inputs)),
	}
	for i, in := range inputs {
		result.Order = append(result.Order, in.ID)
		result.Issues = append(result.Issues, slots[i].issues...)
		if i > 0 {
			result.Targets[in.ID] = slots[i].tables
		}
	}

	// A source schema with zero tables means there is nothing to map from,
	// so every downstream stage would be vacuous. Empty targets are fine.
	if len(result.Source) == 0 {
		return nil, errors.New(errors.ErrCodeSourceParse,
			"source schema %q produced no tables (%d parse issues)",
			opts.Source.ID, len(slots[0].issues))
	}

	opts.Logger.Debug("parsed schemas",
		"schemas", len(inputs),
		"tables", result.TableCount(),
		"issues", len(result.Issues))

	return result, nil
}

// parseOne reads and parses a single schema input.
func parseOne(ctx context.Context, in SchemaInput) ([]*schema.Table, []diagram.Issue, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, in.ID, in.Dialect)
	start := time.Now()

	text, err := readSchemaInput(in)
	if err != nil {
		hooks.OnParseComplete(ctx, in.ID, in.Dialect, 0, time.Since(start), err)
		return nil, nil, err
	}

	var dialect *sqlparse.Dialect
	if in.Dialect != "" {
		dialect, err = sqlparse.LookupDialect(in.Dialect)
		if err != nil {
			hooks.OnParseComplete(ctx, in.ID, in.Dialect, 0, time.Since(start), err)
			return nil, nil, err
		}
	} else {
		dialect = sqlparse.DetectDialect(text)
	}

	tables, parseIssues := sqlparse.ParseWithDialect(in.ID, text, dialect)
	hooks.OnParseComplete(ctx, in.ID, dialect.Name, len(tables), time.Since(start), nil)

	return tables, diagram.FromParseIssues(in.ID, parseIssues), nil
}

// readSchemaInput returns the schema definition text, inline content first.
func readSchemaInput(in SchemaInput) (string, error) {
	if in.Text != "" {
		return in.Text, nil
	}
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read schema %s", in.Path)
	}
	return string(data), nil
}
