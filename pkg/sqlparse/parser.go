// Package sqlparse parses schema definition texts into tables.
//
// The supported subset is the DDL that schema dumps actually contain:
//
//	statement    → create_table | unsupported
//	create_table → CREATE TABLE [IF NOT EXISTS] name "(" item ("," item)* ")" options
//	item         → column_def | table_constraint
//	column_def   → name type attr*
//	type         → word ["(" args ")"] [UNSIGNED]
//	attr         → NOT NULL | NULL | DEFAULT value | UNIQUE [KEY]
//	             | PRIMARY KEY | AUTO_INCREMENT
//	             | REFERENCES table "(" column ")" | COMMENT 'text'
//	constraint   → PRIMARY KEY "(" columns ")"
//	             | [CONSTRAINT name] UNIQUE [KEY|INDEX] [name] "(" columns ")"
//	             | KEY|INDEX [name] "(" ... ")"
//	             | [CONSTRAINT name] FOREIGN KEY "(" column ")" REFERENCES table "(" column ")"
//	             | CHECK "(" ... ")"
//	options      → (ENGINE = word | DEFAULT CHARSET = word | COMMENT [=] 'text' | ...)*
//
// Problems never abort a parse. Unsupported statements (CREATE INDEX, ALTER,
// DROP, ...) and structurally malformed CREATE TABLE statements are recorded
// as an [Issue] and skipped; parsing resumes at the next statement. A parse
// therefore always returns the tables it could read, and the caller decides
// what an empty result means.
//
// The parser performs no cross-table validation: foreign keys may reference
// tables that do not exist in the result. Resolving such dangling references
// is the lineage resolver's job.
package sqlparse

import (
	"fmt"
	"strings"

	"github.com/matzehuels/schemaflow/pkg/core/schema"
	"github.com/matzehuels/schemaflow/pkg/errors"
)

// Issue records a construct the parser could not handle.
type Issue struct {
	// Statement is a whitespace-collapsed excerpt of the offending statement.
	Statement string

	// Line is the 1-based input line where the problem was found.
	Line int

	// Message describes the problem.
	Message string
}

// Parse parses a schema definition text with an auto-detected dialect.
//
// The schemaID becomes Table.Schema on every parsed table and is part of
// the stable identifiers derived from them.
func Parse(schemaID, text string) ([]*schema.Table, []Issue) {
	return ParseWithDialect(schemaID, text, DetectDialect(text))
}

// ParseWithDialect parses a schema definition text with an explicit dialect.
func ParseWithDialect(schemaID, text string, d *Dialect) ([]*schema.Table, []Issue) {
	var tables []*schema.Table
	var issues []Issue

	for _, st := range splitStatements(text) {
		p := newParser(schemaID, st, d)

		if p.cur.Type == TokenEOF {
			continue // blank or comment-only statement
		}
		firstLine := p.lineOf(p.cur)

		if p.cur.Type != TokenCreate || p.peek.Type != TokenTable {
			issues = append(issues, Issue{
				Statement: excerpt(st.text),
				Line:      firstLine,
				Message:   fmt.Sprintf("unsupported statement: %s", leadingWords(p)),
			})
			continue
		}

		tbl, err := p.parseCreateTable()
		issues = append(issues, p.issues...)
		if err != nil {
			issues = append(issues, Issue{
				Statement: excerpt(st.text),
				Line:      firstLine,
				Message:   err.Error(),
			})
			continue
		}

		tbl.Category = schema.Categorize(tbl)
		tables = append(tables, tbl)
	}

	return tables, issues
}

// statement is one semicolon-delimited chunk of the input.
type statement struct {
	text string
	line int // 1-based input line where the chunk starts
}

// splitStatements splits input into semicolon-terminated statements,
// respecting quoted regions and comments. Terminators are dropped.
func splitStatements(input string) []statement {
	var stmts []statement
	start := 0
	line := 1
	startLine := 1

	i := 0
	for i < len(input) {
		switch ch := input[i]; {
		case ch == '\n':
			line++
			i++
		case ch == '\'' || ch == '"' || ch == '`':
			i = skipQuoted(input, i, &line)
		case ch == '-' && i+1 < len(input) && input[i+1] == '-', ch == '#':
			for i < len(input) && input[i] != '\n' {
				i++
			}
		case ch == '/' && i+1 < len(input) && input[i+1] == '*':
			i += 2
			for i < len(input) {
				if input[i] == '\n' {
					line++
				}
				if input[i] == '*' && i+1 < len(input) && input[i+1] == '/' {
					i += 2
					break
				}
				i++
			}
		case ch == ';':
			stmts = append(stmts, statement{text: input[start:i], line: startLine})
			i++
			start = i
			startLine = line
		default:
			i++
		}
	}

	if start < len(input) {
		stmts = append(stmts, statement{text: input[start:], line: startLine})
	}
	return stmts
}

// skipQuoted advances past a quoted region starting at input[i], honoring
// doubled-quote escapes, and returns the new position.
func skipQuoted(input string, i int, line *int) int {
	quote := input[i]
	i++
	for i < len(input) {
		if input[i] == '\n' {
			*line++
		}
		if input[i] == quote {
			if i+1 < len(input) && input[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

// excerpt collapses whitespace and caps the statement text for issue reports.
func excerpt(s string) string {
	joined := strings.Join(strings.Fields(s), " ")
	if len(joined) > 80 {
		joined = joined[:77] + "..."
	}
	return joined
}

// parser parses a single statement.
type parser struct {
	lex      *Lexer
	cur      Token
	peek     Token
	dialect  *Dialect
	schemaID string
	stmt     string
	baseLine int

	// issues collects non-fatal constraint problems found while a table
	// parse succeeds overall (multi-column foreign keys and the like).
	issues []Issue

	// uniqueCols are single-column table-level UNIQUE KEY targets, applied
	// to columns after the full item list is read.
	uniqueCols []string
}

func newParser(schemaID string, st statement, d *Dialect) *parser {
	p := &parser{
		lex:      NewLexer(st.text),
		dialect:  d,
		schemaID: schemaID,
		stmt:     st.text,
		baseLine: st.line,
	}
	p.next()
	p.next()
	return p
}

func (p *parser) next() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

// lineOf maps a token's statement-local line to the absolute input line.
func (p *parser) lineOf(t Token) int {
	return p.baseLine + t.Line - 1
}

func (p *parser) expect(t TokenType) error {
	if p.cur.Type != t {
		return fmt.Errorf("expected %s, got %s at line %d", t, tokenDesc(p.cur), p.lineOf(p.cur))
	}
	p.next()
	return nil
}

func (p *parser) accept(t TokenType) bool {
	if p.cur.Type == t {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectIdent() (string, error) {
	if p.cur.Type != TokenIdent {
		return "", fmt.Errorf("expected identifier, got %s at line %d", tokenDesc(p.cur), p.lineOf(p.cur))
	}
	lit := p.cur.Literal
	p.next()
	return lit, nil
}

func (p *parser) addIssue(tok Token, format string, args ...any) {
	p.issues = append(p.issues, Issue{
		Statement: excerpt(p.stmt),
		Line:      p.lineOf(tok),
		Message:   fmt.Sprintf(format, args...),
	})
}

func tokenDesc(t Token) string {
	switch t.Type {
	case TokenEOF:
		return "end of statement"
	case TokenIdent, TokenString, TokenNumber, TokenIllegal:
		return fmt.Sprintf("%q", t.Literal)
	default:
		return fmt.Sprintf("%q", t.Type.String())
	}
}

// leadingWords returns the first words of an unsupported statement for the
// issue message ("ALTER TABLE", "CREATE INDEX", "INSERT INTO").
func leadingWords(p *parser) string {
	words := []string{strings.ToUpper(p.cur.Literal)}
	if p.peek.Type != TokenEOF && p.peek.Literal != "" && p.peek.Type != TokenLParen {
		words = append(words, strings.ToUpper(p.peek.Literal))
	}
	return strings.Join(words, " ")
}

// parseCreateTable parses one CREATE TABLE statement. Any returned error
// fails this table only; the caller converts it into an Issue and moves on.
func (p *parser) parseCreateTable() (*schema.Table, error) {
	if err := p.expect(TokenCreate); err != nil {
		return nil, err
	}
	if err := p.expect(TokenTable); err != nil {
		return nil, err
	}

	if p.accept(TokenIf) {
		if err := p.expect(TokenNot); err != nil {
			return nil, err
		}
		if err := p.expect(TokenExists); err != nil {
			return nil, err
		}
	}

	name, err := p.expectIdent()
	if err != nil {
		return nil, fmt.Errorf("expected table name: %v", err)
	}
	if err := errors.ValidateIdent(name); err != nil {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	tbl := &schema.Table{Schema: p.schemaID, Name: name}

	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	for p.cur.Type != TokenRParen && p.cur.Type != TokenEOF {
		if err := p.parseTableItem(tbl); err != nil {
			return nil, err
		}
		if !p.accept(TokenComma) {
			break
		}
	}

	if err := p.expect(TokenRParen); err != nil {
		return nil, fmt.Errorf("unbalanced table definition: %v", err)
	}

	if len(tbl.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", name)
	}

	p.parseTableOptions(tbl)

	// Table-level constraints may precede or follow the columns they name.
	for _, pk := range tbl.PrimaryKey {
		if c := tbl.Column(pk); c != nil {
			c.Nullable = false
		}
	}
	for _, u := range p.uniqueCols {
		if c := tbl.Column(u); c != nil {
			c.Unique = true
		}
	}

	return tbl, nil
}

// parseTableItem parses one comma-separated item of the table body, either
// a column definition or a table-level constraint.
func (p *parser) parseTableItem(tbl *schema.Table) error {
	switch p.cur.Type {
	case TokenPrimary:
		p.next()
		if err := p.expect(TokenKey); err != nil {
			return err
		}
		cols, err := p.parseIdentList()
		if err != nil {
			return err
		}
		tbl.PrimaryKey = append(tbl.PrimaryKey, cols...)
		return nil

	case TokenUnique:
		return p.parseUniqueKey()

	case TokenKey, TokenIndex:
		p.skipItemRest()
		return nil

	case TokenCheck:
		p.skipItemRest()
		return nil

	case TokenConstraint:
		p.next()
		name := ""
		if p.cur.Type == TokenIdent {
			name = p.cur.Literal
			p.next()
		}
		switch p.cur.Type {
		case TokenForeign:
			return p.parseForeignKey(tbl, name)
		case TokenPrimary:
			p.next()
			if err := p.expect(TokenKey); err != nil {
				return err
			}
			cols, err := p.parseIdentList()
			if err != nil {
				return err
			}
			tbl.PrimaryKey = append(tbl.PrimaryKey, cols...)
			return nil
		case TokenUnique:
			return p.parseUniqueKey()
		case TokenCheck:
			p.skipItemRest()
			return nil
		default:
			return fmt.Errorf("unexpected constraint %s at line %d", tokenDesc(p.cur), p.lineOf(p.cur))
		}

	case TokenForeign:
		return p.parseForeignKey(tbl, "")

	case TokenIdent:
		switch strings.ToLower(p.cur.Literal) {
		case "fulltext", "spatial":
			p.skipItemRest()
			return nil
		}
		return p.parseColumnDef(tbl)

	default:
		return fmt.Errorf("unexpected %s in table definition at line %d", tokenDesc(p.cur), p.lineOf(p.cur))
	}
}

// parseUniqueKey parses UNIQUE [KEY|INDEX] [name] (columns). Single-column
// keys mark the column unique; wider keys are accepted without model impact.
func (p *parser) parseUniqueKey() error {
	if err := p.expect(TokenUnique); err != nil {
		return err
	}
	if p.cur.Type == TokenKey || p.cur.Type == TokenIndex {
		p.next()
	}
	if p.cur.Type == TokenIdent {
		p.next() // index name
	}
	cols, err := p.parseIdentList()
	if err != nil {
		return err
	}
	if len(cols) == 1 {
		p.uniqueCols = append(p.uniqueCols, cols[0])
	}
	p.skipItemRest()
	return nil
}

// parseForeignKey parses [CONSTRAINT name] FOREIGN KEY (col) REFERENCES t (col).
// Multi-column keys are recorded as an issue and dropped; the table survives.
func (p *parser) parseForeignKey(tbl *schema.Table, name string) error {
	start := p.cur
	if err := p.expect(TokenForeign); err != nil {
		return err
	}
	if err := p.expect(TokenKey); err != nil {
		return err
	}
	cols, err := p.parseIdentList()
	if err != nil {
		return err
	}
	if err := p.expect(TokenReferences); err != nil {
		return err
	}
	refTable, err := p.expectIdent()
	if err != nil {
		return err
	}
	refCols, err := p.parseIdentList()
	if err != nil {
		return err
	}

	if len(cols) != 1 || len(refCols) != 1 {
		p.addIssue(start, "multi-column foreign key on table %s not supported", tbl.Name)
		p.skipItemRest()
		return nil
	}

	tbl.ForeignKeys = append(tbl.ForeignKeys, &schema.ForeignKey{
		Name:       name,
		FromTable:  tbl.Name,
		FromColumn: cols[0],
		ToTable:    refTable,
		ToColumn:   refCols[0],
	})
	p.skipItemRest() // ON DELETE / ON UPDATE actions
	return nil
}

// parseColumnDef parses a column declaration with its attributes.
func (p *parser) parseColumnDef(tbl *schema.Table) error {
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := errors.ValidateIdent(name); err != nil {
		return fmt.Errorf("invalid column name %q in table %s", name, tbl.Name)
	}

	typ, err := p.parseColumnType()
	if err != nil {
		return fmt.Errorf("column %s: %v", name, err)
	}

	col := &schema.Column{Name: name, Type: typ, Nullable: true}
	if p.dialect.AutoIncrementTypes[baseType(typ)] {
		col.AutoIncrement = true
		col.Nullable = false
	}

	for {
		switch p.cur.Type {
		case TokenComma, TokenRParen, TokenEOF:
			tbl.Columns = append(tbl.Columns, col)
			return nil

		case TokenNot:
			p.next()
			if err := p.expect(TokenNull); err != nil {
				return fmt.Errorf("column %s: %v", name, err)
			}
			col.Nullable = false

		case TokenNull:
			p.next()
			col.Nullable = true

		case TokenDefault:
			p.next()
			if err := p.parseDefaultValue(name); err != nil {
				return err
			}
			col.HasDefault = true

		case TokenUnique:
			p.next()
			p.accept(TokenKey)
			col.Unique = true

		case TokenPrimary:
			p.next()
			if err := p.expect(TokenKey); err != nil {
				return fmt.Errorf("column %s: %v", name, err)
			}
			tbl.PrimaryKey = append(tbl.PrimaryKey, name)
			col.Nullable = false

		case TokenAutoIncrement:
			p.next()
			col.AutoIncrement = true

		case TokenReferences:
			p.next()
			refTable, err := p.expectIdent()
			if err != nil {
				return fmt.Errorf("column %s: %v", name, err)
			}
			if p.cur.Type != TokenLParen {
				p.addIssue(p.cur, "reference without target column on %s.%s not supported", tbl.Name, name)
				continue
			}
			refCols, err := p.parseIdentList()
			if err != nil {
				return fmt.Errorf("column %s: %v", name, err)
			}
			if len(refCols) != 1 {
				p.addIssue(p.cur, "multi-column reference on %s.%s not supported", tbl.Name, name)
				continue
			}
			tbl.ForeignKeys = append(tbl.ForeignKeys, &schema.ForeignKey{
				FromTable:  tbl.Name,
				FromColumn: name,
				ToTable:    refTable,
				ToColumn:   refCols[0],
			})

		case TokenComment:
			p.next()
			if p.cur.Type != TokenString {
				return fmt.Errorf("column %s: COMMENT requires a string at line %d", name, p.lineOf(p.cur))
			}
			col.Comment = p.cur.Literal
			col.Annotation = schema.ParseAnnotation(p.cur.Literal)
			p.next()

		default:
			// CHECK, COLLATE, ON UPDATE and friends: no model impact.
			p.skipToken()
		}
	}
}

// parseColumnType reads a type word with optional parenthesised arguments
// and an optional UNSIGNED marker, normalized to lower case.
func (p *parser) parseColumnType() (string, error) {
	if p.cur.Type != TokenIdent {
		return "", fmt.Errorf("expected type, got %s at line %d", tokenDesc(p.cur), p.lineOf(p.cur))
	}

	var b strings.Builder
	b.WriteString(strings.ToLower(p.cur.Literal))
	p.next()

	if p.accept(TokenLParen) {
		b.WriteByte('(')
		first := true
		for p.cur.Type != TokenRParen && p.cur.Type != TokenEOF {
			if !first && !p.accept(TokenComma) {
				return "", fmt.Errorf("malformed type arguments at line %d", p.lineOf(p.cur))
			}
			if !first {
				b.WriteByte(',')
			}
			switch p.cur.Type {
			case TokenNumber, TokenIdent:
				b.WriteString(strings.ToLower(p.cur.Literal))
			case TokenString:
				b.WriteString("'" + p.cur.Literal + "'")
			default:
				return "", fmt.Errorf("malformed type arguments at line %d", p.lineOf(p.cur))
			}
			p.next()
			first = false
		}
		if err := p.expect(TokenRParen); err != nil {
			return "", err
		}
		b.WriteByte(')')
	}

	if p.accept(TokenUnsigned) {
		b.WriteString(" unsigned")
	}

	return b.String(), nil
}

// parseDefaultValue consumes a DEFAULT value: literal, NULL, bare word, or
// function call. Negative numbers arrive as a minus followed by a number.
func (p *parser) parseDefaultValue(col string) error {
	switch p.cur.Type {
	case TokenString, TokenNumber, TokenNull:
		p.next()
		return nil
	case TokenIdent:
		p.next()
		if p.cur.Type == TokenLParen {
			p.skipBalanced()
		}
		return nil
	case TokenIllegal:
		if p.cur.Literal == "-" && p.peek.Type == TokenNumber {
			p.next()
			p.next()
			return nil
		}
	}
	return fmt.Errorf("column %s: expected default value, got %s at line %d", col, tokenDesc(p.cur), p.lineOf(p.cur))
}

// parseIdentList parses "(" ident ("," ident)* ")".
func (p *parser) parseIdentList() ([]string, error) {
	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var cols []string
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		cols = append(cols, name)
		if !p.accept(TokenComma) {
			break
		}
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return cols, nil
}

// parseTableOptions consumes everything after the closing paren. Only the
// table comment is retained; ENGINE, CHARSET and the rest have no model
// impact.
func (p *parser) parseTableOptions(tbl *schema.Table) {
	for p.cur.Type != TokenEOF && p.cur.Type != TokenSemicolon {
		if p.cur.Type == TokenComment {
			p.next()
			p.accept(TokenEq)
			if p.cur.Type == TokenString {
				tbl.Comment = p.cur.Literal
				p.next()
				continue
			}
			continue
		}
		p.skipToken()
	}
}

// skipToken advances past one token, consuming a whole balanced group when
// the token opens a paren.
func (p *parser) skipToken() {
	if p.cur.Type == TokenLParen {
		p.skipBalanced()
		return
	}
	p.next()
}

// skipBalanced consumes a balanced parenthesised group starting at the
// current opening paren.
func (p *parser) skipBalanced() {
	depth := 0
	for {
		switch p.cur.Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				p.next()
				return
			}
		case TokenEOF:
			return
		}
		p.next()
	}
}

// skipItemRest consumes the remainder of the current table item up to the
// separating comma or the closing paren of the item list.
func (p *parser) skipItemRest() {
	for {
		switch p.cur.Type {
		case TokenComma, TokenRParen, TokenEOF:
			return
		case TokenLParen:
			p.skipBalanced()
		default:
			p.next()
		}
	}
}

// baseType strips type arguments: "int(11) unsigned" → "int".
func baseType(typ string) string {
	if i := strings.IndexAny(typ, "( "); i >= 0 {
		return typ[:i]
	}
	return typ
}
