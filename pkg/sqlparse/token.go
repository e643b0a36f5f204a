package sqlparse

// TokenType identifies the type of a lexical token.
type TokenType int

// Token types produced by the lexer.
const (
	TokenIllegal TokenType = iota
	TokenEOF
	TokenIdent  // unquoted, backtick-quoted, or double-quoted identifier
	TokenString // single-quoted string literal
	TokenNumber // integer or decimal literal

	TokenComma
	TokenDot
	TokenSemicolon
	TokenLParen
	TokenRParen
	TokenEq

	keywordStart
	TokenCreate
	TokenTable
	TokenIf
	TokenNot
	TokenExists
	TokenNull
	TokenDefault
	TokenPrimary
	TokenKey
	TokenUnique
	TokenForeign
	TokenReferences
	TokenConstraint
	TokenIndex
	TokenComment
	TokenCheck
	TokenAutoIncrement
	TokenUnsigned
	TokenEngine
	keywordEnd
)

// String returns the token type name for error messages.
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenIdent:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenComma:
		return ","
	case TokenDot:
		return "."
	case TokenSemicolon:
		return ";"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenEq:
		return "="
	case TokenCreate:
		return "CREATE"
	case TokenTable:
		return "TABLE"
	case TokenIf:
		return "IF"
	case TokenNot:
		return "NOT"
	case TokenExists:
		return "EXISTS"
	case TokenNull:
		return "NULL"
	case TokenDefault:
		return "DEFAULT"
	case TokenPrimary:
		return "PRIMARY"
	case TokenKey:
		return "KEY"
	case TokenUnique:
		return "UNIQUE"
	case TokenForeign:
		return "FOREIGN"
	case TokenReferences:
		return "REFERENCES"
	case TokenConstraint:
		return "CONSTRAINT"
	case TokenIndex:
		return "INDEX"
	case TokenComment:
		return "COMMENT"
	case TokenCheck:
		return "CHECK"
	case TokenAutoIncrement:
		return "AUTO_INCREMENT"
	case TokenUnsigned:
		return "UNSIGNED"
	case TokenEngine:
		return "ENGINE"
	default:
		return "unknown"
	}
}

// Token is a single lexical token with its position in the input.
type Token struct {
	Type    TokenType
	Literal string
	Line    int // 1-based line of the token start
	Col     int // 1-based column of the token start
}

// IsKeyword reports whether the token type is a keyword.
func (t TokenType) IsKeyword() bool {
	return t > keywordStart && t < keywordEnd
}

// keywords maps lowercased identifiers to keyword token types.
var keywords = map[string]TokenType{
	"create":         TokenCreate,
	"table":          TokenTable,
	"if":             TokenIf,
	"not":            TokenNot,
	"exists":         TokenExists,
	"null":           TokenNull,
	"default":        TokenDefault,
	"primary":        TokenPrimary,
	"key":            TokenKey,
	"unique":         TokenUnique,
	"foreign":        TokenForeign,
	"references":     TokenReferences,
	"constraint":     TokenConstraint,
	"index":          TokenIndex,
	"comment":        TokenComment,
	"check":          TokenCheck,
	"auto_increment": TokenAutoIncrement,
	"unsigned":       TokenUnsigned,
	"engine":         TokenEngine,
}

// LookupIdent returns the keyword type for an identifier, or TokenIdent.
// The lookup is case-insensitive; callers pass the lowercased literal.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TokenIdent
}
