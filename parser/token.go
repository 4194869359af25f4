package parser

// TokenType identifies a lexical token.
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota
	TOKEN_ILLEGAL

	// Literals
	TOKEN_INT    // 42, 0x2a
	TOKEN_FLOAT  // 3.14
	TOKEN_STRING // "hello"
	TOKEN_NAME   // 'DoomImp'

	// Keywords
	TOKEN_IF
	TOKEN_ELSE
	TOKEN_WHILE
	TOKEN_DO
	TOKEN_FOR
	TOKEN_RETURN
	TOKEN_BREAK
	TOKEN_CONTINUE
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_NULL

	// Type keywords for local declarations
	TOKEN_KW_INT
	TOKEN_KW_FLOAT
	TOKEN_KW_BOOL
	TOKEN_KW_NAME
	TOKEN_KW_STRING
	TOKEN_KW_SOUND
	TOKEN_KW_COLOR
	TOKEN_KW_STATE

	// Identifiers
	TOKEN_IDENTIFIER

	// Operators
	TOKEN_PLUS    // +
	TOKEN_MINUS   // -
	TOKEN_STAR    // *
	TOKEN_SLASH   // /
	TOKEN_PERCENT // %
	TOKEN_POW     // **

	TOKEN_EQ     // ==
	TOKEN_NE     // !=
	TOKEN_APX    // ~==
	TOKEN_LT     // <
	TOKEN_GT     // >
	TOKEN_LE     // <=
	TOKEN_GE     // >=
	TOKEN_LTGTEQ // <>=

	TOKEN_AND // &&
	TOKEN_OR  // ||
	TOKEN_NOT // !

	TOKEN_BITAND // &
	TOKEN_BITOR  // |
	TOKEN_BITXOR // ^
	TOKEN_BITNOT // ~
	TOKEN_LSHIFT // <<
	TOKEN_RSHIFT // >>
	TOKEN_URSHIFT // >>>

	TOKEN_ASSIGN         // =
	TOKEN_PLUS_ASSIGN    // +=
	TOKEN_MINUS_ASSIGN   // -=
	TOKEN_STAR_ASSIGN    // *=
	TOKEN_SLASH_ASSIGN   // /=
	TOKEN_PERCENT_ASSIGN // %=
	TOKEN_AND_ASSIGN     // &=
	TOKEN_OR_ASSIGN      // |=
	TOKEN_XOR_ASSIGN     // ^=
	TOKEN_LSHIFT_ASSIGN  // <<=
	TOKEN_RSHIFT_ASSIGN  // >>=
	TOKEN_INCR           // ++
	TOKEN_DECR           // --

	TOKEN_QUESTION // ?
	TOKEN_COLON    // :

	// Delimiters
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )
	TOKEN_LBRACKET  // [
	TOKEN_RBRACKET  // ]
	TOKEN_LBRACE    // {
	TOKEN_RBRACE    // }
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_DOT       // .
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:        "EOF",
	TOKEN_ILLEGAL:    "ILLEGAL",
	TOKEN_INT:        "INT",
	TOKEN_FLOAT:      "FLOAT",
	TOKEN_STRING:     "STRING",
	TOKEN_NAME:       "NAME",
	TOKEN_IF:         "if",
	TOKEN_ELSE:       "else",
	TOKEN_WHILE:      "while",
	TOKEN_DO:         "do",
	TOKEN_FOR:        "for",
	TOKEN_RETURN:     "return",
	TOKEN_BREAK:      "break",
	TOKEN_CONTINUE:   "continue",
	TOKEN_TRUE:       "true",
	TOKEN_FALSE:      "false",
	TOKEN_NULL:       "null",
	TOKEN_KW_INT:     "int",
	TOKEN_KW_FLOAT:   "float",
	TOKEN_KW_BOOL:    "bool",
	TOKEN_KW_NAME:    "name",
	TOKEN_KW_STRING:  "string",
	TOKEN_KW_SOUND:   "sound",
	TOKEN_KW_COLOR:   "color",
	TOKEN_KW_STATE:   "state",
	TOKEN_IDENTIFIER: "IDENTIFIER",

	TOKEN_PLUS:    "+",
	TOKEN_MINUS:   "-",
	TOKEN_STAR:    "*",
	TOKEN_SLASH:   "/",
	TOKEN_PERCENT: "%",
	TOKEN_POW:     "**",

	TOKEN_EQ:     "==",
	TOKEN_NE:     "!=",
	TOKEN_APX:    "~==",
	TOKEN_LT:     "<",
	TOKEN_GT:     ">",
	TOKEN_LE:     "<=",
	TOKEN_GE:     ">=",
	TOKEN_LTGTEQ: "<>=",

	TOKEN_AND: "&&",
	TOKEN_OR:  "||",
	TOKEN_NOT: "!",

	TOKEN_BITAND:  "&",
	TOKEN_BITOR:   "|",
	TOKEN_BITXOR:  "^",
	TOKEN_BITNOT:  "~",
	TOKEN_LSHIFT:  "<<",
	TOKEN_RSHIFT:  ">>",
	TOKEN_URSHIFT: ">>>",

	TOKEN_ASSIGN:         "=",
	TOKEN_PLUS_ASSIGN:    "+=",
	TOKEN_MINUS_ASSIGN:   "-=",
	TOKEN_STAR_ASSIGN:    "*=",
	TOKEN_SLASH_ASSIGN:   "/=",
	TOKEN_PERCENT_ASSIGN: "%=",
	TOKEN_AND_ASSIGN:     "&=",
	TOKEN_OR_ASSIGN:      "|=",
	TOKEN_XOR_ASSIGN:     "^=",
	TOKEN_LSHIFT_ASSIGN:  "<<=",
	TOKEN_RSHIFT_ASSIGN:  ">>=",
	TOKEN_INCR:           "++",
	TOKEN_DECR:           "--",

	TOKEN_QUESTION:  "?",
	TOKEN_COLON:     ":",
	TOKEN_LPAREN:    "(",
	TOKEN_RPAREN:    ")",
	TOKEN_LBRACKET:  "[",
	TOKEN_RBRACKET:  "]",
	TOKEN_LBRACE:    "{",
	TOKEN_RBRACE:    "}",
	TOKEN_COMMA:     ",",
	TOKEN_SEMICOLON: ";",
	TOKEN_DOT:       ".",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

var keywords = map[string]TokenType{
	"if":       TOKEN_IF,
	"else":     TOKEN_ELSE,
	"while":    TOKEN_WHILE,
	"do":       TOKEN_DO,
	"for":      TOKEN_FOR,
	"return":   TOKEN_RETURN,
	"break":    TOKEN_BREAK,
	"continue": TOKEN_CONTINUE,
	"true":     TOKEN_TRUE,
	"false":    TOKEN_FALSE,
	"null":     TOKEN_NULL,
	"int":      TOKEN_KW_INT,
	"float":    TOKEN_KW_FLOAT,
	"bool":     TOKEN_KW_BOOL,
	"name":     TOKEN_KW_NAME,
	"string":   TOKEN_KW_STRING,
	"sound":    TOKEN_KW_SOUND,
	"color":    TOKEN_KW_COLOR,
	"state":    TOKEN_KW_STATE,
}

// lookupIdent returns the keyword token for an identifier, or
// TOKEN_IDENTIFIER. Keywords are case-insensitive like the rest of the
// language.
func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[lower(ident)]; ok {
		return tok
	}
	return TOKEN_IDENTIFIER
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// Token is one lexical token with its source position.
type Token struct {
	Type  TokenType
	Value string
	Line  int
}
