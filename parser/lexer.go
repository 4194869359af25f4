package parser

// Lexer tokenizes script source.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
	line         int
}

// NewLexer returns a lexer over input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	if l.ch == '\n' {
		l.line++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekChar2() byte {
	if l.readPosition+1 >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+1]
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
			continue
		}
		return
	}
}

// two emits a two-character operator token.
func (l *Lexer) two(t TokenType) Token {
	v := l.input[l.position : l.position+2]
	line := l.line
	l.readChar()
	l.readChar()
	return Token{Type: t, Value: v, Line: line}
}

func (l *Lexer) one(t TokenType) Token {
	tok := Token{Type: t, Value: string(l.ch), Line: l.line}
	l.readChar()
	return tok
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	line := l.line

	switch l.ch {
	case 0:
		return Token{Type: TOKEN_EOF, Line: line}
	case '(':
		return l.one(TOKEN_LPAREN)
	case ')':
		return l.one(TOKEN_RPAREN)
	case '[':
		return l.one(TOKEN_LBRACKET)
	case ']':
		return l.one(TOKEN_RBRACKET)
	case '{':
		return l.one(TOKEN_LBRACE)
	case '}':
		return l.one(TOKEN_RBRACE)
	case ',':
		return l.one(TOKEN_COMMA)
	case ';':
		return l.one(TOKEN_SEMICOLON)
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		return l.one(TOKEN_DOT)
	case '?':
		return l.one(TOKEN_QUESTION)
	case ':':
		return l.one(TOKEN_COLON)
	case '+':
		switch l.peekChar() {
		case '+':
			return l.two(TOKEN_INCR)
		case '=':
			return l.two(TOKEN_PLUS_ASSIGN)
		}
		return l.one(TOKEN_PLUS)
	case '-':
		switch l.peekChar() {
		case '-':
			return l.two(TOKEN_DECR)
		case '=':
			return l.two(TOKEN_MINUS_ASSIGN)
		}
		return l.one(TOKEN_MINUS)
	case '*':
		switch l.peekChar() {
		case '*':
			return l.two(TOKEN_POW)
		case '=':
			return l.two(TOKEN_STAR_ASSIGN)
		}
		return l.one(TOKEN_STAR)
	case '/':
		if l.peekChar() == '=' {
			return l.two(TOKEN_SLASH_ASSIGN)
		}
		return l.one(TOKEN_SLASH)
	case '%':
		if l.peekChar() == '=' {
			return l.two(TOKEN_PERCENT_ASSIGN)
		}
		return l.one(TOKEN_PERCENT)
	case '=':
		if l.peekChar() == '=' {
			return l.two(TOKEN_EQ)
		}
		return l.one(TOKEN_ASSIGN)
	case '!':
		if l.peekChar() == '=' {
			return l.two(TOKEN_NE)
		}
		return l.one(TOKEN_NOT)
	case '~':
		if l.peekChar() == '=' && l.peekChar2() == '=' {
			v := l.input[l.position : l.position+3]
			l.readChar()
			l.readChar()
			l.readChar()
			return Token{Type: TOKEN_APX, Value: v, Line: line}
		}
		return l.one(TOKEN_BITNOT)
	case '<':
		switch l.peekChar() {
		case '<':
			if l.peekChar2() == '=' {
				return l.three(TOKEN_LSHIFT_ASSIGN)
			}
			return l.two(TOKEN_LSHIFT)
		case '=':
			return l.two(TOKEN_LE)
		case '>':
			if l.peekChar2() == '=' {
				return l.three(TOKEN_LTGTEQ)
			}
			return Token{Type: TOKEN_ILLEGAL, Value: "<>", Line: line}
		}
		return l.one(TOKEN_LT)
	case '>':
		switch l.peekChar() {
		case '>':
			if l.peekChar2() == '>' {
				return l.three(TOKEN_URSHIFT)
			}
			if l.peekChar2() == '=' {
				return l.three(TOKEN_RSHIFT_ASSIGN)
			}
			return l.two(TOKEN_RSHIFT)
		case '=':
			return l.two(TOKEN_GE)
		}
		return l.one(TOKEN_GT)
	case '&':
		switch l.peekChar() {
		case '&':
			return l.two(TOKEN_AND)
		case '=':
			return l.two(TOKEN_AND_ASSIGN)
		}
		return l.one(TOKEN_BITAND)
	case '|':
		switch l.peekChar() {
		case '|':
			return l.two(TOKEN_OR)
		case '=':
			return l.two(TOKEN_OR_ASSIGN)
		}
		return l.one(TOKEN_BITOR)
	case '^':
		if l.peekChar() == '=' {
			return l.two(TOKEN_XOR_ASSIGN)
		}
		return l.one(TOKEN_BITXOR)
	case '"':
		return l.readString('"', TOKEN_STRING)
	case '\'':
		return l.readString('\'', TOKEN_NAME)
	}

	if isDigit(l.ch) {
		return l.readNumber()
	}
	if isLetter(l.ch) {
		return l.readIdentifier()
	}

	tok := Token{Type: TOKEN_ILLEGAL, Value: string(l.ch), Line: line}
	l.readChar()
	return tok
}

func (l *Lexer) three(t TokenType) Token {
	v := l.input[l.position : l.position+3]
	line := l.line
	l.readChar()
	l.readChar()
	l.readChar()
	return Token{Type: t, Value: v, Line: line}
}

func (l *Lexer) readIdentifier() Token {
	line := l.line
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	v := l.input[start:l.position]
	return Token{Type: lookupIdent(v), Value: v, Line: line}
}

func (l *Lexer) readNumber() Token {
	line := l.line
	start := l.position
	isFloat := false

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: TOKEN_INT, Value: l.input[start:l.position], Line: line}
	}

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	} else if l.ch == '.' && !isLetter(l.peekChar()) && l.peekChar() != '.' {
		// Trailing-dot floats like "1." are accepted.
		isFloat = true
		l.readChar()
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekChar2())) {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	t := TOKEN_INT
	if isFloat {
		t = TOKEN_FLOAT
	}
	return Token{Type: t, Value: l.input[start:l.position], Line: line}
}

func (l *Lexer) readString(quote byte, t TokenType) Token {
	line := l.line
	l.readChar()
	var out []byte
	for l.ch != quote {
		if l.ch == 0 {
			return Token{Type: TOKEN_ILLEGAL, Value: "unterminated string", Line: line}
		}
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '\\', '"', '\'':
				out = append(out, l.ch)
			case '0':
				out = append(out, 0)
			default:
				out = append(out, '\\', l.ch)
			}
			l.readChar()
			continue
		}
		out = append(out, l.ch)
		l.readChar()
	}
	l.readChar()
	return Token{Type: t, Value: string(out), Line: line}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool { return '0' <= ch && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || 'a' <= ch && ch <= 'f' || 'A' <= ch && ch <= 'F'
}
