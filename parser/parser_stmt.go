package parser

import (
	"zsc/codegen"
	"zsc/types"
)

var typeKeywords = map[TokenType]*types.Type{
	TOKEN_KW_INT:    types.TypeInt,
	TOKEN_KW_FLOAT:  types.TypeFloat,
	TOKEN_KW_BOOL:   types.TypeBool,
	TOKEN_KW_NAME:   types.TypeName,
	TOKEN_KW_STRING: types.TypeString,
	TOKEN_KW_SOUND:  types.TypeSound,
	TOKEN_KW_COLOR:  types.TypeColor,
	TOKEN_KW_STATE:  types.TypeState,
}

// ParseProgram parses a statement sequence up to EOF into one compound
// statement.
func (p *Parser) ParseProgram() (codegen.Expression, error) {
	pos := p.pos()
	var stmts []codegen.Expression
	for p.current.Type != TOKEN_EOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	return codegen.NewCompoundStatement(pos, stmts...), nil
}

func (p *Parser) parseStatement() (codegen.Expression, error) {
	switch p.current.Type {
	case TOKEN_IF:
		return p.parseIfStatement()
	case TOKEN_WHILE:
		return p.parseWhileStatement()
	case TOKEN_DO:
		return p.parseDoWhileStatement()
	case TOKEN_FOR:
		return p.parseForStatement()
	case TOKEN_RETURN:
		return p.parseReturnStatement()
	case TOKEN_BREAK:
		pos := p.pos()
		p.nextToken()
		if err := p.expect(TOKEN_SEMICOLON); err != nil {
			return nil, err
		}
		return codegen.NewJumpStatement(pos, false), nil
	case TOKEN_CONTINUE:
		pos := p.pos()
		p.nextToken()
		if err := p.expect(TOKEN_SEMICOLON); err != nil {
			return nil, err
		}
		return codegen.NewJumpStatement(pos, true), nil
	case TOKEN_LBRACE:
		return p.parseBlock()
	case TOKEN_SEMICOLON:
		p.nextToken()
		return nil, nil
	}

	if _, ok := typeKeywords[p.current.Type]; ok {
		return p.parseDeclaration(true)
	}

	// Expression statement.
	e, err := p.ParseExpression(precedenceLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_SEMICOLON); err != nil {
		return nil, err
	}
	return e, nil
}

// parseBlock parses { stmt... } into a compound statement.
func (p *Parser) parseBlock() (codegen.Expression, error) {
	pos := p.pos()
	if err := p.expect(TOKEN_LBRACE); err != nil {
		return nil, err
	}
	var stmts []codegen.Expression
	for p.current.Type != TOKEN_RBRACE {
		if p.current.Type == TOKEN_EOF {
			return nil, p.errorf("unterminated block")
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	p.nextToken()
	return codegen.NewCompoundStatement(pos, stmts...), nil
}

// parseDeclaration parses "type name [= init]". The trailing semicolon is
// consumed when wantSemi is set; for-loop initializers leave it.
func (p *Parser) parseDeclaration(wantSemi bool) (codegen.Expression, error) {
	pos := p.pos()
	t := typeKeywords[p.current.Type]
	p.nextToken()
	if p.current.Type != TOKEN_IDENTIFIER {
		return nil, p.errorf("expected variable name, found %q", p.current.Value)
	}
	name := p.current.Value
	p.nextToken()

	var init codegen.Expression
	if p.current.Type == TOKEN_ASSIGN {
		p.nextToken()
		var err error
		if init, err = p.ParseExpression(precedenceLowest); err != nil {
			return nil, err
		}
	}
	if wantSemi {
		if err := p.expect(TOKEN_SEMICOLON); err != nil {
			return nil, err
		}
	}
	return codegen.NewLocalVariableDeclaration(pos, name, t, init), nil
}

func (p *Parser) parseCondition() (codegen.Expression, error) {
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.ParseExpression(precedenceLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *Parser) parseIfStatement() (codegen.Expression, error) {
	pos := p.pos()
	p.nextToken()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	var els codegen.Expression
	if p.current.Type == TOKEN_ELSE {
		p.nextToken()
		if els, err = p.parseStatement(); err != nil {
			return nil, err
		}
	}
	return codegen.NewIfStatement(pos, cond, then, els), nil
}

func (p *Parser) parseWhileStatement() (codegen.Expression, error) {
	pos := p.pos()
	p.nextToken()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return codegen.NewWhileLoop(pos, cond, body), nil
}

func (p *Parser) parseDoWhileStatement() (codegen.Expression, error) {
	pos := p.pos()
	p.nextToken()
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_WHILE); err != nil {
		return nil, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_SEMICOLON); err != nil {
		return nil, err
	}
	return codegen.NewDoWhileLoop(pos, cond, body), nil
}

func (p *Parser) parseForStatement() (codegen.Expression, error) {
	pos := p.pos()
	p.nextToken()
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}

	var init codegen.Expression
	var err error
	if p.current.Type != TOKEN_SEMICOLON {
		if _, ok := typeKeywords[p.current.Type]; ok {
			init, err = p.parseDeclaration(false)
		} else {
			init, err = p.ParseExpression(precedenceLowest)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(TOKEN_SEMICOLON); err != nil {
		return nil, err
	}

	var cond codegen.Expression
	if p.current.Type != TOKEN_SEMICOLON {
		if cond, err = p.ParseExpression(precedenceLowest); err != nil {
			return nil, err
		}
	}
	if err := p.expect(TOKEN_SEMICOLON); err != nil {
		return nil, err
	}

	var iter codegen.Expression
	if p.current.Type != TOKEN_RPAREN {
		if iter, err = p.ParseExpression(precedenceLowest); err != nil {
			return nil, err
		}
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return codegen.NewForLoop(pos, init, cond, iter, body), nil
}

func (p *Parser) parseReturnStatement() (codegen.Expression, error) {
	pos := p.pos()
	p.nextToken()
	if p.current.Type == TOKEN_SEMICOLON {
		p.nextToken()
		return codegen.NewReturnStatement(pos, nil), nil
	}
	value, err := p.ParseExpression(precedenceLowest)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TOKEN_SEMICOLON); err != nil {
		return nil, err
	}
	return codegen.NewReturnStatement(pos, value), nil
}

// ParseProgramString parses a statement sequence from source.
func ParseProgramString(file, input string) (codegen.Expression, error) {
	return NewParser(file, input).ParseProgram()
}
