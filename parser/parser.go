package parser

import (
	"fmt"
	"strconv"

	"zsc/codegen"
	"zsc/types"
)

// isRandomFamily reports whether name may carry a [rng] generator binding.
func isRandomFamily(name string) bool {
	switch lower(name) {
	case "random", "frandom", "random2", "randompick", "frandompick":
		return true
	}
	return false
}

// Operator precedence levels (higher binds tighter).
const (
	precedenceLowest = iota
	precedenceAssign     // = += -= ...
	precedenceTernary    // ? :
	precedenceOr         // ||
	precedenceAnd        // &&
	precedenceBitOr      // |
	precedenceBitXor     // ^
	precedenceBitAnd     // &
	precedenceEquality   // == != ~==
	precedenceComparison // < <= > >= <>=
	precedenceShift      // << >> >>>
	precedenceAdditive   // + -
	precedenceMultiply   // * / %
	precedenceExponent   // **
	precedenceUnary      // - ! ~ ++x --x
	precedencePostfix    // . [] () x++ x--
)

var precedences = map[TokenType]int{
	TOKEN_ASSIGN:         precedenceAssign,
	TOKEN_PLUS_ASSIGN:    precedenceAssign,
	TOKEN_MINUS_ASSIGN:   precedenceAssign,
	TOKEN_STAR_ASSIGN:    precedenceAssign,
	TOKEN_SLASH_ASSIGN:   precedenceAssign,
	TOKEN_PERCENT_ASSIGN: precedenceAssign,
	TOKEN_AND_ASSIGN:     precedenceAssign,
	TOKEN_OR_ASSIGN:      precedenceAssign,
	TOKEN_XOR_ASSIGN:     precedenceAssign,
	TOKEN_LSHIFT_ASSIGN:  precedenceAssign,
	TOKEN_RSHIFT_ASSIGN:  precedenceAssign,
	TOKEN_QUESTION:       precedenceTernary,
	TOKEN_OR:             precedenceOr,
	TOKEN_AND:            precedenceAnd,
	TOKEN_BITOR:          precedenceBitOr,
	TOKEN_BITXOR:         precedenceBitXor,
	TOKEN_BITAND:         precedenceBitAnd,
	TOKEN_EQ:             precedenceEquality,
	TOKEN_NE:             precedenceEquality,
	TOKEN_APX:            precedenceEquality,
	TOKEN_LT:             precedenceComparison,
	TOKEN_LE:             precedenceComparison,
	TOKEN_GT:             precedenceComparison,
	TOKEN_GE:             precedenceComparison,
	TOKEN_LTGTEQ:         precedenceComparison,
	TOKEN_LSHIFT:         precedenceShift,
	TOKEN_RSHIFT:         precedenceShift,
	TOKEN_URSHIFT:        precedenceShift,
	TOKEN_PLUS:           precedenceAdditive,
	TOKEN_MINUS:          precedenceAdditive,
	TOKEN_STAR:           precedenceMultiply,
	TOKEN_SLASH:          precedenceMultiply,
	TOKEN_PERCENT:        precedenceMultiply,
	TOKEN_POW:            precedenceExponent,
	TOKEN_DOT:            precedencePostfix,
	TOKEN_LBRACKET:       precedencePostfix,
	TOKEN_LPAREN:         precedencePostfix,
	TOKEN_INCR:           precedencePostfix,
	TOKEN_DECR:           precedencePostfix,
}

var binaryOps = map[TokenType]codegen.BinOp{
	TOKEN_PLUS:    codegen.BinAdd,
	TOKEN_MINUS:   codegen.BinSub,
	TOKEN_STAR:    codegen.BinMul,
	TOKEN_SLASH:   codegen.BinDiv,
	TOKEN_PERCENT: codegen.BinMod,
	TOKEN_BITAND:  codegen.BinAnd,
	TOKEN_BITOR:   codegen.BinOr,
	TOKEN_BITXOR:  codegen.BinXor,
	TOKEN_LSHIFT:  codegen.BinShl,
	TOKEN_RSHIFT:  codegen.BinShr,
	TOKEN_URSHIFT: codegen.BinUShr,
	TOKEN_LT:      codegen.BinLT,
	TOKEN_LE:      codegen.BinLE,
	TOKEN_GT:      codegen.BinGT,
	TOKEN_GE:      codegen.BinGE,
	TOKEN_EQ:      codegen.BinEQ,
	TOKEN_NE:      codegen.BinNE,
	TOKEN_APX:     codegen.BinAPX,
}

var compoundOps = map[TokenType]codegen.BinOp{
	TOKEN_PLUS_ASSIGN:    codegen.BinAdd,
	TOKEN_MINUS_ASSIGN:   codegen.BinSub,
	TOKEN_STAR_ASSIGN:    codegen.BinMul,
	TOKEN_SLASH_ASSIGN:   codegen.BinDiv,
	TOKEN_PERCENT_ASSIGN: codegen.BinMod,
	TOKEN_AND_ASSIGN:     codegen.BinAnd,
	TOKEN_OR_ASSIGN:      codegen.BinOr,
	TOKEN_XOR_ASSIGN:     codegen.BinXor,
	TOKEN_LSHIFT_ASSIGN:  codegen.BinShl,
	TOKEN_RSHIFT_ASSIGN:  codegen.BinShr,
}

// Parser turns script source into an unresolved expression tree.
type Parser struct {
	lexer   *Lexer
	file    string
	current Token
	peek    Token
}

// NewParser returns a parser over input. file names the source in
// positions.
func NewParser(file, input string) *Parser {
	p := &Parser{lexer: NewLexer(input), file: file}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.current = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) pos() codegen.Position {
	return codegen.Position{File: p.file, Line: p.current.Line}
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", p.file, p.current.Line, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(t TokenType) error {
	if p.current.Type != t {
		return p.errorf("expected %s, found %q", t, p.current.Value)
	}
	p.nextToken()
	return nil
}

// ParseExpression parses an expression at the given minimum precedence.
func (p *Parser) ParseExpression(minPrec int) (codegen.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := precedences[p.current.Type]
		if !ok || prec <= minPrec {
			return left, nil
		}
		if left, err = p.parseInfix(left, prec); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseInfix(left codegen.Expression, prec int) (codegen.Expression, error) {
	pos := p.pos()
	tok := p.current.Type

	switch tok {
	case TOKEN_QUESTION:
		p.nextToken()
		thenExpr, err := p.ParseExpression(precedenceLowest)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_COLON); err != nil {
			return nil, err
		}
		// Right associative: a ? b : c ? d : e groups to the right.
		elseExpr, err := p.ParseExpression(precedenceTernary - 1)
		if err != nil {
			return nil, err
		}
		return codegen.NewConditional(pos, left, thenExpr, elseExpr), nil

	case TOKEN_ASSIGN:
		p.nextToken()
		value, err := p.ParseExpression(precedenceAssign - 1)
		if err != nil {
			return nil, err
		}
		return codegen.NewAssign(pos, left, value), nil

	case TOKEN_INCR, TOKEN_DECR:
		p.nextToken()
		return codegen.NewIncrDecr(pos, left, tok == TOKEN_DECR, true), nil

	case TOKEN_DOT:
		p.nextToken()
		if p.current.Type != TOKEN_IDENTIFIER {
			return nil, p.errorf("expected member name after '.'")
		}
		member := p.current.Value
		p.nextToken()
		if p.current.Type == TOKEN_LPAREN {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return codegen.NewMemberFunctionCall(pos, left, member, args), nil
		}
		return codegen.NewMemberIdentifier(pos, left, member), nil

	case TOKEN_LBRACKET:
		p.nextToken()
		index, err := p.ParseExpression(precedenceLowest)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RBRACKET); err != nil {
			return nil, err
		}
		return codegen.NewArrayElement(pos, left, index), nil
	}

	if op, ok := compoundOps[tok]; ok {
		p.nextToken()
		value, err := p.ParseExpression(precedenceAssign - 1)
		if err != nil {
			return nil, err
		}
		return codegen.NewModifyAssign(pos, left, op, value), nil
	}

	p.nextToken()
	// ** is right associative; everything else groups left.
	rightPrec := prec
	if tok == TOKEN_POW {
		rightPrec = prec - 1
	}
	right, err := p.ParseExpression(rightPrec)
	if err != nil {
		return nil, err
	}

	switch tok {
	case TOKEN_AND:
		return codegen.NewBinaryLogical(pos, true, left, right), nil
	case TOKEN_OR:
		return codegen.NewBinaryLogical(pos, false, left, right), nil
	case TOKEN_POW:
		return codegen.NewPow(pos, left, right), nil
	case TOKEN_LTGTEQ:
		return codegen.NewLtGtEq(pos, left, right), nil
	case TOKEN_PLUS, TOKEN_MINUS:
		return codegen.NewAddSub(pos, binaryOps[tok], left, right), nil
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
		return codegen.NewMulDiv(pos, binaryOps[tok], left, right), nil
	case TOKEN_BITAND, TOKEN_BITOR, TOKEN_BITXOR, TOKEN_LSHIFT, TOKEN_RSHIFT, TOKEN_URSHIFT:
		return codegen.NewBinaryInt(pos, binaryOps[tok], left, right), nil
	case TOKEN_LT, TOKEN_LE, TOKEN_GT, TOKEN_GE:
		return codegen.NewCompareRel(pos, binaryOps[tok], left, right), nil
	case TOKEN_EQ, TOKEN_NE, TOKEN_APX:
		return codegen.NewCompareEq(pos, binaryOps[tok], left, right), nil
	}
	return nil, p.errorf("unexpected operator %s", tok)
}

func (p *Parser) parseUnary() (codegen.Expression, error) {
	pos := p.pos()

	switch p.current.Type {
	case TOKEN_MINUS:
		p.nextToken()
		x, err := p.parsePrecedence(precedenceUnary)
		if err != nil {
			return nil, err
		}
		return codegen.NewMinusSign(pos, x), nil
	case TOKEN_PLUS:
		p.nextToken()
		x, err := p.parsePrecedence(precedenceUnary)
		if err != nil {
			return nil, err
		}
		return codegen.NewPlusSign(pos, x), nil
	case TOKEN_NOT:
		p.nextToken()
		x, err := p.parsePrecedence(precedenceUnary)
		if err != nil {
			return nil, err
		}
		return codegen.NewBoolNot(pos, x), nil
	case TOKEN_BITNOT:
		p.nextToken()
		x, err := p.parsePrecedence(precedenceUnary)
		if err != nil {
			return nil, err
		}
		return codegen.NewBitNot(pos, x), nil
	case TOKEN_INCR, TOKEN_DECR:
		dec := p.current.Type == TOKEN_DECR
		p.nextToken()
		x, err := p.parsePrecedence(precedenceUnary)
		if err != nil {
			return nil, err
		}
		return codegen.NewIncrDecr(pos, x, dec, false), nil
	}
	return p.parsePrimary()
}

// parsePrecedence parses at exactly the given precedence floor; unary
// operands bind tighter than any binary operator.
func (p *Parser) parsePrecedence(prec int) (codegen.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		opPrec, ok := precedences[p.current.Type]
		if !ok || opPrec < prec {
			return left, nil
		}
		if left, err = p.parseInfix(left, opPrec); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parsePrimary() (codegen.Expression, error) {
	pos := p.pos()

	switch p.current.Type {
	case TOKEN_INT:
		v, err := parseIntValue(p.current.Value)
		if err != nil {
			return nil, p.errorf("bad integer literal %q", p.current.Value)
		}
		p.nextToken()
		return codegen.NewIntConstant(pos, v), nil

	case TOKEN_FLOAT:
		v, err := strconv.ParseFloat(p.current.Value, 64)
		if err != nil {
			return nil, p.errorf("bad float literal %q", p.current.Value)
		}
		p.nextToken()
		return codegen.NewFloatConstant(pos, v), nil

	case TOKEN_STRING:
		s := p.current.Value
		p.nextToken()
		return codegen.NewStringConstant(pos, s), nil

	case TOKEN_NAME:
		s := p.current.Value
		p.nextToken()
		return codegen.NewNameConstant(pos, s), nil

	case TOKEN_TRUE:
		p.nextToken()
		return codegen.NewBoolConstant(pos, true), nil

	case TOKEN_FALSE:
		p.nextToken()
		return codegen.NewBoolConstant(pos, false), nil

	case TOKEN_NULL:
		p.nextToken()
		return codegen.NewNullConstant(pos), nil

	case TOKEN_IDENTIFIER:
		name := p.current.Value
		p.nextToken()
		if p.current.Type == TOKEN_LBRACKET && isRandomFamily(name) {
			// random[sfx](min, max) binds the call to a named generator.
			p.nextToken()
			if p.current.Type != TOKEN_IDENTIFIER {
				return nil, p.errorf("expected random generator name, found %q", p.current.Value)
			}
			rng := p.current.Value
			p.nextToken()
			if err := p.expect(TOKEN_RBRACKET); err != nil {
				return nil, err
			}
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			call := codegen.NewFunctionCall(pos, name, args)
			call.Rng = types.NewName(lower(rng))
			return call, nil
		}
		if p.current.Type == TOKEN_LPAREN {
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			return codegen.NewFunctionCall(pos, name, args), nil
		}
		if lower(name) == "self" {
			return codegen.NewSelf(pos), nil
		}
		return codegen.NewIdentifier(pos, name), nil

	case TOKEN_LPAREN:
		p.nextToken()
		e, err := p.ParseExpression(precedenceLowest)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}

	return nil, p.errorf("unexpected token %q", p.current.Value)
}

func (p *Parser) parseArguments() ([]codegen.Expression, error) {
	if err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	var args []codegen.Expression
	if p.current.Type == TOKEN_RPAREN {
		p.nextToken()
		return nil, nil
	}
	for {
		a, err := p.ParseExpression(precedenceLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.current.Type == TOKEN_COMMA {
			p.nextToken()
			continue
		}
		break
	}
	if err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func parseIntValue(s string) (int32, error) {
	if len(s) > 2 && (s[1] == 'x' || s[1] == 'X') {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return int32(uint32(v)), err
	}
	// Decimal literals beyond the int32 range wrap the way the engine's
	// 32-bit arithmetic would.
	v, err := strconv.ParseInt(s, 10, 64)
	return int32(v), err
}

// ParseExpressionString parses a complete expression from source.
func ParseExpressionString(file, input string) (codegen.Expression, error) {
	p := NewParser(file, input)
	e, err := p.ParseExpression(precedenceLowest)
	if err != nil {
		return nil, err
	}
	if p.current.Type != TOKEN_EOF {
		return nil, p.errorf("trailing input after expression: %q", p.current.Value)
	}
	return e, nil
}
