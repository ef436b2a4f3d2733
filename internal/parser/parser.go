// Package parser turns a SaulScript token stream into an AST. The grammar
// has two layers: a thin recursive-descent layer for "if"/"while"/"for"/
// "return" statements (parseIf, parseWhile, parseFor, parseReturn), and a
// Shunting-Yard operator-expression parser (parseOperatorExpression) that
// folds literals, identifiers, function definitions, invocations,
// subscripts, and list/dict literals into a single tree while resolving
// operator precedence and associativity.
package parser

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cwbudde/saulscript/internal/ast"
	"github.com/cwbudde/saulscript/internal/serr"
	"github.com/cwbudde/saulscript/pkg/token"
)

// Parser consumes a fixed token slice head-first with one token of
// lookahead (Parser.peek). Nothing ever back-references a token once
// consumed.
type Parser struct {
	tokens []token.Token
	pos    int
}

// Parse lexes-adjacent tokens into the program's root Branch.
func Parse(tokens []token.Token) (ast.Branch, error) {
	p := &Parser{tokens: tokens}
	var program ast.Branch
	for !p.atEnd() {
		n, err := p.handleExpression()
		if err != nil {
			return nil, err
		}
		if n != nil {
			program = append(program, n)
		}
	}
	return program, nil
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *Parser) peek() token.Token {
	if p.atEnd() {
		return token.Token{Type: token.EOF, Pos: token.Position{Line: p.lastLine()}}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i < 0 || i >= len(p.tokens) {
		return token.Token{Type: token.EOF, Pos: token.Position{Line: p.lastLine()}}
	}
	return p.tokens[i]
}

func (p *Parser) next() token.Token {
	tok := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) lastLine() int {
	if len(p.tokens) == 0 {
		return 1
	}
	return p.tokens[len(p.tokens)-1].Pos.Line
}

func (p *Parser) skipNewlines() {
	for p.peek().Type == token.LineTerminator {
		p.next()
	}
}

func (p *Parser) expectIdent(word string) error {
	tok := p.next()
	if tok.Type != token.Identifier || tok.Literal != word {
		return serr.ParseError{Line: tok.Pos.Line, Msg: fmt.Sprintf("expected %q, got %q", word, tok.Literal)}
	}
	return nil
}

// handleExpression is the top-level dispatch of §4.2: it routes to a
// statement handler, an operator expression, or produces a Nop for a bare
// line terminator.
func (p *Parser) handleExpression() (ast.Node, error) {
	tok := p.peek()

	switch tok.Type {
	case token.LineTerminator:
		p.next()
		return &ast.Nop{Ln: tok.Pos.Line}, nil

	case token.RightBrace:
		return nil, serr.ParseError{Line: tok.Pos.Line, Msg: "Unexpected }"}

	case token.Identifier:
		switch tok.Literal {
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "return":
			return p.parseReturn()
		default:
			return p.parseOperatorExpression()
		}

	case token.EOF:
		return nil, serr.OutOfTokens{Line: tok.Pos.Line, Msg: "unexpected end of input"}

	default:
		return p.parseOperatorExpression()
	}
}

// parseBranchUntilIdent collects expressions into a Branch until the next
// token is one of an identifier in stops (which is left unconsumed for the
// caller) or the stream runs out (an OutOfTokens error).
func (p *Parser) parseBranchUntilIdent(stops ...string) (ast.Branch, error) {
	var branch ast.Branch
	for {
		if p.atEnd() {
			return nil, serr.OutOfTokens{Line: p.lastLine(), Msg: fmt.Sprintf("expected one of %v", stops)}
		}
		tok := p.peek()
		if tok.Type == token.Identifier {
			for _, s := range stops {
				if tok.Literal == s {
					return branch, nil
				}
			}
		}
		n, err := p.handleExpression()
		if err != nil {
			return nil, err
		}
		if n != nil {
			branch = append(branch, n)
		}
	}
}

// parseBranchUntilBrace collects expressions into a Branch until a closing
// '}' is found, consuming it. Used for function bodies.
func (p *Parser) parseBranchUntilBrace() (ast.Branch, error) {
	var branch ast.Branch
	for {
		if p.atEnd() {
			return nil, serr.OutOfTokens{Line: p.lastLine(), Msg: "expected '}'"}
		}
		if p.peek().Type == token.RightBrace {
			p.next()
			return branch, nil
		}
		n, err := p.handleExpression()
		if err != nil {
			return nil, err
		}
		if n != nil {
			branch = append(branch, n)
		}
	}
}

func (p *Parser) parseIf() (ast.Node, error) {
	ifTok := p.next() // "if"
	cond, err := p.parseOperatorExpression()
	if err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, serr.ParseError{Line: ifTok.Pos.Line, Msg: "expected condition after 'if'"}
	}

	thenBranch, err := p.parseBranchUntilIdent("else", "end")
	if err != nil {
		return nil, err
	}

	var elseBranch ast.Branch
	if p.peek().Literal == "else" {
		p.next()
		elseBranch, err = p.parseBranchUntilIdent("end")
		if err != nil {
			return nil, err
		}
	}

	if err := p.expectIdent("end"); err != nil {
		return nil, err
	}
	if err := p.expectIdent("if"); err != nil {
		return nil, err
	}

	return &ast.If{Cond: cond, Then: thenBranch, Else: elseBranch, Ln: ifTok.Pos.Line}, nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	whileTok := p.next() // "while"
	cond, err := p.parseOperatorExpression()
	if err != nil {
		return nil, err
	}
	if cond == nil {
		return nil, serr.ParseError{Line: whileTok.Pos.Line, Msg: "expected condition after 'while'"}
	}

	body, err := p.parseBranchUntilIdent("end")
	if err != nil {
		return nil, err
	}
	if err := p.expectIdent("end"); err != nil {
		return nil, err
	}
	if err := p.expectIdent("while"); err != nil {
		return nil, err
	}

	return &ast.While{Cond: cond, Body: body, Ln: whileTok.Pos.Line}, nil
}

func (p *Parser) parseFor() (ast.Node, error) {
	forTok := p.next() // "for"
	nameTok := p.next()
	if nameTok.Type != token.Identifier {
		return nil, serr.ParseError{Line: nameTok.Pos.Line, Msg: "expected loop variable name after 'for'"}
	}
	if err := p.expectIdent("in"); err != nil {
		return nil, err
	}
	iterable, err := p.parseOperatorExpression()
	if err != nil {
		return nil, err
	}
	if iterable == nil {
		return nil, serr.ParseError{Line: forTok.Pos.Line, Msg: "expected iterable expression after 'in'"}
	}

	body, err := p.parseBranchUntilIdent("end")
	if err != nil {
		return nil, err
	}
	if err := p.expectIdent("end"); err != nil {
		return nil, err
	}
	if err := p.expectIdent("for"); err != nil {
		return nil, err
	}

	return &ast.For{Name: nameTok.Literal, Iterable: iterable, Body: body, Ln: forTok.Pos.Line}, nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	retTok := p.next() // "return"
	val, err := p.parseOperatorExpression()
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, serr.ParseError{Line: retTok.Pos.Line, Msg: "expected expression after 'return'"}
	}
	return &ast.Return{Value: val, Ln: retTok.Pos.Line}, nil
}

// ---- Shunting-Yard operator expressions (§4.3-§4.5) ----

// shuntItem is either a folded atom/aggregate node or an operator token
// still awaiting its place in the postfix output.
type shuntItem struct {
	node ast.Node
	op   *token.Token
}

// parseOperatorExpression parses the maximal run of atoms/operators/parens
// starting at the current token and folds it into a single AST node. It
// returns (nil, nil) if the expression is empty (e.g. a stray newline
// immediately following a comma).
func (p *Parser) parseOperatorExpression() (ast.Node, error) {
	var output []shuntItem
	var opStack []token.Token
	parenDepth := 0
	lastWasOperand := false

loop:
	for !p.atEnd() {
		tok := p.peek()

		switch tok.Type {
		case token.LineTerminator, token.Comma:
			break loop

		case token.RightBrace:
			if parenDepth == 0 {
				break loop
			}
			return nil, serr.ParseError{Line: tok.Pos.Line, Msg: "Unexpected } inside expression"}

		case token.RightBracket:
			if parenDepth == 0 {
				break loop
			}
			return nil, serr.ParseError{Line: tok.Pos.Line, Msg: "Unexpected ] inside expression"}

		case token.RightParen:
			parenDepth--
			if parenDepth < 0 {
				break loop
			}
			p.next()
			for len(opStack) > 0 && opStack[len(opStack)-1].Op != token.OpLParen {
				top := opStack[len(opStack)-1]
				opStack = opStack[:len(opStack)-1]
				output = append(output, shuntItem{op: &top})
			}
			if len(opStack) == 0 {
				return nil, serr.ParseError{Line: tok.Pos.Line, Msg: "mismatched parentheses"}
			}
			opStack = opStack[:len(opStack)-1] // discard matching '('
			lastWasOperand = true

		case token.LeftParen:
			parenDepth++
			p.next()
			opStack = append(opStack, token.Token{Type: token.Operator, Op: token.OpLParen, Pos: tok.Pos})
			lastWasOperand = false

		case token.LeftBrace:
			dictNode, err := p.parseDictLiteral()
			if err != nil {
				return nil, err
			}
			output = append(output, shuntItem{node: dictNode})
			lastWasOperand = true

		case token.LeftBracket:
			listNode, err := p.parseListLiteral()
			if err != nil {
				return nil, err
			}
			output = append(output, shuntItem{node: listNode})
			lastWasOperand = true

		case token.Number:
			p.next()
			d, derr := decimal.NewFromString(tok.Literal)
			if derr != nil {
				return nil, serr.ParseError{Line: tok.Pos.Line, Msg: fmt.Sprintf("invalid number literal %q", tok.Literal)}
			}
			output = append(output, shuntItem{node: &ast.Number{Value: d, Ln: tok.Pos.Line}})
			lastWasOperand = true

		case token.String:
			p.next()
			output = append(output, shuntItem{node: &ast.String{Value: tok.Literal, Ln: tok.Pos.Line}})
			lastWasOperand = true

		case token.Identifier:
			node, err := p.parseIdentifierAtom()
			if err != nil {
				return nil, err
			}
			output = append(output, shuntItem{node: node})
			lastWasOperand = true

		case token.Operator:
			p.next()
			opTok := tok
			if opTok.Op == token.OpSub && !lastWasOperand {
				opTok.Op = token.OpNeg
				opTok.OpInfo = token.Lookup(token.OpNeg)
			}
			info := opTok.OpInfo
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				if top.Op == token.OpLParen {
					break
				}
				pop := (info.Assoc == token.LeftAssoc && top.OpInfo.Precedence <= info.Precedence) ||
					(info.Assoc == token.RightAssoc && top.OpInfo.Precedence < info.Precedence)
				if !pop {
					break
				}
				opStack = opStack[:len(opStack)-1]
				output = append(output, shuntItem{op: &top})
			}
			opStack = append(opStack, opTok)
			lastWasOperand = false

		default:
			break loop
		}
	}

	for len(opStack) > 0 {
		top := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		if top.Op == token.OpLParen {
			return nil, serr.ParseError{Line: top.Pos.Line, Msg: "mismatched parentheses"}
		}
		output = append(output, shuntItem{op: &top})
	}

	if len(output) == 0 {
		return nil, nil
	}

	return foldPostfix(output)
}

// parseIdentifierAtom decides, by peeking one token ahead, whether an
// identifier starts a function definition, an invocation, a subscript, or
// is a plain variable/boolean atom (§4.3, §4.4).
func (p *Parser) parseIdentifierAtom() (ast.Node, error) {
	tok := p.peek()
	next := p.peekAt(1)

	switch {
	case next.Type == token.LeftParen && tok.Literal == "function":
		return p.parseFunctionDef()
	case next.Type == token.LeftParen:
		return p.parseInvocation()
	case next.Type == token.LeftBracket:
		return p.parseSubscript()
	default:
		p.next()
		switch tok.Literal {
		case "true":
			return &ast.Bool{Value: true, Ln: tok.Pos.Line}, nil
		case "false":
			return &ast.Bool{Value: false, Ln: tok.Pos.Line}, nil
		default:
			return &ast.Variable{Name: tok.Literal, Ln: tok.Pos.Line}, nil
		}
	}
}

func (p *Parser) parseListLiteral() (ast.Node, error) {
	open := p.next() // '['
	var elems []ast.Node
	p.skipNewlines()
	for p.peek().Type != token.RightBracket {
		if p.atEnd() {
			return nil, serr.OutOfTokens{Line: open.Pos.Line, Msg: "unterminated list literal"}
		}
		elem, err := p.parseOperatorExpression()
		if err != nil {
			return nil, err
		}
		if elem != nil {
			elems = append(elems, elem)
		}
		if p.peek().Type == token.Comma {
			p.next()
		}
		p.skipNewlines()
	}
	p.next() // ']'
	return &ast.List{Elements: elems, Ln: open.Pos.Line}, nil
}

func (p *Parser) parseDictLiteral() (ast.Node, error) {
	open := p.next() // '{'
	var entries []ast.DictEntry
	p.skipNewlines()
	for p.peek().Type != token.RightBrace {
		if p.atEnd() {
			return nil, serr.OutOfTokens{Line: open.Pos.Line, Msg: "unterminated dict literal"}
		}
		keyTok := p.peek()
		switch keyTok.Type {
		case token.Identifier, token.Number, token.String:
			p.next()
		default:
			return nil, serr.ParseError{Line: keyTok.Pos.Line, Msg: "expected dict key"}
		}
		if p.peek().Type != token.Colon {
			return nil, serr.ParseError{Line: keyTok.Pos.Line, Msg: "expected ':' after dict key"}
		}
		p.next() // ':'
		val, err := p.parseOperatorExpression()
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, serr.ParseError{Line: keyTok.Pos.Line, Msg: "expected expression after ':'"}
		}
		entries = append(entries, ast.DictEntry{Key: keyTok.Literal, Value: val})
		if p.peek().Type == token.Comma {
			p.next()
		}
		p.skipNewlines()
	}
	p.next() // '}'
	return &ast.Dict{Entries: entries, Ln: open.Pos.Line}, nil
}

func (p *Parser) parseFunctionDef() (ast.Node, error) {
	fnTok := p.next() // "function"
	p.next()          // '('
	var params []string
	p.skipNewlines()
	for p.peek().Type != token.RightParen {
		if p.atEnd() {
			return nil, serr.OutOfTokens{Line: fnTok.Pos.Line, Msg: "unterminated parameter list"}
		}
		pt := p.peek()
		if pt.Type != token.Identifier {
			return nil, serr.ParseError{Line: pt.Pos.Line, Msg: "expected parameter name"}
		}
		p.next()
		params = append(params, pt.Literal)
		if p.peek().Type == token.Comma {
			p.next()
		}
		p.skipNewlines()
	}
	p.next() // ')'

	if p.peek().Type != token.LeftBrace {
		return nil, serr.ParseError{Line: fnTok.Pos.Line, Msg: "expected '{' to start function body"}
	}
	p.next() // '{'
	body, err := p.parseBranchUntilBrace()
	if err != nil {
		return nil, err
	}
	return &ast.Function{Params: params, Body: body, Ln: fnTok.Pos.Line}, nil
}

func (p *Parser) parseInvocation() (ast.Node, error) {
	calleeTok := p.next() // identifier
	p.next()              // '('
	var args []ast.Node
	p.skipNewlines()
	for p.peek().Type != token.RightParen {
		if p.atEnd() {
			return nil, serr.OutOfTokens{Line: calleeTok.Pos.Line, Msg: "unterminated argument list"}
		}
		argStart := p.peek()
		arg, err := p.parseOperatorExpression()
		if err != nil {
			return nil, err
		}
		if arg == nil {
			return nil, serr.ParseError{Line: argStart.Pos.Line, Msg: "empty argument"}
		}
		args = append(args, arg)
		if p.peek().Type == token.Comma {
			p.next()
		}
		p.skipNewlines()
	}
	p.next() // ')'
	return &ast.Invocation{Callee: calleeTok.Literal, Args: args, Ln: calleeTok.Pos.Line}, nil
}

func (p *Parser) parseSubscript() (ast.Node, error) {
	baseTok := p.next() // identifier
	p.next()            // '['
	idx, err := p.parseOperatorExpression()
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, serr.ParseError{Line: baseTok.Pos.Line, Msg: "expected subscript expression"}
	}
	if p.peek().Type != token.RightBracket {
		return nil, serr.ParseError{Line: baseTok.Pos.Line, Msg: "expected ']'"}
	}
	p.next() // ']'
	return &ast.Binary{
		Op:    ast.OpSubscript,
		Left:  &ast.Variable{Name: baseTok.Literal, Ln: baseTok.Pos.Line},
		Right: idx,
		Ln:    baseTok.Pos.Line,
	}, nil
}

// foldPostfix walks the postfix output of the Shunting-Yard pass and
// builds a single AST node, per §4.3's final paragraph.
func foldPostfix(output []shuntItem) (ast.Node, error) {
	var stack []ast.Node
	for _, it := range output {
		if it.node != nil {
			stack = append(stack, it.node)
			continue
		}
		opTok := *it.op
		if opTok.OpInfo.Arity == token.Unary {
			if len(stack) < 1 {
				return nil, serr.ParseError{Line: opTok.Pos.Line, Msg: "operator missing operand"}
			}
			target := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, &ast.Unary{Op: ast.OpNeg, Target: target, Ln: opTok.Pos.Line})
			continue
		}

		if len(stack) < 2 {
			return nil, serr.ParseError{Line: opTok.Pos.Line, Msg: "operator missing operand"}
		}
		right := stack[len(stack)-1]
		left := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		binOp, err := binaryOpFor(opTok.Op)
		if err != nil {
			return nil, serr.ParseError{Line: opTok.Pos.Line, Msg: err.Error()}
		}
		if binOp == ast.OpAssign && !isValidAssignTarget(left) {
			return nil, serr.ParseError{Line: opTok.Pos.Line, Msg: "assignment target must be a variable or subscript"}
		}
		stack = append(stack, &ast.Binary{Op: binOp, Left: left, Right: right, Ln: opTok.Pos.Line})
	}

	if len(stack) != 1 {
		line := 0
		if len(output) > 0 && output[len(output)-1].op != nil {
			line = output[len(output)-1].op.Pos.Line
		}
		return nil, serr.ParseError{Line: line, Msg: "malformed expression"}
	}
	return stack[0], nil
}

func binaryOpFor(k token.OpKind) (ast.BinaryOp, error) {
	switch k {
	case token.OpAdd:
		return ast.OpAdd, nil
	case token.OpSub:
		return ast.OpSub, nil
	case token.OpMul:
		return ast.OpMul, nil
	case token.OpDiv:
		return ast.OpDiv, nil
	case token.OpPow:
		return ast.OpPow, nil
	case token.OpEq:
		return ast.OpEq, nil
	case token.OpLt:
		return ast.OpLt, nil
	case token.OpGt:
		return ast.OpGt, nil
	case token.OpLe:
		return ast.OpLe, nil
	case token.OpGe:
		return ast.OpGe, nil
	case token.OpAssign:
		return ast.OpAssign, nil
	case token.OpDot:
		return ast.OpDot, nil
	default:
		return 0, fmt.Errorf("operator %s cannot appear as a binary node", k)
	}
}

func isValidAssignTarget(n ast.Node) bool {
	switch t := n.(type) {
	case *ast.Variable:
		return true
	case *ast.Binary:
		return t.Op == ast.OpSubscript
	default:
		return false
	}
}
