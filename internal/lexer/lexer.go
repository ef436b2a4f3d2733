// Package lexer turns SaulScript source text into a flat token sequence.
//
// The scanner is a single left-to-right pass over the rune stream. Outside
// any literal it dispatches on the next character; inside a string, number,
// or identifier it runs a small dedicated loop that stops and pushes back
// the first character that doesn't belong. There is no token lookahead
// buffer: every accumulator function owns exactly the runes it consumes.
package lexer

import (
	"unicode"

	"github.com/cwbudde/saulscript/internal/serr"
	"github.com/cwbudde/saulscript/pkg/token"
)

// Lexer scans a complete source string into tokens. It holds no I/O state;
// Lex is the only entry point and runs to completion or to the first error.
type Lexer struct {
	src  []rune
	pos  int
	line int
}

// New creates a Lexer over src. Call Lex to scan it.
func New(src string) *Lexer {
	return &Lexer{src: []rune(src), line: 1}
}

// Lex scans the whole source and returns its token sequence, always
// terminated by at least one LineTerminator token.
func (l *Lexer) Lex() ([]token.Token, error) {
	var toks []token.Token

	for l.pos < len(l.src) {
		c := l.src[l.pos]

		switch {
		case c == '\n':
			toks = append(toks, token.Token{Type: token.LineTerminator, Literal: "\n", Pos: token.Position{Line: l.line}})
			l.line++
			l.pos++

		case c == '/' && l.at(1) == '/':
			l.skipLineComment()

		case c == '/' && l.at(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return nil, err
			}

		case c == '*' && l.at(1) == '/':
			return nil, serr.ParseError{Line: l.line, Msg: "Ending block comment token unexpected."}

		case c == '\\' && l.at(1) == '\n':
			// Escaped newline: consume both, emit no terminator, but the
			// physical line still advances for subsequent positions.
			l.pos += 2
			l.line++

		case c == '\'' || c == '"':
			tok, err := l.lexString(c)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)

		case isDigit(c) || (c == '.' && isDigit(l.at(1))):
			tok, err := l.lexNumber()
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)

		case isIdentStart(c):
			more, err := l.lexIdentifier()
			if err != nil {
				return nil, err
			}
			toks = append(toks, more...)

		case c == '>':
			if l.at(1) == '=' {
				toks = append(toks, token.NewOperator(token.OpGe, l.line))
				l.pos += 2
			} else {
				toks = append(toks, token.NewOperator(token.OpGt, l.line))
				l.pos++
			}

		case c == '<':
			if l.at(1) == '=' {
				toks = append(toks, token.NewOperator(token.OpLe, l.line))
				l.pos += 2
			} else {
				toks = append(toks, token.NewOperator(token.OpLt, l.line))
				l.pos++
			}

		case c == '=':
			if l.at(1) == '=' {
				toks = append(toks, token.NewOperator(token.OpEq, l.line))
				l.pos += 2
			} else {
				toks = append(toks, token.NewOperator(token.OpAssign, l.line))
				l.pos++
			}

		case c == '*':
			if l.at(1) == '*' {
				toks = append(toks, token.NewOperator(token.OpPow, l.line))
				l.pos += 2
			} else {
				toks = append(toks, token.NewOperator(token.OpMul, l.line))
				l.pos++
			}

		case c == '+':
			toks = append(toks, token.NewOperator(token.OpAdd, l.line))
			l.pos++

		case c == '-':
			toks = append(toks, token.NewOperator(token.OpSub, l.line))
			l.pos++

		case c == '/':
			toks = append(toks, token.NewOperator(token.OpDiv, l.line))
			l.pos++

		case c == '(':
			toks = append(toks, token.Token{Type: token.LeftParen, Literal: "(", Pos: token.Position{Line: l.line}})
			l.pos++
		case c == ')':
			toks = append(toks, token.Token{Type: token.RightParen, Literal: ")", Pos: token.Position{Line: l.line}})
			l.pos++
		case c == '{':
			toks = append(toks, token.Token{Type: token.LeftBrace, Literal: "{", Pos: token.Position{Line: l.line}})
			l.pos++
		case c == '}':
			toks = append(toks, token.Token{Type: token.RightBrace, Literal: "}", Pos: token.Position{Line: l.line}})
			l.pos++
		case c == '[':
			toks = append(toks, token.Token{Type: token.LeftBracket, Literal: "[", Pos: token.Position{Line: l.line}})
			l.pos++
		case c == ']':
			toks = append(toks, token.Token{Type: token.RightBracket, Literal: "]", Pos: token.Position{Line: l.line}})
			l.pos++
		case c == ':':
			toks = append(toks, token.Token{Type: token.Colon, Literal: ":", Pos: token.Position{Line: l.line}})
			l.pos++
		case c == ',':
			toks = append(toks, token.Token{Type: token.Comma, Literal: ",", Pos: token.Position{Line: l.line}})
			l.pos++

		case c != '\n' && unicode.IsSpace(c):
			l.pos++

		default:
			return nil, serr.UnexpectedCharacter{Line: l.line, Char: c}
		}
	}

	if len(toks) == 0 || toks[len(toks)-1].Type != token.LineTerminator {
		toks = append(toks, token.Token{Type: token.LineTerminator, Literal: "\n", Pos: token.Position{Line: l.line}})
	}

	return toks, nil
}

// at returns the rune offset runes ahead of the cursor, or 0 past the end.
func (l *Lexer) at(offset int) rune {
	i := l.pos + offset
	if i < 0 || i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func (l *Lexer) skipLineComment() {
	// Leave the closing '\n' for the main loop so it still increments the
	// line counter and emits its terminator.
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func (l *Lexer) skipBlockComment() error {
	startLine := l.line
	l.pos += 2 // consume "/*"
	for {
		if l.pos >= len(l.src) {
			return serr.ParseError{Line: startLine, Msg: "Unterminated block comment."}
		}
		if l.src[l.pos] == '\n' {
			l.line++
			l.pos++
			continue
		}
		if l.src[l.pos] == '*' && l.at(1) == '/' {
			l.pos += 2
			return nil
		}
		l.pos++
	}
}

func (l *Lexer) lexString(delim rune) (token.Token, error) {
	startLine := l.line
	l.pos++ // consume opening delimiter

	var body []rune
	escape := false
	for {
		if l.pos >= len(l.src) {
			return token.Token{}, serr.ParseError{Line: startLine, Msg: "Unterminated string literal."}
		}
		c := l.src[l.pos]
		if escape {
			body = append(body, c)
			escape = false
			l.pos++
			continue
		}
		if c == '\\' {
			escape = true
			l.pos++
			continue
		}
		if c == delim {
			l.pos++
			break
		}
		if c == '\n' {
			l.line++
		}
		body = append(body, c)
		l.pos++
	}

	return token.Token{Type: token.String, Literal: string(body), Pos: token.Position{Line: startLine}, Delim: delim}, nil
}

func (l *Lexer) lexNumber() (token.Token, error) {
	startLine := l.line
	start := l.pos
	sawDot := false

	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '.' {
			if sawDot {
				return token.Token{}, serr.ParseError{Line: l.line, Msg: "Second . found in number"}
			}
			sawDot = true
			l.pos++
			continue
		}
		if isDigit(c) {
			l.pos++
			continue
		}
		break
	}

	return token.Token{Type: token.Number, Literal: string(l.src[start:l.pos]), Pos: token.Position{Line: startLine}}, nil
}

// lexIdentifier scans one identifier and, if immediately followed by '.',
// also emits the synthetic Dot operator token the parser uses to build
// member-access expressions.
func (l *Lexer) lexIdentifier() ([]token.Token, error) {
	line := l.line
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	toks := []token.Token{{Type: token.Identifier, Literal: string(l.src[start:l.pos]), Pos: token.Position{Line: line}}}

	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		toks = append(toks, token.NewOperator(token.OpDot, line))
	}
	return toks, nil
}

func isDigit(c rune) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c rune) bool { return unicode.IsLetter(c) || c == '_' }
func isIdentPart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '$' || c == '_'
}
