// Package mathsolver evaluates arithmetic expressions and performs the
// symbolic operations (differentiation, integration, equation solving)
// behind the assistant's math fast path.
package mathsolver

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Expr is a parsed expression node.
type Expr interface {
	// String renders the expression with minimal parentheses.
	String() string
}

// Num is a numeric literal.
type Num struct {
	Val float64
}

// Var is the symbolic variable x.
type Var struct{}

// Neg is unary negation.
type Neg struct {
	X Expr
}

// Binary is a binary operation: one of + - * / ^.
type Binary struct {
	Op byte
	L  Expr
	R  Expr
}

// Call is a function application, e.g. sin(x) or pow(2, 10).
type Call struct {
	Fn   string
	Args []Expr
}

// knownFuncs lists the accepted function names and their arities.
var knownFuncs = map[string]int{
	"sin": 1, "cos": 1, "tan": 1,
	"asin": 1, "acos": 1, "atan": 1,
	"sqrt": 1, "log": 1, "ln": 1,
	"pow": 2,
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	val  float64
}

type parser struct {
	tokens []token
	pos    int
}

// Normalize prepares user text for parsing: lowercase, unicode
// operators replaced, Python-style ** folded into ^.
func Normalize(expr string) string {
	expr = strings.ToLower(strings.TrimSpace(expr))
	expr = strings.ReplaceAll(expr, "**", "^")
	expr = strings.ReplaceAll(expr, "×", "*")
	expr = strings.ReplaceAll(expr, "÷", "/")
	return expr
}

// Parse parses a normalized expression into an AST.
func Parse(expr string) (Expr, error) {
	tokens, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q", p.peek().text)
	}
	return node, nil
}

func lex(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(expr) && (expr[j] >= '0' && expr[j] <= '9' || expr[j] == '.') {
				j++
			}
			val, err := strconv.ParseFloat(expr[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", expr[i:j])
			}
			tokens = append(tokens, token{kind: tokNumber, text: expr[i:j], val: val})
			i = j
		case unicode.IsLetter(rune(c)):
			j := i
			for j < len(expr) && unicode.IsLetter(rune(expr[j])) {
				j++
			}
			tokens = append(tokens, token{kind: tokIdent, text: expr[i:j]})
			i = j
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case c == ',':
			tokens = append(tokens, token{kind: tokComma, text: ","})
			i++
		case strings.IndexByte("+-*/^", c) >= 0:
			tokens = append(tokens, token{kind: tokOp, text: string(c)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", string(c))
		}
	}
	tokens = append(tokens, token{kind: tokEOF})
	return tokens, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// parseSum handles + and -.
func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: t.text[0], L: left, R: right}
	}
}

// parseProduct handles * and / plus implicit multiplication
// (2x, 3sin(x), 2(x+1)).
func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.kind == tokOp && (t.text == "*" || t.text == "/"):
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: t.text[0], L: left, R: right}
		case t.kind == tokIdent || t.kind == tokLParen:
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &Binary{Op: '*', L: left, R: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return &Neg{X: inner}, nil
		}
		return inner, nil
	}
	return p.parsePower()
}

// parsePower handles ^, right-associative.
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOp && t.text == "^" {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: '^', L: base, R: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &Num{Val: t.val}, nil

	case tokIdent:
		switch t.text {
		case "x":
			return &Var{}, nil
		case "pi":
			return &Num{Val: math.Pi}, nil
		case "e":
			return &Num{Val: math.E}, nil
		}
		arity, ok := knownFuncs[t.text]
		if !ok {
			return nil, fmt.Errorf("unknown identifier %q", t.text)
		}
		if p.next().kind != tokLParen {
			return nil, fmt.Errorf("expected ( after %q", t.text)
		}
		args := make([]Expr, 0, arity)
		for {
			arg, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			sep := p.next()
			if sep.kind == tokRParen {
				break
			}
			if sep.kind != tokComma {
				return nil, fmt.Errorf("expected , or ) in %s(...)", t.text)
			}
		}
		if len(args) != arity {
			return nil, fmt.Errorf("%s expects %d argument(s), got %d", t.text, arity, len(args))
		}
		return &Call{Fn: t.text, Args: args}, nil

	case tokLParen:
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil

	default:
		return nil, fmt.Errorf("unexpected %q", t.text)
	}
}
