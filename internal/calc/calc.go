package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/efp"

	"gridcalc/internal/grid"
)

// ResolveFunc returns the numeric value of a referenced cell.
type ResolveFunc func(addr grid.Address) (float64, error)

// Evaluate parses expr (with or without the leading "=") and reduces it to
// a number, asking resolve for every cell reference it meets.
func Evaluate(expr string, resolve ResolveFunc) (float64, error) {
	node, err := Parse(expr)
	if err != nil {
		return 0, err
	}
	val, err := node.eval(resolve)
	if err != nil {
		return 0, err
	}
	// avoid NaN/Inf leaking into cells
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, invalid(expr, "result is not a finite number")
	}
	return val, nil
}

// Parse turns an expression into a tree without evaluating anything.
func Parse(expr string) (Node, error) {
	body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(expr), "="))
	if body == "" {
		return nil, invalid(expr, "empty expression")
	}
	tokens, err := tokenize(body)
	if err != nil {
		return nil, err
	}
	p := parser{expr: expr, tokens: tokens}
	node, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, p.stray()
	}
	return node, nil
}

func tokenize(body string) (tokens []efp.Token, err error) {
	// the tokenizer is not hardened against every malformed input
	defer func() {
		if r := recover(); r != nil {
			tokens, err = nil, invalid(body, "cannot tokenize: %v", r)
		}
	}()
	ps := efp.ExcelParser()
	tokens = ps.Parse("=" + body)
	if len(tokens) == 0 {
		return nil, invalid(body, "empty expression")
	}
	return tokens, nil
}

type parser struct {
	expr   string
	tokens []efp.Token
	pos    int
}

func (p *parser) peek() (efp.Token, bool) {
	if p.pos >= len(p.tokens) {
		return efp.Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) unexpected() error {
	t, ok := p.peek()
	if !ok {
		return invalid(p.expr, "unexpected end of expression")
	}
	if isSeparator(t) || isClose(t) {
		return invalid(p.expr, "empty operand")
	}
	return p.stray()
}

// stray reports the token left over where an operator or the end of the
// expression was expected.
func (p *parser) stray() error {
	t, ok := p.peek()
	switch {
	case !ok:
		return invalid(p.expr, "unexpected end of expression")
	case isSeparator(t):
		return invalid(p.expr, "unexpected argument separator")
	case isClose(t):
		return invalid(p.expr, "unexpected closing parenthesis")
	}
	return invalid(p.expr, "unexpected %s %q", strings.ToLower(t.TType), t.TValue)
}

// efp reads a comma outside a call as the union operator.
func isSeparator(t efp.Token) bool {
	return t.TType == efp.TokenTypeArgument || (t.TType == efp.TokenTypeOperatorInfix && t.TValue == ",")
}

func isClose(t efp.Token) bool {
	return t.TSubType == efp.TokenSubTypeStop
}

// infix consumes the next token if it is an infix operator in ops.
func (p *parser) infix(ops ...string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.TType != efp.TokenTypeOperatorInfix {
		return "", false
	}
	for _, op := range ops {
		if t.TValue == op {
			p.pos++
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.infix("=", "<>", "<", ">", "<=", ">=")
		if !ok {
			return left, nil
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.infix("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.infix("*", "/")
		if !ok {
			return left, nil
		}
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

// parsePower is left-associative: 2^3^2 is (2^3)^2.
func (p *parser) parsePower() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.infix("^")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

// parseUnary handles prefix minus, which binds tighter than ^ (-2^2 is 4).
// A prefix plus never reaches here: the tokenizer drops it.
func (p *parser) parseUnary() (Node, error) {
	if t, ok := p.peek(); ok && t.TType == efp.TokenTypeOperatorPrefix {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.TValue != "-" {
			return operand, nil
		}
		return &unaryNode{op: "-", operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.TType != efp.TokenTypeOperatorPostfix || t.TValue != "%" {
			return node, nil
		}
		p.pos++
		node = &unaryNode{op: "%", operand: node}
	}
}

func (p *parser) parsePrimary() (Node, error) {
	t, ok := p.peek()
	if !ok {
		return nil, invalid(p.expr, "unexpected end of expression")
	}
	switch {
	case t.TType == efp.TokenTypeOperand:
		p.pos++
		return p.parseOperand(t)
	case t.TType == efp.TokenTypeSubexpression && t.TSubType == efp.TokenSubTypeStart:
		p.pos++
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		if t, ok := p.peek(); !ok {
			return nil, invalid(p.expr, "unbalanced parentheses")
		} else if t.TType != efp.TokenTypeSubexpression || t.TSubType != efp.TokenSubTypeStop {
			return nil, p.stray()
		}
		p.pos++
		return inner, nil
	case t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStart:
		p.pos++
		return p.parseCall(t.TValue)
	}
	return nil, p.unexpected()
}

func (p *parser) parseOperand(t efp.Token) (Node, error) {
	switch t.TSubType {
	case efp.TokenSubTypeNumber:
		v, err := strconv.ParseFloat(t.TValue, 64)
		if err != nil {
			return nil, invalid(p.expr, "bad number %q", t.TValue)
		}
		return &numberNode{value: v}, nil
	case efp.TokenSubTypeLogical:
		return &numberNode{value: truth(strings.EqualFold(t.TValue, "TRUE"))}, nil
	case efp.TokenSubTypeRange:
		return p.parseReference(t.TValue)
	case efp.TokenSubTypeText:
		return nil, invalid(p.expr, "text operand %q is not supported", t.TValue)
	}
	return nil, invalid(p.expr, "unsupported operand %q", t.TValue)
}

func (p *parser) parseReference(text string) (Node, error) {
	switch strings.ToUpper(text) {
	case "TRUE":
		return &numberNode{value: 1}, nil
	case "FALSE":
		return &numberNode{value: 0}, nil
	}
	if left, right, ok := strings.Cut(text, ":"); ok {
		from, err := grid.ParseAddress(left)
		if err != nil {
			return nil, invalid(p.expr, "bad range %q", text)
		}
		to, err := grid.ParseAddress(right)
		if err != nil {
			return nil, invalid(p.expr, "bad range %q", text)
		}
		rng := &rangeNode{text: text, from: from, to: to}
		if rng.size() > maxRangeCells {
			return nil, invalid(p.expr, "range %q is too large", text)
		}
		return rng, nil
	}
	addr, err := grid.ParseAddress(text)
	if err != nil {
		return nil, invalid(p.expr, "unknown name %q", text)
	}
	return &refNode{addr: addr}, nil
}

func (p *parser) parseCall(name string) (Node, error) {
	upper := strings.ToUpper(name)
	// efp reports {1,2} as calls to ARRAY and ARRAYROW
	if upper == "ARRAY" || upper == "ARRAYROW" {
		return nil, invalid(p.expr, "array literals are not supported")
	}
	fn, ok := builtins[upper]
	if !ok {
		return nil, &SyntaxError{Expr: p.expr, Detail: fmt.Sprintf("%s is not supported", upper), Kind: ErrUnknownFunction}
	}
	call := &callNode{name: upper, fn: fn}
	if t, ok := p.peek(); ok && t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStop {
		p.pos++
	} else {
		for {
			arg, err := p.parseComparison()
			if err != nil {
				return nil, err
			}
			call.args = append(call.args, arg)
			t, ok := p.peek()
			if !ok {
				return nil, invalid(p.expr, "unbalanced parentheses in %s", upper)
			}
			p.pos++
			if t.TType == efp.TokenTypeArgument {
				continue
			}
			if t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStop {
				break
			}
			p.pos--
			return nil, p.stray()
		}
	}
	if len(call.args) < fn.min || (fn.max >= 0 && len(call.args) > fn.max) {
		return nil, invalid(p.expr, "%s takes %s, got %d", upper, arity(fn), len(call.args))
	}
	return call, nil
}

func arity(fn *builtin) string {
	switch {
	case fn.max < 0:
		return fmt.Sprintf("at least %d arguments", fn.min)
	case fn.min == fn.max:
		return fmt.Sprintf("%d arguments", fn.min)
	}
	return fmt.Sprintf("%d to %d arguments", fn.min, fn.max)
}
