package calc

import (
	"math"

	"gridcalc/internal/grid"
)

// maxRangeCells bounds how many cells a single range argument may expand to.
const maxRangeCells = 1 << 16

// Node is a parsed expression.
type Node interface {
	eval(r ResolveFunc) (float64, error)
	refs(dst []grid.Address) []grid.Address
}

type numberNode struct {
	value float64
}

func (n *numberNode) eval(ResolveFunc) (float64, error) { return n.value, nil }
func (n *numberNode) refs(dst []grid.Address) []grid.Address { return dst }

type refNode struct {
	addr grid.Address
}

func (n *refNode) eval(r ResolveFunc) (float64, error) {
	if r == nil {
		return 0, invalid(n.addr.String(), "no resolver for cell reference")
	}
	return r(n.addr)
}

func (n *refNode) refs(dst []grid.Address) []grid.Address { return append(dst, n.addr) }

// rangeNode is only meaningful as a function argument, where it expands
// into every cell it covers.
type rangeNode struct {
	text     string
	from, to grid.Address
}

func (n *rangeNode) eval(ResolveFunc) (float64, error) {
	return 0, invalid(n.text, "range used outside a function argument")
}

func (n *rangeNode) refs(dst []grid.Address) []grid.Address {
	return append(dst, n.cells()...)
}

// cells lists the covered addresses row by row.
func (n *rangeNode) cells() []grid.Address {
	c1, c2 := min(n.from.Col, n.to.Col), max(n.from.Col, n.to.Col)
	r1, r2 := min(n.from.Row, n.to.Row), max(n.from.Row, n.to.Row)
	out := make([]grid.Address, 0, (c2-c1+1)*(r2-r1+1))
	for rr := r1; rr <= r2; rr++ {
		for cc := c1; cc <= c2; cc++ {
			out = append(out, grid.Address{Col: cc, Row: rr})
		}
	}
	return out
}

func (n *rangeNode) size() int {
	w := max(n.from.Col, n.to.Col) - min(n.from.Col, n.to.Col) + 1
	h := max(n.from.Row, n.to.Row) - min(n.from.Row, n.to.Row) + 1
	return w * h
}

type unaryNode struct {
	op      string
	operand Node
}

func (n *unaryNode) eval(r ResolveFunc) (float64, error) {
	v, err := n.operand.eval(r)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "-":
		return -v, nil
	case "%":
		return v / 100, nil
	}
	return v, nil
}

func (n *unaryNode) refs(dst []grid.Address) []grid.Address { return n.operand.refs(dst) }

type binaryNode struct {
	op          string
	left, right Node
}

func (n *binaryNode) eval(r ResolveFunc) (float64, error) {
	a, err := n.left.eval(r)
	if err != nil {
		return 0, err
	}
	b, err := n.right.eval(r)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	case "^":
		if a == 0 && b < 0 {
			return 0, ErrDivisionByZero
		}
		return math.Pow(a, b), nil
	case "=":
		return truth(a == b), nil
	case "<>":
		return truth(a != b), nil
	case "<":
		return truth(a < b), nil
	case ">":
		return truth(a > b), nil
	case "<=":
		return truth(a <= b), nil
	case ">=":
		return truth(a >= b), nil
	}
	return 0, invalid(n.op, "unsupported operator")
}

func (n *binaryNode) refs(dst []grid.Address) []grid.Address {
	return n.right.refs(n.left.refs(dst))
}

type callNode struct {
	name string
	fn   *builtin
	args []Node
}

func (n *callNode) eval(r ResolveFunc) (float64, error) { return n.fn.call(n.args, r) }

func (n *callNode) refs(dst []grid.Address) []grid.Address {
	for _, a := range n.args {
		dst = a.refs(dst)
	}
	return dst
}

// References lists every cell a parsed expression mentions, in source order.
// Ranges contribute each covered cell.
func References(n Node) []grid.Address {
	if n == nil {
		return nil
	}
	return n.refs(nil)
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
