// Package fill rewrites the relative references of a formula when it is
// copied to another cell. It works on formula text only and never
// evaluates anything.
package fill

import (
	"strconv"
	"strings"

	"gridcalc/internal/grid"
)

// Horizontal adjusts formula for a copy from (srcCol, srcRow) to
// (dstCol, srcRow). Rows are never touched.
func Horizontal(formula string, srcCol, srcRow, dstCol int) string {
	return Shift(formula, dstCol-srcCol, 0)
}

// Vertical adjusts formula for a copy from (srcCol, srcRow) to
// (srcCol, dstRow). Columns are never touched.
func Vertical(formula string, srcCol, srcRow, dstRow int) string {
	return Shift(formula, 0, dstRow-srcRow)
}

// Shift moves every relative axis of every reference by dCol columns and
// dRow rows. An axis that would leave the sheet keeps its original text.
func Shift(formula string, dCol, dRow int) string {
	if !strings.HasPrefix(formula, "=") || (dCol == 0 && dRow == 0) {
		return formula
	}
	var b strings.Builder
	b.Grow(len(formula) + 8)
	s := formula
	i := 0
	for i < len(s) {
		ch := s[i]
		switch {
		case ch == '"':
			j := skipString(s, i)
			b.WriteString(s[i:j])
			i = j
		case ch == '$' || isLetter(ch):
			if i > 0 && isIdentChar(s[i-1]) {
				j := identEnd(s, i)
				b.WriteString(s[i:j])
				i = j
				continue
			}
			if r, ok := scanRef(s, i); ok {
				b.WriteString(r.shift(dCol, dRow))
				i = r.end
				continue
			}
			j := identEnd(s, i)
			b.WriteString(s[i:j])
			i = j
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}

// Range fills formula from src into every cell of dst.
func Range(formula string, src grid.Address, dst []grid.Address) map[grid.Key]string {
	out := make(map[grid.Key]string, len(dst))
	for _, d := range dst {
		out[d.Key()] = Shift(formula, d.Col-src.Col, d.Row-src.Row)
	}
	return out
}

// ref is one reference token split into its written parts.
type ref struct {
	colAbs  string // the leading `$` run as written
	letters string
	rowAbs  string
	digits  string
	end     int
}

// scanRef matches [$]*LETTERS[$]?DIGITS at i. A match followed by an
// identifier character or "(" is a name, not a reference.
func scanRef(s string, i int) (ref, bool) {
	var r ref
	j := i
	for j < len(s) && s[j] == '$' {
		j++
	}
	r.colAbs = s[i:j]
	k := j
	for k < len(s) && isLetter(s[k]) {
		k++
	}
	if k == j {
		return ref{}, false
	}
	r.letters = s[j:k]
	if k < len(s) && s[k] == '$' {
		r.rowAbs = "$"
		k++
	}
	d := k
	for d < len(s) && isDigit(s[d]) {
		d++
	}
	if d == k {
		return ref{}, false
	}
	r.digits = s[k:d]
	if d < len(s) && (isIdentChar(s[d]) || s[d] == '(' || s[d] == '$') {
		return ref{}, false
	}
	r.end = d
	return r, true
}

func (r ref) shift(dCol, dRow int) string {
	letters, digits := r.letters, r.digits
	if dCol != 0 && r.colAbs == "" {
		if col, ok := grid.NameToCol(r.letters); ok {
			if nc := col + dCol; nc >= 0 && nc <= grid.MaxCol {
				letters = grid.ColToName(nc)
			}
		}
	}
	if dRow != 0 && r.rowAbs == "" {
		if row, err := strconv.Atoi(r.digits); err == nil && row >= 1 {
			if nr := row + dRow; nr >= 1 && nr-1 <= grid.MaxRow {
				digits = strconv.Itoa(nr)
			}
		}
	}
	return r.colAbs + letters + r.rowAbs + digits
}

// skipString returns the index just past the string literal starting at i.
// A doubled quote inside the literal is an escaped quote.
func skipString(s string, i int) int {
	j := i + 1
	for j < len(s) {
		if s[j] == '"' {
			if j+1 < len(s) && s[j+1] == '"' {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return len(s)
}

func identEnd(s string, i int) int {
	j := i
	for j < len(s) && (isIdentChar(s[j]) || s[j] == '$') {
		j++
	}
	return j
}

func isIdentChar(b byte) bool {
	return isLetter(b) || isDigit(b) || b == '_' || b == '.'
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
func isDigit(b byte) bool {
	return (b >= '0' && b <= '9')
}
