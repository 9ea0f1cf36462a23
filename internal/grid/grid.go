package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sheet limits, zero-based. MaxCol is column XFD.
const (
	MaxCol = 16383
	MaxRow = 1048575
)

// ErrMalformedAddress is returned when text does not follow the A1 grammar.
var ErrMalformedAddress = errors.New("malformed address")

// AddressError reports the text that failed to parse.
type AddressError struct {
	Text   string
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrMalformedAddress, e.Text, e.Reason)
}

func (e *AddressError) Unwrap() error { return ErrMalformedAddress }

// Address is a cell coordinate. Col and Row are zero-based; the Abs flags
// record a `$` marker on that axis.
type Address struct {
	Col    int
	Row    int
	AbsCol bool
	AbsRow bool
}

// Key identifies a cell regardless of absolute markers.
type Key struct {
	Col int
	Row int
}

func (k Key) Address() Address { return Address{Col: k.Col, Row: k.Row} }

func (k Key) String() string { return ColRowToName(k.Col, k.Row) }

func (a Address) Key() Key { return Key{Col: a.Col, Row: a.Row} }

func (a Address) String() string { return FormatAddress(a) }

// Shift moves the address by dc columns and dr rows. It reports false when
// the result would fall outside the sheet.
func (a Address) Shift(dc, dr int) (Address, bool) {
	c, r := a.Col+dc, a.Row+dr
	if c < 0 || c > MaxCol || r < 0 || r > MaxRow {
		return a, false
	}
	a.Col, a.Row = c, r
	return a, true
}

// ColToName: 0 -> A, 25 -> Z, 26 -> AA and so on
func ColToName(col int) string {
	if col < 0 {
		return "?"
	}
	var buf [16]byte
	i := len(buf)
	n := col + 1
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}

// NameToCol is the inverse of ColToName. Letters are case-insensitive.
func NameToCol(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	col := 0
	for i := 0; i < len(name); i++ {
		b := upper(name[i])
		if b < 'A' || b > 'Z' {
			return 0, false
		}
		col = col*26 + int(b-'A') + 1
		if col-1 > MaxCol {
			return 0, false
		}
	}
	return col - 1, true
}

// ColRowToName builds cell name from 0-based col,row -> e.g., col 0,row0 -> "A1"
func ColRowToName(col, row int) string {
	return ColToName(col) + strconv.Itoa(row+1)
}

// ParseAddress parses names like A1, $AA$10 or b$4.
func ParseAddress(text string) (Address, error) {
	var a Address
	i := 0
	for i < len(text) && text[i] == '$' {
		a.AbsCol = true
		i++
	}
	start := i
	for i < len(text) && isLetter(text[i]) {
		i++
	}
	if i == start {
		return Address{}, &AddressError{Text: text, Reason: "missing column letters"}
	}
	col, ok := NameToCol(text[start:i])
	if !ok {
		return Address{}, &AddressError{Text: text, Reason: "column out of range"}
	}
	if i < len(text) && text[i] == '$' {
		a.AbsRow = true
		i++
	}
	start = i
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	if i == start {
		return Address{}, &AddressError{Text: text, Reason: "missing row number"}
	}
	if i < len(text) {
		return Address{}, &AddressError{Text: text, Reason: "unexpected trailing characters"}
	}
	rowNum, err := strconv.Atoi(text[start:i])
	if err != nil || rowNum < 1 || rowNum-1 > MaxRow {
		return Address{}, &AddressError{Text: text, Reason: "row out of range"}
	}
	a.Col = col
	a.Row = rowNum - 1
	return a, nil
}

// FormatAddress renders a in A1 form with `$` on absolute axes.
func FormatAddress(a Address) string {
	var b strings.Builder
	if a.AbsCol {
		b.WriteByte('$')
	}
	b.WriteString(ColToName(a.Col))
	if a.AbsRow {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(a.Row + 1))
	return b.String()
}

// MustParseAddress is ParseAddress for literals known to be valid.
func MustParseAddress(text string) Address {
	a, err := ParseAddress(text)
	if err != nil {
		panic(err)
	}
	return a
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
func isDigit(b byte) bool {
	return (b >= '0' && b <= '9')
}
