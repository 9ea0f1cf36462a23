package grid

import "strings"

// Cell represents a single cell content.
// Text holds either a literal or a formula starting with "=".
type Cell struct {
	Text string
}

func (c Cell) IsFormula() bool { return strings.HasPrefix(c.Text, "=") }

// Table is a sparse snapshot of cell contents owned by the caller.
type Table map[Key]Cell

// Get looks the cell up ignoring absolute markers.
func (t Table) Get(a Address) (Cell, bool) {
	c, ok := t[a.Key()]
	return c, ok
}

// Set stores text at a; empty text removes the cell.
func (t Table) Set(a Address, text string) {
	if text == "" {
		delete(t, a.Key())
		return
	}
	t[a.Key()] = Cell{Text: text}
}

// Bounds returns the highest used column and row, or -1,-1 for an empty table.
func (t Table) Bounds() (maxCol, maxRow int) {
	maxCol, maxRow = -1, -1
	for k := range t {
		if k.Col > maxCol {
			maxCol = k.Col
		}
		if k.Row > maxRow {
			maxRow = k.Row
		}
	}
	return maxCol, maxRow
}

// Clone returns a shallow copy that can be handed to another goroutine.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// FromNames builds a table from A1 names, mostly for tests and fixtures.
func FromNames(cells map[string]string) (Table, error) {
	t := Table{}
	for name, text := range cells {
		a, err := ParseAddress(name)
		if err != nil {
			return nil, err
		}
		t.Set(a, text)
	}
	return t, nil
}
