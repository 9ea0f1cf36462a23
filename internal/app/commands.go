package app

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gridcalc/internal/calc"
	"gridcalc/internal/fill"
	"gridcalc/internal/grid"
	"gridcalc/internal/storage"
	"gridcalc/internal/validate"
)

const maxHistory = 50

// ExecuteCommand runs one ":" command line. Failures are reported in
// Message and logged.
func (a *App) ExecuteCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}
	a.remember(cmd)
	a.Logger.Debug("command", "line", cmd)

	arg := func() (string, bool) {
		if len(parts) < 2 {
			a.Message = parts[0] + ": missing argument"
			return "", false
		}
		return parts[1], true
	}
	count := func() (int, bool) {
		s, ok := arg()
		if !ok {
			return 0, false
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			a.Message = fmt.Sprintf("%s: %q is not a positive number", parts[0], s)
			return 0, false
		}
		return n, true
	}

	switch parts[0] {
	case "q", "quit":
		a.Quit = true
	case "cw":
		if v, ok := count(); ok {
			if v < 4 {
				a.Message = "cw: width must be at least 4"
				return
			}
			for i := range a.ColWidths {
				a.ColWidths[i] = v
			}
			a.DefaultWidth = v
		}
	case "rh":
		if v, ok := count(); ok {
			for i := range a.RowHeights {
				a.RowHeights[i] = v
			}
			a.DefaultHeight = v
		}
	case "w":
		filename := a.File
		if len(parts) >= 2 {
			filename = parts[1]
		}
		if filename == "" {
			a.Message = "w: no file name"
			return
		}
		a.Save(filename)
	case "o":
		if filename, ok := arg(); ok {
			a.Open(filename)
		}
	case "g", "goto":
		if name, ok := arg(); ok {
			addr, err := grid.ParseAddress(name)
			if err != nil {
				a.fail("goto", err)
				return
			}
			a.CurCol, a.CurRow = addr.Col, addr.Row
			a.EnsureColExists(a.CurCol)
			a.EnsureRowExists(a.CurRow)
		}
	case "fr":
		if n, ok := count(); ok {
			if filled := a.FillRight(n); filled > 0 {
				a.Message = fmt.Sprintf("filled %d cells", filled)
			}
		}
	case "fd":
		if n, ok := count(); ok {
			if filled := a.FillDown(n); filled > 0 {
				a.Message = fmt.Sprintf("filled %d cells", filled)
			}
		}
	case "key":
		if filename, ok := arg(); ok {
			key, err := storage.LoadAnswerKey(filename)
			if err != nil {
				a.fail("key", err)
				return
			}
			a.AnswerKey = key
			a.Message = fmt.Sprintf("answer key: %d cells", len(key))
			a.Logger.Info("loaded answer key", "file", filename, "cells", len(key))
		}
	case "check":
		a.Check()
	case "refs":
		a.ShowReferences()
	default:
		a.Message = fmt.Sprintf("unknown command %q", parts[0])
	}
}

func (a *App) remember(cmd string) {
	if n := len(a.History); n > 0 && a.History[n-1] == cmd {
		return
	}
	a.History = append(a.History, cmd)
	if len(a.History) > maxHistory {
		a.History = a.History[len(a.History)-maxHistory:]
	}
}

func (a *App) fail(op string, err error) {
	a.Message = fmt.Sprintf("%s: %v", op, err)
	a.Logger.Error("command failed", "op", op, "error", err)
}

// Save writes the sheet as CSV, adding the extension when missing.
func (a *App) Save(filename string) {
	if filepath.Ext(filename) != ".csv" {
		filename += ".csv"
	}
	if err := storage.SaveCSV(a.Grid, filename); err != nil {
		a.fail("w", err)
		return
	}
	a.File = filename
	a.Message = "saved " + filename
	a.Logger.Info("saved sheet", "file", filename, "cells", len(a.Grid))
}

// Open replaces the sheet with the CSV file contents.
func (a *App) Open(filename string) {
	t, err := storage.LoadCSV(filename)
	if err != nil {
		a.fail("o", err)
		return
	}
	a.Load(t)
	a.File = filename
	a.Message = "opened " + filename
	a.Logger.Info("opened sheet", "file", filename, "cells", len(t))
}

// Load replaces the sheet and resets the view.
func (a *App) Load(t grid.Table) {
	a.Grid = t
	a.dirty = true
	maxC, maxR := t.Bounds()
	a.EnsureColExists(maxC)
	a.EnsureRowExists(maxR)
	a.CurRow, a.CurCol, a.ViewRow, a.ViewCol = 0, 0, 0, 0
}

// FillRight copies the cursor cell into the n cells to its right and
// returns how many cells were written.
// The count stops at the sheet edge.
func (a *App) FillRight(n int) int {
	n = clamp(n, 0, grid.MaxCol-a.CurCol)
	dst := make([]grid.Address, 0, n)
	for c := a.CurCol + 1; c <= a.CurCol+n; c++ {
		dst = append(dst, grid.Address{Col: c, Row: a.CurRow})
	}
	return a.fillFrom(a.Cursor(), dst)
}

// FillDown copies the cursor cell into the n cells below it and returns
// how many cells were written.
func (a *App) FillDown(n int) int {
	n = clamp(n, 0, grid.MaxRow-a.CurRow)
	dst := make([]grid.Address, 0, n)
	for r := a.CurRow + 1; r <= a.CurRow+n; r++ {
		dst = append(dst, grid.Address{Col: a.CurCol, Row: r})
	}
	return a.fillFrom(a.Cursor(), dst)
}

func (a *App) fillFrom(src grid.Key, dst []grid.Address) int {
	cell, ok := a.Grid[src]
	if !ok {
		a.Message = "nothing to fill from " + src.String()
		return 0
	}
	for k, text := range fill.Range(cell.Text, src.Address(), dst) {
		a.SetCell(k, text)
	}
	return len(dst)
}

// Copy remembers the cursor cell for Paste.
func (a *App) Copy() {
	cell, ok := a.Grid[a.Cursor()]
	if !ok {
		a.clipboard = nil
		a.Message = "nothing to copy"
		return
	}
	a.clipboard = &clip{text: cell.Text, from: a.Cursor()}
	a.Message = "copied " + a.Cursor().String()
}

// Paste writes the copied cell at the cursor, moving its relative
// references by the distance between the two cells.
func (a *App) Paste() {
	if a.clipboard == nil {
		a.Message = "clipboard is empty"
		return
	}
	to := a.Cursor()
	a.SetCell(to, fill.Shift(a.clipboard.text, to.Col-a.clipboard.from.Col, to.Row-a.clipboard.from.Row))
}

// Check grades the sheet against the loaded answer key.
func (a *App) Check() validate.Report {
	if a.AnswerKey == nil {
		a.Message = "check: no answer key, use :key FILE"
		return validate.Report{}
	}
	rep := a.AnswerKey.Check(a.Grid)
	a.Message = summarize(rep)
	a.Logger.Info("checked sheet", "passed", len(rep.Passed), "failed", len(rep.Failed), "missing", len(rep.Missing))
	return rep
}

func summarize(rep validate.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "check: %d/%d passed", len(rep.Passed), rep.Total())
	list := func(label string, keys []grid.Key) {
		if len(keys) == 0 {
			return
		}
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		fmt.Fprintf(&b, ", %s: %s", label, strings.Join(names, " "))
	}
	list("failed", rep.Failed)
	list("missing", rep.Missing)
	return b.String()
}

// ShowReferences lists the cells the cursor formula reads.
func (a *App) ShowReferences() {
	k := a.Cursor()
	cell, ok := a.Grid[k]
	if !ok || !cell.IsFormula() {
		a.Message = k.String() + " has no formula"
		return
	}
	node, err := calc.Parse(cell.Text)
	if err != nil {
		a.fail("refs", err)
		return
	}
	refs := calc.References(node)
	if len(refs) == 0 {
		a.Message = k.String() + " uses no cells"
		return
	}
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.String()
	}
	a.Message = k.String() + " uses " + strings.Join(names, " ")
}
