package app

import (
	"context"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"gridcalc/internal/config"
	"gridcalc/internal/engine"
	"gridcalc/internal/grid"
	"gridcalc/internal/validate"
)

type App struct {
	// layout
	LeftGutter    int
	StatusLines   int
	DefaultWidth  int
	DefaultHeight int

	CellPadding int

	// grid data
	ColWidths  []int
	RowHeights []int
	Grid       grid.Table
	File       string

	// cursor / view
	CurRow  int
	CurCol  int
	ViewRow int
	ViewCol int

	// UI state
	Mode      string // normal | insert
	InputBuf  string
	Message   string
	Quit      bool
	History   []string
	clipboard *clip

	// editing behavior options
	EnterStartsEdit     bool
	PrintableStartsEdit bool
	MoveAfterEnter      bool
	SelectAllOnEdit     bool
	ReplaceOnNextRune   bool

	// UI: help popup visibility
	HelpVisible bool

	// evaluation
	Engine    *engine.Engine
	Logger    *slog.Logger
	Workers   int
	AnswerKey validate.AnswerKey
	values    map[grid.Key]engine.Result
	dirty     bool
}

// clip is the cell copied with Ctrl+Y.
type clip struct {
	text string
	from grid.Key
}

// NewApp builds an empty sheet. A nil engine or logger gets a default.
func NewApp(cfg config.Config, eng *engine.Engine, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if eng == nil {
		eng = engine.New(engine.WithLogger(logger), engine.WithMaxDepth(cfg.Engine.MaxDepth))
	}
	a := &App{
		LeftGutter:      5,
		StatusLines:     2,
		DefaultWidth:    cfg.Display.ColumnWidth,
		DefaultHeight:   cfg.Display.RowHeight,
		CellPadding:     1,
		Grid:            grid.Table{},
		Mode:            "normal",
		EnterStartsEdit: true,
		MoveAfterEnter:  true,
		SelectAllOnEdit: true,
		Engine:          eng,
		Logger:          logger,
		Workers:         cfg.Engine.Workers,
		dirty:           true,
	}
	for i := 0; i < 8; i++ {
		a.ColWidths = append(a.ColWidths, a.DefaultWidth)
		a.RowHeights = append(a.RowHeights, a.DefaultHeight)
	}
	return a
}

// Cursor is the address under the cursor.
func (a *App) Cursor() grid.Key { return grid.Key{Col: a.CurCol, Row: a.CurRow} }

// SetCell stores text at k; empty text clears the cell.
func (a *App) SetCell(k grid.Key, text string) {
	a.EnsureColExists(k.Col)
	a.EnsureRowExists(k.Row)
	a.Grid.Set(k.Address(), text)
	a.dirty = true
}

// SetCellValue stores value in the cursor cell.
func (a *App) SetCellValue(value string) {
	a.SetCell(a.Cursor(), value)
}

// Result returns the evaluation of the formula at k, recalculating the
// sheet first if anything changed.
func (a *App) Result(k grid.Key) (engine.Result, bool) {
	a.recalc()
	res, ok := a.values[k]
	return res, ok
}

func (a *App) recalc() {
	if !a.dirty {
		return
	}
	vals, err := a.Engine.EvaluateAll(context.Background(), a.Grid, a.Workers)
	if err != nil {
		a.Logger.Error("recalculation failed", "error", err)
		vals = nil
	}
	a.values = vals
	a.dirty = false
}

func (a *App) startEdit() {
	a.Mode = "insert"
	if cell, ok := a.Grid[a.Cursor()]; ok {
		a.InputBuf = cell.Text
	} else {
		a.InputBuf = ""
	}
	a.ReplaceOnNextRune = a.SelectAllOnEdit
}

// ----------------------------- Events / Input -----------------------------

func (a *App) HandleKeyEvent(s tcell.Screen, ev *tcell.EventKey) {
	if a.Mode == "insert" {
		a.handleInsertKey(ev)
		return
	}

	// the help popup only closes on Esc or "?"
	if a.HelpVisible {
		if ev.Key() == tcell.KeyEsc || ev.Rune() == '?' {
			a.HelpVisible = false
		}
		return
	}

	a.Message = ""
	mod := ev.Modifiers()
	switch ev.Key() {
	case tcell.KeyEsc:
	case tcell.KeyCtrlC:
		a.Quit = true
	case tcell.KeyCtrlR:
		if a.FillRight(1) > 0 {
			a.CurCol++
		}
	case tcell.KeyCtrlD:
		if a.FillDown(1) > 0 {
			a.CurRow++
		}
	case tcell.KeyCtrlY:
		a.Copy()
	case tcell.KeyCtrlP:
		a.Paste()
	case tcell.KeyDelete:
		a.SetCell(a.Cursor(), "")
	case tcell.KeyUp:
		if mod&tcell.ModCtrl != 0 {
			if a.CurRow < len(a.RowHeights) && a.RowHeights[a.CurRow] > 1 {
				a.RowHeights[a.CurRow]--
			}
		} else if a.CurRow > 0 {
			a.CurRow--
		}
	case tcell.KeyDown:
		if mod&tcell.ModCtrl != 0 {
			if a.CurRow < len(a.RowHeights) {
				a.RowHeights[a.CurRow]++
			}
		} else if a.CurRow < grid.MaxRow {
			a.CurRow++
			a.EnsureRowExists(a.CurRow)
		}
	case tcell.KeyLeft:
		if mod&tcell.ModCtrl != 0 {
			if a.CurCol < len(a.ColWidths) && a.ColWidths[a.CurCol] > 4 {
				a.ColWidths[a.CurCol]--
			}
		} else if a.CurCol > 0 {
			a.CurCol--
		}
	case tcell.KeyRight:
		if mod&tcell.ModCtrl != 0 {
			if a.CurCol < len(a.ColWidths) {
				a.ColWidths[a.CurCol]++
			}
		} else if a.CurCol < grid.MaxCol {
			a.CurCol++
			a.EnsureColExists(a.CurCol)
		}
	case tcell.KeyPgUp:
		vr, _ := a.ComputeVisible(s)
		a.ViewRow = max(0, a.ViewRow-vr)
	case tcell.KeyPgDn:
		vr, _ := a.ComputeVisible(s)
		a.ViewRow += vr
		if a.ViewRow >= len(a.RowHeights) {
			a.ViewRow = max(0, len(a.RowHeights)-1)
		}
	case tcell.KeyHome:
		a.ViewCol = 0
		a.ViewRow = 0
	case tcell.KeyEnd:
		a.ViewCol = max(0, len(a.ColWidths)-1)
		a.ViewRow = max(0, len(a.RowHeights)-1)
	case tcell.KeyF2:
		a.InsertRow(a.CurRow + 1)
	case tcell.KeyF3:
		a.InsertCol(a.CurCol + 1)
	case tcell.KeyF4:
		a.DeleteRow(a.CurRow)
	case tcell.KeyF5:
		a.DeleteCol(a.CurCol)
	case tcell.KeyEnter:
		if a.EnterStartsEdit {
			a.startEdit()
		}
	case tcell.KeyRune:
		a.handleRune(s, ev.Rune())
	}
	a.EnsureColExists(a.CurCol)
	a.EnsureRowExists(a.CurRow)
}

func (a *App) handleInsertKey(ev *tcell.EventKey) {
	mod := ev.Modifiers()
	switch ev.Key() {
	case tcell.KeyEsc:
		a.Mode = "normal"
		a.InputBuf = ""
		a.ReplaceOnNextRune = false
	case tcell.KeyEnter:
		if mod&tcell.ModShift != 0 || mod&tcell.ModAlt != 0 {
			a.InputBuf += "\n"
			return
		}
		a.SetCell(a.Cursor(), a.InputBuf)
		a.Mode = "normal"
		a.InputBuf = ""
		a.ReplaceOnNextRune = false
		// Ctrl+Enter saves and stays
		if mod&tcell.ModCtrl == 0 && a.MoveAfterEnter && a.CurRow < grid.MaxRow {
			a.CurRow++
			a.EnsureRowExists(a.CurRow)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if r := []rune(a.InputBuf); len(r) > 0 {
			a.InputBuf = string(r[:len(r)-1])
		}
		a.ReplaceOnNextRune = false
	case tcell.KeyRune:
		r := ev.Rune()
		if a.ReplaceOnNextRune {
			a.InputBuf = string(r)
			a.ReplaceOnNextRune = false
		} else {
			a.InputBuf += string(r)
		}
	}
}

func (a *App) handleRune(s tcell.Screen, r rune) {
	switch r {
	case 'q':
		a.Quit = true
	case 'i':
		a.startEdit()
	case ':':
		command, ok := a.PopupInput(s, ":", "", a.History)
		if ok {
			a.ExecuteCommand(command)
		}
	case '=':
		value, ok := a.PopupInput(s, "", "=", nil)
		if ok {
			a.SetCellValue(value)
		}
	case '?':
		a.HelpVisible = true
	default:
		if a.PrintableStartsEdit {
			a.Mode = "insert"
			a.InputBuf = string(r)
			a.ReplaceOnNextRune = false
		}
	}
}

// ----------------------------- Rows / Columns -----------------------------

// InsertRow adds an empty row before idx and moves the cells below it down.
func (a *App) InsertRow(idx int) {
	idx = clamp(idx, 0, len(a.RowHeights))
	a.RowHeights = append(a.RowHeights[:idx], append([]int{a.DefaultHeight}, a.RowHeights[idx:]...)...)
	a.moveCells(func(k grid.Key) (grid.Key, bool) {
		if k.Row >= idx {
			k.Row++
		}
		return k, k.Row <= grid.MaxRow
	})
}

// InsertCol adds an empty column before idx and moves the cells right of
// it one column over.
func (a *App) InsertCol(idx int) {
	idx = clamp(idx, 0, len(a.ColWidths))
	a.ColWidths = append(a.ColWidths[:idx], append([]int{a.DefaultWidth}, a.ColWidths[idx:]...)...)
	a.moveCells(func(k grid.Key) (grid.Key, bool) {
		if k.Col >= idx {
			k.Col++
		}
		return k, k.Col <= grid.MaxCol
	})
}

// DeleteRow drops row idx with its cells.
func (a *App) DeleteRow(idx int) {
	if idx < 0 || idx >= len(a.RowHeights) {
		return
	}
	a.RowHeights = append(a.RowHeights[:idx], a.RowHeights[idx+1:]...)
	a.moveCells(func(k grid.Key) (grid.Key, bool) {
		if k.Row > idx {
			k.Row--
			return k, true
		}
		return k, k.Row != idx
	})
	if a.CurRow >= len(a.RowHeights) {
		a.CurRow = max(0, len(a.RowHeights)-1)
	}
}

// DeleteCol drops column idx with its cells.
func (a *App) DeleteCol(idx int) {
	if idx < 0 || idx >= len(a.ColWidths) {
		return
	}
	a.ColWidths = append(a.ColWidths[:idx], a.ColWidths[idx+1:]...)
	a.moveCells(func(k grid.Key) (grid.Key, bool) {
		if k.Col > idx {
			k.Col--
			return k, true
		}
		return k, k.Col != idx
	})
	if a.CurCol >= len(a.ColWidths) {
		a.CurCol = max(0, len(a.ColWidths)-1)
	}
}

// moveCells rebuilds the grid through move. Cells for which move reports
// false are dropped. Formula text is left as written.
func (a *App) moveCells(move func(grid.Key) (grid.Key, bool)) {
	next := make(grid.Table, len(a.Grid))
	for k, v := range a.Grid {
		if nk, ok := move(k); ok {
			next[nk] = v
		}
	}
	a.Grid = next
	a.dirty = true
}

// ----------------------------- Misc -----------------------------

func (a *App) EnsureColExists(idx int) {
	for len(a.ColWidths) <= idx {
		a.ColWidths = append(a.ColWidths, a.DefaultWidth)
	}
}

func (a *App) EnsureRowExists(idx int) {
	for len(a.RowHeights) <= idx {
		a.RowHeights = append(a.RowHeights, a.DefaultHeight)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
