package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridcalc/internal/config"
	"gridcalc/internal/grid"
)

func newTestApp(t *testing.T, cells map[string]string) *App {
	t.Helper()
	a := NewApp(config.Default(), nil, nil)
	for name, text := range cells {
		a.SetCell(grid.MustParseAddress(name).Key(), text)
	}
	return a
}

func key(name string) grid.Key { return grid.MustParseAddress(name).Key() }

func text(a *App, name string) string { return a.Grid[key(name)].Text }

func moveTo(a *App, name string) {
	k := key(name)
	a.CurCol, a.CurRow = k.Col, k.Row
}

func TestDisplayText(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"A1": "10",
		"B1": "=A1*2.5",
		"C1": "=A1/0",
		"D1": "=D1",
		"E1": "hello",
	})
	assert.Equal(t, "10", a.GetDisplayText(0, 0))
	assert.Equal(t, "25", a.GetDisplayText(0, 1))
	assert.Equal(t, "#DIV/0", a.GetDisplayText(0, 2))
	assert.Equal(t, "#CYCLE", a.GetDisplayText(0, 3))
	assert.Equal(t, "hello", a.GetDisplayText(0, 4))
	assert.Equal(t, "", a.GetDisplayText(5, 5))

	a.SetCell(key("A1"), "4")
	assert.Equal(t, "10", a.GetDisplayText(0, 1), "edits trigger a recalculation")
}

func TestCellStatus(t *testing.T) {
	a := newTestApp(t, map[string]string{"A1": "=B1/0", "A2": "=1+1"})
	status := a.cellStatus()
	assert.Contains(t, status, "A1")
	assert.Contains(t, status, "=B1/0")
	assert.Contains(t, status, "#DIV/0")
	assert.Contains(t, status, "division by zero")

	moveTo(a, "A2")
	assert.Equal(t, "A2  =1+1  = 2", a.cellStatus())
}

func TestFillCommands(t *testing.T) {
	a := newTestApp(t, map[string]string{"A1": "1", "B1": "2", "C1": "3", "A2": "=A1*$A$1"})
	moveTo(a, "A2")
	a.ExecuteCommand("fr 2")
	assert.Equal(t, "=B1*$A$1", text(a, "B2"))
	assert.Equal(t, "=C1*$A$1", text(a, "C2"))
	assert.Equal(t, "filled 2 cells", a.Message)
	assert.Equal(t, "3", a.GetDisplayText(1, 2))

	a.ExecuteCommand("fd 1")
	assert.Equal(t, "=A2*$A$1", text(a, "A3"))

	a.ExecuteCommand("fr x")
	assert.Contains(t, a.Message, "not a positive number")

	moveTo(a, "H8")
	a.ExecuteCommand("fr 1")
	assert.Contains(t, a.Message, "nothing to fill")
}

func TestFillStopsAtSheetEdge(t *testing.T) {
	a := newTestApp(t, map[string]string{"A1048573": "=A1048572+1", "XFB1": "=XFA1+1"})

	moveTo(a, "A1048573")
	a.ExecuteCommand("fd 99999999999999")
	assert.Equal(t, "filled 3 cells", a.Message)
	assert.Equal(t, "=A1048575+1", text(a, "A1048576"))

	moveTo(a, "XFB1")
	a.ExecuteCommand("fr 99999999999999")
	assert.Equal(t, "filled 2 cells", a.Message)
	assert.Equal(t, "=XFC1+1", text(a, "XFD1"))

	a.Message = ""
	moveTo(a, "XFD1")
	a.ExecuteCommand("fr 5")
	assert.Empty(t, a.Message)
}

func TestCtrlKeys(t *testing.T) {
	a := newTestApp(t, map[string]string{"A1": "=B1+1"})
	s := newScreen(t)

	a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyCtrlR, 0, tcell.ModCtrl))
	assert.Equal(t, "=C1+1", text(a, "B1"))
	assert.Equal(t, key("B1"), a.Cursor())

	a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyCtrlD, 0, tcell.ModCtrl))
	assert.Equal(t, "=C2+1", text(a, "B2"))
	assert.Equal(t, key("B2"), a.Cursor())

	moveTo(a, "A1")
	a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyCtrlY, 0, tcell.ModCtrl))
	moveTo(a, "D5")
	a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyCtrlP, 0, tcell.ModCtrl))
	assert.Equal(t, "=E5+1", text(a, "D5"))
}

func TestPasteWithoutCopy(t *testing.T) {
	a := newTestApp(t, nil)
	a.Paste()
	assert.Equal(t, "clipboard is empty", a.Message)
	a.Copy()
	assert.Equal(t, "nothing to copy", a.Message)
}

func TestEditKeys(t *testing.T) {
	a := newTestApp(t, nil)
	s := newScreen(t)
	press := func(ev *tcell.EventKey) { a.HandleKeyEvent(s, ev) }

	press(tcell.NewEventKey(tcell.KeyRune, 'i', tcell.ModNone))
	require.Equal(t, "insert", a.Mode)
	for _, r := range "=2^3" {
		press(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
	press(tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone))
	press(tcell.NewEventKey(tcell.KeyRune, '4', tcell.ModNone))
	press(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))

	assert.Equal(t, "normal", a.Mode)
	assert.Equal(t, "=2^4", text(a, "A1"))
	assert.Equal(t, "16", a.GetDisplayText(0, 0))
	assert.Equal(t, key("A2"), a.Cursor())

	press(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	press(tcell.NewEventKey(tcell.KeyDelete, 0, tcell.ModNone))
	assert.Empty(t, a.Grid)
}

func TestRowsAndColumns(t *testing.T) {
	a := newTestApp(t, map[string]string{"A1": "a", "B2": "b", "C3": "c"})

	a.InsertRow(1)
	assert.Equal(t, "b", text(a, "B3"))
	assert.Equal(t, "a", text(a, "A1"))

	a.InsertCol(0)
	assert.Equal(t, "a", text(a, "B1"))
	assert.Equal(t, "c", text(a, "D4"))

	a.DeleteRow(2)
	assert.Equal(t, map[grid.Key]string{key("B1"): "a", key("D3"): "c"}, texts(a))

	a.DeleteCol(1)
	assert.Equal(t, map[grid.Key]string{key("C3"): "c"}, texts(a))
}

func texts(a *App) map[grid.Key]string {
	out := map[grid.Key]string{}
	for k, c := range a.Grid {
		out[k] = c.Text
	}
	return out
}

func TestSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, map[string]string{"A1": "5", "B1": "=A1+1"})
	a.ExecuteCommand("w " + filepath.Join(dir, "sheet"))
	path := filepath.Join(dir, "sheet.csv")
	assert.Equal(t, "saved "+path, a.Message)
	assert.Equal(t, path, a.File)

	b := newTestApp(t, nil)
	b.ExecuteCommand("o " + path)
	assert.Equal(t, "6", b.GetDisplayText(0, 1))

	b.ExecuteCommand("o " + filepath.Join(dir, "missing.csv"))
	assert.True(t, strings.HasPrefix(b.Message, "o: "))

	b.ExecuteCommand("w")
	assert.Equal(t, "saved "+path, b.Message)
}

func TestCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.csv")
	require.NoError(t, os.WriteFile(path, []byte("C1,=A1+B1,=B1+A1\nC2,=A2*2\nC3,=1\n"), 0o644))

	a := newTestApp(t, map[string]string{"C1": "=b1 + a1", "C2": "=A2+A2"})
	a.Check()
	assert.Contains(t, a.Message, "no answer key")

	a.ExecuteCommand("key " + path)
	assert.Equal(t, "answer key: 3 cells", a.Message)

	a.ExecuteCommand("check")
	assert.Equal(t, "check: 1/3 passed, failed: C2, missing: C3", a.Message)
}

func TestCommandMisc(t *testing.T) {
	a := newTestApp(t, nil)
	a.ExecuteCommand("g c12")
	assert.Equal(t, key("C12"), a.Cursor())

	a.ExecuteCommand("g 12c")
	assert.Contains(t, a.Message, "goto:")

	a.ExecuteCommand("cw 9")
	assert.Equal(t, 9, a.ColWidths[0])
	a.ExecuteCommand("cw 2")
	assert.Equal(t, 9, a.ColWidths[0])

	a.ExecuteCommand("frobnicate")
	assert.Equal(t, `unknown command "frobnicate"`, a.Message)

	a.ExecuteCommand("q")
	assert.True(t, a.Quit)
	assert.Equal(t, []string{"g c12", "g 12c", "cw 9", "cw 2", "frobnicate", "q"}, a.History)
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three\nabcdefghijkl", 8)
	assert.Equal(t, []string{" one two", " three", " abcdefg", " hijkl"}, lines)
}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("")
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	s.SetSize(80, 24)
	return s
}

func screenLine(s tcell.SimulationScreen, y int) string {
	cells, w, _ := s.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		if r := cells[y*w+x].Runes; len(r) > 0 {
			b.WriteRune(r[0])
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func TestDraw(t *testing.T) {
	a := newTestApp(t, map[string]string{"A1": "2", "B1": "=A1*21", "A2": "=NOPE(1)"})
	s := newScreen(t)
	a.EnsureCursorVisible(s)
	a.Draw(s)

	header := screenLine(s, 0)
	assert.Contains(t, header, " A ")
	assert.Contains(t, header, " B ")

	row1 := screenLine(s, 1)
	assert.True(t, strings.HasPrefix(row1, "1"))
	assert.Contains(t, row1, "42")
	assert.Contains(t, screenLine(s, 2), "#NAME?")

	status := screenLine(s, 22)
	assert.Contains(t, status, "NORMAL | A1  2")
}

func TestEnsureCursorVisible(t *testing.T) {
	a := newTestApp(t, nil)
	s := newScreen(t)
	moveTo(a, "A100")
	a.EnsureRowExists(a.CurRow)
	a.EnsureCursorVisible(s)
	rows, _ := a.ComputeVisible(s)
	assert.LessOrEqual(t, a.ViewRow, a.CurRow)
	assert.Greater(t, a.ViewRow+rows, a.CurRow)

	moveTo(a, "A1")
	a.EnsureCursorVisible(s)
	assert.Equal(t, 0, a.ViewRow)
}

func TestShowReferences(t *testing.T) {
	a := newTestApp(t, map[string]string{"A1": "=SUM(B1:B3)+$C$4", "A2": "=1+2", "A3": "7", "A4": "=SUM("})
	a.ShowReferences()
	assert.Equal(t, "A1 uses B1 B2 B3 $C$4", a.Message)

	moveTo(a, "A2")
	a.ExecuteCommand("refs")
	assert.Equal(t, "A2 uses no cells", a.Message)

	moveTo(a, "A3")
	a.ShowReferences()
	assert.Equal(t, "A3 has no formula", a.Message)

	moveTo(a, "A4")
	a.ShowReferences()
	assert.True(t, strings.HasPrefix(a.Message, "refs: "))
}
