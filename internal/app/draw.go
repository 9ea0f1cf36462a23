package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"gridcalc/internal/calc"
	"gridcalc/internal/grid"
)

const helpText = "\n i / Enter - edit \n Ctrl+Enter - save&stay \n Shift/Alt+Enter - newline \n Del - clear cell \n : - command \n = - formula \n Ctrl+R / Ctrl+D - fill right / down \n Ctrl+Y / Ctrl+P - copy / paste \n Ctrl←/Ctrl→ - col width \n Ctrl↑/Ctrl↓ - row height \n F2/F3 - add row/col \n F4/F5 - delete row/col \n PgUp/PgDn/Home/End - scroll \n :w [file] | :o file | :g A1 \n :fr N | :fd N - fill \n :key file | :check - grade \n :refs - formula inputs \n "

// GetDisplayText is what the grid shows for the cell at (r, c): literal
// text as typed, formula results formatted, failures as an error code.
func (a *App) GetDisplayText(r, c int) string {
	k := grid.Key{Col: c, Row: r}
	cell, ok := a.Grid[k]
	if !ok {
		return ""
	}
	if !cell.IsFormula() {
		return cell.Text
	}
	if res, ok := a.Result(k); ok {
		return res.Display
	}
	return a.Engine.Display(cell.Text, a.Grid, k.Address())
}

// cellStatus describes the cursor cell for the status line.
func (a *App) cellStatus() string {
	k := a.Cursor()
	cell, ok := a.Grid[k]
	if !ok {
		return k.String()
	}
	if !cell.IsFormula() {
		return fmt.Sprintf("%s  %s", k, cell.Text)
	}
	res, ok := a.Result(k)
	switch {
	case !ok:
		return fmt.Sprintf("%s  %s", k, cell.Text)
	case res.Err != nil:
		return fmt.Sprintf("%s  %s  %s  %v", k, cell.Text, res.Display, res.Err)
	default:
		return fmt.Sprintf("%s  %s  = %s", k, cell.Text, res.Display)
	}
}

func isNumeric(text string) bool {
	_, err := strconv.ParseFloat(text, 64)
	return err == nil
}

func isErrorCode(text string) bool {
	switch text {
	case calc.Code(calc.ErrCircularReference), calc.Code(calc.ErrDivisionByZero),
		calc.Code(calc.ErrUnknownFunction), calc.Code(calc.ErrInvalidExpression),
		calc.Code(grid.ErrMalformedAddress):
		return true
	}
	return false
}

// ----------------------------- Drawing -----------------------------

func (a *App) Draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()

	// header row: column names
	x := a.LeftGutter
	for c := a.ViewCol; c < len(a.ColWidths) && x < w; c++ {
		wc := a.ColWidths[c]
		hdrStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if c == a.CurCol {
			hdrStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
			a.printTextFixedWidth(s, x, 0, "", hdrStyle, wc)
		}
		a.printCell(s, x, 0, wc, grid.ColToName(c), hdrStyle, false)
		x += wc
	}

	// rows
	y := 1
	for r := a.ViewRow; r < len(a.RowHeights) && y < h-a.StatusLines; r++ {
		gutterStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if r == a.CurRow {
			gutterStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
		}
		a.printTextFixedWidth(s, 0, y, strconv.Itoa(r+1), gutterStyle, a.LeftGutter-1)

		x = a.LeftGutter
		hh := a.RowHeights[r]
		for c := a.ViewCol; c < len(a.ColWidths) && x < w; c++ {
			wc := a.ColWidths[c]
			selected := r == a.CurRow && c == a.CurCol

			text := a.GetDisplayText(r, c)
			if a.Mode == "insert" && selected {
				text = a.InputBuf
			}

			style := tcell.StyleDefault
			switch {
			case selected:
				style = style.Foreground(tcell.ColorBlack).Background(tcell.ColorLightGray)
			case isErrorCode(text):
				style = style.Foreground(tcell.ColorRed)
			}
			rightAlign := isNumeric(text) && !(a.Mode == "insert" && selected)

			for dy, line := range a.splitLines(text, hh) {
				if y+dy >= h-a.StatusLines {
					break
				}
				a.printTextFixedWidth(s, x, y+dy, "", style, wc)
				a.printCell(s, x, y+dy, wc, line, style, rightAlign)
			}
			x += wc
		}
		y += hh
	}

	a.drawStatus(s)

	if a.HelpVisible {
		a.drawHelpPopup(s, helpText)
	}

	if a.Mode == "insert" {
		a.drawInsertCursor(s)
	} else {
		s.HideCursor()
	}
	s.Show()
}

func (a *App) drawStatus(s tcell.Screen) {
	w, h := s.Size()
	statusY := max(0, h-a.StatusLines)
	statusStyle := tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorWhite)

	left := fmt.Sprintf("%s | %s", strings.ToUpper(a.Mode), a.cellStatus())
	a.printTextFixedWidth(s, 0, statusY, left, statusStyle, w)

	var second string
	switch {
	case a.Mode == "insert":
		second = "EDIT: " + a.InputBuf
	case a.Message != "":
		second = a.Message
	case a.File != "":
		second = a.File
	}
	a.printTextFixedWidth(s, 0, statusY+1, second, statusStyle, w)
}

// drawInsertCursor marks the end of the edit buffer inside the cursor cell.
func (a *App) drawInsertCursor(s tcell.Screen) {
	w, h := s.Size()
	cellX, cellY, ok := a.cellOrigin()
	if !ok || cellX >= w || cellY >= h-a.StatusLines {
		s.HideCursor()
		return
	}
	lines := strings.Split(a.InputBuf, "\n")
	lastIdx := len(lines) - 1
	lastLine := lines[lastIdx]

	colW := a.ColWidths[a.CurCol]
	rowH := a.RowHeights[a.CurRow]
	innerW := colW - 2*a.CellPadding
	cx := cellX + min(runeLen(lastLine), max(0, colW-1))
	if innerW >= 1 {
		cx = cellX + a.CellPadding + min(runeLen(lastLine), innerW-1)
	}
	cy := cellY + min(lastIdx, max(0, rowH-1))
	if cx < 0 || cx >= w || cy < 0 || cy >= h {
		s.HideCursor()
		return
	}
	s.SetContent(cx, cy, '▏', nil, tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorLightGray))
}

// printCell prints text inside the cell padding, right aligned when asked.
func (a *App) printCell(s tcell.Screen, x, y, width int, text string, style tcell.Style, right bool) {
	innerX := x + a.CellPadding
	innerW := width - 2*a.CellPadding
	if innerW <= 0 {
		innerX, innerW = x, width
	}
	if n := runeLen(text); right && n < innerW {
		text = strings.Repeat(" ", innerW-n) + text
	}
	a.printTextFixedWidth(s, innerX, y, text, style, innerW)
}

func (a *App) printTextFixedWidth(s tcell.Screen, x, y int, str string, style tcell.Style, width int) {
	runes := []rune(str)
	for i := 0; i < width; i++ {
		ch := ' '
		if i < len(runes) {
			ch = runes[i]
		}
		if x+i >= 0 && y >= 0 {
			s.SetContent(x+i, y, ch, nil, style)
		}
	}
}

// splitLines returns exactly maxLines lines of text, padding with empty
// lines and dropping the overflow.
func (a *App) splitLines(text string, maxLines int) []string {
	if maxLines <= 0 {
		return nil
	}
	out := make([]string, maxLines)
	copy(out, strings.Split(text, "\n"))
	return out
}

func (a *App) drawHelpPopup(s tcell.Screen, help string) {
	w, h := s.Size()
	if w < 10 || h < 5 {
		return
	}

	padding := 2
	maxPW := w - 6
	maxPH := h - 4

	innerW := min(maxPW-padding*2, 50)
	if innerW < 30 {
		innerW = max(30, maxPW-padding*2)
	}
	innerW = min(innerW, maxPW-padding*2)

	lines := wrapText(help, innerW)
	if limit := maxPH - padding*2; limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	innerH := max(3, len(lines))

	pw := innerW + padding*2
	ph := innerH + padding*2
	left := (w - pw) / 2
	top := (h - ph) / 2

	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDefault)
	bgStyle := tcell.StyleDefault.Background(tcell.ColorDefault).Foreground(tcell.ColorWhite)

	for yy := 0; yy < ph; yy++ {
		a.printTextFixedWidth(s, left, top+yy, "", bgStyle, pw)
	}
	drawFrame(s, left, top, pw, ph, borderStyle)

	for i, ln := range lines {
		a.printTextFixedWidth(s, left+padding, top+padding+i, ln, bgStyle, innerW)
	}
}

func drawFrame(s tcell.Screen, left, top, width, height int, style tcell.Style) {
	right, bottom := left+width-1, top+height-1
	for x := left + 1; x < right; x++ {
		s.SetContent(x, top, tcell.RuneHLine, nil, style)
		s.SetContent(x, bottom, tcell.RuneHLine, nil, style)
	}
	for y := top + 1; y < bottom; y++ {
		s.SetContent(left, y, tcell.RuneVLine, nil, style)
		s.SetContent(right, y, tcell.RuneVLine, nil, style)
	}
	s.SetContent(left, top, tcell.RuneULCorner, nil, style)
	s.SetContent(right, top, tcell.RuneURCorner, nil, style)
	s.SetContent(left, bottom, tcell.RuneLLCorner, nil, style)
	s.SetContent(right, bottom, tcell.RuneLRCorner, nil, style)
}

// wrapText wraps s to lines of at most width runes with a one space left
// margin. Words longer than a line are split.
func wrapText(s string, width int) []string {
	if width <= 2 {
		return []string{s}
	}

	var result []string
	paragraphs := strings.Split(s, "\n")
	for pi, para := range paragraphs {
		words := strings.Fields(para)
		if len(words) == 0 {
			if pi > 0 && pi < len(paragraphs)-1 {
				result = append(result, "")
			}
			continue
		}

		cur := " "
		for _, w := range words {
			for _, chunk := range chunkString(w, width-1) {
				switch {
				case cur == " ":
					cur += chunk
				case runeLen(cur)+1+runeLen(chunk) <= width:
					cur += " " + chunk
				default:
					result = append(result, cur)
					cur = " " + chunk
				}
			}
		}
		result = append(result, cur)
	}
	return result
}

func runeLen(s string) int {
	return len([]rune(s))
}

func chunkString(s string, size int) []string {
	r := []rune(s)
	var out []string
	for i := 0; i < len(r); i += size {
		out = append(out, string(r[i:min(i+size, len(r))]))
	}
	return out
}
