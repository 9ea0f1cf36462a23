package app

import "github.com/gdamore/tcell/v2"

// ----------------------------- Viewport / Geometry -----------------------------

// usable is the screen area left for cells.
func (a *App) usable(s tcell.Screen) (w, h int) {
	sw, sh := s.Size()
	return max(1, sw-a.LeftGutter), max(1, sh-a.StatusLines-1)
}

// ComputeVisible counts the rows and columns that fit from the view origin.
func (a *App) ComputeVisible(s tcell.Screen) (visibleRows, visibleCols int) {
	usableW, usableH := a.usable(s)
	return fit(a.RowHeights, a.ViewRow, usableH), fit(a.ColWidths, a.ViewCol, usableW)
}

// fit counts how many sizes from start add up to no more than limit, and
// at least one.
func fit(sizes []int, start, limit int) int {
	sum, n := 0, 0
	for i := start; i < len(sizes); i++ {
		if sum+sizes[i] > limit {
			break
		}
		sum += sizes[i]
		n++
	}
	return max(1, n)
}

// EnsureCursorVisible scrolls the view so the cursor cell is on screen.
func (a *App) EnsureCursorVisible(s tcell.Screen) {
	if s == nil {
		return
	}
	visibleRows, visibleCols := a.ComputeVisible(s)
	a.ViewCol = scrollTo(a.CurCol, a.ViewCol, visibleCols, len(a.ColWidths))
	a.ViewRow = scrollTo(a.CurRow, a.ViewRow, visibleRows, len(a.RowHeights))
}

func scrollTo(cur, view, visible, total int) int {
	if cur < view {
		view = cur
	} else if cur >= view+visible {
		view = cur - visible + 1
	}
	return clamp(view, 0, max(0, total-1))
}

// cellOrigin is the screen position of the cursor cell's top left corner.
// ok is false when the cursor is scrolled off the top or left.
func (a *App) cellOrigin() (x, y int, ok bool) {
	if a.CurCol < a.ViewCol || a.CurRow < a.ViewRow {
		return 0, 0, false
	}
	x = a.LeftGutter
	for c := a.ViewCol; c < a.CurCol && c < len(a.ColWidths); c++ {
		x += a.ColWidths[c]
	}
	y = 1
	for r := a.ViewRow; r < a.CurRow && r < len(a.RowHeights); r++ {
		y += a.RowHeights[r]
	}
	return x, y, true
}
