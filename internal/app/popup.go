package app

import (
	"github.com/gdamore/tcell/v2"
)

const maxInputRunes = 4096

// PopupInput shows a one line input box over the sheet and blocks until
// Enter (returns the text and true) or Esc (returns "" and false). Up and
// Down walk history, oldest first.
func (a *App) PopupInput(s tcell.Screen, prompt, initial string, history []string) (string, bool) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorReset)

	promptRunes := []rune(prompt)
	buf := []rune(initial)
	pos := len(buf)
	hist := len(history)

	w, h := s.Size()
	contentW := min(max(40, len(promptRunes)+len(buf)+2), w-4)
	boxW := contentW + 4
	boxH := 3
	left := (w - boxW) / 2
	top := (h - boxH) / 2

	drawBox := func() {
		for y := top; y < top+boxH; y++ {
			a.printTextFixedWidth(s, left, y, "", style, boxW)
		}
		drawFrame(s, left, top, boxW, boxH, style)

		x := left + 2
		y := top + 1
		a.printTextFixedWidth(s, x, y, prompt, style, len(promptRunes))
		if len(promptRunes) > 0 {
			x += len(promptRunes) + 1
		}

		maxField := max(1, left+boxW-2-x)
		start := 0
		if pos > maxField {
			start = pos - maxField
		}
		end := min(len(buf), start+maxField)
		a.printTextFixedWidth(s, x, y, string(buf[start:end]), style, maxField)
		s.ShowCursor(max(left+1, x+pos-start), y)
	}

	redraw := func() {
		a.Draw(s)
		drawBox()
		s.Show()
	}
	finish := func() {
		s.HideCursor()
		a.Draw(s)
	}

	redraw()
	for {
		switch ev := s.PollEvent().(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEsc:
				finish()
				return "", false
			case tcell.KeyEnter:
				finish()
				return string(buf), true
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				if pos > 0 {
					buf = append(buf[:pos-1], buf[pos:]...)
					pos--
				}
			case tcell.KeyDelete:
				if pos < len(buf) {
					buf = append(buf[:pos], buf[pos+1:]...)
				}
			case tcell.KeyLeft:
				pos = max(0, pos-1)
			case tcell.KeyRight:
				pos = min(len(buf), pos+1)
			case tcell.KeyHome:
				pos = 0
			case tcell.KeyEnd:
				pos = len(buf)
			case tcell.KeyUp:
				if hist > 0 {
					hist--
					buf = []rune(history[hist])
					pos = len(buf)
				}
			case tcell.KeyDown:
				if hist < len(history)-1 {
					hist++
					buf = []rune(history[hist])
				} else {
					hist = len(history)
					buf = []rune(initial)
				}
				pos = len(buf)
			case tcell.KeyRune:
				if len(buf) < maxInputRunes {
					buf = append(buf[:pos], append([]rune{ev.Rune()}, buf[pos:]...)...)
					pos++
				}
			}
			redraw()
		case *tcell.EventResize:
			s.Sync()
			w, h = s.Size()
			boxW = min(boxW, w-4)
			left = (w - boxW) / 2
			top = (h - boxH) / 2
			redraw()
		case nil:
			// screen finalized
			return "", false
		}
	}
}
