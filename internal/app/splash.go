package app

import (
	"time"

	"github.com/gdamore/tcell/v2"
)

const splashHint = "Press any key to start"

// Splash reveals title one letter at a time and waits for a key. Letters
// alternate white and yellow.
func Splash(s tcell.Screen, title string, delay time.Duration) {
	letters := []rune(title)
	width, height := s.Size()
	startX := (width - len(letters)) / 2
	y := height / 2

	for reveal := 1; reveal <= len(letters); reveal++ {
		s.Clear()
		for i, ch := range letters[:reveal] {
			color := tcell.ColorWhite
			if i%2 == 1 {
				color = tcell.ColorYellow
			}
			s.SetContent(startX+i, y, ch, nil, tcell.StyleDefault.Foreground(color).Bold(true))
		}
		hintX := (width - len(splashHint)) / 2
		for i, ch := range splashHint {
			s.SetContent(hintX+i, y+2, ch, nil, tcell.StyleDefault.Foreground(tcell.ColorYellow))
		}
		s.Show()
		time.Sleep(delay)
	}

	for {
		switch s.PollEvent().(type) {
		case *tcell.EventKey, nil:
			return
		case *tcell.EventResize:
			s.Sync()
		}
	}
}
