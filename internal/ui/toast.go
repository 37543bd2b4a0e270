package ui

import (
	"github.com/csams/podcast-admin/internal/notify"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const toastMaxWidth = 48

// drawToasts stacks the active notifications in the bottom-right corner
// above the status bar, newest at the bottom.
func drawToasts(s tcell.Screen, toasts []notify.Notification) {
	w, h := s.Size()
	y := h - 2
	for i := len(toasts) - 1; i >= 0 && y >= 0; i-- {
		t := toasts[i]
		text := runewidth.Truncate(toastIcon(t.Kind)+" "+t.Message, toastMaxWidth, "…")
		width := runewidth.StringWidth(text) + 2
		x := w - width - 1
		if x < 0 {
			x = 0
		}
		style := tcell.StyleDefault.Background(ColorBgHighlight).Foreground(kindColor(t.Kind))
		for col := x; col < x+width && col < w; col++ {
			s.SetContent(col, y, ' ', nil, style)
		}
		drawText(s, x+1, y, style, text)
		y--
	}
}

func toastIcon(kind notify.Kind) string {
	switch kind {
	case notify.KindSuccess:
		return "✓"
	case notify.KindError:
		return "✗"
	default:
		return "•"
	}
}
