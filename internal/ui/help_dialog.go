package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

var helpLines = []string{
	"",
	"Episodes:",
	"  j / k         Move down/up",
	"  Ctrl+F / B    Page down/up",
	"  g / G         Go to top/bottom",
	"  m             Load more episodes",
	"  e             Edit selected episode",
	"  d             Delete selected episode",
	"  r             Retry loading / reload the catalogue",
	"",
	"Search:",
	"  /             Search title, description and date",
	"  Enter         Apply the search now and leave the search line",
	"  Esc           Leave the search line (the filter stays)",
	"  Ctrl+U        Clear the search line",
	"",
	"Edit form:",
	"  Tab / S-Tab   Next/previous field",
	"  Enter         Next field, or submit on Save",
	"  Ctrl+S        Submit",
	"  Esc           Cancel",
	"",
	"Chat:",
	"  c             Open the assistant",
	"  Enter         Send message",
	"  Esc           Back to episodes",
	"",
	"Other:",
	"  x             Dismiss the latest notification",
	"  ?             Show this help dialog",
	"  q             Quit",
}

type HelpDialog struct {
	visible      bool
	scrollOffset int
	visibleLines int
}

func NewHelpDialog() *HelpDialog {
	return &HelpDialog{visibleLines: 15}
}

func (h *HelpDialog) Show() {
	h.visible = true
	h.scrollOffset = 0
}

func (h *HelpDialog) Hide() {
	h.visible = false
}

func (h *HelpDialog) IsVisible() bool {
	return h.visible
}

func (h *HelpDialog) Draw(s tcell.Screen) {
	if !h.visible {
		return
	}

	w, screenHeight := s.Size()

	maxLineWidth := 0
	for _, line := range helpLines {
		if lw := runewidth.StringWidth(line); lw > maxLineWidth {
			maxLineWidth = lw
		}
	}
	dialogWidth := maxLineWidth + 4
	if dialogWidth > w-4 {
		dialogWidth = w - 4
	}
	if dialogWidth < 40 {
		dialogWidth = 40
	}
	dialogHeight := len(helpLines) + 5
	if dialogHeight > screenHeight-4 {
		dialogHeight = screenHeight - 4
	}
	if dialogHeight < 10 {
		dialogHeight = 10
	}
	startX := (w - dialogWidth) / 2
	startY := (screenHeight - dialogHeight) / 2

	dialogStyle := tcell.StyleDefault.Background(tcell.ColorDarkBlue).Foreground(tcell.ColorWhite)
	drawBox(s, startX, startY, dialogWidth, dialogHeight, dialogStyle)

	title := "Help - Keybindings"
	titleX := startX + (dialogWidth-runewidth.StringWidth(title))/2
	drawText(s, titleX, startY+1, dialogStyle.Foreground(tcell.ColorYellow).Bold(true), title)

	h.visibleLines = dialogHeight - 5
	h.clampScroll()
	for i := 0; i < h.visibleLines && i+h.scrollOffset < len(helpLines); i++ {
		line := runewidth.Truncate(helpLines[i+h.scrollOffset], dialogWidth-4, "…")
		drawText(s, startX+2, startY+2+i, dialogStyle, line)
	}

	footer := "Press Esc or ? to close"
	if len(helpLines) > h.visibleLines {
		footer = "j/k to scroll, Esc or ? to close"
	}
	footerX := startX + (dialogWidth-runewidth.StringWidth(footer))/2
	drawText(s, footerX, startY+dialogHeight-2, dialogStyle.Foreground(tcell.ColorGray), footer)
}

func (h *HelpDialog) HandleKey(ev *tcell.EventKey) bool {
	if !h.visible {
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		h.Hide()
	case tcell.KeyUp:
		h.scrollOffset--
	case tcell.KeyDown:
		h.scrollOffset++
	case tcell.KeyRune:
		switch ev.Rune() {
		case '?', 'q':
			h.Hide()
		case 'j':
			h.scrollOffset++
		case 'k':
			h.scrollOffset--
		case 'g':
			h.scrollOffset = 0
		case 'G':
			h.scrollOffset = len(helpLines)
		}
	}
	h.clampScroll()
	return true // Consume all other keys when visible
}

func (h *HelpDialog) clampScroll() {
	maxScroll := len(helpLines) - h.visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if h.scrollOffset > maxScroll {
		h.scrollOffset = maxScroll
	}
	if h.scrollOffset < 0 {
		h.scrollOffset = 0
	}
}
