package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// ConfirmationDialog is a modal yes/no prompt. Exactly one of onYes and
// onNo runs per Show.
type ConfirmationDialog struct {
	visible bool
	title   string
	message string
	onYes   func()
	onNo    func()
}

func NewConfirmationDialog() *ConfirmationDialog {
	return &ConfirmationDialog{}
}

// Show opens the dialog. A dialog that is already open is answered "no"
// first.
func (c *ConfirmationDialog) Show(title, message string, onYes, onNo func()) {
	if c.visible {
		c.answer(false)
	}
	c.visible = true
	c.title = title
	c.message = message
	c.onYes = onYes
	c.onNo = onNo
}

func (c *ConfirmationDialog) Hide() {
	c.visible = false
	c.title = ""
	c.message = ""
	c.onYes = nil
	c.onNo = nil
}

func (c *ConfirmationDialog) IsVisible() bool {
	return c.visible
}

// Cancel answers "no" if the dialog is open.
func (c *ConfirmationDialog) Cancel() {
	if c.visible {
		c.answer(false)
	}
}

func (c *ConfirmationDialog) answer(yes bool) {
	fn := c.onNo
	if yes {
		fn = c.onYes
	}
	c.Hide()
	if fn != nil {
		fn()
	}
}

func (c *ConfirmationDialog) Draw(s tcell.Screen) {
	if !c.visible {
		return
	}

	w, screenHeight := s.Size()
	dialogWidth := 50
	messageLines := wrapText(c.message, dialogWidth-4)
	dialogHeight := 6 + len(messageLines)

	if dialogWidth > w {
		dialogWidth = w
	}
	if dialogHeight > screenHeight {
		dialogHeight = screenHeight
	}
	startX := (w - dialogWidth) / 2
	startY := (screenHeight - dialogHeight) / 2

	dialogStyle := tcell.StyleDefault.Background(tcell.ColorDarkRed).Foreground(tcell.ColorWhite)
	drawBox(s, startX, startY, dialogWidth, dialogHeight, dialogStyle)

	titleStyle := dialogStyle.Foreground(tcell.ColorYellow).Bold(true)
	titleX := startX + (dialogWidth-runewidth.StringWidth(c.title))/2
	if titleX < startX+2 {
		titleX = startX + 2
	}
	drawText(s, titleX, startY+1, titleStyle, c.title)

	for i, line := range messageLines {
		if 3+i >= dialogHeight-2 {
			break
		}
		drawText(s, startX+2, startY+3+i, dialogStyle, line)
	}

	buttonStyle := dialogStyle.Bold(true)
	buttonsY := startY + dialogHeight - 2
	drawText(s, startX+dialogWidth/2-6, buttonsY, buttonStyle, "[Y]es")
	drawText(s, startX+dialogWidth/2+2, buttonsY, buttonStyle, "[N]o")
}

func (c *ConfirmationDialog) HandleKey(ev *tcell.EventKey) bool {
	if !c.visible {
		return false
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		c.answer(false)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'y', 'Y':
			c.answer(true)
		case 'n', 'N':
			c.answer(false)
		}
	}
	return true // Consume all other keys when visible
}

// drawBox fills a rectangle and draws a single-line border around it.
func drawBox(s tcell.Screen, x, y, w, h int, style tcell.Style) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			s.SetContent(col, row, ' ', nil, style)
		}
	}
	if w < 2 || h < 2 {
		return
	}
	for col := x + 1; col < x+w-1; col++ {
		s.SetContent(col, y, '─', nil, style)
		s.SetContent(col, y+h-1, '─', nil, style)
	}
	for row := y + 1; row < y+h-1; row++ {
		s.SetContent(x, row, '│', nil, style)
		s.SetContent(x+w-1, row, '│', nil, style)
	}
	s.SetContent(x, y, '┌', nil, style)
	s.SetContent(x+w-1, y, '┐', nil, style)
	s.SetContent(x, y+h-1, '└', nil, style)
	s.SetContent(x+w-1, y+h-1, '┘', nil, style)
}
