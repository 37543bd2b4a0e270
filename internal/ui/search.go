package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// LineInput is a single-line text editor with readline-style bindings. It is
// used by the search line, the edit form and the chat prompt.
type LineInput struct {
	text      []rune
	cursorPos int
}

// NewLineInput creates an empty input.
func NewLineInput() *LineInput {
	return &LineInput{}
}

// Text returns the current contents.
func (s *LineInput) Text() string {
	return string(s.text)
}

// Cursor returns the cursor position in runes.
func (s *LineInput) Cursor() int {
	return s.cursorPos
}

// SetText sets the contents and moves the cursor to the end
func (s *LineInput) SetText(text string) {
	s.text = []rune(text)
	s.cursorPos = len(s.text)
}

// Clear empties the input
func (s *LineInput) Clear() {
	s.text = nil
	s.cursorPos = 0
}

// InsertChar inserts a character at the cursor position
func (s *LineInput) InsertChar(ch rune) {
	s.text = append(s.text, 0)
	copy(s.text[s.cursorPos+1:], s.text[s.cursorPos:])
	s.text[s.cursorPos] = ch
	s.cursorPos++
}

// DeleteChar deletes the character before the cursor (backspace)
func (s *LineInput) DeleteChar() {
	if s.cursorPos > 0 {
		s.text = append(s.text[:s.cursorPos-1], s.text[s.cursorPos:]...)
		s.cursorPos--
	}
}

// DeleteCharForward deletes the character at the cursor (delete)
func (s *LineInput) DeleteCharForward() {
	if s.cursorPos < len(s.text) {
		s.text = append(s.text[:s.cursorPos], s.text[s.cursorPos+1:]...)
	}
}

// MoveCursorLeft moves cursor left
func (s *LineInput) MoveCursorLeft() {
	if s.cursorPos > 0 {
		s.cursorPos--
	}
}

// MoveCursorRight moves cursor right
func (s *LineInput) MoveCursorRight() {
	if s.cursorPos < len(s.text) {
		s.cursorPos++
	}
}

// MoveCursorStart moves cursor to start (Ctrl+A)
func (s *LineInput) MoveCursorStart() {
	s.cursorPos = 0
}

// MoveCursorEnd moves cursor to end (Ctrl+E)
func (s *LineInput) MoveCursorEnd() {
	s.cursorPos = len(s.text)
}

// DeleteToEnd deletes from cursor to end (Ctrl+K)
func (s *LineInput) DeleteToEnd() {
	s.text = s.text[:s.cursorPos]
}

// DeleteWord deletes the word before cursor (Ctrl+W)
func (s *LineInput) DeleteWord() {
	if s.cursorPos == 0 {
		return
	}

	start := s.cursorPos - 1
	for start > 0 && s.text[start] == ' ' {
		start--
	}
	for start > 0 && s.text[start-1] != ' ' {
		start--
	}

	s.text = append(s.text[:start], s.text[s.cursorPos:]...)
	s.cursorPos = start
}

// MoveCursorWordForward moves cursor forward by one word (Alt+F)
func (s *LineInput) MoveCursorWordForward() {
	for s.cursorPos < len(s.text) && s.text[s.cursorPos] != ' ' {
		s.cursorPos++
	}
	for s.cursorPos < len(s.text) && s.text[s.cursorPos] == ' ' {
		s.cursorPos++
	}
}

// MoveCursorWordBackward moves cursor backward by one word (Alt+B)
func (s *LineInput) MoveCursorWordBackward() {
	for s.cursorPos > 0 && s.text[s.cursorPos-1] == ' ' {
		s.cursorPos--
	}
	for s.cursorPos > 0 && s.text[s.cursorPos-1] != ' ' {
		s.cursorPos--
	}
}

// DeleteWordForward deletes the word after cursor (Alt+D)
func (s *LineInput) DeleteWordForward() {
	end := s.cursorPos
	for end < len(s.text) && s.text[end] == ' ' {
		end++
	}
	for end < len(s.text) && s.text[end] != ' ' {
		end++
	}
	s.text = append(s.text[:s.cursorPos], s.text[end:]...)
}

// HandleKey applies an editing key. It reports whether the key was an
// editing key; Enter, Escape and Tab are left to the caller.
func (s *LineInput) HandleKey(ev *tcell.EventKey) bool {
	if ev.Modifiers()&tcell.ModAlt != 0 && ev.Key() == tcell.KeyRune {
		switch ev.Rune() {
		case 'f':
			s.MoveCursorWordForward()
		case 'b':
			s.MoveCursorWordBackward()
		case 'd':
			s.DeleteWordForward()
		default:
			return false
		}
		return true
	}

	switch ev.Key() {
	case tcell.KeyRune:
		s.InsertChar(ev.Rune())
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		s.DeleteChar()
	case tcell.KeyDelete, tcell.KeyCtrlD:
		s.DeleteCharForward()
	case tcell.KeyLeft, tcell.KeyCtrlB:
		s.MoveCursorLeft()
	case tcell.KeyRight, tcell.KeyCtrlF:
		s.MoveCursorRight()
	case tcell.KeyHome, tcell.KeyCtrlA:
		s.MoveCursorStart()
	case tcell.KeyEnd, tcell.KeyCtrlE:
		s.MoveCursorEnd()
	case tcell.KeyCtrlK:
		s.DeleteToEnd()
	case tcell.KeyCtrlW:
		s.DeleteWord()
	case tcell.KeyCtrlU:
		s.Clear()
	default:
		return false
	}
	return true
}

// Draw renders the input at x,y within width cells, scrolling so the
// cursor stays visible. The cursor cell is drawn in reverse video when
// focused.
func (s *LineInput) Draw(scr tcell.Screen, x, y, width int, style tcell.Style, focused bool) {
	if width <= 0 {
		return
	}

	// Scroll so that the cursor fits.
	start := 0
	for runewidth.StringWidth(string(s.text[start:s.cursorPos])) >= width {
		start++
	}

	col := 0
	for i := start; i <= len(s.text); i++ {
		ch := ' '
		if i < len(s.text) {
			ch = s.text[i]
		} else if !focused {
			break
		}
		w := runewidth.RuneWidth(ch)
		if col+w > width {
			break
		}
		cellStyle := style
		if focused && i == s.cursorPos {
			cellStyle = style.Reverse(true)
		}
		scr.SetContent(x+col, y, ch, nil, cellStyle)
		col += w
	}
}
