package ui

import (
	"fmt"
	"strings"

	"github.com/csams/podcast-admin/internal/markdown"
	"github.com/csams/podcast-admin/internal/models"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

type chatRole int

const (
	roleUser chatRole = iota
	roleAssistant
	roleError
)

type chatMessage struct {
	role    chatRole
	text    string
	sources []models.Source
}

// ChatView is the assistant pane: a scrollback of questions and answers
// with a prompt line at the bottom.
type ChatView struct {
	messages  []chatMessage
	input     *LineInput
	waiting   bool
	scroll    int // lines scrolled up from the bottom
	converter *markdown.Converter

	onSend func(message string)
}

func NewChatView(onSend func(message string)) *ChatView {
	return &ChatView{
		input:     NewLineInput(),
		converter: markdown.NewConverter(),
		onSend:    onSend,
	}
}

// Waiting reports whether a reply is outstanding.
func (c *ChatView) Waiting() bool {
	return c.waiting
}

// AddReply appends the assistant's answer and ends the wait.
func (c *ChatView) AddReply(reply *models.ChatReply) {
	c.waiting = false
	c.scroll = 0
	c.messages = append(c.messages, chatMessage{role: roleAssistant, text: reply.Answer, sources: reply.Sources})
}

// AddError records a failed request and ends the wait.
func (c *ChatView) AddError(message string) {
	c.waiting = false
	c.scroll = 0
	c.messages = append(c.messages, chatMessage{role: roleError, text: message})
}

func (c *ChatView) send() {
	text := strings.TrimSpace(c.input.Text())
	if text == "" || c.waiting {
		return
	}
	c.input.Clear()
	c.messages = append(c.messages, chatMessage{role: roleUser, text: text})
	c.waiting = true
	c.scroll = 0
	if c.onSend != nil {
		c.onSend(text)
	}
}

// HandleKey handles prompt editing and scrolling. Escape is left to the
// caller.
func (c *ChatView) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEnter:
		c.send()
		return true
	case tcell.KeyPgUp:
		c.scroll += 5
		return true
	case tcell.KeyPgDn:
		c.scroll -= 5
		if c.scroll < 0 {
			c.scroll = 0
		}
		return true
	}
	return c.input.HandleKey(ev)
}

type styledLine struct {
	cells markdown.Line
	style tcell.Style
	plain bool // cells carry no markdown styles
}

func (c *ChatView) lines(width int) []styledLine {
	base := baseStyle()
	var out []styledLine
	plain := func(text string, style tcell.Style) {
		for _, l := range wrapText(text, width) {
			cells := make(markdown.Line, 0, len(l))
			for _, r := range l {
				cells = append(cells, markdown.Cell{Rune: r})
			}
			out = append(out, styledLine{cells: cells, style: style, plain: true})
		}
	}

	for _, m := range c.messages {
		switch m.role {
		case roleUser:
			plain("› "+m.text, base.Foreground(ColorCyan).Bold(true))
		case roleError:
			plain("⚠ "+m.text, base.Foreground(ColorError))
		case roleAssistant:
			for _, l := range c.converter.Convert(m.text).Wrap(width) {
				out = append(out, styledLine{cells: l, style: base})
			}
			for _, src := range m.sources {
				label := "▶ " + src.Title
				if src.Published != "" {
					label += fmt.Sprintf(" (%s)", src.Published)
				}
				plain(label, base.Foreground(ColorMagenta))
			}
		}
		out = append(out, styledLine{style: base, plain: true})
	}
	if c.waiting {
		plain("Thinking…", base.Foreground(ColorDimmed))
	}
	return out
}

// Draw renders the pane into every row but the last.
func (c *ChatView) Draw(s tcell.Screen) {
	w, h := s.Size()
	h-- // status bar
	if h < 4 || w < 4 {
		return
	}
	base := baseStyle()

	drawText(s, 0, 0, base.Bold(true).Foreground(ColorHeader), "Ask the podcast")
	for x := 0; x < w; x++ {
		s.SetContent(x, 1, '─', nil, base.Foreground(ColorDimmed))
		s.SetContent(x, h-2, '─', nil, base.Foreground(ColorDimmed))
	}

	bodyTop, bodyHeight := 2, h-4
	lines := c.lines(w - 2)
	maxScroll := len(lines) - bodyHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if c.scroll > maxScroll {
		c.scroll = maxScroll
	}
	end := len(lines) - c.scroll
	start := end - bodyHeight
	if start < 0 {
		start = 0
	}
	for i, l := range lines[start:end] {
		x := 1
		for _, cell := range l.cells {
			style := l.style
			if !l.plain {
				style = markdownStyle(l.style, cell.Style)
			}
			s.SetContent(x, bodyTop+i, cell.Rune, nil, style)
			x += runewidth.RuneWidth(cell.Rune)
		}
	}

	drawText(s, 0, h-1, base.Foreground(ColorHighlight), "> ")
	c.input.Draw(s, 2, h-1, w-2, base, !c.waiting)
}
