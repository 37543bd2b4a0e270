package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/csams/podcast-admin/internal/listing"
	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const (
	colIndex = iota
	colTitle
	colDate
	colDuration
	colStatus
)

const detailHeight = 6

// episodeRow adapts a card to the table.
type episodeRow struct {
	card   listing.Card
	filter string
	dimmed bool
}

func (r *episodeRow) GetCell(col int) string {
	ep := r.card.Episode
	switch col {
	case colIndex:
		return fmt.Sprintf("%d", r.card.Index+1)
	case colTitle:
		return ep.Title
	case colDate:
		return ep.Date
	case colDuration:
		return ep.Duration
	case colStatus:
		if r.card.Busy {
			return "saving…"
		}
	}
	return ""
}

func (r *episodeRow) GetCellStyle(col int, selected bool) *tcell.Style {
	style := baseStyle()
	if selected {
		style = style.Background(ColorSelection).Foreground(ColorBright)
	}
	switch {
	case r.card.Busy:
		style = style.Foreground(ColorBusy)
	case r.dimmed:
		style = style.Foreground(ColorDimmed)
	case col == colIndex || col == colDuration:
		style = style.Foreground(ColorComment)
	default:
		return nil
	}
	return &style
}

func (r *episodeRow) GetHighlightPositions(col int) []int {
	switch col {
	case colTitle:
		return listing.Highlight(r.card.Episode.Title, r.filter)
	case colDate:
		return listing.Highlight(r.card.Episode.Date, r.filter)
	}
	return nil
}

// EpisodeListView draws listing pages: a header with counts, the card table,
// the selected episode's description and the load-more footer.
type EpisodeListView struct {
	table *Table
	page  listing.Page
	rows  []*episodeRow

	// visibleAt records when each card's entrance delay ends.
	visibleAt map[string]time.Time
	now       func() time.Time
}

func NewEpisodeListView() *EpisodeListView {
	t := NewTable()
	t.SetColumns([]TableColumn{
		{Title: "#", Width: 4, Align: AlignRight},
		{Title: "Title", FlexWeight: 1, MinWidth: 10},
		{Title: "Date", Width: 18},
		{Title: "Duration", Width: 8, Align: AlignRight},
		{Title: "", Width: 8},
	})
	return &EpisodeListView{
		table:     t,
		page:      listing.Page{State: listing.StateLoading},
		visibleAt: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetPage replaces the displayed page and returns how long until the last
// entering card is fully shown. The selection follows the selected episode
// when it is still present.
func (v *EpisodeListView) SetPage(p listing.Page) time.Duration {
	var selectedID string
	if card, ok := v.Selected(); ok {
		selectedID = card.Episode.ID
	}

	now := v.now()
	seen := make(map[string]time.Time, len(p.Cards))
	var longest time.Duration
	rows := make([]*episodeRow, len(p.Cards))
	tableRows := make([]TableRow, len(p.Cards))
	selected := -1
	for i, card := range p.Cards {
		at, known := v.visibleAt[card.Episode.ID]
		if !known {
			at = now.Add(card.Delay)
		}
		seen[card.Episode.ID] = at
		if d := at.Sub(now); d > longest {
			longest = d
		}
		rows[i] = &episodeRow{card: card, filter: p.Filter}
		tableRows[i] = rows[i]
		if card.Episode.ID == selectedID {
			selected = i
		}
	}

	v.page = p
	v.rows = rows
	v.visibleAt = seen
	v.table.SetRows(tableRows)
	if selected >= 0 {
		v.table.SetSelectedIndex(selected)
	}
	return longest
}

// Page returns the displayed page.
func (v *EpisodeListView) Page() listing.Page {
	return v.page
}

// Selected returns the selected card.
func (v *EpisodeListView) Selected() (listing.Card, bool) {
	if v.page.State != listing.StateCards {
		return listing.Card{}, false
	}
	i := v.table.GetSelectedIndex()
	if i < 0 || i >= len(v.rows) {
		return listing.Card{}, false
	}
	return v.rows[i].card, true
}

// IndexOf returns the collection index of the displayed episode with id.
func (v *EpisodeListView) IndexOf(id string) (int, bool) {
	for _, r := range v.rows {
		if r.card.Episode.ID == id {
			return r.card.Index, true
		}
	}
	return 0, false
}

func (v *EpisodeListView) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyDown:
		return v.table.SelectNext()
	case tcell.KeyUp:
		return v.table.SelectPrevious()
	case tcell.KeyPgDn, tcell.KeyCtrlF:
		return v.table.PageDown()
	case tcell.KeyPgUp, tcell.KeyCtrlB:
		return v.table.PageUp()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			return v.table.SelectNext()
		case 'k':
			return v.table.SelectPrevious()
		case 'g':
			v.table.SelectFirst()
			return true
		case 'G':
			v.table.SelectLast()
			return true
		}
	}
	return false
}

// Draw renders the list into every row but the last, which belongs to the
// status bar.
func (v *EpisodeListView) Draw(s tcell.Screen) {
	w, h := s.Size()
	h-- // status bar
	if h < 4 {
		return
	}
	style := baseStyle()

	v.drawHeader(s, w)
	for x := 0; x < w; x++ {
		s.SetContent(x, 1, '─', nil, style.Foreground(ColorDimmed))
	}

	bodyTop := 2
	bodyHeight := h - bodyTop - 1 // footer
	showDetail := bodyHeight > detailHeight+4
	if showDetail {
		bodyHeight -= detailHeight
	}

	switch v.page.State {
	case listing.StateLoading:
		drawCentered(s, bodyTop+bodyHeight/2, w, style.Foreground(ColorDimmed), "Loading episodes…")
	case listing.StateError:
		drawCentered(s, bodyTop+bodyHeight/2-1, w, style.Foreground(ColorError), "⚠ "+v.page.Error)
		drawCentered(s, bodyTop+bodyHeight/2+1, w, style.Foreground(ColorDimmed), "Press r to retry")
	case listing.StateEmpty:
		msg := "No episodes found"
		if v.page.Filter != "" {
			msg = fmt.Sprintf("No episodes match “%s”", v.page.Filter)
		}
		drawCentered(s, bodyTop+bodyHeight/2, w, style.Foreground(ColorDimmed), msg)
	case listing.StateCards:
		now := v.now()
		for _, r := range v.rows {
			r.dimmed = now.Before(v.visibleAt[r.card.Episode.ID])
		}
		v.table.SetBounds(0, bodyTop, w, bodyHeight)
		v.table.Draw(s)
		if showDetail {
			v.drawDetail(s, bodyTop+bodyHeight, w)
		}
	}

	v.drawFooter(s, h-1, w)
}

func (v *EpisodeListView) drawHeader(s tcell.Screen, w int) {
	style := baseStyle()
	drawText(s, 0, 0, style.Bold(true).Foreground(ColorHeader), "Episodes")

	var info string
	switch {
	case v.page.State == listing.StateLoading:
		info = ""
	case v.page.Filter != "":
		info = fmt.Sprintf("%s of %s episodes match “%s”",
			humanize.Comma(int64(v.page.Matched)), humanize.Comma(int64(v.page.Total)), v.page.Filter)
	default:
		info = fmt.Sprintf("%s episodes", humanize.Comma(int64(v.page.Total)))
	}
	info = runewidth.Truncate(info, w-10, "…")
	drawText(s, w-runewidth.StringWidth(info), 0, style.Foreground(ColorDimmed), info)
}

func (v *EpisodeListView) drawDetail(s tcell.Screen, y, w int) {
	style := baseStyle()
	for x := 0; x < w; x++ {
		s.SetContent(x, y, '─', nil, style.Foreground(ColorDimmed))
	}
	card, ok := v.Selected()
	if !ok {
		return
	}
	ep := card.Episode
	meta := ep.Date
	if ep.Duration != "" {
		meta += " · " + ep.Duration
	}
	if ep.AudioLink != "" {
		meta += " · " + ep.AudioLink
	}
	drawText(s, 1, y+1, style.Foreground(ColorDimmed), runewidth.Truncate(meta, w-2, "…"))
	for i, line := range wrapText(ep.Description, w-2) {
		if i >= detailHeight-2 {
			break
		}
		drawText(s, 1, y+2+i, style, line)
	}
}

func (v *EpisodeListView) drawFooter(s tcell.Screen, y, w int) {
	style := baseStyle().Foreground(ColorDimmed)
	var text string
	switch {
	case v.page.State != listing.StateCards:
		return
	case v.page.LoadingMore:
		text = "Loading more…"
	case v.page.ShowLoadMore:
		text = fmt.Sprintf("Showing %d of %d · press m to load more", len(v.page.Cards), v.page.Matched)
		style = style.Foreground(ColorInfo)
	default:
		text = fmt.Sprintf("Showing %d of %d", len(v.page.Cards), v.page.Matched)
	}
	drawCentered(s, y, w, style, text)
}

// drawText draws text starting at x, advancing by each rune's cell width.
func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func drawCentered(s tcell.Screen, y, w int, style tcell.Style, text string) {
	text = runewidth.Truncate(text, w, "…")
	x := (w - runewidth.StringWidth(text)) / 2
	if x < 0 {
		x = 0
	}
	drawText(s, x, y, style, text)
}

// wrapText wraps text at spaces to fit within width cells.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			for runewidth.StringWidth(word) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					head = string([]rune(word)[:1])
				}
				lines = append(lines, head)
				word = word[len(head):]
			}
			switch {
			case line == "":
				line = word
			case runewidth.StringWidth(line)+1+runewidth.StringWidth(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
