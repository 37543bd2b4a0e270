package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// TableColumn defines a column in the table
type TableColumn struct {
	Title      string
	Width      int     // 0 means flexible width
	MinWidth   int     // Minimum width for flexible columns
	MaxWidth   int     // Maximum width for flexible columns (0 = no limit)
	FlexWeight float64 // Weight for distributing available space
	Align      Alignment
}

// Alignment specifies text alignment within a cell
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// TableRow represents a single row of data
type TableRow interface {
	// GetCell returns the content for a specific column index
	GetCell(columnIndex int) string
	// GetCellStyle returns the style for a specific cell (nil for default)
	GetCellStyle(columnIndex int, selected bool) *tcell.Style
	// GetHighlightPositions returns rune positions to highlight in a cell
	GetHighlightPositions(columnIndex int) []int
}

// Table is a scrollable, selectable table widget. Cell text is measured in
// terminal cells so wide characters line up.
type Table struct {
	columns      []TableColumn
	rows         []TableRow
	selectedIdx  int
	scrollOffset int

	x, y          int
	width, height int

	selectionIndicator string

	headerStyle    tcell.Style
	defaultStyle   tcell.Style
	selectedStyle  tcell.Style
	highlightStyle tcell.Style

	columnWidths []int
}

// NewTable creates a new table widget
func NewTable() *Table {
	return &Table{
		selectionIndicator: "> ",
		headerStyle:        baseStyle().Bold(true).Foreground(ColorHeader),
		defaultStyle:       baseStyle(),
		selectedStyle:      baseStyle().Background(ColorSelection).Foreground(ColorBright),
		highlightStyle:     baseStyle().Foreground(ColorHighlight).Bold(true),
	}
}

// SetColumns sets the column configuration
func (t *Table) SetColumns(columns []TableColumn) {
	t.columns = columns
	t.calculateColumnWidths()
}

// SetRows sets the data rows, keeping the selection in range
func (t *Table) SetRows(rows []TableRow) {
	t.rows = rows
	t.adjustSelection()
}

// SetBounds places the table on screen
func (t *Table) SetBounds(x, y, width, height int) {
	t.x, t.y = x, y
	t.width, t.height = width, height
	t.calculateColumnWidths()
	t.adjustSelection()
}

// GetSelectedIndex returns the currently selected row index
func (t *Table) GetSelectedIndex() int {
	return t.selectedIdx
}

// SetSelectedIndex selects row i, clamped to the rows present
func (t *Table) SetSelectedIndex(i int) {
	t.selectedIdx = i
	t.adjustSelection()
}

// GetSelectedRow returns the currently selected row
func (t *Table) GetSelectedRow() TableRow {
	if t.selectedIdx >= 0 && t.selectedIdx < len(t.rows) {
		return t.rows[t.selectedIdx]
	}
	return nil
}

// SelectNext moves selection to the next row
func (t *Table) SelectNext() bool {
	if t.selectedIdx < len(t.rows)-1 {
		t.selectedIdx++
		t.ensureVisible()
		return true
	}
	return false
}

// SelectPrevious moves selection to the previous row
func (t *Table) SelectPrevious() bool {
	if t.selectedIdx > 0 {
		t.selectedIdx--
		t.ensureVisible()
		return true
	}
	return false
}

// SelectFirst selects the first row
func (t *Table) SelectFirst() {
	t.selectedIdx = 0
	t.scrollOffset = 0
}

// SelectLast selects the last row
func (t *Table) SelectLast() {
	if len(t.rows) > 0 {
		t.selectedIdx = len(t.rows) - 1
		t.ensureVisible()
	}
}

// PageDown moves the selection down by one page
func (t *Table) PageDown() bool {
	page := t.getVisibleHeight() - 1
	if page < 1 {
		page = 1
	}
	prev := t.selectedIdx
	t.selectedIdx += page
	t.adjustSelection()
	return t.selectedIdx != prev
}

// PageUp moves the selection up by one page
func (t *Table) PageUp() bool {
	page := t.getVisibleHeight() - 1
	if page < 1 {
		page = 1
	}
	prev := t.selectedIdx
	t.selectedIdx -= page
	t.adjustSelection()
	return t.selectedIdx != prev
}

// Draw renders the header and the visible rows
func (t *Table) Draw(s tcell.Screen) {
	if t.width <= 0 || t.height <= 0 {
		return
	}

	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			s.SetContent(t.x+x, t.y+y, ' ', nil, t.defaultStyle)
		}
	}

	t.drawHeader(s, t.y)
	visibleHeight := t.getVisibleHeight()
	for i := 0; i < visibleHeight && i+t.scrollOffset < len(t.rows); i++ {
		rowIdx := i + t.scrollOffset
		t.drawRow(s, t.y+1+i, t.rows[rowIdx], rowIdx == t.selectedIdx)
	}
}

// VisibleRange returns the first and last visible row indices
func (t *Table) VisibleRange() (first, last int) {
	first = t.scrollOffset
	last = t.scrollOffset + t.getVisibleHeight() - 1
	if last >= len(t.rows) {
		last = len(t.rows) - 1
	}
	return first, last
}

func (t *Table) getVisibleHeight() int {
	if t.height <= 1 {
		return 0
	}
	return t.height - 1
}

func (t *Table) ensureVisible() {
	visibleHeight := t.getVisibleHeight()
	if visibleHeight <= 0 {
		return
	}

	if t.selectedIdx < t.scrollOffset {
		t.scrollOffset = t.selectedIdx
	} else if t.selectedIdx >= t.scrollOffset+visibleHeight {
		t.scrollOffset = t.selectedIdx - visibleHeight + 1
	}

	maxOffset := len(t.rows) - visibleHeight
	if maxOffset < 0 {
		maxOffset = 0
	}
	if t.scrollOffset > maxOffset {
		t.scrollOffset = maxOffset
	}
	if t.scrollOffset < 0 {
		t.scrollOffset = 0
	}
}

func (t *Table) adjustSelection() {
	if len(t.rows) == 0 {
		t.selectedIdx = 0
		t.scrollOffset = 0
		return
	}
	if t.selectedIdx >= len(t.rows) {
		t.selectedIdx = len(t.rows) - 1
	}
	if t.selectedIdx < 0 {
		t.selectedIdx = 0
	}
	t.ensureVisible()
}

func (t *Table) calculateColumnWidths() {
	if len(t.columns) == 0 || t.width <= 0 {
		return
	}
	t.columnWidths = make([]int, len(t.columns))

	indicatorWidth := runewidth.StringWidth(t.selectionIndicator)
	fixedWidth := indicatorWidth + len(t.columns) - 1
	totalFlexWeight := 0.0
	for i, col := range t.columns {
		if col.Width > 0 {
			t.columnWidths[i] = col.Width
			fixedWidth += col.Width
			continue
		}
		weight := col.FlexWeight
		if weight <= 0 {
			weight = 1.0
		}
		totalFlexWeight += weight
	}

	available := t.width - fixedWidth
	if available < 0 {
		available = 0
	}
	for i, col := range t.columns {
		if col.Width > 0 {
			continue
		}
		weight := col.FlexWeight
		if weight <= 0 {
			weight = 1.0
		}
		width := int(float64(available) * (weight / totalFlexWeight))
		if col.MinWidth > 0 && width < col.MinWidth {
			width = col.MinWidth
		}
		if col.MaxWidth > 0 && width > col.MaxWidth {
			width = col.MaxWidth
		}
		t.columnWidths[i] = width
	}
}

func (t *Table) drawHeader(s tcell.Screen, y int) {
	x := t.x + runewidth.StringWidth(t.selectionIndicator)
	for i, col := range t.columns {
		if i > 0 {
			x++
		}
		drawCell(s, x, y, t.columnWidths[i], col.Title, t.headerStyle, t.headerStyle, nil, col.Align)
		x += t.columnWidths[i]
	}
}

func (t *Table) drawRow(s tcell.Screen, y int, row TableRow, selected bool) {
	rowStyle := t.defaultStyle
	if selected {
		rowStyle = t.selectedStyle
	}
	for x := 0; x < t.width; x++ {
		s.SetContent(t.x+x, y, ' ', nil, rowStyle)
	}

	x := t.x
	if selected {
		drawText(s, x, y, rowStyle, t.selectionIndicator)
	}
	x += runewidth.StringWidth(t.selectionIndicator)

	highlight := t.highlightStyle
	if selected {
		highlight = rowStyle.Foreground(ColorBgDark).Background(ColorHighlight).Bold(true)
	}

	for i, col := range t.columns {
		if i > 0 {
			x++
		}
		style := rowStyle
		if cellStyle := row.GetCellStyle(i, selected); cellStyle != nil {
			style = *cellStyle
		}
		drawCell(s, x, y, t.columnWidths[i], row.GetCell(i), style, highlight, row.GetHighlightPositions(i), col.Align)
		x += t.columnWidths[i]
	}
}

// drawCell draws text into width cells, truncating with an ellipsis.
func drawCell(s tcell.Screen, x, y, width int, text string, style, highlight tcell.Style, highlights []int, align Alignment) {
	if width <= 0 {
		return
	}

	display := runewidth.Truncate(text, width, "…")
	textWidth := runewidth.StringWidth(display)
	truncated := display != text

	startX := x
	if !truncated && textWidth < width {
		switch align {
		case AlignCenter:
			startX = x + (width-textWidth)/2
		case AlignRight:
			startX = x + width - textWidth
		}
	}

	marked := make(map[int]bool, len(highlights))
	for _, p := range highlights {
		marked[p] = true
	}

	runes := []rune(display)
	col := 0
	for i, r := range runes {
		cellStyle := style
		if marked[i] && !(truncated && i == len(runes)-1) {
			cellStyle = highlight
		}
		s.SetContent(startX+col, y, r, nil, cellStyle)
		col += runewidth.RuneWidth(r)
	}
}
