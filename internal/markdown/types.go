package markdown

// StyleType represents different text styling types
type StyleType int

const (
	StyleNormal StyleType = iota
	StyleBold
	StyleItalic
	StyleCode
	StyleLink
	StyleHeader
	StyleQuote
)

// StyleRange represents a range of text with a specific style
type StyleRange struct {
	Start int // Rune position in converted text
	End   int // Rune position in converted text
	Type  StyleType
}

// Cell is one rune of wrapped output with its style.
type Cell struct {
	Rune  rune
	Style StyleType
}

// Line is one wrapped display line.
type Line []Cell

func (l Line) String() string {
	runes := make([]rune, len(l))
	for i, c := range l {
		runes[i] = c.Rune
	}
	return string(runes)
}
