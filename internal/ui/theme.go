package ui

import (
	"github.com/csams/podcast-admin/internal/markdown"
	"github.com/csams/podcast-admin/internal/notify"
	"github.com/gdamore/tcell/v2"
)

// TokyoNight color palette
var (
	ColorBg          = tcell.NewRGBColor(0x1a, 0x1b, 0x26) // #1a1b26
	ColorBgDark      = tcell.NewRGBColor(0x16, 0x16, 0x1e) // #16161e
	ColorBgHighlight = tcell.NewRGBColor(0x29, 0x2e, 0x42) // #292e42

	ColorFg     = tcell.NewRGBColor(0xc0, 0xca, 0xf5) // #c0caf5
	ColorFgDark = tcell.NewRGBColor(0x56, 0x5f, 0x89) // #565f89

	ColorBlue    = tcell.NewRGBColor(0x7a, 0xa2, 0xf7) // #7aa2f7
	ColorCyan    = tcell.NewRGBColor(0x7d, 0xcf, 0xff) // #7dcfff
	ColorGreen   = tcell.NewRGBColor(0x9e, 0xce, 0x6a) // #9ece6a
	ColorMagenta = tcell.NewRGBColor(0xbb, 0x9a, 0xf7) // #bb9af7
	ColorOrange  = tcell.NewRGBColor(0xff, 0x9e, 0x64) // #ff9e64
	ColorRed     = tcell.NewRGBColor(0xf7, 0x76, 0x8e) // #f7768e
	ColorYellow  = tcell.NewRGBColor(0xe0, 0xaf, 0x68) // #e0af68
	ColorComment = tcell.NewRGBColor(0x56, 0x5f, 0x89) // #565f89

	// UI-specific color mappings
	ColorSelection = ColorBgHighlight
	ColorHeader    = ColorBlue
	ColorHighlight = ColorYellow
	ColorBusy      = ColorOrange
	ColorError     = ColorRed
	ColorSuccess   = ColorGreen
	ColorInfo      = ColorBlue
	ColorDimmed    = ColorFgDark
	ColorBright    = ColorFg
)

func baseStyle() tcell.Style {
	return tcell.StyleDefault.Background(ColorBg).Foreground(ColorFg)
}

// kindColor maps a notification kind to its accent color.
func kindColor(kind notify.Kind) tcell.Color {
	switch kind {
	case notify.KindSuccess:
		return ColorSuccess
	case notify.KindError:
		return ColorError
	default:
		return ColorInfo
	}
}

// markdownStyle applies a markdown StyleType on top of base.
func markdownStyle(base tcell.Style, styleType markdown.StyleType) tcell.Style {
	switch styleType {
	case markdown.StyleBold:
		return base.Bold(true)
	case markdown.StyleItalic:
		return base.Italic(true)
	case markdown.StyleCode:
		return base.Foreground(ColorComment)
	case markdown.StyleLink:
		return base.Underline(true).Foreground(ColorCyan)
	case markdown.StyleHeader:
		return base.Bold(true).Foreground(ColorHeader)
	case markdown.StyleQuote:
		return base.Foreground(ColorDimmed)
	default:
		return base
	}
}
