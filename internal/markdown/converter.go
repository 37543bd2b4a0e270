package markdown

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Converter turns the markdown and light HTML found in chat answers into
// terminal text with style ranges.
type Converter struct {
	inlinePattern     *regexp.Regexp
	headerPattern     *regexp.Regexp
	listItemPattern   *regexp.Regexp
	blockquotePattern *regexp.Regexp
	htmlLinkPattern   *regexp.Regexp
	htmlTagPattern    *regexp.Regexp
}

// Result contains the converted text and its styles.
type Result struct {
	Text   string
	Styles []StyleRange
}

// NewConverter creates a converter with compiled patterns.
func NewConverter() *Converter {
	return &Converter{
		// Alternatives are tried left to right, so bold wins over italic.
		inlinePattern: regexp.MustCompile("`([^`]+)`" +
			`|\[([^\]]+)\]\(([^)]+)\)` +
			`|\*\*([^*]+)\*\*|__([^_]+)__` +
			`|\*([^*]+)\*|_([^_]+)_`),
		headerPattern:     regexp.MustCompile(`^(#{1,6})\s+(.+)$`),
		listItemPattern:   regexp.MustCompile(`^(\s*)([-*+]|\d+\.)\s+(.+)$`),
		blockquotePattern: regexp.MustCompile(`^>\s*(.*)$`),

		htmlLinkPattern: regexp.MustCompile(`(?i)<a\s+(?:[^>]*?\s+)?href="([^"]+)"[^>]*>([^<]+)</a>`),
		htmlTagPattern:  regexp.MustCompile(`<(/?)([^>]+)>`),
	}
}

// Convert processes text and returns the formatted result.
func (c *Converter) Convert(text string) Result {
	text = c.stripHTML(text)
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out strings.Builder
	var styles []StyleRange
	pos := 0

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		prefix, body, lineStyle := c.block(line)

		out.WriteString(prefix)
		pos += utf8.RuneCountInString(prefix)

		start := pos
		converted, inline := c.inline(body, pos)
		out.WriteString(converted)
		pos += utf8.RuneCountInString(converted)
		if lineStyle != StyleNormal && pos > start {
			styles = append(styles, StyleRange{Start: start, End: pos, Type: lineStyle})
		}
		styles = append(styles, inline...)

		if i < len(lines)-1 {
			out.WriteByte('\n')
			pos++
		}
	}

	return Result{Text: out.String(), Styles: styles}
}

// block handles line-level syntax and returns the replacement prefix, the
// remaining inline text and a style covering the whole line.
func (c *Converter) block(line string) (string, string, StyleType) {
	if m := c.headerPattern.FindStringSubmatch(line); m != nil {
		return "", m[2], StyleHeader
	}
	if m := c.listItemPattern.FindStringSubmatch(line); m != nil {
		level := len(m[1]) / 2
		if level > 2 {
			level = 2
		}
		bullet := [...]string{"• ", "  ◦ ", "    ▸ "}[level]
		if m[2][0] >= '0' && m[2][0] <= '9' {
			bullet = strings.Repeat("  ", level) + m[2] + " "
		}
		return bullet, m[3], StyleNormal
	}
	if m := c.blockquotePattern.FindStringSubmatch(line); m != nil {
		return "│ ", m[1], StyleQuote
	}
	return "", line, StyleNormal
}

// inline converts code, links, bold and italic spans. base is the rune
// position of text in the final output.
func (c *Converter) inline(text string, base int) (string, []StyleRange) {
	matches := c.inlinePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	var out strings.Builder
	var styles []StyleRange
	pos := base
	last := 0
	group := func(m []int, n int) string {
		if m[2*n] < 0 {
			return ""
		}
		return text[m[2*n]:m[2*n+1]]
	}

	for _, m := range matches {
		before := text[last:m[0]]
		out.WriteString(before)
		pos += utf8.RuneCountInString(before)

		var replacement string
		var style StyleType
		switch {
		case m[2] >= 0:
			replacement, style = group(m, 1), StyleCode
		case m[4] >= 0:
			replacement, style = group(m, 2)+" ("+group(m, 3)+")", StyleLink
		case m[8] >= 0 || m[10] >= 0:
			replacement, style = group(m, 4)+group(m, 5), StyleBold
		default:
			replacement, style = group(m, 6)+group(m, 7), StyleItalic
		}

		n := utf8.RuneCountInString(replacement)
		out.WriteString(replacement)
		styles = append(styles, StyleRange{Start: pos, End: pos + n, Type: style})
		pos += n
		last = m[1]
	}
	out.WriteString(text[last:])
	return out.String(), styles
}

// stripHTML rewrites the few tags answers use into plain text and drops the
// rest.
func (c *Converter) stripHTML(text string) string {
	text = c.htmlLinkPattern.ReplaceAllString(text, "[$2]($1)")
	return c.htmlTagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		m := c.htmlTagPattern.FindStringSubmatch(tag)
		closing := m[1] == "/"
		fields := strings.Fields(m[2])
		if len(fields) == 0 {
			return tag
		}
		switch strings.ToLower(strings.TrimRight(fields[0], "/")) {
		case "br":
			return "\n"
		case "p":
			if closing {
				return "\n\n"
			}
		case "b", "strong":
			return "**"
		case "i", "em":
			return "*"
		case "li":
			if !closing {
				return "\n- "
			}
		}
		return ""
	})
}

// StyleAt returns the innermost style covering rune position pos.
func (r Result) StyleAt(pos int) StyleType {
	style := StyleNormal
	for _, s := range r.Styles {
		if pos >= s.Start && pos < s.End {
			style = s.Type
		}
	}
	return style
}

// Wrap breaks the result into display lines no wider than width cells,
// preferring to break at spaces.
func (r Result) Wrap(width int) []Line {
	if width < 1 {
		width = 1
	}
	var lines []Line
	var cur Line
	curWidth := 0
	lastSpace := -1

	pos := 0
	for _, ch := range r.Text {
		style := r.StyleAt(pos)
		pos++

		if ch == '\n' {
			lines = append(lines, cur)
			cur, curWidth, lastSpace = nil, 0, -1
			continue
		}

		w := runewidth.RuneWidth(ch)
		if curWidth+w > width && len(cur) > 0 {
			if lastSpace >= 0 {
				rest := append(Line(nil), cur[lastSpace+1:]...)
				lines = append(lines, cur[:lastSpace])
				cur = rest
			} else {
				lines = append(lines, cur)
				cur = nil
			}
			curWidth = lineWidth(cur)
			lastSpace = lastSpaceIn(cur)
			if ch == ' ' {
				continue
			}
		}

		if ch == ' ' {
			lastSpace = len(cur)
		}
		cur = append(cur, Cell{Rune: ch, Style: style})
		curWidth += w
	}
	return append(lines, cur)
}

func lineWidth(l Line) int {
	w := 0
	for _, c := range l {
		w += runewidth.RuneWidth(c.Rune)
	}
	return w
}

func lastSpaceIn(l Line) int {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].Rune == ' ' {
			return i
		}
	}
	return -1
}
