package sheet

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var brRe = regexp.MustCompile(`(?i)<br\s*/?>`)

// Segment is a run of cell text sharing one style
type Segment struct {
	Text   string
	Bold   bool
	Italic bool
	Strike bool
	Code   bool
}

func (s Segment) styled() bool {
	return s.Bold || s.Italic || s.Strike || s.Code
}

// CellFormat is a table cell split into styled segments
type CellFormat struct {
	Segments    []Segment
	HasNewline  bool
	IsCodeBlock bool
}

// Span locates a segment inside the cell's plain text. Start is 1-based
// and both fields count characters, matching spreadsheet Characters ranges.
type Span struct {
	Segment
	Start  int
	Length int
}

// ParseCell strips inline Markdown from a cell, keeping the styling as
// segments. <br> tags become newlines.
func ParseCell(value string) CellFormat {
	value = brRe.ReplaceAllString(value, "\n")

	var cf CellFormat
	if trimmed := strings.TrimSpace(value); strings.HasPrefix(trimmed, "```") && strings.HasSuffix(trimmed, "```") && len(trimmed) >= 6 {
		body := strings.TrimSpace(trimmed[3 : len(trimmed)-3])
		cf.IsCodeBlock = true
		cf.Segments = []Segment{{Text: body, Code: true}}
		cf.HasNewline = strings.Contains(body, "\n")
		return cf
	}

	cf.Segments = parseInline(value)
	cf.HasNewline = strings.Contains(cf.Text(), "\n")
	return cf
}

// Text returns the cell value with all markup removed
func (c CellFormat) Text() string {
	var b strings.Builder
	for _, s := range c.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Formatted reports whether any segment carries styling
func (c CellFormat) Formatted() bool {
	for _, s := range c.Segments {
		if s.styled() {
			return true
		}
	}
	return false
}

// Spans returns the styled segments with their character offsets
func (c CellFormat) Spans() []Span {
	var spans []Span
	pos := 1
	for _, s := range c.Segments {
		n := utf8.RuneCountInString(s.Text)
		if s.styled() && n > 0 {
			spans = append(spans, Span{Segment: s, Start: pos, Length: n})
		}
		pos += n
	}
	return spans
}

type inlineParser struct {
	src      string
	segments []Segment
	cur      strings.Builder
	style    Segment
}

func parseInline(src string) []Segment {
	p := &inlineParser{src: src}
	for i := 0; i < len(src); {
		i = p.step(i)
	}
	p.flush()
	return p.segments
}

// step consumes markup or one literal byte at i and returns the next index
func (p *inlineParser) step(i int) int {
	src := p.src
	rest := src[i:]

	switch {
	case rest[0] == '\\' && len(rest) > 1 && isEscapable(rest[1]):
		p.cur.WriteByte(rest[1])
		return i + 2

	case rest[0] == '`':
		if end := strings.IndexByte(rest[1:], '`'); end >= 0 {
			p.flush()
			code := p.style
			code.Code = true
			code.Text = rest[1 : end+1]
			p.segments = append(p.segments, code)
			return i + end + 2
		}

	case strings.HasPrefix(rest, "~~"):
		if p.toggle(&p.style.Strike, rest, "~~") {
			return i + 2
		}

	case strings.HasPrefix(rest, "**"), strings.HasPrefix(rest, "__"):
		if p.toggle(&p.style.Bold, rest, rest[:2]) {
			return i + 2
		}

	case rest[0] == '*':
		if p.toggle(&p.style.Italic, rest, "*") {
			return i + 1
		}

	case rest[0] == '_':
		// snake_case identifiers keep their underscores
		prevWord := i > 0 && isWordByte(src[i-1])
		nextWord := len(rest) > 1 && isWordByte(rest[1])
		if (p.style.Italic && !nextWord) || (!p.style.Italic && !prevWord) {
			if p.toggle(&p.style.Italic, rest, "_") {
				return i + 1
			}
		}
	}

	p.cur.WriteByte(rest[0])
	return i + 1
}

// toggle flips a style flag at a marker. An opening marker only counts when
// a closing one follows.
func (p *inlineParser) toggle(flag *bool, rest, marker string) bool {
	if !*flag && !strings.Contains(rest[len(marker):], marker) {
		return false
	}
	p.flush()
	*flag = !*flag
	return true
}

func (p *inlineParser) flush() {
	if p.cur.Len() == 0 {
		return
	}
	seg := p.style
	seg.Text = p.cur.String()
	p.cur.Reset()

	if n := len(p.segments); n > 0 && sameStyle(p.segments[n-1], seg) {
		p.segments[n-1].Text += seg.Text
		return
	}
	p.segments = append(p.segments, seg)
}

func sameStyle(a, b Segment) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Strike == b.Strike && a.Code == b.Code
}

func isEscapable(c byte) bool {
	return strings.IndexByte("\\`*_~|[]()#+-.!", c) >= 0
}

func isWordByte(c byte) bool {
	if c >= utf8.RuneSelf {
		return true
	}
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}
