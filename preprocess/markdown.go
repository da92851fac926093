package preprocess

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headingRe  = regexp.MustCompile(`^ {0,3}#{1,6}(\s|$)`)
	listItemRe = regexp.MustCompile(`^\s*([-*+]|\d{1,9}[.)])\s+`)
	fenceRe    = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")

	displayMathRe = regexp.MustCompile(`(?s)\\\[(.+?)\\\]`)
	inlineMathRe  = regexp.MustCompile(`(?s)\\\((.+?)\\\)`)
	inlineCodeRe  = regexp.MustCompile("`[^`\n]*`")
)

type lineKind int

const (
	kindBlank lineKind = iota
	kindText
	kindHeading
	kindList
	kindTable
	kindFence
)

func classify(line string) lineKind {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return kindBlank
	case fenceRe.MatchString(line):
		return kindFence
	case headingRe.MatchString(line):
		return kindHeading
	case strings.HasPrefix(trimmed, "|"):
		return kindTable
	case listItemRe.MatchString(line):
		return kindList
	}
	return kindText
}

// NormalizeMarkdown fixes the layout problems that make Pandoc misread
// Markdown pasted from chat tools: CRLF line endings, trailing blanks and
// block elements glued to the preceding paragraph. Fenced code is left
// untouched.
func NormalizeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines)+8)

	var fence string
	prev := kindBlank
	for _, line := range lines {
		if fence != "" {
			out = append(out, line)
			if closesFence(line, fence) {
				fence = ""
				prev = kindFence
			}
			continue
		}

		line = trimTrailing(line)
		kind := classify(line)

		if needsBlankBefore(prev, kind, line) {
			out = append(out, "")
		}
		out = append(out, line)

		if kind == kindFence {
			fence = fenceRe.FindStringSubmatch(line)[1]
		}
		prev = kind
	}

	return strings.Join(out, "\n")
}

func needsBlankBefore(prev, kind lineKind, line string) bool {
	if prev == kindBlank {
		return false
	}
	switch kind {
	case kindHeading, kindFence:
		return true
	case kindTable:
		return prev != kindTable
	case kindList:
		// Indented items continue a list or a nested block
		return prev != kindList && !startsIndented(line)
	}
	return false
}

func closesFence(line, fence string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, fence[:1]) {
		return false
	}
	run := len(trimmed) - len(strings.TrimLeft(trimmed, fence[:1]))
	return run >= len(fence) && strings.TrimSpace(trimmed[run:]) == ""
}

// trimTrailing drops trailing whitespace but keeps a two-space hard break
func trimTrailing(line string) string {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return ""
	}
	if strings.HasSuffix(line, "  ") {
		return trimmed + "  "
	}
	return trimmed
}

func startsIndented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}

// LatexDelimiters rewrites \( \) and \[ \] math to the dollar syntax
// Pandoc's tex_math_dollars extension reads. With fixSingleDollarBlock a
// line holding a single "$" is treated as a "$$" display delimiter.
// Code fences and inline code are left alone.
func LatexDelimiters(text string, fixSingleDollarBlock bool) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, seg := range splitFences(text) {
		if seg.code {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(convertMath(seg.text, fixSingleDollarBlock))
	}
	return b.String()
}

type segment struct {
	text string
	code bool
}

// splitFences separates fenced code blocks from prose, keeping line endings
func splitFences(text string) []segment {
	var segs []segment
	var cur strings.Builder
	var fence string

	flush := func(code bool) {
		if cur.Len() > 0 {
			segs = append(segs, segment{text: cur.String(), code: code})
			cur.Reset()
		}
	}

	lines := strings.SplitAfter(text, "\n")
	for _, line := range lines {
		bare := strings.TrimRight(line, "\r\n")
		switch {
		case fence == "" && fenceRe.MatchString(bare):
			flush(false)
			fence = fenceRe.FindStringSubmatch(bare)[1]
			cur.WriteString(line)
		case fence != "":
			cur.WriteString(line)
			if closesFence(bare, fence) {
				flush(true)
				fence = ""
			}
		default:
			cur.WriteString(line)
		}
	}
	flush(fence != "")
	return segs
}

func convertMath(text string, fixSingleDollarBlock bool) string {
	// Protect inline code spans from the math rewrites
	var spans []string
	text = inlineCodeRe.ReplaceAllStringFunc(text, func(m string) string {
		spans = append(spans, m)
		return placeholder(len(spans) - 1)
	})

	text = displayMathRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := displayMathRe.FindStringSubmatch(m)[1]
		return "$$" + inner + "$$"
	})
	text = inlineMathRe.ReplaceAllStringFunc(text, func(m string) string {
		inner := inlineMathRe.FindStringSubmatch(m)[1]
		return "$" + strings.TrimSpace(inner) + "$"
	})

	if fixSingleDollarBlock {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if strings.TrimSpace(line) == "$" {
				lines[i] = strings.Replace(line, "$", "$$", 1)
			}
		}
		text = strings.Join(lines, "\n")
	}

	for i, s := range spans {
		text = strings.Replace(text, placeholder(i), s, 1)
	}
	return text
}

func placeholder(i int) string {
	return "\x00" + strconv.Itoa(i) + "\x00"
}
