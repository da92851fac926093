package sheet

import (
	"regexp"
	"strings"
)

var delimiterRowRe = regexp.MustCompile(`^\s*\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?\s*$`)

// ParseMarkdownTable returns the rows of the first pipe table in text,
// header first, without the delimiter row. Rows are padded to the widest
// row. It returns nil when text holds no table.
func ParseMarkdownTable(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	for i := 0; i+1 < len(lines); i++ {
		if !isRow(lines[i]) || !delimiterRowRe.MatchString(lines[i+1]) || !strings.Contains(lines[i+1], "-") {
			continue
		}

		rows := [][]string{splitRow(lines[i])}
		for _, line := range lines[i+2:] {
			if !isRow(line) {
				break
			}
			rows = append(rows, splitRow(line))
		}
		return pad(rows)
	}
	return nil
}

func isRow(line string) bool {
	return strings.TrimSpace(line) != "" && strings.Contains(line, "|")
}

// splitRow splits on unescaped pipes outside inline code
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = line[:len(line)-1]
	}

	var cells []string
	var cur strings.Builder
	inCode := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteByte('|')
			i++
		case c == '`':
			inCode = !inCode
			cur.WriteByte(c)
		case c == '|' && !inCode:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

func pad(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		rows[i] = r
	}
	return rows
}
