package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"
)

const (
	sheetName   = "Sheet1"
	minColWidth = 8
	maxColWidth = 60
)

// GenerateXLSX builds a workbook holding rows on its first sheet. The first
// row is the header and is bolded. With keepFormat, inline Markdown becomes
// rich text; otherwise cells hold plain text.
func GenerateXLSX(rows [][]string, keepFormat bool) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create wrap style: %w", err)
	}

	widths := make([]float64, len(rows[0]))
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}

			cf := ParseCell(value)
			header := r == 0
			if err := writeCell(f, cell, cf, header, keepFormat); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}

			switch {
			case header:
				err = f.SetCellStyle(sheetName, cell, cell, headerStyle)
			case cf.HasNewline:
				err = f.SetCellStyle(sheetName, cell, cell, wrapStyle)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to style cell %s: %w", cell, err)
			}

			if c < len(widths) {
				widths[c] = max(widths[c], textWidth(cf.Text()))
			}
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, min(max(w+2, minColWidth), maxColWidth)); err != nil {
			return nil, fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeCell(f *excelize.File, cell string, cf CellFormat, header, keepFormat bool) error {
	if keepFormat && cf.Formatted() {
		runs := make([]excelize.RichTextRun, 0, len(cf.Segments))
		for _, s := range cf.Segments {
			font := &excelize.Font{Bold: s.Bold || header, Italic: s.Italic, Strike: s.Strike}
			if s.Code {
				font.Family = "Consolas"
			}
			runs = append(runs, excelize.RichTextRun{Text: s.Text, Font: font})
		}
		return f.SetCellRichText(sheetName, cell, runs)
	}

	text := cf.Text()
	if !header {
		if n, ok := CellNumber(text); ok {
			return f.SetCellValue(sheetName, cell, n)
		}
	}
	return f.SetCellStr(sheetName, cell, text)
}

// CellNumber reports whether text is a plain number that survives the
// round trip through a spreadsheet. Values with leading zeros stay text.
func CellNumber(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > 15 {
		return 0, false
	}
	digits := strings.TrimPrefix(text, "-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return 0, false
	}
	for _, c := range digits {
		if (c < '0' || c > '9') && c != '.' {
			return 0, false
		}
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// textWidth measures the longest line, counting wide characters twice
func textWidth(text string) float64 {
	longest := 0.0
	for _, line := range strings.Split(text, "\n") {
		w := 0.0
		for _, r := range line {
			switch width.LookupRune(r).Kind() {
			case width.EastAsianWide, width.EastAsianFullwidth:
				w += 2
			default:
				w++
			}
		}
		longest = max(longest, w)
	}
	return longest
}
