package placer

import (
	"fmt"
	"strconv"
	"strings"

	"markestedt/pastemd/sheet"
)

// excelValue converts cell text into the value written through
// automation. Text Excel would reinterpret gets the apostrophe prefix.
func excelValue(text string) any {
	if n, ok := sheet.CellNumber(text); ok {
		return n
	}
	if needsTextPrefix(text) {
		return "'" + text
	}
	return text
}

func needsTextPrefix(text string) bool {
	if text == "" {
		return false
	}
	if strings.ContainsRune("=+-@", rune(text[0])) {
		return true
	}
	if c := text[0]; (c < '0' || c > '9') && c != '.' {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	return err == nil
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", `\r`)
}

// wordInsertScript inserts a .docx at the Word selection
func wordInsertScript(path string) string {
	return fmt.Sprintf(`tell application "Microsoft Word"
	activate
	insert file at text object of selection file name (POSIX file "%s" as text)
end tell`, escapeAppleScript(path))
}

// excelInsertScript writes rows starting at the active cell in one range
// assignment, then applies header bold and inline styles
func excelInsertScript(rows [][]string, keepFormat bool) string {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}

	var data, formats strings.Builder
	data.WriteString("{")
	for r, row := range rows {
		if r > 0 {
			data.WriteString(", ")
		}
		data.WriteString("{")
		for c := 0; c < cols; c++ {
			if c > 0 {
				data.WriteString(", ")
			}
			var cf sheet.CellFormat
			if c < len(row) {
				cf = sheet.ParseCell(row[c])
			}
			fmt.Fprintf(&data, `"%s"`, escapeAppleScript(fmt.Sprint(excelValue(cf.Text()))))

			if keepFormat {
				writeCellFormat(&formats, r, c, cf)
			}
		}
		data.WriteString("}")
	}
	data.WriteString("}")

	header := ""
	if keepFormat {
		header = fmt.Sprintf(`try
		set bold of font object of (get resize startCell row size 1 column size %d) to true
	end try`, cols)
	}

	return fmt.Sprintf(`tell application "Microsoft Excel"
	activate
	if (count of workbooks) is 0 then make new workbook
	try
		set startCell to active cell
	on error
		set startCell to cell 1 of row 1 of active sheet
	end try
	set startR to first row index of startCell
	set startC to first column index of startCell
	set targetRange to (get resize startCell row size %d column size %d)
	set value of targetRange to %s
	%s
%s	select targetRange
end tell`, len(rows), cols, data.String(), header, formats.String())
}

func writeCellFormat(b *strings.Builder, r, c int, cf sheet.CellFormat) {
	spans := cf.Spans()
	wrap := cf.HasNewline || cf.IsCodeBlock
	if len(spans) == 0 && !wrap {
		return
	}

	b.WriteString("\ttry\n")
	fmt.Fprintf(b, "\t\tset theCell to cell (startC + %d) of row (startR + %d) of active sheet\n", c, r)
	if wrap {
		b.WriteString("\t\tset wrap text of theCell to true\n")
	}
	for _, s := range spans {
		fmt.Fprintf(b, "\t\tset theChars to characters %d thru %d of theCell\n", s.Start, s.Start+s.Length-1)
		if s.Code {
			b.WriteString("\t\tset name of font object of theChars to \"Menlo\"\n")
		}
		if s.Bold {
			b.WriteString("\t\tset bold of font object of theChars to true\n")
		}
		if s.Italic {
			b.WriteString("\t\tset italic of font object of theChars to true\n")
		}
		if s.Strike {
			b.WriteString("\t\tset strikethrough of font object of theChars to true\n")
		}
	}
	b.WriteString("\tend try\n")
}
