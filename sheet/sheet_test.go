package sheet

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseMarkdownTable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want [][]string
	}{
		{
			name: "simple",
			text: "| a | b |\n|---|:-:|\n| 1 | 2 |\n| 3 | 4 |",
			want: [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}},
		},
		{
			name: "surrounding text",
			text: "Intro\n\nName | Age\n--- | ---\nAnn | 30\n\nAfter",
			want: [][]string{{"Name", "Age"}, {"Ann", "30"}},
		},
		{
			name: "escaped pipe and code",
			text: "| x | y |\n|---|---|\n| a\\|b | `c|d` |",
			want: [][]string{{"x", "y"}, {"a|b", "`c|d`"}},
		},
		{
			name: "ragged rows padded",
			text: "| a | b | c |\n|---|---|---|\n| 1 |",
			want: [][]string{{"a", "b", "c"}, {"1", "", ""}},
		},
		{
			name: "first table only",
			text: "| a |\n|---|\n| 1 |\n\n| b |\n|---|\n| 2 |",
			want: [][]string{{"a"}, {"1"}},
		},
		{name: "no delimiter", text: "| a | b |\n| 1 | 2 |", want: nil},
		{name: "plain text", text: "just words", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMarkdownTable(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseMarkdownTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		want     []Segment
		newline  bool
		codeBlck bool
	}{
		{"plain", "hello", []Segment{{Text: "hello"}}, false, false},
		{"bold", "a **b** c", []Segment{{Text: "a "}, {Text: "b", Bold: true}, {Text: " c"}}, false, false},
		{"italic underscore", "_x_", []Segment{{Text: "x", Italic: true}}, false, false},
		{"snake case", "my_var_name", []Segment{{Text: "my_var_name"}}, false, false},
		{"strike", "~~old~~", []Segment{{Text: "old", Strike: true}}, false, false},
		{"code", "run `ls`", []Segment{{Text: "run "}, {Text: "ls", Code: true}}, false, false},
		{"unclosed marker", "2 * 3", []Segment{{Text: "2 * 3"}}, false, false},
		{"escape", `\*not\*`, []Segment{{Text: "*not*"}}, false, false},
		{"br", "a<br>b<BR/>c", []Segment{{Text: "a\nb\nc"}}, true, false},
		{"code block", "```x = 1```", []Segment{{Text: "x = 1", Code: true}}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCell(tt.value)
			if !reflect.DeepEqual(got.Segments, tt.want) {
				t.Errorf("ParseCell(%q).Segments = %+v, want %+v", tt.value, got.Segments, tt.want)
			}
			if got.HasNewline != tt.newline {
				t.Errorf("HasNewline = %v, want %v", got.HasNewline, tt.newline)
			}
			if got.IsCodeBlock != tt.codeBlck {
				t.Errorf("IsCodeBlock = %v, want %v", got.IsCodeBlock, tt.codeBlck)
			}
		})
	}
}

func TestSpans(t *testing.T) {
	cf := ParseCell("中文 **粗** x")
	spans := cf.Spans()
	if len(spans) != 1 {
		t.Fatalf("Spans() = %+v, want one span", spans)
	}
	if spans[0].Start != 4 || spans[0].Length != 1 || !spans[0].Bold {
		t.Errorf("span = %+v, want bold at 4 length 1", spans[0])
	}
}

func TestCellNumber(t *testing.T) {
	tests := []struct {
		text string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"-3.5", -3.5, true},
		{"0.25", 0.25, true},
		{"007", 0, false},
		{"1e5", 0, false},
		{"12 kg", 0, false},
		{"", 0, false},
		{"1234567890123456", 0, false},
	}

	for _, tt := range tests {
		got, ok := CellNumber(tt.text)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CellNumber(%q) = %v, %v, want %v, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGenerateXLSX(t *testing.T) {
	rows := [][]string{
		{"Name", "Score"},
		{"**Ann**", "90"},
		{"Bob<br>Jr", "007"},
	}

	data, err := GenerateXLSX(rows, true)
	if err != nil {
		t.Fatalf("GenerateXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	checks := map[string]string{"A1": "Name", "A2": "Ann", "B2": "90", "A3": "Bob\nJr", "B3": "007"}
	for cell, want := range checks {
		got, err := f.GetCellValue(sheetName, cell)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}

	runs, err := f.GetCellRichText(sheetName, "A2")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Font == nil || !runs[0].Font.Bold {
		t.Errorf("A2 rich text = %+v, want one bold run", runs)
	}

	typ, err := f.GetCellType(sheetName, "B2")
	if err != nil {
		t.Fatal(err)
	}
	if typ == excelize.CellTypeSharedString || typ == excelize.CellTypeInlineString {
		t.Errorf("B2 stored as string, want number")
	}
}

func TestGenerateXLSXPlain(t *testing.T) {
	data, err := GenerateXLSX([][]string{{"h"}, {"**x**"}}, false)
	if err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	runs, _ := f.GetCellRichText(sheetName, "A2")
	if len(runs) > 1 {
		t.Errorf("plain mode wrote rich text: %+v", runs)
	}
	if v, _ := f.GetCellValue(sheetName, "A2"); v != "x" {
		t.Errorf("A2 = %q, want %q", v, "x")
	}
}

func TestGenerateXLSXEmpty(t *testing.T) {
	if _, err := GenerateXLSX(nil, true); err == nil {
		t.Error("GenerateXLSX(nil) succeeded")
	}
}
