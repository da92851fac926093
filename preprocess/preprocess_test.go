package preprocess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"markestedt/pastemd/config"
)

func TestNormalizeMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "crlf",
			in:   "a\r\nb\rc",
			want: "a\nb\nc",
		},
		{
			name: "heading after paragraph",
			in:   "intro\n## Title\nbody",
			want: "intro\n\n## Title\nbody",
		},
		{
			name: "list after paragraph",
			in:   "Steps:\n1. one\n2. two",
			want: "Steps:\n\n1. one\n2. two",
		},
		{
			name: "nested list item stays",
			in:   "- a\n  text\n  - b",
			want: "- a\n  text\n  - b",
		},
		{
			name: "table after paragraph",
			in:   "Data:\n| a | b |\n|---|---|\n| 1 | 2 |",
			want: "Data:\n\n| a | b |\n|---|---|\n| 1 | 2 |",
		},
		{
			name: "fence after paragraph, content untouched",
			in:   "code:\n```go\nx := 1   \n# not a heading\n```\nafter",
			want: "code:\n\n```go\nx := 1   \n# not a heading\n```\nafter",
		},
		{
			name: "trailing whitespace",
			in:   "a\t \nhard break  \n   \nb",
			want: "a\nhard break  \n\nb",
		},
		{
			name: "already separated",
			in:   "# T\n\ntext\n\n- a",
			want: "# T\n\ntext\n\n- a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMarkdown(tt.in); got != tt.want {
				t.Errorf("NormalizeMarkdown() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLatexDelimiters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		fix  bool
		want string
	}{
		{"inline", `Energy \( E = mc^2 \) holds`, false, `Energy $E = mc^2$ holds`},
		{"display", "\\[\n\\int_0^1 x\\,dx\n\\]", false, "$$\n\\int_0^1 x\\,dx\n$$"},
		{"inline code kept", "use `\\(x\\)` here \\(y\\)", false, "use `\\(x\\)` here $y$"},
		{"fence kept", "```\n\\(x\\)\n```\n\\(y\\)", false, "```\n\\(x\\)\n```\n$y$"},
		{"single dollar block fixed", "$\na+b\n$", true, "$$\na+b\n$$"},
		{"single dollar block untouched", "$\na+b\n$", false, "$\na+b\n$"},
		{"dollar math untouched", "$a$ and $$b$$", true, "$a$ and $$b$$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LatexDelimiters(tt.in, tt.fix); got != tt.want {
				t.Errorf("LatexDelimiters() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanHTML(t *testing.T) {
	all := HTMLOptions{RemoveSVG: true, ConvertStrikethrough: true}

	tests := []struct {
		name    string
		in      string
		opts    HTMLOptions
		want    []string
		notWant []string
	}{
		{
			name:    "svg removed",
			in:      `<p>a<svg><path d="M0"></path></svg><img src="icon.svg?v=2"><img src="photo.png"></p>`,
			opts:    all,
			want:    []string{`<img src="photo.png"/>`},
			notWant: []string{"<svg", "icon.svg"},
		},
		{
			name:    "svg kept when disabled",
			in:      `<p>a<svg></svg></p>`,
			opts:    HTMLOptions{},
			want:    []string{"<svg"},
			notWant: nil,
		},
		{
			name:    "strikethrough",
			in:      `<p><s>old</s> <strike>older</strike></p>`,
			opts:    all,
			want:    []string{"<del>old</del>", "<del>older</del>"},
			notWant: []string{"<s>", "<strike>"},
		},
		{
			name:    "li paragraphs unwrapped",
			in:      `<ul><li><p>one</p><p>two</p></li></ul>`,
			opts:    all,
			want:    []string{"<li>one<br/>two</li>"},
			notWant: []string{"<p>"},
		},
		{
			name:    "empty paragraphs removed",
			in:      "<p>keep</p><p> <br> </p><p>\u00a0</p>",
			opts:    all,
			want:    []string{"<p>keep</p>"},
			notWant: []string{"<p> ", "<p>\u00a0"},
		},
		{
			name:    "prologue added",
			in:      `<b>x</b>`,
			opts:    all,
			want:    []string{htmlPrologue + "<b>x</b>"},
			notWant: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanHTML(tt.in, tt.opts)
			if err != nil {
				t.Fatalf("CleanHTML() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("CleanHTML() = %q, missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("CleanHTML() = %q, should not contain %q", got, w)
				}
			}
		})
	}
}

func TestCleanHTMLKeepsDoctype(t *testing.T) {
	got, err := CleanHTML("<!DOCTYPE html><html><body><p>x</p></body></html>", HTMLOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(strings.ToUpper(got), "<!DOCTYPE") != 1 {
		t.Errorf("CleanHTML() = %q, want exactly one doctype", got)
	}
}

func TestIsPlainFragment(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"just text", true},
		{`<div style="color:red"><span>code</span><br><span>more</span></div>`, true},
		{`<meta charset="utf-8"><pre><code># Title</code></pre>`, true},
		{`<p>para</p>`, true},
		{`<p>with <b>bold</b></p>`, false},
		{`<h1>Title</h1>`, false},
		{`<table><tr><td>1</td></tr></table>`, false},
		{`<ul><li>a</li></ul>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := IsPlainFragment(tt.in); got != tt.want {
				t.Errorf("IsPlainFragment(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPipelines(t *testing.T) {
	cfg := config.Default().Conversion

	md, err := MarkdownPipeline(cfg).Process(context.Background(), "intro\n# H\n\\(x\\)")
	if err != nil {
		t.Fatal(err)
	}
	if md != "intro\n\n# H\n$x$" {
		t.Errorf("MarkdownPipeline() = %q", md)
	}

	cfg.NormalizeMarkdown = false
	cfg.LatexSupport = false
	if n := MarkdownPipeline(cfg).Len(); n != 0 {
		t.Errorf("MarkdownPipeline() with everything disabled has %d steps", n)
	}

	out, err := HTMLPipeline(config.Default().Conversion).Process(context.Background(), "<s>x</s>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<del>x</del>") {
		t.Errorf("HTMLPipeline() = %q", out)
	}
}

func TestPipelineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	p := NewPipeline("test",
		func(_ context.Context, s string) (string, error) { return s + "1", boom },
		func(_ context.Context, s string) (string, error) { called = true; return s, nil },
	)

	got, err := p.Process(context.Background(), "x")
	if !errors.Is(err, boom) || got != "x1" || called {
		t.Errorf("Process() = (%q, %v), called = %v", got, err, called)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Process(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Process() with cancelled context error = %v", err)
	}
}
