package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"markestedt/pastemd/config"
)

type call struct {
	name  string
	args  []string
	stdin string
}

// fakeRun writes output to the -o argument like pandoc does
func fakeRun(calls *[]call, output []byte, stderr string, err error) runFunc {
	return func(ctx context.Context, name string, args []string, stdin string) (string, error) {
		*calls = append(*calls, call{name, args, stdin})
		if err != nil {
			return stderr, err
		}
		i := slices.Index(args, "-o")
		if output != nil {
			if werr := os.WriteFile(args[i+1], output, 0644); werr != nil {
				return "", werr
			}
		}
		return stderr, nil
	}
}

func newTestPandoc(run runFunc) *Pandoc {
	return &Pandoc{path: "pandoc", timeout: time.Second, run: run}
}

func TestMarkdownToDOCX(t *testing.T) {
	var calls []call
	p := newTestPandoc(fakeRun(&calls, []byte("PK docx"), "", nil))
	p.referenceDoc = "ref.docx"

	got, err := p.MarkdownToDOCX(context.Background(), "# Title")
	if err != nil {
		t.Fatalf("MarkdownToDOCX() error = %v", err)
	}
	if string(got) != "PK docx" {
		t.Errorf("MarkdownToDOCX() = %q", got)
	}

	c := calls[0]
	if c.stdin != "# Title" {
		t.Errorf("stdin = %q", c.stdin)
	}
	joined := strings.Join(c.args, " ")
	for _, want := range []string{"-f " + markdownFormat, "-t docx", "--reference-doc ref.docx"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestHTMLToDOCXFormat(t *testing.T) {
	var calls []call
	p := newTestPandoc(fakeRun(&calls, []byte("x"), "", nil))

	if _, err := p.HTMLToDOCX(context.Background(), "<p>x</p>"); err != nil {
		t.Fatal(err)
	}
	if calls[0].args[1] != htmlFormat {
		t.Errorf("from format = %q, want %q", calls[0].args[1], htmlFormat)
	}
	if slices.Contains(calls[0].args, "--reference-doc") {
		t.Error("reference doc passed without being configured")
	}
}

func TestConversionErrors(t *testing.T) {
	tests := []struct {
		name   string
		run    runFunc
		stderr string
	}{
		{"process failure", fakeRun(new([]call), nil, "unknown extension", errors.New("exit status 2")), "unknown extension"},
		{"no output file", fakeRun(new([]call), nil, "", nil), ""},
		{"empty output", fakeRun(new([]call), []byte{}, "", nil), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestPandoc(tt.run).MarkdownToDOCX(context.Background(), "x")
			if !errors.Is(err, ErrConversion) {
				t.Fatalf("error = %v, want ErrConversion", err)
			}
			var ce *ConversionError
			if !errors.As(err, &ce) || !strings.Contains(ce.Error(), tt.stderr) {
				t.Errorf("error = %v, want stderr %q", err, tt.stderr)
			}
		})
	}
}

func TestConversionTimeout(t *testing.T) {
	p := newTestPandoc(func(ctx context.Context, name string, args []string, stdin string) (string, error) {
		<-ctx.Done()
		return "", errors.New("signal: killed")
	})
	p.timeout = 10 * time.Millisecond

	_, err := p.MarkdownToDOCX(context.Background(), "x")
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, ErrConversion) {
		t.Errorf("error = %v, want deadline exceeded conversion error", err)
	}
}

func TestNewPandocConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "pandoc-bin")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	p, err := NewPandoc(config.ConversionConfig{PandocPath: exe, ReferenceDocx: filepath.Join(dir, "missing.docx")})
	if err != nil {
		t.Fatalf("NewPandoc() error = %v", err)
	}
	if p.Path() != exe {
		t.Errorf("Path() = %q, want %q", p.Path(), exe)
	}
	if p.referenceDoc != "" {
		t.Errorf("missing reference doc kept: %q", p.referenceDoc)
	}
}

func TestNewPandocNotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := NewPandoc(config.ConversionConfig{PandocPath: filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, ErrPandocNotFound) {
		t.Errorf("NewPandoc() error = %v, want ErrPandocNotFound", err)
	}
}
