package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"markestedt/pastemd/config"
)

var (
	ErrPandocNotFound = errors.New("pandoc executable not found")
	ErrConversion     = errors.New("document conversion failed")
)

const (
	markdownFormat = "markdown+tex_math_dollars+pipe_tables+strikeout"
	htmlFormat     = "html+tex_math_dollars"
	defaultTimeout = 60 * time.Second
)

// Converter turns preprocessed content into .docx bytes
type Converter interface {
	MarkdownToDOCX(ctx context.Context, markdown string) ([]byte, error)
	HTMLToDOCX(ctx context.Context, html string) ([]byte, error)
}

// ConversionError carries Pandoc's stderr for the log
type ConversionError struct {
	From   string
	Stderr string
	Err    error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("pandoc %s to docx: %v", e.From, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// runFunc runs a command with stdin and returns its stderr
type runFunc func(ctx context.Context, name string, args []string, stdin string) (string, error)

// Pandoc converts documents with the pandoc executable
type Pandoc struct {
	path         string
	referenceDoc string
	timeout      time.Duration
	run          runFunc
}

// NewPandoc resolves the pandoc executable from cfg.PandocPath or PATH
func NewPandoc(cfg config.ConversionConfig) (*Pandoc, error) {
	path, err := findPandoc(cfg.PandocPath)
	if err != nil {
		return nil, err
	}

	ref := strings.TrimSpace(cfg.ReferenceDocx)
	if ref != "" {
		if _, err := os.Stat(ref); err != nil {
			slog.Warn("Reference document not found, using Pandoc defaults", "path", ref, "error", err)
			ref = ""
		}
	}

	return &Pandoc{
		path:         path,
		referenceDoc: ref,
		timeout:      defaultTimeout,
		run:          runCommand,
	}, nil
}

func findPandoc(configured string) (string, error) {
	configured = strings.TrimSpace(configured)
	if configured != "" {
		info, err := os.Stat(configured)
		if err == nil && !info.IsDir() {
			return configured, nil
		}
		slog.Warn("Configured pandoc path is not usable, searching PATH", "path", configured)
	}

	path, err := exec.LookPath("pandoc")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPandocNotFound, err)
	}
	return path, nil
}

// Path returns the executable in use
func (p *Pandoc) Path() string {
	return p.path
}

// Version returns the first line of `pandoc --version`
func (p *Pandoc) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, p.path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to query pandoc version: %w", err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// MarkdownToDOCX converts Markdown with dollar math and pipe tables
func (p *Pandoc) MarkdownToDOCX(ctx context.Context, markdown string) ([]byte, error) {
	return p.toDOCX(ctx, markdownFormat, markdown)
}

// HTMLToDOCX converts an HTML document or fragment
func (p *Pandoc) HTMLToDOCX(ctx context.Context, html string) ([]byte, error) {
	return p.toDOCX(ctx, htmlFormat, html)
}

func (p *Pandoc) toDOCX(ctx context.Context, from, input string) ([]byte, error) {
	dir, err := os.MkdirTemp("", "pastemd-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "output.docx")
	args := p.args(from, out)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	stderr, err := p.run(ctx, p.path, args, input)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &ConversionError{From: from, Stderr: stderr, Err: err}
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, &ConversionError{From: from, Stderr: stderr, Err: fmt.Errorf("no output produced: %w", err)}
	}
	if len(data) == 0 {
		return nil, &ConversionError{From: from, Stderr: stderr, Err: errors.New("empty output")}
	}

	slog.Debug("Pandoc conversion finished", "from", from, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

func (p *Pandoc) args(from, out string) []string {
	args := []string{"-f", from, "-t", "docx", "-o", out}
	if p.referenceDoc != "" {
		args = append(args, "--reference-doc", p.referenceDoc)
	}
	return args
}

func runCommand(ctx context.Context, name string, args []string, stdin string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	hideWindow(cmd)

	err := cmd.Run()
	return stderr.String(), err
}
