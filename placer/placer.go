package placer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"markestedt/pastemd/platform"
	"markestedt/pastemd/sheet"
)

const (
	MethodCOM         = "com"
	MethodAppleScript = "applescript"
	MethodClipboard   = "clipboard"
)

// tempMaxAge bounds how long pasted temp files are kept around for the
// target application to read
const tempMaxAge = time.Hour

// Result reports how content was delivered into the target app
type Result struct {
	Success bool
	Method  string
	Err     error
}

func succeeded(method string) Result {
	return Result{Success: true, Method: method}
}

func failed(method string, err error) Result {
	return Result{Method: method, Err: err}
}

// DocumentPlacer inserts a .docx into the focused document
type DocumentPlacer interface {
	Place(ctx context.Context, docx []byte) Result
}

// SheetPlacer writes table rows into the focused spreadsheet
type SheetPlacer interface {
	Place(ctx context.Context, rows [][]string, keepFormat bool) Result
}

// ForDocument picks the placer for a document app, falling back to the
// clipboard when the app cannot be scripted on this OS
func ForDocument(app platform.AppType, cb platform.Clipboard, paster platform.Paster) DocumentPlacer {
	if p := nativeDocumentPlacer(app); p != nil {
		return p
	}
	return &ClipboardDocumentPlacer{Clipboard: cb, Paster: paster}
}

// ForSheet picks the placer for a spreadsheet app
func ForSheet(app platform.AppType, cb platform.Clipboard, paster platform.Paster) SheetPlacer {
	if p := nativeSheetPlacer(app); p != nil {
		return p
	}
	return &ClipboardSheetPlacer{Clipboard: cb, Paster: paster}
}

// ClipboardDocumentPlacer puts the document on the clipboard as a file and
// pastes it
type ClipboardDocumentPlacer struct {
	Clipboard platform.Clipboard
	Paster    platform.Paster
}

func (p *ClipboardDocumentPlacer) Place(ctx context.Context, docx []byte) Result {
	if err := ctx.Err(); err != nil {
		return failed(MethodClipboard, err)
	}

	path, err := writeTemp(docx, ".docx")
	if err != nil {
		return failed(MethodClipboard, err)
	}
	if err := p.Clipboard.SetFiles([]string{path}); err != nil {
		return failed(MethodClipboard, fmt.Errorf("failed to put document on clipboard: %w", err))
	}
	if err := p.Paster.Paste(); err != nil {
		return failed(MethodClipboard, fmt.Errorf("failed to paste: %w", err))
	}
	return succeeded(MethodClipboard)
}

// ClipboardSheetPlacer pastes the table as tab separated text, which
// spreadsheets split into cells
type ClipboardSheetPlacer struct {
	Clipboard platform.Clipboard
	Paster    platform.Paster
}

func (p *ClipboardSheetPlacer) Place(ctx context.Context, rows [][]string, keepFormat bool) Result {
	if err := ctx.Err(); err != nil {
		return failed(MethodClipboard, err)
	}
	if len(rows) == 0 {
		return failed(MethodClipboard, errors.New("table is empty"))
	}

	if err := p.Clipboard.Set(TSV(rows)); err != nil {
		return failed(MethodClipboard, fmt.Errorf("failed to put table on clipboard: %w", err))
	}
	if err := p.Paster.Paste(); err != nil {
		return failed(MethodClipboard, fmt.Errorf("failed to paste: %w", err))
	}
	return succeeded(MethodClipboard)
}

// TSV renders rows as tab separated values with Markdown stripped. Cells
// holding tabs, newlines or quotes are quoted.
func TSV(rows [][]string) string {
	var b strings.Builder
	for _, row := range rows {
		for c, value := range row {
			if c > 0 {
				b.WriteByte('\t')
			}
			text := sheet.ParseCell(value).Text()
			if strings.ContainsAny(text, "\t\n\"") {
				text = `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
			}
			b.WriteString(text)
		}
		b.WriteString("\r\n")
	}
	return b.String()
}

func tempDir() string {
	return filepath.Join(os.TempDir(), "pastemd")
}

// writeTemp stores data in a fresh file under the temp dir
func writeTemp(data []byte, ext string) (string, error) {
	dir := tempDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanupTemp(dir, tempMaxAge)

	f, err := os.CreateTemp(dir, "pastemd-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}

func cleanupTemp(dir string, maxAge time.Duration) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || e.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err != nil {
			slog.Debug("Failed to remove stale temp file", "path", path, "error", err)
		}
	}
}
