package placer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"markestedt/pastemd/config"
	"markestedt/pastemd/sheet"
)

var ErrUnknownAction = errors.New("unknown output action")

// FileClipboard is the part of the clipboard the executor needs
type FileClipboard interface {
	SetFiles(paths []string) error
}

// OutputExecutor writes generated files when no target app is focused
// and then opens, keeps or copies them
type OutputExecutor struct {
	clipboard FileClipboard
	open      func(path string) error
}

// NewOutputExecutor creates an executor that opens files with open
func NewOutputExecutor(cb FileClipboard, open func(path string) error) *OutputExecutor {
	return &OutputExecutor{clipboard: cb, open: open}
}

// BatchItem is one generated document of a multi-file run
type BatchItem struct {
	Data   []byte
	Path   string
	Source string
}

// BatchFailure names an item that could not be written or acted on
type BatchFailure struct {
	Source string
	Err    error
}

// BatchResult lists the written paths and the failures
type BatchResult struct {
	Paths    []string
	Failures []BatchFailure
}

// ExecuteDOCX writes docx to a unique path derived from path and applies
// action. It returns the path written.
func (e *OutputExecutor) ExecuteDOCX(action string, docx []byte, path string) (string, error) {
	if !knownAction(action) {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	path, err := writeOutput(UniquePath(path), docx)
	if err != nil {
		return "", err
	}
	return path, e.apply(action, []string{path})
}

// ExecuteDOCXBatch writes every item then applies action. The clipboard
// action copies all written paths at once.
func (e *OutputExecutor) ExecuteDOCXBatch(action string, items []BatchItem) (BatchResult, error) {
	var res BatchResult
	if !knownAction(action) {
		return res, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	seen := make(map[string]bool)
	for _, item := range items {
		path := uniquePath(item.Path, seen)
		seen[path] = true

		path, err := writeOutput(path, item.Data)
		if err != nil {
			res.Failures = append(res.Failures, BatchFailure{Source: item.Source, Err: err})
			continue
		}

		if action != config.ActionClipboard {
			if err := e.apply(action, []string{path}); err != nil {
				res.Failures = append(res.Failures, BatchFailure{Source: item.Source, Err: err})
				continue
			}
		}
		res.Paths = append(res.Paths, path)
	}

	if action == config.ActionClipboard && len(res.Paths) > 0 {
		if err := e.apply(action, res.Paths); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ExecuteXLSX generates a workbook from rows, writes it and applies action
func (e *OutputExecutor) ExecuteXLSX(action string, rows [][]string, path string, keepFormat bool) (string, error) {
	if !knownAction(action) {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	data, err := sheet.GenerateXLSX(rows, keepFormat)
	if err != nil {
		return "", fmt.Errorf("failed to generate spreadsheet: %w", err)
	}

	path, err = writeOutput(UniquePath(path), data)
	if err != nil {
		return "", err
	}
	return path, e.apply(action, []string{path})
}

func (e *OutputExecutor) apply(action string, paths []string) error {
	switch action {
	case config.ActionOpen:
		for _, p := range paths {
			if err := e.open(p); err != nil {
				return fmt.Errorf("failed to open %s: %w", p, err)
			}
		}
	case config.ActionClipboard:
		if err := e.clipboard.SetFiles(paths); err != nil {
			return fmt.Errorf("failed to copy files to clipboard: %w", err)
		}
	}
	slog.Info("Output written", "action", action, "paths", paths)
	return nil
}

func knownAction(action string) bool {
	switch action {
	case config.ActionOpen, config.ActionSave, config.ActionClipboard:
		return true
	}
	return false
}

func writeOutput(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// OutputPath returns a timestamped file name in dir. A non-empty source
// file name is used as the stem instead.
func OutputPath(dir, source, ext string, now time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if source == "" || stem == "" || stem == "." {
		stem = "pastemd_" + now.Format("20060102_150405")
	}
	return filepath.Join(dir, stem+ext)
}

// UniquePath returns path, or name_1.ext, name_2.ext ... when it exists
func UniquePath(path string) string {
	return uniquePath(path, nil)
}

func uniquePath(path string, taken map[string]bool) string {
	free := func(p string) bool {
		if taken[p] {
			return false
		}
		_, err := os.Lstat(p)
		return err != nil
	}
	if free(path) {
		return path
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		p := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if free(p) {
			return p
		}
	}
}
