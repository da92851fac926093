package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	ErrNoContent  = errors.New("clipboard is empty or holds no usable content")
	ErrUnreadable = errors.New("file could not be decoded with any supported encoding")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MarkdownFile is a dropped Markdown file that was read successfully
type MarkdownFile struct {
	Name     string
	Path     string
	Content  string
	Encoding string
}

// FileError records a dropped file that could not be read
type FileError struct {
	Name string
	Err  error
}

type decoder struct {
	name   string
	decode func([]byte) (string, bool)
}

// Tried in order; gb2312 is decoded with GB18030, its superset
var decoders = []decoder{
	{"utf-8", decodeStrictUTF8},
	{"gbk", decodeWith(simplifiedchinese.GBK)},
	{"gb2312", decodeWith(simplifiedchinese.GB18030)},
	{"utf-8-sig", decodeUTF8Sig},
}

// IsMarkdownPath reports whether path has a Markdown extension
func IsMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// MarkdownFiles keeps the existing Markdown files from a dropped file list,
// sorted by lower-cased file name.
func MarkdownFiles(paths []string) []string {
	var files []string
	for _, p := range paths {
		if !IsMarkdownPath(p) {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, p)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(files[i])) < strings.ToLower(filepath.Base(files[j]))
	})

	slog.Info("Found Markdown files in clipboard", "count", len(files))
	return files
}

// ReadFileWithEncoding reads a text file trying utf-8, gbk, gb2312 and
// utf-8-sig in turn. It returns the content and the encoding that worked.
func ReadFileWithEncoding(path string) (string, string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	for _, d := range decoders {
		if content, ok := d.decode(raw); ok {
			slog.Debug("Decoded file", "path", path, "encoding", d.name)
			return content, d.name, nil
		}
		slog.Debug("Failed to decode file", "path", path, "encoding", d.name)
	}

	return "", "", fmt.Errorf("%w: %s", ErrUnreadable, filepath.Base(path))
}

// ReadMarkdownFiles reads every Markdown file from a dropped file list.
// Unreadable files are skipped and reported in the error list.
func ReadMarkdownFiles(paths []string) ([]MarkdownFile, []FileError) {
	var files []MarkdownFile
	var failures []FileError

	for _, p := range MarkdownFiles(paths) {
		name := filepath.Base(p)
		content, enc, err := ReadFileWithEncoding(p)
		if err != nil {
			slog.Warn("Failed to read Markdown file", "file", name, "error", err)
			failures = append(failures, FileError{Name: name, Err: err})
			continue
		}
		files = append(files, MarkdownFile{Name: name, Path: p, Content: content, Encoding: enc})
	}

	return files, failures
}

// MergeMarkdown joins several files into one document separated by
// thematic breaks. A single file is returned unchanged.
func MergeMarkdown(files []MarkdownFile) string {
	if len(files) == 1 {
		return files[0].Content
	}
	parts := make([]string, 0, len(files))
	for _, f := range files {
		parts = append(parts, strings.TrimRight(f.Content, "\r\n"))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func decodeStrictUTF8(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	return string(bytes.TrimPrefix(b, utf8BOM)), true
}

func decodeUTF8Sig(b []byte) (string, bool) {
	return decodeStrictUTF8(bytes.TrimPrefix(b, utf8BOM))
}

// decodeWith treats any replacement character in the output as failure,
// since x/text decoders substitute instead of erroring.
func decodeWith(enc encoding.Encoding) func([]byte) (string, bool) {
	return func(b []byte) (string, bool) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			return "", false
		}
		return string(out), true
	}
}
