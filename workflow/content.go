package workflow

import (
	"log/slog"
	"strings"
	"time"

	"markestedt/pastemd/clipboard"
	"markestedt/pastemd/config"
	"markestedt/pastemd/platform"
	"markestedt/pastemd/preprocess"
	"markestedt/pastemd/storage"
)

// Content is what a paste run found on the clipboard
type Content struct {
	// Source is one of storage.SourceHTML, SourceMarkdown or SourceFiles
	Source string
	Text   string
	// Files holds the decoded Markdown files when Source is SourceFiles
	Files    []clipboard.MarkdownFile
	Failures []clipboard.FileError
}

// ReadContent picks the richest usable clipboard content: an HTML fragment
// unless it is only plain text, then the clipboard text as Markdown, then
// copied Markdown files merged into one document.
func ReadContent(cb platform.Clipboard, cfg config.ClipboardConfig) (*Content, error) {
	if html := readHTML(cb, cfg); html != "" {
		return &Content{Source: storage.SourceHTML, Text: html}, nil
	}

	text, err := cb.Get()
	if err != nil {
		slog.Debug("Failed to read clipboard text", "error", err)
	} else if strings.TrimSpace(text) != "" {
		return &Content{Source: storage.SourceMarkdown, Text: text}, nil
	}

	paths, err := cb.Files()
	if err != nil {
		slog.Debug("Failed to read clipboard files", "error", err)
		return nil, clipboard.ErrNoContent
	}
	files, failures := clipboard.ReadMarkdownFiles(paths)
	if len(files) == 0 {
		return nil, clipboard.ErrNoContent
	}

	return &Content{
		Source:   storage.SourceFiles,
		Text:     clipboard.MergeMarkdown(files),
		Files:    files,
		Failures: failures,
	}, nil
}

func readHTML(cb platform.Clipboard, cfg config.ClipboardConfig) string {
	r := cb.HTMLReader()
	if r == nil {
		return ""
	}

	data := clipboard.Poll(r,
		time.Duration(cfg.HTMLWaitMs)*time.Millisecond,
		time.Duration(cfg.PollIntervalMs)*time.Millisecond)
	if data == nil {
		return ""
	}

	fragment := clipboard.ExtractFragment(data)
	if strings.TrimSpace(fragment) == "" || preprocess.IsPlainFragment(fragment) {
		return ""
	}
	return fragment
}

// tableOnly reports whether every non-blank line of text belongs to a
// Markdown table
func tableOnly(text string) bool {
	seen := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, "|") {
			return false
		}
		seen = true
	}
	return seen
}
