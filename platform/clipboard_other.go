//go:build !windows

package platform

import (
	"fmt"
	"log/slog"
	"sync"

	atotto "github.com/atotto/clipboard"
	xclipboard "golang.design/x/clipboard"

	"markestedt/pastemd/clipboard"
)

var (
	xInitOnce sync.Once
	xInitErr  error
)

// nativeClipboard uses golang.design/x/clipboard and falls back to
// atotto/clipboard (pbcopy, xclip, xsel, wl-clipboard) when the native
// backend cannot initialise, e.g. without cgo or an X display.
type nativeClipboard struct{}

// NewClipboard creates the clipboard for the current OS
func NewClipboard() Clipboard {
	xInitOnce.Do(func() {
		xInitErr = xclipboard.Init()
		if xInitErr != nil {
			slog.Warn("Native clipboard unavailable, using command line tools", "error", xInitErr)
		}
	})
	return &nativeClipboard{}
}

func (c *nativeClipboard) Get() (string, error) {
	if xInitErr == nil {
		return string(xclipboard.Read(xclipboard.FmtText)), nil
	}
	text, err := atotto.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

func (c *nativeClipboard) Set(text string) error {
	if xInitErr == nil {
		xclipboard.Write(xclipboard.FmtText, []byte(text))
		return nil
	}
	if err := atotto.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

func (c *nativeClipboard) HTMLReader() clipboard.FormatReader {
	return newHTMLReader()
}

func (c *nativeClipboard) Files() ([]string, error) {
	return readClipboardFiles()
}

func (c *nativeClipboard) SetFiles(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no files to copy")
	}
	return writeClipboardFiles(paths)
}
