//go:build darwin

package platform

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"markestedt/pastemd/clipboard"
)

// RunAppleScript runs script with osascript and returns its trimmed output
func RunAppleScript(ctx context.Context, script string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("osascript failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// DetectApp returns the Office application that is frontmost
func DetectApp() AppType {
	name, err := RunAppleScript(context.Background(),
		`tell application "System Events" to get name of first application process whose frontmost is true`)
	if err != nil {
		slog.Debug("Failed to detect frontmost application", "error", err)
		return AppNone
	}
	return appFromProcess(name)
}

// htmlReader reads «class HTML» through osascript, which renders it as
// «data HTML3C68746D6C...»
type htmlReader struct{}

func newHTMLReader() clipboard.FormatReader {
	return htmlReader{}
}

func (htmlReader) Open() error  { return nil }
func (htmlReader) Close() error { return nil }

func (htmlReader) Available() (bool, error) {
	info, err := RunAppleScript(context.Background(), "clipboard info")
	if err != nil {
		return false, err
	}
	return strings.Contains(info, "HTML"), nil
}

func (htmlReader) Read() ([]byte, error) {
	out, err := RunAppleScript(context.Background(), "the clipboard as «class HTML»")
	if err != nil {
		return nil, err
	}
	return decodeAppleScriptData(out)
}

func readClipboardFiles() ([]string, error) {
	out, err := RunAppleScript(context.Background(), "POSIX path of (the clipboard as «class furl»)")
	if err != nil {
		// No file on the clipboard
		return nil, nil
	}
	if out == "" {
		return nil, nil
	}
	return []string{out}, nil
}

func writeClipboardFiles(paths []string) error {
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		files = append(files, fmt.Sprintf("POSIX file %q", p))
	}
	script := fmt.Sprintf("set the clipboard to {%s}", strings.Join(files, ", "))
	if len(files) == 1 {
		script = fmt.Sprintf("set the clipboard to %s", files[0])
	}
	_, err := RunAppleScript(context.Background(), script)
	return err
}
