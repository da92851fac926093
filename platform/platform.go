package platform

import (
	"context"
	"errors"

	"markestedt/pastemd/clipboard"
	"markestedt/pastemd/hotkey"
)

// ErrUnsupported is returned for clipboard formats or automation the
// current OS does not offer
var ErrUnsupported = errors.New("not supported on this platform")

// EventType represents the type of hotkey event
type EventType int

const (
	Pressed EventType = iota
	Released
)

// Event represents a hotkey event
type Event struct {
	Type EventType
}

// Hotkey provides global hotkey detection
type Hotkey interface {
	Listen(ctx context.Context, combo hotkey.Combination) (<-chan Event, error)
}

// Clipboard provides clipboard access
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
	// HTMLReader returns a reader for the HTML clipboard container,
	// suitable for clipboard.Poll
	HTMLReader() clipboard.FormatReader
	// Files returns the paths of files copied in a file manager
	Files() ([]string, error)
	SetFiles(paths []string) error
}

// Paster simulates paste operation
type Paster interface {
	Paste() error
}

// AppType identifies the focused application a result can be placed into
type AppType string

const (
	AppNone     AppType = ""
	AppWord     AppType = "word"
	AppWPS      AppType = "wps"
	AppExcel    AppType = "excel"
	AppWPSExcel AppType = "wps_excel"
)

// IsDocument reports whether the app accepts .docx content
func (a AppType) IsDocument() bool {
	return a == AppWord || a == AppWPS
}

// IsSpreadsheet reports whether the app accepts table content
func (a AppType) IsSpreadsheet() bool {
	return a == AppExcel || a == AppWPSExcel
}

// appFromProcess maps an executable or process name to an AppType
func appFromProcess(name string) AppType {
	switch normalizeProcessName(name) {
	case "winword", "microsoft word":
		return AppWord
	case "wps", "wpsoffice", "wps office":
		return AppWPS
	case "excel", "microsoft excel":
		return AppExcel
	case "et":
		return AppWPSExcel
	}
	return AppNone
}
