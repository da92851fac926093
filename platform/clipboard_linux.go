//go:build linux

package platform

import (
	"errors"

	"markestedt/pastemd/clipboard"
)

// DetectApp always reports no target; Office has no Linux automation
func DetectApp() AppType {
	return AppNone
}

type unsupportedReader struct{}

func newHTMLReader() clipboard.FormatReader {
	return unsupportedReader{}
}

func (unsupportedReader) Open() error              { return nil }
func (unsupportedReader) Close() error             { return nil }
func (unsupportedReader) Available() (bool, error) { return false, nil }
func (unsupportedReader) Read() ([]byte, error)    { return nil, errors.New("html clipboard unsupported") }

func readClipboardFiles() ([]string, error) {
	return nil, nil
}

func writeClipboardFiles(paths []string) error {
	return ErrUnsupported
}
