//go:build darwin

package placer

import (
	"context"
	"errors"
	"os"
	"time"

	"markestedt/pastemd/platform"
)

const scriptTimeout = 30 * time.Second

func nativeDocumentPlacer(app platform.AppType) DocumentPlacer {
	if app == platform.AppWord {
		return appleScriptDocumentPlacer{}
	}
	// WPS on macOS has no usable scripting dictionary
	return nil
}

func nativeSheetPlacer(app platform.AppType) SheetPlacer {
	if app == platform.AppExcel {
		return appleScriptSheetPlacer{}
	}
	return nil
}

type appleScriptDocumentPlacer struct{}

func (appleScriptDocumentPlacer) Place(ctx context.Context, docx []byte) Result {
	path, err := writeTemp(docx, ".docx")
	if err != nil {
		return failed(MethodAppleScript, err)
	}
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()
	if _, err := platform.RunAppleScript(ctx, wordInsertScript(path)); err != nil {
		return failed(MethodAppleScript, err)
	}
	return succeeded(MethodAppleScript)
}

type appleScriptSheetPlacer struct{}

func (appleScriptSheetPlacer) Place(ctx context.Context, rows [][]string, keepFormat bool) Result {
	if len(rows) == 0 {
		return failed(MethodAppleScript, errors.New("table is empty"))
	}

	ctx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()
	if _, err := platform.RunAppleScript(ctx, excelInsertScript(rows, keepFormat)); err != nil {
		return failed(MethodAppleScript, err)
	}
	return succeeded(MethodAppleScript)
}
