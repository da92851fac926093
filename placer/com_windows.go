//go:build windows

package placer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"markestedt/pastemd/platform"
	"markestedt/pastemd/sheet"
)

const sFalse = 1

func nativeDocumentPlacer(app platform.AppType) DocumentPlacer {
	switch app {
	case platform.AppWord:
		return &comDocumentPlacer{progID: "Word.Application"}
	case platform.AppWPS:
		return &comDocumentPlacer{progID: "Kwps.Application"}
	}
	return nil
}

func nativeSheetPlacer(app platform.AppType) SheetPlacer {
	switch app {
	case platform.AppExcel:
		return &comSheetPlacer{progID: "Excel.Application"}
	case platform.AppWPSExcel:
		return &comSheetPlacer{progID: "Ket.Application"}
	}
	return nil
}

// comDocumentPlacer inserts the document at the running app's selection
type comDocumentPlacer struct {
	progID string
}

func (p *comDocumentPlacer) Place(ctx context.Context, docx []byte) Result {
	path, err := writeTemp(docx, ".docx")
	if err != nil {
		return failed(MethodCOM, err)
	}
	defer os.Remove(path)

	err = runCOM(ctx, p.progID, func(app *ole.IDispatch) error {
		sel, err := oleutil.GetProperty(app, "Selection")
		if err != nil {
			return fmt.Errorf("failed to get selection: %w", err)
		}
		defer sel.Clear()

		if _, err := oleutil.CallMethod(sel.ToIDispatch(), "InsertFile", path); err != nil {
			return fmt.Errorf("failed to insert file: %w", err)
		}
		return nil
	})
	if err != nil {
		return failed(MethodCOM, err)
	}
	return succeeded(MethodCOM)
}

// comSheetPlacer writes cells starting at the active cell
type comSheetPlacer struct {
	progID string
}

func (p *comSheetPlacer) Place(ctx context.Context, rows [][]string, keepFormat bool) Result {
	err := runCOM(ctx, p.progID, func(app *ole.IDispatch) error {
		activeV, err := oleutil.GetProperty(app, "ActiveCell")
		if err != nil {
			return fmt.Errorf("failed to get active cell: %w", err)
		}
		defer activeV.Clear()
		active := activeV.ToIDispatch()

		wsV, err := oleutil.GetProperty(active, "Worksheet")
		if err != nil {
			return fmt.Errorf("failed to get worksheet: %w", err)
		}
		defer wsV.Clear()
		ws := wsV.ToIDispatch()

		startRow, err := intProperty(active, "Row")
		if err != nil {
			return err
		}
		startCol, err := intProperty(active, "Column")
		if err != nil {
			return err
		}

		for r, row := range rows {
			for c, value := range row {
				if err := writeCOMCell(ws, startRow+r, startCol+c, sheet.ParseCell(value), keepFormat && r == 0, keepFormat); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return failed(MethodCOM, err)
	}
	return succeeded(MethodCOM)
}

func writeCOMCell(ws *ole.IDispatch, row, col int, cf sheet.CellFormat, header, keepFormat bool) error {
	cellV, err := oleutil.GetProperty(ws, "Cells", row, col)
	if err != nil {
		return fmt.Errorf("failed to get cell (%d,%d): %w", row, col, err)
	}
	defer cellV.Clear()
	cell := cellV.ToIDispatch()

	if _, err := oleutil.PutProperty(cell, "Value", excelValue(cf.Text())); err != nil {
		return fmt.Errorf("failed to set cell (%d,%d): %w", row, col, err)
	}
	if cf.HasNewline || cf.IsCodeBlock {
		if _, err := oleutil.PutProperty(cell, "WrapText", true); err != nil {
			slog.Debug("Failed to enable wrap text", "row", row, "col", col, "error", err)
		}
	}
	if header {
		setFont(cell, "Bold", true)
	}
	if !keepFormat {
		return nil
	}

	for _, s := range cf.Spans() {
		charsV, err := oleutil.GetProperty(cell, "Characters", s.Start, s.Length)
		if err != nil {
			slog.Debug("Failed to select characters", "row", row, "col", col, "error", err)
			continue
		}
		chars := charsV.ToIDispatch()
		if s.Bold {
			setFont(chars, "Bold", true)
		}
		if s.Italic {
			setFont(chars, "Italic", true)
		}
		if s.Strike {
			setFont(chars, "Strikethrough", true)
		}
		if s.Code {
			setFont(chars, "Name", "Consolas")
		}
		charsV.Clear()
	}
	return nil
}

// setFont sets one Font property; formatting failures leave the value in place
func setFont(target *ole.IDispatch, name string, value any) {
	fontV, err := oleutil.GetProperty(target, "Font")
	if err != nil {
		slog.Debug("Failed to get font", "error", err)
		return
	}
	defer fontV.Clear()
	if _, err := oleutil.PutProperty(fontV.ToIDispatch(), name, value); err != nil {
		slog.Debug("Failed to set font property", "property", name, "error", err)
	}
}

func intProperty(disp *ole.IDispatch, name string) (int, error) {
	v, err := oleutil.GetProperty(disp, name)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", name, err)
	}
	defer v.Clear()
	return int(v.Val), nil
}

// runCOM attaches to the running application on a dedicated OS thread
func runCOM(ctx context.Context, progID string, fn func(app *ole.IDispatch) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- withApp(progID, fn)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func withApp(progID string, fn func(app *ole.IDispatch) error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || oleErr.Code() != sFalse {
			return fmt.Errorf("failed to initialize COM: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.GetActiveObject(progID)
	if err != nil {
		return fmt.Errorf("%s is not running: %w", progID, err)
	}
	defer unknown.Release()

	app, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("failed to get %s dispatch: %w", progID, err)
	}
	defer app.Release()

	slog.Debug("Attached to application", "progID", progID)
	return fn(app)
}
