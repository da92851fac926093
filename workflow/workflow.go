package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"markestedt/pastemd/config"
	"markestedt/pastemd/convert"
	"markestedt/pastemd/placer"
	"markestedt/pastemd/platform"
	"markestedt/pastemd/preprocess"
	"markestedt/pastemd/sheet"
	"markestedt/pastemd/storage"
)

const (
	notifyTitle = "PasteMD"
	runTimeout  = 2 * time.Minute
)

var (
	ErrBusy          = errors.New("a paste is already in progress")
	ErrNoTable       = errors.New("no Markdown table found on the clipboard")
	ErrExcelDisabled = errors.New("spreadsheet support is disabled")
	ErrNoTarget      = errors.New("no document or spreadsheet app is focused")
)

// History stores finished paste runs
type History interface {
	SavePaste(p *storage.Paste) error
}

// Events receives user-facing progress of a run
type Events interface {
	Notify(title, message string, ok bool)
	Status(status string)
	Pasted(p *storage.Paste)
}

// Deps are the collaborators of a Dispatcher
type Deps struct {
	Clipboard      platform.Clipboard
	Paster         platform.Paster
	DetectApp      func() platform.AppType
	OpenFile       func(path string) error
	NewConverter   func(cfg config.ConversionConfig) (convert.Converter, error)
	DocumentPlacer func(app platform.AppType) placer.DocumentPlacer
	SheetPlacer    func(app platform.AppType) placer.SheetPlacer
	History        History
	Events         Events
}

// DefaultDeps wires the platform implementations and pandoc
func DefaultDeps(cb platform.Clipboard, paster platform.Paster) Deps {
	return Deps{
		Clipboard:    cb,
		Paster:       paster,
		DetectApp:    platform.DetectApp,
		OpenFile:     platform.OpenFile,
		NewConverter: newPandoc,
		DocumentPlacer: func(app platform.AppType) placer.DocumentPlacer {
			return placer.ForDocument(app, cb, paster)
		},
		SheetPlacer: func(app platform.AppType) placer.SheetPlacer {
			return placer.ForSheet(app, cb, paster)
		},
	}
}

func newPandoc(cfg config.ConversionConfig) (convert.Converter, error) {
	p, err := convert.NewPandoc(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Dispatcher runs one paste workflow per trigger
type Dispatcher struct {
	deps    Deps
	config  func() *config.Config
	output  *placer.OutputExecutor
	running atomic.Bool
	now     func() time.Time
}

// NewDispatcher creates a dispatcher reading the current config from cfg
// on every run
func NewDispatcher(deps Deps, cfg func() *config.Config) *Dispatcher {
	if deps.Events == nil {
		deps.Events = nopEvents{}
	}
	return &Dispatcher{
		deps:   deps,
		config: cfg,
		output: placer.NewOutputExecutor(deps.Clipboard, deps.OpenFile),
		now:    time.Now,
	}
}

// Trigger starts a run in the background. It returns false when a run is
// already in progress and the trigger was dropped.
func (d *Dispatcher) Trigger(ctx context.Context) bool {
	if !d.running.CompareAndSwap(false, true) {
		slog.Debug("Trigger ignored, paste in progress")
		return false
	}
	go func() {
		defer d.running.Store(false)
		d.run(ctx)
	}()
	return true
}

// Run performs a paste synchronously. A run started while another is in
// progress returns ErrBusy.
func (d *Dispatcher) Run(ctx context.Context) (*storage.Paste, error) {
	if !d.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer d.running.Store(false)
	return d.run(ctx)
}

// Running reports whether a run is in progress
func (d *Dispatcher) Running() bool {
	return d.running.Load()
}

func (d *Dispatcher) run(ctx context.Context) (p *storage.Paste, err error) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	cfg := d.config()
	start := d.now()

	d.deps.Events.Status("converting")
	defer d.deps.Events.Status("idle")

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Paste workflow panicked", "panic", r)
			err = fmt.Errorf("paste workflow panicked: %v", r)
			d.notify("Paste failed unexpectedly", false)
			p = &storage.Paste{ErrorMessage: err.Error()}
			d.record(p)
		}
	}()

	app := d.deps.DetectApp()
	slog.Info("Paste triggered", "app", app)

	switch {
	case app.IsDocument():
		p, err = d.runDocument(ctx, cfg, app)
	case app.IsSpreadsheet():
		p, err = d.runSheet(ctx, cfg, app)
	default:
		p, err = d.runNoApp(ctx, cfg)
	}
	if p == nil {
		return nil, err
	}

	p.DurationMs = d.now().Sub(start).Milliseconds()
	p.Success = err == nil
	if err != nil {
		p.ErrorMessage = err.Error()
	}
	d.record(p)

	return p, err
}

// runDocument converts clipboard content to .docx and places it in Word or WPS
func (d *Dispatcher) runDocument(ctx context.Context, cfg *config.Config, app platform.AppType) (*storage.Paste, error) {
	p := &storage.Paste{TargetApp: string(app)}

	content, err := ReadContent(d.deps.Clipboard, cfg.Clipboard)
	if err != nil {
		d.notify("Clipboard is empty or holds no usable content", false)
		return p, err
	}
	p.Source = content.Source

	docx, err := d.convert(ctx, cfg, content.Source, content.Text)
	if err != nil {
		d.notifyConversion(err)
		return p, err
	}
	p.OutputBytes = int64(len(docx))

	res := d.deps.DocumentPlacer(app).Place(ctx, docx)
	p.Method = res.Method
	if !res.Success {
		slog.Error("Failed to insert document", "app", app, "method", res.Method, "error", res.Err)
		d.notify(fmt.Sprintf("Failed to insert into %s", appName(app)), false)
		return p, fmt.Errorf("failed to insert into %s: %w", appName(app), res.Err)
	}

	d.notify(insertedMessage(content, app), true)

	if cfg.Output.KeepFile {
		path, err := d.output.ExecuteDOCX(config.ActionSave, docx, placer.OutputPath(cfg.Output.SaveDir, sourceName(content), ".docx", d.now()))
		if err != nil {
			slog.Warn("Failed to keep document", "error", err)
		} else {
			p.OutputPath = path
		}
	}

	return p, nil
}

// runSheet places a Markdown table from the clipboard into Excel or WPS
func (d *Dispatcher) runSheet(ctx context.Context, cfg *config.Config, app platform.AppType) (*storage.Paste, error) {
	p := &storage.Paste{TargetApp: string(app), Source: storage.SourceTable}

	if !cfg.Excel.Enabled {
		d.notify("Spreadsheet support is disabled in settings", false)
		return p, ErrExcelDisabled
	}

	rows, err := d.readTable()
	if err != nil {
		d.notify("No Markdown table found on the clipboard", false)
		return p, err
	}

	res := d.deps.SheetPlacer(app).Place(ctx, rows, cfg.Excel.KeepFormat)
	p.Method = res.Method
	if !res.Success {
		slog.Error("Failed to insert table", "app", app, "method", res.Method, "error", res.Err)
		d.notify(fmt.Sprintf("Failed to insert into %s", appName(app)), false)
		return p, fmt.Errorf("failed to insert into %s: %w", appName(app), res.Err)
	}

	d.notify(fmt.Sprintf("Inserted a %d×%d table into %s", len(rows), len(rows[0]), appName(app)), true)

	if cfg.Output.KeepFile {
		path, err := d.output.ExecuteXLSX(config.ActionSave, rows, placer.OutputPath(cfg.Output.SaveDir, "", ".xlsx", d.now()), cfg.Excel.KeepFormat)
		if err != nil {
			slog.Warn("Failed to keep workbook", "error", err)
		} else {
			p.OutputPath = path
		}
	}

	return p, nil
}

// runNoApp writes the result to disk and applies the configured output action
func (d *Dispatcher) runNoApp(ctx context.Context, cfg *config.Config) (*storage.Paste, error) {
	action := cfg.Output.Action
	if action == config.ActionNone {
		d.notify("No document or spreadsheet app is focused", false)
		return nil, ErrNoTarget
	}

	p := &storage.Paste{TargetApp: storage.TargetFile, Method: action}

	content, err := ReadContent(d.deps.Clipboard, cfg.Clipboard)
	if err != nil {
		d.notify("Clipboard is empty or holds no usable content", false)
		return p, err
	}
	p.Source = content.Source

	switch {
	case content.Source == storage.SourceFiles && len(content.Files) > 1:
		return d.runBatch(ctx, cfg, content, p)

	case content.Source == storage.SourceMarkdown && cfg.Excel.Enabled && tableOnly(content.Text):
		if rows := sheet.ParseMarkdownTable(content.Text); rows != nil {
			p.Source = storage.SourceTable
			path, err := d.output.ExecuteXLSX(action, rows, placer.OutputPath(cfg.Output.SaveDir, "", ".xlsx", d.now()), cfg.Excel.KeepFormat)
			if err != nil {
				d.notify("Failed to create workbook", false)
				return p, err
			}
			p.OutputPath = path
			d.notify(outputMessage(action, path), true)
			return p, nil
		}
	}

	docx, err := d.convert(ctx, cfg, content.Source, content.Text)
	if err != nil {
		d.notifyConversion(err)
		return p, err
	}
	p.OutputBytes = int64(len(docx))

	path, err := d.output.ExecuteDOCX(action, docx, placer.OutputPath(cfg.Output.SaveDir, sourceName(content), ".docx", d.now()))
	if err != nil {
		d.notify("Failed to create document", false)
		return p, err
	}
	p.OutputPath = path
	d.notify(outputMessage(action, path), true)

	return p, nil
}

// runBatch converts every copied Markdown file to its own document
func (d *Dispatcher) runBatch(ctx context.Context, cfg *config.Config, content *Content, p *storage.Paste) (*storage.Paste, error) {
	var items []placer.BatchItem
	failed := make([]string, 0, len(content.Failures))
	for _, f := range content.Failures {
		failed = append(failed, f.Name)
	}

	for _, f := range content.Files {
		docx, err := d.convert(ctx, cfg, storage.SourceMarkdown, f.Content)
		if err != nil {
			slog.Warn("Failed to convert file", "file", f.Name, "error", err)
			failed = append(failed, f.Name)
			continue
		}
		items = append(items, placer.BatchItem{
			Data:   docx,
			Path:   placer.OutputPath(cfg.Output.SaveDir, f.Name, ".docx", d.now()),
			Source: f.Name,
		})
		p.OutputBytes += int64(len(docx))
	}

	if len(items) == 0 {
		d.notify("None of the copied files could be converted", false)
		return p, fmt.Errorf("%w: %s", convert.ErrConversion, strings.Join(failed, ", "))
	}

	res, err := d.output.ExecuteDOCXBatch(cfg.Output.Action, items)
	for _, f := range res.Failures {
		failed = append(failed, f.Source)
	}
	if len(res.Paths) > 0 {
		p.OutputPath = res.Paths[0]
	}
	if err != nil {
		d.notify("Failed to create documents", false)
		return p, err
	}

	msg := fmt.Sprintf("Converted %d of %d files", len(res.Paths), len(content.Files)+len(content.Failures))
	if len(failed) > 0 {
		msg += "; failed: " + strings.Join(failed, ", ")
	}
	d.notify(msg, len(failed) == 0)

	return p, nil
}

func (d *Dispatcher) readTable() ([][]string, error) {
	text, err := d.deps.Clipboard.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to read clipboard: %w", err)
	}
	rows := sheet.ParseMarkdownTable(text)
	if rows == nil {
		return nil, ErrNoTable
	}
	return rows, nil
}

func (d *Dispatcher) convert(ctx context.Context, cfg *config.Config, source, text string) ([]byte, error) {
	conv, err := d.deps.NewConverter(cfg.Conversion)
	if err != nil {
		return nil, err
	}

	if source == storage.SourceHTML {
		html, err := preprocess.HTMLPipeline(cfg.Conversion).Process(ctx, text)
		if err != nil {
			return nil, err
		}
		return conv.HTMLToDOCX(ctx, html)
	}

	md, err := preprocess.MarkdownPipeline(cfg.Conversion).Process(ctx, text)
	if err != nil {
		return nil, err
	}
	return conv.MarkdownToDOCX(ctx, md)
}

func (d *Dispatcher) record(p *storage.Paste) {
	if p.Timestamp.IsZero() {
		p.Timestamp = d.now()
	}
	if d.deps.History != nil {
		if err := d.deps.History.SavePaste(p); err != nil {
			slog.Error("Failed to save paste history", "error", err)
		}
	}
	d.deps.Events.Pasted(p)
}

func (d *Dispatcher) notify(message string, ok bool) {
	d.deps.Events.Notify(notifyTitle, message, ok)
}

func (d *Dispatcher) notifyConversion(err error) {
	switch {
	case errors.Is(err, convert.ErrPandocNotFound):
		d.notify("Pandoc not found; install it or set pandoc_path", false)
	case errors.Is(err, context.DeadlineExceeded):
		d.notify("Conversion timed out", false)
	default:
		d.notify("Conversion failed, see the log for details", false)
	}
}

func insertedMessage(c *Content, app platform.AppType) string {
	switch c.Source {
	case storage.SourceHTML:
		return fmt.Sprintf("Inserted web content into %s", appName(app))
	case storage.SourceFiles:
		return fmt.Sprintf("Inserted %d Markdown file(s) into %s", len(c.Files), appName(app))
	}
	return fmt.Sprintf("Inserted Markdown into %s", appName(app))
}

func outputMessage(action, path string) string {
	switch action {
	case config.ActionOpen:
		return "Created and opened " + path
	case config.ActionClipboard:
		return "Copied " + path + " to the clipboard"
	}
	return "Saved " + path
}

// sourceName names the output after a single copied file
func sourceName(c *Content) string {
	if c.Source == storage.SourceFiles && len(c.Files) == 1 {
		return c.Files[0].Name
	}
	return ""
}

func appName(app platform.AppType) string {
	switch app {
	case platform.AppWord:
		return "Word"
	case platform.AppWPS:
		return "WPS Writer"
	case platform.AppExcel:
		return "Excel"
	case platform.AppWPSExcel:
		return "WPS Spreadsheets"
	}
	return "the focused app"
}

type nopEvents struct{}

func (nopEvents) Notify(string, string, bool) {}
func (nopEvents) Status(string)               {}
func (nopEvents) Pasted(*storage.Paste)       {}
