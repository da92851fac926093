package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"markestedt/pastemd/config"
	"markestedt/pastemd/hotkey"
	"markestedt/pastemd/platform"
	"markestedt/pastemd/storage"
	"markestedt/pastemd/web"
	"markestedt/pastemd/workflow"
)

// Agent binds the trigger hotkey and runs the paste workflow on each press
type Agent struct {
	dispatcher *workflow.Dispatcher
	recorder   *hotkey.Recorder
	newHotkey  func() platform.Hotkey
	events     workflow.Events
	save       func(cfg *config.Config) error
	onReset    func(cfg *config.Config)

	mu     sync.RWMutex
	cfg    *config.Config
	rebind chan struct{}
}

// NewAgent creates a new agent instance
func NewAgent(cfg *config.Config, deps workflow.Deps, recorder *hotkey.Recorder) *Agent {
	a := &Agent{
		recorder:  recorder,
		newHotkey: platform.NewHotkey,
		events:    deps.Events,
		save:      (*config.Config).Save,
		cfg:       cfg,
		rebind:    make(chan struct{}, 1),
	}
	if a.events == nil {
		a.events = &eventSink{}
	}
	a.dispatcher = workflow.NewDispatcher(deps, a.Config)
	return a
}

// Config returns the configuration the next paste will use
func (a *Agent) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// OnHotkeyReset registers fn to run after an unbindable hotkey was
// replaced by the default
func (a *Agent) OnHotkeyReset(fn func(cfg *config.Config)) {
	a.onReset = fn
}

// SetConfig swaps the configuration and rebinds the trigger when the
// hotkey changed
func (a *Agent) SetConfig(cfg *config.Config) {
	a.mu.Lock()
	changed := a.cfg.Hotkey != cfg.Hotkey
	a.cfg = cfg
	a.mu.Unlock()

	if changed {
		select {
		case a.rebind <- struct{}{}:
		default:
		}
	}
}

// Run starts the agent's main event loop
func (a *Agent) Run(ctx context.Context) error {
	first := true
	for {
		bindCtx, cancel := context.WithCancel(ctx)
		events, err := a.bind(bindCtx)
		if err != nil && first {
			events, err = a.bindDefault(bindCtx, err)
			if err != nil {
				cancel()
				return err
			}
		} else if err != nil {
			// Keep running so a corrected hotkey can be bound later
			slog.Error("Failed to rebind hotkey", "error", err)
			a.events.Notify(notifyTitle, "Failed to bind hotkey "+a.Config().Hotkey, false)
		}
		first = false

		if done := a.loop(ctx, events); done {
			cancel()
			return nil
		}
		cancel()
	}
}

// loop handles hotkey events until ctx is done (true) or a rebind is
// requested (false)
func (a *Agent) loop(ctx context.Context, events <-chan platform.Event) bool {
	for {
		select {
		case <-ctx.Done():
			return true

		case <-a.rebind:
			return false

		case evt, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if evt.Type == platform.Pressed {
				a.onPressed(ctx)
			}
		}
	}
}

func (a *Agent) bind(ctx context.Context) (<-chan platform.Event, error) {
	cfg := a.Config()
	combo, err := cfg.HotkeyCombination()
	if err != nil {
		return nil, fmt.Errorf("failed to parse hotkey: %w", err)
	}

	events, err := a.newHotkey().Listen(ctx, combo)
	if err != nil {
		return nil, fmt.Errorf("failed to start hotkey listener: %w", err)
	}

	slog.Info("Hotkey bound", "hotkey", combo.String(), "display", combo.Display())
	return events, nil
}

// bindDefault replaces a configured hotkey that could not be bound with
// the default one, saves the config and tells the user
func (a *Agent) bindDefault(ctx context.Context, cause error) (<-chan platform.Event, error) {
	cfg := a.Config()
	if cfg.Hotkey == config.DefaultHotkey {
		return nil, cause
	}
	slog.Warn("Failed to bind hotkey, falling back to default", "hotkey", cfg.Hotkey, "error", cause)

	reset := cfg.Clone()
	reset.ResetHotkey()
	a.mu.Lock()
	a.cfg = reset
	a.mu.Unlock()

	events, err := a.bind(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.save(reset); err != nil {
		slog.Error("Failed to save config", "error", err)
	}
	a.events.Notify(notifyTitle, fmt.Sprintf("Hotkey %s could not be bound, reset to %s", cfg.Hotkey, hotkeyDisplay(reset)), false)
	if a.onReset != nil {
		a.onReset(reset)
	}
	return events, nil
}

func (a *Agent) onPressed(ctx context.Context) {
	if !a.Config().Enabled {
		slog.Debug("Hotkey pressed while disabled")
		return
	}
	if a.recorder != nil && a.recorder.Recording() {
		slog.Debug("Hotkey pressed while recording a new hotkey")
		return
	}
	a.dispatcher.Trigger(ctx)
}

const notifyTitle = "PasteMD"

// eventSink forwards workflow progress to the log and the dashboard
type eventSink struct {
	web *web.Server
}

func (e *eventSink) Notify(title, message string, ok bool) {
	if ok {
		slog.Info(message, "title", title)
	} else {
		slog.Warn(message, "title", title)
	}
	if e.web != nil {
		e.web.Notify(title, message, ok)
	}
}

func (e *eventSink) Status(status string) {
	if e.web != nil {
		e.web.BroadcastStatus(status)
	}
}

func (e *eventSink) Pasted(p *storage.Paste) {
	slog.Info("Paste finished", "source", p.Source, "target", p.TargetApp, "method", p.Method,
		"success", p.Success, "duration_ms", p.DurationMs)
	if e.web != nil {
		e.web.BroadcastPaste(p)
	}
}

func hotkeyDisplay(cfg *config.Config) string {
	combo, err := cfg.HotkeyCombination()
	if err != nil {
		return cfg.Hotkey
	}
	return combo.Display()
}
