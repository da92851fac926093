package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"markestedt/pastemd/config"
	"markestedt/pastemd/convert"
	"markestedt/pastemd/hotkey"
	"markestedt/pastemd/logging"
	"markestedt/pastemd/platform"
	"markestedt/pastemd/storage"
	"markestedt/pastemd/systray"
	"markestedt/pastemd/web"
	"markestedt/pastemd/workflow"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	dir, err := config.Dir()
	if err != nil {
		slog.Error("Failed to locate config directory", "error", err)
		os.Exit(1)
	}

	// Setup logging
	logCloser, err := logging.Setup(dir, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		slog.Warn("Logging to stdout only", "error", err)
	}
	defer logCloser.Close()

	slog.Info("Configuration loaded", "path", cfg.Path())

	ev := &eventSink{}

	hotkeyReset := false
	if err := cfg.EnsureValidHotkey(); err != nil {
		slog.Warn("Invalid hotkey in config, reset to default", "error", err, "hotkey", cfg.Hotkey)
		if err := cfg.Save(); err != nil {
			slog.Error("Failed to save config", "error", err)
		}
		hotkeyReset = true
	}

	db, err := storage.Open(dir)
	if err != nil {
		slog.Error("Failed to open history database, history disabled", "error", err)
	} else {
		defer db.Close()
	}

	pandoc, err := convert.NewPandoc(cfg.Conversion)
	if err != nil {
		slog.Warn("Pandoc not available, conversions will fail until it is installed", "error", err)
	}

	recorder := hotkey.NewRecorder(platform.NewKeyListener())

	deps := workflow.DefaultDeps(platform.NewClipboard(), platform.NewPaster())
	deps.Events = ev
	if db != nil {
		deps.History = db
	}
	agent := NewAgent(cfg, deps, recorder)

	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var server *web.Server
	if cfg.Web.Enabled && db != nil {
		server = web.NewServer(db, cfg, recorder)
		if pandoc != nil {
			server.SetVersionSource(pandoc)
		}
		ev.web = server
	}

	var dashboardURL string
	if server != nil {
		dashboardURL = server.URL()
	}

	tray := systray.NewSystrayManager(systray.Options{
		DashboardURL: dashboardURL,
		Hotkey:       hotkeyDisplay(cfg),
		Enabled:      cfg.Enabled,
		OpenURL:      platform.OpenFile,
		OnToggle: func(enabled bool) {
			updated := agent.Config().Clone()
			updated.Enabled = enabled
			if err := updated.Save(); err != nil {
				slog.Error("Failed to save config", "error", err)
			}
			agent.SetConfig(updated)
			if server != nil {
				server.UpdateConfig(updated)
			}
		},
	})

	if server != nil {
		server.OnConfigChange(func(old, updated *config.Config) {
			agent.SetConfig(updated)
			tray.SetHotkey(hotkeyDisplay(updated))
			tray.SetEnabled(updated.Enabled)
			if old.Hotkey != updated.Hotkey {
				slog.Info("Hotkey changed", "from", old.Hotkey, "to", updated.Hotkey)
			}
		})

		go func() {
			if err := server.Start(ctx); err != nil {
				slog.Error("Web server error", "error", err)
			}
		}()
	}

	agent.OnHotkeyReset(func(updated *config.Config) {
		tray.SetHotkey(hotkeyDisplay(updated))
		if server != nil {
			server.UpdateConfig(updated)
		}
	})

	// Run agent
	go func() {
		if err := agent.Run(ctx); err != nil {
			slog.Error("Agent error", "error", err)
			ev.Notify(notifyTitle, "Failed to register the hotkey "+hotkeyDisplay(agent.Config()), false)
		}
	}()

	if hotkeyReset {
		ev.Notify(notifyTitle, "The configured hotkey was invalid and has been reset to "+hotkeyDisplay(cfg), false)
	}

	go func() {
		select {
		case <-ctx.Done():
			tray.Stop()
		case <-tray.WaitForQuit():
			cancel()
		}
	}()

	slog.Info("PasteMD started", "hotkey", cfg.Hotkey, "dashboard", dashboardURL)

	// The tray owns the main thread until quit
	tray.Run()
	cancel()

	slog.Info("PasteMD stopped")
}
