package systray

import (
	"log/slog"
	"sync"

	"github.com/getlantern/systray"
)

// Options configures the tray menu
type Options struct {
	// DashboardURL is opened by "Open dashboard"; the item is hidden when empty
	DashboardURL string
	Hotkey       string
	Enabled      bool
	OnToggle     func(enabled bool)
	OpenURL      func(url string) error
}

// SystrayManager manages the system tray icon and menu
type SystrayManager struct {
	opts Options
	quit chan struct{}

	mu       sync.Mutex
	ready    bool
	hotkey   string
	enabled  bool
	mEnabled *systray.MenuItem
}

// NewSystrayManager creates a new systray manager
func NewSystrayManager(opts Options) *SystrayManager {
	return &SystrayManager{
		opts:    opts,
		quit:    make(chan struct{}),
		hotkey:  opts.Hotkey,
		enabled: opts.Enabled,
	}
}

// Run starts the system tray (blocking call)
func (m *SystrayManager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// Stop stops the system tray
func (m *SystrayManager) Stop() {
	systray.Quit()
}

// WaitForQuit returns a channel that will be closed when user clicks Quit
func (m *SystrayManager) WaitForQuit() <-chan struct{} {
	return m.quit
}

// SetHotkey updates the hotkey shown in the tooltip
func (m *SystrayManager) SetHotkey(display string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkey = display
	if m.ready {
		systray.SetTooltip(tooltip(display, m.enabled))
	}
}

// SetEnabled syncs the checkbox after the setting changed elsewhere
func (m *SystrayManager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
	if m.ready {
		m.applyEnabled()
	}
}

// onReady is called when the systray is ready
func (m *SystrayManager) onReady() {
	if len(iconData) > 0 {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("PasteMD")

	m.mu.Lock()
	m.mEnabled = systray.AddMenuItemCheckbox("Enabled", "Convert the clipboard when the hotkey is pressed", m.enabled)
	m.ready = true
	m.applyEnabled()
	m.mu.Unlock()

	mDashboard := systray.AddMenuItem("Open dashboard", "Open the PasteMD web dashboard")
	if m.opts.DashboardURL == "" {
		mDashboard.Hide()
	}
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Exit PasteMD")

	go func() {
		for {
			select {
			case <-m.mEnabled.ClickedCh:
				m.mu.Lock()
				m.enabled = !m.enabled
				enabled := m.enabled
				m.applyEnabled()
				m.mu.Unlock()

				slog.Info("Hotkey toggled from system tray", "enabled", enabled)
				if m.opts.OnToggle != nil {
					m.opts.OnToggle(enabled)
				}

			case <-mDashboard.ClickedCh:
				m.openDashboard()

			case <-mQuit.ClickedCh:
				slog.Info("User requested quit from system tray")
				close(m.quit)
				systray.Quit()
				return
			}
		}
	}()
}

// onExit is called when the systray is exiting
func (m *SystrayManager) onExit() {
	slog.Info("System tray exited")
}

// applyEnabled must be called with mu held
func (m *SystrayManager) applyEnabled() {
	if m.enabled {
		m.mEnabled.Check()
	} else {
		m.mEnabled.Uncheck()
	}
	systray.SetTooltip(tooltip(m.hotkey, m.enabled))
}

func (m *SystrayManager) openDashboard() {
	if m.opts.OpenURL == nil {
		return
	}
	slog.Info("Opening dashboard", "url", m.opts.DashboardURL)
	if err := m.opts.OpenURL(m.opts.DashboardURL); err != nil {
		slog.Error("Failed to open dashboard", "error", err)
	}
}

func tooltip(hotkey string, enabled bool) string {
	if !enabled {
		return "PasteMD - paused"
	}
	if hotkey == "" {
		return "PasteMD"
	}
	return "PasteMD - " + hotkey
}
