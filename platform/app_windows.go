//go:build windows

package platform

import (
	"log/slog"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	getForegroundWindow      = user32.NewProc("GetForegroundWindow")
	getWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
)

// DetectApp returns the Office application owning the foreground window
func DetectApp() AppType {
	hwnd, _, _ := getForegroundWindow.Call()
	if hwnd == 0 {
		return AppNone
	}

	var pid uint32
	getWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return AppNone
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		slog.Debug("Failed to open foreground process", "pid", pid, "error", err)
		return AppNone
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		slog.Debug("Failed to query process image", "pid", pid, "error", err)
		return AppNone
	}

	exe := windows.UTF16ToString(buf[:size])
	app := appFromProcess(exe)
	slog.Debug("Foreground application", "exe", exe, "app", app)
	return app
}
