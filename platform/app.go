package platform

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

func normalizeProcessName(name string) string {
	name = strings.ToLower(strings.TrimSpace(filepath.Base(name)))
	return strings.TrimSuffix(name, ".exe")
}

// OpenFile opens path with the default application
func OpenFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("open %s: %w", path, ErrUnsupported)
	}

	slog.Info("Opening file", "path", path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	go cmd.Wait()
	return nil
}

// decodeAppleScriptData unwraps osascript's «data XXXX<hex>» rendering
func decodeAppleScriptData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "«data ") || !strings.HasSuffix(s, "»") {
		return nil, fmt.Errorf("unexpected clipboard data: %.40q", s)
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "«data "), "»")
	if len(s) < 4 {
		return nil, fmt.Errorf("unexpected clipboard data: %q", s)
	}
	// Four-character type code precedes the hex payload
	return hex.DecodeString(s[4:])
}
