//go:build !windows

package platform

import (
	"context"
	"fmt"
	"log/slog"

	xhotkey "golang.design/x/hotkey"

	"markestedt/pastemd/hotkey"
)

var namedKeys = map[string]xhotkey.Key{
	"space": xhotkey.KeySpace, "enter": xhotkey.KeyReturn, "esc": xhotkey.KeyEscape,
	"delete": xhotkey.KeyDelete, "tab": xhotkey.KeyTab,
	"left": xhotkey.KeyLeft, "right": xhotkey.KeyRight, "up": xhotkey.KeyUp, "down": xhotkey.KeyDown,
	"f1": xhotkey.KeyF1, "f2": xhotkey.KeyF2, "f3": xhotkey.KeyF3, "f4": xhotkey.KeyF4,
	"f5": xhotkey.KeyF5, "f6": xhotkey.KeyF6, "f7": xhotkey.KeyF7, "f8": xhotkey.KeyF8,
	"f9": xhotkey.KeyF9, "f10": xhotkey.KeyF10, "f11": xhotkey.KeyF11, "f12": xhotkey.KeyF12,
	"f13": xhotkey.KeyF13, "f14": xhotkey.KeyF14, "f15": xhotkey.KeyF15, "f16": xhotkey.KeyF16,
	"f17": xhotkey.KeyF17, "f18": xhotkey.KeyF18, "f19": xhotkey.KeyF19, "f20": xhotkey.KeyF20,
}

var letterKeys = []xhotkey.Key{
	xhotkey.KeyA, xhotkey.KeyB, xhotkey.KeyC, xhotkey.KeyD, xhotkey.KeyE, xhotkey.KeyF, xhotkey.KeyG,
	xhotkey.KeyH, xhotkey.KeyI, xhotkey.KeyJ, xhotkey.KeyK, xhotkey.KeyL, xhotkey.KeyM, xhotkey.KeyN,
	xhotkey.KeyO, xhotkey.KeyP, xhotkey.KeyQ, xhotkey.KeyR, xhotkey.KeyS, xhotkey.KeyT, xhotkey.KeyU,
	xhotkey.KeyV, xhotkey.KeyW, xhotkey.KeyX, xhotkey.KeyY, xhotkey.KeyZ,
}

var digitKeys = []xhotkey.Key{
	xhotkey.Key0, xhotkey.Key1, xhotkey.Key2, xhotkey.Key3, xhotkey.Key4,
	xhotkey.Key5, xhotkey.Key6, xhotkey.Key7, xhotkey.Key8, xhotkey.Key9,
}

// RegisteredHotkey implements Hotkey with golang.design/x/hotkey
type RegisteredHotkey struct{}

// NewHotkey creates a new hotkey listener
func NewHotkey() Hotkey {
	return &RegisteredHotkey{}
}

// Listen registers combo with the OS. The returned channel is closed and
// the hotkey unregistered when ctx is cancelled.
func (h *RegisteredHotkey) Listen(ctx context.Context, combo hotkey.Combination) (<-chan Event, error) {
	mods, key, err := toXHotkey(combo)
	if err != nil {
		return nil, err
	}

	hk := xhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("failed to register hotkey %s: %w", combo, err)
	}

	events := make(chan Event, 10)
	go func() {
		defer close(events)
		defer func() {
			if err := hk.Unregister(); err != nil {
				slog.Warn("Failed to unregister hotkey", "hotkey", combo.String(), "error", err)
			}
		}()

		for {
			var ev Event
			select {
			case <-ctx.Done():
				return
			case <-hk.Keydown():
				ev = Event{Type: Pressed}
			case <-hk.Keyup():
				ev = Event{Type: Released}
			}
			select {
			case events <- ev:
			default:
			}
		}
	}()

	return events, nil
}

func toXHotkey(combo hotkey.Combination) ([]xhotkey.Modifier, xhotkey.Key, error) {
	keys := combo.Keys()
	if len(keys) != 1 {
		return nil, 0, fmt.Errorf("hotkey %s must have exactly one trigger key", combo)
	}

	var mods []xhotkey.Modifier
	for _, m := range combo.Modifiers() {
		mod, ok := modifierMap[m]
		if !ok {
			return nil, 0, fmt.Errorf("unsupported modifier: %s", m)
		}
		mods = append(mods, mod)
	}

	k := keys[0]
	if len(k) == 1 {
		switch c := k[0]; {
		case c >= 'a' && c <= 'z':
			return mods, letterKeys[c-'a'], nil
		case c >= '0' && c <= '9':
			return mods, digitKeys[c-'0'], nil
		}
	}
	if key, ok := namedKeys[k]; ok {
		return mods, key, nil
	}
	return nil, 0, fmt.Errorf("unsupported key: %s", k)
}
