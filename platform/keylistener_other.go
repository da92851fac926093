//go:build !windows

package platform

import (
	"fmt"
	"sync"

	hook "github.com/robotn/gohook"

	"markestedt/pastemd/hotkey"
)

// HookListener reports raw key transitions from gohook for hotkey recording
type HookListener struct {
	mu     sync.Mutex
	active bool
	gen    int
}

// NewKeyListener creates a listener for hotkey.Recorder
func NewKeyListener() hotkey.Listener {
	return &HookListener{}
}

func (l *HookListener) Start(handle func(ev hotkey.KeyEvent, pressed bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active {
		return nil
	}

	events := hook.Start()
	if events == nil {
		return fmt.Errorf("failed to start keyboard hook")
	}
	l.active = true
	l.gen++
	go l.consume(events, l.gen, handle)
	return nil
}

// Stop does not wait for the hook to shut down, so it can be called
// from inside handle
func (l *HookListener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active {
		return nil
	}
	l.active = false
	go hook.End()
	return nil
}

func (l *HookListener) consume(events chan hook.Event, gen int, handle func(hotkey.KeyEvent, bool)) {
	for ev := range events {
		var pressed bool
		switch ev.Kind {
		case hook.KeyHold:
			pressed = true
		case hook.KeyUp:
			pressed = false
		default:
			continue
		}

		l.mu.Lock()
		current := l.active && l.gen == gen
		l.mu.Unlock()
		if !current {
			continue
		}

		handle(hotkey.KeyEvent{
			Name: hook.RawcodetoKeychar(ev.Rawcode),
			Char: ev.Keychar,
		}, pressed)
	}
}
