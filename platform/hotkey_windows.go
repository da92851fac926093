//go:build windows

package platform

import (
	"context"
	"fmt"
	"sync"

	"markestedt/pastemd/hotkey"
)

const (
	vkShift = 0x10
	vkCtrl  = 0x11
	vkAlt   = 0x12
	vkLwin  = 0x5B // Left Windows key
	vkRwin  = 0x5C // Right Windows key
)

// WindowsHotkey implements the Hotkey interface on top of the shared
// low level keyboard hook
type WindowsHotkey struct {
	mu      sync.Mutex
	mods    map[string]bool
	keys    map[uint32]bool
	down    map[uint32]bool
	pressed bool
	closed  bool
	events  chan Event
}

// NewHotkey creates a new Windows hotkey listener
func NewHotkey() Hotkey {
	return &WindowsHotkey{}
}

// Listen starts listening for the specified key combination. The returned
// channel is closed when ctx is cancelled.
func (h *WindowsHotkey) Listen(ctx context.Context, combo hotkey.Combination) (<-chan Event, error) {
	keys := make(map[uint32]bool)
	for _, k := range combo.Keys() {
		vk := hotkey.VKCode(k)
		if vk == 0 {
			return nil, fmt.Errorf("unknown key: %s", k)
		}
		keys[uint32(vk)] = true
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("hotkey %s has no trigger key", combo)
	}

	mods := make(map[string]bool)
	for _, m := range combo.Modifiers() {
		mods[m] = true
	}

	h.mu.Lock()
	h.mods = mods
	h.keys = keys
	h.down = make(map[uint32]bool)
	h.pressed = false
	h.closed = false
	h.events = make(chan Event, 10)
	events := h.events
	h.mu.Unlock()

	id, err := sharedHook.subscribe(h.handleKeyEvent)
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		sharedHook.unsubscribe(id)
		h.mu.Lock()
		h.closed = true
		close(events)
		h.mu.Unlock()
	}()

	return events, nil
}

func (h *WindowsHotkey) handleKeyEvent(vk uint32, down bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || !h.keys[vk] {
		return
	}

	if down {
		h.down[vk] = true
		if h.pressed || len(h.down) != len(h.keys) || !h.checkModifiers() {
			return
		}
		h.pressed = true
		h.send(Event{Type: Pressed})
		return
	}

	delete(h.down, vk)
	if h.pressed {
		h.pressed = false
		h.send(Event{Type: Released})
	}
}

func (h *WindowsHotkey) send(ev Event) {
	select {
	case h.events <- ev:
	default:
	}
}

func (h *WindowsHotkey) checkModifiers() bool {
	ctrl := isKeyPressed(vkCtrl)
	shift := isKeyPressed(vkShift)
	alt := isKeyPressed(vkAlt)
	win := isKeyPressed(vkLwin) || isKeyPressed(vkRwin)

	return ctrl == h.mods[hotkey.Ctrl] &&
		shift == h.mods[hotkey.Shift] &&
		alt == h.mods[hotkey.Alt] &&
		win == h.mods[hotkey.Cmd]
}

// KeyListener reports raw key transitions for hotkey recording
type KeyListener struct {
	mu sync.Mutex
	id int
}

// NewKeyListener creates a listener for hotkey.Recorder
func NewKeyListener() hotkey.Listener {
	return &KeyListener{}
}

func (l *KeyListener) Start(handle func(ev hotkey.KeyEvent, pressed bool)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.id != 0 {
		return nil
	}

	id, err := sharedHook.subscribe(func(vk uint32, down bool) {
		handle(hotkey.KeyEvent{VK: int(vk)}, down)
	})
	if err != nil {
		return fmt.Errorf("failed to start key listener: %w", err)
	}
	l.id = id
	return nil
}

func (l *KeyListener) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.id != 0 {
		sharedHook.unsubscribe(l.id)
		l.id = 0
	}
	return nil
}
