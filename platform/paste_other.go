//go:build !windows

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// KeybdPaster sends the paste shortcut through keybd_event
// (CGEvent on macOS, uinput on Linux)
type KeybdPaster struct {
	once sync.Once
	kb   keybd_event.KeyBonding
	err  error
}

// NewPaster creates a new paster instance
func NewPaster() Paster {
	return &KeybdPaster{}
}

func (p *KeybdPaster) init() error {
	p.once.Do(func() {
		p.kb, p.err = keybd_event.NewKeyBonding()
		if p.err == nil && runtime.GOOS == "linux" {
			// uinput devices are not usable right after creation
			time.Sleep(2 * time.Second)
		}
	})
	return p.err
}

// Paste simulates Cmd+V on macOS and Ctrl+V elsewhere
func (p *KeybdPaster) Paste() error {
	if err := p.init(); err != nil {
		return fmt.Errorf("failed to create key binding: %w", err)
	}

	p.kb.Clear()
	p.kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		p.kb.HasSuper(true)
	} else {
		p.kb.HasCTRL(true)
	}

	if err := p.kb.Launching(); err != nil {
		return fmt.Errorf("failed to send paste keystroke: %w", err)
	}
	time.Sleep(20 * time.Millisecond)
	return nil
}
