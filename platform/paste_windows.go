//go:build windows

package platform

import (
	"fmt"
	"time"
	"unsafe"
)

var (
	sendInput      = user32.NewProc("SendInput")
	mapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
)

const (
	inputKeyboard  = 1
	keyeventfKeyup = 0x0002
	mapvkVkToVsc   = 0
	vkV            = 0x56
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // Padding to match C struct size
}

// WindowsPaster implements the Paster interface for Windows
type WindowsPaster struct{}

// NewPaster creates a new Windows paster instance
func NewPaster() Paster {
	return &WindowsPaster{}
}

// Paste simulates Ctrl+V
func (p *WindowsPaster) Paste() error {
	return sendChord(vkCtrl, vkV)
}

// sendChord presses vks in order and releases them in reverse, in a
// single SendInput call. Scan codes are included for elevated targets.
func sendChord(vks ...uint16) error {
	inputs := make([]input, 0, len(vks)*2)
	for _, vk := range vks {
		inputs = append(inputs, keyInput(vk, 0))
	}
	for i := len(vks) - 1; i >= 0; i-- {
		inputs = append(inputs, keyInput(vks[i], keyeventfKeyup))
	}

	ret, _, err := sendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if ret == 0 {
		return fmt.Errorf("SendInput failed: %w", err)
	}

	// Small delay to ensure input is processed
	time.Sleep(20 * time.Millisecond)
	return nil
}

func keyInput(vk uint16, flags uint32) input {
	scan, _, _ := mapVirtualKeyW.Call(uintptr(vk), mapvkVkToVsc)
	return input{
		inputType: inputKeyboard,
		ki: keyboardInput{
			wVk:     vk,
			wScan:   uint16(scan),
			dwFlags: flags,
		},
	}
}
