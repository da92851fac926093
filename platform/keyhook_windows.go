//go:build windows

package platform

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	setWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	callNextHookEx      = user32.NewProc("CallNextHookEx")
	unhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	getMessageW         = user32.NewProc("GetMessageW")
	postThreadMessageW  = user32.NewProc("PostThreadMessageW")
	getAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

const (
	whKeyboardLL = 13
	wmKeydown    = 0x0100
	wmKeyup      = 0x0101
	wmSyskeydown = 0x0104
	wmSyskeyup   = 0x0105
	wmQuit       = 0x0012
)

type kbdllhookstruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// keyHandler receives every key transition seen by the low level hook
type keyHandler func(vk uint32, down bool)

// keyboardHook is the process-wide WH_KEYBOARD_LL hook. The trigger
// listener and the recorder subscribe to it; the hook thread runs while
// at least one subscriber exists.
type keyboardHook struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]keyHandler
	threadID uint32
	running  bool
	// gen identifies the hook thread that should be running; a thread
	// whose generation is stale exits on its own
	gen int
}

var (
	sharedHook   = &keyboardHook{handlers: make(map[int]keyHandler)}
	hookCallback uintptr
	callbackOnce sync.Once
)

// lowLevelKeyboardProc is created once; windows.NewCallback slots are never freed
func lowLevelKeyboardProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		kb := (*kbdllhookstruct)(unsafe.Pointer(lParam))
		switch wParam {
		case wmKeydown, wmSyskeydown:
			sharedHook.dispatch(kb.vkCode, true)
		case wmKeyup, wmSyskeyup:
			sharedHook.dispatch(kb.vkCode, false)
		}
	}
	r, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}

func (h *keyboardHook) subscribe(fn keyHandler) (int, error) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.handlers[id] = fn
	needStart := !h.running
	if needStart {
		h.running = true
		h.gen++
	}
	gen := h.gen
	h.mu.Unlock()

	if !needStart {
		return id, nil
	}

	errCh := make(chan error, 1)
	go h.run(gen, errCh)
	if err := <-errCh; err != nil {
		h.mu.Lock()
		delete(h.handlers, id)
		if h.gen == gen {
			h.running = false
		}
		h.mu.Unlock()
		return 0, err
	}
	return id, nil
}

// unsubscribe never waits for the hook thread, so it is safe to call
// from inside a handler
func (h *keyboardHook) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.handlers, id)
	if len(h.handlers) == 0 && h.running {
		// A hook thread still starting up sees a newer generation and exits
		if h.threadID != 0 {
			postThreadMessageW.Call(uintptr(h.threadID), wmQuit, 0, 0)
		}
		h.running = false
		h.threadID = 0
		h.gen++
	}
}

func (h *keyboardHook) dispatch(vk uint32, down bool) {
	h.mu.Lock()
	handlers := make([]keyHandler, 0, len(h.handlers))
	for _, fn := range h.handlers {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(vk, down)
	}
}

// claim registers threadID as the hook thread of generation gen. It
// returns false when that generation was stopped or superseded.
func (h *keyboardHook) claim(gen int, threadID uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running || h.gen != gen {
		return false
	}
	h.threadID = threadID
	return true
}

func (h *keyboardHook) run(gen int, errCh chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	callbackOnce.Do(func() {
		hookCallback = windows.NewCallback(lowLevelKeyboardProc)
	})

	hook, _, err := setWindowsHookEx.Call(whKeyboardLL, hookCallback, 0, 0)
	if hook == 0 {
		errCh <- fmt.Errorf("SetWindowsHookEx failed: %w", err)
		return
	}
	defer unhookWindowsHookEx.Call(hook)

	current := h.claim(gen, windows.GetCurrentThreadId())

	errCh <- nil
	if !current {
		return
	}

	slog.Debug("Keyboard hook installed")

	// GetMessage returns 0 on WM_QUIT and -1 on error
	var m msg
	for {
		r, _, _ := getMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if r == 0 || int32(r) == -1 {
			break
		}
	}

	slog.Debug("Keyboard hook removed")
}

func isKeyPressed(vk int) bool {
	r, _, _ := getAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0
}
