//go:build windows

package platform

import (
	"bytes"
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"markestedt/pastemd/clipboard"
)

var (
	user32                     = windows.NewLazySystemDLL("user32.dll")
	kernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	shell32                    = windows.NewLazySystemDLL("shell32.dll")
	openClipboard              = user32.NewProc("OpenClipboard")
	closeClipboard             = user32.NewProc("CloseClipboard")
	emptyClipboard             = user32.NewProc("EmptyClipboard")
	getClipboardData           = user32.NewProc("GetClipboardData")
	setClipboardData           = user32.NewProc("SetClipboardData")
	isClipboardFormatAvailable = user32.NewProc("IsClipboardFormatAvailable")
	registerClipboardFormatW   = user32.NewProc("RegisterClipboardFormatW")
	globalAlloc                = kernel32.NewProc("GlobalAlloc")
	globalFree                 = kernel32.NewProc("GlobalFree")
	globalLock                 = kernel32.NewProc("GlobalLock")
	globalUnlock               = kernel32.NewProc("GlobalUnlock")
	globalSize                 = kernel32.NewProc("GlobalSize")
	dragQueryFileW             = shell32.NewProc("DragQueryFileW")
)

const (
	cfUnicodeText = 13
	cfHDrop       = 15
	gmemMoveable  = 0x0002
	gmemZeroinit  = 0x0040
)

// dropFiles mirrors DROPFILES; the path list follows it in the same block
type dropFiles struct {
	pFiles uint32
	pt     struct{ x, y int32 }
	fNC    int32
	fWide  int32
}

// WindowsClipboard implements the Clipboard interface for Windows
type WindowsClipboard struct {
	htmlFormat uintptr
}

// NewClipboard creates a new Windows clipboard instance
func NewClipboard() Clipboard {
	name, _ := windows.UTF16PtrFromString("HTML Format")
	f, _, _ := registerClipboardFormatW.Call(uintptr(unsafe.Pointer(name)))
	return &WindowsClipboard{htmlFormat: f}
}

// Get retrieves text from the clipboard
func (c *WindowsClipboard) Get() (string, error) {
	if err := c.open(); err != nil {
		return "", err
	}
	defer c.close()

	h, _, err := getClipboardData.Call(cfUnicodeText)
	if h == 0 {
		if err != nil && err != syscall.Errno(0) {
			return "", fmt.Errorf("GetClipboardData failed: %w", err)
		}
		return "", nil // No text data
	}

	l, _, err := globalLock.Call(h)
	if l == 0 {
		return "", fmt.Errorf("GlobalLock failed: %w", err)
	}
	defer globalUnlock.Call(h)

	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(l))), nil
}

// Set sets text to the clipboard
func (c *WindowsClipboard) Set(text string) error {
	utf16, err := windows.UTF16FromString(text)
	if err != nil {
		return fmt.Errorf("UTF16 conversion failed: %w", err)
	}

	buf := unsafe.Slice((*byte)(unsafe.Pointer(&utf16[0])), len(utf16)*2)
	return c.setData(cfUnicodeText, buf)
}

// HTMLReader returns a reader for the "HTML Format" clipboard container
func (c *WindowsClipboard) HTMLReader() clipboard.FormatReader {
	return &formatReader{format: c.htmlFormat}
}

// Files returns the paths of files on the clipboard (CF_HDROP)
func (c *WindowsClipboard) Files() ([]string, error) {
	if err := c.open(); err != nil {
		return nil, err
	}
	defer c.close()

	if ok, _, _ := isClipboardFormatAvailable.Call(cfHDrop); ok == 0 {
		return nil, nil
	}

	h, _, err := getClipboardData.Call(cfHDrop)
	if h == 0 {
		return nil, fmt.Errorf("GetClipboardData failed: %w", err)
	}

	n, _, _ := dragQueryFileW.Call(h, 0xFFFFFFFF, 0, 0)
	paths := make([]string, 0, n)
	for i := uintptr(0); i < n; i++ {
		size, _, _ := dragQueryFileW.Call(h, i, 0, 0)
		buf := make([]uint16, size+1)
		dragQueryFileW.Call(h, i, uintptr(unsafe.Pointer(&buf[0])), size+1)
		paths = append(paths, windows.UTF16ToString(buf))
	}
	return paths, nil
}

// SetFiles puts a file list on the clipboard so it can be pasted into
// Explorer or an Office document
func (c *WindowsClipboard) SetFiles(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no files to copy")
	}

	var list []uint16
	for _, p := range paths {
		u, err := windows.UTF16FromString(p)
		if err != nil {
			return fmt.Errorf("UTF16 conversion failed: %w", err)
		}
		list = append(list, u...)
	}
	list = append(list, 0)

	header := dropFiles{fWide: 1}
	header.pFiles = uint32(unsafe.Sizeof(header))

	var buf bytes.Buffer
	buf.Write(unsafe.Slice((*byte)(unsafe.Pointer(&header)), unsafe.Sizeof(header)))
	buf.Write(unsafe.Slice((*byte)(unsafe.Pointer(&list[0])), len(list)*2))

	return c.setData(cfHDrop, buf.Bytes())
}

func (c *WindowsClipboard) setData(format uintptr, data []byte) error {
	if err := c.open(); err != nil {
		return err
	}
	defer c.close()

	emptyClipboard.Call()

	h, _, err := globalAlloc.Call(gmemMoveable|gmemZeroinit, uintptr(len(data)))
	if h == 0 {
		return fmt.Errorf("GlobalAlloc failed: %w", err)
	}

	l, _, err := globalLock.Call(h)
	if l == 0 {
		globalFree.Call(h)
		return fmt.Errorf("GlobalLock failed: %w", err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(l)), len(data)), data)
	globalUnlock.Call(h)

	// The system owns h once SetClipboardData succeeds
	r, _, err := setClipboardData.Call(format, h)
	if r == 0 {
		globalFree.Call(h)
		return fmt.Errorf("SetClipboardData failed: %w", err)
	}

	return nil
}

func (c *WindowsClipboard) open() error {
	for i := 0; i < 10; i++ {
		r, _, _ := openClipboard.Call(0)
		if r != 0 {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("failed to open clipboard after retries")
}

func (c *WindowsClipboard) close() {
	closeClipboard.Call()
}

// formatReader reads one registered format. Open makes a single attempt;
// retrying is left to clipboard.Poll.
type formatReader struct {
	format uintptr
}

func (r *formatReader) Open() error {
	if r.format == 0 {
		return fmt.Errorf("clipboard format not registered")
	}
	if ok, _, err := openClipboard.Call(0); ok == 0 {
		return fmt.Errorf("OpenClipboard failed: %w", err)
	}
	return nil
}

func (r *formatReader) Close() error {
	closeClipboard.Call()
	return nil
}

func (r *formatReader) Available() (bool, error) {
	ok, _, _ := isClipboardFormatAvailable.Call(r.format)
	return ok != 0, nil
}

func (r *formatReader) Read() ([]byte, error) {
	h, _, err := getClipboardData.Call(r.format)
	if h == 0 {
		return nil, fmt.Errorf("GetClipboardData failed: %w", err)
	}

	size, _, _ := globalSize.Call(h)
	l, _, err := globalLock.Call(h)
	if l == 0 {
		return nil, fmt.Errorf("GlobalLock failed: %w", err)
	}
	defer globalUnlock.Call(h)

	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(l)), size))
	return bytes.TrimRight(data, "\x00"), nil
}
