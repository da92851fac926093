package hotkey

import (
	"fmt"
	"strings"
	"unicode"
)

// Modifier tokens in display/persist order
const (
	Ctrl  = "ctrl"
	Shift = "shift"
	Alt   = "alt"
	Cmd   = "cmd"
)

var modifierOrder = []string{Ctrl, Shift, Alt, Cmd}

// KeyEvent is a raw key event as reported by a Listener.
// Any of the fields may be empty; Normalize picks the most reliable one.
type KeyEvent struct {
	Name string // listener name for special keys ("ctrl_l", "f12", "page_up")
	VK   int    // virtual key code, 0 if unknown
	Char rune   // produced character, 0 if unknown
}

// modifierAliases folds left/right variants onto the canonical modifier token
var modifierAliases = map[string]string{
	"ctrl": Ctrl, "ctrl_l": Ctrl, "ctrl_r": Ctrl, "control": Ctrl, "lctrl": Ctrl, "rctrl": Ctrl,
	"shift": Shift, "shift_l": Shift, "shift_r": Shift, "lshift": Shift, "rshift": Shift,
	"alt": Alt, "alt_l": Alt, "alt_r": Alt, "alt_gr": Alt, "option": Alt, "lalt": Alt, "ralt": Alt,
	"cmd": Cmd, "cmd_l": Cmd, "cmd_r": Cmd, "win": Cmd, "super": Cmd, "command": Cmd, "lcmd": Cmd, "rcmd": Cmd,
}

// vkNames maps Windows virtual key codes to token names.
// Letters, digits and numpad digits are derived arithmetically.
var vkNames = map[int]string{
	0x08: "backspace", 0x09: "tab", 0x0D: "enter", 0x13: "pause", 0x14: "caps_lock", 0x1B: "esc",
	0x20: "space", 0x21: "page_up", 0x22: "page_down", 0x23: "end", 0x24: "home",
	0x25: "left", 0x26: "up", 0x27: "right", 0x28: "down",
	0x2C: "print_screen", 0x2D: "insert", 0x2E: "delete",
	0x10: Shift, 0xA0: Shift, 0xA1: Shift,
	0x11: Ctrl, 0xA2: Ctrl, 0xA3: Ctrl,
	0x12: Alt, 0xA4: Alt, 0xA5: Alt,
	0x5B: Cmd, 0x5C: Cmd,
	0x6A: "multiply", 0x6B: "add", 0x6C: "separator", 0x6D: "subtract", 0x6E: "decimal", 0x6F: "divide",
	0xBA: ";", 0xBB: "=", 0xBC: ",", 0xBD: "-", 0xBE: ".", 0xBF: "/", 0xC0: "`",
	0xDB: "[", 0xDC: "\\", 0xDD: "]", 0xDE: "'",
}

// separatorNames renames characters that would clash with the persisted
// "<ctrl>+a" syntax
var separatorNames = map[string]string{"+": "plus", "<": "less", ">": "greater"}

// separatorVKs are the US layout keys producing those characters
var separatorVKs = map[string]int{"plus": 0xBB, "less": 0xBC, "greater": 0xBE}

func init() {
	for i := 1; i <= 24; i++ {
		vkNames[0x70+i-1] = fmt.Sprintf("f%d", i)
	}
}

// VKCode returns the virtual key code for a token, or 0 if unknown
func VKCode(token string) int {
	token = strings.ToLower(token)
	if len(token) == 1 {
		c := token[0]
		switch {
		case c >= 'a' && c <= 'z':
			return int(c-'a') + 0x41
		case c >= '0' && c <= '9':
			return int(c)
		}
	}
	if strings.HasPrefix(token, "num") && len(token) == 4 && token[3] >= '0' && token[3] <= '9' {
		return 0x60 + int(token[3]-'0')
	}
	if vk, ok := separatorVKs[token]; ok {
		return vk
	}
	switch token {
	case Ctrl:
		return 0x11
	case Shift:
		return 0x10
	case Alt:
		return 0x12
	case Cmd:
		return 0x5B
	}
	for vk, name := range vkNames {
		if name == token && vk > 0x12 {
			return vk
		}
	}
	return 0
}

// IsModifier reports whether token is one of the canonical modifiers
func IsModifier(token string) bool {
	switch token {
	case Ctrl, Shift, Alt, Cmd:
		return true
	}
	return false
}

// Normalize maps a raw key event to its canonical lowercase token.
// It is idempotent: Normalize(KeyEvent{Name: tok}) == tok for every token it returns.
func Normalize(ev KeyEvent) (string, bool) {
	name := strings.ToLower(strings.TrimSpace(ev.Name))

	if mod, ok := modifierAliases[name]; ok {
		return mod, true
	}
	if name != "" {
		return tokenName(name), true
	}

	// Prefer the VK code over Char: with ctrl held, Char is a control character
	switch vk := ev.VK; {
	case vk >= 65 && vk <= 90:
		return string(rune('a' + vk - 65)), true
	case vk >= 48 && vk <= 57:
		return string(rune('0' + vk - 48)), true
	case vk >= 96 && vk <= 105:
		return fmt.Sprintf("num%d", vk-96), true
	case vk != 0:
		if n, ok := vkNames[vk]; ok {
			return n, true
		}
	}

	if ev.Char == ' ' {
		return "space", true
	}
	if ev.Char > 32 && unicode.IsPrint(ev.Char) {
		return tokenName(strings.ToLower(string(ev.Char))), true
	}

	return "", false
}

func tokenName(s string) string {
	if n, ok := separatorNames[s]; ok {
		return n
	}
	return s
}
