//go:build darwin

package platform

import (
	xhotkey "golang.design/x/hotkey"

	"markestedt/pastemd/hotkey"
)

var modifierMap = map[string]xhotkey.Modifier{
	hotkey.Ctrl:  xhotkey.ModCtrl,
	hotkey.Shift: xhotkey.ModShift,
	hotkey.Alt:   xhotkey.ModOption,
	hotkey.Cmd:   xhotkey.ModCmd,
}
