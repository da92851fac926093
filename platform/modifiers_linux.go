//go:build linux

package platform

import (
	xhotkey "golang.design/x/hotkey"

	"markestedt/pastemd/hotkey"
)

// X11 maps Alt to Mod1 and Super to Mod4
var modifierMap = map[string]xhotkey.Modifier{
	hotkey.Ctrl:  xhotkey.ModCtrl,
	hotkey.Shift: xhotkey.ModShift,
	hotkey.Alt:   xhotkey.Mod1,
	hotkey.Cmd:   xhotkey.Mod4,
}
