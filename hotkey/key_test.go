package hotkey

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		ev   KeyEvent
		want string
		ok   bool
	}{
		{"left ctrl", KeyEvent{Name: "ctrl_l"}, "ctrl", true},
		{"right shift", KeyEvent{Name: "Shift_R"}, "shift", true},
		{"alt gr", KeyEvent{Name: "alt_gr"}, "alt", true},
		{"win alias", KeyEvent{Name: "win"}, "cmd", true},
		{"named special", KeyEvent{Name: "F12"}, "f12", true},
		{"vk letter with control char", KeyEvent{VK: 0x41, Char: 0x01}, "a", true},
		{"vk digit", KeyEvent{VK: 0x37}, "7", true},
		{"vk numpad", KeyEvent{VK: 99}, "num3", true},
		{"vk function key", KeyEvent{VK: 0x73}, "f4", true},
		{"vk modifier", KeyEvent{VK: 0xA2}, "ctrl", true},
		{"char only", KeyEvent{Char: 'Q'}, "q", true},
		{"space char", KeyEvent{Char: ' '}, "space", true},
		{"control char only", KeyEvent{Char: 0x03}, "", false},
		{"empty", KeyEvent{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.ev)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Normalize(%+v) = (%q, %v), want (%q, %v)", tt.ev, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	events := []KeyEvent{
		{Name: "ctrl_r"}, {Name: "cmd_l"}, {Name: "Page_Up"},
		{VK: 0x5A}, {VK: 0x30}, {VK: 105}, {VK: 0x7B}, {VK: 0xBA}, {VK: 0x20},
		{Char: 'x'}, {Char: '/'}, {Char: ' '},
	}

	for _, ev := range events {
		once, ok := Normalize(ev)
		if !ok {
			t.Fatalf("Normalize(%+v) produced no token", ev)
		}
		twice, ok := Normalize(KeyEvent{Name: once})
		if !ok || twice != once {
			t.Errorf("Normalize not idempotent for %+v: %q then %q", ev, once, twice)
		}
	}
}

func TestVKCode(t *testing.T) {
	tests := []struct {
		token string
		want  int
	}{
		{"a", 0x41},
		{"Z", 0x5A},
		{"5", 0x35},
		{"num0", 0x60},
		{"f1", 0x70},
		{"f12", 0x7B},
		{"space", 0x20},
		{"ctrl", 0x11},
		{"cmd", 0x5B},
		{"nosuchkey", 0},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := VKCode(tt.token); got != tt.want {
				t.Errorf("VKCode(%q) = %#x, want %#x", tt.token, got, tt.want)
			}
		})
	}
}
