package hotkey

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewCombinationOrdering(t *testing.T) {
	got := NewCombination([]string{"b", "alt", "a", "cmd", "ctrl", "a", "shift"})
	want := Combination{"ctrl", "shift", "alt", "cmd", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewCombination() = %v, want %v", got, want)
	}
}

func TestCombinationRender(t *testing.T) {
	tests := []struct {
		keys    []string
		display string
		persist string
	}{
		{[]string{"a", "alt", "ctrl"}, "Ctrl + Alt + A", "<ctrl>+<alt>+a"},
		{[]string{"shift", "ctrl", "f12"}, "Ctrl + Shift + F12", "<ctrl>+<shift>+<f12>"},
		{[]string{"cmd", "page_up"}, "Cmd + Page_Up", "<cmd>+<page_up>"},
		{[]string{"ctrl", "num3"}, "Ctrl + Num3", "<ctrl>+<num3>"},
	}

	for _, tt := range tests {
		t.Run(tt.persist, func(t *testing.T) {
			c := NewCombination(tt.keys)
			if got := c.Display(); got != tt.display {
				t.Errorf("Display() = %q, want %q", got, tt.display)
			}
			if got := c.String(); got != tt.persist {
				t.Errorf("String() = %q, want %q", got, tt.persist)
			}
		})
	}
}

func TestParseCombination(t *testing.T) {
	tests := []struct {
		in   string
		want Combination
	}{
		{"<ctrl>+<alt>+a", Combination{"ctrl", "alt", "a"}},
		{"ctrl+alt+a", Combination{"ctrl", "alt", "a"}},
		{"Ctrl + Alt + A", Combination{"ctrl", "alt", "a"}},
		{"<win>+<shift>+<f5>", Combination{"shift", "cmd", "f5"}},
		{" <ctrl_l>+b ", Combination{"ctrl", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCombination(tt.in)
			if err != nil {
				t.Fatalf("ParseCombination(%q) error = %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCombination(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCombinationErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmptyCombo},
		{"   ", ErrEmptyCombo},
		{"ctrl++a", ErrEmptySegment},
		{"<ctrl>+<>", ErrEmptySegment},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseCombination(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseCombination(%q) error = %v, want %v", tt.in, err, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	c := NewCombination([]string{"ctrl", "alt", "a"})
	parsed, err := ParseCombination(c.String())
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(c) {
		t.Errorf("round trip = %v, want %v", parsed, c)
	}
}

// every token a listener can produce must survive String and ParseCombination,
// so a recorded hotkey validates the same way once persisted
func TestRecordedTokensRoundTrip(t *testing.T) {
	var events []KeyEvent
	for name := range modifierAliases {
		events = append(events, KeyEvent{Name: name})
	}
	for vk := 1; vk < 256; vk++ {
		events = append(events, KeyEvent{VK: vk})
	}
	for c := rune(33); c < 127; c++ {
		events = append(events, KeyEvent{Char: c}, KeyEvent{Name: string(c)})
	}
	events = append(events, KeyEvent{Char: 'é'}, KeyEvent{Char: 'ß'}, KeyEvent{Name: "page_up"})

	for _, ev := range events {
		tok, ok := Normalize(ev)
		if !ok {
			continue
		}

		combo := NewCombination([]string{Ctrl, Alt, tok})
		parsed, err := ParseCombination(combo.String())
		if err != nil {
			t.Errorf("token %q: ParseCombination(%q) error = %v", tok, combo.String(), err)
			continue
		}
		if !parsed.Equal(combo) {
			t.Errorf("token %q: %q parsed as %v, want %v", tok, combo.String(), parsed, combo)
		}

		recorded := Validate(combo)
		persisted := ValidateString(combo.String())
		if (recorded == nil) != (persisted == nil) {
			t.Errorf("token %q: Validate = %v, ValidateString = %v", tok, recorded, persisted)
		}
	}
}

func TestSeparatorKeys(t *testing.T) {
	tests := []struct {
		ev   KeyEvent
		want string
	}{
		{KeyEvent{Char: '+'}, "plus"},
		{KeyEvent{Name: "+"}, "plus"},
		{KeyEvent{Char: '<'}, "less"},
		{KeyEvent{Char: '>'}, "greater"},
		{KeyEvent{Name: "plus"}, "plus"},
	}
	for _, tt := range tests {
		if got, _ := Normalize(tt.ev); got != tt.want {
			t.Errorf("Normalize(%+v) = %q, want %q", tt.ev, got, tt.want)
		}
	}

	combo := NewCombination([]string{Ctrl, Alt, "plus"})
	if got := combo.String(); got != "<ctrl>+<alt>+<plus>" {
		t.Errorf("String() = %q", got)
	}
	if err := ValidateString(combo.String()); err != nil {
		t.Errorf("ValidateString(%q) = %v", combo.String(), err)
	}
	if vk := VKCode("plus"); vk != 0xBB {
		t.Errorf("VKCode(plus) = %#x, want 0xbb", vk)
	}
}
