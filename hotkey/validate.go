package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoModifier    = errors.New("hotkey must include at least one modifier key (Ctrl, Alt, Shift or Cmd/Win)")
	ErrNoNormalKey   = errors.New("hotkey must include at least one normal key besides modifiers")
	ErrShiftOnly     = errors.New("shift alone is not a valid modifier, it would block typing capital letters")
	ErrInvalidFormat = errors.New("invalid hotkey format")
)

// ReservedError is returned when a combination is taken by the OS or by
// ubiquitous application shortcuts.
type ReservedError struct {
	Combo       string
	Description string
}

func (e *ReservedError) Error() string {
	return fmt.Sprintf("%s is reserved by the system (%s)", e.Combo, e.Description)
}

type reservedCombo struct {
	keys        []string
	description string
}

var reservedCombos = []reservedCombo{
	{[]string{Ctrl, "c"}, "copy"},
	{[]string{Ctrl, "v"}, "paste"},
	{[]string{Ctrl, "x"}, "cut"},
	{[]string{Ctrl, "z"}, "undo"},
	{[]string{Ctrl, "y"}, "redo"},
	{[]string{Ctrl, "a"}, "select all"},
	{[]string{Ctrl, "s"}, "save"},
	{[]string{Ctrl, "f"}, "find"},
	{[]string{Ctrl, "p"}, "print"},
	{[]string{Ctrl, "n"}, "new"},
	{[]string{Ctrl, "w"}, "close tab"},
	{[]string{Ctrl, "t"}, "new tab"},
	{[]string{Alt, "f4"}, "close window"},
}

// Validate checks a key set against the structural hotkey rules.
// Rules apply in order and the first failure is returned.
func Validate(keys []string) error {
	combo := NewCombination(keys)

	mods := combo.Modifiers()
	if len(mods) == 0 {
		return ErrNoModifier
	}
	if len(combo.Keys()) == 0 {
		return ErrNoNormalKey
	}
	if len(mods) == 1 && mods[0] == Shift {
		return ErrShiftOnly
	}

	for _, r := range reservedCombos {
		if combo.Equal(r.keys) {
			return &ReservedError{
				Combo:       strings.Join(NewCombination(r.keys), "+"),
				Description: r.description,
			}
		}
	}

	return nil
}

// ValidateString parses a persisted or user-typed hotkey and validates it
// with the same rules used while recording.
func ValidateString(s string) error {
	combo, err := ParseCombination(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return Validate(combo)
}
