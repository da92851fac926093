package hotkey

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCombo   = errors.New("empty hotkey combo")
	ErrEmptySegment = errors.New("empty key in hotkey combo")
)

// Combination is a canonicalized key set: modifiers first in the fixed order
// ctrl, shift, alt, cmd, then the remaining keys sorted lexicographically.
type Combination []string

// NewCombination de-duplicates and orders keys
func NewCombination(keys []string) Combination {
	seen := make(map[string]bool, len(keys))
	var normal []string
	for _, k := range keys {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if !IsModifier(k) {
			normal = append(normal, k)
		}
	}
	sort.Strings(normal)

	combo := make(Combination, 0, len(seen))
	for _, mod := range modifierOrder {
		if seen[mod] {
			combo = append(combo, mod)
		}
	}
	return append(combo, normal...)
}

// ParseCombination parses "<ctrl>+<alt>+a", "ctrl+alt+a" or "Ctrl + Alt + A"
func ParseCombination(s string) (Combination, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyCombo
	}

	parts := strings.Split(s, "+")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		part = strings.TrimSuffix(strings.TrimPrefix(part, "<"), ">")
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			return nil, fmt.Errorf("%w: %q", ErrEmptySegment, s)
		}
		tok, _ := Normalize(KeyEvent{Name: part})
		keys = append(keys, tok)
	}

	return NewCombination(keys), nil
}

// Modifiers returns the modifier tokens in canonical order
func (c Combination) Modifiers() []string {
	var mods []string
	for _, k := range c {
		if IsModifier(k) {
			mods = append(mods, k)
		}
	}
	return mods
}

// Keys returns the non-modifier tokens
func (c Combination) Keys() []string {
	var keys []string
	for _, k := range c {
		if !IsModifier(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Set returns the combination as a set
func (c Combination) Set() map[string]bool {
	set := make(map[string]bool, len(c))
	for _, k := range c {
		set[k] = true
	}
	return set
}

// Display renders the combination for humans, e.g. "Ctrl + Alt + A"
func (c Combination) Display() string {
	parts := make([]string, len(c))
	for i, k := range c {
		parts[i] = titleCase(k)
	}
	return strings.Join(parts, " + ")
}

// String renders the persisted form, e.g. "<ctrl>+<alt>+a"
func (c Combination) String() string {
	parts := make([]string, len(c))
	for i, k := range c {
		if IsModifier(k) || len(k) > 1 {
			parts[i] = "<" + k + ">"
		} else {
			parts[i] = k
		}
	}
	return strings.Join(parts, "+")
}

// Equal reports whether both combinations hold the same keys
func (c Combination) Equal(other Combination) bool {
	if len(c) != len(other) {
		return false
	}
	a, b := NewCombination(c), NewCombination(other)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// titleCase upper-cases the first letter of each "_"-separated word
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, "_")
}
