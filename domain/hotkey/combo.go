package hotkey

import (
	"fmt"
	"strings"
)

// Combo is a parsed key combination: zero or more modifiers plus one key.
type Combo struct {
	Mods Modifiers
	Key  Key
}

// Parse reads a "+"-separated, case-insensitive combination such as "ctrl+shift+f12".
func Parse(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(s, "+")
	haveKey := false
	for _, raw := range parts {
		p := strings.ToLower(strings.TrimSpace(raw))
		if p == "" {
			return Combo{}, fmt.Errorf("hotkey: empty token in %q", s)
		}
		if m, ok := modifierNames[p]; ok {
			c.Mods |= m
			continue
		}
		k, ok := LookupKey(p)
		if !ok {
			return Combo{}, fmt.Errorf("hotkey: unknown key %q in %q", p, s)
		}
		if haveKey {
			return Combo{}, fmt.Errorf("hotkey: more than one key in %q", s)
		}
		c.Key = k
		haveKey = true
	}
	if !haveKey {
		return Combo{}, fmt.Errorf("hotkey: no key in %q", s)
	}
	return c, nil
}

// String renders the combo in canonical form.
func (c Combo) String() string {
	if c.Mods == 0 {
		return c.Key.Name
	}
	return c.Mods.String() + "+" + c.Key.Name
}

// Matches reports whether a key-down event triggers the combo. Held modifiers
// must match exactly.
func (c Combo) Matches(e KeyEvent) bool {
	return e.Down && e.Mods == c.Mods && c.Key.matchesKey(e)
}
