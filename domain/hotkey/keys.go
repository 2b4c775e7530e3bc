package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRegistrationFailed wraps parse failures of a single binding.
	ErrRegistrationFailed = errors.New("hotkey: registration failed")
	// ErrListenerUnavailable reports that no global keyboard hook exists on this platform.
	ErrListenerUnavailable = errors.New("hotkey: listener unavailable")
)

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModAlt
	ModShift
	ModWin
)

func (m Modifiers) String() string {
	var parts []string
	if m&ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if m&ModWin != 0 {
		parts = append(parts, "win")
	}
	return strings.Join(parts, "+")
}

type keyClass uint8

const (
	classPlain  keyClass = iota
	classNumpad          // matched on scan code + extended flag
	classNav             // requires the extended flag
	classEnter           // VK_RETURN without the extended flag
)

// Key is a named, non-modifier key.
type Key struct {
	Name     string
	VK       uint16
	Scan     uint16
	Extended bool
	class    keyClass
}

// KeyEvent is one raw keyboard event from the listener.
type KeyEvent struct {
	VK       uint16
	Scan     uint16
	Extended bool
	Down     bool
	Mods     Modifiers
}

var modifierNames = map[string]Modifiers{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"alt":     ModAlt,
	"shift":   ModShift,
	"win":     ModWin,
	"cmd":     ModWin,
	"super":   ModWin,
}

var keyAliases = map[string]string{
	"return":     "enter",
	"escape":     "esc",
	"del":        "delete",
	"ins":        "insert",
	"pgup":       "pageup",
	"page_up":    "pageup",
	"pgdn":       "pagedown",
	"page_down":  "pagedown",
	"capslock":   "caps_lock",
	"numlock":    "num_lock",
	"scrolllock": "scroll_lock",
}

var keyTable = buildKeyTable()

func buildKeyTable() map[string]Key {
	t := make(map[string]Key, 96)
	add := func(k Key) { t[k.Name] = k }
	for c := 'a'; c <= 'z'; c++ {
		add(Key{Name: string(c), VK: uint16(c - 'a' + 'A')})
	}
	for c := '0'; c <= '9'; c++ {
		add(Key{Name: string(c), VK: uint16(c)})
	}
	for i := 1; i <= 24; i++ {
		add(Key{Name: fmt.Sprintf("f%d", i), VK: uint16(0x70 + i - 1)})
	}
	for _, k := range []Key{
		{Name: "space", VK: 0x20},
		{Name: "tab", VK: 0x09},
		{Name: "esc", VK: 0x1B},
		{Name: "backspace", VK: 0x08},
		{Name: "caps_lock", VK: 0x14},
		{Name: "num_lock", VK: 0x90},
		{Name: "scroll_lock", VK: 0x91},
		{Name: "enter", VK: 0x0D, Scan: 0x1C, class: classEnter},
	} {
		add(k)
	}
	for _, k := range []Key{
		{Name: "insert", VK: 0x2D, Scan: 0x52},
		{Name: "delete", VK: 0x2E, Scan: 0x53},
		{Name: "home", VK: 0x24, Scan: 0x47},
		{Name: "end", VK: 0x23, Scan: 0x4F},
		{Name: "pageup", VK: 0x21, Scan: 0x49},
		{Name: "pagedown", VK: 0x22, Scan: 0x51},
		{Name: "left", VK: 0x25, Scan: 0x4B},
		{Name: "up", VK: 0x26, Scan: 0x48},
		{Name: "right", VK: 0x27, Scan: 0x4D},
		{Name: "down", VK: 0x28, Scan: 0x50},
	} {
		k.Extended = true
		k.class = classNav
		add(k)
	}
	numScans := [10]uint16{0x52, 0x4F, 0x50, 0x51, 0x4B, 0x4C, 0x4D, 0x47, 0x48, 0x49}
	for i, sc := range numScans {
		add(Key{Name: fmt.Sprintf("numpad%d", i), VK: uint16(0x60 + i), Scan: sc, class: classNumpad})
	}
	for _, k := range []Key{
		{Name: "numpaddecimal", VK: 0x6E, Scan: 0x53},
		{Name: "numpadplus", VK: 0x6B, Scan: 0x4E},
		{Name: "numpadminus", VK: 0x6D, Scan: 0x4A},
		{Name: "numpadmultiply", VK: 0x6A, Scan: 0x37},
		{Name: "numpaddivide", VK: 0x6F, Scan: 0x35, Extended: true},
		{Name: "numpadenter", VK: 0x0D, Scan: 0x1C, Extended: true},
	} {
		k.class = classNumpad
		add(k)
	}
	return t
}

// LookupKey returns the key for a (case-insensitive) name or alias.
func LookupKey(name string) (Key, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := keyAliases[n]; ok {
		n = a
	}
	k, ok := keyTable[n]
	return k, ok
}

// IsModifierVK reports whether vk is a modifier key (either side).
func IsModifierVK(vk uint16) bool {
	switch vk {
	case 0x10, 0x11, 0x12, 0x5B, 0x5C, 0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5:
		return true
	}
	return false
}

// matchesKey compares the key part only, ignoring modifiers and direction.
func (k Key) matchesKey(e KeyEvent) bool {
	switch k.class {
	case classNumpad:
		return e.Scan == k.Scan && e.Extended == k.Extended
	case classNav:
		return e.VK == k.VK && e.Extended
	case classEnter:
		return e.VK == k.VK && !e.Extended
	default:
		return e.VK == k.VK
	}
}
