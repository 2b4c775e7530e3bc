package action

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrClipboardBusy reports that the clipboard could not be opened within the retry budget.
	ErrClipboardBusy = errors.New("action: clipboard busy")
	// ErrUnsupported is returned by platforms without an input backend.
	ErrUnsupported = errors.New("action: not supported on this platform")
)

// Virtual-key codes used by the injector.
const (
	VKReturn  uint16 = 0x0D
	VKShift   uint16 = 0x10
	VKControl uint16 = 0x11
	VKMenu    uint16 = 0x12
	VKRight   uint16 = 0x27
	VKA       uint16 = 0x41
	VKC       uint16 = 0x43
	VKV       uint16 = 0x56
)

// Clipboard provides text clipboard access.
type Clipboard interface {
	Get() (string, error)
	Set(text string) error
}

// Keyboard synthesizes key presses and manages the input language.
type Keyboard interface {
	Tap(vk uint16) error
	Chord(modifier, vk uint16) error
	Layout() (uint16, error)
	SwitchLayout(id uint16) error
}

// Pointer reads and moves the mouse pointer.
type Pointer interface {
	Position() (image.Point, error)
	MoveTo(p image.Point) error
	Click(p image.Point) error
}

// CursorState describes the system cursor.
type CursorState struct {
	Visible bool
	ShapeID int
	Pos     image.Point
}

// Options tune the platform backends.
type Options struct {
	KeyDelay       time.Duration
	ClipboardTries int
	ClipboardPause time.Duration
}

// DefaultOptions mirrors the injector config defaults.
func DefaultOptions() Options {
	return Options{KeyDelay: 10 * time.Millisecond, ClipboardTries: 10, ClipboardPause: 10 * time.Millisecond}
}

// ParseLayout parses a keyboard layout id such as "00000409" and returns its language id.
func ParseLayout(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("action: layout %q: %w", s, err)
	}
	return uint16(v & 0xFFFF), nil
}

// Standard cursor ids recognised by ReadCursor.
var standardCursors = []int{
	32512, // arrow
	32513, // ibeam
	32514, // wait
	32515, // cross
	32516, // uparrow
	32642, // sizenwse
	32643, // sizenesw
	32644, // sizewe
	32645, // sizens
	32646, // sizeall
	32648, // no
	32649, // hand
	32650, // appstarting
	32651, // help
}
