//go:build !windows

package action

import "image"

type keyboard struct{}
type pointer struct{}
type clipboard struct{}

// NewKeyboard returns a keyboard that reports ErrUnsupported.
func NewKeyboard(Options) Keyboard { return keyboard{} }

// NewPointer returns a pointer that reports ErrUnsupported.
func NewPointer() Pointer { return pointer{} }

// NewClipboard returns a clipboard that reports ErrUnsupported.
func NewClipboard(Options) Clipboard { return clipboard{} }

func (keyboard) Tap(uint16) error           { return ErrUnsupported }
func (keyboard) Chord(uint16, uint16) error { return ErrUnsupported }
func (keyboard) Layout() (uint16, error)    { return 0, ErrUnsupported }
func (keyboard) SwitchLayout(uint16) error  { return ErrUnsupported }

func (pointer) Position() (image.Point, error) { return image.Point{}, ErrUnsupported }
func (pointer) MoveTo(image.Point) error       { return ErrUnsupported }
func (pointer) Click(image.Point) error        { return ErrUnsupported }

func (clipboard) Get() (string, error) { return "", ErrUnsupported }
func (clipboard) Set(string) error     { return ErrUnsupported }

// ReadCursor is not available on this platform.
func ReadCursor() (CursorState, error) { return CursorState{}, ErrUnsupported }

// ForegroundWindow is not available on this platform.
func ForegroundWindow() (uint32, string, error) { return 0, "", ErrUnsupported }
