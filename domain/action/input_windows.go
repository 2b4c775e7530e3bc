//go:build windows

package action

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	kernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procSendInput     = user32.NewProc("SendInput")
	procMapVirtualKey = user32.NewProc("MapVirtualKeyW")
	procSetCursorPos  = user32.NewProc("SetCursorPos")
	procGetCursorPos  = user32.NewProc("GetCursorPos")
	procMouseEvent    = user32.NewProc("mouse_event")
	procGetCursorInfo = user32.NewProc("GetCursorInfo")
	procLoadCursorW   = user32.NewProc("LoadCursorW")
)

const (
	inputKeyboard       = 1
	keyeventfExtended   = 0x0001
	keyeventfKeyup      = 0x0002
	mapvkVkToVsc        = 0
	mouseeventfLeftDown = 0x0002
	mouseeventfLeftUp   = 0x0004
	cursorShowing       = 0x00000001
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // union size of MOUSEINPUT
}

type point struct{ X, Y int32 }

type cursorInfo struct {
	cbSize      uint32
	flags       uint32
	hCursor     uintptr
	ptScreenPos point
}

type keyboard struct{ delay time.Duration }

type pointer struct{}

// NewKeyboard returns the SendInput keyboard backend.
func NewKeyboard(o Options) Keyboard { return &keyboard{delay: o.KeyDelay} }

// NewPointer returns the Win32 pointer backend.
func NewPointer() Pointer { return pointer{} }

func keyEvent(vk uint16, up bool) input {
	scan, _, _ := procMapVirtualKey.Call(uintptr(vk), mapvkVkToVsc)
	var flags uint32
	if up {
		flags |= keyeventfKeyup
	}
	if vk == VKRight {
		flags |= keyeventfExtended
	}
	return input{inputType: inputKeyboard, ki: keyboardInput{wVk: vk, wScan: uint16(scan), dwFlags: flags}}
}

func (k *keyboard) send(events ...input) error {
	for i := range events {
		ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&events[i])), unsafe.Sizeof(events[i]))
		if ret == 0 {
			return fmt.Errorf("action: SendInput: %w", err)
		}
		if k.delay > 0 {
			time.Sleep(k.delay)
		}
	}
	return nil
}

func (k *keyboard) Tap(vk uint16) error {
	return k.send(keyEvent(vk, false), keyEvent(vk, true))
}

func (k *keyboard) Chord(modifier, vk uint16) error {
	return k.send(keyEvent(modifier, false), keyEvent(vk, false), keyEvent(vk, true), keyEvent(modifier, true))
}

func (pointer) Position() (image.Point, error) {
	var p point
	if ok, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p))); ok == 0 {
		return image.Point{}, fmt.Errorf("action: GetCursorPos: %w", err)
	}
	return image.Pt(int(p.X), int(p.Y)), nil
}

func (pointer) MoveTo(p image.Point) error {
	if ok, _, err := procSetCursorPos.Call(uintptr(int32(p.X)), uintptr(int32(p.Y))); ok == 0 {
		return fmt.Errorf("action: SetCursorPos: %w", err)
	}
	return nil
}

func (pt pointer) Click(p image.Point) error {
	if err := pt.MoveTo(p); err != nil {
		return err
	}
	_, _, _ = procMouseEvent.Call(mouseeventfLeftDown, 0, 0, 0, 0)
	time.Sleep(15 * time.Millisecond)
	_, _, _ = procMouseEvent.Call(mouseeventfLeftUp, 0, 0, 0, 0)
	return nil
}

var (
	cursorOnce    sync.Once
	cursorHandles map[uintptr]int
)

// shared system cursors keep their handles for the session
func loadCursorHandles() map[uintptr]int {
	cursorOnce.Do(func() {
		cursorHandles = make(map[uintptr]int, len(standardCursors))
		for _, id := range standardCursors {
			if h, _, _ := procLoadCursorW.Call(0, uintptr(id)); h != 0 {
				cursorHandles[h] = id
			}
		}
	})
	return cursorHandles
}

// ReadCursor reports the cursor visibility, standard shape id and position.
func ReadCursor() (CursorState, error) {
	var ci cursorInfo
	ci.cbSize = uint32(unsafe.Sizeof(ci))
	if ok, _, err := procGetCursorInfo.Call(uintptr(unsafe.Pointer(&ci))); ok == 0 {
		return CursorState{}, fmt.Errorf("action: GetCursorInfo: %w", err)
	}
	if ci.flags&cursorShowing == 0 {
		return CursorState{}, errors.New("action: cursor hidden")
	}
	return CursorState{
		Visible: true,
		ShapeID: loadCursorHandles()[ci.hCursor],
		Pos:     image.Pt(int(ci.ptScreenPos.X), int(ci.ptScreenPos.Y)),
	}, nil
}
