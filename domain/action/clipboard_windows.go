//go:build windows

package action

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	procOpenClipboard    = user32.NewProc("OpenClipboard")
	procCloseClipboard   = user32.NewProc("CloseClipboard")
	procEmptyClipboard   = user32.NewProc("EmptyClipboard")
	procGetClipboardData = user32.NewProc("GetClipboardData")
	procSetClipboardData = user32.NewProc("SetClipboardData")
	procGlobalAlloc      = kernel32.NewProc("GlobalAlloc")
	procGlobalFree       = kernel32.NewProc("GlobalFree")
	procGlobalLock       = kernel32.NewProc("GlobalLock")
	procGlobalUnlock     = kernel32.NewProc("GlobalUnlock")
)

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002
)

type clipboard struct {
	tries int
	pause time.Duration
}

// NewClipboard returns the CF_UNICODETEXT clipboard backend.
func NewClipboard(o Options) Clipboard {
	if o.ClipboardTries <= 0 {
		o.ClipboardTries = 10
	}
	return &clipboard{tries: o.ClipboardTries, pause: o.ClipboardPause}
}

func (c *clipboard) Get() (string, error) {
	if err := c.open(); err != nil {
		return "", err
	}
	defer procCloseClipboard.Call()

	h, _, err := procGetClipboardData.Call(cfUnicodeText)
	if h == 0 {
		if err != nil && err != syscall.Errno(0) {
			return "", fmt.Errorf("action: GetClipboardData: %w", err)
		}
		return "", nil
	}
	l, _, err := procGlobalLock.Call(h)
	if l == 0 {
		return "", fmt.Errorf("action: GlobalLock: %w", err)
	}
	defer procGlobalUnlock.Call(h)
	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(l))), nil
}

func (c *clipboard) Set(text string) error {
	if err := c.open(); err != nil {
		return err
	}
	defer procCloseClipboard.Call()

	procEmptyClipboard.Call()
	if text == "" {
		return nil
	}
	u, err := windows.UTF16FromString(text)
	if err != nil {
		return fmt.Errorf("action: utf16: %w", err)
	}
	h, _, err := procGlobalAlloc.Call(gmemMoveable, uintptr(len(u)*2))
	if h == 0 {
		return fmt.Errorf("action: GlobalAlloc: %w", err)
	}
	l, _, err := procGlobalLock.Call(h)
	if l == 0 {
		procGlobalFree.Call(h)
		return fmt.Errorf("action: GlobalLock: %w", err)
	}
	copy(unsafe.Slice((*uint16)(unsafe.Pointer(l)), len(u)), u)
	procGlobalUnlock.Call(h)

	if r, _, err := procSetClipboardData.Call(cfUnicodeText, h); r == 0 {
		procGlobalFree.Call(h)
		return fmt.Errorf("action: SetClipboardData: %w", err)
	}
	return nil
}

func (c *clipboard) open() error {
	for i := 0; i < c.tries; i++ {
		if r, _, _ := procOpenClipboard.Call(0); r != 0 {
			return nil
		}
		time.Sleep(c.pause)
	}
	return fmt.Errorf("%w after %d attempts", ErrClipboardBusy, c.tries)
}
