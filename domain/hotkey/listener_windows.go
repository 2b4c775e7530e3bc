//go:build windows

package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetCurrentThreadId  = kernel32.NewProc("GetCurrentThreadId")
)

const (
	whKeyboardLL  = 13
	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	llkhfExtended = 0x01
)

type kbdllhookstruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// Listen installs a low-level keyboard hook and feeds every event to d until
// ctx is cancelled. It returns once the hook is installed.
func Listen(ctx context.Context, d *Dispatcher, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	tidCh := make(chan uintptr, 1)
	go runHook(d, logger, errCh, tidCh)
	if err := <-errCh; err != nil {
		return err
	}
	tid := <-tidCh
	go func() {
		<-ctx.Done()
		procPostThreadMessageW.Call(tid, wmQuit, 0, 0)
	}()
	return nil
}

func runHook(d *Dispatcher, logger *slog.Logger, errCh chan<- error, tidCh chan<- uintptr) {
	// The hook fires on the thread that installed it, which must pump messages.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var hook uintptr
	proc := func(nCode int32, wParam, lParam uintptr) uintptr {
		if nCode >= 0 {
			kb := (*kbdllhookstruct)(unsafe.Pointer(lParam))
			d.Handle(KeyEvent{
				VK:       uint16(kb.vkCode),
				Scan:     uint16(kb.scanCode),
				Extended: kb.flags&llkhfExtended != 0,
				Down:     wParam == wmKeyDown || wParam == wmSysKeyDown,
				Mods:     heldModifiers(),
			})
		}
		r, _, _ := procCallNextHookEx.Call(hook, uintptr(nCode), wParam, lParam)
		return r
	}
	h, _, err := procSetWindowsHookExW.Call(whKeyboardLL, windows.NewCallback(proc), 0, 0)
	if h == 0 {
		errCh <- fmt.Errorf("%w: SetWindowsHookExW: %v", ErrListenerUnavailable, err)
		return
	}
	hook = h
	tid, _, _ := procGetCurrentThreadId.Call()
	errCh <- nil
	tidCh <- tid
	if logger != nil {
		logger.Info("keyboard hook installed")
	}

	var m msg
	for {
		r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(r) <= 0 {
			break
		}
	}
	procUnhookWindowsHookEx.Call(hook)
	if logger != nil {
		logger.Info("keyboard hook removed")
	}
}

func heldModifiers() Modifiers {
	var m Modifiers
	if keyDown(0x11) {
		m |= ModCtrl
	}
	if keyDown(0x12) {
		m |= ModAlt
	}
	if keyDown(0x10) {
		m |= ModShift
	}
	if keyDown(0x5B) || keyDown(0x5C) {
		m |= ModWin
	}
	return m
}

func keyDown(vk uintptr) bool {
	r, _, _ := procGetAsyncKeyState.Call(vk)
	return r&0x8000 != 0
}
