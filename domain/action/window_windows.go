//go:build windows

package action

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procGetKeyboardLayout   = user32.NewProc("GetKeyboardLayout")
	procLoadKeyboardLayoutW = user32.NewProc("LoadKeyboardLayoutW")
	procPostMessageW        = user32.NewProc("PostMessageW")
)

const (
	klfActivate              = 0x00000001
	wmInputLangChangeRequest = 0x0050
)

// ForegroundWindow returns the owning process id and title of the foreground window.
func ForegroundWindow() (uint32, string, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return 0, "", errors.New("action: no foreground window")
	}
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return 0, "", fmt.Errorf("action: GetWindowThreadProcessId: %w", err)
	}
	const maxChars = 256
	buf := make([]uint16, maxChars)
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	title := ""
	if n > 0 {
		title = strings.TrimSpace(string(utf16.Decode(buf[:n])))
	}
	return pid, title, nil
}

// Layout returns the language id of the foreground thread's keyboard layout.
func (k *keyboard) Layout() (uint16, error) {
	hwnd := windows.GetForegroundWindow()
	var tid uint32
	if hwnd != 0 {
		tid, _ = windows.GetWindowThreadProcessId(hwnd, nil)
	}
	hkl, _, _ := procGetKeyboardLayout.Call(uintptr(tid))
	if hkl == 0 {
		return 0, errors.New("action: GetKeyboardLayout failed")
	}
	return uint16(hkl & 0xFFFF), nil
}

// SwitchLayout loads the layout for id and asks the foreground window to use it.
func (k *keyboard) SwitchLayout(id uint16) error {
	klid, err := windows.UTF16PtrFromString(fmt.Sprintf("%08X", uint32(id)))
	if err != nil {
		return err
	}
	hkl, _, callErr := procLoadKeyboardLayoutW.Call(uintptr(unsafe.Pointer(klid)), klfActivate)
	if hkl == 0 {
		return fmt.Errorf("action: LoadKeyboardLayoutW: %w", callErr)
	}
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return nil
	}
	if ok, _, callErr := procPostMessageW.Call(uintptr(hwnd), wmInputLangChangeRequest, 0, hkl); ok == 0 {
		return fmt.Errorf("action: PostMessageW: %w", callErr)
	}
	return nil
}
