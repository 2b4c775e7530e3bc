//go:build windows

package view

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procFindWindowExW  = user32.NewProc("FindWindowExW")
	procGetWindowLongW = user32.NewProc("GetWindowLongW")
	procSetWindowLongW = user32.NewProc("SetWindowLongW")
)

const (
	wsExToolWindow = 0x00000080
	wsExNoActivate = 0x08000000
)

var gwlExStyle = -20

// preventActivation sets WS_EX_NOACTIVATE on this process's top-level window
// titled title, so clicks on it leave the game in the foreground. It reports
// false while the window does not exist yet.
func preventActivation(title string) bool {
	name, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return true
	}
	self := uint32(os.Getpid())
	var hwnd uintptr
	for {
		hwnd, _, _ = procFindWindowExW.Call(0, hwnd, 0, uintptr(unsafe.Pointer(name)))
		if hwnd == 0 {
			return false
		}
		var pid uint32
		if _, err := windows.GetWindowThreadProcessId(windows.HWND(hwnd), &pid); err == nil && pid == self {
			break
		}
	}
	style, _, _ := procGetWindowLongW.Call(hwnd, uintptr(gwlExStyle))
	style |= wsExNoActivate | wsExToolWindow
	procSetWindowLongW.Call(hwnd, uintptr(gwlExStyle), style)
	return true
}
