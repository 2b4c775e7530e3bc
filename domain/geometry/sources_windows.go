//go:build windows

package geometry

import (
	"errors"
	"fmt"
	"image"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	procGetWindowRect   = user32.NewProc("GetWindowRect")
	procIsIconic        = user32.NewProc("IsIconic")
	procMonitorFromPt   = user32.NewProc("MonitorFromPoint")
	procGetMonitorInfoW = user32.NewProc("GetMonitorInfoW")
)

const monitorDefaultToPrimary = 1

type rect32 struct {
	Left, Top, Right, Bottom int32
}

func (r rect32) image() image.Rectangle {
	return image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom))
}

type monitorInfo struct {
	Size    uint32
	Monitor rect32
	Work    rect32
	Flags   uint32
}

// DefaultSources returns foreground window, primary work area and screen sources.
// Windows of this process (overlays, control window) never become the geometry.
func DefaultSources() []Source {
	return []Source{
		NewForeignWindowSource("foreground_window", uint32(os.Getpid()), foregroundWindowRect),
		SourceFunc{Label: "work_area", Fn: primaryWorkArea},
		screenSource(),
	}
}

func foregroundWindowRect() (image.Rectangle, uint32, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return image.Rectangle{}, 0, errors.New("geometry: no foreground window")
	}
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return image.Rectangle{}, 0, fmt.Errorf("geometry: GetWindowThreadProcessId: %w", err)
	}
	if iconic, _, _ := procIsIconic.Call(uintptr(hwnd)); iconic != 0 {
		return image.Rectangle{}, pid, errors.New("geometry: foreground window minimized")
	}
	var r rect32
	ok, _, err := procGetWindowRect.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return image.Rectangle{}, pid, fmt.Errorf("geometry: GetWindowRect: %w", err)
	}
	return r.image(), pid, nil
}

func primaryWorkArea() (image.Rectangle, error) {
	// POINT{0,0} packed into one uintptr on amd64
	hmon, _, _ := procMonitorFromPt.Call(0, monitorDefaultToPrimary)
	if hmon == 0 {
		return image.Rectangle{}, errors.New("geometry: MonitorFromPoint failed")
	}
	var mi monitorInfo
	mi.Size = uint32(unsafe.Sizeof(mi))
	ok, _, err := procGetMonitorInfoW.Call(hmon, uintptr(unsafe.Pointer(&mi)))
	if ok == 0 {
		return image.Rectangle{}, fmt.Errorf("geometry: GetMonitorInfoW: %w", err)
	}
	return mi.Work.image(), nil
}
