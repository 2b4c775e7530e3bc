//go:build windows

package capture

// GDI screen capture. Each capture BitBlt's the requested rectangle into a
// temporary top-down DIB and converts BGRA into a pooled RGBA frame.

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79
	srccopy           = 0x00CC0020
	captureBlt        = 0x40000000
	dibRGBColors      = 0
	biRgb             = 0
	clrInvalid        = 0xFFFFFFFF
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
	procGetPixel           = gdi32.NewProc("GetPixel")
)

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte
}

type gdiBackend struct{}

// NewBackend returns the platform capture backend.
func NewBackend() Backend { return gdiBackend{} }

// Available verifies that the screen DC can be acquired.
func Available() error {
	dc, _, err := procGetDC.Call(0)
	if dc == 0 {
		return fmt.Errorf("%w: GetDC: %v", ErrSamplingUnavailable, err)
	}
	procReleaseDC.Call(0, dc)
	return nil
}

func (gdiBackend) Bounds() (image.Rectangle, error) {
	x := int(int32(systemMetric(smXVirtualScreen)))
	y := int(int32(systemMetric(smYVirtualScreen)))
	w := int(int32(systemMetric(smCxVirtualScreen)))
	h := int(int32(systemMetric(smCyVirtualScreen)))
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("capture: invalid virtual screen %dx%d", w, h)
	}
	return image.Rect(x, y, x+w, y+h), nil
}

func (gdiBackend) Pixel(p image.Point) (ColorRGB, error) {
	dc, _, _ := procGetDC.Call(0)
	if dc == 0 {
		return Unknown, errors.New("capture: GetDC failed")
	}
	defer procReleaseDC.Call(0, dc)
	ref, _, _ := procGetPixel.Call(dc, uintptr(int32(p.X)), uintptr(int32(p.Y)))
	if uint32(ref) == clrInvalid {
		return Unknown, fmt.Errorf("capture: pixel %v off screen", p)
	}
	// COLORREF is 0x00BBGGRR
	return ColorRGB{R: int(ref & 0xFF), G: int(ref >> 8 & 0xFF), B: int(ref >> 16 & 0xFF)}, nil
}

func (b gdiBackend) Capture(r image.Rectangle) (*image.RGBA, error) {
	screen, err := b.Bounds()
	if err != nil {
		return nil, err
	}
	if !r.In(screen) {
		return nil, fmt.Errorf("capture: rect %v outside screen %v", r, screen)
	}
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("capture: invalid rect %v", r)
	}

	screenDC, _, _ := procGetDC.Call(0)
	if screenDC == 0 {
		return nil, errors.New("capture: GetDC failed")
	}
	defer procReleaseDC.Call(0, screenDC)

	memDC, _, _ := procCreateCompatibleDC.Call(screenDC)
	if memDC == 0 {
		return nil, errors.New("capture: CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(memDC)

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h) // top-down
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bits unsafe.Pointer
	bmp, _, _ := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bits)), 0, 0)
	if bmp == 0 {
		return nil, errors.New("capture: CreateDIBSection failed")
	}
	defer procDeleteObject.Call(bmp)

	prev, _, _ := procSelectObject.Call(memDC, bmp)
	if prev == 0 || prev == ^uintptr(0) {
		return nil, errors.New("capture: SelectObject failed")
	}

	ok, _, callErr := procBitBlt.Call(memDC, 0, 0, uintptr(w), uintptr(h), screenDC, uintptr(int32(r.Min.X)), uintptr(int32(r.Min.Y)), srccopy|captureBlt)
	if ok == 0 {
		return nil, fmt.Errorf("capture: BitBlt %v: %v", r, callErr)
	}

	n := w * h * 4
	src := unsafe.Slice((*byte)(bits), n)
	dst := acquireFrame(w, h)
	for i := 0; i < n; i += 4 {
		dst.Pix[i+0] = src[i+2]
		dst.Pix[i+1] = src[i+1]
		dst.Pix[i+2] = src[i+0]
		dst.Pix[i+3] = 0xFF
	}
	return dst, nil
}

func systemMetric(idx int) uintptr {
	v, _, _ := procGetSystemMetrics.Call(uintptr(idx))
	return v
}
