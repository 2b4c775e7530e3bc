package assets

import (
	"bytes"
	_ "embed"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
)

// TrayPNG contains the raw PNG bytes of the 32x32 application icon.
//
//go:embed tray.png
var TrayPNG []byte

// TrayImage decodes the embedded PNG into an image.Image.
func TrayImage() (image.Image, error) {
	if len(TrayPNG) == 0 {
		return nil, fmt.Errorf("embedded tray.png is empty")
	}
	img, err := png.Decode(bytes.NewReader(TrayPNG))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// TrayICO wraps the embedded PNG in a single-entry ICO container, the format
// the Windows notification area expects.
func TrayICO() []byte {
	img, err := TrayImage()
	if err != nil {
		return nil
	}
	b := img.Bounds()
	var buf bytes.Buffer
	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY; 0 means 256 for width and height.
	buf.WriteByte(byte(b.Dx() & 0xff))
	buf.WriteByte(byte(b.Dy() & 0xff))
	// palette, reserved, planes, bits per pixel, data size, data offset
	buf.Write([]byte{0, 0})
	_ = binary.Write(&buf, binary.LittleEndian, [2]uint16{1, 32})
	_ = binary.Write(&buf, binary.LittleEndian, [2]uint32{uint32(len(TrayPNG)), 6 + 16})
	buf.Write(TrayPNG)
	return buf.Bytes()
}
