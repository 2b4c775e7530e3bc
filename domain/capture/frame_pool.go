package capture

import (
	"image"
	"sync"
)

// Reusable frame pool for the per-tick bitmap captures. Backends that can write
// into a caller-provided buffer acquire frames here; BitmapSampler.End hands
// them back. Frames from backends that allocate their own images are accepted
// too, which only grows the pool.

var framePool sync.Pool // stores *image.RGBA

// acquireFrame returns a zero-origin RGBA image of size w x h with Stride w*4.
func acquireFrame(w, h int) *image.RGBA {
	rect := image.Rect(0, 0, w, h)
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := framePool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		return &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	}
	img.Stride = w * 4
	img.Rect = rect
	img.Pix = img.Pix[:needed]
	return img
}

// RecycleFrame returns the frame to the pool. The caller must not touch it afterwards.
func RecycleFrame(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	framePool.Put(img)
}
