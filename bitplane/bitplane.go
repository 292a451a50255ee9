// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bitplane implements a packed one bit per pixel raster as used by
// e-paper controller RAM.
//
// Pixels are stored row-major, eight horizontal pixels per byte, most
// significant bit first. This is the layout SSD16xx-family controllers expect
// when the data entry mode increments X before Y.
package bitplane

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Plane is a packed 1 bit per pixel buffer of a fixed size.
//
// A set bit reads as image1bit.On.
type Plane struct {
	w, h   int
	stride int
	pix    []byte
}

// New returns a Plane of w×h pixels with every bit cleared.
func New(w, h int) *Plane {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	stride := (w + 7) / 8
	return &Plane{
		w:      w,
		h:      h,
		stride: stride,
		pix:    make([]byte, stride*h),
	}
}

// Width returns the width in pixels.
func (p *Plane) Width() int {
	return p.w
}

// Height returns the height in pixels.
func (p *Plane) Height() int {
	return p.h
}

// Stride returns the number of bytes per row.
func (p *Plane) Stride() int {
	return p.stride
}

// Bytes returns the underlying buffer. It is not copied.
func (p *Plane) Bytes() []byte {
	return p.pix
}

// Len returns the buffer size in bytes.
func (p *Plane) Len() int {
	return len(p.pix)
}

func (p *Plane) String() string {
	return fmt.Sprintf("bitplane.Plane{%d×%d}", p.w, p.h)
}

// offset returns the byte index and bit mask for (x, y). ok is false when the
// point is outside the plane.
func (p *Plane) offset(x, y int) (i int, mask byte, ok bool) {
	if x < 0 || y < 0 || x >= p.w || y >= p.h {
		return 0, 0, false
	}
	return y*p.stride + x/8, 0x80 >> uint(x%8), true
}

// SetPixel sets the bit at (x, y). Points outside the plane are ignored.
func (p *Plane) SetPixel(x, y int) {
	if i, mask, ok := p.offset(x, y); ok {
		p.pix[i] |= mask
	}
}

// ClearPixel clears the bit at (x, y). Points outside the plane are ignored.
func (p *Plane) ClearPixel(x, y int) {
	if i, mask, ok := p.offset(x, y); ok {
		p.pix[i] &^= mask
	}
}

// SetBit sets or clears the bit at (x, y).
func (p *Plane) SetBit(x, y int, on bool) {
	if on {
		p.SetPixel(x, y)
	} else {
		p.ClearPixel(x, y)
	}
}

// BitAt reports whether the bit at (x, y) is set. It returns false outside the
// plane.
func (p *Plane) BitAt(x, y int) bool {
	i, mask, ok := p.offset(x, y)
	return ok && p.pix[i]&mask != 0
}

// Fill overwrites every byte of the buffer with v.
func (p *Plane) Fill(v byte) {
	for i := range p.pix {
		p.pix[i] = v
	}
}

// SetByte overwrites byte i of the buffer. Out of range indices are ignored.
func (p *Plane) SetByte(i int, v byte) {
	if i >= 0 && i < len(p.pix) {
		p.pix[i] = v
	}
}

// CopyFrom copies the contents of src. Both planes must have the same size.
func (p *Plane) CopyFrom(src *Plane) error {
	if src.w != p.w || src.h != p.h {
		return fmt.Errorf("bitplane: size mismatch %d×%d vs %d×%d", src.w, src.h, p.w, p.h)
	}
	copy(p.pix, src.pix)
	return nil
}

// Count returns the number of set bits inside the plane.
func (p *Plane) Count() int {
	n := 0
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			if p.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}

// ColorModel implements image.Image.
func (p *Plane) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements image.Image.
func (p *Plane) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.w, p.h)
}

// At implements image.Image.
func (p *Plane) At(x, y int) color.Color {
	return image1bit.Bit(p.BitAt(x, y))
}

// Set implements draw.Image.
func (p *Plane) Set(x, y int, c color.Color) {
	p.SetBit(x, y, bool(image1bit.BitModel.Convert(c).(image1bit.Bit)))
}

var _ draw.Image = &Plane{}
