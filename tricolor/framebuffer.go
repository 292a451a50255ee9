// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tricolor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/GermanBionicSystems/epaper/bitplane"
)

// Backdrop values of the two planes: every pixel white, no chromatic ink.
const (
	BackdropBW        byte = 0xFF
	BackdropChromatic byte = 0x00
)

// Framebuffer holds the two planes of a three color panel in physical
// coordinates.
type Framebuffer struct {
	BW        *bitplane.Plane
	Chromatic *bitplane.Plane
}

// NewFramebuffer returns a w×h framebuffer reset to the backdrop.
func NewFramebuffer(w, h int) *Framebuffer {
	f := &Framebuffer{
		BW:        bitplane.New(w, h),
		Chromatic: bitplane.New(w, h),
	}
	f.Clear()
	return f
}

// Clear resets both planes to the backdrop.
func (f *Framebuffer) Clear() {
	f.BW.Fill(BackdropBW)
	f.Chromatic.Fill(BackdropChromatic)
}

// Fill paints every pixel with c.
func (f *Framebuffer) Fill(c Color) {
	bw, chromatic := c.Bits()
	f.BW.Fill(fillByte(bw))
	f.Chromatic.Fill(fillByte(chromatic))
}

func fillByte(on bool) byte {
	if on {
		return 0xFF
	}
	return 0x00
}

// SetColor updates both planes at (x, y). Points outside are ignored.
func (f *Framebuffer) SetColor(x, y int, c Color) {
	bw, chromatic := c.Bits()
	f.BW.SetBit(x, y, bw)
	f.Chromatic.SetBit(x, y, chromatic)
}

// ColorAt returns the color stored at (x, y).
func (f *Framebuffer) ColorAt(x, y int) Color {
	return FromBits(f.BW.BitAt(x, y), f.Chromatic.BitAt(x, y))
}

func (f *Framebuffer) String() string {
	return fmt.Sprintf("tricolor.Framebuffer{%d×%d}", f.BW.Width(), f.BW.Height())
}

// ColorModel implements image.Image.
func (f *Framebuffer) ColorModel() color.Model {
	return Model
}

// Bounds implements image.Image.
func (f *Framebuffer) Bounds() image.Rectangle {
	return f.BW.Bounds()
}

// At implements image.Image.
func (f *Framebuffer) At(x, y int) color.Color {
	return f.ColorAt(x, y)
}

// Set implements draw.Image.
func (f *Framebuffer) Set(x, y int, c color.Color) {
	f.SetColor(x, y, Convert(c))
}

var _ draw.Image = &Framebuffer{}
