// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in66b

import (
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
	"tinygo.org/x/drivers"

	"github.com/GermanBionicSystems/epaper/tricolor"
)

// Pixel is a single logical point and its color.
type Pixel struct {
	Point image.Point
	Color tricolor.Color
}

// BoundingBox returns the physical pixel grid of the panel.
func (d *Dev) BoundingBox() image.Rectangle {
	return image.Rect(0, 0, Width, Height)
}

// SetPixel colors one logical point. Points outside the panel are ignored.
func (d *Dev) SetPixel(x, y int, c tricolor.Color) {
	p := d.o.Transform(image.Pt(x, y))
	d.fb.SetColor(p.X, p.Y, c)
}

// DrawPixels colors every pixel in order; later pixels win.
func (d *Dev) DrawPixels(pixels []Pixel) {
	for _, px := range pixels {
		d.SetPixel(px.Point.X, px.Point.Y, px.Color)
	}
}

// ColorModel returns the three color model of the panel.
func (d *Dev) ColorModel() color.Model {
	return tricolor.Model
}

// Bounds returns the logical drawing area for the current orientation.
func (d *Dev) Bounds() image.Rectangle {
	return d.o.Bounds()
}

// Draw renders src into the planes and refreshes the panel. Every pixel is
// mapped to the nearest of the three panel colors.
func (d *Dev) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	r := dstRect.Intersect(d.Bounds())
	sb := src.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sp := image.Pt(x-dstRect.Min.X+srcPts.X, y-dstRect.Min.Y+srcPts.Y)
			if !sp.In(sb) {
				continue
			}
			d.SetPixel(x, y, tricolor.Convert(src.At(sp.X, sp.Y)))
		}
	}
	return d.Refresh()
}

// Displayer returns a view of the panel for tinygo drawing libraries such as
// tinyfont. Its size follows the orientation of d.
func (d *Dev) Displayer() drivers.Displayer {
	return &displayer{d: d}
}

type displayer struct {
	d *Dev
}

func (p *displayer) Size() (x, y int16) {
	return int16(p.d.o.Width()), int16(p.d.o.Height())
}

func (p *displayer) SetPixel(x, y int16, c color.RGBA) {
	p.d.SetPixel(int(x), int(y), tricolor.Convert(c))
}

func (p *displayer) Display() error {
	return p.d.Refresh()
}

var _ display.Drawer = &Dev{}
