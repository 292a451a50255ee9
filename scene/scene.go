// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package scene renders the demo picture shown by the e-paper tool when no
// text panel is configured.
package scene

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"

	"github.com/GermanBionicSystems/epaper/tricolor"
)

const (
	upperText = "I see a red door and"
	lowerText = "I want it painted black!"
)

// FontSize is the text size in points, at 72 DPI.
const FontSize = 16

func face() (font.Face, error) {
	f, err := truetype.Parse(gomonobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: FontSize}), nil
}

// Demo renders the demo picture at w×h. Every pixel of the result is one of
// the three tricolor colors.
func Demo(w, h int) (image.Image, error) {
	ff, err := face()
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(w, h)
	dc.SetColor(tricolor.White)
	dc.Clear()
	dc.SetFontFace(ff)

	dc.SetColor(tricolor.Chromatic)
	dc.DrawString(upperText, 2, 20)

	dc.SetColor(tricolor.Black)
	dc.DrawRectangle(0, 30, float64(w), 30)
	dc.Fill()

	dc.SetColor(tricolor.White)
	dc.DrawString(lowerText, 2, 50)

	dc.SetColor(tricolor.Chromatic)
	dc.SetLineWidth(3)
	dc.DrawLine(0, 65, float64(w), 65)
	dc.Stroke()

	cy := float64(int(0.75 * float64(h)))
	outer := float64(int(0.20 * float64(h)))
	inner := float64(int(0.15 * float64(h)))
	for i := 0; i < 4; i++ {
		cx := float64(int((float64(i) + 0.5) * 0.25 * float64(w)))
		ring, disc := tricolor.Black, tricolor.Chromatic
		if i%2 == 1 {
			ring, disc = disc, ring
		}

		dc.SetColor(ring)
		dc.SetLineWidth(5)
		dc.DrawCircle(cx, cy, outer)
		dc.Stroke()

		dc.SetColor(disc)
		dc.DrawCircle(cx, cy, inner)
		dc.Fill()
	}

	return quantize(dc.Image()), nil
}

// quantize maps every pixel to the nearest panel color, removing the anti
// aliasing.
func quantize(src image.Image) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(b, tricolor.Palette)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetColorIndex(x, y, uint8(tricolor.Convert(src.At(x, y))))
		}
	}
	return dst
}
