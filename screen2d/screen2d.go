// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen2d implements a 2D display.Drawer that outputs to a terminal
// using ANSI color codes.
//
// Useful to look at a frame while the e-paper panel is still in the mail, or
// to print what a simulated panel shows.
package screen2d

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"os"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/epaper/tricolor"
)

// Mode selects how pixels are printed.
type Mode uint8

const (
	// Auto uses ANSI colors when the output is a terminal, Plain otherwise.
	Auto Mode = iota
	// ANSI prints one colored block per pixel.
	ANSI
	// Plain prints one character per pixel, mapped to the three panel colors:
	// '#' for black, '*' for the chromatic color and a space for white.
	Plain
)

// Opts represents the options available for this display.
type Opts struct {
	X, Y    int
	Palette *ansi256.Palette
	// Output defaults to stdout.
	Output io.Writer
	Mode   Mode

	_ struct{}
}

// Dev is a 2D display emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	ansi    bool
	palette ansi256.Palette

	img *image.NRGBA
	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	ansi := opts.Mode == ANSI
	if f, ok := out.(*os.File); ok {
		if opts.Mode == Auto {
			ansi = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		if ansi {
			out = colorable.NewColorable(f)
		}
	}
	d := &Dev{
		w:       out,
		ansi:    ansi,
		palette: *p,
		img:     image.NewNRGBA(image.Rect(0, 0, opts.X, opts.Y)),
	}
	draw.Draw(d.img, d.img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("Screen2D{%d×%d}", d.img.Rect.Dx(), d.img.Rect.Dy())
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	if !d.ansi {
		return nil
	}
	_, err := d.w.Write([]byte("\033[0m"))
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.img.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.img, r, src, sp, draw.Src)
	return d.refresh()
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	b := d.img.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := d.img.NRGBAAt(x, y)
			if d.ansi {
				_, _ = io.WriteString(&d.buf, d.palette.Block(c))
				continue
			}
			_ = d.buf.WriteByte(glyph(tricolor.Convert(c)))
		}
		if d.ansi {
			_, _ = d.buf.WriteString("\033[0m")
		}
		_ = d.buf.WriteByte('\n')
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

func glyph(c tricolor.Color) byte {
	switch c {
	case tricolor.Black:
		return '#'
	case tricolor.Chromatic:
		return '*'
	}
	return ' '
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
