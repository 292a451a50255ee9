// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package preview serves what an e-paper panel shows over HTTP.
//
// A plain GET returns a single image of the last frame. With "?stream=1" the
// response is an endless "multipart/x-mixed-replace" stream (MJPEG style)
// carrying a new image every time a frame is drawn. PNG is the default
// format; "?format=jpeg" selects JPEG.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"net/http"
	"sync"

	"periph.io/x/conn/v3/display"

	"github.com/GermanBionicSystems/epaper/tricolor"
)

// Opts for preview displays.
type Opts struct {
	// Width and Height of the frame.
	Width, Height int
	// Format is used when the request does not name one.
	Format Format
}

// Display is a display.Drawer keeping the last frame for HTTP clients.
type Display struct {
	format Format

	mu      sync.Mutex
	frame   *image.Paletted
	frames  int
	clients map[*client]struct{}
	cache   map[Format][]byte
}

// New returns a white preview display.
func New(opts *Opts) *Display {
	return &Display{
		format:  opts.Format,
		frame:   image.NewPaletted(image.Rect(0, 0, opts.Width, opts.Height), tricolor.Palette),
		clients: map[*client]struct{}{},
		cache:   map[Format][]byte{},
	}
}

func (d *Display) String() string {
	return fmt.Sprintf("Preview{%d×%d}", d.frame.Rect.Dx(), d.frame.Rect.Dy())
}

// Halt implements conn.Resource. It ends every running stream.
func (d *Display) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for c := range d.clients {
		select {
		case c.done <- struct{}{}:
		default:
		}
	}
	return nil
}

// ColorModel implements display.Drawer.
func (d *Display) ColorModel() color.Model {
	return tricolor.Model
}

// Bounds implements display.Drawer.
func (d *Display) Bounds() image.Rectangle {
	return d.frame.Rect
}

// Draw implements display.Drawer. Colors are mapped to the three panel
// colors and every streaming client receives the new frame. Pixels outside
// src are left untouched.
func (d *Display) Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := dstRect.Intersect(d.frame.Rect)
	sb := src.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sp := image.Pt(x-dstRect.Min.X+srcPts.X, y-dstRect.Min.Y+srcPts.Y)
			if !sp.In(sb) {
				continue
			}
			d.frame.SetColorIndex(x, y, uint8(tricolor.Convert(src.At(sp.X, sp.Y))))
		}
	}
	d.frames++
	clear(d.cache)
	for c := range d.clients {
		select {
		case c.refresh <- struct{}{}:
		default:
		}
	}
	return nil
}

// Frames returns the number of Draw calls.
func (d *Display) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// encoded returns the frame in format f, encoding it at most once per frame.
func (d *Display) encoded(f Format) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.cache[f]; ok {
		return b, nil
	}
	b, err := f.encode(d.frame)
	if err != nil {
		return nil, err
	}
	d.cache[f] = b
	return b, nil
}

var _ display.Drawer = (*Display)(nil)
var _ http.Handler = (*Display)(nil)
