// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package textpanel lays out a title and a few colored lines of text on any
// tinygo display.
package textpanel

import (
	"errors"
	"unicode/utf8"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"

	"github.com/GermanBionicSystems/epaper/tricolor"
)

const (
	// MaxTextLen is the maximum length of a line, in bytes.
	MaxTextLen = 80
	// MaxBodyLines is the maximum number of lines below the title.
	MaxBodyLines = 10
)

// ErrTooManyLines is returned when a panel already holds MaxBodyLines.
var ErrTooManyLines = errors.New("textpanel: too many lines")

// Line is one line of text.
type Line struct {
	Text  string
	Color tricolor.Color
}

// NewLine returns a Line holding at most MaxTextLen bytes of text, cut on a
// rune boundary.
func NewLine(text string, c tricolor.Color) Line {
	return Line{Text: truncate(text, MaxTextLen), Color: c}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Panel is a title followed by body lines.
type Panel struct {
	Title Line
	Body  []Line
}

// New returns an empty panel with the given title.
func New(title Line) *Panel {
	return &Panel{Title: title}
}

// AddLine appends l to the body.
func (p *Panel) AddLine(l Line) error {
	if len(p.Body) >= MaxBodyLines {
		return ErrTooManyLines
	}
	p.Body = append(p.Body, NewLine(l.Text, l.Color))
	return nil
}

// Fonts used by Render.
var (
	TitleFont tinyfont.Fonter = &freemono.Bold12pt7b
	BodyFont  tinyfont.Fonter = &freemono.Regular9pt7b
)

const margin = 2

// Render draws the title, a rule under it and as many body lines as fit in
// the height of d. It returns the number of body lines drawn. d is not
// cleared first nor refreshed.
func Render(d drivers.Displayer, p *Panel) int {
	w, h := d.Size()

	y := margin + int16(TitleFont.GetYAdvance())
	tinyfont.WriteLine(d, TitleFont, margin, y, p.Title.Text, p.Title.Color.RGBA8())
	y += 4
	for x := int16(0); x < w; x++ {
		d.SetPixel(x, y, p.Title.Color.RGBA8())
	}

	n := 0
	for _, l := range p.Body {
		next := y + int16(BodyFont.GetYAdvance())
		if next > h {
			break
		}
		y = next
		tinyfont.WriteLine(d, BodyFont, margin, y, l.Text, l.Color.RGBA8())
		n++
	}
	return n
}
