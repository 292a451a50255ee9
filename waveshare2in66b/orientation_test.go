// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in66b

import (
	"flag"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var orientations = []Orientation{Landscape, Portrait, LandscapeFlipped, PortraitFlipped}

func TestTransform(t *testing.T) {
	for _, tc := range []struct {
		o    Orientation
		in   image.Point
		want image.Point
	}{
		{o: Portrait, in: image.Pt(2, 20), want: image.Pt(2, 20)},
		{o: Landscape, in: image.Pt(2, 20), want: image.Pt(20, 293)},
		{o: Landscape, in: image.Pt(0, 0), want: image.Pt(0, 295)},
		{o: Landscape, in: image.Pt(295, 151), want: image.Pt(151, 0)},
		{o: LandscapeFlipped, in: image.Pt(2, 20), want: image.Pt(131, 2)},
		{o: LandscapeFlipped, in: image.Pt(0, 0), want: image.Pt(151, 0)},
		{o: PortraitFlipped, in: image.Pt(2, 20), want: image.Pt(149, 275)},
		{o: PortraitFlipped, in: image.Pt(0, 0), want: image.Pt(151, 295)},
	} {
		t.Run(tc.o.String(), func(t *testing.T) {
			if got := tc.o.Transform(tc.in); got != tc.want {
				t.Errorf("Transform(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestTransformBijection(t *testing.T) {
	phys := image.Rect(0, 0, Width, Height)
	for _, o := range orientations {
		t.Run(o.String(), func(t *testing.T) {
			seen := make([]bool, Width*Height)
			for y := 0; y < o.Height(); y++ {
				for x := 0; x < o.Width(); x++ {
					p := o.Transform(image.Pt(x, y))
					if !p.In(phys) {
						t.Fatalf("Transform(%d, %d) = %v, outside %v", x, y, p, phys)
					}
					i := p.Y*Width + p.X
					if seen[i] {
						t.Fatalf("Transform(%d, %d) = %v, already hit", x, y, p)
					}
					seen[i] = true
				}
			}
		})
	}
}

func TestLandscapeInverse(t *testing.T) {
	// Flipping one landscape mapping over the other lands on the point
	// rotated by half a turn.
	for _, p := range []image.Point{{0, 0}, {2, 20}, {295, 151}, {100, 7}} {
		a := Landscape.Transform(p)
		b := LandscapeFlipped.Transform(p)
		if want := image.Pt(Width-1-a.X, Height-1-a.Y); b != want {
			t.Errorf("LandscapeFlipped.Transform(%v) = %v, want %v", p, b, want)
		}
	}
}

func TestOrientationSize(t *testing.T) {
	for _, tc := range []struct {
		o    Orientation
		want image.Rectangle
	}{
		{Landscape, image.Rect(0, 0, 296, 152)},
		{LandscapeFlipped, image.Rect(0, 0, 296, 152)},
		{Portrait, image.Rect(0, 0, 152, 296)},
		{PortraitFlipped, image.Rect(0, 0, 152, 296)},
	} {
		if diff := cmp.Diff(tc.o.Bounds(), tc.want); diff != "" {
			t.Errorf("%s.Bounds() difference (-got +want):\n%s", tc.o, diff)
		}
	}
}

func TestOrientationSet(t *testing.T) {
	for _, o := range orientations {
		var got Orientation
		if err := got.Set(o.String()); err != nil {
			t.Errorf("Set(%q) failed: %v", o, err)
		}
		if got != o {
			t.Errorf("Set(%q) = %v", o, got)
		}
	}

	var o Orientation
	if err := o.UnmarshalText([]byte("sideways")); err == nil {
		t.Error("UnmarshalText(sideways) succeeded")
	}
	if got := Orientation(9).String(); got != "Orientation(9)" {
		t.Errorf("String() = %q", got)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o = Landscape
	fs.Var(&o, "orientation", "")
	if err := fs.Parse([]string{"-orientation", "portrait-flipped"}); err != nil {
		t.Fatal(err)
	}
	if o != PortraitFlipped {
		t.Errorf("flag value = %v, want %v", o, PortraitFlipped)
	}
}
