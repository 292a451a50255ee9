// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in66b

import (
	"errors"
	"image"
	"image/color"
	"math/bits"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/GermanBionicSystems/epaper/tricolor"
	"github.com/GermanBionicSystems/epaper/waveshare2in66b/epdtest"
)

func newTestDev(t *testing.T, opts *Opts) (*Dev, *epdtest.Panel) {
	t.Helper()
	p := epdtest.New(Width, Height)
	d, err := New(p, p.DC, p.RST, p.Busy, opts)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	d.t.sleep = func(time.Duration) {}
	return d, p
}

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name       string
		opts       *Opts
		wantString string
		wantBounds image.Rectangle
	}{
		{
			name:       "default",
			wantString: "waveshare2in66b.Dev{record, DC(25), Width: 296, Height: 152}",
			wantBounds: image.Rect(0, 0, 296, 152),
		},
		{
			name:       "portrait",
			opts:       &Opts{Orientation: Portrait},
			wantString: "waveshare2in66b.Dev{record, DC(25), Width: 152, Height: 296}",
			wantBounds: image.Rect(0, 0, 152, 296),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev, err := New(&spitest.Record{}, &gpiotest.Pin{N: "DC", Num: 25}, &gpiotest.Pin{}, &gpiotest.Pin{}, tc.opts)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}

			if diff := cmp.Diff(dev.String(), tc.wantString); diff != "" {
				t.Errorf("String() difference (-got +want):\n%s", diff)
			}
			if diff := cmp.Diff(dev.Bounds(), tc.wantBounds); diff != "" {
				t.Errorf("Bounds() difference (-got +want):\n%s", diff)
			}
			if diff := cmp.Diff(dev.BoundingBox(), image.Rect(0, 0, 152, 296)); diff != "" {
				t.Errorf("BoundingBox() difference (-got +want):\n%s", diff)
			}
			if got := dev.State(); got != Uninitialized {
				t.Errorf("State() = %v, want %v", got, Uninitialized)
			}
			if got := dev.Buffer().BW.Count(); got != Width*Height {
				t.Errorf("bw plane has %d bits set, want all %d", got, Width*Height)
			}
			if got := dev.Buffer().Chromatic.Count(); got != 0 {
				t.Errorf("chromatic plane has %d bits set, want 0", got)
			}
			if dev.t.maxTxSize != defaultMaxTxSize {
				t.Errorf("maxTxSize = %d, want %d", dev.t.maxTxSize, defaultMaxTxSize)
			}
		})
	}
}

func TestNewConnectError(t *testing.T) {
	p := &spitest.Record{Initialized: true}
	if _, err := New(p, &gpiotest.Pin{}, &gpiotest.Pin{}, nil, nil); err == nil {
		t.Error("New() succeeded on a port already connected")
	}
}

func TestNotReady(t *testing.T) {
	d, p := newTestDev(t, nil)

	if err := d.Refresh(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Refresh() = %v, want %v", err, ErrNotReady)
	}
	if err := d.Sleep(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Sleep() = %v, want %v", err, ErrNotReady)
	}
	if err := d.Halt(); err != nil {
		t.Errorf("Halt() = %v", err)
	}
	if got := p.Log(); len(got) != 0 {
		t.Errorf("commands sent before Init: %v", got)
	}
}

func TestLifecycle(t *testing.T) {
	d, p := newTestDev(t, nil)

	if err := d.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if got := d.State(); got != Ready {
		t.Errorf("State() = %v, want %v", got, Ready)
	}
	if err := d.Refresh(); err != nil {
		t.Fatalf("Refresh() failed: %v", err)
	}
	if got := d.State(); got != Ready {
		t.Errorf("State() after Refresh = %v, want %v", got, Ready)
	}
	if err := d.Sleep(); err != nil {
		t.Fatalf("Sleep() failed: %v", err)
	}
	if got := d.State(); got != Sleeping {
		t.Errorf("State() after Sleep = %v, want %v", got, Sleeping)
	}
	if !p.Asleep() {
		t.Error("panel is not asleep")
	}
	if err := d.Refresh(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Refresh() while sleeping = %v, want %v", err, ErrNotReady)
	}

	if err := d.Init(); err != nil {
		t.Fatalf("Init() after Sleep failed: %v", err)
	}
	if p.Asleep() {
		t.Error("panel still asleep after Init")
	}
	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() failed: %v", err)
	}
	if got := d.State(); got != Sleeping {
		t.Errorf("State() after Halt = %v, want %v", got, Sleeping)
	}

	want := []byte{
		swReset, dataEntryModeSetting, displayUpdateControl1, setRAMXAddressRange, setRAMYAddressRange,
		setRAMXAddressCounter, setRAMYAddressCounter, writeRAMBW,
		setRAMXAddressCounter, setRAMYAddressCounter, writeRAMRed, masterActivation,
		deepSleepMode,
		swReset, dataEntryModeSetting, displayUpdateControl1, setRAMXAddressRange, setRAMYAddressRange,
		deepSleepMode,
	}
	if diff := cmp.Diff(p.Commands(), want); diff != "" {
		t.Errorf("Commands() difference (-got +want):\n%s", diff)
	}
	if got := p.Resets(); got != 2 {
		t.Errorf("Resets() = %d, want 2", got)
	}
	if got := p.Refreshes(); got != 1 {
		t.Errorf("Refreshes() = %d, want 1", got)
	}
	if err := d.TransportErr(); err != nil {
		t.Errorf("TransportErr() = %v", err)
	}
}

func TestInitSequence(t *testing.T) {
	d, p := newTestDev(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	want := []epdtest.Record{
		{Cmd: swReset},
		{Cmd: dataEntryModeSetting, Data: []byte{0x03}},
		{Cmd: displayUpdateControl1, Data: []byte{0x00, 0x80}},
		{Cmd: setRAMXAddressRange, Data: []byte{0, 18}},
		{Cmd: setRAMYAddressRange, Data: []byte{0, 0, 0x27, 0x01}},
	}
	if diff := cmp.Diff(p.Log(), want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Init() difference (-got +want):\n%s", diff)
	}
}

func TestBusyTimeout(t *testing.T) {
	d, p := newTestDev(t, &Opts{BusyPollLimit: 3})
	p.BusyPolls = 10

	if err := d.Init(); !errors.Is(err, ErrBusyTimeout) {
		t.Fatalf("Init() = %v, want %v", err, ErrBusyTimeout)
	}
	if got := d.State(); got != Uninitialized {
		t.Errorf("State() = %v, want %v", got, Uninitialized)
	}

	p.BusyPolls = 2
	if err := d.Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	p.BusyPolls = 10
	if err := d.Refresh(); !errors.Is(err, ErrBusyTimeout) {
		t.Fatalf("Refresh() = %v, want %v", err, ErrBusyTimeout)
	}
	if got := d.State(); got != Ready {
		t.Errorf("State() = %v, want %v", got, Ready)
	}
}

func TestTransportErrSwallowed(t *testing.T) {
	d, p := newTestDev(t, nil)
	errBus := errors.New("bus error")
	p.Err = errBus

	if err := d.Init(); err != nil {
		t.Fatalf("Init() = %v, want nil", err)
	}
	if got := d.State(); got != Ready {
		t.Errorf("State() = %v, want %v", got, Ready)
	}
	if err := d.TransportErr(); !errors.Is(err, errBus) {
		t.Errorf("TransportErr() = %v, want %v", err, errBus)
	}

	p.Err = nil
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if err := d.TransportErr(); err != nil {
		t.Errorf("TransportErr() after Init = %v", err)
	}
}

func TestSinglePixelEndToEnd(t *testing.T) {
	d, p := newTestDev(t, &Opts{Orientation: Landscape})
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	d.Buffer().BW.Fill(0)
	d.SetPixel(0, 0, tricolor.White)

	if got, want := d.Buffer().ColorAt(0, 295), tricolor.White; got != want {
		t.Errorf("ColorAt(0, 295) = %v, want %v", got, want)
	}
	if err := d.Refresh(); err != nil {
		t.Fatal(err)
	}

	var bw, red []byte
	for _, r := range p.Log() {
		switch r.Cmd {
		case writeRAMBW:
			bw = r.Data
		case writeRAMRed:
			red = r.Data
		}
	}
	if len(bw) != 19*296 {
		t.Fatalf("bw stream has %d bytes, want %d", len(bw), 19*296)
	}
	set := 0
	for _, b := range bw {
		set += bits.OnesCount8(b)
	}
	if set != 1 {
		t.Errorf("bw stream has %d bits set, want 1", set)
	}
	if got := bw[5605]; got != 0x80 {
		t.Errorf("bw[5605] = %#02x, want 0x80", got)
	}
	if diff := cmp.Diff(red, make([]byte, 19*296)); diff != "" {
		t.Errorf("chromatic stream difference (-got +want):\n%s", diff)
	}
	if got := p.Displayed().ColorAt(0, 295); got != tricolor.White {
		t.Errorf("displayed (0, 295) = %v, want %v", got, tricolor.White)
	}
	if got := p.Displayed().ColorAt(1, 295); got != tricolor.Black {
		t.Errorf("displayed (1, 295) = %v, want %v", got, tricolor.Black)
	}
}

func TestChunkedRefresh(t *testing.T) {
	p := epdtest.New(Width, Height)
	p.MaxTx = 1000
	d, err := New(p, p.DC, p.RST, p.Busy, &Opts{Orientation: Portrait})
	if err != nil {
		t.Fatal(err)
	}
	d.t.sleep = func(time.Duration) {}
	if d.t.maxTxSize != 1000 {
		t.Errorf("maxTxSize = %d, want 1000", d.t.maxTxSize)
	}
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	d.SetPixel(151, 295, tricolor.Chromatic)
	if err := d.Refresh(); err != nil {
		t.Fatal(err)
	}
	if err := d.TransportErr(); err != nil {
		t.Fatalf("TransportErr() = %v", err)
	}
	if got := p.Displayed().ColorAt(151, 295); got != tricolor.Chromatic {
		t.Errorf("displayed (151, 295) = %v, want %v", got, tricolor.Chromatic)
	}
}

func TestDrawPixels(t *testing.T) {
	d, _ := newTestDev(t, &Opts{Orientation: Portrait})
	d.DrawPixels([]Pixel{
		{Point: image.Pt(3, 4), Color: tricolor.Black},
		{Point: image.Pt(3, 4), Color: tricolor.Chromatic},
		{Point: image.Pt(5, 6), Color: tricolor.Black},
		{Point: image.Pt(-1, 0), Color: tricolor.Black},
		{Point: image.Pt(152, 0), Color: tricolor.Black},
		{Point: image.Pt(0, 296), Color: tricolor.Black},
	})

	fb := d.Buffer()
	if got := fb.ColorAt(3, 4); got != tricolor.Chromatic {
		t.Errorf("ColorAt(3, 4) = %v, want %v", got, tricolor.Chromatic)
	}
	if got := fb.ColorAt(5, 6); got != tricolor.Black {
		t.Errorf("ColorAt(5, 6) = %v, want %v", got, tricolor.Black)
	}
	if got := fb.BW.Count(); got != Width*Height-2 {
		t.Errorf("bw plane has %d bits set, want %d", got, Width*Height-2)
	}

	d.Clear()
	if got := fb.BW.Count(); got != Width*Height {
		t.Errorf("bw plane after Clear has %d bits set", got)
	}
	if got := fb.Chromatic.Count(); got != 0 {
		t.Errorf("chromatic plane after Clear has %d bits set", got)
	}
}

func TestSetOrientation(t *testing.T) {
	d, _ := newTestDev(t, nil)
	if got := d.Orientation(); got != Landscape {
		t.Errorf("Orientation() = %v, want %v", got, Landscape)
	}
	d.SetOrientation(PortraitFlipped)
	d.SetPixel(0, 0, tricolor.Black)
	if got := d.Buffer().ColorAt(151, 295); got != tricolor.Black {
		t.Errorf("ColorAt(151, 295) = %v, want %v", got, tricolor.Black)
	}
	if diff := cmp.Diff(d.Bounds(), image.Rect(0, 0, 152, 296)); diff != "" {
		t.Errorf("Bounds() difference (-got +want):\n%s", diff)
	}
}

func TestDraw(t *testing.T) {
	d, p := newTestDev(t, &Opts{Orientation: Portrait})
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	src := image.NewRGBA(image.Rect(0, 0, 4, 1))
	src.Set(0, 0, color.RGBA{0xFF, 0xFF, 0xFF, 0xFF})
	src.Set(1, 0, color.RGBA{0x10, 0x10, 0x10, 0xFF})
	src.Set(2, 0, color.RGBA{0xE0, 0x20, 0x20, 0xFF})
	src.Set(3, 0, color.RGBA{})

	if err := d.Draw(image.Rect(10, 20, 14, 21), src, image.Point{}); err != nil {
		t.Fatalf("Draw() failed: %v", err)
	}

	want := []tricolor.Color{tricolor.White, tricolor.Black, tricolor.Chromatic, tricolor.White}
	fb := p.Displayed()
	for i, c := range want {
		if got := fb.ColorAt(10+i, 20); got != c {
			t.Errorf("displayed (%d, 20) = %v, want %v", 10+i, got, c)
		}
	}
	if got := p.Refreshes(); got != 1 {
		t.Errorf("Refreshes() = %d, want 1", got)
	}
}

func TestDrawClipped(t *testing.T) {
	d, _ := newTestDev(t, &Opts{Orientation: Portrait})
	src := image.NewUniform(color.Black)

	// Not initialized: the planes are updated, the refresh is refused.
	if err := d.Draw(image.Rect(150, 294, 160, 300), src, image.Point{}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Draw() = %v, want %v", err, ErrNotReady)
	}
	if got := d.Buffer().BW.Count(); got != Width*Height-4 {
		t.Errorf("bw plane has %d bits set, want %d", got, Width*Height-4)
	}
}

func TestDisplayer(t *testing.T) {
	d, p := newTestDev(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	disp := d.Displayer()

	x, y := disp.Size()
	if x != 296 || y != 152 {
		t.Errorf("Size() = (%d, %d), want (296, 152)", x, y)
	}
	disp.SetPixel(2, 20, color.RGBA{0xFF, 0, 0, 0xFF})
	disp.SetPixel(-1, 20, color.RGBA{0, 0, 0, 0xFF})
	if got := d.Buffer().ColorAt(20, 293); got != tricolor.Chromatic {
		t.Errorf("ColorAt(20, 293) = %v, want %v", got, tricolor.Chromatic)
	}
	if err := disp.Display(); err != nil {
		t.Fatalf("Display() failed: %v", err)
	}
	if got := p.Displayed().ColorAt(20, 293); got != tricolor.Chromatic {
		t.Errorf("displayed (20, 293) = %v, want %v", got, tricolor.Chromatic)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		Uninitialized: "Uninitialized",
		Ready:         "Ready",
		Rendering:     "Rendering",
		Sleeping:      "Sleeping",
		State(7):      "State(7)",
	} {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
