// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in66b

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/host/v3/rpi"

	"github.com/GermanBionicSystems/epaper/tricolor"
)

var (
	// ErrNotReady is returned when an operation needs an initialized, awake
	// panel.
	ErrNotReady = errors.New("waveshare2in66b: panel not ready")
	// ErrBusyTimeout is returned when the busy line stays high for more polls
	// than Opts.BusyPollLimit allows.
	ErrBusyTimeout = errors.New("waveshare2in66b: busy wait timed out")
)

// State is the lifecycle state of the panel.
type State uint8

const (
	// Uninitialized is the state before a successful Init.
	Uninitialized State = iota
	// Ready accepts Refresh and Sleep.
	Ready
	// Rendering is held for the duration of Refresh.
	Rendering
	// Sleeping is the deep sleep state; only Init leaves it.
	Sleeping
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case Rendering:
		return "Rendering"
	case Sleeping:
		return "Sleeping"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Opts defines the driver configuration. A nil *Opts uses the defaults.
type Opts struct {
	// Orientation is the initial drawing orientation.
	Orientation Orientation
	// BusyPollLimit is the maximum number of busy line polls, 10ms apart,
	// during one wait. 0 waits forever.
	BusyPollLimit int
}

// Dev is a handle to the panel.
type Dev struct {
	t     transport
	fb    *tricolor.Framebuffer
	o     Orientation
	state State
}

// New connects to the panel over p and the given control lines. busy may be
// nil or gpio.INVALID, in which case the panel is assumed to be always idle.
func New(p spi.Port, dc, rst gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	c, err := p.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("waveshare2in66b: connect: %w", err)
	}
	if busy == gpio.INVALID {
		busy = nil
	}
	if busy != nil {
		if err := busy.In(gpio.Float, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("waveshare2in66b: busy pin: %w", err)
		}
	}

	maxTxSize := defaultMaxTxSize
	if limits, ok := c.(conn.Limits); ok {
		if n := limits.MaxTxSize(); n > 0 {
			maxTxSize = n
		}
	}

	d := &Dev{
		t: transport{
			c:         c,
			maxTxSize: maxTxSize,
			dc:        dc,
			rst:       rst,
			busy:      busy,
			pollLimit: opts.BusyPollLimit,
			sleep:     time.Sleep,
		},
		fb: tricolor.NewFramebuffer(Width, Height),
		o:  opts.Orientation,
	}
	return d, nil
}

// NewHat connects to the panel through the Waveshare Raspberry Pi HAT pins.
func NewHat(p spi.Port, opts *Opts) (*Dev, error) {
	return New(p, rpi.P1_22, rpi.P1_11, rpi.P1_18, opts)
}

// Init resets the controller and configures RAM addressing. It is valid in
// every state and wakes the panel from deep sleep.
func (d *Dev) Init() error {
	d.t.err = nil
	d.state = Uninitialized
	d.t.hwReset()
	if err := initDisplay(&d.t); err != nil {
		return err
	}
	d.state = Ready
	return nil
}

// Clear resets both planes to white. The panel is not touched.
func (d *Dev) Clear() {
	d.fb.Clear()
}

// Refresh uploads both planes and updates the panel. It blocks until the
// panel reports idle.
func (d *Dev) Refresh() error {
	if d.state != Ready {
		return ErrNotReady
	}
	d.state = Rendering
	defer func() { d.state = Ready }()

	writeFrame(&d.t, d.fb)
	return activate(&d.t)
}

// Sleep puts the panel in deep sleep. RAM content is lost; Init wakes it up.
func (d *Dev) Sleep() error {
	if d.state != Ready {
		return ErrNotReady
	}
	deepSleep(&d.t, sleepLoseRAM)
	d.state = Sleeping
	return nil
}

// Halt puts a ready panel to sleep. It implements conn.Resource.
func (d *Dev) Halt() error {
	if d.state != Ready {
		return nil
	}
	return d.Sleep()
}

// State returns the lifecycle state.
func (d *Dev) State() State {
	return d.state
}

// TransportErr returns the first SPI or GPIO error since the last Init.
// Writes to the panel are not acknowledged, so these errors never abort an
// operation.
func (d *Dev) TransportErr() error {
	return d.t.err
}

// Orientation returns the drawing orientation.
func (d *Dev) Orientation() Orientation {
	return d.o
}

// SetOrientation changes the mapping used by subsequent drawing. Already
// drawn pixels are kept.
func (d *Dev) SetOrientation(o Orientation) {
	d.o = o
}

// Buffer returns the in-memory planes, in physical coordinates.
func (d *Dev) Buffer() *tricolor.Framebuffer {
	return d.fb
}

// String returns a string containing configuration information.
func (d *Dev) String() string {
	return fmt.Sprintf("waveshare2in66b.Dev{%s, %s, Width: %d, Height: %d}", d.t.c, d.t.dc, d.o.Width(), d.o.Height())
}
