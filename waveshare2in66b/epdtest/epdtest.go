// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epdtest simulates the controller of a three color e-paper panel
// behind an SPI port and its control lines, for tests and dry runs.
//
// The simulator decodes the command stream the way the controller does: RAM
// windows and counters, auto-increment, update control, activation and deep
// sleep. What the panel would show after the last activation is available
// through Displayed.
package epdtest

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/GermanBionicSystems/epaper/tricolor"
)

// Controller commands understood by the simulator.
const (
	DeepSleepMode         byte = 0x10
	DataEntryMode         byte = 0x11
	SoftReset             byte = 0x12
	MasterActivation      byte = 0x20
	DisplayUpdateControl1 byte = 0x21
	WriteBlackWhiteRAM    byte = 0x24
	WriteChromaticRAM     byte = 0x26
	SetXAddressRange      byte = 0x44
	SetYAddressRange      byte = 0x45
	SetXAddressCounter    byte = 0x4E
	SetYAddressCounter    byte = 0x4F
)

// DefaultMaxTxSize is the transfer limit reported when Panel.MaxTx is 0.
const DefaultMaxTxSize = 4096

// Record is one command as seen on the bus, with the data bytes that
// followed it.
type Record struct {
	Cmd  byte
	Data []byte
}

// Panel implements spi.PortCloser and spi.Conn and decodes what is written
// to it. DC, RST and Busy are the control lines to hand to the driver.
type Panel struct {
	DC   *gpiotest.Pin
	RST  *ResetPin
	Busy *BusyPin

	// BusyPolls is the number of busy line reads that return High after a
	// software reset or an activation.
	BusyPolls int
	// MaxTx is the largest accepted transfer. 0 means DefaultMaxTxSize.
	MaxTx int
	// Err, when set, is returned by every transfer. The transfer is dropped.
	Err error

	mu        sync.Mutex
	w, h      int
	stride    int
	log       []Record
	refreshes int
	resets    int
	asleep    bool
	connected bool
	busyLeft  int

	bw, red   []byte
	displayed *tricolor.Framebuffer

	cmd  byte
	argN int

	entry          byte
	xStart, xEnd   int
	yStart, yEnd   int
	xCount, yCount int
	update         [2]byte
}

// New returns a simulated panel of w×h pixels. Both RAM planes start
// cleared, as does the displayed frame.
func New(w, h int) *Panel {
	p := &Panel{
		DC: &gpiotest.Pin{N: "DC", Num: 25},
		w:  w,
		h:  h,

		stride: (w + 7) / 8,
	}
	p.RST = &ResetPin{Pin: gpiotest.Pin{N: "RST", Num: 17}, p: p}
	p.Busy = &BusyPin{Pin: gpiotest.Pin{N: "BUSY", Num: 24}, p: p}
	p.bw = make([]byte, p.stride*h)
	p.red = make([]byte, p.stride*h)
	p.displayed = tricolor.NewFramebuffer(w, h)
	p.displayed.BW.Fill(0)
	p.defaults()
	return p
}

func (p *Panel) String() string {
	return fmt.Sprintf("epdtest.Panel{%d×%d}", p.w, p.h)
}

// Close implements spi.PortCloser.
func (p *Panel) Close() error {
	return nil
}

// LimitSpeed implements spi.PortCloser.
func (p *Panel) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Connect implements spi.Port.
func (p *Panel) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.connected {
		return nil, errors.New("epdtest: Connect cannot be called twice")
	}
	if bits != 8 {
		return nil, fmt.Errorf("epdtest: unsupported word size %d", bits)
	}
	p.connected = true
	return p, nil
}

// Duplex implements conn.Conn.
func (p *Panel) Duplex() conn.Duplex {
	return conn.Half
}

// MaxTxSize implements conn.Limits.
func (p *Panel) MaxTxSize() int {
	if p.MaxTx > 0 {
		return p.MaxTx
	}
	return DefaultMaxTxSize
}

// Tx implements conn.Conn. The DC line selects whether w holds commands or
// data. Reads are not supported.
func (p *Panel) Tx(w, r []byte) error {
	if p.Err != nil {
		return p.Err
	}
	if len(r) != 0 {
		return errors.New("epdtest: reads are not supported")
	}
	if len(w) > p.MaxTxSize() {
		return fmt.Errorf("epdtest: transfer of %d bytes exceeds limit of %d", len(w), p.MaxTxSize())
	}
	isData := p.DC.Read() == gpio.High

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range w {
		if isData {
			p.data(b)
		} else {
			p.command(b)
		}
	}
	return nil
}

// TxPackets implements spi.Conn.
func (p *Panel) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := p.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// Log returns a copy of every command received so far.
func (p *Panel) Log() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, len(p.log))
	for i, r := range p.log {
		out[i] = Record{Cmd: r.Cmd, Data: append([]byte(nil), r.Data...)}
	}
	return out
}

// Commands returns the opcodes received so far, in order.
func (p *Panel) Commands() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, len(p.log))
	for i, r := range p.log {
		out[i] = r.Cmd
	}
	return out
}

// ResetLog forgets the recorded commands.
func (p *Panel) ResetLog() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = nil
}

// RAM returns a copy of the black/white RAM when bw is true, otherwise of the
// chromatic RAM.
func (p *Panel) RAM(bw bool) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bw {
		return append([]byte(nil), p.bw...)
	}
	return append([]byte(nil), p.red...)
}

// Displayed returns what the panel shows since the last activation.
func (p *Panel) Displayed() *tricolor.Framebuffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	fb := tricolor.NewFramebuffer(p.w, p.h)
	copy(fb.BW.Bytes(), p.displayed.BW.Bytes())
	copy(fb.Chromatic.Bytes(), p.displayed.Chromatic.Bytes())
	return fb
}

// Refreshes returns the number of activations.
func (p *Panel) Refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshes
}

// Resets returns the number of hardware resets seen on the RST line.
func (p *Panel) Resets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resets
}

// Asleep reports whether the controller is in deep sleep.
func (p *Panel) Asleep() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asleep
}

// defaults sets the registers to their power-on values.
func (p *Panel) defaults() {
	p.entry = 0b011
	p.xStart, p.xEnd = 0, p.stride-1
	p.yStart, p.yEnd = 0, p.h-1
	p.xCount, p.yCount = 0, 0
	p.update = [2]byte{}
}

func (p *Panel) hardwareReset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
	p.asleep = false
	p.busyLeft = 0
	p.defaults()
}

func (p *Panel) command(b byte) {
	p.log = append(p.log, Record{Cmd: b})
	p.cmd = b
	p.argN = 0
	if p.asleep {
		return
	}
	switch b {
	case SoftReset:
		p.defaults()
		p.busyLeft = p.BusyPolls
	case MasterActivation:
		p.activate()
		p.busyLeft = p.BusyPolls
	}
}

func (p *Panel) data(b byte) {
	if n := len(p.log); n != 0 {
		p.log[n-1].Data = append(p.log[n-1].Data, b)
	}
	if p.asleep {
		return
	}
	n := p.argN
	p.argN++
	switch p.cmd {
	case DataEntryMode:
		if n == 0 {
			p.entry = b & 0b111
		}
	case DisplayUpdateControl1:
		if n < len(p.update) {
			p.update[n] = b
		}
	case SetXAddressRange:
		switch n {
		case 0:
			p.xStart = int(b)
		case 1:
			p.xEnd = int(b)
		}
	case SetYAddressRange:
		switch n {
		case 0:
			p.yStart = p.yStart&^0xFF | int(b)
		case 1:
			p.yStart = p.yStart&0xFF | int(b&1)<<8
		case 2:
			p.yEnd = p.yEnd&^0xFF | int(b)
		case 3:
			p.yEnd = p.yEnd&0xFF | int(b&1)<<8
		}
	case SetXAddressCounter:
		if n == 0 {
			p.xCount = int(b)
		}
	case SetYAddressCounter:
		switch n {
		case 0:
			p.yCount = p.yCount&^0xFF | int(b)
		case 1:
			p.yCount = p.yCount&0xFF | int(b&1)<<8
		}
	case WriteBlackWhiteRAM:
		p.writeRAM(p.bw, b)
	case WriteChromaticRAM:
		p.writeRAM(p.red, b)
	case DeepSleepMode:
		if n == 0 && b&0b11 != 0 {
			p.asleep = true
			if b&0b11 == 0b11 {
				clear(p.bw)
				clear(p.red)
			}
		}
	}
}

// writeRAM stores b at the address counter and advances it inside the
// window according to the data entry mode.
func (p *Panel) writeRAM(ram []byte, b byte) {
	if p.xCount >= 0 && p.xCount < p.stride && p.yCount >= 0 && p.yCount < p.h {
		ram[p.yCount*p.stride+p.xCount] = b
	}
	incX := p.entry&0b001 != 0
	incY := p.entry&0b010 != 0
	if p.entry&0b100 == 0 {
		if step(&p.xCount, incX, p.xStart, p.xEnd) {
			step(&p.yCount, incY, p.yStart, p.yEnd)
		}
	} else {
		if step(&p.yCount, incY, p.yStart, p.yEnd) {
			step(&p.xCount, incX, p.xStart, p.xEnd)
		}
	}
}

// step moves v one unit inside [lo, hi] and reports whether it wrapped.
func step(v *int, inc bool, lo, hi int) bool {
	if inc {
		if *v >= hi {
			*v = lo
			return true
		}
		*v++
		return false
	}
	if *v <= lo {
		*v = hi
		return true
	}
	*v--
	return false
}

// activate shows the RAM content, altered by the update control options.
func (p *Panel) activate() {
	p.refreshes++
	apply(p.displayed.BW.Bytes(), p.bw, p.update[0]&0x0F)
	apply(p.displayed.Chromatic.Bytes(), p.red, p.update[0]>>4)
}

func apply(dst, ram []byte, option byte) {
	for i, v := range ram {
		switch {
		case option&0b0100 != 0:
			dst[i] = 0
		case option&0b1000 != 0:
			dst[i] = ^v
		default:
			dst[i] = v
		}
	}
}

// ResetPin is the reset line. Driving it low resets the controller and wakes
// it from deep sleep.
type ResetPin struct {
	gpiotest.Pin
	p *Panel
}

// Out implements gpio.PinOut.
func (r *ResetPin) Out(l gpio.Level) error {
	prev := r.Pin.Read()
	if err := r.Pin.Out(l); err != nil {
		return err
	}
	if l == gpio.Low && prev == gpio.High {
		r.p.hardwareReset()
	}
	return nil
}

// BusyPin is the busy line. It reads High while the simulated controller is
// working.
type BusyPin struct {
	gpiotest.Pin
	p *Panel
}

// Read implements gpio.PinIn.
func (b *BusyPin) Read() gpio.Level {
	b.p.mu.Lock()
	busy := b.p.busyLeft > 0
	if busy {
		b.p.busyLeft--
	}
	b.p.mu.Unlock()
	if busy {
		return gpio.High
	}
	return b.Pin.Read()
}
