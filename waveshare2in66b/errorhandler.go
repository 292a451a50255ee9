// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in66b

import (
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Timings of the reset pulse and of the busy line polling.
const (
	resetHighDelay  = 20 * time.Millisecond
	resetLowDelay   = 2 * time.Millisecond
	resetSettle     = 200 * time.Millisecond
	busyPollDelay   = 10 * time.Millisecond
	activationDelay = 20 * time.Millisecond
)

// defaultMaxTxSize is used when the SPI connection does not report a limit.
const defaultMaxTxSize = 4096

// transport frames commands and data over the SPI connection and drives the
// reset and data/command lines.
//
// The panel never acknowledges a write, so failed writes are not reported to
// the operation in progress. The first failure is kept in err until the next
// Init.
type transport struct {
	c         conn.Conn
	maxTxSize int

	dc   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn

	// pollLimit bounds waitUntilIdle; 0 polls forever.
	pollLimit int
	sleep     func(time.Duration)

	err error
}

func (t *transport) keep(err error) {
	if err != nil && t.err == nil {
		t.err = err
	}
}

func (t *transport) rstOut(l gpio.Level) {
	t.keep(t.rst.Out(l))
}

func (t *transport) dcOut(l gpio.Level) {
	t.keep(t.dc.Out(l))
}

// tx writes w, split in chunks the connection accepts.
func (t *transport) tx(w []byte) {
	for len(w) > 0 {
		n := len(w)
		if n > t.maxTxSize {
			n = t.maxTxSize
		}
		t.keep(t.c.Tx(w[:n], nil))
		w = w[n:]
	}
}

func (t *transport) sendCommand(cmd byte) {
	t.dcOut(gpio.Low)
	t.tx([]byte{cmd})
}

func (t *transport) sendData(data []byte) {
	if len(data) == 0 {
		return
	}
	t.dcOut(gpio.High)
	t.tx(data)
}

func (t *transport) delay(d time.Duration) {
	t.sleep(d)
}

// isBusy reports the busy line. A missing pin reads as idle.
func (t *transport) isBusy() bool {
	if t.busy == nil {
		return false
	}
	return t.busy.Read() == gpio.High
}

// waitUntilIdle polls the busy line until it goes low.
func (t *transport) waitUntilIdle() error {
	for polls := 0; t.isBusy(); polls++ {
		if t.pollLimit > 0 && polls >= t.pollLimit {
			return ErrBusyTimeout
		}
		t.sleep(busyPollDelay)
	}
	return nil
}

// hwReset pulses the reset line to power-cycle the controller.
func (t *transport) hwReset() {
	t.rstOut(gpio.High)
	t.sleep(resetHighDelay)
	t.rstOut(gpio.Low)
	t.sleep(resetLowDelay)
	t.rstOut(gpio.High)
	t.sleep(resetSettle)
}
