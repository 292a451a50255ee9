// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package waveshare2in66b

import (
	"encoding/binary"
	"time"

	"github.com/GermanBionicSystems/epaper/tricolor"
)

// Commands
const (
	deepSleepMode         byte = 0x10
	dataEntryModeSetting  byte = 0x11
	swReset               byte = 0x12
	masterActivation      byte = 0x20
	displayUpdateControl1 byte = 0x21
	writeRAMBW            byte = 0x24
	writeRAMRed           byte = 0x26
	setRAMXAddressRange   byte = 0x44
	setRAMYAddressRange   byte = 0x45
	setRAMXAddressCounter byte = 0x4E
	setRAMYAddressCounter byte = 0x4F
)

// Address counter direction after each RAM write, combined with the row
// selection below to form the data entry mode.
const (
	decYDecX byte = 0b00
	decYIncX byte = 0b01
	incYDecX byte = 0b10
	incYIncX byte = 0b11
)

// Which counter advances first.
const (
	xMinor byte = 0b000
	yMinor byte = 0b100
)

// RAM content options for displayUpdateControl1, per plane.
const (
	ramNormal    byte = 0b0000
	ramForceZero byte = 0b0100
	ramInvert    byte = 0b1000
)

// Source output range for displayUpdateControl1.
const (
	sourceS0ToS175 byte = 0x00
	sourceS8ToS167 byte = 0x80
)

// Deep sleep modes.
const (
	sleepAwake   byte = 0b00
	sleepKeepRAM byte = 0b01
	sleepLoseRAM byte = 0b11
)

type controller interface {
	sendCommand(byte)
	sendData([]byte)
	waitUntilIdle() error
	delay(time.Duration)
}

func setDataEntryMode(ctrl controller, row, sign byte) {
	ctrl.sendCommand(dataEntryModeSetting)
	ctrl.sendData([]byte{row | sign})
}

func setDisplayUpdate(ctrl controller, red, bw, source byte) {
	ctrl.sendCommand(displayUpdateControl1)
	ctrl.sendData([]byte{red<<4 | bw, source})
}

// setWindow restricts RAM access to the given inclusive ranges. X is in
// pixels and addressed per byte.
func setWindow(ctrl controller, xStart, xEnd int, yStart, yEnd uint16) {
	ctrl.sendCommand(setRAMXAddressRange)
	ctrl.sendData([]byte{byte(xStart >> 3), byte(xEnd >> 3)})

	data := make([]byte, 4)
	binary.LittleEndian.PutUint16(data[0:], yStart)
	binary.LittleEndian.PutUint16(data[2:], yEnd)

	ctrl.sendCommand(setRAMYAddressRange)
	ctrl.sendData(data)
}

func setCursor(ctrl controller, x byte, y uint16) {
	ctrl.sendCommand(setRAMXAddressCounter)
	ctrl.sendData([]byte{x})

	data := make([]byte, 2)
	binary.LittleEndian.PutUint16(data, y)

	ctrl.sendCommand(setRAMYAddressCounter)
	ctrl.sendData(data)
}

// initDisplay expects the controller to be freshly reset.
func initDisplay(ctrl controller) error {
	ctrl.sendCommand(swReset)
	if err := ctrl.waitUntilIdle(); err != nil {
		return err
	}

	setDataEntryMode(ctrl, xMinor, incYIncX)
	setDisplayUpdate(ctrl, ramNormal, ramNormal, sourceS8ToS167)
	setWindow(ctrl, 0, Width-1, 0, Height-1)
	return nil
}

func writeFrame(ctrl controller, fb *tricolor.Framebuffer) {
	setCursor(ctrl, 0, 0)
	ctrl.sendCommand(writeRAMBW)
	ctrl.sendData(fb.BW.Bytes())

	setCursor(ctrl, 0, 0)
	ctrl.sendCommand(writeRAMRed)
	ctrl.sendData(fb.Chromatic.Bytes())
}

func activate(ctrl controller) error {
	ctrl.sendCommand(masterActivation)
	ctrl.delay(activationDelay)
	return ctrl.waitUntilIdle()
}

func deepSleep(ctrl controller, mode byte) {
	ctrl.sendCommand(deepSleepMode)
	ctrl.sendData([]byte{mode})
}
