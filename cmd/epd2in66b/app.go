// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"image"
	"time"

	"periph.io/x/conn/v3/display"

	appLog "github.com/GermanBionicSystems/epaper/internal/log"
	"github.com/GermanBionicSystems/epaper/scene"
	"github.com/GermanBionicSystems/epaper/textpanel"
	"github.com/GermanBionicSystems/epaper/waveshare2in66b"
	"github.com/GermanBionicSystems/epaper/waveshare2in66b/epdtest"
)

// app owns the device; cycles never overlap.
type app struct {
	dev   *waveshare2in66b.Dev
	panel *textpanel.Panel

	// sim is set in simulation mode.
	sim *epdtest.Panel
	// mirrors receive the physical frame after every cycle.
	mirrors []display.Drawer
}

// frame returns what the panel shows. Without a simulator that is the last
// uploaded framebuffer.
func (a *app) frame() image.Image {
	if a.sim != nil {
		return a.sim.Displayed()
	}
	return a.dev.Buffer()
}

// cycle wakes the panel, draws, refreshes and puts it back to sleep.
func (a *app) cycle() error {
	start := time.Now()
	if err := a.dev.Init(); err != nil {
		return err
	}
	a.dev.Clear()

	if a.panel != nil {
		n := textpanel.Render(a.dev.Displayer(), a.panel)
		if n < len(a.panel.Body) {
			appLog.Info("text panel clipped", "shown", n, "lines", len(a.panel.Body))
		}
		if err := a.dev.Refresh(); err != nil {
			return err
		}
	} else {
		b := a.dev.Bounds()
		img, err := scene.Demo(b.Dx(), b.Dy())
		if err != nil {
			return err
		}
		if err := a.dev.Draw(b, img, image.Point{}); err != nil {
			return err
		}
	}

	if err := a.dev.TransportErr(); err != nil {
		appLog.Error("transport error during refresh", err)
	}
	if err := a.dev.Sleep(); err != nil {
		return err
	}
	appLog.Debug("cycle done", "duration", time.Since(start), "state", a.dev.State())

	if len(a.mirrors) == 0 {
		return nil
	}
	img := a.frame()
	for _, m := range a.mirrors {
		if err := m.Draw(m.Bounds(), img, image.Point{}); err != nil {
			return err
		}
	}
	return nil
}
