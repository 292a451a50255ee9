// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package epaper is a container for the three color e-paper driver and the
// packages around it.
//
// waveshare2in66b drives the panel. tricolor and bitplane hold its pixels.
// textpanel and scene produce content for it. screen2d and
// waveshare2in66b/epdtest stand in for the hardware, and preview serves what
// the panel shows over HTTP. stackpaint measures stack usage on targets that
// hand out a fixed stack region.
package epaper
