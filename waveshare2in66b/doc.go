// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package waveshare2in66b controls the Waveshare 2.66inch e-Paper (B), a
// 152×296 black/white/red panel driven by an SSD1675-family controller.
//
// The driver keeps two bit planes in memory (black/white and chromatic) in the
// physical orientation of the panel. Drawing only touches memory; Refresh
// streams both planes to the controller RAM and triggers the update.
//
// # Datasheets
//
// https://www.waveshare.com/w/upload/7/7b/2.66inch_e-Paper_%28B%29_Specification.pdf
//
// Product page:
//
// https://www.waveshare.com/wiki/2.66inch_e-Paper_Module_(B)
package waveshare2in66b
