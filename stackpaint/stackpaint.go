// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package stackpaint measures the high-water mark of a fixed memory region
// by painting it with a sentinel word and counting what survived.
//
// The region grows from its end toward its start, as a downward stack does:
// words at the start are the last to be used.
package stackpaint

import "fmt"

const (
	// Sentinel is the word written by Paint.
	Sentinel uint32 = 0xDEADBEEF
	// DefaultKeep is the number of words at the end of the region left alone
	// by Paint when keep is negative.
	DefaultKeep = 64
)

// Paint writes Sentinel into every word of region except the last keep ones,
// which are presumed live. A negative keep uses DefaultKeep. It returns the
// number of words painted.
func Paint(region []uint32, keep int) int {
	if keep < 0 {
		keep = DefaultKeep
	}
	n := len(region) - keep
	if n <= 0 {
		return 0
	}
	for i := range region[:n] {
		region[i] = Sentinel
	}
	return n
}

// Usage is the result of Measure, in bytes.
type Usage struct {
	Total int
	Used  int
	Free  int
}

func (u Usage) String() string {
	return fmt.Sprintf("%d (0x%x) / %d (0x%x) bytes used, %d (0x%x) bytes free", u.Used, u.Used, u.Total, u.Total, u.Free, u.Free)
}

// Measure counts the untouched sentinel words from the start of region.
func Measure(region []uint32) Usage {
	free := 0
	for _, w := range region {
		if w != Sentinel {
			break
		}
		free++
	}
	total := 4 * len(region)
	return Usage{Total: total, Used: total - 4*free, Free: 4 * free}
}
