// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the public API for the pure Go CPU backend.
package cpu

import (
	internalcpu "github.com/born-ml/lens/internal/backend/cpu"
	"github.com/born-ml/lens/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend is the reference implementation of every tensor operation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}
