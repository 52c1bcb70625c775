// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the public API for the WebGPU compute backend.
//
// The GPU path accelerates float32 element-wise arithmetic; all remaining
// operations transparently fall back to the CPU implementation.
package webgpu

import (
	internalwebgpu "github.com/born-ml/lens/internal/backend/webgpu"
	"github.com/born-ml/lens/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available on this system.
//
// Example:
//
//	backend, err := webgpu.New()
//	if err != nil {
//	    backend = nil // fall back to cpu.New()
//	}
func New() (*Backend, error) {
	return internalwebgpu.New()
}
