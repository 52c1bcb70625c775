// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides data sources for dataset-level attribution: fixed
// arity tuples of tensors, traversed batch by batch.
package dataset

import (
	"fmt"

	"github.com/born-ml/lens/tensor"
)

// TensorDataset holds a fixed-arity tuple of column tensors sharing their
// first (sample) dimension, mirroring torch's TensorDataset.
type TensorDataset struct {
	columns []*tensor.RawTensor
	size    int
}

// NewTensorDataset creates a dataset from column tensors. Every column must
// have at least one dimension and the same size along dimension 0.
func NewTensorDataset(columns ...*tensor.RawTensor) (*TensorDataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset: at least one column is required")
	}

	size := 0
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("dataset: column %d is nil", i)
		}
		if len(col.Shape()) == 0 {
			return nil, fmt.Errorf("dataset: column %d is a scalar, expected at least 1 dimension", i)
		}
		if i == 0 {
			size = col.Shape()[0]
			continue
		}
		if col.Shape()[0] != size {
			return nil, fmt.Errorf("dataset: column %d has %d samples, expected %d", i, col.Shape()[0], size)
		}
	}

	return &TensorDataset{columns: columns, size: size}, nil
}

// Size returns the number of samples.
func (d *TensorDataset) Size() int {
	return d.size
}

// Arity returns the number of columns per sample tuple.
func (d *TensorDataset) Arity() int {
	return len(d.columns)
}

// Slice returns the tuple of column ranges [start, start+length).
func (d *TensorDataset) Slice(start, length int) ([]*tensor.RawTensor, error) {
	out := make([]*tensor.RawTensor, len(d.columns))
	for i, col := range d.columns {
		part, err := tensor.Narrow(col, 0, start, length)
		if err != nil {
			return nil, fmt.Errorf("dataset: slicing column %d: %w", i, err)
		}
		out[i] = part
	}
	return out, nil
}
