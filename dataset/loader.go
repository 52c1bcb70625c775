// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package dataset

import (
	"fmt"
	"iter"

	"github.com/born-ml/lens/tensor"
)

// Loader yields a dataset as a deterministic sequence of batches. Each batch
// is a tuple of tensors with the same arity and per-position shapes (except
// the leading batch dimension) on every iteration. Attribution traverses the
// loader several times, so iteration must be repeatable.
type Loader interface {
	// Batches returns a fresh iterator over the batch tuples.
	Batches() iter.Seq[[]*tensor.RawTensor]

	// Len returns the number of batches per traversal.
	Len() int
}

// BatchLoader traverses a TensorDataset in order, in fixed-size batches. The
// final batch is smaller when the dataset size is not a multiple of the batch
// size. No shuffling: attribution requires identical traversal on every pass.
type BatchLoader struct {
	dataset   *TensorDataset
	batchSize int
}

// NewBatchLoader creates a loader over the dataset with the given batch size.
func NewBatchLoader(ds *TensorDataset, batchSize int) (*BatchLoader, error) {
	if ds == nil {
		return nil, fmt.Errorf("dataset: nil dataset")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("dataset: batch size must be positive, got %d", batchSize)
	}
	return &BatchLoader{dataset: ds, batchSize: batchSize}, nil
}

// BatchSize returns the configured batch size.
func (l *BatchLoader) BatchSize() int {
	return l.batchSize
}

// Len returns the number of batches per traversal.
func (l *BatchLoader) Len() int {
	return (l.dataset.Size() + l.batchSize - 1) / l.batchSize
}

// Batches returns an iterator over the batch tuples in dataset order.
func (l *BatchLoader) Batches() iter.Seq[[]*tensor.RawTensor] {
	return func(yield func([]*tensor.RawTensor) bool) {
		for start := 0; start < l.dataset.Size(); start += l.batchSize {
			length := min(l.batchSize, l.dataset.Size()-start)
			batch, err := l.dataset.Slice(start, length)
			if err != nil {
				// Column shapes were validated at construction; a slicing
				// failure here means the dataset was mutated concurrently.
				panic(fmt.Sprintf("dataset: %v", err))
			}
			if !yield(batch) {
				return
			}
		}
	}
}
