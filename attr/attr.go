// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package attr implements perturbation-based feature attribution.
//
// The package provides two layers:
//   - FeatureAblation: batch-level attribution by baseline substitution. Each
//     feature group is ablated in turn and the change in the forward output is
//     recorded as that group's attribution.
//   - DatasetAttribution: extends FeatureAblation to a streaming data source,
//     where the explained quantity is an aggregate metric over the whole
//     source rather than a per-example output.
//
// Example:
//
//	forward := func(inputs ...*tensor.RawTensor) (*tensor.RawTensor, error) {
//	    return tensor.SumDim(inputs[0], 1, false)
//	}
//	da, _ := attr.NewDatasetAttribution(attr.NewFeatureAblation(forward))
//	result, err := da.Attribute(loader, nil)
package attr

import (
	"errors"
	"fmt"

	"github.com/born-ml/lens/tensor"
)

var (
	// ErrUnsupportedMethod is returned when a dataset attribution is
	// constructed with an attribution method it cannot drive.
	ErrUnsupportedMethod = errors.New("unsupported attribution method")

	// ErrInvalidConfig is returned for configuration mistakes detected before
	// any traversal or forward evaluation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ForwardFunc evaluates the model (or metric) on a tuple of input tensors.
type ForwardFunc func(inputs ...*tensor.RawTensor) (*tensor.RawTensor, error)

// ReduceFunc folds one batch's forward output into the traversal accumulator.
// accum is nil on the first batch of each pass. batch is the full perturbed
// tuple, including positions excluded from the forward call.
type ReduceFunc func(accum any, output *tensor.RawTensor, batch []*tensor.RawTensor) (any, error)

// MetricFunc converts the final accumulator of one traversal into a tensor.
type MetricFunc func(accum any) (*tensor.RawTensor, error)

// InputRole tags one position of a data-source tuple.
type InputRole int

const (
	// NeedsAttribution marks a tensor that is perturbed and attributed.
	NeedsAttribution InputRole = iota

	// NeedsForwardOnly marks a tensor passed to the forward function
	// unchanged but not attributed, e.g. auxiliary conditioning input.
	NeedsForwardOnly

	// ExcludedFromForward marks a tuple position never passed to the forward
	// function, e.g. a label. It is still visible to the reduce callback.
	ExcludedFromForward
)

func (r InputRole) String() string {
	switch r {
	case NeedsAttribution:
		return "needs_attribution"
	case NeedsForwardOnly:
		return "needs_forward_only"
	case ExcludedFromForward:
		return "excluded_from_forward"
	default:
		return fmt.Sprintf("input_role(%d)", int(r))
	}
}

// Baseline is the value substituted for an ablated feature: either a scalar
// applied to every element or a tensor with batch dimension 1, broadcast
// across the batch. The zero value is the scalar zero baseline.
type Baseline struct {
	tensor *tensor.RawTensor
	value  float64
}

// Scalar returns a scalar baseline.
func Scalar(v float64) Baseline {
	return Baseline{value: v}
}

// TensorBaseline returns a tensor baseline. The tensor must have batch
// dimension 1 so it broadcasts across arbitrary batch sizes.
func TensorBaseline(t *tensor.RawTensor) Baseline {
	return Baseline{tensor: t}
}
