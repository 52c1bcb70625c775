// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package attr

import (
	"fmt"
	"slices"

	"github.com/born-ml/lens/tensor"
)

// defaultFeatureMasks assigns every non-batch element its own feature group,
// with group ids running consecutively across inputs in tuple order. Each
// mask has shape (1, *featureDims) so it broadcasts over any batch size.
func defaultFeatureMasks(inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	masks := make([]*tensor.RawTensor, len(inputs))
	next := int64(0)
	for i, inp := range inputs {
		featDims := inp.Shape()[1:]
		n := featDims.NumElements()
		vals := make([]int64, n)
		for j := range vals {
			vals[j] = next
			next++
		}
		shape := append(tensor.Shape{1}, featDims...)
		m, err := tensor.RawFromSlice(vals, shape)
		if err != nil {
			return nil, fmt.Errorf("attr: building default mask for input %d: %w", i, err)
		}
		masks[i] = m
	}
	return masks, nil
}

// maskValues returns a mask's group ids as a flat int64 slice.
func maskValues(mask *tensor.RawTensor) ([]int64, error) {
	c, err := tensor.Cast(mask, tensor.Int64)
	if err != nil {
		return nil, err
	}
	return tensor.Values[int64](c)
}

// distinctMaskIDs returns the sorted distinct group ids of a mask.
func distinctMaskIDs(mask *tensor.RawTensor) ([]int64, error) {
	vals, err := maskValues(mask)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(vals))
	var ids []int64
	for _, v := range vals {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			ids = append(ids, v)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// keepMasks builds the {0,1} keep tensor and its complement over the mask's
// shape: an element is kept unless its group id is in dropped.
func keepMasks(shape tensor.Shape, maskVals []int64, dropped map[int64]bool) (keep, inv *tensor.RawTensor, err error) {
	k := make([]float32, len(maskVals))
	v := make([]float32, len(maskVals))
	for i, id := range maskVals {
		if dropped[id] {
			v[i] = 1
		} else {
			k[i] = 1
		}
	}
	keep, err = tensor.RawFromSlice(k, shape)
	if err != nil {
		return nil, nil, fmt.Errorf("attr: building keep mask: %w", err)
	}
	inv, err = tensor.RawFromSlice(v, shape)
	if err != nil {
		return nil, nil, fmt.Errorf("attr: building keep mask: %w", err)
	}
	return keep, inv, nil
}

// perturb computes inp*keep + baseline*(1-keep) with keep and the baseline
// broadcast across the batch dimension. keep and inv are the {0,1} tensors
// from keepMasks, cast here to the input's dtype.
func perturb(inp, keep, inv *tensor.RawTensor, base Baseline) (*tensor.RawTensor, error) {
	keepC, err := tensor.Cast(keep, inp.DType())
	if err != nil {
		return nil, err
	}
	kept, err := tensor.Mul(inp, keepC)
	if err != nil {
		return nil, err
	}

	invC, err := tensor.Cast(inv, inp.DType())
	if err != nil {
		return nil, err
	}
	var baseTerm *tensor.RawTensor
	if base.tensor != nil {
		bc, err := tensor.Cast(base.tensor, inp.DType())
		if err != nil {
			return nil, err
		}
		baseTerm, err = tensor.Mul(bc, invC)
		if err != nil {
			return nil, err
		}
	} else {
		baseTerm, err = tensor.MulScalar(invC, base.value)
		if err != nil {
			return nil, err
		}
	}
	return tensor.Add(kept, baseTerm)
}
