// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package attr

import (
	"fmt"
	"slices"

	"github.com/born-ml/lens/tensor"
)

// Method is a perturbation-based attribution algorithm operating on one
// in-memory batch of inputs.
type Method interface {
	Attribute(inputs []*tensor.RawTensor, cfg *AblationConfig) ([]*tensor.RawTensor, error)
}

// AblationConfig configures one FeatureAblation.Attribute call. The zero
// value selects scalar-zero baselines, one feature group per element, and one
// perturbation per forward evaluation.
type AblationConfig struct {
	// Baselines holds one baseline per input. Nil means scalar zero for all.
	Baselines []Baseline

	// FeatureMasks holds one integer group-id tensor per input, each with
	// batch dimension 1. Nil assigns every element its own group, with ids
	// consecutive across inputs.
	FeatureMasks []*tensor.RawTensor

	// PerturbationsPerEval is a hint for batching several perturbations into
	// one forward evaluation. The current implementation evaluates one
	// perturbation per forward call regardless.
	PerturbationsPerEval int
}

// FeatureAblation attributes by baseline substitution: each feature group is
// replaced with its baseline in turn and the resulting change of the forward
// output is recorded for every element of the group.
//
// The attribution for an input of shape (batch, *featureDims) has shape
// (nOutputs, *featureDims), where nOutputs is the flattened element count of
// the forward output. When the forward output is one value per example
// (nOutputs == batch) this coincides with the input shape.
type FeatureAblation struct {
	forward ForwardFunc
}

// NewFeatureAblation creates a feature ablation over the given forward
// function.
func NewFeatureAblation(forward ForwardFunc) *FeatureAblation {
	return &FeatureAblation{forward: forward}
}

// withForward returns a copy of the ablation driving a different forward
// function. Used by DatasetAttribution to substitute the traversal loop.
func (a *FeatureAblation) withForward(forward ForwardFunc) *FeatureAblation {
	return &FeatureAblation{forward: forward}
}

// Attribute runs feature ablation over one batch of inputs.
func (a *FeatureAblation) Attribute(inputs []*tensor.RawTensor, cfg *AblationConfig) ([]*tensor.RawTensor, error) {
	if cfg == nil {
		cfg = &AblationConfig{}
	}
	if a.forward == nil {
		return nil, fmt.Errorf("attr: feature ablation has no forward function: %w", ErrInvalidConfig)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("attr: at least one input is required: %w", ErrInvalidConfig)
	}
	for i, inp := range inputs {
		if inp == nil || len(inp.Shape()) == 0 {
			return nil, fmt.Errorf("attr: input %d must have at least a batch dimension: %w", i, ErrInvalidConfig)
		}
		if inp.Shape()[0] != inputs[0].Shape()[0] {
			return nil, fmt.Errorf("attr: input %d has batch size %d, expected %d: %w",
				i, inp.Shape()[0], inputs[0].Shape()[0], ErrInvalidConfig)
		}
	}

	baselines, err := resolveBaselines(cfg.Baselines, len(inputs))
	if err != nil {
		return nil, err
	}
	masks := cfg.FeatureMasks
	if masks == nil {
		if masks, err = defaultFeatureMasks(inputs); err != nil {
			return nil, err
		}
	} else if err := validateMasks(masks, len(inputs)); err != nil {
		return nil, err
	}

	// Per-input bookkeeping: flat group ids over the broadcast mask shape and
	// the float64 attribution buffer filled below.
	type inputState struct {
		featDims  tensor.Shape
		maskShape tensor.Shape
		maskVals  []int64
		data      []float64
	}
	states := make([]inputState, len(inputs))
	idSet := make(map[int64]struct{})
	for i, inp := range inputs {
		featDims := inp.Shape()[1:]
		maskShape := append(tensor.Shape{1}, featDims...)
		mask, err := tensor.Expand(masks[i], maskShape)
		if err != nil {
			return nil, fmt.Errorf("attr: broadcasting mask %d to %v: %w", i, maskShape, err)
		}
		maskVals, err := maskValues(mask)
		if err != nil {
			return nil, fmt.Errorf("attr: feature mask %d: %w", i, err)
		}
		for _, id := range maskVals {
			idSet[id] = struct{}{}
		}
		states[i] = inputState{featDims: featDims, maskShape: maskShape, maskVals: maskVals}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	initial, err := a.forward(inputs...)
	if err != nil {
		return nil, fmt.Errorf("attr: initial forward evaluation: %w", err)
	}
	initVals, err := floatValues(initial)
	if err != nil {
		return nil, fmt.Errorf("attr: initial forward output: %w", err)
	}
	nOutputs := len(initVals)
	outDType := initial.DType()
	if !outDType.IsFloat() {
		outDType = tensor.Float32
	}
	for i := range states {
		states[i].data = make([]float64, nOutputs*states[i].featDims.NumElements())
	}

	// One forward per distinct group id; elements sharing an id, across all
	// inputs, are ablated together and each receives the shared diff.
	for _, id := range ids {
		dropped := map[int64]bool{id: true}
		args := make([]*tensor.RawTensor, len(inputs))
		copy(args, inputs)
		for i, st := range states {
			if !slices.Contains(st.maskVals, id) {
				continue
			}
			keep, inv, err := keepMasks(st.maskShape, st.maskVals, dropped)
			if err != nil {
				return nil, err
			}
			if args[i], err = perturb(inputs[i], keep, inv, baselines[i]); err != nil {
				return nil, fmt.Errorf("attr: ablating feature %d of input %d: %w", id, i, err)
			}
		}

		modified, err := a.forward(args...)
		if err != nil {
			return nil, fmt.Errorf("attr: forward evaluation for feature %d: %w", id, err)
		}
		modVals, err := floatValues(modified)
		if err != nil {
			return nil, fmt.Errorf("attr: forward output for feature %d: %w", id, err)
		}
		if len(modVals) != nOutputs {
			return nil, fmt.Errorf("attr: forward returned %d elements for feature %d, expected %d",
				len(modVals), id, nOutputs)
		}

		for _, st := range states {
			featSize := st.featDims.NumElements()
			for o := 0; o < nOutputs; o++ {
				diff := initVals[o] - modVals[o]
				row := o * featSize
				for p, mv := range st.maskVals {
					if mv == id {
						st.data[row+p] = diff
					}
				}
			}
		}
	}

	attrs := make([]*tensor.RawTensor, len(inputs))
	for i, st := range states {
		raw, err := tensor.RawFromSlice(st.data, append(tensor.Shape{nOutputs}, st.featDims...))
		if err != nil {
			return nil, fmt.Errorf("attr: assembling attribution for input %d: %w", i, err)
		}
		if attrs[i], err = tensor.Cast(raw, outDType); err != nil {
			return nil, fmt.Errorf("attr: assembling attribution for input %d: %w", i, err)
		}
	}
	return attrs, nil
}

// resolveBaselines fills in scalar-zero defaults and validates counts and
// batch dimensions.
func resolveBaselines(baselines []Baseline, n int) ([]Baseline, error) {
	if baselines == nil {
		return make([]Baseline, n), nil
	}
	if len(baselines) != n {
		return nil, fmt.Errorf("attr: got %d baselines for %d attributable inputs: %w", len(baselines), n, ErrInvalidConfig)
	}
	for i, b := range baselines {
		if b.tensor == nil {
			continue
		}
		if len(b.tensor.Shape()) == 0 || b.tensor.Shape()[0] != 1 {
			return nil, fmt.Errorf("attr: baseline %d must have batch dimension 1, got shape %v: %w",
				i, b.tensor.Shape(), ErrInvalidConfig)
		}
	}
	return baselines, nil
}

func validateMasks(masks []*tensor.RawTensor, n int) error {
	if len(masks) != n {
		return fmt.Errorf("attr: got %d feature masks for %d attributable inputs: %w", len(masks), n, ErrInvalidConfig)
	}
	for i, m := range masks {
		if m == nil {
			return fmt.Errorf("attr: feature mask %d is nil: %w", i, ErrInvalidConfig)
		}
		if len(m.Shape()) == 0 || m.Shape()[0] != 1 {
			return fmt.Errorf("attr: feature mask %d must have batch dimension 1, got shape %v: %w",
				i, m.Shape(), ErrInvalidConfig)
		}
	}
	return nil
}

// floatValues flattens a tensor to float64 values.
func floatValues(t *tensor.RawTensor) ([]float64, error) {
	if t == nil {
		return nil, fmt.Errorf("attr: forward returned a nil tensor")
	}
	c, err := tensor.Cast(t, tensor.Float64)
	if err != nil {
		return nil, err
	}
	return tensor.Values[float64](c)
}
