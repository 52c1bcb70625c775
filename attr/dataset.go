// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package attr

import (
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/born-ml/lens/dataset"
	"github.com/born-ml/lens/tensor"
)

// DatasetConfig configures one DatasetAttribution.Attribute call. The zero
// value attributes every tuple position, ablates to scalar zero, assigns each
// element its own feature group, concatenates forward outputs along the batch
// dimension, and reconstructs per-input attribution shapes.
type DatasetConfig struct {
	// InputRoles assigns a role to each tuple position. Nil means every
	// position is NeedsAttribution. At least one position must be
	// NeedsAttribution.
	InputRoles []InputRole

	// Baselines holds one baseline per NeedsAttribution position, in tuple
	// order. Nil means scalar zero for all.
	Baselines []Baseline

	// FeatureMasks holds one integer group-id tensor per NeedsAttribution
	// position, each with batch dimension 1. Group ids may be shared across
	// inputs; elements sharing an id are perturbed together. Nil assigns
	// every element its own group.
	FeatureMasks []*tensor.RawTensor

	// Reduce folds each batch's forward output into the traversal
	// accumulator. Nil concatenates outputs along dimension 0.
	Reduce ReduceFunc

	// ToMetric converts the final accumulator of a traversal into a tensor.
	// Nil requires the accumulator itself to be a *tensor.RawTensor.
	ToMetric MetricFunc

	// PerturbationsPerPass is forwarded to the underlying method as its
	// perturbation batching hint. Zero or negative means all at once.
	PerturbationsPerPass int

	// ShowProgress renders a progress bar per traversal.
	ShowProgress bool

	// FlatOutput skips shape reconstruction: the result is a single tensor
	// of shape (*outputDims, nFeatures) over canonical feature indices.
	FlatOutput bool
}

// DatasetAttribution extends a batch-level attribution method to a streaming
// data source. The method is invoked exactly once, on a synthetic feature
// indicator of shape (1, nFeatures); each perturbation pattern it probes is
// answered by one full traversal of the data source, with the pattern's
// dropped features ablated consistently in every batch and the forward
// outputs folded through the reduce callback.
type DatasetAttribution struct {
	method *FeatureAblation
}

// NewDatasetAttribution creates a dataset-level attribution driving the given
// method. Only FeatureAblation is supported: the traversal treats the method
// as a black box probing keep/drop patterns, which rules out algorithms
// needing gradients or sampling.
func NewDatasetAttribution(method Method) (*DatasetAttribution, error) {
	fa, ok := method.(*FeatureAblation)
	if !ok {
		return nil, fmt.Errorf("attr: %T: %w", method, ErrUnsupportedMethod)
	}
	return &DatasetAttribution{method: fa}, nil
}

// Attribute computes per-feature attribution of the metric over the whole
// data source. It returns one tensor per NeedsAttribution position, each of
// shape (*outputDims, *inputFeatureDims) — or, with FlatOutput, a single
// tensor of shape (*outputDims, nFeatures).
//
// The loader must yield the same batches on every traversal; arity and dtypes
// changing between passes is an unchecked precondition violation.
func (d *DatasetAttribution) Attribute(loader dataset.Loader, cfg *DatasetConfig) ([]*tensor.RawTensor, error) {
	if loader == nil {
		return nil, fmt.Errorf("attr: nil loader: %w", ErrInvalidConfig)
	}
	if cfg == nil {
		cfg = &DatasetConfig{}
	}

	var first []*tensor.RawTensor
	for batch := range loader.Batches() {
		first = batch
		break
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("attr: data source yielded no batches: %w", ErrInvalidConfig)
	}
	arity := len(first)

	roles := cfg.InputRoles
	if roles == nil {
		roles = make([]InputRole, arity)
	}
	if len(roles) != arity {
		return nil, fmt.Errorf("attr: got %d input roles for tuples of arity %d: %w", len(roles), arity, ErrInvalidConfig)
	}
	var attrPos []int
	for pos, r := range roles {
		switch r {
		case NeedsAttribution:
			attrPos = append(attrPos, pos)
		case NeedsForwardOnly, ExcludedFromForward:
		default:
			return nil, fmt.Errorf("attr: position %d has unknown role %d: %w", pos, int(r), ErrInvalidConfig)
		}
	}
	if len(attrPos) == 0 {
		return nil, fmt.Errorf("attr: at least one position must be NeedsAttribution: %w", ErrInvalidConfig)
	}

	attrInputs := make([]*tensor.RawTensor, len(attrPos))
	for j, pos := range attrPos {
		attrInputs[j] = first[pos]
	}

	baselines, err := resolveBaselines(cfg.Baselines, len(attrPos))
	if err != nil {
		return nil, err
	}
	masks := cfg.FeatureMasks
	if masks == nil {
		if masks, err = defaultFeatureMasks(attrInputs); err != nil {
			return nil, err
		}
	} else if err := validateMasks(masks, len(attrPos)); err != nil {
		return nil, err
	}

	fidx, err := buildFeatureIndex(masks)
	if err != nil {
		return nil, err
	}

	// Flat group ids per attributable input, resolved once; each pass only
	// rebuilds the cheap {0,1} keep tensors.
	maskVals := make([][]int64, len(attrPos))
	for j, m := range masks {
		if maskVals[j], err = maskValues(m); err != nil {
			return nil, fmt.Errorf("attr: feature mask %d: %w", j, err)
		}
	}

	reduce := cfg.Reduce
	if reduce == nil {
		reduce = concatReduce
	}

	pass := 0
	traverse := func(indicator ...*tensor.RawTensor) (*tensor.RawTensor, error) {
		pattern, err := floatValues(indicator[0])
		if err != nil {
			return nil, fmt.Errorf("attr: perturbation pattern: %w", err)
		}

		// Inputs whose mask contains a dropped feature id; every other input
		// passes through the whole traversal unperturbed.
		dropped := make(map[int64]bool)
		touched := make(map[int]bool)
		for id, v := range pattern {
			if v == 0 {
				dropped[int64(id)] = true
				for _, j := range fidx.byFeature[int64(id)] {
					touched[j] = true
				}
			}
		}

		keeps := make(map[int][2]*tensor.RawTensor, len(touched))
		for j := range touched {
			keep, inv, err := keepMasks(masks[j].Shape(), maskVals[j], dropped)
			if err != nil {
				return nil, err
			}
			keeps[j] = [2]*tensor.RawTensor{keep, inv}
		}

		pass++
		var bar *progressbar.ProgressBar
		if cfg.ShowProgress {
			bar = progressbar.NewOptions(loader.Len(),
				progressbar.OptionSetDescription(fmt.Sprintf("attribution pass %d/%d", pass, fidx.nFeatures+1)),
				progressbar.OptionClearOnFinish(),
			)
		}

		var accum any
		for batch := range loader.Batches() {
			if len(batch) != arity {
				return nil, fmt.Errorf("attr: batch arity changed from %d to %d between traversals", arity, len(batch))
			}

			perturbed := make([]*tensor.RawTensor, arity)
			fwdArgs := make([]*tensor.RawTensor, 0, arity)
			j := 0
			for pos, t := range batch {
				switch roles[pos] {
				case NeedsAttribution:
					pt := t
					if touched[j] {
						km := keeps[j]
						if pt, err = perturb(t, km[0], km[1], baselines[j]); err != nil {
							return nil, fmt.Errorf("attr: perturbing input %d: %w", pos, err)
						}
					}
					perturbed[pos] = pt
					fwdArgs = append(fwdArgs, pt)
					j++
				case NeedsForwardOnly:
					perturbed[pos] = t
					fwdArgs = append(fwdArgs, t)
				case ExcludedFromForward:
					perturbed[pos] = t
				}
			}

			out, err := d.method.forward(fwdArgs...)
			if err != nil {
				return nil, fmt.Errorf("attr: forward evaluation: %w", err)
			}
			if accum, err = reduce(accum, out, perturbed); err != nil {
				return nil, fmt.Errorf("attr: reduce: %w", err)
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}

		if cfg.ToMetric != nil {
			m, err := cfg.ToMetric(accum)
			if err != nil {
				return nil, fmt.Errorf("attr: metric: %w", err)
			}
			if m == nil {
				return nil, fmt.Errorf("attr: metric returned a nil tensor")
			}
			return m, nil
		}
		r, ok := accum.(*tensor.RawTensor)
		if !ok {
			return nil, fmt.Errorf("attr: accumulator is %T, need *tensor.RawTensor or a ToMetric transform", accum)
		}
		return r, nil
	}

	indicator, err := tensor.FullRaw(tensor.Shape{1, fidx.nFeatures}, 1, tensor.Float32, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("attr: building feature indicator: %w", err)
	}

	unique, err := d.method.withForward(traverse).Attribute(
		[]*tensor.RawTensor{indicator},
		&AblationConfig{PerturbationsPerEval: cfg.PerturbationsPerPass},
	)
	if err != nil {
		return nil, err
	}
	if cfg.FlatOutput {
		return unique[:1], nil
	}
	return reconstruct(unique[0], masks)
}

// concatReduce is the default reduction: concatenate batch outputs along the
// batch dimension.
func concatReduce(accum any, output *tensor.RawTensor, _ []*tensor.RawTensor) (any, error) {
	if accum == nil {
		return output, nil
	}
	prev, ok := accum.(*tensor.RawTensor)
	if !ok {
		return nil, fmt.Errorf("unexpected accumulator type %T", accum)
	}
	return tensor.Concat([]*tensor.RawTensor{prev, output}, 0)
}

// reconstruct maps the unique attribution of shape (nOutputs, nFeatures) back
// into per-input shapes: for each attributable input, the mask is broadcast
// over the output dimension and used to gather each element's group
// attribution along the feature axis.
func reconstruct(unique *tensor.RawTensor, masks []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	nOutputs := unique.Shape()[0]
	nFeatures := unique.Shape()[1]

	out := make([]*tensor.RawTensor, len(masks))
	for i, mask := range masks {
		featDims := mask.Shape()[1:]
		scalar := len(featDims) == 0
		if scalar {
			featDims = tensor.Shape{1}
		}
		rank := len(featDims) + 1

		idx, err := tensor.Reshape(mask, append(tensor.Shape{1}, featDims...))
		if err != nil {
			return nil, fmt.Errorf("attr: reshaping mask %d: %w", i, err)
		}
		if idx, err = tensor.Cast(idx, tensor.Int64); err != nil {
			return nil, fmt.Errorf("attr: casting mask %d: %w", i, err)
		}
		idxShape := append(tensor.Shape{nOutputs}, featDims...)
		if idx, err = tensor.Expand(idx, idxShape); err != nil {
			return nil, fmt.Errorf("attr: broadcasting mask %d over outputs: %w", i, err)
		}

		src := unique
		for d := 1; d < rank-1; d++ {
			if src, err = tensor.Unsqueeze(src, 1); err != nil {
				return nil, fmt.Errorf("attr: expanding attribution for input %d: %w", i, err)
			}
		}
		srcShape := append(tensor.Shape{nOutputs}, featDims[:rank-2]...)
		srcShape = append(srcShape, nFeatures)
		if src, err = tensor.Expand(src, srcShape); err != nil {
			return nil, fmt.Errorf("attr: expanding attribution for input %d: %w", i, err)
		}

		gathered, err := tensor.Gather(src, idx, rank-1)
		if err != nil {
			return nil, fmt.Errorf("attr: gathering attribution for input %d: %w", i, err)
		}
		if scalar {
			if gathered, err = tensor.Squeeze(gathered, 1); err != nil {
				return nil, fmt.Errorf("attr: gathering attribution for input %d: %w", i, err)
			}
		}
		out[i] = gathered
	}
	return out, nil
}
