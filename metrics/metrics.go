// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics provides ready-made reduce and metric callbacks for
// dataset-level attribution: simple running aggregates and corpus-level
// binary classification metrics (precision, recall, F1, ROC AUC).
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/lens/attr"
	"github.com/born-ml/lens/tensor"
)

// runningSum accumulates the element sum and element count of the forward
// outputs across one traversal.
type runningSum struct {
	sum   float64
	count int
}

// SumCount is a reduce callback accumulating the sum and element count of
// every forward output. Pair it with MeanAndSum.
func SumCount(accum any, output *tensor.RawTensor, _ []*tensor.RawTensor) (any, error) {
	s := &runningSum{}
	if accum != nil {
		var ok bool
		if s, ok = accum.(*runningSum); !ok {
			return nil, fmt.Errorf("metrics: unexpected accumulator type %T", accum)
		}
	}
	vals, err := floatValues(output)
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		s.sum += v
	}
	s.count += len(vals)
	return s, nil
}

// MeanAndSum converts a SumCount accumulator into a (2,) tensor holding the
// mean and the sum of all forward output elements.
func MeanAndSum(accum any) (*tensor.RawTensor, error) {
	s, ok := accum.(*runningSum)
	if !ok {
		return nil, fmt.Errorf("metrics: unexpected accumulator type %T", accum)
	}
	mean := 0.0
	if s.count > 0 {
		mean = s.sum / float64(s.count)
	}
	return tensor.RawFromSlice([]float64{mean, s.sum}, tensor.Shape{2})
}

// binaryAccum collects per-example scores and binary labels across one
// traversal.
type binaryAccum struct {
	scores []float64
	labels []bool
}

// CollectBinary returns a reduce callback treating the forward output as
// per-example scores and the tuple position labelPos as binary labels
// (nonzero = positive). Pair it with Precision, Recall, F1 or AUC.
func CollectBinary(labelPos int) attr.ReduceFunc {
	return func(accum any, output *tensor.RawTensor, batch []*tensor.RawTensor) (any, error) {
		a := &binaryAccum{}
		if accum != nil {
			var ok bool
			if a, ok = accum.(*binaryAccum); !ok {
				return nil, fmt.Errorf("metrics: unexpected accumulator type %T", accum)
			}
		}
		if labelPos < 0 || labelPos >= len(batch) {
			return nil, fmt.Errorf("metrics: label position %d out of range for tuples of arity %d", labelPos, len(batch))
		}
		scores, err := floatValues(output)
		if err != nil {
			return nil, err
		}
		labels, err := floatValues(batch[labelPos])
		if err != nil {
			return nil, err
		}
		if len(scores) != len(labels) {
			return nil, fmt.Errorf("metrics: %d scores for %d labels", len(scores), len(labels))
		}
		a.scores = append(a.scores, scores...)
		for _, l := range labels {
			a.labels = append(a.labels, l != 0)
		}
		return a, nil
	}
}

// Precision returns a metric computing precision at the given score
// threshold over a CollectBinary accumulator.
func Precision(threshold float64) attr.MetricFunc {
	return confusionMetric(threshold, func(tp, fp, fn float64) float64 {
		if tp+fp == 0 {
			return 0
		}
		return tp / (tp + fp)
	})
}

// Recall returns a metric computing recall at the given score threshold.
func Recall(threshold float64) attr.MetricFunc {
	return confusionMetric(threshold, func(tp, fp, fn float64) float64 {
		if tp+fn == 0 {
			return 0
		}
		return tp / (tp + fn)
	})
}

// F1 returns a metric computing the F1 score at the given score threshold.
func F1(threshold float64) attr.MetricFunc {
	return confusionMetric(threshold, func(tp, fp, fn float64) float64 {
		if 2*tp+fp+fn == 0 {
			return 0
		}
		return 2 * tp / (2*tp + fp + fn)
	})
}

func confusionMetric(threshold float64, f func(tp, fp, fn float64) float64) attr.MetricFunc {
	return func(accum any) (*tensor.RawTensor, error) {
		a, ok := accum.(*binaryAccum)
		if !ok {
			return nil, fmt.Errorf("metrics: unexpected accumulator type %T", accum)
		}
		var tp, fp, fn float64
		for i, s := range a.scores {
			predicted := s >= threshold
			switch {
			case predicted && a.labels[i]:
				tp++
			case predicted && !a.labels[i]:
				fp++
			case !predicted && a.labels[i]:
				fn++
			}
		}
		return tensor.RawFromSlice([]float64{f(tp, fp, fn)}, tensor.Shape{1})
	}
}

// AUC returns a metric computing the area under the ROC curve over a
// CollectBinary accumulator.
func AUC() attr.MetricFunc {
	return func(accum any) (*tensor.RawTensor, error) {
		a, ok := accum.(*binaryAccum)
		if !ok {
			return nil, fmt.Errorf("metrics: unexpected accumulator type %T", accum)
		}
		if len(a.scores) == 0 {
			return nil, fmt.Errorf("metrics: no scores collected")
		}
		scores := append([]float64(nil), a.scores...)
		labels := append([]bool(nil), a.labels...)
		stat.SortWeightedLabeled(scores, labels, nil)
		tpr, fpr, _ := stat.ROC(nil, scores, labels, nil)
		auc := integrate.Trapezoidal(fpr, tpr)
		return tensor.RawFromSlice([]float64{auc}, tensor.Shape{1})
	}
}

func floatValues(t *tensor.RawTensor) ([]float64, error) {
	if t == nil {
		return nil, fmt.Errorf("metrics: nil tensor")
	}
	c, err := tensor.Cast(t, tensor.Float64)
	if err != nil {
		return nil, err
	}
	return tensor.Values[float64](c)
}
