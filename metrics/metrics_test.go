package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lens/tensor"
)

func raw(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.RawFromSlice(data, shape)
	require.NoError(t, err)
	return r
}

func values(t *testing.T, r *tensor.RawTensor) []float64 {
	t.Helper()
	c, err := tensor.Cast(r, tensor.Float64)
	require.NoError(t, err)
	v, err := tensor.Values[float64](c)
	require.NoError(t, err)
	return v
}

func TestSumCountMeanAndSum(t *testing.T) {
	var accum any
	var err error
	for _, batch := range [][]float32{{1, 2}, {3, 4}, {5}} {
		accum, err = SumCount(accum, raw(t, batch, tensor.Shape{len(batch)}), nil)
		require.NoError(t, err)
	}

	out, err := MeanAndSum(accum)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, out.Shape())
	assert.Equal(t, []float64{3, 15}, values(t, out))
}

func TestCollectBinaryAndPrecisionRecall(t *testing.T) {
	// Scores vs labels at threshold 0.5: TP=2, FP=1, FN=1.
	reduce := CollectBinary(1)

	var accum any
	var err error
	batches := []struct {
		scores []float32
		labels []float32
	}{
		{[]float32{0.9, 0.2}, []float32{1, 1}},
		{[]float32{0.8, 0.7}, []float32{1, 0}},
		{[]float32{0.1}, []float32{0}},
	}
	for _, b := range batches {
		n := len(b.scores)
		batch := []*tensor.RawTensor{
			raw(t, make([]float32, n*2), tensor.Shape{n, 2}),
			raw(t, b.labels, tensor.Shape{n}),
		}
		accum, err = reduce(accum, raw(t, b.scores, tensor.Shape{n}), batch)
		require.NoError(t, err)
	}

	precision, err := Precision(0.5)(accum)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, values(t, precision)[0], 1e-9)

	recall, err := Recall(0.5)(accum)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, values(t, recall)[0], 1e-9)

	f1, err := F1(0.5)(accum)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, values(t, f1)[0], 1e-9)
}

func TestAUCPerfectRanking(t *testing.T) {
	reduce := CollectBinary(1)

	scores := []float32{0.1, 0.2, 0.8, 0.9}
	labels := []float32{0, 0, 1, 1}
	batch := []*tensor.RawTensor{
		raw(t, make([]float32, 8), tensor.Shape{4, 2}),
		raw(t, labels, tensor.Shape{4}),
	}
	accum, err := reduce(nil, raw(t, scores, tensor.Shape{4}), batch)
	require.NoError(t, err)

	auc, err := AUC()(accum)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, values(t, auc)[0], 1e-9)
}

func TestAUCRandomRanking(t *testing.T) {
	reduce := CollectBinary(1)

	// Identical scores for both classes: AUC 0.5.
	scores := []float32{0.5, 0.5, 0.5, 0.5}
	labels := []float32{0, 1, 0, 1}
	batch := []*tensor.RawTensor{
		raw(t, make([]float32, 8), tensor.Shape{4, 2}),
		raw(t, labels, tensor.Shape{4}),
	}
	accum, err := reduce(nil, raw(t, scores, tensor.Shape{4}), batch)
	require.NoError(t, err)

	auc, err := AUC()(accum)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, values(t, auc)[0], 1e-9)
}

func TestCollectBinaryErrors(t *testing.T) {
	reduce := CollectBinary(5)
	batch := []*tensor.RawTensor{raw(t, []float32{1}, tensor.Shape{1})}

	_, err := reduce(nil, raw(t, []float32{0.5}, tensor.Shape{1}), batch)
	assert.Error(t, err, "label position out of range")

	reduce = CollectBinary(0)
	_, err = reduce(nil, raw(t, []float32{0.5, 0.6}, tensor.Shape{2}), batch)
	assert.Error(t, err, "score/label count mismatch")
}
