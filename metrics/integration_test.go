package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lens/attr"
	"github.com/born-ml/lens/dataset"
	"github.com/born-ml/lens/tensor"
)

// TestAttributePrecisionMetric attributes a corpus-level precision to the
// feature columns of a small dataset, the motivating use case for
// dataset-level attribution.
func TestAttributePrecisionMetric(t *testing.T) {
	// Column 0 carries the signal; column 1 is noise.
	features := raw(t, []float32{
		1, 0.2,
		0, 0.9,
		1, 0.1,
		0, 0.8,
		1, 0.3,
	}, tensor.Shape{5, 2})
	labels := raw(t, []float32{1, 0, 1, 0, 1}, tensor.Shape{5})

	ds, err := dataset.NewTensorDataset(features, labels)
	require.NoError(t, err)
	loader, err := dataset.NewBatchLoader(ds, 2)
	require.NoError(t, err)

	// Score = per-row feature sum; with the signal column present every
	// positive row scores above the 0.5 threshold.
	forward := func(inputs ...*tensor.RawTensor) (*tensor.RawTensor, error) {
		return tensor.SumDim(inputs[0], 1, false)
	}

	da, err := attr.NewDatasetAttribution(attr.NewFeatureAblation(forward))
	require.NoError(t, err)

	result, err := da.Attribute(loader, &attr.DatasetConfig{
		InputRoles: []attr.InputRole{attr.NeedsAttribution, attr.ExcludedFromForward},
		Reduce:     CollectBinary(1),
		ToMetric:   Precision(0.5),
	})
	require.NoError(t, err)
	require.Len(t, result, 1)

	// The metric is scalar, so the attribution matches the per-row feature
	// layout with a single output row.
	assert.Equal(t, tensor.Shape{1, 2}, result[0].Shape())

	vals := values(t, result[0])
	// Baseline precision is 3/5 (noise rows 1 and 3 score 0.9 and 0.8).
	// Ablating the signal column drops every true positive: precision 0,
	// attribution 3/5. Ablating the noise column removes both false
	// positives: precision 1, attribution -2/5.
	assert.InDelta(t, 0.6, vals[0], 1e-6)
	assert.InDelta(t, -0.4, vals[1], 1e-6)
}
