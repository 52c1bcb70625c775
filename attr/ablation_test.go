package attr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lens/tensor"
)

// sumForward returns the per-example sum over every forwarded input.
func sumForward(inputs ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	var total *tensor.RawTensor
	for _, inp := range inputs {
		batch := inp.Shape()[0]
		flat, err := tensor.Reshape(inp, tensor.Shape{batch, inp.NumElements() / batch})
		if err != nil {
			return nil, err
		}
		s, err := tensor.SumDim(flat, 1, false)
		if err != nil {
			return nil, err
		}
		if total == nil {
			total = s
			continue
		}
		if total, err = tensor.Add(total, s); err != nil {
			return nil, err
		}
	}
	return total, nil
}

func rawF32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.RawFromSlice(data, shape)
	require.NoError(t, err)
	return r
}

func rawI64(t *testing.T, data []int64, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.RawFromSlice(data, shape)
	require.NoError(t, err)
	return r
}

func floats(t *testing.T, r *tensor.RawTensor) []float64 {
	t.Helper()
	c, err := tensor.Cast(r, tensor.Float64)
	require.NoError(t, err)
	v, err := tensor.Values[float64](c)
	require.NoError(t, err)
	return v
}

func TestFeatureAblationDefaultMasks(t *testing.T) {
	// With zero baselines and a sum forward, each element's attribution is
	// the element itself.
	x := rawF32(t, []float32{2, 4, 8}, tensor.Shape{1, 3})

	fa := NewFeatureAblation(sumForward)
	attrs, err := fa.Attribute([]*tensor.RawTensor{x}, nil)
	require.NoError(t, err)
	require.Len(t, attrs, 1)

	assert.Equal(t, tensor.Shape{1, 3}, attrs[0].Shape())
	assert.Equal(t, []float64{2, 4, 8}, floats(t, attrs[0]))
}

func TestFeatureAblationGroupedMask(t *testing.T) {
	x := rawF32(t, []float32{2, 4, 8}, tensor.Shape{1, 3})
	mask := rawI64(t, []int64{0, 0, 1}, tensor.Shape{1, 3})

	fa := NewFeatureAblation(sumForward)
	attrs, err := fa.Attribute([]*tensor.RawTensor{x}, &AblationConfig{
		FeatureMasks: []*tensor.RawTensor{mask},
	})
	require.NoError(t, err)

	// Elements 0 and 1 are ablated together, so both carry the group's
	// total contribution.
	assert.Equal(t, []float64{6, 6, 8}, floats(t, attrs[0]))
}

func TestFeatureAblationScalarBaseline(t *testing.T) {
	x := rawF32(t, []float32{2, 4, 8}, tensor.Shape{1, 3})

	fa := NewFeatureAblation(sumForward)
	attrs, err := fa.Attribute([]*tensor.RawTensor{x}, &AblationConfig{
		Baselines: []Baseline{Scalar(1)},
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 3, 7}, floats(t, attrs[0]))
}

func TestFeatureAblationTensorBaseline(t *testing.T) {
	x := rawF32(t, []float32{2, 4}, tensor.Shape{1, 2})
	base := rawF32(t, []float32{0, -1}, tensor.Shape{1, 2})

	fa := NewFeatureAblation(sumForward)
	attrs, err := fa.Attribute([]*tensor.RawTensor{x}, &AblationConfig{
		Baselines: []Baseline{TensorBaseline(base)},
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 5}, floats(t, attrs[0]))
}

func TestFeatureAblationPerExample(t *testing.T) {
	// Per-example output: the attribution matches the input shape and each
	// row carries its own diffs.
	x := rawF32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	fa := NewFeatureAblation(sumForward)
	attrs, err := fa.Attribute([]*tensor.RawTensor{x}, nil)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{2, 2}, attrs[0].Shape())
	assert.Equal(t, []float64{1, 2, 3, 4}, floats(t, attrs[0]))
}

func TestFeatureAblationMultiInput(t *testing.T) {
	x1 := rawF32(t, []float32{1, 2}, tensor.Shape{1, 2})
	x2 := rawF32(t, []float32{10, 20}, tensor.Shape{1, 2})

	fa := NewFeatureAblation(sumForward)
	attrs, err := fa.Attribute([]*tensor.RawTensor{x1, x2}, nil)
	require.NoError(t, err)
	require.Len(t, attrs, 2)

	assert.Equal(t, []float64{1, 2}, floats(t, attrs[0]))
	assert.Equal(t, []float64{10, 20}, floats(t, attrs[1]))
}

func TestFeatureAblationSharedGroupAcrossInputs(t *testing.T) {
	x1 := rawF32(t, []float32{1, 2}, tensor.Shape{1, 2})
	x2 := rawF32(t, []float32{10, 20}, tensor.Shape{1, 2})
	m1 := rawI64(t, []int64{0, 1}, tensor.Shape{1, 2})
	m2 := rawI64(t, []int64{1, 2}, tensor.Shape{1, 2})

	fa := NewFeatureAblation(sumForward)
	attrs, err := fa.Attribute([]*tensor.RawTensor{x1, x2}, &AblationConfig{
		FeatureMasks: []*tensor.RawTensor{m1, m2},
	})
	require.NoError(t, err)

	// Group 1 spans x1[1] and x2[0]; ablating it drops both at once, but
	// each input only records the diff at its own masked positions.
	assert.Equal(t, []float64{1, 12}, floats(t, attrs[0]))
	assert.Equal(t, []float64{12, 20}, floats(t, attrs[1]))
}

func TestFeatureAblationConfigErrors(t *testing.T) {
	x := rawF32(t, []float32{1, 2}, tensor.Shape{1, 2})
	fa := NewFeatureAblation(sumForward)

	_, err := fa.Attribute(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = fa.Attribute([]*tensor.RawTensor{x}, &AblationConfig{
		Baselines: []Baseline{Scalar(0), Scalar(1)},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	badMask := rawI64(t, []int64{0, 0, 1, 1}, tensor.Shape{2, 2})
	_, err = fa.Attribute([]*tensor.RawTensor{x}, &AblationConfig{
		FeatureMasks: []*tensor.RawTensor{badMask},
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	y := rawF32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	_, err = fa.Attribute([]*tensor.RawTensor{x, y}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestFeatureAblationForwardError(t *testing.T) {
	calls := 0
	failing := func(inputs ...*tensor.RawTensor) (*tensor.RawTensor, error) {
		calls++
		if calls > 1 {
			return nil, fmt.Errorf("flaky model")
		}
		return sumForward(inputs...)
	}

	x := rawF32(t, []float32{1, 2}, tensor.Shape{1, 2})
	_, err := NewFeatureAblation(failing).Attribute([]*tensor.RawTensor{x}, nil)
	assert.ErrorContains(t, err, "flaky model")
}
