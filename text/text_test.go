package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lens/tensor"
)

// newTestEncoder loads cl100k_base, skipping when the BPE files cannot be
// fetched (offline CI).
func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	enc, err := NewEncoder("cl100k_base")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	return enc
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	enc := newTestEncoder(t)

	tokens := enc.Encode("hello world")
	require.NotEmpty(t, tokens)
	assert.Equal(t, "hello world", enc.Decode(tokens))
}

func TestEncodeBatchShapeAndPadding(t *testing.T) {
	enc := newTestEncoder(t)

	out, err := enc.EncodeBatch([]string{"hello world", "hi"}, 8)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 8}, out.Shape())
	assert.Equal(t, tensor.Int64, out.DType())

	v, err := tensor.Values[int64](out)
	require.NoError(t, err)
	// "hi" is shorter than maxLen, so its row ends in zero padding.
	assert.Equal(t, int64(0), v[15])
}

func TestEncodeBatchTruncates(t *testing.T) {
	enc := newTestEncoder(t)

	out, err := enc.EncodeBatch([]string{"one two three four five six seven"}, 3)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3}, out.Shape())
}

func TestEncodeBatchErrors(t *testing.T) {
	enc := newTestEncoder(t)

	_, err := enc.EncodeBatch(nil, 4)
	assert.Error(t, err)
	_, err = enc.EncodeBatch([]string{"x"}, 0)
	assert.Error(t, err)
}

func TestWordMaskGroupsSubwords(t *testing.T) {
	enc := newTestEncoder(t)

	doc := "unbelievable outcomes"
	mask, err := enc.WordMask(doc, 16)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 16}, mask.Shape())

	v, err := tensor.Values[int64](mask)
	require.NoError(t, err)

	// Group ids are non-decreasing word indices followed by one padding
	// group.
	for i := 1; i < len(v); i++ {
		assert.LessOrEqual(t, v[i-1], v[i])
		assert.LessOrEqual(t, v[i], v[i-1]+1)
	}
	assert.Equal(t, int64(0), v[0])
	assert.Equal(t, int64(2), v[15], "padding group follows the last word")
}
