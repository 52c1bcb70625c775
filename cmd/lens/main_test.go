package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lens/tensor"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, "a,b,label\n1,2,0\n3,4,1\n5,6,1\n")

	features, labels, err := loadCSV(path, -1)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{3, 2}, features.Shape())
	assert.Equal(t, tensor.Shape{3}, labels.Shape())

	fv, err := tensor.Values[float32](features)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, fv)

	lv, err := tensor.Values[float32](labels)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 1}, lv)
}

func TestLoadCSVLabelColumn(t *testing.T) {
	path := writeCSV(t, "0,10,20\n1,30,40\n")

	features, labels, err := loadCSV(path, 0)
	require.NoError(t, err)

	fv, err := tensor.Values[float32](features)
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 20, 30, 40}, fv)

	lv, err := tensor.Values[float32](labels)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, lv)
}

func TestLoadCSVErrors(t *testing.T) {
	_, _, err := loadCSV(writeCSV(t, "a,b\n"), -1)
	assert.Error(t, err, "header only")

	_, _, err = loadCSV(writeCSV(t, "1,x\n"), -1)
	assert.Error(t, err, "non-numeric cell")

	_, _, err = loadCSV(writeCSV(t, "1,2\n3,4\n"), 5)
	assert.Error(t, err, "label column out of range")
}

func TestExplainRunsEndToEnd(t *testing.T) {
	features, err := tensor.RawFromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	require.NoError(t, err)
	labels, err := tensor.RawFromSlice([]float32{0, 1, 1}, tensor.Shape{3})
	require.NoError(t, err)

	require.NoError(t, explain(features, labels, 2, false, false))
	require.NoError(t, explain(features, labels, 2, true, false))
}
