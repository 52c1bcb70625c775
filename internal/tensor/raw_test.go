package tensor

import (
	"testing"
)

func mustRawF32(t *testing.T, data []float32, shape Shape) *RawTensor {
	t.Helper()
	r, err := RawFromSlice(data, shape)
	if err != nil {
		t.Fatalf("RawFromSlice(%v) failed: %v", shape, err)
	}
	return r
}

func assertShape(t *testing.T, got, want Shape, msg string) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s: shape = %v, want %v", msg, got, want)
	}
}

func assertF32(t *testing.T, r *RawTensor, want []float32, msg string) {
	t.Helper()
	got, err := Values[float32](r)
	if err != nil {
		t.Fatalf("%s: Values failed: %v", msg, err)
	}
	if len(got) != len(want) {
		t.Fatalf("%s: got %d elements, want %d", msg, len(got), len(want))
	}
	for i := range want {
		if diff := got[i] - want[i]; diff > 1e-5 || diff < -1e-5 {
			t.Errorf("%s: element %d = %v, want %v", msg, i, got[i], want[i])
		}
	}
}

func TestRawFromSlice(t *testing.T) {
	r := mustRawF32(t, []float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	assertShape(t, r.Shape(), Shape{2, 3}, "RawFromSlice")
	if r.DType() != Float32 {
		t.Errorf("dtype = %s, want %s", r.DType(), Float32)
	}
	if r.NumElements() != 6 {
		t.Errorf("NumElements = %d, want 6", r.NumElements())
	}
	assertF32(t, r, []float32{1, 2, 3, 4, 5, 6}, "RawFromSlice data")
}

func TestRawFromSliceSizeMismatch(t *testing.T) {
	if _, err := RawFromSlice([]float32{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("expected error for 3 elements into shape {2, 2}")
	}
}

func TestValuesDTypeMismatch(t *testing.T) {
	r := mustRawF32(t, []float32{1, 2}, Shape{2})
	if _, err := Values[int64](r); err == nil {
		t.Error("expected error reading float32 tensor as int64")
	}
}

func TestRawClone(t *testing.T) {
	r := mustRawF32(t, []float32{1, 2, 3}, Shape{3})
	c := r.Clone()

	cv, _ := Values[float32](c)
	cv[0] = 99
	assertF32(t, r, []float32{1, 2, 3}, "original after clone mutation")
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b, want Shape
	}{
		{Shape{2, 3}, Shape{2, 3}, Shape{2, 3}},
		{Shape{2, 3}, Shape{1, 3}, Shape{2, 3}},
		{Shape{5, 2, 2}, Shape{1, 2, 2}, Shape{5, 2, 2}},
		{Shape{4, 1}, Shape{3}, Shape{4, 3}},
		{Shape{2}, Shape{3, 2}, Shape{3, 2}},
	}
	for _, tt := range tests {
		got, _, err := BroadcastShapes(tt.a, tt.b)
		if err != nil {
			t.Errorf("BroadcastShapes(%v, %v) failed: %v", tt.a, tt.b, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("BroadcastShapes(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBroadcastShapesIncompatible(t *testing.T) {
	if _, _, err := BroadcastShapes(Shape{2, 3}, Shape{2, 4}); err == nil {
		t.Error("expected error for shapes {2,3} and {2,4}")
	}
}

func TestShapeNumElements(t *testing.T) {
	if n := (Shape{2, 3, 4}).NumElements(); n != 24 {
		t.Errorf("NumElements = %d, want 24", n)
	}
	if n := (Shape{}).NumElements(); n != 1 {
		t.Errorf("empty shape NumElements = %d, want 1", n)
	}
}
