package cpu

import (
	"testing"

	"github.com/born-ml/lens/internal/tensor"
)

func fromSlice[T tensor.DType](t *testing.T, data []T, shape tensor.Shape) *tensor.Tensor[T, *CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice[T](data, shape, New())
	if err != nil {
		t.Fatalf("FromSlice(%v) failed: %v", shape, err)
	}
	return x
}

func TestBackendIdentity(t *testing.T) {
	b := New()
	if b.Name() != "CPU" {
		t.Errorf("Name = %q, want CPU", b.Name())
	}
	if b.Device() != tensor.CPU {
		t.Errorf("Device = %v, want CPU", b.Device())
	}
}

func TestTensorArithmetic(t *testing.T) {
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromSlice(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	sum := x.Add(y)
	want := []float32{11, 22, 33, 44}
	for i, v := range sum.Data() {
		if v != want[i] {
			t.Errorf("Add element %d = %v, want %v", i, v, want[i])
		}
	}

	scaled := x.MulScalar(2)
	if scaled.At(1, 1) != 8 {
		t.Errorf("MulScalar At(1,1) = %v, want 8", scaled.At(1, 1))
	}
}

func TestTensorMatMul(t *testing.T) {
	// [[1, 2],     [[5, 6],     [[19, 22],
	//  [3, 4]]  @   [7, 8]]  =   [43, 50]]
	x := fromSlice(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromSlice(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	out := x.MatMul(y)
	want := []float32{19, 22, 43, 50}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("MatMul element %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestTensorReductions(t *testing.T) {
	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	if got := x.Sum().Item(); got != 21 {
		t.Errorf("Sum = %v, want 21", got)
	}

	rows := x.SumDim(1, false)
	if !rows.Shape().Equal(tensor.Shape{2}) {
		t.Errorf("SumDim shape = %v, want {2}", rows.Shape())
	}
	if rows.At(0) != 6 || rows.At(1) != 15 {
		t.Errorf("SumDim = %v, want [6 15]", rows.Data())
	}

	means := x.MeanDim(0, false)
	if means.At(2) != 4.5 {
		t.Errorf("MeanDim At(2) = %v, want 4.5", means.At(2))
	}
}

func TestTensorGather(t *testing.T) {
	src := fromSlice(t, []float32{10, 20, 30, 40, 50, 60}, tensor.Shape{2, 3})
	index := fromSlice(t, []int64{2, 0, 1, 1}, tensor.Shape{2, 2})

	out := src.Gather(1, index)
	want := []float32{30, 10, 50, 50}
	for i, v := range out.Data() {
		if v != want[i] {
			t.Errorf("Gather element %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestTensorCast(t *testing.T) {
	x := fromSlice(t, []float32{1.7, -2.3}, tensor.Shape{2})
	i := x.Int64()
	if i.At(0) != 1 || i.At(1) != -2 {
		t.Errorf("Int64 cast = %v, want [1 -2]", i.Data())
	}
}

func TestBackendPanicsOnViolation(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic adding {3} and {2}")
		}
	}()
	x := fromSlice(t, []float32{1, 2, 3}, tensor.Shape{3})
	y := fromSlice(t, []float32{1, 2}, tensor.Shape{2})
	x.Add(y)
}

func TestCreationFuncs(t *testing.T) {
	b := New()

	z := tensor.Zeros[float32](tensor.Shape{2, 2}, b)
	for i, v := range z.Data() {
		if v != 0 {
			t.Errorf("Zeros element %d = %v", i, v)
		}
	}

	o := tensor.Ones[float32](tensor.Shape{3}, b)
	for i, v := range o.Data() {
		if v != 1 {
			t.Errorf("Ones element %d = %v", i, v)
		}
	}

	a := tensor.Arange[int32](2, 6, b)
	want := []int32{2, 3, 4, 5}
	if !a.Shape().Equal(tensor.Shape{4}) {
		t.Fatalf("Arange shape = %v, want {4}", a.Shape())
	}
	for i, v := range a.Data() {
		if v != want[i] {
			t.Errorf("Arange element %d = %v, want %v", i, v, want[i])
		}
	}
}
