// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/born-ml/lens/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// must converts kernel errors into panics. The Backend interface promises
// panics on shape/dtype violations; error-returning variants live in the
// tensor package.
func must(op string, t *tensor.RawTensor, err error) *tensor.RawTensor {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	return t
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	t, err := tensor.Add(a, b)
	return must("add", t, err)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	t, err := tensor.Sub(a, b)
	return must("sub", t, err)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	t, err := tensor.Mul(a, b)
	return must("mul", t, err)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	t, err := tensor.Div(a, b)
	return must("div", t, err)
}

// MatMul performs 2D matrix multiplication.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	t, err := tensor.MatMul(a, b)
	return must("matmul", t, err)
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	t, err := tensor.AddScalar(x, scalar)
	return must("addscalar", t, err)
}

// SubScalar subtracts a scalar from every element.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	t, err := tensor.SubScalar(x, scalar)
	return must("subscalar", t, err)
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	t, err := tensor.MulScalar(x, scalar)
	return must("mulscalar", t, err)
}

// DivScalar divides every element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	t, err := tensor.DivScalar(x, scalar)
	return must("divscalar", t, err)
}

// Reshape returns a tensor with the same data but a different shape.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	t, err := tensor.Reshape(x, newShape)
	return must("reshape", t, err)
}

// Expand broadcasts a tensor to the target shape.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	t, err := tensor.Expand(x, shape)
	return must("expand", t, err)
}

// Unsqueeze inserts a dimension of size 1.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	t, err := tensor.Unsqueeze(x, dim)
	return must("unsqueeze", t, err)
}

// Squeeze removes a dimension of size 1.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	t, err := tensor.Squeeze(x, dim)
	return must("squeeze", t, err)
}

// Sum reduces all elements to a one-element tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	t, err := tensor.Sum(x)
	return must("sum", t, err)
}

// SumDim sums along a dimension.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	t, err := tensor.SumDim(x, dim, keepDim)
	return must("sumdim", t, err)
}

// MeanDim averages along a dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	t, err := tensor.MeanDim(x, dim, keepDim)
	return must("meandim", t, err)
}

// Cat concatenates tensors along a dimension.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	t, err := tensor.Concat(tensors, dim)
	return must("cat", t, err)
}

// Narrow restricts a tensor to [start, start+length) along a dimension.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	t, err := tensor.Narrow(x, dim, start, length)
	return must("narrow", t, err)
}

// Gather selects elements along a dimension using an integer index tensor.
func (cpu *CPUBackend) Gather(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	t, err := tensor.Gather(x, index, dim)
	return must("gather", t, err)
}

// Cast converts a tensor to a different data type.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	t, err := tensor.Cast(x, dtype)
	return must("cast", t, err)
}
