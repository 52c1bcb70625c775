// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/lens/internal/tensor"
)

// Error-returning raw tensor operations. The Backend interface exposes the
// same computations with panic-on-violation semantics; these variants report
// shape, dtype and broadcast failures as errors, which the attribution code
// propagates to its callers.

// Add performs element-wise addition with NumPy-style broadcasting.
func Add(a, b *RawTensor) (*RawTensor, error) {
	return tensor.Add(a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func Sub(a, b *RawTensor) (*RawTensor, error) {
	return tensor.Sub(a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func Mul(a, b *RawTensor) (*RawTensor, error) {
	return tensor.Mul(a, b)
}

// Div performs element-wise division with broadcasting.
func Div(a, b *RawTensor) (*RawTensor, error) {
	return tensor.Div(a, b)
}

// AddScalar adds a scalar to every element.
func AddScalar(x *RawTensor, scalar any) (*RawTensor, error) {
	return tensor.AddScalar(x, scalar)
}

// SubScalar subtracts a scalar from every element.
func SubScalar(x *RawTensor, scalar any) (*RawTensor, error) {
	return tensor.SubScalar(x, scalar)
}

// MulScalar multiplies every element by a scalar.
func MulScalar(x *RawTensor, scalar any) (*RawTensor, error) {
	return tensor.MulScalar(x, scalar)
}

// DivScalar divides every element by a scalar.
func DivScalar(x *RawTensor, scalar any) (*RawTensor, error) {
	return tensor.DivScalar(x, scalar)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func MatMul(a, b *RawTensor) (*RawTensor, error) {
	return tensor.MatMul(a, b)
}

// Reshape returns a tensor sharing the buffer with a new shape.
func Reshape(x *RawTensor, newShape Shape) (*RawTensor, error) {
	return tensor.Reshape(x, newShape)
}

// Expand broadcasts a tensor to the target shape.
func Expand(x *RawTensor, target Shape) (*RawTensor, error) {
	return tensor.Expand(x, target)
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func Unsqueeze(x *RawTensor, dim int) (*RawTensor, error) {
	return tensor.Unsqueeze(x, dim)
}

// Squeeze removes a dimension of size 1 at the given position.
func Squeeze(x *RawTensor, dim int) (*RawTensor, error) {
	return tensor.Squeeze(x, dim)
}

// Concat concatenates raw tensors along a dimension.
func Concat(tensors []*RawTensor, dim int) (*RawTensor, error) {
	return tensor.Concat(tensors, dim)
}

// Narrow returns a copy restricted to [start, start+length) along a dimension.
func Narrow(x *RawTensor, dim, start, length int) (*RawTensor, error) {
	return tensor.Narrow(x, dim, start, length)
}

// Gather selects elements along a dimension using an integer index tensor
// (torch semantics). The index tensor determines the output shape.
func Gather(x, index *RawTensor, dim int) (*RawTensor, error) {
	return tensor.Gather(x, index, dim)
}

// Cast converts a tensor to a different data type.
func Cast(x *RawTensor, dtype DataType) (*RawTensor, error) {
	return tensor.Cast(x, dtype)
}

// Sum reduces all elements to a one-element tensor.
func Sum(x *RawTensor) (*RawTensor, error) {
	return tensor.Sum(x)
}

// SumDim sums along a dimension, optionally keeping it with size 1.
func SumDim(x *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	return tensor.SumDim(x, dim, keepDim)
}

// MeanDim averages along a dimension, optionally keeping it with size 1.
func MeanDim(x *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	return tensor.MeanDim(x, dim, keepDim)
}

// FullRaw creates a raw tensor filled with a value, converted to the dtype.
func FullRaw(shape Shape, value float64, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.FullRaw(shape, value, dtype, device)
}
