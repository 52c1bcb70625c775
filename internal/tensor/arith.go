package tensor

import "fmt"

// Add performs element-wise addition with NumPy-style broadcasting.
func Add(a, b *RawTensor) (*RawTensor, error) {
	return binaryOp(opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func Sub(a, b *RawTensor) (*RawTensor, error) {
	return binaryOp(opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func Mul(a, b *RawTensor) (*RawTensor, error) {
	return binaryOp(opMul, a, b)
}

// Div performs element-wise division with broadcasting.
func Div(a, b *RawTensor) (*RawTensor, error) {
	return binaryOp(opDiv, a, b)
}

// AddScalar adds a scalar to every element.
func AddScalar(x *RawTensor, scalar any) (*RawTensor, error) {
	return scalarOp(opAdd, x, scalar)
}

// SubScalar subtracts a scalar from every element.
func SubScalar(x *RawTensor, scalar any) (*RawTensor, error) {
	return scalarOp(opSub, x, scalar)
}

// MulScalar multiplies every element by a scalar.
func MulScalar(x *RawTensor, scalar any) (*RawTensor, error) {
	return scalarOp(opMul, x, scalar)
}

// DivScalar divides every element by a scalar.
func DivScalar(x *RawTensor, scalar any) (*RawTensor, error) {
	return scalarOp(opDiv, x, scalar)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func MatMul(a, b *RawTensor) (*RawTensor, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("matmul: input tensor is nil")
	}
	if a.dtype != b.dtype {
		return nil, fmt.Errorf("matmul: dtype mismatch: %s vs %s", a.dtype, b.dtype)
	}
	if len(a.shape) != 2 || len(b.shape) != 2 {
		return nil, fmt.Errorf("matmul: expected 2D tensors, got %v and %v", a.shape, b.shape)
	}
	if a.shape[1] != b.shape[0] {
		return nil, fmt.Errorf("matmul: inner dimensions mismatch: %v @ %v", a.shape, b.shape)
	}

	out, err := NewRaw(Shape{a.shape[0], b.shape[1]}, a.dtype, a.device)
	if err != nil {
		return nil, fmt.Errorf("matmul: %w", err)
	}

	switch a.dtype {
	case Float32:
		matmulKernel[float32](a, b, out)
	case Float64:
		matmulKernel[float64](a, b, out)
	default:
		return nil, fmt.Errorf("matmul: unsupported dtype %s", a.dtype)
	}
	return out, nil
}

func matmulKernel[T ~float32 | ~float64](a, b, out *RawTensor) {
	m, k, n := a.shape[0], a.shape[1], b.shape[1]
	av, bv, ov := values[T](a), values[T](b), values[T](out)

	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			s := av[i*k+p]
			if s == 0 {
				continue
			}
			row := bv[p*n : (p+1)*n]
			outRow := ov[i*n : (i+1)*n]
			for j, v := range row {
				outRow[j] += s * v
			}
		}
	}
}
