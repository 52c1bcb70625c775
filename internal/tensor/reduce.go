package tensor

import "fmt"

// Sum reduces all elements to a single-element tensor.
func Sum(x *RawTensor) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("sum: input tensor is nil")
	}

	out, err := NewRaw(Shape{1}, x.dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("sum: %w", err)
	}

	switch x.dtype {
	case Float32:
		sumAll(values[float32](x), values[float32](out))
	case Float64:
		sumAll(values[float64](x), values[float64](out))
	case Int32:
		sumAll(values[int32](x), values[int32](out))
	case Int64:
		sumAll(values[int64](x), values[int64](out))
	case Uint8:
		sumAll(values[uint8](x), values[uint8](out))
	default:
		return nil, fmt.Errorf("sum: unsupported dtype %s", x.dtype)
	}
	return out, nil
}

func sumAll[T number](src, dst []T) {
	var total T
	for _, v := range src {
		total += v
	}
	dst[0] = total
}

// SumDim sums along a dimension, optionally keeping it with size 1.
func SumDim(x *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	return reduceDim("sumdim", x, dim, keepDim, false)
}

// MeanDim averages along a dimension, optionally keeping it with size 1.
// Only floating point dtypes are supported.
func MeanDim(x *RawTensor, dim int, keepDim bool) (*RawTensor, error) {
	if x != nil && !x.dtype.IsFloat() {
		return nil, fmt.Errorf("meandim: unsupported dtype %s", x.dtype)
	}
	return reduceDim("meandim", x, dim, keepDim, true)
}

func reduceDim(opName string, x *RawTensor, dim int, keepDim, mean bool) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("%s: input tensor is nil", opName)
	}
	if dim < 0 {
		dim += len(x.shape)
	}
	if dim < 0 || dim >= len(x.shape) {
		return nil, fmt.Errorf("%s: dimension %d out of range for shape %v", opName, dim, x.shape)
	}

	keptShape := x.shape.Clone()
	keptShape[dim] = 1
	out, err := NewRaw(keptShape, x.dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opName, err)
	}

	outer := 1
	for _, d := range x.shape[:dim] {
		outer *= d
	}
	size := x.shape[dim]
	inner := 1
	for _, d := range x.shape[dim+1:] {
		inner *= d
	}

	switch x.dtype {
	case Float32:
		reduceKernel(values[float32](x), values[float32](out), outer, size, inner, mean)
	case Float64:
		reduceKernel(values[float64](x), values[float64](out), outer, size, inner, mean)
	case Int32:
		reduceKernel(values[int32](x), values[int32](out), outer, size, inner, mean)
	case Int64:
		reduceKernel(values[int64](x), values[int64](out), outer, size, inner, mean)
	case Uint8:
		reduceKernel(values[uint8](x), values[uint8](out), outer, size, inner, mean)
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %s", opName, x.dtype)
	}

	if keepDim {
		return out, nil
	}
	return Squeeze(out, dim)
}

func reduceKernel[T number](src, dst []T, outer, size, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			var total T
			for s := 0; s < size; s++ {
				total += src[(o*size+s)*inner+i]
			}
			if mean {
				total /= T(size)
			}
			dst[o*inner+i] = total
		}
	}
}
