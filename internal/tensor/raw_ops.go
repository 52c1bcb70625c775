package tensor

import (
	"fmt"
	"slices"
)

// Structural operations move whole elements without interpreting them, so
// they work byte-wise for every dtype; only Cast needs numeric dispatch.

// Reshape returns a tensor sharing the buffer with a new shape. The new shape
// must describe the same number of elements.
func Reshape(x *RawTensor, newShape Shape) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("reshape: input tensor is nil")
	}
	if err := newShape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if newShape.NumElements() != x.NumElements() {
		return nil, fmt.Errorf("reshape: cannot reshape %v into %v", x.shape, newShape)
	}
	return x.withShape(newShape), nil
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func Unsqueeze(x *RawTensor, dim int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("unsqueeze: input tensor is nil")
	}
	if dim < 0 {
		dim += len(x.shape) + 1
	}
	if dim < 0 || dim > len(x.shape) {
		return nil, fmt.Errorf("unsqueeze: dimension %d out of range for shape %v", dim, x.shape)
	}
	newShape := slices.Insert(x.shape.Clone(), dim, 1)
	return x.withShape(newShape), nil
}

// Squeeze removes a dimension of size 1 at the given position.
func Squeeze(x *RawTensor, dim int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("squeeze: input tensor is nil")
	}
	if dim < 0 {
		dim += len(x.shape)
	}
	if dim < 0 || dim >= len(x.shape) {
		return nil, fmt.Errorf("squeeze: dimension %d out of range for shape %v", dim, x.shape)
	}
	if x.shape[dim] != 1 {
		return nil, fmt.Errorf("squeeze: dimension %d has size %d, expected 1", dim, x.shape[dim])
	}
	newShape := slices.Delete(x.shape.Clone(), dim, dim+1)
	return x.withShape(newShape), nil
}

// Expand broadcasts a tensor to the target shape following NumPy rules: the
// source shape is right-aligned against the target and every source dimension
// must equal the target dimension or be 1.
func Expand(x *RawTensor, target Shape) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("expand: input tensor is nil")
	}
	if len(target) < len(x.shape) {
		return nil, fmt.Errorf("expand: target rank %d below input rank %d", len(target), len(x.shape))
	}
	shift := len(target) - len(x.shape)
	for i, dim := range x.shape {
		if dim != 1 && dim != target[shift+i] {
			return nil, fmt.Errorf("expand: cannot expand %v to %v (dimension %d)", x.shape, target, shift+i)
		}
	}

	out, err := NewRaw(target, x.dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("expand: %w", err)
	}

	elem := x.dtype.Size()
	idx := make([]int, len(target))
	for i := 0; i < out.NumElements(); i++ {
		src := broadcastOffset(idx, x.shape, x.stride)
		copy(out.data[i*elem:(i+1)*elem], x.data[src*elem:(src+1)*elem])
		nextIndex(idx, target)
	}
	return out, nil
}

// Concat concatenates tensors along the given dimension. All tensors must
// share dtype, rank, and every dimension except the concatenated one.
func Concat(tensors []*RawTensor, dim int) (*RawTensor, error) {
	if len(tensors) == 0 {
		return nil, fmt.Errorf("concat: no tensors given")
	}
	first := tensors[0]
	if dim < 0 {
		dim += len(first.shape)
	}
	if dim < 0 || dim >= len(first.shape) {
		return nil, fmt.Errorf("concat: dimension %d out of range for shape %v", dim, first.shape)
	}

	outShape := first.shape.Clone()
	for _, t := range tensors[1:] {
		if t.dtype != first.dtype {
			return nil, fmt.Errorf("concat: dtype mismatch: %s vs %s", first.dtype, t.dtype)
		}
		if len(t.shape) != len(first.shape) {
			return nil, fmt.Errorf("concat: rank mismatch: %v vs %v", first.shape, t.shape)
		}
		for i := range t.shape {
			if i != dim && t.shape[i] != first.shape[i] {
				return nil, fmt.Errorf("concat: shape mismatch at dimension %d: %v vs %v", i, first.shape, t.shape)
			}
		}
		outShape[dim] += t.shape[dim]
	}

	out, err := NewRaw(outShape, first.dtype, first.device)
	if err != nil {
		return nil, fmt.Errorf("concat: %w", err)
	}

	elem := first.dtype.Size()
	outer := 1
	for _, d := range first.shape[:dim] {
		outer *= d
	}
	inner := elem
	for _, d := range first.shape[dim+1:] {
		inner *= d
	}

	pos := 0
	for o := 0; o < outer; o++ {
		for _, t := range tensors {
			chunk := t.shape[dim] * inner
			copy(out.data[pos:pos+chunk], t.data[o*chunk:(o+1)*chunk])
			pos += chunk
		}
	}
	return out, nil
}

// Narrow returns a copy of the tensor restricted to [start, start+length)
// along the given dimension.
func Narrow(x *RawTensor, dim, start, length int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("narrow: input tensor is nil")
	}
	if dim < 0 {
		dim += len(x.shape)
	}
	if dim < 0 || dim >= len(x.shape) {
		return nil, fmt.Errorf("narrow: dimension %d out of range for shape %v", dim, x.shape)
	}
	if start < 0 || length <= 0 || start+length > x.shape[dim] {
		return nil, fmt.Errorf("narrow: range [%d, %d) invalid for dimension of size %d", start, start+length, x.shape[dim])
	}

	outShape := x.shape.Clone()
	outShape[dim] = length
	out, err := NewRaw(outShape, x.dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("narrow: %w", err)
	}

	elem := x.dtype.Size()
	outer := 1
	for _, d := range x.shape[:dim] {
		outer *= d
	}
	inner := elem
	for _, d := range x.shape[dim+1:] {
		inner *= d
	}

	srcRow := x.shape[dim] * inner
	dstRow := length * inner
	for o := 0; o < outer; o++ {
		src := o*srcRow + start*inner
		copy(out.data[o*dstRow:(o+1)*dstRow], x.data[src:src+dstRow])
	}
	return out, nil
}

// Gather selects elements along a dimension using an integer index tensor
// (torch semantics): out[i...] = x[i... with dim replaced by index[i...]].
// The index tensor determines the output shape and must have the same rank
// as x, with index dtype Int32 or Int64.
func Gather(x, index *RawTensor, dim int) (*RawTensor, error) {
	if x == nil || index == nil {
		return nil, fmt.Errorf("gather: input tensor is nil")
	}
	if dim < 0 {
		dim += len(x.shape)
	}
	if dim < 0 || dim >= len(x.shape) {
		return nil, fmt.Errorf("gather: dimension %d out of range for shape %v", dim, x.shape)
	}
	if len(index.shape) != len(x.shape) {
		return nil, fmt.Errorf("gather: index rank %d does not match input rank %d", len(index.shape), len(x.shape))
	}
	for i := range index.shape {
		if i != dim && index.shape[i] > x.shape[i] {
			return nil, fmt.Errorf("gather: index shape %v exceeds input shape %v at dimension %d", index.shape, x.shape, i)
		}
	}

	var at func(i int) int
	switch index.dtype {
	case Int32:
		iv := values[int32](index)
		at = func(i int) int { return int(iv[i]) }
	case Int64:
		iv := values[int64](index)
		at = func(i int) int { return int(iv[i]) }
	default:
		return nil, fmt.Errorf("gather: index dtype must be int32 or int64, got %s", index.dtype)
	}

	out, err := NewRaw(index.shape, x.dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("gather: %w", err)
	}

	elem := x.dtype.Size()
	idx := make([]int, len(index.shape))
	for i := 0; i < out.NumElements(); i++ {
		j := at(i)
		if j < 0 || j >= x.shape[dim] {
			return nil, fmt.Errorf("gather: index %d out of range for dimension of size %d", j, x.shape[dim])
		}
		src := 0
		for d, pos := range idx {
			if d == dim {
				pos = j
			}
			src += pos * x.stride[d]
		}
		copy(out.data[i*elem:(i+1)*elem], x.data[src*elem:(src+1)*elem])
		nextIndex(idx, index.shape)
	}
	return out, nil
}

// Cast converts a tensor to a different data type.
func Cast(x *RawTensor, dtype DataType) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("cast: input tensor is nil")
	}
	if x.dtype == dtype {
		return x.Clone(), nil
	}

	out, err := NewRaw(x.shape, dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("cast: %w", err)
	}

	switch x.dtype {
	case Float32:
		castFrom(values[float32](x), out)
	case Float64:
		castFrom(values[float64](x), out)
	case Int32:
		castFrom(values[int32](x), out)
	case Int64:
		castFrom(values[int64](x), out)
	case Uint8:
		castFrom(values[uint8](x), out)
	case Bool:
		castFromBool(values[bool](x), out)
	default:
		return nil, fmt.Errorf("cast: unsupported source dtype %s", x.dtype)
	}
	return out, nil
}

func castFrom[S number](src []S, out *RawTensor) {
	switch out.dtype {
	case Float32:
		castInto(src, values[float32](out))
	case Float64:
		castInto(src, values[float64](out))
	case Int32:
		castInto(src, values[int32](out))
	case Int64:
		castInto(src, values[int64](out))
	case Uint8:
		castInto(src, values[uint8](out))
	case Bool:
		dst := values[bool](out)
		for i, v := range src {
			dst[i] = v != 0
		}
	}
}

func castInto[S, D number](src []S, dst []D) {
	for i, v := range src {
		dst[i] = D(v)
	}
}

func castFromBool(src []bool, out *RawTensor) {
	one := func(b bool) float64 {
		if b {
			return 1
		}
		return 0
	}
	switch out.dtype {
	case Float32:
		dst := values[float32](out)
		for i, v := range src {
			dst[i] = float32(one(v))
		}
	case Float64:
		dst := values[float64](out)
		for i, v := range src {
			dst[i] = one(v)
		}
	case Int32:
		dst := values[int32](out)
		for i, v := range src {
			dst[i] = int32(one(v))
		}
	case Int64:
		dst := values[int64](out)
		for i, v := range src {
			dst[i] = int64(one(v))
		}
	case Uint8:
		dst := values[uint8](out)
		for i, v := range src {
			dst[i] = uint8(one(v))
		}
	}
}

// FullRaw creates a tensor filled with a value, converted to the dtype.
func FullRaw(shape Shape, value float64, dtype DataType, device Device) (*RawTensor, error) {
	out, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, fmt.Errorf("full: %w", err)
	}
	filled, err := AddScalar(out, value)
	if err != nil {
		return nil, fmt.Errorf("full: %w", err)
	}
	return filled, nil
}
