package tensor

import "fmt"

// number is the constraint for dtypes that support arithmetic.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// arithOp identifies an element-wise arithmetic operation.
type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
)

func (op arithOp) String() string {
	switch op {
	case opAdd:
		return "add"
	case opSub:
		return "sub"
	case opMul:
		return "mul"
	case opDiv:
		return "div"
	default:
		return "unknown"
	}
}

// broadcastOffset maps a multi-index (expressed over outShape) to the flat
// element offset within a source tensor whose shape broadcasts to outShape.
// The source shape is right-aligned; size-1 dimensions contribute offset 0.
func broadcastOffset(idx []int, srcShape Shape, srcStrides []int) int {
	offset := 0
	shift := len(idx) - len(srcShape)
	for i, dim := range srcShape {
		if dim == 1 {
			continue
		}
		offset += idx[shift+i] * srcStrides[i]
	}
	return offset
}

// nextIndex advances a multi-index within shape, returning false after the
// last position.
func nextIndex(idx []int, shape Shape) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < shape[i] {
			return true
		}
		idx[i] = 0
	}
	return false
}

func apply[T number](op arithOp, a, b T) T {
	switch op {
	case opAdd:
		return a + b
	case opSub:
		return a - b
	case opMul:
		return a * b
	case opDiv:
		return a / b
	default:
		panic("unknown arithmetic op")
	}
}

// binaryKernel computes out = a <op> b with broadcasting. The three tensors
// must share a dtype matching T, and out must carry the broadcast shape.
func binaryKernel[T number](op arithOp, a, b, out *RawTensor) {
	av, bv, ov := values[T](a), values[T](b), values[T](out)

	if a.shape.Equal(b.shape) {
		for i := range ov {
			ov[i] = apply(op, av[i], bv[i])
		}
		return
	}

	idx := make([]int, len(out.shape))
	for i := range ov {
		ov[i] = apply(op,
			av[broadcastOffset(idx, a.shape, a.stride)],
			bv[broadcastOffset(idx, b.shape, b.stride)])
		nextIndex(idx, out.shape)
	}
}

// scalarKernel computes out = x <op> scalar element-wise.
func scalarKernel[T number](op arithOp, x, out *RawTensor, scalar T) {
	xv, ov := values[T](x), values[T](out)
	for i := range ov {
		ov[i] = apply(op, xv[i], scalar)
	}
}

// binaryOp dispatches a broadcasting arithmetic operation by runtime dtype.
func binaryOp(op arithOp, a, b *RawTensor) (*RawTensor, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%s: input tensor is nil", op)
	}
	if a.dtype != b.dtype {
		return nil, fmt.Errorf("%s: dtype mismatch: %s vs %s", op, a.dtype, b.dtype)
	}

	outShape, _, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := NewRaw(outShape, a.dtype, a.device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch a.dtype {
	case Float32:
		binaryKernel[float32](op, a, b, out)
	case Float64:
		binaryKernel[float64](op, a, b, out)
	case Int32:
		binaryKernel[int32](op, a, b, out)
	case Int64:
		binaryKernel[int64](op, a, b, out)
	case Uint8:
		binaryKernel[uint8](op, a, b, out)
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %s", op, a.dtype)
	}
	return out, nil
}

// scalarOp dispatches an element-wise scalar operation by runtime dtype. The
// scalar may be any Go numeric type; it is converted to the tensor's dtype.
func scalarOp(op arithOp, x *RawTensor, scalar any) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("%s: input tensor is nil", op)
	}

	f, err := scalarToFloat(scalar)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := NewRaw(x.shape, x.dtype, x.device)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch x.dtype {
	case Float32:
		scalarKernel(op, x, out, float32(f))
	case Float64:
		scalarKernel(op, x, out, f)
	case Int32:
		scalarKernel(op, x, out, int32(f))
	case Int64:
		scalarKernel(op, x, out, int64(f))
	case Uint8:
		scalarKernel(op, x, out, uint8(f))
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %s", op, x.dtype)
	}
	return out, nil
}

// scalarToFloat widens any supported Go numeric value to float64.
func scalarToFloat(scalar any) (float64, error) {
	switch v := scalar.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("unsupported scalar type %T", scalar)
	}
}
