package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // shape validated by callers in practice
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var one T
	switch p := any(&one).(type) {
	case *float32:
		*p = 1
	case *float64:
		*p = 1
	case *int32:
		*p = 1
	case *int64:
		*p = 1
	case *uint8:
		*p = 1
	case *bool:
		*p = true
	}
	return Full[T, B](shape, one, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Arange creates a 1D tensor with values from start to end (exclusive),
// stepping by 1. Only numeric types are supported.
func Arange[T DType, B Backend](start, end T, b B) *Tensor[T, B] {
	n := arangeLen(start, end)
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()

	switch d := any(data).(type) {
	case []float32:
		for i := range d {
			d[i] = any(start).(float32) + float32(i)
		}
	case []float64:
		for i := range d {
			d[i] = any(start).(float64) + float64(i)
		}
	case []int32:
		for i := range d {
			d[i] = any(start).(int32) + int32(i)
		}
	case []int64:
		for i := range d {
			d[i] = any(start).(int64) + int64(i)
		}
	case []uint8:
		for i := range d {
			d[i] = any(start).(uint8) + uint8(i)
		}
	default:
		panic("arange: unsupported dtype")
	}
	return t
}

func arangeLen[T DType](start, end T) int {
	s, err := scalarToFloat(any(start))
	if err != nil {
		panic("arange: unsupported dtype")
	}
	e, err := scalarToFloat(any(end))
	if err != nil {
		panic("arange: unsupported dtype")
	}
	if e <= s {
		panic("arange: end must be greater than start")
	}
	return int(math.Ceil(e - s))
}

// Randn creates a float tensor with samples from the standard normal
// distribution, using the Box-Muller transform.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	sample := func() float64 {
		u1 := rand.Float64() //nolint:gosec // statistical use, not security
		u2 := rand.Float64() //nolint:gosec // statistical use, not security
		return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
	}

	switch d := any(data).(type) {
	case []float32:
		for i := range d {
			d[i] = float32(sample())
		}
	case []float64:
		for i := range d {
			d[i] = sample()
		}
	default:
		panic("randn: only float dtypes are supported")
	}
	return t
}

// FromSlice creates a tensor from a Go slice. The data is copied.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	raw, err := RawFromSlice(data, shape)
	if err != nil {
		return nil, err
	}
	return New[T, B](raw, b), nil
}
