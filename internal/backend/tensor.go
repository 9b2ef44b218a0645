package backend

import (
	"fmt"
	"math"
)

// TensorInfo describes a declared model input or output.
// Dynamic dimensions are reported as -1.
type TensorInfo struct {
	Name     string  `json:"name"`
	Shape    []int64 `json:"shape"`
	DataType string  `json:"data_type"`
}

// Tensor is a dense row-major tensor. Values are held as float64 regardless of
// the element type the runtime uses.
type Tensor struct {
	Name  string
	Shape []int64
	Data  []float64
}

// NewTensor checks that data fills shape exactly.
func NewTensor(name string, shape []int64, data []float64) (Tensor, error) {
	n, err := Elements(shape)
	if err != nil {
		return Tensor{}, err
	}
	if int64(len(data)) != n {
		return Tensor{}, fmt.Errorf("%w: shape %v requires %d values, got %d", ErrShapeMismatch, shape, n, len(data))
	}

	return Tensor{Name: name, Shape: shape, Data: data}, nil
}

// Elements returns the number of values a tensor of the given shape holds.
func Elements(shape []int64) (int64, error) {
	n := int64(1)
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrShapeMismatch, shape)
		}
		n *= d
	}
	return n, nil
}

// Nested converts the tensor into nested slices following its shape, the way
// a JSON client expects a multi-dimensional array. Non-finite values become
// nil so the result always encodes as JSON.
func (t Tensor) Nested() any {
	if len(t.Shape) == 0 {
		if len(t.Data) == 0 {
			return nil
		}
		return finite(t.Data[0])
	}

	if n, err := Elements(t.Shape); err != nil || n != int64(len(t.Data)) {
		flat := make([]any, len(t.Data))
		for i, v := range t.Data {
			flat[i] = finite(v)
		}
		return flat
	}

	v, _ := nest(t.Shape, t.Data)
	return v
}

func nest(shape []int64, data []float64) (any, []float64) {
	if len(shape) == 1 {
		out := make([]any, shape[0])
		for i := range out {
			out[i] = finite(data[i])
		}
		return out, data[shape[0]:]
	}

	out := make([]any, shape[0])
	for i := range out {
		out[i], data = nest(shape[1:], data)
	}
	return out, data
}

func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
