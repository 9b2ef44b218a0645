package backend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTensor(t *testing.T) {
	tensor, err := NewTensor("x", []int64{1, 5, 6}, make([]float64, 30))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 5, 6}, tensor.Shape)

	_, err = NewTensor("x", []int64{1, 5, 6}, make([]float64, 29))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.ErrorContains(t, err, "shape [1 5 6] requires 30 values, got 29")

	_, err = NewTensor("x", []int64{1, -1}, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestTensor_Nested(t *testing.T) {
	tensor := Tensor{Shape: []int64{2, 1, 2}, Data: []float64{1, 2, 3, 4}}

	assert.Equal(t, []any{
		[]any{[]any{1.0, 2.0}},
		[]any{[]any{3.0, 4.0}},
	}, tensor.Nested())
}

func TestTensor_NestedNonFinite(t *testing.T) {
	tensor := Tensor{Shape: []int64{1, 3}, Data: []float64{math.NaN(), 1, math.Inf(1)}}

	assert.Equal(t, []any{[]any{nil, 1.0, nil}}, tensor.Nested())
}

func TestTensor_NestedScalarAndMismatch(t *testing.T) {
	assert.Equal(t, 2.5, Tensor{Data: []float64{2.5}}.Nested())
	assert.Equal(t, []any{1.0, 2.0}, Tensor{Shape: []int64{3}, Data: []float64{1, 2}}.Nested())
}
