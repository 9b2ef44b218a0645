package scaler

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScale_Standardizes(t *testing.T) {
	p := New([]float64{1, 2, 3}, []float64{2, 4, 0.5})

	got := p.Scale([]float64{5, 2, 4})

	assert.InDeltaSlice(t, []float64{2, 0, 2}, got, 1e-12)
}

func TestScale_DoesNotMutateInput(t *testing.T) {
	p := New([]float64{1}, []float64{2})
	in := []float64{3}

	_ = p.Scale(in)

	assert.Equal(t, []float64{3}, in)
}

func TestScale_IdentityParams(t *testing.T) {
	p := New(make([]float64, 6), []float64{1, 1, 1, 1, 1, 1})

	got := p.Scale([]float64{1, 2, 3, 4, 5, 6})

	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got)
}

func TestScale_MissingParamsYieldNaN(t *testing.T) {
	p := New([]float64{0, 0}, []float64{1, 1})

	got := p.Scale([]float64{4, 5, 6})

	require.Len(t, got, 3)
	assert.Equal(t, []float64{4, 5}, got[:2])
	assert.True(t, math.IsNaN(got[2]))
}

func TestScale_EmptyParamsYieldAllNaN(t *testing.T) {
	got := Empty().Scale([]float64{1, 2, 3})

	require.Len(t, got, 3)
	for i, v := range got {
		assert.True(t, math.IsNaN(v), "index %d", i)
	}
}

func TestScale_EmptyInput(t *testing.T) {
	assert.Empty(t, New([]float64{1}, []float64{1}).Scale(nil))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaler.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mean":[1,2],"scale":[0.5,4]}`), 0o644))

	p, err := Load(path)
	require.NoError(t, err)

	assert.False(t, p.Degraded())
	assert.Equal(t, 2, p.Len())
	assert.InDeltaSlice(t, []float64{2, 0.5}, p.Scale([]float64{2, 4}), 1e-12)
}

func TestLoadOrEmpty_FallsBack(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"mean": [1,`), 0o644))

	for _, path := range []string{filepath.Join(dir, "missing.json"), malformed} {
		p := LoadOrEmpty(path)

		assert.True(t, p.Degraded(), path)
		assert.Equal(t, 0, p.Len(), path)
	}
}

func TestCovers(t *testing.T) {
	p := New([]float64{0, 0}, []float64{1, 1})
	assert.True(t, p.Covers(2))
	assert.True(t, p.Covers(1))
	assert.False(t, p.Covers(6))

	assert.False(t, Empty().Covers(1))
	assert.False(t, New(nil, nil).Covers(1))
	assert.False(t, New([]float64{0, 0, 0}, []float64{1}).Covers(2))
}

func TestLoadOrEmpty_EmptyObjectCoversNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaler.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	p := LoadOrEmpty(path)

	assert.False(t, p.Degraded())
	assert.Zero(t, p.Len())
	assert.False(t, p.Covers(6))
}
