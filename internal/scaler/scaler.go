// Package scaler standardizes raw feature vectors with per-feature mean and
// scale parameters exported alongside the linear model.
package scaler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
)

// Params holds the index-aligned standardization parameters.
// Params are immutable once loaded.
type Params struct {
	mean     []float64
	scale    []float64
	degraded bool
}

type fileFormat struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// New returns params from explicit mean and scale slices.
func New(mean, scale []float64) *Params {
	return &Params{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}
}

// Empty returns degraded params that turn every feature into NaN.
func Empty() *Params {
	return &Params{degraded: true}
}

// Load reads {"mean": [...], "scale": [...]} from path.
func Load(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scaler: failed to read %s: %w", path, err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scaler: failed to parse %s: %w", path, err)
	}

	if len(f.Mean) != len(f.Scale) {
		slog.Warn("Scaler mean and scale lengths differ", "path", path, "mean", len(f.Mean), "scale", len(f.Scale))
	}

	return New(f.Mean, f.Scale), nil
}

// LoadOrEmpty loads params from path and falls back to Empty on any failure.
// The failure is logged, not returned.
func LoadOrEmpty(path string) *Params {
	p, err := Load(path)
	if err != nil {
		slog.Error("Failed to load scaler parameters, inputs will not be standardized", "path", path, "error", err)
		return Empty()
	}

	slog.Info("Scaler parameters loaded", "path", path, "features", p.Len())
	return p
}

// Degraded reports whether the params are the empty fallback.
func (p *Params) Degraded() bool {
	return p.degraded
}

// Covers reports whether every one of n features has a mean and a scale.
// Features past the covered prefix come out of Scale as NaN.
func (p *Params) Covers(n int) bool {
	return !p.degraded && p.Len() >= n
}

// Len returns the number of features both mean and scale cover.
func (p *Params) Len() int {
	return min(len(p.mean), len(p.scale))
}

// Scale returns a new slice where out[i] = (v[i] - mean[i]) / scale[i].
// Features without a mean or scale entry become NaN; lengths are not validated.
func (p *Params) Scale(v []float64) []float64 {
	out := make([]float64, len(v))

	n := min(len(v), p.Len())
	floats.SubTo(out[:n], v[:n], p.mean[:n])
	floats.Div(out[:n], p.scale[:n])

	for i := n; i < len(out); i++ {
		out[i] = math.NaN()
	}

	return out
}
