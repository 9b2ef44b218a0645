package service

import (
	"encoding/json"
	"fmt"
)

// Flatten collects the numeric leaves of a nested array in row-major order.
// It accepts the shapes produced by decoding JSON into any as well as typed
// float slices.
func Flatten(v any) ([]float64, error) {
	var out []float64
	if err := flatten(v, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(v any, out *[]float64) error {
	switch x := v.(type) {
	case []any:
		for _, e := range x {
			if err := flatten(e, out); err != nil {
				return err
			}
		}
	case []float64:
		*out = append(*out, x...)
	case [][]float64:
		for _, row := range x {
			*out = append(*out, row...)
		}
	case [][][]float64:
		for _, m := range x {
			for _, row := range m {
				*out = append(*out, row...)
			}
		}
	case float64:
		*out = append(*out, x)
	case float32:
		*out = append(*out, float64(x))
	case int:
		*out = append(*out, float64(x))
	case int64:
		*out = append(*out, float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("non-numeric value %q", x.String())
		}
		*out = append(*out, f)
	default:
		return fmt.Errorf("non-numeric value of type %T", v)
	}
	return nil
}
