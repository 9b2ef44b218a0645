//go:build cgo

package onnx

import (
	"context"
	"fmt"
	"slices"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ekisa-team/awairs/internal/backend"
)

// Session wraps a dynamic ONNX Runtime session. Run is safe for concurrent use.
type Session struct {
	modelID string
	session *ort.DynamicAdvancedSession
	inputs  []ort.InputOutputInfo
	outputs []ort.InputOutputInfo
}

type runResult struct {
	tensors []backend.Tensor
	err     error
}

// Inputs describes the declared model inputs.
func (s *Session) Inputs() []backend.TensorInfo {
	return describe(s.inputs)
}

// Outputs describes the declared model outputs.
func (s *Session) Outputs() []backend.TensorInfo {
	return describe(s.outputs)
}

// Run executes the model. Inputs are matched to declared inputs by position.
// When ctx ends first Run returns immediately; the runtime call finishes in the
// background and releases its tensors.
func (s *Session) Run(ctx context.Context, inputs []backend.Tensor, outputNames []string) ([]backend.Tensor, error) {
	if len(inputs) != len(s.inputs) {
		return nil, fmt.Errorf("%w: model %s expects %d inputs, got %d", backend.ErrShapeMismatch, s.modelID, len(s.inputs), len(inputs))
	}

	selected, err := s.selectOutputs(outputNames)
	if err != nil {
		return nil, err
	}

	values := make([]ort.Value, 0, len(inputs))
	for i, in := range inputs {
		v, err := toValue(s.inputs[i], in)
		if err != nil {
			destroy(values)
			return nil, err
		}
		values = append(values, v)
	}

	// nil outputs are allocated by the runtime with the right type and shape.
	outputs := make([]ort.Value, len(s.outputs))

	done := make(chan runResult, 1)
	go func() {
		defer destroy(values)
		defer destroy(outputs)

		if err := s.session.Run(values, outputs); err != nil {
			done <- runResult{err: fmt.Errorf("inference failed: %w", err)}
			return
		}

		tensors := make([]backend.Tensor, 0, len(selected))
		for _, idx := range selected {
			t, err := fromValue(s.outputs[idx].Name, outputs[idx])
			if err != nil {
				done <- runResult{err: err}
				return
			}
			tensors = append(tensors, t)
		}

		done <- runResult{tensors: tensors}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.tensors, res.err
	}
}

// Close destroys the underlying session.
func (s *Session) Close() error {
	return s.session.Destroy()
}

func (s *Session) selectOutputs(outputNames []string) ([]int, error) {
	if outputNames == nil {
		idx := make([]int, len(s.outputs))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}

	all := names(s.outputs)
	idx := make([]int, 0, len(outputNames))
	for _, name := range outputNames {
		i := slices.Index(all, name)
		if i < 0 {
			return nil, fmt.Errorf("%w: model %s has no output %q", backend.ErrUnknownOutput, s.modelID, name)
		}
		idx = append(idx, i)
	}
	return idx, nil
}

func toValue(info ort.InputOutputInfo, t backend.Tensor) (ort.Value, error) {
	shape := ort.NewShape(t.Shape...)

	switch info.DataType {
	case ort.TensorElementDataTypeFloat:
		data := make([]float32, len(t.Data))
		for i, v := range t.Data {
			data[i] = float32(v)
		}
		return newTensor(info.Name, shape, data)
	case ort.TensorElementDataTypeDouble:
		return newTensor(info.Name, shape, slices.Clone(t.Data))
	default:
		return nil, fmt.Errorf("%w: input %s has type %v", backend.ErrUnsupportedType, info.Name, info.DataType)
	}
}

func newTensor[T ort.TensorData](name string, shape ort.Shape, data []T) (ort.Value, error) {
	tensor, err := ort.NewTensor(shape, data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor %s with shape %v: %w", name, shape, err)
	}
	return tensor, nil
}

func fromValue(name string, v ort.Value) (backend.Tensor, error) {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		return backend.Tensor{Name: name, Shape: slices.Clone(t.GetShape()), Data: widen(t.GetData())}, nil
	case *ort.Tensor[float64]:
		return backend.Tensor{Name: name, Shape: slices.Clone(t.GetShape()), Data: slices.Clone(t.GetData())}, nil
	case *ort.Tensor[int64]:
		return backend.Tensor{Name: name, Shape: slices.Clone(t.GetShape()), Data: widen(t.GetData())}, nil
	case *ort.Tensor[int32]:
		return backend.Tensor{Name: name, Shape: slices.Clone(t.GetShape()), Data: widen(t.GetData())}, nil
	case nil:
		return backend.Tensor{}, fmt.Errorf("output %s was not produced", name)
	default:
		return backend.Tensor{}, fmt.Errorf("%w: output %s is %T", backend.ErrUnsupportedType, name, v)
	}
}

func widen[T float32 | int64 | int32](data []T) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

func destroy(values []ort.Value) {
	for _, v := range values {
		if v != nil {
			v.Destroy()
		}
	}
}

func describe(infos []ort.InputOutputInfo) []backend.TensorInfo {
	out := make([]backend.TensorInfo, len(infos))
	for i, info := range infos {
		out[i] = backend.TensorInfo{
			Name:     info.Name,
			Shape:    slices.Clone(info.Dimensions),
			DataType: fmt.Sprint(info.DataType),
		}
	}
	return out
}
