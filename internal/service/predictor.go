package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ekisa-team/awairs/internal/backend"
	"github.com/ekisa-team/awairs/internal/config"
	"github.com/ekisa-team/awairs/internal/inference"
	"github.com/ekisa-team/awairs/internal/metrics"
	"github.com/ekisa-team/awairs/internal/scaler"
)

// WarningUnscaled is attached to linear predictions computed without scaler parameters.
const WarningUnscaled = "inputs were not standardized: scaler parameters unavailable"

// warningPartiallyScaled is attached when the scaler covers only a prefix of the input.
const warningPartiallyScaled = "inputs were partially standardized: scaler parameters cover %d of %d features"

var errMissingInput = errors.New("missing input")

// SessionProvider returns a loaded session for a model.
type SessionProvider interface {
	Session(ctx context.Context, id string) (backend.Session, error)
}

// Prediction is the result of a forward pass.
type Prediction struct {
	// Values is the first model output as nested slices.
	Values any

	// Warnings lists conditions that degraded the result without failing it.
	Warnings []string
}

// Predictor runs the linear and sequence models.
type Predictor struct {
	models   SessionProvider
	scaler   *scaler.Params
	seqShape []int64
	metrics  *metrics.Collector
}

// NewPredictor creates a predictor. A nil collector disables metrics.
func NewPredictor(models SessionProvider, params *scaler.Params, cfg *config.Config, m *metrics.Collector) *Predictor {
	shape := config.DefaultLSTMShape()
	if mc, ok := cfg.Model(config.ModelLSTM); ok && len(mc.InputShape) > 0 {
		shape = mc.InputShape
	}
	if params == nil {
		params = scaler.Empty()
	}

	return &Predictor{
		models:   models,
		scaler:   params,
		seqShape: shape,
		metrics:  m,
	}
}

// PredictLinear standardizes input and runs it through the linear model as a
// single row.
func (p *Predictor) PredictLinear(ctx context.Context, input []float64) (*Prediction, error) {
	const op = "predict linear"

	if len(input) == 0 {
		return nil, inference.Wrap(inference.KindShape, op, errMissingInput)
	}

	session, err := p.models.Session(ctx, config.ModelLinear)
	if err != nil {
		return nil, err
	}

	tensor, err := backend.NewTensor(inputName(session), []int64{1, int64(len(input))}, p.scaler.Scale(input))
	if err != nil {
		return nil, inference.Wrap(inference.KindShape, op, err)
	}

	out, err := p.run(ctx, config.ModelLinear, session, tensor)
	if err != nil {
		return nil, inference.Wrap(inference.KindRuntime, op, err)
	}

	prediction := &Prediction{Values: out.Nested()}
	if !p.scaler.Covers(len(input)) {
		prediction.Warnings = append(prediction.Warnings, p.scalingWarning(len(input)))
		if p.metrics != nil {
			p.metrics.UnscaledPredictions.Inc()
		}
	}

	return prediction, nil
}

// PredictSequence runs the sequence model on a nested numeric input. The input
// is not standardized.
func (p *Predictor) PredictSequence(ctx context.Context, input any) (*Prediction, error) {
	const op = "predict sequence"

	if input == nil {
		return nil, inference.Wrap(inference.KindShape, op, errMissingInput)
	}

	session, err := p.models.Session(ctx, config.ModelLSTM)
	if err != nil {
		return nil, err
	}

	values, err := Flatten(input)
	if err != nil {
		return nil, inference.Wrap(inference.KindShape, op, err)
	}

	tensor, err := backend.NewTensor(inputName(session), p.seqShape, values)
	if err != nil {
		return nil, inference.Wrap(inference.KindShape, op, err)
	}

	out, err := p.run(ctx, config.ModelLSTM, session, tensor)
	if err != nil {
		return nil, inference.Wrap(inference.KindRuntime, op, err)
	}

	return &Prediction{Values: out.Nested()}, nil
}

// run executes session on a single input and returns its first declared output.
func (p *Predictor) run(ctx context.Context, modelID string, session backend.Session, input backend.Tensor) (backend.Tensor, error) {
	var names []string
	if outputs := session.Outputs(); len(outputs) > 0 {
		names = []string{outputs[0].Name}
	}

	start := time.Now()
	outputs, err := session.Run(ctx, []backend.Tensor{input}, names)
	if p.metrics != nil {
		p.metrics.InferenceDuration.WithLabelValues(modelID).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return backend.Tensor{}, err
	}
	if len(outputs) == 0 {
		return backend.Tensor{}, fmt.Errorf("model %s produced no outputs", modelID)
	}

	return outputs[0], nil
}

func (p *Predictor) scalingWarning(features int) string {
	covered := p.scaler.Len()
	if p.scaler.Degraded() || covered == 0 {
		return WarningUnscaled
	}
	return fmt.Sprintf(warningPartiallyScaled, covered, features)
}

func inputName(session backend.Session) string {
	if inputs := session.Inputs(); len(inputs) > 0 {
		return inputs[0].Name
	}
	return "input"
}
