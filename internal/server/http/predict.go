package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/awairs/internal/inference"
	"github.com/ekisa-team/awairs/internal/metrics"
	"github.com/ekisa-team/awairs/internal/service"
)

type (
	PredictLinearRequestDTO struct {
		_     struct{}  `json:"-" additionalProperties:"true"`
		Input []float64 `json:"input" doc:"Feature vector, standardized before inference"`
	}

	PredictSequenceRequestDTO struct {
		_     struct{} `json:"-" additionalProperties:"true"`
		Input any      `json:"input" doc:"Nested numeric array matching the sequence model input shape"`
	}

	PredictionResponseDTO struct {
		Prediction any      `json:"prediction" doc:"First model output as a nested array"`
		Warnings   []string `json:"warnings,omitempty"`
	}
)

type (
	PredictLinearInput struct {
		Body PredictLinearRequestDTO
	}

	PredictSequenceInput struct {
		Body PredictSequenceRequestDTO
	}

	PredictionOutput struct {
		Body PredictionResponseDTO
	}
)

// Predictor runs predictions for the HTTP handlers.
type Predictor interface {
	PredictLinear(ctx context.Context, input []float64) (*service.Prediction, error)
	PredictSequence(ctx context.Context, input any) (*service.Prediction, error)
}

// PredictHandler handles HTTP requests for predictions.
type PredictHandler struct {
	predictor Predictor
	metrics   *metrics.Collector
}

// NewPredictHandler creates a new PredictHandler and registers its operations.
func NewPredictHandler(api huma.API, predictor Predictor, m *metrics.Collector) *PredictHandler {
	h := &PredictHandler{predictor: predictor, metrics: m}

	huma.Register(api, huma.Operation{
		OperationID:   "predict-linear",
		Method:        http.MethodPost,
		Path:          "/predict-linear",
		Summary:       "Predict with the linear model",
		Tags:          []string{"predict"},
		DefaultStatus: http.StatusOK,
	}, h.handlePredictLinear)

	huma.Register(api, huma.Operation{
		OperationID:   "predict-lstm",
		Method:        http.MethodPost,
		Path:          "/predict-lstm",
		Summary:       "Predict with the LSTM sequence model",
		Tags:          []string{"predict"},
		DefaultStatus: http.StatusOK,
	}, h.handlePredictSequence)

	return h
}

// handlePredictLinear handles the predict-linear operation.
func (h *PredictHandler) handlePredictLinear(ctx context.Context, input *PredictLinearInput) (*PredictionOutput, error) {
	prediction, err := h.predictor.PredictLinear(ctx, input.Body.Input)
	if err != nil {
		return nil, h.fail("/predict-linear", err)
	}

	return newPredictionOutput(prediction), nil
}

// handlePredictSequence handles the predict-lstm operation.
func (h *PredictHandler) handlePredictSequence(ctx context.Context, input *PredictSequenceInput) (*PredictionOutput, error) {
	prediction, err := h.predictor.PredictSequence(ctx, input.Body.Input)
	if err != nil {
		return nil, h.fail("/predict-lstm", err)
	}

	return newPredictionOutput(prediction), nil
}

func (h *PredictHandler) fail(endpoint string, err error) error {
	kind := inference.KindOf(err)
	if h.metrics != nil {
		h.metrics.PredictionErrors.WithLabelValues(endpoint, string(kind)).Inc()
	}

	slog.Error("Prediction failed", "endpoint", endpoint, "kind", kind, "error", err)
	return NewErrorResponse(err)
}

func newPredictionOutput(p *service.Prediction) *PredictionOutput {
	return &PredictionOutput{
		Body: PredictionResponseDTO{
			Prediction: p.Values,
			Warnings:   p.Warnings,
		},
	}
}
