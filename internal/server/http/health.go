package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/awairs/internal/model"
)

type (
	HealthResponseDTO struct {
		Status string       `json:"status"`
		Models []model.Info `json:"models"`
	}

	HealthOutput struct {
		Body HealthResponseDTO
	}
)

// ModelLister reports the status of every configured model.
type ModelLister interface {
	List() []model.Info
}

// HealthHandler handles HTTP requests for service health.
type HealthHandler struct {
	models ModelLister
}

// NewHealthHandler creates a new HealthHandler and registers its operations.
func NewHealthHandler(api huma.API, models ModelLister) *HealthHandler {
	h := &HealthHandler{models: models}

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Report service and model status",
		Tags:        []string{"health"},
	}, h.handleHealth)

	return h
}

// handleHealth handles the health operation. The service is healthy while it
// serves requests; models load lazily and report their own status.
func (h *HealthHandler) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	return &HealthOutput{
		Body: HealthResponseDTO{
			Status: "ok",
			Models: h.models.List(),
		},
	}, nil
}
