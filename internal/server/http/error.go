package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ekisa-team/awairs/internal/inference"
)

// ErrorResponse is the body of every failed request. Failures are always
// reported with status 500; Kind and Retryable tell clients what went wrong.
type ErrorResponse struct {
	status int

	Message   string         `json:"error"`
	Kind      inference.Kind `json:"kind"`
	Retryable bool           `json:"retryable"`
}

// Error implements error.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *ErrorResponse) GetStatus() int {
	return e.status
}

// NewErrorResponse builds the response body for a classified error.
func NewErrorResponse(err error) *ErrorResponse {
	var er *ErrorResponse
	if errors.As(err, &er) {
		return er
	}

	return &ErrorResponse{
		status:    http.StatusInternalServerError,
		Message:   err.Error(),
		Kind:      inference.KindOf(err),
		Retryable: inference.IsRetryable(err),
	}
}

// newFrameworkError replaces huma.NewError. Request problems detected while
// decoding or validating the body are shape errors; anything else is a
// runtime error. Both keep status 500.
func newFrameworkError(status int, msg string, errs ...error) huma.StatusError {
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	if len(details) > 0 {
		msg = msg + ": " + strings.Join(details, "; ")
	}

	kind := inference.KindRuntime
	if status >= 400 && status < 500 {
		kind = inference.KindShape
	}

	return &ErrorResponse{
		status:  http.StatusInternalServerError,
		Message: msg,
		Kind:    kind,
	}
}

func init() {
	huma.NewError = newFrameworkError
}
