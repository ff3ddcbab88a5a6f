package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nvalera/contourcad/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: invalid_input, sampling_failed, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// pipelineError maps the pipeline's typed failures to HTTP responses so
// callers can tell which stage rejected the request.
func pipelineError(c *fiber.Ctx, err error) error {
	var inputErr *domain.InputError
	var samplingErr *domain.SamplingError
	var shapeErr *domain.ShapeMismatchError
	var exportErr *domain.ExportError

	switch {
	case errors.As(err, &inputErr):
		return newError(c, 400, "invalid_input", inputErr.Error())
	case errors.As(err, &samplingErr):
		return newError(c, 502, "sampling_failed", samplingErr.Error())
	case errors.As(err, &shapeErr):
		return newError(c, 500, "shape_mismatch", shapeErr.Error())
	case errors.As(err, &exportErr):
		return newError(c, 500, "export_failed", exportErr.Error())
	default:
		return errInternal(c, err.Error())
	}
}
