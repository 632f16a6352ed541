package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"crewops/internal/apperr"
	"crewops/internal/http/middleware"
	"crewops/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_LIMIT", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string, details map[string]any) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	return c.Status(status).JSON(res)
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses. Handlers return service errors as-is; typed errors keep their
// message and details, anything else is logged and reported as INTERNAL_ERROR.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ie *inputError
		if errors.As(err, &ie) {
			return writeError(c, fiber.StatusBadRequest, ie.code, ie.message, nil)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusBadRequest:
				return writeError(c, fe.Code, "BAD_REQUEST", fe.Message, nil)
			case fiber.StatusUnauthorized:
				return writeError(c, fe.Code, "UNAUTHORIZED", fe.Message, nil)
			case fiber.StatusForbidden:
				return writeError(c, fe.Code, "FORBIDDEN", fe.Message, nil)
			case fiber.StatusNotFound:
				return writeError(c, fe.Code, "NOT_FOUND", "resource not found", nil)
			case fiber.StatusMethodNotAllowed:
				return writeError(c, fe.Code, "METHOD_NOT_ALLOWED", "method not allowed", nil)
			case fiber.StatusRequestEntityTooLarge:
				return writeError(c, fe.Code, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			}
			if fe.Code < fiber.StatusInternalServerError {
				return writeError(c, fe.Code, "BAD_REQUEST", fe.Message, nil)
			}
		}

		if errors.Is(err, service.ErrStorageDisabled) {
			return writeError(c, fiber.StatusServiceUnavailable, "STORAGE_DISABLED", err.Error(), nil)
		}

		code := apperr.CodeOf(err)
		if code == apperr.CodeInternal {
			log.WithError(err).WithFields(logrus.Fields{
				"request_id": middleware.RequestIDFromCtx(c),
				"method":     c.Method(),
				"path":       c.Path(),
			}).Error("unhandled error")
			return writeError(c, fiber.StatusInternalServerError, string(apperr.CodeInternal), "internal server error", nil)
		}
		return writeError(c, apperr.HTTPStatus(err), string(code), err.Error(), apperr.Details(err))
	}
}

// inputError rejects a malformed query or body before any service runs.
type inputError struct {
	code    string
	message string
}

func (e *inputError) Error() string { return e.message }

func invalidInput(code, message string) error {
	return &inputError{code: code, message: message}
}
