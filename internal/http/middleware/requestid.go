package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID ensures every request has a request ID. An incoming X-Request-ID
// is reused, otherwise a UUID is generated. The value is stored in locals and
// echoed on the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}

// RequestIDFromCtx returns the id stored by RequestID, or "".
func RequestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// handled runs the app error handler for err, so the final status is on the
// response, and returns the status. Callers then return nil.
func handled(c *fiber.Ctx, err error) int {
	if err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	return c.Response().StatusCode()
}
