package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"crewops/internal/logger"
)

// Logger logs one structured entry per request: request_id, method, path,
// status, latency in milliseconds and the authenticated actor when present.
func Logger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		status := handled(c, c.Next())
		fields := logrus.Fields{
			"request_id": RequestIDFromCtx(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if actor, ok := ActorFromCtx(c); ok {
			fields["actor_id"] = actor.ID
			fields["role"] = actor.Role
		}

		entry := log.WithFields(fields)
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
		return nil
	}
}

// LoggerWithWriter logs JSON lines to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.NewWithWriter(w, "info", loc))
}
