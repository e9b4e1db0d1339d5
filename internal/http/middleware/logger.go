package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"trustnet/internal/logging"
)

// Logger writes one access log line per request through log.
// Fields: request_id (set by RequestID), method, path, status and latency in milliseconds.
func Logger(log *logging.Logger) fiber.Handler {
	log = log.With("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; report the status it will write.
			status = statusOf(err)
		}
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		log.Info("http_request", logging.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		})
		return err
	}
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc))
}

func statusOf(err error) int {
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	if sc, ok := err.(interface{ StatusCode() int }); ok {
		return sc.StatusCode()
	}
	return fiber.StatusInternalServerError
}
