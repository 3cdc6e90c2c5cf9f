package middleware

import (
	"errors"
	"time"

	"room-passport/internal/common/logging"
	"room-passport/internal/common/metrics"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger пишет каждый запрос в структурированный лог и, если передан m, в метрики.
func Logger(log logging.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		took := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		fields := []logging.Field{
			logging.String("method", c.Method()),
			logging.String("path", c.Path()),
			logging.Int("status", status),
			logging.Duration("latency", took),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}

		if m != nil {
			m.ObserveRequest(c.Method(), route, status, took)
		}
		return err
	}
}
