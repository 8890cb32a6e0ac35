package httpserver

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/infrastructure/metrics"
)

// requestLogger stamps every admin HTTP request with a correlation id and
// logs it, so an operator can match a request to its log lines even
// though the admin surface carries no client-supplied id of its own.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		correlationID := entity.NewID().String()
		c.Set("X-Request-Id", correlationID)

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)
		status := c.Response().StatusCode()

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}
		event.
			Str("correlation_id", correlationID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", duration).
			Str("ip", c.IP()).
			Msg("admin http request")
		return err
	}
}

// prometheusMiddleware records per-request Prometheus metrics.
func prometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path

		metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(duration)
		return err
	}
}
