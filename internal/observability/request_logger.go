package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ActorIDFunc extracts the caller id of a request, if any.
type ActorIDFunc func(c *fiber.Ctx) string

// RequestLogger logs one line per request and feeds the request counters.
// The route template, not the raw path, labels the counters.
func RequestLogger(logger *zap.Logger, metrics *Metrics, actorID ActorIDFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		metrics.RecordRequest(route, c.Method(), status, latency)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.IP()),
		}
		if actorID != nil {
			if id := actorID(c); id != "" {
				fields = append(fields, zap.String("actor_id", id))
			}
		}
		if spanCtx := trace.SpanContextFromContext(c.UserContext()); spanCtx.IsValid() {
			fields = append(fields, zap.String("trace_id", spanCtx.TraceID().String()))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}
