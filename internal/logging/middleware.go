package logging

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const ctxLoggerKey = "logger"

// Middleware stores a request-scoped logger (with the request id set by the
// requestid middleware) and logs every request once it completes.
func Middleware(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLogger := base.With(zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)))
		c.Locals(ctxLoggerKey, reqLogger)

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		switch {
		case status >= 500:
			reqLogger.Error("request failed", append(fields, zap.Error(err))...)
		case status >= 400:
			reqLogger.Info("request rejected", fields...)
		default:
			reqLogger.Debug("request", fields...)
		}
		return err
	}
}

// FromCtx returns the request logger, or a no-op logger outside Middleware.
func FromCtx(c *fiber.Ctx) *zap.Logger {
	if l, ok := c.Locals(ctxLoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
