package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// healthPaths are hit by orchestrators every few seconds.
var healthPaths = map[string]struct{}{
	"/health": {},
	"/ready":  {},
}

// Logger writes one access line per request. Health check traffic is logged at
// debug level unless it fails.
func Logger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()

		level := zapcore.InfoLevel
		msg := "request"
		switch {
		case err != nil:
			level, msg = zapcore.ErrorLevel, "request error"
		case status >= fiber.StatusInternalServerError:
			level, msg = zapcore.WarnLevel, "request failed"
		default:
			if _, health := healthPaths[c.Path()]; health {
				level = zapcore.DebugLevel
			}
		}

		ce := logger.Check(level, msg)
		if ce == nil {
			return err
		}

		fields := append([]zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get(fiber.HeaderUserAgent)),
		}, requestFields(c)...)
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		ce.Write(fields...)
		return err
	}
}
