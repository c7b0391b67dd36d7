package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Recovery turns a panicking handler into a 500 response. The body carries
// the request id so a moderator can quote it when reporting the failure.
func Recovery(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			logger.Error("panic recovered", append([]zap.Field{
				zap.Error(fmt.Errorf("panic: %v", r)),
				zap.ByteString("stack", debug.Stack()),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			}, requestFields(c)...)...)

			body := fiber.Map{"error": "internal server error"}
			if rid, ok := c.Locals(RequestIDKey).(string); ok {
				body["request_id"] = rid
			}
			err = c.Status(fiber.StatusInternalServerError).JSON(body)
		}()

		return c.Next()
	}
}
