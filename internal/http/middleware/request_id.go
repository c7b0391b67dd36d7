package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"

	maxRequestIDLen = 64
)

// RequestID tags every request with an id, reusing the caller's one when it
// is short printable ASCII so it can go into logs and error bodies as is.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(RequestIDHeader)
		if !usableRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(RequestIDHeader, rid)
		c.Locals(RequestIDKey, rid)
		return c.Next()
	}
}

func usableRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		if rid[i] < 0x21 || rid[i] > 0x7e {
			return false
		}
	}
	return true
}

// requestFields returns what earlier middleware learned about the caller.
func requestFields(c *fiber.Ctx) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if rid, ok := c.Locals(RequestIDKey).(string); ok {
		fields = append(fields, zap.String("request_id", rid))
	}
	if email, ok := c.Locals(UserEmailKey).(string); ok {
		fields = append(fields, zap.String("user", email))
	}
	return fields
}
