package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

const (
	// UserEmailHeader carries the authenticated email, set by the auth proxy in front of the console.
	UserEmailHeader = "X-User-Email"
	// UserEmailKey is the fiber.Locals key holding the accepted email.
	UserEmailKey = "user_email"
)

// AuthObserver is told about every accepted email.
type AuthObserver interface {
	Authenticated(ctx context.Context, email string)
}

// AllowList only lets through requests whose UserEmailHeader is in emails.
// An empty list disables the check. Observers run before the next handler.
func AllowList(emails []string, logger *zap.Logger, observers ...AuthObserver) fiber.Handler {
	allowed := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			allowed[e] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		email := utils.CopyString(strings.ToLower(strings.TrimSpace(c.Get(UserEmailHeader))))
		if len(allowed) == 0 {
			if email != "" {
				accept(c, email, observers)
			}
			return c.Next()
		}

		if email == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		if _, ok := allowed[email]; !ok {
			logger.Warn("access denied", zap.String("email", email), zap.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "access denied",
			})
		}

		accept(c, email, observers)
		return c.Next()
	}
}

func accept(c *fiber.Ctx, email string, observers []AuthObserver) {
	c.Locals(UserEmailKey, email)
	for _, o := range observers {
		o.Authenticated(c.UserContext(), email)
	}
}
