package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	corsAllowHeaders = strings.Join([]string{
		fiber.HeaderOrigin,
		fiber.HeaderContentType,
		fiber.HeaderAccept,
		fiber.HeaderAuthorization,
		UserEmailHeader,
		RequestIDHeader,
	}, ", ")

	corsExposeHeaders = strings.Join([]string{
		fiber.HeaderContentLength,
		fiber.HeaderContentType,
		RequestIDHeader,
		"X-Upload-Failures",
		"X-RateLimit-Remaining",
	}, ", ")
)

// CORS lets the console front end call the API from the listed origins.
// With no origins every origin is allowed.
func CORS(origins ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[strings.ToLower(o)] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)

		switch {
		case len(allowed) == 0:
			c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
		case origin != "":
			c.Vary(fiber.HeaderOrigin)
			if _, ok := allowed[strings.ToLower(origin)]; !ok {
				if c.Method() == fiber.MethodOptions {
					return c.SendStatus(fiber.StatusForbidden)
				}
				return c.Next()
			}
			c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		}

		c.Set(fiber.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		c.Set(fiber.HeaderAccessControlExposeHeaders, corsExposeHeaders)
		c.Set(fiber.HeaderAccessControlMaxAge, "86400")

		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
