package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vivahealthmed/foundation-site/internal/pkg/env"
	"github.com/vivahealthmed/foundation-site/internal/pkg/security"
	"github.com/vivahealthmed/foundation-site/internal/pkg/session"
)

// RequireAdminToken gates the admin reconciliation API. It accepts the
// signed token issued by the verify-password endpoint via Authorization
// bearer header or X-Admin-Token, and returns JSON 401 instead of a
// redirect.
func RequireAdminToken(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Get("X-Admin-Token"))
	if token == "" {
		auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			token = strings.TrimSpace(auth[len("bearer "):])
		}
	}
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "admin token required",
		})
	}

	secret := env.GetEnv("ADMIN_TOKEN_SECRET", "")
	if _, err := security.VerifyAdminToken(token, secret); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "invalid or expired admin token",
		})
	}
	return c.Next()
}

// RequireAdminSession gates the server-rendered admin pages; it redirects
// to the admin login instead of returning JSON.
func RequireAdminSession(c *fiber.Ctx) error {
	if session.GetSessionValue(c, "is_admin") != "true" {
		return c.Redirect("/admin/login", fiber.StatusSeeOther)
	}
	return c.Next()
}
