package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/sbhdesk/complaint-engine/pkg/util"
)

// RequireAuthenticated ensures a staff principal is loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireAdministrative ensures the principal holds an administrative
// role.
func RequireAdministrative() fiber.Handler {
	return func(c *fiber.Ctx) error {
		member, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !member.Role.IsAdministrative() {
			return apperrors.NewForbidden("administrative role required")
		}
		return c.Next()
	}
}
