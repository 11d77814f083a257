package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-ide-api/internal/utils"
)

// Auth role constants used by WithAuth helper.
const (
	AuthRoleAny   = "any"
	AuthRoleAdmin = "admin"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
	Admin       AdminResolver
}

// WithAuth wraps a handler with authentication and authorization guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser || role != AuthRoleAny

	return func(c *fiber.Ctx) error {
		if requireUser && UserID(c) == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		switch role {
		case AuthRoleAny:
			return handler(c)
		case AuthRoleAdmin:
			if status, message, ok := authorizeAdmin(c, opts.Admin); !ok {
				return utils.Fail(c, status, message, nil)
			}
			return handler(c)
		default:
			if UserRole(c) != role {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
			return handler(c)
		}
	}
}
