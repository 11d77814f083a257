package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-ide-api/internal/utils"
)

// AdminResolver decides whether a user holds the admin role.
type AdminResolver interface {
	IsAdmin(ctx context.Context, userID, claimRole string) (bool, error)
}

// RequireAdmin lets the request through only for admins. The role claim is
// trusted first and the resolver is consulted otherwise.
func RequireAdmin(resolver AdminResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if status, message, ok := authorizeAdmin(c, resolver); !ok {
			return utils.Fail(c, status, message, nil)
		}
		return c.Next()
	}
}

func authorizeAdmin(c *fiber.Ctx, resolver AdminResolver) (int, string, bool) {
	userID := UserID(c)
	if userID == "" {
		return fiber.StatusUnauthorized, "authentication required", false
	}

	role := strings.ToLower(strings.TrimSpace(UserRole(c)))
	if role == AuthRoleAdmin {
		return 0, "", true
	}
	if resolver == nil {
		return fiber.StatusForbidden, "insufficient permissions", false
	}

	isAdmin, err := resolver.IsAdmin(c.UserContext(), userID, role)
	if err != nil {
		return fiber.StatusServiceUnavailable, "unable to resolve permissions", false
	}
	if !isAdmin {
		return fiber.StatusForbidden, "insufficient permissions", false
	}
	return 0, "", true
}
