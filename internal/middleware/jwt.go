package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-ide-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalUserID    = "user_id"
	LocalUserRole  = "user_role"
	LocalUserEmail = "user_email"
	LocalTokenID   = "token_id"
	LocalTokenExp  = "token_expires_at"
)

// RevocationChecker reports whether a token id has been signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTProtected returns a middleware that validates JWT bearer tokens. A nil
// checker skips the revocation lookup.
func JWTProtected(secret string, revocations RevocationChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID := extractUserIDFromClaims(claims)
		if userID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token subject missing")
		}

		tokenID, _ := claims["jti"].(string)
		if tokenID != "" && revocations != nil {
			revoked, err := revocations.IsRevoked(c.UserContext(), tokenID)
			if err != nil {
				return utils.SendError(c, fiber.StatusServiceUnavailable, "unable to verify token")
			}
			if revoked {
				return utils.SendError(c, fiber.StatusUnauthorized, "token revoked")
			}
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalTokenID, tokenID)
		if role := extractUserRoleFromClaims(claims); role != "" {
			c.Locals(LocalUserRole, role)
		}
		if email, ok := claims["email"].(string); ok {
			c.Locals(LocalUserEmail, strings.TrimSpace(email))
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			c.Locals(LocalTokenExp, exp.Time)
		}

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	const bearer = "bearer "
	authorization := c.Get(fiber.HeaderAuthorization)
	if len(authorization) > len(bearer) && strings.EqualFold(authorization[:len(bearer)], bearer) {
		if token := strings.TrimSpace(authorization[len(bearer):]); token != "" {
			return token, true
		}
	}
	// Browsers cannot set headers on websocket upgrades or EventSource requests.
	if token := strings.TrimSpace(c.Query("access_token")); token != "" {
		return token, true
	}
	return "", false
}

func extractUserIDFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "user_id", "id"} {
		switch v := claims[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			if v >= 0 {
				return fmt.Sprintf("%.0f", v)
			}
		}
	}
	return ""
}

func extractUserRoleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles", "app_role"} {
		if value, ok := claims[key]; ok {
			if role := normalizeRole(value); role != "" {
				return role
			}
		}
	}
	return ""
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
					return role
				}
			}
		}
	}
	return ""
}

// UserID returns the authenticated subject.
func UserID(c *fiber.Ctx) string {
	value, _ := c.Locals(LocalUserID).(string)
	return value
}

// UserRole returns the role claim of the authenticated subject.
func UserRole(c *fiber.Ctx) string {
	value, _ := c.Locals(LocalUserRole).(string)
	return value
}

// UserEmail returns the email claim, if any.
func UserEmail(c *fiber.Ctx) string {
	value, _ := c.Locals(LocalUserEmail).(string)
	return value
}

// TokenID returns the jti of the presented token.
func TokenID(c *fiber.Ctx) string {
	value, _ := c.Locals(LocalTokenID).(string)
	return value
}

// TokenExpiry returns the expiry of the presented token, or the zero time.
func TokenExpiry(c *fiber.Ctx) time.Time {
	value, _ := c.Locals(LocalTokenExp).(time.Time)
	return value
}
