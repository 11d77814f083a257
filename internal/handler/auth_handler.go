package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-ide-api/internal/middleware"
	"github.com/noah-isme/gema-ide-api/internal/service"
	"github.com/noah-isme/gema-ide-api/internal/utils"
)

// AuthHandler exposes identity endpoints for the signed-in user.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register binds identity routes behind the given guards.
func (h *AuthHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/me", guarded(guards, h.me)...)
	router.Post("/auth/sign-out", guarded(guards, h.signOut)...)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	identity := service.Identity{
		UserID: middleware.UserID(c),
		Email:  middleware.UserEmail(c),
		Role:   middleware.UserRole(c),
	}
	if identity.UserID == "" {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	me, err := h.service.Me(requestContext(c), identity)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Str("user_id", identity.UserID).Msg("failed to load profile")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load profile")
	}
	return utils.SendSuccess(c, "profile retrieved", me)
}

func (h *AuthHandler) signOut(c *fiber.Ctx) error {
	err := h.service.SignOut(requestContext(c), middleware.TokenID(c), middleware.TokenExpiry(c))
	switch {
	case err == nil:
		return utils.SendSuccess(c, "signed out", nil)
	case errors.Is(err, service.ErrTokenNotRevocable):
		return utils.SendError(c, fiber.StatusBadRequest, "token cannot be revoked")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to revoke token")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "failed to sign out")
	}
}
