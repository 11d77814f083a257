package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-ide-api/internal/dto"
	"github.com/noah-isme/gema-ide-api/internal/models"
	"github.com/noah-isme/gema-ide-api/internal/repository"
)

// ErrTokenNotRevocable indicates the token carries no jti to revoke.
var ErrTokenNotRevocable = errors.New("token has no identifier")

const defaultRevocationTTL = 24 * time.Hour

// Identity is the caller as described by a verified token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// AuthService answers identity questions and revokes tokens on sign-out.
type AuthService interface {
	Me(ctx context.Context, identity Identity) (dto.MeResponse, error)
	SignOut(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	IsAdmin(ctx context.Context, userID, claimRole string) (bool, error)
}

type authService struct {
	profiles repository.ProfileRepository
	redis    *redis.Client
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAuthService constructs the identity service. A nil redis client disables revocation.
func NewAuthService(profiles repository.ProfileRepository, redisClient *redis.Client, logger zerolog.Logger) AuthService {
	return &authService{
		profiles: profiles,
		redis:    redisClient,
		logger:   logger.With().Str("component", "auth_service").Logger(),
		now:      time.Now,
	}
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("ide:auth:revoked:%s", tokenID)
}

func (s *authService) Me(ctx context.Context, identity Identity) (dto.MeResponse, error) {
	var profile *models.Profile
	stored, err := s.profiles.GetByUserID(ctx, identity.UserID)
	switch {
	case err == nil:
		profile = &stored
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return dto.MeResponse{}, err
	}

	isAdmin, err := s.IsAdmin(ctx, identity.UserID, identity.Role)
	if err != nil {
		return dto.MeResponse{}, err
	}

	return dto.NewMeResponse(identity.UserID, identity.Email, profile, isAdmin), nil
}

func (s *authService) SignOut(ctx context.Context, tokenID string, expiresAt time.Time) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return ErrTokenNotRevocable
	}
	if s.redis == nil {
		return nil
	}

	ttl := defaultRevocationTTL
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info().Str("token_id", tokenID).Dur("ttl", ttl).Msg("token revoked")
	return nil
}

func (s *authService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.redis == nil || tokenID == "" {
		return false, nil
	}
	count, err := s.redis.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}
	return count > 0, nil
}

func (s *authService) IsAdmin(ctx context.Context, userID, claimRole string) (bool, error) {
	if strings.EqualFold(strings.TrimSpace(claimRole), models.RoleAdmin) {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}
	return s.profiles.HasRole(ctx, userID, models.RoleAdmin)
}
