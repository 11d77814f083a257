package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-ide-api/internal/models"
)

// ProfileRepository reads user profiles and role grants.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (models.Profile, error)
	HasRole(ctx context.Context, userID, role string) (bool, error)
}

// NewProfileRepository constructs a profile repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

type profileRepository struct {
	db *gorm.DB
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

func (r *profileRepository) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", userID, strings.ToLower(strings.TrimSpace(role))).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
