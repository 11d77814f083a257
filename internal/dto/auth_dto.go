package dto

import "github.com/noah-isme/gema-ide-api/internal/models"

// MeResponse describes the authenticated caller.
type MeResponse struct {
	UserID      string  `json:"user_id"`
	Email       string  `json:"email,omitempty"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	IsAdmin     bool    `json:"is_admin"`
}

// NewMeResponse merges a stored profile with token identity.
func NewMeResponse(userID, email string, profile *models.Profile, isAdmin bool) MeResponse {
	response := MeResponse{UserID: userID, Email: email, IsAdmin: isAdmin}
	if profile != nil {
		response.DisplayName = profile.DisplayName
		response.AvatarURL = profile.AvatarURL
	}
	return response
}
