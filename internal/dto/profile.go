package dto

import "github.com/splittyhq/splitty_backend/internal/core/domain"

// UpdateProfileRequest edits the owner's profile fields. Nil fields are
// left untouched.
type UpdateProfileRequest struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	AvatarURL       *string `json:"avatarURL"`
	DefaultCurrency *string `json:"defaultCurrency" binding:"omitempty,currency"`
}

// ProfileResponse is the API representation of the owner's profile.
type ProfileResponse struct {
	UserID          string `json:"userID"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	AvatarURL       string `json:"avatarURL,omitempty"`
	DefaultCurrency string `json:"defaultCurrency"`
	CurrencySymbol  string `json:"currencySymbol"`
}

// ToProfileResponse converts a domain.UserProfile.
func ToProfileResponse(p *domain.UserProfile, currencySymbol string) ProfileResponse {
	return ProfileResponse{
		UserID:          p.UserID,
		Name:            p.Name,
		Email:           p.Email,
		Phone:           p.Phone,
		AvatarURL:       p.AvatarURL,
		DefaultCurrency: p.DefaultCurrency,
		CurrencySymbol:  currencySymbol,
	}
}
