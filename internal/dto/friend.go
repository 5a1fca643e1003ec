package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// CreateFriendRequest adds a friend. Email or phone, when supplied, is
// resolved against registered users via the lookup RPCs to link the
// friend to an existing account.
type CreateFriendRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

// UpdateFriendRequest edits a friend's display fields. Balances are
// never edited directly; only ledger operations move them.
type UpdateFriendRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatarURL"`
}

// FriendResponse is the API representation of a friend.
type FriendResponse struct {
	FriendID         string          `json:"friendID"`
	Name             string          `json:"name"`
	Email            string          `json:"email,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	AvatarURL        string          `json:"avatarURL,omitempty"`
	LinkedUserID     string          `json:"linkedUserID,omitempty"`
	Balance          decimal.Decimal `json:"balance"`
	FormattedBalance string          `json:"formattedBalance"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ToFriendResponse converts a domain.Friend; formattedBalance is
// rendered with the owner's display currency.
func ToFriendResponse(f *domain.Friend, formattedBalance string) FriendResponse {
	return FriendResponse{
		FriendID:         f.FriendID,
		Name:             f.Name,
		Email:            f.Email,
		Phone:            f.Phone,
		AvatarURL:        f.AvatarURL,
		LinkedUserID:     f.LinkedUserID,
		Balance:          f.Balance,
		FormattedBalance: formattedBalance,
		CreatedAt:        f.CreatedAt,
	}
}
