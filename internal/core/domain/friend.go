package domain

import "github.com/shopspring/decimal"

// Friend represents a person the owner shares expenses with.
// Balance is signed: positive means the friend owes the owner,
// negative means the owner owes the friend.
type Friend struct {
	FriendID     string          `json:"friendID"`
	Name         string          `json:"name"`
	Email        string          `json:"email,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	AvatarURL    string          `json:"avatarURL,omitempty"`
	LinkedUserID string          `json:"linkedUserID,omitempty"` // Set when the friend is a registered user
	Balance      decimal.Decimal `json:"balance"`
	AuditFields
}
