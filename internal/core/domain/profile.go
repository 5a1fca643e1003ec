package domain

// UserProfile is the owner's own identity. The owner participates in
// every expense as SelfID.
type UserProfile struct {
	UserID          string `json:"userID"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	AvatarURL       string `json:"avatarURL,omitempty"`
	DefaultCurrency string `json:"defaultCurrency"`
	AuditFields
}
