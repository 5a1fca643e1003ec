package domain

import "time"

// SelfID is the reserved participant identifier for the account owner.
// The owner is an implicit member of every expense's participant circle
// and is never stored as a Friend row.
const SelfID = "self"

// AuditFields holds standard audit information for persisted entities.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
