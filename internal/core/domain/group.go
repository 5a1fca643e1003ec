package domain

import "github.com/shopspring/decimal"

// Group represents a named circle of friends sharing expenses.
// Members lists friend IDs only; the owner is an implicit member.
// Balance is the owner's net position across all group expenses,
// signed like Friend.Balance (positive = owed to the owner).
type Group struct {
	GroupID string          `json:"groupID"`
	Name    string          `json:"name"`
	Members []string        `json:"members"`
	Balance decimal.Decimal `json:"balance"`
	AuditFields
}

// HasMember reports whether friendID is an explicit member of the group.
func (g Group) HasMember(friendID string) bool {
	for _, m := range g.Members {
		if m == friendID {
			return true
		}
	}
	return false
}
