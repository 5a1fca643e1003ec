package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// CreateGroupRequest creates a group over existing friend IDs. The
// owner is an implicit member and never listed.
type CreateGroupRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members" binding:"required,min=1"`
}

// UpdateGroupRequest replaces a group's name and membership.
type UpdateGroupRequest struct {
	Name    string   `json:"name" binding:"required"`
	Members []string `json:"members" binding:"required,min=1"`
}

// GroupResponse is the API representation of a group.
type GroupResponse struct {
	GroupID          string          `json:"groupID"`
	Name             string          `json:"name"`
	Members          []string        `json:"members"`
	Balance          decimal.Decimal `json:"balance"`
	FormattedBalance string          `json:"formattedBalance"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// ToGroupResponse converts a domain.Group.
func ToGroupResponse(g *domain.Group, formattedBalance string) GroupResponse {
	return GroupResponse{
		GroupID:          g.GroupID,
		Name:             g.Name,
		Members:          g.Members,
		Balance:          g.Balance,
		FormattedBalance: formattedBalance,
		CreatedAt:        g.CreatedAt,
	}
}
