package dto

import (
	"encoding/json"
	"time"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// ListActivityParams holds pagination parameters for the activity feed.
type ListActivityParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ActivityResponse is one audit-trail entry.
type ActivityResponse struct {
	ActivityID  string          `json:"activityID"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityID"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ListActivityResponse is a page of audit-trail entries.
type ListActivityResponse struct {
	Entries   []ActivityResponse `json:"entries"`
	NextToken *string            `json:"nextToken,omitempty"`
}

// ToActivityResponses converts domain entries to their API shape.
func ToActivityResponses(entries []domain.ActivityLog) []ActivityResponse {
	responses := make([]ActivityResponse, len(entries))
	for i, e := range entries {
		responses[i] = ActivityResponse{
			ActivityID:  e.ActivityID,
			EntityType:  string(e.EntityType),
			EntityID:    e.EntityID,
			Action:      string(e.Action),
			Description: e.Description,
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt,
		}
	}
	return responses
}
