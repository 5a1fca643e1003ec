package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EntityType identifies the collection an activity entry refers to.
type EntityType string

const (
	EntityExpense   EntityType = "expense"
	EntityFriend    EntityType = "friend"
	EntityGroup     EntityType = "group"
	EntityRecurring EntityType = "recurring_expense"
	EntityProfile   EntityType = "profile"
)

// ActivityAction enumerates the audit-trail actions. Descriptions are
// rendered from these at write time; nothing ever parses a description
// string back.
type ActivityAction string

const (
	ActionExpenseCreated    ActivityAction = "expense.created"
	ActionExpenseUpdated    ActivityAction = "expense.updated"
	ActionExpenseDeleted    ActivityAction = "expense.deleted"
	ActionSettlementCreated ActivityAction = "settlement.recorded"
	ActionFriendAdded       ActivityAction = "friend.added"
	ActionFriendUpdated     ActivityAction = "friend.updated"
	ActionFriendRemoved     ActivityAction = "friend.removed"
	ActionGroupCreated      ActivityAction = "group.created"
	ActionGroupUpdated      ActivityAction = "group.updated"
	ActionGroupDeleted      ActivityAction = "group.deleted"
	ActionRecurringCreated  ActivityAction = "recurring.created"
	ActionRecurringDeleted  ActivityAction = "recurring.deleted"
	ActionProfileUpdated    ActivityAction = "profile.updated"
)

// ActivityLog is a read-only audit entry. The core consumes it for
// display and writes entries only through the sync path, never locally.
type ActivityLog struct {
	ActivityID  string          `json:"activityID"`
	EntityType  EntityType      `json:"entityType"`
	EntityID    string          `json:"entityID"`
	Action      ActivityAction  `json:"action"`
	Description string          `json:"description"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// RenderActivityDescription produces the display description for an
// action from its subject name and formatted amount. Amount may be empty
// for actions without a monetary component.
func RenderActivityDescription(action ActivityAction, subject, amount string) string {
	switch action {
	case ActionExpenseCreated:
		return fmt.Sprintf("Added expense %q for %s", subject, amount)
	case ActionExpenseUpdated:
		return fmt.Sprintf("Updated expense %q to %s", subject, amount)
	case ActionExpenseDeleted:
		return fmt.Sprintf("Deleted expense %q", subject)
	case ActionSettlementCreated:
		return fmt.Sprintf("Recorded settlement of %s with %s", amount, subject)
	case ActionFriendAdded:
		return fmt.Sprintf("Added friend %s", subject)
	case ActionFriendUpdated:
		return fmt.Sprintf("Updated friend %s", subject)
	case ActionFriendRemoved:
		return fmt.Sprintf("Removed friend %s", subject)
	case ActionGroupCreated:
		return fmt.Sprintf("Created group %q", subject)
	case ActionGroupUpdated:
		return fmt.Sprintf("Updated group %q", subject)
	case ActionGroupDeleted:
		return fmt.Sprintf("Deleted group %q", subject)
	case ActionRecurringCreated:
		return fmt.Sprintf("Added recurring expense %q for %s", subject, amount)
	case ActionRecurringDeleted:
		return fmt.Sprintf("Deleted recurring expense %q", subject)
	case ActionProfileUpdated:
		return "Updated profile"
	default:
		return string(action)
	}
}
