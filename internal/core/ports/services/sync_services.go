package services

import (
	"context"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// ActivityNote carries the write-time rendered audit entry that
// accompanies a mutation to the remote. Descriptions are generated from
// the action templates when the mutation is submitted, never
// reconstructed later.
type ActivityNote struct {
	EntityType domain.EntityType
	EntityID   string
	Action     domain.ActivityAction
	Subject    string
	Amount     string // already formatted for display; empty when non-monetary
}

// SyncSvcFacade is the sync coordinator: it mirrors local optimistic
// mutations to the remote persistence API (fire and forget), performs
// the authoritative full refetch, and reacts to change-feed events.
type SyncSvcFacade interface {
	// Start opens the change-feed subscriptions and begins dispatching
	// events until ctx is cancelled.
	Start(ctx context.Context) error

	// Refetch replaces the local collections wholesale from the remote.
	Refetch(ctx context.Context) error

	// Submit* mirror a committed local mutation to the remote. They return
	// immediately; failures are logged and never propagated (the local
	// state stays committed and diverges until the next refetch).
	SubmitExpenseSave(expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group, note ActivityNote)
	// SubmitExpenseEdit additionally triggers an unconditional full
	// refetch once the remote update completes, success or fail.
	SubmitExpenseEdit(expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group, note ActivityNote)
	SubmitExpenseDelete(expenseID string, touchedFriends []domain.Friend, touchedGroups []domain.Group, note ActivityNote)
	SubmitFriendSave(friend domain.Friend, note ActivityNote)
	SubmitFriendDelete(friendID string, note ActivityNote)
	SubmitGroupSave(group domain.Group, note ActivityNote)
	SubmitGroupDelete(groupID string, note ActivityNote)
	SubmitRecurringSave(template domain.RecurringExpense, note ActivityNote)
	SubmitRecurringDelete(recurringID string, note ActivityNote)
	SubmitProfileSave(profile domain.UserProfile)

	// LookupUser resolves a registered user by email or phone through the
	// remote lookup RPCs. Returns apperrors.ErrNotFound when no account
	// matches.
	LookupUser(ctx context.Context, email, phone string) (*domain.UserProfile, error)

	// ListActivity reads the remote audit trail newest first with token
	// pagination. The trail lives only on the remote; there is no local copy.
	ListActivity(ctx context.Context, limit int, nextToken *string) ([]domain.ActivityLog, *string, error)
}

// LocalStore is the narrow view of the state container the sync
// coordinator writes back into.
type LocalStore interface {
	// ReplaceAll overwrites the local collections with the authoritative
	// remote state (the Full-Refetch commit).
	ReplaceAll(friends []domain.Friend, groups []domain.Group, expenses []domain.Expense, recurring []domain.RecurringExpense, profile *domain.UserProfile)

	// RemoveEntity drops one entity from the named local collection
	// without any balance recompute (remote-originated DELETE handling).
	RemoveEntity(table string, entityID string)
}

// ChangeFeed is the external event source delivering row-change signals
// for remote tables visible to the current identity.
type ChangeFeed interface {
	// Subscribe registers a handler for one table's events and returns an
	// unsubscribe func.
	Subscribe(table string, handler func(domain.ChangeEvent)) func()

	// Run blocks servicing the feed connection until ctx is cancelled.
	Run(ctx context.Context) error
}

// Notifier is the best-effort local notification sink. Implementations
// must never block or fail the caller.
type Notifier interface {
	Notify(ctx context.Context, title, body string)
}
