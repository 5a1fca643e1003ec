// Package repositories defines the contract the core expects from the
// remote persistence API. The remote is the source of truth the sync
// coordinator reconciles against; the core never reaches it directly.
package repositories

import (
	"context"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// FriendRepository persists friend rows, including their running balance
// column.
type FriendRepository interface {
	// ListFriends retrieves all friends owned by ownerID.
	ListFriends(ctx context.Context, ownerID string) ([]domain.Friend, error)

	// SaveFriend upserts one friend row.
	SaveFriend(ctx context.Context, ownerID string, friend domain.Friend) error

	// DeleteFriend removes one friend row. Deleting an absent row is not an error.
	DeleteFriend(ctx context.Context, ownerID string, friendID string) error
}

// GroupRepository persists group rows and their membership join table.
type GroupRepository interface {
	ListGroups(ctx context.Context, ownerID string) ([]domain.Group, error)

	// SaveGroup upserts the group row and replaces its member set atomically.
	SaveGroup(ctx context.Context, ownerID string, group domain.Group) error

	DeleteGroup(ctx context.Context, ownerID string, groupID string) error
}

// ExpenseRepository persists expense rows. Saves and deletes carry the
// friend/group rows whose balances the ledger engine touched, so the
// expense and its balance effect land in one remote transaction.
type ExpenseRepository interface {
	ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error)

	SaveExpense(ctx context.Context, ownerID string, expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group) error

	DeleteExpense(ctx context.Context, ownerID string, expenseID string, touchedFriends []domain.Friend, touchedGroups []domain.Group) error
}

// RecurringRepository persists recurring expense templates.
type RecurringRepository interface {
	ListRecurring(ctx context.Context, ownerID string) ([]domain.RecurringExpense, error)

	SaveRecurring(ctx context.Context, ownerID string, template domain.RecurringExpense) error

	DeleteRecurring(ctx context.Context, ownerID string, recurringID string) error
}

// ProfileRepository reads and writes the owner's profile and resolves
// registered users by contact detail (the lookup RPCs).
type ProfileRepository interface {
	FindProfileByID(ctx context.Context, userID string) (*domain.UserProfile, error)

	// FindCredentialsByEmail returns the user ID and bcrypt password hash
	// for a registered email. Returns apperrors.ErrNotFound when absent.
	FindCredentialsByEmail(ctx context.Context, email string) (string, string, error)

	SaveProfile(ctx context.Context, profile domain.UserProfile) error

	// LookupUserByEmail resolves a registered user by email (lookup_user_by_email).
	LookupUserByEmail(ctx context.Context, email string) (*domain.UserProfile, error)

	// LookupUserByPhone resolves a registered user by phone (lookup_user_by_phone).
	LookupUserByPhone(ctx context.Context, phone string) (*domain.UserProfile, error)
}

// ActivityRepository writes and lists the audit trail. The core only
// ever reads it for display; writes happen on the sync path.
type ActivityRepository interface {
	InsertActivity(ctx context.Context, ownerID string, entry domain.ActivityLog) error

	// ListActivity returns entries newest first with token pagination.
	ListActivity(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.ActivityLog, *string, error)
}

// Remote combines every table repository into the persistence API facade
// the sync coordinator consumes.
type Remote interface {
	FriendRepository
	GroupRepository
	ExpenseRepository
	RecurringRepository
	ProfileRepository
	ActivityRepository
}
