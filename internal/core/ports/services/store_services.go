package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
	"github.com/splittyhq/splitty_backend/internal/dto"
)

// StoreSvcFacade is the repository/state container: it owns the
// canonical in-memory collections and exposes the mutation entry points
// that compose the ledger engine with the sync coordinator. All entry
// points are synchronous with respect to local state; the remote mirror
// happens asynchronously behind them.
type StoreSvcFacade interface {
	AddExpense(ctx context.Context, req dto.CreateExpenseRequest) (*domain.Expense, error)
	EditExpense(ctx context.Context, expenseID string, req dto.CreateExpenseRequest) (*domain.Expense, error)
	// DeleteExpense is idempotent: deleting an absent ID is a no-op.
	DeleteExpense(ctx context.Context, expenseID string) error
	GetExpense(ctx context.Context, expenseID string) (*domain.Expense, error)
	ListExpenses(ctx context.Context) []domain.Expense
	// ListExpensesForFriend returns the expenses the friend paid for or
	// participated in, newest first.
	ListExpensesForFriend(ctx context.Context, friendID string) ([]domain.Expense, error)

	AddFriend(ctx context.Context, req dto.CreateFriendRequest) (*domain.Friend, error)
	EditFriend(ctx context.Context, friendID string, req dto.UpdateFriendRequest) (*domain.Friend, error)
	DeleteFriend(ctx context.Context, friendID string) error
	GetFriend(ctx context.Context, friendID string) (*domain.Friend, error)
	ListFriends(ctx context.Context) []domain.Friend

	AddGroup(ctx context.Context, req dto.CreateGroupRequest) (*domain.Group, error)
	EditGroup(ctx context.Context, groupID string, req dto.UpdateGroupRequest) (*domain.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	GetGroup(ctx context.Context, groupID string) (*domain.Group, error)
	ListGroups(ctx context.Context) []domain.Group

	// SettleUp synthesizes a two-party unequal-split settlement expense
	// through AddExpense.
	SettleUp(ctx context.Context, req dto.CreateSettlementRequest) (*domain.Expense, error)

	AddRecurringExpense(ctx context.Context, req dto.CreateRecurringRequest) (*domain.RecurringExpense, error)
	DeleteRecurringExpense(ctx context.Context, recurringID string) error
	ListRecurringExpenses(ctx context.Context) []domain.RecurringExpense
	// CheckRecurringExpenses runs one scheduler tick, materializing due
	// templates through AddExpense, and returns the count materialized.
	CheckRecurringExpenses(ctx context.Context) (int, error)

	GetProfile(ctx context.Context) domain.UserProfile
	UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*domain.UserProfile, error)

	Summary(ctx context.Context) dto.SummaryResponse

	FormatCurrency(amount decimal.Decimal) string
	CurrencySymbol() string
}
