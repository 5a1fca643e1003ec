package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/splittyhq/splitty_backend/internal/adapters/snapshot"
	"github.com/splittyhq/splitty_backend/internal/apperrors"
	"github.com/splittyhq/splitty_backend/internal/core/domain"
	"github.com/splittyhq/splitty_backend/internal/core/ledger"
	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/core/services"
	"github.com/splittyhq/splitty_backend/internal/dto"
)

// --- Mock SyncSvcFacade ---
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSyncService) Refetch(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSyncService) SubmitExpenseSave(expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group, note portssvc.ActivityNote) {
	m.Called(expense, touchedFriends, touchedGroups, note)
}

func (m *MockSyncService) SubmitExpenseEdit(expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group, note portssvc.ActivityNote) {
	m.Called(expense, touchedFriends, touchedGroups, note)
}

func (m *MockSyncService) SubmitExpenseDelete(expenseID string, touchedFriends []domain.Friend, touchedGroups []domain.Group, note portssvc.ActivityNote) {
	m.Called(expenseID, touchedFriends, touchedGroups, note)
}

func (m *MockSyncService) SubmitFriendSave(friend domain.Friend, note portssvc.ActivityNote) {
	m.Called(friend, note)
}

func (m *MockSyncService) SubmitFriendDelete(friendID string, note portssvc.ActivityNote) {
	m.Called(friendID, note)
}

func (m *MockSyncService) SubmitGroupSave(group domain.Group, note portssvc.ActivityNote) {
	m.Called(group, note)
}

func (m *MockSyncService) SubmitGroupDelete(groupID string, note portssvc.ActivityNote) {
	m.Called(groupID, note)
}

func (m *MockSyncService) SubmitRecurringSave(template domain.RecurringExpense, note portssvc.ActivityNote) {
	m.Called(template, note)
}

func (m *MockSyncService) SubmitRecurringDelete(recurringID string, note portssvc.ActivityNote) {
	m.Called(recurringID, note)
}

func (m *MockSyncService) SubmitProfileSave(profile domain.UserProfile) {
	m.Called(profile)
}

func (m *MockSyncService) ListActivity(ctx context.Context, limit int, nextToken *string) ([]domain.ActivityLog, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	var entries []domain.ActivityLog
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.ActivityLog)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

func (m *MockSyncService) LookupUser(ctx context.Context, email, phone string) (*domain.UserProfile, error) {
	args := m.Called(ctx, email, phone)
	var profile *domain.UserProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*domain.UserProfile)
	}
	return profile, args.Error(1)
}

// --- Test Suite ---
type StoreServiceTestSuite struct {
	suite.Suite
	mockSync *MockSyncService
	store    *services.StoreService
	friendID string
	groupID  string
}

func (suite *StoreServiceTestSuite) SetupTest() {
	snap := snapshot.NewStore(suite.T().TempDir())
	suite.mockSync = new(MockSyncService)
	suite.store = services.NewStoreService(snap)
	suite.store.AttachSync(suite.mockSync)

	// Seed one friend and one group through the regular entry points.
	suite.mockSync.On("SubmitFriendSave", mock.Anything, mock.Anything).Return()
	suite.mockSync.On("SubmitGroupSave", mock.Anything, mock.Anything).Return()

	ctx := context.Background()
	friend, err := suite.store.AddFriend(ctx, dto.CreateFriendRequest{Name: "Alex"})
	suite.Require().NoError(err)
	suite.friendID = friend.FriendID

	group, err := suite.store.AddGroup(ctx, dto.CreateGroupRequest{Name: "Trip", Members: []string{friend.FriendID}})
	suite.Require().NoError(err)
	suite.groupID = group.GroupID
}

func (suite *StoreServiceTestSuite) friendBalance() decimal.Decimal {
	friend, err := suite.store.GetFriend(context.Background(), suite.friendID)
	suite.Require().NoError(err)
	return friend.Balance
}

// --- AddExpense ---

func (suite *StoreServiceTestSuite) TestAddExpense_EqualSplitUpdatesBalances() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()

	exp, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(exp)
	suite.NotEmpty(exp.ExpenseID)
	// 90 split across friend + self => friend owes 45.
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("45")))
	suite.mockSync.AssertExpectations(suite.T())
}

func (suite *StoreServiceTestSuite) TestAddExpense_GroupExpenseUpdatesGroupBalance() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()

	_, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Hotel",
		Amount:      decimal.RequireFromString("100"),
		PayerID:     domain.SelfID,
		GroupID:     suite.groupID,
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)

	group, err := suite.store.GetGroup(ctx, suite.groupID)
	suite.Require().NoError(err)
	// Owner paid 100, own share 50, so the group owes 50 back.
	suite.True(group.Balance.Equal(decimal.RequireFromString("50")))
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("50")))
}

func (suite *StoreServiceTestSuite) TestListExpensesForFriend_FiltersByParticipation() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	suite.mockSync.On("SubmitFriendSave", mock.Anything, mock.Anything).Return()

	other, err := suite.store.AddFriend(ctx, dto.CreateFriendRequest{Name: "Sam"})
	suite.Require().NoError(err)

	_, err = suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)
	_, err = suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Taxi",
		Amount:      decimal.RequireFromString("30"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{other.FriendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)

	shared, err := suite.store.ListExpensesForFriend(ctx, suite.friendID)
	suite.Require().NoError(err)
	suite.Require().Len(shared, 1)
	suite.Equal("Dinner", shared[0].Description)

	_, err = suite.store.ListExpensesForFriend(ctx, "nope")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *StoreServiceTestSuite) TestAddExpense_UnknownPayerRejected() {
	ctx := context.Background()

	_, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("10"),
		PayerID:     "nobody",
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})

	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
	suite.True(suite.friendBalance().IsZero())
	suite.mockSync.AssertNotCalled(suite.T(), "SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *StoreServiceTestSuite) TestAddExpense_SplitMismatchRejected() {
	ctx := context.Background()

	_, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("100"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitUnequal,
		SplitDetails: map[string]decimal.Decimal{
			suite.friendID: decimal.RequireFromString("60"),
			domain.SelfID:  decimal.RequireFromString("30"),
		},
	})

	suite.Require().ErrorIs(err, ledger.ErrSplitMismatch)
	suite.Empty(suite.store.ListExpenses(ctx))
}

// --- EditExpense ---

func (suite *StoreServiceTestSuite) TestEditExpense_ReversesOldAppliesNew() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()
	suite.mockSync.On("SubmitExpenseEdit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()

	exp, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("45")))

	_, err = suite.store.EditExpense(ctx, exp.ExpenseID, dto.CreateExpenseRequest{
		Description: "Dinner (corrected)",
		Amount:      decimal.RequireFromString("60"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)

	// The 45 from the old version is gone; only the new 30 remains.
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("30")))
	suite.mockSync.AssertExpectations(suite.T())
}

func (suite *StoreServiceTestSuite) TestEditExpense_InvalidReplacementLeavesOldIntact() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()

	exp, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)

	_, err = suite.store.EditExpense(ctx, exp.ExpenseID, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("-5"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})

	suite.Require().ErrorIs(err, ledger.ErrInvalidAmount)
	// Fail closed: the original expense and its effect survive untouched.
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("45")))
	got, err := suite.store.GetExpense(ctx, exp.ExpenseID)
	suite.Require().NoError(err)
	suite.True(got.Amount.Equal(decimal.RequireFromString("90")))
}

func (suite *StoreServiceTestSuite) TestEditExpense_UnknownIDReturnsNotFound() {
	_, err := suite.store.EditExpense(context.Background(), "missing", dto.CreateExpenseRequest{
		Description: "x",
		Amount:      decimal.RequireFromString("10"),
		PayerID:     domain.SelfID,
		SplitType:   domain.SplitEqual,
	})
	suite.Require().ErrorIs(err, apperrors.ErrNotFound)
}

// --- DeleteExpense ---

func (suite *StoreServiceTestSuite) TestDeleteExpense_ReversesAndIsIdempotent() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()
	suite.mockSync.On("SubmitExpenseDelete", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()

	exp, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)

	suite.Require().NoError(suite.store.DeleteExpense(ctx, exp.ExpenseID))
	suite.True(suite.friendBalance().IsZero())

	// Second delete of the same ID is a no-op, not an error, and does not
	// reverse twice.
	suite.Require().NoError(suite.store.DeleteExpense(ctx, exp.ExpenseID))
	suite.True(suite.friendBalance().IsZero())
	suite.mockSync.AssertExpectations(suite.T())
}

// --- SettleUp ---

func (suite *StoreServiceTestSuite) TestSettleUp_FriendPayingClearsDebt() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	// Friend owes 50 after an equal 100 split.
	_, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("100"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("50")))

	settlement, err := suite.store.SettleUp(ctx, dto.CreateSettlementRequest{
		PayerID:    suite.friendID,
		ReceiverID: domain.SelfID,
		Amount:     decimal.RequireFromString("50"),
	})
	suite.Require().NoError(err)
	suite.True(settlement.IsSettlement)
	suite.Equal("Settled up with Alex", settlement.Description)
	suite.True(suite.friendBalance().IsZero())
}

func (suite *StoreServiceTestSuite) TestSettleUp_OwnerPayingClearsOwnDebt() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	// Friend paid 100, equal split: owner owes 50, stored as -50.
	_, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("100"),
		PayerID:     suite.friendID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("-50")))

	_, err = suite.store.SettleUp(ctx, dto.CreateSettlementRequest{
		PayerID:    domain.SelfID,
		ReceiverID: suite.friendID,
		Amount:     decimal.RequireFromString("50"),
	})
	suite.Require().NoError(err)
	suite.True(suite.friendBalance().IsZero())
}

func (suite *StoreServiceTestSuite) TestSettleUp_BothSidesSelfRejected() {
	_, err := suite.store.SettleUp(context.Background(), dto.CreateSettlementRequest{
		PayerID:    domain.SelfID,
		ReceiverID: domain.SelfID,
		Amount:     decimal.RequireFromString("10"),
	})
	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

// --- Recurring ---

func (suite *StoreServiceTestSuite) TestCheckRecurringExpenses_MaterializesDueTemplate() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	suite.mockSync.On("SubmitRecurringSave", mock.Anything, mock.Anything).Return()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	suite.store.SetClock(func() time.Time { return now })

	due := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	template, err := suite.store.AddRecurringExpense(ctx, dto.CreateRecurringRequest{
		Description: "Rent",
		Amount:      decimal.RequireFromString("1200"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
		Frequency:   domain.FrequencyMonthly,
		NextDueDate: due,
	})
	suite.Require().NoError(err)

	count, err := suite.store.CheckRecurringExpenses(ctx)
	suite.Require().NoError(err)
	suite.Equal(1, count)

	// The materialized expense carries the due date, not the tick time.
	expenses := suite.store.ListExpenses(ctx)
	suite.Require().Len(expenses, 1)
	suite.Equal("Rent", expenses[0].Description)
	suite.True(expenses[0].Date.Equal(due))
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("600")))

	// The template advanced one period from the due date.
	templates := suite.store.ListRecurringExpenses(ctx)
	suite.Require().Len(templates, 1)
	suite.Equal(template.RecurringID, templates[0].RecurringID)
	suite.True(templates[0].NextDueDate.Equal(due.AddDate(0, 1, 0)))
}

func (suite *StoreServiceTestSuite) TestCheckRecurringExpenses_FutureTemplateUntouched() {
	ctx := context.Background()
	suite.mockSync.On("SubmitRecurringSave", mock.Anything, mock.Anything).Return()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	suite.store.SetClock(func() time.Time { return now })

	_, err := suite.store.AddRecurringExpense(ctx, dto.CreateRecurringRequest{
		Description: "Rent",
		Amount:      decimal.RequireFromString("1200"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
		Frequency:   domain.FrequencyMonthly,
		NextDueDate: now.AddDate(0, 0, 5),
	})
	suite.Require().NoError(err)

	count, err := suite.store.CheckRecurringExpenses(ctx)
	suite.Require().NoError(err)
	suite.Equal(0, count)
	suite.Empty(suite.store.ListExpenses(ctx))
}

// --- Hydrate ---

func (suite *StoreServiceTestSuite) TestHydrate_SeedsFirstLaunch() {
	snap := snapshot.NewStore(suite.T().TempDir())
	store := services.NewStoreService(snap)

	suite.Require().NoError(store.Hydrate(context.Background()))

	friends := store.ListFriends(context.Background())
	suite.Require().Len(friends, 2)
	for _, f := range friends {
		suite.True(f.Balance.IsZero())
	}
	suite.Len(store.ListGroups(context.Background()), 1)
	suite.Empty(store.ListExpenses(context.Background()))
}

func (suite *StoreServiceTestSuite) TestHydrate_RestoresPreviousSnapshot() {
	dir := suite.T().TempDir()
	snap := snapshot.NewStore(dir)
	first := services.NewStoreService(snap)
	suite.Require().NoError(first.Hydrate(context.Background()))

	friend, err := first.AddFriend(context.Background(), dto.CreateFriendRequest{Name: "Priya"})
	suite.Require().NoError(err)

	second := services.NewStoreService(snapshot.NewStore(dir))
	suite.Require().NoError(second.Hydrate(context.Background()))

	got, err := second.GetFriend(context.Background(), friend.FriendID)
	suite.Require().NoError(err)
	suite.Equal("Priya", got.Name)
}

// --- Sync write-back ---

func (suite *StoreServiceTestSuite) TestRemoveEntity_DropsRowWithoutBalanceRepair() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()

	exp, err := suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
	})
	suite.Require().NoError(err)

	suite.store.RemoveEntity("expenses", exp.ExpenseID)

	// The row is gone but the balance deliberately keeps the stale 45;
	// only a full refetch reconciles it.
	suite.Empty(suite.store.ListExpenses(ctx))
	suite.True(suite.friendBalance().Equal(decimal.RequireFromString("45")))
}

func (suite *StoreServiceTestSuite) TestReplaceAll_OverwritesCollectionsWholesale() {
	remoteFriend := domain.Friend{
		FriendID: "f-remote",
		Name:     "Remote",
		Balance:  decimal.RequireFromString("12.50"),
	}
	profile := &domain.UserProfile{UserID: "u1", Name: "Owner", DefaultCurrency: "EUR"}

	suite.store.ReplaceAll([]domain.Friend{remoteFriend}, nil, nil, nil, profile)

	friends := suite.store.ListFriends(context.Background())
	suite.Require().Len(friends, 1)
	suite.Equal("f-remote", friends[0].FriendID)
	// Balances come from the fetched rows as stored.
	suite.True(friends[0].Balance.Equal(decimal.RequireFromString("12.50")))
	suite.Empty(suite.store.ListGroups(context.Background()))
	suite.Equal("€", suite.store.CurrencySymbol())
}

// --- Summary ---

func (suite *StoreServiceTestSuite) TestSummary_SplitsOwedAndOwing() {
	ctx := context.Background()
	suite.mockSync.On("SubmitExpenseSave", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
	suite.mockSync.On("SubmitFriendSave", mock.Anything, mock.Anything).Return()

	other, err := suite.store.AddFriend(ctx, dto.CreateFriendRequest{Name: "Sam"})
	suite.Require().NoError(err)

	// Alex ends up owing 45; we end up owing Sam 30.
	_, err = suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90"),
		PayerID:     domain.SelfID,
		SplitWith:   []string{suite.friendID},
		SplitType:   domain.SplitEqual,
		Category:    "food",
	})
	suite.Require().NoError(err)
	_, err = suite.store.AddExpense(ctx, dto.CreateExpenseRequest{
		Description: "Taxi",
		Amount:      decimal.RequireFromString("60"),
		PayerID:     other.FriendID,
		SplitWith:   []string{other.FriendID},
		SplitType:   domain.SplitEqual,
		Category:    "travel",
	})
	suite.Require().NoError(err)

	summary := suite.store.Summary(ctx)
	suite.True(summary.TotalOwedToYou.Equal(decimal.RequireFromString("45")))
	suite.True(summary.TotalYouOwe.Equal(decimal.RequireFromString("30")))
	suite.True(summary.NetBalance.Equal(decimal.RequireFromString("15")))
	suite.Equal(2, summary.ExpenseCount)
	suite.True(summary.ByCategory["food"].Equal(decimal.RequireFromString("90")))
	suite.True(summary.ByCategory["travel"].Equal(decimal.RequireFromString("60")))
}

func TestStoreService(t *testing.T) {
	suite.Run(t, new(StoreServiceTestSuite))
}
