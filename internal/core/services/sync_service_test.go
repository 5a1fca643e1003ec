package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/splittyhq/splitty_backend/internal/apperrors"
	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/core/services"
)

func activityNote(entityType domain.EntityType, entityID string, action domain.ActivityAction, subject, amount string) portssvc.ActivityNote {
	return portssvc.ActivityNote{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Subject:    subject,
		Amount:     amount,
	}
}

// --- Mock Remote ---
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) ListFriends(ctx context.Context, ownerID string) ([]domain.Friend, error) {
	args := m.Called(ctx, ownerID)
	var friends []domain.Friend
	if args.Get(0) != nil {
		friends = args.Get(0).([]domain.Friend)
	}
	return friends, args.Error(1)
}

func (m *MockRemote) SaveFriend(ctx context.Context, ownerID string, friend domain.Friend) error {
	args := m.Called(ctx, ownerID, friend)
	return args.Error(0)
}

func (m *MockRemote) DeleteFriend(ctx context.Context, ownerID string, friendID string) error {
	args := m.Called(ctx, ownerID, friendID)
	return args.Error(0)
}

func (m *MockRemote) ListGroups(ctx context.Context, ownerID string) ([]domain.Group, error) {
	args := m.Called(ctx, ownerID)
	var groups []domain.Group
	if args.Get(0) != nil {
		groups = args.Get(0).([]domain.Group)
	}
	return groups, args.Error(1)
}

func (m *MockRemote) SaveGroup(ctx context.Context, ownerID string, group domain.Group) error {
	args := m.Called(ctx, ownerID, group)
	return args.Error(0)
}

func (m *MockRemote) DeleteGroup(ctx context.Context, ownerID string, groupID string) error {
	args := m.Called(ctx, ownerID, groupID)
	return args.Error(0)
}

func (m *MockRemote) ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error) {
	args := m.Called(ctx, ownerID)
	var expenses []domain.Expense
	if args.Get(0) != nil {
		expenses = args.Get(0).([]domain.Expense)
	}
	return expenses, args.Error(1)
}

func (m *MockRemote) SaveExpense(ctx context.Context, ownerID string, expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group) error {
	args := m.Called(ctx, ownerID, expense, touchedFriends, touchedGroups)
	return args.Error(0)
}

func (m *MockRemote) DeleteExpense(ctx context.Context, ownerID string, expenseID string, touchedFriends []domain.Friend, touchedGroups []domain.Group) error {
	args := m.Called(ctx, ownerID, expenseID, touchedFriends, touchedGroups)
	return args.Error(0)
}

func (m *MockRemote) ListRecurring(ctx context.Context, ownerID string) ([]domain.RecurringExpense, error) {
	args := m.Called(ctx, ownerID)
	var recurring []domain.RecurringExpense
	if args.Get(0) != nil {
		recurring = args.Get(0).([]domain.RecurringExpense)
	}
	return recurring, args.Error(1)
}

func (m *MockRemote) SaveRecurring(ctx context.Context, ownerID string, template domain.RecurringExpense) error {
	args := m.Called(ctx, ownerID, template)
	return args.Error(0)
}

func (m *MockRemote) DeleteRecurring(ctx context.Context, ownerID string, recurringID string) error {
	args := m.Called(ctx, ownerID, recurringID)
	return args.Error(0)
}

func (m *MockRemote) FindProfileByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	var profile *domain.UserProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*domain.UserProfile)
	}
	return profile, args.Error(1)
}

func (m *MockRemote) FindCredentialsByEmail(ctx context.Context, email string) (string, string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockRemote) SaveProfile(ctx context.Context, profile domain.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockRemote) LookupUserByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	args := m.Called(ctx, email)
	var profile *domain.UserProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*domain.UserProfile)
	}
	return profile, args.Error(1)
}

func (m *MockRemote) LookupUserByPhone(ctx context.Context, phone string) (*domain.UserProfile, error) {
	args := m.Called(ctx, phone)
	var profile *domain.UserProfile
	if args.Get(0) != nil {
		profile = args.Get(0).(*domain.UserProfile)
	}
	return profile, args.Error(1)
}

func (m *MockRemote) InsertActivity(ctx context.Context, ownerID string, entry domain.ActivityLog) error {
	args := m.Called(ctx, ownerID, entry)
	return args.Error(0)
}

func (m *MockRemote) ListActivity(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.ActivityLog, *string, error) {
	args := m.Called(ctx, ownerID, limit, nextToken)
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

// --- Mock LocalStore ---
type MockLocalStore struct {
	mock.Mock
}

func (m *MockLocalStore) ReplaceAll(friends []domain.Friend, groups []domain.Group, expenses []domain.Expense, recurring []domain.RecurringExpense, profile *domain.UserProfile) {
	m.Called(friends, groups, expenses, recurring, profile)
}

func (m *MockLocalStore) RemoveEntity(table string, entityID string) {
	m.Called(table, entityID)
}

// --- Mock Notifier ---
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, title, body string) {
	m.Called(ctx, title, body)
}

// --- Fake ChangeFeed ---

// fakeChangeFeed records subscriptions and lets tests push events
// synchronously into the registered handlers.
type fakeChangeFeed struct {
	handlers map[string][]func(domain.ChangeEvent)
}

func newFakeChangeFeed() *fakeChangeFeed {
	return &fakeChangeFeed{handlers: make(map[string][]func(domain.ChangeEvent))}
}

func (f *fakeChangeFeed) Subscribe(table string, handler func(domain.ChangeEvent)) func() {
	f.handlers[table] = append(f.handlers[table], handler)
	return func() {}
}

func (f *fakeChangeFeed) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeChangeFeed) push(table string, event domain.ChangeEvent) {
	event.Table = table
	for _, handler := range f.handlers[table] {
		handler(event)
	}
}

const (
	testOwnerID   = "owner-1"
	testSessionID = "session-abc"
)

// --- Test Suite ---
type SyncServiceTestSuite struct {
	suite.Suite
	mockRemote   *MockRemote
	mockLocal    *MockLocalStore
	mockNotifier *MockNotifier
	feed         *fakeChangeFeed
	service      *services.SyncService
	cancel       context.CancelFunc
}

func (suite *SyncServiceTestSuite) SetupTest() {
	suite.mockRemote = new(MockRemote)
	suite.mockLocal = new(MockLocalStore)
	suite.mockNotifier = new(MockNotifier)
	suite.feed = newFakeChangeFeed()
	suite.service = services.NewSyncService(
		suite.mockRemote, suite.feed, suite.mockNotifier, suite.mockLocal,
		testOwnerID, testSessionID, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	suite.cancel = cancel
	suite.Require().NoError(suite.service.Start(ctx))
}

func (suite *SyncServiceTestSuite) TearDownTest() {
	suite.cancel()
	suite.service.Wait()
}

// expectFullRefetch arms the remote list calls a refetch performs.
func (suite *SyncServiceTestSuite) expectFullRefetch() {
	suite.mockRemote.On("ListFriends", mock.Anything, testOwnerID).Return([]domain.Friend{}, nil)
	suite.mockRemote.On("ListGroups", mock.Anything, testOwnerID).Return([]domain.Group{}, nil)
	suite.mockRemote.On("ListExpenses", mock.Anything, testOwnerID).Return([]domain.Expense{}, nil)
	suite.mockRemote.On("ListRecurring", mock.Anything, testOwnerID).Return([]domain.RecurringExpense{}, nil)
	suite.mockRemote.On("FindProfileByID", mock.Anything, testOwnerID).Return(&domain.UserProfile{UserID: testOwnerID}, nil)
	suite.mockLocal.On("ReplaceAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return()
}

// --- Refetch ---

func (suite *SyncServiceTestSuite) TestRefetch_ReplacesLocalWholesale() {
	friends := []domain.Friend{{FriendID: "f1", Name: "Alex"}}
	suite.mockRemote.On("ListFriends", mock.Anything, testOwnerID).Return(friends, nil).Once()
	suite.mockRemote.On("ListGroups", mock.Anything, testOwnerID).Return([]domain.Group{}, nil).Once()
	suite.mockRemote.On("ListExpenses", mock.Anything, testOwnerID).Return([]domain.Expense{}, nil).Once()
	suite.mockRemote.On("ListRecurring", mock.Anything, testOwnerID).Return([]domain.RecurringExpense{}, nil).Once()
	suite.mockRemote.On("FindProfileByID", mock.Anything, testOwnerID).Return(&domain.UserProfile{UserID: testOwnerID}, nil).Once()
	suite.mockLocal.On("ReplaceAll", friends, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Once()

	suite.Require().NoError(suite.service.Refetch(context.Background()))
	suite.mockLocal.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestRefetch_RemoteErrorLeavesLocalUntouched() {
	suite.mockRemote.On("ListFriends", mock.Anything, testOwnerID).Return(nil, errors.New("connection refused")).Once()

	err := suite.service.Refetch(context.Background())
	suite.Require().Error(err)
	suite.mockLocal.AssertNotCalled(suite.T(), "ReplaceAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Submits ---

func (suite *SyncServiceTestSuite) TestSubmitFriendSave_WritesRowAndActivity() {
	friend := domain.Friend{FriendID: "f1", Name: "Alex"}
	suite.mockRemote.On("SaveFriend", mock.Anything, testOwnerID, friend).Return(nil).Once()
	suite.mockRemote.On("InsertActivity", mock.Anything, testOwnerID, mock.MatchedBy(func(entry domain.ActivityLog) bool {
		return entry.Action == domain.ActionFriendAdded && entry.Description == "Added friend Alex"
	})).Return(nil).Once()

	suite.service.SubmitFriendSave(friend, activityNote(domain.EntityFriend, "f1", domain.ActionFriendAdded, "Alex", ""))
	suite.service.Wait()

	suite.mockRemote.AssertExpectations(suite.T())
}

func (suite *SyncServiceTestSuite) TestSubmitFailureIsSwallowed() {
	friend := domain.Friend{FriendID: "f1", Name: "Alex"}
	suite.mockRemote.On("SaveFriend", mock.Anything, testOwnerID, friend).Return(errors.New("timeout")).Once()

	// Must not panic or surface anywhere; the local commit stands.
	suite.service.SubmitFriendSave(friend, activityNote(domain.EntityFriend, "f1", domain.ActionFriendAdded, "Alex", ""))
	suite.service.Wait()

	suite.mockRemote.AssertNotCalled(suite.T(), "InsertActivity", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestSubmitExpenseEdit_RefetchesEvenWhenSaveFails() {
	expense := domain.Expense{ExpenseID: "e1", Description: "Dinner"}
	suite.mockRemote.On("SaveExpense", mock.Anything, testOwnerID, expense, mock.Anything, mock.Anything).Return(errors.New("conflict")).Once()
	suite.expectFullRefetch()

	suite.service.SubmitExpenseEdit(expense, nil, nil, activityNote(domain.EntityExpense, "e1", domain.ActionExpenseUpdated, "Dinner", "$10.00"))
	suite.service.Wait()

	suite.mockLocal.AssertCalled(suite.T(), "ReplaceAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestZeroNoteWritesNoActivity() {
	template := domain.RecurringExpense{RecurringID: "r1"}
	suite.mockRemote.On("SaveRecurring", mock.Anything, testOwnerID, template).Return(nil).Once()

	suite.service.SubmitRecurringSave(template, activityNote("", "", "", "", ""))
	suite.service.Wait()

	suite.mockRemote.AssertNotCalled(suite.T(), "InsertActivity", mock.Anything, mock.Anything, mock.Anything)
}

// --- Change feed events ---

func (suite *SyncServiceTestSuite) TestOwnOriginEventIgnored() {
	suite.feed.push("expenses", domain.ChangeEvent{
		Type:          domain.ChangeUpdate,
		OriginSession: testSessionID,
	})

	suite.mockRemote.AssertNotCalled(suite.T(), "ListExpenses", mock.Anything, mock.Anything)
	suite.mockLocal.AssertNotCalled(suite.T(), "ReplaceAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestForeignDeleteRemovesRowWithoutRefetch() {
	suite.mockLocal.On("RemoveEntity", "expenses", "e9").Return().Once()

	suite.feed.push("expenses", domain.ChangeEvent{
		Type:          domain.ChangeDelete,
		Old:           json.RawMessage(`{"expense_id":"e9","description":"Dinner"}`),
		OriginSession: "other-session",
	})

	suite.mockLocal.AssertExpectations(suite.T())
	suite.mockRemote.AssertNotCalled(suite.T(), "ListExpenses", mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestForeignUpdateTriggersRefetch() {
	suite.expectFullRefetch()

	suite.feed.push("friends", domain.ChangeEvent{
		Type:          domain.ChangeUpdate,
		New:           json.RawMessage(`{"friend_id":"f2","name":"Sam"}`),
		OriginSession: "other-session",
	})

	suite.mockLocal.AssertCalled(suite.T(), "ReplaceAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockNotifier.AssertNotCalled(suite.T(), "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SyncServiceTestSuite) TestForeignInsertRefetchesAndNotifies() {
	suite.expectFullRefetch()
	suite.mockNotifier.On("Notify", mock.Anything, "Splitty", mock.MatchedBy(func(body string) bool {
		return body == "New expense on another device: Groceries"
	})).Return().Once()

	suite.feed.push("expenses", domain.ChangeEvent{
		Type:          domain.ChangeInsert,
		New:           json.RawMessage(`{"expense_id":"e3","description":"Groceries"}`),
		OriginSession: "other-session",
	})

	suite.mockNotifier.AssertExpectations(suite.T())
}

// --- Lookup ---

func (suite *SyncServiceTestSuite) TestLookupUser_FallsBackToPhone() {
	profile := &domain.UserProfile{UserID: "u2", Name: "Sam"}
	suite.mockRemote.On("LookupUserByEmail", mock.Anything, "sam@example.com").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRemote.On("LookupUserByPhone", mock.Anything, "+15550100").Return(profile, nil).Once()

	got, err := suite.service.LookupUser(context.Background(), "sam@example.com", "+15550100")
	suite.Require().NoError(err)
	suite.Equal("u2", got.UserID)
}

func (suite *SyncServiceTestSuite) TestLookupUser_NoContactDetailsRejected() {
	_, err := suite.service.LookupUser(context.Background(), "", "")
	suite.Require().ErrorIs(err, apperrors.ErrValidation)
}

func TestSyncService(t *testing.T) {
	suite.Run(t, new(SyncServiceTestSuite))
}
