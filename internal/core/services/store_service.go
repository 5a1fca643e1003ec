package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/adapters/snapshot"
	"github.com/splittyhq/splitty_backend/internal/apperrors"
	"github.com/splittyhq/splitty_backend/internal/core/domain"
	"github.com/splittyhq/splitty_backend/internal/core/ledger"
	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/core/schedule"
	"github.com/splittyhq/splitty_backend/internal/dto"
	"github.com/splittyhq/splitty_backend/internal/middleware"
	"github.com/splittyhq/splitty_backend/internal/utils"
)

// StoreService owns the canonical in-memory collections and is the
// single writer for all ledger mutations. Every entry point validates,
// applies the ledger engine result, commits, writes the local snapshot
// through, and hands the mutation to the sync coordinator. Local commits
// never wait on the remote.
type StoreService struct {
	mu        sync.Mutex
	friends   map[string]domain.Friend
	groups    map[string]domain.Group
	expenses  map[string]domain.Expense
	recurring map[string]domain.RecurringExpense
	profile   domain.UserProfile
	currency  string
	theme     string

	snap *snapshot.Store
	sync portssvc.SyncSvcFacade
	now  func() time.Time
}

// NewStoreService creates an empty store. Call Hydrate before serving.
func NewStoreService(snap *snapshot.Store) *StoreService {
	return &StoreService{
		friends:   make(map[string]domain.Friend),
		groups:    make(map[string]domain.Group),
		expenses:  make(map[string]domain.Expense),
		recurring: make(map[string]domain.RecurringExpense),
		currency:  utils.DefaultCurrency,
		snap:      snap,
		now:       time.Now,
	}
}

// Ensure StoreService implements the facade and the sync write-back view.
var _ portssvc.StoreSvcFacade = (*StoreService)(nil)
var _ portssvc.LocalStore = (*StoreService)(nil)

// AttachSync wires the sync coordinator. The store and coordinator
// reference each other, so wiring happens after construction.
func (s *StoreService) AttachSync(syncSvc portssvc.SyncSvcFacade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync = syncSvc
}

// SetClock overrides the time source. Intended for tests.
func (s *StoreService) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Hydrate restores the snapshot (or seeds the documented first-launch
// defaults) before any operation is allowed.
func (s *StoreService) Hydrate(ctx context.Context) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	state, err := s.snap.Load()
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if state == nil {
		logger.Info("No snapshot found, seeding first-launch defaults")
		state = snapshot.DefaultSeed(s.now().UTC())
		if err := s.snap.Save(state); err != nil {
			return fmt.Errorf("failed to persist seed snapshot: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = make(map[string]domain.Friend, len(state.Friends))
	for _, f := range state.Friends {
		s.friends[f.FriendID] = f
	}
	s.groups = make(map[string]domain.Group, len(state.Groups))
	for _, g := range state.Groups {
		s.groups[g.GroupID] = g
	}
	s.expenses = make(map[string]domain.Expense, len(state.Expenses))
	for _, e := range state.Expenses {
		s.expenses[e.ExpenseID] = e
	}
	s.recurring = make(map[string]domain.RecurringExpense, len(state.Recurring))
	for _, r := range state.Recurring {
		s.recurring[r.RecurringID] = r
	}
	s.profile = state.Profile
	if state.Currency != "" {
		s.currency = state.Currency
	}
	s.theme = state.Theme

	logger.Info("Store hydrated",
		"friends", len(s.friends),
		"groups", len(s.groups),
		"expenses", len(s.expenses),
		"recurring", len(s.recurring))
	return nil
}

// --- Expenses ---

// AddExpense validates and applies a new expense, commits it locally and
// submits it to the remote asynchronously.
func (s *StoreService) AddExpense(ctx context.Context, req dto.CreateExpenseRequest) (*domain.Expense, error) {
	now := s.now().UTC()
	date := now
	if req.Date != nil {
		date = req.Date.UTC()
	}
	exp := domain.Expense{
		ExpenseID:   uuid.NewString(),
		Description: req.Description,
		Amount:      req.Amount,
		PayerID:     req.PayerID,
		GroupID:     req.GroupID,
		SplitWith:   append([]string(nil), req.SplitWith...),
		Date:        date,
		Split:       req.Split(),
		Category:    req.Category,
		AuditFields: domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	return s.addExpense(ctx, exp)
}

func (s *StoreService) addExpense(ctx context.Context, exp domain.Expense) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateExpenseLocked(exp); err != nil {
		return nil, err
	}

	friends, groups, err := ledger.ApplyExpense(exp, s.friends, s.groups)
	if err != nil {
		return nil, err
	}
	s.friends = friends
	s.groups = groups
	s.expenses[exp.ExpenseID] = exp
	s.persistLocked(logger)

	logger.Info("Expense added", "expense_id", exp.ExpenseID, "amount", exp.Amount.String(), "settlement", exp.IsSettlement)

	if s.sync != nil {
		touchedFriends, touchedGroups := s.touchedLocked(exp)
		s.sync.SubmitExpenseSave(exp, touchedFriends, touchedGroups, s.expenseNoteLocked(exp, false))
	}
	return &exp, nil
}

// EditExpense replaces an expense: the old effect is reversed, the new
// one validated and applied, and the sync coordinator triggers an
// unconditional full refetch once the remote update completes.
func (s *StoreService) EditExpense(ctx context.Context, expenseID string, req dto.CreateExpenseRequest) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, apperrors.ErrNotFound)
	}

	now := s.now().UTC()
	date := old.Date
	if req.Date != nil {
		date = req.Date.UTC()
	}
	next := domain.Expense{
		ExpenseID:    expenseID,
		Description:  req.Description,
		Amount:       req.Amount,
		PayerID:      req.PayerID,
		GroupID:      req.GroupID,
		SplitWith:    append([]string(nil), req.SplitWith...),
		Date:         date,
		Split:        req.Split(),
		Category:     req.Category,
		IsSettlement: old.IsSettlement,
		AuditFields:  domain.AuditFields{CreatedAt: old.CreatedAt, UpdatedAt: now},
	}

	// Fail closed: the new expense must be valid before the old effect is
	// reversed.
	if err := s.validateExpenseLocked(next); err != nil {
		return nil, err
	}

	friends, groups, err := ledger.ReverseExpense(old, s.friends, s.groups)
	if err != nil {
		return nil, err
	}
	friends, groups, err = ledger.ApplyExpense(next, friends, groups)
	if err != nil {
		return nil, err
	}
	s.friends = friends
	s.groups = groups
	s.expenses[expenseID] = next
	s.persistLocked(logger)

	logger.Info("Expense edited", "expense_id", expenseID)

	if s.sync != nil {
		touchedFriends, touchedGroups := s.touchedLocked(old, next)
		s.sync.SubmitExpenseEdit(next, touchedFriends, touchedGroups, s.expenseNoteLocked(next, true))
	}
	return &next, nil
}

// DeleteExpense reverses and removes an expense. Deleting an absent ID
// is an idempotent no-op: the collections are untouched.
func (s *StoreService) DeleteExpense(ctx context.Context, expenseID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expenses[expenseID]
	if !ok {
		logger.Debug("Delete of unknown expense ignored", "expense_id", expenseID)
		return nil
	}

	friends, groups, err := ledger.ReverseExpense(exp, s.friends, s.groups)
	if err != nil {
		return err
	}
	s.friends = friends
	s.groups = groups
	delete(s.expenses, expenseID)
	s.persistLocked(logger)

	logger.Info("Expense deleted", "expense_id", expenseID)

	if s.sync != nil {
		touchedFriends, touchedGroups := s.touchedLocked(exp)
		note := portssvc.ActivityNote{
			EntityType: domain.EntityExpense,
			EntityID:   exp.ExpenseID,
			Action:     domain.ActionExpenseDeleted,
			Subject:    exp.Description,
		}
		s.sync.SubmitExpenseDelete(expenseID, touchedFriends, touchedGroups, note)
	}
	return nil
}

// GetExpense returns one expense by ID.
func (s *StoreService) GetExpense(ctx context.Context, expenseID string) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, apperrors.ErrNotFound)
	}
	return &exp, nil
}

// ListExpenses returns a snapshot copy sorted newest first.
func (s *StoreService) ListExpenses(ctx context.Context) []domain.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// ListExpensesForFriend returns the expenses a friend took part in,
// either as payer or as a participant, newest first.
func (s *StoreService) ListExpensesForFriend(ctx context.Context, friendID string) ([]domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.friends[friendID]; !ok {
		return nil, fmt.Errorf("friend %s: %w", friendID, apperrors.ErrNotFound)
	}
	out := []domain.Expense{}
	for _, e := range s.expenses {
		if e.PayerID == friendID {
			out = append(out, e)
			continue
		}
		for _, p := range ledger.Participants(e, s.groups) {
			if p == friendID {
				out = append(out, e)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// --- Friends ---

// AddFriend creates a friend with a zero balance. When an email or
// phone is supplied the remote lookup RPCs resolve a registered account
// to link; lookup failures are best-effort and never block the add.
func (s *StoreService) AddFriend(ctx context.Context, req dto.CreateFriendRequest) (*domain.Friend, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var linked *domain.UserProfile
	if s.syncRef() != nil && (req.Email != "" || req.Phone != "") {
		var err error
		linked, err = s.syncRef().LookupUser(ctx, req.Email, req.Phone)
		if err != nil {
			logger.Debug("Friend lookup found no registered account", "error", err.Error())
		}
	}

	now := s.now().UTC()
	friend := domain.Friend{
		FriendID:    uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Balance:     decimal.Zero,
		AuditFields: domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	if linked != nil {
		friend.LinkedUserID = linked.UserID
		friend.AvatarURL = linked.AvatarURL
		if friend.Email == "" {
			friend.Email = linked.Email
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends[friend.FriendID] = friend
	s.persistLocked(logger)

	logger.Info("Friend added", "friend_id", friend.FriendID, "linked", friend.LinkedUserID != "")

	if s.sync != nil {
		s.sync.SubmitFriendSave(friend, portssvc.ActivityNote{
			EntityType: domain.EntityFriend,
			EntityID:   friend.FriendID,
			Action:     domain.ActionFriendAdded,
			Subject:    friend.Name,
		})
	}
	return &friend, nil
}

// EditFriend updates a friend's display fields. Balances are never
// edited directly.
func (s *StoreService) EditFriend(ctx context.Context, friendID string, req dto.UpdateFriendRequest) (*domain.Friend, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	friend, ok := s.friends[friendID]
	if !ok {
		return nil, fmt.Errorf("friend %s: %w", friendID, apperrors.ErrNotFound)
	}
	if req.Name != nil {
		friend.Name = *req.Name
	}
	if req.AvatarURL != nil {
		friend.AvatarURL = *req.AvatarURL
	}
	friend.UpdatedAt = s.now().UTC()
	s.friends[friendID] = friend
	s.persistLocked(logger)

	if s.sync != nil {
		s.sync.SubmitFriendSave(friend, portssvc.ActivityNote{
			EntityType: domain.EntityFriend,
			EntityID:   friendID,
			Action:     domain.ActionFriendUpdated,
			Subject:    friend.Name,
		})
	}
	return &friend, nil
}

// DeleteFriend removes a friend row. Expenses referencing the friend
// remain; the engine no-ops on the missing ID from then on.
func (s *StoreService) DeleteFriend(ctx context.Context, friendID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	friend, ok := s.friends[friendID]
	if !ok {
		return fmt.Errorf("friend %s: %w", friendID, apperrors.ErrNotFound)
	}
	delete(s.friends, friendID)
	s.persistLocked(logger)

	logger.Info("Friend deleted", "friend_id", friendID)

	if s.sync != nil {
		s.sync.SubmitFriendDelete(friendID, portssvc.ActivityNote{
			EntityType: domain.EntityFriend,
			EntityID:   friendID,
			Action:     domain.ActionFriendRemoved,
			Subject:    friend.Name,
		})
	}
	return nil
}

// GetFriend returns one friend by ID.
func (s *StoreService) GetFriend(ctx context.Context, friendID string) (*domain.Friend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	friend, ok := s.friends[friendID]
	if !ok {
		return nil, fmt.Errorf("friend %s: %w", friendID, apperrors.ErrNotFound)
	}
	return &friend, nil
}

// ListFriends returns a snapshot copy sorted by name.
func (s *StoreService) ListFriends(ctx context.Context) []domain.Friend {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Friend, 0, len(s.friends))
	for _, f := range s.friends {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- Groups ---

// AddGroup creates a group over existing friends.
func (s *StoreService) AddGroup(ctx context.Context, req dto.CreateGroupRequest) (*domain.Group, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMembersLocked(req.Members); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	group := domain.Group{
		GroupID:     uuid.NewString(),
		Name:        req.Name,
		Members:     append([]string(nil), req.Members...),
		Balance:     decimal.Zero,
		AuditFields: domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	s.groups[group.GroupID] = group
	s.persistLocked(logger)

	logger.Info("Group added", "group_id", group.GroupID, "members", len(group.Members))

	if s.sync != nil {
		s.sync.SubmitGroupSave(group, portssvc.ActivityNote{
			EntityType: domain.EntityGroup,
			EntityID:   group.GroupID,
			Action:     domain.ActionGroupCreated,
			Subject:    group.Name,
		})
	}
	return &group, nil
}

// EditGroup replaces a group's name and membership. The group balance is
// deliberately untouched: past expenses keep their recorded effect.
func (s *StoreService) EditGroup(ctx context.Context, groupID string, req dto.UpdateGroupRequest) (*domain.Group, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, apperrors.ErrNotFound)
	}
	if err := s.checkMembersLocked(req.Members); err != nil {
		return nil, err
	}
	group.Name = req.Name
	group.Members = append([]string(nil), req.Members...)
	group.UpdatedAt = s.now().UTC()
	s.groups[groupID] = group
	s.persistLocked(logger)

	if s.sync != nil {
		s.sync.SubmitGroupSave(group, portssvc.ActivityNote{
			EntityType: domain.EntityGroup,
			EntityID:   groupID,
			Action:     domain.ActionGroupUpdated,
			Subject:    group.Name,
		})
	}
	return &group, nil
}

// DeleteGroup removes a group row.
func (s *StoreService) DeleteGroup(ctx context.Context, groupID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, apperrors.ErrNotFound)
	}
	delete(s.groups, groupID)
	s.persistLocked(logger)

	if s.sync != nil {
		s.sync.SubmitGroupDelete(groupID, portssvc.ActivityNote{
			EntityType: domain.EntityGroup,
			EntityID:   groupID,
			Action:     domain.ActionGroupDeleted,
			Subject:    group.Name,
		})
	}
	return nil
}

// GetGroup returns one group by ID.
func (s *StoreService) GetGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, apperrors.ErrNotFound)
	}
	return &group, nil
}

// ListGroups returns a snapshot copy sorted by name.
func (s *StoreService) ListGroups(ctx context.Context) []domain.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Group, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// --- Settlements ---

// SettleUp records a payment between the owner and a friend as a
// two-party unequal-split settlement expense. Exactly one side must be
// self; the paid party's share is the full amount and the payer's own
// share is zero, so the engine math is the standard unequal path.
func (s *StoreService) SettleUp(ctx context.Context, req dto.CreateSettlementRequest) (*domain.Expense, error) {
	if (req.PayerID == domain.SelfID) == (req.ReceiverID == domain.SelfID) {
		return nil, fmt.Errorf("%w: settlement must be between self and one friend", apperrors.ErrValidation)
	}

	friendID := req.PayerID
	if friendID == domain.SelfID {
		friendID = req.ReceiverID
	}

	s.mu.Lock()
	friend, ok := s.friends[friendID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("friend %s: %w", friendID, apperrors.ErrNotFound)
	}

	shares := map[string]decimal.Decimal{
		domain.SelfID: decimal.Zero,
		friendID:      decimal.Zero,
	}
	if req.PayerID == domain.SelfID {
		// Owner pays the friend: the friend's share is the full amount, so
		// their stored balance rises toward zero.
		shares[friendID] = req.Amount
	} else {
		// Friend pays the owner: the owner's share is the full amount, so
		// the payer's stored balance falls toward zero.
		shares[domain.SelfID] = req.Amount
	}

	now := s.now().UTC()
	exp := domain.Expense{
		ExpenseID:    uuid.NewString(),
		Description:  fmt.Sprintf("Settled up with %s", friend.Name),
		Amount:       req.Amount,
		PayerID:      req.PayerID,
		GroupID:      req.GroupID,
		SplitWith:    []string{friendID},
		Date:         now,
		Split:        domain.UnequalSplit(shares),
		Category:     "settlement",
		IsSettlement: true,
		AuditFields:  domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	return s.addExpense(ctx, exp)
}

// --- Recurring expenses ---

// AddRecurringExpense creates a recurring template. The template's
// financial fields are validated with the same rules as an expense.
func (s *StoreService) AddRecurringExpense(ctx context.Context, req dto.CreateRecurringRequest) (*domain.RecurringExpense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := s.now().UTC()
	template := domain.RecurringExpense{
		RecurringID: uuid.NewString(),
		Description: req.Description,
		Amount:      req.Amount,
		PayerID:     req.PayerID,
		GroupID:     req.GroupID,
		SplitWith:   append([]string(nil), req.SplitWith...),
		Split:       req.Split(),
		Category:    req.Category,
		Frequency:   req.Frequency,
		NextDueDate: req.NextDueDate.UTC(),
		Active:      true,
		AuditFields: domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateExpenseLocked(template.ToExpense(template.NextDueDate)); err != nil {
		return nil, err
	}
	s.recurring[template.RecurringID] = template
	s.persistLocked(logger)

	logger.Info("Recurring expense added", "recurring_id", template.RecurringID, "frequency", string(template.Frequency))

	if s.sync != nil {
		s.sync.SubmitRecurringSave(template, portssvc.ActivityNote{
			EntityType: domain.EntityRecurring,
			EntityID:   template.RecurringID,
			Action:     domain.ActionRecurringCreated,
			Subject:    template.Description,
			Amount:     utils.FormatAmount(template.Amount, s.currency),
		})
	}
	return &template, nil
}

// DeleteRecurringExpense removes a template. This is the only way a
// template stops firing; templates never auto-deactivate.
func (s *StoreService) DeleteRecurringExpense(ctx context.Context, recurringID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.recurring[recurringID]
	if !ok {
		return fmt.Errorf("recurring expense %s: %w", recurringID, apperrors.ErrNotFound)
	}
	delete(s.recurring, recurringID)
	s.persistLocked(logger)

	if s.sync != nil {
		s.sync.SubmitRecurringDelete(recurringID, portssvc.ActivityNote{
			EntityType: domain.EntityRecurring,
			EntityID:   recurringID,
			Action:     domain.ActionRecurringDeleted,
			Subject:    template.Description,
		})
	}
	return nil
}

// ListRecurringExpenses returns a snapshot copy sorted by next due date.
func (s *StoreService) ListRecurringExpenses(ctx context.Context) []domain.RecurringExpense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RecurringExpense, 0, len(s.recurring))
	for _, r := range s.recurring {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueDate.Before(out[j].NextDueDate) })
	return out
}

// CheckRecurringExpenses runs one scheduler tick: each due template
// materializes one expense through the regular add path and advances by
// one period. Called once per session start; a long-unopened app catches
// up one occurrence per open, not a burst.
func (s *StoreService) CheckRecurringExpenses(ctx context.Context) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	templates := make([]domain.RecurringExpense, 0, len(s.recurring))
	for _, r := range s.recurring {
		templates = append(templates, r)
	}
	now := s.now().UTC()
	s.mu.Unlock()

	result := schedule.Tick(now, templates)

	materialized := 0
	for _, occ := range result.Materialized {
		exp := occ.Expense
		exp.ExpenseID = uuid.NewString()
		exp.CreatedAt = now
		exp.UpdatedAt = now
		if _, err := s.addExpense(ctx, exp); err != nil {
			logger.Warn("Failed to materialize recurring expense",
				"recurring_id", occ.RecurringID, "error", err.Error())
			continue
		}
		materialized++
	}

	if len(result.Advanced) > 0 {
		s.mu.Lock()
		for _, tpl := range result.Advanced {
			if _, ok := s.recurring[tpl.RecurringID]; !ok {
				continue // deleted while ticking
			}
			tpl.UpdatedAt = now
			s.recurring[tpl.RecurringID] = tpl
			if s.sync != nil {
				s.sync.SubmitRecurringSave(tpl, portssvc.ActivityNote{})
			}
		}
		s.persistLocked(logger)
		s.mu.Unlock()
	}

	if materialized > 0 {
		logger.Info("Recurring expenses materialized", "count", materialized)
	}
	return materialized, nil
}

// --- Profile ---

// GetProfile returns the owner's profile.
func (s *StoreService) GetProfile(ctx context.Context) domain.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// UpdateProfile edits the owner's profile and display currency.
func (s *StoreService) UpdateProfile(ctx context.Context, req dto.UpdateProfileRequest) (*domain.UserProfile, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Name != nil {
		s.profile.Name = *req.Name
	}
	if req.Phone != nil {
		s.profile.Phone = *req.Phone
	}
	if req.AvatarURL != nil {
		s.profile.AvatarURL = *req.AvatarURL
	}
	if req.DefaultCurrency != nil {
		s.profile.DefaultCurrency = *req.DefaultCurrency
		s.currency = *req.DefaultCurrency
	}
	s.profile.UpdatedAt = s.now().UTC()
	s.persistLocked(logger)

	if s.sync != nil {
		s.sync.SubmitProfileSave(s.profile)
	}
	profile := s.profile
	return &profile, nil
}

// --- Analytics ---

// Summary aggregates the owner's position across friends and expenses.
func (s *StoreService) Summary(ctx context.Context) dto.SummaryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	owed := decimal.Zero
	owing := decimal.Zero
	for _, f := range s.friends {
		switch {
		case f.Balance.IsPositive():
			owed = owed.Add(f.Balance)
		case f.Balance.IsNegative():
			owing = owing.Add(f.Balance.Neg())
		}
	}

	byCategory := make(map[string]decimal.Decimal)
	byMonth := make(map[string]decimal.Decimal)
	count := 0
	for _, e := range s.expenses {
		if e.IsSettlement {
			continue
		}
		count++
		category := e.Category
		if category == "" {
			category = "other"
		}
		byCategory[category] = byCategory[category].Add(e.Amount)
		month := e.Date.Format("2006-01")
		byMonth[month] = byMonth[month].Add(e.Amount)
	}

	return dto.SummaryResponse{
		TotalOwedToYou: owed,
		TotalYouOwe:    owing,
		NetBalance:     owed.Sub(owing),
		ExpenseCount:   count,
		ByCategory:     byCategory,
		ByMonth:        byMonth,
	}
}

// --- Currency ---

// FormatCurrency renders an amount in the owner's display currency.
func (s *StoreService) FormatCurrency(amount decimal.Decimal) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return utils.FormatAmount(amount, s.currency)
}

// CurrencySymbol returns the owner's display currency symbol.
func (s *StoreService) CurrencySymbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return utils.CurrencySymbol(s.currency)
}

// --- Sync write-back (portssvc.LocalStore) ---

// ReplaceAll commits a full refetch: the collections are overwritten
// wholesale with the authoritative remote state. Balances come from the
// fetched rows as stored; they are not recomputed from expense history.
func (s *StoreService) ReplaceAll(friends []domain.Friend, groups []domain.Group, expenses []domain.Expense, recurring []domain.RecurringExpense, profile *domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.friends = make(map[string]domain.Friend, len(friends))
	for _, f := range friends {
		s.friends[f.FriendID] = f
	}
	s.groups = make(map[string]domain.Group, len(groups))
	for _, g := range groups {
		s.groups[g.GroupID] = g
	}
	s.expenses = make(map[string]domain.Expense, len(expenses))
	for _, e := range expenses {
		s.expenses[e.ExpenseID] = e
	}
	s.recurring = make(map[string]domain.RecurringExpense, len(recurring))
	for _, r := range recurring {
		s.recurring[r.RecurringID] = r
	}
	if profile != nil {
		s.profile = *profile
		if profile.DefaultCurrency != "" {
			s.currency = profile.DefaultCurrency
		}
	}
	s.persistLocked(nil)
}

// RemoveEntity drops one entity from a local collection after a
// remote-originated DELETE. No balance recompute happens here; only a
// subsequent full refetch reconciles dependent balances.
func (s *StoreService) RemoveEntity(table string, entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch table {
	case "expenses":
		delete(s.expenses, entityID)
	case "friends":
		delete(s.friends, entityID)
	case "groups":
		delete(s.groups, entityID)
	case "recurring_expenses":
		delete(s.recurring, entityID)
	}
	s.persistLocked(nil)
}

// --- helpers ---

func (s *StoreService) syncRef() portssvc.SyncSvcFacade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync
}

// validateExpenseLocked runs the fail-closed checks: engine validation
// plus reference pre-filtering, so the engine itself can assume valid
// IDs.
func (s *StoreService) validateExpenseLocked(exp domain.Expense) error {
	if err := ledger.ValidateExpense(exp); err != nil {
		return err
	}
	if exp.PayerID != domain.SelfID {
		if _, ok := s.friends[exp.PayerID]; !ok {
			return fmt.Errorf("payer %s: %w", exp.PayerID, apperrors.ErrNotFound)
		}
	}
	if exp.GroupID != "" {
		if _, ok := s.groups[exp.GroupID]; !ok {
			return fmt.Errorf("group %s: %w", exp.GroupID, apperrors.ErrNotFound)
		}
	}
	return nil
}

func (s *StoreService) checkMembersLocked(members []string) error {
	for _, id := range members {
		if _, ok := s.friends[id]; !ok {
			return fmt.Errorf("member %s: %w", id, apperrors.ErrNotFound)
		}
	}
	return nil
}

// touchedLocked gathers the friend and group rows whose balances the
// given expenses affect, as currently committed, for the remote mirror.
func (s *StoreService) touchedLocked(expenses ...domain.Expense) ([]domain.Friend, []domain.Group) {
	friendIDs := make(map[string]struct{})
	groupIDs := make(map[string]struct{})
	for _, exp := range expenses {
		if exp.PayerID != domain.SelfID {
			friendIDs[exp.PayerID] = struct{}{}
		}
		for _, p := range ledger.Participants(exp, s.groups) {
			friendIDs[p] = struct{}{}
		}
		if exp.GroupID != "" {
			groupIDs[exp.GroupID] = struct{}{}
		}
	}

	friends := make([]domain.Friend, 0, len(friendIDs))
	for id := range friendIDs {
		if f, ok := s.friends[id]; ok {
			friends = append(friends, f)
		}
	}
	groups := make([]domain.Group, 0, len(groupIDs))
	for id := range groupIDs {
		if g, ok := s.groups[id]; ok {
			groups = append(groups, g)
		}
	}
	return friends, groups
}

func (s *StoreService) expenseNoteLocked(exp domain.Expense, edited bool) portssvc.ActivityNote {
	action := domain.ActionExpenseCreated
	subject := exp.Description
	switch {
	case exp.IsSettlement:
		action = domain.ActionSettlementCreated
		subject = s.counterpartyNameLocked(exp)
	case edited:
		action = domain.ActionExpenseUpdated
	}
	return portssvc.ActivityNote{
		EntityType: domain.EntityExpense,
		EntityID:   exp.ExpenseID,
		Action:     action,
		Subject:    subject,
		Amount:     utils.FormatAmount(exp.Amount, s.currency),
	}
}

func (s *StoreService) counterpartyNameLocked(exp domain.Expense) string {
	for _, id := range exp.SplitWith {
		if id == domain.SelfID {
			continue
		}
		if f, ok := s.friends[id]; ok {
			return f.Name
		}
		return id
	}
	return exp.Description
}

// persistLocked writes the snapshot through. A failed local write is
// logged and does not unwind the committed mutation.
func (s *StoreService) persistLocked(logger interface{ Warn(string, ...any) }) {
	state := &snapshot.State{
		Friends:   make([]domain.Friend, 0, len(s.friends)),
		Groups:    make([]domain.Group, 0, len(s.groups)),
		Expenses:  make([]domain.Expense, 0, len(s.expenses)),
		Recurring: make([]domain.RecurringExpense, 0, len(s.recurring)),
		Profile:   s.profile,
		Currency:  s.currency,
		Theme:     s.theme,
	}
	for _, f := range s.friends {
		state.Friends = append(state.Friends, f)
	}
	for _, g := range s.groups {
		state.Groups = append(state.Groups, g)
	}
	for _, e := range s.expenses {
		state.Expenses = append(state.Expenses, e)
	}
	for _, r := range s.recurring {
		state.Recurring = append(state.Recurring, r)
	}

	if err := s.snap.Save(state); err != nil && logger != nil {
		logger.Warn("Failed to write local snapshot", "error", err.Error())
	}
}
