package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splittyhq/splitty_backend/internal/apperrors"
	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
)

// watchedTables are the remote tables whose change-feed events the
// coordinator subscribes to. They match the tables carrying the
// notification trigger.
var watchedTables = []string{"expenses", "friends", "groups", "recurring_expenses"}

// submitTimeout bounds each fire-and-forget remote call.
const submitTimeout = 15 * time.Second

// SyncService is the sync coordinator. It mirrors committed local
// mutations to the remote in background goroutines, performs the
// authoritative full refetch, and folds change-feed events from other
// sessions back into the local store. Submit failures are logged, never
// propagated: the local commit stands and diverges until the next
// refetch.
type SyncService struct {
	remote    portsrepo.Remote
	feed      portssvc.ChangeFeed
	notifier  portssvc.Notifier
	local     portssvc.LocalStore
	ownerID   string
	sessionID string
	logger    *slog.Logger

	wg sync.WaitGroup
}

var _ portssvc.SyncSvcFacade = (*SyncService)(nil)

// NewSyncService creates the coordinator. sessionID identifies this
// process's writes in the feed; it must match the session the remote
// repositories stamp into origin_session.
func NewSyncService(remote portsrepo.Remote, feed portssvc.ChangeFeed, notifier portssvc.Notifier, local portssvc.LocalStore, ownerID, sessionID string, logger *slog.Logger) *SyncService {
	return &SyncService{
		remote:    remote,
		feed:      feed,
		notifier:  notifier,
		local:     local,
		ownerID:   ownerID,
		sessionID: sessionID,
		logger:    logger.With(slog.String("component", "sync")),
	}
}

// Start subscribes to the watched tables and services the feed
// connection in the background until ctx is cancelled.
func (s *SyncService) Start(ctx context.Context) error {
	for _, table := range watchedTables {
		table := table
		s.feed.Subscribe(table, func(event domain.ChangeEvent) {
			s.handleEvent(ctx, table, event)
		})
	}

	go func() {
		if err := s.feed.Run(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Change feed stopped", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Wait blocks until all in-flight submits drain. Called on shutdown.
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// Refetch replaces the local collections wholesale with the remote
// state. Balances land exactly as stored in the fetched rows.
func (s *SyncService) Refetch(ctx context.Context) error {
	friends, err := s.remote.ListFriends(ctx, s.ownerID)
	if err != nil {
		return fmt.Errorf("refetch friends: %w", err)
	}
	groups, err := s.remote.ListGroups(ctx, s.ownerID)
	if err != nil {
		return fmt.Errorf("refetch groups: %w", err)
	}
	expenses, err := s.remote.ListExpenses(ctx, s.ownerID)
	if err != nil {
		return fmt.Errorf("refetch expenses: %w", err)
	}
	recurring, err := s.remote.ListRecurring(ctx, s.ownerID)
	if err != nil {
		return fmt.Errorf("refetch recurring: %w", err)
	}
	profile, err := s.remote.FindProfileByID(ctx, s.ownerID)
	if err != nil {
		return fmt.Errorf("refetch profile: %w", err)
	}

	s.local.ReplaceAll(friends, groups, expenses, recurring, profile)
	s.logger.Info("Refetch complete",
		slog.Int("friends", len(friends)),
		slog.Int("groups", len(groups)),
		slog.Int("expenses", len(expenses)),
		slog.Int("recurring", len(recurring)))
	return nil
}

// --- Submit paths ---

func (s *SyncService) SubmitExpenseSave(expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group, note portssvc.ActivityNote) {
	s.submit("expense.save", func(ctx context.Context) error {
		if err := s.remote.SaveExpense(ctx, s.ownerID, expense, touchedFriends, touchedGroups); err != nil {
			return err
		}
		return s.recordActivity(ctx, note)
	})
}

// SubmitExpenseEdit mirrors the edit, then always refetches: edits touch
// balances computed locally against possibly stale rows, so the remote
// answer wins unconditionally.
func (s *SyncService) SubmitExpenseEdit(expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group, note portssvc.ActivityNote) {
	s.submit("expense.edit", func(ctx context.Context) error {
		submitErr := s.remote.SaveExpense(ctx, s.ownerID, expense, touchedFriends, touchedGroups)
		if submitErr == nil {
			submitErr = s.recordActivity(ctx, note)
		}
		if err := s.Refetch(ctx); err != nil {
			s.logger.Warn("Post-edit refetch failed", slog.String("error", err.Error()))
		}
		return submitErr
	})
}

func (s *SyncService) SubmitExpenseDelete(expenseID string, touchedFriends []domain.Friend, touchedGroups []domain.Group, note portssvc.ActivityNote) {
	s.submit("expense.delete", func(ctx context.Context) error {
		if err := s.remote.DeleteExpense(ctx, s.ownerID, expenseID, touchedFriends, touchedGroups); err != nil {
			return err
		}
		return s.recordActivity(ctx, note)
	})
}

func (s *SyncService) SubmitFriendSave(friend domain.Friend, note portssvc.ActivityNote) {
	s.submit("friend.save", func(ctx context.Context) error {
		if err := s.remote.SaveFriend(ctx, s.ownerID, friend); err != nil {
			return err
		}
		return s.recordActivity(ctx, note)
	})
}

func (s *SyncService) SubmitFriendDelete(friendID string, note portssvc.ActivityNote) {
	s.submit("friend.delete", func(ctx context.Context) error {
		if err := s.remote.DeleteFriend(ctx, s.ownerID, friendID); err != nil {
			return err
		}
		return s.recordActivity(ctx, note)
	})
}

func (s *SyncService) SubmitGroupSave(group domain.Group, note portssvc.ActivityNote) {
	s.submit("group.save", func(ctx context.Context) error {
		if err := s.remote.SaveGroup(ctx, s.ownerID, group); err != nil {
			return err
		}
		return s.recordActivity(ctx, note)
	})
}

func (s *SyncService) SubmitGroupDelete(groupID string, note portssvc.ActivityNote) {
	s.submit("group.delete", func(ctx context.Context) error {
		if err := s.remote.DeleteGroup(ctx, s.ownerID, groupID); err != nil {
			return err
		}
		return s.recordActivity(ctx, note)
	})
}

func (s *SyncService) SubmitRecurringSave(template domain.RecurringExpense, note portssvc.ActivityNote) {
	s.submit("recurring.save", func(ctx context.Context) error {
		if err := s.remote.SaveRecurring(ctx, s.ownerID, template); err != nil {
			return err
		}
		return s.recordActivity(ctx, note)
	})
}

func (s *SyncService) SubmitRecurringDelete(recurringID string, note portssvc.ActivityNote) {
	s.submit("recurring.delete", func(ctx context.Context) error {
		if err := s.remote.DeleteRecurring(ctx, s.ownerID, recurringID); err != nil {
			return err
		}
		return s.recordActivity(ctx, note)
	})
}

func (s *SyncService) SubmitProfileSave(profile domain.UserProfile) {
	s.submit("profile.save", func(ctx context.Context) error {
		return s.remote.SaveProfile(ctx, profile)
	})
}

// --- Synchronous remote reads ---

// LookupUser resolves a registered account by email first, then phone.
func (s *SyncService) LookupUser(ctx context.Context, email, phone string) (*domain.UserProfile, error) {
	if email != "" {
		profile, err := s.remote.LookupUserByEmail(ctx, email)
		if err == nil {
			return profile, nil
		}
		if phone == "" {
			return nil, err
		}
	}
	if phone != "" {
		return s.remote.LookupUserByPhone(ctx, phone)
	}
	return nil, fmt.Errorf("lookup needs an email or phone: %w", apperrors.ErrValidation)
}

func (s *SyncService) ListActivity(ctx context.Context, limit int, nextToken *string) ([]domain.ActivityLog, *string, error) {
	return s.remote.ListActivity(ctx, s.ownerID, limit, nextToken)
}

// --- internals ---

// submit runs one remote mirror call in the background. Failures are
// logged and swallowed.
func (s *SyncService) submit(op string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Warn("Remote submit failed, local state stands until next refetch",
				slog.String("op", op),
				slog.String("error", err.Error()))
		}
	}()
}

// recordActivity writes the audit entry for a mutation. A zero-valued
// note (no action) means the mutation carries no audit entry, e.g. the
// template advance after a recurring materialization.
func (s *SyncService) recordActivity(ctx context.Context, note portssvc.ActivityNote) error {
	if note.Action == "" {
		return nil
	}
	entry := domain.ActivityLog{
		ActivityID:  uuid.NewString(),
		EntityType:  note.EntityType,
		EntityID:    note.EntityID,
		Action:      note.Action,
		Description: domain.RenderActivityDescription(note.Action, note.Subject, note.Amount),
		CreatedAt:   time.Now().UTC(),
	}
	return s.remote.InsertActivity(ctx, s.ownerID, entry)
}

// handleEvent folds one change-feed event into local state. Events
// stamped with this session's ID are echoes of our own writes and are
// dropped; everything else came from another device.
func (s *SyncService) handleEvent(ctx context.Context, table string, event domain.ChangeEvent) {
	if event.OriginSession == s.sessionID {
		return
	}

	s.logger.Info("Foreign change event",
		slog.String("table", table),
		slog.String("type", string(event.Type)))

	switch event.Type {
	case domain.ChangeDelete:
		// Remove the row locally without touching dependent balances; the
		// resulting gap stands until a refetch reconciles it.
		if id := rowID(table, event.Old); id != "" {
			s.local.RemoveEntity(table, id)
		}
	default:
		if err := s.Refetch(ctx); err != nil {
			s.logger.Warn("Refetch after foreign event failed", slog.String("error", err.Error()))
		}
		if event.Type == domain.ChangeInsert && s.notifier != nil {
			s.notifier.Notify(ctx, "Splitty", foreignInsertBody(table, event.New))
		}
	}
}

// rowID extracts the primary key from a row image for the given table.
func rowID(table string, row json.RawMessage) string {
	if len(row) == 0 {
		return ""
	}
	var keys struct {
		ExpenseID   string `json:"expense_id"`
		FriendID    string `json:"friend_id"`
		GroupID     string `json:"group_id"`
		RecurringID string `json:"recurring_id"`
	}
	if err := json.Unmarshal(row, &keys); err != nil {
		return ""
	}
	switch table {
	case "expenses":
		return keys.ExpenseID
	case "friends":
		return keys.FriendID
	case "groups":
		return keys.GroupID
	case "recurring_expenses":
		return keys.RecurringID
	}
	return ""
}

// foreignInsertBody renders a short notification line for an insert made
// on another device.
func foreignInsertBody(table string, row json.RawMessage) string {
	var fields struct {
		Description string `json:"description"`
		Name        string `json:"name"`
	}
	_ = json.Unmarshal(row, &fields)
	switch {
	case fields.Description != "":
		return fmt.Sprintf("New %s on another device: %s", tableNoun(table), fields.Description)
	case fields.Name != "":
		return fmt.Sprintf("New %s on another device: %s", tableNoun(table), fields.Name)
	default:
		return fmt.Sprintf("New %s on another device", tableNoun(table))
	}
}

func tableNoun(table string) string {
	switch table {
	case "expenses":
		return "expense"
	case "friends":
		return "friend"
	case "groups":
		return "group"
	case "recurring_expenses":
		return "recurring expense"
	}
	return "change"
}
