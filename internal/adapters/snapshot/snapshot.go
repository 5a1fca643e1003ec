// Package snapshot persists the full repository state to durable local
// storage as one JSON document, written through on every mutation and
// rehydrated at startup before any operation is allowed.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// Namespace is the fixed storage namespace key.
const Namespace = "splitty-storage"

// State is the serialized repository state.
type State struct {
	Friends    []domain.Friend           `json:"friends"`
	Groups     []domain.Group            `json:"groups"`
	Expenses   []domain.Expense          `json:"expenses"`
	Recurring  []domain.RecurringExpense `json:"recurringExpenses"`
	Profile    domain.UserProfile        `json:"userProfile"`
	Currency   string                    `json:"currency"`
	Theme      string                    `json:"theme"`
	SavedAt    time.Time                 `json:"savedAt"`
}

// Store reads and writes the snapshot file under a directory.
type Store struct {
	path string
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, Namespace+".json")}
}

// Load reads the snapshot. It returns (nil, nil) when no snapshot exists
// yet (first launch).
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot %s: %w", s.path, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", s.path, err)
	}
	return &state, nil
}

// Save writes the snapshot atomically (temp file plus rename) so a crash
// mid-write never corrupts the previous snapshot.
func (s *Store) Save(state *State) error {
	state.SavedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// DefaultSeed is the documented first-launch state: two sample friends,
// one sample group, no expenses.
func DefaultSeed(now time.Time) *State {
	alex := domain.Friend{
		FriendID:    uuid.NewString(),
		Name:        "Alex",
		Balance:     decimal.Zero,
		AuditFields: domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	sam := domain.Friend{
		FriendID:    uuid.NewString(),
		Name:        "Sam",
		Balance:     decimal.Zero,
		AuditFields: domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}
	trip := domain.Group{
		GroupID:     uuid.NewString(),
		Name:        "Weekend Trip",
		Members:     []string{alex.FriendID, sam.FriendID},
		Balance:     decimal.Zero,
		AuditFields: domain.AuditFields{CreatedAt: now, UpdatedAt: now},
	}

	return &State{
		Friends:  []domain.Friend{alex, sam},
		Groups:   []domain.Group{trip},
		Currency: "USD",
		Theme:    "system",
	}
}
