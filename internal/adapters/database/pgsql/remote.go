package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
)

// Remote bundles the per-table repositories into the persistence API
// facade the sync coordinator consumes. sessionID is stamped into
// origin_session on every write so this process can recognize its own
// echoes on the change feed.
type Remote struct {
	*FriendRepository
	*GroupRepository
	*ExpenseRepository
	*RecurringRepository
	*ProfileRepository
	*ActivityRepository
}

var _ portsrepo.Remote = (*Remote)(nil)

func NewRemote(db *pgxpool.Pool, sessionID string) *Remote {
	return &Remote{
		FriendRepository:    NewFriendRepository(db, sessionID),
		GroupRepository:     NewGroupRepository(db, sessionID),
		ExpenseRepository:   NewExpenseRepository(db, sessionID),
		RecurringRepository: NewRecurringRepository(db, sessionID),
		ProfileRepository:   NewProfileRepository(db),
		ActivityRepository:  NewActivityRepository(db),
	}
}
