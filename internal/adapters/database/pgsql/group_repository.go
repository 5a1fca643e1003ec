package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
)

type GroupRepository struct {
	db        *pgxpool.Pool
	sessionID string
}

func NewGroupRepository(db *pgxpool.Pool, sessionID string) *GroupRepository {
	return &GroupRepository{db: db, sessionID: sessionID}
}

var _ portsrepo.GroupRepository = (*GroupRepository)(nil)

func (r *GroupRepository) ListGroups(ctx context.Context, ownerID string) ([]domain.Group, error) {
	query := `
        SELECT g.group_id, g.name, g.balance, g.created_at, g.updated_at,
               COALESCE(array_agg(m.friend_id ORDER BY m.friend_id) FILTER (WHERE m.friend_id IS NOT NULL), '{}') AS members
        FROM groups g
        LEFT JOIN group_members m ON m.group_id = g.group_id
        WHERE g.owner_id = $1
        GROUP BY g.group_id
        ORDER BY g.name;
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var g domain.Group
		err := rows.Scan(
			&g.GroupID,
			&g.Name,
			&g.Balance,
			&g.CreatedAt,
			&g.UpdatedAt,
			&g.Members,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, g)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating group rows: %w", rows.Err())
	}

	return groups, nil
}

// SaveGroup upserts the group row and replaces its member set in one
// transaction.
func (r *GroupRepository) SaveGroup(ctx context.Context, ownerID string, group domain.Group) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore rollback error
	}()

	groupQuery := `
        INSERT INTO groups (group_id, owner_id, name, balance, origin_session, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (group_id) DO UPDATE SET
            name = EXCLUDED.name,
            balance = EXCLUDED.balance,
            origin_session = EXCLUDED.origin_session,
            updated_at = EXCLUDED.updated_at;
    `
	_, err = tx.Exec(ctx, groupQuery,
		group.GroupID,
		ownerID,
		group.Name,
		group.Balance,
		r.sessionID,
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save group %s: %w", group.GroupID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1;`, group.GroupID); err != nil {
		return fmt.Errorf("failed to clear members of group %s: %w", group.GroupID, err)
	}

	batch := &pgx.Batch{}
	memberQuery := `INSERT INTO group_members (group_id, friend_id) VALUES ($1, $2);`
	for _, friendID := range group.Members {
		batch.Queue(memberQuery, group.GroupID, friendID)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert members of group %s: %w", group.GroupID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit group %s: %w", group.GroupID, err)
	}
	return nil
}

func (r *GroupRepository) DeleteGroup(ctx context.Context, ownerID string, groupID string) error {
	if _, err := r.db.Exec(ctx, `UPDATE groups SET origin_session = $3 WHERE group_id = $1 AND owner_id = $2;`, groupID, ownerID, r.sessionID); err != nil {
		return fmt.Errorf("failed to stamp group %s for delete: %w", groupID, err)
	}
	// Membership rows cascade.
	_, err := r.db.Exec(ctx, `DELETE FROM groups WHERE group_id = $1 AND owner_id = $2;`, groupID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete group %s: %w", groupID, err)
	}
	return nil
}
