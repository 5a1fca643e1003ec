package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
	"github.com/splittyhq/splitty_backend/internal/utils/pagination"
)

type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

var _ portsrepo.ActivityRepository = (*ActivityRepository)(nil)

func (r *ActivityRepository) InsertActivity(ctx context.Context, ownerID string, entry domain.ActivityLog) error {
	query := `
        INSERT INTO activity_log (activity_id, owner_id, entity_type, entity_id, action, description, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
    `
	var metadata []byte
	if len(entry.Metadata) > 0 {
		metadata = entry.Metadata
	}
	_, err := r.db.Exec(ctx, query,
		entry.ActivityID,
		ownerID,
		string(entry.EntityType),
		entry.EntityID,
		string(entry.Action),
		entry.Description,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity %s: %w", entry.ActivityID, err)
	}
	return nil
}

// ListActivity returns entries newest first. The pagination token is a
// (created_at, activity_id) cursor so entries sharing a timestamp are
// never skipped or repeated across pages.
func (r *ActivityRepository) ListActivity(ctx context.Context, ownerID string, limit int, nextToken *string) ([]domain.ActivityLog, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
        SELECT activity_id, entity_type, entity_id, action, description, metadata, created_at
        FROM activity_log
        WHERE owner_id = $1
    `
	args := []any{ownerID}
	if nextToken != nil && *nextToken != "" {
		fields, err := pagination.DecodeMultiFieldToken(*nextToken)
		if err != nil || len(fields) != 2 {
			return nil, nil, fmt.Errorf("invalid activity pagination token: %w", err)
		}
		cursorTime, err := time.Parse(time.RFC3339Nano, fields[0])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid activity pagination token: %w", err)
		}
		query += ` AND (created_at, activity_id) < ($2, $3)`
		args = append(args, cursorTime, fields[1])
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, activity_id DESC LIMIT %d;`, limit+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	entries := []domain.ActivityLog{}
	for rows.Next() {
		var entry domain.ActivityLog
		var entityType, action string
		var metadata []byte
		err := rows.Scan(
			&entry.ActivityID,
			&entityType,
			&entry.EntityID,
			&action,
			&entry.Description,
			&metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		entry.EntityType = domain.EntityType(entityType)
		entry.Action = domain.ActivityAction(action)
		entry.Metadata = metadata
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating activity rows: %w", rows.Err())
	}

	var newToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeMultiFieldToken(last.CreatedAt.Format(time.RFC3339Nano), last.ActivityID)
		newToken = &token
	}

	return entries, newToken, nil
}
