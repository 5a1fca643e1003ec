package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
)

type FriendRepository struct {
	db        *pgxpool.Pool
	sessionID string
}

func NewFriendRepository(db *pgxpool.Pool, sessionID string) *FriendRepository {
	return &FriendRepository{db: db, sessionID: sessionID}
}

// Ensure FriendRepository implements the port.
var _ portsrepo.FriendRepository = (*FriendRepository)(nil)

func (r *FriendRepository) ListFriends(ctx context.Context, ownerID string) ([]domain.Friend, error) {
	query := `
        SELECT friend_id, name, email, phone, avatar_url, linked_user_id, balance, created_at, updated_at
        FROM friends
        WHERE owner_id = $1
        ORDER BY name;
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	defer rows.Close()

	friends := []domain.Friend{}
	for rows.Next() {
		var f domain.Friend
		var email, phone, avatarURL, linkedUserID *string
		err := rows.Scan(
			&f.FriendID,
			&f.Name,
			&email,
			&phone,
			&avatarURL,
			&linkedUserID,
			&f.Balance,
			&f.CreatedAt,
			&f.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend row: %w", err)
		}
		f.Email = deref(email)
		f.Phone = deref(phone)
		f.AvatarURL = deref(avatarURL)
		f.LinkedUserID = deref(linkedUserID)
		friends = append(friends, f)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating friend rows: %w", rows.Err())
	}

	return friends, nil
}

func (r *FriendRepository) SaveFriend(ctx context.Context, ownerID string, friend domain.Friend) error {
	query := `
        INSERT INTO friends (friend_id, owner_id, name, email, phone, avatar_url, linked_user_id, balance, origin_session, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (friend_id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            phone = EXCLUDED.phone,
            avatar_url = EXCLUDED.avatar_url,
            linked_user_id = EXCLUDED.linked_user_id,
            balance = EXCLUDED.balance,
            origin_session = EXCLUDED.origin_session,
            updated_at = EXCLUDED.updated_at;
    `
	_, err := r.db.Exec(ctx, query,
		friend.FriendID,
		ownerID,
		friend.Name,
		nullable(friend.Email),
		nullable(friend.Phone),
		nullable(friend.AvatarURL),
		nullable(friend.LinkedUserID),
		friend.Balance,
		r.sessionID,
		friend.CreatedAt,
		friend.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save friend %s: %w", friend.FriendID, err)
	}
	return nil
}

func (r *FriendRepository) DeleteFriend(ctx context.Context, ownerID string, friendID string) error {
	// Stamp the origin before deleting so the DELETE feed event carries
	// this session in its old row image.
	query := `
        UPDATE friends SET origin_session = $3 WHERE friend_id = $1 AND owner_id = $2;
    `
	if _, err := r.db.Exec(ctx, query, friendID, ownerID, r.sessionID); err != nil {
		return fmt.Errorf("failed to stamp friend %s for delete: %w", friendID, err)
	}
	_, err := r.db.Exec(ctx, `DELETE FROM friends WHERE friend_id = $1 AND owner_id = $2;`, friendID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete friend %s: %w", friendID, err)
	}
	return nil
}

// deref converts a nullable text column to its domain string form.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullable stores empty strings as NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// errNoRows reports whether err is the pgx no-rows sentinel.
func errNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
