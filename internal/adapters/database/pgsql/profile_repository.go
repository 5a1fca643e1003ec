package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splittyhq/splitty_backend/internal/apperrors"
	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
)

type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ portsrepo.ProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) FindProfileByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
        SELECT user_id, name, email, phone, avatar_url, default_currency, created_at, updated_at
        FROM profiles
        WHERE user_id = $1;
    `
	profile, err := r.scanProfile(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errNoRows(err) {
			return nil, fmt.Errorf("profile %s: %w", userID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find profile by ID: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) FindCredentialsByEmail(ctx context.Context, email string) (string, string, error) {
	query := `
        SELECT user_id, password_hash
        FROM profiles
        WHERE lower(email) = lower($1);
    `
	var userID, passwordHash string
	err := r.db.QueryRow(ctx, query, email).Scan(&userID, &passwordHash)
	if err != nil {
		if errNoRows(err) {
			return "", "", fmt.Errorf("no account for email: %w", apperrors.ErrNotFound)
		}
		return "", "", fmt.Errorf("failed to find credentials: %w", err)
	}
	return userID, passwordHash, nil
}

func (r *ProfileRepository) SaveProfile(ctx context.Context, profile domain.UserProfile) error {
	query := `
        UPDATE profiles SET
            name = $2,
            phone = $3,
            avatar_url = $4,
            default_currency = $5,
            updated_at = $6
        WHERE user_id = $1;
    `
	tag, err := r.db.Exec(ctx, query,
		profile.UserID,
		profile.Name,
		nullable(profile.Phone),
		nullable(profile.AvatarURL),
		profile.DefaultCurrency,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", profile.UserID, apperrors.ErrNotFound)
	}
	return nil
}

// LookupUserByEmail resolves a registered user via the
// lookup_user_by_email database function, which bypasses row-level
// ownership so friends can be linked to other accounts.
func (r *ProfileRepository) LookupUserByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	query := `
        SELECT user_id, name, email, phone, avatar_url, default_currency, created_at, updated_at
        FROM lookup_user_by_email($1);
    `
	profile, err := r.scanProfile(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errNoRows(err) {
			return nil, fmt.Errorf("no account for email: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return profile, nil
}

// LookupUserByPhone resolves a registered user via lookup_user_by_phone.
func (r *ProfileRepository) LookupUserByPhone(ctx context.Context, phone string) (*domain.UserProfile, error) {
	query := `
        SELECT user_id, name, email, phone, avatar_url, default_currency, created_at, updated_at
        FROM lookup_user_by_phone($1);
    `
	profile, err := r.scanProfile(r.db.QueryRow(ctx, query, phone))
	if err != nil {
		if errNoRows(err) {
			return nil, fmt.Errorf("no account for phone: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up user by phone: %w", err)
	}
	return profile, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProfileRepository) scanProfile(row rowScanner) (*domain.UserProfile, error) {
	var p domain.UserProfile
	var phone, avatarURL *string
	err := row.Scan(
		&p.UserID,
		&p.Name,
		&p.Email,
		&phone,
		&avatarURL,
		&p.DefaultCurrency,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Phone = deref(phone)
	p.AvatarURL = deref(avatarURL)
	return &p, nil
}
