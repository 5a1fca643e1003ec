package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
)

type RecurringRepository struct {
	db        *pgxpool.Pool
	sessionID string
}

func NewRecurringRepository(db *pgxpool.Pool, sessionID string) *RecurringRepository {
	return &RecurringRepository{db: db, sessionID: sessionID}
}

var _ portsrepo.RecurringRepository = (*RecurringRepository)(nil)

func (r *RecurringRepository) ListRecurring(ctx context.Context, ownerID string) ([]domain.RecurringExpense, error) {
	query := `
        SELECT recurring_id, description, amount, payer_id, group_id, split_with, split_type,
               split_details, category, frequency, next_due_date, active, created_at, updated_at
        FROM recurring_expenses
        WHERE owner_id = $1
        ORDER BY next_due_date;
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring expenses: %w", err)
	}
	defer rows.Close()

	templates := []domain.RecurringExpense{}
	for rows.Next() {
		var t domain.RecurringExpense
		var groupID, category *string
		var splitType, frequency string
		var splitDetails []byte
		err := rows.Scan(
			&t.RecurringID,
			&t.Description,
			&t.Amount,
			&t.PayerID,
			&groupID,
			&t.SplitWith,
			&splitType,
			&splitDetails,
			&category,
			&frequency,
			&t.NextDueDate,
			&t.Active,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring row: %w", err)
		}
		t.GroupID = deref(groupID)
		t.Category = deref(category)
		t.Frequency = domain.Frequency(frequency)
		t.Split, err = decodeSplit(splitType, splitDetails)
		if err != nil {
			return nil, fmt.Errorf("failed to decode split of recurring %s: %w", t.RecurringID, err)
		}
		templates = append(templates, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating recurring rows: %w", rows.Err())
	}

	return templates, nil
}

func (r *RecurringRepository) SaveRecurring(ctx context.Context, ownerID string, template domain.RecurringExpense) error {
	splitDetails, err := encodeSplit(template.Split)
	if err != nil {
		return fmt.Errorf("failed to encode split of recurring %s: %w", template.RecurringID, err)
	}

	query := `
        INSERT INTO recurring_expenses (recurring_id, owner_id, description, amount, payer_id, group_id,
                                        split_with, split_type, split_details, category, frequency,
                                        next_due_date, active, origin_session, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (recurring_id) DO UPDATE SET
            description = EXCLUDED.description,
            amount = EXCLUDED.amount,
            payer_id = EXCLUDED.payer_id,
            group_id = EXCLUDED.group_id,
            split_with = EXCLUDED.split_with,
            split_type = EXCLUDED.split_type,
            split_details = EXCLUDED.split_details,
            category = EXCLUDED.category,
            frequency = EXCLUDED.frequency,
            next_due_date = EXCLUDED.next_due_date,
            active = EXCLUDED.active,
            origin_session = EXCLUDED.origin_session,
            updated_at = EXCLUDED.updated_at;
    `
	_, err = r.db.Exec(ctx, query,
		template.RecurringID,
		ownerID,
		template.Description,
		template.Amount,
		template.PayerID,
		nullable(template.GroupID),
		template.SplitWith,
		string(template.Split.Kind),
		splitDetails,
		nullable(template.Category),
		string(template.Frequency),
		template.NextDueDate,
		template.Active,
		r.sessionID,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recurring %s: %w", template.RecurringID, err)
	}
	return nil
}

func (r *RecurringRepository) DeleteRecurring(ctx context.Context, ownerID string, recurringID string) error {
	if _, err := r.db.Exec(ctx, `UPDATE recurring_expenses SET origin_session = $3 WHERE recurring_id = $1 AND owner_id = $2;`, recurringID, ownerID, r.sessionID); err != nil {
		return fmt.Errorf("failed to stamp recurring %s for delete: %w", recurringID, err)
	}
	_, err := r.db.Exec(ctx, `DELETE FROM recurring_expenses WHERE recurring_id = $1 AND owner_id = $2;`, recurringID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete recurring %s: %w", recurringID, err)
	}
	return nil
}
