package pgsql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
)

type ExpenseRepository struct {
	db        *pgxpool.Pool
	sessionID string
}

func NewExpenseRepository(db *pgxpool.Pool, sessionID string) *ExpenseRepository {
	return &ExpenseRepository{db: db, sessionID: sessionID}
}

var _ portsrepo.ExpenseRepository = (*ExpenseRepository)(nil)

func (r *ExpenseRepository) ListExpenses(ctx context.Context, ownerID string) ([]domain.Expense, error) {
	query := `
        SELECT expense_id, description, amount, payer_id, group_id, split_with, expense_date,
               split_type, split_details, category, is_settlement, created_at, updated_at
        FROM expenses
        WHERE owner_id = $1
        ORDER BY expense_date DESC;
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		var e domain.Expense
		var groupID, category *string
		var splitType string
		var splitDetails []byte
		err := rows.Scan(
			&e.ExpenseID,
			&e.Description,
			&e.Amount,
			&e.PayerID,
			&groupID,
			&e.SplitWith,
			&e.Date,
			&splitType,
			&splitDetails,
			&category,
			&e.IsSettlement,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		e.GroupID = deref(groupID)
		e.Category = deref(category)
		e.Split, err = decodeSplit(splitType, splitDetails)
		if err != nil {
			return nil, fmt.Errorf("failed to decode split of expense %s: %w", e.ExpenseID, err)
		}
		expenses = append(expenses, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", rows.Err())
	}

	return expenses, nil
}

// SaveExpense upserts the expense row and rewrites the touched friend
// and group balance rows in one transaction, so the expense and its
// balance effect land together.
func (r *ExpenseRepository) SaveExpense(ctx context.Context, ownerID string, expense domain.Expense, touchedFriends []domain.Friend, touchedGroups []domain.Group) error {
	splitDetails, err := encodeSplit(expense.Split)
	if err != nil {
		return fmt.Errorf("failed to encode split of expense %s: %w", expense.ExpenseID, err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore rollback error
	}()

	expenseQuery := `
        INSERT INTO expenses (expense_id, owner_id, description, amount, payer_id, group_id, split_with,
                              expense_date, split_type, split_details, category, is_settlement,
                              origin_session, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        ON CONFLICT (expense_id) DO UPDATE SET
            description = EXCLUDED.description,
            amount = EXCLUDED.amount,
            payer_id = EXCLUDED.payer_id,
            group_id = EXCLUDED.group_id,
            split_with = EXCLUDED.split_with,
            expense_date = EXCLUDED.expense_date,
            split_type = EXCLUDED.split_type,
            split_details = EXCLUDED.split_details,
            category = EXCLUDED.category,
            origin_session = EXCLUDED.origin_session,
            updated_at = EXCLUDED.updated_at;
    `
	_, err = tx.Exec(ctx, expenseQuery,
		expense.ExpenseID,
		ownerID,
		expense.Description,
		expense.Amount,
		expense.PayerID,
		nullable(expense.GroupID),
		expense.SplitWith,
		expense.Date,
		string(expense.Split.Kind),
		splitDetails,
		nullable(expense.Category),
		expense.IsSettlement,
		r.sessionID,
		expense.CreatedAt,
		expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save expense %s: %w", expense.ExpenseID, err)
	}

	if err := r.queueBalanceRows(ctx, tx, touchedFriends, touchedGroups); err != nil {
		return fmt.Errorf("failed to update balances for expense %s: %w", expense.ExpenseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit expense %s: %w", expense.ExpenseID, err)
	}
	return nil
}

// DeleteExpense removes the expense row and rewrites the touched
// balance rows in one transaction. Deleting an absent row is not an error.
func (r *ExpenseRepository) DeleteExpense(ctx context.Context, ownerID string, expenseID string, touchedFriends []domain.Friend, touchedGroups []domain.Group) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `UPDATE expenses SET origin_session = $3 WHERE expense_id = $1 AND owner_id = $2;`, expenseID, ownerID, r.sessionID); err != nil {
		return fmt.Errorf("failed to stamp expense %s for delete: %w", expenseID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM expenses WHERE expense_id = $1 AND owner_id = $2;`, expenseID, ownerID); err != nil {
		return fmt.Errorf("failed to delete expense %s: %w", expenseID, err)
	}

	if err := r.queueBalanceRows(ctx, tx, touchedFriends, touchedGroups); err != nil {
		return fmt.Errorf("failed to update balances for deleted expense %s: %w", expenseID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete of expense %s: %w", expenseID, err)
	}
	return nil
}

func (r *ExpenseRepository) queueBalanceRows(ctx context.Context, tx pgx.Tx, touchedFriends []domain.Friend, touchedGroups []domain.Group) error {
	batch := &pgx.Batch{}
	friendQuery := `UPDATE friends SET balance = $2, origin_session = $3, updated_at = now() WHERE friend_id = $1;`
	for _, f := range touchedFriends {
		batch.Queue(friendQuery, f.FriendID, f.Balance, r.sessionID)
	}
	groupQuery := `UPDATE groups SET balance = $2, origin_session = $3, updated_at = now() WHERE group_id = $1;`
	for _, g := range touchedGroups {
		batch.Queue(groupQuery, g.GroupID, g.Balance, r.sessionID)
	}

	br := tx.SendBatch(ctx, batch)
	return br.Close()
}

// encodeSplit serializes unequal share details to jsonb; equal splits
// store NULL.
func encodeSplit(split domain.Split) ([]byte, error) {
	if split.Kind != domain.SplitUnequal || split.Shares == nil {
		return nil, nil
	}
	return json.Marshal(split.Shares)
}

func decodeSplit(splitType string, splitDetails []byte) (domain.Split, error) {
	if domain.SplitKind(splitType) != domain.SplitUnequal {
		return domain.EqualSplit(), nil
	}
	shares := map[string]decimal.Decimal{}
	if len(splitDetails) > 0 {
		if err := json.Unmarshal(splitDetails, &shares); err != nil {
			return domain.Split{}, err
		}
	}
	return domain.UnequalSplit(shares), nil
}
