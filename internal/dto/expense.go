package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// CreateExpenseRequest is the payload for adding an expense. Edits use
// the same shape: an edit is a full replacement (reverse old, apply new).
type CreateExpenseRequest struct {
	Description  string                     `json:"description" binding:"required"`
	Amount       decimal.Decimal            `json:"amount" binding:"required"`
	PayerID      string                     `json:"payerID" binding:"required"`
	GroupID      string                     `json:"groupID"`
	SplitWith    []string                   `json:"splitWith"`
	Date         *time.Time                 `json:"date"`
	SplitType    domain.SplitKind           `json:"splitType" binding:"required,oneof=equal unequal"`
	SplitDetails map[string]decimal.Decimal `json:"splitDetails"`
	Category     string                     `json:"category"`
}

// Split builds the tagged split variant from the request fields.
func (r CreateExpenseRequest) Split() domain.Split {
	if r.SplitType == domain.SplitUnequal {
		return domain.UnequalSplit(r.SplitDetails)
	}
	return domain.EqualSplit()
}

// ExpenseResponse is the API representation of an expense.
type ExpenseResponse struct {
	ExpenseID    string                     `json:"expenseID"`
	Description  string                     `json:"description"`
	Amount       decimal.Decimal            `json:"amount"`
	PayerID      string                     `json:"payerID"`
	GroupID      string                     `json:"groupID,omitempty"`
	SplitWith    []string                   `json:"splitWith,omitempty"`
	Date         time.Time                  `json:"date"`
	SplitType    domain.SplitKind           `json:"splitType"`
	SplitDetails map[string]decimal.Decimal `json:"splitDetails,omitempty"`
	Category     string                     `json:"category"`
	IsSettlement bool                       `json:"isSettlement"`
	CreatedAt    time.Time                  `json:"createdAt"`
}

// ToExpenseResponse converts a domain.Expense to its API shape.
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID:    e.ExpenseID,
		Description:  e.Description,
		Amount:       e.Amount,
		PayerID:      e.PayerID,
		GroupID:      e.GroupID,
		SplitWith:    e.SplitWith,
		Date:         e.Date,
		SplitType:    e.Split.Kind,
		SplitDetails: e.Split.Shares,
		Category:     e.Category,
		IsSettlement: e.IsSettlement,
		CreatedAt:    e.CreatedAt,
	}
}

// ToExpenseResponses converts a slice of expenses.
func ToExpenseResponses(expenses []domain.Expense) []ExpenseResponse {
	responses := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		responses[i] = ToExpenseResponse(&expenses[i])
	}
	return responses
}

// CreateSettlementRequest records a payment between the owner and a
// friend. Exactly one side is "self".
type CreateSettlementRequest struct {
	PayerID    string          `json:"payerID" binding:"required"`
	ReceiverID string          `json:"receiverID" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	GroupID    string          `json:"groupID"`
}
