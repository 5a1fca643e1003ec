package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// CreateRecurringRequest creates a recurring expense template.
type CreateRecurringRequest struct {
	Description  string                     `json:"description" binding:"required"`
	Amount       decimal.Decimal            `json:"amount" binding:"required"`
	PayerID      string                     `json:"payerID" binding:"required"`
	GroupID      string                     `json:"groupID"`
	SplitWith    []string                   `json:"splitWith"`
	SplitType    domain.SplitKind           `json:"splitType" binding:"required,oneof=equal unequal"`
	SplitDetails map[string]decimal.Decimal `json:"splitDetails"`
	Category     string                     `json:"category"`
	Frequency    domain.Frequency           `json:"frequency" binding:"required,oneof=daily weekly monthly"`
	NextDueDate  time.Time                  `json:"nextDueDate" binding:"required"`
}

// Split builds the tagged split variant from the request fields.
func (r CreateRecurringRequest) Split() domain.Split {
	if r.SplitType == domain.SplitUnequal {
		return domain.UnequalSplit(r.SplitDetails)
	}
	return domain.EqualSplit()
}

// RecurringResponse is the API representation of a template.
type RecurringResponse struct {
	RecurringID  string                     `json:"recurringID"`
	Description  string                     `json:"description"`
	Amount       decimal.Decimal            `json:"amount"`
	PayerID      string                     `json:"payerID"`
	GroupID      string                     `json:"groupID,omitempty"`
	SplitWith    []string                   `json:"splitWith,omitempty"`
	SplitType    domain.SplitKind           `json:"splitType"`
	SplitDetails map[string]decimal.Decimal `json:"splitDetails,omitempty"`
	Category     string                     `json:"category"`
	Frequency    domain.Frequency           `json:"frequency"`
	NextDueDate  time.Time                  `json:"nextDueDate"`
	Active       bool                       `json:"active"`
}

// ToRecurringResponse converts a domain.RecurringExpense.
func ToRecurringResponse(r *domain.RecurringExpense) RecurringResponse {
	return RecurringResponse{
		RecurringID:  r.RecurringID,
		Description:  r.Description,
		Amount:       r.Amount,
		PayerID:      r.PayerID,
		GroupID:      r.GroupID,
		SplitWith:    r.SplitWith,
		SplitType:    r.Split.Kind,
		SplitDetails: r.Split.Shares,
		Category:     r.Category,
		Frequency:    r.Frequency,
		NextDueDate:  r.NextDueDate,
		Active:       r.Active,
	}
}

// CheckRecurringResponse reports a recurring catch-up pass.
type CheckRecurringResponse struct {
	Materialized int `json:"materialized"`
}
