package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the recurrence period of a recurring expense template.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// RecurringExpense is a template that materializes one Expense each time
// its NextDueDate passes while Active. Templates never auto-deactivate;
// only an explicit delete stops them.
type RecurringExpense struct {
	RecurringID string          `json:"recurringID"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PayerID     string          `json:"payerID"`
	GroupID     string          `json:"groupID,omitempty"`
	SplitWith   []string        `json:"splitWith,omitempty"`
	Split       Split           `json:"split"`
	Category    string          `json:"category"`
	Frequency   Frequency       `json:"frequency"`
	NextDueDate time.Time       `json:"nextDueDate"`
	Active      bool            `json:"active"`
	AuditFields
}

// ToExpense strips the recurrence fields, producing the expense input for
// one materialized occurrence dated at the due date that triggered it.
func (r RecurringExpense) ToExpense(dueDate time.Time) Expense {
	return Expense{
		Description: r.Description,
		Amount:      r.Amount,
		PayerID:     r.PayerID,
		GroupID:     r.GroupID,
		SplitWith:   append([]string(nil), r.SplitWith...),
		Date:        dueDate,
		Split:       r.Split,
		Category:    r.Category,
	}
}
