package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a single shared expense.
//
// Exactly one of GroupID or SplitWith determines the non-self participant
// set: when GroupID is set the group's membership supersedes SplitWith.
// IsSettlement marks a payment that reduces an existing balance; it uses
// the same split math as any two-party unequal expense and is only a
// display flag.
type Expense struct {
	ExpenseID    string          `json:"expenseID"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"` // Always positive
	PayerID      string          `json:"payerID"` // SelfID or a friend ID
	GroupID      string          `json:"groupID,omitempty"`
	SplitWith    []string        `json:"splitWith,omitempty"`
	Date         time.Time       `json:"date"`
	Split        Split           `json:"split"`
	Category     string          `json:"category"`
	IsSettlement bool            `json:"isSettlement,omitempty"`
	AuditFields
}
