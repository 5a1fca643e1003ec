package dto

import "github.com/shopspring/decimal"

// SummaryResponse aggregates the owner's position for the analytics
// screen. Amounts are in the owner's display currency.
type SummaryResponse struct {
	TotalOwedToYou decimal.Decimal            `json:"totalOwedToYou"`
	TotalYouOwe    decimal.Decimal            `json:"totalYouOwe"`
	NetBalance     decimal.Decimal            `json:"netBalance"`
	ExpenseCount   int                        `json:"expenseCount"`
	ByCategory     map[string]decimal.Decimal `json:"byCategory"`
	ByMonth        map[string]decimal.Decimal `json:"byMonth"` // keyed YYYY-MM
}
