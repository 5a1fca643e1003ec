package domain

import "github.com/shopspring/decimal"

// SplitKind discriminates how an expense's amount is allocated across
// the participant circle.
type SplitKind string

const (
	SplitEqual   SplitKind = "equal"
	SplitUnequal SplitKind = "unequal"
)

// Split is a tagged variant describing an expense's allocation.
// Shares is populated only for SplitUnequal and maps participant ID
// (friend ID or SelfID) to that participant's exact amount.
type Split struct {
	Kind   SplitKind                  `json:"kind"`
	Shares map[string]decimal.Decimal `json:"shares,omitempty"`
}

// EqualSplit returns the even-shares variant.
func EqualSplit() Split {
	return Split{Kind: SplitEqual}
}

// UnequalSplit returns the explicit-shares variant over a copy of shares.
func UnequalSplit(shares map[string]decimal.Decimal) Split {
	copied := make(map[string]decimal.Decimal, len(shares))
	for id, amt := range shares {
		copied[id] = amt
	}
	return Split{Kind: SplitUnequal, Shares: copied}
}
