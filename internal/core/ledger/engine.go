// Package ledger implements the balance computation engine: the pure
// functions that apply and reverse the financial effect of one expense
// onto the friend and group balance aggregates.
//
// The engine maintains two invariants:
//
//   - Conservation: the signed balance deltas across payer and all
//     participants of an expense sum to zero.
//   - Inverse law: ReverseExpense applies the exact negation of
//     ApplyExpense, so delete (and the first half of edit) restores the
//     pre-apply state bit for bit.
//
// The engine assumes referenced IDs were pre-filtered by the caller and
// silently no-ops on missing friends or groups.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

var (
	// ErrInvalidAmount rejects a missing, non-positive or non-finite amount.
	ErrInvalidAmount = errors.New("expense amount must be a positive number")
	// ErrSplitMismatch rejects unequal split details that do not sum to the
	// expense amount within the tolerance.
	ErrSplitMismatch = errors.New("unequal split amounts do not sum to the expense amount")
	// ErrMissingShares rejects an unequal split without explicit shares.
	ErrMissingShares = errors.New("unequal split requires explicit share amounts")
)

// SplitTolerance is the absolute mismatch allowed between an expense
// amount and the sum of its unequal shares, absorbing float rounding
// from clients.
var SplitTolerance = decimal.NewFromFloat(0.05)

// Participants resolves the non-self participant set for an expense.
// Group membership supersedes the explicit SplitWith list.
func Participants(exp domain.Expense, groups map[string]domain.Group) []string {
	if exp.GroupID != "" {
		if g, ok := groups[exp.GroupID]; ok {
			return append([]string(nil), g.Members...)
		}
		return nil
	}
	return append([]string(nil), exp.SplitWith...)
}

// ComputeShares allocates an expense's amount across the participant
// circle (participants plus self).
//
// Equal splits divide by len(participants)+1: the payer's own head is
// always counted, even when the payer is also a listed participant.
// Unequal splits return the supplied details verbatim.
func ComputeShares(exp domain.Expense, groups map[string]domain.Group) (map[string]decimal.Decimal, error) {
	participants := Participants(exp, groups)

	if exp.Split.Kind == domain.SplitUnequal {
		if exp.Split.Shares == nil {
			return nil, ErrMissingShares
		}
		shares := make(map[string]decimal.Decimal, len(exp.Split.Shares))
		for id, amt := range exp.Split.Shares {
			shares[id] = amt
		}
		return shares, nil
	}

	heads := int64(len(participants) + 1)
	share := exp.Amount.Div(decimal.NewFromInt(heads))
	shares := make(map[string]decimal.Decimal, heads)
	shares[domain.SelfID] = share
	for _, p := range participants {
		shares[p] = share
	}
	return shares, nil
}

// ValidateExpense performs the fail-closed checks run before any ledger
// mutation. It returns ErrInvalidAmount or ErrSplitMismatch; a valid
// expense returns nil.
func ValidateExpense(exp domain.Expense) error {
	if exp.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if exp.Split.Kind == domain.SplitUnequal {
		if exp.Split.Shares == nil {
			return ErrMissingShares
		}
		sum := decimal.Zero
		for _, amt := range exp.Split.Shares {
			sum = sum.Add(amt)
		}
		if sum.Sub(exp.Amount).Abs().GreaterThan(SplitTolerance) {
			return ErrSplitMismatch
		}
	}
	return nil
}

// ApplyExpense applies one expense's balance effect and returns updated
// friend and group collections. The returned maps are fresh copies; the
// caller's collections are never aliased or mutated.
func ApplyExpense(exp domain.Expense, friends map[string]domain.Friend, groups map[string]domain.Group) (map[string]domain.Friend, map[string]domain.Group, error) {
	return applyWithSign(exp, friends, groups, decimal.NewFromInt(1))
}

// ReverseExpense applies the exact negation of ApplyExpense's deltas.
// Used for delete and as the first half of edit.
func ReverseExpense(exp domain.Expense, friends map[string]domain.Friend, groups map[string]domain.Group) (map[string]domain.Friend, map[string]domain.Group, error) {
	return applyWithSign(exp, friends, groups, decimal.NewFromInt(-1))
}

func applyWithSign(exp domain.Expense, friends map[string]domain.Friend, groups map[string]domain.Group, sign decimal.Decimal) (map[string]domain.Friend, map[string]domain.Group, error) {
	shares, err := ComputeShares(exp, groups)
	if err != nil {
		return nil, nil, err
	}

	nextFriends := make(map[string]domain.Friend, len(friends))
	for id, f := range friends {
		nextFriends[id] = f
	}
	nextGroups := make(map[string]domain.Group, len(groups))
	for id, g := range groups {
		nextGroups[id] = g
	}

	selfShare := shares[domain.SelfID]

	if exp.PayerID == domain.SelfID {
		// The owner fronted the money: every non-self participant owes
		// the owner their share.
		for id, share := range shares {
			if id == domain.SelfID || share.IsZero() {
				continue
			}
			friend, ok := nextFriends[id]
			if !ok {
				continue
			}
			friend.Balance = friend.Balance.Add(share.Mul(sign))
			nextFriends[id] = friend
		}
		if exp.GroupID != "" {
			if group, ok := nextGroups[exp.GroupID]; ok {
				fronted := exp.Amount.Sub(selfShare)
				group.Balance = group.Balance.Add(fronted.Mul(sign))
				nextGroups[exp.GroupID] = group
			}
		}
	} else {
		// A friend paid: the owner owes the payer the self share, which
		// lowers the payer's stored "owes the owner" balance.
		if !selfShare.IsZero() {
			if payer, ok := nextFriends[exp.PayerID]; ok {
				payer.Balance = payer.Balance.Sub(selfShare.Mul(sign))
				nextFriends[exp.PayerID] = payer
			}
		}
		if exp.GroupID != "" {
			if group, ok := nextGroups[exp.GroupID]; ok {
				group.Balance = group.Balance.Sub(selfShare.Mul(sign))
				nextGroups[exp.GroupID] = group
			}
		}
	}

	return nextFriends, nextGroups, nil
}
