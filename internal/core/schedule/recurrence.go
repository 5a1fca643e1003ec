// Package schedule converts elapsed wall-clock time into materialized
// expense occurrences for recurring templates.
package schedule

import (
	"time"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

// Occurrence pairs a materialized expense input with the template that
// produced it.
type Occurrence struct {
	RecurringID string
	Expense     domain.Expense
}

// TickResult is the outcome of one Tick pass.
type TickResult struct {
	Materialized []Occurrence
	Advanced     []domain.RecurringExpense
}

// NextDueDate advances a due date by exactly one period. Monthly uses
// calendar months, so Jan 31 advances to the normalized date Go's
// calendar arithmetic yields for Feb 31 (Mar 2/3).
func NextDueDate(freq domain.Frequency, from time.Time) time.Time {
	switch freq {
	case domain.FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case domain.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case domain.FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from
	}
}

// Tick visits each template once and, for every active template whose
// NextDueDate has passed, emits exactly one expense occurrence dated at
// the stored due date and returns the template advanced by one period
// from that due date (not from now).
//
// A template whose due date lies several periods in the past still emits
// a single occurrence per call; repeated calls converge on the current
// period. Inactive templates are skipped and never advanced.
func Tick(now time.Time, templates []domain.RecurringExpense) TickResult {
	var result TickResult
	for _, tpl := range templates {
		if !tpl.Active || tpl.NextDueDate.After(now) {
			continue
		}
		due := tpl.NextDueDate
		result.Materialized = append(result.Materialized, Occurrence{
			RecurringID: tpl.RecurringID,
			Expense:     tpl.ToExpense(due),
		})
		tpl.NextDueDate = NextDueDate(tpl.Frequency, due)
		result.Advanced = append(result.Advanced, tpl)
	}
	return result
}
