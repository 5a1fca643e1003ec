package schedule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splittyhq/splitty_backend/internal/core/domain"
	"github.com/splittyhq/splitty_backend/internal/core/schedule"
)

func template(freq domain.Frequency, due time.Time, active bool) domain.RecurringExpense {
	return domain.RecurringExpense{
		RecurringID: "r1",
		Description: "Rent",
		Amount:      decimal.NewFromInt(1200),
		PayerID:     domain.SelfID,
		SplitWith:   []string{"f1"},
		Split:       domain.EqualSplit(),
		Category:    "housing",
		Frequency:   freq,
		NextDueDate: due,
		Active:      active,
	}
}

func TestTick_MonthlyAdvancesFromPreviousDueDate(t *testing.T) {
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -1) // yesterday

	res := schedule.Tick(now, []domain.RecurringExpense{template(domain.FrequencyMonthly, due, true)})

	require.Len(t, res.Materialized, 1)
	require.Len(t, res.Advanced, 1)
	assert.Equal(t, due, res.Materialized[0].Expense.Date, "occurrence is dated at the due date")
	assert.Equal(t, due.AddDate(0, 1, 0), res.Advanced[0].NextDueDate,
		"advance is one month past the original due date, not past now")
}

func TestTick_SingleOccurrencePerCallEvenWhenMonthsElapsed(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	due := now.AddDate(0, -3, 0)
	tpl := template(domain.FrequencyMonthly, due, true)

	res := schedule.Tick(now, []domain.RecurringExpense{tpl})
	require.Len(t, res.Materialized, 1, "multi-period catch-up collapses to one emission per call")

	// Re-ticking with the advanced template keeps catching up one period
	// at a time.
	res2 := schedule.Tick(now, res.Advanced)
	require.Len(t, res2.Materialized, 1)
	assert.Equal(t, due.AddDate(0, 2, 0), res2.Advanced[0].NextDueDate)
}

func TestTick_FutureDueDateNotMaterialized(t *testing.T) {
	now := time.Now()
	res := schedule.Tick(now, []domain.RecurringExpense{template(domain.FrequencyWeekly, now.Add(time.Hour), true)})
	assert.Empty(t, res.Materialized)
	assert.Empty(t, res.Advanced)
}

func TestTick_InactiveTemplateSkipped(t *testing.T) {
	now := time.Now()
	res := schedule.Tick(now, []domain.RecurringExpense{template(domain.FrequencyDaily, now.AddDate(0, 0, -5), false)})
	assert.Empty(t, res.Materialized)
	assert.Empty(t, res.Advanced, "inactive templates are never advanced")
}

func TestTick_DailyAndWeeklyPeriods(t *testing.T) {
	now := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC)

	daily := schedule.Tick(now, []domain.RecurringExpense{template(domain.FrequencyDaily, due, true)})
	require.Len(t, daily.Advanced, 1)
	assert.Equal(t, due.AddDate(0, 0, 1), daily.Advanced[0].NextDueDate)

	weekly := schedule.Tick(now, []domain.RecurringExpense{template(domain.FrequencyWeekly, due, true)})
	require.Len(t, weekly.Advanced, 1)
	assert.Equal(t, due.AddDate(0, 0, 7), weekly.Advanced[0].NextDueDate)
}

func TestTick_OccurrenceStripsRecurrenceFields(t *testing.T) {
	now := time.Now()
	due := now.AddDate(0, 0, -1)
	res := schedule.Tick(now, []domain.RecurringExpense{template(domain.FrequencyMonthly, due, true)})

	require.Len(t, res.Materialized, 1)
	exp := res.Materialized[0].Expense
	assert.Empty(t, exp.ExpenseID, "expense input: the store assigns the ID")
	assert.Equal(t, "Rent", exp.Description)
	assert.True(t, exp.Amount.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, []string{"f1"}, exp.SplitWith)
}
