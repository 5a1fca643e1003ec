package snapshot_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splittyhq/splitty_backend/internal/adapters/snapshot"
	"github.com/splittyhq/splitty_backend/internal/core/domain"
)

func TestLoad_AbsentReturnsNil(t *testing.T) {
	store := snapshot.NewStore(t.TempDir())

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state, "first launch has no snapshot")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := snapshot.NewStore(t.TempDir())

	in := snapshot.DefaultSeed(time.Now().UTC())
	in.Expenses = []domain.Expense{{
		ExpenseID: "e1",
		Amount:    decimal.NewFromFloat(42.50),
		PayerID:   domain.SelfID,
		SplitWith: []string{in.Friends[0].FriendID},
		Split:     domain.EqualSplit(),
	}}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Len(t, out.Friends, 2)
	assert.Len(t, out.Groups, 1)
	require.Len(t, out.Expenses, 1)
	assert.True(t, out.Expenses[0].Amount.Equal(decimal.NewFromFloat(42.50)))
	assert.Equal(t, "USD", out.Currency)
	assert.False(t, out.SavedAt.IsZero())
}

func TestDefaultSeed(t *testing.T) {
	seed := snapshot.DefaultSeed(time.Now())

	require.Len(t, seed.Friends, 2)
	require.Len(t, seed.Groups, 1)
	assert.Empty(t, seed.Expenses)
	assert.ElementsMatch(t,
		[]string{seed.Friends[0].FriendID, seed.Friends[1].FriendID},
		seed.Groups[0].Members)
	for _, f := range seed.Friends {
		assert.True(t, f.Balance.IsZero())
	}
}
