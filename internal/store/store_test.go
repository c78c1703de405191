package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/kantong/internal/model"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "kantong.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{
		"sqlite": sq,
		"memory": NewMemory(),
	}
}

func mkTx(id string, kind model.Kind, cat model.Category, amount int64, at time.Time) model.Transaction {
	return model.Transaction{
		ID:          id,
		Kind:        kind,
		Category:    cat,
		Amount:      decimal.NewFromInt(amount),
		Description: "test " + id,
		OccurredAt:  at,
	}
}

func TestProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Profile(ctx, "u1")
			require.NoError(t, err)
			assert.False(t, ok)

			p, err := s.EnsureProfile(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, p.MonthlyIncome.IsZero())
			assert.Equal(t, model.DefaultEmergencyMonths, p.EmergencyMonths)

			want := model.Profile{MonthlyIncome: decimal.RequireFromString("7500000.50"), EmergencyMonths: 9}
			require.NoError(t, s.SaveProfile(ctx, "u1", want))

			// EnsureProfile must not clobber an existing profile.
			got, err := s.EnsureProfile(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, got.MonthlyIncome.Equal(want.MonthlyIncome), "income %s", got.MonthlyIncome)
			assert.Equal(t, 9, got.EmergencyMonths)
		})
	}
}

func TestTransactionsSinceOrderedNewestFirst(t *testing.T) {
	ctx := context.Background()
	month := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddTransaction(ctx, "u1", mkTx("old", model.KindExpense, model.CategoryNeeds, 10, month.Add(-time.Hour))))
			require.NoError(t, s.AddTransaction(ctx, "u1", mkTx("a", model.KindIncome, model.CategoryIncome, 100, month)))
			require.NoError(t, s.AddTransaction(ctx, "u1", mkTx("b", model.KindExpense, model.CategoryWants, 20, month.Add(48*time.Hour))))
			require.NoError(t, s.AddTransaction(ctx, "u2", mkTx("other-user", model.KindIncome, model.CategoryIncome, 1, month.Add(time.Hour))))

			got, err := s.TransactionsSince(ctx, "u1", month)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "b", got[0].ID)
			assert.Equal(t, "a", got[1].ID)
			assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(20)))
			assert.Equal(t, model.CategoryWants, got[0].Category)
			assert.Equal(t, "test b", got[0].Description)
			assert.True(t, got[0].OccurredAt.Equal(month.Add(48*time.Hour)))
		})
	}
}

func TestCategoryTotalAllTime(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			total, err := s.CategoryTotal(ctx, "u1", model.CategoryEmergency)
			require.NoError(t, err)
			assert.True(t, total.IsZero())

			require.NoError(t, s.AddTransaction(ctx, "u1", mkTx("e1", model.KindSaving, model.CategoryEmergency, 1_000_000, base)))
			require.NoError(t, s.AddTransaction(ctx, "u1", mkTx("e2", model.KindSaving, model.CategoryEmergency, 2_000_000, base.AddDate(1, 0, 0))))
			require.NoError(t, s.AddTransaction(ctx, "u1", mkTx("s1", model.KindSaving, model.CategorySavings, 500, base)))

			total, err = s.CategoryTotal(ctx, "u1", model.CategoryEmergency)
			require.NoError(t, err)
			assert.True(t, total.Equal(decimal.NewFromInt(3_000_000)), "total %s", total)
		})
	}
}

func TestAddDuplicateAndDeleteMissing(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			tx := mkTx("dup", model.KindExpense, model.CategoryNeeds, 5, now)
			require.NoError(t, s.AddTransaction(ctx, "u1", tx))
			assert.ErrorIs(t, s.AddTransaction(ctx, "u1", tx), ErrExists)

			require.NoError(t, s.DeleteTransaction(ctx, "u1", "dup"))
			assert.ErrorIs(t, s.DeleteTransaction(ctx, "u1", "dup"), ErrNotFound)
		})
	}
}

func TestMemoryFailNextRead(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	m.FailNextRead(boom)

	_, err := m.CategoryTotal(context.Background(), "u1", model.CategoryEmergency)
	assert.ErrorIs(t, err, boom)

	_, err = m.CategoryTotal(context.Background(), "u1", model.CategoryEmergency)
	assert.NoError(t, err)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "sheets"})
	assert.Error(t, err)
}

func TestOpenSQLiteExposesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "kantong.db")
	st, err := Open(context.Background(), Config{Backend: "sqlite", DBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	sq, ok := st.(*SQLite)
	require.True(t, ok, "sqlite backend should be a *SQLite")
	assert.Equal(t, path, sq.Path())
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/kantong", migrateURL("postgres://u:p@localhost:5432/kantong"))
	assert.Equal(t, "pgx5://h/db", migrateURL("postgresql://h/db"))
}
