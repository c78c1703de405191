package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

//go:embed migrations
var migrationsFS embed.FS

// SQLite is the default on-disk store.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at dbPath and migrates it.
func OpenSQLite(dbPath string) (*SQLite, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite store: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	if err := migrateSQLite(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	return &SQLite{db: db, path: dbPath}, nil
}

// migrateSQLite runs on its own connection; the migrate driver closes it.
func migrateSQLite(dbPath string) error {
	mdb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}

	driver, err := sqlite.WithInstance(mdb, &sqlite.Config{})
	if err != nil {
		_ = mdb.Close()
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Profile(ctx context.Context, userID string) (model.Profile, bool, error) {
	var (
		income string
		months int
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT monthly_income, emergency_months FROM profiles WHERE user_id = ?", userID,
	).Scan(&income, &months)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, false, nil
	}
	if err != nil {
		return model.Profile{}, false, fmt.Errorf("reading profile: %w", err)
	}
	p, err := parseProfile(income, months)
	return p, err == nil, err
}

func (s *SQLite) EnsureProfile(ctx context.Context, userID string) (model.Profile, error) {
	def := model.DefaultProfile()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, monthly_income, emergency_months, updated_at)
		 VALUES (?, ?, ?, ?) ON CONFLICT(user_id) DO NOTHING`,
		userID, def.MonthlyIncome.String(), def.EmergencyMonths, time.Now().UnixMilli(),
	)
	if err != nil {
		return model.Profile{}, fmt.Errorf("creating default profile: %w", err)
	}
	p, _, err := s.Profile(ctx, userID)
	return p, err
}

func (s *SQLite) SaveProfile(ctx context.Context, userID string, p model.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, monthly_income, emergency_months, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   monthly_income = excluded.monthly_income,
		   emergency_months = excluded.emergency_months,
		   updated_at = excluded.updated_at`,
		userID, p.MonthlyIncome.String(), p.EmergencyMonths, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func (s *SQLite) AddTransaction(ctx context.Context, userID string, tx model.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions
		   (id, user_id, kind, category, amount, description, occurred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		tx.ID, userID, string(tx.Kind), string(tx.Category), tx.Amount.String(),
		tx.Description, tx.OccurredAt.UnixMilli(), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrExists)
	}
	return nil
}

func (s *SQLite) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) TransactionsSince(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, category, amount, description, occurred_at
		 FROM transactions
		 WHERE user_id = ? AND occurred_at >= ?
		 ORDER BY occurred_at DESC, id DESC`,
		userID, since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *SQLite) CategoryTotal(ctx context.Context, userID string, category model.Category) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT amount FROM transactions WHERE user_id = ? AND category = ?",
		userID, string(category),
	)
	if err != nil {
		return decimal.Zero, fmt.Errorf("querying %s total: %w", category, err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("amount %q: %w", amount, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}
