package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // register pgx5:// migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/model"
)

// Postgres stores data in a shared PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, migrates the schema and pings the server.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres store: empty dsn")
	}
	if err := migratePostgres(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func migratePostgres(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Profile(ctx context.Context, userID string) (model.Profile, bool, error) {
	var (
		income string
		months int
	)
	err := p.pool.QueryRow(ctx,
		"SELECT monthly_income::text, emergency_months FROM profiles WHERE user_id = $1", userID,
	).Scan(&income, &months)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, false, nil
	}
	if err != nil {
		return model.Profile{}, false, fmt.Errorf("reading profile: %w", err)
	}
	prof, err := parseProfile(income, months)
	return prof, err == nil, err
}

func (p *Postgres) EnsureProfile(ctx context.Context, userID string) (model.Profile, error) {
	def := model.DefaultProfile()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, monthly_income, emergency_months, updated_at)
		 VALUES ($1, $2, $3, $4) ON CONFLICT (user_id) DO NOTHING`,
		userID, def.MonthlyIncome.String(), def.EmergencyMonths, time.Now().UnixMilli(),
	)
	if err != nil {
		return model.Profile{}, fmt.Errorf("creating default profile: %w", err)
	}
	prof, _, err := p.Profile(ctx, userID)
	return prof, err
}

func (p *Postgres) SaveProfile(ctx context.Context, userID string, prof model.Profile) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, monthly_income, emergency_months, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		   monthly_income = EXCLUDED.monthly_income,
		   emergency_months = EXCLUDED.emergency_months,
		   updated_at = EXCLUDED.updated_at`,
		userID, prof.MonthlyIncome.String(), prof.EmergencyMonths, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

func (p *Postgres) AddTransaction(ctx context.Context, userID string, tx model.Transaction) error {
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO transactions
		   (id, user_id, kind, category, amount, description, occurred_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`,
		tx.ID, userID, string(tx.Kind), string(tx.Category), tx.Amount.String(),
		tx.Description, tx.OccurredAt.UnixMilli(), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", tx.ID, ErrExists)
	}
	return nil
}

func (p *Postgres) DeleteTransaction(ctx context.Context, userID, id string) error {
	tag, err := p.pool.Exec(ctx,
		"DELETE FROM transactions WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) TransactionsSince(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, kind, category, amount::text, description, occurred_at
		 FROM transactions
		 WHERE user_id = $1 AND occurred_at >= $2
		 ORDER BY occurred_at DESC, id DESC`,
		userID, since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

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

func (p *Postgres) CategoryTotal(ctx context.Context, userID string, category model.Category) (decimal.Decimal, error) {
	var total string
	err := p.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0)::text FROM transactions WHERE user_id = $1 AND category = $2",
		userID, string(category),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("querying %s total: %w", category, err)
	}
	return decimal.NewFromString(total)
}
