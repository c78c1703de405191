// Package store persists profiles and transactions and answers the three
// stream queries the dashboard is built from.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/model"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrExists is returned when inserting a transaction whose id is taken.
	ErrExists = errors.New("store: already exists")
)

// Store is the persistent side of kantong. Implementations must be safe
// for concurrent use.
type Store interface {
	// Profile returns the user's profile; ok is false if none was saved.
	Profile(ctx context.Context, userID string) (p model.Profile, ok bool, err error)
	// EnsureProfile returns the profile, creating the default one if absent.
	EnsureProfile(ctx context.Context, userID string) (model.Profile, error)
	SaveProfile(ctx context.Context, userID string, p model.Profile) error

	AddTransaction(ctx context.Context, userID string, tx model.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	// TransactionsSince returns transactions with OccurredAt >= since,
	// newest first.
	TransactionsSince(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error)
	// CategoryTotal sums amounts over all time for one category.
	CategoryTotal(ctx context.Context, userID string, category model.Category) (decimal.Decimal, error)

	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend     string
	DBPath      string
	PostgresDSN string
}

// Open creates the configured backend and brings its schema up to date.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "sqlite", "":
		return OpenSQLite(cfg.DBPath)
	case "postgres":
		return OpenPostgres(ctx, cfg.PostgresDSN)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (model.Transaction, error) {
	var (
		tx       model.Transaction
		kind     string
		category string
		amount   string
		millis   int64
	)
	if err := s.Scan(&tx.ID, &kind, &category, &amount, &tx.Description, &millis); err != nil {
		return tx, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return tx, fmt.Errorf("transaction %s amount %q: %w", tx.ID, amount, err)
	}
	tx.Kind = model.Kind(kind)
	tx.Category = model.Category(category)
	tx.Amount = a
	tx.OccurredAt = time.UnixMilli(millis)
	return tx, nil
}

func parseProfile(income string, months int) (model.Profile, error) {
	d, err := decimal.NewFromString(income)
	if err != nil {
		return model.Profile{}, fmt.Errorf("profile income %q: %w", income, err)
	}
	return model.Profile{MonthlyIncome: d, EmergencyMonths: months}, nil
}
