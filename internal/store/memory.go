package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/pipeline"
)

// Memory is an in-process store used by tests and the memory backend.
type Memory struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	txs      map[string][]model.Transaction

	failNext error
}

// NewMemory returns an empty memory store.
func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string]model.Profile),
		txs:      make(map[string][]model.Transaction),
	}
}

// FailNextRead makes the next read query return err.
func (m *Memory) FailNextRead(err error) {
	m.mu.Lock()
	m.failNext = err
	m.mu.Unlock()
}

func (m *Memory) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *Memory) Profile(_ context.Context, userID string) (model.Profile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return model.Profile{}, false, err
	}
	p, ok := m.profiles[userID]
	return p, ok, nil
}

func (m *Memory) EnsureProfile(_ context.Context, userID string) (model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return model.Profile{}, err
	}
	p, ok := m.profiles[userID]
	if !ok {
		p = model.DefaultProfile()
		m.profiles[userID] = p
	}
	return p, nil
}

func (m *Memory) SaveProfile(_ context.Context, userID string, p model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = p
	return nil
}

func (m *Memory) AddTransaction(_ context.Context, userID string, tx model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.txs[userID] {
		if existing.ID == tx.ID {
			return fmt.Errorf("transaction %s: %w", tx.ID, ErrExists)
		}
	}
	m.txs[userID] = append(m.txs[userID], tx)
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.txs[userID]
	for i, tx := range list {
		if tx.ID == id {
			m.txs[userID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

func (m *Memory) TransactionsSince(_ context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	var out []model.Transaction
	for _, tx := range m.txs[userID] {
		if !tx.OccurredAt.Before(since) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

func (m *Memory) CategoryTotal(_ context.Context, userID string, category model.Category) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, tx := range pipeline.FilterByCategory(m.txs[userID], category) {
		total = total.Add(tx.Amount)
	}
	return total, nil
}

func (m *Memory) Close() error { return nil }
