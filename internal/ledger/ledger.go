// Package ledger is the write boundary: it validates user edits, stores
// them and announces the change. Dashboards only see a write once the
// matching stream is redelivered.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/amqp"
	"github.com/theirongolddev/kantong/internal/collator"
	applog "github.com/theirongolddev/kantong/internal/log"
	"github.com/theirongolddev/kantong/internal/model"
	"github.com/theirongolddev/kantong/internal/store"
)

// ValidationError is returned for input rejected before it reaches the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Publisher announces store changes. *amqp.Client satisfies it.
type Publisher interface {
	PublishChange(ctx context.Context, ch amqp.Change) error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPublisher sets the change publisher.
func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.pub = p }
}

// WithClock overrides the time source used for new transactions.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(lg *slog.Logger) Option {
	return func(l *Ledger) { l.logger = lg }
}

// Ledger writes one user's profile and transactions.
type Ledger struct {
	store  store.Store
	user   string
	pub    Publisher
	now    func() time.Time
	logger *slog.Logger
}

// New returns a ledger writing to s on behalf of user.
func New(s store.Store, user string, opts ...Option) *Ledger {
	l := &Ledger{store: s, user: user, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	if l.logger == nil {
		l.logger = applog.Discard()
	}
	l.logger = applog.Component(l.logger, applog.ComponentLedger).With(applog.FieldUser, user)
	return l
}

// NewTransaction is user input for a transaction.
type NewTransaction struct {
	Kind        model.Kind
	Category    model.Category
	Amount      decimal.Decimal
	Description string
}

// SaveProfile validates and stores a new profile.
func (l *Ledger) SaveProfile(ctx context.Context, income decimal.Decimal, months int) (model.Profile, error) {
	if !income.IsPositive() {
		return model.Profile{}, &ValidationError{"monthly_income", "Pemasukan bulanan harus lebih besar dari 0."}
	}
	if months < 1 {
		return model.Profile{}, &ValidationError{"emergency_months", "Target Dana Darurat harus minimal 1 bulan."}
	}

	p := model.Profile{MonthlyIncome: income, EmergencyMonths: months}
	if err := l.store.SaveProfile(ctx, l.user, p); err != nil {
		return model.Profile{}, err
	}
	l.logger.Info("profile saved", applog.FieldOperation, applog.OpUpdate)
	l.announce(ctx, collator.StreamProfile)
	return p, nil
}

// AddTransaction validates in, stamps it with the current time and a new
// id, and stores it.
func (l *Ledger) AddTransaction(ctx context.Context, in NewTransaction) (model.Transaction, error) {
	if !in.Kind.Valid() {
		return model.Transaction{}, &ValidationError{"type", "Jenis transaksi tidak dikenal."}
	}
	if !model.AllowsCategory(in.Kind, in.Category) {
		return model.Transaction{}, &ValidationError{"category", "Kategori tidak sesuai dengan jenis transaksi."}
	}

	now := l.now()
	tx := model.Transaction{
		ID:          NewID(now),
		Kind:        in.Kind,
		Category:    in.Category,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		OccurredAt:  now,
	}
	if err := validateTransaction(tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, l.insert(ctx, tx)
}

// ImportTransaction stores a transaction taken from an export. Its id and
// timestamp are kept; a missing id gets a fresh one. Categories outside the
// picker lists are accepted since they were legal when written.
func (l *Ledger) ImportTransaction(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	if !tx.Kind.Valid() {
		return model.Transaction{}, &ValidationError{"type", "Jenis transaksi tidak dikenal."}
	}
	tx.Description = strings.TrimSpace(tx.Description)
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = l.now()
	}
	if tx.ID == "" {
		tx.ID = NewID(tx.OccurredAt)
	}
	if err := validateTransaction(tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, l.insert(ctx, tx)
}

// DeleteTransaction removes a transaction by id.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{"id", "ID transaksi tidak boleh kosong."}
	}
	if err := l.store.DeleteTransaction(ctx, l.user, id); err != nil {
		return err
	}
	l.logger.Info("transaction deleted", applog.FieldOperation, applog.OpDelete, applog.FieldTxID, id)
	l.announce(ctx, collator.StreamTransactions, collator.StreamEmergency)
	return nil
}

func validateTransaction(tx model.Transaction) error {
	if !tx.Amount.IsPositive() {
		return &ValidationError{"amount", "Jumlah transaksi harus lebih besar dari 0."}
	}
	if tx.Description == "" {
		return &ValidationError{"description", "Deskripsi tidak boleh kosong."}
	}
	return nil
}

func (l *Ledger) insert(ctx context.Context, tx model.Transaction) error {
	if err := l.store.AddTransaction(ctx, l.user, tx); err != nil {
		return err
	}
	l.logger.Info("transaction added",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldTxID, tx.ID,
		"category", string(tx.Category),
	)

	streams := []collator.Stream{collator.StreamTransactions}
	if tx.Category == model.CategoryEmergency {
		streams = append(streams, collator.StreamEmergency)
	}
	l.announce(ctx, streams...)
	return nil
}

// announce is best effort; feeds still pick writes up by polling.
func (l *Ledger) announce(ctx context.Context, streams ...collator.Stream) {
	if l.pub == nil {
		return
	}
	for _, s := range streams {
		if err := l.pub.PublishChange(ctx, amqp.NewChange(l.user, string(s))); err != nil {
			l.logger.Warn("change notice not published",
				applog.FieldStream, string(s),
				applog.FieldError, err,
			)
		}
	}
}

// NewID returns a transaction id of the form <unix-millis>-<7 chars>.
func NewID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
	return strconv.FormatInt(at.UnixMilli(), 10) + "-" + suffix
}

// ParseAmount parses a user-entered amount. Indonesian thousands
// separators ("1.500.000") and a decimal comma are accepted.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.TrimSpace(s)
	if strings.Count(s, ".") > 1 || (strings.Contains(s, ".") && strings.Contains(s, ",")) ||
		(strings.Count(s, ".") == 1 && len(s)-strings.Index(s, ".") == 4) {
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{"amount", fmt.Sprintf("Jumlah %q tidak valid.", raw)}
	}
	return d, nil
}
