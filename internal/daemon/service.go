// Package daemon serves the live dashboard over HTTP: status, an event
// ring buffer, an SSE stream and Prometheus metrics.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/kantong/internal/collator"
	applog "github.com/theirongolddev/kantong/internal/log"
	"github.com/theirongolddev/kantong/internal/status"
)

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventDelta       = "dashboard_delta"
	EventReset       = "reset"
	EventStreamError = "stream_error"
)

// Config controls the daemon runtime behavior.
type Config struct {
	User         string
	Backend      string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *slog.Logger
}

// Snapshot is a compact dashboard state for status/event payloads.
type Snapshot struct {
	At               time.Time       `json:"at"`
	Seq              int64           `json:"seq"`
	Ready            bool            `json:"ready"`
	Income           decimal.Decimal `json:"income"`
	Expense          decimal.Decimal `json:"expense"`
	CashBalance      decimal.Decimal `json:"cash_balance"`
	Wants            decimal.Decimal `json:"wants"`
	WantsTarget      decimal.Decimal `json:"wants_target"`
	EmergencyTotal   decimal.Decimal `json:"emergency_total"`
	RiskScore        int             `json:"risk_score"`
	EmergencyPercent int             `json:"emergency_percent"`
	Transactions     int             `json:"transactions"`
	Tiers            status.Tiers    `json:"tiers"`
}

// Delta captures what changed between two frames.
type Delta struct {
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	Wants          decimal.Decimal `json:"wants"`
	EmergencyTotal decimal.Decimal `json:"emergency_total"`
	RiskScore      int             `json:"risk_score"`
	Transactions   int             `json:"transactions"`
	TiersChanged   bool            `json:"tiers_changed"`
	ProfileChanged bool            `json:"profile_changed"`
}

func (d Delta) isZero() bool {
	return d.Income.IsZero() &&
		d.Expense.IsZero() &&
		d.Wants.IsZero() &&
		d.EmergencyTotal.IsZero() &&
		d.RiskScore == 0 &&
		d.Transactions == 0 &&
		!d.TiersChanged &&
		!d.ProfileChanged
}

// Event is emitted whenever the dashboard changes or a stream fails.
type Event struct {
	ID        int64            `json:"id"`
	Type      string           `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Snapshot  Snapshot         `json:"snapshot"`
	Delta     *Delta           `json:"delta,omitempty"`
	Notice    *collator.Notice `json:"notice,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time                           `json:"started_at"`
	LastFrameAt     time.Time                           `json:"last_frame_at"`
	PollIntervalSec int                                 `json:"poll_interval_sec"`
	FrameCount      int64                               `json:"frame_count"`
	User            string                              `json:"user"`
	Backend         string                              `json:"backend"`
	Summary         Snapshot                            `json:"summary"`
	Streams         map[collator.Stream]collator.Health `json:"streams"`
	LastError       string                              `json:"last_error,omitempty"`
	EventCount      int                                 `json:"event_count"`
	SubscriberCount int                                 `json:"subscriber_count"`
}

// Service holds the latest frame and fans it out to HTTP clients. It is
// a collator sink.
type Service struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics

	mu          sync.RWMutex
	startedAt   time.Time
	frameCount  int64
	lastError   string
	hasFrame    bool
	frame       collator.Frame
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.Discard()
	}

	return &Service{
		cfg:       cfg,
		logger:    applog.Component(logger, applog.ComponentDaemon),
		metrics:   NewMetrics(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Metrics returns the service's metric set.
func (s *Service) Metrics() *Metrics { return s.metrics }

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	return mux
}

// Run serves the HTTP API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("listening", "addr", s.cfg.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// Publish implements collator.Sink.
func (s *Service) Publish(f collator.Frame) {
	snap := snapshotFromFrame(f)
	s.metrics.observeFrame(f)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prevFrame := s.frame
	prev := s.snapshot
	prevExists := s.hasFrame

	s.hasFrame = true
	s.frame = f
	s.snapshot = snap
	s.frameCount++

	switch {
	case !f.Ready:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventReset, Timestamp: f.At, Snapshot: snap}
		publish = true
	case !prevExists || !prev.Ready:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: f.At, Snapshot: snap}
		publish = true
	default:
		delta := diffSnapshots(prev, snap)
		delta.ProfileChanged = !prevFrame.Snapshot.Profile.MonthlyIncome.Equal(f.Snapshot.Profile.MonthlyIncome) ||
			prevFrame.Snapshot.Profile.EmergencyMonths != f.Snapshot.Profile.EmergencyMonths
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{ID: s.nextEventID, Type: EventDelta, Timestamp: f.At, Snapshot: snap, Delta: &delta}
			publish = true
		}
	}
	s.lastError = ""
	for _, h := range f.Streams {
		if h.Stale() {
			s.lastError = h.LastError
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

// Notify implements collator.Notifier.
func (s *Service) Notify(n collator.Notice) {
	s.metrics.streamFailures.WithLabelValues(string(n.Stream)).Inc()

	s.mu.Lock()
	s.lastError = n.Err
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventStreamError,
		Timestamp: n.At,
		Snapshot:  s.snapshot,
		Notice:    &n,
	}
	s.mu.Unlock()

	s.logger.Warn("stream failed", applog.FieldStream, string(n.Stream), applog.FieldError, n.Err)
	s.publishEvent(ev)
}

func snapshotFromFrame(f collator.Frame) Snapshot {
	sn := f.Snapshot
	return Snapshot{
		At:               f.At,
		Seq:              f.Seq,
		Ready:            f.Ready,
		Income:           sn.Realized.Income,
		Expense:          sn.Realized.Expense,
		CashBalance:      sn.Realized.CashBalance,
		Wants:            sn.Realized.Wants,
		WantsTarget:      sn.Targets.Wants,
		EmergencyTotal:   sn.AllTimeEmergencyTotal,
		RiskScore:        sn.LifestyleRiskScore,
		EmergencyPercent: sn.EmergencyPercent(),
		Transactions:     sn.TransactionCount,
		Tiers:            f.Tiers,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Income:         curr.Income.Sub(prev.Income),
		Expense:        curr.Expense.Sub(prev.Expense),
		Wants:          curr.Wants.Sub(prev.Wants),
		EmergencyTotal: curr.EmergencyTotal.Sub(prev.EmergencyTotal),
		RiskScore:      curr.RiskScore - prev.RiskScore,
		Transactions:   curr.Transactions - prev.Transactions,
		TiersChanged:   curr.Tiers != prev.Tiers,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// Frame returns the most recent frame received.
func (s *Service) Frame() (collator.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.hasFrame
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	streams := make(map[collator.Stream]collator.Health, len(s.frame.Streams))
	for k, v := range s.frame.Streams {
		streams[k] = v
	}

	return Status{
		StartedAt:       s.startedAt,
		LastFrameAt:     s.frame.At,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		FrameCount:      s.frameCount,
		User:            s.cfg.User,
		Backend:         s.cfg.Backend,
		Summary:         s.snapshot,
		Streams:         streams,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	s.metrics.subscribers.Set(float64(len(s.subs)))
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
	s.metrics.subscribers.Set(float64(len(s.subs)))
}
