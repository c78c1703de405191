package daemon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/theirongolddev/kantong/internal/collator"
)

// Metrics is the daemon's Prometheus metric set, kept on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	frames         prometheus.Counter
	streamFailures *prometheus.CounterVec
	ready          prometheus.Gauge
	riskScore      prometheus.Gauge
	emergencyRatio prometheus.Gauge
	cashBalance    prometheus.Gauge
	transactions   prometheus.Gauge
	subscribers    prometheus.Gauge
}

// NewMetrics registers the dashboard metrics plus the Go runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kantong",
			Name:      "recomputes_total",
			Help:      "Dashboard frames published by the collator.",
		}),
		streamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kantong",
			Name:      "stream_failures_total",
			Help:      "Failed stream deliveries.",
		}, []string{"stream"}),
		ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kantong",
			Name:      "ready",
			Help:      "1 while the session is established.",
		}),
		riskScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kantong",
			Name:      "lifestyle_risk_score",
			Help:      "Current lifestyle risk score (0-100).",
		}),
		emergencyRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kantong",
			Name:      "emergency_fund_ratio_percent",
			Help:      "Emergency fund completion in percent.",
		}),
		cashBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kantong",
			Name:      "cash_balance_rupiah",
			Help:      "Income minus expenses for the current month.",
		}),
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kantong",
			Name:      "transactions",
			Help:      "Transactions in the current month.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kantong",
			Name:      "sse_subscribers",
			Help:      "Connected /v1/stream clients.",
		}),
	}

	m.registry.MustRegister(
		m.frames, m.streamFailures, m.ready, m.riskScore,
		m.emergencyRatio, m.cashBalance, m.transactions, m.subscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, s := range collator.Streams {
		m.streamFailures.WithLabelValues(string(s))
	}
	return m
}

// Registry returns the registry backing /metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) observeFrame(f collator.Frame) {
	m.frames.Inc()
	if f.Ready {
		m.ready.Set(1)
	} else {
		m.ready.Set(0)
	}
	m.riskScore.Set(float64(f.Snapshot.LifestyleRiskScore))
	m.emergencyRatio.Set(f.Snapshot.EmergencyRatio)
	m.cashBalance.Set(f.Snapshot.Realized.CashBalance.InexactFloat64())
	m.transactions.Set(float64(f.Snapshot.TransactionCount))
}
