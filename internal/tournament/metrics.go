package tournament

import (
	"time"

	"sweeps-casino/internal/ledger"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is nil-safe; a nil *Metrics records nothing.
type Metrics struct {
	created       *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	registrations *prometheus.CounterVec
	eliminations  prometheus.Counter
	payouts       *prometheus.CounterVec
	sweeps        *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sweeps",
			Subsystem: "tournament",
			Name:      "created_total",
			Help:      "Tournaments created by game type.",
		}, []string{"game_type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sweeps",
			Subsystem: "tournament",
			Name:      "transitions_total",
			Help:      "Lifecycle transitions by target status.",
		}, []string{"status"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sweeps",
			Subsystem: "tournament",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		eliminations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sweeps",
			Subsystem: "tournament",
			Name:      "eliminations_total",
			Help:      "Players eliminated.",
		}),
		payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sweeps",
			Subsystem: "tournament",
			Name:      "payout_units_total",
			Help:      "Prize units credited by currency.",
		}, []string{"currency"}),
		sweeps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sweeps",
			Subsystem: "tournament",
			Name:      "sweep_seconds",
			Help:      "Duration of periodic sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"sweep"}),
	}
	if reg != nil {
		reg.MustRegister(m.created, m.transitions, m.registrations, m.eliminations, m.payouts, m.sweeps)
	}
	return m
}

func (m *Metrics) tournamentCreated(g GameType) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(string(g)).Inc()
}

func (m *Metrics) transition(s Status) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) eliminated() {
	if m == nil {
		return
	}
	m.eliminations.Inc()
}

func (m *Metrics) paid(a ledger.Amount) {
	if m == nil {
		return
	}
	m.payouts.WithLabelValues(string(ledger.GC)).Add(float64(a.GC))
	m.payouts.WithLabelValues(string(ledger.SC)).Add(float64(a.SC))
}

func (m *Metrics) observeSweep(name string, started time.Time) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(name).Observe(time.Since(started).Seconds())
}
