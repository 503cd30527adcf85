package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HoldTotal       *prometheus.CounterVec   // result=held|released|insufficient|error
	CommitTotal     *prometheus.CounterVec   // result=committed|exceeded|error
	ConflictRetries prometheus.Counter       // optimistic-concurrency retries inside commit/cancel
	ExpiredTotal    prometheus.Counter       // holds removed by the sweeper
	HoldsActive     prometheus.Gauge         // holds in the ledger after the last sweep
	OpLatencyMS     *prometheus.HistogramVec // op=hold|release|commit|submit
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HoldTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "share_hold_total",
				Help: "Hold modifications by result",
			},
			[]string{"result"},
		),
		CommitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "share_commit_total",
				Help: "Cart commits by result",
			},
			[]string{"result"},
		),
		ConflictRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "share_commit_conflict_retries_total",
			Help: "Version conflicts retried while incrementing booked shares",
		}),
		ExpiredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "share_hold_expired_total",
			Help: "Holds removed by the expiry sweep",
		}),
		HoldsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "share_holds_active",
			Help: "Holds present in the ledger after the last sweep",
		}),
		OpLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "share_op_latency_ms",
				Help:    "Latency of reservation operations (ms)",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(
		m.HoldTotal,
		m.CommitTotal,
		m.ConflictRetries,
		m.ExpiredTotal,
		m.HoldsActive,
		m.OpLatencyMS,
	)
	return m
}

// The helpers below accept a nil receiver so callers can run without metrics.

func (m *Metrics) ObserveLatency(op string, start time.Time) {
	if m == nil {
		return
	}
	m.OpLatencyMS.WithLabelValues(op).Observe(float64(time.Since(start).Milliseconds()))
}

func (m *Metrics) IncHold(result string) {
	if m == nil {
		return
	}
	m.HoldTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncCommit(result string) {
	if m == nil {
		return
	}
	m.CommitTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) IncConflictRetry() {
	if m == nil {
		return
	}
	m.ConflictRetries.Inc()
}

func (m *Metrics) RecordSweep(removed, remaining int) {
	if m == nil {
		return
	}
	m.ExpiredTotal.Add(float64(removed))
	m.HoldsActive.Set(float64(remaining))
}
