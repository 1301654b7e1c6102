// Package obs holds the Prometheus collectors and logger setup shared across adapters and services.
package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPC call outcomes recorded by the jsonrpc client.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "status"
	OutcomeExpired   = "expired"
	OutcomeTransport = "transport"
)

// Metrics groups the collectors for one process. A nil *Metrics is valid and records nothing,
// so adapters and services can be constructed without a registry in tests.
type Metrics struct {
	rpcCalls       *prometheus.CounterVec
	rpcDuration    *prometheus.HistogramVec
	sessionLogins  *prometheus.CounterVec
	tokensIssued   prometheus.Counter
	notifyWarnings *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surveybridge_rpc_calls_total",
				Help: "Remote procedure calls to the survey system by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "surveybridge_rpc_call_duration_seconds",
				Help:    "Latency of remote procedure calls in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		sessionLogins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surveybridge_session_logins_total",
				Help: "Session key requests by result.",
			},
			[]string{"result"},
		),
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "surveybridge_tokens_issued_total",
			Help: "Survey tokens minted and persisted.",
		}),
		notifyWarnings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "surveybridge_notify_warnings_total",
				Help: "Non-fatal notification warnings by kind.",
			},
			[]string{"kind"},
		),
	}

	reg.MustRegister(m.rpcCalls, m.rpcDuration, m.sessionLogins, m.tokensIssued, m.notifyWarnings)
	return m
}

// ObserveRPC records one remote call.
func (m *Metrics) ObserveRPC(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcCalls.WithLabelValues(method, outcome).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveLogin records a session key request.
func (m *Metrics) ObserveLogin(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.sessionLogins.WithLabelValues(result).Inc()
}

// TokenIssued records one minted and persisted token.
func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

// Warning records one notification warning of the given kind.
func (m *Metrics) Warning(kind string) {
	if m == nil {
		return
	}
	m.notifyWarnings.WithLabelValues(kind).Inc()
}
