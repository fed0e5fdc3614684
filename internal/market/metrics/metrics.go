package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the market module.
type Metrics struct {
	MarketsCreated    prometheus.Counter
	MarketsResolved   prometheus.Counter
	MarketsDisputed   prometheus.Counter
	CredStakedTotal   prometheus.Counter
	CredPaidOutTotal  prometheus.Counter
	EvidenceSubmitted prometheus.Counter
}

// New creates a new Metrics instance with all market module metrics registered.
func New() *Metrics {
	return &Metrics{
		MarketsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prophecy_markets_created_total",
			Help: "Total number of markets created",
		}),
		MarketsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prophecy_markets_resolved_total",
			Help: "Total number of markets resolved",
		}),
		MarketsDisputed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prophecy_markets_disputed_total",
			Help: "Total number of markets flagged as disputed",
		}),
		CredStakedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prophecy_cred_staked_total",
			Help: "Total raw Cred locked into stakes",
		}),
		CredPaidOutTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prophecy_cred_paid_out_total",
			Help: "Total raw Cred distributed to winning stakers",
		}),
		EvidenceSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prophecy_evidence_submitted_total",
			Help: "Total evidence references attached to markets",
		}),
	}
}
