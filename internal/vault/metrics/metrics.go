package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the vault module.
type Metrics struct {
	VaultsInitialized prometheus.Counter
	CredEarnedTotal   prometheus.Counter
}

// New creates a new Metrics instance with all vault module metrics registered.
func New() *Metrics {
	return &Metrics{
		VaultsInitialized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prophecy_vaults_initialized_total",
			Help: "Total number of reputation vaults initialized",
		}),
		CredEarnedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "prophecy_cred_earned_total",
			Help: "Total raw Cred credited through earn operations",
		}),
	}
}

// IncrementVaultsInitialized records a successful vault initialization.
func (m *Metrics) IncrementVaultsInitialized() {
	m.VaultsInitialized.Inc()
}

// AddCredEarned records raw Cred credited by an earn operation.
func (m *Metrics) AddCredEarned(rawAmount uint64) {
	m.CredEarnedTotal.Add(float64(rawAmount))
}
