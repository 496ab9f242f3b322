package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts stock ledger activity. All methods are nil-safe so
// services can run without a registry in tests.
type LedgerMetrics struct {
	recorded *prometheus.CounterVec
	rejected *prometheus.CounterVec
	quantity *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transactions_recorded_total",
		Help: "Stock transactions committed, by type.",
	}, []string{"type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transactions_rejected_total",
		Help: "Stock transactions rejected before commit, by reason.",
	}, []string{"reason"})
	quantity := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_quantity_moved_total",
		Help: "Absolute units moved through the ledger, by type.",
	}, []string{"type"})
	reg.MustRegister(recorded, rejected, quantity)
	return &LedgerMetrics{
		recorded: recorded,
		rejected: rejected,
		quantity: quantity,
	}
}

// IncRecorded increments the committed counter for the transaction type.
func (m *LedgerMetrics) IncRecorded(txType string, units int) {
	if m == nil || m.recorded == nil {
		return
	}
	label := normalizeLabel(txType)
	m.recorded.WithLabelValues(label).Inc()
	if units < 0 {
		units = -units
	}
	m.quantity.WithLabelValues(label).Add(float64(units))
}

// IncRejected increments the rejection counter for the named reason.
func (m *LedgerMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
