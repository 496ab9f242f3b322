package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLedgerMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewLedgerMetrics(reg)

	metrics.IncRecorded("out", -3)
	metrics.IncRecorded("out", 2)
	metrics.IncRejected("invalid_quantity")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "stock_transactions_recorded_total", "type", "out"); err != nil {
		t.Fatalf("fetch recorded: %v", err)
	} else if got != 2 {
		t.Fatalf("expected recorded=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_quantity_moved_total", "type", "out"); err != nil {
		t.Fatalf("fetch quantity: %v", err)
	} else if got != 5 {
		t.Fatalf("expected 5 absolute units moved, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stock_transactions_rejected_total", "reason", "invalid_quantity"); err != nil {
		t.Fatalf("fetch rejected: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejected=1, got %f", got)
	}
}

func TestBillingMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewBillingMetrics(reg)

	metrics.IncLink("success")
	metrics.IncWebhook("checkout.session.completed", "applied")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "payment_links_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch links: %v", err)
	} else if got != 1 {
		t.Fatalf("expected links=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "stripe_webhook_events_total", "type", "checkout.session.completed"); err != nil {
		t.Fatalf("fetch webhooks: %v", err)
	} else if got != 1 {
		t.Fatalf("expected webhooks=1, got %f", got)
	}
}

func TestNilSafety(t *testing.T) {
	var ledger *LedgerMetrics
	ledger.IncRecorded("in", 1)
	ledger.IncRejected("whatever")

	empty := NewLedgerMetrics(nil)
	empty.IncRecorded("in", 1)

	var billing *BillingMetrics
	billing.IncLink("success")
	billing.IncWebhook("x", "y")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
