package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "counselhub"

// Metrics owns a private registry so several services (and tests) can live
// in one process.
type Metrics struct {
	Registry *prometheus.Registry

	RecordsCreated  *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
	InvoicesOverdue prometheus.Counter
	TrustDrift      *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RecordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Records committed, by entity.",
		}, []string{"entity"}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_publish_failures_total",
			Help:      "Committed records that could not be published, by entity.",
		}, []string{"entity"}),
		InvoicesOverdue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_marked_overdue_total",
			Help:      "Sent invoices moved to overdue.",
		}),
		TrustDrift: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "trust_account_drift",
			Help:      "Stored trust balance minus the balance computed from transactions.",
		}, []string{"account_number"}),
	}
	m.Registry.MustRegister(m.RecordsCreated, m.PublishFailures, m.InvoicesOverdue, m.TrustDrift)
	return m
}

// Push sends everything gathered so far to a Prometheus Pushgateway under job.
func (m *Metrics) Push(url, job string) error {
	return push.New(url, job).Gatherer(m.Registry).Push()
}
