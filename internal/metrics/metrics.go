package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	Submissions        prometheus.Counter
	ValidationFailures prometheus.Counter
	RateLimited        prometheus.Counter
	Duplicates         prometheus.Counter
	NotifySuccesses    prometheus.Counter
	NotifyFailures     prometheus.Counter
	SubmitDuration     prometheus.Histogram
	PendingContacts    prometheus.Gauge
	TotalContacts      prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inovacode_contact_submissions_total",
			Help: "Total number of accepted contact submissions",
		}),
		ValidationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inovacode_contact_validation_failures_total",
			Help: "Total number of submissions rejected by validation",
		}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inovacode_contact_rate_limited_total",
			Help: "Total number of submissions rejected by the rate limiter",
		}),
		Duplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inovacode_contact_duplicates_total",
			Help: "Total number of submissions rejected as duplicates",
		}),
		NotifySuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inovacode_contact_notify_successes_total",
			Help: "Total number of successful email notifications",
		}),
		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "inovacode_contact_notify_failures_total",
			Help: "Total number of failed email notifications",
		}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "inovacode_contact_submit_duration_seconds",
			Help:    "Time spent processing contact submissions",
			Buckets: prometheus.DefBuckets,
		}),
		PendingContacts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "inovacode_contact_pending_contacts",
			Help: "Number of contacts awaiting review",
		}),
		TotalContacts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "inovacode_contact_total_contacts",
			Help: "Total number of stored contacts",
		}),
	}
}
