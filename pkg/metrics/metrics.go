package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	claimsReporter = "claims_reporter"

	reportJobsTotal        = "report_jobs_total"
	reportQueueDepth       = "report_queue_depth"
	reportJobDurationSecs  = "report_job_duration_seconds"
	webhookDeliveriesTotal = "webhook_deliveries_total"

	// Labels
	jobStatusLabel      = "status"
	webhookOutcomeLabel = "outcome"
)

var reportJobsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: claimsReporter,
		Name:      reportJobsTotal,
		Help:      "number of report jobs reaching each status",
	},
	[]string{jobStatusLabel},
)

var reportQueueDepthMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: claimsReporter,
		Name:      reportQueueDepth,
		Help:      "number of report jobs waiting in the queue",
	},
)

var reportJobDurationMetric = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Subsystem: claimsReporter,
		Name:      reportJobDurationSecs,
		Help:      "report job execution time from pickup to terminal state",
		Buckets:   []float64{0.1, 0.5, 1, 5, 30, 120, 600},
	},
)

var webhookDeliveriesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: claimsReporter,
		Name:      webhookDeliveriesTotal,
		Help:      "number of webhook delivery attempts by outcome",
	},
	[]string{webhookOutcomeLabel},
)

func IncreaseReportJobsTotalMetric(status string) {
	reportJobsTotalMetric.With(prometheus.Labels{jobStatusLabel: status}).Inc()
}

func SetReportQueueDepthMetric(depth int) {
	reportQueueDepthMetric.Set(float64(depth))
}

func ObserveReportJobDurationMetric(seconds float64) {
	reportJobDurationMetric.Observe(seconds)
}

func IncreaseWebhookDeliveriesTotalMetric(outcome string) {
	webhookDeliveriesTotalMetric.With(prometheus.Labels{webhookOutcomeLabel: outcome}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(reportJobsTotalMetric)
	prometheus.MustRegister(reportQueueDepthMetric)
	prometheus.MustRegister(reportJobDurationMetric)
	prometheus.MustRegister(webhookDeliveriesTotalMetric)
}
