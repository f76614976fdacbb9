package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MetricUnexpectedPanicTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adjudex",
		Name:      "unexpected_panic_total",
		Help:      "Total number of unexpected panics.",
	}, []string{"scope"})

	MetricJobTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adjudex",
		Name:      "job_total",
		Help:      "Total number of consensus jobs by terminal outcome.",
	}, []string{"criticality", "outcome"})

	MetricJobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "adjudex",
		Name:      "job_duration_seconds",
		Help:      "Duration of consensus jobs from submission to terminal state.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"criticality", "outcome"})

	MetricProviderRequestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adjudex",
		Name:      "provider_request_total",
		Help:      "Total number of inference provider invocations.",
	}, []string{"provider", "role"})

	MetricProviderErrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adjudex",
		Name:      "provider_request_errors_total",
		Help:      "Total number of failed inference provider invocations.",
	}, []string{"provider", "role", "error"})

	MetricProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "adjudex",
		Name:      "provider_request_duration_seconds",
		Help:      "Latency of inference provider invocations.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"provider", "role"})

	MetricApprovalEscalationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adjudex",
		Name:      "approval_escalation_total",
		Help:      "Total number of decisions escalated to human approval, by trigger.",
	}, []string{"trigger", "criticality"})

	MetricRuleFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adjudex",
		Name:      "rule_fallback_total",
		Help:      "Total number of requests that matched no custom rule and used a synthesized default.",
	}, []string{"criticality"})

	MetricAuditWriteFailureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "adjudex",
		Name:      "audit_write_failures_total",
		Help:      "Total number of audit records that could not be persisted.",
	}, []string{"driver"})

	MetricAgreementScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "adjudex",
		Name:      "agreement_score",
		Help:      "Distribution of final agreement scores.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"criticality"})
)
