package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "creditsettle"

const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeBusy      = "busy"
)

var (
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "settlements_total",
		Help:      "Settlement attempts by provider, kind and outcome",
	}, []string{"provider", "kind", "outcome"})

	SettlementDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "settlement_duration_seconds",
		Help:      "Latency of settlement transactions",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_events_total",
		Help:      "Webhook deliveries by provider and outcome",
	}, []string{"provider", "outcome"})

	SpendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credit_spends_total",
		Help:      "Credit spends for links unlock by outcome",
	}, []string{"outcome"})

	CompensationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensations_total",
		Help:      "Refunds issued after a failed unlock",
	})

	CompensationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compensation_failures_total",
		Help:      "Refunds that failed and need manual intervention",
	})

	OutboxEnqueueFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_enqueue_failures_total",
		Help:      "Audit messages that could not be written to the outbox",
	})

	OutboxDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_deliveries_total",
		Help:      "Outbox delivery attempts by result",
	}, []string{"result"})
)
