package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SerializerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger_serializer",
			Name:      "queue_depth",
			Help:      "Requests admitted but not yet executed",
		},
	)

	SerializerQueueWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ledger_serializer",
			Name:      "queue_wait_seconds",
			Help:      "Time between submission and start of execution",
			Buckets:   prometheus.DefBuckets,
		},
	)

	TransactionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_executor",
			Name:      "outcomes_total",
			Help:      "Terminal outcomes by transaction kind and outcome code",
		},
		[]string{"kind", "outcome"},
	)

	ExecutionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ledger_executor",
			Name:      "execution_duration_seconds",
			Help:      "Duration of one atomic unit including row locks and commit",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	AccrualQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ledger_accrual",
			Name:      "work_items",
			Help:      "Time-deposit accounts currently scheduled for compounding",
		},
	)

	CompoundingSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_accrual",
			Name:      "compounding_steps_total",
			Help:      "Compounding steps by result",
		},
		[]string{"result"},
	)

	Maturities = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ledger_accrual",
			Name:      "matured_total",
			Help:      "Work items retired because the account matured",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ledger_events",
			Name:      "published_total",
			Help:      "Committed-ledger events handed to the broker, by result",
		},
		[]string{"result"},
	)
)
