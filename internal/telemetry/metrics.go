package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PayoutsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_submitted_total",
		Help: "Payout submissions by rail.",
	}, []string{"rail"})

	PayoutsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payouts_recorded_total",
		Help: "Recorded payout outcomes by rail and status.",
	}, []string{"rail", "status"})

	PayoutValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_validation_failures_total",
		Help: "Payouts rejected before any processor call, by rail.",
	}, []string{"rail"})

	ProcessorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_processor_failures_total",
		Help: "Processor rejections and transport failures by processor.",
	}, []string{"processor"})
)
