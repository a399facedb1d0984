package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WithdrawalsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clintonstack_withdrawals_created_total",
			Help: "Total number of withdrawal requests created",
		},
	)

	WithdrawalsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clintonstack_withdrawals_processed_total",
			Help: "Total number of withdrawal requests processed by admins",
		},
		[]string{"outcome"},
	)

	CommissionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clintonstack_commissions_created_total",
			Help: "Total number of commissions attributed to affiliates",
		},
	)

	PaymentsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clintonstack_payments_confirmed_total",
			Help: "Total number of payments confirmed, by provider",
		},
		[]string{"provider"},
	)

	PaymentsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clintonstack_payments_failed_total",
			Help: "Total number of payments marked failed, by provider",
		},
		[]string{"provider"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clintonstack_rate_limited_requests_total",
			Help: "Total number of requests rejected by the API rate limiter",
		},
	)
)
