package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_opened_total",
		Help: "Total number of orders opened",
	})

	OrdersClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_closed_total",
		Help: "Total number of orders closed",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of orders cancelled",
	})

	OrderLinesAddedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_lines_added_total",
		Help: "Total number of order line additions by price kind",
	}, []string{"price_kind"})

	OrderMutationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_mutations_failed_total",
		Help: "Total number of rejected order mutations",
	}, []string{"reason"})

	PaymentsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "Total number of payments recorded",
	})

	TablesReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tables_released_total",
		Help: "Total number of tables released after order close",
	})

	MenuCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "menu_cache_hits_total",
		Help: "Total number of menu catalog cache hits",
	})

	MenuCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "menu_cache_misses_total",
		Help: "Total number of menu catalog cache misses",
	})

	OrderLockLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_lock_latency_seconds",
		Help:    "Latency of acquiring the per-order mutation lock",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
