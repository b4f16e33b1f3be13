package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders placed at checkout",
	})

	OrdersShippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_shipped_total",
		Help: "Total number of orders transitioned to Shipped",
	})

	OrdersDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_delivered_total",
		Help: "Total number of orders transitioned to Delivered",
	})

	OrderTransitionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_rejected_total",
		Help: "Total number of rejected order status transitions",
	}, []string{"reason"})

	StockClampsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_clamps_total",
		Help: "Total number of stock decrements floored at zero",
	}, []string{"entity"})

	StockAdjustLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_adjust_latency_seconds",
		Help:    "Latency of stock adjustment operations",
		Buckets: prometheus.DefBuckets,
	})

	ReviewsUpsertedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_upserted_total",
		Help: "Total number of review upserts",
	}, []string{"kind"})

	ReviewsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviews_deleted_total",
		Help: "Total number of reviews deleted",
	})

	ReviewsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_rejected_total",
		Help: "Total number of rejected review writes",
	}, []string{"reason"})

	VariationLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "variation_lookups_total",
		Help: "Total number of variation signature lookups",
	}, []string{"outcome"})

	VariationStatsCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "variation_stats_cache_total",
		Help: "Variation aggregate cache lookups by outcome",
	}, []string{"outcome"})

	ListQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "list_queries_total",
		Help: "Total number of list queries executed per collection",
	}, []string{"collection"})

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
