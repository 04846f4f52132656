package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheLookups counts cache lookups by cache and result (hit|miss).
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by cache and result",
	}, []string{"cache", "result"})

	// categoryLoads counts category source loads by tier and outcome.
	categoryLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_category_loads_total",
		Help: "Category loads by tier and outcome",
	}, []string{"tier", "outcome"})

	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_query_duration_seconds",
		Help:    "Catalog page query latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"sort", "outcome"})
)
