package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelflife_query_cache_lookups_total",
			Help: "Query cache lookups by result (hit, stale, miss)",
		},
		[]string{"resource", "result"},
	)

	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelflife_query_fetches_total",
			Help: "Network fetches issued by the query cache",
		},
		[]string{"resource", "result"},
	)
)
