package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	errorCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vtserved_server",
		Name:      "error_total",
		Help:      "The total number of errors occurring",
	})

	tileServedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vtserved_server",
		Name:      "tile_served_total",
		Help:      "Non empty tiles served",
	})

	tileEmptyCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vtserved_server",
		Name:      "tile_empty_total",
		Help:      "Empty tiles requested",
	})

	tileHitCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vtserved_server",
		Name:      "tile_cache_hit_total",
		Help:      "Tiles cache hits",
	})

	tileMissCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vtserved_server",
		Name:      "tile_cache_miss_total",
		Help:      "Tiles cache misses",
	})
)
