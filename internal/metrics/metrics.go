// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scrtch"

var (
	// RPCRequests counts Connect calls by procedure and result code.
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Connect RPC calls by procedure and code.",
	}, []string{"procedure", "code"})

	// RPCDuration tracks handler latency by procedure.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "Connect RPC handler latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"procedure"})

	// RecipeCacheSize is the number of recipes held by the repository cache.
	RecipeCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "recipe_cache_size",
		Help:      "Recipes currently held in the repository cache.",
	})

	// SubscriptionSnapshots counts snapshots delivered to repository and
	// ledger subscriptions.
	SubscriptionSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "subscription_snapshots_total",
		Help:      "Live subscription snapshots by subscription and outcome.",
	}, []string{"subscription", "outcome"})

	// DroppedDocuments counts malformed documents excluded from results.
	DroppedDocuments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_documents_total",
		Help:      "Stored documents discarded because they failed validation.",
	})

	// MakeModeSessions is the number of open guided cooking sessions.
	MakeModeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "makemode_sessions_active",
		Help:      "Open Make Mode sessions.",
	})
)
