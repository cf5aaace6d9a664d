// Package metrics declares the Prometheus metrics of the storefront session
// core. It is the single source of truth for metric names, labels and help
// strings; promauto registers everything with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Session metrics ───────────────────────────────────────────────────────────

// TokenRefreshesTotal counts refresh-credential exchanges.
// Label:
//   - result: "ok", "rejected" or "reused" (a concurrent refresh already replaced the credential)
var TokenRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of access credential refreshes, by result.",
	},
	[]string{"result"},
)

// SessionExpiriesTotal counts sessions cleared after an irrecoverable refresh failure.
var SessionExpiriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_expiries_total",
		Help:      "Total number of sessions expired because the refresh credential was rejected.",
	},
)

// BackendRequestsTotal counts calls made to the storefront backend.
// Labels:
//   - method: HTTP method
//   - code: response status code, or "error" on transport failure
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of backend requests, by method and status code.",
	},
	[]string{"method", "code"},
)

// BackendRequestDuration measures backend round trips.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of backend requests, including auth retries.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// IdentityTransitionsTotal counts identity state changes.
// Label:
//   - cause: login, register, logout, restore, verify_failed or session_expired
var IdentityTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_transitions_total",
		Help:      "Total number of identity state transitions, by cause.",
	},
	[]string{"cause"},
)

// ── Cart metrics ──────────────────────────────────────────────────────────────

// CartMutationsTotal counts cart mutations.
// Labels:
//   - kind: "guest" or "server"
//   - op: "add", "update", "remove" or "clear"
var CartMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Total number of cart mutations, by cart kind and operation.",
	},
	[]string{"kind", "op"},
)

// CartMergesTotal counts guest cart merges.
// Label:
//   - result: "ok", "failed" or "skipped" (empty guest cart)
var CartMergesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_merges_total",
		Help:      "Total number of guest cart merge attempts, by result.",
	},
	[]string{"result"},
)

// ProductLookupFailuresTotal counts guest line lookups that ended without a product.
var ProductLookupFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "product_lookup_failures_total",
		Help:      "Total number of failed product lookups while pricing guest carts.",
	},
)

// SequencerQueueDepth tracks cart operations queued or running in the sequencer.
var SequencerQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sequencer_queue_depth",
		Help:      "Current number of cart operations queued or running in the sequencer.",
	},
)

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersPlacedTotal counts successful checkouts.
// Label:
//   - kind: "customer" or "guest"
var OrdersPlacedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders placed, by checkout kind.",
	},
	[]string{"kind"},
)
