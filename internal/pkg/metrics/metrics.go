// Package metrics defines and registers all custom Prometheus metrics for the
// account dashboard. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

// ── Profile sync metrics ──────────────────────────────────────────────────────

// ProfileFetchesTotal counts completed profile fetches.
// Label:
//   - result: "ok", "not_found", "failed", or "stale" (dropped, generation moved on)
var ProfileFetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_fetches_total",
		Help:      "Total number of profile fetches, labelled by outcome.",
	},
	[]string{"result"},
)

// ProfileFetchDuration measures how long a profile fetch takes in the store.
var ProfileFetchDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "profile_fetch_duration_seconds",
		Help:      "Duration of profile fetches against the profile store.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ProfileUpdatesTotal counts profile edit submissions.
// Label:
//   - result: "ok" or a failure kind ("conflict", "not_found", "transient", "session_ended")
var ProfileUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_updates_total",
		Help:      "Total number of profile edit submissions, labelled by outcome.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionEventsTotal counts identity lifecycle operations.
// Labels:
//   - op: "sign_in", "refresh", "sign_out", "expire" (identity client timer)
//   - result: "ok" or "error"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle operations.",
	},
	[]string{"op", "result"},
)

// RedirectsTotal counts navigation redirects issued by the guard.
// Label:
//   - target: the view redirected to (e.g. "/dashboard")
var RedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redirects_total",
		Help:      "Total number of navigation redirects, by target view.",
	},
	[]string{"target"},
)

// NotificationsTotal counts notifications delivered to the sink.
// Label:
//   - kind: "success" or "error"
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of user notifications emitted.",
	},
	[]string{"kind"},
)

// ── Runtime metrics ───────────────────────────────────────────────────────────

// ActiveClients tracks the number of live per-client dashboards.
var ActiveClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_clients",
		Help:      "Current number of connected client dashboards.",
	},
)

// DispatchQueueDepth tracks the number of reactions waiting in each event loop.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var DispatchQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatch_queue_depth",
		Help:      "Current number of reactions pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
