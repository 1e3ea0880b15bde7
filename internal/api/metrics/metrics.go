// Package metrics defines and registers the custom Prometheus metrics of the
// auth API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// SignupsTotal counts signup attempts by outcome.
// Label:
//   - result: "success", "duplicate", "invalid_role", "invalid_input" or "error"
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of signup attempts, by result.",
	},
	[]string{"result"},
)

// SigninsTotal counts signin attempts by outcome.
// Label:
//   - result: "success", "user_not_found", "invalid_credentials", "invalid_input" or "error"
var SigninsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of signin attempts, by result.",
	},
	[]string{"result"},
)

// AccessDecisionsTotal counts access middleware decisions.
// Label:
//   - decision: "authenticated", "allowed", "no_token", "invalid_token", "token_expired",
//     "user_not_found", "forbidden" or "error"
var AccessDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Total number of protected-resource access decisions, by outcome.",
	},
	[]string{"decision"},
)

// CredentialCheckDuration measures signin latency, dominated by bcrypt.
var CredentialCheckDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "signin_duration_seconds",
		Help:      "Duration of signin requests including password verification.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
	},
)
