// Package metrics holds the Prometheus collectors exposed on GET /metrics.
//
// HTTP metrics are labelled by chi route pattern (e.g. /api/vault/{appId}),
// never by raw URL, so application ids do not become label values.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamvault_http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teamvault_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route pattern.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)
)

// VaultDecisionsTotal counts access decisions on vault reads by outcome
// ("allow", "anonymous", "invalid_token", "no_team", "not_found", "forbidden",
// "unauthenticated", "error").
var VaultDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "teamvault_vault_decisions_total",
		Help: "Total number of vault read access decisions, by outcome.",
	},
	[]string{"outcome"},
)

var (
	TokensIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teamvault_api_tokens_issued_total",
			Help: "Total number of API tokens issued.",
		},
	)

	TokensRevokedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teamvault_api_tokens_revoked_total",
			Help: "Total number of API tokens revoked.",
		},
	)
)

// AuditEntriesTotal counts appended audit entries by action.
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "teamvault_audit_entries_total",
		Help: "Total number of audit entries appended, by action.",
	},
	[]string{"action"},
)
