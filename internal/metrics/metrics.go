// Package metrics registers the Prometheus collectors of the RBAC core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decisions counts authorization outcomes by result ("allow", "deny").
	Decisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbac_decisions_total",
			Help: "Authorization decisions by result",
		},
		[]string{"result"},
	)

	// PolicyChanges counts committed administration operations.
	PolicyChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbac_policy_changes_total",
			Help: "Committed policy administration operations",
		},
		[]string{"operation"},
	)

	// CacheLookups counts role permission cache lookups by outcome ("hit", "miss", "error").
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rbac_cache_lookups_total",
			Help: "Role permission cache lookups",
		},
		[]string{"outcome"},
	)
)
