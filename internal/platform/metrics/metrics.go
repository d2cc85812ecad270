package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the credential core.
type Metrics struct {
	SessionConnects    *prometheus.CounterVec
	SessionDisconnects prometheus.Counter
	TokenRefreshes     prometheus.Counter
	AuthFailures       prometheus.Counter
	DeviceFlowsStarted prometheus.Counter
	DeviceFlowOutcomes *prometheus.CounterVec
	IdentityResolved   *prometheus.CounterVec
}

// New creates and registers all metrics with the default registerer.
// Construct at most once per process; tests should leave metrics nil.
func New() *Metrics {
	return &Metrics{
		SessionConnects: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "repocomply_session_connects_total",
			Help: "Successful session connections by auth mode",
		}, []string{"mode"}),
		SessionDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repocomply_session_disconnects_total",
			Help: "Session disconnections, user-initiated or forced",
		}),
		TokenRefreshes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repocomply_installation_token_refreshes_total",
			Help: "Installation token exchanges performed",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repocomply_auth_failures_total",
			Help: "Credential operations that failed authentication",
		}),
		DeviceFlowsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "repocomply_device_flows_started_total",
			Help: "Device authorization flows started",
		}),
		DeviceFlowOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "repocomply_device_flow_outcomes_total",
			Help: "Terminal device flow states by outcome",
		}, []string{"outcome"}),
		IdentityResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "repocomply_identity_resolutions_total",
			Help: "Actor identity resolutions by method (device_flow or manual)",
		}, []string{"method"}),
	}
}
