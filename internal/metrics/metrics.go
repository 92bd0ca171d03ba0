package metrics

import "github.com/prometheus/client_golang/prometheus"

// Session lifecycle event labels.
const (
	EventSignIn         = "sign_in"
	EventSignInFailed   = "sign_in_failed"
	EventSignUp         = "sign_up"
	EventSignOut        = "sign_out"
	EventRefresh        = "refresh"
	EventRefreshFailed  = "refresh_failed"
	EventRefreshStale   = "refresh_stale"
	EventTimeout        = "timeout"
	EventTimeoutWarn    = "timeout_warning"
	EventPushPrefix     = "push_"
	EventStorageCorrupt = "storage_corrupt"
)

// Metrics holds the auth session counters.
type Metrics struct {
	Events *prometheus.CounterVec
}

// New creates and registers the session metrics. A nil registerer skips registration,
// which keeps tests and embedded uses from touching the global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lingo_auth_events_total",
				Help: "Total number of auth session lifecycle events by type",
			},
			[]string{"event"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Events)
	}
	return m
}

// Inc records one occurrence of the event. Safe on a nil receiver.
func (m *Metrics) Inc(event string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(event).Inc()
}
