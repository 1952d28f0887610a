package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Reset token lifecycle events.
const (
	ResetIssued   = "issued"
	ResetConsumed = "consumed"
	ResetRejected = "rejected"
	ResetSwept    = "swept"
	ResetMailFail = "mail_failed"
)

var Registrations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "playlist_auth_registrations_total",
		Help: "Total number of registration attempts",
	},
	[]string{"status"},
)

var Logins = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "playlist_auth_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"status"},
)

var ResetTokens = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "playlist_auth_reset_tokens_total",
		Help: "Password reset token lifecycle events",
	},
	[]string{"event"},
)

var GateRejections = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "playlist_auth_gate_rejections_total",
		Help: "Requests rejected by the session gate",
	},
)

// Register registers all collectors with reg. Panics on duplicate registration.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Registrations, Logins, ResetTokens, GateRejections)
}

func RecordRegistration(status string) {
	Registrations.WithLabelValues(status).Inc()
}

func RecordLogin(status string) {
	Logins.WithLabelValues(status).Inc()
}

func RecordReset(event string, n int) {
	ResetTokens.WithLabelValues(event).Add(float64(n))
}

func RecordGateRejection() {
	GateRejections.Inc()
}
