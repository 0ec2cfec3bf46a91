package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	platformmetrics "clinic/internal/platform/metrics"
)

// Login attempt results.
const (
	LoginSucceeded = "succeeded"
	LoginFailed    = "failed"
	LoginLocked    = "locked"
)

// Metrics provides observability for the user module.
type Metrics struct {
	UsersCreated       prometheus.Counter
	LoginAttempts      *prometheus.CounterVec
	LoginDuration      prometheus.Histogram
	ValidationFailures prometheus.Counter
}

// New registers the user module metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UsersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "clinic_users_created_total",
			Help: "Total number of user accounts created",
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		LoginDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinic_login_duration_seconds",
			Help:    "Duration of login operations including password verification",
			Buckets: platformmetrics.DurationBuckets,
		}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clinic_user_validation_failures_total",
			Help: "User create/update requests rejected by validation",
		}),
	}
}

func (m *Metrics) IncrementUserCreated() {
	m.UsersCreated.Inc()
}

func (m *Metrics) IncrementLogin(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementValidationFailure() {
	m.ValidationFailures.Inc()
}

// ObserveLogin records the duration of a login.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveLogin(start time.Time) {
	m.LoginDuration.Observe(time.Since(start).Seconds())
}
