package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	platformmetrics "clinic/internal/platform/metrics"
)

// Metrics provides observability for the organization module.
type Metrics struct {
	OrganizationsCreated prometheus.Counter
	ValidationFailures   prometheus.Counter
	ProfessionalLinks    *prometheus.CounterVec
	ExportDuration       prometheus.Histogram
}

// New registers the organization module metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrganizationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "clinic_organizations_created_total",
			Help: "Total number of organizations registered",
		}),
		ValidationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clinic_organization_validation_failures_total",
			Help: "Organization create/update requests rejected by validation",
		}),
		ProfessionalLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_organization_professional_links_total",
			Help: "Professional link changes by action",
		}, []string{"action"}),
		ExportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinic_organization_roster_export_duration_seconds",
			Help:    "Time spent building roster spreadsheets",
			Buckets: platformmetrics.DurationBuckets,
		}),
	}
}

func (m *Metrics) IncrementOrganizationCreated() {
	m.OrganizationsCreated.Inc()
}

func (m *Metrics) IncrementValidationFailure() {
	m.ValidationFailures.Inc()
}

// IncrementLink counts a link change; action is "linked" or "unlinked".
func (m *Metrics) IncrementLink(action string) {
	m.ProfessionalLinks.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveExport(start time.Time) {
	m.ExportDuration.Observe(time.Since(start).Seconds())
}
