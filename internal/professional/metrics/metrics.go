package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the professional module.
type Metrics struct {
	ProfessionalsCreated *prometheus.CounterVec
	ValidationFailures   *prometheus.CounterVec
	AddressPrefills      *prometheus.CounterVec
}

// New registers the professional module metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProfessionalsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_professionals_created_total",
			Help: "Total number of professionals registered by type",
		}, []string{"type"}),
		ValidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_professional_validation_failures_total",
			Help: "Professional requests rejected by validation by type",
		}, []string{"type"}),
		AddressPrefills: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_professional_address_prefills_total",
			Help: "CEP lookups used to complete addresses by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementProfessionalCreated(professionalType string) {
	m.ProfessionalsCreated.WithLabelValues(professionalType).Inc()
}

func (m *Metrics) IncrementValidationFailure(professionalType string) {
	m.ValidationFailures.WithLabelValues(professionalType).Inc()
}

// IncrementPrefill counts a CEP lookup; outcome is "filled" or "failed".
func (m *Metrics) IncrementPrefill(outcome string) {
	m.AddressPrefills.WithLabelValues(outcome).Inc()
}
