package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clinic/internal/address/metrics"
	"clinic/internal/address/models"
	"clinic/internal/contact"
	"clinic/internal/platform/tracing"
	"clinic/pkg/document"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/validation"
	"clinic/pkg/requestcontext"
)

// Client queries the upstream CEP API. It returns sentinel.ErrNotFound for
// unknown CEPs.
type Client interface {
	Lookup(ctx context.Context, zipCode string) (*models.Address, error)
}

// Cache stores lookup results. Get returns sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, zipCode string) (*models.Address, error)
	Set(ctx context.Context, address *models.Address) error
}

// Service resolves CEPs, consulting the cache before the upstream API.
type Service struct {
	client  Client
	cache   Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache enables caching. Without it every lookup reaches the upstream API.
func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

func New(client Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		logger: slog.Default(),
		tracer: tracing.Tracer("clinic/internal/address/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup returns the address determined by zipCode. Punctuation is ignored.
func (s *Service) Lookup(ctx context.Context, zipCode string) (address *models.Address, err error) {
	zipCode = strings.OnlyDigits(zipCode)
	ctx, span := s.tracer.Start(ctx, "address.Lookup", trace.WithAttributes(attribute.String("cep", zipCode)))
	defer func() { tracing.End(span, err) }()

	if err := validate(zipCode); err != nil {
		return nil, err
	}

	if address, ok := s.cached(ctx, zipCode); ok {
		s.count("hit")
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return address, nil
	}

	start := time.Now()
	address, err = s.client.Lookup(ctx, zipCode)
	if s.metrics != nil {
		s.metrics.ObserveUpstream(time.Since(start))
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		s.count("not_found")
		return nil, dErrors.New(dErrors.CodeNotFound, "CEP not found")
	case errors.Is(err, context.DeadlineExceeded):
		s.count("error")
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "CEP lookup timed out")
	case err != nil:
		s.count("error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "CEP lookup failed")
	}
	s.count("miss")

	if s.cache != nil {
		if err := s.cache.Set(ctx, address); err != nil {
			s.logger.WarnContext(ctx, "failed to cache cep",
				"request_id", requestcontext.RequestID(ctx),
				"zip_code", zipCode,
				"error", err,
			)
		}
	}
	return address, nil
}

// cached treats cache failures as misses.
func (s *Service) cached(ctx context.Context, zipCode string) (*models.Address, bool) {
	if s.cache == nil {
		return nil, false
	}
	address, err := s.cache.Get(ctx, zipCode)
	if err == nil {
		return address, true
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "cep cache unavailable",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	return nil, false
}

func (s *Service) count(result string) {
	if s.metrics != nil {
		s.metrics.IncrementLookup(result)
	}
}

func validate(zipCode string) error {
	c := validation.NewCollector()
	switch {
	case zipCode == "":
		c.Add(contact.MsgZipCodeRequired)
	case !document.IsCEP(zipCode):
		c.Add(contact.MsgZipCodeInvalid)
	}
	return c.Err()
}
