package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clinic/internal/contact"
	"clinic/internal/platform/tracing"
	"clinic/internal/professional/metrics"
	"clinic/internal/professional/models"
	"clinic/internal/professional/registry"
	"clinic/pkg/document"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/audit"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/strings"
	"clinic/pkg/platform/tx"
	"clinic/pkg/platform/validation"
	"clinic/pkg/requestcontext"
)

// Store persists professionals together with their phones and addresses.
// Implementations return sentinel.ErrNotFound for missing professionals and
// sentinel.ErrAlreadyUsed when the CPF is taken.
type Store interface {
	Create(ctx context.Context, p *models.Professional) error
	FindByID(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error)
	FindByIDs(ctx context.Context, ids []id.ProfessionalID) ([]*models.Professional, error)
	Find(ctx context.Context, filter models.Filter) ([]*models.Professional, error)
	// Execute applies fn to the stored professional and saves the result
	// atomically. Concurrent calls for one professional are serialized.
	Execute(ctx context.Context, professionalID id.ProfessionalID, fn func(*models.Professional) error) (*models.Professional, error)
}

// AddressLookup resolves a CEP into the address fields it determines.
type AddressLookup interface {
	Lookup(ctx context.Context, zipCode string) (contact.AddressParams, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages professionals and their contacts.
type Service struct {
	professionals  Store
	registry       *registry.Registry
	lookup         AddressLookup
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithAddressLookup completes partial addresses from their CEP.
func WithAddressLookup(lookup AddressLookup) Option {
	return func(s *Service) {
		s.lookup = lookup
	}
}

func New(professionals Store, reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		professionals: professionals,
		registry:      reg,
		tx:            tx.NopRunner{},
		logger:        slog.Default(),
		tracer:        tracing.Tracer("clinic/internal/professional/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a professional of the requested type with its initial
// contacts. Identity, board and contact violations are reported together.
func (s *Service) Create(ctx context.Context, req models.CreateProfessionalRequest) (p *models.Professional, err error) {
	ctx, span := s.tracer.Start(ctx, "professional.Create")
	defer func() { tracing.End(span, err) }()

	strategy, err := s.registry.Get(models.ParseType(string(req.Type)))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("professional.type", string(strategy.Type())))

	now := requestcontext.Now(ctx)
	c := validation.NewCollector()
	p, err = strategy.New(id.NewProfessionalID(), req.Params, now)
	c.Merge(err)
	phones := make([]contact.Phone, 0, len(req.Phones))
	for _, params := range req.Phones {
		phone, err := contact.NewPhone(id.NewPhoneID(), params)
		c.Merge(err)
		phones = append(phones, phone)
	}
	addresses := make([]contact.Address, 0, len(req.Addresses))
	for _, params := range req.Addresses {
		address, err := contact.NewAddress(id.NewAddressID(), s.prefill(ctx, params))
		c.Merge(err)
		addresses = append(addresses, address)
	}
	if err := c.Err(); err != nil {
		s.countValidationFailure(strategy.Type(), err)
		return nil, err
	}
	for _, phone := range phones {
		if _, err := p.AddPhone(phone, false, now); err != nil {
			return nil, err
		}
	}
	for _, address := range addresses {
		p.AddAddress(address, false, now)
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.professionals.Create(ctx, p); err != nil {
			return s.translateWriteError(err, "failed to create professional")
		}
		return s.emitAudit(ctx, audit.EventProfessionalCreated, p)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("professional.id", p.ID.String()))

	s.logAudit(ctx, audit.EventProfessionalCreated, p)
	if s.metrics != nil {
		s.metrics.IncrementProfessionalCreated(string(p.Type))
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error) {
	return s.load(ctx, professionalID)
}

// List returns professionals matching filter, ordered by name.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Professional, error) {
	if filter.Type != "" {
		if _, err := s.registry.Get(filter.Type); err != nil {
			return nil, err
		}
	}
	if filter.State != "" && !filter.State.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid professional state")
	}
	professionals, err := s.professionals.Find(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list professionals")
	}
	return professionals, nil
}

// FindByIDs loads the professionals in ids that exist, in no particular order.
func (s *Service) FindByIDs(ctx context.Context, ids []id.ProfessionalID) ([]*models.Professional, error) {
	if len(ids) == 0 {
		return []*models.Professional{}, nil
	}
	professionals, err := s.professionals.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load professionals")
	}
	return professionals, nil
}

// Update replaces the registration fields using the rules of the
// professional's own type.
func (s *Service) Update(ctx context.Context, professionalID id.ProfessionalID, req models.UpdateProfessionalRequest) (*models.Professional, error) {
	return s.mutate(ctx, professionalID, audit.EventProfessionalUpdated, func(p *models.Professional, now time.Time) error {
		strategy, err := s.registry.Get(p.Type)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "stored professional has an unsupported type")
		}
		if err := strategy.Update(p, req.Params(), now); err != nil {
			s.countValidationFailure(p.Type, err)
			return err
		}
		return nil
	})
}

func (s *Service) Deactivate(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error) {
	return s.mutate(ctx, professionalID, audit.EventProfessionalDeactivated, (*models.Professional).Deactivate)
}

func (s *Service) Reactivate(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error) {
	return s.mutate(ctx, professionalID, audit.EventProfessionalReactivated, (*models.Professional).Reactivate)
}

// AddPhone validates and attaches a phone.
func (s *Service) AddPhone(ctx context.Context, professionalID id.ProfessionalID, req models.AddPhoneRequest) (*models.Professional, error) {
	phone, err := contact.NewPhone(id.NewPhoneID(), req.Params())
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, professionalID, audit.EventProfessionalContactChanged, func(p *models.Professional, now time.Time) error {
		_, err := p.AddPhone(phone, req.Principal, now)
		return err
	})
}

func (s *Service) MarkPrincipalPhone(ctx context.Context, professionalID id.ProfessionalID, phoneID id.PhoneID) (*models.Professional, error) {
	return s.mutate(ctx, professionalID, audit.EventProfessionalContactChanged, func(p *models.Professional, now time.Time) error {
		return p.MarkPrincipalPhone(phoneID, now)
	})
}

func (s *Service) RemovePhone(ctx context.Context, professionalID id.ProfessionalID, phoneID id.PhoneID) (*models.Professional, error) {
	return s.mutate(ctx, professionalID, audit.EventProfessionalContactChanged, func(p *models.Professional, now time.Time) error {
		return p.RemovePhone(phoneID, now)
	})
}

// AddAddress validates and attaches an address, completing blank fields from
// the CEP lookup when one is configured.
func (s *Service) AddAddress(ctx context.Context, professionalID id.ProfessionalID, req models.AddAddressRequest) (*models.Professional, error) {
	address, err := contact.NewAddress(id.NewAddressID(), s.prefill(ctx, req.AddressParams))
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, professionalID, audit.EventProfessionalContactChanged, func(p *models.Professional, now time.Time) error {
		p.AddAddress(address, req.Principal, now)
		return nil
	})
}

func (s *Service) MarkPrincipalAddress(ctx context.Context, professionalID id.ProfessionalID, addressID id.AddressID) (*models.Professional, error) {
	return s.mutate(ctx, professionalID, audit.EventProfessionalContactChanged, func(p *models.Professional, now time.Time) error {
		return p.MarkPrincipalAddress(addressID, now)
	})
}

func (s *Service) RemoveAddress(ctx context.Context, professionalID id.ProfessionalID, addressID id.AddressID) (*models.Professional, error) {
	return s.mutate(ctx, professionalID, audit.EventProfessionalContactChanged, func(p *models.Professional, now time.Time) error {
		return p.RemoveAddress(addressID, now)
	})
}

// prefill fills blank fields of params from the CEP lookup. Lookup failures
// leave params as they are; validation reports what is still missing.
func (s *Service) prefill(ctx context.Context, params contact.AddressParams) contact.AddressParams {
	zipCode := strings.OnlyDigits(params.ZipCode)
	if s.lookup == nil || !document.IsCEP(zipCode) || !hasBlanks(params) {
		return params
	}
	found, err := s.lookup.Lookup(ctx, zipCode)
	if err != nil {
		s.logger.WarnContext(ctx, "cep lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"zip_code", zipCode,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementPrefill("failed")
		}
		return params
	}
	params.Street = fallback(params.Street, found.Street)
	params.District = fallback(params.District, found.District)
	params.City = fallback(params.City, found.City)
	params.State = fallback(params.State, found.State)
	if s.metrics != nil {
		s.metrics.IncrementPrefill("filled")
	}
	return params
}

func hasBlanks(p contact.AddressParams) bool {
	for _, v := range []string{p.Street, p.District, p.City, p.State} {
		if strings.CollapseSpaces(v) == "" {
			return true
		}
	}
	return false
}

func fallback(value, found string) string {
	if strings.CollapseSpaces(value) == "" {
		return found
	}
	return value
}

// mutate applies fn to the locked professional and records event in the
// same transaction.
func (s *Service) mutate(ctx context.Context, professionalID id.ProfessionalID, event audit.AuditEvent, fn func(*models.Professional, time.Time) error) (p *models.Professional, err error) {
	ctx, span := s.tracer.Start(ctx, "professional."+string(event), trace.WithAttributes(attribute.String("professional.id", professionalID.String())))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		updated, err := s.professionals.Execute(ctx, professionalID, func(current *models.Professional) error {
			return fn(current, now)
		})
		if err != nil {
			return s.translateWriteError(err, "failed to update professional")
		}
		p = updated
		return s.emitAudit(ctx, event, p)
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, event, p)
	return p, nil
}

func (s *Service) load(ctx context.Context, professionalID id.ProfessionalID) (*models.Professional, error) {
	p, err := s.professionals.FindByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "professional not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load professional")
	}
	return p, nil
}

func (s *Service) translateWriteError(err error, msg string) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "professional not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "CPF already registered")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) countValidationFailure(t models.Type, err error) {
	if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeValidation) {
		s.metrics.IncrementValidationFailure(string(t))
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, p *models.Professional) {
	s.logger.InfoContext(ctx, string(event),
		"event", string(event),
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"professional_id", p.ID.String(),
		"professional_type", string(p.Type),
	)
}

// emitAudit appends event to the audit outbox using the transaction in ctx.
func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, p *models.Professional) error {
	if s.auditPublisher == nil {
		return nil
	}
	e := audit.Event{
		Action:  string(event),
		ActorID: actorID(ctx),
		Subject: "professional:" + p.ID.String(),
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func actorID(ctx context.Context) string {
	if actor := requestcontext.UserID(ctx); !actor.IsNil() {
		return actor.String()
	}
	return ""
}
