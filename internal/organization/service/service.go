package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clinic/internal/contact"
	"clinic/internal/organization/export"
	"clinic/internal/organization/metrics"
	"clinic/internal/organization/models"
	"clinic/internal/platform/tracing"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/audit"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/tx"
	"clinic/pkg/platform/validation"
	"clinic/pkg/requestcontext"
)

// Store persists organizations together with their phones and professional
// links. Implementations return sentinel.ErrNotFound for missing
// organizations and sentinel.ErrAlreadyUsed when the CNPJ is taken.
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error)
	Find(ctx context.Context, filter models.Filter) ([]*models.Organization, error)
	// Execute applies fn to the stored organization and saves the result
	// atomically. Concurrent calls for one organization are serialized.
	Execute(ctx context.Context, orgID id.OrganizationID, fn func(*models.Organization) error) (*models.Organization, error)
}

// Professionals resolves professional ids into summaries. Unknown ids are
// omitted from the result.
type Professionals interface {
	Summaries(ctx context.Context, ids []id.ProfessionalID) ([]models.ProfessionalSummary, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages organizations, their phones and their professional roster.
type Service struct {
	orgs           Store
	professionals  Professionals
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

func New(orgs Store, professionals Professionals, opts ...Option) *Service {
	s := &Service{
		orgs:          orgs,
		professionals: professionals,
		tx:            tx.NopRunner{},
		logger:        slog.Default(),
		tracer:        tracing.Tracer("clinic/internal/organization/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers an organization with its initial phones. Organization
// and phone violations are reported together.
func (s *Service) Create(ctx context.Context, req models.CreateOrganizationRequest) (org *models.Organization, err error) {
	ctx, span := s.tracer.Start(ctx, "organization.Create")
	defer func() { tracing.End(span, err) }()

	now := requestcontext.Now(ctx)
	c := validation.NewCollector()
	org, err = models.NewOrganization(id.NewOrganizationID(), req.Params(), now)
	c.Merge(err)
	phones := make([]contact.Phone, 0, len(req.Phones))
	for _, params := range req.Phones {
		phone, err := contact.NewPhone(id.NewPhoneID(), params)
		c.Merge(err)
		phones = append(phones, phone)
	}
	if err := c.Err(); err != nil {
		s.countValidationFailure(err)
		return nil, err
	}
	for _, phone := range phones {
		if _, err := org.AddPhone(phone, false, now); err != nil {
			return nil, err
		}
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.orgs.Create(ctx, org); err != nil {
			return s.translateWriteError(err, "failed to create organization")
		}
		return s.emitAudit(ctx, audit.EventOrganizationCreated, org)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("organization.id", org.ID.String()))

	s.logAudit(ctx, audit.EventOrganizationCreated, org)
	if s.metrics != nil {
		s.metrics.IncrementOrganizationCreated()
	}
	return org, nil
}

func (s *Service) Get(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	return s.load(ctx, orgID)
}

// List returns organizations matching filter, ordered by trade name.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Organization, error) {
	if filter.State != "" && !filter.State.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid organization state")
	}
	orgs, err := s.orgs.Find(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list organizations")
	}
	return orgs, nil
}

// Update replaces the registration fields.
func (s *Service) Update(ctx context.Context, orgID id.OrganizationID, req models.UpdateOrganizationRequest) (*models.Organization, error) {
	return s.mutate(ctx, orgID, audit.EventOrganizationUpdated, func(org *models.Organization, now time.Time) error {
		if err := org.Update(req.Params(), now); err != nil {
			s.countValidationFailure(err)
			return err
		}
		return nil
	})
}

func (s *Service) Deactivate(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	return s.mutate(ctx, orgID, audit.EventOrganizationDeactivated, (*models.Organization).Deactivate)
}

func (s *Service) Reactivate(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	return s.mutate(ctx, orgID, audit.EventOrganizationReactivated, (*models.Organization).Reactivate)
}

// AddPhone validates and attaches a phone.
func (s *Service) AddPhone(ctx context.Context, orgID id.OrganizationID, req models.AddPhoneRequest) (*models.Organization, error) {
	phone, err := contact.NewPhone(id.NewPhoneID(), req.Params())
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, orgID, audit.EventOrganizationPhoneChanged, func(org *models.Organization, now time.Time) error {
		_, err := org.AddPhone(phone, req.Principal, now)
		return err
	})
}

func (s *Service) MarkPrincipalPhone(ctx context.Context, orgID id.OrganizationID, phoneID id.PhoneID) (*models.Organization, error) {
	return s.mutate(ctx, orgID, audit.EventOrganizationPhoneChanged, func(org *models.Organization, now time.Time) error {
		return org.MarkPrincipalPhone(phoneID, now)
	})
}

func (s *Service) RemovePhone(ctx context.Context, orgID id.OrganizationID, phoneID id.PhoneID) (*models.Organization, error) {
	return s.mutate(ctx, orgID, audit.EventOrganizationPhoneChanged, func(org *models.Organization, now time.Time) error {
		return org.RemovePhone(phoneID, now)
	})
}

// LinkProfessional adds an existing professional to the roster.
func (s *Service) LinkProfessional(ctx context.Context, orgID id.OrganizationID, professionalID id.ProfessionalID) (*models.Organization, error) {
	found, err := s.professionals.Summaries(ctx, []id.ProfessionalID{professionalID})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load professional")
	}
	if len(found) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "professional not found")
	}
	org, err := s.mutate(ctx, orgID, audit.EventProfessionalLinked, func(org *models.Organization, now time.Time) error {
		return org.LinkProfessional(professionalID, now)
	})
	if err == nil && s.metrics != nil {
		s.metrics.IncrementLink("linked")
	}
	return org, err
}

func (s *Service) UnlinkProfessional(ctx context.Context, orgID id.OrganizationID, professionalID id.ProfessionalID) (*models.Organization, error) {
	org, err := s.mutate(ctx, orgID, audit.EventProfessionalUnlinked, func(org *models.Organization, now time.Time) error {
		return org.UnlinkProfessional(professionalID, now)
	})
	if err == nil && s.metrics != nil {
		s.metrics.IncrementLink("unlinked")
	}
	return org, err
}

// ListProfessionals returns the professionals currently linked to the organization.
func (s *Service) ListProfessionals(ctx context.Context, orgID id.OrganizationID) ([]models.ProfessionalSummary, error) {
	_, summaries, err := s.roster(ctx, orgID)
	return summaries, err
}

// ExportRoster renders the linked professionals as a spreadsheet.
func (s *Service) ExportRoster(ctx context.Context, orgID id.OrganizationID) (roster *models.RosterFile, err error) {
	ctx, span := s.tracer.Start(ctx, "organization.ExportRoster", trace.WithAttributes(attribute.String("organization.id", orgID.String())))
	defer func() { tracing.End(span, err) }()

	start := time.Now()
	org, summaries, err := s.roster(ctx, orgID)
	if err != nil {
		return nil, err
	}
	content, err := export.Roster(org, summaries, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to export roster")
	}
	if s.metrics != nil {
		s.metrics.ObserveExport(start)
	}
	s.recordAudit(ctx, audit.EventOrganizationRosterExported, org)
	return &models.RosterFile{
		FileName:    export.FileName(org),
		ContentType: export.ContentType,
		Content:     content,
	}, nil
}

func (s *Service) roster(ctx context.Context, orgID id.OrganizationID) (*models.Organization, []models.ProfessionalSummary, error) {
	org, err := s.load(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}
	ids := org.ActiveProfessionalIDs()
	if len(ids) == 0 {
		return org, []models.ProfessionalSummary{}, nil
	}
	summaries, err := s.professionals.Summaries(ctx, ids)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load professionals")
	}
	return org, summaries, nil
}

// mutate applies fn to the locked organization and records event in the
// same transaction.
func (s *Service) mutate(ctx context.Context, orgID id.OrganizationID, event audit.AuditEvent, fn func(*models.Organization, time.Time) error) (org *models.Organization, err error) {
	ctx, span := s.tracer.Start(ctx, "organization."+string(event), trace.WithAttributes(attribute.String("organization.id", orgID.String())))
	defer func() { tracing.End(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		updated, err := s.orgs.Execute(ctx, orgID, func(current *models.Organization) error {
			return fn(current, now)
		})
		if err != nil {
			return s.translateWriteError(err, "failed to update organization")
		}
		org = updated
		return s.emitAudit(ctx, event, org)
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, event, org)
	return org, nil
}

func (s *Service) load(ctx context.Context, orgID id.OrganizationID) (*models.Organization, error) {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load organization")
	}
	return org, nil
}

func (s *Service) translateWriteError(err error, msg string) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "organization not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "CNPJ already registered")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) countValidationFailure(err error) {
	if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeValidation) {
		s.metrics.IncrementValidationFailure()
	}
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, org *models.Organization) {
	s.logger.InfoContext(ctx, string(event),
		"event", string(event),
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"organization_id", org.ID.String(),
	)
}

// emitAudit appends event to the audit outbox using the transaction in ctx.
func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, org *models.Organization) error {
	if s.auditPublisher == nil {
		return nil
	}
	e := audit.Event{
		Action:  string(event),
		ActorID: actorID(ctx),
		Subject: "organization:" + org.ID.String(),
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// recordAudit is for reads worth auditing. Emit failures are only logged.
func (s *Service) recordAudit(ctx context.Context, event audit.AuditEvent, org *models.Organization) {
	s.logAudit(ctx, event, org)
	if err := s.emitAudit(ctx, event, org); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func actorID(ctx context.Context) string {
	if actor := requestcontext.UserID(ctx); !actor.IsNil() {
		return actor.String()
	}
	return ""
}
