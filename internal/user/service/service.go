package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clinic/internal/platform/tracing"
	"clinic/internal/user/device"
	"clinic/internal/user/lockout"
	"clinic/internal/user/metrics"
	"clinic/internal/user/models"
	id "clinic/pkg/domain"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/platform/audit"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/platform/tx"
	"clinic/pkg/requestcontext"
	"clinic/pkg/secrets"
)

// Store persists users. Implementations return sentinel.ErrNotFound for
// missing users and sentinel.ErrAlreadyUsed when the email is taken.
//
// Execute serializes changes to one user: it loads the user under a lock,
// applies fn and saves the result. An error from fn is returned unchanged
// and nothing is written.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Find(ctx context.Context, filter models.Filter) ([]*models.User, error)
	Execute(ctx context.Context, userID id.UserID, fn func(*models.User) error) (*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, email string, now time.Time) (string, time.Time, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LoginLimiter throttles password attempts per email and client IP.
type LoginLimiter interface {
	Check(ctx context.Context, email, ip string) (lockout.Decision, error)
	RecordFailure(ctx context.Context, email, ip string) (bool, error)
	Clear(ctx context.Context, email, ip string) error
}

// Service manages user accounts and authentication.
type Service struct {
	users          Store
	tokens         TokenIssuer
	tx             tx.Runner
	rules          models.PasswordRules
	logger         *slog.Logger
	auditPublisher AuditPublisher
	limiter        LoginLimiter
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	dummyOnce sync.Once
	dummyHash string
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

// WithLoginLimiter enables lockouts after repeated failed logins.
func WithLoginLimiter(limiter LoginLimiter) Option {
	return func(s *Service) {
		s.limiter = limiter
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner sets the unit of work wrapping read-modify-write sequences.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithPasswordRules(rules models.PasswordRules) Option {
	return func(s *Service) {
		s.rules = rules
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(users Store, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		tx:     tx.NopRunner{},
		rules:  models.DefaultPasswordRules(),
		logger: slog.Default(),
		tracer: tracing.Tracer("clinic/internal/user/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new active user.
func (s *Service) Create(ctx context.Context, req models.CreateUserRequest) (user *models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "user.Create")
	defer func() { tracing.End(span, err) }()

	// Hash before touching the store so no lock or transaction is held meanwhile.
	user, err = models.NewUser(id.NewUserID(), req.Params(), req.Password, s.rules, requestcontext.Now(ctx))
	if err != nil {
		s.countValidationFailure(err)
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "email already in use")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		return s.emitAudit(ctx, audit.EventUserCreated, user, "")
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	s.logAudit(ctx, audit.EventUserCreated, user, "")
	if s.metrics != nil {
		s.metrics.IncrementUserCreated()
	}
	return user, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.load(ctx, userID)
}

// List returns users matching filter, ordered by name.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.User, error) {
	if filter.State != "" && !filter.State.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid user state")
	}
	users, err := s.users.Find(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// Update replaces the user's name and email.
func (s *Service) Update(ctx context.Context, userID id.UserID, req models.UpdateUserRequest) (user *models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "user.Update", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer func() { tracing.End(span, err) }()

	return s.mutate(ctx, userID, audit.EventUserUpdated, "failed to update user", func(u *models.User) error {
		if err := u.Update(req.Params(), requestcontext.Now(ctx)); err != nil {
			s.countValidationFailure(err)
			return err
		}
		return nil
	})
}

// ChangePassword replaces the password after verifying the current one.
// Hashing happens outside the store lock; the write is refused if the hash
// changed in the meantime.
func (s *Service) ChangePassword(ctx context.Context, userID id.UserID, req models.ChangePasswordRequest) (err error) {
	ctx, span := s.tracer.Start(ctx, "user.ChangePassword", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer func() { tracing.End(span, err) }()

	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if !user.PasswordMatches(req.CurrentPassword) {
		return dErrors.Validation(dErrors.Violation{
			Key:     models.MsgCurrentPasswordInvalid.Key,
			Message: models.MsgCurrentPasswordInvalid.Default,
		})
	}
	verifiedHash := user.PasswordHash
	if err := user.ChangePassword(req.NewPassword, s.rules, requestcontext.Now(ctx)); err != nil {
		return err
	}

	_, err = s.mutate(ctx, userID, audit.EventUserPasswordChanged, "failed to change password", func(u *models.User) error {
		if u.PasswordHash != verifiedHash {
			return dErrors.New(dErrors.CodeConflict, "password was changed concurrently")
		}
		u.PasswordHash = user.PasswordHash
		u.UpdatedAt = user.UpdatedAt
		return nil
	})
	return err
}

func (s *Service) Deactivate(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.transition(ctx, userID, audit.EventUserDeactivated, (*models.User).Deactivate)
}

func (s *Service) Reactivate(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.transition(ctx, userID, audit.EventUserReactivated, (*models.User).Reactivate)
}

func (s *Service) Block(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.transition(ctx, userID, audit.EventUserBlocked, (*models.User).Block)
}

func (s *Service) transition(ctx context.Context, userID id.UserID, event audit.AuditEvent, apply func(*models.User, time.Time) error) (user *models.User, err error) {
	ctx, span := s.tracer.Start(ctx, "user."+string(event), trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer func() { tracing.End(span, err) }()

	return s.mutate(ctx, userID, event, "failed to update user state", func(u *models.User) error {
		return apply(u, requestcontext.Now(ctx))
	})
}

// mutate applies fn to the locked user and records event in the same
// transaction. A failed audit write rolls the change back.
func (s *Service) mutate(ctx context.Context, userID id.UserID, event audit.AuditEvent, msg string, fn func(*models.User) error) (*models.User, error) {
	var user *models.User
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := s.users.Execute(ctx, userID, fn)
		if err != nil {
			return s.translateWriteError(err, msg)
		}
		user = updated
		return s.emitAudit(ctx, event, user, "")
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, event, user, "")
	return user, nil
}

// IsAccountActive reports whether userID may still act with an issued
// token. Missing accounts are inactive.
func (s *Service) IsAccountActive(ctx context.Context, userID id.UserID) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user.CanLogin(), nil
}

// Delete erases a user. Reserved for administrators.
func (s *Service) Delete(ctx context.Context, userID id.UserID) (err error) {
	ctx, span := s.tracer.Start(ctx, "user.Delete", trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer func() { tracing.End(span, err) }()

	if userID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}

	var user *models.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// Capture user before deletion to enrich the audit event
		found, err := s.load(ctx, userID)
		if err != nil {
			return err
		}
		user = found
		if err := s.users.Delete(ctx, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "user not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete user")
		}
		return s.emitAudit(ctx, audit.EventUserDeleted, user, "")
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventUserDeleted, user, "")
	return nil
}

func (s *Service) load(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) translateWriteError(err error, msg string) error {
	var domainErr *dErrors.Error
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "email already in use")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) countValidationFailure(err error) {
	if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeValidation) {
		s.metrics.IncrementValidationFailure()
	}
}

// logAudit writes the audit line to the application log.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, user *models.User, reason string) {
	args := []any{
		"event", string(event),
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
	}
	if user != nil {
		args = append(args, "user_id", user.ID.String())
	}
	if reason != "" {
		args = append(args, "reason", reason)
	}
	s.logger.InfoContext(ctx, string(event), args...)
}

// emitAudit appends event to the audit outbox using the transaction in ctx.
func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, user *models.User, reason string) error {
	if s.auditPublisher == nil {
		return nil
	}
	e := audit.Event{
		Action:  string(event),
		ActorID: actorID(ctx),
		Reason:  reason,
		Device:  device.ParseUserAgent(requestcontext.UserAgent(ctx)),
	}
	if user != nil {
		e.UserID = user.ID
		e.Subject = "user:" + user.ID.String()
		e.Email = user.Email
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// recordAudit logs and emits an event that has no write to commit with,
// such as a login attempt. Emit failures are only logged.
func (s *Service) recordAudit(ctx context.Context, event audit.AuditEvent, user *models.User, reason string) {
	s.logAudit(ctx, event, user, reason)
	if err := s.emitAudit(ctx, event, user, reason); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func actorID(ctx context.Context) string {
	if actor := requestcontext.UserID(ctx); !actor.IsNil() {
		return actor.String()
	}
	return ""
}

// dummy returns a hash verified on logins for unknown emails so that the
// response time does not reveal whether an account exists.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		token, err := secrets.GenerateToken(16)
		if err != nil {
			token = "clinic-dummy-password"
		}
		hash, err := secrets.HashPassword(token, s.rules.Iterations)
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
