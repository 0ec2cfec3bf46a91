package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"clinic/internal/platform/tracing"
	"clinic/internal/user/metrics"
	"clinic/internal/user/models"
	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/email"
	"clinic/pkg/platform/audit"
	"clinic/pkg/platform/sentinel"
	"clinic/pkg/requestcontext"
	"clinic/pkg/secrets"
)

// Internal reasons recorded on failed logins. Callers only ever see
// errInvalidCredentials.
const (
	reasonUnknownEmail  = "unknown_email"
	reasonWrongPassword = "wrong_password"
	reasonNotActive     = "user_not_active"
	reasonLocked        = "too_many_attempts"
)

func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
}

func errTooManyAttempts() error {
	return dErrors.New(dErrors.CodeTooManyRequests, "too many failed login attempts, try again later")
}

// Login authenticates by email and password and issues an access token.
//
// Unknown email, wrong password and inactive or blocked accounts all fail
// with the same unauthorized error. Unknown emails still pay for one PBKDF2
// verification against a dummy hash. With a LoginLimiter configured, an
// email and client IP pair that failed too often is refused before any
// password is checked.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (result *models.LoginResult, err error) {
	ctx, span := s.tracer.Start(ctx, "user.Login")
	defer func() { tracing.End(span, err) }()
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveLogin(start)
		}
	}()

	address := email.Normalize(req.Email)
	ip := requestcontext.ClientIP(ctx)
	if s.limiter != nil {
		decision, err := s.limiter.Check(ctx, address, ip)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			s.recordAudit(ctx, audit.EventLoginLocked, nil, reasonLocked)
			if s.metrics != nil {
				s.metrics.IncrementLogin(metrics.LoginLocked)
			}
			return nil, errTooManyAttempts()
		}
	}

	user, err := s.users.FindByEmail(ctx, address)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}
		secrets.VerifyPassword(req.Password, s.dummy())
		s.loginFailed(ctx, address, nil, reasonUnknownEmail)
		return nil, errInvalidCredentials()
	}

	if !user.PasswordMatches(req.Password) {
		s.loginFailed(ctx, address, user, reasonWrongPassword)
		return nil, errInvalidCredentials()
	}
	if !user.CanLogin() {
		s.loginFailed(ctx, address, user, reasonNotActive)
		return nil, errInvalidCredentials()
	}

	now := requestcontext.Now(ctx)
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue access token")
	}

	if user.NeedsRehash(s.rules) {
		s.rehash(ctx, user, req.Password)
	}

	if s.limiter != nil {
		if err := s.limiter.Clear(ctx, address, ip); err != nil {
			s.logger.WarnContext(ctx, "failed to clear login failures", "user_id", user.ID.String(), "error", err)
		}
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	s.recordAudit(ctx, audit.EventLoginSucceeded, user, "")
	if s.metrics != nil {
		s.metrics.IncrementLogin(metrics.LoginSucceeded)
	}
	return &models.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, address string, user *models.User, reason string) {
	s.recordAudit(ctx, audit.EventLoginFailed, user, reason)
	if s.metrics != nil {
		s.metrics.IncrementLogin(metrics.LoginFailed)
	}
	if s.limiter == nil {
		return
	}
	locked, err := s.limiter.RecordFailure(ctx, address, requestcontext.ClientIP(ctx))
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record login failure", "error", err)
		return
	}
	if locked {
		s.recordAudit(ctx, audit.EventLoginLocked, user, reasonLocked)
	}
}

// rehash upgrades a hash created with fewer iterations than configured.
// Failures are logged; the login itself already succeeded. A hash that
// changed since it was verified is left alone.
func (s *Service) rehash(ctx context.Context, user *models.User, password string) {
	hash, err := secrets.HashPassword(password, s.rules.Iterations)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to rehash password", "user_id", user.ID.String(), "error", err)
		return
	}
	verifiedHash := user.PasswordHash
	_, err = s.users.Execute(ctx, user.ID, func(u *models.User) error {
		if u.PasswordHash != verifiedHash {
			return errHashChanged
		}
		u.PasswordHash = hash
		return nil
	})
	switch {
	case errors.Is(err, errHashChanged):
		s.logger.DebugContext(ctx, "password changed during login, skipping rehash", "user_id", user.ID.String())
	case err != nil:
		s.logger.WarnContext(ctx, "failed to store rehashed password", "user_id", user.ID.String(), "error", err)
	default:
		user.PasswordHash = hash
	}
}

var errHashChanged = errors.New("password hash changed")
