// Package lockout throttles password logins per email and client IP.
//
// Failed attempts are counted in a fixed window. Once MaxAttempts failures
// accumulate the key is locked for LockDuration and Check rejects it until
// the lock expires. A successful login clears the key.
package lockout

import (
	"context"
	"strings"
	"time"

	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/requestcontext"
)

type Config struct {
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

// Record is the throttling state of one key.
type Record struct {
	Failures    int
	LockedUntil time.Time
}

func (r Record) LockedAt(now time.Time) bool {
	return now.Before(r.LockedUntil)
}

// Store keeps failure counters and locks. Expired windows and locks read
// back as a zero Record.
type Store interface {
	Get(ctx context.Context, key string, now time.Time) (Record, error)
	RecordFailure(ctx context.Context, key string, window time.Duration, now time.Time) (int, error)
	Lock(ctx context.Context, key string, until, now time.Time) error
	Clear(ctx context.Context, key string) error
}

// Decision is the outcome of Check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter struct {
	store Store
	cfg   Config
}

func New(store Store, cfg Config) *Limiter {
	defaults := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = defaults.LockDuration
	}
	return &Limiter{store: store, cfg: cfg}
}

// Check reports whether a login for email from ip may proceed.
func (l *Limiter) Check(ctx context.Context, email, ip string) (Decision, error) {
	now := requestcontext.Now(ctx)
	record, err := l.store.Get(ctx, Key(email, ip), now)
	if err != nil {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read login lockout")
	}
	if record.LockedAt(now) {
		return Decision{RetryAfter: record.LockedUntil.Sub(now)}, nil
	}
	return Decision{Allowed: true}, nil
}

// RecordFailure counts a failed login and reports whether it locked the key.
func (l *Limiter) RecordFailure(ctx context.Context, email, ip string) (bool, error) {
	now := requestcontext.Now(ctx)
	key := Key(email, ip)
	failures, err := l.store.RecordFailure(ctx, key, l.cfg.Window, now)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if failures < l.cfg.MaxAttempts {
		return false, nil
	}
	if err := l.store.Lock(ctx, key, now.Add(l.cfg.LockDuration), now); err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock login")
	}
	return true, nil
}

// Clear forgets the failures of email from ip.
func (l *Limiter) Clear(ctx context.Context, email, ip string) error {
	if err := l.store.Clear(ctx, Key(email, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear login failures")
	}
	return nil
}

// Key joins email and ip into one store key. Colons inside either part are
// replaced so the separator stays unambiguous.
func Key(email, ip string) string {
	return sanitizeKeySegment(strings.ToLower(strings.TrimSpace(email))) + ":" + sanitizeKeySegment(ip)
}

func sanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
