package lockout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "clinic/pkg/domain-errors"
	"clinic/pkg/requestcontext"
)

type LimiterSuite struct {
	suite.Suite
	limiter *Limiter
	now     time.Time
}

func TestLimiterSuite(t *testing.T) {
	suite.Run(t, new(LimiterSuite))
}

func (s *LimiterSuite) SetupTest() {
	s.now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	s.limiter = New(NewInMemoryStore(), Config{MaxAttempts: 3, Window: time.Minute, LockDuration: 10 * time.Minute})
}

func (s *LimiterSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *LimiterSuite) fail(ctx context.Context, times int) bool {
	var locked bool
	for i := 0; i < times; i++ {
		var err error
		locked, err = s.limiter.RecordFailure(ctx, "ana@example.com", "10.0.0.1")
		s.Require().NoError(err)
	}
	return locked
}

func (s *LimiterSuite) TestLocksAfterMaxAttempts() {
	ctx := s.at(0)
	s.False(s.fail(ctx, 2))

	decision, err := s.limiter.Check(ctx, "ana@example.com", "10.0.0.1")
	s.Require().NoError(err)
	s.True(decision.Allowed)

	s.True(s.fail(ctx, 1))
	decision, err = s.limiter.Check(s.at(time.Minute), "ana@example.com", "10.0.0.1")
	s.Require().NoError(err)
	s.False(decision.Allowed)
	s.Equal(9*time.Minute, decision.RetryAfter)
}

func (s *LimiterSuite) TestLockExpires() {
	s.True(s.fail(s.at(0), 3))

	decision, err := s.limiter.Check(s.at(10*time.Minute), "ana@example.com", "10.0.0.1")
	s.Require().NoError(err)
	s.True(decision.Allowed)
}

func (s *LimiterSuite) TestFailuresOutsideWindowDoNotAccumulate() {
	s.False(s.fail(s.at(0), 2))
	s.False(s.fail(s.at(2*time.Minute), 2))
}

func (s *LimiterSuite) TestKeyedByEmailAndIP() {
	s.True(s.fail(s.at(0), 3))

	other, err := s.limiter.Check(s.at(0), "ana@example.com", "10.0.0.2")
	s.Require().NoError(err)
	s.True(other.Allowed)

	other, err = s.limiter.Check(s.at(0), "bia@example.com", "10.0.0.1")
	s.Require().NoError(err)
	s.True(other.Allowed)

	same, err := s.limiter.Check(s.at(0), " ANA@example.com", "10.0.0.1")
	s.Require().NoError(err)
	s.False(same.Allowed)
}

func (s *LimiterSuite) TestClearResetsFailures() {
	s.False(s.fail(s.at(0), 2))
	s.Require().NoError(s.limiter.Clear(s.at(0), "ana@example.com", "10.0.0.1"))
	s.False(s.fail(s.at(0), 2))
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string, time.Time) (Record, error) {
	return Record{}, f.err
}
func (f failingStore) RecordFailure(context.Context, string, time.Duration, time.Time) (int, error) {
	return 0, f.err
}
func (f failingStore) Lock(context.Context, string, time.Time, time.Time) error { return f.err }
func (f failingStore) Clear(context.Context, string) error                      { return f.err }

func (s *LimiterSuite) TestStoreErrorsAreInternal() {
	limiter := New(failingStore{err: errors.New("redis down")}, Config{})

	_, err := limiter.Check(s.at(0), "ana@example.com", "10.0.0.1")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	_, err = limiter.RecordFailure(s.at(0), "ana@example.com", "10.0.0.1")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.True(dErrors.HasCode(limiter.Clear(s.at(0), "ana@example.com", "10.0.0.1"), dErrors.CodeInternal))
}

func (s *LimiterSuite) TestKey() {
	s.Equal("ana@example.com:2001_db8__1", Key(" Ana@Example.com ", "2001:db8::1"))
}
