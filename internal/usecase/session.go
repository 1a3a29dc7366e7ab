package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/infra/security"
	"github.com/BillBrieferServer/scribe/internal/repository"
)

// DefaultSessionTTL is the session lifetime applied when none is configured.
const DefaultSessionTTL = 720 * time.Hour

// SessionIssuer mints and resolves opaque bearer sessions. The raw secret
// leaves this type exactly once, at creation; persistence only ever sees the
// SHA-256 digest.
type SessionIssuer struct {
	sessions port.SessionRepository
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionIssuer constructs a session issuer with the given lifetime.
func NewSessionIssuer(sessions port.SessionRepository, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionIssuer{sessions: sessions, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source for tests.
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	s.now = now
	return s
}

// TTL reports the configured session lifetime.
func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue creates a fresh session for the account and returns the raw bearer
// secret.
func (s *SessionIssuer) Issue(ctx context.Context, accountID string) (string, error) {
	raw, err := security.GenerateSecureToken(security.SessionTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	now := s.now().UTC()
	session := domain.Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		TokenHash: security.HashToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return raw, nil
}

// Resolve maps a raw bearer secret to its account. Expired, revoked, and
// never-issued tokens are indistinguishable.
func (s *SessionIssuer) Resolve(ctx context.Context, rawToken string) (*domain.Account, error) {
	if rawToken == "" {
		return nil, ErrUnauthenticated
	}

	account, err := s.sessions.GetAccountByTokenHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	return account, nil
}

// Revoke deletes the session behind the raw secret. Unknown tokens are a
// no-op so logout stays idempotent.
func (s *SessionIssuer) Revoke(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, security.HashToken(rawToken)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
