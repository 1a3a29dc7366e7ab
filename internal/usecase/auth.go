package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/infra/logger"
	"github.com/BillBrieferServer/scribe/internal/infra/security"
	"github.com/BillBrieferServer/scribe/internal/repository"
)

// AuthService handles password login and session lifecycle.
type AuthService struct {
	accounts port.AccountRepository
	issuer   *SessionIssuer
	events   port.EventPublisher

	// decoyHash is verified against when the email is unknown, so the lookup
	// miss and a wrong password take comparable time.
	decoyHash string
}

// NewAuthService constructs an auth service.
func NewAuthService(accounts port.AccountRepository, issuer *SessionIssuer) (*AuthService, error) {
	decoy, err := security.HashPassword("decoy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("prepare decoy hash: %w", err)
	}
	return &AuthService{accounts: accounts, issuer: issuer, decoyHash: decoy}, nil
}

// WithEvents attaches an audit event publisher.
func (s *AuthService) WithEvents(events port.EventPublisher) *AuthService {
	s.events = events
	return s
}

// Login verifies the credentials and mints a new session. Unknown email and
// wrong password are reported identically; an unverified account with the
// right password gets its own error and no session.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = domain.NormalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = security.VerifyPassword(password, s.decoyHash)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("load account: %w", err)
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return "", ErrInvalidCredentials
	}

	if !account.Verified {
		return "", ErrEmailNotVerified
	}

	token, err := s.issuer.Issue(ctx, account.ID)
	if err != nil {
		return "", err
	}

	logger.WithContext(ctx).Info("login succeeded",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("account_id", account.ID),
	)

	return token, nil
}

// ResolveSession maps a raw bearer token to its account.
func (s *AuthService) ResolveSession(ctx context.Context, rawToken string) (*domain.Account, error) {
	return s.issuer.Resolve(ctx, rawToken)
}

// Logout revokes the session behind the token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	account, resolveErr := s.issuer.Resolve(ctx, rawToken)

	if err := s.issuer.Revoke(ctx, rawToken); err != nil {
		return err
	}

	if s.events != nil && resolveErr == nil {
		event := domain.SessionRevokedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			RevokedAt: time.Now().UTC(),
		}
		if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
			logger.WithContext(ctx).Warn("failed to publish session revoked event", zap.Error(err))
		}
	}

	return nil
}
