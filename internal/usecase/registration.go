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

// DefaultCodeTTL bounds how long a one-time code stays redeemable.
const DefaultCodeTTL = 15 * time.Minute

// RegistrationService handles new account onboarding and email verification.
type RegistrationService struct {
	accounts          port.AccountRepository
	issuer            *SessionIssuer
	mailer            port.Mailer
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	codeTTL           time.Duration
	now               func() time.Time
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(
	accounts port.AccountRepository,
	issuer *SessionIssuer,
	mailer port.Mailer,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	codeTTL time.Duration,
) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &RegistrationService{
		accounts:          accounts,
		issuer:            issuer,
		mailer:            mailer,
		events:            events,
		passwordValidator: validator,
		codeTTL:           codeTTL,
		now:               time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	s.now = now
	return s
}

// Register creates (or refreshes) an unverified account and mails out a fresh
// verification code. Re-registering an unverified email replaces the stored
// verifier and code; a verified email is rejected.
func (s *RegistrationService) Register(ctx context.Context, email, password, name string) error {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if name == "" {
		return fmt.Errorf("name is required")
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	code, err := security.GenerateNumericCode(6)
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if err := account.IssueVerification(security.HashToken(code), now.Add(s.codeTTL)); err != nil {
		return err
	}

	// The upsert keeps the original row id when the email was already taken
	// by an unverified account, so the id it returns is the one events and
	// later lookups must refer to.
	accountID, err := s.accounts.Upsert(ctx, account)
	if err != nil {
		return fmt.Errorf("store account: %w", err)
	}
	if accountID == "" {
		return ErrAlreadyRegistered
	}

	if err := s.mailer.SendVerificationCode(ctx, email, name, code); err != nil {
		logger.WithContext(ctx).Error("verification mail failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return ErrDispatchFailed
	}

	logger.WithContext(ctx).Info("registration accepted",
		zap.String("email", logger.MaskEmail(email)),
		zap.Int("password_strength", security.PasswordStrength(password, email, name)),
	)

	if s.events != nil {
		_ = s.events.PublishAccountRegistered(ctx, domain.AccountRegisteredEvent{
			EventID:      uuid.NewString(),
			AccountID:    accountID,
			Email:        email,
			Name:         name,
			RegisteredAt: now,
		})
	}

	return nil
}

// Verify redeems a verification code. On success the account becomes verified
// and a session is issued, so verification doubles as the first login.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (string, error) {
	email = domain.NormalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCode
		}
		return "", fmt.Errorf("load account: %w", err)
	}

	pending := account.PendingVerification
	if account.Verified || pending == nil || !pending.Matches(security.HashToken(code)) {
		return "", ErrInvalidCode
	}
	if pending.IsExpired(s.now().UTC()) {
		return "", ErrExpiredCode
	}

	// The verified flag must be durable before any session for this account
	// exists, so a resolved session always implies a verified account.
	if err := s.accounts.MarkVerified(ctx, account.ID); err != nil {
		return "", fmt.Errorf("mark verified: %w", err)
	}

	token, err := s.issuer.Issue(ctx, account.ID)
	if err != nil {
		return "", err
	}

	if s.events != nil {
		_ = s.events.PublishAccountVerified(ctx, domain.AccountVerifiedEvent{
			EventID:    uuid.NewString(),
			AccountID:  account.ID,
			Email:      email,
			VerifiedAt: s.now().UTC(),
		})
	}

	return token, nil
}
