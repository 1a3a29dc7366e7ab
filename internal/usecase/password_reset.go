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

// PasswordResetService handles the forgot-password flow.
type PasswordResetService struct {
	accounts          port.AccountRepository
	mailer            port.Mailer
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	codeTTL           time.Duration
	now               func() time.Time
}

// NewPasswordResetService constructs a password reset service.
func NewPasswordResetService(
	accounts port.AccountRepository,
	mailer port.Mailer,
	events port.EventPublisher,
	validator *security.PasswordValidator,
	codeTTL time.Duration,
) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if codeTTL <= 0 {
		codeTTL = DefaultCodeTTL
	}
	return &PasswordResetService{
		accounts:          accounts,
		mailer:            mailer,
		events:            events,
		passwordValidator: validator,
		codeTTL:           codeTTL,
		now:               time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *PasswordResetService) WithClock(now func() time.Time) *PasswordResetService {
	s.now = now
	return s
}

// RequestReset issues a reset code when a verified account holds the email.
// The caller always gets the same nil result: whether the account exists,
// whether it is verified, and whether the mail went out are all invisible to
// the requester.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load account: %w", err)
	}
	if !account.Verified {
		return nil
	}

	code, err := security.GenerateNumericCode(6)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}

	now := s.now().UTC()
	pending := domain.PendingCode{
		CodeHash:  security.HashToken(code),
		ExpiresAt: now.Add(s.codeTTL),
	}
	if err := s.accounts.SetPendingReset(ctx, account.ID, pending); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}

	if err := s.mailer.SendResetCode(ctx, email, account.Name, code); err != nil {
		// Surfacing the failure would reveal that the account exists.
		logger.WithContext(ctx).Error("reset mail failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return nil
	}

	if s.events != nil {
		_ = s.events.PublishPasswordResetRequested(ctx, domain.PasswordResetRequestedEvent{
			EventID:     uuid.NewString(),
			AccountID:   account.ID,
			RequestedAt: now,
			ExpiresAt:   pending.ExpiresAt,
		})
	}

	return nil
}

// ConfirmReset redeems a reset code and installs the new password. No session
// is created; the user logs in with the new credentials.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, email, code, newPassword string) error {
	email = domain.NormalizeEmail(email)

	// A weak replacement password is rejected before the code is examined, so
	// the caller can fix the password without burning a redemption attempt.
	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("load account: %w", err)
	}

	pending := account.PendingReset
	if pending == nil || !pending.Matches(security.HashToken(code)) {
		return ErrInvalidCode
	}
	if pending.IsExpired(s.now().UTC()) {
		return ErrExpiredCode
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishPasswordChanged(ctx, domain.PasswordChangedEvent{
			EventID:   uuid.NewString(),
			AccountID: account.ID,
			ChangedAt: s.now().UTC(),
		})
	}

	return nil
}
