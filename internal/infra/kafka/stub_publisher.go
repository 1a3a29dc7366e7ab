package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: log}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountRegistered logs scribe.account.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"account_id":    event.AccountID,
		"email":         logger.MaskEmail(event.Email),
		"name":          event.Name,
		"registered_at": event.RegisteredAt,
		"metadata":      event.Metadata,
	}
	p.logEvent("scribe.account.registered", event.AccountID, event.RegisteredAt, payload)
	return nil
}

// PublishAccountVerified logs scribe.account.verified events.
func (p *StubPublisher) PublishAccountVerified(_ context.Context, event domain.AccountVerifiedEvent) error {
	payload := map[string]any{
		"account_id":  event.AccountID,
		"email":       logger.MaskEmail(event.Email),
		"verified_at": event.VerifiedAt,
		"metadata":    event.Metadata,
	}
	p.logEvent("scribe.account.verified", event.AccountID, event.VerifiedAt, payload)
	return nil
}

// PublishPasswordResetRequested logs scribe.account.password.reset_requested events.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := map[string]any{
		"account_id":   event.AccountID,
		"requested_at": event.RequestedAt,
		"expires_at":   event.ExpiresAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("scribe.account.password.reset_requested", event.AccountID, event.RequestedAt, payload)
	return nil
}

// PublishPasswordChanged logs scribe.account.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"changed_at": event.ChangedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent("scribe.account.password.changed", event.AccountID, event.ChangedAt, payload)
	return nil
}

// PublishSessionRevoked logs scribe.session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"session_id": event.SessionID,
		"revoked_at": event.RevokedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent("scribe.session.revoked", event.AccountID, event.RevokedAt, payload)
	return nil
}

// PublishNoteShared logs scribe.note.shared events.
func (p *StubPublisher) PublishNoteShared(_ context.Context, event domain.NoteSharedEvent) error {
	payload := map[string]any{
		"account_id": event.AccountID,
		"note_id":    event.NoteID,
		"shared_at":  event.SharedAt,
		"metadata":   event.Metadata,
	}
	p.logEvent("scribe.note.shared", event.AccountID, event.SharedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
