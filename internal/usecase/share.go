package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/infra/logger"
	"github.com/BillBrieferServer/scribe/internal/repository"
)

// ShareService mails notes to recipients, rate-limited per note and per
// account.
type ShareService struct {
	notes   port.NoteRepository
	limiter port.ShareLimiter
	mailer  port.Mailer
	events  port.EventPublisher

	// locks serializes admit-dispatch-record per account so two concurrent
	// shares cannot both pass Admit with one remaining slot.
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewShareService constructs a share service.
func NewShareService(notes port.NoteRepository, limiter port.ShareLimiter, mailer port.Mailer, events port.EventPublisher) *ShareService {
	return &ShareService{
		notes:   notes,
		limiter: limiter,
		mailer:  mailer,
		events:  events,
		locks:   make(map[string]*sync.Mutex),
		now:     time.Now,
	}
}

func (s *ShareService) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}

// Share mails the note to the recipient. The limiter admits first and records
// only after the mail went out, so a failed dispatch never burns quota.
func (s *ShareService) Share(ctx context.Context, accountID, senderName, noteID, recipient string) error {
	recipient = domain.NormalizeEmail(recipient)
	if recipient == "" {
		return fmt.Errorf("recipient is required")
	}

	note, err := s.notes.GetByID(ctx, accountID, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("load note: %w", err)
	}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	decision, err := s.limiter.Admit(ctx, accountID, noteID)
	if err != nil {
		return fmt.Errorf("admit share: %w", err)
	}
	if !decision.Allowed {
		logger.WithContext(ctx).Warn("note share denied",
			zap.String("account_id", accountID),
			zap.String("note_id", noteID),
			zap.String("scope", string(decision.Scope)),
			zap.Duration("retry_after", decision.RetryAfter),
		)
		return &RateLimitError{Scope: decision.Scope, RetryAfter: decision.RetryAfter}
	}

	if err := s.mailer.SendNoteShared(ctx, recipient, senderName, *note); err != nil {
		return ErrDispatchFailed
	}

	if err := s.limiter.Record(ctx, accountID, noteID); err != nil {
		// The mail already left; an unrecorded slot only loosens the cap.
		logger.WithContext(ctx).Error("record share failed",
			zap.String("account_id", accountID),
			zap.String("note_id", noteID),
			zap.Error(err),
		)
	}

	if s.events != nil {
		_ = s.events.PublishNoteShared(ctx, domain.NoteSharedEvent{
			EventID:   uuid.NewString(),
			AccountID: accountID,
			NoteID:    noteID,
			SharedAt:  s.now().UTC(),
			Metadata:  map[string]any{"recipient": logger.MaskEmail(recipient)},
		})
	}

	return nil
}
