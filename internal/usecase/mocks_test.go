package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BillBrieferServer/scribe/internal/core/domain"
	"github.com/BillBrieferServer/scribe/internal/core/port"
	"github.com/BillBrieferServer/scribe/internal/repository"
)

type fakeAccountRepository struct {
	mu       sync.Mutex
	byEmail  map[string]*domain.Account
	upserts  int
	writeErr error
}

func newFakeAccountRepository() *fakeAccountRepository {
	return &fakeAccountRepository{byEmail: map[string]*domain.Account{}}
}

func (f *fakeAccountRepository) Upsert(_ context.Context, account domain.Account) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.writeErr != nil {
		return "", f.writeErr
	}

	existing, ok := f.byEmail[account.Email]
	if ok {
		if existing.Verified {
			return "", nil
		}
		existing.Name = account.Name
		existing.PasswordHash = account.PasswordHash
		existing.PendingVerification = account.PendingVerification
		return existing.ID, nil
	}

	copied := account
	f.byEmail[account.Email] = &copied
	return account.ID, nil
}

func (f *fakeAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.byEmail {
		if account.ID == id {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAccountRepository) MarkVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.byEmail {
		if account.ID == id {
			account.Verified = true
			account.PendingVerification = nil
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAccountRepository) SetPendingReset(_ context.Context, id string, code domain.PendingCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.byEmail {
		if account.ID == id {
			copied := code
			account.PendingReset = &copied
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeAccountRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.byEmail {
		if account.ID == id {
			account.PasswordHash = passwordHash
			account.PendingReset = nil
			return nil
		}
	}
	return repository.ErrNotFound
}

var _ port.AccountRepository = (*fakeAccountRepository)(nil)

type fakeSessionRepository struct {
	mu       sync.Mutex
	accounts *fakeAccountRepository
	byHash   map[string]domain.Session
	now      func() time.Time
}

func newFakeSessionRepository(accounts *fakeAccountRepository) *fakeSessionRepository {
	return &fakeSessionRepository{
		accounts: accounts,
		byHash:   map[string]domain.Session{},
		now:      time.Now,
	}
}

func (f *fakeSessionRepository) Create(_ context.Context, session domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[session.TokenHash] = session
	return nil
}

func (f *fakeSessionRepository) GetAccountByTokenHash(ctx context.Context, tokenHash string) (*domain.Account, error) {
	f.mu.Lock()
	session, ok := f.byHash[tokenHash]
	f.mu.Unlock()
	if !ok || !session.IsActive(f.now()) {
		return nil, repository.ErrNotFound
	}
	return f.accounts.GetByID(ctx, session.AccountID)
}

func (f *fakeSessionRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byHash, tokenHash)
	return nil
}

var _ port.SessionRepository = (*fakeSessionRepository)(nil)

type sentMail struct {
	kind      string
	recipient string
	code      string
	noteID    string
}

type fakeMailer struct {
	mu        sync.Mutex
	sent      []sentMail
	failKinds map[string]error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failKinds: map[string]error{}}
}

func (f *fakeMailer) failOn(kind string) {
	f.failKinds[kind] = errors.New("smtp unavailable")
}

func (f *fakeMailer) record(mail sentMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failKinds[mail.kind]; ok {
		return err
	}
	f.sent = append(f.sent, mail)
	return nil
}

func (f *fakeMailer) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].code
}

func (f *fakeMailer) SendVerificationCode(_ context.Context, email, _ string, code string) error {
	return f.record(sentMail{kind: "verification", recipient: email, code: code})
}

func (f *fakeMailer) SendResetCode(_ context.Context, email, _ string, code string) error {
	return f.record(sentMail{kind: "reset", recipient: email, code: code})
}

func (f *fakeMailer) SendNoteShared(_ context.Context, recipient, _ string, note domain.Note) error {
	return f.record(sentMail{kind: "share", recipient: recipient, noteID: note.ID})
}

var _ port.Mailer = (*fakeMailer)(nil)

type fakePublisher struct {
	mu         sync.Mutex
	events     []string
	registered []domain.AccountRegisteredEvent
}

func (f *fakePublisher) push(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, name)
}

func (f *fakePublisher) lastRegistered() (domain.AccountRegisteredEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.registered) == 0 {
		return domain.AccountRegisteredEvent{}, false
	}
	return f.registered[len(f.registered)-1], true
}

func (f *fakePublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	f.mu.Lock()
	f.registered = append(f.registered, event)
	f.mu.Unlock()
	f.push("account.registered")
	return nil
}

func (f *fakePublisher) PublishAccountVerified(context.Context, domain.AccountVerifiedEvent) error {
	f.push("account.verified")
	return nil
}

func (f *fakePublisher) PublishPasswordResetRequested(context.Context, domain.PasswordResetRequestedEvent) error {
	f.push("password.reset_requested")
	return nil
}

func (f *fakePublisher) PublishPasswordChanged(context.Context, domain.PasswordChangedEvent) error {
	f.push("password.changed")
	return nil
}

func (f *fakePublisher) PublishSessionRevoked(context.Context, domain.SessionRevokedEvent) error {
	f.push("session.revoked")
	return nil
}

func (f *fakePublisher) PublishNoteShared(context.Context, domain.NoteSharedEvent) error {
	f.push("note.shared")
	return nil
}

var _ port.EventPublisher = (*fakePublisher)(nil)

type fakeNoteRepository struct {
	mu    sync.Mutex
	notes map[string]domain.Note
}

func newFakeNoteRepository() *fakeNoteRepository {
	return &fakeNoteRepository{notes: map[string]domain.Note{}}
}

func (f *fakeNoteRepository) Create(_ context.Context, note domain.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[note.ID] = note
	return nil
}

func (f *fakeNoteRepository) GetByID(_ context.Context, accountID, noteID string) (*domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[noteID]
	if !ok || note.AccountID != accountID {
		return nil, repository.ErrNotFound
	}
	copied := note
	return &copied, nil
}

func (f *fakeNoteRepository) ListByAccount(_ context.Context, accountID string) ([]domain.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Note
	for _, note := range f.notes {
		if note.AccountID == accountID {
			out = append(out, note)
		}
	}
	return out, nil
}

func (f *fakeNoteRepository) Delete(_ context.Context, accountID, noteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[noteID]
	if !ok || note.AccountID != accountID {
		return repository.ErrNotFound
	}
	delete(f.notes, noteID)
	return nil
}

var _ port.NoteRepository = (*fakeNoteRepository)(nil)
